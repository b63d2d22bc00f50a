package qnode

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/quanta-ml/quanta/internal/circuit"
)

// OccKind distinguishes where a parameter occurrence sits.
type OccKind int

// Occurrence kinds: a direct gate argument, or a cell inside a polynomial
// observable's coefficient matrix.
const (
	OccGateArg OccKind = iota
	OccObsCoeff
)

// Occurrence records one syntactic use of a free parameter. The native
// value at the occurrence equals Mult*x + Offset when Affine is set; a
// cleared Affine marks an opaque expression use, which rules out any
// analytic path for the parameter.
type Occurrence struct {
	Kind OccKind

	// Param is the free-parameter index this occurrence belongs to.
	Param int

	// Gate-argument coordinates (Kind == OccGateArg).
	Op, Pos int

	// Coefficient-cell coordinates (Kind == OccObsCoeff), in the
	// observable-local basis.
	Obs, Row, Col int

	Mult, Offset float64
	Affine       bool
}

func (o Occurrence) String() string {
	place := fmt.Sprintf("op %d arg %d", o.Op, o.Pos)
	if o.Kind == OccObsCoeff {
		place = fmt.Sprintf("output %d cell [%d,%d]", o.Obs, o.Row, o.Col)
	}
	if !o.Affine {
		return place + " (non-affine)"
	}
	return fmt.Sprintf("%s (a=%g b=%g)", place, o.Mult, o.Offset)
}

// Registry holds, for every free parameter, its ordered occurrence list.
// It is built from a single symbolic trace and is immutable afterwards;
// one registry serves arbitrarily many concrete evaluations.
type Registry struct {
	prog *circuit.Program
	occs [][]Occurrence
}

// BuildRegistry scans a finalized program once and classifies every
// parameter occurrence. Classification is eager: affine coefficients and
// occurrence kinds are stored as plain data, never re-derived at gradient
// time.
func BuildRegistry(prog *circuit.Program) (*Registry, error) {
	if err := prog.Finalize(); err != nil {
		return nil, err
	}

	r := &Registry{
		prog: prog,
		occs: make([][]Occurrence, prog.NumParams()),
	}

	for i, op := range prog.Operations() {
		for pos, arg := range op.Args {
			if idx, mult, offset, ok := arg.AffineRef(); ok {
				r.occs[idx] = append(r.occs[idx], Occurrence{
					Kind: OccGateArg, Param: idx, Op: i, Pos: pos,
					Mult: mult, Offset: offset, Affine: true,
				})
				continue
			}
			// Opaque expressions yield one non-affine occurrence per
			// referenced parameter; constants yield none.
			for _, idx := range arg.ParamRefs() {
				r.occs[idx] = append(r.occs[idx], Occurrence{
					Kind: OccGateArg, Param: idx, Op: i, Pos: pos,
				})
			}
		}
	}

	for i, obs := range prog.Observables() {
		for _, e := range obs.Entries() {
			idx, ok := e.Value.BareParam()
			if !ok {
				continue
			}
			r.occs[idx] = append(r.occs[idx], Occurrence{
				Kind: OccObsCoeff, Param: idx, Op: -1,
				Obs: i, Row: e.Row, Col: e.Col,
				Mult: 1, Affine: true,
			})
		}
	}

	return r, nil
}

// NumParams returns the registered parameter count.
func (r *Registry) NumParams() int { return len(r.occs) }

// Occurrences returns parameter i's occurrence list in trace order.
// Callers must not mutate the result.
func (r *Registry) Occurrences(i int) ([]Occurrence, error) {
	if i < 0 || i >= len(r.occs) {
		return nil, errors.Wrapf(ErrParamOutOfRange, "index %d, have %d parameters", i, len(r.occs))
	}
	return r.occs[i], nil
}
