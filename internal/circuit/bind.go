package circuit

import (
	"github.com/pkg/errors"

	"github.com/quanta-ml/quanta/internal/linalg"
)

// BoundOp is one operation with fully resolved argument values.
type BoundOp struct {
	Kind  Kind
	Wires []int
	Args  []float64
}

// BoundObs is one observable in Heisenberg form over the full wire basis:
// a vector for first-order observables, a matrix for second-order ones.
// Exactly one of the fields is set.
type BoundObs struct {
	Vector []float64
	Matrix *linalg.Matrix
}

// Bound is a fully bound program, ready for a device execution.
type Bound struct {
	NumWires int
	Ops      []BoundOp
	Obs      []BoundObs
}

// ArgOverride pins one gate argument to an explicit value, ignoring the
// parameter binding for that single argument position. The shift
// differentiators use it to perturb exactly one occurrence while every
// other occurrence of the same or different parameters stays at its bound
// value.
type ArgOverride struct {
	Op, Pos int
	Value   float64
}

// CoeffOverride pins one polynomial-observable cell to an explicit value.
type CoeffOverride struct {
	Obs, Row, Col int
	Value         float64
}

// Overrides adjusts a single binding. The zero value binds the program
// as traced.
type Overrides struct {
	Arg   *ArgOverride
	Coeff *CoeffOverride
	// Observables, when non-nil, replaces the bound observables entirely
	// (the order-2 path executes transformed observables at unshifted
	// arguments).
	Observables []BoundObs
}

// Bind resolves the program against a concrete parameter vector.
func (p *Program) Bind(params []float64, ov *Overrides) (*Bound, error) {
	if err := p.Finalize(); err != nil {
		return nil, err
	}
	if len(params) != p.numParams {
		return nil, errors.Wrapf(ErrBadParamVector, "got %d values, program declares %d parameters", len(params), p.numParams)
	}
	if ov == nil {
		ov = &Overrides{}
	}

	b := &Bound{
		NumWires: p.numWires,
		Ops:      make([]BoundOp, len(p.ops)),
		Obs:      make([]BoundObs, len(p.obs)),
	}

	for i, op := range p.ops {
		args := make([]float64, len(op.Args))
		for j, a := range op.Args {
			args[j] = a.resolve(params)
		}
		if ov.Arg != nil && ov.Arg.Op == i {
			args[ov.Arg.Pos] = ov.Arg.Value
		}
		b.Ops[i] = BoundOp{Kind: op.Kind, Wires: op.Wires, Args: args}
	}

	if ov.Observables != nil {
		copy(b.Obs, ov.Observables)
		return b, nil
	}
	for i, o := range p.obs {
		b.Obs[i] = p.bindObservable(i, o, params, ov.Coeff)
	}
	return b, nil
}

func (p *Program) bindObservable(idx int, o Observable, params []float64, co *CoeffOverride) BoundObs {
	d := 1 + 2*p.numWires
	switch o.kind {
	case ObsX:
		q := make([]float64, d)
		q[1+2*o.wire] = 1
		return BoundObs{Vector: q}

	case ObsP:
		q := make([]float64, d)
		q[2+2*o.wire] = 1
		return BoundObs{Vector: q}

	case ObsPhotonNumber:
		// n = (x^2 + p^2 - 2) / 4 with hbar = 2.
		m := linalg.New(d, d)
		m.Set(0, 0, -0.5)
		m.Set(1+2*o.wire, 1+2*o.wire, 0.25)
		m.Set(2+2*o.wire, 2+2*o.wire, 0.25)
		return BoundObs{Matrix: m}

	default: // ObsPoly
		// Map the observable-local basis (1, x_w0, p_w0, ...) into the
		// full basis.
		lift := make([]int, 1+2*len(o.wires))
		for k, w := range o.wires {
			lift[1+2*k] = 1 + 2*w
			lift[2+2*k] = 2 + 2*w
		}
		m := linalg.New(d, d)
		for _, e := range o.entries {
			v := e.Value.resolve(params)
			if co != nil && co.Obs == idx && co.Row == e.Row && co.Col == e.Col {
				v = co.Value
			}
			m.Set(lift[e.Row], lift[e.Col], v)
		}
		// tr(M*Gamma) only sees the symmetric part of M, and the order-2
		// shift transform assumes a symmetric matrix. Same expectation
		// values, exact derivatives.
		return BoundObs{Matrix: m.Add(m.Transpose()).Scale(0.5)}
	}
}
