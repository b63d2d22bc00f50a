// Package circuit holds the symbolic trace of a parameterized quantum
// circuit: operations from a fixed gate catalog, free-parameter references,
// expectation observables, and the phase-space machinery (Heisenberg
// representations, shift recipes) the gradient engine dispatches on.
//
// A Program is built once, finalized, and is immutable afterwards; it is
// reused across arbitrarily many concrete parameter-vector evaluations.
package circuit

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Trace-time and bind-time failures.
var (
	// ErrMalformedObservable reports a polynomial observable whose
	// coefficient matrix holds something other than a constant or a single
	// bare parameter reference.
	ErrMalformedObservable = errors.New("malformed observable")
	// ErrBadParamVector reports a bound parameter vector whose length does
	// not match the program's declared parameter count.
	ErrBadParamVector = errors.New("parameter vector length mismatch")
	// ErrFinalized reports a mutation attempt on a finalized program.
	ErrFinalized = errors.New("program already finalized")
	// ErrInvalidProgram reports a structural defect found at finalize time.
	ErrInvalidProgram = errors.New("invalid program")
)

// Operation is one gate application in the trace.
type Operation struct {
	Kind  Kind
	Wires []int
	Args  []Arg
}

// Program is the structured representation of one symbolic circuit trace.
type Program struct {
	id        uuid.UUID
	numWires  int
	numParams int
	ops       []Operation
	obs       []Observable
	finalized bool
	err       error // first builder error, surfaced by Finalize
}

// New starts a trace over the given number of wires and free parameters.
func New(wires, params int) *Program {
	p := &Program{id: uuid.New(), numWires: wires, numParams: params}
	if wires <= 0 {
		p.fail(errors.Wrapf(ErrInvalidProgram, "wires must be positive, got %d", wires))
	}
	if params < 0 {
		p.fail(errors.Wrapf(ErrInvalidProgram, "negative parameter count %d", params))
	}
	return p
}

// ID returns the trace identity used in logs.
func (p *Program) ID() uuid.UUID { return p.id }

// NumWires returns the wire count.
func (p *Program) NumWires() int { return p.numWires }

// NumParams returns the declared free-parameter count.
func (p *Program) NumParams() int { return p.numParams }

// Operations returns the traced operations in program order. Callers must
// not mutate the result.
func (p *Program) Operations() []Operation { return p.ops }

// Observables returns the declared expectation outputs. Callers must not
// mutate the result.
func (p *Program) Observables() []Observable { return p.obs }

// Apply appends a gate application. Most callers use the typed helpers
// below; Apply is the extension point for catalog additions.
func (p *Program) Apply(kind Kind, wires []int, args ...Arg) *Program {
	if p.err != nil {
		return p
	}
	if p.finalized {
		p.fail(errors.Wrapf(ErrFinalized, "cannot apply %s", kind))
		return p
	}
	if len(args) != kind.Arity() {
		p.fail(errors.Wrapf(ErrInvalidProgram, "%s expects %d arguments, got %d", kind, kind.Arity(), len(args)))
		return p
	}
	if len(wires) != kind.NumWires() {
		p.fail(errors.Wrapf(ErrInvalidProgram, "%s acts on %d wires, got %v", kind, kind.NumWires(), wires))
		return p
	}
	seen := make(map[int]bool, len(wires))
	for _, w := range wires {
		if w < 0 || w >= p.numWires {
			p.fail(errors.Wrapf(ErrInvalidProgram, "%s wire %d out of range [0,%d)", kind, w, p.numWires))
			return p
		}
		if seen[w] {
			p.fail(errors.Wrapf(ErrInvalidProgram, "%s repeats wire %d", kind, w))
			return p
		}
		seen[w] = true
	}
	ws := make([]int, len(wires))
	copy(ws, wires)
	as := make([]Arg, len(args))
	copy(as, args)
	p.ops = append(p.ops, Operation{Kind: kind, Wires: ws, Args: as})
	return p
}

// Displacement appends a displacement gate of magnitude r and phase phi.
func (p *Program) Displacement(r, phi Arg, wire int) *Program {
	return p.Apply(Displacement, []int{wire}, r, phi)
}

// Squeezing appends a squeezing gate of magnitude r and phase phi.
func (p *Program) Squeezing(r, phi Arg, wire int) *Program {
	return p.Apply(Squeezing, []int{wire}, r, phi)
}

// Rotation appends a phase-space rotation by theta.
func (p *Program) Rotation(theta Arg, wire int) *Program {
	return p.Apply(Rotation, []int{wire}, theta)
}

// Beamsplitter appends a beamsplitter with mixing angle theta and phase phi.
func (p *Program) Beamsplitter(theta, phi Arg, w0, w1 int) *Program {
	return p.Apply(Beamsplitter, []int{w0, w1}, theta, phi)
}

// Kerr appends a Kerr interaction. Kerr has no analytic recipe and no
// Gaussian representation; parameters feeding it fall back to finite
// differences, and the gaussian device rejects it.
func (p *Program) Kerr(kappa Arg, wire int) *Program {
	return p.Apply(Kerr, []int{wire}, kappa)
}

// Expect declares the expectation outputs, in output order.
func (p *Program) Expect(obs ...Observable) *Program {
	if p.err != nil {
		return p
	}
	if p.finalized {
		p.fail(errors.Wrap(ErrFinalized, "cannot declare outputs"))
		return p
	}
	p.obs = append(p.obs, obs...)
	return p
}

// Finalize validates the trace and freezes the program. It is idempotent;
// all later builder calls fail. Malformed polynomial observables are
// rejected here, at trace time, never at gradient time.
func (p *Program) Finalize() error {
	if p.err != nil {
		return p.err
	}
	if p.finalized {
		return nil
	}

	if len(p.obs) == 0 {
		return p.fail(errors.Wrap(ErrInvalidProgram, "no expectation outputs declared"))
	}

	used := make([]bool, p.numParams)
	mark := func(refs []int, where string) error {
		for _, i := range refs {
			if i < 0 || i >= p.numParams {
				return p.fail(errors.Wrapf(ErrInvalidProgram, "%s references parameter %d outside [0,%d)", where, i, p.numParams))
			}
			used[i] = true
		}
		return nil
	}

	for n, op := range p.ops {
		for pos, a := range op.Args {
			if err := mark(a.paramRefs(), fmt.Sprintf("operation %d (%s) argument %d", n, op.Kind, pos)); err != nil {
				return err
			}
		}
	}

	for n, o := range p.obs {
		if err := p.validateObservable(n, o, mark); err != nil {
			return err
		}
	}

	for i, ok := range used {
		if !ok {
			return p.fail(errors.Wrapf(ErrInvalidProgram, "parameter %d has no occurrence", i))
		}
	}

	p.finalized = true
	return nil
}

func (p *Program) validateObservable(n int, o Observable, mark func([]int, string) error) error {
	where := fmt.Sprintf("output %d (%s)", n, o.kind)
	if o.kind != ObsPoly {
		if o.wire < 0 || o.wire >= p.numWires {
			return p.fail(errors.Wrapf(ErrInvalidProgram, "%s wire %d out of range [0,%d)", where, o.wire, p.numWires))
		}
		return nil
	}

	for _, w := range o.wires {
		if w < 0 || w >= p.numWires {
			return p.fail(errors.Wrapf(ErrInvalidProgram, "%s wire %d out of range [0,%d)", where, w, p.numWires))
		}
	}
	dim := 1 + 2*len(o.wires)
	cells := make(map[[2]int]bool, len(o.entries))
	for _, e := range o.entries {
		if e.Row < 0 || e.Row >= dim || e.Col < 0 || e.Col >= dim {
			return p.fail(errors.Wrapf(ErrMalformedObservable, "%s cell [%d,%d] outside %dx%d matrix", where, e.Row, e.Col, dim, dim))
		}
		cell := [2]int{e.Row, e.Col}
		if cells[cell] {
			return p.fail(errors.Wrapf(ErrMalformedObservable, "%s cell [%d,%d] assigned twice", where, e.Row, e.Col))
		}
		cells[cell] = true
		switch {
		case e.Value.kind == argConst:
			// constants are always fine
		case e.Value.bareParam():
			if err := mark([]int{e.Value.index}, where); err != nil {
				return err
			}
		default:
			return p.fail(errors.Wrapf(ErrMalformedObservable,
				"%s cell [%d,%d] holds %s; cells must be constants or single bare parameter references",
				where, e.Row, e.Col, e.Value))
		}
	}
	return nil
}

func (p *Program) fail(err error) error {
	if p.err == nil {
		p.err = err
	}
	return p.err
}

// String renders a deterministic dump of the trace, used by golden tests
// and the CLI.
func (p *Program) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "program: %d wires, %d params\n", p.numWires, p.numParams)
	for i, op := range p.ops {
		parts := make([]string, len(op.Args))
		for j, a := range op.Args {
			parts[j] = a.String()
		}
		fmt.Fprintf(&b, "  %d: %s(%s) wires=%v\n", i, op.Kind, strings.Join(parts, ", "), op.Wires)
	}
	b.WriteString("expect:\n")
	for i, o := range p.obs {
		fmt.Fprintf(&b, "  %d: %s\n", i, o)
	}
	return b.String()
}
