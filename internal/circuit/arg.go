package circuit

import (
	"fmt"
	"sort"
)

type argKind int

const (
	argConst argKind = iota
	argParam
	argExpr
)

// Arg is one gate argument in a traced program: a constant, an affine use of
// a single free parameter (mult*x + offset), or an opaque expression of one
// or more parameters. The variant is fixed at trace time; differentiability
// classification never re-derives it.
type Arg struct {
	kind   argKind
	value  float64 // constant value
	index  int     // parameter index (argParam)
	mult   float64 // affine coefficient a
	offset float64 // affine coefficient b
	fn     func(params []float64) float64
	deps   []int // parameter indices referenced by fn
}

// Const returns a constant argument.
func Const(v float64) Arg {
	return Arg{kind: argConst, value: v}
}

// Param returns a bare reference to free parameter i.
func Param(i int) Arg {
	return Arg{kind: argParam, index: i, mult: 1}
}

// Expr returns an opaque (non-affine) argument computed from the listed
// parameters. Such occurrences never qualify for the analytic method.
func Expr(fn func(params []float64) float64, deps ...int) Arg {
	ds := make([]int, len(deps))
	copy(ds, deps)
	sort.Ints(ds)
	return Arg{kind: argExpr, fn: fn, deps: ds}
}

// Times scales the argument by c. Parameter references stay affine.
func (a Arg) Times(c float64) Arg {
	switch a.kind {
	case argConst:
		a.value *= c
	case argParam:
		a.mult *= c
		a.offset *= c
	case argExpr:
		inner := a.fn
		a.fn = func(p []float64) float64 { return c * inner(p) }
	}
	return a
}

// Plus shifts the argument by c. Parameter references stay affine.
func (a Arg) Plus(c float64) Arg {
	switch a.kind {
	case argConst:
		a.value += c
	case argParam:
		a.offset += c
	case argExpr:
		inner := a.fn
		a.fn = func(p []float64) float64 { return inner(p) + c }
	}
	return a
}

// Neg negates the argument.
func (a Arg) Neg() Arg {
	return a.Times(-1)
}

// resolve evaluates the argument against a bound parameter vector.
func (a Arg) resolve(params []float64) float64 {
	switch a.kind {
	case argConst:
		return a.value
	case argParam:
		return a.mult*params[a.index] + a.offset
	default:
		return a.fn(params)
	}
}

// paramRefs returns the parameter indices the argument references.
func (a Arg) paramRefs() []int {
	switch a.kind {
	case argParam:
		return []int{a.index}
	case argExpr:
		return a.deps
	default:
		return nil
	}
}

// ParamRefs returns the parameter indices the argument references, in
// ascending order.
func (a Arg) ParamRefs() []int {
	refs := a.paramRefs()
	out := make([]int, len(refs))
	copy(out, refs)
	return out
}

// AffineRef reports the affine decomposition of a single-parameter
// reference: native value = a*x + b for parameter index. ok is false for
// constants and for opaque expressions.
func (a Arg) AffineRef() (index int, mult, offset float64, ok bool) {
	if a.kind != argParam {
		return 0, 0, 0, false
	}
	return a.index, a.mult, a.offset, true
}

// BareParam reports whether the argument is exactly one unscaled,
// unshifted parameter reference, and which.
func (a Arg) BareParam() (int, bool) {
	if !a.bareParam() {
		return 0, false
	}
	return a.index, true
}

// bareParam reports whether the argument is exactly one unscaled,
// unshifted parameter reference.
func (a Arg) bareParam() bool {
	return a.kind == argParam && a.mult == 1 && a.offset == 0
}

// String renders the argument for program dumps.
func (a Arg) String() string {
	switch a.kind {
	case argConst:
		return fmt.Sprintf("%g", a.value)
	case argParam:
		s := fmt.Sprintf("par[%d]", a.index)
		if a.mult != 1 {
			s = fmt.Sprintf("%g*%s", a.mult, s)
		}
		if a.offset != 0 {
			s = fmt.Sprintf("%s%+g", s, a.offset)
		}
		return s
	default:
		return fmt.Sprintf("expr%v", a.deps)
	}
}
