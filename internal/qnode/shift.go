package qnode

import (
	"context"

	"github.com/pkg/errors"

	"github.com/quanta-ml/quanta/internal/circuit"
	"github.com/quanta-ml/quanta/internal/linalg"
)

// Shift applied to a polynomial-observable coefficient cell. The
// expectation value is linear in each cell, so any value is exact.
const coeffShift = 0.1

// analyticPartial computes one parameter's partial-derivative row by
// summing per-occurrence shift-rule contributions in trace order. Each
// contribution perturbs only the native argument (or cell) of its own
// occurrence while every other occurrence stays at its bound value;
// shifting the parameter globally would conflate the contributions of
// distinct gates.
func (q *QNode) analyticPartial(ctx context.Context, idx int, params []float64, forceOrder2 bool) ([]float64, error) {
	plans := q.an.plans[idx]

	// Reference binding: native argument values and Heisenberg-form
	// observables at the unshifted point.
	bound, err := q.prog.Bind(params, nil)
	if err != nil {
		return nil, err
	}

	row := make([]float64, len(q.prog.Observables()))
	for _, pl := range plans {
		if !pl.analytic {
			// Unreachable for a realized-Analytic parameter; Gradient only
			// dispatches here when every occurrence passed the analyzer.
			return nil, errors.Wrapf(ErrAnalyticIneligible, "parameter %d at %s", idx, pl.occ)
		}

		var contrib []float64
		switch {
		case pl.occ.Kind == OccObsCoeff:
			contrib, err = q.coeffContribution(ctx, pl, params)
		case pl.order2 || forceOrder2:
			contrib, err = q.order2Contribution(ctx, pl, params, bound)
		default:
			contrib, err = q.order1Contribution(ctx, pl, params, bound)
		}
		if err != nil {
			return nil, err
		}
		for k, v := range contrib {
			row[k] += v
		}
	}
	return row, nil
}

// order1Contribution applies the two-point rule on device values: evaluate
// with the occurrence's native argument shifted to t+s and t-s, scale the
// difference by the recipe multiplier and the chain-rule coefficient a.
func (q *QNode) order1Contribution(ctx context.Context, pl occPlan, params []float64, bound *circuit.Bound) ([]float64, error) {
	occ := pl.occ
	native := bound.Ops[occ.Op].Args[occ.Pos]

	evalAt := func(t float64) ([]float64, error) {
		return q.eval(ctx, params, &circuit.Overrides{
			Arg: &circuit.ArgOverride{Op: occ.Op, Pos: occ.Pos, Value: t},
		})
	}

	y2, err := evalAt(native + pl.recipe.Shift)
	if err != nil {
		return nil, err
	}
	y1, err := evalAt(native - pl.recipe.Shift)
	if err != nil {
		return nil, err
	}

	scale := pl.recipe.Mult * occ.Mult
	row := make([]float64, len(y2))
	for k := range row {
		row[k] = scale * (y2[k] - y1[k])
	}
	return row, nil
}

// order2Contribution handles occurrences whose descendant cone contains a
// second-order observable. The gate's Heisenberg representation is
// evaluated three times: at t+s, at t-s, and inverted at the unshifted t.
// Combined as Z = mult*(H(t+s) - H(t-s)) * H(t)^-1 and conjugated through
// the descendant Gaussian gates, Z turns each observable into its exact
// derivative observable, which costs a single device execution at the
// unshifted arguments. Wherever the order-1 condition already holds this
// reduces to the same value, which is what makes ForceOrder2 a pure
// consistency check.
func (q *QNode) order2Contribution(ctx context.Context, pl occPlan, params []float64, bound *circuit.Bound) ([]float64, error) {
	occ := pl.occ
	op := q.prog.Operations()[occ.Op]
	numWires := q.prog.NumWires()
	baseArgs := bound.Ops[occ.Op].Args

	heisenberg := func(delta float64, inverse bool) (*linalg.Matrix, error) {
		args := make([]float64, len(baseArgs))
		copy(args, baseArgs)
		args[occ.Pos] += delta
		return circuit.HeisenbergTr(op.Kind, args, op.Wires, numWires, inverse)
	}

	z2, err := heisenberg(+pl.recipe.Shift, false)
	if err != nil {
		return nil, err
	}
	z1, err := heisenberg(-pl.recipe.Shift, false)
	if err != nil {
		return nil, err
	}
	z0inv, err := heisenberg(0, true)
	if err != nil {
		return nil, err
	}
	z := z2.Sub(z1).Scale(pl.recipe.Mult).Mul(z0inv)

	// Conjugate through the descendant Gaussian gates so the derivative
	// observable commutes past the rest of the circuit.
	d := 1 + 2*numWires
	b := linalg.Eye(d)
	bInv := linalg.Eye(d)
	for _, j := range pl.descOps {
		descOp := q.prog.Operations()[j]
		h, herr := circuit.HeisenbergTr(descOp.Kind, bound.Ops[j].Args, descOp.Wires, numWires, false)
		if herr != nil {
			return nil, herr
		}
		hInv, herr := circuit.HeisenbergTr(descOp.Kind, bound.Ops[j].Args, descOp.Wires, numWires, true)
		if herr != nil {
			return nil, herr
		}
		b = h.Mul(b)
		bInv = bInv.Mul(hInv)
	}
	z = b.Mul(z).Mul(bInv)

	// Transform every observable. Outside the cone Z has zero rows, so
	// unaffected outputs come out as identically zero observables.
	obs := make([]circuit.BoundObs, len(bound.Obs))
	for k, ob := range bound.Obs {
		if ob.Vector != nil {
			obs[k] = circuit.BoundObs{Vector: linalg.VecMul(ob.Vector, z)}
			continue
		}
		qp := ob.Matrix.Mul(z)
		obs[k] = circuit.BoundObs{Matrix: qp.Add(qp.Transpose())}
	}

	y, err := q.eval(ctx, params, &circuit.Overrides{Observables: obs})
	if err != nil {
		return nil, err
	}

	row := make([]float64, len(y))
	for k := range row {
		row[k] = occ.Mult * y[k]
	}
	return row, nil
}

// coeffContribution differentiates with respect to a coefficient cell of a
// polynomial observable by shifting the cell itself. Reachable only when
// the observable opted into analytic coefficients.
func (q *QNode) coeffContribution(ctx context.Context, pl occPlan, params []float64) ([]float64, error) {
	occ := pl.occ
	value := params[occ.Param]
	evalAt := func(v float64) ([]float64, error) {
		return q.eval(ctx, params, &circuit.Overrides{
			Coeff: &circuit.CoeffOverride{Obs: occ.Obs, Row: occ.Row, Col: occ.Col, Value: v},
		})
	}

	y2, err := evalAt(value + coeffShift)
	if err != nil {
		return nil, err
	}
	y1, err := evalAt(value - coeffShift)
	if err != nil {
		return nil, err
	}

	scale := occ.Mult / (2 * coeffShift)
	row := make([]float64, len(y2))
	for k := range row {
		row[k] = scale * (y2[k] - y1[k])
	}
	return row, nil
}
