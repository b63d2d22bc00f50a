package qnode

import "context"

// Finite-difference steps. A step below minStep is degenerate at float64
// precision; it is clamped, not rejected.
const (
	DefaultStep = 1e-7
	minStep     = 1e-10
)

func clampStep(step float64) float64 {
	if step < 0 {
		step = -step
	}
	if step < minStep {
		return minStep
	}
	return step
}

// finitePartial computes the central-difference partial of every output
// with respect to parameter idx: two device evaluations with the full
// parameter perturbed by +-step. It needs nothing but the device oracle,
// which makes it the universal fallback and the reference the analytic
// results are checked against.
func (q *QNode) finitePartial(ctx context.Context, idx int, params []float64, step float64) ([]float64, error) {
	step = clampStep(step)

	shifted := func(delta float64) []float64 {
		p := make([]float64, len(params))
		copy(p, params)
		p[idx] += delta
		return p
	}

	y2, err := q.eval(ctx, shifted(+step), nil)
	if err != nil {
		return nil, err
	}
	y1, err := q.eval(ctx, shifted(-step), nil)
	if err != nil {
		return nil, err
	}

	row := make([]float64, len(y2))
	for k := range row {
		row[k] = (y2[k] - y1[k]) / (2 * step)
	}
	return row, nil
}
