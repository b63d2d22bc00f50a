package qnode

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quanta-ml/quanta/internal/circuit"
	"github.com/quanta-ml/quanta/internal/gaussian"
	"github.com/quanta-ml/quanta/internal/parallel"
)

// Gradients from the analytic rules, from central differences, and from
// the order-2 formula forced everywhere must agree to well below the
// finite-difference truncation error.
const gradTol = 1e-5

func newQNode(t *testing.T, prog *circuit.Program, opts ...Option) *QNode {
	t.Helper()
	q, err := New(prog, gaussian.New(prog.NumWires()), opts...)
	require.NoError(t, err)
	return q
}

func requireJacobian(t *testing.T, want, got [][]float64, tol float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		require.Len(t, got[i], len(want[i]), "row %d", i)
		for j := range want[i] {
			assert.InDelta(t, want[i][j], got[i][j], tol, "entry [%d][%d]", i, j)
		}
	}
}

func gradAllMethods(t *testing.T, q *QNode, params []float64) (best, fd, forced [][]float64) {
	t.Helper()
	ctx := context.Background()

	best, err := q.Gradient(ctx, params)
	require.NoError(t, err)
	fd, err = q.Gradient(ctx, params, WithMethod(MethodFinite))
	require.NoError(t, err)
	forced, err = q.Gradient(ctx, params, ForceOrder2())
	require.NoError(t, err)
	return best, fd, forced
}

func TestDisplacementGradient(t *testing.T) {
	// One parameter feeding two displacements; photon number makes the
	// first occurrence second order, the X output keeps the second one
	// first order.
	prog := circuit.New(2, 1).
		Displacement(circuit.Param(0), circuit.Const(0), 0).
		Displacement(circuit.Param(0).Times(2), circuit.Const(0), 1).
		Expect(circuit.PhotonNumber(0), circuit.X(1))
	q := newQNode(t, prog)

	methods, err := q.GradMethodForPar()
	require.NoError(t, err)
	assert.Equal(t, map[int]Method{0: MethodAnalytic}, methods)

	x := 0.4
	best, fd, forced := gradAllMethods(t, q, []float64{x})
	want := [][]float64{{2 * x, 4}}
	requireJacobian(t, want, best, gradTol)
	requireJacobian(t, want, fd, gradTol)
	requireJacobian(t, want, forced, gradTol)
}

func TestBeamsplitterGradient(t *testing.T) {
	prog := circuit.New(2, 1).
		Displacement(circuit.Const(0.4), circuit.Const(0), 0).
		Beamsplitter(circuit.Param(0), circuit.Const(0), 0, 1).
		Expect(circuit.PhotonNumber(0), circuit.X(1))
	q := newQNode(t, prog)

	methods, err := q.GradMethodForPar()
	require.NoError(t, err)
	assert.Equal(t, map[int]Method{0: MethodAnalytic}, methods)

	theta := 0.2 * math.Pi
	best, fd, forced := gradAllMethods(t, q, []float64{theta})
	want := [][]float64{{
		-2 * 0.16 * math.Cos(theta) * math.Sin(theta),
		0.8 * math.Cos(theta),
	}}
	requireJacobian(t, want, best, gradTol)
	requireJacobian(t, want, fd, gradTol)
	requireJacobian(t, want, forced, gradTol)
}

func TestMultipleGateParameters(t *testing.T) {
	prog := circuit.New(1, 3).
		Displacement(circuit.Param(0), circuit.Const(0.2), 0).
		Squeezing(circuit.Param(1), circuit.Param(2), 0).
		Rotation(circuit.Const(-0.2), 0).
		Expect(circuit.X(0))
	q := newQNode(t, prog)

	methods, err := q.GradMethodForPar()
	require.NoError(t, err)
	assert.Equal(t, map[int]Method{
		0: MethodAnalytic,
		1: MethodAnalytic,
		2: MethodAnalytic,
	}, methods)

	params := []float64{0.4, -0.3, -0.7}
	best, fd, forced := gradAllMethods(t, q, params)
	requireJacobian(t, fd, best, gradTol)
	requireJacobian(t, fd, forced, gradTol)
}

func TestRepeatedGateParameters(t *testing.T) {
	// Parameter 1 feeds both arguments of the same squeezing gate; the two
	// occurrence contributions sum.
	prog := circuit.New(1, 2).
		Displacement(circuit.Param(0), circuit.Const(0), 0).
		Squeezing(circuit.Param(1), circuit.Param(1).Times(-1.3), 0).
		Expect(circuit.X(0))
	q := newQNode(t, prog)

	methods, err := q.GradMethodForPar()
	require.NoError(t, err)
	assert.Equal(t, map[int]Method{0: MethodAnalytic, 1: MethodAnalytic}, methods)

	params := []float64{0.2, 0.3}
	best, fd, forced := gradAllMethods(t, q, params)
	requireJacobian(t, fd, best, gradTol)
	requireJacobian(t, fd, forced, gradTol)
}

func TestParameterInsideObservable(t *testing.T) {
	prog := circuit.New(2, 2).
		Displacement(circuit.Const(0.5), circuit.Const(0), 0).
		Squeezing(circuit.Param(0), circuit.Const(0), 0).
		Expect(circuit.Poly([]circuit.PolyEntry{
			{Row: 1, Col: 1, Value: circuit.Param(1)},
			{Row: 1, Col: 2, Value: circuit.Const(1)},
			{Row: 2, Col: 1, Value: circuit.Const(1)},
		}, 0, 1))
	q := newQNode(t, prog)

	// Coefficient occurrences report no analytic recipe by default, so the
	// observable parameter falls back to finite differences.
	methods, err := q.GradMethodForPar()
	require.NoError(t, err)
	assert.Equal(t, map[int]Method{0: MethodAnalytic, 1: MethodFinite}, methods)

	x, y := 0.4, 1.3
	params := []float64{x, y}

	// E = 2y e^{-2x}.
	out, err := q.Evaluate(context.Background(), params)
	require.NoError(t, err)
	assert.InDelta(t, 2*y*math.Exp(-2*x), out[0], 1e-12)

	want := [][]float64{
		{-4 * y * math.Exp(-2*x)},
		{2 * math.Exp(-2*x)},
	}
	best, fd, forced := gradAllMethods(t, q, params)
	requireJacobian(t, want, best, gradTol)
	requireJacobian(t, want, fd, gradTol)
	requireJacobian(t, want, forced, gradTol)

	// An explicit analytic request must fail loudly, never downgrade.
	_, err = q.Gradient(context.Background(), params, WithMethod(MethodAnalytic))
	require.ErrorIs(t, err, ErrAnalyticIneligible)
}

func TestAnalyticObservableCoefficients(t *testing.T) {
	poly := circuit.Poly([]circuit.PolyEntry{
		{Row: 1, Col: 1, Value: circuit.Param(1)},
	}, 0).WithAnalyticCoefficients()
	prog := circuit.New(1, 2).
		Squeezing(circuit.Param(0), circuit.Const(0), 0).
		Expect(poly)
	q := newQNode(t, prog)

	methods, err := q.GradMethodForPar()
	require.NoError(t, err)
	assert.Equal(t, map[int]Method{0: MethodAnalytic, 1: MethodAnalytic}, methods)

	x, y := 0.4, 1.3
	params := []float64{x, y}
	want := [][]float64{
		{-2 * y * math.Exp(-2*x)},
		{math.Exp(-2 * x)},
	}

	analytic, err := q.Gradient(context.Background(), params, WithMethod(MethodAnalytic))
	require.NoError(t, err)
	fd, err := q.Gradient(context.Background(), params, WithMethod(MethodFinite))
	require.NoError(t, err)
	requireJacobian(t, want, analytic, gradTol)
	requireJacobian(t, want, fd, gradTol)
}

func TestFanoutGradient(t *testing.T) {
	// Parameter 0 appears as a magnitude early and as a phase later; the
	// contributions are computed per occurrence and summed.
	prog := circuit.New(1, 2).
		Displacement(circuit.Param(0), circuit.Const(0), 0).
		Rotation(circuit.Param(1), 0).
		Displacement(circuit.Const(0), circuit.Param(0), 0).
		Expect(circuit.X(0))
	q := newQNode(t, prog)

	methods, err := q.GradMethodForPar()
	require.NoError(t, err)
	assert.Equal(t, map[int]Method{0: MethodAnalytic, 1: MethodAnalytic}, methods)

	x, y := 0.5, 1.3
	params := []float64{x, y}

	// E = 2x cos(y): the trailing displacement has zero magnitude.
	want := [][]float64{
		{2 * math.Cos(y)},
		{-2 * x * math.Sin(y)},
	}
	best, fd, forced := gradAllMethods(t, q, params)
	requireJacobian(t, want, best, gradTol)
	requireJacobian(t, want, fd, gradTol)
	requireJacobian(t, want, forced, gradTol)
}

func TestAsymmetricPolyGradient(t *testing.T) {
	// Off-diagonal cells are stated one-sidedly; the linear term must not
	// be double-counted by the order-2 transform.
	prog := circuit.New(1, 1).
		Displacement(circuit.Param(0), circuit.Const(0), 0).
		Expect(circuit.Poly([]circuit.PolyEntry{
			{Row: 0, Col: 1, Value: circuit.Const(0.4)},
			{Row: 1, Col: 1, Value: circuit.Const(1)},
		}, 0))
	q := newQNode(t, prog)

	methods, err := q.GradMethodForPar()
	require.NoError(t, err)
	assert.Equal(t, map[int]Method{0: MethodAnalytic}, methods)

	x := 0.45
	// E = 1 + 4x^2 + 0.8x.
	out, err := q.Evaluate(context.Background(), []float64{x})
	require.NoError(t, err)
	assert.InDelta(t, 1+4*x*x+0.8*x, out[0], 1e-12)

	want := [][]float64{{8*x + 0.8}}
	best, fd, forced := gradAllMethods(t, q, []float64{x})
	requireJacobian(t, want, best, gradTol)
	requireJacobian(t, want, fd, gradTol)
	requireJacobian(t, want, forced, gradTol)
}

func TestAsymmetricPolyMixedOccurrences(t *testing.T) {
	// One parameter in a gate argument, the other in an off-diagonal
	// coefficient cell with analytic shifts opted in.
	prog := circuit.New(1, 2).
		Displacement(circuit.Param(0), circuit.Const(0), 0).
		Expect(circuit.Poly([]circuit.PolyEntry{
			{Row: 0, Col: 1, Value: circuit.Param(1)},
			{Row: 1, Col: 1, Value: circuit.Const(1)},
		}, 0).WithAnalyticCoefficients())
	q := newQNode(t, prog)

	methods, err := q.GradMethodForPar()
	require.NoError(t, err)
	assert.Equal(t, map[int]Method{0: MethodAnalytic, 1: MethodAnalytic}, methods)

	x, y := 0.45, 0.4
	// E = 1 + 4x^2 + 2xy.
	want := [][]float64{
		{8*x + 2*y},
		{2 * x},
	}
	best, fd, forced := gradAllMethods(t, q, []float64{x, y})
	requireJacobian(t, want, best, gradTol)
	requireJacobian(t, want, fd, gradTol)
	requireJacobian(t, want, forced, gradTol)

	analytic, err := q.Gradient(context.Background(), []float64{x, y}, WithMethod(MethodAnalytic))
	require.NoError(t, err)
	requireJacobian(t, want, analytic, gradTol)
}

func TestFanoutLinearity(t *testing.T) {
	// The partial of a fanned-out parameter equals the sum of the partials
	// of a reference circuit that gives each occurrence its own parameter.
	a1, a2 := 0.7, -1.1
	x := 0.3

	fanout := circuit.New(1, 1).
		Displacement(circuit.Param(0).Times(a1), circuit.Const(0), 0).
		Rotation(circuit.Const(0.5), 0).
		Displacement(circuit.Param(0).Times(a2), circuit.Const(0.9), 0).
		Expect(circuit.X(0))
	split := circuit.New(1, 2).
		Displacement(circuit.Param(0).Times(a1), circuit.Const(0), 0).
		Rotation(circuit.Const(0.5), 0).
		Displacement(circuit.Param(1).Times(a2), circuit.Const(0.9), 0).
		Expect(circuit.X(0))

	ctx := context.Background()
	got, err := newQNode(t, fanout).Gradient(ctx, []float64{x})
	require.NoError(t, err)

	ref, err := newQNode(t, split).Gradient(ctx, []float64{x, x})
	require.NoError(t, err)

	assert.InDelta(t, ref[0][0]+ref[1][0], got[0][0], 1e-9)
}

func TestOpaqueExpressionForcesFinite(t *testing.T) {
	sq := circuit.Expr(func(p []float64) float64 { return p[0] * p[0] }, 0)
	prog := circuit.New(1, 1).
		Displacement(sq, circuit.Const(0), 0).
		Expect(circuit.X(0))
	q := newQNode(t, prog)

	methods, err := q.GradMethodForPar()
	require.NoError(t, err)
	assert.Equal(t, map[int]Method{0: MethodFinite}, methods)

	x := 0.7
	grad, err := q.Gradient(context.Background(), []float64{x})
	require.NoError(t, err)
	// E = 2x^2, dE/dx = 4x.
	requireJacobian(t, [][]float64{{4 * x}}, grad, gradTol)

	_, err = q.Gradient(context.Background(), []float64{x}, WithMethod(MethodAnalytic))
	require.ErrorIs(t, err, ErrAnalyticIneligible)
}

func TestKerrForcesFinite(t *testing.T) {
	// A non-Gaussian gate in the descendant cone disqualifies the earlier
	// parameter; the Kerr argument itself has no recipe either way.
	prog := circuit.New(2, 2).
		Displacement(circuit.Param(0), circuit.Const(0), 0).
		Kerr(circuit.Param(1), 0).
		Expect(circuit.X(0))
	q := newQNode(t, prog)

	methods, err := q.GradMethodForPar()
	require.NoError(t, err)
	assert.Equal(t, map[int]Method{0: MethodFinite, 1: MethodFinite}, methods)
}

func TestKerrOutsideConeStaysAnalytic(t *testing.T) {
	prog := circuit.New(2, 1).
		Displacement(circuit.Param(0), circuit.Const(0), 0).
		Kerr(circuit.Const(0.1), 1).
		Expect(circuit.X(0))
	q := newQNode(t, prog)

	methods, err := q.GradMethodForPar()
	require.NoError(t, err)
	assert.Equal(t, map[int]Method{0: MethodAnalytic}, methods)
}

func TestGradientIdempotent(t *testing.T) {
	prog := circuit.New(1, 1).
		Displacement(circuit.Param(0), circuit.Const(0), 0).
		Expect(circuit.PhotonNumber(0))
	q := newQNode(t, prog)

	params := []float64{0.4}
	first, err := q.Gradient(context.Background(), params)
	require.NoError(t, err)
	second, err := q.Gradient(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGradientParallel(t *testing.T) {
	prog := circuit.New(1, 3).
		Displacement(circuit.Param(0), circuit.Const(0.2), 0).
		Squeezing(circuit.Param(1), circuit.Param(2), 0).
		Expect(circuit.X(0))

	seq := newQNode(t, prog, WithParallelism(parallel.Sequential()))
	par := newQNode(t, prog, WithParallelism(parallel.Config{Enabled: true, NumWorkers: 4}))

	params := []float64{0.4, -0.3, -0.7}
	want, err := seq.Gradient(context.Background(), params)
	require.NoError(t, err)
	got, err := par.Gradient(context.Background(), params)
	require.NoError(t, err)
	requireJacobian(t, want, got, 1e-12)
}

func TestPartial(t *testing.T) {
	prog := circuit.New(1, 2).
		Displacement(circuit.Param(0), circuit.Const(0), 0).
		Rotation(circuit.Param(1), 0).
		Expect(circuit.X(0))
	q := newQNode(t, prog)

	params := []float64{0.5, 1.3}
	row, err := q.Partial(context.Background(), 1, params)
	require.NoError(t, err)
	require.Len(t, row, 1)
	assert.InDelta(t, -2*0.5*math.Sin(1.3), row[0], gradTol)

	_, err = q.Partial(context.Background(), 5, params)
	require.ErrorIs(t, err, ErrParamOutOfRange)
	_, err = q.Partial(context.Background(), -1, params)
	require.ErrorIs(t, err, ErrParamOutOfRange)
}

func TestGradientBadParamVector(t *testing.T) {
	prog := circuit.New(1, 2).
		Displacement(circuit.Param(0), circuit.Param(1), 0).
		Expect(circuit.X(0))
	q := newQNode(t, prog)

	_, err := q.Gradient(context.Background(), []float64{0.1})
	require.ErrorIs(t, err, circuit.ErrBadParamVector)
	_, err = q.Evaluate(context.Background(), []float64{0.1, 0.2, 0.3})
	require.ErrorIs(t, err, circuit.ErrBadParamVector)
}

func TestTinyStepClamped(t *testing.T) {
	// The X expectation is exactly linear in the displacement magnitude,
	// so even the clamped minimum step stays accurate.
	prog := circuit.New(1, 1).
		Displacement(circuit.Param(0), circuit.Const(0), 0).
		Expect(circuit.X(0))
	q := newQNode(t, prog)

	grad, err := q.Gradient(context.Background(), []float64{0.4},
		WithMethod(MethodFinite), WithGradStep(1e-30))
	require.NoError(t, err)
	requireJacobian(t, [][]float64{{2}}, grad, gradTol)
}

func TestGradientCancelled(t *testing.T) {
	prog := circuit.New(1, 1).
		Displacement(circuit.Param(0), circuit.Const(0), 0).
		Expect(circuit.X(0))
	q := newQNode(t, prog)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := q.Gradient(ctx, []float64{0.4})
	require.ErrorIs(t, err, context.Canceled)
}

func TestWireMismatch(t *testing.T) {
	prog := circuit.New(2, 1).
		Displacement(circuit.Param(0), circuit.Const(0), 0).
		Expect(circuit.X(0))

	_, err := New(prog, gaussian.New(3))
	require.ErrorIs(t, err, ErrWireMismatch)
}

func TestInvalidProgramSurfacesAtConstruction(t *testing.T) {
	prog := circuit.New(1, 1).
		Displacement(circuit.Param(0), circuit.Const(0), 0)
	// No outputs declared.
	_, err := New(prog, gaussian.New(1))
	require.ErrorIs(t, err, circuit.ErrInvalidProgram)
}

func TestParseMethod(t *testing.T) {
	for in, want := range map[string]Method{
		"A":        MethodAnalytic,
		"analytic": MethodAnalytic,
		"F":        MethodFinite,
		"finite":   MethodFinite,
		"B":        MethodBest,
		"best":     MethodBest,
		" best ":   MethodBest,
	} {
		got, err := ParseMethod(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseMethod("newton")
	require.ErrorIs(t, err, ErrUnknownMethod)
}
