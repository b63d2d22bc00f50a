// Package qnode implements the gradient engine: a QNode binds a traced
// circuit program to a device oracle and computes partial derivatives of
// the declared expectation outputs with respect to every free parameter,
// by exact parameter-shift rules where the circuit structure admits them
// and by central finite differences otherwise.
package qnode

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/quanta-ml/quanta/internal/circuit"
	"github.com/quanta-ml/quanta/internal/parallel"
)

// Device is the oracle that turns a fully bound program into one
// expectation value per declared output. Implementations must be
// deterministic for a fixed input.
type Device interface {
	Wires() int
	Execute(ctx context.Context, b *circuit.Bound) ([]float64, error)
}

// QNode binds a program to a device. The parameter-use registry and the
// differentiability analysis are built once, on first use, and reused for
// every later call; everything else is stateless per call.
type QNode struct {
	prog *circuit.Program
	dev  Device
	log  *zap.Logger
	pcfg parallel.Config
	step float64

	buildOnce sync.Once
	reg       *Registry
	an        *analysis
	buildErr  error
}

// Option configures a QNode.
type Option func(*QNode)

// WithLogger sets the logger; the default is a nop logger.
func WithLogger(log *zap.Logger) Option {
	return func(q *QNode) { q.log = log }
}

// WithParallelism sets the worker fan-out for per-parameter partials.
func WithParallelism(cfg parallel.Config) Option {
	return func(q *QNode) { q.pcfg = cfg }
}

// WithStep sets the default finite-difference step.
func WithStep(step float64) Option {
	return func(q *QNode) { q.step = step }
}

// New builds a QNode over a finalized program and a device with matching
// wire count.
func New(prog *circuit.Program, dev Device, opts ...Option) (*QNode, error) {
	if err := prog.Finalize(); err != nil {
		return nil, err
	}
	if dev.Wires() != prog.NumWires() {
		return nil, errors.Wrapf(ErrWireMismatch, "device has %d wires, program has %d", dev.Wires(), prog.NumWires())
	}

	q := &QNode{
		prog: prog,
		dev:  dev,
		log:  zap.NewNop(),
		pcfg: parallel.DefaultConfig(),
		step: DefaultStep,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q, nil
}

// Evaluate binds the parameter vector and returns one value per declared
// output observable. No differentiation is performed.
func (q *QNode) Evaluate(ctx context.Context, params []float64) ([]float64, error) {
	return q.eval(ctx, params, nil)
}

func (q *QNode) eval(ctx context.Context, params []float64, ov *circuit.Overrides) ([]float64, error) {
	bound, err := q.prog.Bind(params, ov)
	if err != nil {
		return nil, err
	}
	return q.dev.Execute(ctx, bound)
}

// ensureAnalysis builds the registry and differentiability analysis once.
func (q *QNode) ensureAnalysis() error {
	q.buildOnce.Do(func() {
		reg, err := BuildRegistry(q.prog)
		if err != nil {
			q.buildErr = err
			return
		}
		q.reg = reg
		q.an = analyze(q.prog, reg)
		q.log.Debug("differentiability analysis built",
			zap.String("program", q.prog.ID().String()),
			zap.Int("params", reg.NumParams()),
		)
	})
	return q.buildErr
}

// GradMethodForPar returns the analyzer's realized per-parameter method
// mapping (only Analytic or Finite), built lazily and cached.
func (q *QNode) GradMethodForPar() (map[int]Method, error) {
	if err := q.ensureAnalysis(); err != nil {
		return nil, err
	}
	out := make(map[int]Method, len(q.an.methods))
	for i, m := range q.an.methods {
		out[i] = m
	}
	return out, nil
}

// GradOption configures a single gradient call.
type GradOption func(*gradOptions)

type gradOptions struct {
	method      Method
	forceOrder2 bool
	step        float64
}

// WithMethod requests a gradient method for every parameter. The default
// is MethodBest. Requesting MethodAnalytic fails if any parameter is not
// analytically eligible.
func WithMethod(m Method) GradOption {
	return func(o *gradOptions) { o.method = m }
}

// ForceOrder2 makes every analytic occurrence use the order-2 formula even
// where the order-1 rule would be exact. The results agree wherever
// order-1 is valid.
func ForceOrder2() GradOption {
	return func(o *gradOptions) { o.forceOrder2 = true }
}

// WithGradStep overrides the finite-difference step for this call.
func WithGradStep(step float64) GradOption {
	return func(o *gradOptions) { o.step = step }
}

// Gradient returns the Jacobian of the declared outputs with respect to
// the free parameters: one row per parameter in ascending index order, one
// column per output. Partial rows are computed independently (possibly in
// parallel) and discarded wholesale on any failure.
func (q *QNode) Gradient(ctx context.Context, params []float64, opts ...GradOption) ([][]float64, error) {
	o := gradOptions{method: MethodBest, step: q.step}
	for _, opt := range opts {
		opt(&o)
	}

	if err := q.ensureAnalysis(); err != nil {
		return nil, err
	}
	if len(params) != q.prog.NumParams() {
		return nil, errors.Wrapf(circuit.ErrBadParamVector, "got %d values, program declares %d parameters", len(params), q.prog.NumParams())
	}

	eff, err := q.effectiveMethods(o.method)
	if err != nil {
		return nil, err
	}

	jac := make([][]float64, len(eff))
	err = parallel.ForEach(ctx, len(eff), q.pcfg, func(i int) error {
		row, perr := q.partial(ctx, i, params, eff[i], o)
		if perr != nil {
			return perr
		}
		jac[i] = row
		return nil
	})
	if err != nil {
		return nil, err
	}

	q.log.Debug("gradient computed",
		zap.String("program", q.prog.ID().String()),
		zap.Int("params", len(eff)),
		zap.String("method", o.method.String()),
	)
	return jac, nil
}

// Partial computes one parameter's partial-derivative row.
func (q *QNode) Partial(ctx context.Context, idx int, params []float64, opts ...GradOption) ([]float64, error) {
	o := gradOptions{method: MethodBest, step: q.step}
	for _, opt := range opts {
		opt(&o)
	}
	if err := q.ensureAnalysis(); err != nil {
		return nil, err
	}
	if idx < 0 || idx >= q.prog.NumParams() {
		return nil, errors.Wrapf(ErrParamOutOfRange, "index %d, program declares %d parameters", idx, q.prog.NumParams())
	}
	if len(params) != q.prog.NumParams() {
		return nil, errors.Wrapf(circuit.ErrBadParamVector, "got %d values, program declares %d parameters", len(params), q.prog.NumParams())
	}
	eff, err := q.effectiveMethods(o.method)
	if err != nil {
		return nil, err
	}
	return q.partial(ctx, idx, params, eff[idx], o)
}

// effectiveMethods resolves the requested method against the analysis.
func (q *QNode) effectiveMethods(req Method) ([]Method, error) {
	n := len(q.an.methods)
	eff := make([]Method, n)
	switch req {
	case MethodFinite:
		for i := range eff {
			eff[i] = MethodFinite
		}
	case MethodBest:
		copy(eff, q.an.methods)
	case MethodAnalytic:
		for i, m := range q.an.methods {
			if m != MethodAnalytic {
				return nil, errors.Wrapf(ErrAnalyticIneligible, "parameter %d", i)
			}
			eff[i] = MethodAnalytic
		}
	default:
		return nil, errors.Wrapf(ErrUnknownMethod, "%q", req)
	}
	return eff, nil
}

func (q *QNode) partial(ctx context.Context, idx int, params []float64, m Method, o gradOptions) ([]float64, error) {
	if m == MethodFinite {
		return q.finitePartial(ctx, idx, params, o.step)
	}
	return q.analyticPartial(ctx, idx, params, o.forceOrder2)
}
