// Package gaussian implements the reference device oracle: an exact
// Gaussian-state simulator. A state over n wires is a mean quadrature
// vector (length 2n) and a symmetric covariance matrix (2n x 2n), vacuum
// initialized with unit variance (hbar = 2). Every catalog gate with a
// Heisenberg representation acts as an affine map on that pair, and
// first- and second-order expectations are closed-form moments.
package gaussian

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/quanta-ml/quanta/internal/circuit"
	"github.com/quanta-ml/quanta/internal/linalg"
)

// ErrNonGaussian reports an operation outside the device's Gaussian
// repertoire (for example Kerr).
var ErrNonGaussian = errors.New("operation is not Gaussian")

// Device is a deterministic Gaussian-state simulator.
type Device struct {
	wires int
	log   *zap.Logger
}

// Option configures a Device.
type Option func(*Device)

// WithLogger sets the logger; the default is a nop logger.
func WithLogger(log *zap.Logger) Option {
	return func(d *Device) { d.log = log }
}

// New creates a Gaussian device over the given number of wires.
func New(wires int, opts ...Option) *Device {
	d := &Device{wires: wires, log: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Wires returns the device wire count.
func (d *Device) Wires() int { return d.wires }

// Execute runs a bound program from vacuum and returns one expectation
// value per bound observable.
func (d *Device) Execute(ctx context.Context, b *circuit.Bound) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if b.NumWires != d.wires {
		return nil, errors.Errorf("bound program has %d wires, device has %d", b.NumWires, d.wires)
	}

	n := d.wires
	mean := make([]float64, 2*n)
	cov := linalg.Eye(2 * n)

	for i, op := range b.Ops {
		h, err := circuit.HeisenbergTr(op.Kind, op.Args, op.Wires, n, false)
		if err != nil {
			if errors.Is(err, circuit.ErrNoHeisenberg) {
				return nil, errors.Wrapf(ErrNonGaussian, "operation %d (%s)", i, op.Kind)
			}
			return nil, err
		}
		mean, cov = applyAffine(h, mean, cov)
	}

	out := make([]float64, len(b.Obs))
	for k, ob := range b.Obs {
		out[k] = expectation(ob, mean, cov)
	}

	d.log.Debug("executed bound program",
		zap.Int("operations", len(b.Ops)),
		zap.Int("outputs", len(out)),
	)
	return out, nil
}

// applyAffine splits the (2n+1)-dimensional affine representation into its
// symplectic block S and displacement column and updates the moments:
// mean <- S*mean + disp, cov <- S*cov*S^T.
func applyAffine(h *linalg.Matrix, mean []float64, cov *linalg.Matrix) ([]float64, *linalg.Matrix) {
	dim := h.Rows - 1
	s := linalg.New(dim, dim)
	disp := make([]float64, dim)
	for i := 0; i < dim; i++ {
		disp[i] = h.At(1+i, 0)
		for j := 0; j < dim; j++ {
			s.Set(i, j, h.At(1+i, 1+j))
		}
	}

	newMean := s.MulVec(mean)
	for i := range newMean {
		newMean[i] += disp[i]
	}
	return newMean, s.Mul(cov).Mul(s.Transpose())
}

// expectation evaluates one observable against the state moments. For a
// first-order observable q the value is q0 + q.mean; for a second-order
// matrix M it is tr(M*Gamma) with Gamma the symmetrized second-moment
// matrix over the basis (1, x_0, p_0, ...).
func expectation(ob circuit.BoundObs, mean []float64, cov *linalg.Matrix) float64 {
	if ob.Vector != nil {
		v := ob.Vector[0]
		for i, m := range mean {
			v += ob.Vector[1+i] * m
		}
		return v
	}

	m := ob.Matrix
	v := m.At(0, 0)
	for i := range mean {
		v += (m.At(0, 1+i) + m.At(1+i, 0)) * mean[i]
	}
	for i := range mean {
		for j := range mean {
			v += m.At(1+i, 1+j) * (cov.At(i, j) + mean[i]*mean[j])
		}
	}
	return v
}
