package circuit

import (
	"math"

	"github.com/pkg/errors"

	"github.com/quanta-ml/quanta/internal/linalg"
)

// Kind identifies a gate in the fixed catalog.
type Kind int

// Gate catalog. Extending the engine to a new transformation means adding a
// catalog entry with its own arity, Gaussian flag, shift recipes and
// Heisenberg representation; nothing in the differentiators switches on
// anything else.
const (
	Displacement Kind = iota
	Squeezing
	Rotation
	Beamsplitter
	Kerr
)

// Recipe is the two-point shift rule for one gate argument: the derivative
// of the gate's Heisenberg representation with respect to that argument is
// Mult * (H(t+Shift) - H(t-Shift)), exactly.
type Recipe struct {
	Mult  float64
	Shift float64
}

// ErrNoHeisenberg reports a gate without a phase-space representation
// (non-Gaussian kinds such as Kerr).
var ErrNoHeisenberg = errors.New("gate has no Heisenberg representation")

const (
	// Shift used for displacement magnitude. Any value works: the
	// representation is linear in the magnitude.
	dispShift = 0.1
	// Shift used for squeezing magnitude; entries live in
	// span{cosh r, sinh r}, so the multiplier carries a 1/sinh factor.
	sqzShift = 0.1
)

type gateInfo struct {
	name     string
	arity    int
	numWires int
	gaussian bool
	recipes  []*Recipe // indexed by argument position, nil = no analytic recipe
}

var phaseRecipe = &Recipe{Mult: 0.5, Shift: math.Pi / 2}

var catalog = map[Kind]gateInfo{
	Displacement: {
		name:     "Displacement",
		arity:    2,
		numWires: 1,
		gaussian: true,
		recipes:  []*Recipe{{Mult: 0.5 / dispShift, Shift: dispShift}, phaseRecipe},
	},
	Squeezing: {
		name:     "Squeezing",
		arity:    2,
		numWires: 1,
		gaussian: true,
		recipes:  []*Recipe{{Mult: 0.5 / math.Sinh(sqzShift), Shift: sqzShift}, phaseRecipe},
	},
	Rotation: {
		name:     "Rotation",
		arity:    1,
		numWires: 1,
		gaussian: true,
		recipes:  []*Recipe{phaseRecipe},
	},
	Beamsplitter: {
		name:     "Beamsplitter",
		arity:    2,
		numWires: 2,
		gaussian: true,
		recipes:  []*Recipe{phaseRecipe, phaseRecipe},
	},
	Kerr: {
		name:     "Kerr",
		arity:    1,
		numWires: 1,
		gaussian: false,
		recipes:  []*Recipe{nil},
	},
}

// String returns the gate name.
func (k Kind) String() string {
	if g, ok := catalog[k]; ok {
		return g.name
	}
	return "Unknown"
}

// Arity returns the number of classical arguments the gate takes.
func (k Kind) Arity() int { return catalog[k].arity }

// NumWires returns the number of wires the gate acts on.
func (k Kind) NumWires() int { return catalog[k].numWires }

// Gaussian reports whether the gate maps Gaussian states to Gaussian states.
func (k Kind) Gaussian() bool { return catalog[k].gaussian }

// RecipeFor returns the shift rule for argument position pos, if the gate
// has one.
func (k Kind) RecipeFor(pos int) (Recipe, bool) {
	rs := catalog[k].recipes
	if pos < 0 || pos >= len(rs) || rs[pos] == nil {
		return Recipe{}, false
	}
	return *rs[pos], true
}

// HeisenbergTr returns the affine transformation of the quadrature basis
// (1, x_0, p_0, ..., x_{n-1}, p_{n-1}) induced by the gate, as a
// (2n+1)x(2n+1) matrix, with hbar = 2 conventions (vacuum quadrature
// variance 1). With inverse set, the representation of the inverse gate is
// returned.
//
// Entries are at most first-harmonic (trigonometric or hyperbolic) in each
// argument, which is what makes the two-point Recipe exact on this matrix
// even when circuit expectations are not first-harmonic in the parameter.
func HeisenbergTr(k Kind, args []float64, wires []int, numWires int, inverse bool) (*linalg.Matrix, error) {
	info, ok := catalog[k]
	if !ok || !info.gaussian {
		return nil, errors.Wrapf(ErrNoHeisenberg, "gate %s", k)
	}
	if len(args) != info.arity {
		return nil, errors.Errorf("gate %s expects %d arguments, got %d", k, info.arity, len(args))
	}
	if len(wires) != info.numWires {
		return nil, errors.Errorf("gate %s acts on %d wires, got %d", k, info.numWires, len(wires))
	}

	var local *linalg.Matrix
	switch k {
	case Displacement:
		r, phi := args[0], args[1]
		if inverse {
			r = -r
		}
		local = linalg.Eye(3)
		local.Set(1, 0, 2*r*math.Cos(phi))
		local.Set(2, 0, 2*r*math.Sin(phi))

	case Squeezing:
		r, phi := args[0], args[1]
		if inverse {
			r = -r
		}
		ch, sh := math.Cosh(r), math.Sinh(r)
		c, s := math.Cos(phi), math.Sin(phi)
		local = linalg.Eye(3)
		local.Set(1, 1, ch-sh*c)
		local.Set(1, 2, -sh*s)
		local.Set(2, 1, -sh*s)
		local.Set(2, 2, ch+sh*c)

	case Rotation:
		theta := args[0]
		if inverse {
			theta = -theta
		}
		c, s := math.Cos(theta), math.Sin(theta)
		local = linalg.Eye(3)
		local.Set(1, 1, c)
		local.Set(1, 2, -s)
		local.Set(2, 1, s)
		local.Set(2, 2, c)

	case Beamsplitter:
		theta, phi := args[0], args[1]
		if inverse {
			theta = -theta
		}
		ct, st := math.Cos(theta), math.Sin(theta)
		c, s := math.Cos(phi), math.Sin(phi)
		local = linalg.Eye(5)
		// Mode a keeps cos(theta) of itself and loses sin(theta) of mode b,
		// rotated in phase space by phi; mode b gains symmetrically.
		local.Set(1, 1, ct)
		local.Set(2, 2, ct)
		local.Set(3, 3, ct)
		local.Set(4, 4, ct)
		local.Set(1, 3, -st*c)
		local.Set(1, 4, -st*s)
		local.Set(2, 3, st*s)
		local.Set(2, 4, -st*c)
		local.Set(3, 1, st*c)
		local.Set(3, 2, -st*s)
		local.Set(4, 1, st*s)
		local.Set(4, 2, st*c)

	default:
		return nil, errors.Wrapf(ErrNoHeisenberg, "gate %s", k)
	}

	return expand(local, wires, numWires), nil
}

// expand embeds a gate-local affine representation into the full
// (2n+1)-dimensional basis, identity on untouched wires.
func expand(local *linalg.Matrix, wires []int, numWires int) *linalg.Matrix {
	d := 1 + 2*numWires
	full := linalg.Eye(d)
	idx := make([]int, local.Rows)
	idx[0] = 0
	for k, w := range wires {
		idx[1+2*k] = 1 + 2*w
		idx[2+2*k] = 2 + 2*w
	}
	for i := 0; i < local.Rows; i++ {
		for j := 0; j < local.Cols; j++ {
			full.Set(idx[i], idx[j], local.At(i, j))
		}
	}
	return full
}
