package cli

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/quanta-ml/quanta/circuit"
	"github.com/quanta-ml/quanta/gaussian"
	"github.com/quanta-ml/quanta/qnode"
)

// demo is one bundled circuit with defaults the commands fall back to when
// --params is omitted.
type demo struct {
	about         string
	defaultParams []float64
	build         func() *circuit.Program
}

var demoCircuits = map[string]demo{
	"displacement": {
		about:         "one parameter feeding two displacements; photon-number and X outputs",
		defaultParams: []float64{0.4},
		build: func() *circuit.Program {
			return circuit.New(2, 1).
				Displacement(circuit.Param(0), circuit.Const(0), 0).
				Displacement(circuit.Param(0).Times(2), circuit.Const(0), 1).
				Expect(circuit.PhotonNumber(0), circuit.X(1))
		},
	},
	"beamsplitter": {
		about:         "displaced mode through a parameterized beamsplitter",
		defaultParams: []float64{0.628},
		build: func() *circuit.Program {
			return circuit.New(2, 1).
				Displacement(circuit.Const(0.4), circuit.Const(0), 0).
				Beamsplitter(circuit.Param(0), circuit.Const(0), 0, 1).
				Expect(circuit.PhotonNumber(0), circuit.PhotonNumber(1), circuit.X(1))
		},
	},
	"squeezing": {
		about:         "displacement, squeezing and rotation with three free parameters",
		defaultParams: []float64{0.4, -0.3, -0.7},
		build: func() *circuit.Program {
			return circuit.New(1, 3).
				Displacement(circuit.Param(0), circuit.Const(0.2), 0).
				Squeezing(circuit.Param(1), circuit.Param(2), 0).
				Rotation(circuit.Const(-0.2), 0).
				Expect(circuit.X(0), circuit.PhotonNumber(0))
		},
	},
	"observable": {
		about:         "squeezed mode with a parameter inside a polynomial observable",
		defaultParams: []float64{0.4, 1.3},
		build: func() *circuit.Program {
			return circuit.New(1, 2).
				Displacement(circuit.Const(0.5), circuit.Const(0), 0).
				Squeezing(circuit.Param(0), circuit.Const(0), 0).
				Expect(circuit.Poly([]circuit.PolyEntry{
					{Row: 1, Col: 1, Value: circuit.Param(1)},
				}, 0))
		},
	},
}

func demoNames() []string {
	names := make([]string, 0, len(demoCircuits))
	for name := range demoCircuits {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// buildQNode assembles the selected demo circuit, its device and QNode.
func buildQNode(opts *RootOptions) (*circuit.Program, *qnode.QNode, error) {
	log, err := opts.logger()
	if err != nil {
		return nil, nil, err
	}
	prog := demoCircuits[opts.Circuit].build()
	q, err := qnode.New(prog, gaussian.New(prog.NumWires(), gaussian.WithLogger(log)),
		qnode.WithLogger(log))
	if err != nil {
		return nil, nil, err
	}
	return prog, q, nil
}

// parseParams parses a comma-separated parameter vector; an empty string
// yields the demo defaults.
func parseParams(opts *RootOptions, raw string) ([]float64, error) {
	if strings.TrimSpace(raw) == "" {
		d := demoCircuits[opts.Circuit].defaultParams
		out := make([]float64, len(d))
		copy(out, d)
		return out, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid parameter %q", p)
		}
		out[i] = v
	}
	return out, nil
}
