package circuit

import (
	"fmt"
	"strings"
)

// ObsKind identifies an expectation-value observable.
type ObsKind int

// Observable catalog. X and P are first order in the quadratures;
// PhotonNumber and Poly are second order.
const (
	ObsX ObsKind = iota
	ObsP
	ObsPhotonNumber
	ObsPoly
)

func (k ObsKind) String() string {
	switch k {
	case ObsX:
		return "X"
	case ObsP:
		return "P"
	case ObsPhotonNumber:
		return "PhotonNumber"
	case ObsPoly:
		return "Poly"
	default:
		return "Unknown"
	}
}

// PolyEntry is one cell of a polynomial observable's coefficient matrix in
// the (1, x_0, p_0, x_1, p_1, ...) basis over the observable's wire list.
// Value must be a constant or a bare parameter reference; anything else is
// rejected when the program is finalized.
type PolyEntry struct {
	Row, Col int
	Value    Arg
}

// Observable is one declared expectation output.
type Observable struct {
	kind           ObsKind
	wire           int
	wires          []int
	entries        []PolyEntry
	analyticCoeffs bool
}

// X returns the x-quadrature observable on a wire.
func X(wire int) Observable { return Observable{kind: ObsX, wire: wire} }

// P returns the p-quadrature observable on a wire.
func P(wire int) Observable { return Observable{kind: ObsP, wire: wire} }

// PhotonNumber returns the photon-number observable on a wire.
func PhotonNumber(wire int) Observable { return Observable{kind: ObsPhotonNumber, wire: wire} }

// Poly returns a polynomial observable with the given sparse coefficient
// entries over the listed wires. The basis is (1, x_w0, p_w0, x_w1, ...),
// so a matrix over k wires has dimension 2k+1.
func Poly(entries []PolyEntry, wires ...int) Observable {
	es := make([]PolyEntry, len(entries))
	copy(es, entries)
	ws := make([]int, len(wires))
	copy(ws, wires)
	return Observable{kind: ObsPoly, wires: ws, entries: es}
}

// WithAnalyticCoefficients marks the observable's parameter-carrying
// coefficient cells as analytically shiftable. The expectation value is
// linear in each cell, so a two-point shift on the cell itself is exact;
// by default the cells report no analytic recipe and force the owning
// parameter onto finite differences.
func (o Observable) WithAnalyticCoefficients() Observable {
	o.analyticCoeffs = true
	return o
}

// Kind returns the observable kind.
func (o Observable) Kind() ObsKind { return o.kind }

// Wire returns the single wire of a non-polynomial observable.
func (o Observable) Wire() int { return o.wire }

// Wires returns the wire list of a polynomial observable.
func (o Observable) Wires() []int { return o.wires }

// Entries returns the coefficient entries of a polynomial observable.
func (o Observable) Entries() []PolyEntry { return o.entries }

// SecondOrder reports whether the observable is second order in the
// quadratures. Second-order observables in a gate's descendant cone are
// what trigger the order-2 shift formula.
func (o Observable) SecondOrder() bool {
	return o.kind == ObsPhotonNumber || o.kind == ObsPoly
}

// AnalyticCoefficients reports whether parameter-carrying coefficient cells
// of this observable are analytically shiftable.
func (o Observable) AnalyticCoefficients() bool {
	return o.kind == ObsPoly && o.analyticCoeffs
}

// String renders the observable for program dumps.
func (o Observable) String() string {
	if o.kind != ObsPoly {
		return fmt.Sprintf("%s(%d)", o.kind, o.wire)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Poly(wires=%v", o.wires)
	for _, e := range o.entries {
		fmt.Fprintf(&b, ", [%d,%d]=%s", e.Row, e.Col, e.Value)
	}
	b.WriteString(")")
	return b.String()
}
