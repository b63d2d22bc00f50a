// Copyright 2025 Quanta ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package circuit provides the public surface for building parameterized
// quantum circuit programs.
//
// A Program is a symbolic trace: gate applications whose arguments are
// constants or free-parameter references, plus declared expectation
// outputs. Programs are finalized once and immutable afterwards.
//
// Example:
//
//	prog := circuit.New(2, 1).
//	    Displacement(circuit.Param(0), circuit.Const(0), 0).
//	    Displacement(circuit.Param(0).Times(2), circuit.Const(0), 1).
//	    Expect(circuit.PhotonNumber(0), circuit.X(1))
//	if err := prog.Finalize(); err != nil {
//	    // handle trace-time validation failure
//	}
package circuit

import (
	"github.com/quanta-ml/quanta/internal/circuit"
)

// Program is the structured representation of one symbolic circuit trace.
type Program = circuit.Program

// New starts a trace over the given number of wires and free parameters.
func New(wires, params int) *Program {
	return circuit.New(wires, params)
}

// Arg is one gate argument: a constant, an affine parameter reference, or
// an opaque expression.
type Arg = circuit.Arg

// Const returns a constant argument.
func Const(v float64) Arg { return circuit.Const(v) }

// Param returns a bare reference to free parameter i.
func Param(i int) Arg { return circuit.Param(i) }

// Expr returns an opaque (non-affine) argument computed from the listed
// parameters. Such occurrences never qualify for the analytic method.
func Expr(fn func(params []float64) float64, deps ...int) Arg {
	return circuit.Expr(fn, deps...)
}

// Kind identifies a gate in the fixed catalog.
type Kind = circuit.Kind

// Gate catalog.
const (
	Displacement = circuit.Displacement
	Squeezing    = circuit.Squeezing
	Rotation     = circuit.Rotation
	Beamsplitter = circuit.Beamsplitter
	Kerr         = circuit.Kerr
)

// Observable is one declared expectation output.
type Observable = circuit.Observable

// PolyEntry is one sparse cell of a polynomial observable's coefficient
// matrix.
type PolyEntry = circuit.PolyEntry

// X returns the x-quadrature observable on a wire.
func X(wire int) Observable { return circuit.X(wire) }

// P returns the p-quadrature observable on a wire.
func P(wire int) Observable { return circuit.P(wire) }

// PhotonNumber returns the photon-number observable on a wire.
func PhotonNumber(wire int) Observable { return circuit.PhotonNumber(wire) }

// Poly returns a polynomial observable with the given sparse coefficient
// entries over the listed wires.
func Poly(entries []PolyEntry, wires ...int) Observable {
	return circuit.Poly(entries, wires...)
}

// Bound is a fully bound program, the input to a device execution.
type Bound = circuit.Bound

// BoundOp is one operation with fully resolved argument values.
type BoundOp = circuit.BoundOp

// BoundObs is one observable in Heisenberg form.
type BoundObs = circuit.BoundObs

// Trace-time and bind-time failures.
var (
	ErrMalformedObservable = circuit.ErrMalformedObservable
	ErrBadParamVector      = circuit.ErrBadParamVector
	ErrInvalidProgram      = circuit.ErrInvalidProgram
	ErrFinalized           = circuit.ErrFinalized
)
