// Copyright 2025 Quanta ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package qnode provides the public gradient-engine surface.
//
// A QNode binds a circuit program to a device oracle and computes exact
// parameter-shift or finite-difference partial derivatives of the declared
// expectation outputs, choosing automatically per parameter.
//
// Example:
//
//	prog := circuit.New(1, 1).
//	    Displacement(circuit.Param(0), circuit.Const(0), 0).
//	    Expect(circuit.X(0))
//
//	q, err := qnode.New(prog, gaussian.New(1))
//	if err != nil { ... }
//
//	jac, err := q.Gradient(ctx, []float64{0.4})
//	methods, _ := q.GradMethodForPar() // map[int]Method, 'A' or 'F'
package qnode

import (
	"github.com/quanta-ml/quanta/internal/circuit"
	"github.com/quanta-ml/quanta/internal/parallel"
	"github.com/quanta-ml/quanta/internal/qnode"
)

// QNode binds a program to a device.
type QNode = qnode.QNode

// Device is the oracle that turns a fully bound program into one
// expectation value per declared output.
type Device = qnode.Device

// New builds a QNode over a finalized program and a device.
func New(prog *circuit.Program, dev Device, opts ...Option) (*QNode, error) {
	return qnode.New(prog, dev, opts...)
}

// Method selects how partial derivatives are computed.
type Method = qnode.Method

// Gradient methods.
const (
	MethodBest     = qnode.MethodBest
	MethodAnalytic = qnode.MethodAnalytic
	MethodFinite   = qnode.MethodFinite
)

// ParseMethod parses a method name ("A", "F", "B", or "best").
func ParseMethod(s string) (Method, error) { return qnode.ParseMethod(s) }

// Option configures a QNode.
type Option = qnode.Option

// WithLogger sets the QNode logger.
var WithLogger = qnode.WithLogger

// WithStep sets the default finite-difference step.
var WithStep = qnode.WithStep

// WithParallelism sets the worker fan-out for per-parameter partials.
var WithParallelism = qnode.WithParallelism

// ParallelConfig controls the per-parameter worker fan-out.
type ParallelConfig = parallel.Config

// Sequential returns a ParallelConfig that disables worker fan-out.
func Sequential() ParallelConfig { return parallel.Sequential() }

// GradOption configures a single gradient call.
type GradOption = qnode.GradOption

// Per-call gradient options.
var (
	WithMethod   = qnode.WithMethod
	ForceOrder2  = qnode.ForceOrder2
	WithGradStep = qnode.WithGradStep
)

// Engine failures.
var (
	ErrAnalyticIneligible = qnode.ErrAnalyticIneligible
	ErrParamOutOfRange    = qnode.ErrParamOutOfRange
	ErrUnknownMethod      = qnode.ErrUnknownMethod
	ErrWireMismatch       = qnode.ErrWireMismatch
)
