// Copyright 2025 Quanta ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package gaussian provides the reference Gaussian-state device.
//
// The device simulates Gaussian circuits exactly (mean vector plus
// covariance matrix) and evaluates first- and second-order expectation
// observables in closed form. It implements qnode.Device.
package gaussian

import (
	"github.com/quanta-ml/quanta/internal/gaussian"
)

// Device is a deterministic Gaussian-state simulator.
type Device = gaussian.Device

// Option configures a Device.
type Option = gaussian.Option

// New creates a Gaussian device over the given number of wires.
func New(wires int, opts ...Option) *Device {
	return gaussian.New(wires, opts...)
}

// WithLogger sets the device logger.
var WithLogger = gaussian.WithLogger

// ErrNonGaussian reports an operation outside the device's repertoire.
var ErrNonGaussian = gaussian.ErrNonGaussian
