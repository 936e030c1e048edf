// go-tagemu
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-tagemu.
//
// go-tagemu is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-tagemu is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-tagemu; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package field provides tagemu.FieldController implementations that
// switch the field-detection front end of the HF and LF antennas.
package field

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// ErrPinNotFound is returned when a GPIO name does not resolve to a pin
var ErrPinNotFound = errors.New("gpio pin not found")

// Option configures a GPIO controller
type Option func(*GPIO)

// WithActiveLow drives the line low to enable sensing
func WithActiveLow() Option {
	return func(g *GPIO) {
		g.activeLow = true
	}
}

// WithLogger sets the logger used to report pin failures
func WithLogger(logger *zap.Logger) Option {
	return func(g *GPIO) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// GPIO drives the sense-enable line of one field detector. Sensing starts
// disabled.
type GPIO struct {
	pin       gpio.PinOut
	logger    *zap.Logger
	lastErr   error
	mu        sync.Mutex
	activeLow bool
	enabled   bool
}

// NewGPIO initializes the host drivers and opens the named pin, for
// example "GPIO17" on a Raspberry Pi.
func NewGPIO(pinName string, opts ...Option) (*GPIO, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return nil, fmt.Errorf("%w: %s", ErrPinNotFound, pinName)
	}
	return NewGPIOWithPin(pin, opts...)
}

// NewGPIOWithPin wraps an already opened pin and drives it to the
// disabled level.
func NewGPIOWithPin(pin gpio.PinOut, opts ...Option) (*GPIO, error) {
	g := &GPIO{
		pin:    pin,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}

	if err := pin.Out(g.level(false)); err != nil {
		return nil, fmt.Errorf("failed to configure %s as output: %w", pin.Name(), err)
	}
	return g, nil
}

func (g *GPIO) level(enabled bool) gpio.Level {
	return gpio.Level(enabled != g.activeLow)
}

// SetSensing implements tagemu.FieldController. A failed pin write is
// logged and kept for Err; the recorded state is left unchanged.
func (g *GPIO) SetSensing(enabled bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.pin.Out(g.level(enabled)); err != nil {
		g.lastErr = err
		g.logger.Error("field sense line write failed",
			zap.String("pin", g.pin.Name()), zap.Bool("enabled", enabled), zap.Error(err))
		return
	}
	g.lastErr = nil
	g.enabled = enabled
}

// Enabled reports the last sensing state successfully applied
func (g *GPIO) Enabled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.enabled
}

// Err returns the error of the last pin write, nil if it succeeded
func (g *GPIO) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastErr
}

// Log is a FieldController for hosts without field hardware. It records
// the state and logs every change.
type Log struct {
	logger  *zap.Logger
	name    string
	mu      sync.Mutex
	enabled bool
}

// NewLog creates a log-only controller for the named field
func NewLog(name string, logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{name: name, logger: logger}
}

// SetSensing implements tagemu.FieldController
func (l *Log) SetSensing(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.enabled != enabled {
		l.logger.Debug("field sensing changed", zap.String("field", l.name), zap.Bool("enabled", enabled))
	}
	l.enabled = enabled
}

// Enabled reports the current sensing state
func (l *Log) Enabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}
