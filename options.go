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

package tagemu

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Option is a functional option for configuring a Manager
type Option func(*Manager) error

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		m.logger = logger
		return nil
	}
}

// WithKeyMapper sets how slots map onto storage records
func WithKeyMapper(keys KeyMapper) Option {
	return func(m *Manager) error {
		if keys == nil {
			return errors.New("key mapper cannot be nil")
		}
		m.keys = keys
		return nil
	}
}

// WithChecksum replaces the change-detection checksum. The default is the
// ISO14443-A CRC.
func WithChecksum(fn func([]byte) uint16) Option {
	return func(m *Manager) error {
		if fn == nil {
			return errors.New("checksum function cannot be nil")
		}
		m.checksum = fn
		return nil
	}
}

// WithFieldControllers sets the HF and LF field controllers. A nil
// controller leaves that field unmanaged.
func WithFieldControllers(hf, lf FieldController) Option {
	return func(m *Manager) error {
		if hf != nil {
			m.hfField = hf
		}
		if lf != nil {
			m.lfField = lf
		}
		return nil
	}
}

// WithIndicator sets the UI indicator
func WithIndicator(indicator Indicator) Option {
	return func(m *Manager) error {
		if indicator == nil {
			return errors.New("indicator cannot be nil")
		}
		m.indicator = indicator
		return nil
	}
}

// WithSlotConfig replaces the built-in default slot configuration used
// until a persisted one is loaded.
func WithSlotConfig(cfg SlotConfig) Option {
	return func(m *Manager) error {
		if cfg.Active >= MaxSlots {
			return fmt.Errorf("%w: active slot %d", ErrInvalidSlot, cfg.Active)
		}
		m.config = cfg
		return nil
	}
}
