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
	"fmt"
)

// FieldController switches detection of one reader field on or off
type FieldController interface {
	SetSensing(enabled bool)
}

// Indicator receives cosmetic notifications. Calls must not block.
type Indicator interface {
	// SlotChanged is called whenever the active slot index changes
	SlotChanged(slot uint8)
	// FieldPresence turns the field-presence indicator on or off
	FieldPresence(on bool)
}

type nopField struct{}

func (nopField) SetSensing(bool) {}

type nopIndicator struct{}

func (nopIndicator) SlotChanged(uint8)  {}
func (nopIndicator) FieldPresence(bool) {}

// SetSensing switches field detection for one sense category.
// It panics when sense is not SenseHF or SenseLF.
func (m *Manager) SetSensing(sense SenseType, enabled bool) {
	switch sense {
	case SenseHF:
		m.hfField.SetSensing(enabled)
	case SenseLF:
		m.lfField.SetSensing(enabled)
	default:
		panic(fmt.Sprintf("tagemu: %v: %s", ErrInvalidSense, sense))
	}
}

// ApplyActiveSlotSensing switches field detection for the active slot.
// A category with no tag type configured is always switched off.
func (m *Manager) ApplyActiveSlotSensing(enabled bool) {
	s := m.config.Slots[m.config.Active]
	m.SetSensing(SenseHF, enabled && s.HF != TagTypeNone)
	m.SetSensing(SenseLF, enabled && s.LF != TagTypeNone)
}

// StartEmulation arms field detection for the active slot
func (m *Manager) StartEmulation() {
	m.ApplyActiveSlotSensing(true)
}

// StopEmulation disarms all field detection. No field event, including
// wake-up, is delivered until StartEmulation is called again.
func (m *Manager) StopEmulation() {
	m.indicator.FieldPresence(false)
	m.emulating = false
	m.ApplyActiveSlotSensing(false)
}

// SetEmulating records whether a reader session is in progress. Field
// protocol engines call it when a reader enters or leaves the field.
func (m *Manager) SetEmulating(emulating bool) {
	m.emulating = emulating
	m.indicator.FieldPresence(emulating)
}

// Emulating reports whether a reader session is in progress
func (m *Manager) Emulating() bool {
	return m.emulating
}
