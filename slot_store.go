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

	"github.com/ZaparooProject/go-tagemu/storage"
	"go.uber.org/zap"
)

// LoadConfig replaces the slot configuration with the persisted record.
// When no record exists the current configuration is kept and
// ErrRecordNotFound is returned; the next SaveConfig will then always write.
func (m *Manager) LoadConfig() error {
	key := m.keys.ConfigKey()
	buf := m.configBuf[:]
	clear(buf)

	n, err := m.store.Read(key, buf)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			m.logger.Info("tag slot config does not exist")
			return fmt.Errorf("%w: slot config", ErrRecordNotFound)
		}
		m.logger.Error("tag slot config read failed", zap.Error(err))
		return fmt.Errorf("%w: %s: %w", ErrStorageRead, key, err)
	}

	var cfg SlotConfig
	if err := cfg.UnmarshalBinary(buf[:n]); err != nil {
		m.logger.Error("tag slot config record rejected", zap.Int("length", n), zap.Error(err))
		return err
	}
	if cfg.Active >= MaxSlots {
		m.logger.Warn("persisted active slot out of range, using slot 0", zap.Uint8("active", cfg.Active))
		cfg.Active = 0
	}

	m.config = cfg
	m.configCRC = m.checksum(buf)
	m.configSet = true
	m.logger.Info("tag slot config loaded", zap.Uint8("active", cfg.Active))
	return nil
}

// SaveConfig writes the slot configuration if it changed since it was last
// loaded or saved.
func (m *Manager) SaveConfig() error {
	buf := m.configBuf[:]
	clear(buf)
	m.config.encode(buf)

	sum := m.checksum(buf)
	if m.configSet && sum == m.configCRC {
		m.logger.Debug("tag slot config unchanged")
		return nil
	}

	key := m.keys.ConfigKey()
	if err := m.store.Write(key, storage.Words(len(buf)), buf); err != nil {
		m.logger.Error("save tag slot config failed", zap.Error(err))
		return fmt.Errorf("%w: %s: %w", ErrStorageWrite, key, err)
	}
	m.configCRC = sum
	m.configSet = true
	m.logger.Info("tag slot config saved")
	return nil
}

// SlotConfig returns a copy of the current slot configuration
func (m *Manager) SlotConfig() SlotConfig {
	return m.config
}

// ActiveSlot returns the index of the active slot
func (m *Manager) ActiveSlot() uint8 {
	return m.config.Active
}

// SetActiveSlot changes the active slot index and notifies the indicator.
// No data is moved; use ChangeSlot to switch slots with their data.
func (m *Manager) SetActiveSlot(index uint8) error {
	if index >= MaxSlots {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, index)
	}
	m.config.Active = index
	m.indicator.SlotChanged(index)
	return nil
}

// SlotEnabled reports whether slot is enabled. Out-of-range slots are
// reported as disabled.
func (m *Manager) SlotEnabled(slot uint8) bool {
	if slot >= MaxSlots {
		return false
	}
	return m.config.Slots[slot].Enabled
}

// SetSlotEnabled sets the enabled flag of slot
func (m *Manager) SetSlotEnabled(slot uint8, enabled bool) error {
	if slot >= MaxSlots {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}
	m.config.Slots[slot].Enabled = enabled
	return nil
}

// SlotTagTypes returns the HF and LF tag types configured for slot
func (m *Manager) SlotTagTypes(slot uint8) (hf, lf TagType) {
	if slot >= MaxSlots {
		return TagTypeNone, TagTypeNone
	}
	s := m.config.Slots[slot]
	return s.HF, s.LF
}

// FindNextSlot returns the next enabled slot after cur, or cur if there is
// no other enabled slot.
func (m *Manager) FindNextSlot(cur uint8) uint8 {
	return m.config.FindNext(cur)
}

// FindPrevSlot returns the previous enabled slot before cur, or cur if
// there is no other enabled slot.
func (m *Manager) FindPrevSlot(cur uint8) uint8 {
	return m.config.FindPrev(cur)
}

// SetTagType assigns t to the field of slot matching t's sense category.
//
// When slot is the active slot the persisted data for the new type is
// loaded straight away; other slots pick it up when they are switched to.
// Assigning the sentinel is a no-op and unregistered types are rejected
// without touching the configuration.
func (m *Manager) SetTagType(slot uint8, t TagType) error {
	if slot >= MaxSlots {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}

	sense := m.registry.SenseOf(t)
	switch sense {
	case SenseHF:
		m.config.Slots[slot].HF = t
	case SenseLF:
		m.config.Slots[slot].LF = t
	case SenseNone:
		if t == TagTypeNone {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrUnknownTagType, t)
	}
	m.logger.Info("tag type changed",
		zap.Uint8("slot", slot), zap.Stringer("type", t), zap.Stringer("sense", sense))

	if slot != m.config.Active {
		return nil
	}
	if err := m.LoadData(slot, t); err != nil && !errors.Is(err, ErrRecordNotFound) {
		return err
	}
	return nil
}

// DeleteTagType removes the data of one sense category of slot and clears
// that field. If slot is active, sensing for the category is switched off.
// A slot left with no tag types is disabled.
func (m *Manager) DeleteTagType(slot uint8, sense SenseType) error {
	if _, err := m.DeleteData(slot, sense); err != nil {
		return err
	}

	s := &m.config.Slots[slot]
	switch sense {
	case SenseHF:
		s.HF = TagTypeNone
	case SenseLF:
		s.LF = TagTypeNone
	}

	if slot == m.config.Active {
		m.SetSensing(sense, false)
	}
	if s.Empty() {
		s.Enabled = false
	}
	return nil
}
