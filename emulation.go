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

	"github.com/ZaparooProject/go-tagemu/internal/crc"
	"github.com/ZaparooProject/go-tagemu/storage"
	"go.uber.org/zap"
)

// Manager owns the slot configuration, the two shared data buffers and the
// collaborators that persist and emulate them.
//
// Thread Safety: Manager is NOT thread-safe. All methods must be called from
// the single event loop that also receives field and user events. Field
// sensing must be stopped before the active slot's data is reloaded or the
// slot is switched; ChangeSlot does this when asked to.
type Manager struct {
	store     storage.Store
	registry  *Registry
	keys      KeyMapper
	checksum  func([]byte) uint16
	logger    *zap.Logger
	hfField   FieldController
	lfField   FieldController
	indicator Indicator
	lf        *DataBuffer
	hf        *DataBuffer
	scratch   []byte
	configBuf [ConfigRecordSize]byte
	config    SlotConfig
	configCRC uint16
	configSet bool
	emulating bool
}

// New creates a Manager persisting to store and dispatching to the
// backends in registry. The slot configuration starts as
// DefaultSlotConfig until LoadConfig or Init replaces it.
func New(store storage.Store, registry *Registry, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, errors.New("store cannot be nil")
	}
	if registry == nil {
		return nil, errors.New("registry cannot be nil")
	}

	m := &Manager{
		store:     store,
		registry:  registry,
		keys:      DefaultKeyMap,
		checksum:  crc.Checksum14A,
		logger:    zap.NewNop(),
		hfField:   nopField{},
		lfField:   nopField{},
		indicator: nopIndicator{},
		lf:        newDataBuffer(SenseLF, LFBufferSize),
		hf:        newDataBuffer(SenseHF, HFBufferSize),
		scratch:   make([]byte, HFBufferSize),
		config:    DefaultSlotConfig(),
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Registry returns the tag type registry
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Init loads the slot configuration and then the data of the active slot.
// A missing configuration or data record is normal on first boot and is not
// reported. Other failures are returned together; the Manager stays usable
// with whatever state it has.
func (m *Manager) Init() error {
	var errs []error
	if err := m.LoadConfig(); err != nil && !errors.Is(err, ErrRecordNotFound) {
		errs = append(errs, err)
	}
	errs = append(errs, m.loadActiveData())
	return errors.Join(errs...)
}

// SaveAll flushes the slot configuration and the active slot's data. Each
// write is skipped when its content has not changed since the last sync.
func (m *Manager) SaveAll() error {
	return errors.Join(m.SaveConfig(), m.saveActiveData())
}

func (m *Manager) loadActiveData() error {
	slot := m.config.Active
	s := m.config.Slots[slot]
	var errs []error
	for _, t := range [...]TagType{s.HF, s.LF} {
		if err := m.LoadData(slot, t); err != nil && !errors.Is(err, ErrRecordNotFound) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) saveActiveData() error {
	slot := m.config.Active
	s := m.config.Slots[slot]
	return errors.Join(m.SaveData(slot, s.HF), m.SaveData(slot, s.LF))
}

// ChangeSlot makes index the active slot: the outgoing slot is flushed,
// the active index updated and the incoming slot's data loaded into the
// shared buffers.
//
// With suspendSensing set, field sensing is stopped for the duration of the
// switch and re-armed for the new slot afterwards.
//
// If the outgoing slot's data cannot be written the switch is abandoned
// and the old slot stays active, since loading the new slot would discard
// the unsaved data.
func (m *Manager) ChangeSlot(index uint8, suspendSensing bool) error {
	if index >= MaxSlots {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, index)
	}

	if suspendSensing {
		m.StopEmulation()
		defer m.StartEmulation()
	}

	configErr := m.SaveConfig()
	dataErr := m.saveActiveData()
	if errors.Is(dataErr, ErrStorageWrite) {
		m.logger.Error("slot switch abandoned, outgoing slot data not saved",
			zap.Uint8("from", m.config.Active),
			zap.Uint8("to", index),
			zap.Error(dataErr))
		return errors.Join(configErr, dataErr)
	}

	m.emulating = false
	from := m.config.Active
	if err := m.SetActiveSlot(index); err != nil {
		return errors.Join(configErr, dataErr, err)
	}
	loadErr := m.loadActiveData()

	m.logger.Info("slot changed", zap.Uint8("from", from), zap.Uint8("to", index))
	return errors.Join(configErr, dataErr, loadErr)
}

// FactoryInit seeds default data for the first three slots when their
// records do not exist yet. Existing records are never touched, so it is
// safe to call on every boot.
//
// Slot 0 is seeded only when it has both an HF and an LF type and neither
// record exists; slot 1 is seeded with HF data and slot 2 with LF data.
func (m *Manager) FactoryInit() error {
	var errs []error

	if s := m.config.Slots[0]; s.Enabled && s.HF != TagTypeNone && s.LF != TagTypeNone {
		hfExists, hfErr := m.recordExists(0, SenseHF)
		lfExists, lfErr := m.recordExists(0, SenseLF)
		switch {
		case hfErr != nil || lfErr != nil:
			errs = append(errs, hfErr, lfErr)
		case !hfExists && !lfExists:
			errs = append(errs, m.FactoryData(0, s.HF), m.FactoryData(0, s.LF))
		}
	}

	if s := m.config.Slots[1]; s.Enabled && s.HF != TagTypeNone {
		errs = append(errs, m.factoryIfMissing(1, SenseHF, s.HF))
	}

	if s := m.config.Slots[2]; s.Enabled && s.LF != TagTypeNone {
		errs = append(errs, m.factoryIfMissing(2, SenseLF, s.LF))
	}

	return errors.Join(errs...)
}

func (m *Manager) factoryIfMissing(slot uint8, sense SenseType, t TagType) error {
	exists, err := m.recordExists(slot, sense)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return m.FactoryData(slot, t)
}

func (m *Manager) recordExists(slot uint8, sense SenseType) (bool, error) {
	key := m.keys.SlotKey(slot, sense)
	exists, err := m.store.Exists(key)
	if err != nil {
		m.logger.Error("record lookup failed", zap.Stringer("key", key), zap.Error(err))
		return false, fmt.Errorf("%w: exists %s: %w", ErrStorageRead, key, err)
	}
	return exists, nil
}
