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

// ErrLoadRejected is returned when a backend refuses the bytes it was
// asked to load.
var ErrLoadRejected = errors.New("tag data rejected by backend")

// BufferFor returns the shared data buffer used by t, or nil when t is the
// sentinel or is not registered.
func (m *Manager) BufferFor(t TagType) *DataBuffer {
	return m.bufferForSense(m.registry.SenseOf(t))
}

func (m *Manager) bufferForSense(sense SenseType) *DataBuffer {
	switch sense {
	case SenseHF:
		return m.hf
	case SenseLF:
		return m.lf
	default:
		return nil
	}
}

// resolve finds the descriptor and buffer for t, logging lookup misses
func (m *Manager) resolve(op string, t TagType) (Descriptor, *DataBuffer, error) {
	desc, ok := m.registry.Descriptor(t)
	if !ok {
		m.logger.Error("no tag type implementation", zap.String("op", op), zap.Stringer("type", t))
		return Descriptor{}, nil, fmt.Errorf("%w: %s", ErrUnknownTagType, t)
	}
	buf := m.bufferForSense(desc.Sense)
	if buf == nil {
		m.logger.Error("no buffer valid", zap.String("op", op), zap.Stringer("type", t))
		return Descriptor{}, nil, fmt.Errorf("%w: %s", ErrNoBuffer, t)
	}
	return desc, buf, nil
}

// LoadData reads the persisted record of (slot, t) into its shared buffer
// and hands it to the backend. The buffer becomes bound to slot.
//
// Loading the sentinel type is a no-op. A missing record returns
// ErrRecordNotFound and leaves the buffer content as it was, but the next
// save will write it. A failed read leaves the buffer content as it was
// and marks it stale, so saves to slot are refused until a load succeeds.
func (m *Manager) LoadData(slot uint8, t TagType) error {
	if t == TagTypeNone {
		return nil
	}
	if slot >= MaxSlots {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}
	desc, buf, err := m.resolve("load", t)
	if err != nil {
		return err
	}

	key := m.keys.SlotKey(slot, desc.Sense)

	staging := m.scratch[:buf.Cap()]
	clear(staging)
	if _, err := m.store.Read(key, staging); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			buf.bind(slot)
			buf.forget()
			m.logger.Info("tag slot data does not exist",
				zap.Uint8("slot", slot), zap.Stringer("type", t))
			return fmt.Errorf("%w: slot %d %s", ErrRecordNotFound, slot, desc.Sense)
		}
		buf.markStale(slot)
		m.logger.Error("tag slot data read failed",
			zap.Uint8("slot", slot), zap.Stringer("type", t), zap.Stringer("key", key), zap.Error(err))
		return fmt.Errorf("%w: %s: %w", ErrStorageRead, key, err)
	}
	buf.bind(slot)
	copy(buf.Bytes(), staging)

	if err := m.runLoad(desc, buf, true); err != nil {
		return err
	}
	m.logger.Info("tag slot data loaded", zap.Uint8("slot", slot), zap.Stringer("type", t))
	return nil
}

// ReloadBuffer runs the backend load over the current content of t's
// buffer, for use after raw bytes were written into it directly. With
// updateCRC the content is also treated as the persisted state.
func (m *Manager) ReloadBuffer(t TagType, updateCRC bool) error {
	desc, buf, err := m.resolve("reload", t)
	if err != nil {
		return err
	}
	return m.runLoad(desc, buf, updateCRC)
}

func (m *Manager) runLoad(desc Descriptor, buf *DataBuffer, updateCRC bool) error {
	n := desc.Backend.Load(desc.Type, buf)
	if n <= 0 || n > buf.Cap() {
		m.logger.Info("tag data not accepted by backend",
			zap.Stringer("type", desc.Type), zap.Int("length", n))
		return fmt.Errorf("%w: %s reported length %d", ErrLoadRejected, desc.Type, n)
	}
	if updateCRC {
		buf.setChecksum(m.checksum(buf.Bytes()[:n]))
	}
	return nil
}

// SaveData asks the backend of t to serialize its state and writes it to
// the record of (slot, t) if it changed since the last sync.
//
// Saving the sentinel type is a no-op, as is a backend reporting nothing
// to save. An oversized result is rejected before anything is written. On
// a failed write the previous checksum is kept so the next call retries.
func (m *Manager) SaveData(slot uint8, t TagType) error {
	if t == TagTypeNone {
		return nil
	}
	if slot >= MaxSlots {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}
	desc, buf, err := m.resolve("save", t)
	if err != nil {
		return err
	}
	if err := buf.claim(slot); err != nil {
		m.logger.Error("refusing to save buffer", zap.Uint8("slot", slot), zap.Error(err))
		return err
	}

	n := desc.Backend.Save(t, buf)
	if n <= 0 {
		m.logger.Info("tag data has nothing to save", zap.Stringer("type", t))
		return nil
	}
	if n > buf.Cap() {
		m.logger.Error("tag data save length overflow",
			zap.Stringer("type", t), zap.Int("length", n), zap.Int("capacity", buf.Cap()))
		return fmt.Errorf("%w: %s reported %d bytes, buffer holds %d", ErrSaveOverflow, t, n, buf.Cap())
	}

	data := buf.Bytes()[:n]
	sum := m.checksum(data)
	if buf.matches(sum) {
		m.logger.Debug("tag slot data unchanged", zap.Uint8("slot", slot), zap.Int("length", n))
		return nil
	}

	key := m.keys.SlotKey(slot, desc.Sense)
	if err := m.store.Write(key, storage.Words(n), data); err != nil {
		m.logger.Error("save tag slot data failed",
			zap.Uint8("slot", slot), zap.Stringer("type", t), zap.Stringer("key", key), zap.Error(err))
		return fmt.Errorf("%w: %s: %w", ErrStorageWrite, key, err)
	}
	buf.setChecksum(sum)
	m.logger.Info("tag slot data saved",
		zap.Uint8("slot", slot), zap.Stringer("type", t), zap.Int("length", n))
	return nil
}

// DeleteData removes the persisted record of one sense category of slot.
// Buffers and their checksums are not touched.
func (m *Manager) DeleteData(slot uint8, sense SenseType) (int, error) {
	if slot >= MaxSlots {
		return 0, fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}
	if sense != SenseHF && sense != SenseLF {
		return 0, fmt.Errorf("%w: %s", ErrInvalidSense, sense)
	}

	key := m.keys.SlotKey(slot, sense)
	count, err := m.store.Delete(key)
	if err != nil {
		m.logger.Error("delete tag slot data failed",
			zap.Uint8("slot", slot), zap.Stringer("sense", sense), zap.Error(err))
		return 0, fmt.Errorf("%w: %s: %w", ErrStorageDelete, key, err)
	}
	m.logger.Info("tag slot data deleted",
		zap.Uint8("slot", slot), zap.Stringer("sense", sense), zap.Int("records", count))
	return count, nil
}

// FactoryData replaces the persisted data of (slot, t) with the backend's
// default content. If slot is active the new data is loaded into the live
// buffer as well.
func (m *Manager) FactoryData(slot uint8, t TagType) error {
	if slot >= MaxSlots {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}
	desc, buf, err := m.resolve("factory", t)
	if err != nil {
		return err
	}

	dst := m.scratch[:buf.Cap()]
	clear(dst)
	n := desc.Backend.Factory(slot, t, dst)
	if n <= 0 || n > len(dst) {
		m.logger.Error("factory data generation failed",
			zap.Uint8("slot", slot), zap.Stringer("type", t), zap.Int("length", n))
		return fmt.Errorf("%w: %s reported length %d", ErrFactoryFailed, t, n)
	}

	key := m.keys.SlotKey(slot, desc.Sense)
	if err := m.store.Write(key, storage.Words(n), dst[:n]); err != nil {
		m.logger.Error("save factory data failed",
			zap.Uint8("slot", slot), zap.Stringer("type", t), zap.Error(err))
		return fmt.Errorf("%w: %s: %w", ErrStorageWrite, key, err)
	}
	m.logger.Info("factory data written", zap.Uint8("slot", slot), zap.Stringer("type", t))

	if slot == m.config.Active {
		return m.LoadData(slot, t)
	}
	return nil
}
