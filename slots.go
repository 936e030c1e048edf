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
	"encoding/binary"
	"fmt"

	"github.com/ZaparooProject/go-tagemu/storage"
)

// Slot configuration record layout
const (
	configHeaderSize = 4
	slotRecordSize   = 8

	// ConfigRecordSize is the persisted size of a SlotConfig in bytes
	ConfigRecordSize = configHeaderSize + MaxSlots*slotRecordSize
)

// SlotDescriptor is the configuration of one card slot
type SlotDescriptor struct {
	HF      TagType
	LF      TagType
	Enabled bool
}

// TypeFor returns the tag type configured for sense
func (s SlotDescriptor) TypeFor(sense SenseType) TagType {
	switch sense {
	case SenseHF:
		return s.HF
	case SenseLF:
		return s.LF
	default:
		return TagTypeNone
	}
}

// Empty reports whether neither field has a tag type configured
func (s SlotDescriptor) Empty() bool {
	return s.HF == TagTypeNone && s.LF == TagTypeNone
}

// SlotConfig is the persisted slot table plus the active slot index
type SlotConfig struct {
	Slots  [MaxSlots]SlotDescriptor
	Active uint8
}

// DefaultSlotConfig returns the configuration a device ships with: a
// dual-frequency slot, an HF-only slot and an LF-only slot, all enabled,
// with the rest disabled.
func DefaultSlotConfig() SlotConfig {
	cfg := SlotConfig{Active: 0}
	cfg.Slots[0] = SlotDescriptor{Enabled: true, HF: TagTypeMifare1K, LF: TagTypeEM410X}
	cfg.Slots[1] = SlotDescriptor{Enabled: true, HF: TagTypeMifare1K}
	cfg.Slots[2] = SlotDescriptor{Enabled: true, LF: TagTypeEM410X}
	return cfg
}

// MarshalBinary encodes the configuration into its fixed, word-aligned
// record layout:
//
//	header:   active(1) reserved(3)
//	per slot: enabled(1) reserved(1) hf(2, LE) lf(2, LE) reserved(2)
func (c *SlotConfig) MarshalBinary() ([]byte, error) {
	buf := make([]byte, ConfigRecordSize)
	c.encode(buf)
	return buf, nil
}

func (c *SlotConfig) encode(buf []byte) {
	buf[0] = c.Active
	for i, s := range c.Slots {
		rec := buf[configHeaderSize+i*slotRecordSize:]
		if s.Enabled {
			rec[0] = 1
		}
		binary.LittleEndian.PutUint16(rec[2:4], uint16(s.HF))
		binary.LittleEndian.PutUint16(rec[4:6], uint16(s.LF))
	}
}

// UnmarshalBinary decodes a record produced by MarshalBinary. The active
// index is taken as stored; callers validate it.
func (c *SlotConfig) UnmarshalBinary(data []byte) error {
	if len(data) != ConfigRecordSize {
		return fmt.Errorf("%w: %d bytes, want %d", ErrInvalidConfig, len(data), ConfigRecordSize)
	}
	var decoded SlotConfig
	decoded.Active = data[0]
	for i := range decoded.Slots {
		rec := data[configHeaderSize+i*slotRecordSize:]
		decoded.Slots[i] = SlotDescriptor{
			Enabled: rec[0] != 0,
			HF:      TagType(binary.LittleEndian.Uint16(rec[2:4])),
			LF:      TagType(binary.LittleEndian.Uint16(rec[4:6])),
		}
	}
	*c = decoded
	return nil
}

// FindNext returns the first enabled slot after cur, wrapping around. If no
// other slot is enabled cur is returned.
func (c *SlotConfig) FindNext(cur uint8) uint8 {
	if cur >= MaxSlots {
		return cur
	}
	for step := 1; step < MaxSlots; step++ {
		i := (int(cur) + step) % MaxSlots
		if c.Slots[i].Enabled {
			return uint8(i)
		}
	}
	return cur
}

// FindPrev returns the first enabled slot before cur, wrapping around. If
// no other slot is enabled cur is returned.
func (c *SlotConfig) FindPrev(cur uint8) uint8 {
	if cur >= MaxSlots {
		return cur
	}
	for step := 1; step < MaxSlots; step++ {
		i := (int(cur) - step + MaxSlots) % MaxSlots
		if c.Slots[i].Enabled {
			return uint8(i)
		}
	}
	return cur
}

// KeyMapper maps slot configuration and slot data onto storage records
type KeyMapper interface {
	// ConfigKey returns the record holding the slot configuration
	ConfigKey() storage.Key
	// SlotKey returns the record holding one sense category of a slot
	SlotKey(slot uint8, sense SenseType) storage.Key
}

// Default storage layout
const (
	ConfigFileID    = 0x1000
	ConfigRecordKey = 0x1001
	SlotFileIDBase  = 0x1001
)

type defaultKeyMap struct{}

// DefaultKeyMap places the configuration at file 0x1000 and each slot in
// its own file starting at 0x1001, with record key 1 for LF data and 2 for
// HF data.
var DefaultKeyMap KeyMapper = defaultKeyMap{}

func (defaultKeyMap) ConfigKey() storage.Key {
	return storage.Key{FileID: ConfigFileID, RecordKey: ConfigRecordKey}
}

func (defaultKeyMap) SlotKey(slot uint8, sense SenseType) storage.Key {
	return storage.Key{FileID: SlotFileIDBase + uint16(slot), RecordKey: uint16(sense)}
}
