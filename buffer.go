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

import "fmt"

// DataBuffer is the fixed-capacity RAM region holding the live data of one
// sense category for the active slot.
//
// A buffer is bound to one slot at a time. Loading binds it to the slot
// being loaded; saving is only accepted for the bound slot so that data of
// one slot can never be flushed into another slot's record.
//
// A buffer whose read failed is stale: it is bound to the slot that could
// not be read but its content belongs elsewhere, so saves are refused until
// a load succeeds.
type DataBuffer struct {
	data   []byte
	crc    uint16
	sense  SenseType
	slot   uint8
	bound  bool
	crcSet bool
	stale  bool
}

func newDataBuffer(sense SenseType, capacity int) *DataBuffer {
	return &DataBuffer{
		data:  make([]byte, capacity),
		sense: sense,
	}
}

// Cap returns the fixed buffer capacity in bytes
func (b *DataBuffer) Cap() int {
	return len(b.data)
}

// Bytes returns the whole buffer. Backends read and mutate it in place.
func (b *DataBuffer) Bytes() []byte {
	return b.data
}

// Sense returns the sense category this buffer serves
func (b *DataBuffer) Sense() SenseType {
	return b.sense
}

// Slot returns the slot the buffer is bound to, if any
func (b *DataBuffer) Slot() (uint8, bool) {
	return b.slot, b.bound
}

// Checksum returns the checksum of the content last confirmed read from or
// written to storage. ok is false until the first such confirmation.
func (b *DataBuffer) Checksum() (crc uint16, ok bool) {
	return b.crc, b.crcSet
}

// bind attaches the buffer to slot. Moving to another slot drops the
// checksum, which described the previous slot's record.
func (b *DataBuffer) bind(slot uint8) {
	if b.bound && b.slot != slot {
		b.crcSet = false
	}
	b.slot = slot
	b.bound = true
	b.stale = false
}

// markStale binds the buffer to slot without trusting its content
func (b *DataBuffer) markStale(slot uint8) {
	b.slot = slot
	b.bound = true
	b.stale = true
	b.crcSet = false
}

// Stale reports whether the last read into the buffer failed
func (b *DataBuffer) Stale() bool {
	return b.stale
}

// forget drops the checksum so the next save always writes
func (b *DataBuffer) forget() {
	b.crcSet = false
}

// claim verifies the buffer may be flushed to slot, binding an unbound
// buffer on first use.
func (b *DataBuffer) claim(slot uint8) error {
	if !b.bound {
		b.bind(slot)
		return nil
	}
	if b.slot != slot {
		return fmt.Errorf("%w: %s buffer holds slot %d, not slot %d", ErrBufferBinding, b.sense, b.slot, slot)
	}
	if b.stale {
		return fmt.Errorf("%w: %s buffer for slot %d", ErrStaleBuffer, b.sense, slot)
	}
	return nil
}

// setChecksum records crc as the persisted state of the content, which
// also makes a stale buffer trusted again.
func (b *DataBuffer) setChecksum(crc uint16) {
	b.crc = crc
	b.crcSet = true
	b.stale = false
}

// matches reports whether crc equals the last persisted checksum
func (b *DataBuffer) matches(crc uint16) bool {
	return b.crcSet && b.crc == crc
}
