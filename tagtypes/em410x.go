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

package tagtypes

import (
	"fmt"

	tagemu "github.com/ZaparooProject/go-tagemu"
)

// EM410XIDSize is the length of an EM410X card ID in bytes
const EM410XIDSize = 5

// EM4100 frame layout
const (
	em410xHeaderBits = 9
	em410xRows       = 10
	em410xFrameBits  = 64
)

// DefaultEM410XID is the ID written by a factory reset
var DefaultEM410XID = [EM410XIDSize]byte{0xDE, 0xAD, 0xBE, 0xEF, 0x88}

// EM410X emulates a read-only 125 kHz EM4100/EM4102 card. The persisted
// record is the raw 5-byte ID; the working state is the 64-bit Manchester
// frame the LF modulator repeats while a reader is in the field.
type EM410X struct {
	frame  uint64
	id     [EM410XIDSize]byte
	loaded bool
}

// NewEM410X creates an EM410X backend with no card loaded
func NewEM410X() *EM410X {
	return &EM410X{}
}

// Load implements tagemu.Backend
func (e *EM410X) Load(t tagemu.TagType, buf *tagemu.DataBuffer) int {
	if t != tagemu.TagTypeEM410X || buf.Cap() < EM410XIDSize {
		return 0
	}
	copy(e.id[:], buf.Bytes())
	e.frame = EncodeEM410X(e.id)
	e.loaded = true
	return EM410XIDSize
}

// Save implements tagemu.Backend. Nothing is saved until a card was loaded
// or an ID was set.
func (e *EM410X) Save(t tagemu.TagType, buf *tagemu.DataBuffer) int {
	if t != tagemu.TagTypeEM410X || !e.loaded || buf.Cap() < EM410XIDSize {
		return 0
	}
	copy(buf.Bytes(), e.id[:])
	return EM410XIDSize
}

// Factory implements tagemu.Backend
func (*EM410X) Factory(_ uint8, t tagemu.TagType, dst []byte) int {
	if t != tagemu.TagTypeEM410X || len(dst) < EM410XIDSize {
		return 0
	}
	return copy(dst, DefaultEM410XID[:])
}

// ID returns the loaded card ID
func (e *EM410X) ID() ([EM410XIDSize]byte, bool) {
	return e.id, e.loaded
}

// SetID replaces the card ID. The change reaches storage on the next save.
func (e *EM410X) SetID(id [EM410XIDSize]byte) {
	e.id = id
	e.frame = EncodeEM410X(id)
	e.loaded = true
}

// Frame returns the modulation frame for the loaded ID
func (e *EM410X) Frame() uint64 {
	return e.frame
}

// EncodeEM410X builds the 64-bit EM4100 frame for id, most significant bit
// first: 9 header ones, ten rows of 4 data bits each followed by an even
// row parity bit, 4 even column parity bits and a zero stop bit.
func EncodeEM410X(id [EM410XIDSize]byte) uint64 {
	frame := uint64(1<<em410xHeaderBits - 1)
	var cols byte
	for i := range em410xRows {
		nibble := id[i/2] >> 4
		if i%2 == 1 {
			nibble = id[i/2] & 0x0F
		}
		frame = frame<<5 | uint64(nibble)<<1 | uint64(parity4(nibble))
		cols ^= nibble
	}
	frame = frame<<4 | uint64(cols)
	return frame << 1
}

// DecodeEM410X extracts the card ID from a frame, checking the header,
// every parity bit and the stop bit.
func DecodeEM410X(frame uint64) ([EM410XIDSize]byte, error) {
	var id [EM410XIDSize]byte

	if frame>>(em410xFrameBits-em410xHeaderBits) != 1<<em410xHeaderBits-1 {
		return id, fmt.Errorf("%w: bad header", ErrInvalidFrame)
	}
	if frame&1 != 0 {
		return id, fmt.Errorf("%w: stop bit set", ErrInvalidFrame)
	}

	var cols byte
	for i := range em410xRows {
		shift := em410xFrameBits - em410xHeaderBits - 5*(i+1)
		row := byte(frame>>shift) & 0x1F
		nibble := row >> 1
		if row&1 != parity4(nibble) {
			return id, fmt.Errorf("%w: row %d parity", ErrInvalidFrame, i)
		}
		cols ^= nibble
		if i%2 == 0 {
			id[i/2] = nibble << 4
		} else {
			id[i/2] |= nibble
		}
	}
	if byte(frame>>1)&0x0F != cols {
		return id, fmt.Errorf("%w: column parity", ErrInvalidFrame)
	}
	return id, nil
}

func parity4(n byte) byte {
	n ^= n >> 2
	n ^= n >> 1
	return n & 1
}
