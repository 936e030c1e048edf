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

// MaxSlots is the number of card slots a Manager holds
const MaxSlots = 8

// Data buffer capacities in bytes
const (
	LFBufferSize = 12
	HFBufferSize = 4500
)

// TagType identifies a concrete emulated tag kind. The numeric values are
// part of the persisted slot configuration record and must not change.
type TagType uint16

const (
	// TagTypeNone marks a slot field with no tag configured
	TagTypeNone TagType = 0

	// TagTypeEM410X is a 125 kHz EM4100/EM4102 ID card.
	TagTypeEM410X TagType = 100

	// MIFARE Classic family
	TagTypeMifareMini TagType = 1000
	TagTypeMifare1K   TagType = 1001
	TagTypeMifare2K   TagType = 1002
	TagTypeMifare4K   TagType = 1003

	// NTAG21x family
	TagTypeNTAG213 TagType = 1100
	TagTypeNTAG215 TagType = 1101
	TagTypeNTAG216 TagType = 1102
)

var tagTypeNames = map[TagType]string{
	TagTypeNone:       "None",
	TagTypeEM410X:     "EM410X",
	TagTypeMifareMini: "MIFARE Mini",
	TagTypeMifare1K:   "MIFARE Classic 1K",
	TagTypeMifare2K:   "MIFARE Classic 2K",
	TagTypeMifare4K:   "MIFARE Classic 4K",
	TagTypeNTAG213:    "NTAG213",
	TagTypeNTAG215:    "NTAG215",
	TagTypeNTAG216:    "NTAG216",
}

// String returns a human-readable tag type name
func (t TagType) String() string {
	if name, ok := tagTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TagType(%d)", uint16(t))
}

// SenseType is the physical field a tag type is emulated on
type SenseType uint8

const (
	// SenseNone is the "no category" sentinel
	SenseNone SenseType = iota
	// SenseLF is the 125 kHz low-frequency field
	SenseLF
	// SenseHF is the 13.56 MHz ISO14443A high-frequency field
	SenseHF
)

// String returns a short name for the sense type
func (s SenseType) String() string {
	switch s {
	case SenseNone:
		return "none"
	case SenseLF:
		return "LF"
	case SenseHF:
		return "HF"
	default:
		return fmt.Sprintf("SenseType(%d)", uint8(s))
	}
}
