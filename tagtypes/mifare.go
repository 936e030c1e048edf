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
	tagemu "github.com/ZaparooProject/go-tagemu"
)

// MIFARE Classic memory geometry
const (
	MifareBlockSize      = 16
	mifareSmallSectorLen = 4
	mifareLargeSectorLen = 16
	// sectors 0-31 hold 4 blocks, sectors 32-39 of a 4K card hold 16
	mifareSmallSectors = 32
	mifareUIDSize      = 4
)

// DefaultMifareUID is the 4-byte UID written by a factory reset
var DefaultMifareUID = [mifareUIDSize]byte{0xDE, 0xAD, 0xBE, 0xEF}

// DefaultSectorTrailer is a transport-configuration sector trailer: key A
// and key B all 0xFF with access bits FF 07 80 and GPB 0x69.
var DefaultSectorTrailer = [MifareBlockSize]byte{
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, // Key A
	0xFF, 0x07, 0x80, 0x69, // Access bits
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, // Key B
}

type mifareGeometry struct {
	size int
	sak  byte
	atqa [2]byte
}

var mifareGeometries = map[tagemu.TagType]mifareGeometry{
	tagemu.TagTypeMifareMini: {size: 320, sak: 0x09, atqa: [2]byte{0x04, 0x00}},
	tagemu.TagTypeMifare1K:   {size: 1024, sak: 0x08, atqa: [2]byte{0x04, 0x00}},
	tagemu.TagTypeMifare2K:   {size: 2048, sak: 0x19, atqa: [2]byte{0x04, 0x00}},
	tagemu.TagTypeMifare4K:   {size: 4096, sak: 0x18, atqa: [2]byte{0x02, 0x00}},
}

// MifareSize returns the memory size in bytes of a MIFARE Classic type, or
// 0 when t is not one.
func MifareSize(t tagemu.TagType) int {
	return mifareGeometries[t].size
}

// MifareBlockCount returns the number of 16-byte blocks of t
func MifareBlockCount(t tagemu.TagType) int {
	return MifareSize(t) / MifareBlockSize
}

// IsSectorTrailer reports whether block is the last block of its sector
func IsSectorTrailer(block int) bool {
	if block < mifareSmallSectors*mifareSmallSectorLen {
		return block%mifareSmallSectorLen == mifareSmallSectorLen-1
	}
	return (block-mifareSmallSectors*mifareSmallSectorLen)%mifareLargeSectorLen == mifareLargeSectorLen-1
}

// MifareClassic emulates the MIFARE Classic family. The persisted record is
// the full block image; the reader-facing protocol engine reads and
// writes blocks of the live buffer in place, so the backend only tracks
// which card is loaded.
type MifareClassic struct {
	uid    [mifareUIDSize]byte
	loaded tagemu.TagType
}

// NewMifareClassic creates a MIFARE Classic backend with no card loaded
func NewMifareClassic() *MifareClassic {
	return &MifareClassic{}
}

// Load implements tagemu.Backend
func (m *MifareClassic) Load(t tagemu.TagType, buf *tagemu.DataBuffer) int {
	size := MifareSize(t)
	if size == 0 || size > buf.Cap() {
		return 0
	}
	copy(m.uid[:], buf.Bytes())
	m.loaded = t
	return size
}

// Save implements tagemu.Backend. The image is already in the buffer, so
// only its length is reported.
func (m *MifareClassic) Save(t tagemu.TagType, buf *tagemu.DataBuffer) int {
	size := MifareSize(t)
	if m.loaded != t || size > buf.Cap() {
		return 0
	}
	return size
}

// Factory implements tagemu.Backend. Block 0 carries the default UID with
// its BCC, SAK and ATQA; every sector trailer gets DefaultSectorTrailer.
func (*MifareClassic) Factory(_ uint8, t tagemu.TagType, dst []byte) int {
	geo, ok := mifareGeometries[t]
	if !ok || len(dst) < geo.size {
		return 0
	}
	img := dst[:geo.size]
	clear(img)

	copy(img, DefaultMifareUID[:])
	img[4] = bcc(DefaultMifareUID[:])
	img[5] = geo.sak
	img[6] = geo.atqa[0]
	img[7] = geo.atqa[1]

	for block := range geo.size / MifareBlockSize {
		if IsSectorTrailer(block) {
			copy(img[block*MifareBlockSize:], DefaultSectorTrailer[:])
		}
	}
	return geo.size
}

// Loaded returns the type of the loaded card, TagTypeNone if none
func (m *MifareClassic) Loaded() tagemu.TagType {
	return m.loaded
}

// UID returns the UID of the loaded card
func (m *MifareClassic) UID() [mifareUIDSize]byte {
	return m.uid
}

// bcc is the block check character over a UID: the XOR of its bytes
func bcc(uid []byte) byte {
	var x byte
	for _, b := range uid {
		x ^= b
	}
	return x
}
