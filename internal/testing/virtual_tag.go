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

package testing

import "fmt"

// Memory unit sizes
const (
	MifareBlockSize = 16
	NTAGPageSize    = 4
)

// VirtualTag is a tag memory image assembled by hand, without going
// through the emulation backends, so tests can compare against it.
type VirtualTag struct {
	Type   string
	UID    []byte
	Memory []byte
	unit   int
}

// NewVirtualNTAG213 creates a blank NTAG213 image with a valid capability
// container and no NDEF message
func NewVirtualNTAG213(uid []byte) *VirtualTag {
	if uid == nil {
		uid = TestNTAG213UID
	}

	tag := &VirtualTag{
		Type:   "NTAG213",
		UID:    uid,
		Memory: make([]byte, 45*NTAGPageSize),
		unit:   NTAGPageSize,
	}

	// Page 0-2: UID with BCC0 and BCC1, internal byte, static lock
	tag.Memory[0], tag.Memory[1], tag.Memory[2] = uid[0], uid[1], uid[2]
	tag.Memory[3] = 0x88 ^ uid[0] ^ uid[1] ^ uid[2]
	copy(tag.Memory[4:8], uid[3:7])
	tag.Memory[8] = uid[3] ^ uid[4] ^ uid[5] ^ uid[6]
	tag.Memory[9] = 0x48

	// Page 3: capability container, 144 bytes of user memory
	copy(tag.Memory[12:16], []byte{0xE1, 0x10, 0x12, 0x00})

	return tag
}

// NewVirtualMIFARE1K creates a blank MIFARE Classic 1K image
func NewVirtualMIFARE1K(uid []byte) *VirtualTag {
	if uid == nil {
		uid = TestMIFARE1KUID
	}
	return newVirtualMIFARE("MIFARE1K", uid, 64, 0x08, [2]byte{0x04, 0x00})
}

// NewVirtualMIFARE4K creates a blank MIFARE Classic 4K image
func NewVirtualMIFARE4K(uid []byte) *VirtualTag {
	if uid == nil {
		uid = TestMIFARE4KUID
	}
	return newVirtualMIFARE("MIFARE4K", uid, 256, 0x18, [2]byte{0x02, 0x00})
}

func newVirtualMIFARE(typ string, uid []byte, blocks int, sak byte, atqa [2]byte) *VirtualTag {
	tag := &VirtualTag{
		Type:   typ,
		UID:    uid,
		Memory: make([]byte, blocks*MifareBlockSize),
		unit:   MifareBlockSize,
	}

	// Block 0: UID, BCC, SAK, ATQA
	copy(tag.Memory, uid)
	tag.Memory[4] = uid[0] ^ uid[1] ^ uid[2] ^ uid[3]
	tag.Memory[5] = sak
	tag.Memory[6], tag.Memory[7] = atqa[0], atqa[1]

	trailer := []byte{
		0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, // Key A
		0xFF, 0x07, 0x80, 0x69, // Access bits
		0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, // Key B
	}
	for block := range blocks {
		if tag.isSectorTrailer(block) {
			copy(tag.Memory[block*MifareBlockSize:], trailer)
		}
	}
	return tag
}

// Image returns a copy of the whole memory image
func (v *VirtualTag) Image() []byte {
	return append([]byte(nil), v.Memory...)
}

// ReadBlock reads one block (MIFARE) or page (NTAG)
func (v *VirtualTag) ReadBlock(block int) ([]byte, error) {
	if block < 0 || (block+1)*v.unit > len(v.Memory) {
		return nil, fmt.Errorf("block %d out of range", block)
	}
	data := make([]byte, v.unit)
	copy(data, v.Memory[block*v.unit:])
	return data, nil
}

// WriteBlock writes one block (MIFARE) or page (NTAG)
func (v *VirtualTag) WriteBlock(block int, data []byte) error {
	if block < 0 || (block+1)*v.unit > len(v.Memory) {
		return fmt.Errorf("block %d out of range", block)
	}
	if v.isBlockWriteProtected(block) {
		return fmt.Errorf("block %d is write protected", block)
	}
	if len(data) != v.unit {
		return fmt.Errorf("data must be exactly %d bytes, got %d", v.unit, len(data))
	}
	copy(v.Memory[block*v.unit:], data)
	return nil
}

// SetNDEFText writes a single short text record ("en") as an NDEF message
// TLV at the start of NTAG user memory.
func (v *VirtualTag) SetNDEFText(text string) error {
	if v.unit != NTAGPageSize {
		return fmt.Errorf("%s has no NDEF user memory", v.Type)
	}
	textBytes := []byte(text)

	// [Header][Type Length][Payload Length][Type][Status][Language][Text]
	record := []byte{
		0xD1,                     // MB=1, ME=1, SR=1, TNF=1 (Well Known)
		0x01,                     // Type Length
		byte(len(textBytes) + 3), // Payload Length
		0x54,                     // Type: "T"
		0x02,                     // UTF-8, language code length 2
		0x65, 0x6E,               // "en"
	}
	record = append(record, textBytes...)

	tlv := []byte{0x03, byte(len(record))}
	tlv = append(tlv, record...)
	tlv = append(tlv, 0xFE)

	user := v.Memory[4*NTAGPageSize : 40*NTAGPageSize]
	if len(tlv) > len(user) {
		return fmt.Errorf("NDEF data too large for %s", v.Type)
	}
	clear(user)
	copy(user, tlv)
	return nil
}

func (v *VirtualTag) isSectorTrailer(block int) bool {
	if block < 128 {
		return (block+1)%4 == 0
	}
	return (block-128)%16 == 15
}

func (v *VirtualTag) isBlockWriteProtected(block int) bool {
	switch v.Type {
	case "NTAG213":
		// UID pages and the configuration area
		return block < 3 || block >= 40
	case "MIFARE1K", "MIFARE4K":
		return block == 0 || v.isSectorTrailer(block)
	}
	return false
}
