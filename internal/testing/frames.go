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

// ReaderFrame is a reader-to-tag ISO14443-A frame with its CRC_A appended
type ReaderFrame struct {
	Name  string
	Frame []byte
}

// Known-good reader frames, CRC low byte first
var ReaderFrames = []ReaderFrame{
	{Name: "HLTA", Frame: []byte{0x50, 0x00, 0x57, 0xCD}},
	{Name: "READ page 0", Frame: []byte{0x30, 0x00, 0x02, 0xA8}},
	{Name: "READ page 4", Frame: []byte{0x30, 0x04, 0x26, 0xEE}},
}

// EM410X IDs with their 64-bit modulation frames
var EM410XFrames = []struct {
	ID    [5]byte
	Frame uint64
}{
	{ID: [5]byte{0xDE, 0xAD, 0xBE, 0xEF, 0x88}, Frame: 0xFFEFB4DDFBDF4620},
	{ID: [5]byte{0x00, 0x00, 0x00, 0x00, 0x00}, Frame: 0xFF80000000000000},
	{ID: [5]byte{0x01, 0x02, 0x03, 0x04, 0x05}, Frame: 0xFF8060280C048142},
}

// Common UIDs for testing
var (
	// TestNTAG213UID is a sample NTAG213 UID
	TestNTAG213UID = []byte{0x04, 0xAB, 0xCD, 0xEF, 0x12, 0x34, 0x56}

	// TestMIFARE1KUID is a sample MIFARE Classic 1K UID
	TestMIFARE1KUID = []byte{0x12, 0x34, 0x56, 0x78}

	// TestMIFARE4KUID is a sample MIFARE Classic 4K UID
	TestMIFARE4KUID = []byte{0xAB, 0xCD, 0xEF, 0x01}
)
