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

// Package crc provides the ISO/IEC 14443-3 Type A checksum used to detect
// changes in emulated tag data and slot configuration records.
package crc

const (
	crcAInit = 0x6363
)

// Checksum14A returns the CRC_A of data.
//
// The value is laid out the same way the tag transmits it: the low byte
// goes on the wire first.
func Checksum14A(data []byte) uint16 {
	crc := uint16(crcAInit)
	for _, b := range data {
		b ^= byte(crc)
		b ^= b << 4
		crc = (crc >> 8) ^ uint16(b)<<8 ^ uint16(b)<<3 ^ uint16(b)>>4
	}
	return crc
}

// Append appends the CRC_A of data to data in wire order.
func Append(data []byte) []byte {
	crc := Checksum14A(data)
	return append(data, byte(crc), byte(crc>>8))
}

// Valid reports whether frame ends with a correct CRC_A over the bytes
// preceding it.
func Valid(frame []byte) bool {
	if len(frame) < 2 {
		return false
	}
	n := len(frame) - 2
	crc := Checksum14A(frame[:n])
	return frame[n] == byte(crc) && frame[n+1] == byte(crc>>8)
}
