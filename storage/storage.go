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

// Package storage defines the record storage contract used to persist
// slot configuration and emulated tag data, together with an in-memory
// implementation.
//
// Records are addressed by a (file ID, record key) pair and are always
// written as whole 32-bit words, matching the flash record engines the
// emulator firmware runs on.
package storage

import (
	"errors"
	"fmt"
)

// WordSize is the storage word size in bytes. Record lengths are always a
// multiple of it.
const WordSize = 4

// Storage errors
var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidWrite = errors.New("invalid record write")
	ErrClosed       = errors.New("store closed")
)

// Key addresses one record in the store
type Key struct {
	FileID    uint16
	RecordKey uint16
}

// String returns the key as "file/record" in hex
func (k Key) String() string {
	return fmt.Sprintf("%04X/%04X", k.FileID, k.RecordKey)
}

// Store is the storage engine contract. All calls are synchronous and may
// block for as long as the underlying medium needs.
type Store interface {
	// Read copies the record at key into out and returns the number of
	// bytes copied, which is the smaller of the record length and len(out).
	// Returns ErrNotFound if no record exists.
	Read(key Key, out []byte) (int, error)

	// Write replaces the record at key with the first words*WordSize bytes
	// of data. Bytes beyond len(data) are written as zero.
	Write(key Key, words int, data []byte) error

	// Delete removes every record stored under key and returns how many
	// were removed.
	Delete(key Key) (int, error)

	// Exists reports whether a record is stored under key.
	Exists(key Key) (bool, error)
}

// Words returns the number of storage words needed to hold n bytes
func Words(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + WordSize - 1) / WordSize
}

// WordAligned copies the first words*WordSize bytes of data into a new
// slice, zero-padding past the end of data. It is the canonical record
// image every Store writes.
func WordAligned(words int, data []byte) ([]byte, error) {
	if words <= 0 {
		return nil, fmt.Errorf("%w: %d words", ErrInvalidWrite, words)
	}
	record := make([]byte, words*WordSize)
	copy(record, data)
	return record, nil
}
