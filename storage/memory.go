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

package storage

import (
	"sync"
)

// Memory is a Store that keeps records in a map. It is safe for concurrent
// use and is intended for tests and host-side simulation.
type Memory struct {
	records map[Key][]byte
	mu      sync.RWMutex
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		records: make(map[Key][]byte),
	}
}

// Read implements Store
func (m *Memory) Read(key Key, out []byte) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.records[key]
	if !ok {
		return 0, ErrNotFound
	}
	return copy(out, record), nil
}

// Write implements Store
func (m *Memory) Write(key Key, words int, data []byte) error {
	record, err := WordAligned(words, data)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key] = record
	return nil
}

// Delete implements Store
func (m *Memory) Delete(key Key) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[key]; !ok {
		return 0, nil
	}
	delete(m.records, key)
	return 1, nil
}

// Exists implements Store
func (m *Memory) Exists(key Key) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.records[key]
	return ok, nil
}

// Record returns a copy of the raw record stored under key
func (m *Memory) Record(key Key) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.records[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), record...), true
}

// Len returns the number of records in the store
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
