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
	"sync"

	"github.com/ZaparooProject/go-tagemu/storage"
)

// StoreOp names a storage call recorded by RecordingStore
type StoreOp string

// Recorded storage operations
const (
	OpRead   StoreOp = "read"
	OpWrite  StoreOp = "write"
	OpDelete StoreOp = "delete"
	OpExists StoreOp = "exists"
)

// StoreCall is one recorded storage call
type StoreCall struct {
	Op    StoreOp
	Key   storage.Key
	Words int
}

// RecordingStore wraps a Store and records every call in order. Writes and
// reads can be made to fail on demand.
// This is used for testing persistence ordering and write gating.
type RecordingStore struct {
	store    storage.Store
	WriteErr error
	ReadErr  error
	calls    []StoreCall
	mu       sync.Mutex
}

// NewRecordingStore creates a recording store backed by an in-memory store
func NewRecordingStore() *RecordingStore {
	return NewRecordingStoreWith(storage.NewMemory())
}

// NewRecordingStoreWith creates a recording store wrapping store
func NewRecordingStoreWith(store storage.Store) *RecordingStore {
	return &RecordingStore{store: store}
}

func (r *RecordingStore) record(call StoreCall) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

// Read implements storage.Store
func (r *RecordingStore) Read(key storage.Key, out []byte) (int, error) {
	r.record(StoreCall{Op: OpRead, Key: key})
	r.mu.Lock()
	readErr := r.ReadErr
	r.mu.Unlock()
	if readErr != nil {
		return 0, readErr
	}
	return r.store.Read(key, out)
}

// Write implements storage.Store
func (r *RecordingStore) Write(key storage.Key, words int, data []byte) error {
	r.record(StoreCall{Op: OpWrite, Key: key, Words: words})
	r.mu.Lock()
	writeErr := r.WriteErr
	r.mu.Unlock()
	if writeErr != nil {
		return writeErr
	}
	return r.store.Write(key, words, data)
}

// Delete implements storage.Store
func (r *RecordingStore) Delete(key storage.Key) (int, error) {
	r.record(StoreCall{Op: OpDelete, Key: key})
	return r.store.Delete(key)
}

// Exists implements storage.Store
func (r *RecordingStore) Exists(key storage.Key) (bool, error) {
	r.record(StoreCall{Op: OpExists, Key: key})
	return r.store.Exists(key)
}

// SetWriteError makes every following write fail with err (nil restores)
func (r *RecordingStore) SetWriteError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.WriteErr = err
}

// SetReadError makes every following read fail with err (nil restores)
func (r *RecordingStore) SetReadError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ReadErr = err
}

// Calls returns a copy of the recorded calls
func (r *RecordingStore) Calls() []StoreCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]StoreCall(nil), r.calls...)
}

// CallsOf returns the recorded calls of one operation
func (r *RecordingStore) CallsOf(op StoreOp) []StoreCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []StoreCall
	for _, c := range r.calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets the recorded calls
func (r *RecordingStore) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// MockFieldController records every sensing change
type MockFieldController struct {
	History []bool
	mu      sync.Mutex
}

// SetSensing implements FieldController
func (f *MockFieldController) SetSensing(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.History = append(f.History, enabled)
}

// Enabled returns the last sensing state, false if never set
func (f *MockFieldController) Enabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.History) == 0 {
		return false
	}
	return f.History[len(f.History)-1]
}

// MockIndicator records indicator notifications
type MockIndicator struct {
	Slots    []uint8
	Presence []bool
	mu       sync.Mutex
}

// SlotChanged implements Indicator
func (i *MockIndicator) SlotChanged(slot uint8) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.Slots = append(i.Slots, slot)
}

// FieldPresence implements Indicator
func (i *MockIndicator) FieldPresence(on bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.Presence = append(i.Presence, on)
}
