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

// Package storetest holds the behavior every storage.Store implementation
// must share.
package storetest

import (
	"testing"

	"github.com/ZaparooProject/go-tagemu/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Contract exercises store against the storage.Store contract. The store
// must start empty.
func Contract(t *testing.T, store storage.Store) {
	t.Helper()
	key := storage.Key{FileID: 0x1001, RecordKey: 1}
	other := storage.Key{FileID: 0x1001, RecordKey: 2}

	exists, err := store.Exists(key)
	require.NoError(t, err)
	assert.False(t, exists)

	out := make([]byte, 12)
	_, err = store.Read(key, out)
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.Write(key, storage.Words(5), []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x88}))

	exists, err = store.Exists(key)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.Exists(other)
	require.NoError(t, err)
	assert.False(t, exists, "records are addressed by the full key")

	n, err := store.Read(key, out)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x88, 0, 0, 0}, out[:n])

	short := make([]byte, 3)
	n, err = store.Read(key, short)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE}, short)

	// Overwrite with a shorter record
	require.NoError(t, store.Write(key, 1, []byte{1, 2, 3, 4, 5, 6}))
	n, err = store.Read(key, out)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, out[:n])

	removed, err := store.Delete(key)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	removed, err = store.Delete(key)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	_, err = store.Read(key, out)
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.ErrorIs(t, store.Write(key, 0, nil), storage.ErrInvalidWrite)
}
