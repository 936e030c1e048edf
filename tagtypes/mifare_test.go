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
	"testing"

	tagemu "github.com/ZaparooProject/go-tagemu"
	testutil "github.com/ZaparooProject/go-tagemu/internal/testing"
	"github.com/ZaparooProject/go-tagemu/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMifareGeometry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		t      tagemu.TagType
		size   int
		blocks int
	}{
		{name: "Mini", t: tagemu.TagTypeMifareMini, size: 320, blocks: 20},
		{name: "1K", t: tagemu.TagTypeMifare1K, size: 1024, blocks: 64},
		{name: "2K", t: tagemu.TagTypeMifare2K, size: 2048, blocks: 128},
		{name: "4K", t: tagemu.TagTypeMifare4K, size: 4096, blocks: 256},
		{name: "not MIFARE", t: tagemu.TagTypeNTAG213, size: 0, blocks: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.size, MifareSize(tt.t))
			assert.Equal(t, tt.blocks, MifareBlockCount(tt.t))
			assert.LessOrEqual(t, tt.size, tagemu.HFBufferSize)
		})
	}
}

func TestIsSectorTrailer(t *testing.T) {
	t.Parallel()

	for _, block := range []int{3, 7, 63, 127, 143, 255} {
		assert.True(t, IsSectorTrailer(block), "block %d", block)
	}
	for _, block := range []int{0, 4, 62, 128, 131, 142, 254} {
		assert.False(t, IsSectorTrailer(block), "block %d", block)
	}
}

func TestMifareFactory_MatchesReferenceImage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ref  *testutil.VirtualTag
		name string
		t    tagemu.TagType
	}{
		{name: "1K", t: tagemu.TagTypeMifare1K, ref: testutil.NewVirtualMIFARE1K(DefaultMifareUID[:])},
		{name: "4K", t: tagemu.TagTypeMifare4K, ref: testutil.NewVirtualMIFARE4K(DefaultMifareUID[:])},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dst := make([]byte, tagemu.HFBufferSize)
			n := NewMifareClassic().Factory(0, tt.t, dst)
			require.Equal(t, MifareSize(tt.t), n)
			assert.Equal(t, tt.ref.Image(), dst[:n])
		})
	}
}

func TestMifareFactory_Mini(t *testing.T) {
	t.Parallel()
	dst := make([]byte, 320)

	n := NewMifareClassic().Factory(3, tagemu.TagTypeMifareMini, dst)
	require.Equal(t, 320, n)
	assert.Equal(t, byte(0x09), dst[5], "SAK")
	for block := 3; block < 20; block += 4 {
		assert.Equal(t, DefaultSectorTrailer[:], dst[block*MifareBlockSize:(block+1)*MifareBlockSize])
	}

	assert.Zero(t, NewMifareClassic().Factory(0, tagemu.TagTypeMifare1K, dst), "too small")
}

func TestMifare_PersistsInPlaceEdits(t *testing.T) {
	t.Parallel()
	mgr, set, store := newTestManager(t)

	require.NoError(t, mgr.FactoryData(0, tagemu.TagTypeMifare1K))
	assert.Equal(t, tagemu.TagTypeMifare1K, set.Mifare.Loaded())
	assert.Equal(t, DefaultMifareUID, set.Mifare.UID())

	// The reader writes block 4 through the protocol engine
	buf := mgr.BufferFor(tagemu.TagTypeMifare1K)
	block := buf.Bytes()[4*MifareBlockSize : 5*MifareBlockSize]
	copy(block, "written by PCD!!")
	require.NoError(t, mgr.SaveData(0, tagemu.TagTypeMifare1K))

	record, ok := store.Record(tagemu.DefaultKeyMap.SlotKey(0, tagemu.SenseHF))
	require.True(t, ok)
	require.Len(t, record, 1024)
	assert.Equal(t, []byte("written by PCD!!"), record[4*MifareBlockSize:5*MifareBlockSize])
}

func TestMifare_SaveRequiresMatchingLoad(t *testing.T) {
	t.Parallel()
	mgr, set, store := newTestManager(t)

	require.NoError(t, mgr.FactoryData(1, tagemu.TagTypeMifare1K))
	assert.Equal(t, tagemu.TagTypeNone, set.Mifare.Loaded(), "inactive slot is not loaded")

	require.NoError(t, mgr.SaveData(0, tagemu.TagTypeMifare4K))
	assert.Equal(t, 1, store.Len())
}

func TestMifare_LoadsClonedCard(t *testing.T) {
	t.Parallel()
	mgr, set, store := newTestManager(t)

	card := testutil.NewVirtualMIFARE1K(testutil.TestMIFARE1KUID)
	require.NoError(t, card.WriteBlock(4, []byte("cloned sector 1!")))
	require.Error(t, card.WriteBlock(0, make([]byte, MifareBlockSize)), "manufacturer block")
	require.Error(t, card.WriteBlock(7, make([]byte, MifareBlockSize)), "sector trailer")

	img := card.Image()
	key := tagemu.DefaultKeyMap.SlotKey(0, tagemu.SenseHF)
	require.NoError(t, store.Write(key, storage.Words(len(img)), img))

	require.NoError(t, mgr.LoadData(0, tagemu.TagTypeMifare1K))
	assert.Equal(t, tagemu.TagTypeMifare1K, set.Mifare.Loaded())
	uid := set.Mifare.UID()
	assert.Equal(t, testutil.TestMIFARE1KUID, uid[:])

	buf := mgr.BufferFor(tagemu.TagTypeMifare1K)
	for _, block := range []int{0, 4, 7} {
		want, err := card.ReadBlock(block)
		require.NoError(t, err)
		assert.Equal(t, want, buf.Bytes()[block*MifareBlockSize:(block+1)*MifareBlockSize], "block %d", block)
	}

	_, err := card.ReadBlock(64)
	require.Error(t, err)
}
