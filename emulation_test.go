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
	"bytes"
	"errors"
	"testing"

	"github.com/ZaparooProject/go-tagemu/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubBackend is a Backend whose results are set by the test
type stubBackend struct {
	factory   []byte
	loadLen   int
	saveLen   int
	loads     int
	saves     int
	factories int
}

func (b *stubBackend) Load(_ TagType, _ *DataBuffer) int {
	b.loads++
	return b.loadLen
}

func (b *stubBackend) Save(_ TagType, _ *DataBuffer) int {
	b.saves++
	return b.saveLen
}

func (b *stubBackend) Factory(_ uint8, _ TagType, dst []byte) int {
	b.factories++
	if b.factory == nil {
		return 0
	}
	return copy(dst, b.factory)
}

type testEnv struct {
	mgr   *Manager
	store *RecordingStore
	hf    *stubBackend
	lf    *stubBackend
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()

	hf := &stubBackend{
		loadLen: 16,
		saveLen: 16,
		factory: []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F, 0x10},
	}
	lf := &stubBackend{
		loadLen: 8,
		saveLen: 8,
		factory: []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x88, 0x00, 0x00, 0x00},
	}

	registry, err := NewRegistry(
		Descriptor{Type: TagTypeEM410X, Sense: SenseLF, Backend: lf},
		Descriptor{Type: TagTypeMifare1K, Sense: SenseHF, Backend: hf},
		Descriptor{Type: TagTypeNTAG213, Sense: SenseHF, Backend: hf},
	)
	require.NoError(t, err)

	store := NewRecordingStore()
	mgr, err := New(store, registry, opts...)
	require.NoError(t, err)

	return &testEnv{mgr: mgr, store: store, hf: hf, lf: lf}
}

func callIndex(calls []StoreCall, op StoreOp, key storage.Key) int {
	for i, c := range calls {
		if c.Op == op && c.Key == key {
			return i
		}
	}
	return -1
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	registry, err := NewRegistry()
	require.NoError(t, err)

	_, err = New(nil, registry)
	require.Error(t, err)

	_, err = New(storage.NewMemory(), nil)
	require.Error(t, err)

	_, err = New(storage.NewMemory(), registry, WithSlotConfig(SlotConfig{Active: MaxSlots}))
	require.ErrorIs(t, err, ErrInvalidSlot)

	_, err = New(storage.NewMemory(), registry, WithLogger(nil))
	require.Error(t, err)

	mgr, err := New(storage.NewMemory(), registry)
	require.NoError(t, err)
	assert.Equal(t, DefaultSlotConfig(), mgr.SlotConfig())
	assert.Same(t, registry, mgr.Registry())
}

func TestInit_FirstBoot(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	require.NoError(t, env.mgr.Init())
	assert.Equal(t, uint8(0), env.mgr.ActiveSlot())
	assert.Equal(t, DefaultSlotConfig(), env.mgr.SlotConfig())
	assert.Empty(t, env.store.CallsOf(OpWrite))
	assert.Zero(t, env.hf.loads, "no record means no backend load")
}

func TestInit_LoadsPersistedConfigAndActiveData(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	cfg := DefaultSlotConfig()
	cfg.Active = 1
	record, err := cfg.MarshalBinary()
	require.NoError(t, err)
	require.NoError(t, env.store.Write(DefaultKeyMap.ConfigKey(), storage.Words(len(record)), record))

	data := []byte{0xAA, 0xBB, 0xCC, 0xDD, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88, 0x99, 0x00, 0x12, 0x34}
	require.NoError(t, env.store.Write(DefaultKeyMap.SlotKey(1, SenseHF), storage.Words(len(data)), data))

	require.NoError(t, env.mgr.Init())
	assert.Equal(t, uint8(1), env.mgr.ActiveSlot())
	assert.Equal(t, 1, env.hf.loads)
	assert.Equal(t, data, env.mgr.BufferFor(TagTypeMifare1K).Bytes()[:len(data)])

	slot, bound := env.mgr.BufferFor(TagTypeMifare1K).Slot()
	assert.True(t, bound)
	assert.Equal(t, uint8(1), slot)
}

func TestInit_ReportsReadFailure(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.store.SetReadError(errors.New("flash timeout"))

	err := env.mgr.Init()
	require.ErrorIs(t, err, ErrStorageRead)
	assert.Equal(t, DefaultSlotConfig(), env.mgr.SlotConfig())
}

func TestSaveAll_WritesOnlyChanges(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	require.NoError(t, env.mgr.Init())

	require.NoError(t, env.mgr.SaveAll())
	// config, slot 0 HF and slot 0 LF
	assert.Len(t, env.store.CallsOf(OpWrite), 3)

	env.store.Reset()
	require.NoError(t, env.mgr.SaveAll())
	assert.Empty(t, env.store.CallsOf(OpWrite))

	env.mgr.BufferFor(TagTypeEM410X).Bytes()[0] ^= 0xFF
	require.NoError(t, env.mgr.SaveAll())
	writes := env.store.CallsOf(OpWrite)
	require.Len(t, writes, 1)
	assert.Equal(t, DefaultKeyMap.SlotKey(0, SenseLF), writes[0].Key)
}

func TestChangeSlot_SavesBeforeLoading(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	require.NoError(t, env.mgr.Init())
	env.store.Reset()

	copy(env.mgr.BufferFor(TagTypeMifare1K).Bytes(), "outgoing-slot-00")

	require.NoError(t, env.mgr.ChangeSlot(1, false))
	assert.Equal(t, uint8(1), env.mgr.ActiveSlot())

	calls := env.store.Calls()
	saved := callIndex(calls, OpWrite, DefaultKeyMap.SlotKey(0, SenseHF))
	loaded := callIndex(calls, OpRead, DefaultKeyMap.SlotKey(1, SenseHF))
	require.NotEqual(t, -1, saved, "outgoing HF data was not saved")
	require.NotEqual(t, -1, loaded, "incoming HF data was not read")
	assert.Less(t, saved, loaded)
}

func TestChangeSlot_PersistsOutgoingData(t *testing.T) {
	t.Parallel()

	mem := storage.NewMemory()
	hf := &stubBackend{loadLen: 16, saveLen: 16}
	lf := &stubBackend{loadLen: 8, saveLen: 8}
	registry, err := NewRegistry(
		Descriptor{Type: TagTypeMifare1K, Sense: SenseHF, Backend: hf},
		Descriptor{Type: TagTypeEM410X, Sense: SenseLF, Backend: lf},
	)
	require.NoError(t, err)
	mgr, err := New(mem, registry)
	require.NoError(t, err)
	require.NoError(t, mgr.Init())

	copy(mgr.BufferFor(TagTypeMifare1K).Bytes(), "outgoing-slot-00")
	require.NoError(t, mgr.ChangeSlot(1, false))

	record, ok := mem.Record(DefaultKeyMap.SlotKey(0, SenseHF))
	require.True(t, ok)
	assert.Equal(t, []byte("outgoing-slot-00"), record)

	// Coming back restores slot 0 from storage
	copy(mgr.BufferFor(TagTypeMifare1K).Bytes(), "incoming-slot-01")
	require.NoError(t, mgr.ChangeSlot(0, false))
	assert.Equal(t, []byte("outgoing-slot-00"), mgr.BufferFor(TagTypeMifare1K).Bytes()[:16])

	record, ok = mem.Record(DefaultKeyMap.SlotKey(1, SenseHF))
	require.True(t, ok)
	assert.Equal(t, []byte("incoming-slot-01"), record)
}

func TestChangeSlot_AbandonedOnWriteFailure(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	require.NoError(t, env.mgr.Init())
	env.store.Reset()
	env.store.SetWriteError(errors.New("flash full"))

	err := env.mgr.ChangeSlot(2, false)
	require.ErrorIs(t, err, ErrStorageWrite)
	assert.Equal(t, uint8(0), env.mgr.ActiveSlot())
	assert.Empty(t, env.store.CallsOf(OpRead), "no slot was loaded after the failed save")
}

func TestChangeSlot_InvalidIndex(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	err := env.mgr.ChangeSlot(MaxSlots, true)
	require.ErrorIs(t, err, ErrInvalidSlot)
	assert.Empty(t, env.store.Calls())
}

// A transient read error on the incoming slot must not let the outgoing
// slot's image be written over the incoming slot's record.
func TestChangeSlot_ReadFailureKeepsIncomingRecord(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	slot0 := bytes.Repeat([]byte{0xAA}, 16)
	slot1 := bytes.Repeat([]byte{0x11}, 16)
	require.NoError(t, env.store.Write(DefaultKeyMap.SlotKey(0, SenseHF), 4, slot0))
	require.NoError(t, env.store.Write(DefaultKeyMap.SlotKey(1, SenseHF), 4, slot1))
	require.NoError(t, env.mgr.Init())

	env.store.SetReadError(errors.New("transient"))
	err := env.mgr.ChangeSlot(1, true)
	require.ErrorIs(t, err, ErrStorageRead)
	assert.Equal(t, uint8(1), env.mgr.ActiveSlot())

	buf := env.mgr.BufferFor(TagTypeMifare1K)
	assert.True(t, buf.Stale())
	assert.Equal(t, slot0, buf.Bytes()[:16], "buffer content left in place")

	env.store.SetReadError(nil)
	env.store.Reset()
	require.ErrorIs(t, env.mgr.SaveAll(), ErrStaleBuffer)
	assert.Equal(t, -1, callIndex(env.store.Calls(), OpWrite, DefaultKeyMap.SlotKey(1, SenseHF)))

	var record [16]byte
	_, err = env.store.Read(DefaultKeyMap.SlotKey(1, SenseHF), record[:])
	require.NoError(t, err)
	assert.Equal(t, slot1, record[:])

	// A successful reload makes the buffer saveable again
	require.NoError(t, env.mgr.LoadData(1, TagTypeMifare1K))
	assert.False(t, buf.Stale())
	assert.Equal(t, slot1, buf.Bytes()[:16])
	require.NoError(t, env.mgr.SaveAll())
}

func TestChangeSlot_SuspendsAndRearmsSensing(t *testing.T) {
	t.Parallel()
	hf := &MockFieldController{}
	lf := &MockFieldController{}
	ind := &MockIndicator{}
	env := newTestEnv(t, WithFieldControllers(hf, lf), WithIndicator(ind))
	require.NoError(t, env.mgr.Init())
	env.mgr.StartEmulation()
	env.mgr.SetEmulating(true)

	require.NoError(t, env.mgr.ChangeSlot(2, true))

	// start, stop, restart
	assert.Equal(t, []bool{true, false, false}, hf.History)
	assert.Equal(t, []bool{true, false, true}, lf.History)
	assert.False(t, env.mgr.Emulating())
	assert.Equal(t, []uint8{2}, ind.Slots)
	assert.Equal(t, []bool{true, false}, ind.Presence)
}

func TestChangeSlot_WithoutSuspendLeavesSensing(t *testing.T) {
	t.Parallel()
	hf := &MockFieldController{}
	lf := &MockFieldController{}
	env := newTestEnv(t, WithFieldControllers(hf, lf))
	require.NoError(t, env.mgr.Init())

	env.mgr.SetEmulating(true)
	require.NoError(t, env.mgr.ChangeSlot(1, false))
	assert.Empty(t, hf.History)
	assert.Empty(t, lf.History)
	assert.False(t, env.mgr.Emulating())
}

func TestFactoryInit_DefaultConfig(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	require.NoError(t, env.mgr.Init())

	require.NoError(t, env.mgr.FactoryInit())

	writes := env.store.CallsOf(OpWrite)
	keys := make([]storage.Key, 0, len(writes))
	for _, w := range writes {
		keys = append(keys, w.Key)
	}
	assert.ElementsMatch(t, []storage.Key{
		DefaultKeyMap.SlotKey(0, SenseHF),
		DefaultKeyMap.SlotKey(0, SenseLF),
		DefaultKeyMap.SlotKey(1, SenseHF),
		DefaultKeyMap.SlotKey(2, SenseLF),
	}, keys)
	assert.Equal(t, 2, env.hf.factories)
	assert.Equal(t, 2, env.lf.factories)

	// The active slot's factory data is live
	assert.Equal(t, env.hf.factory, env.mgr.BufferFor(TagTypeMifare1K).Bytes()[:16])
	assert.Equal(t, env.lf.factory, env.mgr.BufferFor(TagTypeEM410X).Bytes()[:8])
}

func TestFactoryInit_SecondRunIsNoop(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	require.NoError(t, env.mgr.FactoryInit())
	env.store.Reset()

	require.NoError(t, env.mgr.FactoryInit())
	assert.Empty(t, env.store.CallsOf(OpWrite))
	assert.Equal(t, 2, env.hf.factories)
	assert.Equal(t, 2, env.lf.factories)
}

func TestFactoryInit_DualSlotOnly(t *testing.T) {
	t.Parallel()
	var cfg SlotConfig
	cfg.Slots[0] = SlotDescriptor{Enabled: true, HF: TagTypeMifare1K, LF: TagTypeEM410X}
	env := newTestEnv(t, WithSlotConfig(cfg))

	require.NoError(t, env.mgr.FactoryInit())
	assert.Len(t, env.store.CallsOf(OpWrite), 2)
	assert.Equal(t, 1, env.hf.factories)
	assert.Equal(t, 1, env.lf.factories)
}

func TestFactoryInit_PartialDualSlotUntouched(t *testing.T) {
	t.Parallel()
	var cfg SlotConfig
	cfg.Slots[0] = SlotDescriptor{Enabled: true, HF: TagTypeMifare1K, LF: TagTypeEM410X}
	env := newTestEnv(t, WithSlotConfig(cfg))

	existing := []byte{1, 2, 3, 4}
	require.NoError(t, env.store.Write(DefaultKeyMap.SlotKey(0, SenseHF), 1, existing))
	env.store.Reset()

	require.NoError(t, env.mgr.FactoryInit())
	assert.Empty(t, env.store.CallsOf(OpWrite))
	assert.Zero(t, env.hf.factories)
	assert.Zero(t, env.lf.factories)
}

func TestFactoryInit_SkipsDisabledSlots(t *testing.T) {
	t.Parallel()
	cfg := DefaultSlotConfig()
	cfg.Slots[1].Enabled = false
	cfg.Slots[2].Enabled = false
	env := newTestEnv(t, WithSlotConfig(cfg))

	require.NoError(t, env.mgr.FactoryInit())
	assert.Len(t, env.store.CallsOf(OpWrite), 2)
}

func TestFactoryInit_BackendFailure(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.lf.factory = nil

	err := env.mgr.FactoryInit()
	require.ErrorIs(t, err, ErrFactoryFailed)
	// HF seeding is unaffected
	assert.Equal(t, 2, env.hf.factories)
}
