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

package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	tagemu "github.com/ZaparooProject/go-tagemu"
	"github.com/ZaparooProject/go-tagemu/field"
	"github.com/ZaparooProject/go-tagemu/indicator"
	"github.com/ZaparooProject/go-tagemu/internal/config"
	"github.com/ZaparooProject/go-tagemu/storage"
	"github.com/ZaparooProject/go-tagemu/tagtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/yaml.v3"
)

type testRig struct {
	mgr *tagemu.Manager
	hf  *tagemu.MockFieldController
	lf  *tagemu.MockFieldController
	ind *tagemu.MockIndicator
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()
	registry, err := tagtypes.NewRegistry()
	require.NoError(t, err)

	rig := &testRig{
		hf:  &tagemu.MockFieldController{},
		lf:  &tagemu.MockFieldController{},
		ind: &tagemu.MockIndicator{},
	}
	rig.mgr, err = tagemu.New(storage.NewMemory(), registry,
		tagemu.WithFieldControllers(rig.hf, rig.lf),
		tagemu.WithIndicator(rig.ind),
	)
	require.NoError(t, err)
	require.NoError(t, rig.mgr.Init())
	return rig
}

func TestHandledSignals_Shutdown(t *testing.T) {
	t.Parallel()
	assert.Contains(t, handledSignals, os.Interrupt)
	assert.Equal(t, actionShutdown, actionFor(os.Interrupt))
}

func TestEmulator_Handle(t *testing.T) {
	t.Parallel()
	rig := newTestRig(t)
	em := &emulator{mgr: rig.mgr, logger: zap.NewNop()}

	assert.True(t, em.handle(actionNextSlot))
	assert.Equal(t, uint8(1), rig.mgr.ActiveSlot())

	assert.True(t, em.handle(actionNextSlot))
	assert.Equal(t, uint8(2), rig.mgr.ActiveSlot())

	// Wraps past the disabled slots back to 0
	assert.True(t, em.handle(actionNextSlot))
	assert.Equal(t, uint8(0), rig.mgr.ActiveSlot())

	assert.True(t, em.handle(actionPrevSlot))
	assert.Equal(t, uint8(2), rig.mgr.ActiveSlot())

	assert.True(t, em.handle(actionSave))
	assert.True(t, em.handle(actionNone))
	assert.False(t, em.handle(actionShutdown))

	assert.Contains(t, rig.ind.Slots, uint8(1))
}

func TestEmulator_RunStopsOnCancel(t *testing.T) {
	t.Parallel()
	rig := newTestRig(t)
	em := &emulator{mgr: rig.mgr, logger: zap.NewNop()}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	em.run(ctx, nil, 0)

	require.NotEmpty(t, rig.hf.History)
	assert.True(t, rig.hf.History[0], "emulation armed on start")
	assert.False(t, rig.hf.Enabled())
}

func TestBoot_SurvivesUnknownTagType(t *testing.T) {
	t.Parallel()

	persisted := tagemu.DefaultSlotConfig()
	persisted.Slots[0].HF = tagemu.TagType(1200)
	record, err := persisted.MarshalBinary()
	require.NoError(t, err)
	mem := storage.NewMemory()
	require.NoError(t, mem.Write(tagemu.DefaultKeyMap.ConfigKey(), storage.Words(len(record)), record))

	registry, err := tagtypes.NewRegistry()
	require.NoError(t, err)
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)
	mgr, err := tagemu.New(mem, registry, tagemu.WithLogger(logger))
	require.NoError(t, err)

	cfg, err := config.Load("")
	require.NoError(t, err)
	boot(mgr, cfg, logger)

	assert.Equal(t, tagemu.TagType(1200), mgr.SlotConfig().Slots[0].HF, "persisted table kept")
	assert.Equal(t, 1, logs.FilterMessage("slot initialization incomplete").Len())
	assert.Equal(t, 1, logs.FilterMessage("emulator ready").Len())

	// The emulator stays usable
	em := &emulator{mgr: mgr, logger: logger}
	assert.True(t, em.handle(actionNextSlot))
	assert.Equal(t, uint8(1), mgr.ActiveSlot())
}

func TestDumpConfig(t *testing.T) {
	t.Parallel()
	cfg, err := config.Load("")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, dumpConfig(&buf, cfg, tagemu.DefaultSlotConfig()))

	var out configDump
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out.Slots, tagemu.MaxSlots)
	assert.True(t, out.Slots[0].Active)
	assert.True(t, out.Slots[0].Enabled)
	assert.False(t, out.Slots[3].Enabled)
	assert.Equal(t, config.BackendFile, out.Config.Storage.Backend)
	assert.NotContains(t, buf.String(), "password")
}

func TestBuildLogger(t *testing.T) {
	t.Parallel()

	logger, err := buildLogger(&config.LogConfig{Level: "warn"}, false)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))

	logger, err = buildLogger(&config.LogConfig{Level: "warn"}, true)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	_, err = buildLogger(&config.LogConfig{Level: "loud"}, false)
	require.Error(t, err)
}

func TestOpenStore(t *testing.T) {
	t.Parallel()

	t.Run("memory", func(t *testing.T) {
		t.Parallel()
		store, closer, err := openStore(context.Background(),
			&config.StorageConfig{Backend: config.BackendMemory, Retries: 1}, zap.NewNop())
		require.NoError(t, err)
		assert.Nil(t, closer)
		assert.IsType(t, &storage.RetryingStore{}, store)
	})

	t.Run("file", func(t *testing.T) {
		t.Parallel()
		store, closer, err := openStore(context.Background(),
			&config.StorageConfig{Backend: config.BackendFile, Dir: t.TempDir()}, zap.NewNop())
		require.NoError(t, err)
		require.NotNil(t, closer)
		defer func() { _ = closer.Close() }()

		key := storage.Key{FileID: 0x1000, RecordKey: 1}
		require.NoError(t, store.Write(key, 1, []byte{1, 2, 3, 4}))
		exists, err := store.Exists(key)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("unknown", func(t *testing.T) {
		t.Parallel()
		_, _, err := openStore(context.Background(),
			&config.StorageConfig{Backend: "tape"}, zap.NewNop())
		require.ErrorIs(t, err, config.ErrInvalidConfig)
	})
}

func TestBuildFieldAndIndicator_LogFallback(t *testing.T) {
	t.Parallel()

	ctrl, err := buildFieldController("hf", "", false, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &field.Log{}, ctrl)

	ind, closer, err := buildIndicator(&config.IndicatorConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, closer)
	assert.IsType(t, &indicator.Log{}, ind)
}

type orderCloser struct {
	err   error
	order *[]int
	id    int
}

func (c orderCloser) Close() error {
	*c.order = append(*c.order, c.id)
	return c.err
}

func TestClosers_ReverseOrder(t *testing.T) {
	t.Parallel()
	var order []int
	boom := errors.New("boom")

	var res closers
	res.add(orderCloser{id: 1, order: &order})
	res.add(orderCloser{id: 2, order: &order, err: boom})

	require.ErrorIs(t, res.Close(), boom)
	assert.Equal(t, []int{2, 1}, order)
}
