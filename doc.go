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

/*
Package tagemu manages the card slots of a dual-frequency NFC/RFID tag
emulator.

An emulator holds a small number of card slots. Each slot may carry one
13.56 MHz (HF) tag type and one 125 kHz (LF) tag type. Exactly one slot is
active at a time and its data lives in two shared RAM buffers, one per
frequency, while the data of every other slot stays in persistent storage.

The Manager moves data between those buffers and a record-oriented
storage.Store, dispatches to the Backend registered for each tag type, and
arms or disarms field sensing so that no reader ever sees a half-switched
slot.

Features:
  - Fixed table of eight slots with enable flags and circular navigation
  - Checksum-gated persistence: unchanged data is never rewritten
  - Pluggable tag backends resolved through a read-only Registry
  - Factory seeding of the default slots on first boot
  - Field sensing control through FieldController implementations

Basic Usage:

	import (
		"github.com/ZaparooProject/go-tagemu"
		"github.com/ZaparooProject/go-tagemu/storage"
		"github.com/ZaparooProject/go-tagemu/tagtypes"
	)

	registry, err := tagtypes.NewRegistry()
	if err != nil {
		log.Fatal(err)
	}

	mgr, err := tagemu.New(storage.NewMemory(), registry)
	if err != nil {
		log.Fatal(err)
	}

	_ = mgr.Init()
	_ = mgr.FactoryInit()
	mgr.StartEmulation()

	// Switch to the next enabled slot
	next := mgr.FindNextSlot(mgr.ActiveSlot())
	if err := mgr.ChangeSlot(next, true); err != nil {
		log.Printf("slot change: %v", err)
	}

	// Flush everything before power-down
	_ = mgr.SaveAll()

Thread Safety:

A Manager is NOT thread-safe. It is designed to be driven from a single
event loop that also delivers field and button events. Stop sensing before
touching the active slot's data from outside a field handler.

Storage:

The storage package defines the record store contract and an in-memory
implementation. The filestore and redisstore subpackages persist records
to a directory or to a Redis server. Wrap any of them with
storage.NewRetryingStore to retry transient failures.
*/
package tagemu
