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
	"context"
	"errors"
	"os"
	"time"

	tagemu "github.com/ZaparooProject/go-tagemu"
	"go.uber.org/zap"
)

type action int

const (
	actionNone action = iota
	actionNextSlot
	actionPrevSlot
	actionSave
	actionShutdown
)

func (a action) String() string {
	switch a {
	case actionNextSlot:
		return "next-slot"
	case actionPrevSlot:
		return "prev-slot"
	case actionSave:
		return "save"
	case actionShutdown:
		return "shutdown"
	default:
		return "none"
	}
}

// emulator drives a Manager from a single goroutine. Manager is not
// thread-safe, so every call goes through handle.
type emulator struct {
	mgr    *tagemu.Manager
	logger *zap.Logger
}

// handle applies a and reports whether the loop should keep running
func (e *emulator) handle(a action) bool {
	switch a {
	case actionNextSlot, actionPrevSlot:
		cur := e.mgr.ActiveSlot()
		next := e.mgr.FindNextSlot(cur)
		if a == actionPrevSlot {
			next = e.mgr.FindPrevSlot(cur)
		}
		if next == cur {
			e.logger.Debug("no other enabled slot", zap.Uint8("slot", cur))
			return true
		}
		if err := e.mgr.ChangeSlot(next, true); err != nil {
			e.logger.Error("slot change failed",
				zap.Uint8("from", cur), zap.Uint8("to", next), zap.Error(err))
		}
	case actionSave:
		e.save()
	case actionShutdown:
		return false
	case actionNone:
	}
	return true
}

func (e *emulator) save() {
	if err := e.mgr.SaveAll(); err != nil {
		e.logger.Error("save failed", zap.Error(err))
	}
}

// run processes signals until shutdown or ctx is cancelled, then stops
// emulation and flushes everything once more
func (e *emulator) run(ctx context.Context, signals <-chan os.Signal, saveInterval time.Duration) {
	var tick <-chan time.Time
	if saveInterval > 0 {
		ticker := time.NewTicker(saveInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	e.mgr.StartEmulation()
	defer func() {
		e.mgr.StopEmulation()
		e.save()
	}()

	for {
		select {
		case <-ctx.Done():
			if !errors.Is(ctx.Err(), context.Canceled) {
				e.logger.Warn("context ended", zap.Error(ctx.Err()))
			}
			return
		case sig := <-signals:
			a := actionFor(sig)
			e.logger.Debug("signal received", zap.Stringer("signal", sig), zap.Stringer("action", a))
			if !e.handle(a) {
				e.logger.Info("shutting down")
				return
			}
		case <-tick:
			e.save()
		}
	}
}
