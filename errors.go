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

import "errors"

// Emulation errors
var (
	// ErrRecordNotFound means no persisted record exists yet. It is the
	// expected outcome on first use and callers should carry on with what
	// is already in RAM.
	ErrRecordNotFound = errors.New("tag slot record not found")

	ErrUnknownTagType = errors.New("unknown tag type")
	ErrNoBuffer       = errors.New("no data buffer for tag type")
	ErrSaveOverflow   = errors.New("tag data save length overflow")
	ErrBufferBinding  = errors.New("data buffer bound to another slot")
	ErrInvalidSlot    = errors.New("invalid slot index")
	ErrInvalidSense   = errors.New("invalid sense type")
	ErrFactoryFailed  = errors.New("factory data generation failed")
	ErrStorageRead    = errors.New("storage read failed")
	ErrStorageWrite   = errors.New("storage write failed")
	ErrStorageDelete  = errors.New("storage delete failed")
	ErrInvalidConfig  = errors.New("invalid slot configuration record")
	ErrDuplicateType  = errors.New("tag type registered twice")
	ErrNilBackend     = errors.New("nil tag backend")
)

// ErrStaleBuffer refuses a save after the buffer's slot could not be read;
// writing would put other data over an intact record.
var ErrStaleBuffer = errors.New("data buffer not loaded from its slot")
