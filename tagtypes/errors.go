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

import "errors"

// Backend errors
var (
	ErrInvalidFrame   = errors.New("invalid EM410X frame")
	ErrUnsupportedTag = errors.New("tag type not served by this backend")
	ErrNoNDEF         = errors.New("no NDEF message TLV found")
	ErrNDEFTooLarge   = errors.New("NDEF message does not fit user memory")
	ErrImageTooShort  = errors.New("tag image too short")
)
