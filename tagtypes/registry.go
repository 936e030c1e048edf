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
	tagemu "github.com/ZaparooProject/go-tagemu"
)

// Set holds one instance of every backend in this package
type Set struct {
	EM410X *EM410X
	Mifare *MifareClassic
	NTAG   *NTAG
}

// NewSet creates a backend set with nothing loaded
func NewSet() *Set {
	return &Set{
		EM410X: NewEM410X(),
		Mifare: NewMifareClassic(),
		NTAG:   NewNTAG(),
	}
}

// Descriptors returns the registry table for the set, LF types first
func (s *Set) Descriptors() []tagemu.Descriptor {
	return []tagemu.Descriptor{
		{Type: tagemu.TagTypeEM410X, Sense: tagemu.SenseLF, Backend: s.EM410X},
		{Type: tagemu.TagTypeMifareMini, Sense: tagemu.SenseHF, Backend: s.Mifare},
		{Type: tagemu.TagTypeMifare1K, Sense: tagemu.SenseHF, Backend: s.Mifare},
		{Type: tagemu.TagTypeMifare2K, Sense: tagemu.SenseHF, Backend: s.Mifare},
		{Type: tagemu.TagTypeMifare4K, Sense: tagemu.SenseHF, Backend: s.Mifare},
		{Type: tagemu.TagTypeNTAG213, Sense: tagemu.SenseHF, Backend: s.NTAG},
		{Type: tagemu.TagTypeNTAG215, Sense: tagemu.SenseHF, Backend: s.NTAG},
		{Type: tagemu.TagTypeNTAG216, Sense: tagemu.SenseHF, Backend: s.NTAG},
	}
}

// Registry builds a tagemu.Registry serving every type of the set
func (s *Set) Registry() (*tagemu.Registry, error) {
	return tagemu.NewRegistry(s.Descriptors()...)
}

// NewRegistry builds a registry over a fresh backend set
func NewRegistry() (*tagemu.Registry, error) {
	return NewSet().Registry()
}
