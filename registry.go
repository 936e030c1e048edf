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

import "fmt"

// Backend is implemented by every concrete tag emulation. One backend may
// serve several tag types of the same family.
type Backend interface {
	// Load lets the backend derive its working state from the raw bytes
	// just read into buf. It returns the number of bytes that make up the
	// record, or a non-positive value if the data could not be used.
	Load(t TagType, buf *DataBuffer) int

	// Save serializes the backend working state into buf and returns the
	// number of bytes to persist. A non-positive value means there is
	// nothing to persist.
	Save(t TagType, buf *DataBuffer) int

	// Factory writes the canonical default content for t into dst and
	// returns its length. A non-positive value reports failure.
	Factory(slot uint8, t TagType, dst []byte) int
}

// Descriptor binds a concrete tag type to its sense category and backend
type Descriptor struct {
	Backend Backend
	Type    TagType
	Sense   SenseType
}

// Registry is the read-only tag type table. It is resolved once at
// construction; lookups never allocate.
type Registry struct {
	byType map[TagType]Descriptor
	order  []TagType
}

// NewRegistry builds a registry from an ordered list of descriptors
func NewRegistry(descs ...Descriptor) (*Registry, error) {
	r := &Registry{
		byType: make(map[TagType]Descriptor, len(descs)),
		order:  make([]TagType, 0, len(descs)),
	}
	for _, d := range descs {
		if d.Type == TagTypeNone {
			return nil, fmt.Errorf("%w: cannot register %s", ErrUnknownTagType, d.Type)
		}
		if d.Sense != SenseLF && d.Sense != SenseHF {
			return nil, fmt.Errorf("%w: %s registered with sense %s", ErrInvalidSense, d.Type, d.Sense)
		}
		if d.Backend == nil {
			return nil, fmt.Errorf("%w: %s", ErrNilBackend, d.Type)
		}
		if _, dup := r.byType[d.Type]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateType, d.Type)
		}
		r.byType[d.Type] = d
		r.order = append(r.order, d.Type)
	}
	return r, nil
}

// Descriptor returns the registered descriptor for t
func (r *Registry) Descriptor(t TagType) (Descriptor, bool) {
	d, ok := r.byType[t]
	return d, ok
}

// SenseOf returns the sense category of t, or SenseNone for the sentinel
// and for unregistered types.
func (r *Registry) SenseOf(t TagType) SenseType {
	if d, ok := r.byType[t]; ok {
		return d.Sense
	}
	return SenseNone
}

// Backend returns the backend serving t
func (r *Registry) Backend(t TagType) (Backend, bool) {
	d, ok := r.byType[t]
	if !ok {
		return nil, false
	}
	return d.Backend, true
}

// Types returns the registered tag types in registration order
func (r *Registry) Types() []TagType {
	return append([]TagType(nil), r.order...)
}
