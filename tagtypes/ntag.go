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
	"fmt"
	"strings"

	tagemu "github.com/ZaparooProject/go-tagemu"
	ndef "github.com/hsanjuan/go-ndef"
)

// NTAG21x memory geometry
const (
	NTAGPageSize       = 4
	ntagUserStartPage  = 4
	ntagConfigPages    = 5 // dynamic lock, CFG0, CFG1, PWD, PACK
	ntagUIDSize        = 7
	ntagCascadeTag     = 0x88
	ntagCCMagic        = 0xE1
	ntagCCVersion      = 0x10
	ntagInternalByte   = 0x48
	ndefTLVNull        = 0x00
	ndefTLVMessage     = 0x03
	ndefTLVTerminator  = 0xFE
	ndefTLVLongLength  = 0xFF
	ndefShortLengthMax = 0xFE
)

// DefaultNTAGUID is the 7-byte UID written by a factory reset
var DefaultNTAGUID = [ntagUIDSize]byte{0x04, 0x68, 0x95, 0x71, 0xFA, 0x5C, 0x64}

type ntagGeometry struct {
	pages  int
	ccSize byte // data area size in 8-byte units, as stored in CC byte 2
	mirror byte // CFG0 byte 0 default
}

var ntagGeometries = map[tagemu.TagType]ntagGeometry{
	tagemu.TagTypeNTAG213: {pages: 45, ccSize: 0x12, mirror: 0x04},
	tagemu.TagTypeNTAG215: {pages: 135, ccSize: 0x3E, mirror: 0x04},
	tagemu.TagTypeNTAG216: {pages: 231, ccSize: 0x6D, mirror: 0x04},
}

// NTAGSize returns the memory size in bytes of an NTAG21x type, or 0 when
// t is not one.
func NTAGSize(t tagemu.TagType) int {
	return ntagGeometries[t].pages * NTAGPageSize
}

// NTAGUserSize returns the size of the user memory of t in bytes
func NTAGUserSize(t tagemu.TagType) int {
	geo, ok := ntagGeometries[t]
	if !ok {
		return 0
	}
	return (geo.pages - ntagUserStartPage - ntagConfigPages) * NTAGPageSize
}

// NTAG emulates NXP NTAG213/215/216 tags. Like MifareClassic the page
// image lives in the buffer and is accessed in place.
type NTAG struct {
	// FactoryText is the text record written on factory reset. It may
	// contain one %d verb which receives the 1-based slot number.
	FactoryText string
	loaded      tagemu.TagType
}

// NewNTAG creates an NTAG backend with no tag loaded
func NewNTAG() *NTAG {
	return &NTAG{FactoryText: "Slot %d"}
}

// Load implements tagemu.Backend
func (n *NTAG) Load(t tagemu.TagType, buf *tagemu.DataBuffer) int {
	size := NTAGSize(t)
	if size == 0 || size > buf.Cap() {
		return 0
	}
	n.loaded = t
	return size
}

// Save implements tagemu.Backend
func (n *NTAG) Save(t tagemu.TagType, buf *tagemu.DataBuffer) int {
	size := NTAGSize(t)
	if n.loaded != t || size > buf.Cap() {
		return 0
	}
	return size
}

// Factory implements tagemu.Backend. The image gets the default UID with
// both check bytes, a capability container sized for t and a single NDEF
// text record in user memory.
func (n *NTAG) Factory(slot uint8, t tagemu.TagType, dst []byte) int {
	geo, ok := ntagGeometries[t]
	size := geo.pages * NTAGPageSize
	if !ok || len(dst) < size {
		return 0
	}
	img := dst[:size]
	clear(img)

	uid := DefaultNTAGUID
	copy(img[0:3], uid[0:3])
	img[3] = ntagCascadeTag ^ bcc(uid[0:3])
	copy(img[4:8], uid[3:7])
	img[8] = bcc(uid[3:7])
	img[9] = ntagInternalByte

	img[12] = ntagCCMagic
	img[13] = ntagCCVersion
	img[14] = geo.ccSize

	text := n.FactoryText
	if strings.Contains(text, "%d") {
		text = fmt.Sprintf(text, slot+1)
	}
	if err := WriteNDEF(t, img, ndef.NewTextMessage(text, "en")); err != nil {
		return 0
	}

	cfg := img[(geo.pages-ntagConfigPages)*NTAGPageSize:]
	cfg[3] = 0xBD // dynamic lock RFUI
	cfg[4] = geo.mirror
	cfg[7] = 0xFF // AUTH0: protection disabled
	cfg[9] = 0x05 // CFG1 RFUI
	copy(cfg[12:16], []byte{0xFF, 0xFF, 0xFF, 0xFF})
	return size
}

// Loaded returns the type of the loaded tag, TagTypeNone if none
func (n *NTAG) Loaded() tagemu.TagType {
	return n.loaded
}

// UID extracts the 7-byte UID from an NTAG image
func UID(img []byte) ([ntagUIDSize]byte, error) {
	var uid [ntagUIDSize]byte
	if len(img) < 2*NTAGPageSize {
		return uid, ErrImageTooShort
	}
	copy(uid[0:3], img[0:3])
	copy(uid[3:7], img[4:8])
	return uid, nil
}

// WriteNDEF encodes msg as an NDEF message TLV at the start of the user
// memory of img, followed by a terminator TLV.
func WriteNDEF(t tagemu.TagType, img []byte, msg *ndef.Message) error {
	user, err := userMemory(t, img)
	if err != nil {
		return err
	}
	payload, err := msg.Marshal()
	if err != nil {
		return fmt.Errorf("encode NDEF: %w", err)
	}

	var tlv []byte
	if len(payload) < ndefShortLengthMax {
		tlv = append(tlv, ndefTLVMessage, byte(len(payload)))
	} else {
		tlv = append(tlv, ndefTLVMessage, ndefTLVLongLength, byte(len(payload)>>8), byte(len(payload)))
	}
	tlv = append(tlv, payload...)
	tlv = append(tlv, ndefTLVTerminator)

	if len(tlv) > len(user) {
		return fmt.Errorf("%w: %d bytes, %d available", ErrNDEFTooLarge, len(tlv), len(user))
	}
	clear(user)
	copy(user, tlv)
	return nil
}

// ReadNDEF decodes the first NDEF message TLV in the user memory of img
func ReadNDEF(t tagemu.TagType, img []byte) (*ndef.Message, error) {
	user, err := userMemory(t, img)
	if err != nil {
		return nil, err
	}

	for i := 0; i < len(user); {
		tag := user[i]
		switch tag {
		case ndefTLVNull:
			i++
			continue
		case ndefTLVTerminator:
			return nil, ErrNoNDEF
		}

		if i+1 >= len(user) {
			break
		}
		length := int(user[i+1])
		header := 2
		if user[i+1] == ndefTLVLongLength {
			if i+3 >= len(user) {
				break
			}
			length = int(user[i+2])<<8 | int(user[i+3])
			header = 4
		}
		start := i + header
		if start+length > len(user) {
			return nil, fmt.Errorf("%w: TLV length %d overruns user memory", ErrNoNDEF, length)
		}
		if tag == ndefTLVMessage {
			msg := &ndef.Message{}
			if _, err := msg.Unmarshal(user[start : start+length]); err != nil {
				return nil, fmt.Errorf("decode NDEF: %w", err)
			}
			return msg, nil
		}
		i = start + length
	}
	return nil, ErrNoNDEF
}

// Text returns the text of the first record of the NDEF message in img
func Text(t tagemu.TagType, img []byte) (string, error) {
	msg, err := ReadNDEF(t, img)
	if err != nil {
		return "", err
	}
	if len(msg.Records) == 0 {
		return "", ErrNoNDEF
	}
	payload, err := msg.Records[0].Payload()
	if err != nil {
		return "", fmt.Errorf("decode NDEF record: %w", err)
	}
	return payload.String(), nil
}

func userMemory(t tagemu.TagType, img []byte) ([]byte, error) {
	size := NTAGSize(t)
	if size == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTag, t)
	}
	if len(img) < size {
		return nil, fmt.Errorf("%w: %d bytes, want %d", ErrImageTooShort, len(img), size)
	}
	start := ntagUserStartPage * NTAGPageSize
	return img[start : start+NTAGUserSize(t)], nil
}
