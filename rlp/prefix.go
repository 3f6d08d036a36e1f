// Copyright 2022 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package rlp

import (
	"math"
	"math/bits"
)

// Header family boundaries.
const (
	shortStringOffset = 0x80 // 0x80..0xB7: string of 0..55 bytes
	longStringOffset  = 0xB7 // 0xB8..0xBF: string, length-of-length 1..8
	shortListOffset   = 0xC0 // 0xC0..0xF7: list payload of 0..55 bytes
	longListOffset    = 0xF7 // 0xF8..0xFF: list, length-of-length 1..8

	maxShortSize = 55
)

// MaxPayloadSize is the largest payload length a header may declare. Longer
// payloads could never be held in a Go slice, so they are rejected instead of
// attempting an allocation.
const MaxPayloadSize = math.MaxInt64

// Kind represents the kind of value contained in an RLP stream.
type Kind int8

const (
	Byte Kind = iota
	String
	List
)

func (k Kind) String() string {
	switch k {
	case Byte:
		return "Byte"
	case String:
		return "String"
	case List:
		return "List"
	default:
		return "Unknown"
	}
}

// Family is the header family selected by the first byte of an encoding.
type Family uint8

const (
	SingleByte  Family = iota // [0x00, 0x7F]
	ShortString               // [0x80, 0xB7]
	LongString                // [0xB8, 0xBF]
	ShortList                 // [0xC0, 0xF7]
	LongList                  // [0xF8, 0xFF]
)

var familyNames = [...]string{"SingleByte", "ShortString", "LongString", "ShortList", "LongList"}

func (f Family) String() string {
	if int(f) < len(familyNames) {
		return familyNames[f]
	}
	return "Unknown"
}

// Kind returns the value kind of the family.
func (f Family) Kind() Kind {
	switch f {
	case SingleByte:
		return Byte
	case ShortString, LongString:
		return String
	default:
		return List
	}
}

// Long reports whether the family carries a length-of-length field.
func (f Family) Long() bool { return f == LongString || f == LongList }

// Prefix is the classification of a first byte. For short families Size is
// the payload length; for long families it is the length of the length field.
// For SingleByte, Size is 1.
type Prefix struct {
	Family Family
	Size   int
}

// Classify determines which header family the first byte b belongs to.
func Classify(b byte) Prefix {
	switch {
	case b < shortStringOffset:
		return Prefix{SingleByte, 1}
	case b <= longStringOffset:
		return Prefix{ShortString, int(b - shortStringOffset)}
	case b < shortListOffset:
		return Prefix{LongString, int(b - longStringOffset)}
	case b <= longListOffset:
		return Prefix{ShortList, int(b - shortListOffset)}
	default:
		return Prefix{LongList, int(b - longListOffset)}
	}
}

// ByteLength returns the number of bytes in the minimal big-endian
// representation of n. ByteLength(0) is 0.
func ByteLength(n uint64) int {
	return (bits.Len64(n) + 7) / 8
}

// HeaderSize returns the size of a string or list header declaring a
// payload of the given length. Single bytes below 0x80 are not covered.
func HeaderSize(length uint64) int {
	if length <= maxShortSize {
		return 1
	}
	return 1 + ByteLength(length)
}

// ListSize returns the encoded size of an RLP list with the given
// content size.
func ListSize(contentSize uint64) uint64 {
	return uint64(HeaderSize(contentSize)) + contentSize
}

// IntSize returns the encoded size of the integer x.
func IntSize(x uint64) int {
	if x < 0x80 && x != 0 {
		return 1
	}
	return 1 + ByteLength(x)
}

// HeaderFor returns the canonical header for a payload of the given length.
// Single-byte self-encoding is not a header matter and is handled by the
// writers.
func HeaderFor(length uint64, isList bool) ([]byte, error) {
	return AppendHeader(make([]byte, 0, 9), length, isList)
}

// AppendHeader appends the canonical header for a payload of the given
// length to dst.
func AppendHeader(dst []byte, length uint64, isList bool) ([]byte, error) {
	if length > MaxPayloadSize {
		return dst, ErrPayloadTooLarge
	}
	short, long := byte(shortStringOffset), byte(longStringOffset)
	if isList {
		short, long = shortListOffset, longListOffset
	}
	if length <= maxShortSize {
		return append(dst, short+byte(length)), nil
	}
	n := ByteLength(length)
	dst = append(dst, long+byte(n))
	for i := n - 1; i >= 0; i-- {
		dst = append(dst, byte(length>>(8*uint(i))))
	}
	return dst, nil
}
