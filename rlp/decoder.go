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
	"io"
	"math/big"

	"github.com/holiman/uint256"
)

// Decoder is a read cursor over an immutable buffer. It is a plain value:
// List returns a new Decoder scoped to the list payload, and copying a
// Decoder yields an independent cursor over the same bytes. Decoding never
// modifies the buffer, so any number of Decoders may read it concurrently.
//
// Payload bytes are only copied by Bytes, String and the big scalar readers;
// skipping an item costs only its header parse.
//
// On error the cursor does not move.
type Decoder struct {
	buf    []byte
	pos    int  // offset of the next item
	end    int  // end of the readable window
	inList bool // window is a list payload
}

// NewDecoder returns a cursor over the top-level items of b.
func NewDecoder(b []byte) Decoder {
	return Decoder{buf: b, end: len(b)}
}

// Offset returns the position of the next item within the underlying buffer.
func (d *Decoder) Offset() int { return d.pos }

// Remaining returns the number of unread bytes in the window.
func (d *Decoder) Remaining() int { return d.end - d.pos }

// More reports whether there are unread items in the window.
func (d *Decoder) More() bool { return d.pos < d.end }

// header parses the header at the cursor and returns the value kind, the
// header size and the payload size. For Byte values the header size is 0 and
// the payload is the byte itself.
func (d *Decoder) header() (k Kind, hsize, csize int, err error) {
	if d.pos >= d.end {
		if d.inList {
			return 0, 0, 0, decodeErr(d.pos, ErrListBoundsExceeded)
		}
		return 0, 0, 0, io.EOF
	}
	var size uint64
	p := Classify(d.buf[d.pos])
	switch p.Family {
	case SingleByte:
		return Byte, 0, 1, nil
	case ShortString, ShortList:
		hsize, size = 1, uint64(p.Size)
	default:
		hsize = 1 + p.Size
		if err := d.within(d.pos + hsize); err != nil {
			return 0, 0, 0, err
		}
		lb := d.buf[d.pos+1 : d.pos+hsize]
		// 长度字段不能有前导零，也不能编码短格式可表示的长度
		if lb[0] == 0 {
			return 0, 0, 0, decodeErr(d.pos, ErrNonCanonicalLength)
		}
		for _, b := range lb {
			size = size<<8 | uint64(b)
		}
		if size <= maxShortSize {
			return 0, 0, 0, decodeErr(d.pos, ErrNonCanonicalLength)
		}
	}
	if size > uint64(len(d.buf)-d.pos-hsize) {
		return 0, 0, 0, decodeErr(d.pos, ErrBufferUnderflow)
	}
	if size > uint64(d.end-d.pos-hsize) {
		return 0, 0, 0, decodeErr(d.pos, ErrListBoundsExceeded)
	}
	if p.Family == ShortString && size == 1 && d.buf[d.pos+1] < 0x80 {
		return 0, 0, 0, decodeErr(d.pos, ErrNonCanonicalLength)
	}
	return p.Family.Kind(), hsize, int(size), nil
}

// within checks that offset end lies inside both the buffer and the window.
func (d *Decoder) within(end int) error {
	if end > len(d.buf) {
		return decodeErr(d.pos, ErrBufferUnderflow)
	}
	if end > d.end {
		return decodeErr(d.pos, ErrListBoundsExceeded)
	}
	return nil
}

// Kind classifies the next item without consuming it. Single bytes are
// reported as String.
func (d *Decoder) Kind() (Kind, error) {
	k, _, _, err := d.header()
	if err != nil {
		return 0, err
	}
	if k == Byte {
		return String, nil
	}
	return k, nil
}

// BytesView reads a byte string and returns its payload without copying. The
// returned slice aliases the input buffer.
func (d *Decoder) BytesView() ([]byte, error) {
	k, h, c, err := d.header()
	if err != nil {
		return nil, err
	}
	if k == List {
		return nil, decodeErr(d.pos, ErrExpectedString)
	}
	b := d.buf[d.pos+h : d.pos+h+c : d.pos+h+c]
	d.pos += h + c
	return b, nil
}

// Bytes reads a byte string and returns a copy of its payload.
func (d *Decoder) Bytes() ([]byte, error) {
	b, err := d.BytesView()
	if err != nil {
		return nil, err
	}
	return append([]byte{}, b...), nil
}

// String reads a byte string as a Go string.
func (d *Decoder) String() (string, error) {
	b, err := d.BytesView()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadBytes reads a byte string whose payload must have exactly len(dst)
// bytes into dst.
func (d *Decoder) ReadBytes(dst []byte) error {
	start := *d
	b, err := d.BytesView()
	if err != nil {
		return err
	}
	if len(b) != len(dst) {
		*d = start
		if len(b) < len(dst) {
			return decodeErr(d.pos, errTooShort)
		}
		return decodeErr(d.pos, errTooLong)
	}
	copy(dst, b)
	return nil
}

// scalar reads a byte string holding a minimal big-endian integer of at most
// maxBytes bytes (no limit if maxBytes is 0).
func (d *Decoder) scalar(maxBytes int) ([]byte, error) {
	k, h, c, err := d.header()
	if err != nil {
		return nil, err
	}
	if k == List {
		return nil, decodeErr(d.pos, ErrExpectedString)
	}
	b := d.buf[d.pos+h : d.pos+h+c]
	if len(b) > 0 && b[0] == 0 {
		return nil, decodeErr(d.pos, ErrNonCanonicalScalar)
	}
	if maxBytes > 0 && len(b) > maxBytes {
		return nil, decodeErr(d.pos, errUintOverflow)
	}
	d.pos += h + c
	return b, nil
}

func (d *Decoder) readUint(maxBytes int) (uint64, error) {
	b, err := d.scalar(maxBytes)
	if err != nil {
		return 0, err
	}
	var x uint64
	for _, v := range b {
		x = x<<8 | uint64(v)
	}
	return x, nil
}

// Uint64 reads a scalar that fits into 64 bits.
func (d *Decoder) Uint64() (uint64, error) { return d.readUint(8) }

// Uint32 reads a scalar that fits into 32 bits.
func (d *Decoder) Uint32() (uint32, error) {
	x, err := d.readUint(4)
	return uint32(x), err
}

// Uint16 reads a scalar that fits into 16 bits.
func (d *Decoder) Uint16() (uint16, error) {
	x, err := d.readUint(2)
	return uint16(x), err
}

// Uint8 reads a scalar that fits into 8 bits.
func (d *Decoder) Uint8() (uint8, error) {
	x, err := d.readUint(1)
	return uint8(x), err
}

// Bool reads the scalar 0 or 1.
func (d *Decoder) Bool() (bool, error) {
	start := d.pos
	x, err := d.readUint(1)
	if err != nil {
		return false, err
	}
	switch x {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		d.pos = start
		return false, decodeErr(start, ErrInvalidBool)
	}
}

// BigInt reads a scalar of arbitrary size.
func (d *Decoder) BigInt() (*big.Int, error) {
	b, err := d.scalar(0)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(b), nil
}

// Uint256 reads a scalar that fits into 256 bits.
func (d *Decoder) Uint256() (*uint256.Int, error) {
	b, err := d.scalar(32)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes(b), nil
}

// List enters the list at the cursor. The returned Decoder reads the list's
// children; the receiver moves past the whole list.
func (d *Decoder) List() (Decoder, error) {
	k, h, c, err := d.header()
	if err != nil {
		return Decoder{}, err
	}
	if k != List {
		return Decoder{}, decodeErr(d.pos, ErrExpectedList)
	}
	sub := Decoder{buf: d.buf, pos: d.pos + h, end: d.pos + h + c, inList: true}
	d.pos += h + c
	return sub, nil
}

// Raw returns the complete encoding of the next item, header included,
// without copying.
func (d *Decoder) Raw() ([]byte, error) {
	_, h, c, err := d.header()
	if err != nil {
		return nil, err
	}
	b := d.buf[d.pos : d.pos+h+c : d.pos+h+c]
	d.pos += h + c
	return b, nil
}

// Skip moves past the next item.
func (d *Decoder) Skip() error {
	_, err := d.Raw()
	return err
}

// Count returns the number of items left in the window without consuming
// them.
func (d *Decoder) Count() (int, error) {
	c := *d
	n := 0
	for c.More() {
		if err := c.Skip(); err != nil {
			return 0, err
		}
		n++
	}
	return n, nil
}

// Finish reports an error unless the window has been consumed exactly.
func (d *Decoder) Finish() error {
	if d.pos == d.end {
		return nil
	}
	if d.inList {
		return decodeErr(d.pos, ErrListNotConsumed)
	}
	return decodeErr(d.pos, ErrTrailingBytes)
}
