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
	"fmt"
	"io"
	"math/big"
	"sync"

	"github.com/holiman/uint256"
)

// frame is one open write context: the encoded elements written at this
// nesting level so far.
type frame struct {
	buf   []byte
	elems int
}

// Encoder builds the encoding of a single top-level item. Nested lists are
// buffered in a stack of frames; a list header is emitted once EndList knows
// the byte size of the list's payload.
//
// The zero value is ready to use. An Encoder must not be used concurrently.
//
// Errors are sticky: once a call fails, every later call, including
// Encoded, returns the same error.
type Encoder struct {
	frames []frame // frames[0] is the implicit top-level context
	depth  int     // index of the innermost open frame
	err    error
}

var encoderPool = sync.Pool{
	New: func() interface{} { return new(Encoder) },
}

func getEncoder() *Encoder {
	e := encoderPool.Get().(*Encoder)
	e.Reset()
	return e
}

func putEncoder(e *Encoder) { encoderPool.Put(e) }

// NewEncoder creates an empty encoder.
func NewEncoder() *Encoder {
	e := new(Encoder)
	e.Reset()
	return e
}

// Reset discards all written data and any error, keeping allocated buffers.
func (e *Encoder) Reset() {
	if len(e.frames) == 0 {
		e.frames = make([]frame, 1, 4)
	}
	for i := range e.frames {
		e.frames[i].buf = e.frames[i].buf[:0]
		e.frames[i].elems = 0
	}
	e.depth = 0
	e.err = nil
}

// Err returns the first error encountered by the encoder.
func (e *Encoder) Err() error { return e.err }

// Depth returns the number of lists currently open.
func (e *Encoder) Depth() int { return e.depth }

func (e *Encoder) fail(err error) error {
	if e.err == nil {
		e.err = err
	}
	return e.err
}

// begin reserves a slot for one element in the innermost open context.
func (e *Encoder) begin() (*frame, error) {
	if e.err != nil {
		return nil, e.err
	}
	if len(e.frames) == 0 {
		e.frames = make([]frame, 1, 4)
	}
	f := &e.frames[e.depth]
	if e.depth == 0 && f.elems > 0 {
		return nil, e.fail(ErrMultipleTopLevelElements)
	}
	f.elems++
	return f, nil
}

// WriteByte appends a one-byte string. Bytes below 0x80 encode as themselves.
func (e *Encoder) WriteByte(b byte) error {
	f, err := e.begin()
	if err != nil {
		return err
	}
	if b < 0x80 {
		f.buf = append(f.buf, b)
	} else {
		f.buf = append(f.buf, shortStringOffset+1, b)
	}
	return nil
}

// WriteBytes appends the byte string p.
func (e *Encoder) WriteBytes(p []byte) error {
	f, err := e.begin()
	if err != nil {
		return err
	}
	if len(p) == 1 && p[0] < 0x80 {
		f.buf = append(f.buf, p[0])
		return nil
	}
	if f.buf, err = AppendHeader(f.buf, uint64(len(p)), false); err != nil {
		return e.fail(err)
	}
	f.buf = append(f.buf, p...)
	return nil
}

// WriteString appends s as a byte string.
func (e *Encoder) WriteString(s string) error {
	f, err := e.begin()
	if err != nil {
		return err
	}
	if len(s) == 1 && s[0] < 0x80 {
		f.buf = append(f.buf, s[0])
		return nil
	}
	if f.buf, err = AppendHeader(f.buf, uint64(len(s)), false); err != nil {
		return e.fail(err)
	}
	f.buf = append(f.buf, s...)
	return nil
}

// WriteUint64 appends x as a scalar: its minimal big-endian bytes, so zero is
// the empty string.
func (e *Encoder) WriteUint64(x uint64) error {
	f, err := e.begin()
	if err != nil {
		return err
	}
	f.buf = appendUint64(f.buf, x)
	return nil
}

func appendUint64(dst []byte, x uint64) []byte {
	switch {
	case x == 0:
		return append(dst, shortStringOffset)
	case x < 0x80:
		return append(dst, byte(x))
	}
	n := ByteLength(x)
	dst = append(dst, shortStringOffset+byte(n))
	for i := n - 1; i >= 0; i-- {
		dst = append(dst, byte(x>>(8*uint(i))))
	}
	return dst
}

// WriteBool appends b as the scalar 1 or 0.
func (e *Encoder) WriteBool(b bool) error {
	if b {
		return e.WriteUint64(1)
	}
	return e.WriteUint64(0)
}

// WriteBigInt appends i as a scalar. A nil pointer encodes as zero; negative
// values cannot be encoded.
func (e *Encoder) WriteBigInt(i *big.Int) error {
	if e.err != nil {
		return e.err
	}
	switch {
	case i == nil:
		return e.WriteUint64(0)
	case i.Sign() < 0:
		return e.fail(ErrNegativeBigInt)
	case i.BitLen() <= 64:
		return e.WriteUint64(i.Uint64())
	}
	f, err := e.begin()
	if err != nil {
		return err
	}
	// big.Int.Bytes is already minimal.
	b := i.Bytes()
	if f.buf, err = AppendHeader(f.buf, uint64(len(b)), false); err != nil {
		return e.fail(err)
	}
	f.buf = append(f.buf, b...)
	return nil
}

// WriteUint256 appends z as a scalar. A nil pointer encodes as zero.
func (e *Encoder) WriteUint256(z *uint256.Int) error {
	if z == nil || z.IsUint64() {
		var x uint64
		if z != nil {
			x = z.Uint64()
		}
		return e.WriteUint64(x)
	}
	f, err := e.begin()
	if err != nil {
		return err
	}
	var tmp [32]byte
	z.WriteToArray32(&tmp)
	b := tmp[32-z.ByteLen():]
	f.buf = append(f.buf, shortStringOffset+byte(len(b)))
	f.buf = append(f.buf, b...)
	return nil
}

// WriteRaw appends enc, which must be the complete canonical encoding of
// exactly one item.
func (e *Encoder) WriteRaw(enc []byte) error {
	if e.err != nil {
		return e.err
	}
	if _, _, rest, err := Split(enc); err != nil {
		return e.fail(fmt.Errorf("rlp: invalid raw value: %w", err))
	} else if len(rest) > 0 {
		return e.fail(fmt.Errorf("rlp: invalid raw value: %w", ErrTrailingBytes))
	}
	f, err := e.begin()
	if err != nil {
		return err
	}
	f.buf = append(f.buf, enc...)
	return nil
}

// StartList opens a new list. Subsequent writes append to it until the
// matching EndList.
func (e *Encoder) StartList() error {
	if _, err := e.begin(); err != nil {
		return err
	}
	e.depth++
	if e.depth == len(e.frames) {
		e.frames = append(e.frames, frame{})
	} else {
		// 复用之前弹出的缓冲区
		e.frames[e.depth].buf = e.frames[e.depth].buf[:0]
		e.frames[e.depth].elems = 0
	}
	return nil
}

// EndList closes the innermost open list and folds its headered encoding into
// the enclosing context.
func (e *Encoder) EndList() error {
	if e.err != nil {
		return e.err
	}
	if e.depth == 0 {
		return e.fail(ErrUnmatchedEndList)
	}
	child := &e.frames[e.depth]
	e.depth--
	parent := &e.frames[e.depth]

	var err error
	if parent.buf, err = AppendHeader(parent.buf, uint64(len(child.buf)), true); err != nil {
		return e.fail(err)
	}
	parent.buf = append(parent.buf, child.buf...)
	child.buf = child.buf[:0]
	return nil
}

// InList calls fn between StartList and EndList.
func (e *Encoder) InList(fn func() error) error {
	if err := e.StartList(); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return e.fail(err)
	}
	return e.EndList()
}

// Size returns the number of bytes written at the top level so far.
func (e *Encoder) Size() int {
	if len(e.frames) == 0 {
		return 0
	}
	return len(e.frames[0].buf)
}

// Encoded returns the finished top-level item. An encoder without writes
// yields an empty, non-nil slice.
func (e *Encoder) Encoded() ([]byte, error) {
	return e.AppendTo(make([]byte, 0, e.Size()))
}

// AppendTo appends the finished top-level item to dst.
func (e *Encoder) AppendTo(dst []byte) ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}
	if e.depth > 0 {
		return nil, e.fail(ErrUnclosedList)
	}
	if len(e.frames) == 0 {
		return dst, nil
	}
	return append(dst, e.frames[0].buf...), nil
}

// WriteTo writes the finished top-level item to w.
func (e *Encoder) WriteTo(w io.Writer) (int64, error) {
	if e.err != nil {
		return 0, e.err
	}
	if e.depth > 0 {
		return 0, e.fail(ErrUnclosedList)
	}
	if len(e.frames) == 0 {
		return 0, nil
	}
	n, err := w.Write(e.frames[0].buf)
	return int64(n), err
}
