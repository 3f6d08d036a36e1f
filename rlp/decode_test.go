// Copyright 2014 The go-ethereum Authors
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
	"bytes"
	"errors"
	"io"
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tailUint struct {
	A    uint
	Tail []uint `rlp:"tail"`
}

type nilListPtr struct {
	A uint
	P *simplestruct `rlp:"nil"`
}

type optionalTail struct {
	A uint
	B uint   `rlp:"optional"`
	C []uint `rlp:"tail"`
}

// pairDecoder reads a two-element list [a, b] and keeps only the sum.
type pairDecoder struct {
	sum uint64
}

func (p *pairDecoder) DecodeRLP(d *Decoder) error {
	l, err := d.List()
	if err != nil {
		return err
	}
	a, err := l.Uint64()
	if err != nil {
		return err
	}
	b, err := l.Uint64()
	if err != nil {
		return err
	}
	p.sum = a + b
	return l.Finish()
}

func TestDecodeBasicValues(t *testing.T) {
	var u uint16
	require.NoError(t, DecodeBytes(unhex("820400"), &u))
	assert.Equal(t, uint16(1024), u)

	var b bool
	require.NoError(t, DecodeBytes(unhex("01"), &b))
	assert.True(t, b)

	var s string
	require.NoError(t, DecodeBytes(unhex("83646F67"), &s))
	assert.Equal(t, "dog", s)

	var bs []byte
	require.NoError(t, DecodeBytes(unhex("8180"), &bs))
	assert.Equal(t, []byte{0x80}, bs)

	var arr [3]byte
	require.NoError(t, DecodeBytes(unhex("83010203"), &arr))
	assert.Equal(t, [3]byte{1, 2, 3}, arr)

	var bi *big.Int
	require.NoError(t, DecodeBytes(unhex("89010000000000000000"), &bi))
	assert.Equal(t, "18446744073709551616", bi.String())

	var bv big.Int
	require.NoError(t, DecodeBytes(unhex("83FFFFFF"), &bv))
	assert.Equal(t, int64(0xFFFFFF), bv.Int64())

	var u256 uint256.Int
	require.NoError(t, DecodeBytes(unhex("820400"), &u256))
	assert.Equal(t, uint64(1024), u256.Uint64())

	var raw RawValue
	require.NoError(t, DecodeBytes(unhex("C20102"), &raw))
	assert.Equal(t, RawValue(unhex("C20102")), raw)
}

func TestDecodeErrors(t *testing.T) {
	var u uint8
	assert.ErrorIs(t, DecodeBytes(unhex("820100"), &u), ErrNonCanonicalScalar)
	assert.ErrorIs(t, DecodeBytes(unhex("0102"), &u), ErrTrailingBytes)
	assert.Equal(t, io.ErrUnexpectedEOF, DecodeBytes(nil, &u))
	assert.Equal(t, errNoPointer, DecodeBytes(unhex("01"), u))
	assert.Equal(t, errDecodeIntoNil, DecodeBytes(unhex("01"), (*uint)(nil)))
	assert.Equal(t, errDecodeIntoNil, DecodeBytes(unhex("01"), nil))

	var b bool
	assert.ErrorIs(t, DecodeBytes(unhex("02"), &b), ErrInvalidBool)

	var arr [3]byte
	assert.ErrorIs(t, DecodeBytes(unhex("820102"), &arr), errTooShort)
	assert.ErrorIs(t, DecodeBytes(unhex("8401020304"), &arr), errTooLong)

	var sl []uint
	assert.ErrorIs(t, DecodeBytes(unhex("83010203"), &sl), ErrExpectedList)

	var ss simplestruct
	err := DecodeBytes(unhex("C3018100"), &ss)
	assert.ErrorIs(t, err, ErrNonCanonicalLength)
	err = DecodeBytes(unhex("C201C0"), &ss)
	assert.ErrorIs(t, err, ErrExpectedString)
	assert.Contains(t, err.Error(), "decoding into (rlp.simplestruct).B")

	// Too many elements for the struct.
	assert.ErrorIs(t, DecodeBytes(unhex("C3018001"), &ss), ErrListNotConsumed)
	// Too few elements.
	assert.ErrorIs(t, DecodeBytes(unhex("C101"), &ss), ErrListBoundsExceeded)

	var fixed [2]uint
	assert.ErrorIs(t, DecodeBytes(unhex("C101"), &fixed), ErrListBoundsExceeded)
	assert.ErrorIs(t, DecodeBytes(unhex("C3010203"), &fixed), ErrListNotConsumed)

	var i int
	assert.EqualError(t, DecodeBytes(unhex("01"), &i), "rlp: type int is not RLP-serializable")
}

func TestDecodeStructs(t *testing.T) {
	var ss simplestruct
	require.NoError(t, DecodeBytes(unhex("C50383666F6F"), &ss))
	assert.Equal(t, simplestruct{A: 3, B: "foo"}, ss)

	var rec recstruct
	require.NoError(t, DecodeBytes(unhex("C605C404C203C0"), &rec))
	assert.Equal(t, recstruct{5, &recstruct{4, &recstruct{3, nil}}}, rec)

	var tail tailUint
	require.NoError(t, DecodeBytes(unhex("C3010203"), &tail))
	assert.Equal(t, tailUint{A: 1, Tail: []uint{2, 3}}, tail)
	var short tailUint
	require.NoError(t, DecodeBytes(unhex("C101"), &short))
	assert.Equal(t, uint(1), short.A)
	assert.Len(t, short.Tail, 0)

	var ign hasIgnoredField
	require.NoError(t, DecodeBytes(unhex("C20103"), &ign))
	assert.Equal(t, hasIgnoredField{A: 1, C: 3}, ign)
}

func TestDecodeNilPointers(t *testing.T) {
	var np nilListPtr
	require.NoError(t, DecodeBytes(unhex("C201C0"), &np))
	assert.Equal(t, uint(1), np.A)
	assert.Nil(t, np.P)

	require.NoError(t, DecodeBytes(unhex("C401C20180"), &np))
	require.NotNil(t, np.P)
	assert.Equal(t, simplestruct{A: 1}, *np.P)

	var ns nilStringPtr
	require.NoError(t, DecodeBytes(unhex("C180"), &ns))
	assert.Nil(t, ns.P)
	// Only the empty string means nil here.
	assert.ErrorIs(t, DecodeBytes(unhex("C1C0"), &ns), ErrListBoundsExceeded)
}

func TestDecodeOptionalFields(t *testing.T) {
	tests := []struct {
		input string
		want  optionalFields
	}{
		{"C101", optionalFields{A: 1}},
		{"C20102", optionalFields{A: 1, B: 2}},
		{"C3010203", optionalFields{A: 1, B: 2, C: 3}},
		{"C3018003", optionalFields{A: 1, C: 3}},
	}
	for _, tt := range tests {
		v := optionalFields{A: 9, B: 9, C: 9}
		require.NoError(t, DecodeBytes(unhex(tt.input), &v), "input %s", tt.input)
		assert.Equal(t, tt.want, v, "input %s", tt.input)
	}

	var ob optionalBigIntField
	require.NoError(t, DecodeBytes(unhex("C101"), &ob))
	assert.Nil(t, ob.B)
	require.NoError(t, DecodeBytes(unhex("C20105"), &ob))
	assert.Equal(t, int64(5), ob.B.Int64())

	var ot optionalTail
	require.NoError(t, DecodeBytes(unhex("C101"), &ot))
	assert.Equal(t, optionalTail{A: 1}, ot)
	require.NoError(t, DecodeBytes(unhex("C401020304"), &ot))
	assert.Equal(t, optionalTail{A: 1, B: 2, C: []uint{3, 4}}, ot)
}

func TestDecodeInterface(t *testing.T) {
	var v interface{}
	require.NoError(t, DecodeBytes(unhex("C7C0C1C0C3C0C1C0"), &v))
	want := []interface{}{
		[]interface{}{},
		[]interface{}{[]interface{}{}},
		[]interface{}{[]interface{}{}, []interface{}{[]interface{}{}}},
	}
	assert.Equal(t, want, v)

	require.NoError(t, DecodeBytes(unhex("C50183646F67"), &v))
	assert.Equal(t, []interface{}{[]byte{1}, []byte("dog")}, v)
}

func TestDecodeUnmarshaler(t *testing.T) {
	var p pairDecoder
	require.NoError(t, DecodeBytes(unhex("C20304"), &p))
	assert.Equal(t, uint64(7), p.sum)

	var ps []*pairDecoder
	require.NoError(t, DecodeBytes(unhex("C6C20102C20304"), &ps))
	require.Len(t, ps, 2)
	assert.Equal(t, uint64(3), ps[0].sum)
	assert.Equal(t, uint64(7), ps[1].sum)

	assert.ErrorIs(t, DecodeBytes(unhex("C3030405"), &p), ErrListNotConsumed)
}

func TestDecodeSliceReuse(t *testing.T) {
	sl := []uint{9, 9, 9, 9, 9}
	require.NoError(t, DecodeBytes(unhex("C20102"), &sl))
	assert.Equal(t, []uint{1, 2}, sl)

	require.NoError(t, DecodeBytes(unhex("C0"), &sl))
	assert.Equal(t, []uint{}, sl)
}

func TestDecodeFromReader(t *testing.T) {
	var ss simplestruct
	require.NoError(t, Decode(bytes.NewReader(unhex("C50383666F6F")), &ss))
	assert.Equal(t, simplestruct{A: 3, B: "foo"}, ss)
}

func TestDecoderDecodeSequence(t *testing.T) {
	d := NewDecoder(unhex("C501C20203" + "83646F67"))
	l, err := d.List()
	require.NoError(t, err)
	var a uint
	var b []uint
	require.NoError(t, l.Decode(&a))
	require.NoError(t, l.Decode(&b))
	require.NoError(t, l.Finish())
	var s string
	require.NoError(t, d.Decode(&s))
	require.NoError(t, d.Finish())
	assert.Equal(t, uint(1), a)
	assert.Equal(t, []uint{2, 3}, b)
	assert.Equal(t, "dog", s)
	assert.Equal(t, io.EOF, d.Decode(&s))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	vals := []interface{}{
		&simplestruct{A: 1, B: "x"},
		&recstruct{1, &recstruct{2, nil}},
		&tailUint{A: 1, Tail: []uint{1, 2, 3}},
		&optionalFields{A: 1, C: 3},
		&optionalPtrField{A: 1, B: &[3]byte{4, 5, 6}},
		&nilListPtr{A: 7, P: &simplestruct{A: 8}},
	}
	for _, v := range vals {
		enc, err := EncodeToBytes(v)
		require.NoError(t, err)
		out := newOf(v)
		require.NoError(t, DecodeBytes(enc, out), "value %#v", v)
		assert.Equal(t, v, out)
	}
}

func newOf(v interface{}) interface{} {
	switch v.(type) {
	case *simplestruct:
		return new(simplestruct)
	case *recstruct:
		return new(recstruct)
	case *tailUint:
		return new(tailUint)
	case *optionalFields:
		return new(optionalFields)
	case *optionalPtrField:
		return new(optionalPtrField)
	case *nilListPtr:
		return new(nilListPtr)
	}
	panic("unknown type")
}

func TestDecodeErrorsWrapOffsets(t *testing.T) {
	var ss simplestruct
	err := DecodeBytes(unhex("C3018100"), &ss)
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, 2, de.Offset)
}
