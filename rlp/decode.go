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
	"errors"
	"fmt"
	"io"
	"math/big"
	"reflect"

	"github.com/PigCharid/rlpnode/rlp/internal/rlpstruct"
	"github.com/holiman/uint256"
)

var errNoPointer = errors.New("rlp: interface given to Decode must be a pointer")
var errDecodeIntoNil = errors.New("rlp: pointer given to Decode must not be nil")

// Unmarshaler is implemented by types that require custom RLP decoding rules
// or need to decode into private fields.
//
// DecodeRLP must read exactly one value from d. It may read less or more,
// but it must not read past the end of the value.
type Unmarshaler interface {
	DecodeRLP(d *Decoder) error
}

// Decode reads all of r and decodes its single RLP value into val.
func Decode(r io.Reader, val interface{}) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return DecodeBytes(b, val)
}

// DecodeBytes parses RLP data from b into val. Please see package-level
// documentation for the decoding rules. The input must contain exactly one
// value and no trailing data.
func DecodeBytes(b []byte, val interface{}) error {
	d := NewDecoder(b)
	if err := d.Decode(val); err != nil {
		if err == io.EOF {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	return d.Finish()
}

// Decode decodes the next value into val, which must be a non-nil pointer.
func (d *Decoder) Decode(val interface{}) error {
	if val == nil {
		return errDecodeIntoNil
	}
	rval := reflect.ValueOf(val)
	rtyp := rval.Type()
	if rtyp.Kind() != reflect.Ptr {
		return errNoPointer
	}
	if rval.IsNil() {
		return errDecodeIntoNil
	}
	if !d.inList && !d.More() {
		return io.EOF
	}
	dec, err := cachedDecoder(rtyp.Elem())
	if err != nil {
		return err
	}
	err = dec(d, rval.Elem())
	if decErr, ok := err.(*fieldError); ok && len(decErr.ctx) > 0 {
		// Add decode target type to error so context has more meaning.
		decErr.ctx = append(decErr.ctx, fmt.Sprint("(", rtyp.Elem(), ")"))
	}
	return err
}

// fieldError adds the path of the Go value being decoded to an error.
type fieldError struct {
	err error
	ctx []string
}

func (e *fieldError) Error() string {
	ctx := ""
	for i := len(e.ctx) - 1; i >= 0; i-- {
		ctx += e.ctx[i]
	}
	return fmt.Sprintf("%v, decoding into %s", e.err, ctx)
}

func (e *fieldError) Unwrap() error { return e.err }

func addErrorContext(err error, ctx string) error {
	if fe, ok := err.(*fieldError); ok {
		fe.ctx = append(fe.ctx, ctx)
		return fe
	}
	return &fieldError{err: err, ctx: []string{ctx}}
}

func makeDecoder(typ reflect.Type, tags rlpstruct.Tags) (dec decoder, err error) {
	kind := typ.Kind()
	switch {
	case typ == rawValueType:
		return decodeRawValue, nil
	case typ.AssignableTo(reflect.PtrTo(bigInt)):
		return decodeBigInt, nil
	case typ.AssignableTo(bigInt):
		return decodeBigIntNoPtr, nil
	case typ == reflect.PtrTo(u256Int):
		return decodeU256, nil
	case typ == u256Int:
		return decodeU256NoPtr, nil
	case kind == reflect.Ptr:
		return makePtrDecoder(typ, tags)
	case reflect.PtrTo(typ).Implements(unmarshalerInterface):
		return decodeUnmarshaler, nil
	case isUint(kind):
		return decodeUint, nil
	case kind == reflect.Bool:
		return decodeBool, nil
	case kind == reflect.String:
		return decodeString, nil
	case kind == reflect.Slice && isByte(typ.Elem()):
		return decodeByteSlice, nil
	case kind == reflect.Array && isByte(typ.Elem()):
		return decodeByteArray, nil
	case kind == reflect.Slice || kind == reflect.Array:
		return makeListDecoder(typ, tags)
	case kind == reflect.Struct:
		return makeStructDecoder(typ)
	case kind == reflect.Interface:
		return decodeInterface, nil
	default:
		return nil, fmt.Errorf("rlp: type %v is not RLP-serializable", typ)
	}
}

func decodeRawValue(d *Decoder, val reflect.Value) error {
	r, err := d.Raw()
	if err != nil {
		return err
	}
	val.SetBytes(append([]byte{}, r...))
	return nil
}

func decodeUint(d *Decoder, val reflect.Value) error {
	typ := val.Type()
	num, err := d.readUint(int(typ.Size()))
	if err != nil {
		return addErrorContext(err, "("+typ.String()+")")
	}
	val.SetUint(num)
	return nil
}

func decodeBool(d *Decoder, val reflect.Value) error {
	b, err := d.Bool()
	if err != nil {
		return addErrorContext(err, "(bool)")
	}
	val.SetBool(b)
	return nil
}

func decodeString(d *Decoder, val reflect.Value) error {
	b, err := d.BytesView()
	if err != nil {
		return addErrorContext(err, "(string)")
	}
	val.SetString(string(b))
	return nil
}

func decodeBigIntNoPtr(d *Decoder, val reflect.Value) error {
	return decodeBigInt(d, val.Addr())
}

func decodeBigInt(d *Decoder, val reflect.Value) error {
	i, err := d.BigInt()
	if err != nil {
		return addErrorContext(err, "(*big.Int)")
	}
	if dst := val.Interface().(*big.Int); dst != nil {
		dst.Set(i)
		return nil
	}
	val.Set(reflect.ValueOf(i))
	return nil
}

func decodeU256NoPtr(d *Decoder, val reflect.Value) error {
	return decodeU256(d, val.Addr())
}

func decodeU256(d *Decoder, val reflect.Value) error {
	i, err := d.Uint256()
	if err != nil {
		return addErrorContext(err, "(*uint256.Int)")
	}
	if dst := val.Interface().(*uint256.Int); dst != nil {
		dst.Set(i)
		return nil
	}
	val.Set(reflect.ValueOf(i))
	return nil
}

func makeListDecoder(typ reflect.Type, tag rlpstruct.Tags) (decoder, error) {
	etype := typ.Elem()
	if etype.Kind() == reflect.Uint8 && !reflect.PtrTo(etype).Implements(unmarshalerInterface) {
		if typ.Kind() == reflect.Array {
			return decodeByteArray, nil
		}
		return decodeByteSlice, nil
	}
	ec := codecs.building(etype, rlpstruct.Tags{})
	if ec.decoderErr != nil {
		return nil, ec.decoderErr
	}
	var dec decoder
	switch {
	case typ.Kind() == reflect.Array:
		dec = func(d *Decoder, val reflect.Value) error {
			return decodeListArray(d, val, ec.decoder)
		}
	case tag.Tail:
		// A slice with "tail" tag can occur as the last field
		// of a struct and is supposed to swallow all remaining
		// list elements. The struct decoder already called d.List,
		// proceed directly to decoding the elements.
		dec = func(d *Decoder, val reflect.Value) error {
			return decodeSliceElems(d, val, ec.decoder)
		}
	default:
		dec = func(d *Decoder, val reflect.Value) error {
			return decodeListSlice(d, val, ec.decoder)
		}
	}
	return dec, nil
}

func decodeListSlice(d *Decoder, val reflect.Value, elemdec decoder) error {
	sub, err := d.List()
	if err != nil {
		return addErrorContext(err, "("+val.Type().String()+")")
	}
	if !sub.More() {
		val.Set(reflect.MakeSlice(val.Type(), 0, 0))
		return nil
	}
	return decodeSliceElems(&sub, val, elemdec)
}

func decodeSliceElems(d *Decoder, val reflect.Value, elemdec decoder) error {
	i := 0
	for ; d.More(); i++ {
		// grow slice if necessary
		if i >= val.Cap() {
			newcap := val.Cap() + val.Cap()/2
			if newcap < 4 {
				newcap = 4
			}
			newv := reflect.MakeSlice(val.Type(), val.Len(), newcap)
			reflect.Copy(newv, val)
			val.Set(newv)
		}
		if i >= val.Len() {
			val.SetLen(i + 1)
		}
		// decode into element
		if err := elemdec(d, val.Index(i)); err != nil {
			return addErrorContext(err, fmt.Sprint("[", i, "]"))
		}
	}
	if i < val.Len() {
		val.SetLen(i)
	}
	return nil
}

func decodeListArray(d *Decoder, val reflect.Value, elemdec decoder) error {
	sub, err := d.List()
	if err != nil {
		return addErrorContext(err, "("+val.Type().String()+")")
	}
	vlen := val.Len()
	i := 0
	for ; i < vlen && sub.More(); i++ {
		if err := elemdec(&sub, val.Index(i)); err != nil {
			return addErrorContext(err, fmt.Sprint("[", i, "]"))
		}
	}
	if i < vlen {
		return addErrorContext(ErrListBoundsExceeded, "("+val.Type().String()+")")
	}
	if err := sub.Finish(); err != nil {
		return addErrorContext(err, "("+val.Type().String()+")")
	}
	return nil
}

func decodeByteSlice(d *Decoder, val reflect.Value) error {
	b, err := d.Bytes()
	if err != nil {
		return addErrorContext(err, "("+val.Type().String()+")")
	}
	val.SetBytes(b)
	return nil
}

func decodeByteArray(d *Decoder, val reflect.Value) error {
	b, err := d.BytesView()
	if err != nil {
		return addErrorContext(err, "("+val.Type().String()+")")
	}
	vlen := val.Len()
	switch {
	case len(b) < vlen:
		return addErrorContext(errTooShort, "("+val.Type().String()+")")
	case len(b) > vlen:
		return addErrorContext(errTooLong, "("+val.Type().String()+")")
	}
	reflect.Copy(val, reflect.ValueOf(b))
	return nil
}

func makeStructDecoder(typ reflect.Type) (decoder, error) {
	fields, err := structFields(typ)
	if err != nil {
		return nil, err
	}
	for _, f := range fields {
		if f.codec.decoderErr != nil {
			return nil, structFieldError{typ, f.index, f.codec.decoderErr}
		}
	}
	dec := func(d *Decoder, val reflect.Value) error {
		sub, err := d.List()
		if err != nil {
			return addErrorContext(err, "("+typ.String()+")")
		}
		for i, f := range fields {
			if !sub.More() && f.optional {
				// The field is optional and the input has no more
				// elements: zero the remaining fields and stop.
				zeroFields(val, fields[i:])
				break
			}
			if err := f.codec.decoder(&sub, val.Field(f.index)); err != nil {
				return addErrorContext(err, "."+f.name)
			}
		}
		if err := sub.Finish(); err != nil {
			return addErrorContext(err, "("+typ.String()+")")
		}
		return nil
	}
	return dec, nil
}

func zeroFields(structval reflect.Value, fields []field) {
	for _, f := range fields {
		fv := structval.Field(f.index)
		fv.Set(reflect.Zero(fv.Type()))
	}
}

// makePtrDecoder creates a decoder that decodes into the pointer's element type.
func makePtrDecoder(typ reflect.Type, tag rlpstruct.Tags) (decoder, error) {
	etype := typ.Elem()
	ec := codecs.building(etype, rlpstruct.Tags{})
	switch {
	case ec.decoderErr != nil:
		return nil, ec.decoderErr
	case !tag.NilOK:
		return makeSimplePtrDecoder(etype, ec), nil
	default:
		return makeNilPtrDecoder(etype, ec, tag), nil
	}
}

func makeSimplePtrDecoder(etype reflect.Type, ec *codec) decoder {
	return func(d *Decoder, val reflect.Value) (err error) {
		newval := val
		if val.IsNil() {
			newval = reflect.New(etype)
		}
		if err = ec.decoder(d, newval.Elem()); err == nil {
			val.Set(newval)
		}
		return err
	}
}

// makeNilPtrDecoder creates a decoder that decodes empty values as nil. Non-empty
// values are decoded into a value of the element type, just like makePtrDecoder does.
//
// This decoder is used for pointer-typed struct fields with struct tag "nil".
func makeNilPtrDecoder(etype reflect.Type, ec *codec, ts rlpstruct.Tags) decoder {
	typ := reflect.PtrTo(etype)
	nilPtr := reflect.Zero(typ)
	return func(d *Decoder, val reflect.Value) (err error) {
		peek := *d
		raw, err := peek.Raw()
		if err != nil {
			val.Set(nilPtr)
			return addErrorContext(err, "("+typ.String()+")")
		}
		if len(raw) == 1 && raw[0] == byte(ts.NilKind) {
			d.pos = peek.pos
			val.Set(nilPtr)
			return nil
		}
		newval := val
		if val.IsNil() {
			newval = reflect.New(etype)
		}
		if err = ec.decoder(d, newval.Elem()); err == nil {
			val.Set(newval)
		}
		return err
	}
}

var ifsliceType = reflect.TypeOf([]interface{}{})

func decodeInterface(d *Decoder, val reflect.Value) error {
	if val.Type().NumMethod() != 0 {
		return fmt.Errorf("rlp: type %v is not RLP-serializable", val.Type())
	}
	kind, err := d.Kind()
	if err != nil {
		return err
	}
	if kind == List {
		slice := reflect.New(ifsliceType).Elem()
		if err := decodeListSlice(d, slice, decodeInterface); err != nil {
			return err
		}
		val.Set(slice)
	} else {
		b, err := d.Bytes()
		if err != nil {
			return err
		}
		val.Set(reflect.ValueOf(b))
	}
	return nil
}

func decodeUnmarshaler(d *Decoder, val reflect.Value) error {
	return val.Addr().Interface().(Unmarshaler).DecodeRLP(d)
}
