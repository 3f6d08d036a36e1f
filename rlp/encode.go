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
	"reflect"

	"github.com/PigCharid/rlpnode/rlp/internal/rlpstruct"
	"github.com/holiman/uint256"
)

// Marshaler is implemented by types that require custom encoding rules or
// want to encode private fields. EncodeRLP must write exactly one item to e.
type Marshaler interface {
	EncodeRLP(e *Encoder) error
}

// Encode writes the RLP encoding of val to w. Please see package-level
// documentation of encoding rules.
func Encode(w io.Writer, val interface{}) error {
	e := getEncoder()
	defer putEncoder(e)

	if err := e.Encode(val); err != nil {
		return err
	}
	_, err := e.WriteTo(w)
	return err
}

// EncodeToBytes returns the RLP encoding of val.
func EncodeToBytes(val interface{}) ([]byte, error) {
	e := getEncoder()
	defer putEncoder(e)

	if err := e.Encode(val); err != nil {
		return nil, err
	}
	return e.Encoded()
}

// Encode appends the encoding of an arbitrary Go value using the reflection
// rules of this package.
func (e *Encoder) Encode(val interface{}) error {
	if e.err != nil {
		return e.err
	}
	rval := reflect.ValueOf(val)
	if !rval.IsValid() {
		// encode untyped nil as the empty string
		return e.WriteBytes(nil)
	}
	w, err := cachedWriter(rval.Type())
	if err != nil {
		return err
	}
	return w(rval, e)
}

// makeWriter creates a writer function for the given type.
func makeWriter(typ reflect.Type, ts rlpstruct.Tags) (writer, error) {
	kind := typ.Kind()
	switch {
	case typ == rawValueType:
		return writeRawValue, nil
	case typ.AssignableTo(reflect.PtrTo(bigInt)):
		return writeBigIntPtr, nil
	case typ.AssignableTo(bigInt):
		return writeBigIntNoPtr, nil
	case typ == reflect.PtrTo(u256Int):
		return writeU256IntPtr, nil
	case typ == u256Int:
		return writeU256IntNoPtr, nil
	case kind == reflect.Ptr:
		return makePtrWriter(typ, ts)
	case reflect.PtrTo(typ).Implements(marshalerInterface):
		return makeMarshalerWriter(typ), nil
	case isUint(kind):
		return writeUint, nil
	case kind == reflect.Bool:
		return writeBool, nil
	case kind == reflect.String:
		return writeString, nil
	case kind == reflect.Slice && isByte(typ.Elem()):
		return writeBytes, nil
	case kind == reflect.Array && isByte(typ.Elem()):
		return makeByteArrayWriter(typ), nil
	case kind == reflect.Slice || kind == reflect.Array:
		return makeSliceWriter(typ, ts)
	case kind == reflect.Struct:
		return makeStructWriter(typ)
	case kind == reflect.Interface:
		return writeInterface, nil
	default:
		return nil, fmt.Errorf("rlp: type %v is not RLP-serializable", typ)
	}
}

func writeRawValue(val reflect.Value, e *Encoder) error {
	return e.WriteRaw(val.Bytes())
}

func writeUint(val reflect.Value, e *Encoder) error {
	return e.WriteUint64(val.Uint())
}

func writeBool(val reflect.Value, e *Encoder) error {
	return e.WriteBool(val.Bool())
}

func writeBigIntPtr(val reflect.Value, e *Encoder) error {
	ptr := val.Interface().(*big.Int)
	if ptr == nil {
		return e.WriteUint64(0)
	}
	return e.WriteBigInt(ptr)
}

func writeBigIntNoPtr(val reflect.Value, e *Encoder) error {
	i := val.Interface().(big.Int)
	return e.WriteBigInt(&i)
}

func writeU256IntPtr(val reflect.Value, e *Encoder) error {
	return e.WriteUint256(val.Interface().(*uint256.Int))
}

func writeU256IntNoPtr(val reflect.Value, e *Encoder) error {
	i := val.Interface().(uint256.Int)
	return e.WriteUint256(&i)
}

func writeBytes(val reflect.Value, e *Encoder) error {
	return e.WriteBytes(val.Bytes())
}

func makeByteArrayWriter(typ reflect.Type) writer {
	return func(val reflect.Value, e *Encoder) error {
		if !val.CanAddr() {
			// Copy to a temporary to make the array addressable.
			cpy := reflect.New(val.Type()).Elem()
			cpy.Set(val)
			val = cpy
		}
		return e.WriteBytes(val.Slice(0, typ.Len()).Bytes())
	}
}

func writeString(val reflect.Value, e *Encoder) error {
	return e.WriteString(val.String())
}

func writeInterface(val reflect.Value, e *Encoder) error {
	if val.IsNil() {
		// Write empty list. This is consistent with the previous RLP
		// encoder that we had and should therefore avoid any
		// problems.
		if err := e.StartList(); err != nil {
			return err
		}
		return e.EndList()
	}
	eval := val.Elem()
	w, err := cachedWriter(eval.Type())
	if err != nil {
		return err
	}
	return w(eval, e)
}

func makeSliceWriter(typ reflect.Type, ts rlpstruct.Tags) (writer, error) {
	ec := codecs.building(typ.Elem(), rlpstruct.Tags{})
	if ec.writerErr != nil {
		return nil, ec.writerErr
	}

	var w writer
	if ts.Tail {
		// This is for struct tail slices: the elements are written into
		// the enclosing list without a list header of their own.
		w = func(val reflect.Value, e *Encoder) error {
			for i := 0; i < val.Len(); i++ {
				if err := ec.writer(val.Index(i), e); err != nil {
					return err
				}
			}
			return nil
		}
	} else {
		w = func(val reflect.Value, e *Encoder) error {
			return e.InList(func() error {
				for i := 0; i < val.Len(); i++ {
					if err := ec.writer(val.Index(i), e); err != nil {
						return err
					}
				}
				return nil
			})
		}
	}
	return w, nil
}

func makeStructWriter(typ reflect.Type) (writer, error) {
	fields, err := structFields(typ)
	if err != nil {
		return nil, err
	}
	for _, f := range fields {
		if f.codec.writerErr != nil {
			return nil, structFieldError{typ, f.index, f.codec.writerErr}
		}
	}

	var w writer
	firstOpt := firstOptional(fields)
	if firstOpt == len(fields) {
		// This is the writer function for structs without any optional fields.
		w = func(val reflect.Value, e *Encoder) error {
			return e.InList(func() error {
				for _, f := range fields {
					if err := f.codec.writer(val.Field(f.index), e); err != nil {
						return err
					}
				}
				return nil
			})
		}
	} else {
		// If there are any "optional" fields, the writer needs to perform additional
		// checks to determine the output list length.
		w = func(val reflect.Value, e *Encoder) error {
			lastField := len(fields) - 1
			for ; lastField >= firstOpt; lastField-- {
				if !val.Field(fields[lastField].index).IsZero() {
					break
				}
			}
			return e.InList(func() error {
				for i := 0; i <= lastField; i++ {
					if err := fields[i].codec.writer(val.Field(fields[i].index), e); err != nil {
						return err
					}
				}
				return nil
			})
		}
	}
	return w, nil
}

// nilEncoding returns the writer for the empty value of a nil pointer.
func nilEncoding(typ reflect.Type, ts rlpstruct.Tags) writer {
	if nilKind(typ, ts) == String {
		return func(_ reflect.Value, e *Encoder) error { return e.WriteBytes(nil) }
	}
	return func(_ reflect.Value, e *Encoder) error {
		if err := e.StartList(); err != nil {
			return err
		}
		return e.EndList()
	}
}

func makePtrWriter(typ reflect.Type, ts rlpstruct.Tags) (writer, error) {
	if typ.Implements(marshalerInterface) {
		writeNil := nilEncoding(typ.Elem(), ts)
		return func(val reflect.Value, e *Encoder) error {
			if val.IsNil() {
				return writeNil(val, e)
			}
			return val.Interface().(Marshaler).EncodeRLP(e)
		}, nil
	}

	ec := codecs.building(typ.Elem(), rlpstruct.Tags{})
	if ec.writerErr != nil {
		return nil, ec.writerErr
	}
	writeNil := nilEncoding(typ.Elem(), ts)

	writer := func(val reflect.Value, e *Encoder) error {
		if ev := val.Elem(); ev.IsValid() {
			return ec.writer(ev, e)
		}
		return writeNil(val, e)
	}
	return writer, nil
}

func makeMarshalerWriter(typ reflect.Type) writer {
	// If we have a non-pointer type whose pointer implements Marshaler, we
	// need an addressable value to call EncodeRLP.
	return func(val reflect.Value, e *Encoder) error {
		if !val.CanAddr() {
			cpy := reflect.New(val.Type()).Elem()
			cpy.Set(val)
			val = cpy
		}
		return val.Addr().Interface().(Marshaler).EncodeRLP(e)
	}
}
