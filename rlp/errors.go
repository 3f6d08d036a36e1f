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
)

// Encoding errors. These indicate misuse of the Encoder and leave the item
// being built unusable.
var (
	ErrPayloadTooLarge          = errors.New("rlp: payload too large")
	ErrUnmatchedEndList         = errors.New("rlp: EndList without matching StartList")
	ErrUnclosedList             = errors.New("rlp: unclosed list")
	ErrMultipleTopLevelElements = errors.New("rlp: multiple top-level elements outside a list")
	ErrNegativeBigInt           = errors.New("rlp: cannot encode negative big.Int")
)

// Decoding errors. These are data errors and are expected on untrusted input.
var (
	ErrBufferUnderflow    = errors.New("rlp: value size exceeds available input length")
	ErrNonCanonicalLength = errors.New("rlp: non-canonical size information")
	ErrNonCanonicalScalar = errors.New("rlp: non-canonical integer format")
	ErrListBoundsExceeded = errors.New("rlp: read past end of list")
	ErrListNotConsumed    = errors.New("rlp: list not fully consumed")
	ErrTrailingBytes      = errors.New("rlp: input contains more than one value")
	ErrExpectedString     = errors.New("rlp: expected String or Byte")
	ErrExpectedList       = errors.New("rlp: expected List")
	ErrInvalidBool        = errors.New("rlp: invalid boolean value")

	// 整数溢出
	errUintOverflow = fmt.Errorf("%w (uint overflow)", ErrNonCanonicalScalar)
	errTooShort     = errors.New("rlp: input string too short")
	errTooLong      = errors.New("rlp: input string too long")
)

// DecodeError records the input offset at which decoding failed.
type DecodeError struct {
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%v (offset %d)", e.Err, e.Offset)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func decodeErr(offset int, err error) error {
	if _, ok := err.(*DecodeError); ok {
		return err
	}
	return &DecodeError{Offset: offset, Err: err}
}
