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

import "bytes"

// Item is a fully materialized RLP value: either a byte string or a list of
// items. It is mostly useful for tools and tests; domain code should walk
// the input with a Decoder instead.
type Item struct {
	IsList bool
	Bytes  []byte // payload, if !IsList
	List   []Item // children, if IsList
}

// StringItem returns a byte string item.
func StringItem(b []byte) Item { return Item{Bytes: b} }

// ListItem returns a list item holding the given children.
func ListItem(children ...Item) Item {
	if children == nil {
		children = []Item{}
	}
	return Item{IsList: true, List: children}
}

// Equal reports whether two items hold the same tree. Nil and empty byte
// strings are equal, as are nil and empty child lists.
func (it Item) Equal(o Item) bool {
	if it.IsList != o.IsList {
		return false
	}
	if !it.IsList {
		return bytes.Equal(it.Bytes, o.Bytes)
	}
	if len(it.List) != len(o.List) {
		return false
	}
	for i := range it.List {
		if !it.List[i].Equal(o.List[i]) {
			return false
		}
	}
	return true
}

// WriteItem appends an item tree.
func (e *Encoder) WriteItem(it Item) error {
	if !it.IsList {
		return e.WriteBytes(it.Bytes)
	}
	return e.InList(func() error {
		for _, child := range it.List {
			if err := e.WriteItem(child); err != nil {
				return err
			}
		}
		return nil
	})
}

// EncodeItem returns the encoding of an item tree.
func EncodeItem(it Item) ([]byte, error) {
	e := getEncoder()
	defer putEncoder(e)
	if err := e.WriteItem(it); err != nil {
		return nil, err
	}
	return e.Encoded()
}

// Item reads the next value as a materialized tree. Byte string payloads
// are copied.
func (d *Decoder) Item() (Item, error) {
	k, err := d.Kind()
	if err != nil {
		return Item{}, err
	}
	if k != List {
		b, err := d.Bytes()
		return Item{Bytes: b}, err
	}
	sub, err := d.List()
	if err != nil {
		return Item{}, err
	}
	it := Item{IsList: true, List: []Item{}}
	for sub.More() {
		child, err := sub.Item()
		if err != nil {
			return Item{}, err
		}
		it.List = append(it.List, child)
	}
	return it, nil
}

// ParseItem decodes b, which must contain exactly one value.
func ParseItem(b []byte) (Item, error) {
	d := NewDecoder(b)
	it, err := d.Item()
	if err != nil {
		return Item{}, err
	}
	return it, d.Finish()
}
