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

package trie

import (
	"fmt"
	"io"
	"strings"

	"github.com/PigCharid/rlpnode/rlp"
	"github.com/ethereum/go-ethereum/common"
)

const hashLen = len(common.Hash{})

var indices = []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9", "a", "b", "c", "d", "e", "f", "[17]"}

type node interface {
	cache() (hashNode, bool)
	encode(e *rlp.Encoder)
	fstring(string) string
}

type (
	fullNode struct {
		Children [17]node // Actual trie node data to encode/decode (needs custom encoder)
		flags    nodeFlag
	}
	shortNode struct {
		Key   []byte
		Val   node
		flags nodeFlag
	}
	hashNode  []byte
	valueNode []byte
)

// nilValueNode is used when collapsing internal trie nodes for hashing, since
// unset children need to serialize correctly.
var nilValueNode = valueNode(nil)

func (n *fullNode) copy() *fullNode   { copy := *n; return &copy }
func (n *shortNode) copy() *shortNode { copy := *n; return &copy }

// nodeFlag contains caching-related metadata about a node.
type nodeFlag struct {
	hash  hashNode // cached hash of the node (may be nil)
	dirty bool     // whether the node has changes that must be written to the database
}

func (n *fullNode) cache() (hashNode, bool)  { return n.flags.hash, n.flags.dirty }
func (n *shortNode) cache() (hashNode, bool) { return n.flags.hash, n.flags.dirty }
func (n hashNode) cache() (hashNode, bool)   { return nil, true }
func (n valueNode) cache() (hashNode, bool)  { return nil, true }

// Pretty printing.
func (n *fullNode) String() string  { return n.fstring("") }
func (n *shortNode) String() string { return n.fstring("") }
func (n hashNode) String() string   { return n.fstring("") }
func (n valueNode) String() string  { return n.fstring("") }

func (n *fullNode) fstring(ind string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[\n%s  ", ind)
	for i, node := range &n.Children {
		if node == nil {
			fmt.Fprintf(&b, "%s: <nil> ", indices[i])
		} else {
			fmt.Fprintf(&b, "%s: %v", indices[i], node.fstring(ind+"  "))
		}
	}
	fmt.Fprintf(&b, "\n%s] ", ind)
	return b.String()
}
func (n *shortNode) fstring(ind string) string {
	return fmt.Sprintf("{%x: %v} ", n.Key, n.Val.fstring(ind+"  "))
}
func (n hashNode) fstring(ind string) string {
	return fmt.Sprintf("<%x> ", []byte(n))
}
func (n valueNode) fstring(ind string) string {
	return fmt.Sprintf("%x ", []byte(n))
}

// Encoding. Children of collapsed nodes are either hash nodes, value nodes or
// nodes small enough to be embedded, which encode as nested lists.

func (n *fullNode) encode(e *rlp.Encoder) {
	e.StartList()
	for _, c := range n.Children {
		if c != nil {
			c.encode(e)
		} else {
			e.WriteBytes(nil)
		}
	}
	e.EndList()
}

func (n *shortNode) encode(e *rlp.Encoder) {
	e.StartList()
	e.WriteBytes(n.Key)
	if n.Val != nil {
		n.Val.encode(e)
	} else {
		e.WriteBytes(nil)
	}
	e.EndList()
}

func (n hashNode) encode(e *rlp.Encoder) {
	e.WriteBytes(n)
}

func (n valueNode) encode(e *rlp.Encoder) {
	e.WriteBytes(n)
}

// nodeToBytes returns the encoding of a collapsed node.
func nodeToBytes(n node) []byte {
	e := rlp.NewEncoder()
	n.encode(e)
	enc, err := e.Encoded()
	if err != nil {
		panic(fmt.Sprintf("trie: can't encode node %v: %v", n, err))
	}
	return enc
}

// mustDecodeNode is a wrapper of decodeNode and panic if any error is encountered.
func mustDecodeNode(hash, buf []byte) node {
	n, err := decodeNode(hash, buf)
	if err != nil {
		panic(fmt.Sprintf("node %x: %v", hash, err))
	}
	return n
}

// decodeNode parses the RLP encoding of a trie node. The returned node takes
// copies of everything it keeps, buf may be reused by the caller.
func decodeNode(hash, buf []byte) (node, error) {
	if len(buf) == 0 {
		return nil, io.ErrUnexpectedEOF
	}
	d := rlp.NewDecoder(buf)
	elems, err := d.List()
	if err != nil {
		return nil, fmt.Errorf("decode error: %w", err)
	}
	if err := d.Finish(); err != nil {
		return nil, fmt.Errorf("decode error: %w", err)
	}
	c, err := elems.Count()
	if err != nil {
		return nil, fmt.Errorf("decode error: %w", err)
	}
	switch c {
	case 2:
		n, err := decodeShort(hash, elems)
		return n, wrapError(err, "short")
	case 17:
		n, err := decodeFull(hash, elems)
		return n, wrapError(err, "full")
	default:
		return nil, fmt.Errorf("invalid number of list elements: %v", c)
	}
}

func decodeShort(hash []byte, elems rlp.Decoder) (node, error) {
	kbuf, err := elems.Bytes()
	if err != nil {
		return nil, err
	}
	flag := nodeFlag{hash: hash}
	key := compactToHex(kbuf)
	if hasTerm(key) {
		// value node
		val, err := elems.Bytes()
		if err != nil {
			return nil, fmt.Errorf("invalid value node: %v", err)
		}
		return &shortNode{key, valueNode(val), flag}, nil
	}
	r, err := decodeRef(&elems)
	if err != nil {
		return nil, wrapError(err, "val")
	}
	return &shortNode{key, r, flag}, nil
}

func decodeFull(hash []byte, elems rlp.Decoder) (*fullNode, error) {
	n := &fullNode{flags: nodeFlag{hash: hash}}
	for i := 0; i < 16; i++ {
		cld, err := decodeRef(&elems)
		if err != nil {
			return n, wrapError(err, fmt.Sprintf("[%d]", i))
		}
		n.Children[i] = cld
	}
	val, err := elems.Bytes()
	if err != nil {
		return n, err
	}
	if len(val) > 0 {
		n.Children[16] = valueNode(val)
	}
	return n, nil
}

func decodeRef(d *rlp.Decoder) (node, error) {
	kind, err := d.Kind()
	if err != nil {
		return nil, err
	}
	if kind == rlp.List {
		// 'embedded' node reference. The encoding must be smaller
		// than a hash in order to be valid.
		raw, err := d.Raw()
		if err != nil {
			return nil, err
		}
		if size := len(raw); size > hashLen {
			err := fmt.Errorf("oversized embedded node (size is %d bytes, want size < %d)", size, hashLen)
			return nil, err
		}
		return decodeNode(nil, raw)
	}
	val, err := d.Bytes()
	if err != nil {
		return nil, err
	}
	switch len(val) {
	case 0:
		// empty node
		return nil, nil
	case 32:
		return hashNode(val), nil
	default:
		return nil, fmt.Errorf("invalid RLP string size %d (want 0 or 32)", len(val))
	}
}

// wraps a decoding error with information about the path to the
// invalid child node (for debugging encoding issues).
type decodeError struct {
	what  error
	stack []string
}

func wrapError(err error, ctx string) error {
	if err == nil {
		return nil
	}
	if decErr, ok := err.(*decodeError); ok {
		decErr.stack = append(decErr.stack, ctx)
		return decErr
	}
	return &decodeError{err, []string{ctx}}
}

func (err *decodeError) Error() string {
	return fmt.Sprintf("%v (decode path: %s)", err.what, strings.Join(err.stack, "<-"))
}

func (err *decodeError) Unwrap() error { return err.what }
