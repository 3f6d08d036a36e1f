// Copyright 2016 The go-ethereum Authors
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
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/PigCharid/rlpnode/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestFullNode builds the RLP shape of a full node: sixteen 32-byte child
// references followed by the value.
func newTestFullNode(v []byte) []interface{} {
	fullNodeData := []interface{}{}
	for i := 0; i < 16; i++ {
		k := bytes.Repeat([]byte{byte(i + 1)}, 32)
		fullNodeData = append(fullNodeData, k)
	}
	fullNodeData = append(fullNodeData, v)
	return fullNodeData
}

func mustEncode(t *testing.T, v interface{}) []byte {
	t.Helper()
	enc, err := rlp.EncodeToBytes(v)
	require.NoError(t, err)
	return enc
}

func TestDecodeNestedNode(t *testing.T) {
	fullNodeData := newTestFullNode([]byte("fullnode"))

	data := [][]byte{}
	for i := 0; i < 16; i++ {
		data = append(data, nil)
	}
	data = append(data, []byte("subnode"))
	fullNodeData[15] = data

	n, err := decodeNode([]byte("testdecode"), mustEncode(t, fullNodeData))
	require.NoError(t, err)

	full, ok := n.(*fullNode)
	require.True(t, ok, "got %T", n)
	nested, ok := full.Children[15].(*fullNode)
	require.True(t, ok, "embedded child is %T", full.Children[15])
	assert.Equal(t, valueNode("subnode"), nested.Children[16])
	assert.Equal(t, valueNode("fullnode"), full.Children[16])
	assert.Equal(t, hashNode(bytes.Repeat([]byte{1}, 32)), full.Children[0])
}

func TestDecodeFullNodeWrongSizeChild(t *testing.T) {
	fullNodeData := newTestFullNode([]byte("wrongsizechild"))
	fullNodeData[0] = []byte("00")

	_, err := decodeNode([]byte("testdecode"), mustEncode(t, fullNodeData))
	var decErr *decodeError
	require.True(t, errors.As(err, &decErr), "decodeNode returned wrong err: %v", err)
	assert.Equal(t, []string{"[0]", "full"}, decErr.stack)
}

func TestDecodeFullNodeWrongNestedFullNode(t *testing.T) {
	fullNodeData := newTestFullNode([]byte("fullnode"))

	data := [][]byte{}
	for i := 0; i < 16; i++ {
		data = append(data, []byte("123456"))
	}
	data = append(data, []byte("subnode"))
	fullNodeData[15] = data

	_, err := decodeNode([]byte("testdecode"), mustEncode(t, fullNodeData))
	var decErr *decodeError
	require.True(t, errors.As(err, &decErr), "decodeNode returned wrong err: %v", err)
	assert.Contains(t, err.Error(), "oversized embedded node")
}

func TestDecodeFullNode(t *testing.T) {
	fullNodeData := newTestFullNode([]byte("decodefullnode"))

	n, err := decodeNode([]byte("testdecode"), mustEncode(t, fullNodeData))
	require.NoError(t, err)
	full := n.(*fullNode)
	hash, dirty := full.cache()
	assert.Equal(t, hashNode("testdecode"), hash)
	assert.False(t, dirty)
	assert.Equal(t, valueNode("decodefullnode"), full.Children[16])
}

func TestDecodeShortNode(t *testing.T) {
	leaf := &shortNode{Key: hexToCompact(keybytesToHex([]byte("dog"))), Val: valueNode("puppy")}
	n, err := decodeNode(nil, nodeToBytes(leaf))
	require.NoError(t, err)

	short, ok := n.(*shortNode)
	require.True(t, ok, "got %T", n)
	assert.Equal(t, keybytesToHex([]byte("dog")), short.Key)
	assert.Equal(t, valueNode("puppy"), short.Val)

	// An extension node refers to its child by hash.
	ref := bytes.Repeat([]byte{0xaa}, 32)
	ext := &shortNode{Key: hexToCompact([]byte{1, 2, 3}), Val: hashNode(ref)}
	n, err = decodeNode(nil, nodeToBytes(ext))
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, n.(*shortNode).Key)
	assert.Equal(t, hashNode(ref), n.(*shortNode).Val)
}

func TestDecodeNodeErrors(t *testing.T) {
	_, err := decodeNode(nil, nil)
	assert.Equal(t, io.ErrUnexpectedEOF, err)

	_, err = decodeNode(nil, mustEncode(t, []string{"a", "b", "c"}))
	assert.EqualError(t, err, "invalid number of list elements: 3")

	_, err = decodeNode(nil, []byte{0x83, 'd', 'o', 'g'})
	assert.ErrorIs(t, err, rlp.ErrExpectedList)

	// Trailing bytes after the node.
	enc := append(nodeToBytes(&shortNode{Key: []byte{0x20}, Val: valueNode("x")}), 0x00)
	_, err = decodeNode(nil, enc)
	assert.ErrorIs(t, err, rlp.ErrTrailingBytes)
}

func TestNodeString(t *testing.T) {
	n := &shortNode{Key: []byte{1, 2}, Val: valueNode("v")}
	assert.Contains(t, n.String(), "76")

	var full fullNode
	full.Children[3] = hashNode([]byte{0xde, 0xad})
	assert.Contains(t, full.String(), "3: <dead>")
}
