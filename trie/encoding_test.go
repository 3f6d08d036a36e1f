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
	"bytes"
	"encoding/hex"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHexCompact(t *testing.T) {
	tests := []struct{ hex, compact []byte }{
		// empty keys, with and without terminator.
		{hex: []byte{}, compact: []byte{0x00}},
		{hex: []byte{16}, compact: []byte{0x20}},
		// odd length, no terminator
		{hex: []byte{1, 2, 3, 4, 5}, compact: []byte{0x11, 0x23, 0x45}},
		// even length, no terminator
		{hex: []byte{0, 1, 2, 3, 4, 5}, compact: []byte{0x00, 0x01, 0x23, 0x45}},
		// odd length, terminator
		{hex: []byte{15, 1, 12, 11, 8, 16}, compact: []byte{0x3f, 0x1c, 0xb8}},
		// even length, terminator
		{hex: []byte{0, 15, 1, 12, 11, 8, 16}, compact: []byte{0x20, 0x0f, 0x1c, 0xb8}},
	}
	for _, test := range tests {
		assert.Equal(t, test.compact, hexToCompact(test.hex), "hexToCompact(%x)", test.hex)
		assert.Equal(t, test.hex, compactToHex(test.compact), "compactToHex(%x)", test.compact)
	}
}

func TestKeybytesToHex(t *testing.T) {
	tests := []struct{ key, hex []byte }{
		{key: []byte{}, hex: []byte{16}},
		{key: []byte{0x12, 0x34, 0x56}, hex: []byte{1, 2, 3, 4, 5, 6, 16}},
		{key: []byte{0x12, 0x34, 0x5}, hex: []byte{1, 2, 3, 4, 0, 5, 16}},
	}
	for _, test := range tests {
		assert.Equal(t, test.hex, keybytesToHex(test.key), "keybytesToHex(%x)", test.key)
	}
	// A leaf key survives the round trip through compact form.
	key := []byte{0xde, 0xad}
	assert.Equal(t, keybytesToHex(key), compactToHex(hexToCompact(keybytesToHex(key))))
}

func TestHexToCompactInPlace(t *testing.T) {
	for i, keyS := range []string{
		"00",
		"060a040c0f000a090b040803010801010900080d090a0a0d0903000b10",
		"10",
	} {
		hexBytes, _ := hex.DecodeString(keyS)
		exp := hexToCompact(hexBytes)
		sz := hexToCompactInPlace(hexBytes)
		assert.Equal(t, exp, hexBytes[:sz], "test %d: input %v", i, keyS)
	}
}

func TestHexToCompactInPlaceRandom(t *testing.T) {
	for i := 0; i < 10000; i++ {
		key := make([]byte, rand.Intn(128))
		rand.Read(key)
		hexBytes := keybytesToHex(key)
		hexOrig := copyBytes(hexBytes)
		exp := hexToCompact(hexBytes)
		sz := hexToCompactInPlace(hexBytes)
		if got := hexBytes[:sz]; !bytes.Equal(exp, got) {
			t.Fatalf("encoding err\ncpt %x\nhex %x\ngot %x\nexp %x\n", key, hexOrig, got, exp)
		}
	}
}

func TestPrefixLen(t *testing.T) {
	assert.Equal(t, 0, prefixLen(nil, []byte{1}))
	assert.Equal(t, 2, prefixLen([]byte{1, 2, 3}, []byte{1, 2, 4}))
	assert.Equal(t, 2, prefixLen([]byte{1, 2}, []byte{1, 2, 4}))
}

func copyBytes(b []byte) []byte { return append([]byte{}, b...) }

func BenchmarkHexToCompact(b *testing.B) {
	testBytes := []byte{0, 15, 1, 12, 11, 8, 16 /*term*/}
	for i := 0; i < b.N; i++ {
		hexToCompact(testBytes)
	}
}

func BenchmarkCompactToHex(b *testing.B) {
	testBytes := []byte{0, 15, 1, 12, 11, 8, 16 /*term*/}
	for i := 0; i < b.N; i++ {
		compactToHex(testBytes)
	}
}

func BenchmarkKeybytesToHex(b *testing.B) {
	testBytes := []byte{7, 6, 6, 5, 7, 2, 6, 2, 16}
	for i := 0; i < b.N; i++ {
		keybytesToHex(testBytes)
	}
}
