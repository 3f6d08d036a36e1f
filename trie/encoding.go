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

// Keys move through three encodings.
//
// KEYBYTES is the raw key as handed to Trie.Get and friends.
//
// HEX splits every key byte into two nibbles and appends the terminator 16
// when the key leads to a value. Nodes in memory use this form because a
// nibble indexes straight into fullNode.Children.
//
// COMPACT ("hex prefix" in the yellow paper) is what shortNode keys look like
// once RLP encoded. The high nibble of the first byte holds two flags: bit 1
// for a terminated key and bit 0 for an odd nibble count. With an odd count the
// first nibble rides in the low half of the flag byte, the rest are packed two
// per byte.
//
// 内存中用HEX编码，写入磁盘的节点用COMPACT编码

const terminator = 16

const (
	flagOdd  = 1 << 4
	flagLeaf = 1 << 5
)

func hexToCompact(hex []byte) []byte {
	var flags byte
	if hasTerm(hex) {
		flags = flagLeaf
		hex = hex[:len(hex)-1]
	}
	out := make([]byte, len(hex)/2+1)
	if len(hex)%2 == 1 {
		flags |= flagOdd | hex[0]
		hex = hex[1:]
	}
	out[0] = flags
	packNibbles(hex, out[1:])
	return out
}

// hexToCompactInPlace writes the compact form of hex over hex itself and
// returns its length. The input is clobbered.
func hexToCompactInPlace(hex []byte) int {
	n := len(hex)
	var flags byte
	if hasTerm(hex) {
		flags = flagLeaf
		n--
	}
	src := 0
	if n%2 == 1 {
		flags |= flagOdd | hex[0]
		src = 1
	}
	dst := 1
	for ; src < n; src += 2 {
		hex[dst] = hex[src]<<4 | hex[src+1]
		dst++
	}
	hex[0] = flags
	return n/2 + 1
}

func compactToHex(compact []byte) []byte {
	if len(compact) == 0 {
		return compact
	}
	hex := keybytesToHex(compact)
	// hex[0] is the flag nibble. Extension keys drop the terminator.
	if hex[0]&(flagLeaf>>4) == 0 {
		hex = hex[:len(hex)-1]
	}
	// Skip the flag nibble, and the zero padding nibble for even keys.
	if hex[0]&(flagOdd>>4) != 0 {
		return hex[1:]
	}
	return hex[2:]
}

func keybytesToHex(key []byte) []byte {
	hex := make([]byte, 2*len(key)+1)
	for i, b := range key {
		hex[2*i] = b >> 4
		hex[2*i+1] = b & 0x0f
	}
	hex[len(hex)-1] = terminator
	return hex
}

func packNibbles(nibbles []byte, dst []byte) {
	for i := 0; i+1 < len(nibbles); i += 2 {
		dst[i/2] = nibbles[i]<<4 | nibbles[i+1]
	}
}

// prefixLen returns the length of the common prefix of a and b.
func prefixLen(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

// hasTerm returns whether a hex key has the terminator flag.
func hasTerm(s []byte) bool {
	return len(s) > 0 && s[len(s)-1] == terminator
}
