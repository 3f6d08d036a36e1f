// Copyright 2022 The go-ethereum Authors
// This file is part of go-ethereum.
//
// go-ethereum is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-ethereum is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-ethereum. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/PigCharid/rlpnode/rlp"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/require"
)

func dumpString(t *testing.T, input string, single bool) (string, error) {
	t.Helper()
	data, err := parseHex([]byte(input))
	require.NoError(t, err)
	var buf bytes.Buffer
	dp := &dumper{w: &buf, indent: "  "}
	err = dp.dump(data, single)
	return buf.String(), err
}

func TestDump(t *testing.T) {
	tests := []struct {
		input, output string
	}{
		{"", ""},
		{"80", "\"\"\n"},
		{"61", "\"a\"\n"},
		{"05", "0x05\n"},
		{"c0", "[\n]\n"},
		{"0x c8 83636174 83646f67", "[\n  \"cat\"\n  \"dog\"\n]\n"},
		{"c7c0c1c0c3c0c1c0", "[\n  [\n  ]\n  [\n    [\n    ]\n  ]\n  [\n    [\n    ]\n    [\n      [\n      ]\n    ]\n  ]\n]\n"},
		{"820400", "0x0400\n"},
		{"0102", "0x01\n0x02\n"},
		{"83222f5c", "\"\\\"/\\\\\"\n"},
	}
	for i, test := range tests {
		out, err := dumpString(t, test.input, false)
		require.NoError(t, err, "test %d", i)
		require.Equal(t, test.output, out, "test %d: input %s", i, test.input)
	}
}

func TestDumpErrors(t *testing.T) {
	out, err := dumpString(t, "0102", true)
	require.True(t, errors.Is(err, errSingle), "got %v", err)
	require.Empty(t, out)

	_, err = dumpString(t, "", true)
	require.True(t, errors.Is(err, errSingle), "got %v", err)

	// Malformed input fails before anything is printed.
	out, err = dumpString(t, "c0c3", true)
	require.True(t, errors.Is(err, rlp.ErrBufferUnderflow), "got %v", err)
	require.Empty(t, out)

	_, err = dumpString(t, "c3", false)
	require.True(t, errors.Is(err, rlp.ErrBufferUnderflow), "got %v", err)

	_, err = dumpString(t, "8100", false)
	require.True(t, errors.Is(err, rlp.ErrNonCanonicalLength), "got %v", err)

	_, err = dumpString(t, "c28001", true)
	require.NoError(t, err)
}

func TestDumpSpew(t *testing.T) {
	var buf bytes.Buffer
	dp := &dumper{w: &buf, spew: true}
	require.NoError(t, dp.dump(common.FromHex("c483636174"), true))
	require.Contains(t, buf.String(), "IsList: (bool) true")
	require.Contains(t, buf.String(), "63 61 74")
}

func TestReverse(t *testing.T) {
	for _, input := range []string{
		"80",
		"c0",
		"61",
		"7f",
		"8180",
		"c88363617483646f67",
		"c7c0c1c0c3c0c1c0",
		"0102c0",
		"b838" + strings.Repeat("61", 56),
		"f838" + strings.Repeat("01", 56),
	} {
		out, err := dumpString(t, input, false)
		require.NoError(t, err)
		enc, err := reverse(strings.NewReader(out))
		require.NoError(t, err, "dump of %s:\n%s", input, out)
		require.Equal(t, input, common.Bytes2Hex(enc))
	}
}

func TestReverseLongString(t *testing.T) {
	for _, size := range []int{40000, 200000} {
		input, err := rlp.EncodeToBytes(bytes.Repeat([]byte{0xfe}, size))
		require.NoError(t, err)
		input = append(input, 0xc0)

		var buf bytes.Buffer
		dp := &dumper{w: &buf, indent: "  "}
		require.NoError(t, dp.dump(input, false))
		enc, err := reverse(&buf)
		require.NoError(t, err, "size %d", size)
		require.Equal(t, input, enc, "size %d", size)
	}
}

func TestReverseRandomItems(t *testing.T) {
	f := fuzz.New().NilChance(0).NumElements(0, 8)
	for i := 0; i < 100; i++ {
		var leaves [][]byte
		f.Fuzz(&leaves)
		inner := make([]rlp.Item, len(leaves))
		for j, leaf := range leaves {
			inner[j] = rlp.StringItem(leaf)
		}
		it := rlp.ListItem(rlp.ListItem(inner...), rlp.StringItem(bytes.Join(leaves, nil)))
		enc, err := rlp.EncodeItem(it)
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, (&dumper{w: &buf, indent: "\t"}).dump(enc, true))
		back, err := reverse(&buf)
		require.NoError(t, err)
		require.Equal(t, hexutil.Encode(enc), hexutil.Encode(back))
	}
}

func TestReverseErrors(t *testing.T) {
	tests := []struct {
		input string
		err   error
	}{
		{"]", rlp.ErrUnmatchedEndList},
		{"[\n\"a\"\n", rlp.ErrUnclosedList},
		{"zz", hexutil.ErrMissingPrefix},
		{"0x1", hexutil.ErrOddLength},
	}
	for _, test := range tests {
		_, err := reverse(strings.NewReader(test.input))
		require.Error(t, err, "input %q", test.input)
		require.Contains(t, err.Error(), test.err.Error(), "input %q", test.input)
	}
	_, err := reverse(strings.NewReader("\"unterminated"))
	require.EqualError(t, err, "line 1: invalid string \"unterminated")
}

func TestParseHex(t *testing.T) {
	b, err := parseHex([]byte(" 0xc0 80\n"))
	require.NoError(t, err)
	require.Equal(t, []byte{0xc0, 0x80}, b)

	b, err = parseHex(nil)
	require.NoError(t, err)
	require.Empty(t, b)

	_, err = parseHex([]byte("abc"))
	require.Error(t, err)
}
