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
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/PigCharid/rlpnode/rlp"
	"github.com/davecgh/go-spew/spew"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var errSingle = errors.New("input must contain exactly one value")

// maxLineSize bounds a single dump line. Strings are printed on one line,
// so this is about twice the longest string reverse can read back.
const maxLineSize = math.MaxInt32

// dumper prints decoded values as an indented tree, one token per line:
// "[" and "]" delimit lists, printable strings are quoted and all other
// strings are 0x-prefixed hex.
type dumper struct {
	w      io.Writer
	indent string
	spew   bool
}

func (dp *dumper) dump(data []byte, single bool) error {
	d := rlp.NewDecoder(data)
	if single {
		n, err := d.Count()
		if err != nil {
			return err
		}
		if n != 1 {
			return fmt.Errorf("%w, found %d", errSingle, n)
		}
	}
	for d.More() {
		if dp.spew {
			it, err := d.Item()
			if err != nil {
				return err
			}
			spew.Fdump(dp.w, it)
			continue
		}
		if err := dp.value(&d, 0); err != nil {
			return err
		}
	}
	return nil
}

func (dp *dumper) value(d *rlp.Decoder, depth int) error {
	k, err := d.Kind()
	if err != nil {
		return err
	}
	pad := strings.Repeat(dp.indent, depth)
	if k != rlp.List {
		b, err := d.BytesView()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(dp.w, "%s%s\n", pad, formatString(b))
		return err
	}
	sub, err := d.List()
	if err != nil {
		return err
	}
	fmt.Fprintf(dp.w, "%s[\n", pad)
	for sub.More() {
		if err := dp.value(&sub, depth+1); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(dp.w, "%s]\n", pad)
	return err
}

func formatString(b []byte) string {
	if len(b) == 0 {
		return `""`
	}
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return hexutil.Encode(b)
		}
	}
	return strconv.Quote(string(b))
}

// reverse parses the output of dump and returns the encoding of every
// top-level value in it, concatenated.
func reverse(r io.Reader) ([]byte, error) {
	var (
		out  []byte
		enc  = rlp.NewEncoder()
		scan = bufio.NewScanner(r)
		line int
	)
	scan.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	flush := func() error {
		if enc.Depth() > 0 {
			return nil
		}
		b, err := enc.Encoded()
		if err != nil {
			return err
		}
		out = append(out, b...)
		enc.Reset()
		return nil
	}
	for scan.Scan() {
		line++
		tok := strings.TrimSpace(scan.Text())
		var err error
		switch {
		case tok == "":
			continue
		case tok == "[":
			err = enc.StartList()
		case tok == "]":
			if err = enc.EndList(); err == nil {
				err = flush()
			}
		default:
			var b []byte
			if b, err = parseString(tok); err == nil {
				if err = enc.WriteBytes(b); err == nil {
					err = flush()
				}
			}
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %v", line, err)
		}
	}
	if err := scan.Err(); err != nil {
		return nil, err
	}
	if enc.Depth() > 0 {
		return nil, rlp.ErrUnclosedList
	}
	if out == nil {
		out = []byte{}
	}
	return out, nil
}

func parseString(tok string) ([]byte, error) {
	if strings.HasPrefix(tok, `"`) {
		s, err := strconv.Unquote(tok)
		if err != nil {
			return nil, fmt.Errorf("invalid string %s", tok)
		}
		return []byte(s), nil
	}
	return hexutil.Decode(tok)
}

// parseHex decodes hex input, ignoring whitespace and an optional 0x prefix.
func parseHex(input []byte) ([]byte, error) {
	s := string(bytes.Join(bytes.Fields(input), nil))
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return hexutil.Decode("0x" + s)
}
