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
	"math/big"
	"testing"
)

type benchRecord struct {
	Nonce    uint64
	GasPrice *big.Int
	To       [20]byte
	Data     []byte
	Items    []uint64
}

func newBenchRecord() *benchRecord {
	items := make([]uint64, 64)
	for i := range items {
		items[i] = uint64(i * 1000)
	}
	return &benchRecord{
		Nonce:    42,
		GasPrice: big.NewInt(20_000_000_000),
		Data:     make([]byte, 200),
		Items:    items,
	}
}

func BenchmarkEncoderBuilder(b *testing.B) {
	rec := newBenchRecord()
	e := NewEncoder()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		e.Reset()
		e.StartList()
		e.WriteUint64(rec.Nonce)
		e.WriteBigInt(rec.GasPrice)
		e.WriteBytes(rec.To[:])
		e.WriteBytes(rec.Data)
		e.StartList()
		for _, x := range rec.Items {
			e.WriteUint64(x)
		}
		e.EndList()
		e.EndList()
		if _, err := e.Encoded(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEncodeReflect(b *testing.B) {
	rec := newBenchRecord()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := EncodeToBytes(rec); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecodeReflect(b *testing.B) {
	enc, err := EncodeToBytes(newBenchRecord())
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var rec benchRecord
		if err := DecodeBytes(enc, &rec); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecoderSkip(b *testing.B) {
	enc, err := EncodeToBytes(newBenchRecord())
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d := NewDecoder(enc)
		l, err := d.List()
		if err != nil {
			b.Fatal(err)
		}
		if _, err := l.Count(); err != nil {
			b.Fatal(err)
		}
	}
}
