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

// Package types contains data types related to Ethereum consensus.
package types

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/PigCharid/rlpnode/rlp"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// A BlockNonce is a 64-bit hash which proves (combined with the
// mix-hash) that a sufficient amount of computation has been carried
// out on a block.
type BlockNonce [8]byte

// EncodeNonce converts the given integer to a block nonce.
func EncodeNonce(i uint64) BlockNonce {
	var n BlockNonce
	binary.BigEndian.PutUint64(n[:], i)
	return n
}

// Uint64 returns the integer value of a block nonce.
func (n BlockNonce) Uint64() uint64 {
	return binary.BigEndian.Uint64(n[:])
}

// MarshalText encodes n as a hex string with 0x prefix.
func (n BlockNonce) MarshalText() ([]byte, error) {
	return hexutil.Bytes(n[:]).MarshalText()
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *BlockNonce) UnmarshalText(input []byte) error {
	return hexutil.UnmarshalFixedText("BlockNonce", input, n[:])
}

const (
	// BloomByteLength represents the number of bytes used in a header log bloom.
	BloomByteLength = 256
)

// Bloom represents a 2048 bit bloom filter.
type Bloom [BloomByteLength]byte

// Bytes returns the backing byte slice of the bloom
func (b Bloom) Bytes() []byte {
	return b[:]
}

// Header represents a block header in the Ethereum blockchain.
type Header struct {
	ParentHash  common.Hash    `json:"parentHash"       gencodec:"required"`
	UncleHash   common.Hash    `json:"sha3Uncles"       gencodec:"required"`
	Coinbase    common.Address `json:"miner"`
	Root        common.Hash    `json:"stateRoot"        gencodec:"required"`
	TxHash      common.Hash    `json:"transactionsRoot" gencodec:"required"`
	ReceiptHash common.Hash    `json:"receiptsRoot"     gencodec:"required"`
	Bloom       Bloom          `json:"logsBloom"        gencodec:"required"`
	Difficulty  *big.Int       `json:"difficulty"       gencodec:"required"`
	Number      *big.Int       `json:"number"           gencodec:"required"`
	GasLimit    uint64         `json:"gasLimit"         gencodec:"required"`
	GasUsed     uint64         `json:"gasUsed"          gencodec:"required"`
	Time        uint64         `json:"timestamp"        gencodec:"required"`
	Extra       []byte         `json:"extraData"        gencodec:"required"`
	MixDigest   common.Hash    `json:"mixHash"`
	Nonce       BlockNonce     `json:"nonce"`

	// BaseFee was added by EIP-1559 and is ignored in legacy headers.
	BaseFee *big.Int `json:"baseFeePerGas" rlp:"optional"`
}

// EncodeRLP writes the header as an RLP list in consensus field order. The
// base fee is only present in post-London headers.
func (h *Header) EncodeRLP(e *rlp.Encoder) error {
	return e.InList(func() error {
		e.WriteBytes(h.ParentHash[:])
		e.WriteBytes(h.UncleHash[:])
		e.WriteBytes(h.Coinbase[:])
		e.WriteBytes(h.Root[:])
		e.WriteBytes(h.TxHash[:])
		e.WriteBytes(h.ReceiptHash[:])
		e.WriteBytes(h.Bloom[:])
		e.WriteBigInt(h.Difficulty)
		e.WriteBigInt(h.Number)
		e.WriteUint64(h.GasLimit)
		e.WriteUint64(h.GasUsed)
		e.WriteUint64(h.Time)
		e.WriteBytes(h.Extra)
		e.WriteBytes(h.MixDigest[:])
		e.WriteBytes(h.Nonce[:])
		if h.BaseFee != nil {
			e.WriteBigInt(h.BaseFee)
		}
		return e.Err()
	})
}

// DecodeRLP reads a header written by EncodeRLP.
func (h *Header) DecodeRLP(d *rlp.Decoder) error {
	l, err := d.List()
	if err != nil {
		return err
	}
	fixed := []struct {
		name string
		dst  []byte
	}{
		{"ParentHash", h.ParentHash[:]},
		{"UncleHash", h.UncleHash[:]},
		{"Coinbase", h.Coinbase[:]},
		{"Root", h.Root[:]},
		{"TxHash", h.TxHash[:]},
		{"ReceiptHash", h.ReceiptHash[:]},
		{"Bloom", h.Bloom[:]},
	}
	for _, f := range fixed {
		if err := l.ReadBytes(f.dst); err != nil {
			return fmt.Errorf("header %s: %w", f.name, err)
		}
	}
	if h.Difficulty, err = l.BigInt(); err != nil {
		return fmt.Errorf("header Difficulty: %w", err)
	}
	if h.Number, err = l.BigInt(); err != nil {
		return fmt.Errorf("header Number: %w", err)
	}
	if h.GasLimit, err = l.Uint64(); err != nil {
		return fmt.Errorf("header GasLimit: %w", err)
	}
	if h.GasUsed, err = l.Uint64(); err != nil {
		return fmt.Errorf("header GasUsed: %w", err)
	}
	if h.Time, err = l.Uint64(); err != nil {
		return fmt.Errorf("header Time: %w", err)
	}
	if h.Extra, err = l.Bytes(); err != nil {
		return fmt.Errorf("header Extra: %w", err)
	}
	if err := l.ReadBytes(h.MixDigest[:]); err != nil {
		return fmt.Errorf("header MixDigest: %w", err)
	}
	if err := l.ReadBytes(h.Nonce[:]); err != nil {
		return fmt.Errorf("header Nonce: %w", err)
	}
	h.BaseFee = nil
	if l.More() {
		if h.BaseFee, err = l.BigInt(); err != nil {
			return fmt.Errorf("header BaseFee: %w", err)
		}
	}
	return l.Finish()
}

// Hash returns the block hash of the header, which is simply the keccak256 hash of its
// RLP encoding.
func (h *Header) Hash() common.Hash {
	return rlpHash(h)
}

// NumberU64 returns the block number as a uint64.
func (h *Header) NumberU64() uint64 {
	if h.Number == nil {
		return 0
	}
	return h.Number.Uint64()
}

// Size returns the approximate memory used by all internal contents. It is used
// to approximate and limit the memory consumption of various caches.
func (h *Header) Size() common.StorageSize {
	var baseFeeBits int
	if h.BaseFee != nil {
		baseFeeBits = h.BaseFee.BitLen()
	}
	return common.StorageSize(headerSize) + common.StorageSize(len(h.Extra)+(bitLen(h.Difficulty)+bitLen(h.Number)+baseFeeBits)/8)
}

var headerSize = common.StorageSize(8*3 + 32*6 + 20 + BloomByteLength + 8)

func bitLen(x *big.Int) int {
	if x == nil {
		return 0
	}
	return x.BitLen()
}

// CopyHeader creates a deep copy of a block header.
func CopyHeader(h *Header) *Header {
	cpy := *h
	if cpy.Difficulty = new(big.Int); h.Difficulty != nil {
		cpy.Difficulty.Set(h.Difficulty)
	}
	if cpy.Number = new(big.Int); h.Number != nil {
		cpy.Number.Set(h.Number)
	}
	if h.BaseFee != nil {
		cpy.BaseFee = new(big.Int).Set(h.BaseFee)
	}
	if len(h.Extra) > 0 {
		cpy.Extra = make([]byte, len(h.Extra))
		copy(cpy.Extra, h.Extra)
	}
	return &cpy
}
