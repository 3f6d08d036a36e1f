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

package types

import (
	"fmt"

	"github.com/PigCharid/rlpnode/rlp"
	"github.com/ethereum/go-ethereum/common"
)

// Log represents a contract log event. These events are generated by the LOG opcode and
// stored/indexed by the node.
//
// Only the consensus fields are encoded: [address, [topic...], data].
type Log struct {
	// address of the contract that generated the event
	Address common.Address `json:"address" gencodec:"required"`
	// list of topics provided by the contract.
	Topics []common.Hash `json:"topics" gencodec:"required"`
	// supplied by the contract, usually ABI-encoded
	Data []byte `json:"data" gencodec:"required"`
}

// EncodeRLP implements rlp.Marshaler.
func (l *Log) EncodeRLP(e *rlp.Encoder) error {
	return e.InList(func() error {
		e.WriteBytes(l.Address[:])
		e.StartList()
		for i := range l.Topics {
			e.WriteBytes(l.Topics[i][:])
		}
		e.EndList()
		return e.WriteBytes(l.Data)
	})
}

// DecodeRLP implements rlp.Unmarshaler.
func (l *Log) DecodeRLP(d *rlp.Decoder) error {
	fields, err := d.List()
	if err != nil {
		return err
	}
	if err := fields.ReadBytes(l.Address[:]); err != nil {
		return fmt.Errorf("log address: %w", err)
	}
	topics, err := fields.List()
	if err != nil {
		return fmt.Errorf("log topics: %w", err)
	}
	l.Topics = nil
	for topics.More() {
		var h common.Hash
		if err := topics.ReadBytes(h[:]); err != nil {
			return fmt.Errorf("log topic %d: %w", len(l.Topics), err)
		}
		l.Topics = append(l.Topics, h)
	}
	if l.Data, err = fields.Bytes(); err != nil {
		return fmt.Errorf("log data: %w", err)
	}
	return fields.Finish()
}
