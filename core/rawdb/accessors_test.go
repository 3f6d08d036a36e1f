// Copyright 2018 The go-ethereum Authors
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
package rawdb

import (
	"bytes"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/PigCharid/rlpnode/core/types"
	"github.com/PigCharid/rlpnode/rlp"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Tests block header storage and retrieval operations.
func TestHeaderStorage(t *testing.T) {
	db := NewMemoryDatabase()

	// Create a test header to move around the database and make sure it's really new
	header := &types.Header{Number: big.NewInt(42), Difficulty: big.NewInt(1), Extra: []byte("test header")}
	assert.Nil(t, ReadHeader(db, header.Hash(), header.NumberU64()), "non existent header returned")
	assert.False(t, HasHeader(db, header.Hash(), header.NumberU64()))

	// Write and verify the header in the database
	WriteHeader(db, header)
	entry := ReadHeader(db, header.Hash(), header.NumberU64())
	require.NotNil(t, entry, "stored header not found")
	assert.Equal(t, header.Hash(), entry.Hash())
	assert.True(t, HasHeader(db, header.Hash(), header.NumberU64()))

	number := ReadHeaderNumber(db, header.Hash())
	require.NotNil(t, number)
	assert.Equal(t, uint64(42), *number)

	blob := ReadHeaderRLP(db, header.Hash(), header.NumberU64())
	require.NotNil(t, blob, "no RLP entry for header")
	assert.Equal(t, header.Hash(), crypto.Keccak256Hash(blob), "invalid RLP hash")

	// Delete the header and verify the execution
	DeleteHeader(db, header.Hash(), header.NumberU64())
	assert.Nil(t, ReadHeader(db, header.Hash(), header.NumberU64()), "deleted header returned")
	assert.Nil(t, ReadHeaderNumber(db, header.Hash()))
}

func TestCorruptHeader(t *testing.T) {
	db := NewMemoryDatabase()
	hash := common.Hash{1}
	require.NoError(t, db.Put(headerKey(7, hash), []byte{0xc1, 0x80}))
	assert.Nil(t, ReadHeader(db, hash, 7))
}

// Tests that canonical numbers can be mapped to hashes and retrieved.
func TestCanonicalMappingStorage(t *testing.T) {
	db := NewMemoryDatabase()

	hash, number := common.Hash{0: 0xff}, uint64(314)
	assert.Equal(t, common.Hash{}, ReadCanonicalHash(db, number), "non existent canonical mapping returned")

	WriteCanonicalHash(db, hash, number)
	assert.Equal(t, hash, ReadCanonicalHash(db, number))

	DeleteCanonicalHash(db, number)
	assert.Equal(t, common.Hash{}, ReadCanonicalHash(db, number), "deleted canonical mapping returned")
}

func TestHeadStorage(t *testing.T) {
	db := NewMemoryDatabase()
	assert.Equal(t, common.Hash{}, ReadHeadHeaderHash(db))

	head := common.HexToHash("0xdeadbeef")
	WriteHeadHeaderHash(db, head)
	assert.Equal(t, head, ReadHeadHeaderHash(db))
}

func TestChainConfigStorage(t *testing.T) {
	db := NewMemoryDatabase()
	hash := common.Hash{2}
	assert.Nil(t, ReadChainConfig(db, hash))

	WriteChainConfig(db, hash, nil)
	assert.Nil(t, ReadChainConfig(db, hash), "nil config must not be stored")

	WriteChainConfig(db, hash, params.AllEthashProtocolChanges)
	cfg := ReadChainConfig(db, hash)
	require.NotNil(t, cfg)
	assert.Equal(t, params.AllEthashProtocolChanges.ChainID, cfg.ChainID)
	require.NotNil(t, cfg.LondonBlock)
	assert.Zero(t, params.AllEthashProtocolChanges.LondonBlock.Cmp(cfg.LondonBlock))

	require.NoError(t, db.Put(configKey(hash), []byte("{")))
	assert.Nil(t, ReadChainConfig(db, hash), "invalid JSON")
}

func TestGenesisStateSpecStorage(t *testing.T) {
	db := NewMemoryDatabase()
	hash := common.Hash{3}
	assert.Nil(t, ReadGenesisStateSpec(db, hash))

	WriteGenesisStateSpec(db, hash, []byte(`{"aa":{"balance":"0x1"}}`))
	assert.Equal(t, []byte(`{"aa":{"balance":"0x1"}}`), ReadGenesisStateSpec(db, hash))
}

func TestTrieNodeStorage(t *testing.T) {
	db := NewMemoryDatabase()
	node := []byte{0xc2, 0x20, 0x01}
	hash := crypto.Keccak256Hash(node)

	assert.False(t, HasTrieNode(db, hash))
	WriteTrieNode(db, hash, node)
	assert.True(t, HasTrieNode(db, hash))
	assert.Equal(t, node, ReadTrieNode(db, hash))

	DeleteTrieNode(db, hash)
	assert.False(t, HasTrieNode(db, hash))
	assert.Nil(t, ReadTrieNode(db, hash))

	code := []byte{0x60, 0x00}
	codeHash := crypto.Keccak256Hash(code)
	WriteCode(db, codeHash, code)
	assert.Equal(t, code, ReadCode(db, codeHash))
}

func TestSchemaKeys(t *testing.T) {
	hash := common.HexToHash("0x0102")
	assert.Equal(t, append([]byte("h\x00\x00\x00\x00\x00\x00\x00\x01"), hash[:]...), headerKey(1, hash))
	assert.Equal(t, []byte("h\x00\x00\x00\x00\x00\x00\x00\x01n"), headerHashKey(1))
	assert.Equal(t, append([]byte("H"), hash[:]...), headerNumberKey(hash))
	assert.True(t, bytes.HasPrefix(configKey(hash), []byte("ethereum-config-")))
	assert.True(t, bytes.HasPrefix(genesisStateSpecKey(hash), []byte("ethereum-genesis-")))

	// Building keys must never clobber the shared prefixes.
	a, b := headerKey(1, common.Hash{1}), headerKey(2, common.Hash{2})
	assert.NotEqual(t, a, b)
	assert.Equal(t, []byte("h"), headerPrefix)
}

func TestLevelDBDatabase(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "chaindata")
	db, err := NewLevelDBDatabase(dir, 16, 16, "rlpnode/test/", false)
	require.NoError(t, err)

	header := &types.Header{Number: big.NewInt(0), Difficulty: big.NewInt(1)}
	WriteHeader(db, header)
	WriteCanonicalHash(db, header.Hash(), 0)
	require.NoError(t, db.Close())

	db, err = NewLevelDBDatabase(dir, 16, 16, "rlpnode/test/", true)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, header.Hash(), ReadCanonicalHash(db, 0))
	blob := ReadHeaderRLP(db, header.Hash(), 0)
	want, err := rlp.EncodeToBytes(header)
	require.NoError(t, err)
	assert.Equal(t, want, []byte(blob))
}
