// Copyright 2015 The go-ethereum Authors
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
	"math/big"
	"sync"
	"testing"

	"github.com/PigCharid/rlpnode/core/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEmptyStateTrie() *StateTrie {
	trie, _ := NewStateTrie(common.Hash{}, NewDatabase(memorydb.New()))
	return trie
}

// makeTestStateTrie creates a large enough secure trie for testing.
func makeTestStateTrie() (*Database, *StateTrie, map[string][]byte) {
	triedb := NewDatabase(memorydb.New())
	trie, _ := NewStateTrie(common.Hash{}, triedb)

	content := make(map[string][]byte)
	for i := byte(0); i < 255; i++ {
		// Map the same data under multiple keys
		key, val := common.LeftPadBytes([]byte{1, i}, 32), []byte{i}
		content[string(key)] = val
		trie.Update(key, val)

		key, val = common.LeftPadBytes([]byte{2, i}, 32), []byte{i}
		content[string(key)] = val
		trie.Update(key, val)

		// Add some other data to inflate the trie
		for j := byte(3); j < 13; j++ {
			key, val = common.LeftPadBytes([]byte{j, i}, 32), []byte{j, i}
			content[string(key)] = val
			trie.Update(key, val)
		}
	}
	trie.Commit()
	return triedb, trie, content
}

func TestSecureDelete(t *testing.T) {
	trie := newEmptyStateTrie()
	vals := []struct{ k, v string }{
		{"do", "verb"},
		{"ether", "wookiedoo"},
		{"horse", "stallion"},
		{"shaman", "horse"},
		{"doge", "coin"},
		{"ether", ""},
		{"dog", "puppy"},
		{"shaman", ""},
	}
	for _, val := range vals {
		if val.v != "" {
			trie.Update([]byte(val.k), []byte(val.v))
		} else {
			trie.Delete([]byte(val.k))
		}
	}
	exp := common.HexToHash("29b235a58c3c25ab83010c327d5932bcf05324b7d6b1185e650798034783ca9d")
	assert.Equal(t, exp, trie.Hash())
}

func TestSecureGetKey(t *testing.T) {
	trie := newEmptyStateTrie()
	trie.Update([]byte("foo"), []byte("bar"))

	key := []byte("foo")
	value := []byte("bar")
	seckey := crypto.Keccak256(key)

	assert.Equal(t, value, trie.Get(key))
	assert.Equal(t, key, trie.GetKey(seckey))

	_, _, err := trie.Commit()
	require.NoError(t, err)
	assert.Nil(t, trie.GetKey(seckey), "preimages are dropped on commit")
}

// Tests that a secure trie hashes to the same root as a plain trie keyed by
// keccak256 of the original keys.
func TestSecureMatchesHashedKeys(t *testing.T) {
	secure := newEmptyStateTrie()
	plain := newEmpty()
	for i := 0; i < 64; i++ {
		k := []byte(fmt.Sprintf("key-%d", i))
		v := []byte(fmt.Sprintf("value-%d", i*i))
		secure.Update(k, v)
		plain.Update(crypto.Keccak256(k), v)
	}
	assert.Equal(t, plain.Hash(), secure.Hash())
}

func TestSecureAccount(t *testing.T) {
	trie := newEmptyStateTrie()
	addr := common.HexToAddress("0x000000000000000000000000000000000000dead")
	acc := &types.StateAccount{Nonce: 1, Balance: big.NewInt(42), Root: EmptyRoot, CodeHash: types.EmptyCodeHash.Bytes()}
	require.NoError(t, trie.TryUpdateAccount(addr, acc))

	got, err := trie.TryGetAccount(addr)
	require.NoError(t, err)
	assert.Equal(t, acc, got)
	assert.Equal(t, addr.Bytes(), trie.GetKey(crypto.Keccak256(addr.Bytes())))
}

func TestSecureTrieCopy(t *testing.T) {
	_, trie, content := makeTestStateTrie()
	root := trie.Hash()

	cpy := trie.Copy()
	for key := range content {
		cpy.Delete([]byte(key))
	}
	assert.Equal(t, EmptyRoot, cpy.Hash())
	assert.Equal(t, root, trie.Hash(), "copy must not affect the original")
}

func TestSecureTrieConcurrency(t *testing.T) {
	// Create an initial trie and copy if for concurrent access
	_, trie, _ := makeTestStateTrie()

	threads := 4
	tries := make([]*StateTrie, threads)
	for i := 0; i < threads; i++ {
		tries[i] = trie.Copy()
	}
	// Start a batch of goroutines interacting with the trie
	pend := new(sync.WaitGroup)
	pend.Add(threads)
	for i := 0; i < threads; i++ {
		go func(index int) {
			defer pend.Done()

			for j := byte(0); j < 255; j++ {
				// Map the same data under multiple keys
				key, val := common.LeftPadBytes([]byte{byte(index), 1, j}, 32), []byte{j}
				tries[index].Update(key, val)

				key, val = common.LeftPadBytes([]byte{byte(index), 2, j}, 32), []byte{j}
				tries[index].Update(key, val)

				// Add some other data to inflate the trie
				for k := byte(3); k < 13; k++ {
					key, val = common.LeftPadBytes([]byte{byte(index), k, j}, 32), []byte{k, j}
					tries[index].Update(key, val)
				}
			}
			tries[index].Commit()
		}(i)
	}
	// Wait for all threads to finish
	pend.Wait()
}
