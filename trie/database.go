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
package trie

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/PigCharid/rlpnode/core/rawdb"
	"github.com/VictoriaMetrics/fastcache"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/log"
)

// Config defines all necessary options for database.
type Config struct {
	Cache int // Memory allowance (MB) to use for caching trie nodes in memory
}

// Database is an intermediate write layer between the trie data structures and
// the disk database. The aim is to accumulate trie writes in-memory and only
// periodically flush a couple tries to disk.
type Database struct {
	diskdb ethdb.KeyValueStore // Persistent storage for matured trie nodes

	cleans      *fastcache.Cache       // GC friendly memory cache of clean node RLPs
	dirties     map[common.Hash][]byte // Data and references relationships of dirty trie nodes
	dirtiesSize common.StorageSize     // Storage size of the dirty node cache

	lock sync.RWMutex
}

// NewDatabase creates a new trie database to store ephemeral trie content before
// its written out to disk or garbage collected. No read cache is created, so all
// data retrievals will hit the underlying disk database.
func NewDatabase(diskdb ethdb.KeyValueStore) *Database {
	return NewDatabaseWithConfig(diskdb, nil)
}

// NewDatabaseWithConfig creates a new trie database to store ephemeral trie content
// before its written out to disk or garbage collected. It also acts as a read cache
// for nodes loaded from disk.
func NewDatabaseWithConfig(diskdb ethdb.KeyValueStore, config *Config) *Database {
	var cleans *fastcache.Cache
	if config != nil && config.Cache > 0 {
		cleans = fastcache.New(config.Cache * 1024 * 1024)
	}
	return &Database{
		diskdb:  diskdb,
		cleans:  cleans,
		dirties: make(map[common.Hash][]byte),
	}
}

// DiskDB retrieves the persistent storage backing the trie database.
func (db *Database) DiskDB() ethdb.KeyValueStore {
	return db.diskdb
}

// insert inserts a collapsed trie node into the memory database. The blob is
// copied, the caller may reuse it.
func (db *Database) insert(hash common.Hash, blob []byte) {
	db.lock.Lock()
	defer db.lock.Unlock()

	if _, ok := db.dirties[hash]; ok {
		return
	}
	db.dirties[hash] = common.CopyBytes(blob)
	db.dirtiesSize += common.StorageSize(common.HashLength + len(blob))
}

// node retrieves a cached trie node from memory, or returns nil if none can be
// found in the memory cache.
func (db *Database) node(hash common.Hash) node {
	enc, err := db.Node(hash)
	if err != nil {
		return nil
	}
	return mustDecodeNode(hash[:], enc)
}

// Node retrieves an encoded cached trie node from memory. If it cannot be found
// cached, the method queries the persistent database for the content.
func (db *Database) Node(hash common.Hash) ([]byte, error) {
	// It doesn't make sense to retrieve the metaroot
	if hash == (common.Hash{}) {
		return nil, errors.New("not found")
	}
	// Retrieve the node from the clean cache if available
	if db.cleans != nil {
		if enc := db.cleans.Get(nil, hash[:]); enc != nil {
			return enc, nil
		}
	}
	// Retrieve the node from the dirty cache if available
	db.lock.RLock()
	dirty := db.dirties[hash]
	db.lock.RUnlock()

	if dirty != nil {
		return common.CopyBytes(dirty), nil
	}
	// Content unavailable in memory, attempt to retrieve from disk
	enc := rawdb.ReadTrieNode(db.diskdb, hash)
	if len(enc) != 0 {
		if db.cleans != nil {
			db.cleans.Set(hash[:], enc)
		}
		return enc, nil
	}
	return nil, errors.New("not found")
}

// Size returns the current storage size of the memory cache in front of the
// persistent database layer.
func (db *Database) Size() common.StorageSize {
	db.lock.RLock()
	defer db.lock.RUnlock()

	return db.dirtiesSize
}

// Commit iterates over all the children of a particular node, writes them out
// to disk and moves them from the dirty set into the clean cache. Nodes already
// flushed are not visited again.
func (db *Database) Commit(node common.Hash, report bool) error {
	start := time.Now()
	batch := db.diskdb.NewBatch()

	db.lock.RLock()
	var (
		committed []common.Hash
		size      common.StorageSize
	)
	err := db.commit(node, batch, func(hash common.Hash, blob []byte) {
		committed = append(committed, hash)
		size += common.StorageSize(common.HashLength + len(blob))
	})
	db.lock.RUnlock()
	if err != nil {
		log.Error("Failed to commit trie from trie database", "err", err)
		return err
	}
	if err := batch.Write(); err != nil {
		log.Error("Failed to write trie to disk", "err", err)
		return err
	}
	db.lock.Lock()
	for _, hash := range committed {
		blob, ok := db.dirties[hash]
		if !ok {
			continue
		}
		if db.cleans != nil {
			db.cleans.Set(hash[:], blob)
		}
		delete(db.dirties, hash)
		db.dirtiesSize -= common.StorageSize(common.HashLength + len(blob))
	}
	live, liveSize := len(db.dirties), db.dirtiesSize
	db.lock.Unlock()

	logger := log.Info
	if !report {
		logger = log.Debug
	}
	logger("Persisted trie from memory database", "nodes", len(committed), "size", size, "time", time.Since(start),
		"livenodes", live, "livesize", liveSize)
	return nil
}

// commit is the private locked version of Commit. Children are written before
// their parent so a crash never leaves a dangling reference on disk.
func (db *Database) commit(hash common.Hash, batch ethdb.Batch, onCommit func(common.Hash, []byte)) error {
	blob, ok := db.dirties[hash]
	if !ok {
		return nil
	}
	n, err := decodeNode(hash[:], blob)
	if err != nil {
		return fmt.Errorf("dirty node %x: %w", hash, err)
	}
	var childErr error
	forGatherChildren(n, func(child common.Hash) {
		if childErr == nil {
			childErr = db.commit(child, batch, onCommit)
		}
	})
	if childErr != nil {
		return childErr
	}
	rawdb.WriteTrieNode(batch, hash, blob)
	onCommit(hash, blob)
	if batch.ValueSize() >= ethdb.IdealBatchSize {
		if err := batch.Write(); err != nil {
			return err
		}
		batch.Reset()
	}
	return nil
}

// forGatherChildren traverses the node hierarchy of a collapsed storage node and
// invokes the callback for all the hashnode children.
func forGatherChildren(n node, onChild func(hash common.Hash)) {
	switch n := n.(type) {
	case *shortNode:
		forGatherChildren(n.Val, onChild)
	case *fullNode:
		for i := 0; i < 16; i++ {
			forGatherChildren(n.Children[i], onChild)
		}
	case hashNode:
		onChild(common.BytesToHash(n))
	case valueNode, nil:
	default:
		panic(fmt.Sprintf("unknown node type: %T", n))
	}
}
