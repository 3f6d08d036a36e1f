// Copyright 2020 The go-ethereum Authors
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
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// committer is a type used for the trie Commit operation. It walks the dirty
// part of a hashed trie, stores every node that has its own hash into the
// trie database and returns the collapsed root.
type committer struct {
	db        *Database
	committed int
}

// committers live in a global sync.Pool
var committerPool = sync.Pool{
	New: func() interface{} {
		return &committer{}
	},
}

// newCommitter creates a new committer or picks one from the pool.
func newCommitter(db *Database) *committer {
	c := committerPool.Get().(*committer)
	c.db = db
	c.committed = 0
	return c
}

func returnCommitterToPool(c *committer) {
	c.db = nil
	committerPool.Put(c)
}

// Commit collapses a node down into a hash node and inserts it into the database
func (c *committer) Commit(n node) (hashNode, int, error) {
	h, err := c.commit(n)
	if err != nil {
		return nil, 0, err
	}
	return h.(hashNode), c.committed, nil
}

// commit collapses a node down into a hash node and inserts it into the database
func (c *committer) commit(n node) (node, error) {
	// if this path is clean, use available cached data
	hash, dirty := n.cache()
	if hash != nil && !dirty {
		return hash, nil
	}
	// Commit children, then parent, and remove the dirty flag.
	switch cn := n.(type) {
	case *shortNode:
		collapsed := cn.copy()

		// If the child is fullNode, recursively commit,
		// otherwise it can only be hashNode or valueNode.
		if _, ok := cn.Val.(*fullNode); ok {
			childV, err := c.commit(cn.Val)
			if err != nil {
				return nil, err
			}
			collapsed.Val = childV
		}
		// Compact the key in a copy, cn.Key may be shared with other nodes.
		key := common.CopyBytes(cn.Key)
		collapsed.Key = key[:hexToCompactInPlace(key)]
		return c.store(collapsed), nil
	case *fullNode:
		hashedKids, err := c.commitChildren(cn)
		if err != nil {
			return nil, err
		}
		collapsed := cn.copy()
		collapsed.Children = hashedKids
		return c.store(collapsed), nil
	case hashNode:
		return cn, nil
	default:
		// nil, valuenode shouldn't be committed
		panic(fmt.Sprintf("%T: invalid node: %v", n, n))
	}
}

// commitChildren commits the children of the given fullnode
func (c *committer) commitChildren(n *fullNode) ([17]node, error) {
	var children [17]node
	for i := 0; i < 16; i++ {
		child := n.Children[i]
		if child == nil {
			continue
		}
		if hn, ok := child.(hashNode); ok {
			children[i] = hn
			continue
		}
		// The returned node can be an embedded node, so it's possible
		// the type is not hashNode.
		hashed, err := c.commit(child)
		if err != nil {
			return children, err
		}
		children[i] = hashed
	}
	// For the 17th child, it's possible the type is valuenode.
	if n.Children[16] != nil {
		children[16] = n.Children[16]
	}
	return children, nil
}

// store hashes the node n and if we have a storage layer specified, it writes
// the key/value pair to it and tracks any node->child references as well as any
// node->external trie references.
func (c *committer) store(n node) node {
	// Larger nodes are replaced by their hash and stored in the database.
	hash, _ := n.cache()

	// This was not generated - must be a small node stored in the parent.
	if hash == nil {
		return n
	}
	c.db.insert(common.BytesToHash(hash), nodeToBytes(n))
	c.committed++
	return hash
}
