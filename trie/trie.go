// Copyright 2016 The go-ethereum Authors
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
	"bytes"
	"errors"
	"fmt"

	"github.com/PigCharid/rlpnode/core/types"
	"github.com/PigCharid/rlpnode/rlp"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
)

// EmptyRoot is the known root hash of an empty trie.
// 空trie的根哈希, 即keccak256(rlp(""))
var EmptyRoot = types.EmptyRootHash

// Trie is a Merkle Patricia Trie over a node Database. Nodes below the root
// are loaded lazily when an operation reaches them; modified nodes stay in
// memory until Commit.
//
// Trie is not safe for concurrent use.
type Trie struct {
	db   *Database
	root node

	// Leaves written since the last hash. Large batches are hashed in
	// parallel.
	// 自上次哈希以来插入的叶子数, 超过100时并行计算哈希
	unhashed int
}

// New opens the trie with the given root in db. A zero or EmptyRoot root
// yields an empty trie; any other root must be present in db, or a
// *MissingNodeError is returned.
// 从数据库中按root恢复出根节点, 其余节点在访问时按需加载
func New(root common.Hash, db *Database) (*Trie, error) {
	if db == nil {
		panic("trie.New called without a database")
	}
	t := &Trie{db: db}
	if root == (common.Hash{}) || root == EmptyRoot {
		return t, nil
	}
	rn, err := t.resolveHash(root[:], nil)
	if err != nil {
		return nil, err
	}
	t.root = rn
	return t, nil
}

// NewEmpty returns an empty trie backed by db.
func NewEmpty(db *Database) *Trie {
	return &Trie{db: db}
}

// Copy returns an independent trie sharing the unmodified nodes of t.
func (t *Trie) Copy() *Trie {
	cpy := *t
	return &cpy
}

func (t *Trie) newFlag() nodeFlag {
	return nodeFlag{dirty: true}
}

// Reset empties the trie.
func (t *Trie) Reset() {
	t.root = nil
	t.unhashed = 0
}

// Get returns the value stored under key, or nil. Errors are logged.
// The returned slice must not be modified.
func (t *Trie) Get(key []byte) []byte {
	value, err := t.TryGet(key)
	if err != nil {
		log.Error("Unhandled trie error", "err", err)
	}
	return value
}

// TryGet returns the value stored under key, or nil. A *MissingNodeError
// is returned if a node on the path is not in the database.
// The returned slice must not be modified.
func (t *Trie) TryGet(key []byte) ([]byte, error) {
	value, expanded, err := t.get(t.root, keybytesToHex(key), 0)
	if err == nil && expanded != nil {
		t.root = expanded
	}
	return value, err
}

// get looks up key[pos:] below n. When hash nodes on the path had to be
// loaded, expanded is a copy of n with the loaded nodes in place; it is nil
// otherwise.
func (t *Trie) get(n node, key []byte, pos int) (value []byte, expanded node, err error) {
	switch n := n.(type) {
	case nil:
		return nil, nil, nil
	case valueNode:
		return n, nil, nil
	case *shortNode:
		if !hasPrefixAt(key, pos, n.Key) {
			return nil, nil, nil
		}
		value, child, err := t.get(n.Val, key, pos+len(n.Key))
		if child != nil {
			n = n.copy()
			n.Val = child
			expanded = n
		}
		return value, expanded, err
	case *fullNode:
		value, child, err := t.get(n.Children[key[pos]], key, pos+1)
		if child != nil {
			n = n.copy()
			n.Children[key[pos]] = child
			expanded = n
		}
		return value, expanded, err
	case hashNode:
		loaded, err := t.resolveHash(n, key[:pos])
		if err != nil {
			return nil, nil, err
		}
		value, child, err := t.get(loaded, key, pos)
		if child == nil {
			child = loaded
		}
		return value, child, err
	default:
		panic(fmt.Sprintf("%T: invalid node: %v", n, n))
	}
}

// hasPrefixAt reports whether key[pos:] starts with prefix.
func hasPrefixAt(key []byte, pos int, prefix []byte) bool {
	return len(key)-pos >= len(prefix) && bytes.Equal(prefix, key[pos:pos+len(prefix)])
}

// TryGetAccount decodes the account stored under key. It returns nil if
// there is none.
func (t *Trie) TryGetAccount(key []byte) (*types.StateAccount, error) {
	enc, err := t.TryGet(key)
	if enc == nil || err != nil {
		return nil, err
	}
	acc := new(types.StateAccount)
	if err := rlp.DecodeBytes(enc, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

// TryGetNode returns the stored encoding of the node at the compact-encoded
// path, along with the number of database reads it took. Key bytes can't
// address nodes at odd nibble depths, hence the compact path.
func (t *Trie) TryGetNode(path []byte) ([]byte, int, error) {
	blob, expanded, loads, err := t.getNode(t.root, compactToHex(path), 0)
	if err == nil && expanded != nil {
		t.root = expanded
	}
	return blob, loads, err
}

func (t *Trie) getNode(n node, path []byte, pos int) (blob []byte, expanded node, loads int, err error) {
	if n == nil {
		return nil, nil, 0, nil
	}
	if pos >= len(path) {
		// Read the target from the database rather than re-encoding it.
		hash, ok := n.(hashNode)
		if !ok {
			hash, _ = n.cache()
		}
		if hash == nil {
			return nil, nil, 0, errors.New("non-consensus node")
		}
		blob, err := t.db.Node(common.BytesToHash(hash))
		return blob, nil, 1, err
	}
	switch n := n.(type) {
	case valueNode:
		return nil, nil, 0, nil
	case *shortNode:
		if !hasPrefixAt(path, pos, n.Key) {
			return nil, nil, 0, nil
		}
		blob, child, loads, err := t.getNode(n.Val, path, pos+len(n.Key))
		if child != nil {
			n = n.copy()
			n.Val = child
			expanded = n
		}
		return blob, expanded, loads, err
	case *fullNode:
		blob, child, loads, err := t.getNode(n.Children[path[pos]], path, pos+1)
		if child != nil {
			n = n.copy()
			n.Children[path[pos]] = child
			expanded = n
		}
		return blob, expanded, loads, err
	case hashNode:
		loaded, err := t.resolveHash(n, path[:pos])
		if err != nil {
			return nil, nil, 1, err
		}
		blob, child, loads, err := t.getNode(loaded, path, pos)
		if child == nil {
			child = loaded
		}
		return blob, child, loads + 1, err
	default:
		panic(fmt.Sprintf("%T: invalid node: %v", n, n))
	}
}

// Update stores value under key. An empty value deletes the key. Errors are
// logged. value must not be modified while it is in the trie.
func (t *Trie) Update(key, value []byte) {
	if err := t.TryUpdate(key, value); err != nil {
		log.Error("Unhandled trie error", "err", err)
	}
}

// TryUpdate stores value under key. An empty value deletes the key.
// A *MissingNodeError is returned if a node on the path is not in the
// database. value must not be modified while it is in the trie.
func (t *Trie) TryUpdate(key, value []byte) error {
	// value长度不为0为插入, 为0为删除
	if len(value) == 0 {
		return t.TryDelete(key)
	}
	t.unhashed++
	_, root, err := t.insert(t.root, nil, keybytesToHex(key), valueNode(value))
	if err != nil {
		return err
	}
	t.root = root
	return nil
}

// TryUpdateAccount stores the consensus encoding of acc under key.
func (t *Trie) TryUpdateAccount(key []byte, acc *types.StateAccount) error {
	enc, err := rlp.EncodeToBytes(acc)
	if err != nil {
		return fmt.Errorf("can't encode object at %x: %w", key, err)
	}
	return t.TryUpdate(key, enc)
}

// insert stores value under key below n and returns the new subtrie root.
// prefix is the part of the full key above n. If the subtrie already held
// value, changed is false and n is returned as is.
func (t *Trie) insert(n node, prefix, key []byte, value node) (changed bool, root node, err error) {
	if len(key) == 0 {
		if old, ok := n.(valueNode); ok && bytes.Equal(old, value.(valueNode)) {
			return false, n, nil
		}
		return true, value, nil
	}
	switch n := n.(type) {
	case nil:
		return true, &shortNode{key, value, t.newFlag()}, nil
	case *shortNode:
		return t.insertShort(n, prefix, key, value)
	case *fullNode:
		i := key[0]
		changed, child, err := t.insert(n.Children[i], append(prefix, i), key[1:], value)
		if !changed || err != nil {
			return false, n, err
		}
		n = n.copy()
		n.flags = t.newFlag()
		n.Children[i] = child
		return true, n, nil
	case hashNode:
		loaded, err := t.resolveHash(n, prefix)
		if err != nil {
			return false, nil, err
		}
		changed, root, err := t.insert(loaded, prefix, key, value)
		if !changed || err != nil {
			return false, loaded, err
		}
		return true, root, nil
	default:
		panic(fmt.Sprintf("%T: invalid node: %v", n, n))
	}
}

func (t *Trie) insertShort(n *shortNode, prefix, key []byte, value node) (bool, node, error) {
	match := prefixLen(key, n.Key)
	if match == len(n.Key) {
		changed, child, err := t.insert(n.Val, append(prefix, n.Key...), key[match:], value)
		if !changed || err != nil {
			return false, n, err
		}
		return true, &shortNode{n.Key, child, t.newFlag()}, nil
	}
	// The keys diverge inside n.Key: both continuations hang off a new
	// branch at the first differing nibble.
	// 在第一个不同的nibble处分叉出一个分支节点
	branch := &fullNode{flags: t.newFlag()}
	leaves := [2]struct {
		key []byte
		val node
	}{{n.Key, n.Val}, {key, value}}
	for _, leaf := range leaves {
		i := leaf.key[match]
		var err error
		_, branch.Children[i], err = t.insert(nil, append(prefix, leaf.key[:match+1]...), leaf.key[match+1:], leaf.val)
		if err != nil {
			return false, nil, err
		}
	}
	if match == 0 {
		return true, branch, nil
	}
	return true, &shortNode{key[:match], branch, t.newFlag()}, nil
}

// Delete removes key from the trie. Errors are logged.
func (t *Trie) Delete(key []byte) {
	if err := t.TryDelete(key); err != nil {
		log.Error("Unhandled trie error", "err", err)
	}
}

// TryDelete removes key from the trie. A *MissingNodeError is returned if a
// node on the path is not in the database.
func (t *Trie) TryDelete(key []byte) error {
	t.unhashed++
	_, root, err := t.delete(t.root, nil, keybytesToHex(key))
	if err != nil {
		return err
	}
	t.root = root
	return nil
}

// delete removes key below n and returns the new subtrie root, reduced to
// canonical form on the way up.
func (t *Trie) delete(n node, prefix, key []byte) (changed bool, root node, err error) {
	switch n := n.(type) {
	case nil:
		return false, nil, nil
	case valueNode:
		return true, nil, nil
	case *shortNode:
		return t.deleteShort(n, prefix, key)
	case *fullNode:
		return t.deleteFull(n, prefix, key)
	case hashNode:
		loaded, err := t.resolveHash(n, prefix)
		if err != nil {
			return false, nil, err
		}
		changed, root, err := t.delete(loaded, prefix, key)
		if !changed || err != nil {
			return false, loaded, err
		}
		return true, root, nil
	default:
		panic(fmt.Sprintf("%T: invalid node: %v (%v)", n, n, key))
	}
}

func (t *Trie) deleteShort(n *shortNode, prefix, key []byte) (bool, node, error) {
	match := prefixLen(key, n.Key)
	if match < len(n.Key) {
		return false, n, nil
	}
	if match == len(key) {
		return true, nil, nil
	}
	// The child still holds at least two keys longer than n.Key, so it
	// can't vanish.
	changed, child, err := t.delete(n.Val, append(prefix, n.Key...), key[len(n.Key):])
	if !changed || err != nil {
		return false, n, err
	}
	// A short child is merged into n. The key is copied since n.Key may be
	// shared with other nodes.
	if sn, ok := child.(*shortNode); ok {
		return true, &shortNode{concat(n.Key, sn.Key...), sn.Val, t.newFlag()}, nil
	}
	return true, &shortNode{n.Key, child, t.newFlag()}, nil
}

func (t *Trie) deleteFull(n *fullNode, prefix, key []byte) (bool, node, error) {
	i := key[0]
	changed, child, err := t.delete(n.Children[i], append(prefix, i), key[1:])
	if !changed || err != nil {
		return false, n, err
	}
	n = n.copy()
	n.flags = t.newFlag()
	n.Children[i] = child
	if child != nil {
		return true, n, nil
	}
	if pos := soleChild(n); pos >= 0 {
		return t.reduceBranch(n, prefix, pos)
	}
	return true, n, nil
}

// soleChild returns the index of the only non-nil child of n, or -1 if
// there are several.
func soleChild(n *fullNode) int {
	pos := -1
	for i, child := range &n.Children {
		if child == nil {
			continue
		}
		if pos >= 0 {
			return -1
		}
		pos = i
	}
	return pos
}

// reduceBranch replaces a full node left with one child at index pos by a
// short node. A short child is merged in with pos prepended to its key; the
// child is loaded for that check if needed.
func (t *Trie) reduceBranch(n *fullNode, prefix []byte, pos int) (bool, node, error) {
	if pos < 16 {
		child, err := t.resolve(n.Children[pos], append(prefix, byte(pos)))
		if err != nil {
			return false, nil, err
		}
		if sn, ok := child.(*shortNode); ok {
			return true, &shortNode{concat([]byte{byte(pos)}, sn.Key...), sn.Val, t.newFlag()}, nil
		}
	}
	return true, &shortNode{[]byte{byte(pos)}, n.Children[pos], t.newFlag()}, nil
}

func concat(s1 []byte, s2 ...byte) []byte {
	r := make([]byte, len(s1)+len(s2))
	copy(r, s1)
	copy(r[len(s1):], s2)
	return r
}

func (t *Trie) resolve(n node, prefix []byte) (node, error) {
	if hn, ok := n.(hashNode); ok {
		return t.resolveHash(hn, prefix)
	}
	return n, nil
}

// resolveHash loads the node behind n from the database.
// 通过hash从db中取出node的RLP编码并解码
func (t *Trie) resolveHash(n hashNode, prefix []byte) (node, error) {
	hash := common.BytesToHash(n)
	if rn := t.db.node(hash); rn != nil {
		return rn, nil
	}
	return nil, &MissingNodeError{NodeHash: hash, Path: prefix}
}

// Hash returns the root hash of the trie without writing anything to the
// database.
func (t *Trie) Hash() common.Hash {
	hashed, cached := t.hashRoot()
	t.root = cached
	return common.BytesToHash(hashed.(hashNode))
}

// hashRoot returns the root hash node and the root with hashes cached.
// 折叠MPT节点, 返回根的哈希节点和带哈希缓存的新根
func (t *Trie) hashRoot() (hashed node, cached node) {
	if t.root == nil {
		return hashNode(EmptyRoot.Bytes()), nil
	}
	h := newHasher(t.unhashed >= 100)
	defer returnHasherToPool(h)

	hashed, cached = h.hash(t.root, true)
	t.unhashed = 0
	return hashed, cached
}

// Commit stores all modified nodes in the trie's Database and returns the
// root hash and the number of nodes stored. Afterwards the root is just its
// hash; nodes are reloaded from the Database on access.
// 序列化MPT树, 并将所有脏节点写入内存数据库
func (t *Trie) Commit() (common.Hash, int, error) {
	if t.db == nil {
		panic("commit called on trie with nil database")
	}
	if t.root == nil {
		return EmptyRoot, 0, nil
	}
	// The committer relies on every node carrying its hash.
	root := t.Hash()
	if hn, dirty := t.root.cache(); !dirty {
		t.root = hn
		return root, 0, nil
	}
	c := newCommitter(t.db)
	defer returnCommitterToPool(c)

	hn, stored, err := c.Commit(t.root)
	if err != nil {
		return common.Hash{}, 0, err
	}
	t.root = hn
	return root, stored, nil
}
