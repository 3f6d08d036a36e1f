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
	"fmt"
	"sync"

	"github.com/PigCharid/rlpnode/rlp"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/sha3"
)

// hasher turns nodes into the references their parents store. It keeps an
// encoder, a scratch buffer and a keccak state between calls.
type hasher struct {
	sha      crypto.KeccakState
	enc      *rlp.Encoder
	buf      []byte
	parallel bool // hash the children of the first full node concurrently
}

var hasherPool = sync.Pool{
	New: func() interface{} {
		return &hasher{
			sha: sha3.NewLegacyKeccak256().(crypto.KeccakState),
			enc: rlp.NewEncoder(),
			buf: make([]byte, 0, 550), // a full fullNode fits
		}
	},
}

func newHasher(parallel bool) *hasher {
	h := hasherPool.Get().(*hasher)
	h.parallel = parallel
	return h
}

func returnHasherToPool(h *hasher) {
	hasherPool.Put(h)
}

// hash returns the reference of n and a copy of n carrying that reference
// in its flags. The reference is a hashNode, or the collapsed node itself
// when its encoding is shorter than 32 bytes and force is unset.
// 返回折叠后的节点和带有哈希缓存的原节点副本
func (h *hasher) hash(n node, force bool) (hashed node, cached node) {
	if hn, _ := n.cache(); hn != nil {
		return hn, n
	}
	switch n := n.(type) {
	case *shortNode:
		collapsed, sn := h.collapseShort(n)
		hashed = h.reference(collapsed, force)
		sn.flags.hash, _ = hashed.(hashNode)
		return hashed, sn
	case *fullNode:
		collapsed, fn := h.collapseFull(n)
		hashed = h.reference(collapsed, force)
		fn.flags.hash, _ = hashed.(hashNode)
		return hashed, fn
	default:
		// valueNode and hashNode have no children.
		return n, n
	}
}

// collapseShort returns n with its key in compact form and its child
// replaced by the child's reference, plus a copy of n whose child carries
// its cached hash. collapsed shares n's key storage.
func (h *hasher) collapseShort(n *shortNode) (collapsed, cached *shortNode) {
	collapsed, cached = n.copy(), n.copy()
	// 内存中的HEX键转换为COMPACT键再编码
	collapsed.Key = hexToCompact(n.Key)
	switch n.Val.(type) {
	case *fullNode, *shortNode:
		collapsed.Val, cached.Val = h.hash(n.Val, false)
	}
	return collapsed, cached
}

// collapseFull is collapseShort for full nodes. Empty branches become
// nilValueNode so that they encode as empty strings.
func (h *hasher) collapseFull(n *fullNode) (collapsed, cached *fullNode) {
	collapsed, cached = n.copy(), n.copy()
	branch := func(h *hasher, i int) {
		if child := n.Children[i]; child != nil {
			collapsed.Children[i], cached.Children[i] = h.hash(child, false)
		} else {
			collapsed.Children[i] = nilValueNode
		}
	}
	if !h.parallel {
		for i := 0; i < 16; i++ {
			branch(h, i)
		}
		return collapsed, cached
	}
	var wg sync.WaitGroup
	wg.Add(16)
	for i := 0; i < 16; i++ {
		go func(i int) {
			defer wg.Done()
			sub := newHasher(false)
			branch(sub, i)
			returnHasherToPool(sub)
		}(i)
	}
	wg.Wait()
	return collapsed, cached
}

// reference returns the hash of a collapsed node, or the node itself if it
// is small enough to be embedded in its parent.
func (h *hasher) reference(collapsed node, force bool) node {
	enc := h.encode(collapsed)
	if len(enc) < 32 && !force {
		return collapsed
	}
	return h.hashData(enc)
}

// encode returns the encoding of n in the scratch buffer, which is
// overwritten by the next call.
func (h *hasher) encode(n node) []byte {
	n.encode(h.enc)
	var err error
	h.buf, err = h.enc.AppendTo(h.buf[:0])
	h.enc.Reset()
	if err != nil {
		panic(fmt.Sprintf("trie: node encoding failed: %v", err))
	}
	return h.buf
}

func (h *hasher) hashData(data []byte) hashNode {
	n := make(hashNode, 32)
	h.keccak(n, data)
	return n
}

// keccak writes the keccak256 digest of data into dst.
func (h *hasher) keccak(dst, data []byte) {
	h.sha.Reset()
	h.sha.Write(data)
	h.sha.Read(dst)
}

// proofHash returns the collapsed form of a node for inclusion in a proof,
// and its reference. Value and hash nodes are returned as they are.
func (h *hasher) proofHash(original node) (collapsed, hashed node) {
	switch n := original.(type) {
	case *shortNode:
		sn, _ := h.collapseShort(n)
		return sn, h.reference(sn, false)
	case *fullNode:
		fn, _ := h.collapseFull(n)
		return fn, h.reference(fn, false)
	default:
		return n, n
	}
}
