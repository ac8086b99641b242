// This is free and unencumbered software released into the public domain.
//
// Anyone is free to copy, modify, publish, use, compile, sell, or
// distribute this software, either in source code form or as a compiled
// binary, for any purpose, commercial or non-commercial, and by any
// means.
//
// In jurisdictions that recognize copyright laws, the author or authors
// of this software dedicate any and all copyright interest in the
// software to the public domain. We make this dedication for the benefit
// of the public at large and to the detriment of our heirs and
// successors. We intend this dedication to be an overt act of
// relinquishment in perpetuity of all present and future rights to this
// software under copyright law.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
// EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
// MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.
// IN NO EVENT SHALL THE AUTHORS BE LIABLE FOR ANY CLAIM, DAMAGES OR
// OTHER LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE,
// ARISING FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR
// OTHER DEALINGS IN THE SOFTWARE.
//
// For more information, please refer to <https://unlicense.org>

package verkle

import (
	vcrypto "github.com/ethstatedb/verkle-trie/crypto"
)

// Internal is a branch node at depth 1..30: NodeWidth children indexed by
// one key byte, committed densely over their scalar projections.
type Internal struct {
	location   []byte
	children   [NodeWidth]Node
	commitment vcrypto.Point
	hash       vcrypto.Fr
	conf       *vcrypto.Config
}

// Root is the tree's unique entry point: an Internal with empty location.
// It is a distinct variant (spec §3) so the factory's location-length
// identification rule has somewhere to land location.len()==0, but it
// shares every operation with Internal.
type Root struct {
	*Internal
}

func newInternal(location []byte, conf *vcrypto.Config) *Internal {
	n := &Internal{
		location:   append([]byte(nil), location...),
		commitment: Identity(),
		conf:       conf,
	}
	for i := range n.children {
		n.children[i] = newNull(append(append([]byte(nil), location...), byte(i)), conf)
	}
	return n
}

// NewRoot builds an empty Root ready to accept inserts.
func NewRoot(conf *vcrypto.Config) *Root {
	return &Root{Internal: newInternal(nil, conf)}
}

// Identity is the commitment to the all-absent vector, i.e. Commit(zero...).
func Identity() vcrypto.Point { return zeroPoint }

func (n *Internal) Location() []byte         { return n.location }
func (n *Internal) Hash() vcrypto.Fr         { return n.hash }
func (n *Internal) Commitment() vcrypto.Point { return n.commitment }
func (n *Internal) dirty() bool              { return false } // eager: every Insert/Remove commits inline

func (n *Internal) Copy() Node {
	cp := &Internal{
		location:   append([]byte(nil), n.location...),
		commitment: n.commitment,
		hash:       n.hash,
		conf:       n.conf,
	}
	for i := range n.children {
		cp.children[i] = n.children[i].Copy()
	}
	return cp
}

func (n *Internal) Accept(v Visitor) error {
	if err := v.Visit(n); err != nil {
		if isSkipSubtree(err) {
			return nil
		}
		return err
	}
	for _, c := range n.children {
		if err := c.Accept(v); err != nil {
			return err
		}
	}
	return nil
}

func (n *Internal) childIndex(key []byte) int { return int(key[len(n.location)]) }

func (n *Internal) GetValue(key []byte) ([]byte, error) {
	child := n.children[n.childIndex(key)]
	return child.GetValue(key)
}

// Insert recurses to the child addressed by key[depth], lets it handle the
// terminal cases (empty/matching-stem/diverging-stem/internal), and folds
// the child's scalar delta into this node's own commitment via a single
// CommitUpdate before returning a fresh Internal (copy-on-write, per §7's
// "mutation produces new nodes" discard-on-error policy).
func (n *Internal) Insert(key, value []byte) (Node, error) {
	if len(key) != KeySize {
		return nil, KeyLengthInvalid(len(key))
	}
	idx := n.childIndex(key)
	oldChild := n.children[idx]
	if stored, ok := oldChild.(*StoredStem); ok {
		resolved, err := stored.resolve()
		if err != nil {
			return nil, err
		}
		oldChild = resolved
	}
	oldHash := oldChild.Hash()

	var newChild Node
	var err error
	if stem, ok := oldChild.(*Stem); ok && !equalBytes(stem.stem[:], key[:StemSize]) {
		// Case 3 of §4.6: diverging stem. The existing Stem cannot be
		// asked to insert a key it does not own; this node allocates
		// the internal chain that separates the two stems instead.
		newChild, err = extendStem(stem, key, value, len(n.location)+1, n.conf)
	} else {
		newChild, err = oldChild.Insert(key, value)
	}
	if err != nil {
		return nil, err
	}
	newChild, err = newChild.Commit()
	if err != nil {
		return nil, err
	}

	cp := n.shallowCopy()
	cp.children[idx] = newChild
	cp.commitment = n.conf.CommitUpdate(n.commitment, []vcrypto.Delta{
		{Index: uint8(idx), Old: oldHash, New: newChild.Hash()},
	})
	cp.hash = vcrypto.ScalarOf(cp.commitment)
	return cp, nil
}

func (n *Internal) Remove(key []byte) (Node, error) {
	if len(key) != KeySize {
		return nil, KeyLengthInvalid(len(key))
	}
	idx := n.childIndex(key)
	oldChild := n.children[idx]
	oldHash := oldChild.Hash()

	newChild, err := oldChild.Remove(key)
	if err != nil {
		return nil, err
	}
	newChild, err = newChild.Commit()
	if err != nil {
		return nil, err
	}
	if _, ok := newChild.(*Null); ok {
		// A Stem emptied by removal hands back a location-less Null; fix
		// up its location now that we know which slot it occupies. The
		// trie is NOT contracted further than this (spec §4.6, §9): a
		// single-child Internal above it may persist.
		newChild = newNull(append(append([]byte(nil), n.location...), byte(idx)), n.conf)
	}

	cp := n.shallowCopy()
	cp.children[idx] = newChild
	cp.commitment = n.conf.CommitUpdate(n.commitment, []vcrypto.Delta{
		{Index: uint8(idx), Old: oldHash, New: newChild.Hash()},
	})
	cp.hash = vcrypto.ScalarOf(cp.commitment)
	return cp, nil
}

func (n *Internal) shallowCopy() *Internal {
	cp := &Internal{
		location:   n.location,
		commitment: n.commitment,
		hash:       n.hash,
		conf:       n.conf,
	}
	cp.children = n.children
	return cp
}

// Commit is a no-op for Internal: every Insert/Remove above already folds
// its child's delta in eagerly. Kept to satisfy Node and so CommitRoot's
// sweep is well-defined (idempotent) even if a future batched path leaves
// deltas pending.
func (n *Internal) Commit() (Node, error) { return n, nil }

func (r *Root) Copy() Node {
	return &Root{Internal: r.Internal.Copy().(*Internal)}
}

func (r *Root) Insert(key, value []byte) (Node, error) {
	newInner, err := r.Internal.Insert(key, value)
	if err != nil {
		return nil, err
	}
	return &Root{Internal: newInner.(*Internal)}, nil
}

func (r *Root) Remove(key []byte) (Node, error) {
	newInner, err := r.Internal.Remove(key)
	if err != nil {
		return nil, err
	}
	return &Root{Internal: newInner.(*Internal)}, nil
}

func (r *Root) Commit() (Node, error) { return r, nil }
