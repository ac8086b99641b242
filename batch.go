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
	"bytes"
	"sort"

	vcrypto "github.com/ethstatedb/verkle-trie/crypto"
	"golang.org/x/sync/errgroup"
)

// KV is a single (key, value) pair, as returned by Flatten.
type KV struct {
	Key   [KeySize]byte
	Value [ValueSize]byte
}

// flattenVisitor accumulates every Leaf it sees and forces every Stored
// placeholder along the way, per spec §4.7.
type flattenVisitor struct {
	out []KV
}

func (f *flattenVisitor) Visit(n Node) error {
	if leaf, ok := n.(*Leaf); ok {
		var kv KV
		copy(kv.Key[:], leaf.key[:])
		copy(kv.Value[:], leaf.value[:])
		f.out = append(f.out, kv)
	}
	return nil
}

// Flatten returns every (key, value) pair in the tree, key-sorted,
// forcing every Stored placeholder it encounters along the way.
func Flatten(root Node) ([]KV, error) {
	v := &flattenVisitor{}
	if err := root.Accept(v); err != nil {
		return nil, err
	}
	sort.Slice(v.out, func(i, j int) bool {
		return bytes.Compare(v.out[i].Key[:], v.out[j].Key[:]) < 0
	})
	return v.out, nil
}

// PutBulk groups an ordered batch of (key, value) pairs by shared
// 31-byte stem prefix (spec §5: "bulk put groups adjacent keys sharing
// a stem so each stem commits only once"). For each group it builds,
// concurrently via an errgroup, the fully-updated Stem: every leaf delta
// in the group is accumulated before a single CommitUpdate call per half
// (Cl, Cr), rather than one CommitUpdate per leaf. That per-group build
// is the expensive cryptographic work and the only part worth
// parallelizing; installing each finished Stem back into the tree is
// cheap pointer/commitment bookkeeping along a single root-to-stem path
// and is done serially so the final root is unambiguous.
func (t *Tree) PutBulk(pairs []KV) error {
	if len(pairs) == 0 {
		return nil
	}
	sorted := make([]KV, len(pairs))
	copy(sorted, pairs)
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i].Key[:], sorted[j].Key[:]) < 0
	})

	groups := groupByStem(sorted)
	built := make([]*Stem, len(groups))

	g := new(errgroup.Group)
	for gi, group := range groups {
		gi, group := gi, group
		g.Go(func() error {
			existing, err := t.lookupStem(group[0].Key)
			if err != nil {
				return err
			}
			ns, err := buildBatchedStem(existing, group, t.conf)
			if err != nil {
				return err
			}
			built[gi] = ns
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, ns := range built {
		if err := t.installStem(ns); err != nil {
			return err
		}
	}
	return nil
}

// lookupStem walks from root to the Stem that would own key, forcing any
// Stored placeholder along the way, and returns nil if no Stem occupies
// that slot yet (Null) or the slot is occupied by a different stem
// sharing only a partial prefix (the caller's extendStemWith handles
// that divergence once buildBatchedStem has produced the new Stem).
func (t *Tree) lookupStem(key [KeySize]byte) (*Stem, error) {
	var cur Node = t.root
	for {
		switch c := cur.(type) {
		case *Root:
			cur = c.Internal
		case *Internal:
			cur = c.children[c.childIndex(key[:])]
		case *StoredInternal:
			resolved, err := c.resolve()
			if err != nil {
				return nil, err
			}
			cur = resolved
		case *StoredStem:
			resolved, err := c.resolve()
			if err != nil {
				return nil, err
			}
			cur = resolved
		case *Stem:
			if equalBytes(c.stem[:], key[:StemSize]) {
				return c, nil
			}
			return nil, nil
		default: // *Null, *NullLeaf, *Leaf
			return nil, nil
		}
	}
}

// buildBatchedStem applies every pair in group (all sharing one stem) to
// existing (nil if the stem does not exist yet), folding every leaf
// delta into a single CommitUpdate call per half before recomputing the
// stem's header once.
func buildBatchedStem(existing *Stem, group []KV, conf *vcrypto.Config) (*Stem, error) {
	var base *Stem
	if existing != nil {
		base = existing.shallowCopy()
	} else {
		base = &Stem{conf: conf, c1: zeroPoint, c2: zeroPoint}
		copy(base.stem[:], group[0].Key[:StemSize])
		for i := range base.values {
			base.values[i] = nullLeaf
		}
	}

	var c1deltas, c2deltas []vcrypto.Delta
	for _, kv := range group {
		if !equalBytes(kv.Key[:StemSize], base.stem[:]) {
			return nil, errStemMismatch
		}
		idx := kv.Key[StemSize]
		oldVal, _ := base.values[idx].GetValue(kv.Key[:])
		if base.values[idx] == nullLeaf {
			base.occupied++
		}
		base.values[idx] = newLeaf(kv.Key[:], kv.Value[:])
		d := leafDeltas(idx, oldVal, kv.Value[:])
		if idx < 128 {
			c1deltas = append(c1deltas, d...)
		} else {
			c2deltas = append(c2deltas, d...)
		}
	}
	base.c1 = conf.CommitUpdate(base.c1, c1deltas)
	base.c2 = conf.CommitUpdate(base.c2, c2deltas)
	base.recomputeHeader()
	return base, nil
}

// installStem installs an already-fully-committed Stem (built by
// buildBatchedStem) into the tree along its root-to-stem path,
// resolving the same three terminal cases as Internal.Insert (empty
// slot, matching stem, diverging stem) but against a whole Stem rather
// than a single key.
func (t *Tree) installStem(ns *Stem) error {
	newInner, err := installStemInternal(t.root.Internal, ns, t.conf)
	if err != nil {
		return err
	}
	t.root = &Root{Internal: newInner}
	return nil
}

func installStemInternal(n *Internal, ns *Stem, conf *vcrypto.Config) (*Internal, error) {
	idx := int(ns.stem[len(n.location)])
	oldChild := n.children[idx]
	if stored, ok := oldChild.(*StoredStem); ok {
		resolved, err := stored.resolve()
		if err != nil {
			return nil, err
		}
		oldChild = resolved
	}
	if stored, ok := oldChild.(*StoredInternal); ok {
		resolved, err := stored.resolve()
		if err != nil {
			return nil, err
		}
		oldChild = resolved
	}
	oldHash := oldChild.Hash()

	var newChild Node
	var err error
	switch c := oldChild.(type) {
	case *Null:
		newChild = ns
	case *Stem:
		if equalBytes(c.stem[:], ns.stem[:]) {
			newChild = ns
		} else {
			newChild, err = extendStemWith(c, ns, len(n.location)+1, conf)
		}
	case *Internal:
		newChild, err = installStemInternal(c, ns, conf)
	default:
		err = MalformedNode(n.location, errReadFromInvalid)
	}
	if err != nil {
		return nil, err
	}

	cp := n.shallowCopy()
	cp.children[idx] = newChild
	cp.commitment = conf.CommitUpdate(n.commitment, []vcrypto.Delta{
		{Index: uint8(idx), Old: oldHash, New: newChild.Hash()},
	})
	cp.hash = vcrypto.ScalarOf(cp.commitment)
	return cp, nil
}

func groupByStem(sorted []KV) [][]KV {
	var groups [][]KV
	for i := 0; i < len(sorted); {
		j := i + 1
		for j < len(sorted) && bytes.Equal(sorted[j].Key[:StemSize], sorted[i].Key[:StemSize]) {
			j++
		}
		groups = append(groups, sorted[i:j])
		i = j
	}
	return groups
}
