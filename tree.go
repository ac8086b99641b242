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

// Tree is the engine of component C6: a single-threaded-per-instance
// handle on a Root, a Store, and the Factory that mediates between them.
// A Tree value is not safe for concurrent mutation (spec §5); distinct
// Tree instances over distinct Store handles may run in parallel freely.
type Tree struct {
	root    *Root
	store   Store
	factory *Factory
	conf    *vcrypto.Config
}

// New mounts a fresh, empty trie on store.
func New(store Store, conf *vcrypto.Config) *Tree {
	factory := NewFactory(store, conf)
	return &Tree{root: NewRoot(conf), store: store, factory: factory, conf: conf}
}

// Open mounts a trie on store's existing root, identified by its
// compressed hash. A missing root is reported as StorageMiss.
func Open(store Store, conf *vcrypto.Config, rootHash [CompressedHashSize]byte) (*Tree, error) {
	factory := NewFactory(store, conf)
	n, err := factory.Retrieve(nil, rootHash)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, StorageMiss(nil, errReadFromInvalid)
	}
	root, ok := n.(*Root)
	if !ok {
		return nil, MalformedNode(nil, errReadFromInvalid)
	}
	return &Tree{root: root, store: store, factory: factory, conf: conf}, nil
}

// Get implements §4.6 get(key): walk from root indexing by key[depth] at
// each internal node, compare the full stem at the terminal Stem, and
// read the suffix value.
func (t *Tree) Get(key []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, KeyLengthInvalid(len(key))
	}
	return t.root.GetValue(key)
}

// Put implements §4.6 put(key, value): the four-case terminal dispatch
// lives in Null/Stem/Internal's own Insert methods; Put just drives the
// top-level call and swaps in the resulting root.
func (t *Tree) Put(key, value []byte) error {
	if len(key) != KeySize {
		return KeyLengthInvalid(len(key))
	}
	if len(value) != ValueSize {
		return FieldSize("value", ValueSize, len(value))
	}
	newRoot, err := t.root.Insert(key, value)
	if err != nil {
		return err
	}
	t.root = newRoot.(*Root)
	return nil
}

// Remove implements §4.6 remove(key): symmetric to Put. Removing an
// already-absent key is an error (errDeleteNonExistent); the trie is not
// contracted beyond replacing an emptied Stem with Null (§9).
func (t *Tree) Remove(key []byte) error {
	if len(key) != KeySize {
		return KeyLengthInvalid(len(key))
	}
	newRoot, err := t.root.Remove(key)
	if err != nil {
		return err
	}
	t.root = newRoot.(*Root)
	return nil
}

// CommitRoot implements the commit sweep: with this engine's eager,
// copy-on-write commit model every Put/Remove already leaves the root
// fully committed, so this is an idempotent no-op that simply returns the
// current root hash and commitment.
func (t *Tree) CommitRoot() (vcrypto.Fr, vcrypto.Point, error) {
	committed, err := t.root.Commit()
	if err != nil {
		return vcrypto.Fr{}, vcrypto.Point{}, err
	}
	t.root = committed.(*Root)
	return t.root.Hash(), t.root.Commitment(), nil
}

// Root exposes the current root node, mainly for Accept/Flatten callers.
func (t *Tree) Root() Node { return t.root }

// Flush persists the subtree rooted at n (recursively) through the
// Factory's Encode/Store.PutNode pair, skipping anything still a
// StoredInternal/StoredStem (already on the store, by construction) or a
// Null/NullLeaf (nothing to write).
func (t *Tree) Flush() error {
	return t.flushNode(t.root)
}

func (t *Tree) flushNode(n Node) error {
	switch v := n.(type) {
	case *Root:
		return t.flushAndStore(v, v.Internal.children[:])
	case *Internal:
		return t.flushAndStore(v, v.children[:])
	case *Stem:
		raw, err := t.factory.Encode(v)
		if err != nil {
			return err
		}
		return t.putEncoded(v.Location(), v.Hash(), raw)
	case *StoredInternal, *StoredStem, *Null, *NullLeaf:
		return nil
	default:
		return nil
	}
}

func (t *Tree) flushAndStore(n Node, children []Node) error {
	for _, c := range children {
		if err := t.flushNode(c); err != nil {
			return err
		}
	}
	raw, err := t.factory.Encode(n)
	if err != nil {
		return err
	}
	return t.putEncoded(n.Location(), n.Hash(), raw)
}

func (t *Tree) putEncoded(location []byte, hash vcrypto.Fr, raw []byte) error {
	var hb [CompressedHashSize]byte
	b := hash.Bytes()
	copy(hb[:], b[:])
	if err := t.store.PutNode(location, hb, raw); err != nil {
		return IOErr(err)
	}
	return nil
}
