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
	"sync"

	vcrypto "github.com/ethstatedb/verkle-trie/crypto"
)

// StoredInternal is a lazy placeholder for an Internal (or Root) subtree
// that has not yet been read back from the Store. It carries its
// precomputed hash so a parent can fold it into a CommitUpdate without
// forcing the load (spec §4.4); any other operation forces resolution.
//
// PutBulk (batch.go) walks shared placeholders from multiple goroutines
// before its groups diverge into disjoint subtrees, so resolve() must
// coalesce concurrent first-loads the same way sharedCache does rather
// than racing an unsynchronized read-then-write of loaded.
type StoredInternal struct {
	factory  *Factory
	location []byte
	hash     vcrypto.Fr

	once    sync.Once
	loaded  *Internal
	loadErr error
}

func (n *StoredInternal) resolve() (*Internal, error) {
	n.once.Do(func() {
		var hb [CompressedHashSize]byte
		h := n.hash.Bytes()
		copy(hb[:], h[:])
		loaded, err := n.factory.Retrieve(n.location, hb)
		if err != nil {
			n.loadErr = err
			return
		}
		if loaded == nil {
			n.loadErr = StorageMiss(n.location, errReadFromInvalid)
			return
		}
		internal, ok := loaded.(*Internal)
		if !ok {
			if root, ok := loaded.(*Root); ok {
				internal = root.Internal
			} else {
				n.loadErr = MalformedNode(n.location, errReadFromInvalid)
				return
			}
		}
		n.loaded = internal
	})
	return n.loaded, n.loadErr
}

func (n *StoredInternal) Location() []byte         { return n.location }
func (n *StoredInternal) Hash() vcrypto.Fr          { return n.hash }
func (n *StoredInternal) Commitment() vcrypto.Point {
	inner, err := n.resolve()
	if err != nil {
		return zeroPoint
	}
	return inner.Commitment()
}
func (n *StoredInternal) dirty() bool { return false }

// Copy is only ever called from single-goroutine branching code (never
// from PutBulk's parallel phase), so reading loaded/loadErr directly here
// is safe: resolve()'s once guards the concurrent path, not this one.
func (n *StoredInternal) Copy() Node {
	cp := &StoredInternal{factory: n.factory, location: append([]byte(nil), n.location...), hash: n.hash}
	if n.loaded != nil || n.loadErr != nil {
		loaded, err := n.loaded, n.loadErr
		cp.once.Do(func() { cp.loaded, cp.loadErr = loaded, err })
	}
	return cp
}

func (n *StoredInternal) Accept(v Visitor) error {
	inner, err := n.resolve()
	if err != nil {
		return err
	}
	return inner.Accept(v)
}

func (n *StoredInternal) GetValue(key []byte) ([]byte, error) {
	inner, err := n.resolve()
	if err != nil {
		return nil, err
	}
	return inner.GetValue(key)
}

func (n *StoredInternal) Insert(key, value []byte) (Node, error) {
	inner, err := n.resolve()
	if err != nil {
		return nil, err
	}
	return inner.Insert(key, value)
}

func (n *StoredInternal) Remove(key []byte) (Node, error) {
	inner, err := n.resolve()
	if err != nil {
		return nil, err
	}
	return inner.Remove(key)
}

func (n *StoredInternal) Commit() (Node, error) { return n, nil }

// StoredStem is the Stem-level counterpart of StoredInternal. Its
// resolve() needs the same once-guarded coalescing as StoredInternal's —
// see the comment above that type.
type StoredStem struct {
	factory  *Factory
	location []byte
	hash     vcrypto.Fr

	once    sync.Once
	loaded  *Stem
	loadErr error
}

func (n *StoredStem) resolve() (*Stem, error) {
	n.once.Do(func() {
		var hb [CompressedHashSize]byte
		h := n.hash.Bytes()
		copy(hb[:], h[:])
		loaded, err := n.factory.Retrieve(n.location, hb)
		if err != nil {
			n.loadErr = err
			return
		}
		if loaded == nil {
			n.loadErr = StorageMiss(n.location, errReadFromInvalid)
			return
		}
		stem, ok := loaded.(*Stem)
		if !ok {
			n.loadErr = MalformedNode(n.location, errReadFromInvalid)
			return
		}
		n.loaded = stem
	})
	return n.loaded, n.loadErr
}

func (n *StoredStem) Location() []byte         { return n.location }
func (n *StoredStem) Hash() vcrypto.Fr          { return n.hash }
func (n *StoredStem) Commitment() vcrypto.Point {
	inner, err := n.resolve()
	if err != nil {
		return zeroPoint
	}
	return inner.Commitment()
}
func (n *StoredStem) dirty() bool { return false }

// Copy is only ever called from single-goroutine branching code, per the
// same reasoning as StoredInternal.Copy.
func (n *StoredStem) Copy() Node {
	cp := &StoredStem{factory: n.factory, location: append([]byte(nil), n.location...), hash: n.hash}
	if n.loaded != nil || n.loadErr != nil {
		loaded, err := n.loaded, n.loadErr
		cp.once.Do(func() { cp.loaded, cp.loadErr = loaded, err })
	}
	return cp
}

func (n *StoredStem) Accept(v Visitor) error {
	inner, err := n.resolve()
	if err != nil {
		return err
	}
	return inner.Accept(v)
}

func (n *StoredStem) GetValue(key []byte) ([]byte, error) {
	inner, err := n.resolve()
	if err != nil {
		return nil, err
	}
	return inner.GetValue(key)
}

func (n *StoredStem) Insert(key, value []byte) (Node, error) {
	inner, err := n.resolve()
	if err != nil {
		return nil, err
	}
	return inner.Insert(key, value)
}

func (n *StoredStem) Remove(key []byte) (Node, error) {
	inner, err := n.resolve()
	if err != nil {
		return nil, err
	}
	return inner.Remove(key)
}

func (n *StoredStem) Commit() (Node, error) { return n, nil }
