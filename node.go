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

// Node is the tagged-variant interface every tree element implements:
// Root, Internal, Stem, Leaf, NullLeaf, Null, and the Stored{Internal,Stem}
// placeholders. A node's mutating operations (Insert, Remove) return a
// fresh node rather than editing in place — callers that hold an older
// reference keep seeing the old tree.
type Node interface {
	// Location is the node's depth-prefix: empty for Root, 1..30 bytes
	// for Internal, 31 bytes for Stem, 32 for Leaf.
	Location() []byte

	// Hash is the scalar projection of Commitment, refreshed by Commit.
	Hash() vcrypto.Fr

	// Commitment is the node's vector commitment.
	Commitment() vcrypto.Point

	// GetValue returns the 32-byte value stored at key, or (nil, nil)
	// when key is absent.
	GetValue(key []byte) ([]byte, error)

	// Insert installs value at key and returns the new subtree root; the
	// parent reads the old and new child Hash() to fold the change into
	// its own commitment with a CommitUpdate.
	Insert(key, value []byte) (Node, error)

	// Remove clears the value at key. Removing a key that is already
	// absent is an error (errDeleteNonExistent).
	Remove(key []byte) (Node, error)

	// Commit recomputes Commitment and Hash from dirty children's
	// deltas and returns the (possibly identical) receiver. Idempotent
	// when the node has no pending deltas.
	Commit() (Node, error)

	// Accept walks this node (and, for containers, its children) with v.
	Accept(v Visitor) error

	// Copy deep-copies the subtree rooted at this node.
	Copy() Node

	// dirty reports whether Commit has pending work.
	dirty() bool
}

// Visitor is implemented by callers of the C7 flatten/walk operations. It
// is invoked depth-first with each node's location; returning
// ErrSkipSubtree from Visit on a container node prunes its children.
type Visitor interface {
	Visit(n Node) error
}

// VisitorFunc adapts a plain function to the Visitor interface.
type VisitorFunc func(n Node) error

func (f VisitorFunc) Visit(n Node) error { return f(n) }

// ErrSkipSubtree, returned by a Visitor, prunes the subtree rooted at the
// node just visited without aborting the overall walk.
var errSkipSubtree = &skipSubtree{}

type skipSubtree struct{}

func (*skipSubtree) Error() string { return "skip subtree" }

// ErrSkipSubtree is the sentinel a Visitor returns to prune a subtree.
func ErrSkipSubtree() error { return errSkipSubtree }

func isSkipSubtree(err error) bool {
	_, ok := err.(*skipSubtree)
	return ok
}

// Null is the explicit-absence marker for an internal/stem child slot that
// has never held anything. It is distinct from a missing map entry only in
// that it is a legitimate value occupying a position in the parent's
// accounting (e.g. the null-bitmap in the fixed-layout encoding, §C5).
type Null struct {
	location []byte
	conf     *vcrypto.Config
}

func newNull(location []byte, conf *vcrypto.Config) *Null {
	return &Null{location: append([]byte(nil), location...), conf: conf}
}

func (n *Null) Location() []byte          { return n.location }
func (n *Null) Hash() vcrypto.Fr           { return zeroFr }
func (n *Null) Commitment() vcrypto.Point  { return zeroPoint }
func (n *Null) dirty() bool                { return false }
func (n *Null) Copy() Node                 { return newNull(n.location, n.conf) }
func (n *Null) Accept(v Visitor) error     { return v.Visit(n) }

func (n *Null) GetValue(key []byte) ([]byte, error) { return nil, nil }

func (n *Null) Insert(key, value []byte) (Node, error) {
	if len(key) != KeySize {
		return nil, KeyLengthInvalid(len(key))
	}
	return newStemFromSingleLeaf(key[:StemSize], key, value, n.conf)
}

func (n *Null) Remove(key []byte) (Node, error) {
	return nil, errDeleteNonExistent
}

func (n *Null) Commit() (Node, error) { return n, nil }

// NullLeaf is the per-suffix absence marker inside a Stem's 256 value
// slots: a slot holding NullLeaf contributes the zero scalar to Cl/Cr and
// reads back as absent, but still occupies its index (spec §3).
type NullLeaf struct{}

var nullLeaf = &NullLeaf{}

func (*NullLeaf) Location() []byte          { return nil }
func (*NullLeaf) Hash() vcrypto.Fr           { return zeroFr }
func (*NullLeaf) Commitment() vcrypto.Point  { return zeroPoint }
func (*NullLeaf) dirty() bool                { return false }
func (*NullLeaf) Copy() Node                 { return nullLeaf }
func (*NullLeaf) Accept(v Visitor) error     { return v.Visit(nullLeaf) }
func (*NullLeaf) GetValue([]byte) ([]byte, error) { return nil, nil }
func (*NullLeaf) Insert(key, value []byte) (Node, error) {
	return nil, errInsertIntoHash
}
func (*NullLeaf) Remove([]byte) (Node, error) { return nil, errDeleteNonExistent }
func (*NullLeaf) Commit() (Node, error)       { return nullLeaf, nil }

// Leaf is a single (key, value) pair inside a Stem's suffix tree. It has no
// commitment of its own — the Stem commits directly to the 256 leaf
// values — but implements Node so visitors can address it individually.
type Leaf struct {
	key   [KeySize]byte
	value [ValueSize]byte
}

func newLeaf(key, value []byte) *Leaf {
	l := &Leaf{}
	copy(l.key[:], key)
	copy(l.value[:], value)
	return l
}

func (l *Leaf) Location() []byte         { return l.key[:] }
func (l *Leaf) Hash() vcrypto.Fr         { return zeroFr }
func (l *Leaf) Commitment() vcrypto.Point { return zeroPoint }
func (l *Leaf) dirty() bool              { return false }

func (l *Leaf) Copy() Node {
	return &Leaf{key: l.key, value: l.value}
}

func (l *Leaf) Accept(v Visitor) error { return v.Visit(l) }

func (l *Leaf) GetValue(key []byte) ([]byte, error) {
	if !equalBytes(key, l.key[:]) {
		return nil, nil
	}
	out := make([]byte, ValueSize)
	copy(out, l.value[:])
	return out, nil
}

func (l *Leaf) Insert(key, value []byte) (Node, error) {
	if !equalBytes(key, l.key[:]) {
		return nil, errStemMismatch
	}
	return newLeaf(key, value), nil
}

func (l *Leaf) Remove(key []byte) (Node, error) {
	if !equalBytes(key, l.key[:]) {
		return nil, errDeleteNonExistent
	}
	return nullLeaf, nil
}

func (l *Leaf) Commit() (Node, error) { return l, nil }

func equalBytes(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
