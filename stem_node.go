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

// Stem is the suffix tree for the 256 values sharing a 31-byte stem. Its
// own commitment C never touches the 256 leaf values directly: they are
// split across two halves, each committed separately as Cl/Cr (2 scalars
// per leaf, §3), and C commits only to the 4-scalar header
// [1, stem, scalar(Cl), scalar(Cr)].
type Stem struct {
	stem     [StemSize]byte
	values   [NodeWidth]Node
	occupied int

	c1, c2             vcrypto.Point
	c1Scalar, c2Scalar vcrypto.Fr

	commitment vcrypto.Point
	hash       vcrypto.Fr

	conf *vcrypto.Config
}

// newStemFromSingleLeaf builds the Stem installed the first time a key
// lands in a Null slot (§4.6 case 1).
func newStemFromSingleLeaf(stemBytes, key, value []byte, conf *vcrypto.Config) (*Stem, error) {
	s := &Stem{conf: conf, c1: zeroPoint, c2: zeroPoint}
	copy(s.stem[:], stemBytes)
	for i := range s.values {
		s.values[i] = nullLeaf
	}
	idx := key[StemSize]
	s.values[idx] = newLeaf(key, value)
	s.occupied = 1
	s.applyLeafDelta(idx, nil, value)
	s.recomputeHeader()
	return s, nil
}

func (s *Stem) shallowCopy() *Stem {
	cp := &Stem{
		occupied:   s.occupied,
		c1:         s.c1,
		c2:         s.c2,
		c1Scalar:   s.c1Scalar,
		c2Scalar:   s.c2Scalar,
		commitment: s.commitment,
		hash:       s.hash,
		conf:       s.conf,
	}
	cp.stem = s.stem
	cp.values = s.values
	return cp
}

func (s *Stem) Location() []byte          { return s.stem[:] }
func (s *Stem) Hash() vcrypto.Fr          { return s.hash }
func (s *Stem) Commitment() vcrypto.Point { return s.commitment }
func (s *Stem) dirty() bool               { return false }

func (s *Stem) Copy() Node {
	cp := s.shallowCopy()
	for i := range cp.values {
		cp.values[i] = s.values[i].Copy()
	}
	return cp
}

func (s *Stem) Accept(v Visitor) error {
	if err := v.Visit(s); err != nil {
		if isSkipSubtree(err) {
			return nil
		}
		return err
	}
	for _, leaf := range s.values {
		if leaf == nullLeaf {
			continue
		}
		if err := leaf.Accept(v); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stem) GetValue(key []byte) ([]byte, error) {
	if !equalBytes(key[:StemSize], s.stem[:]) {
		return nil, nil
	}
	return s.values[key[StemSize]].GetValue(key)
}

func (s *Stem) Insert(key, value []byte) (Node, error) {
	if len(key) != KeySize {
		return nil, KeyLengthInvalid(len(key))
	}
	if !equalBytes(key[:StemSize], s.stem[:]) {
		return nil, errStemMismatch
	}
	idx := key[StemSize]
	oldVal, _ := s.values[idx].GetValue(key)

	cp := s.shallowCopy()
	if s.values[idx] == nullLeaf {
		cp.occupied++
	}
	cp.values[idx] = newLeaf(key, value)
	cp.applyLeafDelta(idx, oldVal, value)
	cp.recomputeHeader()
	return cp, nil
}

func (s *Stem) Remove(key []byte) (Node, error) {
	if len(key) != KeySize {
		return nil, KeyLengthInvalid(len(key))
	}
	if !equalBytes(key[:StemSize], s.stem[:]) {
		return nil, errDeleteNonExistent
	}
	idx := key[StemSize]
	if s.values[idx] == nullLeaf {
		return nil, errDeleteNonExistent
	}
	oldVal, _ := s.values[idx].GetValue(key)

	cp := s.shallowCopy()
	cp.values[idx] = nullLeaf
	cp.occupied--
	cp.applyLeafDelta(idx, oldVal, nil)
	cp.recomputeHeader()

	if cp.occupied == 0 {
		// Location is fixed up by the parent Internal, which alone knows
		// the depth this slot sits at (spec §4.6: "replace it with Null").
		return newNull(nil, s.conf), nil
	}
	return cp, nil
}

func (s *Stem) Commit() (Node, error) { return s, nil }

// applyLeafDelta folds the change at suffix idx into whichever of Cl/Cr
// covers it (idx<128 -> Cl, else Cr), mutating s.c1/s.c2 in place. Caller
// is a freshly shallow-copied Stem, so this does not alias a published one.
func (s *Stem) applyLeafDelta(idx byte, oldVal, newVal []byte) {
	deltas := leafDeltas(idx, oldVal, newVal)
	if idx < 128 {
		s.c1 = s.conf.CommitUpdate(s.c1, deltas)
	} else {
		s.c2 = s.conf.CommitUpdate(s.c2, deltas)
	}
}

// recomputeHeader rebuilds C and H from the current Cl/Cr, per spec §3:
// "C commits to [1, stem, scalar(Cl), scalar(Cr), 0...]".
func (s *Stem) recomputeHeader() {
	s.c1Scalar = vcrypto.ScalarOf(s.c1)
	s.c2Scalar = vcrypto.ScalarOf(s.c2)

	var stemScalar, one vcrypto.Fr
	vcrypto.FromLEBytes(&stemScalar, s.stem[:])
	one.SetOne()

	s.commitment = s.conf.CommitSparse(map[uint8]vcrypto.Fr{
		0: one,
		1: stemScalar,
		2: s.c1Scalar,
		3: s.c2Scalar,
	})
	s.hash = vcrypto.ScalarOf(s.commitment)
}

// leafDeltas computes the (old, new) pair of scalar deltas a 32-byte value
// change at suffix idx contributes to its half-commitment. Each leaf value
// occupies 2 of the half's 256 basis slots (low 16 bytes + presence
// marker, high 16 bytes), at 2*(idx%128) and 2*(idx%128)+1.
func leafDeltas(idx byte, oldVal, newVal []byte) []vcrypto.Delta {
	oldLo, oldHi := splitLeafValue(oldVal)
	newLo, newHi := splitLeafValue(newVal)
	base := 2 * (idx % 128)
	return []vcrypto.Delta{
		{Index: base, Old: oldLo, New: newLo},
		{Index: base + 1, Old: oldHi, New: newHi},
	}
}

// splitLeafValue renders an absent (nil) or present 32-byte leaf value as
// the (low, high) scalar pair committed at a suffix's two basis slots. A
// present value's low half carries a 2**128 presence marker, added to the
// integer rather than written into its byte image, so a zero-valued but
// present leaf (value = 32 zero bytes) is still distinguishable from an
// absent one.
func splitLeafValue(value []byte) (lo, hi vcrypto.Fr) {
	if value == nil {
		return
	}
	var loBytes, hiBytes [32]byte
	copy(loBytes[:16], value[:16])
	copy(hiBytes[:16], value[16:32])
	lo.SetBytesLE(loBytes[:])
	hi.SetBytesLE(hiBytes[:])

	var marker [32]byte
	marker[16] = 1 // 2**128, little-endian
	var markerFr vcrypto.Fr
	markerFr.SetBytesLE(marker[:])
	lo.Add(&lo, &markerFr)
	return
}

// extendStem implements §4.6 case 3: key and existing.stem share a common
// prefix through depth-1 but diverge somewhere at or after depth. It
// builds the chain of fresh Internal nodes needed to hold both stems and
// returns its top (the node that replaces existing in the grandparent's
// slot).
func extendStem(existing *Stem, key, value []byte, depth int, conf *vcrypto.Config) (Node, error) {
	newStem, err := newStemFromSingleLeaf(key[:StemSize], key, value, conf)
	if err != nil {
		return nil, err
	}
	return extendStemWith(existing, newStem, depth, conf)
}

// extendStemWith is the structural half of §4.6 case 3: build the chain
// of fresh Internal nodes separating existing from a second, already-
// fully-committed Stem (newStem). Shared by the single-key path (above,
// via extendStem) and PutBulk's batched-stem install path.
func extendStemWith(existing, newStem *Stem, depth int, conf *vcrypto.Config) (Node, error) {
	divergence := depth
	for divergence < StemSize && existing.stem[divergence] == newStem.stem[divergence] {
		divergence++
	}
	if divergence >= StemSize {
		// Stems are identical; this is not a divergence at all. Guard
		// against being called on a matching pair.
		return nil, errStemMismatch
	}

	branch := newInternal(newStem.stem[:divergence], conf)
	existIdx := existing.stem[divergence]
	newIdx := newStem.stem[divergence]
	branch.children[existIdx] = existing
	branch.children[newIdx] = newStem
	branch.commitment = conf.CommitUpdate(branch.commitment, []vcrypto.Delta{
		{Index: existIdx, Old: zeroFr, New: existing.Hash()},
		{Index: newIdx, Old: zeroFr, New: newStem.Hash()},
	})
	branch.hash = vcrypto.ScalarOf(branch.commitment)

	current := Node(branch)
	for d := divergence - 1; d >= depth; d-- {
		parent := newInternal(newStem.stem[:d], conf)
		idx := newStem.stem[d]
		parent.children[idx] = current
		parent.commitment = conf.CommitUpdate(parent.commitment, []vcrypto.Delta{
			{Index: idx, Old: zeroFr, New: current.Hash()},
		})
		parent.hash = vcrypto.ScalarOf(parent.commitment)
		current = parent
	}
	return current, nil
}
