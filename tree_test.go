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
	"crypto/rand"
	mRand "math/rand/v2"
	"testing"

	"github.com/davecgh/go-spew/spew"

	vcrypto "github.com/ethstatedb/verkle-trie/crypto"
)

func testConfig(t *testing.T) *vcrypto.Config {
	t.Helper()
	conf, err := GetConfig()
	if err != nil {
		t.Fatalf("GetConfig: %v", err)
	}
	return conf
}

func randomKey() []byte {
	k := make([]byte, KeySize)
	rand.Read(k)
	return k
}

func randomValue() []byte {
	v := make([]byte, ValueSize)
	rand.Read(v)
	return v
}

// TestGetPutRoundTrip is property 1: get(k) returns the last value
// written for k, for an arbitrary insertion order.
func TestGetPutRoundTrip(t *testing.T) {
	conf := testConfig(t)
	tree := New(NewMemStore(), conf)

	want := make(map[[KeySize]byte][]byte)
	for i := 0; i < 500; i++ {
		k := randomKey()
		v := randomValue()
		if err := tree.Put(k, v); err != nil {
			t.Fatalf("Put: %v", err)
		}
		var kk [KeySize]byte
		copy(kk[:], k)
		want[kk] = v
	}

	for kk, v := range want {
		got, err := tree.Get(kk[:])
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if !bytes.Equal(got, v) {
			t.Fatalf("Get(%x) = %x, want %x\n%s", kk, got, v, spew.Sdump(tree.Root()))
		}
	}
}

// TestRootOrderIndependence is property 2: the final root hash does not
// depend on the order keys were inserted in.
func TestRootOrderIndependence(t *testing.T) {
	conf := testConfig(t)

	keys := make([][]byte, 200)
	values := make([][]byte, len(keys))
	for i := range keys {
		keys[i] = randomKey()
		values[i] = randomValue()
	}

	treeA := New(NewMemStore(), conf)
	for i := range keys {
		if err := treeA.Put(keys[i], values[i]); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	perm := mRand.Perm(len(keys))
	treeB := New(NewMemStore(), conf)
	for _, i := range perm {
		if err := treeB.Put(keys[i], values[i]); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	ha, ca, err := treeA.CommitRoot()
	if err != nil {
		t.Fatalf("CommitRoot A: %v", err)
	}
	hb, cb, err := treeB.CommitRoot()
	if err != nil {
		t.Fatalf("CommitRoot B: %v", err)
	}
	hab, hbb := ha.Bytes(), hb.Bytes()
	if !bytes.Equal(hab[:], hbb[:]) || !CommitmentsEqual(ca, cb) {
		t.Fatalf("root differs by insertion order:\nA:\n%s\nB:\n%s", spew.Sdump(treeA.Root()), spew.Sdump(treeB.Root()))
	}
}

// TestCommitUpdateCommutativity is property 3: applying two disjoint-
// index deltas in either order yields the same commitment.
func TestCommitUpdateCommutativity(t *testing.T) {
	conf := testConfig(t)

	var base vcrypto.Point = Identity()
	var oldA, newA, oldB, newB vcrypto.Fr
	newA.SetUint64(7)
	newB.SetUint64(11)

	d1 := vcrypto.Delta{Index: 3, Old: oldA, New: newA}
	d2 := vcrypto.Delta{Index: 200, Old: oldB, New: newB}

	ab := conf.CommitUpdate(conf.CommitUpdate(base, []vcrypto.Delta{d1}), []vcrypto.Delta{d2})
	ba := conf.CommitUpdate(conf.CommitUpdate(base, []vcrypto.Delta{d2}), []vcrypto.Delta{d1})
	both := conf.CommitUpdate(base, []vcrypto.Delta{d1, d2})

	if !CommitmentsEqual(ab, ba) {
		t.Fatalf("CommitUpdate not commutative across disjoint indices")
	}
	if !CommitmentsEqual(ab, both) {
		t.Fatalf("sequential CommitUpdate calls disagree with a single multi-delta call")
	}
}

// TestScalarProjectionInvariant is property 4: scalar_of(C) == H for
// every non-null node after every mutation (the eager commit model means
// this holds after every Put/Remove, not just after a commit sweep).
func TestScalarProjectionInvariant(t *testing.T) {
	conf := testConfig(t)
	tree := New(NewMemStore(), conf)

	for i := 0; i < 64; i++ {
		if err := tree.Put(randomKey(), randomValue()); err != nil {
			t.Fatalf("Put: %v", err)
		}
		checkScalarProjection(t, tree.Root())
	}
}

func checkScalarProjection(t *testing.T, n Node) {
	t.Helper()
	switch v := n.(type) {
	case *Root:
		checkScalarProjection(t, v.Internal)
	case *Internal:
		if !fr(vcrypto.ScalarOf(v.Commitment())).Equal(fr(v.Hash())) {
			t.Fatalf("Internal at %x: scalar_of(C) != H", v.Location())
		}
		for _, c := range v.children {
			if _, ok := c.(*Null); ok {
				continue
			}
			if _, ok := c.(*StoredInternal); ok {
				continue // unloaded: nothing to check without forcing a store round trip
			}
			if _, ok := c.(*StoredStem); ok {
				continue
			}
			checkScalarProjection(t, c)
		}
	case *Stem:
		if !fr(vcrypto.ScalarOf(v.Commitment())).Equal(fr(v.Hash())) {
			t.Fatalf("Stem at %x: scalar_of(C) != H", v.Location())
		}
	}
}

type fr vcrypto.Fr

func (a fr) Equal(b fr) bool {
	ab, bb := vcrypto.Fr(a).Bytes(), vcrypto.Fr(b).Bytes()
	return bytes.Equal(ab[:], bb[:])
}

// TestExtendCorrectness is property 5 / scenario S3: inserting two keys
// whose stems diverge at byte k produces exactly one chain of k fresh
// Internal nodes above both stems, and matches the root produced by
// PutBulk given the same pair against an empty trie.
func TestExtendCorrectness(t *testing.T) {
	conf := testConfig(t)

	keyA := make([]byte, KeySize)
	keyB := make([]byte, KeySize)
	keyB[2] = 0x01 // diverges from keyA at stem byte 2

	serial := New(NewMemStore(), conf)
	if err := serial.Put(keyA, []byte("0123456789abcdef0123456789abcdef")); err != nil {
		t.Fatalf("Put A: %v", err)
	}
	if err := serial.Put(keyB, []byte("fedcba9876543210fedcba9876543210")); err != nil {
		t.Fatalf("Put B: %v", err)
	}

	// Walk down from the root: bytes 0 and 1 must each hold a singly-
	// occupied Internal chain, byte 2 is where the two stems separate.
	cur := serial.Root().(*Root).Internal
	for depth := 0; depth < 2; depth++ {
		var liveChild Node
		liveCount := 0
		for _, c := range cur.children {
			if _, isNull := c.(*Null); !isNull {
				liveCount++
				liveChild = c
			}
		}
		if liveCount != 1 {
			t.Fatalf("expected exactly one live child at depth %d, got %d", depth, liveCount)
		}
		next, ok := liveChild.(*Internal)
		if !ok {
			t.Fatalf("expected an Internal chain link at depth %d, got %T", depth, liveChild)
		}
		cur = next
	}
	idxA, idxB := keyA[2], keyB[2]
	if _, ok := cur.children[idxA].(*Stem); !ok {
		t.Fatalf("slot %d is not a Stem", idxA)
	}
	if _, ok := cur.children[idxB].(*Stem); !ok {
		t.Fatalf("slot %d is not a Stem", idxB)
	}

	bulk := New(NewMemStore(), conf)
	if err := bulk.PutBulk([]KV{
		{Key: toKey(keyA), Value: toValue([]byte("0123456789abcdef0123456789abcdef"))},
		{Key: toKey(keyB), Value: toValue([]byte("fedcba9876543210fedcba9876543210"))},
	}); err != nil {
		t.Fatalf("PutBulk: %v", err)
	}

	sh, sc, err := serial.CommitRoot()
	if err != nil {
		t.Fatalf("CommitRoot serial: %v", err)
	}
	bh, bc, err := bulk.CommitRoot()
	if err != nil {
		t.Fatalf("CommitRoot bulk: %v", err)
	}
	shb, bhb := sh.Bytes(), bh.Bytes()
	if !bytes.Equal(shb[:], bhb[:]) || !CommitmentsEqual(sc, bc) {
		t.Fatalf("serial extend and PutBulk disagree on root")
	}
}

func toKey(b []byte) (out [KeySize]byte) {
	copy(out[:], b)
	return
}

func toValue(b []byte) (out [ValueSize]byte) {
	copy(out[:], b)
	return
}

// TestScenarioS1S2 walks the literal S1/S2 scenario from spec §8.
func TestScenarioS1S2(t *testing.T) {
	conf := testConfig(t)
	tree := New(NewMemStore(), conf)

	key1 := make([]byte, KeySize)
	val1 := make([]byte, ValueSize)
	val1[ValueSize-1] = 0x01
	if err := tree.Put(key1, val1); err != nil {
		t.Fatalf("Put key1: %v", err)
	}
	h1, c1, err := tree.CommitRoot()
	if err != nil {
		t.Fatalf("CommitRoot: %v", err)
	}

	stem, ok := tree.Root().(*Root).Internal.children[0].(*Stem)
	if !ok {
		t.Fatalf("expected a Stem at slot 0, got %T", tree.Root().(*Root).Internal.children[0])
	}
	if stem.occupied != 1 {
		t.Fatalf("expected one populated slot, got %d", stem.occupied)
	}

	key2 := make([]byte, KeySize)
	key2[KeySize-1] = 0x01
	val2 := make([]byte, ValueSize)
	val2[ValueSize-1] = 0x02
	if err := tree.Put(key2, val2); err != nil {
		t.Fatalf("Put key2: %v", err)
	}
	h2, c2, err := tree.CommitRoot()
	if err != nil {
		t.Fatalf("CommitRoot: %v", err)
	}

	stem2, ok := tree.Root().(*Root).Internal.children[0].(*Stem)
	if !ok {
		t.Fatalf("expected a Stem at slot 0 after S2, got %T", tree.Root().(*Root).Internal.children[0])
	}
	if stem2.occupied != 2 {
		t.Fatalf("expected two populated slots after S2, got %d", stem2.occupied)
	}

	h1b, h2b := h1.Bytes(), h2.Bytes()
	if bytes.Equal(h1b[:], h2b[:]) && CommitmentsEqual(c1, c2) {
		t.Fatalf("root did not change after S2's insert")
	}
}

// TestScenarioS4 matches spec §8 S4: 256 keys sharing 30 leading stem
// bytes, differing only in byte 30 - one chain of 30 Internal links,
// then one Internal whose 256 slots each hold a distinct Stem, and
// Flatten returns them key-sorted.
func TestScenarioS4(t *testing.T) {
	conf := testConfig(t)
	tree := New(NewMemStore(), conf)

	for i := 0; i < NodeWidth; i++ {
		key := make([]byte, KeySize)
		key[StemSize-1] = byte(i)
		value := make([]byte, ValueSize)
		value[0] = byte(i)
		if err := tree.Put(key, value); err != nil {
			t.Fatalf("Put %d: %v", i, err)
		}
	}

	cur := tree.Root().(*Root).Internal
	for depth := 0; depth < StemSize-1; depth++ {
		var liveChild Node
		liveCount := 0
		for _, c := range cur.children {
			if _, isNull := c.(*Null); !isNull {
				liveCount++
				liveChild = c
			}
		}
		if liveCount != 1 {
			t.Fatalf("expected one live child at depth %d, got %d", depth, liveCount)
		}
		next, ok := liveChild.(*Internal)
		if !ok {
			t.Fatalf("expected Internal link at depth %d, got %T", depth, liveChild)
		}
		cur = next
	}
	for i := 0; i < NodeWidth; i++ {
		if _, ok := cur.children[i].(*Stem); !ok {
			t.Fatalf("slot %d is not a Stem at the fan-out level", i)
		}
	}

	kvs, err := Flatten(tree.Root())
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	if len(kvs) != NodeWidth {
		t.Fatalf("Flatten returned %d pairs, want %d", len(kvs), NodeWidth)
	}
	for i := 1; i < len(kvs); i++ {
		if bytes.Compare(kvs[i-1].Key[:], kvs[i].Key[:]) >= 0 {
			t.Fatalf("Flatten result not strictly key-sorted at index %d", i)
		}
	}
}

// TestScenarioS5 matches spec §8 S5: insert then remove a key; the root
// hash must equal that of a trie which never saw the key, because a
// removed-then-zero suffix contributes a zero delta.
func TestScenarioS5(t *testing.T) {
	conf := testConfig(t)

	// Insert then remove a key from an otherwise-empty trie must return
	// to the empty trie's root: a removed suffix contributes a zero
	// delta, same as one that was never written.
	empty := New(NewMemStore(), conf)
	he, ce, err := empty.CommitRoot()
	if err != nil {
		t.Fatalf("CommitRoot empty: %v", err)
	}

	roundtrip := New(NewMemStore(), conf)
	k := randomKey()
	if err := roundtrip.Put(k, randomValue()); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := roundtrip.Remove(k); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	hr, cr, err := roundtrip.CommitRoot()
	if err != nil {
		t.Fatalf("CommitRoot: %v", err)
	}

	heb, hrb := he.Bytes(), hr.Bytes()
	if !bytes.Equal(heb[:], hrb[:]) || !CommitmentsEqual(ce, cr) {
		t.Fatalf("insert-then-remove did not return to the empty root")
	}
}

func TestRemoveNonExistentIsError(t *testing.T) {
	conf := testConfig(t)
	tree := New(NewMemStore(), conf)
	if err := tree.Remove(randomKey()); err == nil {
		t.Fatalf("expected an error removing a key never inserted")
	}
}

func TestKeyLengthValidation(t *testing.T) {
	conf := testConfig(t)
	tree := New(NewMemStore(), conf)
	if err := tree.Put([]byte("too short"), randomValue()); err == nil {
		t.Fatalf("expected KeyLengthInvalid for a short key")
	}
	if err := tree.Put(randomKey(), []byte("too short")); err == nil {
		t.Fatalf("expected FieldSize for a short value")
	}
}

func TestFlushAndReopen(t *testing.T) {
	conf := testConfig(t)
	store := NewMemStore()
	tree := New(store, conf)

	want := make(map[[KeySize]byte][]byte)
	for i := 0; i < 100; i++ {
		k := randomKey()
		v := randomValue()
		if err := tree.Put(k, v); err != nil {
			t.Fatalf("Put: %v", err)
		}
		var kk [KeySize]byte
		copy(kk[:], k)
		want[kk] = v
	}

	h, _, err := tree.CommitRoot()
	if err != nil {
		t.Fatalf("CommitRoot: %v", err)
	}
	if err := tree.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	var hb [CompressedHashSize]byte
	b := h.Bytes()
	copy(hb[:], b[:])
	reopened, err := Open(store, conf, hb)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for kk, v := range want {
		got, err := reopened.Get(kk[:])
		if err != nil {
			t.Fatalf("Get after reopen: %v", err)
		}
		if !bytes.Equal(got, v) {
			t.Fatalf("Get(%x) after reopen = %x, want %x", kk, got, v)
		}
	}
}
