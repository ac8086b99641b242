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
	"testing"
)

func TestMakeProofOneLeafPresentKey(t *testing.T) {
	conf := testConfig(t)
	tree := New(NewMemStore(), conf)

	key := randomKey()
	value := randomValue()
	if err := tree.Put(key, value); err != nil {
		t.Fatalf("Put: %v", err)
	}

	w, err := MakeProofOneLeaf(tree.Root(), key)
	if err != nil {
		t.Fatalf("MakeProofOneLeaf: %v", err)
	}
	if len(w.Keys) != 1 || !bytes.Equal(w.Keys[0], key) {
		t.Fatalf("witness key mismatch")
	}
	if !bytes.Equal(w.CurrentValues[0], value) {
		t.Fatalf("witness value mismatch: got %x want %x", w.CurrentValues[0], value)
	}
	if w.DepthsExt[0] != 1 {
		t.Fatalf("witness did not mark key as found")
	}
	// Root's own commitment must be included among the opened paths.
	if _, ok := w.CommitmentsByPath[string(tree.Root().Location())]; !ok {
		t.Fatalf("witness is missing the root's own commitment")
	}
}

func TestMakeProofOneLeafAbsentKey(t *testing.T) {
	conf := testConfig(t)
	tree := New(NewMemStore(), conf)
	if err := tree.Put(randomKey(), randomValue()); err != nil {
		t.Fatalf("Put: %v", err)
	}

	absent := randomKey()
	w, err := MakeProofOneLeaf(tree.Root(), absent)
	if err != nil {
		t.Fatalf("MakeProofOneLeaf: %v", err)
	}
	if len(w.CurrentValues[0]) != 0 {
		t.Fatalf("absent key should render as an empty current value, got %x", w.CurrentValues[0])
	}
	if w.DepthsExt[0] != 0 {
		t.Fatalf("witness should mark an absent key as not found")
	}
}

func TestMakeMultiProofMergesPaths(t *testing.T) {
	conf := testConfig(t)
	tree := New(NewMemStore(), conf)

	keys := make([][]byte, 10)
	for i := range keys {
		keys[i] = randomKey()
		if err := tree.Put(keys[i], randomValue()); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	w, err := MakeMultiProof(tree.Root(), keys)
	if err != nil {
		t.Fatalf("MakeMultiProof: %v", err)
	}
	if len(w.Keys) != len(keys) {
		t.Fatalf("witness has %d keys, want %d", len(w.Keys), len(keys))
	}
	// Every key shares the root's path, so at minimum the root's
	// location must appear exactly once in the merged map.
	if _, ok := w.CommitmentsByPath[string(tree.Root().Location())]; !ok {
		t.Fatalf("merged witness is missing the shared root commitment")
	}
}

func TestVerifyPreStateShapeCheck(t *testing.T) {
	conf := testConfig(t)
	tree := New(NewMemStore(), conf)
	key := randomKey()
	if err := tree.Put(key, randomValue()); err != nil {
		t.Fatalf("Put: %v", err)
	}

	w, err := MakeProofOneLeaf(tree.Root(), key)
	if err != nil {
		t.Fatalf("MakeProofOneLeaf: %v", err)
	}
	ok, err := VerifyPreState(w)
	if err != nil {
		t.Fatalf("VerifyPreState: %v", err)
	}
	if !ok {
		t.Fatalf("VerifyPreState rejected a well-formed witness")
	}

	w.CurrentValues = w.CurrentValues[:0]
	if _, err := VerifyPreState(w); err == nil {
		t.Fatalf("expected an error for a witness with mismatched keys/values lengths")
	}
}

// TestVerifyPreStateRejectsTamperedRoot confirms VerifyPreState is not a
// pure rubber stamp: a witness whose root-path commitment entry has been
// swapped for an unrelated tree's root must fail, even though every
// shape check (lengths, path sizes) still passes.
func TestVerifyPreStateRejectsTamperedRoot(t *testing.T) {
	conf := testConfig(t)
	tree := New(NewMemStore(), conf)
	key := randomKey()
	if err := tree.Put(key, randomValue()); err != nil {
		t.Fatalf("Put: %v", err)
	}

	w, err := MakeProofOneLeaf(tree.Root(), key)
	if err != nil {
		t.Fatalf("MakeProofOneLeaf: %v", err)
	}

	other := New(NewMemStore(), conf)
	if err := other.Put(randomKey(), randomValue()); err != nil {
		t.Fatalf("Put: %v", err)
	}
	w.CommitmentsByPath[string(tree.Root().Location())] = other.Root().Commitment()

	ok, err := VerifyPreState(w)
	if err != nil {
		t.Fatalf("VerifyPreState: %v", err)
	}
	if ok {
		t.Fatalf("VerifyPreState accepted a witness with a tampered root commitment")
	}
}
