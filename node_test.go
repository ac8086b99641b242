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

func TestNullInsertProducesStem(t *testing.T) {
	conf := testConfig(t)
	n := newNull(nil, conf)

	key := randomKey()
	value := randomValue()
	got, err := n.Insert(key, value)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	stem, ok := got.(*Stem)
	if !ok {
		t.Fatalf("expected a *Stem, got %T", got)
	}
	v, err := stem.GetValue(key)
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	if !bytes.Equal(v, value) {
		t.Fatalf("GetValue = %x, want %x", v, value)
	}
}

func TestNullRemoveIsError(t *testing.T) {
	n := newNull(nil, nil)
	if _, err := n.Remove(randomKey()); err == nil {
		t.Fatalf("expected an error removing from Null")
	}
}

func TestNullLeafRejectsInsert(t *testing.T) {
	if _, err := nullLeaf.Insert(randomKey(), randomValue()); err == nil {
		t.Fatalf("expected errInsertIntoHash inserting into NullLeaf")
	}
}

func TestLeafGetValueMismatchedKey(t *testing.T) {
	key := randomKey()
	l := newLeaf(key, randomValue())

	other := randomKey()
	v, err := l.GetValue(other)
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	if v != nil {
		t.Fatalf("GetValue for a foreign key should be nil, got %x", v)
	}
}

func TestLeafRemoveMatchingKeyYieldsNullLeaf(t *testing.T) {
	key := randomKey()
	l := newLeaf(key, randomValue())

	got, err := l.Remove(key)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if got != nullLeaf {
		t.Fatalf("Remove should return the nullLeaf singleton, got %T", got)
	}
}

func TestVisitorSkipSubtree(t *testing.T) {
	conf := testConfig(t)
	tree := New(NewMemStore(), conf)
	for i := 0; i < 10; i++ {
		if err := tree.Put(randomKey(), randomValue()); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	var visitedStems int
	v := VisitorFunc(func(n Node) error {
		if _, ok := n.(*Stem); ok {
			visitedStems++
			return ErrSkipSubtree()
		}
		return nil
	})
	if err := tree.Root().Accept(v); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if visitedStems == 0 {
		t.Fatalf("visitor never saw a Stem")
	}
}
