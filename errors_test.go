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
	"errors"
	"strings"
	"testing"
)

func TestTrieErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := StorageMiss([]byte{0x01, 0x02}, inner)

	var te *TrieError
	if !errors.As(err, &te) {
		t.Fatalf("expected a *TrieError, got %T", err)
	}
	if te.Kind != KindStorageMiss {
		t.Fatalf("Kind = %v, want KindStorageMiss", te.Kind)
	}
	if !errors.Is(err, inner) {
		t.Fatalf("errors.Is did not see through Unwrap to the wrapped error")
	}
}

func TestTrieErrorMessageIncludesLocation(t *testing.T) {
	err := MalformedNode([]byte{0xAB}, errors.New("bad tag"))
	msg := err.Error()
	if !strings.Contains(msg, "ab") && !strings.Contains(msg, "AB") {
		t.Fatalf("message %q does not mention the offending location", msg)
	}
	if !strings.Contains(msg, "MalformedNode") {
		t.Fatalf("message %q does not mention its Kind", msg)
	}
}

func TestTrieErrorMessageOmitsEmptyLocation(t *testing.T) {
	err := KeyLengthInvalid(5)
	msg := err.Error()
	if strings.Contains(msg, " at ") {
		t.Fatalf("message %q should not carry a location clause for a nil location", msg)
	}
}

func TestKindStringCoversEveryConstant(t *testing.T) {
	kinds := []Kind{
		KindStorageMiss, KindMalformedNode, KindUnknownLocationLength,
		KindCryptoError, KindKeyLengthInvalid, KindFieldSize, KindIOError,
	}
	seen := make(map[string]bool)
	for _, k := range kinds {
		s := k.String()
		if s == "Unknown" {
			t.Fatalf("Kind %d stringified as Unknown", k)
		}
		if seen[s] {
			t.Fatalf("Kind %d collides with another Kind's string %q", k, s)
		}
		seen[s] = true
	}
	if Kind(99).String() != "Unknown" {
		t.Fatalf("an unrecognized Kind should stringify as Unknown")
	}
}

func TestFieldSizeMessage(t *testing.T) {
	err := FieldSize("balance", 16, 20)
	if !strings.Contains(err.Error(), "balance") {
		t.Fatalf("FieldSize error should name the offending field: %v", err)
	}
}
