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

// Package verkle implements the Ethereum world-state Verkle trie: a
// 256-ary tree whose internal commitments are vector commitments over a
// banderwagon/IPA primitive rather than hashes. See SPEC_FULL.md and
// DESIGN.md for the full design.
package verkle

import (
	vcrypto "github.com/ethstatedb/verkle-trie/crypto"
)

const (
	// NodeWidth is the tree's fan-out: every Internal and Stem node has
	// exactly this many child/value slots, indexed by one key byte.
	NodeWidth = 256

	// StemSize is the length, in bytes, of a stem: the first 31 bytes of
	// a 32-byte key. The 32nd byte is the suffix, i.e. the slot index.
	StemSize = 31

	// KeySize is the fixed length of every trie key.
	KeySize = 32

	// ValueSize is the fixed length of every trie value.
	ValueSize = 32
)

// Basic-data leaf sub-keys (spec Â§6): the slot within a stem's suffix
// tree that a given piece of account state occupies.
const (
	BasicDataLeafKey  = 0
	CodeHashLeafKey   = 3
	CodeSizeLeafKeyV0 = 4 // superseded by the basic-data packing below; kept for historical lookups.
)

// Historical-compat aliases used by the original account layout; the new
// basic-data leaf (codec.go) packs version/code_size/nonce/balance into a
// single 32-byte value at BasicDataLeafKey instead of using separate
// nonce/balance slots.
const (
	NonceLeafKey   = 2
	BalanceLeafKey = 1
)

const (
	// HeaderStorageOffset is the tree-index offset at which an account's
	// header-adjacent storage slots begin.
	HeaderStorageOffset = 64
	// CodeOffset is the tree-index offset at which code chunks begin.
	CodeOffset = 128
	// MainStorageOffset is the tree-index offset for the main storage
	// trie migration range.
	MainStorageOffset = 256

	// stemHasherDomain is "2 + 256*64", the Verkle domain-separator
	// scalar mixed into every stem derivation (spec Â§4.3, Â§6).
	stemHasherDomain = 2 + 256*64
)

var (
	zeroFr    vcrypto.Fr
	zeroPoint vcrypto.Point
)

func init() {
	zeroFr.SetZero()
	zeroPoint = vcrypto.Identity
}

// CommitmentsEqual reports whether two commitments encode the same
// curve point. Exported so callers outside this package (benchmarks,
// fuzzers, tests) never need to reach into crypto's Point internals to
// compare two results.
func CommitmentsEqual(a, b vcrypto.Point) bool {
	return vcrypto.Equal(&a, &b)
}
