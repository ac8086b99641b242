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
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/karalabe/ssz"

	vcrypto "github.com/ethstatedb/verkle-trie/crypto"
)

// Type tags for the fixed-layout binary encoding (spec §4.5, option 2).
const (
	tagRoot     byte = 0
	tagInternal byte = 1
	tagStem     byte = 2
)

// Factory reconstructs nodes from a Store using the fixed-layout binary
// encoding. It is the only place in this module that knows that wire
// shape; everything else talks in terms of Node.
type Factory struct {
	store Store
	conf  *vcrypto.Config
}

func NewFactory(store Store, conf *vcrypto.Config) *Factory {
	return &Factory{store: store, conf: conf}
}

// internalEnvelope is the SSZ-encoded payload shared by Root and Internal:
// the node's commitment (compressed, §C1's 32-byte form — a round trip
// through C1's own compress/decompress pair, rather than the uncompressed
// 64-byte form that has no matching decode primitive in this facade) and
// the dense (always 256-wide) vector of each child slot's scalar hash.
// Absence is authoritative via the null-bitmap that precedes this
// envelope on the wire, not via a zero-valued scalar entry (a real child
// can legitimately hash to zero). Root's own scalar hash is carried
// outside the envelope, ahead of the type tag's body.
type internalEnvelope struct {
	Commitment [32]byte
	Scalars    [NodeWidth][32]byte
}

func (e *internalEnvelope) SizeSSZ(*ssz.Sizer) uint32 {
	return 32 + uint32(NodeWidth)*32
}

func (e *internalEnvelope) DefineSSZ(codec *ssz.Codec) {
	ssz.DefineStaticBytes(codec, &e.Commitment)
	ssz.DefineArrayOfStaticBytes(codec, &e.Scalars[:])
}

// Retrieve implements C5's contract: identify the variant by location
// length, load its bytes, and reconstruct it with Stored{Internal,Stem}
// placeholders standing in for every non-null child. A store miss yields
// (nil, nil), not an error.
func (f *Factory) Retrieve(location []byte, hash [CompressedHashSize]byte) (Node, error) {
	raw, err := f.store.GetNode(location, hash)
	if err != nil {
		return nil, StorageMiss(location, err)
	}
	if raw == nil {
		return nil, nil
	}
	return f.decode(location, raw)
}

func (f *Factory) decode(location, raw []byte) (Node, error) {
	if len(raw) < 1 {
		return nil, MalformedNode(location, fmt.Errorf("empty payload"))
	}
	tag, body := raw[0], raw[1:]

	switch {
	case len(location) == 0 && tag == tagRoot:
		return f.decodeRootOrInternal(location, body, true)
	case len(location) >= 1 && len(location) <= 30 && tag == tagInternal:
		return f.decodeRootOrInternal(location, body, false)
	case len(location) == 31 && tag == tagStem:
		return f.decodeStem(location, body)
	case len(location) > StemSize:
		return nil, UnknownLocationLength(location)
	default:
		return nil, MalformedNode(location, fmt.Errorf("tag %d inconsistent with location length %d", tag, len(location)))
	}
}

func (f *Factory) decodeRootOrInternal(location, body []byte, isRoot bool) (Node, error) {
	var storedHash [32]byte
	rest := body
	if isRoot {
		if len(rest) < 32 {
			return nil, MalformedNode(location, fmt.Errorf("root payload too short"))
		}
		copy(storedHash[:], rest[:32])
		rest = rest[32:]
	}

	const bitmapSize = NodeWidth / 8
	if len(rest) < 32+bitmapSize {
		return nil, MalformedNode(location, fmt.Errorf("internal payload too short"))
	}
	var commitmentBytes [32]byte
	copy(commitmentBytes[:], rest[:32])
	bitmapBytes := rest[32 : 32+bitmapSize]
	bm := bitset.From(bytesToUint64sMSBFirst(bitmapBytes))

	internal := newInternal(location, f.conf)
	point, err := vcrypto.Decompress(commitmentBytes)
	if err != nil {
		return nil, CryptoErr(location, err)
	}
	internal.commitment = point
	internal.hash = vcrypto.ScalarOf(point)

	packed := rest[32+bitmapSize:]
	offset := 0
	for i := 0; i < NodeWidth; i++ {
		absent := bm.Test(uint(i))
		if absent {
			continue
		}
		if offset+32 > len(packed) {
			return nil, MalformedNode(location, fmt.Errorf("truncated scalar tail at slot %d", i))
		}
		var scalarBytes [32]byte
		copy(scalarBytes[:], packed[offset:offset+32])
		offset += 32

		childLoc := append(append([]byte(nil), location...), byte(i))
		internal.children[i] = newStoredInternalOrStem(f, childLoc, scalarBytes)
	}

	if isRoot {
		return &Root{Internal: internal}, nil
	}
	return internal, nil
}

func (f *Factory) decodeStem(location, body []byte) (Node, error) {
	const bitmapSize = NodeWidth / 8
	const headerSize = StemSize + 32 + 32 + 32 + 32 + 32 + bitmapSize
	if len(body) < headerSize {
		return nil, MalformedNode(location, fmt.Errorf("stem payload too short"))
	}

	s := &Stem{conf: f.conf}
	copy(s.stem[:], body[:StemSize])
	off := StemSize

	var cBytes, clBytes, crBytes [32]byte
	copy(cBytes[:], body[off:off+32])
	off += 32
	copy(clBytes[:], body[off:off+32])
	off += 32
	copy(crBytes[:], body[off:off+32])
	off += 32

	p, err := vcrypto.Decompress(cBytes)
	if err != nil {
		return nil, CryptoErr(location, err)
	}
	s.commitment = p
	if p, err := vcrypto.Decompress(clBytes); err == nil {
		s.c1 = p
	} else {
		return nil, CryptoErr(location, err)
	}
	if p, err := vcrypto.Decompress(crBytes); err == nil {
		s.c2 = p
	} else {
		return nil, CryptoErr(location, err)
	}
	off += 64 // skip Sl/Sr's declared slots (32 bytes each): recomputed below from Cl/Cr directly
	bitmapBytes := body[off : off+bitmapSize]
	off += bitmapSize
	bm := bitset.From(bytesToUint64sMSBFirst(bitmapBytes))

	for i := range s.values {
		s.values[i] = nullLeaf
	}
	packed := body[off:]
	offset := 0
	occupied := 0
	for i := 0; i < NodeWidth; i++ {
		if bm.Test(uint(i)) {
			continue
		}
		if offset+ValueSize > len(packed) {
			return nil, MalformedNode(location, fmt.Errorf("truncated value tail at slot %d", i))
		}
		var key [KeySize]byte
		copy(key[:StemSize], s.stem[:])
		key[StemSize] = byte(i)
		s.values[i] = newLeaf(key[:], packed[offset:offset+ValueSize])
		offset += ValueSize
		occupied++
	}
	s.occupied = occupied
	s.c1Scalar = vcrypto.ScalarOf(s.c1)
	s.c2Scalar = vcrypto.ScalarOf(s.c2)
	s.hash = vcrypto.ScalarOf(s.commitment)
	return s, nil
}

func bytesToUint64sMSBFirst(b []byte) []uint64 {
	out := make([]uint64, len(b)/8)
	for i := range out {
		var w uint64
		for j := 0; j < 8; j++ {
			w = w<<8 | uint64(b[i*8+j])
		}
		out[i] = w
	}
	return out
}

// Encode renders n in the fixed-layout binary format. Root and Internal
// share encodeInternalEnvelope; Stem uses the manual layout of spec §4.5
// directly. Both write a packed tail: only present children or occupied
// suffixes contribute scalars or values.
func (f *Factory) Encode(n Node) ([]byte, error) {
	switch v := n.(type) {
	case *Root:
		body, err := encodeInternalEnvelope(v.Internal)
		if err != nil {
			return nil, err
		}
		h := v.Hash()
		hb := h.Bytes()
		out := make([]byte, 0, 1+32+len(body))
		out = append(out, tagRoot)
		out = append(out, hb[:]...)
		out = append(out, body...)
		return out, nil
	case *Internal:
		body, err := encodeInternalEnvelope(v)
		if err != nil {
			return nil, err
		}
		return append([]byte{tagInternal}, body...), nil
	case *Stem:
		return encodeStem(v), nil
	default:
		return nil, MalformedNode(n.Location(), fmt.Errorf("%T is not directly encodable", n))
	}
}

// encodeInternalEnvelope writes commitment ‖ nullBitmap ‖ packedScalars.
// The commitment is the leading 32 bytes of the karalabe/ssz encoding of
// internalEnvelope; the scalars (little-endian) of the non-null children
// are then appended by hand in slot order, so absent slots take no space.
// decode reads this layout back by hand, without ssz.
func encodeInternalEnvelope(n *Internal) ([]byte, error) {
	cBytes := vcrypto.Compress(n.Commitment())

	bm := bitset.New(NodeWidth)
	var env internalEnvelope
	copy(env.Commitment[:], cBytes[:])
	for i, child := range n.children {
		if _, isNull := child.(*Null); isNull {
			bm.Set(uint(i))
			continue
		}
		h := child.Hash()
		hb := h.BytesLE()
		copy(env.Scalars[i][:], hb[:])
	}

	sszBytes, err := ssz.EncodeToBytes(&env)
	if err != nil {
		return nil, fmt.Errorf("ssz encode internal envelope: %w", err)
	}
	out := make([]byte, 0, 32+NodeWidth/8+NodeWidth*32)
	out = append(out, sszBytes[:32]...)
	out = append(out, bitmapToBytes(bm)...)
	for i, child := range n.children {
		if _, isNull := child.(*Null); isNull {
			continue
		}
		out = append(out, env.Scalars[i][:]...)
	}
	return out, nil
}

func encodeStem(s *Stem) []byte {
	cBytes := vcrypto.Compress(s.commitment)
	clBytes := vcrypto.Compress(s.c1)
	crBytes := vcrypto.Compress(s.c2)
	slBytes := s.c1Scalar.Bytes()
	srBytes := s.c2Scalar.Bytes()

	bm := bitset.New(NodeWidth)
	out := make([]byte, 0, StemSize+32*3+32*2+NodeWidth/8+s.occupied*ValueSize)
	out = append(out, s.stem[:]...)
	out = append(out, cBytes[:]...)
	out = append(out, clBytes[:]...)
	out = append(out, crBytes[:]...)
	out = append(out, slBytes[:]...)
	out = append(out, srBytes[:]...)

	var tail []byte
	for i, v := range s.values {
		if v == nullLeaf {
			bm.Set(uint(i))
			continue
		}
		val, _ := v.GetValue(append(append([]byte(nil), s.stem[:]...), byte(i)))
		tail = append(tail, val...)
	}
	out = append(out, bitmapToBytes(bm)...)
	out = append(out, tail...)
	return append([]byte{tagStem}, out...)
}

// bitmapToBytes and bytesToUint64sMSBFirst are each other's inverse; the
// exact bit-to-byte mapping only has to be self-consistent across an
// Encode/decode round trip through this one factory, which it is.
func bitmapToBytes(bm *bitset.BitSet) []byte {
	words := bm.Bytes()
	out := make([]byte, NodeWidth/8)
	for i, w := range words {
		for j := 0; j < 8 && i*8+j < len(out); j++ {
			out[i*8+j] = byte(w >> (56 - 8*j))
		}
	}
	return out
}

// newStoredInternalOrStem builds the lazy placeholder a factory installs
// for a non-null child slot: StoredInternal when the slot is itself
// 1..30 bytes deep, StoredStem at depth 31 (spec §4.4, §4.5).
func newStoredInternalOrStem(f *Factory, location []byte, scalar [32]byte) Node {
	var h vcrypto.Fr
	_ = vcrypto.FromLEBytes(&h, scalar[:])
	if len(location) == StemSize {
		return &StoredStem{factory: f, location: location, hash: h}
	}
	return &StoredInternal{factory: f, location: location, hash: h}
}
