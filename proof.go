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

// Witness is the fixed-shape bundle C8 forwards to the primitive's
// verify_pre_state entry point (spec §4.8, §6). It carries no proof
// bytes of its own: construction is delegated to C1 (go-ipa); this
// engine only knows how to walk its own tree to assemble the arrays the
// primitive expects.
type Witness struct {
	Keys              [][]byte
	CurrentValues     [][]byte
	CommitmentsByPath map[string]vcrypto.Point
	Cl, Cr            []vcrypto.Point
	OtherStems        [][]byte
	DepthsExt         []byte
	FinalEval         vcrypto.Fr
	PreStateRoot      vcrypto.Point
}

// GetCommitmentsAlongPath walks from root to the Stem that would own key,
// recording every Internal node's commitment keyed by its location
// (suitable for the primitive's path-indexed opening set), and returns
// the terminal Stem's two half-commitments. A path that ends in Null or
// a diverging Stem still returns the commitments collected so far, with
// found=false, matching the primitive's pre-state ABI for absent keys.
func GetCommitmentsAlongPath(root Node, key []byte) (commitments map[string]vcrypto.Point, cl, cr vcrypto.Point, stem []byte, found bool, err error) {
	if len(key) != KeySize {
		return nil, vcrypto.Point{}, vcrypto.Point{}, nil, false, KeyLengthInvalid(len(key))
	}
	commitments = make(map[string]vcrypto.Point)

	var cur Node = root
	for {
		switch c := cur.(type) {
		case *Root:
			commitments[string(c.Location())] = c.Commitment()
			cur = c.Internal
		case *Internal:
			commitments[string(c.Location())] = c.Commitment()
			cur = c.children[c.childIndex(key)]
		case *StoredInternal:
			resolved, rerr := c.resolve()
			if rerr != nil {
				return nil, vcrypto.Point{}, vcrypto.Point{}, nil, false, rerr
			}
			cur = resolved
		case *StoredStem:
			resolved, rerr := c.resolve()
			if rerr != nil {
				return nil, vcrypto.Point{}, vcrypto.Point{}, nil, false, rerr
			}
			cur = resolved
		case *Stem:
			commitments[string(c.Location())] = c.Commitment()
			if !equalBytes(c.stem[:], key[:StemSize]) {
				return commitments, c.c1, c.c2, append([]byte(nil), c.stem[:]...), false, nil
			}
			return commitments, c.c1, c.c2, append([]byte(nil), c.stem[:]...), true, nil
		default: // *Null, *NullLeaf
			return commitments, vcrypto.Point{}, vcrypto.Point{}, nil, false, nil
		}
	}
}

// MakeProofOneLeaf assembles a single-key Witness for key against root.
// currentValue is read directly from the tree; a nil value (key absent)
// is rendered as an empty byte string, per the primitive's ABI note in
// spec §4.8.
func MakeProofOneLeaf(root Node, key []byte) (*Witness, error) {
	return MakeMultiProof(root, [][]byte{key})
}

// MakeMultiProof is MakeProofOneLeaf generalized to a batch of keys,
// merging every key's path commitments into one map (paths shared by
// more than one key are recorded once) and concatenating their Cl/Cr and
// depth-extension-status arrays in key order.
func MakeMultiProof(root Node, keys [][]byte) (*Witness, error) {
	w := &Witness{
		CommitmentsByPath: make(map[string]vcrypto.Point),
		PreStateRoot:      root.Commitment(),
	}
	for _, key := range keys {
		if len(key) != KeySize {
			return nil, KeyLengthInvalid(len(key))
		}
		commitments, cl, cr, stem, found, err := GetCommitmentsAlongPath(root, key)
		if err != nil {
			return nil, err
		}
		for loc, comm := range commitments {
			w.CommitmentsByPath[loc] = comm
		}

		value, err := root.GetValue(key)
		if err != nil {
			return nil, err
		}
		w.Keys = append(w.Keys, append([]byte(nil), key...))
		w.CurrentValues = append(w.CurrentValues, append([]byte(nil), value...))
		w.Cl = append(w.Cl, cl)
		w.Cr = append(w.Cr, cr)

		if found {
			w.DepthsExt = append(w.DepthsExt, 1)
		} else {
			w.DepthsExt = append(w.DepthsExt, 0)
			if stem != nil && !equalBytes(stem, key[:StemSize]) {
				w.OtherStems = append(w.OtherStems, stem)
			}
		}
	}
	return w, nil
}

// VerifyPreState forwards w to C1's verify_pre_state, per spec §4.8:
// stateless, no proof construction, only the fixed-shape ABI call.
func VerifyPreState(w *Witness) (bool, error) {
	return vcrypto.VerifyPreState(
		w.Keys,
		w.CurrentValues,
		w.CommitmentsByPath,
		w.Cl,
		w.Cr,
		w.OtherStems,
		vcrypto.Point{},
		w.DepthsExt,
		w.FinalEval,
		w.PreStateRoot,
	)
}
