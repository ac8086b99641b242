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

	vcrypto "github.com/ethstatedb/verkle-trie/crypto"
)

// Cache is the get-or-compute interface the stem hasher's cache
// implements (spec §4.3, §5). Only the NewSharedCache wrapper coalesces
// concurrent requests for the same key so that the loader runs at most
// once; the no-op and LRU caches run the loader on every miss, concurrent
// misses included. Implementations may drop entries at any time; eviction
// fairness is not part of the contract.
type Cache[K comparable, V any] interface {
	GetOrCompute(key K, loader func() (V, error)) (V, error)
}

// noopCache never remembers anything; every call runs loader.
type noopCache[K comparable, V any] struct{}

// NewNoopCache returns a Cache that performs no memoization at all.
func NewNoopCache[K comparable, V any]() Cache[K, V] { return noopCache[K, V]{} }

func (noopCache[K, V]) GetOrCompute(_ K, loader func() (V, error)) (V, error) {
	return loader()
}

type stemHashKey struct {
	addr  [20]byte
	index [32]byte
}

// GetTreeKey implements C3's stem derivation (spec §4.3): given a 20-byte
// address and a 32-byte tree index, produce the 31-byte stem.
func GetTreeKey(conf *vcrypto.Config, addr [20]byte, index [32]byte, cache Cache[stemHashKey, [StemSize]byte]) ([StemSize]byte, error) {
	if cache == nil {
		cache = NewNoopCache[stemHashKey, [StemSize]byte]()
	}
	return cache.GetOrCompute(stemHashKey{addr: addr, index: index}, func() ([StemSize]byte, error) {
		return computeStem(conf, addr, index)
	})
}

func computeStem(conf *vcrypto.Config, addr [20]byte, index [32]byte) ([StemSize]byte, error) {
	scalars, err := stemScalars(addr, index)
	if err != nil {
		return [StemSize]byte{}, err
	}
	c := conf.CommitSparse(scalars)
	s := vcrypto.ScalarOf(c)
	b := s.BytesLE() // little-endian per package convention
	var out [StemSize]byte
	copy(out[:], b[:StemSize])
	return out, nil
}

// stemScalars builds the 5-scalar input of spec §4.3 step 2:
// [2+256*64, A_lo16, A_hi16, I_lo, I_hi], each widened to 32 bytes LE.
func stemScalars(addr [20]byte, index [32]byte) (map[uint8]vcrypto.Fr, error) {
	var domain vcrypto.Fr
	domain.SetUint64(stemHasherDomain)

	// Address is 20 bytes: split as the low 16 and the remaining 4
	// (widened to 16).
	var aLo, aHi [16]byte
	copy(aLo[:], addr[:16])
	copy(aHi[:], addr[16:20])

	var iLo, iHi [16]byte
	copy(iLo[:], index[:16])
	copy(iHi[:], index[16:32])

	var aLoFr, aHiFr, iLoFr, iHiFr vcrypto.Fr
	if err := vcrypto.FromLEBytes(&aLoFr, aLo[:]); err != nil {
		return nil, CryptoErr(nil, fmt.Errorf("address low scalar: %w", err))
	}
	if err := vcrypto.FromLEBytes(&aHiFr, aHi[:]); err != nil {
		return nil, CryptoErr(nil, fmt.Errorf("address high scalar: %w", err))
	}
	if err := vcrypto.FromLEBytes(&iLoFr, iLo[:]); err != nil {
		return nil, CryptoErr(nil, fmt.Errorf("index low scalar: %w", err))
	}
	if err := vcrypto.FromLEBytes(&iHiFr, iHi[:]); err != nil {
		return nil, CryptoErr(nil, fmt.Errorf("index high scalar: %w", err))
	}

	return map[uint8]vcrypto.Fr{
		0: domain,
		1: aLoFr,
		2: aHiFr,
		3: iLoFr,
		4: iHiFr,
	}, nil
}

// ManyStems is the batched form of GetTreeKey: for each address, derive
// the stems of every listed tree index.
func ManyStems(conf *vcrypto.Config, request map[[20]byte][][32]byte, cache Cache[stemHashKey, [StemSize]byte]) (map[[20]byte]map[[32]byte][StemSize]byte, error) {
	out := make(map[[20]byte]map[[32]byte][StemSize]byte, len(request))
	for addr, indices := range request {
		perAddr := make(map[[32]byte][StemSize]byte, len(indices))
		for _, idx := range indices {
			stem, err := GetTreeKey(conf, addr, idx, cache)
			if err != nil {
				return nil, err
			}
			perAddr[idx] = stem
		}
		out[addr] = perAddr
	}
	return out, nil
}
