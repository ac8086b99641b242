package main

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"sort"

	verkle "github.com/ethstatedb/verkle-trie"
)

// This tool repeatedly builds the same random key set two ways - one key
// at a time via Put, and in one shot via PutBulk - and panics the moment
// their root commitments disagree. It is the fuzzing counterpart to the
// root-equivalence property tests: grounded on the teacher's
// cmd/fuzzinsertstemordered, generalized from stem-ordered single-leaf
// insertion to this engine's stem-grouped bulk path.
func main() {
	for attempt := 0; ; attempt++ {
		fmt.Println("attempt #", attempt)

		conf, err := verkle.GetConfig()
		if err != nil {
			panic(err)
		}

		const stemCount = 2000
		stems := make([][]byte, stemCount)
		for i := range stems {
			stems[i] = make([]byte, verkle.StemSize)
			if _, err := rand.Read(stems[i]); err != nil {
				panic(err)
			}
		}
		sort.Slice(stems, func(i, j int) bool { return bytes.Compare(stems[i], stems[j]) < 0 })

		var pairs []verkle.KV
		for _, stem := range stems {
			slots := 1 + (int(stem[0]) % 8) // a handful of occupied suffixes per stem
			for i := 0; i < slots; i++ {
				var kv verkle.KV
				copy(kv.Key[:verkle.StemSize], stem)
				kv.Key[verkle.StemSize] = byte(i * 17)
				if _, err := rand.Read(kv.Value[:]); err != nil {
					panic(err)
				}
				pairs = append(pairs, kv)
			}
		}

		serial := verkle.New(verkle.NewMemStore(), conf)
		for _, kv := range pairs {
			if err := serial.Put(kv.Key[:], kv.Value[:]); err != nil {
				panic(err)
			}
		}

		bulk := verkle.New(verkle.NewMemStore(), conf)
		if err := bulk.PutBulk(pairs); err != nil {
			panic(err)
		}

		sh, sc, err := serial.CommitRoot()
		if err != nil {
			panic(err)
		}
		bh, bc, err := bulk.CommitRoot()
		if err != nil {
			panic(err)
		}
		shb, bhb := sh.Bytes(), bh.Bytes()
		if !bytes.Equal(shb[:], bhb[:]) || !verkle.CommitmentsEqual(sc, bc) {
			panic("serial Put and PutBulk produced differing root commitments")
		}
	}
}
