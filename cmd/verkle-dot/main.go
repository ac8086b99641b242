package main

import (
	"crypto/rand"
	"flag"
	"fmt"
	"os"

	verkle "github.com/ethstatedb/verkle-trie"
)

func main() {
	out := flag.String("o", "tree.dot", "output .dot/.gv file")
	count := flag.Int("n", 32, "number of random keys to insert before export")
	flag.Parse()

	conf, err := verkle.GetConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "loading commitment config:", err)
		os.Exit(1)
	}

	tree := verkle.New(verkle.NewMemStore(), conf)
	for i := 0; i < *count; i++ {
		key := make([]byte, verkle.KeySize)
		value := make([]byte, verkle.ValueSize)
		if _, err := rand.Read(key); err != nil {
			panic(err)
		}
		if _, err := rand.Read(value); err != nil {
			panic(err)
		}
		if err := tree.Put(key, value); err != nil {
			panic(err)
		}
	}

	if err := verkle.ExportDotFile(tree.Root(), *out); err != nil {
		fmt.Fprintln(os.Stderr, "exporting dot file:", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s\n", *out)
}
