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

// Store is the backing store a trie is mounted on. It is keyed by
// (location, hash): hash is redundant to location in a consistent store
// and exists only for integrity cross-checks, so implementations are
// free to ignore it. A miss returns (nil, nil), not an error.
type Store interface {
	GetNode(location []byte, hash [CompressedHashSize]byte) ([]byte, error)
	PutNode(location []byte, hash [CompressedHashSize]byte, payload []byte) error
}

// CompressedHashSize is the width of the scalar hash used as the second
// half of a Store key.
const CompressedHashSize = 32

// MemStore is an in-memory Store, mainly for tests and for the CLI tools
// in cmd/. It is not safe for concurrent use, matching the single-threaded
// engine contract (spec §5).
type MemStore struct {
	nodes map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{nodes: make(map[string][]byte)}
}

func memKey(location []byte, hash [CompressedHashSize]byte) string {
	return string(location) + "|" + string(hash[:])
}

func (m *MemStore) GetNode(location []byte, hash [CompressedHashSize]byte) ([]byte, error) {
	b, ok := m.nodes[memKey(location, hash)]
	if !ok {
		return nil, nil
	}
	return b, nil
}

func (m *MemStore) PutNode(location []byte, hash [CompressedHashSize]byte, payload []byte) error {
	cp := make([]byte, len(payload))
	copy(cp, payload)
	m.nodes[memKey(location, hash)] = cp
	return nil
}
