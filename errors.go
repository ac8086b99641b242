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
	"fmt"
)

// Kind enumerates the error taxonomy from the design's error-handling
// section. Every TrieError carries one.
type Kind int

const (
	_ Kind = iota
	KindStorageMiss
	KindMalformedNode
	KindUnknownLocationLength
	KindCryptoError
	KindKeyLengthInvalid
	KindFieldSize
	KindIOError
)

func (k Kind) String() string {
	switch k {
	case KindStorageMiss:
		return "StorageMiss"
	case KindMalformedNode:
		return "MalformedNode"
	case KindUnknownLocationLength:
		return "UnknownLocationLength"
	case KindCryptoError:
		return "CryptoError"
	case KindKeyLengthInvalid:
		return "KeyLengthInvalid"
	case KindFieldSize:
		return "FieldSize"
	case KindIOError:
		return "IOError"
	default:
		return "Unknown"
	}
}

// TrieError is the one error type this package raises for conditions
// described in the design's taxonomy. It carries an optional Location
// pinpointing the offending node; none of these are recovered inside the
// engine — the caller decides whether to retry or surface it upward.
type TrieError struct {
	Kind     Kind
	Location []byte
	Err      error
}

func (e *TrieError) Error() string {
	if len(e.Location) == 0 {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s at %x: %v", e.Kind, e.Location, e.Err)
}

func (e *TrieError) Unwrap() error { return e.Err }

func newErr(kind Kind, location []byte, err error) *TrieError {
	return &TrieError{Kind: kind, Location: location, Err: err}
}

var (
	errInsertIntoHash    = errors.New("trying to insert into a stored (unloaded) node")
	errValueNotPresent   = errors.New("value not present in tree")
	errDeleteNonExistent = errors.New("trying to delete non-existent leaf")
	errReadFromInvalid   = errors.New("trying to read from an invalid child")
	errStemMismatch      = errors.New("stem does not match node's stem")
)

// StorageMiss reports that a Stored placeholder could not be loaded though
// it was expected to exist (e.g. referenced by a non-zero scalar).
func StorageMiss(location []byte, err error) error {
	return newErr(KindStorageMiss, location, err)
}

// MalformedNode reports that stored bytes violate the chosen encoding.
func MalformedNode(location []byte, err error) error {
	return newErr(KindMalformedNode, location, err)
}

// UnknownLocationLength reports a location longer than any stored node
// can have (longer than a stem).
func UnknownLocationLength(location []byte) error {
	return newErr(KindUnknownLocationLength, location, fmt.Errorf("location length %d exceeds stem length", len(location)))
}

// CryptoErr wraps a failure from the C1 facade.
func CryptoErr(location []byte, err error) error {
	return newErr(KindCryptoError, location, err)
}

// KeyLengthInvalid reports a key argument that is not exactly KeySize bytes.
func KeyLengthInvalid(got int) error {
	return newErr(KindKeyLengthInvalid, nil, fmt.Errorf("key must be %d bytes, got %d", KeySize, got))
}

// FieldSize reports a codec field argument of the wrong width.
func FieldSize(field string, want, got int) error {
	return newErr(KindFieldSize, nil, fmt.Errorf("field %s must be %d bytes, got %d", field, want, got))
}

// IOErr wraps a failure from peripheral I/O (DOT export and similar).
func IOErr(err error) error {
	return newErr(KindIOError, nil, err)
}
