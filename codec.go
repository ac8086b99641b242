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
	"github.com/holiman/uint256"
)

// Basic-data leaf field layout (spec §3):
//
//	version    offset 0  size 1
//	(reserved) offset 1  size 4
//	code_size  offset 5  size 3
//	nonce      offset 8  size 8
//	balance    offset 16 size 16
//
// All multi-byte fields are little-endian.
const (
	versionOffset, versionSize   = 0, 1
	codeSizeOffset, codeSizeSize = 5, 3
	nonceOffset, nonceSize       = 8, 8
	balanceOffset, balanceSize   = 16, 16
)

// SetVersion returns basicData with its version byte replaced.
func SetVersion(basicData [ValueSize]byte, version byte) [ValueSize]byte {
	basicData[versionOffset] = version
	return basicData
}

// SetCodeSize returns basicData with its 3-byte little-endian code_size
// field replaced. Fails with FieldSize if size doesn't fit 3 bytes.
func SetCodeSize(basicData [ValueSize]byte, size uint32) ([ValueSize]byte, error) {
	if size >= 1<<24 {
		return basicData, FieldSize("code_size", codeSizeSize, 4)
	}
	var buf [4]byte
	buf[0], buf[1], buf[2] = byte(size), byte(size>>8), byte(size>>16)
	copy(basicData[codeSizeOffset:codeSizeOffset+codeSizeSize], buf[:codeSizeSize])
	return basicData, nil
}

// SetNonce returns basicData with its 8-byte little-endian nonce field
// replaced.
func SetNonce(basicData [ValueSize]byte, nonce uint64) [ValueSize]byte {
	var buf [8]byte
	for i := range buf {
		buf[i] = byte(nonce >> (8 * i))
	}
	copy(basicData[nonceOffset:nonceOffset+nonceSize], buf[:])
	return basicData
}

// SetBalance returns basicData with its 16-byte little-endian balance
// field replaced. Fails with FieldSize if balance overflows 128 bits.
func SetBalance(basicData [ValueSize]byte, balance *uint256.Int) ([ValueSize]byte, error) {
	if balance.BitLen() > 128 {
		return basicData, FieldSize("balance", balanceSize, (balance.BitLen()+7)/8)
	}
	// Bytes32 renders big-endian; the codec's wire format is
	// little-endian, so reverse the low 16 bytes into place.
	be := balance.Bytes32()
	var le [16]byte
	for i := 0; i < 16; i++ {
		le[i] = be[31-i]
	}
	copy(basicData[balanceOffset:balanceOffset+balanceSize], le[:])
	return basicData, nil
}

// Version reads the version field back out of a basic-data leaf value.
func Version(basicData [ValueSize]byte) byte {
	return basicData[versionOffset]
}

// CodeSize reads the code_size field back out.
func CodeSize(basicData [ValueSize]byte) uint32 {
	b := basicData[codeSizeOffset : codeSizeOffset+codeSizeSize]
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}

// Nonce reads the nonce field back out.
func Nonce(basicData [ValueSize]byte) uint64 {
	b := basicData[nonceOffset : nonceOffset+nonceSize]
	var n uint64
	for i := 7; i >= 0; i-- {
		n = n<<8 | uint64(b[i])
	}
	return n
}

// Balance reads the balance field back out.
func Balance(basicData [ValueSize]byte) *uint256.Int {
	var be [32]byte
	for i := 0; i < 16; i++ {
		be[31-i] = basicData[balanceOffset+i]
	}
	return new(uint256.Int).SetBytes(be[:])
}
