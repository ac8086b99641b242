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
	"os"
	"sync"

	vcrypto "github.com/ethstatedb/verkle-trie/crypto"
)

// PrecompEnvVar names the file, when set and present, holding a serialized
// SRS precomputation that GetConfig loads instead of paying for
// ipa.NewIPASettings()'s basis-point setup.
const PrecompEnvVar = "VERKLE_SRS_PRECOMP_FILE"

var (
	globalConfig     *vcrypto.Config
	globalConfigOnce sync.Once
	globalConfigErr  error
)

// GetConfig returns the process-wide commitment configuration, building it
// on first use and memoizing thereafter. Safe for concurrent callers.
func GetConfig() (*vcrypto.Config, error) {
	globalConfigOnce.Do(func() {
		if path := os.Getenv(PrecompEnvVar); path != "" {
			if b, err := os.ReadFile(path); err == nil {
				if conf, err := vcrypto.NewConfigFromPrecomp(b); err == nil {
					globalConfig = conf
					return
				}
			}
		}
		globalConfig, globalConfigErr = vcrypto.NewConfig()
	})
	return globalConfig, globalConfigErr
}
