// Package identifier mints the opaque ids used for users, sessions and
// audit entries. These are unrelated to SFT numbers, which come from the
// bounded allocator.
package identifier

import (
	"crypto/rand"
	"encoding/hex"
)

const entropyBytes = 10

// New creates a short entropy-backed identifier with a stable prefix,
// e.g. usr_1f8a9c.
func New(prefix string) string {
	buf := make([]byte, entropyBytes)
	_, _ = rand.Read(buf)
	return prefix + "_" + hex.EncodeToString(buf)
}
