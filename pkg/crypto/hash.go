// Package crypto implements Agora's cryptographic primitives: content
// addressed hashing, Ed25519 key pairs and signatures, the Curve25519
// scalar derivation used for enrollment, and the Schnorr-family
// enrollment signature built on top of it.
package crypto

import (
	"github.com/zeebo/blake3"

	"github.com/rheehot/agora/pkg/types"
)

// HashFull feeds data into the BLAKE3 hash sponge and reads back
// types.HashSize bytes of output. BLAKE3's extendable-output mode is
// used rather than its default 32-byte Sum so the result matches the
// 64-byte Hash the rest of the system expects.
func HashFull(data []byte) types.Hash {
	h := blake3.New()
	h.Write(data)
	var out types.Hash
	digest := h.Digest()
	digest.Read(out[:])
	return out
}

// HashConcat hashes the concatenation of two hashes, the operation used
// to build internal merkle-tree nodes.
func HashConcat(a, b types.Hash) types.Hash {
	buf := make([]byte, 0, types.HashSize*2)
	buf = append(buf, a[:]...)
	buf = append(buf, b[:]...)
	return HashFull(buf)
}
