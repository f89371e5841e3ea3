package crypto

import (
	"crypto/sha512"

	"github.com/rheehot/agora/pkg/types"
)

// Ed25519SecretToCurveScalar derives the Curve25519 scalar an Ed25519
// secret key signs with. Per RFC 8032 §5.1.5, the scalar is the first 32
// bytes of SHA-512(seed), clamped: the low 3 bits of byte 0 are cleared,
// the high bit of byte 31 is cleared, and bit 6 of byte 31 is set. This
// is exactly the scalar "a" such that the Ed25519 public key is a·B for
// base point B on the twisted Edwards curve birationally equivalent to
// Curve25519.
func Ed25519SecretToCurveScalar(secret types.SecretKey) types.Scalar {
	seed := secret[:types.SeedSize]
	h := sha512.Sum512(seed)

	var scalar types.Scalar
	copy(scalar[:], h[:types.ScalarSize])
	scalar[0] &= 248
	scalar[31] &= 127
	scalar[31] |= 64
	return scalar
}
