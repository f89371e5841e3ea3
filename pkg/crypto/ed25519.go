package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/rheehot/agora/pkg/types"
)

// KeyPairFromSeed deterministically derives a key pair from a seed.
func KeyPairFromSeed(seed types.Seed) types.KeyPair {
	secret := ed25519.NewKeyFromSeed(seed[:])
	var kp types.KeyPair
	copy(kp.Public[:], secret.Public().(ed25519.PublicKey))
	copy(kp.Secret[:], secret)
	return kp
}

// KeyPairRandom generates a key pair from the system CSPRNG.
func KeyPairRandom() (types.KeyPair, error) {
	var seed types.Seed
	if _, err := rand.Read(seed[:]); err != nil {
		return types.KeyPair{}, fmt.Errorf("generate seed: %w", err)
	}
	return KeyPairFromSeed(seed), nil
}

// Sign produces a detached Ed25519 signature of msg under secret.
func Sign(secret types.SecretKey, msg []byte) types.Signature {
	sig := ed25519.Sign(ed25519.PrivateKey(secret[:]), msg)
	var out types.Signature
	copy(out[:], sig)
	return out
}

// Verify reports whether sig is a valid Ed25519 signature of msg under
// public. It never returns an error — an invalid or malformed signature
// simply verifies false, per the primitive's "verify never throws"
// contract.
func Verify(public types.PublicKey, sig types.Signature, msg []byte) bool {
	return ed25519.Verify(ed25519.PublicKey(public[:]), msg, sig[:])
}
