package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// PublicKeySize is the length of an Ed25519 public key.
const PublicKeySize = 32

// SecretKeySize is the length of an expanded Ed25519 secret key (seed ||
// public key, the form the stdlib ed25519 package signs with).
const SecretKeySize = 64

// SeedSize is the length of an Ed25519 seed, the value a key pair is
// deterministically derived from.
const SeedSize = 32

// ScalarSize is the length of the Curve25519 scalar derived from an
// Ed25519 secret key.
const ScalarSize = 32

// PublicKey is a 32-byte Ed25519 public key.
type PublicKey [PublicKeySize]byte

// SecretKey is a 64-byte expanded Ed25519 secret key.
type SecretKey [SecretKeySize]byte

// Seed is the 32-byte value an Ed25519 key pair is derived from.
type Seed [SeedSize]byte

// Scalar is a Curve25519 scalar, derived from an Ed25519 secret via
// ed25519_secret_to_curve_scalar.
type Scalar [ScalarSize]byte

// KeyPair bundles a secret key with its corresponding public key.
type KeyPair struct {
	Public PublicKey
	Secret SecretKey
}

// Zero overwrites k's secret material with zeros. The public key is left
// intact; it is not sensitive.
func (k *KeyPair) Zero() {
	for i := range k.Secret {
		k.Secret[i] = 0
	}
}

// Bytes returns a copy of pk as a byte slice.
func (pk PublicKey) Bytes() []byte {
	b := make([]byte, PublicKeySize)
	copy(b, pk[:])
	return b
}

// IsZero reports whether pk is the all-zero public key.
func (pk PublicKey) IsZero() bool {
	return pk == PublicKey{}
}

// String renders pk as a Stellar-style account address beginning with 'G'.
func (pk PublicKey) String() string {
	s, err := EncodeStrkey(VersionAccountID, pk[:])
	if err != nil {
		return hex.EncodeToString(pk[:])
	}
	return s
}

// MarshalJSON encodes pk as its address string.
func (pk PublicKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(pk.String())
}

// UnmarshalJSON decodes an address string into pk.
func (pk *PublicKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*pk = PublicKey{}
		return nil
	}
	parsed, err := ParsePublicKey(s)
	if err != nil {
		return err
	}
	*pk = parsed
	return nil
}

// ParsePublicKey decodes a Stellar-style account address ("G...") into a
// PublicKey. Returns ErrMalformedAddress on CRC mismatch, wrong version
// byte or wrong length.
func ParsePublicKey(s string) (PublicKey, error) {
	version, payload, err := DecodeStrkey(s)
	if err != nil {
		return PublicKey{}, err
	}
	if version != VersionAccountID {
		return PublicKey{}, fmt.Errorf("%w: expected account-id version byte", ErrMalformedAddress)
	}
	if len(payload) != PublicKeySize {
		return PublicKey{}, fmt.Errorf("%w: public key must be %d bytes, got %d", ErrMalformedAddress, PublicKeySize, len(payload))
	}
	var pk PublicKey
	copy(pk[:], payload)
	return pk, nil
}

// Bytes returns a copy of s as a byte slice.
func (s Seed) Bytes() []byte {
	b := make([]byte, SeedSize)
	copy(b, s[:])
	return b
}

// String renders the seed as a Stellar-style secret seed beginning with 'S'.
// Callers should avoid logging this value.
func (s Seed) String() string {
	out, err := EncodeStrkey(VersionSeed, s[:])
	if err != nil {
		return hex.EncodeToString(s[:])
	}
	return out
}

// ParseSeed decodes a Stellar-style secret seed ("S...") into a Seed.
func ParseSeed(s string) (Seed, error) {
	version, payload, err := DecodeStrkey(s)
	if err != nil {
		return Seed{}, err
	}
	if version != VersionSeed {
		return Seed{}, fmt.Errorf("%w: expected seed version byte", ErrMalformedAddress)
	}
	if len(payload) != SeedSize {
		return Seed{}, fmt.Errorf("%w: seed must be %d bytes, got %d", ErrMalformedAddress, SeedSize, len(payload))
	}
	var out Seed
	copy(out[:], payload)
	return out, nil
}

// Bytes returns a copy of sk as a byte slice.
func (sk SecretKey) Bytes() []byte {
	b := make([]byte, SecretKeySize)
	copy(b, sk[:])
	return b
}

// Bytes returns a copy of sc as a byte slice.
func (sc Scalar) Bytes() []byte {
	b := make([]byte, ScalarSize)
	copy(b, sc[:])
	return b
}
