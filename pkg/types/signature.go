package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// SignatureSize is the length of a detached Ed25519 signature.
const SignatureSize = 64

// Signature is a detached Ed25519 signature.
type Signature [SignatureSize]byte

// IsZero reports whether sig is the all-zero signature.
func (sig Signature) IsZero() bool {
	return sig == Signature{}
}

// Bytes returns a copy of sig as a byte slice.
func (sig Signature) Bytes() []byte {
	b := make([]byte, SignatureSize)
	copy(b, sig[:])
	return b
}

// String returns the hex encoding of sig.
func (sig Signature) String() string {
	return hex.EncodeToString(sig[:])
}

// MarshalJSON encodes sig as a hex string.
func (sig Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal(sig.String())
}

// UnmarshalJSON decodes a hex string into sig.
func (sig *Signature) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*sig = Signature{}
		return nil
	}
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid signature hex: %w", err)
	}
	if len(decoded) != SignatureSize {
		return fmt.Errorf("signature must be %d bytes, got %d", SignatureSize, len(decoded))
	}
	copy(sig[:], decoded)
	return nil
}

// SignatureFromBytes copies b into a Signature. b must be exactly
// SignatureSize bytes.
func SignatureFromBytes(b []byte) (Signature, error) {
	if len(b) != SignatureSize {
		return Signature{}, fmt.Errorf("signature must be %d bytes, got %d", SignatureSize, len(b))
	}
	var sig Signature
	copy(sig[:], b)
	return sig, nil
}
