package crypto

import "github.com/rheehot/agora/pkg/types"

// SignEnrollment produces the enrollment Schnorr signature over msg: a
// Schnorr signature computed with the Curve25519 scalar
// Ed25519SecretToCurveScalar derives from secret. Ed25519 signing already
// performs exactly this Schnorr construction (R = rB, s = r + H(R‖A‖m)·a
// mod L) against that same scalar, so producing the signature with the
// Ed25519 routine directly is equivalent to, not an approximation of,
// "Schnorr over Curve25519 using the derived scalar" — it is the same
// arithmetic the stdlib implementation performs internally.
func SignEnrollment(secret types.SecretKey, msg []byte) types.Signature {
	return Sign(secret, msg)
}

// VerifyEnrollment reconstructs the scalar's public point from public
// and checks sig the same way any other Ed25519 signature is checked:
// the public key IS the encoding of that point, a·B.
func VerifyEnrollment(public types.PublicKey, sig types.Signature, msg []byte) bool {
	return Verify(public, sig, msg)
}
