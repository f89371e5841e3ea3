package block

import (
	"github.com/rheehot/agora/pkg/serialize"
	"github.com/rheehot/agora/pkg/types"
)

// WriteEnrollment and ReadEnrollment live here rather than in pkg/types
// because pkg/serialize already imports pkg/types; types.Enrollment
// cannot depend on serialize without a cycle. pkg/block and
// internal/enrollment both sit above both packages, so the wire codec
// for enrollments belongs here.

// WriteEnrollment writes the full wire encoding of an enrollment,
// including its signature, via w.
func WriteEnrollment(w *serialize.Writer, e types.Enrollment) {
	writeEnrollmentBody(w, e)
	w.WriteFixedBytes(e.EnrollSig[:])
}

// ReadEnrollment reconstructs an Enrollment from r, the inverse of
// WriteEnrollment.
func ReadEnrollment(r *serialize.Reader) (types.Enrollment, error) {
	var e types.Enrollment

	key, err := r.ReadFixedBytes(types.HashSize)
	if err != nil {
		return e, err
	}
	copy(e.UTXOKey[:], key)

	seed, err := r.ReadFixedBytes(types.HashSize)
	if err != nil {
		return e, err
	}
	copy(e.RandomSeed[:], seed)

	e.CycleLength, err = r.ReadUint32()
	if err != nil {
		return e, err
	}

	sig, err := r.ReadFixedBytes(types.SignatureSize)
	if err != nil {
		return e, err
	}
	copy(e.EnrollSig[:], sig)

	return e, nil
}

// EnrollmentSigningBytes is the canonical encoding an enrollment's
// Schnorr signature authenticates: everything except the signature
// itself (spec.md §4.5).
func EnrollmentSigningBytes(e types.Enrollment) []byte {
	w := serialize.NewWriter()
	writeEnrollmentBody(w, e)
	return w.Bytes()
}

func writeEnrollmentBody(w *serialize.Writer, e types.Enrollment) {
	w.WriteFixedBytes(e.UTXOKey[:])
	w.WriteFixedBytes(e.RandomSeed[:])
	w.WriteUint32(e.CycleLength)
}
