package block

import (
	"github.com/rheehot/agora/pkg/crypto"
	"github.com/rheehot/agora/pkg/serialize"
	"github.com/rheehot/agora/pkg/types"
)

// Header is a block's metadata: the chain link, the transaction
// commitment, the active validator bitfield, the externalized quorum
// signature, and any enrollments issued at this height (spec.md §4.3).
type Header struct {
	PrevBlockHash      types.Hash
	Height             uint64
	MerkleRoot         types.Hash
	ValidatorsBitfield []byte
	AggregateSignature types.Signature
	Enrollments        []types.Enrollment
}

// Hash returns the header's content-addressed identifier.
func (h *Header) Hash() types.Hash {
	return crypto.HashFull(h.SigningBytes())
}

// SigningBytes is the canonical encoding the quorum's aggregate signature
// authenticates: everything except the signature itself.
func (h *Header) SigningBytes() []byte {
	w := serialize.NewWriter()
	h.writeBody(w)
	return w.Bytes()
}

// Serialize writes the full wire encoding, including the aggregate
// signature, via w.
func (h *Header) Serialize(w *serialize.Writer) {
	h.writeBody(w)
	w.WriteFixedBytes(h.AggregateSignature[:])
}

func (h *Header) writeBody(w *serialize.Writer) {
	w.WriteFixedBytes(h.PrevBlockHash[:])
	w.WriteUint64(h.Height)
	w.WriteFixedBytes(h.MerkleRoot[:])
	w.WriteVarBytes(h.ValidatorsBitfield)
	serialize.WriteSeq(w, h.Enrollments, WriteEnrollment)
}

// DeserializeHeader reconstructs a Header from r, the inverse of
// Serialize.
func DeserializeHeader(r *serialize.Reader) (*Header, error) {
	h := &Header{}

	prevHash, err := r.ReadFixedBytes(types.HashSize)
	if err != nil {
		return nil, err
	}
	copy(h.PrevBlockHash[:], prevHash)

	h.Height, err = r.ReadUint64()
	if err != nil {
		return nil, err
	}

	merkleRoot, err := r.ReadFixedBytes(types.HashSize)
	if err != nil {
		return nil, err
	}
	copy(h.MerkleRoot[:], merkleRoot)

	h.ValidatorsBitfield, err = r.ReadVarBytes()
	if err != nil {
		return nil, err
	}

	h.Enrollments, err = serialize.ReadSeq(r, ReadEnrollment)
	if err != nil {
		return nil, err
	}

	sig, err := r.ReadFixedBytes(types.SignatureSize)
	if err != nil {
		return nil, err
	}
	copy(h.AggregateSignature[:], sig)

	return h, nil
}
