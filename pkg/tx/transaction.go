// Package tx defines the Payment/Freeze transaction model and its
// validation rules.
package tx

import (
	"fmt"
	"math"

	"github.com/rheehot/agora/pkg/crypto"
	"github.com/rheehot/agora/pkg/serialize"
	"github.com/rheehot/agora/pkg/types"
)

// TxType distinguishes Payment transactions from Freeze transactions.
// Freeze outputs are the only ones eligible to back an enrollment.
type TxType uint8

const (
	Payment TxType = iota
	Freeze
)

func (t TxType) String() string {
	switch t {
	case Payment:
		return "payment"
	case Freeze:
		return "freeze"
	default:
		return "unknown"
	}
}

// Input spends a previously created output. Verification derives the
// spending public key from the referenced UTXO itself rather than
// carrying one alongside the signature, since outputs are pay-to-public-
// key, not pay-to-public-key-hash.
type Input struct {
	PrevOut   types.Outpoint
	Signature types.Signature
}

// Output creates a new UTXO paying Amount to Destination's public key.
type Output struct {
	Amount      uint64
	Destination types.PublicKey
}

// Transaction is a Payment or Freeze transaction: an ordered list of
// inputs and an ordered list of outputs.
type Transaction struct {
	Type    TxType
	Inputs  []Input
	Outputs []Output
}

// Hash returns the transaction's content-addressed identifier: the hash
// sponge fed with SigningBytes.
func (t *Transaction) Hash() types.Hash {
	return crypto.HashFull(t.SigningBytes())
}

// SigningBytes is the canonical encoding signatures authenticate: the
// full transaction minus the signatures themselves (a signature cannot
// cover its own bytes).
func (t *Transaction) SigningBytes() []byte {
	w := serialize.NewWriter()
	w.WriteByte(byte(t.Type))
	serialize.WriteSeq(w, t.Inputs, func(w *serialize.Writer, in Input) {
		w.WriteFixedBytes(in.PrevOut.TxID[:])
		w.WriteUint32(in.PrevOut.Index)
	})
	serialize.WriteSeq(w, t.Outputs, func(w *serialize.Writer, out Output) {
		w.WriteUint64(out.Amount)
		w.WriteFixedBytes(out.Destination[:])
	})
	return w.Bytes()
}

// Serialize writes the full wire encoding, including signatures, via w.
func (t *Transaction) Serialize(w *serialize.Writer) {
	w.WriteByte(byte(t.Type))
	serialize.WriteSeq(w, t.Inputs, func(w *serialize.Writer, in Input) {
		w.WriteFixedBytes(in.PrevOut.TxID[:])
		w.WriteUint32(in.PrevOut.Index)
		w.WriteFixedBytes(in.Signature[:])
	})
	serialize.WriteSeq(w, t.Outputs, func(w *serialize.Writer, out Output) {
		w.WriteUint64(out.Amount)
		w.WriteFixedBytes(out.Destination[:])
	})
}

// Deserialize reconstructs a Transaction from r, the inverse of
// Serialize.
func Deserialize(r *serialize.Reader) (*Transaction, error) {
	typeByte, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("read type: %w", err)
	}
	t := &Transaction{Type: TxType(typeByte)}

	t.Inputs, err = serialize.ReadSeq(r, func(r *serialize.Reader) (Input, error) {
		var in Input
		txid, err := r.ReadFixedBytes(types.HashSize)
		if err != nil {
			return in, err
		}
		copy(in.PrevOut.TxID[:], txid)
		in.PrevOut.Index, err = r.ReadUint32()
		if err != nil {
			return in, err
		}
		sig, err := r.ReadFixedBytes(types.SignatureSize)
		if err != nil {
			return in, err
		}
		copy(in.Signature[:], sig)
		return in, nil
	})
	if err != nil {
		return nil, fmt.Errorf("read inputs: %w", err)
	}

	t.Outputs, err = serialize.ReadSeq(r, func(r *serialize.Reader) (Output, error) {
		var out Output
		amount, err := r.ReadUint64()
		if err != nil {
			return out, err
		}
		out.Amount = amount
		dest, err := r.ReadFixedBytes(types.PublicKeySize)
		if err != nil {
			return out, err
		}
		copy(out.Destination[:], dest)
		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("read outputs: %w", err)
	}
	return t, nil
}

// UTXOKeyFor computes the content-addressed key of the output at index
// within a transaction hashing to txHash: hash_of(tx_hash,
// output_index_as_LE_u64), per spec.md §3. This is the key every UTXO is
// stored, consumed, and referenced (by enrollments) under.
func UTXOKeyFor(txHash types.Hash, index uint32) types.UTXOKey {
	w := serialize.NewWriter()
	w.WriteFixedBytes(txHash[:])
	w.WriteUint64(uint64(index))
	return crypto.HashFull(w.Bytes())
}

// TotalOutputValue sums the transaction's output amounts, failing on
// overflow rather than wrapping silently.
func (t *Transaction) TotalOutputValue() (uint64, error) {
	var total uint64
	for _, out := range t.Outputs {
		if total > math.MaxUint64-out.Amount {
			return 0, fmt.Errorf("%w: output value overflow", types.ErrProtocolViolation)
		}
		total += out.Amount
	}
	return total, nil
}
