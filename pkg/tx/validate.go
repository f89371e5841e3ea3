package tx

import (
	"fmt"

	"github.com/rheehot/agora/pkg/crypto"
	"github.com/rheehot/agora/pkg/types"
)

// Validate checks structural well-formedness: no duplicate inputs within
// the transaction, and an overflow-safe output total. It does not touch
// the UTXO set — see ValidateWithUTXOs for that.
func (t *Transaction) Validate() error {
	seen := make(map[types.Outpoint]bool, len(t.Inputs))
	for i, in := range t.Inputs {
		if seen[in.PrevOut] {
			return fmt.Errorf("%w: input %d duplicates an earlier input", types.ErrDoubleSpend, i)
		}
		seen[in.PrevOut] = true
	}
	if _, err := t.TotalOutputValue(); err != nil {
		return err
	}
	return nil
}

// AllOutputsNonZero reports whether every output in the transaction
// carries a positive amount, the rule non-genesis transactions must
// satisfy.
func (t *Transaction) AllOutputsNonZero() bool {
	for _, out := range t.Outputs {
		if out.Amount == 0 {
			return false
		}
	}
	return true
}

// HasPositiveOutput reports whether at least one output carries a
// positive amount, the weaker rule genesis transactions must satisfy.
func (t *Transaction) HasPositiveOutput() bool {
	for _, out := range t.Outputs {
		if out.Amount > 0 {
			return true
		}
	}
	return false
}

// VerifySignatures checks that every input's signature authenticates
// SigningBytes (the transaction minus signatures) under the public key
// resolve returns for that input's previous outpoint.
func (t *Transaction) VerifySignatures(resolve func(types.Outpoint) (types.PublicKey, bool)) error {
	hash := t.SigningBytes()
	for i, in := range t.Inputs {
		public, ok := resolve(in.PrevOut)
		if !ok {
			return fmt.Errorf("%w: input %d references unknown output", types.ErrUTXONotFound, i)
		}
		if !crypto.Verify(public, in.Signature, hash) {
			return fmt.Errorf("%w: input %d", types.ErrSignatureInvalid, i)
		}
	}
	return nil
}
