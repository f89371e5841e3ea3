package tx

import (
	"fmt"
	"math"

	"github.com/rheehot/agora/pkg/types"
)

// UTXORef is the information ValidateWithUTXOs needs about a referenced
// output: its amount, the height at which it matures, and the public key
// that owns it.
type UTXORef struct {
	Amount       uint64
	UnlockHeight uint64
	Destination  types.PublicKey
}

// UTXOProvider resolves an outpoint to the UTXO it references. Callers
// pass an overlay-aware implementation during block validation so a
// transaction may spend an output created earlier in the same block.
type UTXOProvider interface {
	Find(types.Outpoint) (UTXORef, bool)
}

// ValidateWithUTXOs checks the rules that require the UTXO set: every
// input exists and is mature at height, no input is spent twice within
// this transaction, signatures authenticate the transaction, and
// Sum(inputs) >= Sum(outputs).
func (t *Transaction) ValidateWithUTXOs(height uint64, utxos UTXOProvider) error {
	if err := t.Validate(); err != nil {
		return err
	}

	refs := make(map[types.Outpoint]UTXORef, len(t.Inputs))
	var totalInput uint64
	for i, in := range t.Inputs {
		ref, ok := utxos.Find(in.PrevOut)
		if !ok {
			return fmt.Errorf("%w: input %d references %s", types.ErrUTXONotFound, i, in.PrevOut)
		}
		if ref.UnlockHeight > height {
			return fmt.Errorf("%w: input %d not mature until height %d (at %d)", types.ErrProtocolViolation, i, ref.UnlockHeight, height)
		}
		refs[in.PrevOut] = ref
		if totalInput > math.MaxUint64-ref.Amount {
			return fmt.Errorf("%w: input value overflow", types.ErrProtocolViolation)
		}
		totalInput += ref.Amount
	}

	if !t.AllOutputsNonZero() {
		return fmt.Errorf("%w: zero-value output", types.ErrProtocolViolation)
	}
	totalOutput, err := t.TotalOutputValue()
	if err != nil {
		return err
	}
	if totalInput < totalOutput {
		return fmt.Errorf("%w: inputs %d less than outputs %d", types.ErrProtocolViolation, totalInput, totalOutput)
	}

	return t.VerifySignatures(func(o types.Outpoint) (types.PublicKey, bool) {
		ref, ok := refs[o]
		return ref.Destination, ok
	})
}
