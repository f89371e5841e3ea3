package tx

import (
	"github.com/rheehot/agora/pkg/crypto"
	"github.com/rheehot/agora/pkg/types"
)

// Builder assembles a Transaction fluently, the way genesis construction
// and tests build one without hand-writing every field.
type Builder struct {
	tx *Transaction
}

// NewBuilder starts a new transaction of the given type.
func NewBuilder(typ TxType) *Builder {
	return &Builder{tx: &Transaction{Type: typ}}
}

// AddInput appends an unsigned input spending prevOut.
func (b *Builder) AddInput(prevOut types.Outpoint) *Builder {
	b.tx.Inputs = append(b.tx.Inputs, Input{PrevOut: prevOut})
	return b
}

// AddOutput appends an output paying amount to destination.
func (b *Builder) AddOutput(amount uint64, destination types.PublicKey) *Builder {
	b.tx.Outputs = append(b.tx.Outputs, Output{Amount: amount, Destination: destination})
	return b
}

// Sign signs the transaction's SigningBytes over the current
// inputs/outputs and assigns the same signature to every input. Callers who need per-input
// keys should sign each input directly instead.
func (b *Builder) Sign(secret types.SecretKey) *Builder {
	msg := b.tx.SigningBytes()
	sig := crypto.Sign(secret, msg)
	for i := range b.tx.Inputs {
		b.tx.Inputs[i].Signature = sig
	}
	return b
}

// Build returns the assembled transaction.
func (b *Builder) Build() *Transaction {
	return b.tx
}
