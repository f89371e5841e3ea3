package tx

import (
	"errors"
	"testing"

	"github.com/rheehot/agora/pkg/types"
)

func TestValidate_RejectsDuplicateInput(t *testing.T) {
	kp := testKeyPair(t, 5)
	prev := types.Outpoint{TxID: types.Hash{1}, Index: 0}
	txn := NewBuilder(Payment).
		AddInput(prev).
		AddInput(prev).
		AddOutput(1, kp.Public).
		Build()
	if err := txn.Validate(); !errors.Is(err, types.ErrDoubleSpend) {
		t.Fatalf("expected ErrDoubleSpend, got %v", err)
	}
}

func TestValidate_AcceptsWellFormed(t *testing.T) {
	kp := testKeyPair(t, 6)
	txn := NewBuilder(Payment).
		AddInput(types.Outpoint{TxID: types.Hash{2}, Index: 0}).
		AddOutput(1, kp.Public).
		Build()
	if err := txn.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestVerifySignatures_RejectsTamperedMessage(t *testing.T) {
	kp := testKeyPair(t, 7)
	txn := NewBuilder(Payment).
		AddInput(types.Outpoint{TxID: types.Hash{3}, Index: 0}).
		AddOutput(1, kp.Public).
		Sign(kp.Secret).
		Build()

	// Tamper after signing: add another output, changing SigningBytes.
	txn.Outputs = append(txn.Outputs, Output{Amount: 2, Destination: kp.Public})

	err := txn.VerifySignatures(func(types.Outpoint) (types.PublicKey, bool) {
		return kp.Public, true
	})
	if !errors.Is(err, types.ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
}
