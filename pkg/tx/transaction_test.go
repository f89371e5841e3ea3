package tx

import (
	"testing"

	"github.com/rheehot/agora/pkg/crypto"
	"github.com/rheehot/agora/pkg/serialize"
	"github.com/rheehot/agora/pkg/types"
)

func testKeyPair(t testing.TB, seedByte byte) types.KeyPair {
	t.Helper()
	var seed types.Seed
	for i := range seed {
		seed[i] = seedByte
	}
	return crypto.KeyPairFromSeed(seed)
}

func TestTransaction_Hash_Deterministic(t *testing.T) {
	kp := testKeyPair(t, 1)
	txn := NewBuilder(Payment).AddOutput(10, kp.Public).Build()
	if txn.Hash() != txn.Hash() {
		t.Fatal("Hash is not stable across calls")
	}
}

func TestTransaction_Hash_ChangesWithContent(t *testing.T) {
	kp := testKeyPair(t, 1)
	a := NewBuilder(Payment).AddOutput(10, kp.Public).Build()
	b := NewBuilder(Payment).AddOutput(11, kp.Public).Build()
	if a.Hash() == b.Hash() {
		t.Fatal("transactions with different outputs hashed identically")
	}
}

func TestTransaction_SigningBytes_ExcludesSignature(t *testing.T) {
	kp := testKeyPair(t, 1)
	b := NewBuilder(Payment).
		AddInput(types.Outpoint{TxID: types.Hash{1}, Index: 0}).
		AddOutput(5, kp.Public)
	a := b.Build()
	before := a.SigningBytes()
	b.Sign(kp.Secret)
	after := a.SigningBytes()
	if string(before) != string(after) {
		t.Fatal("signing bytes changed after attaching a signature")
	}
}

func TestTransaction_WireRoundTrip(t *testing.T) {
	kp := testKeyPair(t, 2)
	txn := NewBuilder(Freeze).
		AddInput(types.Outpoint{TxID: types.Hash{9}, Index: 1}).
		AddOutput(100, kp.Public).
		Sign(kp.Secret).
		Build()

	w := serialize.NewWriter()
	txn.Serialize(w)
	r := serialize.NewReader(w.Bytes())
	out, err := Deserialize(r)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if !r.Done() {
		t.Fatal("trailing bytes after deserializing transaction")
	}
	if out.Hash() != txn.Hash() {
		t.Fatal("round-tripped transaction hashes differently")
	}
	if out.Type != txn.Type || len(out.Inputs) != len(txn.Inputs) || len(out.Outputs) != len(txn.Outputs) {
		t.Fatal("round-tripped transaction structurally differs")
	}
}

func TestTotalOutputValue_Overflow(t *testing.T) {
	kp := testKeyPair(t, 3)
	txn := NewBuilder(Payment).
		AddOutput(^uint64(0), kp.Public).
		AddOutput(1, kp.Public).
		Build()
	if _, err := txn.TotalOutputValue(); err == nil {
		t.Fatal("expected overflow error")
	}
}
