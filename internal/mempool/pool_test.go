package mempool

import (
	"errors"
	"testing"

	"github.com/rheehot/agora/pkg/crypto"
	"github.com/rheehot/agora/pkg/tx"
	"github.com/rheehot/agora/pkg/types"
)

type memUTXOs struct {
	m map[types.Outpoint]tx.UTXORef
}

func newMemUTXOs() *memUTXOs { return &memUTXOs{m: make(map[types.Outpoint]tx.UTXORef)} }

func (m *memUTXOs) add(op types.Outpoint, amount uint64, dest types.PublicKey) {
	m.m[op] = tx.UTXORef{Amount: amount, UnlockHeight: 0, Destination: dest}
}

func (m *memUTXOs) Find(op types.Outpoint) (tx.UTXORef, bool) {
	ref, ok := m.m[op]
	return ref, ok
}

func testKeyPair(t *testing.T, b byte) types.KeyPair {
	t.Helper()
	var seed types.Seed
	for i := range seed {
		seed[i] = b
	}
	return crypto.KeyPairFromSeed(seed)
}

// buildSpend constructs a signed Payment transaction spending prevOut,
// whose UTXO must belong to kp, into a single output of amount.
func buildSpend(t *testing.T, kp types.KeyPair, prevOut types.Outpoint, amount uint64) *tx.Transaction {
	t.Helper()
	return tx.NewBuilder(tx.Payment).
		AddInput(prevOut).
		AddOutput(amount, kp.Public).
		Sign(kp.Secret).
		Build()
}

func TestPool_Add(t *testing.T) {
	kp := testKeyPair(t, 0x01)
	utxos := newMemUTXOs()
	prevOut := types.Outpoint{TxID: crypto.HashFull([]byte("a")), Index: 0}
	utxos.add(prevOut, 5000, kp.Public)

	pool := New(utxos, 100)
	transaction := buildSpend(t, kp, prevOut, 4000)

	if err := pool.Add(transaction, 1); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if pool.Count() != 1 {
		t.Errorf("count = %d, want 1", pool.Count())
	}
}

func TestPool_Add_Duplicate(t *testing.T) {
	kp := testKeyPair(t, 0x02)
	utxos := newMemUTXOs()
	prevOut := types.Outpoint{TxID: crypto.HashFull([]byte("a")), Index: 0}
	utxos.add(prevOut, 5000, kp.Public)

	pool := New(utxos, 100)
	transaction := buildSpend(t, kp, prevOut, 4000)

	if err := pool.Add(transaction, 1); err != nil {
		t.Fatal(err)
	}
	if err := pool.Add(transaction, 1); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestPool_Add_DoubleSpend(t *testing.T) {
	kp := testKeyPair(t, 0x03)
	utxos := newMemUTXOs()
	prevOut := types.Outpoint{TxID: crypto.HashFull([]byte("a")), Index: 0}
	utxos.add(prevOut, 5000, kp.Public)

	pool := New(utxos, 100)
	tx1 := buildSpend(t, kp, prevOut, 4000)
	tx2 := buildSpend(t, kp, prevOut, 3000)

	if err := pool.Add(tx1, 1); err != nil {
		t.Fatal(err)
	}
	if err := pool.Add(tx2, 1); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}

func TestPool_Add_PoolFull(t *testing.T) {
	kp := testKeyPair(t, 0x04)
	utxos := newMemUTXOs()
	prevOuts := make([]types.Outpoint, 3)
	for i := range prevOuts {
		prevOuts[i] = types.Outpoint{TxID: crypto.HashFull([]byte{byte(i)}), Index: 0}
		utxos.add(prevOuts[i], 5000, kp.Public)
	}

	pool := New(utxos, 2)
	if err := pool.Add(buildSpend(t, kp, prevOuts[0], 4000), 1); err != nil {
		t.Fatal(err)
	}
	if err := pool.Add(buildSpend(t, kp, prevOuts[1], 4000), 1); err != nil {
		t.Fatal(err)
	}
	if err := pool.Add(buildSpend(t, kp, prevOuts[2], 4000), 1); !errors.Is(err, ErrPoolFull) {
		t.Errorf("expected ErrPoolFull, got %v", err)
	}
}

func TestPool_Add_ValidationFailure(t *testing.T) {
	kp := testKeyPair(t, 0x05)
	utxos := newMemUTXOs() // no UTXOs registered
	pool := New(utxos, 100)

	transaction := buildSpend(t, kp, types.Outpoint{TxID: crypto.HashFull([]byte("missing")), Index: 0}, 1000)
	if err := pool.Add(transaction, 1); err == nil {
		t.Error("expected validation failure against an unknown input")
	}
}

func TestPool_Add_ChainedPoolOverlay(t *testing.T) {
	kp := testKeyPair(t, 0x06)
	utxos := newMemUTXOs()
	prevOut := types.Outpoint{TxID: crypto.HashFull([]byte("a")), Index: 0}
	utxos.add(prevOut, 5000, kp.Public)

	pool := New(utxos, 100)
	tx1 := buildSpend(t, kp, prevOut, 4000)
	if err := pool.Add(tx1, 1); err != nil {
		t.Fatal(err)
	}

	// tx2 spends tx1's not-yet-confirmed output via the pool overlay.
	tx2 := buildSpend(t, kp, types.Outpoint{TxID: tx1.Hash(), Index: 0}, 3000)
	if err := pool.Add(tx2, 1); err != nil {
		t.Fatalf("chained pool spend should validate via the overlay: %v", err)
	}
}

func TestPool_Remove(t *testing.T) {
	kp := testKeyPair(t, 0x07)
	utxos := newMemUTXOs()
	prevOut := types.Outpoint{TxID: crypto.HashFull([]byte("a")), Index: 0}
	utxos.add(prevOut, 5000, kp.Public)

	pool := New(utxos, 100)
	transaction := buildSpend(t, kp, prevOut, 4000)
	if err := pool.Add(transaction, 1); err != nil {
		t.Fatal(err)
	}

	pool.Remove(transaction.Hash())
	if pool.Count() != 0 {
		t.Errorf("count = %d, want 0", pool.Count())
	}
	if pool.Has(transaction.Hash()) {
		t.Error("Has should return false after Remove")
	}
}

func TestPool_Remove_ClearsConflictIndex(t *testing.T) {
	kp := testKeyPair(t, 0x08)
	utxos := newMemUTXOs()
	prevOut := types.Outpoint{TxID: crypto.HashFull([]byte("a")), Index: 0}
	utxos.add(prevOut, 5000, kp.Public)

	pool := New(utxos, 100)
	tx1 := buildSpend(t, kp, prevOut, 4000)
	if err := pool.Add(tx1, 1); err != nil {
		t.Fatal(err)
	}
	pool.Remove(tx1.Hash())

	tx2 := buildSpend(t, kp, prevOut, 3000)
	if err := pool.Add(tx2, 1); err != nil {
		t.Fatalf("Add after Remove should succeed: %v", err)
	}
}

func TestPool_RemoveConfirmed(t *testing.T) {
	kp := testKeyPair(t, 0x09)
	utxos := newMemUTXOs()
	prevOut1 := types.Outpoint{TxID: crypto.HashFull([]byte("a")), Index: 0}
	prevOut2 := types.Outpoint{TxID: crypto.HashFull([]byte("b")), Index: 0}
	utxos.add(prevOut1, 5000, kp.Public)
	utxos.add(prevOut2, 3000, kp.Public)

	pool := New(utxos, 100)
	tx1 := buildSpend(t, kp, prevOut1, 4000)
	tx2 := buildSpend(t, kp, prevOut2, 2000)
	if err := pool.Add(tx1, 1); err != nil {
		t.Fatal(err)
	}
	if err := pool.Add(tx2, 1); err != nil {
		t.Fatal(err)
	}

	pool.RemoveConfirmed([]*tx.Transaction{tx1})
	if pool.Count() != 1 {
		t.Errorf("count = %d, want 1", pool.Count())
	}
	if pool.Has(tx1.Hash()) {
		t.Error("tx1 should be removed")
	}
	if !pool.Has(tx2.Hash()) {
		t.Error("tx2 should still be in pool")
	}
}

func TestPool_RemoveConfirmed_EvictsStaleConflicts(t *testing.T) {
	kp := testKeyPair(t, 0x0a)
	utxos := newMemUTXOs()
	prevOut := types.Outpoint{TxID: crypto.HashFull([]byte("a")), Index: 0}
	utxos.add(prevOut, 5000, kp.Public)

	pool := New(utxos, 100)
	pooled := buildSpend(t, kp, prevOut, 4000)
	if err := pool.Add(pooled, 1); err != nil {
		t.Fatal(err)
	}

	// A different transaction spending the same input was externalized
	// in a block instead; the pooled conflicting tx must be evicted.
	accepted := buildSpend(t, kp, prevOut, 3500)
	pool.RemoveConfirmed([]*tx.Transaction{accepted})

	if pool.Has(pooled.Hash()) {
		t.Error("pooled tx conflicting with an accepted block should be evicted")
	}
}

func TestPool_Has(t *testing.T) {
	kp := testKeyPair(t, 0x0b)
	utxos := newMemUTXOs()
	prevOut := types.Outpoint{TxID: crypto.HashFull([]byte("a")), Index: 0}
	utxos.add(prevOut, 5000, kp.Public)

	pool := New(utxos, 100)
	transaction := buildSpend(t, kp, prevOut, 4000)

	if pool.Has(transaction.Hash()) {
		t.Error("Has should return false before Add")
	}
	if err := pool.Add(transaction, 1); err != nil {
		t.Fatal(err)
	}
	if !pool.Has(transaction.Hash()) {
		t.Error("Has should return true after Add")
	}
}

func TestPool_Get(t *testing.T) {
	kp := testKeyPair(t, 0x0c)
	utxos := newMemUTXOs()
	prevOut := types.Outpoint{TxID: crypto.HashFull([]byte("a")), Index: 0}
	utxos.add(prevOut, 5000, kp.Public)

	pool := New(utxos, 100)
	transaction := buildSpend(t, kp, prevOut, 4000)
	if err := pool.Add(transaction, 1); err != nil {
		t.Fatal(err)
	}

	got := pool.Get(transaction.Hash())
	if got == nil || got.Hash() != transaction.Hash() {
		t.Fatal("Get returned wrong transaction")
	}
	if pool.Get(types.Hash{0xff}) != nil {
		t.Error("Get should return nil for unknown hash")
	}
}

func TestPool_SelectForBlock_ArrivalOrder(t *testing.T) {
	kp := testKeyPair(t, 0x0d)
	utxos := newMemUTXOs()
	prevOuts := make([]types.Outpoint, 3)
	for i := range prevOuts {
		prevOuts[i] = types.Outpoint{TxID: crypto.HashFull([]byte{byte(i)}), Index: 0}
		utxos.add(prevOuts[i], 5000, kp.Public)
	}

	pool := New(utxos, 100)
	var txs []*tx.Transaction
	for _, op := range prevOuts {
		transaction := buildSpend(t, kp, op, 4000)
		txs = append(txs, transaction)
		if err := pool.Add(transaction, 1); err != nil {
			t.Fatal(err)
		}
	}

	selected := pool.SelectForBlock(2)
	if len(selected) != 2 {
		t.Fatalf("selected %d, want 2", len(selected))
	}
	if selected[0].Hash() != txs[0].Hash() || selected[1].Hash() != txs[1].Hash() {
		t.Error("SelectForBlock should return the oldest entries first")
	}
}

func TestPool_SelectForBlock_LimitExceedsPool(t *testing.T) {
	kp := testKeyPair(t, 0x0e)
	utxos := newMemUTXOs()
	prevOut := types.Outpoint{TxID: crypto.HashFull([]byte("a")), Index: 0}
	utxos.add(prevOut, 5000, kp.Public)

	pool := New(utxos, 100)
	if err := pool.Add(buildSpend(t, kp, prevOut, 4000), 1); err != nil {
		t.Fatal(err)
	}

	selected := pool.SelectForBlock(100)
	if len(selected) != 1 {
		t.Errorf("selected %d, want 1", len(selected))
	}
}

func TestNew_DefaultMaxSize(t *testing.T) {
	pool := New(newMemUTXOs(), 0)
	if pool.maxSize != 5000 {
		t.Errorf("maxSize = %d, want 5000", pool.maxSize)
	}
}
