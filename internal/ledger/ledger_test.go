package ledger

import (
	"testing"

	"github.com/rheehot/agora/config"
	"github.com/rheehot/agora/internal/enrollment"
	"github.com/rheehot/agora/internal/mempool"
	"github.com/rheehot/agora/internal/storage"
	"github.com/rheehot/agora/internal/utxo"
	"github.com/rheehot/agora/pkg/block"
	"github.com/rheehot/agora/pkg/crypto"
	"github.com/rheehot/agora/pkg/tx"
	"github.com/rheehot/agora/pkg/types"
)

func testKeyPair(t *testing.T, b byte) types.KeyPair {
	t.Helper()
	var seed types.Seed
	for i := range seed {
		seed[i] = b
	}
	return crypto.KeyPairFromSeed(seed)
}

func newTestLedger(t *testing.T, gen *config.Genesis) *Ledger {
	t.Helper()
	db := storage.NewMemory()
	store := utxo.NewStore(db)
	enroll := enrollment.NewManager()
	pool := mempool.New(store, 100)
	l, err := New(db, store, enroll, pool, gen)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return l
}

func devGenesis(t *testing.T) (*config.Genesis, types.KeyPair, types.KeyPair) {
	t.Helper()
	v0 := testKeyPair(t, 0x10)
	v1 := testKeyPair(t, 0x11)
	payee := testKeyPair(t, 0x12)

	gen := &config.Genesis{
		ChainID:     "test-chain",
		ChainName:   "test-chain",
		Validators:  []config.ValidatorGenesis{{Public: v0.Public, Secret: v0.Secret, FreezeAmount: 2000}, {Public: v1.Public, Secret: v1.Secret, FreezeAmount: 2000}},
		Alloc:       []config.Allocation{{Destination: payee.Public, Amount: 10000}},
		TxsInBlock:  3, // genesis: the alloc payment plus one freeze per validator
		CycleLength: 50,
	}
	return gen, v0, v1
}

func TestLedger_InitGenesis(t *testing.T) {
	gen, _, _ := devGenesis(t)
	l := newTestLedger(t, gen)

	if err := l.InitGenesis(); err != nil {
		t.Fatalf("InitGenesis: %v", err)
	}
	if l.GetBlockHeight() != 0 {
		t.Fatalf("height = %d, want 0", l.GetBlockHeight())
	}
	if err := l.InitGenesis(); err == nil {
		t.Fatal("a second InitGenesis call should fail")
	}
}

// findAllocOutpoint locates the genesis payment output paying dest,
// returning the outpoint and amount it created.
func findAllocOutpoint(t *testing.T, l *Ledger, dest types.PublicKey) (types.Outpoint, uint64) {
	t.Helper()
	blocks, err := l.GetBlocksFrom(0, 1)
	if err != nil || len(blocks) != 1 {
		t.Fatalf("GetBlocksFrom(0,1): %v, %d blocks", err, len(blocks))
	}
	for _, txn := range blocks[0].Transactions {
		if txn.Type != tx.Payment {
			continue
		}
		for i, out := range txn.Outputs {
			if out.Destination == dest {
				return types.Outpoint{TxID: txn.Hash(), Index: uint32(i)}, out.Amount
			}
		}
	}
	t.Fatalf("no payment output found for destination")
	return types.Outpoint{}, 0
}

func TestLedger_AcceptBlock_AdvancesTipAndUpdatesUTXOs(t *testing.T) {
	gen, _, _ := devGenesis(t)
	payee := testKeyPair(t, 0x12)
	recipient := testKeyPair(t, 0x13)

	l := newTestLedger(t, gen)
	if err := l.InitGenesis(); err != nil {
		t.Fatal(err)
	}
	gen.TxsInBlock = 1 // block 1 carries only the single spend below

	prevOut, amount := findAllocOutpoint(t, l, payee.Public)

	spend := tx.NewBuilder(tx.Payment).
		AddInput(prevOut).
		AddOutput(amount, recipient.Public).
		Sign(payee.Secret).
		Build()

	if err := l.PutTransaction(spend); err != nil {
		t.Fatalf("PutTransaction: %v", err)
	}

	genBlk, err := l.GetBlocksFrom(0, 1)
	if err != nil || len(genBlk) != 1 {
		t.Fatalf("GetBlocksFrom: %v", err)
	}
	next := block.MakeNewBlock(genBlk[0], []*tx.Transaction{spend}, nil)

	if err := l.AcceptBlock(next); err != nil {
		t.Fatalf("AcceptBlock: %v", err)
	}
	if l.GetBlockHeight() != 1 {
		t.Fatalf("height = %d, want 1", l.GetBlockHeight())
	}

	if _, err := l.GetTransaction(spend.Hash()); err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if l.pool.Has(spend.Hash()) {
		t.Fatal("accepted transaction should have been evicted from the pool")
	}
}

func TestLedger_AcceptBlock_RejectsWrongPrevHash(t *testing.T) {
	gen, _, _ := devGenesis(t)
	l := newTestLedger(t, gen)
	if err := l.InitGenesis(); err != nil {
		t.Fatal(err)
	}

	genBlk, _ := l.GetBlocksFrom(0, 1)
	bogus := block.MakeNewBlock(genBlk[0], nil, nil)
	bogus.Header.PrevBlockHash = crypto.HashFull([]byte("not the tip"))

	if err := l.AcceptBlock(bogus); err == nil {
		t.Fatal("expected rejection of a block with the wrong prev_block_hash")
	}
}

func TestLedger_GetBlocksFrom_PastTipReturnsEmpty(t *testing.T) {
	gen, _, _ := devGenesis(t)
	l := newTestLedger(t, gen)
	if err := l.InitGenesis(); err != nil {
		t.Fatal(err)
	}
	blocks, err := l.GetBlocksFrom(5, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 0 {
		t.Fatalf("expected no blocks past the tip, got %d", len(blocks))
	}
}
