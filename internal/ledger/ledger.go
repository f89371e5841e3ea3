// Package ledger implements the single-writer block ledger (spec.md
// §4.1): block storage, UTXO and enrollment state transitions applied
// atomically on block acceptance, and the mempool admission surface
// the consensus driver and RPC layer both go through.
package ledger

import (
	"fmt"
	"sync"

	"github.com/rheehot/agora/config"
	"github.com/rheehot/agora/internal/enrollment"
	"github.com/rheehot/agora/internal/log"
	"github.com/rheehot/agora/internal/mempool"
	"github.com/rheehot/agora/internal/storage"
	"github.com/rheehot/agora/internal/utxo"
	"github.com/rheehot/agora/pkg/block"
	"github.com/rheehot/agora/pkg/tx"
	"github.com/rheehot/agora/pkg/types"
)

// Ledger owns the block store, UTXO set, enrollment table and mempool,
// applying every externalized block as a single atomic state
// transition. Appends are serialized by mu: no two blocks may be
// applied concurrently (spec.md §6 "Ordering guarantees").
type Ledger struct {
	mu     sync.Mutex
	blocks *BlockStore
	utxos  utxo.Set
	enroll *enrollment.Manager
	pool   *mempool.Pool
	gen    *config.Genesis

	tipHash   types.Hash
	tipHeight uint64
}

// New creates a ledger over db-backed block storage, utxoSet and enroll.
// pool is the mempool transactions are admitted into; it must already
// be wired to utxoSet so pool admission sees the same confirmed state.
// It recovers tip state from whatever the block store already holds.
func New(db storage.DB, utxoSet utxo.Set, enroll *enrollment.Manager, pool *mempool.Pool, gen *config.Genesis) (*Ledger, error) {
	blocks := NewBlockStore(db)
	tipHash, tipHeight, err := blocks.GetTip()
	if err != nil {
		return nil, fmt.Errorf("recover tip: %w", err)
	}
	return &Ledger{
		blocks:    blocks,
		utxos:     utxoSet,
		enroll:    enroll,
		pool:      pool,
		gen:       gen,
		tipHash:   tipHash,
		tipHeight: tipHeight,
	}, nil
}

// IsInitialized reports whether a genesis block has already been
// applied (a fresh block store has no tip and no block at height 0).
func (l *Ledger) IsInitialized() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	has, _ := l.blocks.HasBlock(l.tipHash)
	return has || l.tipHeight != 0 || !l.tipHash.IsZero()
}

// InitGenesis builds and applies the chain's genesis block from gen.
// It must only be called once, against an empty ledger.
func (l *Ledger) InitGenesis() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if has, _ := l.blocks.HasBlock(l.tipHash); has {
		return fmt.Errorf("ledger already initialized at height %d", l.tipHeight)
	}

	blk, err := block.MakeGenesisBlock(l.gen)
	if err != nil {
		return fmt.Errorf("build genesis block: %w", err)
	}
	if reason := block.IsGenesisInvalidReason(blk, l.gen.TxsInBlock); reason != "" {
		return fmt.Errorf("built genesis block is invalid: %s", reason)
	}

	if err := l.applyBlock(blk); err != nil {
		return fmt.Errorf("apply genesis block: %w", err)
	}

	log.Ledger.Info().Uint64("height", 0).Str("hash", blk.Hash().String()).Msg("genesis applied")
	return nil
}

// GetBlockHeight returns the current chain tip's height.
func (l *Ledger) GetBlockHeight() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tipHeight
}

// GetBlocksFrom returns up to max consecutive blocks starting at start,
// in ascending height order. Fewer than max are returned once the tip
// is reached.
func (l *Ledger) GetBlocksFrom(start uint64, max int) ([]*block.Block, error) {
	l.mu.Lock()
	tip := l.tipHeight
	l.mu.Unlock()

	if start > tip {
		return nil, nil
	}
	var out []*block.Block
	for h := start; h <= tip && len(out) < max; h++ {
		blk, err := l.blocks.GetBlockByHeight(h)
		if err != nil {
			return nil, fmt.Errorf("load block at height %d: %w", h, err)
		}
		out = append(out, blk)
	}
	return out, nil
}

// GetTransaction looks up a confirmed transaction by hash via the
// block store's transaction index.
func (l *Ledger) GetTransaction(hash types.Hash) (*tx.Transaction, error) {
	_, blockHash, err := l.blocks.GetTxLocation(hash)
	if err != nil {
		return nil, err
	}
	blk, err := l.blocks.GetBlock(blockHash)
	if err != nil {
		return nil, fmt.Errorf("load block for tx: %w", err)
	}
	for _, t := range blk.Transactions {
		if t.Hash() == hash {
			return t, nil
		}
	}
	return nil, fmt.Errorf("tx %s not found in block %s (index corrupt)", hash, blockHash)
}

// PutTransaction validates t against the confirmed UTXO set plus the
// pool's own overlay and, if it passes, admits it into the mempool
// (spec.md §4.7).
func (l *Ledger) PutTransaction(t *tx.Transaction) error {
	height := l.GetBlockHeight()
	return l.pool.Add(t, height)
}

// AcceptBlock re-validates blk against the ledger's current tip and,
// if valid, applies it as a single atomic state transition: UTXO
// deltas, enrollment-table updates, and mempool eviction of the
// transactions it included or invalidated (spec.md §4.1, §4.6).
// Acceptance is serialized; callers (typically the consensus driver,
// on externalization) must not assume concurrent calls interleave.
func (l *Ledger) AcceptBlock(blk *block.Block) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	activeBefore := l.enroll.ValidatorCount(blk.Header.Height)
	reason := block.IsInvalidReason(blk, l.tipHeight, l.tipHash, l.gen.TxsInBlock, activeBefore, l.utxos, l.utxos)
	if reason != "" {
		return fmt.Errorf("%w: %s", types.ErrProtocolViolation, reason)
	}

	if err := l.applyBlock(blk); err != nil {
		return fmt.Errorf("apply block %d: %w", blk.Header.Height, err)
	}

	l.pool.RemoveConfirmed(blk.Transactions)
	log.Ledger.Info().
		Uint64("height", blk.Header.Height).
		Str("hash", blk.Hash().String()).
		Int("txs", len(blk.Transactions)).
		Msg("block accepted")
	return nil
}

// applyBlock performs the state transition for an already-validated
// block: consume spent UTXOs, create new ones, admit enrollments,
// store the block, and advance the tip. The caller holds l.mu.
func (l *Ledger) applyBlock(blk *block.Block) error {
	height := blk.Header.Height

	// Freeze-output owners created by this very block, so enrollments
	// referencing them resolve even though the store has not seen them
	// yet (mirrors pkg/block.buildEnrollmentOverlay).
	ownerOf := make(map[types.UTXOKey]types.PublicKey)
	for _, t := range blk.Transactions {
		if t.Type != tx.Freeze {
			continue
		}
		txHash := t.Hash()
		for i, out := range t.Outputs {
			ownerOf[tx.UTXOKeyFor(txHash, uint32(i))] = out.Destination
		}
	}

	for _, t := range blk.Transactions {
		for _, in := range t.Inputs {
			if err := l.utxos.Consume(in.PrevOut); err != nil {
				return fmt.Errorf("consume %s: %w", in.PrevOut, err)
			}
		}

		unlockHeight := height + 1
		if t.Type == tx.Freeze {
			unlockHeight = height + config.MaturityDelay
		}
		if height == 0 {
			unlockHeight = 0
		}
		if err := l.utxos.Put(t, unlockHeight); err != nil {
			return fmt.Errorf("put utxos for %s: %w", t.Hash(), err)
		}
	}

	for _, e := range blk.Header.Enrollments {
		owner, ok := ownerOf[e.UTXOKey]
		if !ok {
			u, found := l.utxos.FindByKey(e.UTXOKey)
			if !found {
				return fmt.Errorf("enrollment utxo_key %s does not resolve after apply", e.UTXOKey)
			}
			owner = u.Owner
		}
		l.enroll.AcceptEnrollment(e, owner, height)
	}
	l.enroll.ExpireAt(height)

	if err := l.blocks.PutBlock(blk); err != nil {
		return fmt.Errorf("store block: %w", err)
	}
	hash := blk.Hash()
	if err := l.blocks.SetTip(hash, height); err != nil {
		return fmt.Errorf("set tip: %w", err)
	}

	l.tipHash = hash
	l.tipHeight = height
	return nil
}
