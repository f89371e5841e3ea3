// Package mempool holds transactions that have passed UTXO-aware
// validation but are not yet included in an accepted block (spec.md
// §4.7). Entries arrive in FIFO order, are evicted on inclusion or
// UTXO-set change, and a pool overlay lets one pooled transaction spend
// another pooled transaction's not-yet-confirmed output.
package mempool

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rheehot/agora/pkg/tx"
	"github.com/rheehot/agora/pkg/types"
)

// Pool errors.
var (
	ErrAlreadyExists = errors.New("transaction already in pool")
	ErrConflict      = errors.New("transaction conflicts with an existing pool entry")
	ErrPoolFull      = errors.New("pool is full")
)

// entry wraps a pooled transaction with its arrival order, used to keep
// FIFO semantics distinct from the hash order blocks are built in.
type entry struct {
	tx     *tx.Transaction
	txHash types.Hash
	seq    uint64
}

// Pool holds unconfirmed transactions.
type Pool struct {
	mu      sync.RWMutex
	txs     map[types.Hash]*entry
	spends  map[types.Outpoint]types.Hash // outpoint -> spending tx hash, the conflict index
	order   []types.Hash                  // arrival order
	nextSeq uint64
	maxSize int
	utxos   tx.UTXOProvider
}

// New creates a pool that validates incoming transactions against
// utxos (the ledger's confirmed UTXO set) and rejects once it holds
// maxSize transactions.
func New(utxos tx.UTXOProvider, maxSize int) *Pool {
	if maxSize <= 0 {
		maxSize = 5000
	}
	return &Pool{
		txs:     make(map[types.Hash]*entry),
		spends:  make(map[types.Outpoint]types.Hash),
		maxSize: maxSize,
		utxos:   utxos,
	}
}

// poolOverlay composes the confirmed UTXO set with outputs created by
// transactions already sitting in the pool, so one pooled transaction
// may spend another's not-yet-confirmed output.
type poolOverlay struct {
	base tx.UTXOProvider
	pool *Pool // caller already holds pool.mu
}

func (o poolOverlay) Find(op types.Outpoint) (tx.UTXORef, bool) {
	for _, e := range o.pool.txs {
		if e.txHash != op.TxID {
			continue
		}
		if int(op.Index) >= len(e.tx.Outputs) {
			return tx.UTXORef{}, false
		}
		out := e.tx.Outputs[op.Index]
		return tx.UTXORef{Amount: out.Amount, UnlockHeight: 0, Destination: out.Destination}, true
	}
	if o.base == nil {
		return tx.UTXORef{}, false
	}
	return o.base.Find(op)
}

// Add validates transaction against the confirmed UTXO set plus the
// pool overlay at height, and adds it to the pool. Rejects duplicates
// and any input already spent by another pooled transaction.
func (p *Pool) Add(transaction *tx.Transaction, height uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	txHash := transaction.Hash()
	if _, exists := p.txs[txHash]; exists {
		return ErrAlreadyExists
	}

	for _, in := range transaction.Inputs {
		if conflict, exists := p.spends[in.PrevOut]; exists {
			return fmt.Errorf("%w: input %s already spent by %s", ErrConflict, in.PrevOut, conflict)
		}
	}

	if err := transaction.ValidateWithUTXOs(height, poolOverlay{base: p.utxos, pool: p}); err != nil {
		return err
	}

	if len(p.txs) >= p.maxSize {
		return ErrPoolFull
	}

	e := &entry{tx: transaction, txHash: txHash, seq: p.nextSeq}
	p.nextSeq++
	p.txs[txHash] = e
	p.order = append(p.order, txHash)
	for _, in := range transaction.Inputs {
		p.spends[in.PrevOut] = txHash
	}
	return nil
}

// Remove drops a transaction from the pool by hash, if present.
func (p *Pool) Remove(txHash types.Hash) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removeLocked(txHash)
}

func (p *Pool) removeLocked(txHash types.Hash) {
	e, exists := p.txs[txHash]
	if !exists {
		return
	}
	for _, in := range e.tx.Inputs {
		delete(p.spends, in.PrevOut)
	}
	delete(p.txs, txHash)
	for i, h := range p.order {
		if h == txHash {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// RemoveConfirmed evicts every transaction included in an accepted
// block, plus any still-pooled transaction that now conflicts with the
// new UTXO set (spends an outpoint the accepted block already spent).
func (p *Pool) RemoveConfirmed(transactions []*tx.Transaction) {
	p.mu.Lock()
	defer p.mu.Unlock()

	spentByBlock := make(map[types.Outpoint]bool)
	for _, t := range transactions {
		for _, in := range t.Inputs {
			spentByBlock[in.PrevOut] = true
		}
		p.removeLocked(t.Hash())
	}

	var stale []types.Hash
	for hash, e := range p.txs {
		for _, in := range e.tx.Inputs {
			if spentByBlock[in.PrevOut] {
				stale = append(stale, hash)
				break
			}
		}
	}
	for _, hash := range stale {
		p.removeLocked(hash)
	}
}

// Has reports whether txHash is currently pooled.
func (p *Pool) Has(txHash types.Hash) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, exists := p.txs[txHash]
	return exists
}

// Get retrieves a pooled transaction by hash, or nil if absent.
func (p *Pool) Get(txHash types.Hash) *tx.Transaction {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, exists := p.txs[txHash]
	if !exists {
		return nil
	}
	return e.tx
}

// Count returns the number of pooled transactions.
func (p *Pool) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.txs)
}

// Hashes returns the hashes of every pooled transaction, in arrival
// order.
func (p *Pool) Hashes() []types.Hash {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]types.Hash, len(p.order))
	copy(out, p.order)
	return out
}

// SelectForBlock returns up to n pooled transactions as a candidate
// block's transaction set. Candidates are taken oldest-first (arrival
// order); the caller (pkg/block.MakeNewBlock) re-sorts them ascending
// by hash, the canonical in-block order. Returns fewer than n if the
// pool does not hold enough transactions yet (spec.md §9: a block with
// fewer than TxsInBlock ready transactions must wait).
func (p *Pool) SelectForBlock(n int) []*tx.Transaction {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entries := make([]*entry, 0, len(p.txs))
	for _, e := range p.txs {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	if n > len(entries) {
		n = len(entries)
	}
	out := make([]*tx.Transaction, n)
	for i := 0; i < n; i++ {
		out[i] = entries[i].tx
	}
	return out
}
