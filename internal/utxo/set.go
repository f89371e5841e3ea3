// Package utxo implements the UTXO set (spec.md §4.4): an append-on-
// accept, consume-on-spend mapping from UTXOKey to UTXOValue, with a
// secondary index by owning public key for enrollment lookups. In-block
// spends during validation are modeled by pkg/block, not here.
package utxo

import (
	"github.com/rheehot/agora/pkg/block"
	"github.com/rheehot/agora/pkg/tx"
	"github.com/rheehot/agora/pkg/types"
)

// Set is the UTXO set's storage contract. Implementations back both
// pkg/tx.UTXOProvider (lookup by outpoint, for transaction validation)
// and pkg/block.EnrollmentUTXOFinder (lookup by utxo_key, for enrollment
// validation) directly, so block.IsInvalidReason can be handed a Set
// without an adapter.
type Set interface {
	tx.UTXOProvider
	block.EnrollmentUTXOFinder

	// Put inserts one UTXO per output of t, keyed by
	// hash(tx_hash, output_index). unlockHeight is the maturity height
	// already computed by the caller per spec.md §4.4's rule (height+1
	// for Payment, height+MaturityDelay for Freeze, 0 for genesis
	// outputs) — the set itself holds no protocol constants.
	Put(t *tx.Transaction, unlockHeight uint64) error

	// Consume removes the UTXO referenced by op on an accepted spend.
	// It is a no-op (returns nil) if the outpoint is already absent.
	Consume(op types.Outpoint) error

	// GetUTXOsFor returns every live UTXO owned by pubKey, keyed by its
	// UTXOKey. Used by the enrollment manager to find freeze outputs a
	// validator may enroll.
	GetUTXOsFor(pubKey types.PublicKey) (map[types.UTXOKey]types.UTXOValue, error)
}
