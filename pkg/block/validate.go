package block

import (
	"bytes"
	"fmt"

	"github.com/rheehot/agora/config"
	"github.com/rheehot/agora/pkg/crypto"
	"github.com/rheehot/agora/pkg/tx"
	"github.com/rheehot/agora/pkg/types"
)

// EnrollmentUTXO is the subset of a UTXO's fields an enrollment's
// validity depends on: its type, amount, and owning public key.
type EnrollmentUTXO struct {
	Type   types.UTXOType
	Amount uint64
	Owner  types.PublicKey
}

// EnrollmentUTXOFinder resolves an enrollment's utxo_key against state
// prior to the candidate block (internal/utxo in production).
type EnrollmentUTXOFinder interface {
	FindByKey(types.UTXOKey) (EnrollmentUTXO, bool)
}

// IsInvalidReason checks blk against every ordered rule a non-genesis
// block must satisfy (spec.md §4.6) and returns the first violated
// rule's reason, or "" if blk is valid. The predicate is pure: it
// performs no I/O and mutates none of its arguments. findUTXO and
// findEnrollUTXO both resolve against the ledger state immediately
// prior to blk (height blk.Header.Height - 1); outputs blk itself
// creates are made visible to later transactions and to enrollments
// within blk via an internal overlay, matching spec.md's
// "including outputs introduced by this same block".
func IsInvalidReason(
	blk *Block,
	prevHeight uint64,
	prevHash types.Hash,
	txsInBlock uint32,
	activeEnrollments int,
	findUTXO tx.UTXOProvider,
	findEnrollUTXO EnrollmentUTXOFinder,
) string {
	if blk == nil || blk.Header == nil {
		return "block or header is nil"
	}

	if blk.Header.Height != prevHeight+1 {
		return fmt.Sprintf("height %d does not follow previous height %d", blk.Header.Height, prevHeight)
	}

	if blk.Header.PrevBlockHash != prevHash {
		return fmt.Sprintf("prev_block_hash %s does not match chain tip %s", blk.Header.PrevBlockHash, prevHash)
	}

	if uint32(len(blk.Transactions)) != txsInBlock {
		return fmt.Sprintf("block has %d transactions, want exactly %d", len(blk.Transactions), txsInBlock)
	}

	txHashes := blk.TxHashes()
	for i := 1; i < len(txHashes); i++ {
		if bytes.Compare(txHashes[i-1][:], txHashes[i][:]) >= 0 {
			return fmt.Sprintf("transaction %d is not strictly ascending by hash", i)
		}
	}

	if reason := validateTxsAgainst(blk.Transactions, blk.Header.Height, findUTXO); reason != "" {
		return reason
	}

	expectedRoot := ComputeMerkleRoot(txHashes)
	if blk.Header.MerkleRoot != expectedRoot {
		return fmt.Sprintf("merkle_root %s does not match computed root %s", blk.Header.MerkleRoot, expectedRoot)
	}

	if reason := validateEnrollmentOrder(blk.Header.Enrollments); reason != "" {
		return reason
	}

	if len(blk.Header.Enrollments)+activeEnrollments < config.MinValidatorCount {
		return fmt.Sprintf("active validator count would drop to %d, below minimum %d",
			len(blk.Header.Enrollments)+activeEnrollments, config.MinValidatorCount)
	}

	overlay := buildEnrollmentOverlay(blk.Transactions, blk.Header.Height)
	if reason := validateEnrollments(blk.Header.Enrollments, overlay, findEnrollUTXO); reason != "" {
		return reason
	}

	return ""
}

// IsGenesisInvalidReason checks blk against the rules a genesis (height
// 0) block must satisfy (spec.md §4.3). txsInBlock caps the transaction
// count; unlike non-genesis blocks, genesis may carry between 1 and
// txsInBlock transactions.
func IsGenesisInvalidReason(blk *Block, txsInBlock uint32) string {
	if blk == nil || blk.Header == nil {
		return "block or header is nil"
	}
	if blk.Header.Height != 0 {
		return fmt.Sprintf("genesis height must be 0, got %d", blk.Header.Height)
	}
	if !blk.Header.PrevBlockHash.IsZero() {
		return "genesis prev_block_hash must be zero"
	}
	if len(blk.Transactions) == 0 || uint32(len(blk.Transactions)) > txsInBlock {
		return fmt.Sprintf("genesis has %d transactions, want 1..%d", len(blk.Transactions), txsInBlock)
	}

	txHashes := blk.TxHashes()
	for i := 1; i < len(txHashes); i++ {
		if bytes.Compare(txHashes[i-1][:], txHashes[i][:]) >= 0 {
			return fmt.Sprintf("transaction %d is not strictly ascending by hash", i)
		}
	}

	for i, t := range blk.Transactions {
		if len(t.Inputs) != 0 {
			return fmt.Sprintf("genesis transaction %d has inputs", i)
		}
		if !t.HasPositiveOutput() {
			return fmt.Sprintf("genesis transaction %d has no positive-value output", i)
		}
		if !t.AllOutputsNonZero() {
			return fmt.Sprintf("genesis transaction %d has a zero-value output", i)
		}
	}

	expectedRoot := ComputeMerkleRoot(txHashes)
	if blk.Header.MerkleRoot != expectedRoot {
		return fmt.Sprintf("merkle_root %s does not match computed root %s", blk.Header.MerkleRoot, expectedRoot)
	}

	if reason := validateEnrollmentOrder(blk.Header.Enrollments); reason != "" {
		return reason
	}

	overlay := buildEnrollmentOverlay(blk.Transactions, 0)
	return validateEnrollments(blk.Header.Enrollments, overlay, nil)
}

func validateEnrollmentOrder(enrollments []types.Enrollment) string {
	for i := 1; i < len(enrollments); i++ {
		if !types.EnrollmentLess(enrollments[i-1], enrollments[i]) {
			return fmt.Sprintf("enrollment %d is not strictly ascending by utxo_key", i)
		}
	}
	return ""
}

// validateTxsAgainst validates each transaction in order against the
// ledger state prior to the block, composed with an in-block overlay so
// later transactions may spend outputs earlier ones in the same block
// create. It also rejects any input spent by two transactions in the
// block, even when that double-spend would otherwise resolve against
// the overlay.
func validateTxsAgainst(txs []*tx.Transaction, height uint64, base tx.UTXOProvider) string {
	overlay := &blockOverlay{base: base, created: map[types.Outpoint]tx.UTXORef{}}
	spent := map[types.Outpoint]int{}

	for i, t := range txs {
		for _, in := range t.Inputs {
			if prevIdx, ok := spent[in.PrevOut]; ok {
				return fmt.Sprintf("double spend: outpoint %s spent by both tx %d and tx %d", in.PrevOut, prevIdx, i)
			}
		}

		if err := t.Validate(); err != nil {
			return fmt.Sprintf("tx %d: %v", i, err)
		}
		if err := t.ValidateWithUTXOs(height, overlay); err != nil {
			return fmt.Sprintf("tx %d: %v", i, err)
		}

		for _, in := range t.Inputs {
			spent[in.PrevOut] = i
		}

		txHash := t.Hash()
		unlockHeight := height + 1
		if t.Type == tx.Freeze {
			unlockHeight = height + config.MaturityDelay
		}
		for j, out := range t.Outputs {
			overlay.created[types.Outpoint{TxID: txHash, Index: uint32(j)}] = tx.UTXORef{
				Amount:       out.Amount,
				UnlockHeight: unlockHeight,
				Destination:  out.Destination,
			}
		}
	}
	return ""
}

// blockOverlay composes a base UTXO provider with outputs created
// earlier in the same candidate block.
type blockOverlay struct {
	base    tx.UTXOProvider
	created map[types.Outpoint]tx.UTXORef
}

func (o *blockOverlay) Find(op types.Outpoint) (tx.UTXORef, bool) {
	if ref, ok := o.created[op]; ok {
		return ref, true
	}
	if o.base == nil {
		return tx.UTXORef{}, false
	}
	return o.base.Find(op)
}

// buildEnrollmentOverlay maps the utxo_key of every output created by
// txs to its enrollment-relevant fields, so enrollments may reference
// freeze outputs introduced by the very block they appear in.
func buildEnrollmentOverlay(txs []*tx.Transaction, height uint64) map[types.UTXOKey]EnrollmentUTXO {
	overlay := make(map[types.UTXOKey]EnrollmentUTXO)
	for _, t := range txs {
		txHash := t.Hash()
		utxoType := types.UTXOPayment
		if t.Type == tx.Freeze {
			utxoType = types.UTXOFreeze
		}
		for j, out := range t.Outputs {
			key := tx.UTXOKeyFor(txHash, uint32(j))
			overlay[key] = EnrollmentUTXO{Type: utxoType, Amount: out.Amount, Owner: out.Destination}
		}
	}
	return overlay
}

func validateEnrollments(enrollments []types.Enrollment, overlay map[types.UTXOKey]EnrollmentUTXO, ext EnrollmentUTXOFinder) string {
	for i, e := range enrollments {
		u, ok := overlay[e.UTXOKey]
		if !ok && ext != nil {
			u, ok = ext.FindByKey(e.UTXOKey)
		}
		if !ok {
			return fmt.Sprintf("enrollment %d: utxo_key %s does not resolve", i, e.UTXOKey)
		}
		if u.Type != types.UTXOFreeze {
			return fmt.Sprintf("enrollment %d: utxo_key %s is not a freeze UTXO", i, e.UTXOKey)
		}
		if u.Amount < config.MinFreezeTxAmount {
			return fmt.Sprintf("enrollment %d: freeze amount %d below minimum %d", i, u.Amount, config.MinFreezeTxAmount)
		}
		msg := EnrollmentSigningBytes(e)
		if !crypto.VerifyEnrollment(u.Owner, e.EnrollSig, msg) {
			return fmt.Sprintf("enrollment %d: signature does not verify against owner %s", i, u.Owner)
		}
	}
	return ""
}
