// Package block defines the block model — header, transaction list, and
// the merkle tree retained alongside it — plus the validation predicates
// an accepted block must satisfy (spec.md §3, §4.3, §4.6).
package block

import (
	"fmt"

	"github.com/rheehot/agora/pkg/serialize"
	"github.com/rheehot/agora/pkg/tx"
	"github.com/rheehot/agora/pkg/types"
)

// Block is a header plus the transactions it commits to, with the full
// merkle tree retained for efficient inclusion proofs.
type Block struct {
	Header       *Header
	Transactions []*tx.Transaction
	MerkleTree   []types.Hash
}

// NewBlock assembles a block from a header and its transactions,
// computing and retaining the merkle tree.
func NewBlock(header *Header, txs []*tx.Transaction) *Block {
	leaves := make([]types.Hash, len(txs))
	for i, t := range txs {
		leaves[i] = t.Hash()
	}
	return &Block{
		Header:       header,
		Transactions: txs,
		MerkleTree:   BuildMerkleTree(leaves),
	}
}

// Hash returns the block's identity: its header hash.
func (b *Block) Hash() types.Hash {
	if b.Header == nil {
		return types.Hash{}
	}
	return b.Header.Hash()
}

// TxHashes returns the hashes of the block's transactions in order.
func (b *Block) TxHashes() []types.Hash {
	hashes := make([]types.Hash, len(b.Transactions))
	for i, t := range b.Transactions {
		hashes[i] = t.Hash()
	}
	return hashes
}

// Serialize writes the wire encoding of the full block (header plus
// transactions) via w. The retained merkle tree is not transmitted; a
// receiver rebuilds it from the transactions.
func (b *Block) Serialize(w *serialize.Writer) {
	b.Header.Serialize(w)
	serialize.WriteSeq(w, b.Transactions, func(w *serialize.Writer, t *tx.Transaction) {
		t.Serialize(w)
	})
}

// Deserialize reconstructs a Block from r, the inverse of Serialize,
// rebuilding the merkle tree from the decoded transactions.
func Deserialize(r *serialize.Reader) (*Block, error) {
	header, err := DeserializeHeader(r)
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	txs, err := serialize.ReadSeq(r, tx.Deserialize)
	if err != nil {
		return nil, fmt.Errorf("transactions: %w", err)
	}

	leaves := make([]types.Hash, len(txs))
	for i, t := range txs {
		leaves[i] = t.Hash()
	}
	return &Block{
		Header:       header,
		Transactions: txs,
		MerkleTree:   BuildMerkleTree(leaves),
	}, nil
}
