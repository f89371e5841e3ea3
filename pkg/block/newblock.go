package block

import (
	"bytes"
	"sort"

	"github.com/rheehot/agora/pkg/tx"
	"github.com/rheehot/agora/pkg/types"
)

// MakeNewBlock assembles the next block on top of prev: it sorts the
// candidate transactions ascending by hash (the canonical in-block
// order, spec.md §4.3), orders enrollments ascending by utxo_key, and
// computes the merkle root over the sorted transactions.
//
// AggregateSignature is left zero; it is filled in once the federated-
// agreement engine externalizes this candidate (out of this package's
// scope — see spec.md §4.8).
func MakeNewBlock(prev *Block, txs []*tx.Transaction, enrollments []types.Enrollment) *Block {
	sorted := make([]*tx.Transaction, len(txs))
	copy(sorted, txs)
	sortTxsByHash(sorted)

	sortedEnrollments := make([]types.Enrollment, len(enrollments))
	copy(sortedEnrollments, enrollments)
	sort.Slice(sortedEnrollments, func(i, j int) bool {
		return types.EnrollmentLess(sortedEnrollments[i], sortedEnrollments[j])
	})

	leaves := make([]types.Hash, len(sorted))
	for i, t := range sorted {
		leaves[i] = t.Hash()
	}
	tree := BuildMerkleTree(leaves)

	header := &Header{
		PrevBlockHash: prev.Hash(),
		Height:        prev.Header.Height + 1,
		MerkleRoot:    MerkleRoot(tree),
		Enrollments:   sortedEnrollments,
	}

	return &Block{
		Header:       header,
		Transactions: sorted,
		MerkleTree:   tree,
	}
}

func sortTxsByHash(txs []*tx.Transaction) {
	sort.Slice(txs, func(i, j int) bool {
		hi, hj := txs[i].Hash(), txs[j].Hash()
		return bytes.Compare(hi[:], hj[:]) < 0
	})
}
