package block

import (
	"fmt"

	"github.com/rheehot/agora/config"
	"github.com/rheehot/agora/pkg/crypto"
	"github.com/rheehot/agora/pkg/tx"
	"github.com/rheehot/agora/pkg/types"
)

// MakeGenesisBlock constructs the height-0 block for gen: one Payment
// transaction distributing gen.Alloc, one Freeze transaction per
// validator, and one Enrollment per validator over its own freeze
// output (spec.md §4.3). The result is fully deterministic given gen —
// two nodes building genesis from the same Genesis value produce
// byte-identical blocks (spec.md Testable Properties S3).
func MakeGenesisBlock(gen *config.Genesis) (*Block, error) {
	if err := gen.Validate(); err != nil {
		return nil, fmt.Errorf("invalid genesis config: %w", err)
	}

	txs := make([]*tx.Transaction, 0, 1+len(gen.Validators))

	if len(gen.Alloc) > 0 {
		b := tx.NewBuilder(tx.Payment)
		for _, a := range gen.Alloc {
			b.AddOutput(a.Amount, a.Destination)
		}
		txs = append(txs, b.Build())
	}

	freezeTxs := make([]*tx.Transaction, len(gen.Validators))
	for i, v := range gen.Validators {
		b := tx.NewBuilder(tx.Freeze)
		b.AddOutput(v.FreezeAmount, v.Public)
		freezeTxs[i] = b.Build()
		txs = append(txs, freezeTxs[i])
	}

	sortTxsByHash(txs)

	enrollments := make([]types.Enrollment, len(gen.Validators))
	for i, v := range gen.Validators {
		freezeHash := freezeTxs[i].Hash()
		utxoKey := tx.UTXOKeyFor(freezeHash, 0)

		// The pre-image chain head is derived deterministically from the
		// validator's own public key so independently-run genesis
		// construction converges on the same bytes. In normal operation
		// (non-genesis enrollment) a validator generates h_0 privately
		// instead; see internal/enrollment.
		h := crypto.HashFull(v.Public[:])
		for j := uint32(0); j+1 < gen.CycleLength; j++ {
			h = crypto.HashFull(h[:])
		}

		e := types.Enrollment{
			UTXOKey:     utxoKey,
			RandomSeed:  h,
			CycleLength: gen.CycleLength,
		}
		e.EnrollSig = crypto.SignEnrollment(v.Secret, EnrollmentSigningBytes(e))
		enrollments[i] = e
	}
	sortEnrollmentsByUTXOKey(enrollments)

	leaves := make([]types.Hash, len(txs))
	for i, t := range txs {
		leaves[i] = t.Hash()
	}
	tree := BuildMerkleTree(leaves)

	header := &Header{
		PrevBlockHash: types.Hash{},
		Height:        0,
		MerkleRoot:    MerkleRoot(tree),
		Enrollments:   enrollments,
	}

	return &Block{
		Header:       header,
		Transactions: txs,
		MerkleTree:   tree,
	}, nil
}

func sortEnrollmentsByUTXOKey(e []types.Enrollment) {
	for i := 1; i < len(e); i++ {
		for j := i; j > 0 && types.EnrollmentLess(e[j], e[j-1]); j-- {
			e[j], e[j-1] = e[j-1], e[j]
		}
	}
}
