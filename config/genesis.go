package config

import (
	"fmt"

	"github.com/rheehot/agora/pkg/types"
)

// Protocol-wide constants (spec.md §3, §4.5, §4.6). These are not
// genesis-configurable: every node must agree on them independent of
// which chain it joins.

// MinValidatorCount is the minimum number of active validators required
// at every height; a block that would drop the active set below this is
// rejected (spec.md §3 invariants, §4.6 rule 8).
const MinValidatorCount = 2

// MinFreezeTxAmount is the minimum amount a Freeze transaction's output
// must carry for the resulting UTXO to be eligible for enrollment.
const MinFreezeTxAmount uint64 = 1000

// MaturityDelay is the number of blocks a Freeze UTXO must wait past the
// block it was created in before it may be spent (spec.md §4.4).
const MaturityDelay uint64 = 10

// DefaultTxsInBlock is the reference TxsInBlock value (spec.md §9: "the
// historic default is preserved... treat as a protocol constant but make
// it configurable at genesis").
const DefaultTxsInBlock uint32 = 8

// DefaultCycleLength is the reference validator_cycle value: how many
// blocks an enrollment remains active for.
const DefaultCycleLength uint32 = 100

// ValidatorGenesis describes one validator seeded at genesis: its key
// pair and the amount frozen to back its initial enrollment.
type ValidatorGenesis struct {
	Public       types.PublicKey
	Secret       types.SecretKey
	FreezeAmount uint64
}

// Allocation is one payment-distribution output genesis pays out,
// independent of the validator freeze outputs.
type Allocation struct {
	Destination types.PublicKey
	Amount      uint64
}

// Genesis holds the immutable protocol configuration a chain is launched
// with. Every node participating in the same chain must construct byte-
// identical genesis blocks from the same Genesis value (spec.md S3).
type Genesis struct {
	ChainID   string `json:"chain_id"`
	ChainName string `json:"chain_name"`

	// Validators is the initial validator set. make_genesis_block issues
	// one Freeze transaction and one Enrollment per entry.
	Validators []ValidatorGenesis `json:"-"`

	// Alloc lists the genesis payment-distribution outputs (spec.md
	// §4.3's "protocol's payment-distribution tx").
	Alloc []Allocation `json:"-"`

	// TxsInBlock is the fixed transaction count every non-genesis block
	// must carry (spec.md §9 Open Question: configurable at genesis, not
	// a compile-time constant).
	TxsInBlock uint32 `json:"tx_in_block"`

	// CycleLength is validator_cycle: how many blocks an enrollment
	// issued at genesis remains active for.
	CycleLength uint32 `json:"validator_cycle"`

	// QuorumThreshold is this chain's federated-agreement quorum
	// threshold. Zero means "unset": callers default to the historic
	// 100% (len(validators)) per spec.md §9's open question, rather than
	// the BFT-safe ⌈2n/3⌉+1 default, until governance specifies
	// otherwise.
	QuorumThreshold int `json:"quorum_threshold,omitempty"`
}

// Validate checks internal consistency of the genesis configuration.
func (g *Genesis) Validate() error {
	if g.ChainID == "" {
		return fmt.Errorf("chain_id is required")
	}
	if len(g.Validators) < MinValidatorCount {
		return fmt.Errorf("genesis needs at least %d validators, got %d", MinValidatorCount, len(g.Validators))
	}
	if g.TxsInBlock == 0 {
		return fmt.Errorf("tx_in_block must be positive")
	}
	if g.CycleLength == 0 {
		return fmt.Errorf("validator_cycle must be positive")
	}
	for i, v := range g.Validators {
		if v.FreezeAmount < MinFreezeTxAmount {
			return fmt.Errorf("validator %d freeze amount %d below minimum %d", i, v.FreezeAmount, MinFreezeTxAmount)
		}
	}
	return nil
}

// DevnetGenesis returns a small deterministic genesis suitable for tests
// and local development: the given validators each enroll with their
// FreezeAmount frozen, over the reference TxsInBlock and CycleLength.
func DevnetGenesis(chainID string, validators []ValidatorGenesis) *Genesis {
	return &Genesis{
		ChainID:     chainID,
		ChainName:   chainID,
		Validators:  validators,
		TxsInBlock:  DefaultTxsInBlock,
		CycleLength: DefaultCycleLength,
	}
}

// BFTSafeThreshold computes the BFT-safe quorum threshold ⌈2n/3⌉+1 for n
// validators — the default callers should move to once governance
// specifies it (spec.md §9 Open Question).
func BFTSafeThreshold(n int) int {
	return (2*n+2)/3 + 1
}

// EffectiveThreshold returns g.QuorumThreshold if set, else the historic
// 100% default (len(validators)).
func (g *Genesis) EffectiveThreshold() int {
	if g.QuorumThreshold > 0 {
		return g.QuorumThreshold
	}
	return len(g.Validators)
}
