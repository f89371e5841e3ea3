package consensus

import (
	"fmt"
	"sync"

	"github.com/rheehot/agora/config"
	"github.com/rheehot/agora/internal/enrollment"
	"github.com/rheehot/agora/internal/ledger"
	"github.com/rheehot/agora/internal/log"
	"github.com/rheehot/agora/pkg/block"
	"github.com/rheehot/agora/pkg/tx"
	"github.com/rheehot/agora/pkg/types"
)

// Driver bridges candidate-block construction, the federated-agreement
// engine, and ledger append. It tracks every candidate it has
// nominated by hash so that, on externalization, the engine's opaque
// committed value resolves back to a concrete block to append (spec.md
// §4.8).
type Driver struct {
	mu         sync.Mutex
	engine     Engine
	ledger     *ledger.Ledger
	enroll     *enrollment.Manager
	gen        *config.Genesis
	candidates map[types.Hash]*block.Block
}

// NewDriver wires a Driver to engine, registering its externalization
// callback.
func NewDriver(engine Engine, ldg *ledger.Ledger, enroll *enrollment.Manager, gen *config.Genesis) *Driver {
	d := &Driver{
		engine:     engine,
		ledger:     ldg,
		enroll:     enroll,
		gen:        gen,
		candidates: make(map[types.Hash]*block.Block),
	}
	engine.OnExternalize(d.onExternalize)
	return d
}

// QuorumSet derives this node's quorum slice from the validators active
// at the ledger's current height: every active validator's owning key
// becomes a member, with the threshold from Genesis.EffectiveThreshold
// (spec.md §4.8).
func (d *Driver) QuorumSet() QuorumSet {
	height := d.ledger.GetBlockHeight()
	return QuorumSet{
		Members:   d.enroll.ActiveOwners(height),
		Threshold: d.gen.EffectiveThreshold(),
	}
}

// ProposeCandidate assembles the next candidate block on top of prev
// from txs and enrollments, tracks it by hash, and submits that hash
// to the engine for nomination. It returns the envelope the caller
// should gossip to peers alongside the candidate hash.
func (d *Driver) ProposeCandidate(prev *block.Block, txs []*tx.Transaction, enrollments []types.Enrollment) (types.Hash, Envelope, error) {
	candidate := block.MakeNewBlock(prev, txs, enrollments)
	hash := candidate.Hash()

	d.mu.Lock()
	d.candidates[hash] = candidate
	d.mu.Unlock()

	env, err := d.engine.Nominate(hash)
	if err != nil {
		d.mu.Lock()
		delete(d.candidates, hash)
		d.mu.Unlock()
		return types.Hash{}, nil, fmt.Errorf("nominate candidate %s: %w", hash, err)
	}
	return hash, env, nil
}

// Ingest feeds an envelope received from a peer into the engine.
func (d *Driver) Ingest(env Envelope) error {
	return d.engine.Ingest(env)
}

// onExternalize is the engine's commit callback: it resolves the
// committed hash against tracked candidates and appends the result to
// the ledger. A hash with no tracked candidate (this node never saw
// the winning proposal) is logged and skipped; the caller is expected
// to fetch the block from peers via the network peer client instead.
func (d *Driver) onExternalize(value types.Hash) {
	d.mu.Lock()
	candidate, ok := d.candidates[value]
	delete(d.candidates, value)
	d.mu.Unlock()

	if !ok {
		log.Consensus.Warn().Str("hash", value.String()).Msg("externalized hash has no locally tracked candidate")
		return
	}
	if err := d.ledger.AcceptBlock(candidate); err != nil {
		log.Consensus.Error().Err(err).Str("hash", value.String()).Msg("failed to accept externalized block")
	}
}
