// Package enrollment implements the validator-enrollment mechanism
// (spec.md §4.5): the active validator table, pre-image chain
// bookkeeping, and enrollment issuance/verification against frozen
// UTXOs.
package enrollment

import (
	"fmt"
	"sync"

	"github.com/rheehot/agora/pkg/block"
	"github.com/rheehot/agora/pkg/crypto"
	"github.com/rheehot/agora/pkg/types"
)

// entry is one active validator's bookkeeping row, keyed by the
// enrollment's utxo_key.
type entry struct {
	owner          types.PublicKey
	enrolledAt     uint64
	cycleLength    uint32
	head           types.Hash // the committed h_{cycleLength-1}
	lastRevealedAt uint64
	revealed       bool
}

func (e entry) expiresAt() uint64 {
	return e.enrolledAt + uint64(e.cycleLength)
}

// Manager holds the active validator table. It is not safe to share
// across ledger writers without the caller's own serialization, but
// guards its own map with a mutex so read-only queries (ValidatorCount)
// never race an AcceptEnrollment call.
type Manager struct {
	mu      sync.RWMutex
	entries map[types.UTXOKey]*entry
}

// NewManager returns an empty enrollment manager.
func NewManager() *Manager {
	return &Manager{entries: make(map[types.UTXOKey]*entry)}
}

// AcceptEnrollment admits e into the active validator table at the
// height its containing block was accepted. owner is the public key
// the enrollment's freeze UTXO belongs to (already verified by
// pkg/block.IsInvalidReason before the ledger calls this). A second
// enrollment over the same utxo_key replaces the first, matching the
// block validator's no-duplicates rule (there can be at most one per
// utxo_key live at a time).
func (m *Manager) AcceptEnrollment(e types.Enrollment, owner types.PublicKey, height uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.UTXOKey] = &entry{
		owner:       owner,
		enrolledAt:  height,
		cycleLength: e.CycleLength,
		head:        e.RandomSeed,
	}
}

// ExpireAt drops every entry whose cycle has ended by height (enrolledAt
// + cycleLength <= height). Called by the ledger after each accepted
// block.
func (m *Manager) ExpireAt(height uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, e := range m.entries {
		if e.expiresAt() <= height {
			delete(m.entries, key)
		}
	}
}

// ValidatorCount reports the number of entries still active at height:
// enrolled_at + cycle_length > height (spec.md §4.5).
func (m *Manager) ValidatorCount(height uint64) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, e := range m.entries {
		if e.expiresAt() > height {
			n++
		}
	}
	return n
}

// IsActive reports whether key already has a live enrollment at height.
// Enrollment validation itself resolves utxo_key against
// internal/utxo.Set (pkg/block.EnrollmentUTXOFinder); this checks the
// table-wide "no duplicates" invariant, which spans every block, not
// just the candidate one.
func (m *Manager) IsActive(key types.UTXOKey, height uint64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	return ok && e.expiresAt() > height
}

// HashIterate applies the pre-image hash chain step hash(h) exactly n
// times to seed, matching spec.md §4.5's h_{i+1} = hash(h_i) recurrence.
func HashIterate(seed types.Hash, n uint32) types.Hash {
	h := seed
	for i := uint32(0); i < n; i++ {
		h = crypto.HashFull(h[:])
	}
	return h
}

// MakeEnrollment builds and signs a new enrollment over utxoKey, backed
// by a freshly chosen pre-image chain of length cycleLength seeded by
// h0. The committed head is h_{cycleLength-1} = HashIterate(h0,
// cycleLength-1); h0 itself is never published — only the head is,
// and later pre-images are revealed one per block of participation
// (spec.md §4.5).
func MakeEnrollment(kp types.KeyPair, utxoKey types.UTXOKey, cycleLength uint32, h0 types.Hash) (types.Enrollment, error) {
	if cycleLength == 0 {
		return types.Enrollment{}, fmt.Errorf("cycle_length must be positive")
	}
	head := HashIterate(h0, cycleLength-1)
	e := types.Enrollment{
		UTXOKey:     utxoKey,
		RandomSeed:  head,
		CycleLength: cycleLength,
	}
	e.EnrollSig = crypto.SignEnrollment(kp.Secret, block.EnrollmentSigningBytes(e))
	return e, nil
}

// RevealPreimage verifies that preimage is the correct pre-image a
// validator enrolled under key must reveal at height, and records it as
// the most recently revealed value for liveness purposes. A pre-image
// whose forward hash chain does not reproduce the committed head is a
// slashable fault; here it is simply rejected (spec.md §4.5).
func (m *Manager) RevealPreimage(key types.UTXOKey, height uint64, preimage types.Hash) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return fmt.Errorf("%w: no active enrollment for utxo_key %s", types.ErrProtocolViolation, key)
	}
	if height < e.enrolledAt || height >= e.expiresAt() {
		return fmt.Errorf("%w: height %d outside enrollment window [%d, %d)", types.ErrProtocolViolation, height, e.enrolledAt, e.expiresAt())
	}

	k := height - e.enrolledAt
	if HashIterate(preimage, uint32(k)) != e.head {
		return fmt.Errorf("%w: preimage at height %d does not hash forward to the committed head", types.ErrSignatureInvalid, height)
	}

	e.lastRevealedAt = height
	e.revealed = true
	return nil
}

// LastRevealed reports the height at which key's validator most
// recently revealed a valid pre-image, and whether it has revealed one
// at all.
func (m *Manager) LastRevealed(key types.UTXOKey) (uint64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok {
		return 0, false
	}
	return e.lastRevealedAt, e.revealed
}

// ActiveKeys returns the utxo_keys of every entry active at height. The
// consensus driver derives its quorum set from ActiveOwners instead.
func (m *Manager) ActiveKeys(height uint64) []types.UTXOKey {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []types.UTXOKey
	for key, e := range m.entries {
		if e.expiresAt() > height {
			keys = append(keys, key)
		}
	}
	return keys
}

// ActiveOwners returns the owning public keys of every validator active
// at height, the set the consensus driver derives its quorum slice from
// (spec.md §4.8).
func (m *Manager) ActiveOwners(height uint64) []types.PublicKey {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var owners []types.PublicKey
	for _, e := range m.entries {
		if e.expiresAt() > height {
			owners = append(owners, e.owner)
		}
	}
	return owners
}
