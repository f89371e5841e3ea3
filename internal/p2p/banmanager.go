package p2p

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/libp2p/go-libp2p/core/peer"

	klog "github.com/rheehot/agora/internal/log"
)

// Default ban-manager tuning (config.go may override per deployment).
const (
	DefaultMaxFailedRequests = 32
	DefaultBanDuration       = 24 * time.Hour
)

// BanManager maintains, per peer, a failure count and a banned-until
// deadline (spec.md §4.10). on_failed_request increments the count;
// reaching maxFailedRequests bans the peer until now+banDuration. Time
// comes from an injected clock.Clock so tests can advance it
// deterministically instead of sleeping real wall time.
type BanManager struct {
	mu                sync.RWMutex
	clock             clock.Clock
	maxFailedRequests int
	banDuration       time.Duration
	failures          map[peer.ID]int
	bannedUntil       map[peer.ID]time.Time
	store             *BanStore // persistence, nil disables it
}

// NewBanManager creates a BanManager using the real wall clock and the
// default thresholds. store may be nil to disable persistence.
func NewBanManager(store *BanStore) *BanManager {
	return NewBanManagerWithClock(clock.New(), DefaultMaxFailedRequests, DefaultBanDuration, store)
}

// NewBanManagerWithClock is NewBanManager with every tunable exposed,
// primarily so tests can pass a clock.NewMock() and a tiny threshold.
func NewBanManagerWithClock(c clock.Clock, maxFailedRequests int, banDuration time.Duration, store *BanStore) *BanManager {
	if maxFailedRequests <= 0 {
		maxFailedRequests = DefaultMaxFailedRequests
	}
	if banDuration <= 0 {
		banDuration = DefaultBanDuration
	}
	return &BanManager{
		clock:             c,
		maxFailedRequests: maxFailedRequests,
		banDuration:       banDuration,
		failures:          make(map[peer.ID]int),
		bannedUntil:       make(map[peer.ID]time.Time),
		store:             store,
	}
}

// LoadBans restores persisted bans from the store into memory.
func (bm *BanManager) LoadBans() {
	if bm.store == nil {
		return
	}
	now := bm.clock.Now()
	bm.store.PruneExpired(now)

	bm.mu.Lock()
	defer bm.mu.Unlock()
	bm.store.ForEach(func(rec *BanRecord) error {
		if rec.BannedUntil.After(now) {
			if id, err := peer.Decode(rec.ID); err == nil {
				bm.bannedUntil[id] = rec.BannedUntil
			}
		}
		return nil
	})
}

// OnFailedRequest records a failed request from id. Once the cumulative
// failure count reaches maxFailedRequests the peer is banned for
// banDuration and its failure count resets.
func (bm *BanManager) OnFailedRequest(id peer.ID, reason string) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	now := bm.clock.Now()
	if until, ok := bm.bannedUntil[id]; ok && until.After(now) {
		return
	}

	bm.failures[id]++
	if bm.failures[id] < bm.maxFailedRequests {
		return
	}

	until := now.Add(bm.banDuration)
	bm.bannedUntil[id] = until
	delete(bm.failures, id)

	if bm.store != nil {
		bm.store.Put(&BanRecord{ID: id.String(), Reason: reason, BannedUntil: until})
	}

	peerStr := id.String()
	if len(peerStr) > 16 {
		peerStr = peerStr[:16]
	}
	klog.P2P.Warn().Str("peer", peerStr).Str("reason", reason).Time("until", until).Msg("peer banned")
}

// IsBanned reports whether id is currently under an unexpired ban.
func (bm *BanManager) IsBanned(id peer.ID) bool {
	now := bm.clock.Now()

	bm.mu.RLock()
	until, ok := bm.bannedUntil[id]
	bm.mu.RUnlock()
	if !ok {
		return false
	}
	if until.After(now) {
		return true
	}

	bm.mu.Lock()
	delete(bm.bannedUntil, id)
	bm.mu.Unlock()
	if bm.store != nil {
		bm.store.Delete(id)
	}
	return false
}

// Unban clears any ban and failure count recorded for id.
func (bm *BanManager) Unban(id peer.ID) {
	bm.mu.Lock()
	delete(bm.bannedUntil, id)
	delete(bm.failures, id)
	bm.mu.Unlock()

	if bm.store != nil {
		bm.store.Delete(id)
	}
}

// BanList returns a snapshot of every peer currently banned.
func (bm *BanManager) BanList() []BanRecord {
	now := bm.clock.Now()

	bm.mu.RLock()
	defer bm.mu.RUnlock()
	var list []BanRecord
	for id, until := range bm.bannedUntil {
		if until.After(now) {
			list = append(list, BanRecord{ID: id.String(), BannedUntil: until})
		}
	}
	return list
}
