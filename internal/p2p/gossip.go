package p2p

import (
	"github.com/rheehot/agora/pkg/tx"
	"github.com/rheehot/agora/pkg/types"
)

// Gossip fans a value out to a fixed set of peers. Each send already
// retries internally (PeerClient.attemptRequest); Gossip adds nothing
// beyond the fan-out itself, matching spec.md's explicit boundary that
// anything past "a simple fan-out with retries" is out of scope.
type Gossip struct {
	peers []*PeerClient
}

// NewGossip fans out to peers.
func NewGossip(peers []*PeerClient) *Gossip {
	return &Gossip{peers: peers}
}

// BroadcastTransaction pushes t to every known peer.
func (g *Gossip) BroadcastTransaction(t *tx.Transaction) {
	for _, p := range g.peers {
		p.SendTransaction(t)
	}
}

// BroadcastEnvelope pushes env to every known peer.
func (g *Gossip) BroadcastEnvelope(env []byte) {
	for _, p := range g.peers {
		p.SendEnvelope(env)
	}
}

// BroadcastEnrollment pushes e to every known peer.
func (g *Gossip) BroadcastEnrollment(e types.Enrollment) {
	for _, p := range g.peers {
		p.SendEnrollment(e)
	}
}

// BroadcastPreimage pushes a revealed preimage to every known peer.
func (g *Gossip) BroadcastPreimage(owner types.PublicKey, preimage types.Hash) {
	for _, p := range g.peers {
		p.SendPreimage(owner, preimage)
	}
}
