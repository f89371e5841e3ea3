// Package consensus bridges the ledger and mempool to the embedded
// federated-agreement engine (spec.md §4.8): quorum-set derivation,
// envelope translation, and block externalization.
package consensus

import "github.com/rheehot/agora/pkg/types"

// Envelope is the federated-agreement engine's opaque wire message:
// the driver neither inspects nor constructs its contents, only routes
// it between the engine and the network peer client.
type Envelope []byte

// Engine is the minimal surface an embedded federated-agreement engine
// (e.g. an SCP implementation) must expose. It is an external
// collaborator out of this module's scope (spec.md §1); this interface
// is everything the driver needs from it.
type Engine interface {
	// Nominate submits candidate as this node's proposed value for the
	// next slot and returns the envelope to gossip to peers.
	Nominate(candidate types.Hash) (Envelope, error)
	// Ingest feeds an envelope received from a peer into the engine's
	// state machine.
	Ingest(env Envelope) error
	// OnExternalize registers the callback the engine invokes once a
	// value commits. Only one handler is retained; a second call
	// replaces the first.
	OnExternalize(fn func(value types.Hash))
}
