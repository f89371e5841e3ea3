package p2p

import (
	"fmt"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/rs/zerolog"

	klog "github.com/rheehot/agora/internal/log"
	"github.com/rheehot/agora/internal/rpcclient"
	"github.com/rheehot/agora/pkg/block"
	"github.com/rheehot/agora/pkg/tx"
	"github.com/rheehot/agora/pkg/types"
)

// JSON-RPC 2.0 method names a peer client speaks (spec.md §4.9, §6).
const (
	methodGetPublicKey      = "get_public_key"
	methodGetNodeInfo       = "get_node_info"
	methodGetBlockHeight    = "get_block_height"
	methodGetBlocksFrom     = "get_blocks_from"
	methodPutTransaction    = "put_transaction"
	methodHasTxHash         = "has_transaction_hash"
	methodEnrollValidator   = "enroll_validator"
	methodGetEnrollment     = "get_enrollment"
	methodReceivePreimage   = "receive_preimage"
	methodReceiveEnvelope   = "receive_envelope"
	methodRegisterListener  = "register_listener"
)

// Default request-retry tuning.
const (
	DefaultMaxRetries = 3
	DefaultRetryDelay = 2 * time.Second
)

// NodeInfo is the remote peer's self-description returned by
// get_node_info.
type NodeInfo struct {
	ChainID   string
	Version   string
	ListenOn  string
	PublicKey types.PublicKey
}

// PeerClient wraps a remote peer's JSON-RPC endpoint behind the
// Network Peer Client surface of spec.md §4.9: every blocking call goes
// through attemptRequest, which retries on transport error up to
// maxRetries before reporting the peer to the ban manager; the four
// fire-and-forget sends never block their caller and never surface
// failure.
type PeerClient struct {
	id         peer.ID
	rpc        *rpcclient.Client
	bans       *BanManager
	maxRetries int
	retryDelay time.Duration
	sleep      func(time.Duration) // overridable in tests
}

// NewPeerClient wraps endpoint (a JSON-RPC URL) as id, reporting
// transport failures to bans.
func NewPeerClient(id peer.ID, endpoint string, bans *BanManager) *PeerClient {
	return &PeerClient{
		id:         id,
		rpc:        rpcclient.New(endpoint),
		bans:       bans,
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		sleep:      time.Sleep,
	}
}

// requestPolicy controls attemptRequest's exhaustion behavior and log
// verbosity, letting each call site pick Throw ∈ {Yes, No} per spec.md
// §4.9 step 4.
type requestPolicy struct {
	throw    bool
	logLevel zerolog.Level
}

var (
	throwOnFailure  = requestPolicy{throw: true, logLevel: zerolog.WarnLevel}
	tolerateFailure = requestPolicy{throw: false, logLevel: zerolog.DebugLevel}
)

// attemptRequest issues method against pc's peer, retrying up to
// pc.maxRetries times with pc.retryDelay between attempts. On
// exhaustion it reports the peer to the ban manager, then either
// returns the transport error (policy.throw) or a zero value with a
// nil error.
func attemptRequest[T any](pc *PeerClient, method string, params interface{}, policy requestPolicy) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= pc.maxRetries; attempt++ {
		var result T
		err := pc.rpc.Call(method, params, &result)
		if err == nil {
			return result, nil
		}
		lastErr = err
		klog.P2P.WithLevel(policy.logLevel).Err(err).Str("method", method).Str("peer", pc.id.String()).Int("attempt", attempt).Msg("peer request failed")

		if attempt < pc.maxRetries {
			pc.sleep(pc.retryDelay)
		}
	}

	pc.bans.OnFailedRequest(pc.id, fmt.Sprintf("%s: %v", method, lastErr))
	if policy.throw {
		return zero, lastErr
	}
	return zero, nil
}

// GetPublicKey retrieves the peer's identifying public key.
func (pc *PeerClient) GetPublicKey() (types.PublicKey, error) {
	return attemptRequest[types.PublicKey](pc, methodGetPublicKey, nil, throwOnFailure)
}

// GetNodeInfo retrieves the peer's self-description.
func (pc *PeerClient) GetNodeInfo() (NodeInfo, error) {
	return attemptRequest[NodeInfo](pc, methodGetNodeInfo, nil, throwOnFailure)
}

// GetBlockHeight retrieves the peer's current chain tip height.
func (pc *PeerClient) GetBlockHeight() (uint64, error) {
	return attemptRequest[uint64](pc, methodGetBlockHeight, nil, throwOnFailure)
}

type getBlocksFromParams struct {
	Start uint64
	Max   int
}

// GetBlocksFrom retrieves up to max blocks starting at height start.
func (pc *PeerClient) GetBlocksFrom(start uint64, max int) ([]*block.Block, error) {
	return attemptRequest[[]*block.Block](pc, methodGetBlocksFrom, getBlocksFromParams{Start: start, Max: max}, throwOnFailure)
}

// HasTransactionHash asks whether the peer already holds hash in its
// pool or ledger.
func (pc *PeerClient) HasTransactionHash(hash types.Hash) (bool, error) {
	return attemptRequest[bool](pc, methodHasTxHash, hash, throwOnFailure)
}

// GetEnrollment retrieves the active enrollment for owner, if any.
func (pc *PeerClient) GetEnrollment(owner types.PublicKey) (*types.Enrollment, error) {
	return attemptRequest[*types.Enrollment](pc, methodGetEnrollment, owner, throwOnFailure)
}

// RegisterListener asks the peer to start pushing externalized envelopes
// and preimages to this node's own endpoint (selfEndpoint).
func (pc *PeerClient) RegisterListener(selfEndpoint string) error {
	_, err := attemptRequest[struct{}](pc, methodRegisterListener, selfEndpoint, throwOnFailure)
	return err
}

// SendTransaction fires t at the peer without blocking the caller and
// without surfacing failure. It first checks has_transaction_hash and
// skips the push entirely if the peer already holds t.
func (pc *PeerClient) SendTransaction(t *tx.Transaction) {
	go func() {
		hash := t.Hash()
		has, err := pc.HasTransactionHash(hash)
		if err == nil && has {
			return
		}
		attemptRequest[struct{}](pc, methodPutTransaction, t, tolerateFailure)
	}()
}

// SendEnvelope fires env at the peer without blocking the caller.
func (pc *PeerClient) SendEnvelope(env []byte) {
	go func() {
		attemptRequest[struct{}](pc, methodReceiveEnvelope, env, tolerateFailure)
	}()
}

// SendEnrollment fires e at the peer without blocking the caller.
func (pc *PeerClient) SendEnrollment(e types.Enrollment) {
	go func() {
		attemptRequest[struct{}](pc, methodEnrollValidator, e, tolerateFailure)
	}()
}

type preimageParams struct {
	Owner    types.PublicKey
	Preimage types.Hash
}

// SendPreimage fires a revealed hash-chain preimage at the peer without
// blocking the caller.
func (pc *PeerClient) SendPreimage(owner types.PublicKey, preimage types.Hash) {
	go func() {
		attemptRequest[struct{}](pc, methodReceivePreimage, preimageParams{Owner: owner, Preimage: preimage}, tolerateFailure)
	}()
}
