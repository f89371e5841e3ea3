// Agora node daemon.
//
// Usage:
//
//	agorad   Load the default mainnet configuration, open the chain
//	         database, log that a genesis and an engine must be supplied
//	         by the embedder, and exit. No command-line flags are read.
//
// The embedded federated-agreement engine, HTTP/REST transport, and
// config-file/flag loading are external collaborators (spec.md §1) this
// binary does not implement; NewNode takes a consensus.Engine so the
// caller supplies one.
package main

import (
	"fmt"
	"os"

	"github.com/benbjohnson/clock"
	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/rheehot/agora/config"
	"github.com/rheehot/agora/internal/consensus"
	"github.com/rheehot/agora/internal/enrollment"
	klog "github.com/rheehot/agora/internal/log"
	"github.com/rheehot/agora/internal/ledger"
	"github.com/rheehot/agora/internal/mempool"
	"github.com/rheehot/agora/internal/p2p"
	"github.com/rheehot/agora/internal/storage"
	"github.com/rheehot/agora/internal/utxo"
)

// Node bundles the constructed components of a running Agora node: the
// single-writer ledger, its mempool and enrollment table, the consensus
// driver bridging it to an external federated-agreement engine, the
// peer client set, and the ban manager guarding them (spec.md §2).
type Node struct {
	DB     storage.DB
	UTXOs  *utxo.Store
	Enroll *enrollment.Manager
	Pool   *mempool.Pool
	Ledger *ledger.Ledger
	Driver *consensus.Driver
	Bans   *p2p.BanManager
}

// NewNode wires every component named in spec.md §2 for genesis gen,
// backed by db, bridged to engine. It initializes genesis on a fresh
// database and otherwise resumes from the stored tip.
func NewNode(db storage.DB, gen *config.Genesis, cfg *config.Config, engine consensus.Engine) (*Node, error) {
	if err := gen.Validate(); err != nil {
		return nil, fmt.Errorf("invalid genesis: %w", err)
	}

	utxoStore := utxo.NewStore(db)
	enroll := enrollment.NewManager()
	pool := mempool.New(utxoStore, 5000)

	ldg, err := ledger.New(db, utxoStore, enroll, pool, gen)
	if err != nil {
		return nil, fmt.Errorf("create ledger: %w", err)
	}
	if !ldg.IsInitialized() {
		if err := ldg.InitGenesis(); err != nil {
			return nil, fmt.Errorf("init genesis: %w", err)
		}
	} else {
		klog.Ledger.Info().Uint64("height", ldg.GetBlockHeight()).Msg("ledger resumed")
	}

	banStore := p2p.NewBanStore(db)
	bans := p2p.NewBanManagerWithClock(clock.New(), cfg.P2P.MaxFailedRequests, cfg.P2P.BanDuration, banStore)
	bans.LoadBans()

	driver := consensus.NewDriver(engine, ldg, enroll, gen)

	return &Node{
		DB:     db,
		UTXOs:  utxoStore,
		Enroll: enroll,
		Pool:   pool,
		Ledger: ldg,
		Driver: driver,
		Bans:   bans,
	}, nil
}

// Peers builds a PeerClient for every (identity, endpoint) pair
// configured, wired to this node's ban manager so a peer that exhausts
// its retries gets reported and eventually banned (spec.md §4.9, §4.10).
// Resolving a bare seed address into a peer.ID is a handshake concern,
// an external collaborator of this module.
func (n *Node) Peers(seeds map[peer.ID]string) []*p2p.PeerClient {
	peers := make([]*p2p.PeerClient, 0, len(seeds))
	for id, endpoint := range seeds {
		peers = append(peers, p2p.NewPeerClient(id, endpoint, n.Bans))
	}
	return peers
}

func main() {
	cfg := config.Default(config.Mainnet)
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if err := klog.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger := klog.WithComponent("main")

	db, err := storage.NewBadger(cfg.ChainDataDir())
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.ChainDataDir()).Msg("failed to open database")
	}
	defer db.Close()

	logger.Info().Str("network", string(cfg.Network)).Msg("agorad requires a genesis configuration and a federated-agreement engine to be supplied by its embedder; see NewNode")
}
