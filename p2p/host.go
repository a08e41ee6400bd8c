package p2p

import (
	"context"
	"crypto/rand"
	"fmt"

	logging "github.com/ipfs/go-log/v2"
	"github.com/libp2p/go-libp2p"
	"github.com/libp2p/go-libp2p/core/connmgr"
	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/peerstore"
	connmgrimpl "github.com/libp2p/go-libp2p/p2p/net/connmgr"
	"github.com/libp2p/go-libp2p/p2p/host/peerstore/pstoremem"
	ma "github.com/multiformats/go-multiaddr"
	"go.uber.org/fx"
)

var log = logging.Logger("p2p")

// Key generates the node's networking private key. Key material here
// is generated fresh per process rather than persisted to disk;
// production deployments wire their own persistent key provider
// through the same fx.Provide slot.
func Key() (crypto.PrivKey, error) {
	priv, _, err := crypto.GenerateEd25519Key(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("p2p: generating identity key: %w", err)
	}
	return priv, nil
}

// ID derives and registers the node's own PeerID from its key.
func ID(key crypto.PrivKey, pstore peerstore.Peerstore) (peer.ID, error) {
	id, err := peer.IDFromPrivateKey(key)
	if err != nil {
		return "", err
	}
	if err := pstore.AddPrivKey(id, key); err != nil {
		return "", err
	}
	return id, pstore.AddPubKey(id, key.GetPublic())
}

// Peerstore constructs the in-memory peerstore backing the host and the
// AddressRepository adapter.
func Peerstore() (peerstore.Peerstore, error) {
	return pstoremem.NewPeerstore()
}

// ConnManager constructs the libp2p connection manager using the
// configured water marks.
func ConnManager(cfg Config) (connmgr.ConnManager, error) {
	return connmgrimpl.NewConnManager(cfg.LowWater, cfg.HighWater)
}

// Host constructs the libp2p host the Peer Manager's capability
// adapters wrap. It deliberately omits NAT traversal debug tooling,
// relay, and a configurable resource manager: none of that is
// exercised by the Peer Manager's own contract, which only needs
// dialing, connectedness and an event bus.
func Host(lc fx.Lifecycle, key crypto.PrivKey, pstore peerstore.Peerstore, cm connmgr.ConnManager) (host.Host, error) {
	h, err := libp2p.New(
		libp2p.Identity(key),
		libp2p.Peerstore(pstore),
		libp2p.ConnectionManager(cm),
		libp2p.NoListenAddrs,
		libp2p.DefaultTransports,
		libp2p.DefaultSecurity,
		libp2p.DefaultMuxers,
		libp2p.NATPortMap(),
	)
	if err != nil {
		return nil, fmt.Errorf("p2p: constructing host: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return h.Close()
		},
	})
	return h, nil
}

// Listen starts listening on the configured addresses.
func Listen(h host.Host, cfg Config) error {
	addrs := make([]ma.Multiaddr, 0, len(cfg.ListenAddresses))
	for _, addr := range cfg.ListenAddresses {
		maddr, err := ma.NewMultiaddr(addr)
		if err != nil {
			return fmt.Errorf("p2p: parsing listen address %q: %w", addr, err)
		}
		addrs = append(addrs, maddr)
	}
	return h.Network().Listen(addrs...)
}
