package p2p

import (
	"fmt"

	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
)

// Config combines all configuration fields for the P2P subsystem the
// Peer Manager's capability adapters are built on top of.
type Config struct {
	// ListenAddresses are addresses to listen on on the local NIC.
	ListenAddresses []string
	// AnnounceAddresses lists addresses to advertise to peers. Host
	// construction does not read it; the host advertises its own
	// listen addresses.
	AnnounceAddresses []string
	// NoAnnounceAddresses lists addresses not to advertise, e.g.
	// loopback. Host construction does not read it.
	NoAnnounceAddresses []string
	// MutualPeers lists peers with a bidirectional peering agreement,
	// parsed by MutualPeerInfos. Connections to them are not protected
	// from connection-manager trimming.
	MutualPeers []string
	// LowWater/HighWater configure the connection manager's trimming
	// thresholds, independent of the Peer Manager's own soft/hard
	// limits (the connection manager protects against transport-level
	// connection churn; the Peer Manager curates membership).
	LowWater  int
	HighWater int
}

// DefaultConfig returns default configuration for the P2P subsystem.
func DefaultConfig() Config {
	return Config{
		ListenAddresses: []string{
			"/ip4/0.0.0.0/tcp/2121",
			"/ip6/::/tcp/2121",
			"/ip4/0.0.0.0/udp/2121/quic-v1",
			"/ip6/::/udp/2121/quic-v1",
		},
		AnnounceAddresses:   []string{},
		NoAnnounceAddresses: []string{"/ip4/127.0.0.1/tcp/2121"},
		MutualPeers:         []string{},
		LowWater:            50,
		HighWater:           100,
	}
}

// Validate performs basic validation of the config.
func (cfg *Config) Validate() error {
	for _, addr := range cfg.ListenAddresses {
		if _, err := ma.NewMultiaddr(addr); err != nil {
			return fmt.Errorf("p2p: invalid listen address %q: %w", addr, err)
		}
	}
	if cfg.LowWater <= 0 || cfg.HighWater <= 0 || cfg.LowWater > cfg.HighWater {
		return fmt.Errorf("p2p: connection manager water marks must satisfy 0 < low <= high")
	}
	return nil
}

// MutualPeerInfos parses MutualPeers into AddrInfos.
func (cfg *Config) MutualPeerInfos() ([]peer.AddrInfo, error) {
	maddrs := make([]ma.Multiaddr, len(cfg.MutualPeers))
	for i, addr := range cfg.MutualPeers {
		var err error
		maddrs[i], err = ma.NewMultiaddr(addr)
		if err != nil {
			return nil, fmt.Errorf("p2p: parsing mutual peer %q: %w", addr, err)
		}
	}
	return peer.AddrInfosFromP2pAddrs(maddrs...)
}
