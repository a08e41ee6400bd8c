package p2p

import (
	"fmt"

	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"

	"github.com/rotkonetworks/peerset/params"
)

// BootstrapPeers parses the configured network's bootstrap multiaddresses
// into AddrInfos, the form both the DHT and the Peer Manager consume.
func BootstrapPeers() ([]peer.AddrInfo, error) {
	addrs := params.Bootstrappers()
	maddrs := make([]ma.Multiaddr, len(addrs))
	for i, addr := range addrs {
		var err error
		maddrs[i], err = ma.NewMultiaddr(addr)
		if err != nil {
			return nil, fmt.Errorf("p2p: parsing bootstrap address %q: %w", addr, err)
		}
	}
	return peer.AddrInfosFromP2pAddrs(maddrs...)
}
