package p2p

import (
	"context"
	"fmt"

	dht "github.com/libp2p/go-libp2p-kad-dht"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"go.uber.org/fx"
)

// DHT constructs the Kademlia routing table backing the Discovery
// adapter, seeded with bootstrap peers as initial routing-table
// entries so lookups have somewhere to start before the Peer
// Manager's own dials land.
func DHT(lc fx.Lifecycle, h host.Host, bootstrap []peer.AddrInfo) (*dht.IpfsDHT, error) {
	d, err := dht.New(context.Background(), h, dht.Mode(dht.ModeAuto),
		dht.BootstrapPeers(bootstrap...))
	if err != nil {
		return nil, fmt.Errorf("p2p: constructing dht: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return d.Close()
		},
	})
	return d, nil
}
