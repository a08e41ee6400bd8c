package p2p

import (
	"github.com/benbjohnson/clock"
	dht "github.com/libp2p/go-libp2p-kad-dht"
	"go.uber.org/fx"

	"github.com/rotkonetworks/peerset/peermgr"
)

// Module wires the transport layer (host, peerstore, connection
// manager, DHT, identify) and adapts it into the capability interfaces
// peermgr.Module depends on. DHT's []peer.AddrInfo bootstrap list comes
// from the parent app: peermgr.Module supplies it via fx.Supply, so it
// isn't provided here too.
func Module(cfg Config) fx.Option {
	return fx.Module("p2p",
		fx.Supply(cfg),
		fx.Provide(
			Key,
			Peerstore,
			ConnManager,
			ID,
			Host,
			DHT,
			IdentifyService,
			fx.Annotate(NewHostAdapter, fx.As(new(peermgr.Host))),
			fx.Annotate(NewStreamEngine, fx.As(new(peermgr.StreamEngine))),
			fx.Annotate(NewRouter, fx.As(new(peermgr.Router))),
			fx.Annotate(NewIdentifyAdapter, fx.As(new(peermgr.IdentifyProtocol))),
			newDiscoveryAdapterFromDHT,
			newClockCapabilities,
		),
		fx.Invoke(Listen),
	)
}

// discoveryRendezvous namespaces peer discovery so unrelated networks
// sharing the same DHT bootstrap nodes don't cross-pollinate.
const discoveryRendezvous = "/peerset/discovery/1.0.0"

func newDiscoveryAdapterFromDHT(d *dht.IpfsDHT) peermgr.Discovery {
	return NewDiscoveryAdapter(d, discoveryRendezvous, discoveryAdvertiseInterval)
}

// clockCapabilities provides both peermgr.Clock and peermgr.Scheduler
// from a single underlying clockAdapter instance, since both
// interfaces are satisfied by the same wall-clock source.
type clockCapabilities struct {
	fx.Out

	Clock     peermgr.Clock
	Scheduler peermgr.Scheduler
}

func newClockCapabilities() clockCapabilities {
	a := NewClockAdapter(clock.New())
	return clockCapabilities{Clock: a, Scheduler: a}
}
