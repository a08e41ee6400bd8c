package p2p

import (
	"context"
	"sync"
	"time"

	dht "github.com/libp2p/go-libp2p-kad-dht"
	drouting "github.com/libp2p/go-libp2p/p2p/discovery/routing"
	discovery "github.com/libp2p/go-libp2p/core/discovery"
	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/rotkonetworks/peerset/peermgr"
)

// discoveryAdvertiseInterval is how often the node re-advertises itself
// under the discovery rendezvous point; FindPeers runs against it four
// times per interval.
const discoveryAdvertiseInterval = 1 * time.Minute

// discoveryAdapter implements peermgr.Discovery over a Kademlia DHT.
// It never dials on its own: it surfaces every peer the DHT's routing
// table admits as a peer-discovered event, and leaves approaching and
// evicting to the Peer Manager.
type discoveryAdapter struct {
	dht        *dht.IpfsDHT
	disc       discovery.Discovery
	rendezvous string
	advertise  time.Duration

	mu       sync.Mutex
	handlers map[int]func(peermgr.DiscoveredPeer)
	nextID   int

	cancel context.CancelFunc
}

// NewDiscoveryAdapter wraps a bootstrapped DHT as the Discovery
// capability the Peer Manager consumes. rendezvous is the namespace
// peers advertise and search under, mirroring share/p2p/discovery's
// tag-based rendezvous.
func NewDiscoveryAdapter(d *dht.IpfsDHT, rendezvous string, advertiseInterval time.Duration) peermgr.Discovery {
	return &discoveryAdapter{
		dht:        d,
		disc:       drouting.NewRoutingDiscovery(d),
		rendezvous: rendezvous,
		advertise:  advertiseInterval,
		handlers:   make(map[int]func(peermgr.DiscoveredPeer)),
	}
}

func (a *discoveryAdapter) Start(ctx context.Context) error {
	if err := a.dht.Bootstrap(ctx); err != nil {
		return err
	}

	// chain onto the routing table's own PeerAdded hook rather than
	// replacing it, so any other subscriber keeps getting notified too.
	rt := a.dht.RoutingTable()
	prev := rt.PeerAdded
	rt.PeerAdded = func(id peer.ID) {
		if prev != nil {
			prev(id)
		}
		a.notify(id)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	go a.advertiseLoop(loopCtx)
	go a.discoverLoop(loopCtx)
	return nil
}

func (a *discoveryAdapter) Subscribe(handler func(peermgr.DiscoveredPeer)) func() {
	a.mu.Lock()
	id := a.nextID
	a.nextID++
	a.handlers[id] = handler
	a.mu.Unlock()

	return func() {
		a.mu.Lock()
		delete(a.handlers, id)
		a.mu.Unlock()
	}
}

func (a *discoveryAdapter) AddPeer(info peermgr.PeerInfo, permanent bool) {
	ttl := peerstoreTTL(permanent)
	a.dht.Host().Peerstore().AddAddrs(info.ID, info.Addrs, ttl)
	// isReplaceable=false for permanent (bootstrap) peers keeps them
	// pinned in the routing table under churn.
	_, _ = a.dht.RoutingTable().TryAddPeer(info.ID, true, !permanent)
}

func (a *discoveryAdapter) notify(id peer.ID) {
	if id == a.dht.Host().ID() {
		return
	}
	a.mu.Lock()
	handlers := make([]func(peermgr.DiscoveredPeer), 0, len(a.handlers))
	for _, h := range a.handlers {
		handlers = append(handlers, h)
	}
	a.mu.Unlock()

	ev := peermgr.DiscoveredPeer{ID: id}
	for _, h := range handlers {
		h(ev)
	}
}

// advertiseLoop persistently advertises the rendezvous point, mirroring
// share/p2p/discovery.Discovery.Advertise.
func (a *discoveryAdapter) advertiseLoop(ctx context.Context) {
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-timer.C:
			if _, err := a.disc.Advertise(ctx, a.rendezvous); err != nil {
				log.Debugw("advertise failed", "err", err)
			}
			timer.Reset(a.advertise)
		case <-ctx.Done():
			return
		}
	}
}

// discoverLoop periodically runs FindPeers against the rendezvous
// point. Every result reaches the routing table (and thus notify)
// through the DHT's own peer-found bookkeeping; we additionally seed
// the address repository so ConnectionIntake has something to dial.
func (a *discoveryAdapter) discoverLoop(ctx context.Context) {
	ticker := time.NewTicker(a.advertise / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			peersCh, err := a.disc.FindPeers(ctx, a.rendezvous)
			if err != nil {
				log.Debugw("find peers failed", "err", err)
				continue
			}
			for p := range peersCh {
				if p.ID == a.dht.Host().ID() || len(p.Addrs) == 0 {
					continue
				}
				a.dht.Host().Peerstore().AddAddrs(p.ID, p.Addrs, peerstoreTTL(false))
				a.notify(p.ID)
			}
		case <-ctx.Done():
			return
		}
	}
}
