package p2p

import (
	"context"
	"time"

	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peerstore"
	ma "github.com/multiformats/go-multiaddr"

	"github.com/rotkonetworks/peerset/peermgr"
)

// hostAdapter implements peermgr.Host on top of a libp2p host.Host.
type hostAdapter struct {
	h     host.Host
	addrs *addressRepository
}

// NewHostAdapter wraps h as the Host capability the Peer Manager
// consumes.
func NewHostAdapter(h host.Host) peermgr.Host {
	return &hostAdapter{h: h, addrs: newAddressRepository(h.Peerstore())}
}

func (a *hostAdapter) Connectedness(id peermgr.PeerID) network.Connectedness {
	return a.h.Network().Connectedness(id)
}

func (a *hostAdapter) Connect(ctx context.Context, info peermgr.PeerInfo, cb func(peermgr.ConnectResult)) {
	go func() {
		err := a.h.Connect(ctx, info)
		if err != nil {
			cb(peermgr.ConnectResult{Err: err})
			return
		}
		// the connection is up; report the remote id directly since
		// libp2p's Connect already authenticates the peer at the
		// security-transport layer, ahead of the identify handshake.
		cb(peermgr.ConnectResult{RemoteID: info.ID})
	}()
}

func (a *hostAdapter) Addresses() peermgr.AddressRepository {
	return a.addrs
}

func (a *hostAdapter) Self() peermgr.PeerID {
	return a.h.ID()
}

// addressRepository implements peermgr.AddressRepository on top of a
// libp2p Peerstore, the same store consulted by host construction for
// dialing.
type addressRepository struct {
	pstore peerstore.Peerstore
}

func newAddressRepository(pstore peerstore.Peerstore) *addressRepository {
	return &addressRepository{pstore: pstore}
}

func (r *addressRepository) UpsertAddresses(id peermgr.PeerID, addrs []ma.Multiaddr, ttl peermgr.AddrTTL) {
	r.pstore.AddAddrs(id, addrs, peerstoreTTL(ttl == peermgr.TTLPermanent))
}

func (r *addressRepository) Addresses(id peermgr.PeerID) []ma.Multiaddr {
	return r.pstore.Addrs(id)
}

// peerstoreTTL maps the permanent/transient distinction used across the
// p2p package onto the peerstore's own TTL categories.
func peerstoreTTL(permanent bool) time.Duration {
	if permanent {
		return peerstore.PermanentAddrTTL
	}
	return peerstore.TempAddrTTL
}
