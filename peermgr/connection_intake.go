package peermgr

import (
	"context"
)

// connect dials a candidate that TakeNextCandidate has already moved
// into connecting.
func (m *Manager) connect(ctx context.Context, id PeerID) {
	addrs := m.host.Addresses().Addresses(id)
	if len(addrs) == 0 {
		log.Debugw("abandoning dial: no known addresses", "peer", id.String())
		m.metrics.observeEmptyAddrAbandoned()
		m.book.MarkFailed(id)
		return
	}
	m.dial(ctx, PeerInfo{ID: id, Addrs: addrs})
}

// ConnectToPeer dials an explicit PeerInfo, such as a bootstrap or
// mutual peer whose addresses are supplied out of band rather than
// discovered. It first remembers the addresses with a transient TTL,
// then marks the peer connecting directly: bootstrap peers are never
// pushed through the candidate queue.
func (m *Manager) ConnectToPeer(ctx context.Context, info PeerInfo) {
	if info.ID == m.host.Self() {
		return
	}
	if len(info.Addrs) > 0 {
		m.host.Addresses().UpsertAddresses(info.ID, info.Addrs, TTLTransient)
	}
	m.book.MarkConnecting(info.ID)
	m.dial(ctx, info)
}

// dial performs the connectedness check and opens the transport
// connection. The completion handler is weak-bound to the manager's
// generation: if Stop has run by the time it fires, it performs no
// state mutation.
func (m *Manager) dial(ctx context.Context, info PeerInfo) {
	if m.host.Connectedness(info.ID) == cannotConnect {
		log.Debugw("abandoning dial: host reports unreachable", "peer", info.ID.String())
		m.book.MarkFailed(info.ID)
		m.metrics.observeDial(false)
		return
	}

	gen := m.currentGeneration()
	m.host.Connect(ctx, info, func(res ConnectResult) {
		m.withGeneration(gen, func() { m.onDialComplete(ctx, info.ID, res) })
	})
}

func (m *Manager) onDialComplete(ctx context.Context, id PeerID, res ConnectResult) {
	m.book.MarkFailed(id) // connecting is cleared regardless of outcome below.

	if res.Err != nil {
		log.Debugw("dial failed", "peer", id.String(), "err", res.Err)
		m.metrics.observeDial(false)
		return
	}
	m.metrics.observeDial(true)

	if res.RemoteID == "" {
		log.Debugw("connected, pending identify", "peer", id.String())
		return
	}
	if res.RemoteID != id {
		// connected to a different identity than intended; defer to the
		// identify path for that peer instead of promoting the wrong one.
		return
	}
	m.onIdentified(res.RemoteID)
}

// onIdentified handles the fully-connected path: once a remote peer has
// sent its identity over an established connection, request a
// block-announce stream and promote on success.
func (m *Manager) onIdentified(id PeerID) {
	if id == m.host.Self() {
		return
	}
	addrs := m.host.Addresses().Addresses(id)
	if len(addrs) == 0 {
		log.Debugw("abandoning identify: no known addresses", "peer", id.String())
		m.book.MarkFailed(id)
		return
	}

	if m.book.ActiveCount() >= m.cfg.HardLimit {
		log.Debugw("hard limit reached, dropping identified peer without opening a stream",
			"peer", id.String())
		m.book.MarkFailed(id)
		return
	}

	proto := m.router.BlockAnnounceProtocol()
	if m.streams.IsAlive(id, proto.ID()) {
		// already promoted via a race with another identify/dial; just
		// clear the connecting slot.
		m.book.MarkFailed(id)
		return
	}

	info := PeerInfo{ID: id, Addrs: addrs}
	gen := m.currentGeneration()
	proto.NewOutgoingStream(context.Background(), info, func(res StreamResult) {
		m.withGeneration(gen, func() { m.onBlockAnnounceStreamOpened(id, res) })
	})

	m.disc.AddPeer(info, false)
}

func (m *Manager) onBlockAnnounceStreamOpened(id PeerID, res StreamResult) {
	m.book.MarkFailed(id)

	if res.Err != nil {
		log.Warnw("failed to open block-announce stream, disconnecting peer",
			"peer", id.String(), "err", res.Err)
		m.disconnect(id, reasonDeadPeer)
		return
	}

	m.book.PromoteToActive(id, m.now())
	// hold the block-announce slot in the stream engine: its liveness is
	// what the liveness sweep checks.
	m.streams.Add(id, m.router.BlockAnnounceProtocol().ID())
	m.reserveStreams(id)
	log.Infow("peer promoted to active", "peer", id.String(), "active", m.book.ActiveCount())
}

// reserveStreams registers auxiliary protocol slots (gossip, transaction
// propagation, the sup protocol) for a newly active peer. It is
// idempotent and independent of the block-announce promotion path.
func (m *Manager) reserveStreams(id PeerID) {
	for _, proto := range []Protocol{
		m.router.GossipProtocol(),
		m.router.PropagateTransactionsProtocol(),
		m.router.SupProtocol(),
	} {
		if proto == nil {
			continue
		}
		m.streams.Add(id, proto.ID())
	}
}
