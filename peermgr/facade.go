package peermgr

// The methods in this file are the capability facade: synchronous
// read/write accessors used by the rest of the node. None of them
// block on network I/O.

// ActivePeersCount returns the size of the active peer set.
func (m *Manager) ActivePeersCount() int {
	return m.book.ActiveCount()
}

// ForEachPeer invokes f for every active peer.
func (m *Manager) ForEachPeer(f func(id PeerID, data ActivePeerData)) {
	m.book.ForEachActive(f)
}

// ForOnePeer invokes f for a single peer. It is a no-op if the peer is
// not currently active.
func (m *Manager) ForOnePeer(id PeerID, f func(ActivePeerData)) {
	data, ok := m.book.Get(id)
	if !ok {
		return
	}
	f(data)
}

// KeepAlive refreshes last_seen for an active peer. No-op otherwise.
func (m *Manager) KeepAlive(id PeerID) {
	m.book.Touch(id, m.now())
}

// UpdateStatus overwrites the full status of a peer. If the peer is not
// yet active, this admits it directly into active as an unsolicited
// status update, which is counted via metrics so the behavior stays
// observable.
func (m *Manager) UpdateStatus(id PeerID, status Status) {
	unsolicited := m.book.UpdateStatus(id, status, m.now())
	if unsolicited {
		m.metrics.observeUnsolicitedStatus()
		log.Debugw("admitted peer into active via unsolicited status", "peer", id.String())
	}
}

// UpdateBestBlock performs a partial status update, overwriting only
// the best-block fields of a peer's status while preserving the rest.
func (m *Manager) UpdateBestBlock(id PeerID, height uint64, hash string) {
	data, ok := m.book.Get(id)
	status := Status{}
	if ok && data.Status != nil {
		status = *data.Status
	}
	status.Height = height
	status.Hash = hash
	m.UpdateStatus(id, status)
}

// GetStatus returns the last known status of a peer, if any.
func (m *Manager) GetStatus(id PeerID) (Status, bool) {
	data, ok := m.book.Get(id)
	if !ok || data.Status == nil {
		return Status{}, false
	}
	return *data.Status, true
}
