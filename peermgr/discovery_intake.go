package peermgr

// onPeerDiscovered handles a peer-added event from the DHT bus: filter
// self and already-known peers, enqueue the candidate, and log queue
// depth. DHT-arrival order is preserved in the queue because this
// handler enqueues synchronously as each event is delivered.
func (m *Manager) onPeerDiscovered(id PeerID) {
	if id == m.host.Self() {
		return
	}
	m.book.Enqueue(id)
	log.Debugw("discovered peer", "peer", id.String(), "queue_depth", m.book.QueueLen())
}
