package peermgr

import (
	"sync"
	"time"
)

// Book is the in-memory state store of the Peer Manager: the active
// set, the in-flight dial attempts, and the FIFO candidate queue. Every
// exported method is synchronous, non-blocking, and preserves the
// invariants of the three indices atomically under its own lock:
//
//  1. queueSet and queue always contain exactly the same peers.
//  2. a peer is in at most one of {active, connecting, queueSet}.
//  3. self never appears in any of the three.
//  4. |active| respects the caller's eviction discipline (enforced by
//     Aligner, not Book itself).
//
// Book does not know about hard/soft limits or TTLs; Aligner drives
// those policies by calling Book's primitives.
type Book struct {
	mu sync.Mutex

	self PeerID

	active     map[PeerID]ActivePeerData
	connecting map[PeerID]struct{}
	queue      []PeerID
	queueSet   map[PeerID]struct{}
}

// NewBook creates an empty Book that will never admit self into any of
// its indices.
func NewBook(self PeerID) *Book {
	return &Book{
		self:       self,
		active:     make(map[PeerID]ActivePeerData),
		connecting: make(map[PeerID]struct{}),
		queue:      make([]PeerID, 0),
		queueSet:   make(map[PeerID]struct{}),
	}
}

// Enqueue appends id to the candidate queue, unless it is self or
// already tracked in active, connecting or the queue.
func (b *Book) Enqueue(id PeerID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enqueueLocked(id)
}

func (b *Book) enqueueLocked(id PeerID) {
	if id == b.self {
		return
	}
	if _, ok := b.active[id]; ok {
		return
	}
	if _, ok := b.connecting[id]; ok {
		return
	}
	if _, ok := b.queueSet[id]; ok {
		return
	}
	b.queue = append(b.queue, id)
	b.queueSet[id] = struct{}{}
}

// TakeNextCandidate pops the head of the queue into connecting and
// returns it. It returns false if the queue is empty.
func (b *Book) TakeNextCandidate() (PeerID, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.queue) == 0 {
		return "", false
	}

	id := b.queue[0]
	b.queue = b.queue[1:]
	delete(b.queueSet, id)
	b.connecting[id] = struct{}{}
	return id, true
}

// MarkConnecting inserts id into connecting directly, bypassing the
// queue. Used for bootstrap fallback dials, which are never pushed
// through the candidate queue.
func (b *Book) MarkConnecting(id PeerID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if id == b.self {
		return
	}
	b.connecting[id] = struct{}{}
}

// PromoteToActive moves id into active with last_seen = now. It is
// idempotent: if id is already active, only last_seen is refreshed.
func (b *Book) PromoteToActive(id PeerID, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.promoteToActiveLocked(id, now)
}

func (b *Book) promoteToActiveLocked(id PeerID, now time.Time) {
	if id == b.self {
		return
	}
	delete(b.connecting, id)
	if _, ok := b.queueSet[id]; ok {
		delete(b.queueSet, id)
		b.queue = removePeer(b.queue, id)
	}

	data, wasActive := b.active[id]
	data.LastSeen = now
	if !wasActive {
		data.Status = nil
	}
	b.active[id] = data
}

// MarkFailed removes id from connecting. The candidate is not
// re-enqueued; it is dropped for this cycle.
func (b *Book) MarkFailed(id PeerID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.connecting, id)
}

// Touch refreshes last_seen for id if it is active. No-op otherwise.
func (b *Book) Touch(id PeerID, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.active[id]
	if !ok {
		return
	}
	data.LastSeen = now
	b.active[id] = data
}

// UpdateStatus overwrites the status and last_seen of an active peer.
// If id is not active, this is treated as an unsolicited status: id is
// pulled out of connecting/queue and admitted directly into active with
// the given status. See the package-level note on this open question in
// DESIGN.md.
func (b *Book) UpdateStatus(id PeerID, status Status, now time.Time) (unsolicited bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, ok := b.active[id]
	if ok {
		data.LastSeen = now
		data.Status = &status
		b.active[id] = data
		return false
	}

	delete(b.connecting, id)
	if _, inQueue := b.queueSet[id]; inQueue {
		delete(b.queueSet, id)
		b.queue = removePeer(b.queue, id)
	}
	b.active[id] = ActivePeerData{LastSeen: now, Status: &status}
	return true
}

// Remove deletes id from active, if present. It is a no-op for unknown
// peers. Callers are responsible for propagating the removal to
// dependent subsystems (stream engine, sync registries).
func (b *Book) Remove(id PeerID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.active, id)
}

// OldestActive returns the active peer with the smallest last_seen,
// breaking ties by the lowest PeerID string to stay deterministic.
func (b *Book) OldestActive() (PeerID, time.Time, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var (
		oldestID   PeerID
		oldestTime time.Time
		found      bool
	)
	for id, data := range b.active {
		if !found ||
			data.LastSeen.Before(oldestTime) ||
			(data.LastSeen.Equal(oldestTime) && id < oldestID) {
			oldestID = id
			oldestTime = data.LastSeen
			found = true
		}
	}
	return oldestID, oldestTime, found
}

// ActiveCount reports the size of the active set.
func (b *Book) ActiveCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.active)
}

// QueueLen reports the size of the candidate queue.
func (b *Book) QueueLen() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// ConnectingCount reports the number of in-flight dial/identify
// attempts.
func (b *Book) ConnectingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.connecting)
}

// IsActive reports whether id is currently active.
func (b *Book) IsActive(id PeerID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.active[id]
	return ok
}

// ActivePeers returns a snapshot slice of active peer ids.
func (b *Book) ActivePeers() []PeerID {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]PeerID, 0, len(b.active))
	for id := range b.active {
		ids = append(ids, id)
	}
	return ids
}

// ForEachActive invokes f for every active peer with a copy of its
// data. The active set is snapshotted and the lock released before f
// runs, so f may call back into Book (e.g. Remove).
func (b *Book) ForEachActive(f func(PeerID, ActivePeerData)) {
	b.mu.Lock()
	snapshot := make(map[PeerID]ActivePeerData, len(b.active))
	for id, data := range b.active {
		snapshot[id] = data
	}
	b.mu.Unlock()

	for id, data := range snapshot {
		f(id, data)
	}
}

// Get returns the stored data for an active peer.
func (b *Book) Get(id PeerID) (ActivePeerData, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.active[id]
	return data, ok
}

func removePeer(ids []PeerID, target PeerID) []PeerID {
	for i, id := range ids {
		if id == target {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}
