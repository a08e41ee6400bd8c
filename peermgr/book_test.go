package peermgr

import (
	"testing"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBook_EnqueueSkipsSelfAndKnownPeers(t *testing.T) {
	self := peer.ID("self")
	b := NewBook(self)

	b.Enqueue(self)
	assert.Equal(t, 0, b.QueueLen())

	p1 := peer.ID("p1")
	b.Enqueue(p1)
	assert.Equal(t, 1, b.QueueLen())

	b.Enqueue(p1)
	assert.Equal(t, 1, b.QueueLen(), "re-enqueueing an already-queued peer is a no-op")

	b.PromoteToActive(p1, time.Now())
	b.Enqueue(p1)
	assert.Equal(t, 0, b.QueueLen(), "an active peer is never re-queued")
}

func TestBook_TakeNextCandidateIsFIFO(t *testing.T) {
	b := NewBook(peer.ID("self"))
	p1, p2 := peer.ID("p1"), peer.ID("p2")
	b.Enqueue(p1)
	b.Enqueue(p2)

	got, ok := b.TakeNextCandidate()
	require.True(t, ok)
	assert.Equal(t, p1, got)
	assert.Equal(t, 1, b.ConnectingCount())

	got, ok = b.TakeNextCandidate()
	require.True(t, ok)
	assert.Equal(t, p2, got)
	assert.Equal(t, 2, b.ConnectingCount())

	_, ok = b.TakeNextCandidate()
	assert.False(t, ok)
}

func TestBook_PromoteToActiveClearsConnectingAndQueue(t *testing.T) {
	b := NewBook(peer.ID("self"))
	p1 := peer.ID("p1")
	b.Enqueue(p1)
	_, _ = b.TakeNextCandidate()
	require.Equal(t, 1, b.ConnectingCount())

	now := time.Now()
	b.PromoteToActive(p1, now)
	assert.Equal(t, 0, b.ConnectingCount())
	assert.Equal(t, 0, b.QueueLen())
	assert.True(t, b.IsActive(p1))

	data, ok := b.Get(p1)
	require.True(t, ok)
	assert.True(t, data.LastSeen.Equal(now))
}

func TestBook_PromoteToActiveIsIdempotent(t *testing.T) {
	b := NewBook(peer.ID("self"))
	p1 := peer.ID("p1")
	first := time.Now()
	b.PromoteToActive(p1, first)
	_ = b.UpdateStatus(p1, Status{Height: 5}, first)

	second := first.Add(time.Minute)
	b.PromoteToActive(p1, second)

	data, ok := b.Get(p1)
	require.True(t, ok)
	assert.True(t, data.LastSeen.Equal(second))
	require.NotNil(t, data.Status, "re-promoting an already active peer must not wipe its status")
	assert.Equal(t, uint64(5), data.Status.Height)
}

func TestBook_MarkFailedDropsFromConnectingWithoutRequeue(t *testing.T) {
	b := NewBook(peer.ID("self"))
	p1 := peer.ID("p1")
	b.Enqueue(p1)
	_, _ = b.TakeNextCandidate()

	b.MarkFailed(p1)
	assert.Equal(t, 0, b.ConnectingCount())
	assert.Equal(t, 0, b.QueueLen())
}

func TestBook_UpdateStatusOnActivePeerIsNotUnsolicited(t *testing.T) {
	b := NewBook(peer.ID("self"))
	p1 := peer.ID("p1")
	now := time.Now()
	b.PromoteToActive(p1, now)

	unsolicited := b.UpdateStatus(p1, Status{Height: 10}, now)
	assert.False(t, unsolicited)

	data, ok := b.Get(p1)
	require.True(t, ok)
	assert.Equal(t, uint64(10), data.Status.Height)
}

func TestBook_UpdateStatusOnUnknownPeerAdmitsUnsolicited(t *testing.T) {
	b := NewBook(peer.ID("self"))
	p1 := peer.ID("p1")
	b.Enqueue(p1)
	_, _ = b.TakeNextCandidate()

	now := time.Now()
	unsolicited := b.UpdateStatus(p1, Status{Height: 1}, now)
	assert.True(t, unsolicited)
	assert.True(t, b.IsActive(p1))
	assert.Equal(t, 0, b.ConnectingCount())
}

func TestBook_OldestActiveBreaksTiesByPeerID(t *testing.T) {
	b := NewBook(peer.ID("self"))
	now := time.Now()
	b.PromoteToActive(peer.ID("b"), now)
	b.PromoteToActive(peer.ID("a"), now)
	b.PromoteToActive(peer.ID("c"), now)

	id, _, ok := b.OldestActive()
	require.True(t, ok)
	assert.Equal(t, peer.ID("a"), id)
}

func TestBook_RemoveIsNoOpForUnknownPeer(t *testing.T) {
	b := NewBook(peer.ID("self"))
	b.Remove(peer.ID("nonexistent"))
	assert.Equal(t, 0, b.ActiveCount())
}

func TestBook_ForEachActiveSnapshotsBeforeIterating(t *testing.T) {
	b := NewBook(peer.ID("self"))
	now := time.Now()
	b.PromoteToActive(peer.ID("p1"), now)
	b.PromoteToActive(peer.ID("p2"), now)

	seen := map[PeerID]bool{}
	b.ForEachActive(func(id PeerID, _ ActivePeerData) {
		seen[id] = true
		b.Remove(id)
	})
	assert.Len(t, seen, 2)
}
