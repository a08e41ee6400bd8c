package peermgr

import (
	"context"
	"time"

	"github.com/libp2p/go-libp2p/core/network"
	ma "github.com/multiformats/go-multiaddr"
)

// cannotConnect mirrors network.CannotConnect, the connectedness value
// Host reports when it already knows a peer is unreachable.
const cannotConnect = network.CannotConnect

// Clock reports monotonic time. Production code wires a real clock;
// tests wire a fake one so TTL-driven alignment is deterministic.
type Clock interface {
	Now() time.Time
}

// SchedulerHandle cancels a scheduled callback. Calling Cancel more than
// once, or after the callback has already fired, is a no-op.
type SchedulerHandle interface {
	Cancel()
}

// Scheduler runs a callback once after a delay; the callback may run on
// another goroutine. It is the only primitive the Aligner uses to rearm
// itself.
type Scheduler interface {
	Schedule(delay time.Duration, cb func()) SchedulerHandle
}

// ConnectResult is delivered to the callback passed to Host.Connect.
type ConnectResult struct {
	// Err is non-nil if the dial failed or was aborted.
	Err error
	// RemoteID is the peer we ended up connected to. It is empty if the
	// connection succeeded but the remote identity isn't known yet.
	RemoteID PeerID
}

// Host is the capability facade over the node's transport layer that the
// Peer Manager needs: connectedness, dialing, the node's own id, and
// access to the address repository.
type Host interface {
	// Connectedness reports whether a connection to id is currently
	// possible, established or known-impossible.
	Connectedness(id PeerID) network.Connectedness
	// Connect opens a connection to info. The callback runs once the
	// dial resolves (success or failure), possibly on another goroutine.
	Connect(ctx context.Context, info PeerInfo, cb func(ConnectResult))
	// Addresses returns the repository of addresses known per peer.
	Addresses() AddressRepository
	// Self returns the node's own peer id, which must never be
	// admitted into any PeerBook index.
	Self() PeerID
}

// AddrTTL classifies how long an address should be remembered for.
type AddrTTL int

const (
	// TTLTransient addresses are remembered only briefly, as used by
	// ConnectToPeer for the addresses it dials.
	TTLTransient AddrTTL = iota
	// TTLPermanent addresses are remembered indefinitely. Nothing in
	// this package stores addresses with it.
	TTLPermanent
)

// AddressRepository stores and serves known addresses per peer.
type AddressRepository interface {
	UpsertAddresses(id PeerID, addrs []ma.Multiaddr, ttl AddrTTL)
	Addresses(id PeerID) []ma.Multiaddr
}

// DiscoveredPeer is delivered by Discovery whenever the DHT surfaces a
// peer. The same peer may be delivered more than once; Book.Enqueue
// ignores peers it already tracks.
type DiscoveredPeer struct {
	ID PeerID
}

// Discovery is the capability facade over the DHT-based discovery
// layer. The Peer Manager never performs lookups itself; it only
// consumes the events this emits and feeds the DHT back peers it has
// connected to.
type Discovery interface {
	// Start begins DHT bootstrap/lookup routines.
	Start(ctx context.Context) error
	// Subscribe registers a handler invoked for every discovered peer,
	// in DHT-arrival order. It returns an unsubscribe function.
	Subscribe(handler func(DiscoveredPeer)) (unsubscribe func())
	// AddPeer informs the DHT of a peer's presence, for inclusion in
	// routing-table maintenance. permanent marks bootstrap-seeded
	// entries that should never be evicted from the DHT's own tables.
	AddPeer(info PeerInfo, permanent bool)
}

// IdentifyEvent is delivered once a connected peer has sent its
// identity over the wire.
type IdentifyEvent struct {
	ID PeerID
}

// IdentifyProtocol is the capability facade over the identify
// sub-protocol.
type IdentifyProtocol interface {
	Start(ctx context.Context) error
	OnIdentifyReceived(handler func(IdentifyEvent)) (unsubscribe func())
}

// StreamEngine tests and manages protocol stream liveness independent
// of any particular promotion path.
type StreamEngine interface {
	// IsAlive reports whether a stream on protocol to peer is currently
	// alive.
	IsAlive(id PeerID, protocol string) bool
	// Add reserves a stream slot for peer on protocol.
	Add(id PeerID, protocol string)
	// Del tears down every stream slot held for peer.
	Del(id PeerID)
}

// StreamResult is delivered once a requested outbound stream resolves.
type StreamResult struct {
	Err error
}

// Protocol is a single named stream protocol the Router exposes.
type Protocol interface {
	// ID is the protocol's wire identifier, used for logging.
	ID() string
	// NewOutgoingStream opens a new outbound stream to info. The
	// callback runs once the stream opens or fails to, possibly on
	// another goroutine.
	NewOutgoingStream(ctx context.Context, info PeerInfo, cb func(StreamResult))
}

// Router exposes the protocol-id plumbing the Peer Manager needs: the
// block-announce protocol whose liveness defines peer liveness, plus
// the auxiliary protocols reserved on promotion.
type Router interface {
	BlockAnnounceProtocol() Protocol
	GossipProtocol() Protocol
	PropagateTransactionsProtocol() Protocol
	SupProtocol() Protocol
}
