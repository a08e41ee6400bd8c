package peermgr

import (
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
)

// PeerID is an opaque handle identifying a remote node. It aliases
// libp2p's own peer.ID, which already carries the equality, hashing and
// base58 String() behavior callers need.
type PeerID = peer.ID

// PeerInfo pairs a PeerID with the addresses it is reachable at.
type PeerInfo = peer.AddrInfo

// Status is the last chain state a peer announced to us. The Peer
// Manager treats its contents opaquely; it only stores and returns it.
type Status struct {
	// Height is the best block height the peer reported.
	Height uint64
	// Hash is the best block hash the peer reported.
	Hash string
	// Version is the peer's advertised protocol version.
	Version string
	// Genesis is the genesis hash the peer is running with.
	Genesis string
	// Roles is a bitset of protocol-defined roles the peer plays (full,
	// archive, light, authority...).
	Roles uint8
}

// ActivePeerData is the bookkeeping kept for every active peer.
type ActivePeerData struct {
	LastSeen time.Time
	Status   *Status
}
