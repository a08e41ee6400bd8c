// Package peermgr maintains the node's set of active peers on the p2p
// overlay network.
//
// It keeps the node connected to a bounded, healthy set of remote peers,
// continually discovering new candidates through a DHT while evicting
// stale or excess connections. The package is organized around a few
// small, synchronous pieces:
//
//   - Book is the in-memory state store: active peers, in-flight dial
//     attempts, and a FIFO queue of discovered candidates.
//   - Aligner is the periodic control loop that dials candidates and
//     evicts dead or excess peers.
//   - DiscoveryIntake ingests peer-discovered events from the DHT.
//   - ConnectionIntake ingests identify events, dials candidates and
//     promotes them to active once a block-announce stream is up.
//   - Manager wires the above together and exposes the read/write
//     facade the rest of the node uses.
//
// None of the exported operations block on network I/O; dialing and
// stream opening happen in the background and report back through
// callbacks that Manager binds to its own lifecycle generation, so a
// stopped Manager silently ignores any callback still in flight.
package peermgr
