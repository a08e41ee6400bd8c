package p2p

import (
	"context"
	"sync"

	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/protocol"

	"github.com/rotkonetworks/peerset/peermgr"
)

// streamEngine implements peermgr.StreamEngine by holding one long-lived
// outbound stream per (peer, protocol) pair and reporting it alive as
// long as its underlying connection hasn't been torn down.
type streamEngine struct {
	h host.Host

	mu      sync.Mutex
	streams map[peermgr.PeerID]map[protocol.ID]network.Stream
}

// NewStreamEngine wraps h as the StreamEngine capability.
func NewStreamEngine(h host.Host) peermgr.StreamEngine {
	return &streamEngine{h: h, streams: make(map[peermgr.PeerID]map[protocol.ID]network.Stream)}
}

func (e *streamEngine) IsAlive(id peermgr.PeerID, proto string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	byProto, ok := e.streams[id]
	if !ok {
		return false
	}
	s, ok := byProto[protocol.ID(proto)]
	if !ok {
		return false
	}
	return s.Conn().IsClosed() == false
}

// Add opens and stores a stream for a reserved protocol slot. Failures
// are logged rather than surfaced: the liveness sweep will notice the
// missing stream on the next alignment pass and evict the peer if it's
// the block-announce slot that never opened.
func (e *streamEngine) Add(id peermgr.PeerID, proto string) {
	go func() {
		s, err := e.h.NewStream(context.Background(), id, protocol.ID(proto))
		if err != nil {
			log.Debugw("reserving stream failed", "peer", id, "protocol", proto, "err", err)
			return
		}
		e.mu.Lock()
		byProto, ok := e.streams[id]
		if !ok {
			byProto = make(map[protocol.ID]network.Stream)
			e.streams[id] = byProto
		}
		byProto[protocol.ID(proto)] = s
		e.mu.Unlock()
	}()
}

func (e *streamEngine) Del(id peermgr.PeerID) {
	e.mu.Lock()
	byProto := e.streams[id]
	delete(e.streams, id)
	e.mu.Unlock()

	for _, s := range byProto {
		_ = s.Reset()
	}
}

// protocolAdapter implements peermgr.Protocol for a single wire protocol
// id, opening a stream and immediately closing it: its purpose is to
// probe reachability of a protocol handler, not to hold the stream
// open (that's streamEngine's job for the slots ConnectionIntake
// reserves after promotion).
type protocolAdapter struct {
	h  host.Host
	id protocol.ID
}

func (p *protocolAdapter) ID() string {
	return string(p.id)
}

func (p *protocolAdapter) NewOutgoingStream(ctx context.Context, info peermgr.PeerInfo, cb func(peermgr.StreamResult)) {
	go func() {
		s, err := p.h.NewStream(ctx, info.ID, p.id)
		if err != nil {
			cb(peermgr.StreamResult{Err: err})
			return
		}
		_ = s.Close()
		cb(peermgr.StreamResult{})
	}()
}

// Protocol ids for the four slots the Peer Manager drives: block
// announcement defines active-peer liveness, the remaining three are
// reserved once a peer is promoted.
const (
	blockAnnounceProtocolID       = protocol.ID("/peerset/block-announce/1.0.0")
	gossipProtocolID              = protocol.ID("/peerset/gossip/1.0.0")
	propagateTransactionsProtoID = protocol.ID("/peerset/tx/1.0.0")
	supProtocolID                 = protocol.ID("/peerset/sup/1.0.0")
)

// router implements peermgr.Router over a fixed set of protocol ids.
type router struct {
	h host.Host
}

// NewRouter wraps h as the Router capability.
func NewRouter(h host.Host) peermgr.Router {
	return &router{h: h}
}

func (r *router) BlockAnnounceProtocol() peermgr.Protocol {
	return &protocolAdapter{h: r.h, id: blockAnnounceProtocolID}
}

func (r *router) GossipProtocol() peermgr.Protocol {
	return &protocolAdapter{h: r.h, id: gossipProtocolID}
}

func (r *router) PropagateTransactionsProtocol() peermgr.Protocol {
	return &protocolAdapter{h: r.h, id: propagateTransactionsProtoID}
}

func (r *router) SupProtocol() peermgr.Protocol {
	return &protocolAdapter{h: r.h, id: supProtocolID}
}
