package peermgr

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
)

// fakeAddressRepository is an in-memory AddressRepository double.
type fakeAddressRepository struct {
	mu    sync.Mutex
	addrs map[PeerID][]ma.Multiaddr
}

func newFakeAddressRepository() *fakeAddressRepository {
	return &fakeAddressRepository{addrs: make(map[PeerID][]ma.Multiaddr)}
}

func (r *fakeAddressRepository) UpsertAddresses(id PeerID, addrs []ma.Multiaddr, _ AddrTTL) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addrs[id] = addrs
}

func (r *fakeAddressRepository) Addresses(id PeerID) []ma.Multiaddr {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addrs[id]
}

var loopbackAddr, _ = ma.NewMultiaddr("/ip4/127.0.0.1/tcp/4001")

// fakeHost is a Host double whose Connect outcome is driven by a
// per-peer script the test installs beforehand.
type fakeHost struct {
	self  PeerID
	addrs *fakeAddressRepository

	mu            sync.Mutex
	connectedness map[PeerID]network.Connectedness
	connectResult map[PeerID]ConnectResult
	connectCalls  []PeerID
}

func newFakeHost(self PeerID) *fakeHost {
	return &fakeHost{
		self:          self,
		addrs:         newFakeAddressRepository(),
		connectedness: make(map[PeerID]network.Connectedness),
		connectResult: make(map[PeerID]ConnectResult),
	}
}

func (h *fakeHost) Connectedness(id PeerID) network.Connectedness {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cn, ok := h.connectedness[id]; ok {
		return cn
	}
	return network.NotConnected
}

func (h *fakeHost) Connect(_ context.Context, info PeerInfo, cb func(ConnectResult)) {
	h.mu.Lock()
	h.connectCalls = append(h.connectCalls, info.ID)
	res, ok := h.connectResult[info.ID]
	h.mu.Unlock()
	if !ok {
		res = ConnectResult{RemoteID: info.ID}
	}
	cb(res)
}

func (h *fakeHost) Addresses() AddressRepository {
	return h.addrs
}

func (h *fakeHost) Self() PeerID {
	return h.self
}

func (h *fakeHost) setConnectedness(id PeerID, cn network.Connectedness) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connectedness[id] = cn
}

func (h *fakeHost) setConnectResult(id PeerID, res ConnectResult) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connectResult[id] = res
}

// fakeDiscovery is a Discovery double that lets tests fire
// peer-discovered events directly.
type fakeDiscovery struct {
	mu       sync.Mutex
	handlers []func(DiscoveredPeer)
	added    []PeerInfo
}

func newFakeDiscovery() *fakeDiscovery {
	return &fakeDiscovery{}
}

func (d *fakeDiscovery) Start(context.Context) error { return nil }

func (d *fakeDiscovery) Subscribe(handler func(DiscoveredPeer)) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	idx := len(d.handlers)
	d.handlers = append(d.handlers, handler)
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.handlers[idx] = nil
	}
}

func (d *fakeDiscovery) AddPeer(info PeerInfo, _ bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.added = append(d.added, info)
}

func (d *fakeDiscovery) fire(id PeerID) {
	d.mu.Lock()
	handlers := make([]func(DiscoveredPeer), len(d.handlers))
	copy(handlers, d.handlers)
	d.mu.Unlock()
	for _, h := range handlers {
		if h != nil {
			h(DiscoveredPeer{ID: id})
		}
	}
}

// fakeIdentify is an IdentifyProtocol double that lets tests fire
// identify-completed events directly.
type fakeIdentify struct {
	mu       sync.Mutex
	handlers []func(IdentifyEvent)
}

func newFakeIdentify() *fakeIdentify {
	return &fakeIdentify{}
}

func (f *fakeIdentify) Start(context.Context) error { return nil }

func (f *fakeIdentify) OnIdentifyReceived(handler func(IdentifyEvent)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := len(f.handlers)
	f.handlers = append(f.handlers, handler)
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.handlers[idx] = nil
	}
}

func (f *fakeIdentify) fire(id PeerID) {
	f.mu.Lock()
	handlers := make([]func(IdentifyEvent), len(f.handlers))
	copy(handlers, f.handlers)
	f.mu.Unlock()
	for _, h := range handlers {
		if h != nil {
			h(IdentifyEvent{ID: id})
		}
	}
}

// fakeStreamEngine is a StreamEngine double.
type fakeStreamEngine struct {
	mu    sync.Mutex
	alive map[PeerID]map[string]bool
}

func newFakeStreamEngine() *fakeStreamEngine {
	return &fakeStreamEngine{alive: make(map[PeerID]map[string]bool)}
}

func (e *fakeStreamEngine) IsAlive(id PeerID, protocol string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.alive[id][protocol]
}

func (e *fakeStreamEngine) Add(id PeerID, protocol string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.alive[id] == nil {
		e.alive[id] = make(map[string]bool)
	}
	e.alive[id][protocol] = true
}

func (e *fakeStreamEngine) Del(id PeerID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.alive, id)
}

func (e *fakeStreamEngine) kill(id PeerID, protocol string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.alive[id] != nil {
		e.alive[id][protocol] = false
	}
}

// fakeProtocol is a Protocol double whose outcome is scripted per peer.
type fakeProtocol struct {
	id string

	mu      sync.Mutex
	results map[PeerID]StreamResult
	opened  []PeerID
	engine  *fakeStreamEngine
}

func (p *fakeProtocol) ID() string { return p.id }

func (p *fakeProtocol) NewOutgoingStream(_ context.Context, info PeerInfo, cb func(StreamResult)) {
	p.mu.Lock()
	p.opened = append(p.opened, info.ID)
	res, ok := p.results[info.ID]
	p.mu.Unlock()
	if !ok {
		res = StreamResult{}
	}
	if res.Err == nil && p.engine != nil {
		p.engine.Add(info.ID, p.id)
	}
	cb(res)
}

func (p *fakeProtocol) setResult(id PeerID, res StreamResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.results == nil {
		p.results = make(map[PeerID]StreamResult)
	}
	p.results[id] = res
}

// fakeRouter is a Router double exposing four independent fakeProtocols.
type fakeRouter struct {
	blockAnnounce *fakeProtocol
	gossip        *fakeProtocol
	tx            *fakeProtocol
	sup           *fakeProtocol
}

func newFakeRouter(engine *fakeStreamEngine) *fakeRouter {
	return &fakeRouter{
		blockAnnounce: &fakeProtocol{id: "block-announce", engine: engine},
		gossip:        &fakeProtocol{id: "gossip", engine: engine},
		tx:            &fakeProtocol{id: "tx", engine: engine},
		sup:           &fakeProtocol{id: "sup", engine: engine},
	}
}

func (r *fakeRouter) BlockAnnounceProtocol() Protocol       { return r.blockAnnounce }
func (r *fakeRouter) GossipProtocol() Protocol              { return r.gossip }
func (r *fakeRouter) PropagateTransactionsProtocol() Protocol { return r.tx }
func (r *fakeRouter) SupProtocol() Protocol                 { return r.sup }

// mockTimerHandle adapts a benbjohnson/clock Timer into SchedulerHandle,
// the same wrapping p2p.clockAdapter does over the production clock.
type mockTimerHandle struct {
	timer *clock.Timer
}

func (h *mockTimerHandle) Cancel() { h.timer.Stop() }

// mockScheduler is a Scheduler backed by a clock.Mock: callbacks only
// fire when the test advances the mock clock past their delay.
type mockScheduler struct {
	mock *clock.Mock

	mu      sync.Mutex
	pending bool
}

func newMockScheduler(mock *clock.Mock) *mockScheduler {
	return &mockScheduler{mock: mock}
}

func (s *mockScheduler) Schedule(delay time.Duration, cb func()) SchedulerHandle {
	s.mu.Lock()
	s.pending = true
	s.mu.Unlock()
	return &mockTimerHandle{timer: s.mock.AfterFunc(delay, cb)}
}

// newTestHostInfo builds a PeerInfo for id with a loopback address, the
// minimum ConnectionIntake needs to attempt a dial.
func newTestHostInfo(id PeerID) PeerInfo {
	return PeerInfo{ID: id, Addrs: []ma.Multiaddr{loopbackAddr}}
}

func newTestPeerID(s string) PeerID {
	return peer.ID(s)
}
