package peermgr

import (
	"context"
	"fmt"
	"sync"
	"time"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("peermgr")

// DependentRemover is notified whenever a peer is fully removed from the
// active set, so that subsystems layered on top of the Peer Manager
// (sync client registries, reputation trackers...) can drop their own
// per-peer state in lockstep.
type DependentRemover func(PeerID)

// Manager is the Peer Manager: it wires Book, Aligner, DiscoveryIntake
// and ConnectionIntake together behind the lifecycle hooks and
// capability facade the rest of the node uses.
//
// Manager is not safe for concurrent use from multiple goroutines
// beyond what its own scheduling discipline already assumes: every
// mutation is expected to run on a single logical executor. Where that
// can't be guaranteed, Book's own locking keeps state consistent, but
// callers must still avoid interleaving Align cycles.
type Manager struct {
	cfg      Config
	devMode  bool
	bootstrp []PeerInfo

	book *Book

	host      Host
	disc      Discovery
	identify  IdentifyProtocol
	scheduler Scheduler
	streams   StreamEngine
	router    Router
	clock     Clock

	onRemove DependentRemover

	metrics *metrics

	genMu      sync.Mutex
	generation uint64
	stopped    bool

	alignMu    sync.Mutex
	alignTimer SchedulerHandle

	unsubDiscovery func()
	unsubIdentify  func()

	passive bool
}

// Option configures a Manager at construction time.
type Option func(*Manager)

// WithDependentRemover registers a hook invoked whenever Remove
// propagates an eviction to dependent subsystems.
func WithDependentRemover(f DependentRemover) Option {
	return func(m *Manager) { m.onRemove = f }
}

// WithMetrics turns on metric collection for the manager.
func WithMetrics() Option {
	return func(m *Manager) {
		metrics, err := initMetrics(m)
		if err != nil {
			log.Errorw("init metrics", "err", err)
			return
		}
		m.metrics = metrics
	}
}

// NewManager constructs a Manager. cfg must already be valid (see
// Config.Validate); Prepare performs the remaining, bootstrap-list
// validation that depends on devMode.
func NewManager(
	cfg Config,
	devMode bool,
	bootstrap []PeerInfo,
	host Host,
	disc Discovery,
	identify IdentifyProtocol,
	scheduler Scheduler,
	streams StreamEngine,
	router Router,
	clock Clock,
	opts ...Option,
) *Manager {
	m := &Manager{
		cfg:       cfg,
		devMode:   devMode,
		bootstrp:  bootstrap,
		book:      NewBook(host.Self()),
		host:      host,
		disc:      disc,
		identify:  identify,
		scheduler: scheduler,
		streams:   streams,
		router:    router,
		clock:     clock,
		onRemove:  func(PeerID) {},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Prepare validates configuration before startup. In non-dev mode the
// bootstrap list must be non-empty; a missing bootstrap list is a fatal
// configuration error reported at critical severity.
func (m *Manager) Prepare() error {
	if err := m.cfg.Validate(); err != nil {
		log.Errorw("invalid peering configuration", "err", err)
		return err
	}
	if !m.devMode && len(m.bootstrp) == 0 {
		log.Error("no bootstrap nodes configured outside dev mode; refusing to start")
		return fmt.Errorf("peermgr: bootstrap_nodes must be non-empty outside dev_mode")
	}
	m.passive = m.devMode && len(m.bootstrp) == 0
	return nil
}

// Start subscribes to discovery and identify events, starts the DHT and
// Identify sub-protocols, seeds the bootstrap list, and runs the first
// alignment. In dev mode with no bootstrap nodes it enters a passive
// state instead: no subscriptions, no alignment, no dialing.
func (m *Manager) Start(ctx context.Context) error {
	if m.passive {
		log.Info("starting in passive mode: no bootstrap nodes configured in dev mode")
		return nil
	}

	gen := m.currentGeneration()

	m.unsubDiscovery = m.disc.Subscribe(func(ev DiscoveredPeer) {
		m.withGeneration(gen, func() { m.onPeerDiscovered(ev.ID) })
	})
	m.unsubIdentify = m.identify.OnIdentifyReceived(func(ev IdentifyEvent) {
		m.withGeneration(gen, func() { m.onIdentified(ev.ID) })
	})

	if err := m.identify.Start(ctx); err != nil {
		return fmt.Errorf("peermgr: starting identify: %w", err)
	}
	if err := m.disc.Start(ctx); err != nil {
		return fmt.Errorf("peermgr: starting discovery: %w", err)
	}

	self := m.host.Self()
	m.disc.AddPeer(PeerInfo{ID: self}, true)

	for _, info := range m.bootstrp {
		if info.ID == self {
			continue
		}
		m.disc.AddPeer(info, true)
		m.ConnectToPeer(ctx, info)
	}

	m.align(ctx)
	return nil
}

// Stop unsubscribes from every event stream and cancels the alignment
// timer. It bumps the generation counter so that any dial or
// stream-open callback still in flight, once it does fire, observes the
// stopped state and performs no state mutation.
func (m *Manager) Stop() {
	m.genMu.Lock()
	m.stopped = true
	m.generation++
	m.genMu.Unlock()

	if m.unsubDiscovery != nil {
		m.unsubDiscovery()
	}
	if m.unsubIdentify != nil {
		m.unsubIdentify()
	}

	m.alignMu.Lock()
	if m.alignTimer != nil {
		m.alignTimer.Cancel()
		m.alignTimer = nil
	}
	m.alignMu.Unlock()
}

func (m *Manager) now() time.Time {
	return m.clock.Now()
}

// currentGeneration snapshots the generation a newly-issued callback
// should be bound to.
func (m *Manager) currentGeneration() uint64 {
	m.genMu.Lock()
	defer m.genMu.Unlock()
	return m.generation
}

// withGeneration runs f only if gen still matches the manager's current
// generation, i.e. Stop has not been called since the callback was
// issued. Go has no weak_ptr, so a generation counter captured by value
// plays the same role: callbacks issued before a Stop observe it and
// perform no state mutation.
func (m *Manager) withGeneration(gen uint64, f func()) {
	m.genMu.Lock()
	stale := m.stopped || gen != m.generation
	m.genMu.Unlock()
	if stale {
		return
	}
	f()
}
