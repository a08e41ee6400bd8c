package peermgr

import "context"

// align runs one alignment pass:
//
//  1. liveness sweep — drop active peers whose block-announce stream
//     has died.
//  2. over-capacity handling — evict under hard/soft limit pressure.
//  3. under-capacity handling — dial from the queue, or fall back to
//     bootstrap peers when both the queue and in-flight dials are
//     empty.
//  4. rearm — schedule the next alignment, cancelling any pending one
//     first.
func (m *Manager) align(ctx context.Context) {
	m.livenessSweep(ctx)
	m.handleOverCapacity()
	m.handleUnderCapacity(ctx)
	m.rearm(ctx)
}

func (m *Manager) livenessSweep(ctx context.Context) {
	proto := m.router.BlockAnnounceProtocol()
	m.book.ForEachActive(func(id PeerID, _ ActivePeerData) {
		if m.streams.IsAlive(id, proto.ID()) {
			return
		}
		log.Debugw("dropping peer with dead block-announce stream", "peer", id.String())
		m.disconnect(id, reasonDeadPeer)
	})
}

func (m *Manager) handleOverCapacity() {
	n := m.book.ActiveCount()
	switch {
	case n > m.cfg.HardLimit:
		id, _, ok := m.book.OldestActive()
		if ok {
			log.Infow("hard limit exceeded, evicting oldest peer", "peer", id.String(), "active", n)
			m.disconnect(id, reasonHardLimit)
		}
	case n > m.cfg.SoftLimit:
		id, lastSeen, ok := m.book.OldestActive()
		if !ok {
			return
		}
		if lastSeen.Add(m.cfg.PeerTTL).Before(m.now()) {
			log.Infow("soft limit exceeded and oldest peer is stale, evicting", "peer", id.String())
			m.disconnect(id, reasonSoftTTL)
			return
		}
		m.metrics.observeSoftLimitSkipped()
	}
}

func (m *Manager) handleUnderCapacity(ctx context.Context) {
	if m.book.ActiveCount() >= m.cfg.TargetPeerAmount {
		return
	}

	if id, ok := m.book.TakeNextCandidate(); ok {
		m.connect(ctx, id)
		return
	}

	if m.book.ConnectingCount() > 0 {
		// wait for in-flight attempts to resolve; don't pile on dials.
		return
	}

	self := m.host.Self()
	for _, info := range m.bootstrp {
		if info.ID == self {
			continue
		}
		m.ConnectToPeer(ctx, info)
	}
}

func (m *Manager) rearm(ctx context.Context) {
	m.alignMu.Lock()
	if m.alignTimer != nil {
		m.alignTimer.Cancel()
	}
	gen := m.currentGeneration()
	m.alignTimer = m.scheduler.Schedule(m.cfg.AligningPeriod, func() {
		m.withGeneration(gen, func() { m.align(ctx) })
	})
	m.alignMu.Unlock()
}

// disconnect removes id from the active set, tears down its stream
// engine state, and propagates the removal to dependents. It is the
// common tail of every eviction and session-failure path.
func (m *Manager) disconnect(id PeerID, reason string) {
	m.book.Remove(id)
	m.streams.Del(id)
	m.onRemove(id)
	m.metrics.observeEviction(reason)
}
