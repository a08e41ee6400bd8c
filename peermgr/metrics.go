package peermgr

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("peermgr")

// metrics surfaces eviction and dial counters, the active-peer gauge,
// and counters for the Peer Manager's ambiguous paths: soft-limit advisory inaction, unsolicited-status
// admission, and empty-address dial abandonment.
type metrics struct {
	evictions          metric.Int64Counter // attributes: reason
	dials              metric.Int64Counter // attributes: result
	softLimitSkipped   metric.Int64Counter
	unsolicitedStatus  metric.Int64Counter
	emptyAddrAbandoned metric.Int64Counter
	activePeers        metric.Int64ObservableGauge
}

const reasonKey = "reason"

const (
	reasonHardLimit = "hard_limit"
	reasonSoftTTL   = "soft_limit_ttl"
	reasonDeadPeer  = "dead_peer"
)

const resultKey = "result"

const (
	resultSuccess = "success"
	resultFailure = "failure"
)

func initMetrics(m *Manager) (*metrics, error) {
	evictions, err := meter.Int64Counter("peermgr_evictions_total",
		metric.WithDescription("active peers evicted, by reason"))
	if err != nil {
		return nil, err
	}

	dials, err := meter.Int64Counter("peermgr_dials_total",
		metric.WithDescription("outbound dial attempts, by result"))
	if err != nil {
		return nil, err
	}

	softLimitSkipped, err := meter.Int64Counter("peermgr_soft_limit_skipped_total",
		metric.WithDescription("alignment cycles that stayed above soft_limit because the oldest peer was still fresh"))
	if err != nil {
		return nil, err
	}

	unsolicitedStatus, err := meter.Int64Counter("peermgr_unsolicited_status_total",
		metric.WithDescription("status updates that admitted a peer into active ahead of identify"))
	if err != nil {
		return nil, err
	}

	emptyAddrAbandoned, err := meter.Int64Counter("peermgr_empty_address_abandoned_total",
		metric.WithDescription("dial attempts abandoned because no addresses were known for the peer"))
	if err != nil {
		return nil, err
	}

	activePeers, err := meter.Int64ObservableGauge("peermgr_active_peers",
		metric.WithDescription("current size of the active peer set"))
	if err != nil {
		return nil, err
	}

	_, err = meter.RegisterCallback(func(_ context.Context, obs metric.Observer) error {
		obs.ObserveInt64(activePeers, int64(m.book.ActiveCount()))
		return nil
	}, activePeers)
	if err != nil {
		return nil, err
	}

	return &metrics{
		evictions:          evictions,
		dials:              dials,
		softLimitSkipped:   softLimitSkipped,
		unsolicitedStatus:  unsolicitedStatus,
		emptyAddrAbandoned: emptyAddrAbandoned,
		activePeers:        activePeers,
	}, nil
}

func (m *metrics) observeEviction(reason string) {
	if m == nil {
		return
	}
	m.evictions.Add(context.Background(), 1, metric.WithAttributes(attribute.String(reasonKey, reason)))
}

func (m *metrics) observeDial(ok bool) {
	if m == nil {
		return
	}
	result := resultSuccess
	if !ok {
		result = resultFailure
	}
	m.dials.Add(context.Background(), 1, metric.WithAttributes(attribute.String(resultKey, result)))
}

func (m *metrics) observeSoftLimitSkipped() {
	if m == nil {
		return
	}
	m.softLimitSkipped.Add(context.Background(), 1)
}

func (m *metrics) observeUnsolicitedStatus() {
	if m == nil {
		return
	}
	m.unsolicitedStatus.Add(context.Background(), 1)
}

func (m *metrics) observeEmptyAddrAbandoned() {
	if m == nil {
		return
	}
	m.emptyAddrAbandoned.Add(context.Background(), 1)
}
