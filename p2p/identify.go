package p2p

import (
	"context"
	"fmt"
	"sync"

	"github.com/libp2p/go-libp2p/core/event"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/p2p/host/eventbus"
	"github.com/libp2p/go-libp2p/p2p/protocol/identify"
	"go.uber.org/fx"

	"github.com/rotkonetworks/peerset/peermgr"
)

// IdentifyService constructs the identify sub-protocol handler.
func IdentifyService(lc fx.Lifecycle, h host.Host) (identify.IDService, error) {
	ids, err := identify.NewIDService(h)
	if err != nil {
		return nil, fmt.Errorf("p2p: constructing identify service: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			ids.Close()
			return nil
		},
	})
	return ids, nil
}

// eventbusBufSize mirrors share/p2p/discovery's buffered-subscription
// sizing: a larger buffer avoids overflowing and blocking delivery
// during disconnection/identification bursts.
const eventbusBufSize = 64

// identifyAdapter implements peermgr.IdentifyProtocol over libp2p's
// identify sub-protocol, surfacing EvtPeerIdentificationCompleted as
// identify-received events.
type identifyAdapter struct {
	h   host.Host
	ids identify.IDService

	mu       sync.Mutex
	handlers map[int]func(peermgr.IdentifyEvent)
	nextID   int

	cancel context.CancelFunc
}

// NewIdentifyAdapter wraps an identify service as the IdentifyProtocol
// capability.
func NewIdentifyAdapter(h host.Host, ids identify.IDService) peermgr.IdentifyProtocol {
	return &identifyAdapter{h: h, ids: ids, handlers: make(map[int]func(peermgr.IdentifyEvent))}
}

func (a *identifyAdapter) Start(ctx context.Context) error {
	sub, err := a.h.EventBus().Subscribe(&event.EvtPeerIdentificationCompleted{}, eventbus.BufSize(eventbusBufSize))
	if err != nil {
		return err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	go a.loop(loopCtx, sub)
	return nil
}

func (a *identifyAdapter) loop(ctx context.Context, sub event.Subscription) {
	defer sub.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub.Out():
			if !ok {
				log.Error("identify event subscription closed unexpectedly")
				return
			}
			evt := e.(event.EvtPeerIdentificationCompleted)
			a.notify(evt.Peer)
		}
	}
}

func (a *identifyAdapter) OnIdentifyReceived(handler func(peermgr.IdentifyEvent)) func() {
	a.mu.Lock()
	id := a.nextID
	a.nextID++
	a.handlers[id] = handler
	a.mu.Unlock()

	return func() {
		a.mu.Lock()
		delete(a.handlers, id)
		a.mu.Unlock()
	}
}

func (a *identifyAdapter) notify(id peer.ID) {
	a.mu.Lock()
	handlers := make([]func(peermgr.IdentifyEvent), 0, len(a.handlers))
	for _, h := range a.handlers {
		handlers = append(handlers, h)
	}
	a.mu.Unlock()

	ev := peermgr.IdentifyEvent{ID: id}
	for _, h := range handlers {
		h(ev)
	}
}
