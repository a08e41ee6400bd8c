package peermgr

import (
	"context"

	"go.uber.org/fx"
)

// Module wires the Peer Manager into an fx.App: constructing the
// Manager from its capability dependencies and driving Prepare/Start/
// Stop from the app lifecycle.
func Module(cfg Config, devMode bool, bootstrap []PeerInfo, opts ...Option) fx.Option {
	return fx.Module("peermgr",
		fx.Supply(cfg, bootstrap),
		fx.Provide(func(host Host, disc Discovery, identify IdentifyProtocol,
			scheduler Scheduler, streams StreamEngine, router Router, clock Clock) *Manager {
			return NewManager(cfg, devMode, bootstrap, host, disc, identify, scheduler, streams, router, clock, opts...)
		}),
		fx.Invoke(func(lc fx.Lifecycle, m *Manager) error {
			if err := m.Prepare(); err != nil {
				return err
			}
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					return m.Start(ctx)
				},
				OnStop: func(context.Context) error {
					m.Stop()
					return nil
				},
			})
			return nil
		}),
	)
}
