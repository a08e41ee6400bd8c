package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/rotkonetworks/peerset/p2p"
	"github.com/rotkonetworks/peerset/peermgr"
)

var startCmd = &cobra.Command{
	Use:          "start",
	Short:        "Starts the peering daemon. First stopping signal gracefully stops it, second terminates it.",
	Aliases:      []string{"run", "daemon"},
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         startRun,
}

func init() {
	startCmd.Flags().AddFlagSet(NodeFlags())
}

func startRun(cmd *cobra.Command, _ []string) error {
	if err := parseLogLevel(cmd); err != nil {
		return err
	}
	net, err := parseNetwork(cmd)
	if err != nil {
		return err
	}
	devMode, err := cmd.Flags().GetBool(devModeFlag)
	if err != nil {
		return err
	}
	listenAddrs, err := cmd.Flags().GetStringSlice(listenFlag)
	if err != nil {
		return err
	}

	p2pCfg := p2p.DefaultConfig()
	if len(listenAddrs) > 0 {
		p2pCfg.ListenAddresses = listenAddrs
	}

	bootstrap, err := p2p.BootstrapPeers()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app := fx.New(
		fx.NopLogger,
		p2p.Module(p2pCfg),
		peermgr.Module(peermgr.DefaultConfig(), devMode, bootstrap),
	)

	fmt.Fprintf(os.Stderr, "starting peerset on %s (dev-mode=%v)\n", net, devMode)

	if err := app.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), app.StopTimeout())
	defer stopCancel()
	return app.Stop(stopCtx)
}
