package main

import (
	"fmt"

	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"

	logging "github.com/ipfs/go-log/v2"

	"github.com/rotkonetworks/peerset/params"
)

const (
	networkFlag  = "network"
	devModeFlag  = "dev-mode"
	logLevelFlag = "log.level"
	listenFlag   = "listen"
)

// NodeFlags gives the flag set shared by every subcommand that starts
// the peering subsystem.
func NodeFlags() *flag.FlagSet {
	flags := &flag.FlagSet{}

	flags.String(networkFlag, string(params.DefaultNetwork()),
		"The network name to check and report at startup; bootstrap peers always come from the build's default network")
	flags.Bool(devModeFlag, false,
		"Allow starting with an empty bootstrap list; with none, the node does no discovery or dialing and only accepts incoming connections")
	flags.String(logLevelFlag, "INFO",
		"DEBUG, INFO, WARN, ERROR, DPANIC, PANIC, FATAL and their lower-case forms")
	flags.StringSlice(listenFlag, nil,
		"Multiaddresses to listen on; overrides the default listen set")

	return flags
}

func parseNetwork(cmd *cobra.Command) (params.Network, error) {
	raw, err := cmd.Flags().GetString(networkFlag)
	if err != nil {
		return "", err
	}
	net := params.Network(raw)
	if err := net.Validate(); err != nil {
		return "", fmt.Errorf("cmd: %w", err)
	}
	return net, nil
}

func parseLogLevel(cmd *cobra.Command) error {
	level, err := cmd.Flags().GetString(logLevelFlag)
	if err != nil {
		return err
	}
	return logging.SetLogLevel("*", level)
}
