package cmd

import (
	"github.com/spf13/cobra"
)

// newRootCmd builds the command tree of the program.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "pingtrace",
		Short:        "pingtrace probes hosts with ICMP echo requests and traces routes to them",
		Long:         "pingtrace is a Go implementation of the ping and traceroute utilities built on raw sockets",
		SilenceUsage: true,
	}

	root.PersistentFlags().String(logLevelFlag, defaultLogLevel,
		"level of the diagnostic messages written to standard error (panic, fatal, error, warning, info, debug, trace)")

	root.AddCommand(newPingCmd(), newTracerouteCmd())

	return root
}

// Execute runs the command given in the program arguments.
func Execute() error {
	return newRootCmd().Execute()
}
