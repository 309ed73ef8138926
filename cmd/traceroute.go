package cmd

import (
	"github.com/karan9123/Networks/core"
	"github.com/spf13/cobra"
)

func newTracerouteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "traceroute <host>",
		Short: "Print the route packets take to a host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := newConfig(cmd.Flags())
			if err != nil {
				return err
			}

			settings, err := traceSettings(v)
			if err != nil {
				return err
			}

			r, err := newTraceRunner(args[0], settings, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			r.Start()
			return r.Wait()
		},
	}

	defaults := core.DefaultTraceSettings()
	flags := cmd.Flags()
	flags.BoolP("numeric", "n", defaults.Numeric, "print hop addresses without looking up their names")
	flags.IntP("nqueries", "q", defaults.ProbesPerHop, "number of probes sent to each hop")
	flags.BoolP("summary", "S", defaults.Summary, "print the number of unanswered probes of each hop")
	flags.IntP("max-hops", "m", defaults.MaxHops, "largest time to live probed")
	flags.Float64P("wait", "w", defaults.Timeout, "seconds to wait for the answer of each probe")
	flags.IntP("port", "p", defaults.Port, "UDP destination port of the probes")

	return cmd
}
