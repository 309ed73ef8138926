package cmd

import (
	"github.com/karan9123/Networks/core"
	"github.com/spf13/cobra"
)

func newPingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ping <host>",
		Short: "Send ICMP echo requests to a host, one at a time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := newConfig(cmd.Flags())
			if err != nil {
				return err
			}

			settings, err := pingSettings(v)
			if err != nil {
				return err
			}

			r, err := newPingRunner(args[0], settings, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			r.Start()
			return r.Wait()
		},
	}

	defaults := core.DefaultSettings()
	flags := cmd.Flags()
	flags.IntP("count", "c", defaults.Count, "number of echo requests to send")
	flags.Float64P("wait", "i", defaults.Interval, "seconds to wait between requests")
	flags.IntP("packetsize", "s", defaults.PacketSize, "number of data bytes in each request")
	flags.Float64P("timeout", "t", defaults.Timeout, "seconds to wait for each reply")
	flags.Int("ttl", defaults.TTL, "IP time to live of the requests")
	flags.Int("id", defaults.Identifier, "ICMP identifier of the requests")

	return cmd
}
