package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Travis-Britz/cfddns"
)

func newCmdOnce(a *app) *cobra.Command {
	var ip string
	cmd := &cobra.Command{
		Use:   "once",
		Short: "Run a single update cycle and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cache, closer, err := a.openCache(ctx)
			if err != nil {
				return err
			}
			defer closer.Close()

			var resolver cfddns.Resolver
			if ip != "" {
				if resolver, err = cfddns.FromString(ip); err != nil {
					return err
				}
			}
			c, err := a.newClient(cache, resolver)
			if err != nil {
				return err
			}

			report, err := c.RunCycle(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !report.Changed {
				fmt.Fprintf(out, "%s unchanged\n", report.IP)
				return nil
			}
			fmt.Fprintf(out, "%s published to %d record(s) in zone %s\n", report.IP, len(report.Results), report.ZoneID)
			return nil
		},
	}
	cmd.Flags().StringVar(&ip, "ip", "", "Publish this address instead of resolving the public IP")
	return cmd
}
