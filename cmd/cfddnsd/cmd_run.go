package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Travis-Britz/cfddns"
	"github.com/Travis-Britz/cfddns/internal/config"
)

func newCmdRun(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Check the public IP on an interval and update the zone's A records when it changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cache, closer, err := a.openCache(ctx)
			if err != nil {
				return err
			}
			defer closer.Close()

			if a.opts.StartupCacheReset {
				a.logger.Info("resetting cached IP before the first cycle")
				if err := cache.Delete(ctx); err != nil {
					a.logger.WithError(err).WithField("op", "resetting cache").Error("cache reset failed")
				}
			}

			cycler := &lazyCycler{a: a, cache: cache}
			if a.policy == config.Fatal {
				c, err := a.newClient(cache, nil)
				if err != nil {
					return err
				}
				cycler.client = c
			}

			cfddns.RunDaemon(ctx, cycler, a.opts.Interval, a.logger)
			return nil
		},
	}
}
