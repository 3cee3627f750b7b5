package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Travis-Britz/cfddns"
	"github.com/Travis-Britz/cfddns/internal/config"
)

func newCmdVerify(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check the configured credentials against the Cloudflare API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := config.LoadSettings(a.opts.SettingsFile)
			if err != nil {
				return err
			}
			cf, err := cfddns.NewCloudflare(s.Credentials(), a.cloudflareOptions()...)
			if err != nil {
				return err
			}
			cf.SetLogger(a.logger)
			cf.SetRequestTimeout(a.opts.Timeout)

			a.logger.Info("verifying credentials...")
			who, err := cf.Verify(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "credentials valid: %s\n", who)
			return nil
		},
	}
}
