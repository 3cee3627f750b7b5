package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCmdResetCache(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-cache",
		Short: "Delete the cached IP so the next cycle updates the records unconditionally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cache, closer, err := a.openCache(ctx)
			if err != nil {
				return err
			}
			defer closer.Close()

			if err := cache.Delete(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cache reset")
			return nil
		},
	}
}
