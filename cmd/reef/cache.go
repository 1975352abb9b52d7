package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCacheCmd(app *cliApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the lowered-module cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "dir",
		Short: "Print the cache directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cache, err := openCache(app.cfg.Driver.CacheDir)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cache.Dir())
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clean",
		Short: "Remove every cached module",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cache, err := openCache(app.cfg.Driver.CacheDir)
			if err != nil {
				return err
			}
			if err := cache.DropAll(); err != nil {
				return fmt.Errorf("failed to clear %q: %w", cache.Dir(), err)
			}
			if !app.quiet(cmd) {
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", cache.Dir())
			}
			return nil
		},
	})
	return cmd
}
