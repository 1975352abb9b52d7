package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reef/internal/version"
)

func newVersionCmd() *cobra.Command {
	var (
		format   string
		showHash bool
		showDate bool
		showFull bool
	)
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show reef build fingerprints",
		Args:  cobra.NoArgs,
		// runs without loading reef.toml
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := version.Options{
				ShowHash: showHash || showFull,
				ShowDate: showDate || showFull,
			}
			info := version.Collect()
			switch strings.ToLower(format) {
			case "json":
				return version.RenderJSON(cmd.OutOrStdout(), info, opts)
			case "pretty":
				version.RenderPretty(cmd.OutOrStdout(), info, opts)
				return nil
			default:
				return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
			}
		},
	}
	cmd.Flags().BoolVar(&showHash, "hash", false, "include git commit hash")
	cmd.Flags().BoolVar(&showDate, "date", false, "include build timestamp")
	cmd.Flags().BoolVar(&showFull, "full", false, "show every recorded bit of build metadata")
	cmd.Flags().StringVar(&format, "format", "pretty", "output format (pretty|json)")
	return cmd
}
