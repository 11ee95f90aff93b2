package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comicsync",
		Short: "Background content synchronization for the comic companion service.",
		Long: `comicsync keeps the companion service's copy of the comic site current.
It polls the front page for new comics, re-scrapes news blurbs on an
adaptive schedule, and exposes a small operational HTTP surface.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional, env and defaults apply without one)")
	cmd.AddCommand(newServeCmd())
	return cmd
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
