package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ox-ai/oxdb-lite/pkg/version"
)

func newVersionCmd() *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if jsonOutput {
				return newOut(cmd.OutOrStdout()).Encode(version.GetInfo())
			}
			if full {
				fmt.Fprintln(cmd.OutOrStdout(), version.String())
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), version.Info())
			return nil
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "include commit, build date, and Go version")
	return cmd
}
