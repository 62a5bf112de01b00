package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCompactCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compact",
		Short: "Rewrite the selected document's stores with no free holes",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := openDoc()
			if err != nil {
				return err
			}
			if err := doc.Compact(); err != nil {
				return err
			}
			newOut(cmd.OutOrStdout()).Success(fmt.Sprintf("compacted %q (%d entries)", doc.Name(), doc.Len()))
			return nil
		},
	}
	return cmd
}
