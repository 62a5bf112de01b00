package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ox-ai/oxdb-lite/internal/ouxerr"
)

func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete <id>...",
		Aliases: []string{"del"},
		Short:   "Delete entries from the selected document by id",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := openDoc()
			if err != nil {
				return err
			}

			ids := make([]int64, 0, len(args))
			for _, a := range args {
				id, err := strconv.ParseInt(a, 10, 64)
				if err != nil {
					return ouxerr.BadArgumentf("invalid id %q: %v", a, err)
				}
				ids = append(ids, id)
			}

			if err := doc.Delete(ids); err != nil {
				return err
			}
			newOut(cmd.OutOrStdout()).Success(fmt.Sprintf("deleted %d entries", len(ids)))
			return nil
		},
	}
	return cmd
}
