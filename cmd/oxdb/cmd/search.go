package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/ox-ai/oxdb-lite/internal/document"
	"github.com/ox-ai/oxdb-lite/internal/vectorops"
)

type searchOptions struct {
	topN int
	by   string
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Rank the selected document's entries by similarity to a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := openDoc()
			if err != nil {
				return err
			}

			by := vectorops.By(opts.by)
			if !by.Valid() {
				by = vectorops.ByDotProduct
			}

			res, err := doc.Search(cmd.Context(), document.SearchRequest{
				Query: strings.Join(args, " "),
				TopN:  opts.topN,
				By:    by,
			})
			if err != nil {
				return err
			}
			return newOut(cmd.OutOrStdout()).SearchResult(res)
		},
	}

	cmd.Flags().IntVarP(&opts.topN, "topn", "n", 10, "maximum number of results")
	cmd.Flags().StringVar(&opts.by, "by", "dp", "similarity metric: dp (dot product), cs (cosine), or ed (euclidean)")

	return cmd
}
