package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ox-ai/oxdb-lite/internal/document"
)

type pullOptions struct {
	ids     []int64
	uid     string
	time    string
	date    string
	docfile string
	where   map[string]string
	all     bool
}

func newPullCmd() *cobra.Command {
	var opts pullOptions

	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Pull entries from the selected document by id or filter",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := openDoc()
			if err != nil {
				return err
			}

			req := document.PullRequest{
				IDs:             opts.ids,
				Time:            opts.time,
				Date:            opts.date,
				DocFile:         document.DocFile(opts.docfile),
				Where:           opts.where,
				SearchAllFilter: opts.all,
			}
			if opts.uid != "" {
				req.UID = []string{opts.uid}
			}

			entries, err := doc.Pull(req)
			if err != nil {
				return err
			}
			return newOut(cmd.OutOrStdout()).PullResult(entries)
		},
	}

	cmd.Flags().Int64SliceVar(&opts.ids, "ids", nil, "pull exactly these ids")
	cmd.Flags().StringVar(&opts.uid, "uid", "", "filter by user id")
	cmd.Flags().StringVar(&opts.time, "time", "", "filter by time substring")
	cmd.Flags().StringVar(&opts.date, "date", "", "filter by date substring")
	cmd.Flags().StringVar(&opts.docfile, "docfile", "", "store to read from: index, data, or vec (default data)")
	cmd.Flags().StringToStringVar(&opts.where, "where", nil, "metadata key=value filters (repeatable)")
	cmd.Flags().BoolVar(&opts.all, "all", false, "require every filter to match, instead of any")

	return cmd
}
