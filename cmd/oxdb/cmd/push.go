package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ox-ai/oxdb-lite/internal/document"
)

type pushOptions struct {
	uid      string
	metadata map[string]string
	logTime  bool
	noEmbed  bool
}

func newPushCmd() *cobra.Command {
	var opts pushOptions

	cmd := &cobra.Command{
		Use:   "push <text>...",
		Short: "Push one or more text entries into the selected document",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := openDoc()
			if err != nil {
				return err
			}

			req := document.PushRequest{Data: args, LogTime: opts.logTime}
			if opts.uid != "" {
				req.UID = []string{opts.uid}
			}
			if len(opts.metadata) > 0 {
				req.Metadata = []map[string]string{opts.metadata}
			}
			if opts.noEmbed {
				req.Mode = document.EmbedDisabled
			}

			ids, err := doc.Push(cmd.Context(), req)
			if err != nil {
				return err
			}
			if err := doc.Commit(); err != nil {
				return err
			}
			return newOut(cmd.OutOrStdout()).PushResult(ids)
		},
	}

	cmd.Flags().StringVar(&opts.uid, "uid", "", "user id to attach to every pushed entry")
	cmd.Flags().StringToStringVar(&opts.metadata, "meta", nil, "metadata key=value pairs (repeatable)")
	cmd.Flags().BoolVar(&opts.logTime, "log-time", false, "record a time/date stamp with each entry")
	cmd.Flags().BoolVar(&opts.noEmbed, "no-embed", false, "skip embedding generation, storing empty vectors")

	return cmd
}
