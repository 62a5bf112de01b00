package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ox-ai/oxdb-lite/internal/shell"
)

func newShellCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Interactive session against the selected document",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := openDoc()
			if err != nil {
				return err
			}

			out := newOut(cmd.OutOrStdout())
			sh := shell.New(doc, out)
			out.Success(fmt.Sprintf("doc %q (%d entries); type a command, or exit to quit", doc.Name(), doc.Len()))

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(cmd.OutOrStdout(), "oxdb> ")
				if !scanner.Scan() {
					break
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if line == "exit" || line == "quit" {
					break
				}
				if err := sh.Run(cmd.Context(), line); err != nil {
					out.Error(err.Error())
				}
			}
			return scanner.Err()
		},
	}
	return cmd
}
