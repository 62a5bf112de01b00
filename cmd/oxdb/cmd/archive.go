package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ox-ai/oxdb-lite/internal/archive"
)

func newExportCmd() *cobra.Command {
	var dest string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Archive the selected document directory to a zip file",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := openDoc()
			if err != nil {
				return err
			}

			target := dest
			if target == "" {
				target = doc.Name() + ".zip"
			}
			if err := archive.Export(doc.Dir(), target); err != nil {
				return err
			}
			newOut(cmd.OutOrStdout()).Success(fmt.Sprintf("exported %q to %s", doc.Name(), target))
			return nil
		},
	}

	cmd.Flags().StringVarP(&dest, "out", "o", "", "destination zip path (defaults to <doc>.zip)")
	return cmd
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <archive.zip>",
		Short: "Restore a document directory from a zip archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			if dbName != "" {
				if _, err := db.GetDB(dbName, ""); err != nil {
					return err
				}
			}
			doc, err := db.GetDoc(docName)
			if err != nil {
				return err
			}

			dir, err := archive.Import(args[0], filepath.Dir(doc.Dir()))
			if err != nil {
				return err
			}
			newOut(cmd.OutOrStdout()).Success(fmt.Sprintf("imported %s into %s", args[0], dir))
			return nil
		},
	}
	return cmd
}
