// Package cmd provides the CLI commands for oxdb.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ox-ai/oxdb-lite/internal/config"
	"github.com/ox-ai/oxdb-lite/internal/logging"
	"github.com/ox-ai/oxdb-lite/pkg/version"
)

var (
	rootDir    string
	dbName     string
	docName    string
	configPath string
	jsonOutput bool
	debugMode  bool

	loggingCleanup func()
)

// NewRootCmd creates the root command for the oxdb CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "oxdb",
		Short:   "Embedded document-oriented vector store",
		Version: version.Version,
		Long: `oxdb stores text (and its embedding) in small append-mostly
key-value files on disk, organized as databases of documents.

Run 'oxdb shell' for an interactive session, or use the push/pull/
search/delete subcommands directly against a selected database and
document.`,
	}
	cmd.SetVersionTemplate("oxdb version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&rootDir, "root", "", "database root directory (defaults to ~/.oxdb or $OXDB_ROOT)")
	cmd.PersistentFlags().StringVar(&dbName, "db", "", "database name to select (default database)")
	cmd.PersistentFlags().StringVar(&docName, "doc", "", "document name to select (default document)")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (defaults to "+config.DefaultPath()+")")
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit machine-readable JSON output")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging to ~/.oxdb/logs/")

	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newPushCmd())
	cmd.AddCommand(newPullCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newDeleteCmd())
	cmd.AddCommand(newShellCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newCompactCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func startLogging(_ *cobra.Command, _ []string) error {
	if !debugMode {
		return nil
	}
	logger, cleanup, err := logging.Setup(logging.DebugConfig())
	if err != nil {
		return fmt.Errorf("setting up debug logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Info("debug logging enabled", slog.String("log_file", logging.DefaultLogPath()))
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
