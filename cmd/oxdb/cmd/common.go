package cmd

import (
	"io"
	"os"
	"path/filepath"

	"github.com/ox-ai/oxdb-lite/internal/clioutput"
	"github.com/ox-ai/oxdb-lite/internal/config"
	"github.com/ox-ai/oxdb-lite/internal/database"
	"github.com/ox-ai/oxdb-lite/internal/document"
	"github.com/ox-ai/oxdb-lite/internal/embedding"
)

// loadConfig resolves the effective config for this invocation: the
// --config flag if given, else config.DefaultPath().
func loadConfig() (config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	return config.Load(path)
}

// resolveRoot picks the database root directory: --root flag, else
// OXDB_ROOT, else the config's product directory under the user's home.
func resolveRoot(cfg config.Config) string {
	if rootDir != "" {
		return rootDir
	}
	if v := os.Getenv("OXDB_ROOT"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, cfg.Root.ProductDirName)
}

// buildEmbedder constructs the embedding.Provider named by cfg, wrapping
// it in a CachedProvider when a cache size is configured.
func buildEmbedder(cfg config.Config) embedding.Provider {
	var base embedding.Provider
	switch cfg.Embedding.Provider {
	case "ollama":
		host := os.Getenv("OXDB_OLLAMA_HOST")
		base = embedding.NewOllamaProvider(host, cfg.Embedding.ModelName, cfg.Embedding.Dimensions)
	default:
		// "static" and "none" both resolve to the dependency-free
		// provider: a Document always needs a concrete embedder to name
		// its vec_model entry, and callers who want no vectors at all
		// use document.EmbedDisabled on the individual push instead.
		base = embedding.NewStaticProvider()
	}
	if cfg.Embedding.CacheSize > 0 {
		return embedding.NewCachedProvider(base, cfg.Embedding.CacheSize)
	}
	return base
}

// openDatabase opens the Database at the resolved root using cfg's
// embedder selection.
func openDatabase(cfg config.Config) (*database.Database, error) {
	return database.Open(resolveRoot(cfg), buildEmbedder(cfg))
}

// selectDoc opens db's selected database (--db, if set) and document
// (--doc, if set), the shared entry point every data-touching subcommand
// starts from.
func selectDoc(db *database.Database) (*document.Document, error) {
	if dbName != "" {
		if _, err := db.GetDB(dbName, ""); err != nil {
			return nil, err
		}
	}
	return db.GetDoc(docName)
}

// openDoc is the one-call convenience path used by push/pull/search/
// delete: load config, open the database, select the document.
func openDoc() (*document.Document, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}
	return selectDoc(db)
}

// newOut builds a clioutput.Writer over w, honoring --json.
func newOut(w io.Writer) *clioutput.Writer {
	return clioutput.New(w, jsonOutput)
}
