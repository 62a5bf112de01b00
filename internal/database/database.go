// Package database implements oxdb's top-level directory manager:
// open/create/delete of named databases under a root directory, and
// each database's Document children.
package database

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ox-ai/oxdb-lite/internal/document"
	"github.com/ox-ai/oxdb-lite/internal/embedding"
	"github.com/ox-ai/oxdb-lite/internal/ouxerr"
)

// DBExt is the conventional directory suffix a Database root appends to
// a bare name passed to GetDB.
const DBExt = ".oxdb"

// DefaultDocName names the Document opened when GetDoc is called with
// no name.
const DefaultDocName = "default"

// Database owns a root directory holding zero or more named database
// subdirectories, each in turn holding zero or more Document children.
type Database struct {
	root     string
	embedder embedding.Provider

	dbPath string // currently selected database directory
	dbName string
}

// Open roots a Database at dir, creating it if absent.
func Open(dir string, embedder embedding.Provider) (*Database, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, ouxerr.IoErr("creating database root", err)
	}
	return &Database{root: dir, embedder: embedder}, nil
}

// GetDB selects (creating if absent) the database directory identified
// by exactly one of name or path. A bare name gets DBExt appended; an
// explicit path is used as-is.
func (db *Database) GetDB(name, path string) (string, error) {
	hasName := name != ""
	hasPath := path != ""
	if hasName == hasPath {
		return "", ouxerr.BadArgumentf("get-db requires exactly one of name or path")
	}

	var dir, resolvedName string
	if hasPath {
		dir = path
		resolvedName = filepath.Base(path)
	} else {
		resolvedName = name
		dir = filepath.Join(db.root, name+DBExt)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", ouxerr.IoErr("creating database directory", err)
	}
	db.dbPath = dir
	db.dbName = resolvedName
	return dir, nil
}

// currentDB returns the selected database directory, defaulting to and
// creating DefaultDocName's sibling database root itself if GetDB was
// never called.
func (db *Database) currentDB() (string, error) {
	if db.dbPath != "" {
		return db.dbPath, nil
	}
	return db.GetDB("default", "")
}

// GetDoc opens (creating if absent) the named Document under the
// currently selected database. An empty name falls back to
// DefaultDocName, so every no-name call opens the same Document; see
// GetDocTimestamped for a timestamped name.
func (db *Database) GetDoc(name string) (*document.Document, error) {
	dbPath, err := db.currentDB()
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = DefaultDocName
	}
	return document.Open(dbPath, name, db.embedder)
}

// GetDocs lists the immediate document subdirectories of the currently
// selected database.
func (db *Database) GetDocs() ([]string, error) {
	dbPath, err := db.currentDB()
	if err != nil {
		return nil, err
	}
	return listSubdirs(dbPath)
}

// GetDBs lists the immediate database subdirectories of the root.
func (db *Database) GetDBs() ([]string, error) {
	return listSubdirs(db.root)
}

func listSubdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, ouxerr.IoErr("listing directory", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// DelDoc removes a document directory and everything under it.
func (db *Database) DelDoc(name string) error {
	dbPath, err := db.currentDB()
	if err != nil {
		return err
	}
	if err := os.RemoveAll(filepath.Join(dbPath, name)); err != nil {
		return ouxerr.IoErr("deleting document", err)
	}
	return nil
}

// DelDB removes a database directory and everything under it.
func (db *Database) DelDB(name string) error {
	target := name
	if !strings.HasSuffix(target, DBExt) {
		target += DBExt
	}
	if err := os.RemoveAll(filepath.Join(db.root, target)); err != nil {
		return ouxerr.IoErr("deleting database", err)
	}
	return nil
}

// CleanUp deletes every document whose data_store is empty across every
// database under the root, then deletes databases that became empty.
// Per-database and per-document scans run concurrently via errgroup,
// bounded by the directory listing itself.
func (db *Database) CleanUp(ctx context.Context) error {
	dbNames, err := db.GetDBs()
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range dbNames {
		name := name
		g.Go(func() error {
			return db.cleanOneDB(gctx, name)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return nil
}

func (db *Database) cleanOneDB(ctx context.Context, dbName string) error {
	dbDir := filepath.Join(db.root, dbName)
	docNames, err := listSubdirs(dbDir)
	if err != nil {
		return err
	}

	g, _ := errgroup.WithContext(ctx)
	for _, name := range docNames {
		name := name
		g.Go(func() error {
			doc, err := document.Open(dbDir, name, db.embedder)
			if err != nil {
				return err
			}
			if doc.Len() == 0 {
				if err := os.RemoveAll(doc.Dir()); err != nil {
					return ouxerr.IoErr("removing empty document", err)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	remaining, err := listSubdirs(dbDir)
	if err != nil {
		return err
	}
	if len(remaining) == 0 {
		if err := os.RemoveAll(dbDir); err != nil {
			return ouxerr.IoErr("removing empty database", err)
		}
	}
	return nil
}

// GetDocTimestamped opens a Document named with the current time, the
// timestamped-fallback alternative to GetDoc("")'s fixed DefaultDocName.
func (db *Database) GetDocTimestamped() (*document.Document, error) {
	return db.GetDoc("doc-" + time.Now().Format("20060102-150405"))
}
