package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ox-ai/oxdb-lite/internal/document"
	"github.com/ox-ai/oxdb-lite/internal/embedding"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := Open(t.TempDir(), embedding.NewStaticProvider())
	require.NoError(t, err)
	return db
}

func TestGetDBRequiresExactlyOneOfNameOrPath(t *testing.T) {
	db := newTestDB(t)
	_, err := db.GetDB("", "")
	assert.Error(t, err)
	_, err = db.GetDB("a", "/tmp/b")
	assert.Error(t, err)
}

func TestGetDBCreatesDirectoryWithExtension(t *testing.T) {
	db := newTestDB(t)
	dir, err := db.GetDB("mydb", "")
	require.NoError(t, err)
	assert.True(t, filepath.Base(dir) == "mydb"+DBExt)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestGetDocOpensUnderSelectedDB(t *testing.T) {
	db := newTestDB(t)
	_, err := db.GetDB("mydb", "")
	require.NoError(t, err)

	doc, err := db.GetDoc("notes")
	require.NoError(t, err)
	assert.Equal(t, "notes", doc.Name())

	docs, err := db.GetDocs()
	require.NoError(t, err)
	assert.Equal(t, []string{"notes"}, docs)
}

func TestGetDocsAndGetDBsEnumerate(t *testing.T) {
	db := newTestDB(t)
	_, err := db.GetDB("alpha", "")
	require.NoError(t, err)
	_, err = db.GetDoc("one")
	require.NoError(t, err)
	_, err = db.GetDoc("two")
	require.NoError(t, err)

	dbs, err := db.GetDBs()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha" + DBExt}, dbs)

	docs, err := db.GetDocs()
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, docs)
}

func TestDelDocRemovesDirectory(t *testing.T) {
	db := newTestDB(t)
	_, err := db.GetDB("mydb", "")
	require.NoError(t, err)
	doc, err := db.GetDoc("gone")
	require.NoError(t, err)
	require.NoError(t, doc.Commit())

	require.NoError(t, db.DelDoc("gone"))
	docs, err := db.GetDocs()
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestCleanUpRemovesEmptyDocumentsAndDatabases(t *testing.T) {
	db := newTestDB(t)
	dbDir, err := db.GetDB("mydb", "")
	require.NoError(t, err)

	emptyDoc, err := document.Open(dbDir, "empty", embedding.NewStaticProvider())
	require.NoError(t, err)
	require.NoError(t, emptyDoc.Commit())

	nonEmptyDoc, err := document.Open(dbDir, "full", embedding.NewStaticProvider())
	require.NoError(t, err)
	_, err = nonEmptyDoc.Push(context.Background(), document.PushRequest{
		Data: []string{"hello"}, Mode: document.EmbedDisabled,
	})
	require.NoError(t, err)
	require.NoError(t, nonEmptyDoc.Commit())

	require.NoError(t, db.CleanUp(context.Background()))

	docs, err := db.GetDocs()
	require.NoError(t, err)
	assert.Equal(t, []string{"full"}, docs)
}

func TestDelDBRemovesDirectory(t *testing.T) {
	db := newTestDB(t)
	_, err := db.GetDB("mydb", "")
	require.NoError(t, err)
	require.NoError(t, db.DelDB("mydb"))

	dbs, err := db.GetDBs()
	require.NoError(t, err)
	assert.Empty(t, dbs)
}
