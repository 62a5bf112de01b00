package shell

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ox-ai/oxdb-lite/internal/clioutput"
	"github.com/ox-ai/oxdb-lite/internal/document"
	"github.com/ox-ai/oxdb-lite/internal/embedding"
)

func TestTokenizeSplitsQuotedAndBareTokens(t *testing.T) {
	toks, err := Tokenize(`push "hello world" uid=abc`)
	require.NoError(t, err)
	assert.Equal(t, []string{"push", "hello world", "uid=abc"}, toks)
}

func TestTokenizeUnterminatedQuoteErrors(t *testing.T) {
	_, err := Tokenize(`push "hello`)
	assert.Error(t, err)
}

func TestParseSeparatesVerbTextAndArgs(t *testing.T) {
	cmd, err := Parse(`search "neural nets" topn=3 by=cs`)
	require.NoError(t, err)
	assert.Equal(t, "search", cmd.Verb)
	assert.Equal(t, "neural nets", cmd.Text)
	assert.Equal(t, "3", cmd.Args["topn"])
	assert.Equal(t, "cs", cmd.Args["by"])
}

func newTestShell(t *testing.T) (*Shell, *bytes.Buffer) {
	t.Helper()
	doc, err := document.Open(t.TempDir(), "doc1", embedding.NewStaticProvider())
	require.NoError(t, err)
	var buf bytes.Buffer
	out := clioutput.New(&buf, true)
	return New(doc, out), &buf
}

func TestRunPushThenPull(t *testing.T) {
	s, buf := newTestShell(t)
	require.NoError(t, s.Run(context.Background(), `push "hello world"`))
	assert.Contains(t, buf.String(), `"ids"`)

	buf.Reset()
	require.NoError(t, s.Run(context.Background(), "pull idx=1"))
	assert.Contains(t, buf.String(), "hello world")
}

func TestRunUnknownVerbErrors(t *testing.T) {
	s, _ := newTestShell(t)
	err := s.Run(context.Background(), "frobnicate")
	assert.Error(t, err)
}

func TestRunInfoReportsCount(t *testing.T) {
	s, buf := newTestShell(t)
	require.NoError(t, s.Run(context.Background(), "info"))
	assert.Contains(t, buf.String(), "doc1")
	assert.Contains(t, buf.String(), "0 entries")
}
