package clioutput

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ox-ai/oxdb-lite/internal/codec"
	"github.com/ox-ai/oxdb-lite/internal/document"
)

func TestPushResultTextMode(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf, false)
	require.NoError(t, w.PushResult([]int64{1, 2}))
	assert.Contains(t, buf.String(), "pushed 2 entries")
}

func TestPushResultJSONMode(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf, true)
	require.NoError(t, w.PushResult([]int64{1, 2}))

	var decoded map[string][]int64
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, []int64{1, 2}, decoded["ids"])
}

func TestPullResultJSONModeRoundTripsValues(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf, true)
	require.NoError(t, w.PullResult(map[string]codec.Value{"1": codec.String("hello")}))

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "hello", decoded["1"])
}

func TestSearchResultTextMode(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf, false)
	res := &document.SearchResult{
		Entries:  1,
		IDs:      []int64{1},
		Data:     []string{"hello"},
		SimScore: []float64{0.5},
	}
	require.NoError(t, w.SearchResult(res))
	assert.Contains(t, buf.String(), "1 results")
	assert.Contains(t, buf.String(), "hello")
}

func TestIsTTYFalseForNonFile(t *testing.T) {
	var buf bytes.Buffer
	assert.False(t, IsTTY(&buf))
}
