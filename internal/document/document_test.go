package document

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ox-ai/oxdb-lite/internal/embedding"
	"github.com/ox-ai/oxdb-lite/internal/vectorops"
)

func newTestDoc(t *testing.T) *Document {
	t.Helper()
	dir := t.TempDir()
	d, err := Open(dir, "doc1", embedding.NewStaticProvider())
	require.NoError(t, err)
	return d
}

// fixedQueryProvider returns a constant vector for every query, letting
// tests target a known point in a low-dimensional space instead of the
// 256-dim StaticProvider output.
type fixedQueryProvider struct {
	vec []float64
}

func (p fixedQueryProvider) Encode(_ context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i := range out {
		out[i] = p.vec
	}
	return out, nil
}
func (p fixedQueryProvider) Dimensions() int { return len(p.vec) }
func (p fixedQueryProvider) Name() string    { return "fixed" }

func TestPushDedupReturnsSameID(t *testing.T) {
	d := newTestDoc(t)
	ids, err := d.Push(context.Background(), PushRequest{Data: []string{"alpha", "beta", "alpha"}})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 1}, ids)
	assert.Equal(t, 2, d.Len())
}

func TestPushThenDeleteRecyclesID(t *testing.T) {
	d := newTestDoc(t)
	ids, err := d.Push(context.Background(), PushRequest{Data: []string{"a", "b"}})
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2}, ids)

	require.NoError(t, d.Delete([]int64{1}))

	ids2, err := d.Push(context.Background(), PushRequest{Data: []string{"gamma"}})
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids2, "freed id 1 must be recycled before 3 is issued")

	ids3, err := d.Push(context.Background(), PushRequest{Data: []string{"delta"}})
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, ids3)
}

func TestPushRejectsBothDataAndDataX(t *testing.T) {
	d := newTestDoc(t)
	_, err := d.Push(context.Background(), PushRequest{Data: []string{"a"}, DataX: []any{1}})
	assert.Error(t, err)
}

func TestPullWithMetadataFilterAnyMode(t *testing.T) {
	d := newTestDoc(t)
	_, err := d.Push(context.Background(), PushRequest{
		Data:     []string{"e1", "e2", "e3", "e4"},
		Metadata: []map[string]string{{"tag": "a"}, {"tag": "b"}, {"tag": "a"}, {"tag": "b"}},
	})
	require.NoError(t, err)

	res, err := d.Pull(PullRequest{Where: map[string]string{"tag": "a"}, DocFile: DocFileData})
	require.NoError(t, err)
	assert.Len(t, res, 2)
	assert.Contains(t, res, "1")
	assert.Contains(t, res, "3")
}

func TestPullAllModeRequiresEveryKey(t *testing.T) {
	d := newTestDoc(t)
	_, err := d.Push(context.Background(), PushRequest{
		Data:     []string{"e1", "e2"},
		Metadata: []map[string]string{{"tag": "a", "grp": "x"}, {"tag": "a"}},
	})
	require.NoError(t, err)

	res, err := d.Pull(PullRequest{
		Where:           map[string]string{"tag": "a", "grp": "x"},
		DocFile:         DocFileData,
		SearchAllFilter: true,
	})
	require.NoError(t, err)
	assert.Len(t, res, 1)
	assert.Contains(t, res, "1")
}

func TestPullWhereDataSubstringFilter(t *testing.T) {
	d := newTestDoc(t)
	_, err := d.Push(context.Background(), PushRequest{Data: []string{"hello world", "goodbye"}})
	require.NoError(t, err)

	res, err := d.Pull(PullRequest{
		IDs:       []int64{1, 2},
		DocFile:   DocFileData,
		WhereData: &WhereData{SearchString: "world"},
	})
	require.NoError(t, err)
	assert.Len(t, res, 1)
	assert.Contains(t, res, "1")
}

func TestSearchEuclideanReturnsClosestInPulledOrder(t *testing.T) {
	dir := t.TempDir()
	d, err := Open(dir, "doc1", fixedQueryProvider{vec: []float64{0, 0}})
	require.NoError(t, err)

	ids, err := d.Push(context.Background(), PushRequest{
		Data: []string{"p0", "p1", "p2"},
		Mode: EmbedProvided,
		Vectors: [][]float64{
			{0, 0},
			{10, 0},
			{1, 0},
		},
	})
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2, 3}, ids)

	res, err := d.Search(context.Background(), SearchRequest{
		Query: "q", TopN: 2, By: vectorops.ByEuclidean,
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, res.IDs)
	assert.Equal(t, 2, res.Entries)
}

func TestDeleteRemovesFromAllStores(t *testing.T) {
	d := newTestDoc(t)
	ids, err := d.Push(context.Background(), PushRequest{Data: []string{"x"}})
	require.NoError(t, err)

	require.NoError(t, d.Delete(ids))
	assert.Equal(t, 0, d.Len())

	res, err := d.Pull(PullRequest{DocFile: DocFileData})
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestPullWithoutFiltersReturnsWholeStore(t *testing.T) {
	d := newTestDoc(t)
	_, err := d.Push(context.Background(), PushRequest{Data: []string{"a", "b"}})
	require.NoError(t, err)

	res, err := d.Pull(PullRequest{DocFile: DocFileData})
	require.NoError(t, err)
	assert.Len(t, res, 2)
}

func TestPushDataXJSONStringifies(t *testing.T) {
	d := newTestDoc(t)
	ids, err := d.Push(context.Background(), PushRequest{
		DataX: []any{map[string]any{"k": "v"}},
	})
	require.NoError(t, err)
	require.Len(t, ids, 1)

	res, err := d.Pull(PullRequest{IDs: ids, DocFile: DocFileData})
	require.NoError(t, err)
	s, _ := res[idKey(ids[0])].AsString()
	assert.JSONEq(t, `{"k":"v"}`, s)
}
