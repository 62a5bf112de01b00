// Package document implements oxdb's Document: the composition of
// three KVStores (index, data, vec) plus an IdAllocator that gives the
// engine its push / pull / search / delete surface over textual
// entries and their embeddings.
package document

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ox-ai/oxdb-lite/internal/codec"
	"github.com/ox-ai/oxdb-lite/internal/embedding"
	"github.com/ox-ai/oxdb-lite/internal/idalloc"
	"github.com/ox-ai/oxdb-lite/internal/kvstore"
	"github.com/ox-ai/oxdb-lite/internal/ouxerr"
	"github.com/ox-ai/oxdb-lite/internal/vectorops"
)

// DocFile selects which of a Document's three sub-stores an operation
// targets.
type DocFile string

const (
	DocFileData  DocFile = "data"
	DocFileVec   DocFile = "vec"
	DocFileIndex DocFile = "index"
)

// vecModelKey is the distinguished index-store entry recording the
// embedding model last used to push data.
const vecModelKey = "vec_model"

// Document composes the three sub-stores and the identifier space:
// index (metadata), data (raw text), vec (embeddings).
type Document struct {
	name  string
	dir   string
	index *kvstore.KVStore
	data  *kvstore.KVStore
	vec   *kvstore.KVStore

	ids      *idalloc.IdAllocator
	hidIndex map[string][]int64 // content hash -> ids sharing it, for push dedup
	embedder embedding.Provider
}

// Open opens (creating if absent) the Document directory <rootDir>/<name>
// and its three sub-stores, and rebuilds the id allocator and hid index
// from what is already on disk.
func Open(rootDir, name string, embedder embedding.Provider) (*Document, error) {
	base := filepath.Join(rootDir, name)

	index, err := kvstore.Open(filepath.Join(base, "index"), kvstore.Options{})
	if err != nil {
		return nil, err
	}
	data, err := kvstore.Open(filepath.Join(base, "data"), kvstore.Options{})
	if err != nil {
		return nil, err
	}
	vec, err := kvstore.Open(filepath.Join(base, "vec"), kvstore.Options{})
	if err != nil {
		return nil, err
	}

	d := &Document{
		name:     name,
		dir:      base,
		index:    index,
		data:     data,
		vec:      vec,
		hidIndex: map[string][]int64{},
		embedder: embedder,
	}

	var liveIDs []int64
	for _, k := range data.Keys() {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return nil, ouxerr.Internalf("data store key %q is not a numeric id", k)
		}
		liveIDs = append(liveIDs, id)
	}
	d.ids = idalloc.FromLiveIDs(liveIDs)

	for _, k := range index.Keys() {
		if k == vecModelKey {
			continue
		}
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			continue
		}
		v, ok, err := index.Get(k)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if m, ok := v.AsMap(); ok {
			if hv, ok := m["hid"]; ok {
				if hid, ok := hv.AsString(); ok {
					d.hidIndex[hid] = append(d.hidIndex[hid], id)
				}
			}
		}
	}

	return d, nil
}

// Name returns the document's name.
func (d *Document) Name() string { return d.name }

// Len reports the number of live entries; the three stores hold the same
// id set outside an in-flight push or delete.
func (d *Document) Len() int { return d.data.Len() }

func hashHex(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func idKey(id int64) string { return strconv.FormatInt(id, 10) }

// EmbedMode selects how Push obtains the vector for each pushed entry.
type EmbedMode int

const (
	// EmbedGenerate calls the EmbeddingProvider for every entry (default).
	EmbedGenerate EmbedMode = iota
	// EmbedProvided uses PushRequest.Vectors as-is.
	EmbedProvided
	// EmbedDisabled stores an empty vector for every entry.
	EmbedDisabled
)

// PushRequest carries the push arguments. Exactly one of Data or DataX
// must be set.
type PushRequest struct {
	Data  []string // plain textual entries
	DataX []any    // structured entries, JSON-stringified before storage

	UID      []string
	Metadata []map[string]string
	Mode     EmbedMode
	Vectors  [][]float64 // used only when Mode == EmbedProvided
	LogTime  bool
}

// Push normalizes req into N entries, assigns or recycles an id for
// each, and batch-writes all three sub-stores. Pushing the same textual
// payload twice returns the same id both times.
func (d *Document) Push(ctx context.Context, req PushRequest) ([]int64, error) {
	texts, err := normalizeTexts(req)
	if err != nil {
		return nil, err
	}
	n := len(texts)
	uids := padStrings(req.UID, n)
	metas := padMetadata(req.Metadata, n)

	vectors, err := d.resolveVectors(ctx, req, texts, n)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, n)
	indexVals := make(map[string]codec.Value, n)
	dataVals := make(map[string]codec.Value, n)
	vecVals := make(map[string]codec.Value, n)
	pending := make(map[string]int64, n) // dedup within this batch, pre-write
	now := time.Now()

	for i, text := range texts {
		hid := hashHex(text)
		id, reused := d.findDuplicate(hid, text)
		if !reused {
			if pid, ok := pending[hid+"\x00"+text]; ok {
				id, reused = pid, true
			}
		}
		if !reused {
			id = d.ids.Gen()
			pending[hid+"\x00"+text] = id
		}
		ids[i] = id
		key := idKey(id)

		entry := map[string]codec.Value{
			"doc": codec.String(d.name),
			"hid": codec.String(hid),
		}
		if req.LogTime {
			entry["time"] = codec.String(now.Format("15:04:05"))
			entry["date"] = codec.String(now.Format("02_01_2006"))
		}
		if uids[i] != "" {
			entry["uid"] = codec.String(uids[i])
		}
		for k, v := range metas[i] {
			entry[k] = codec.String(v)
		}

		indexVals[key] = codec.Map(entry)
		dataVals[key] = codec.String(text)
		vecVals[key] = floatsToValue(vectors[i])
		if !reused {
			d.hidIndex[hid] = append(d.hidIndex[hid], id)
		}
	}
	indexVals[vecModelKey] = codec.String(d.embedder.Name())

	if _, err := d.index.Add(indexVals); err != nil {
		return nil, err
	}
	if _, err := d.data.Add(dataVals); err != nil {
		return nil, err
	}
	if _, err := d.vec.Add(vecVals); err != nil {
		return nil, err
	}
	return ids, nil
}

// findDuplicate reports an existing live id sharing hid whose stored
// text exactly equals text. The hash narrows the candidates; the text
// comparison guards against hash collisions.
func (d *Document) findDuplicate(hid, text string) (int64, bool) {
	for _, id := range d.hidIndex[hid] {
		v, ok, err := d.data.Get(idKey(id))
		if err != nil || !ok {
			continue
		}
		if s, ok := v.AsString(); ok && s == text {
			return id, true
		}
	}
	return 0, false
}

func (d *Document) resolveVectors(ctx context.Context, req PushRequest, texts []string, n int) ([][]float64, error) {
	switch req.Mode {
	case EmbedDisabled:
		out := make([][]float64, n)
		for i := range out {
			out[i] = []float64{}
		}
		return out, nil
	case EmbedProvided:
		out := make([][]float64, n)
		for i := 0; i < n; i++ {
			if i < len(req.Vectors) {
				out[i] = req.Vectors[i]
			} else {
				out[i] = []float64{}
			}
		}
		return out, nil
	default:
		vecs, err := d.embedder.Encode(ctx, texts)
		if err != nil {
			return nil, ouxerr.EmbeddingErr("embedding push entries", err)
		}
		return vecs, nil
	}
}

func normalizeTexts(req PushRequest) ([]string, error) {
	hasData := req.Data != nil
	hasDataX := req.DataX != nil
	if hasData == hasDataX {
		return nil, ouxerr.BadArgumentf("push requires exactly one of Data or DataX")
	}
	if hasData {
		if len(req.Data) == 0 {
			return nil, ouxerr.BadArgumentf("data must not be empty")
		}
		return req.Data, nil
	}
	if len(req.DataX) == 0 {
		return nil, ouxerr.BadArgumentf("datax must not be empty")
	}
	out := make([]string, len(req.DataX))
	for i, v := range req.DataX {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, ouxerr.BadArgumentf("datax[%d] is not json-serializable: %v", i, err)
		}
		out[i] = string(b)
	}
	return out, nil
}

func padStrings(in []string, n int) []string {
	out := make([]string, n)
	for i := range out {
		if i < len(in) {
			out[i] = in[i]
		}
	}
	return out
}

func padMetadata(in []map[string]string, n int) []map[string]string {
	out := make([]map[string]string, n)
	for i := range out {
		if i < len(in) {
			out[i] = in[i]
		}
	}
	return out
}

func floatsToValue(v []float64) codec.Value {
	items := make([]codec.Value, len(v))
	for i, x := range v {
		items[i] = codec.Float(x)
	}
	return codec.List(items...)
}

func valueToFloats(v codec.Value) ([]float64, bool) {
	items, ok := v.AsList()
	if !ok {
		return nil, false
	}
	out := make([]float64, len(items))
	for i, it := range items {
		f, ok := it.AsFloat()
		if !ok {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}

// Delete removes ids from all three sub-stores, frees them in the
// allocator, and drops their hid index entries.
func (d *Document) Delete(ids []int64) error {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = idKey(id)
	}
	if _, err := d.index.Delete(keys); err != nil {
		return err
	}
	if _, err := d.data.Delete(keys); err != nil {
		return err
	}
	if _, err := d.vec.Delete(keys); err != nil {
		return err
	}
	deleted := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		d.ids.Delete(id)
		deleted[id] = struct{}{}
	}
	for hid, hidIDs := range d.hidIndex {
		kept := hidIDs[:0]
		for _, id := range hidIDs {
			if _, gone := deleted[id]; !gone {
				kept = append(kept, id)
			}
		}
		if len(kept) == 0 {
			delete(d.hidIndex, hid)
		} else {
			d.hidIndex[hid] = kept
		}
	}
	return nil
}

// storeFor resolves a DocFile selector to its backing KVStore.
func (d *Document) storeFor(docfile DocFile) (*kvstore.KVStore, error) {
	switch docfile {
	case "", DocFileData:
		return d.data, nil
	case DocFileVec:
		return d.vec, nil
	case DocFileIndex:
		return d.index, nil
	default:
		return nil, ouxerr.BadArgumentf("unknown docfile %q", docfile)
	}
}

// WhereData is the substring filter for pull and search: only entries
// whose data value contains SearchString are admitted.
type WhereData struct {
	SearchString string
}

// PullRequest carries the pull arguments.
type PullRequest struct {
	IDs  []int64
	UID  []string
	Time string
	Date string

	DocFile         DocFile
	Where           map[string]string
	WhereData       *WhereData
	SearchAllFilter bool
	// ApplyFilter defaults to true; set explicitly to false to force a
	// whole-store dump regardless of the other fields.
	ApplyFilter *bool
}

func (r PullRequest) hasFilters() bool {
	return len(r.IDs) > 0 || len(r.UID) > 0 || r.Time != "" || r.Date != "" || len(r.Where) > 0
}

func (r PullRequest) applyFilter() bool {
	return r.ApplyFilter == nil || *r.ApplyFilter
}

// buildFilters folds UID/Time/Date into the same filter bag as Where so
// a single composed predicate drives matching. Only the first UID is
// honored: the filter bag is keyed on distinct field names, not on
// repeated values of one field.
func buildFilters(uid []string, timeStr, dateStr string, where map[string]string) map[string]string {
	filters := make(map[string]string, len(where)+3)
	for k, v := range where {
		filters[k] = v
	}
	if len(uid) > 0 {
		filters["uid"] = uid[0]
	}
	if timeStr != "" {
		filters["time"] = timeStr
	}
	if dateStr != "" {
		filters["date"] = dateStr
	}
	return filters
}

// matchEntry applies the composed filter predicate: time and date match
// by substring containment, every other key by equality. A filter key
// absent from entry can never be satisfied, in either mode.
func matchEntry(entry map[string]codec.Value, filters map[string]string, all bool) bool {
	if len(filters) == 0 {
		return false
	}
	matchedAny := false
	for k, want := range filters {
		val, ok := entry[k]
		if !ok {
			if all {
				return false
			}
			continue
		}
		got, ok := val.AsString()
		if !ok {
			if all {
				return false
			}
			continue
		}
		var matched bool
		if k == "time" || k == "date" {
			matched = strings.Contains(got, want)
		} else {
			matched = got == want
		}
		if !matched {
			if all {
				return false
			}
			continue
		}
		matchedAny = true
	}
	if all {
		return true
	}
	return matchedAny
}

// searchIdx scans the index store and returns every id whose entry
// satisfies filters under the any-match or all-match predicate.
func (d *Document) searchIdx(filters map[string]string, all bool) ([]int64, error) {
	var out []int64
	for _, k := range d.index.Keys() {
		if k == vecModelKey {
			continue
		}
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			continue
		}
		v, ok, err := d.index.Get(k)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		m, ok := v.AsMap()
		if !ok {
			continue
		}
		if matchEntry(m, filters, all) {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// Pull returns the selected store's entries keyed by id (plus
// "vec_model" on a whole-index dump): the full store when filtering is
// off or no filters are set, the explicit IDs when given, otherwise the
// ids matching the metadata filters.
func (d *Document) Pull(req PullRequest) (map[string]codec.Value, error) {
	store, err := d.storeFor(req.DocFile)
	if err != nil {
		return nil, err
	}

	if !req.applyFilter() || !req.hasFilters() {
		out := make(map[string]codec.Value, store.Len())
		for _, k := range store.Keys() {
			v, ok, err := store.Get(k)
			if err != nil {
				return nil, err
			}
			if ok {
				out[k] = v
			}
		}
		return out, nil
	}

	var ids []int64
	if len(req.IDs) > 0 {
		ids = req.IDs
	} else {
		filters := buildFilters(req.UID, req.Time, req.Date, req.Where)
		ids, err = d.searchIdx(filters, req.SearchAllFilter)
		if err != nil {
			return nil, err
		}
	}
	return d.pullByID(store, req.DocFile, ids, req.WhereData)
}

// pullByID returns the subset of store keyed by ids, skipping missing
// ids silently; when docfile is data and whereData is set, only entries
// whose text contains the search string are admitted.
func (d *Document) pullByID(store *kvstore.KVStore, docfile DocFile, ids []int64, whereData *WhereData) (map[string]codec.Value, error) {
	out := make(map[string]codec.Value, len(ids))
	for _, id := range ids {
		key := idKey(id)
		v, ok, err := store.Get(key)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if docfile == DocFileData && whereData != nil {
			s, ok := v.AsString()
			if !ok || !strings.Contains(s, whereData.SearchString) {
				continue
			}
		}
		out[key] = v
	}
	return out, nil
}

// SearchRequest carries the search arguments.
type SearchRequest struct {
	Query string
	TopN  int
	By    vectorops.By

	IDs  []int64
	UID  []string
	Time string
	Date string

	Where           map[string]string
	WhereData       *WhereData
	SearchAllFilter bool
	ApplyFilter     *bool

	ApplyFilterLast          bool
	WhereDataBeforeVecSearch bool
	IncludeEmbeddings        bool
}

// SearchResult holds parallel slices indexed by the pulled (ascending
// id) order, not the ranked order; SimScore carries each id's score.
type SearchResult struct {
	Entries    int
	IDs        []int64
	Data       []string
	SimScore   []float64
	Index      []map[string]codec.Value
	Embeddings [][]float64
}

// Search embeds Query, ranks the candidate vectors produced by the
// pre-filter stage, takes the top TopN, and assembles their data and
// similarity scores in ascending-id ("pulled") order.
func (d *Document) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	if req.Query == "" {
		return nil, ouxerr.BadArgumentf("search requires a non-empty query")
	}
	by := req.By
	if by == "" {
		by = vectorops.ByDotProduct
	}
	if !by.Valid() {
		return nil, ouxerr.BadArgumentf("unknown similarity metric %q", by)
	}

	preFilterWhereData := req.WhereData
	if !req.WhereDataBeforeVecSearch {
		preFilterWhereData = nil
	}
	applyFilter := req.ApplyFilter
	candidates, err := d.Pull(PullRequest{
		IDs: req.IDs, UID: req.UID, Time: req.Time, Date: req.Date,
		DocFile: DocFileVec, Where: req.Where, WhereData: preFilterWhereData,
		SearchAllFilter: req.SearchAllFilter, ApplyFilter: applyFilter,
	})
	if err != nil {
		return nil, err
	}

	candidateIDs := make([]int64, 0, len(candidates))
	for k := range candidates {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			continue
		}
		candidateIDs = append(candidateIDs, id)
	}
	sort.Slice(candidateIDs, func(i, j int) bool { return candidateIDs[i] < candidateIDs[j] })

	matrix := make([][]float64, len(candidateIDs))
	for i, id := range candidateIDs {
		vec, _ := valueToFloats(candidates[idKey(id)])
		matrix[i] = vec
	}

	queryVecs, err := d.embedder.Encode(ctx, []string{req.Query})
	if err != nil {
		return nil, ouxerr.EmbeddingErr("embedding search query", err)
	}
	queryVec := queryVecs[0]

	idxOrder, scores, err := vectorops.SearchVectors(queryVec, matrix, by)
	if err != nil {
		return nil, err
	}
	top := vectorops.TopK(idxOrder, req.TopN)

	resultIDs := make([]int64, len(top))
	simByID := make(map[int64]float64, len(top))
	for i, pos := range top {
		id := candidateIDs[pos]
		resultIDs[i] = id
		simByID[id] = scores[pos]
	}
	sort.Slice(resultIDs, func(i, j int) bool { return resultIDs[i] < resultIDs[j] })

	var dataByID map[string]codec.Value
	if req.ApplyFilterLast {
		dataByID, err = d.Pull(PullRequest{
			IDs: resultIDs, DocFile: DocFileData, WhereData: req.WhereData,
		})
	} else {
		dataByID, err = d.pullByID(d.data, DocFileData, resultIDs, req.WhereData)
	}
	if err != nil {
		return nil, err
	}

	var finalIDs []int64
	for _, id := range resultIDs {
		if _, ok := dataByID[idKey(id)]; ok {
			finalIDs = append(finalIDs, id)
		}
	}

	res := &SearchResult{Entries: len(finalIDs), IDs: finalIDs}
	for _, id := range finalIDs {
		s, _ := dataByID[idKey(id)].AsString()
		res.Data = append(res.Data, s)
		res.SimScore = append(res.SimScore, simByID[id])

		entryVal, ok, err := d.index.Get(idKey(id))
		if err != nil {
			return nil, err
		}
		if ok {
			if m, ok := entryVal.AsMap(); ok {
				res.Index = append(res.Index, m)
			}
		}
		if req.IncludeEmbeddings {
			vec, _ := valueToFloats(candidates[idKey(id)])
			res.Embeddings = append(res.Embeddings, vec)
		}
	}
	return res, nil
}

// Commit flushes every sub-store's side-file on demand, part of a
// Document's normal (non-delete-all) close lifecycle.
func (d *Document) Commit() error {
	if err := d.index.Commit(); err != nil {
		return err
	}
	if err := d.data.Commit(); err != nil {
		return err
	}
	return d.vec.Commit()
}

// Compact rewrites each sub-store's data file with no holes and empties
// its free-space map.
func (d *Document) Compact() error {
	if _, err := d.index.Compact(); err != nil {
		return err
	}
	if _, err := d.data.Compact(); err != nil {
		return err
	}
	_, err := d.vec.Compact()
	return err
}

// DeleteAll removes the three sub-stores and the document directory,
// ending the document's lifecycle. The receiver must not be used after.
func (d *Document) DeleteAll() error {
	if err := os.RemoveAll(d.dir); err != nil {
		return ouxerr.IoErr("removing document directory", err)
	}
	d.ids = idalloc.New()
	d.hidIndex = map[string][]int64{}
	return nil
}

// Dir returns the document's backing directory.
func (d *Document) Dir() string { return d.dir }
