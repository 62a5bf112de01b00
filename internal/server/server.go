// Package server implements oxdb's request/response surface: a plain
// HTTP API in front of a Database, authenticated by a shared secret in
// the x-api-key header.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ox-ai/oxdb-lite/internal/database"
	"github.com/ox-ai/oxdb-lite/internal/document"
	"github.com/ox-ai/oxdb-lite/internal/ouxerr"
	"github.com/ox-ai/oxdb-lite/internal/vectorops"
)

// Server is oxdb's HTTP request/response surface, wrapping a single
// Database and the Document it currently has selected.
type Server struct {
	db     *database.Database
	apiKey string
	log    *slog.Logger

	mu  selectMutex
	doc *document.Document
}

// selectMutex serializes GetDB/GetDoc switches; a Document is not
// internally synchronized, so the surface must never hand two
// goroutines the same *document.Document mid-switch.
type selectMutex struct{ ch chan struct{} }

func newSelectMutex() selectMutex {
	m := selectMutex{ch: make(chan struct{}, 1)}
	m.ch <- struct{}{}
	return m
}
func (m selectMutex) lock()   { <-m.ch }
func (m selectMutex) unlock() { m.ch <- struct{}{} }

// New builds a Server over db, authenticating mutation requests against
// apiKey. An empty apiKey disables authentication (local/dev use).
func New(db *database.Database, apiKey string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{db: db, apiKey: apiKey, log: log, mu: newSelectMutex()}
}

// Handler builds the routed http.Handler for the API surface.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleLiveness)
	mux.HandleFunc("POST /get-db/{name}", s.auth(s.handleGetDB))
	mux.HandleFunc("POST /get-doc/{name}", s.auth(s.handleGetDoc))
	mux.HandleFunc("POST /push", s.auth(s.handlePush))
	mux.HandleFunc("POST /pull", s.auth(s.handlePull))
	mux.HandleFunc("POST /search", s.auth(s.handleSearch))
	return s.logged(mux)
}

// logged wraps next with a per-request slog.Info line.
func (s *Server) logged(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.Info("request", slog.String("method", r.Method), slog.String("path", r.URL.Path))
		next.ServeHTTP(w, r)
	})
}

func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" && r.Header.Get("x-api-key") != s.apiKey {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetDB(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	s.mu.lock()
	_, err := s.db.GetDB(name, "")
	s.mu.unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"db": name})
}

func (s *Server) handleGetDoc(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	s.mu.lock()
	doc, err := s.db.GetDoc(name)
	if err == nil {
		s.doc = doc
	}
	s.mu.unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"doc": doc.Name()})
}

func (s *Server) currentDoc() (*document.Document, error) {
	s.mu.lock()
	defer s.mu.unlock()
	if s.doc == nil {
		return nil, ouxerr.BadArgumentf("no document selected: call get-doc first")
	}
	return s.doc, nil
}

// pushBody is the POST /push request body.
type pushBody struct {
	Data       []string          `json:"data"`
	DataX      []any             `json:"datax"`
	UID        []string          `json:"uid"`
	Metadata   []map[string]string `json:"metadata"`
	Embeddings *bool             `json:"embeddings"`
}

func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	doc, err := s.currentDoc()
	if err != nil {
		writeError(w, err)
		return
	}
	var body pushBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, ouxerr.BadArgumentf("invalid request body: %v", err))
		return
	}

	mode := document.EmbedGenerate
	if body.Embeddings != nil && !*body.Embeddings {
		mode = document.EmbedDisabled
	}

	var data []string
	var datax []any
	if len(body.DataX) > 0 {
		datax = body.DataX
	} else {
		data = body.Data
	}

	ids, err := doc.Push(r.Context(), document.PushRequest{
		Data: data, DataX: datax, UID: body.UID, Metadata: body.Metadata, Mode: mode,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ids": ids})
}

// pullBody is the POST /pull request body.
type pullBody struct {
	IDs             []int64           `json:"idx"`
	UID             []string          `json:"uid"`
	Time            string            `json:"time"`
	Date            string            `json:"date"`
	DocFile         string            `json:"docfile"`
	Where           map[string]string `json:"where"`
	WhereData       *string           `json:"where_data"`
	SearchAllFilter bool              `json:"search_all_filter"`
	ApplyFilter     *bool             `json:"apply_filter"`
}

func (s *Server) handlePull(w http.ResponseWriter, r *http.Request) {
	doc, err := s.currentDoc()
	if err != nil {
		writeError(w, err)
		return
	}
	var body pullBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, ouxerr.BadArgumentf("invalid request body: %v", err))
		return
	}

	var wd *document.WhereData
	if body.WhereData != nil {
		wd = &document.WhereData{SearchString: *body.WhereData}
	}

	result, err := doc.Pull(document.PullRequest{
		IDs: body.IDs, UID: body.UID, Time: body.Time, Date: body.Date,
		DocFile: document.DocFile(body.DocFile), Where: body.Where, WhereData: wd,
		SearchAllFilter: body.SearchAllFilter, ApplyFilter: body.ApplyFilter,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// searchBody is the POST /search request body.
type searchBody struct {
	Query                    string            `json:"query"`
	TopN                     int               `json:"topn"`
	By                       string            `json:"by"`
	IDs                      []int64           `json:"idx"`
	UID                      []string          `json:"uid"`
	Time                     string            `json:"time"`
	Date                     string            `json:"date"`
	Where                    map[string]string `json:"where"`
	WhereData                *string           `json:"where_data"`
	SearchAllFilter          bool              `json:"search_all_filter"`
	ApplyFilterLast          bool              `json:"apply_filter_last"`
	WhereDataBeforeVecSearch bool              `json:"where_data_before_vec_search"`
	Includes                 []string          `json:"includes"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	doc, err := s.currentDoc()
	if err != nil {
		writeError(w, err)
		return
	}
	var body searchBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, ouxerr.BadArgumentf("invalid request body: %v", err))
		return
	}

	var wd *document.WhereData
	if body.WhereData != nil {
		wd = &document.WhereData{SearchString: *body.WhereData}
	}

	result, err := doc.Search(r.Context(), document.SearchRequest{
		Query: body.Query, TopN: body.TopN, By: vectorops.By(body.By),
		IDs: body.IDs, UID: body.UID, Time: body.Time, Date: body.Date,
		Where: body.Where, WhereData: wd, SearchAllFilter: body.SearchAllFilter,
		ApplyFilterLast: body.ApplyFilterLast, WhereDataBeforeVecSearch: body.WhereDataBeforeVecSearch,
		IncludeEmbeddings: includesEmbeddings(body.Includes),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func includesEmbeddings(includes []string) bool {
	for _, inc := range includes {
		if strings.EqualFold(inc, "embeddings") {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps an error to its HTTP status: BadArgument to 400,
// everything else to 500 with the message.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if ouxerr.Is(err, ouxerr.BadArgument) {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
