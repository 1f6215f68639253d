package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/pradiptarakha/corpusindex/internal/index"
	"github.com/pradiptarakha/corpusindex/internal/store"
	"github.com/pradiptarakha/corpusindex/pkg/config"
)

var testDefaults = index.Options{
	Lowercase:         true,
	RemovePunctuation: true,
	FilterStopwords:   true,
	Language:          "en",
}

var testSearchCfg = config.SearchConfig{
	DefaultVocabLimit: 50,
	SnippetRadius:     40,
}

func newTestHandler(snapshots store.SnapshotStore, source CorpusSource) (*Handler, *http.ServeMux) {
	h := New(NewState(), nil, nil, snapshots, source, nil, testDefaults, testSearchCfg)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/corpus", h.Rebuild)
	mux.HandleFunc("POST /api/v1/corpus/csv", h.RebuildCSV)
	mux.HandleFunc("POST /api/v1/corpus/postgres", h.RebuildPostgres)
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/terms/{term}", h.Term)
	mux.HandleFunc("GET /api/v1/vocabulary", h.Vocabulary)
	mux.HandleFunc("GET /api/v1/vocabulary/export", h.VocabularyExport)
	mux.HandleFunc("GET /api/v1/snapshot", h.SnapshotDownload)
	mux.HandleFunc("POST /api/v1/snapshot", h.SnapshotUpload)
	mux.HandleFunc("POST /api/v1/snapshot/store", h.SnapshotStore)
	mux.HandleFunc("POST /api/v1/snapshot/restore", h.SnapshotRestore)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	return h, mux
}

func do(t *testing.T, mux *http.ServeMux, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
	return v
}

func rebuild(t *testing.T, mux *http.ServeMux, docs ...string) {
	t.Helper()
	body, _ := json.Marshal(map[string]any{"documents": docs})
	w := do(t, mux, http.MethodPost, "/api/v1/corpus", "application/json", string(body))
	if w.Code != http.StatusOK {
		t.Fatalf("rebuild: status %d, body %s", w.Code, w.Body)
	}
}

func TestRebuildAndSearch(t *testing.T) {
	_, mux := newTestHandler(nil, nil)
	rebuild(t, mux, "the cat sat", "the dog sat", "cat and dog")

	w := do(t, mux, http.MethodGet, "/api/v1/search?q=cat", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("search: status %d, body %s", w.Code, w.Body)
	}
	resp := decode[searchResponse](t, w)
	if resp.Mode != "boolean" {
		t.Errorf("mode = %q, want boolean", resp.Mode)
	}
	if !reflect.DeepEqual(resp.DocIDs, []int{0, 2}) {
		t.Errorf("doc_ids = %v, want [0 2]", resp.DocIDs)
	}
	if resp.TotalHits != 2 {
		t.Errorf("total_hits = %d, want 2", resp.TotalHits)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("results = %v, want snippets for both hits", resp.Results)
	}
	if !strings.Contains(resp.Results[0].Snippet, "**cat**") {
		t.Errorf("snippet %q does not highlight the match", resp.Results[0].Snippet)
	}
}

func TestSearchBooleanOperators(t *testing.T) {
	_, mux := newTestHandler(nil, nil)
	rebuild(t, mux, "the cat sat", "the dog sat", "cat and dog")

	tests := []struct {
		query string
		want  []int
	}{
		{"cat AND sat", []int{0}},
		{"cat OR dog", []int{0, 1, 2}},
		{"NOT cat", []int{1}},
		{"sat OR dog AND NOT cat", []int{0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := do(t, mux, http.MethodGet, "/api/v1/search?q="+strings.ReplaceAll(tt.query, " ", "+"), "", "")
			if w.Code != http.StatusOK {
				t.Fatalf("status %d, body %s", w.Code, w.Body)
			}
			resp := decode[searchResponse](t, w)
			if !reflect.DeepEqual(resp.DocIDs, tt.want) {
				t.Errorf("doc_ids = %v, want %v", resp.DocIDs, tt.want)
			}
		})
	}
}

func TestSearchPhraseMode(t *testing.T) {
	_, mux := newTestHandler(nil, nil)
	rebuild(t, mux, "the cat sat", "the dog sat", "cat and dog")

	w := do(t, mux, http.MethodGet, `/api/v1/search?mode=phrase&q=%22cat+sat%22`, "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", w.Code, w.Body)
	}
	resp := decode[searchResponse](t, w)
	if !reflect.DeepEqual(resp.DocIDs, []int{0}) {
		t.Errorf("doc_ids = %v, want [0]", resp.DocIDs)
	}

	w = do(t, mux, http.MethodGet, `/api/v1/search?mode=phrase&q=dog+cat`, "", "")
	resp = decode[searchResponse](t, w)
	if !reflect.DeepEqual(resp.DocIDs, []int{}) {
		t.Errorf("out-of-order phrase doc_ids = %v, want []", resp.DocIDs)
	}
}

func TestSearchValidation(t *testing.T) {
	_, mux := newTestHandler(nil, nil)

	if w := do(t, mux, http.MethodGet, "/api/v1/search", "", ""); w.Code != http.StatusBadRequest {
		t.Errorf("missing q: status %d, want 400", w.Code)
	}
	if w := do(t, mux, http.MethodGet, "/api/v1/search?q=cat&mode=fuzzy", "", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad mode: status %d, want 400", w.Code)
	}
}

func TestRebuildPlainText(t *testing.T) {
	_, mux := newTestHandler(nil, nil)
	w := do(t, mux, http.MethodPost, "/api/v1/corpus", "text/plain",
		"the cat sat\nthe dog sat\n\ncat and dog\n")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", w.Code, w.Body)
	}
	resp := decode[rebuildResponse](t, w)
	if resp.NumDocs != 3 {
		t.Errorf("num_docs = %d, want 3", resp.NumDocs)
	}
}

func TestRebuildAnalyzerOverride(t *testing.T) {
	_, mux := newTestHandler(nil, nil)
	body := `{"documents": ["Cat DOG"], "analyzer": {"lowercase": false, "filter_stopwords": false}}`
	if w := do(t, mux, http.MethodPost, "/api/v1/corpus", "application/json", body); w.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", w.Code, w.Body)
	}

	if w := do(t, mux, http.MethodGet, "/api/v1/terms/Cat", "", ""); w.Code != http.StatusOK {
		t.Errorf("case-preserved term lookup: status %d, want 200", w.Code)
	}
	if w := do(t, mux, http.MethodGet, "/api/v1/terms/cat", "", ""); w.Code != http.StatusNotFound {
		t.Errorf("lowercased term should not exist: status %d, want 404", w.Code)
	}
}

func TestRebuildInvalidJSON(t *testing.T) {
	_, mux := newTestHandler(nil, nil)
	if w := do(t, mux, http.MethodPost, "/api/v1/corpus", "application/json", "{not json"); w.Code != http.StatusBadRequest {
		t.Errorf("status %d, want 400", w.Code)
	}
}

func TestRebuildCSV(t *testing.T) {
	_, mux := newTestHandler(nil, nil)
	csvBody := "id,text\n1,the cat sat\n2,the dog sat\n"
	w := do(t, mux, http.MethodPost, "/api/v1/corpus/csv", "text/csv", csvBody)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", w.Code, w.Body)
	}
	resp := decode[rebuildResponse](t, w)
	if resp.NumDocs != 2 {
		t.Errorf("num_docs = %d, want 2", resp.NumDocs)
	}

	w = do(t, mux, http.MethodPost, "/api/v1/corpus/csv?column=body", "text/csv", csvBody)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing column: status %d, want 400", w.Code)
	}
}

type stubSource struct {
	docs []string
	err  error
}

func (s stubSource) Load(context.Context) ([]string, error) { return s.docs, s.err }

func TestRebuildPostgres(t *testing.T) {
	_, mux := newTestHandler(nil, stubSource{docs: []string{"the cat sat", "the dog sat"}})
	w := do(t, mux, http.MethodPost, "/api/v1/corpus/postgres", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", w.Code, w.Body)
	}
	resp := decode[rebuildResponse](t, w)
	if resp.NumDocs != 2 {
		t.Errorf("num_docs = %d, want 2", resp.NumDocs)
	}
}

func TestRebuildPostgresUnavailable(t *testing.T) {
	_, mux := newTestHandler(nil, nil)
	if w := do(t, mux, http.MethodPost, "/api/v1/corpus/postgres", "", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("unconfigured source: status %d, want 503", w.Code)
	}

	_, mux = newTestHandler(nil, stubSource{err: errors.New("connection refused")})
	if w := do(t, mux, http.MethodPost, "/api/v1/corpus/postgres", "", ""); w.Code != http.StatusBadGateway {
		t.Errorf("failing source: status %d, want 502", w.Code)
	}
}

func TestTermEndpoint(t *testing.T) {
	_, mux := newTestHandler(nil, nil)
	rebuild(t, mux, "the cat sat", "the dog sat", "cat and dog")

	w := do(t, mux, http.MethodGet, "/api/v1/terms/cat", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", w.Code, w.Body)
	}
	resp := decode[struct {
		Term     string           `json:"term"`
		DF       int              `json:"df"`
		CF       int              `json:"cf"`
		Postings map[string][]int `json:"postings"`
	}](t, w)
	if resp.Term != "cat" || resp.DF != 2 || resp.CF != 2 {
		t.Errorf("term stats = %+v", resp)
	}
	want := map[string][]int{"0": {0}, "2": {0}}
	if !reflect.DeepEqual(resp.Postings, want) {
		t.Errorf("postings = %v, want %v", resp.Postings, want)
	}

	if w := do(t, mux, http.MethodGet, "/api/v1/terms/walrus", "", ""); w.Code != http.StatusNotFound {
		t.Errorf("unknown term: status %d, want 404", w.Code)
	}
}

func TestVocabularyEndpoint(t *testing.T) {
	_, mux := newTestHandler(nil, nil)
	rebuild(t, mux, "the cat sat", "the dog sat", "cat and dog")

	type vocabResp struct {
		VocabularySize int `json:"vocabulary_size"`
		Rows           []struct {
			Term string `json:"term"`
			DF   int    `json:"df"`
			CF   int    `json:"cf"`
		} `json:"rows"`
	}

	w := do(t, mux, http.MethodGet, "/api/v1/vocabulary", "", "")
	resp := decode[vocabResp](t, w)
	if resp.VocabularySize != 3 {
		t.Errorf("vocabulary_size = %d, want 3", resp.VocabularySize)
	}
	// df descending, ties by term ascending: cat, dog, sat all have df 2.
	var terms []string
	for _, row := range resp.Rows {
		terms = append(terms, row.Term)
	}
	if !reflect.DeepEqual(terms, []string{"cat", "dog", "sat"}) {
		t.Errorf("row order = %v", terms)
	}

	w = do(t, mux, http.MethodGet, "/api/v1/vocabulary?limit=1", "", "")
	resp = decode[vocabResp](t, w)
	if len(resp.Rows) != 1 || resp.VocabularySize != 3 {
		t.Errorf("limited rows = %d (size %d), want 1 of 3", len(resp.Rows), resp.VocabularySize)
	}

	if w := do(t, mux, http.MethodGet, "/api/v1/vocabulary?limit=nope", "", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad limit: status %d, want 400", w.Code)
	}
}

func TestVocabularyExport(t *testing.T) {
	_, mux := newTestHandler(nil, nil)
	rebuild(t, mux, "the cat sat", "the dog sat", "cat and dog")

	w := do(t, mux, http.MethodGet, "/api/v1/vocabulary/export", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if lines[0] != "term,df,cf" {
		t.Errorf("header row = %q", lines[0])
	}
	if len(lines) != 4 {
		t.Errorf("got %d lines, want header plus 3 terms", len(lines))
	}
}

func TestSnapshotUploadDownload(t *testing.T) {
	_, mux := newTestHandler(nil, nil)
	rebuild(t, mux, "the cat sat", "the dog sat", "cat and dog")

	w := do(t, mux, http.MethodGet, "/api/v1/snapshot", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("download: status %d", w.Code)
	}
	snapshot := w.Body.String()

	// A fresh server restored from the snapshot answers the same queries,
	// but without corpus text it cannot produce snippets.
	_, mux2 := newTestHandler(nil, nil)
	if w := do(t, mux2, http.MethodPost, "/api/v1/snapshot", "application/json", snapshot); w.Code != http.StatusOK {
		t.Fatalf("upload: status %d, body %s", w.Code, w.Body)
	}
	w = do(t, mux2, http.MethodGet, "/api/v1/search?q=cat", "", "")
	resp := decode[searchResponse](t, w)
	if !reflect.DeepEqual(resp.DocIDs, []int{0, 2}) {
		t.Errorf("doc_ids after restore = %v, want [0 2]", resp.DocIDs)
	}
	if len(resp.Results) != 0 {
		t.Errorf("snapshot-restored index produced snippets: %v", resp.Results)
	}
}

func TestSnapshotUploadMalformed(t *testing.T) {
	_, mux := newTestHandler(nil, nil)
	if w := do(t, mux, http.MethodPost, "/api/v1/snapshot", "application/json", `{"nope": true}`); w.Code != http.StatusBadRequest {
		t.Errorf("status %d, want 400", w.Code)
	}
}

func TestSnapshotStoreRestore(t *testing.T) {
	fileStore := store.NewFileStore(filepath.Join(t.TempDir(), "index.json"))

	_, mux := newTestHandler(fileStore, nil)
	rebuild(t, mux, "the cat sat", "the dog sat", "cat and dog")
	if w := do(t, mux, http.MethodPost, "/api/v1/snapshot/store", "", ""); w.Code != http.StatusOK {
		t.Fatalf("store: status %d, body %s", w.Code, w.Body)
	}

	_, mux2 := newTestHandler(fileStore, nil)
	if w := do(t, mux2, http.MethodPost, "/api/v1/snapshot/restore", "", ""); w.Code != http.StatusOK {
		t.Fatalf("restore: status %d, body %s", w.Code, w.Body)
	}
	w := do(t, mux2, http.MethodGet, "/api/v1/search?q=cat+AND+sat", "", "")
	resp := decode[searchResponse](t, w)
	if !reflect.DeepEqual(resp.DocIDs, []int{0}) {
		t.Errorf("doc_ids after restore = %v, want [0]", resp.DocIDs)
	}
}

func TestSnapshotRestoreNotFound(t *testing.T) {
	fileStore := store.NewFileStore(filepath.Join(t.TempDir(), "missing.json"))
	_, mux := newTestHandler(fileStore, nil)
	if w := do(t, mux, http.MethodPost, "/api/v1/snapshot/restore", "", ""); w.Code != http.StatusNotFound {
		t.Errorf("status %d, want 404", w.Code)
	}
}

func TestCacheEndpointsWithoutCache(t *testing.T) {
	_, mux := newTestHandler(nil, nil)

	w := do(t, mux, http.MethodGet, "/api/v1/cache/stats", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("stats: status %d", w.Code)
	}
	if got := decode[map[string]string](t, w); got["status"] != "disabled" {
		t.Errorf("stats = %v, want disabled", got)
	}
	if w := do(t, mux, http.MethodPost, "/api/v1/cache/invalidate", "", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("invalidate: status %d, want 503", w.Code)
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	// Queries against a server that never ingested a corpus are valid and
	// return the empty result set.
	_, mux := newTestHandler(nil, nil)
	w := do(t, mux, http.MethodGet, "/api/v1/search?q=cat", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	resp := decode[searchResponse](t, w)
	if resp.TotalHits != 0 || !reflect.DeepEqual(resp.DocIDs, []int{}) {
		t.Errorf("hits = %d, doc_ids = %v, want none", resp.TotalHits, resp.DocIDs)
	}
}
