// Package server exposes the index over HTTP: corpus rebuilds, Boolean and
// phrase search, vocabulary reporting, and snapshot save/load. The server
// owns the current index; the core packages stay pure.
package server

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pradiptarakha/corpusindex/internal/analytics"
	"github.com/pradiptarakha/corpusindex/internal/corpus"
	"github.com/pradiptarakha/corpusindex/internal/index"
	"github.com/pradiptarakha/corpusindex/internal/search"
	"github.com/pradiptarakha/corpusindex/internal/search/cache"
	"github.com/pradiptarakha/corpusindex/internal/store"
	"github.com/pradiptarakha/corpusindex/pkg/config"
	apperrors "github.com/pradiptarakha/corpusindex/pkg/errors"
	"github.com/pradiptarakha/corpusindex/pkg/logger"
	"github.com/pradiptarakha/corpusindex/pkg/metrics"
	"github.com/pradiptarakha/corpusindex/pkg/tracing"
)

// CorpusSource loads an ordered corpus from an external system.
type CorpusSource interface {
	Load(ctx context.Context) ([]string, error)
}

// Handler implements the HTTP API. Cache, collector, metrics, and the
// corpus source may be nil; the corresponding features degrade silently.
type Handler struct {
	state     *State
	cache     *cache.QueryCache
	collector *analytics.Collector
	snapshots store.SnapshotStore
	source    CorpusSource
	metrics   *metrics.Metrics
	defaults  index.Options
	searchCfg config.SearchConfig
	logger    *slog.Logger
}

// New wires a Handler.
func New(
	state *State,
	queryCache *cache.QueryCache,
	collector *analytics.Collector,
	snapshots store.SnapshotStore,
	source CorpusSource,
	m *metrics.Metrics,
	defaults index.Options,
	searchCfg config.SearchConfig,
) *Handler {
	return &Handler{
		state:     state,
		cache:     queryCache,
		collector: collector,
		snapshots: snapshots,
		source:    source,
		metrics:   m,
		defaults:  defaults,
		searchCfg: searchCfg,
		logger:    slog.Default().With("component", "http-handler"),
	}
}

type rebuildResponse struct {
	NumDocs  int `json:"num_docs"`
	NumTerms int `json:"num_terms"`
}

type analyzerOverride struct {
	Lowercase         *bool   `json:"lowercase"`
	RemoveDigits      *bool   `json:"remove_digits"`
	RemovePunctuation *bool   `json:"remove_punctuation"`
	Language          *string `json:"language"`
	FilterStopwords   *bool   `json:"filter_stopwords"`
}

// Rebuild replaces the corpus and rebuilds the index from scratch. The
// body is either JSON ({"documents": [...], "analyzer": {...}}) or
// text/plain with one document per line.
func (h *Handler) Rebuild(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var docs []string
	opts := h.optionsFromQuery(r)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "text/plain") {
		loaded, err := corpus.FromLines(r.Body)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "reading corpus body failed")
			return
		}
		docs = loaded
	} else {
		var req struct {
			Documents []string          `json:"documents"`
			Analyzer  *analyzerOverride `json:"analyzer"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		docs = req.Documents
		opts = applyOverride(opts, req.Analyzer)
	}

	idx := h.installIndex(ctx, docs, opts, "json")
	log.Info("corpus rebuilt", "documents", idx.NumDocs(), "terms", idx.NumTerms())
	h.writeJSON(w, http.StatusOK, rebuildResponse{NumDocs: idx.NumDocs(), NumTerms: idx.NumTerms()})
}

// RebuildCSV replaces the corpus from an uploaded CSV, extracting the
// column named by the "column" query parameter (default "text").
func (h *Handler) RebuildCSV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	column := r.URL.Query().Get("column")
	if column == "" {
		column = "text"
	}
	docs, err := corpus.FromCSV(r.Body, column)
	if err != nil {
		log.Error("csv corpus load failed", "error", err)
		h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
		return
	}

	idx := h.installIndex(ctx, docs, h.optionsFromQuery(r), "csv")
	log.Info("corpus rebuilt from csv", "documents", idx.NumDocs(), "terms", idx.NumTerms())
	h.writeJSON(w, http.StatusOK, rebuildResponse{NumDocs: idx.NumDocs(), NumTerms: idx.NumTerms()})
}

// RebuildPostgres replaces the corpus from the configured database table.
func (h *Handler) RebuildPostgres(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	if h.source == nil {
		h.writeError(w, http.StatusServiceUnavailable, "postgres corpus source is not configured")
		return
	}
	docs, err := h.source.Load(ctx)
	if err != nil {
		log.Error("postgres corpus load failed", "error", err)
		h.writeError(w, http.StatusBadGateway, "loading corpus from postgres failed")
		return
	}

	idx := h.installIndex(ctx, docs, h.optionsFromQuery(r), "postgres")
	log.Info("corpus rebuilt from postgres", "documents", idx.NumDocs(), "terms", idx.NumTerms())
	h.writeJSON(w, http.StatusOK, rebuildResponse{NumDocs: idx.NumDocs(), NumTerms: idx.NumTerms()})
}

type searchHit struct {
	DocID   int    `json:"doc_id"`
	Snippet string `json:"snippet,omitempty"`
}

type searchResponse struct {
	Query     string      `json:"query"`
	Mode      string      `json:"mode"`
	TotalHits int         `json:"total_hits"`
	DocIDs    []int       `json:"doc_ids"`
	CacheHit  bool        `json:"cache_hit"`
	Results   []searchHit `json:"results,omitempty"`
}

// Search evaluates ?q= in ?mode=boolean (default) or phrase and returns
// the matching document ids, with highlighted snippets when the corpus
// text is held locally.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = "boolean"
	}
	if mode != "boolean" && mode != "phrase" {
		h.writeError(w, http.StatusBadRequest, "mode must be 'boolean' or 'phrase'")
		return
	}

	ctx, span := tracing.StartSpan(ctx, "search", logger.RequestID(ctx))
	defer span.End()
	span.SetAttr("mode", mode)

	idx, docs := h.state.Current()
	compute := func() (*cache.Entry, error) {
		return &cache.Entry{
			Mode:   mode,
			Query:  query,
			DocIDs: evaluate(mode, query, idx).Sorted(),
		}, nil
	}

	var entry *cache.Entry
	cacheHit := false
	if h.cache != nil {
		var err error
		entry, cacheHit, err = h.cache.GetOrCompute(ctx, mode, query, compute)
		if err != nil {
			log.Error("search failed", "query", query, "error", err)
			h.writeError(w, http.StatusInternalServerError, "search failed")
			return
		}
	} else {
		entry, _ = compute()
	}

	resp := searchResponse{
		Query:     query,
		Mode:      mode,
		TotalHits: len(entry.DocIDs),
		DocIDs:    entry.DocIDs,
		CacheHit:  cacheHit,
	}
	if docs != nil {
		terms := HighlightTerms(query)
		for _, docID := range entry.DocIDs {
			if docID < 0 || docID >= len(docs) {
				continue
			}
			resp.Results = append(resp.Results, searchHit{
				DocID:   docID,
				Snippet: Snippet(docs[docID], terms, h.searchCfg.SnippetRadius),
			})
		}
	}

	latency := time.Since(start)
	span.SetAttr("hits", resp.TotalHits)
	h.recordQueryMetrics(mode, resp.TotalHits, latency, cacheHit)
	if h.collector != nil {
		h.collector.Track(analytics.QueryEvent{
			Mode:      mode,
			Query:     query,
			Hits:      resp.TotalHits,
			LatencyMs: latency.Milliseconds(),
			CacheHit:  cacheHit,
			Timestamp: time.Now().UTC(),
			RequestID: logger.RequestID(ctx),
		})
	}
	log.Info("search completed",
		"mode", mode,
		"query", query,
		"hits", resp.TotalHits,
		"cache_hit", cacheHit,
		"latency_ms", latency.Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, resp)
}

// Term serves one term's document frequency and postings.
func (h *Handler) Term(w http.ResponseWriter, r *http.Request) {
	term := r.PathValue("term")
	idx, _ := h.state.Current()
	if !idx.HasTerm(term) {
		h.writeError(w, http.StatusNotFound, fmt.Sprintf("term %q not found", term))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"term":     term,
		"df":       idx.DocFrequency(term),
		"cf":       idx.CollectionFrequency(term),
		"postings": idx.PostingsFor(term),
	})
}

// Vocabulary serves (term, df, cf) rows ordered df descending, term
// ascending, truncated to ?limit= (0 means all).
func (h *Handler) Vocabulary(w http.ResponseWriter, r *http.Request) {
	idx, _ := h.state.Current()
	rows := idx.Stats()

	limit := h.searchCfg.DefaultVocabLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 0 {
			h.writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}
	total := len(rows)
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"vocabulary_size": total,
		"rows":            rows,
	})
}

// VocabularyExport streams the full vocabulary as a CSV attachment.
func (h *Handler) VocabularyExport(w http.ResponseWriter, r *http.Request) {
	idx, _ := h.state.Current()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="vocabulary.csv"`)
	cw := csv.NewWriter(w)
	cw.Write([]string{"term", "df", "cf"})
	for _, row := range idx.Stats() {
		cw.Write([]string{row.Term, strconv.Itoa(row.DF), strconv.Itoa(row.CF)})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.logger.Error("vocabulary export failed", "error", err)
	}
}

// SnapshotDownload serves the current index in snapshot JSON form.
func (h *Handler) SnapshotDownload(w http.ResponseWriter, r *http.Request) {
	idx, _ := h.state.Current()
	data, err := idx.MarshalSnapshot()
	if err != nil {
		h.logger.Error("snapshot marshal failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "snapshot failed")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="inverted_index.json"`)
	w.Write(data)
}

// SnapshotUpload replaces the current index with one decoded from the
// request body. Corpus text is not part of a snapshot, so snippets are
// unavailable until the next rebuild.
func (h *Handler) SnapshotUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	data, err := readAll(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "reading snapshot body failed")
		return
	}
	idx, err := index.LoadSnapshot(data)
	if err != nil {
		log.Error("snapshot load failed", "error", err)
		h.countSnapshotOp("load", "error")
		h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
		return
	}

	h.installLoaded(ctx, idx, "snapshot")
	h.countSnapshotOp("load", "ok")
	log.Info("index loaded from snapshot", "documents", idx.NumDocs(), "terms", idx.NumTerms())
	h.writeJSON(w, http.StatusOK, rebuildResponse{NumDocs: idx.NumDocs(), NumTerms: idx.NumTerms()})
}

// SnapshotStore persists the current index through the configured
// snapshot store.
func (h *Handler) SnapshotStore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idx, _ := h.state.Current()
	data, err := idx.MarshalSnapshot()
	if err == nil {
		err = h.snapshots.Save(ctx, data)
	}
	if err != nil {
		h.logger.Error("snapshot store failed", "error", err)
		h.countSnapshotOp("save", "error")
		h.writeError(w, http.StatusInternalServerError, "storing snapshot failed")
		return
	}
	h.countSnapshotOp("save", "ok")
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "stored"})
}

// SnapshotRestore replaces the current index with the stored snapshot.
func (h *Handler) SnapshotRestore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	data, err := h.snapshots.Load(ctx)
	if err != nil {
		log.Error("snapshot restore failed", "error", err)
		h.countSnapshotOp("load", "error")
		h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
		return
	}
	idx, err := index.LoadSnapshot(data)
	if err != nil {
		log.Error("stored snapshot is malformed", "error", err)
		h.countSnapshotOp("load", "error")
		h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
		return
	}

	h.installLoaded(ctx, idx, "snapshot")
	h.countSnapshotOp("load", "ok")
	log.Info("index restored from snapshot store", "documents", idx.NumDocs(), "terms", idx.NumTerms())
	h.writeJSON(w, http.StatusOK, rebuildResponse{NumDocs: idx.NumDocs(), NumTerms: idx.NumTerms()})
}

// CacheStats reports query cache hit/miss counters.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

// CacheInvalidate drops all cached query results.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

// evaluate runs one query against idx. Phrase mode strips surrounding
// quotes and splits on whitespace; Boolean mode passes the raw string to
// the evaluator.
func evaluate(mode, query string, idx *index.Index) search.DocSet {
	if mode == "phrase" {
		words := strings.Fields(strings.Trim(strings.TrimSpace(query), `"`))
		return search.EvalPhrase(words, idx)
	}
	return search.EvalBoolean(query, idx)
}

func (h *Handler) installIndex(ctx context.Context, docs []string, opts index.Options, source string) *index.Index {
	start := time.Now()
	idx := index.Build(docs, opts)
	if h.metrics != nil {
		h.metrics.IndexBuildsTotal.WithLabelValues(source).Inc()
		h.metrics.IndexBuildDuration.Observe(time.Since(start).Seconds())
	}
	h.install(ctx, idx, docs)
	return idx
}

func (h *Handler) installLoaded(ctx context.Context, idx *index.Index, source string) {
	if h.metrics != nil {
		h.metrics.IndexBuildsTotal.WithLabelValues(source).Inc()
	}
	h.install(ctx, idx, nil)
}

func (h *Handler) install(ctx context.Context, idx *index.Index, docs []string) {
	if h.metrics != nil {
		h.metrics.CorpusDocuments.Set(float64(idx.NumDocs()))
		h.metrics.VocabularySize.Set(float64(idx.NumTerms()))
	}
	h.state.Replace(idx, docs)
	if h.cache != nil {
		if err := h.cache.Invalidate(ctx); err != nil {
			h.logger.Error("cache invalidation after rebuild failed", "error", err)
		}
	}
}

func (h *Handler) recordQueryMetrics(mode string, hits int, latency time.Duration, cacheHit bool) {
	if h.metrics == nil {
		return
	}
	outcome := "hit"
	if hits == 0 {
		outcome = "zero_result"
	}
	h.metrics.QueriesTotal.WithLabelValues(mode, outcome).Inc()
	h.metrics.QueryLatency.WithLabelValues(mode).Observe(latency.Seconds())
	if cacheHit {
		h.metrics.CacheHitsTotal.Inc()
	} else {
		h.metrics.CacheMissesTotal.Inc()
	}
}

func (h *Handler) countSnapshotOp(op, status string) {
	if h.metrics != nil {
		h.metrics.SnapshotOpsTotal.WithLabelValues(op, status).Inc()
	}
}

// optionsFromQuery starts from the configured analyzer defaults and
// applies any per-request query-parameter overrides.
func (h *Handler) optionsFromQuery(r *http.Request) index.Options {
	opts := h.defaults
	q := r.URL.Query()
	if v := q.Get("lowercase"); v != "" {
		opts.Lowercase = v == "true" || v == "1"
	}
	if v := q.Get("remove_digits"); v != "" {
		opts.RemoveDigits = v == "true" || v == "1"
	}
	if v := q.Get("remove_punctuation"); v != "" {
		opts.RemovePunctuation = v == "true" || v == "1"
	}
	if v := q.Get("language"); v != "" {
		opts.Language = v
	}
	if v := q.Get("filter_stopwords"); v != "" {
		opts.FilterStopwords = v == "true" || v == "1"
	}
	return opts
}

func applyOverride(opts index.Options, o *analyzerOverride) index.Options {
	if o == nil {
		return opts
	}
	if o.Lowercase != nil {
		opts.Lowercase = *o.Lowercase
	}
	if o.RemoveDigits != nil {
		opts.RemoveDigits = *o.RemoveDigits
	}
	if o.RemovePunctuation != nil {
		opts.RemovePunctuation = *o.RemovePunctuation
	}
	if o.Language != nil {
		opts.Language = *o.Language
	}
	if o.FilterStopwords != nil {
		opts.FilterStopwords = *o.FilterStopwords
	}
	return opts
}

func readAll(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
