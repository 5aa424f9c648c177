package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/AppleLamps/grokiwiki/internal/fetcher"
	"github.com/AppleLamps/grokiwiki/internal/models"
	"github.com/AppleLamps/grokiwiki/internal/slugindex"
)

// handleSuggest serves autocomplete: GET /api/v1/suggest?q=<query>&limit=<n>.
// An empty query is a valid request with zero suggestions. Backing store
// failures are logged and counted but reach the user only as "no suggestions
// available", never as a fake empty success.
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	query := r.URL.Query().Get("q")

	limit := s.cfg.Search.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.metrics.SuggestTotal.WithLabelValues(OutcomeInvalid).Inc()
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > s.cfg.Search.MaxLimit {
		limit = s.cfg.Search.MaxLimit
	}

	results, err := s.index.Search(r.Context(), query, limit)
	if err != nil {
		if errors.Is(err, slugindex.ErrInvalidLimit) {
			s.metrics.SuggestTotal.WithLabelValues(OutcomeInvalid).Inc()
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.metrics.SuggestTotal.WithLabelValues(OutcomeError).Inc()
		s.logger.Error("suggest failed", zap.String("query", query), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "no suggestions available")
		return
	}
	s.metrics.SuggestDuration.Observe(time.Since(start).Seconds())
	if len(results) == 0 {
		s.metrics.SuggestTotal.WithLabelValues(OutcomeEmpty).Inc()
		results = []models.SlugRecord{}
	} else {
		s.metrics.SuggestTotal.WithLabelValues(OutcomeOK).Inc()
	}

	s.respondJSON(w, http.StatusOK, &models.SuggestResponse{
		Query:       query,
		Suggestions: results,
		Total:       len(results),
		QueryTime:   time.Since(start).Milliseconds(),
	})
}

// handleResolve maps a typed article name to its single best slug record:
// GET /api/v1/resolve?q=<query>.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		s.respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	rec, err := s.index.Resolve(r.Context(), query)
	if err != nil {
		s.logger.Error("resolve failed", zap.String("query", query), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "no suggestions available")
		return
	}
	if rec == nil {
		s.respondError(w, http.StatusNotFound, "no matching article")
		return
	}
	s.respondJSON(w, http.StatusOK, rec)
}

// handleListSlugs lists corpus entries by slug prefix: GET /api/v1/slugs?prefix=&limit=.
func (s *Server) handleListSlugs(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	records, err := s.index.ListByPrefix(r.Context(), r.URL.Query().Get("prefix"), limit)
	if err != nil {
		s.logger.Error("list slugs failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "listing unavailable")
		return
	}
	if records == nil {
		records = []models.SlugRecord{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"slugs": records,
		"total": len(records),
	})
}

// handleGetArticle fetches the Grokipedia article for a known slug. The slug
// is resolved to its canonical stored casing before fetching; page URLs are
// case-sensitive.
func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	rec, err := s.index.Resolve(r.Context(), slug)
	if err != nil {
		s.logger.Error("slug lookup failed", zap.String("slug", slug), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "lookup unavailable")
		return
	}
	if rec == nil || !strings.EqualFold(rec.Slug, slug) {
		s.respondError(w, http.StatusNotFound, "unknown slug")
		return
	}
	article, err := s.grok.FetchArticle(r.Context(), rec.Slug)
	if err != nil {
		if errors.Is(err, fetcher.ErrArticleNotFound) {
			s.respondError(w, http.StatusNotFound, "article not found")
			return
		}
		s.logger.Error("article fetch failed", zap.String("slug", slug), zap.Error(err))
		s.respondError(w, http.StatusBadGateway, "article fetch failed")
		return
	}
	s.respondJSON(w, http.StatusOK, article)
}

// handleCompare runs the full comparison flow: resolve the query to a slug,
// fetch both articles in parallel, then ask the LLM for a TLDR and a
// comparison. All flow state lives in the per-request session.
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req models.CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		s.respondError(w, http.StatusBadRequest, "query is required")
		return
	}

	rec, err := s.index.Resolve(r.Context(), req.Query)
	if err != nil {
		s.metrics.CompareTotal.WithLabelValues(OutcomeError).Inc()
		s.logger.Error("compare resolve failed", zap.String("query", req.Query), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "lookup unavailable")
		return
	}
	if rec == nil {
		s.metrics.CompareTotal.WithLabelValues(OutcomeEmpty).Inc()
		s.respondError(w, http.StatusNotFound, "no matching article")
		return
	}

	session := models.NewCompareSession(rec.Slug)
	fetchStart := time.Now()
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		wikiTitle := rec.Title
		if req.WikipediaURL != "" {
			wikiTitle = titleFromWikipediaURL(req.WikipediaURL)
		}
		article, err := s.wiki.FetchArticle(ctx, wikiTitle)
		if err != nil {
			return err
		}
		session.Wikipedia = article
		return nil
	})
	g.Go(func() error {
		article, err := s.grok.FetchArticle(ctx, rec.Slug)
		if err != nil {
			return err
		}
		session.Grokipedia = article
		return nil
	})
	if err := g.Wait(); err != nil {
		s.metrics.CompareTotal.WithLabelValues(OutcomeError).Inc()
		if errors.Is(err, fetcher.ErrArticleNotFound) {
			s.respondError(w, http.StatusNotFound, "article not found at source")
			return
		}
		s.logger.Error("compare fetch failed",
			zap.String("session", session.ID),
			zap.String("slug", rec.Slug),
			zap.Error(err))
		s.respondError(w, http.StatusBadGateway, "article fetch failed")
		return
	}
	session.FetchTime = time.Since(fetchStart).Milliseconds()

	// LLM output is best-effort: a failed or unconfigured model degrades the
	// response to fetched articles only.
	if s.llm.Available() {
		llmStart := time.Now()
		if tldr, err := s.llm.GenerateTLDR(r.Context(), session.Grokipedia); err != nil {
			s.logger.Warn("tldr generation failed", zap.String("session", session.ID), zap.Error(err))
		} else {
			session.TLDR = tldr
		}
		if cmp, err := s.llm.CompareArticles(r.Context(), session.Wikipedia, session.Grokipedia); err != nil {
			s.logger.Warn("comparison generation failed", zap.String("session", session.ID), zap.Error(err))
		} else {
			session.Comparison = cmp
		}
		if req.IncludeEdits {
			if edits, err := s.llm.SuggestEdits(r.Context(), session.Wikipedia, session.Grokipedia); err != nil {
				s.logger.Warn("edit suggestion failed", zap.String("session", session.ID), zap.Error(err))
			} else {
				session.SuggestedEdits = edits
			}
		}
		session.LLMTime = time.Since(llmStart).Milliseconds()
	}

	s.metrics.CompareTotal.WithLabelValues(OutcomeOK).Inc()
	s.respondJSON(w, http.StatusOK, session)
}

// titleFromWikipediaURL extracts the page title from a /wiki/ URL; the raw
// input is returned when it does not look like one.
func titleFromWikipediaURL(rawURL string) string {
	if idx := strings.LastIndex(rawURL, "/wiki/"); idx >= 0 {
		return rawURL[idx+len("/wiki/"):]
	}
	return rawURL
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	count, err := s.index.Count(r.Context())
	if err != nil {
		s.logger.Error("status: count failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"slugs":     count,
		"persisted": s.cfg.Index.Persisted,
		"backend":   s.cfg.Index.Backend,
	}
	if s.cfg.Index.Persisted {
		diskBytes, err := slugindex.DiskUsageBytes(s.cfg.Index.DatabasePath, s.cfg.Index.BleveIndexPath)
		if err == nil {
			resp["disk_usage_bytes"] = diskBytes
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
