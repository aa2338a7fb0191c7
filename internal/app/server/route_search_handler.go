package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"tubescout/internal/api/dto"
	"tubescout/internal/cache"
	"tubescout/internal/database"
	"tubescout/internal/fetcher"
)

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var payload dto.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	keyword := strings.TrimSpace(payload.Keyword)
	if keyword == "" {
		writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{
			Error:           "Validation error",
			Detail:          fetcher.ErrEmptyKeyword.Error(),
			DurationSeconds: time.Since(start).Seconds(),
		})
		return
	}

	if s.cache != nil {
		videoID, err := s.cache.Get(r.Context(), keyword)
		if err == nil {
			writeJSON(w, http.StatusOK, dto.SearchResponse{
				VideoID:         videoID,
				DurationSeconds: time.Since(start).Seconds(),
				Cached:          true,
			})
			return
		}
		if !errors.Is(err, cache.ErrMiss) {
			log.Warn("search: cache lookup failed", "keyword", keyword, "error", err)
		}
	}

	result, err := s.searcher.Fetch(r.Context(), keyword)
	if err != nil {
		// Only validation reaches this branch; anything transport-shaped is
		// folded into the result outcome.
		writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{
			Error:           "Validation error",
			Detail:          err.Error(),
			DurationSeconds: time.Since(start).Seconds(),
		})
		return
	}

	switch result.Kind {
	case fetcher.Found:
		if s.cache != nil {
			if err := s.cache.Set(r.Context(), keyword, result.VideoID); err != nil {
				log.Warn("search: cache store failed", "keyword", keyword, "error", err)
			}
		}
		writeJSON(w, http.StatusOK, dto.SearchResponse{
			VideoID:         result.VideoID,
			DurationSeconds: result.Duration.Seconds(),
		})
	case fetcher.NotFound:
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{
			Error:           "Video not found",
			Detail:          result.Detail,
			DurationSeconds: result.Duration.Seconds(),
		})
	default:
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{
			Error:           "Scraping error",
			Detail:          result.Detail,
			DurationSeconds: result.Duration.Seconds(),
		})
	}
}

func (s *Server) listProxies(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"proxies": s.pool.Snapshot()})
}

func (s *Server) listSearches(w http.ResponseWriter, r *http.Request) {
	if !s.historyEnabled {
		writeError(w, "Search history is not enabled", http.StatusNotFound)
		return
	}

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	records, err := database.ListRecentSearches(limit)
	if err != nil {
		log.Error("search history: list records", "error", err)
		writeError(w, "Failed to load search history", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"searches": records})
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
