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

	"github.com/goel7054/swagger-bot/internal/corpus"
	"github.com/goel7054/swagger-bot/internal/keyword"
	"github.com/goel7054/swagger-bot/internal/metrics"
	"github.com/goel7054/swagger-bot/internal/models"
	"github.com/goel7054/swagger-bot/internal/respond"
	"github.com/goel7054/swagger-bot/internal/storage"
)

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondJSON(w, http.StatusBadRequest, respond.Error(models.ErrQueryRequired.Error()))
		return
	}
	question, err := req.Text()
	if err != nil {
		s.respondJSON(w, http.StatusBadRequest, respond.Error(err.Error()))
		return
	}
	s.logger.Debug("query request", zap.String("question", question))
	res, err := s.router.Resolve(question)
	if err != nil {
		env, clientErr := respond.FromError(err)
		if clientErr {
			s.respondJSON(w, http.StatusBadRequest, env)
			return
		}
		s.logger.Error("query failed", zap.Error(err))
		s.respondJSON(w, http.StatusInternalServerError, env)
		return
	}
	s.respondJSON(w, http.StatusOK, respond.FromResult(res))
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	out := make([]metadataDocument, 0, len(snap.Documents))
	for _, doc := range snap.Documents {
		out = append(out, metadataDocument{Source: doc.SourceID, Document: doc.Value})
	}
	s.respondJSON(w, http.StatusOK, out)
}

type metadataDocument struct {
	Source   string `json:"source"`
	Document any    `json:"document"`
}

type operationHit struct {
	Method      string  `json:"method"`
	Path        string  `json:"path"`
	Summary     string  `json:"summary"`
	OperationID string  `json:"operationId"`
	Tags        string  `json:"tags"`
	Source      string  `json:"source"`
	Score       float64 `json:"score"`
}

func (s *Server) handleOperations(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		s.respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit, err := s.parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	opts := &keyword.SearchOptions{SourceID: r.URL.Query().Get("source")}
	if v := r.URL.Query().Get("fuzzy"); v != "" {
		fuzzy, err := strconv.ParseBool(v)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "fuzzy must be a boolean")
			return
		}
		opts.FuzzyEnabled = fuzzy
	}

	snap := s.store.Snapshot()
	hits, err := snap.Keyword.Search(r.Context(), q, limit, opts)
	if err != nil {
		s.logger.Error("operation search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, respond.InternalErrorMessage)
		return
	}
	results := make([]operationHit, 0, len(hits))
	for _, h := range hits {
		results = append(results, operationHit{
			Method:      h.Entry.Method,
			Path:        h.Entry.Path,
			Summary:     h.Entry.Summary,
			OperationID: h.Entry.OperationID,
			Tags:        h.Entry.Tags,
			Source:      h.Entry.SourceID,
			Score:       h.Score,
		})
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"query":   q,
		"total":   len(results),
		"results": results,
	})
}

func (s *Server) parseLimit(raw string) (int, error) {
	limits := s.config.Search
	if raw == "" {
		return limits.DefaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errors.New("limit must be a positive integer")
	}
	if limits.MaxLimit > 0 && n > limits.MaxLimit {
		n = limits.MaxLimit
	}
	return n, nil
}

func (s *Server) handleSpecsList(w http.ResponseWriter, r *http.Request) {
	records, err := s.specRecords(r)
	if err != nil {
		s.logger.Error("list specs failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, respond.InternalErrorMessage)
		return
	}
	if records == nil {
		records = []*storage.SpecRecord{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"specs": records})
}

func (s *Server) specRecords(r *http.Request) ([]*storage.SpecRecord, error) {
	if s.catalog == nil {
		return storage.RecordsFromSnapshot(s.store.Snapshot()), nil
	}
	return s.catalog.List(r.Context())
}

func (s *Server) handleSpecGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "source")
	if s.catalog == nil {
		for _, rec := range storage.RecordsFromSnapshot(s.store.Snapshot()) {
			if rec.SourceID == id {
				s.respondJSON(w, http.StatusOK, rec)
				return
			}
		}
		s.respondError(w, http.StatusNotFound, "spec not found")
		return
	}
	rec, err := s.catalog.Get(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "spec not found")
		return
	}
	if err != nil {
		s.logger.Error("get spec failed", zap.String("source", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, respond.InternalErrorMessage)
		return
	}
	s.respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Reload(r.Context())
	if errors.Is(err, corpus.ErrNoLoader) {
		s.respondError(w, http.StatusNotImplemented, "reload not available")
		return
	}
	metrics.ObserveReload(err)
	if err != nil {
		s.logger.Error("reload failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "reload failed")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "reloaded",
		"build_id":   snap.BuildID,
		"documents":  len(snap.Documents),
		"operations": len(snap.Corpus.Entries),
		"errors":     snap.Report.ErrorMessages(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	resp := map[string]interface{}{
		"build_id":   snap.BuildID,
		"built_at":   snap.BuiltAt.Format(time.RFC3339),
		"documents":  len(snap.Documents),
		"operations": len(snap.Corpus.Entries),
		"metadata":   len(snap.Corpus.Metadata),
		"sources":    snap.Report.Sources,
		"failed":     snap.Report.Failed(),
		"errors":     snap.Report.ErrorMessages(),
		"warnings":   len(snap.Report.Warnings),
	}
	if n, err := snap.Keyword.DocCount(); err == nil {
		resp["keyword_index_size"] = n
	}
	if s.catalog != nil {
		if n, err := s.catalog.Count(r.Context()); err == nil {
			resp["catalog_specs"] = n
		}
		if size, err := storage.CatalogDiskUsage(s.config.Storage.DatabasePath); err == nil {
			resp["disk_usage_bytes"] = size
		}
	}
	resp["config"] = map[string]interface{}{
		"spec_paths":    s.store.Paths(),
		"threshold":     s.config.Search.ThresholdOrDefault(),
		"top_k":         s.config.Search.TopK,
		"watch":         s.config.Specs.Watch,
		"database_path": s.config.Storage.DatabasePath,
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, respond.Error(message))
}
