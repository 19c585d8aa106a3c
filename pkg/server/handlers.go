package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/mapknowledge/pkg/errors"
	"github.com/matzehuels/mapknowledge/pkg/pipeline"
)

// OriginHeader reports whether a record came from the store or the
// knowledge service.
const OriginHeader = "X-Knowledge-Origin"

// maxLoadBody limits the size of a bulk load request.
const maxLoadBody = 1 << 20

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, errors.HTTPStatus(err), errorBody{Error: errorDetail{Code: code, Message: errors.UserMessage(err)}})
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// knowledge handles GET /knowledge/{entity}.
func (s *Server) knowledge(w http.ResponseWriter, r *http.Request) {
	entity, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidEntity, err, "malformed entity"))
		return
	}
	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	opts := pipeline.Options{Source: r.URL.Query().Get("source"), Refresh: refresh, Logger: s.logger}

	res, err := s.runner.Knowledge(r.Context(), entity, opts)
	if err != nil {
		s.logger.Warn("knowledge lookup failed", "entity", entity, "error", err)
		writeError(w, err)
		return
	}
	w.Header().Set(OriginHeader, res.Origin)
	writeJSON(w, http.StatusOK, res.Record)
}

type loadRequest struct {
	Entities []string `json:"entities"`
	Source   string   `json:"source,omitempty"`
	Refresh  bool     `json:"refresh,omitempty"`
}

type loadResponse struct {
	Source  string            `json:"source"`
	Batch   string            `json:"batch,omitempty"`
	Loaded  int               `json:"loaded"`
	Unknown []string          `json:"unknown,omitempty"`
	Failed  map[string]string `json:"failed,omitempty"`
}

// load handles POST /knowledge.
func (s *Server) load(w http.ResponseWriter, r *http.Request) {
	var req loadRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoadBody)).Decode(&req); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid load request"))
		return
	}
	if len(req.Entities) == 0 {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "no entities to load"))
		return
	}

	opts := pipeline.Options{Source: req.Source, Refresh: req.Refresh, Concurrency: s.concurrency, Logger: s.logger}
	res, err := s.runner.Load(r.Context(), req.Entities, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := loadResponse{
		Source:  res.List.Source,
		Batch:   res.Batch,
		Loaded:  len(res.List.Knowledge),
		Unknown: res.Unknown,
	}
	if len(res.Failed) > 0 {
		resp.Failed = make(map[string]string, len(res.Failed))
		for entity, err := range res.Failed {
			resp.Failed[entity] = errors.UserMessage(err)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// sources handles GET /sources.
func (s *Server) sources(w http.ResponseWriter, r *http.Request) {
	if s.runner.Store == nil {
		writeJSON(w, http.StatusOK, map[string][]string{"sources": {}})
		return
	}
	sources, err := s.runner.Store.Sources(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if sources == nil {
		sources = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sources": sources})
}

// sourceKnowledge handles GET /sources/{source}.
func (s *Server) sourceKnowledge(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	if s.runner.Store == nil {
		writeError(w, errors.New(errors.ErrCodeNotFound, "no knowledge store"))
		return
	}
	l, err := s.runner.Store.List(r.Context(), source)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(l.Knowledge) == 0 {
		writeError(w, errors.New(errors.ErrCodeNotFound, "no knowledge from source %q", source))
		return
	}
	writeJSON(w, http.StatusOK, l)
}
