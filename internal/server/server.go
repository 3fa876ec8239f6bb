// Package server exposes the conversion pipeline over HTTP.
//
// The API is JSON in, JSON out. Every request is tagged with a UUID that
// appears in logs and the X-Request-Id response header, so a failed
// conversion can be traced back through the pipeline's run logs.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/matzehuels/drawbridge/pkg/buildinfo"
	"github.com/matzehuels/drawbridge/pkg/convert"
	dberrors "github.com/matzehuels/drawbridge/pkg/errors"
)

// Server handles conversion requests. Construct with New.
type Server struct {
	runner *convert.Runner
	logger *log.Logger
	router chi.Router
}

// New creates a server around a conversion runner. A nil logger falls back
// to the global default.
func New(runner *convert.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{runner: runner, logger: logger}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(s.requestID)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/convert", s.handleConvert)
		r.Post("/batch", s.handleBatch)
		r.Get("/types", s.handleTypes)
	})
	return r
}

// requestID tags every request with a UUID and logs its outcome.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-Id", id)
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request", "id", id, "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

// healthResponse is the body of GET /healthz.
type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Service: "drawbridge",
		Version: buildinfo.Version,
	})
}

// convertRequest is the body of POST /api/v1/convert.
type convertRequest struct {
	Source      string  `json:"source"`
	DiagramType string  `json:"diagram_type,omitempty"`
	Theme       string  `json:"theme,omitempty"`
	Scale       float64 `json:"scale,omitempty"`
	NoCache     bool    `json:"no_cache,omitempty"`
}

// convertResponse is the success body of POST /api/v1/convert.
type convertResponse struct {
	RunID       string   `json:"run_id"`
	DiagramType string   `json:"diagram_type"`
	Document    string   `json:"document"`
	Warnings    []string `json:"warnings,omitempty"`
	Nodes       int      `json:"nodes"`
	Edges       int      `json:"edges"`
	Cached      bool     `json:"cached"`
	DurationMS  int64    `json:"duration_ms"`
}

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Code    string `json:"code"`
	Stage   string `json:"stage,omitempty"`
	Message string `json:"message"`
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:    string(dberrors.ErrCodeInvalidInput),
			Message: "malformed request body: " + err.Error(),
		})
		return
	}

	res, err := s.runner.Convert(r.Context(), convert.Source{
		Text:        req.Source,
		DiagramType: req.DiagramType,
	}, convert.Options{Theme: req.Theme, Scale: req.Scale, NoCache: req.NoCache})
	if err != nil {
		writeJSON(w, statusFor(err), errorResponse{
			Code:    string(dberrors.GetCode(err)),
			Stage:   dberrors.GetStage(err),
			Message: dberrors.UserMessage(err),
		})
		return
	}

	writeJSON(w, http.StatusOK, convertResponse{
		RunID:       res.RunID,
		DiagramType: res.DiagramType,
		Document:    string(res.Document),
		Warnings:    res.Warnings,
		Nodes:       res.Stats.Nodes,
		Edges:       res.Stats.Edges,
		Cached:      res.CacheInfo.DocumentHit,
		DurationMS:  res.Stats.TotalTime.Milliseconds(),
	})
}

// batchRequest is the body of POST /api/v1/batch.
type batchRequest struct {
	Sources []convertRequest `json:"sources"`
	Theme   string           `json:"theme,omitempty"`
	NoCache bool             `json:"no_cache,omitempty"`
}

// batchItemResponse mirrors one convert.BatchItem.
type batchItemResponse struct {
	Index       int      `json:"index"`
	Name        string   `json:"name,omitempty"`
	Success     bool     `json:"success"`
	DiagramType string   `json:"diagram_type,omitempty"`
	Document    string   `json:"document,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
	Code        string   `json:"code,omitempty"`
	Stage       string   `json:"stage,omitempty"`
	Message     string   `json:"message,omitempty"`
}

// batchResponse is the body of POST /api/v1/batch.
type batchResponse struct {
	Items      []batchItemResponse `json:"items"`
	Succeeded  int                 `json:"succeeded"`
	Failed     int                 `json:"failed"`
	DurationMS int64               `json:"duration_ms"`
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:    string(dberrors.ErrCodeInvalidInput),
			Message: "malformed request body: " + err.Error(),
		})
		return
	}
	if len(req.Sources) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:    string(dberrors.ErrCodeInvalidInput),
			Message: "batch needs at least one source",
		})
		return
	}

	sources := make([]convert.Source, len(req.Sources))
	for i, src := range req.Sources {
		sources[i] = convert.Source{Text: src.Source, DiagramType: src.DiagramType}
	}
	summary := s.runner.ConvertMany(r.Context(), sources, convert.Options{
		Theme:   req.Theme,
		NoCache: req.NoCache,
	})

	resp := batchResponse{
		Succeeded:  summary.Succeeded,
		Failed:     summary.Failed,
		DurationMS: summary.Duration.Milliseconds(),
	}
	for _, item := range summary.Items {
		out := batchItemResponse{
			Index:       item.Index,
			Name:        item.Name,
			Success:     item.Success,
			DiagramType: item.DiagramType,
			Code:        string(item.Code),
			Stage:       item.Stage,
			Message:     item.Message,
		}
		if item.Result != nil {
			out.Document = string(item.Result.Document)
			out.Warnings = item.Result.Warnings
		}
		resp.Items = append(resp.Items, out)
	}
	writeJSON(w, http.StatusOK, resp)
}

// typesResponse is the body of GET /api/v1/types.
type typesResponse struct {
	Types []string `json:"types"`
}

func (s *Server) handleTypes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, typesResponse{Types: convert.Types()})
}

// statusFor maps pipeline error codes onto HTTP status codes.
func statusFor(err error) int {
	switch dberrors.GetCode(err) {
	case dberrors.ErrCodeInvalidInput, dberrors.ErrCodeInvalidSource, dberrors.ErrCodeInvalidConfig:
		return http.StatusBadRequest
	case dberrors.ErrCodeUnsupportedType:
		return http.StatusUnprocessableEntity
	case dberrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case dberrors.ErrCodeRender:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
