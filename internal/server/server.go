// Package server exposes the query engine over HTTP. It is a thin JSON shell
// around the service session; all decision logic lives below it.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mkoster/querylens/internal/config"
	"github.com/mkoster/querylens/internal/errors"
	"github.com/mkoster/querylens/internal/logging"
	"github.com/mkoster/querylens/internal/service"
)

// Server wraps the HTTP listener and its routes
type Server struct {
	cfg     *config.Config
	session *service.Session
	logger  *logging.Logger
	http    *http.Server
}

// New builds the server and its router
func New(cfg *config.Config, session *service.Session, logger *logging.Logger) *Server {
	s := &Server{cfg: cfg, session: session, logger: logger}

	s.http = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Routes assembles the API router
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Route("/api", func(r chi.Router) {
		r.Post("/connect-database", s.handleConnect)
		r.Post("/query", s.handleQuery)
		r.Post("/documents", s.handleUploadDocuments)
		r.Get("/ingestion-status/{jobID}", s.handleIngestionStatus)
		r.Get("/schema", s.handleSchema)
		r.Get("/query-history", s.handleQueryHistory)
		r.Get("/metrics", s.handleMetrics)
		r.Delete("/cache", s.handleClearCache)
	})

	r.Get("/", s.handleRoot)

	return r
}

// ListenAndServe blocks until the listener stops
func (s *Server) ListenAndServe() error {
	s.logger.WithField("addr", s.http.Addr).Info("http server listening")

	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// Shutdown drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.WithFields(map[string]interface{}{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"elapsed_ms": time.Since(start).Milliseconds(),
		}).Debug("request handled")
	})
}

type connectRequest struct {
	ConnectionString string `json:"connection_string"`
}

type connectResponse struct {
	Connected bool   `json:"connected"`
	Dialect   string `json:"dialect"`
	Tables    int    `json:"tables"`
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest,
			errors.New(errors.ErrTypeValidation, "invalid JSON body"))
		return
	}

	if req.ConnectionString == "" {
		writeError(w, http.StatusBadRequest,
			errors.New(errors.ErrTypeValidation, "connection_string is required"))
		return
	}

	model, err := s.session.Connect(r.Context(), req.ConnectionString)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, connectResponse{
		Connected: true,
		Dialect:   model.Dialect,
		Tables:    len(model.Tables),
	})
}

type queryRequest struct {
	Query    string `json:"query"`
	UseCache *bool  `json:"use_cache,omitempty"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest,
			errors.New(errors.ErrTypeValidation, "invalid JSON body"))
		return
	}

	if req.Query == "" {
		writeError(w, http.StatusBadRequest,
			errors.New(errors.ErrTypeValidation, "query is required"))
		return
	}

	useCache := true
	if req.UseCache != nil {
		useCache = *req.UseCache
	}

	result, err := s.session.Query(r.Context(), req.Query, useCache)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type uploadResponse struct {
	JobID string `json:"job_id"`
	Files int    `json:"files"`
}

func (s *Server) handleUploadDocuments(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(s.cfg.Documents.MaxFileSizeMB) << 20
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeError(w, http.StatusBadRequest,
			errors.Wrap(err, errors.ErrTypeValidation, "invalid multipart form"))
		return
	}

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		writeError(w, http.StatusBadRequest,
			errors.New(errors.ErrTypeValidation, "no files provided under field 'files'"))
		return
	}

	files := make([]service.IngestFile, 0, len(fileHeaders))

	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest,
				errors.Wrapf(err, errors.ErrTypeValidation, "cannot read %s", fh.Filename))
			return
		}

		content, err := io.ReadAll(io.LimitReader(f, maxBytes))
		_ = f.Close()

		if err != nil {
			writeError(w, http.StatusBadRequest,
				errors.Wrapf(err, errors.ErrTypeValidation, "cannot read %s", fh.Filename))
			return
		}

		files = append(files, service.IngestFile{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Content:     content,
		})
	}

	jobID := s.session.StartIngestion(files)

	writeJSON(w, http.StatusAccepted, uploadResponse{JobID: jobID, Files: len(files)})
}

func (s *Server) handleIngestionStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	job, ok := s.session.JobStatus(jobID)
	if !ok {
		writeError(w, http.StatusNotFound,
			errors.Newf(errors.ErrTypeValidation, "unknown ingestion job: %s", jobID))
		return
	}

	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleSchema(w http.ResponseWriter, _ *http.Request) {
	model := s.session.Schema()
	if model == nil {
		writeError(w, http.StatusBadRequest,
			errors.New(errors.ErrTypeConnection, "database not connected"))
		return
	}

	writeJSON(w, http.StatusOK, model)
}

func (s *Server) handleQueryHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"recent_queries": s.session.Cache().RecentQueries(20),
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"cache":     s.session.Cache().Statistics(),
		"documents": s.session.Documents().Stats(),
		"connected": s.session.Connected(),
	})
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	if pattern := r.URL.Query().Get("pattern"); pattern != "" {
		removed := s.session.Cache().InvalidatePattern(pattern)
		writeJSON(w, http.StatusOK, map[string]interface{}{"removed": removed})

		return
	}

	s.session.Cache().Clear()
	writeJSON(w, http.StatusOK, map[string]interface{}{"cleared": true})
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service":   "querylens",
		"connected": s.session.Connected(),
	})
}

type errorResponse struct {
	Error       string   `json:"error"`
	Type        string   `json:"type,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := errorResponse{Error: err.Error()}

	var appErr *errors.Error
	if errors.AsError(err, &appErr) {
		resp.Type = string(appErr.Type)
		resp.Suggestions = appErr.Suggestions
	}

	writeJSON(w, status, resp)
}

// statusFor maps the error taxonomy onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.IsType(err, errors.ErrTypeValidation):
		return http.StatusBadRequest
	case errors.IsType(err, errors.ErrTypeConnection):
		return http.StatusBadRequest
	case errors.IsType(err, errors.ErrTypeNoSchema):
		return http.StatusConflict
	case errors.IsType(err, errors.ErrTypeIntrospection):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
