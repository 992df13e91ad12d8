package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ppiankov/donotmiss/internal/model"
	"github.com/ppiankov/donotmiss/internal/pipeline"
)

const maxRequestBytes = 1 << 20

// Detector runs one extraction call
type Detector interface {
	Detect(ctx context.Context, ec model.ExtractionContext) *pipeline.Result
}

// Server exposes task detection over HTTP
type Server struct {
	router   *chi.Mux
	addr     string
	detector Detector
	logger   *zap.Logger
	now      func() time.Time
}

// AnalyzeRequest is the body of POST /api/analyze-tasks
type AnalyzeRequest struct {
	Text     string         `json:"text"`
	Source   string         `json:"source"`
	URL      string         `json:"url"`
	Metadata map[string]any `json:"metadata"`
}

// AnalyzeResponse is the reply of POST /api/analyze-tasks
type AnalyzeResponse struct {
	Tasks []model.Task `json:"tasks"`
	Count int          `json:"count"`
	Error string       `json:"error,omitempty"`
}

func NewServer(addr string, detector Detector, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(requestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(allowCrossOrigin)

	s := &Server{
		router:   router,
		addr:     addr,
		detector: detector,
		logger:   logger,
		now:      time.Now,
	}

	router.Get("/health", s.health)
	router.Handle("/metrics", promhttp.Handler())
	router.Post("/api/analyze-tasks", s.analyzeTasks)

	return s
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API server starting", zap.String("addr", s.addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("API server stopping")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) analyzeTasks(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, AnalyzeResponse{
			Tasks: []model.Task{},
			Error: fmt.Sprintf("invalid request body: %v", err),
		})
		return
	}

	source := req.Source
	if source == "" {
		source = model.SourceFromURL(req.URL)
	}

	result := s.detector.Detect(r.Context(), model.ExtractionContext{
		Text:     req.Text,
		Source:   source,
		URL:      req.URL,
		Metadata: req.Metadata,
	})

	writeJSON(w, http.StatusOK, AnalyzeResponse{
		Tasks: result.Tasks,
		Count: len(result.Tasks),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// allowCrossOrigin lets the browser extension call the API from any page
func allowCrossOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info("request",
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)))
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
