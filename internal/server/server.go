package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/unrolled/render"
	"go.uber.org/zap"

	"github.com/arwahdevops/dbcompare/internal/compare"
	"github.com/arwahdevops/dbcompare/internal/config"
	"github.com/arwahdevops/dbcompare/internal/differ"
	"github.com/arwahdevops/dbcompare/internal/filter"
	"github.com/arwahdevops/dbcompare/internal/generator"
	"github.com/arwahdevops/dbcompare/internal/metrics"
	"github.com/arwahdevops/dbcompare/internal/schema"
)

const maxRequestBody = 16 << 20

// Response is the envelope for errors.
type Response struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// CompareRequest is the body of POST /v1/diff and POST /v1/sync.
type CompareRequest struct {
	Dialect              string `json:"dialect"`
	LeftDDL              string `json:"left_ddl"`
	RightDDL             string `json:"right_ddl"`
	CaseInsensitiveNames *bool  `json:"case_insensitive_names,omitempty"`
	ApplyTo              string `json:"apply_to,omitempty"`
}

type DiffResponse struct {
	Dialect   schema.Dialect     `json:"dialect"`
	Identical bool               `json:"identical"`
	Counts    map[string]int     `json:"counts"`
	Diff      *differ.ObjectDiff `json:"diff"`
}

type SyncResponse struct {
	Dialect    schema.Dialect `json:"dialect"`
	SQL        string         `json:"sql"`
	Statements int            `json:"statements"`
}

type Server struct {
	cfg     *config.Config
	metrics *metrics.Store
	filter  *filter.Filter
	logger  *zap.Logger
	rd      *render.Render
	ready   atomic.Bool
}

func New(cfg *config.Config, store *metrics.Store, f *filter.Filter, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:     cfg,
		metrics: store,
		filter:  f,
		logger:  logger.Named("http-server"),
		rd:      render.New(render.Options{IndentJSON: true}),
	}
}

// SetReady flips the /readyz answer.
func (s *Server) SetReady(v bool) { s.ready.Store(v) }

// Router builds the route table.
func (s *Server) Router() http.Handler {
	router := mux.NewRouter()
	router.Use(s.instrument)

	if s.metrics != nil {
		router.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	router.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)
	router.HandleFunc("/readyz", s.readyz).Methods(http.MethodGet)
	router.HandleFunc("/v1/diff", s.handleDiff).Methods(http.MethodPost)
	router.HandleFunc("/v1/sync", s.handleSync).Methods(http.MethodPost)

	if s.cfg.EnablePprof {
		s.logger.Info("Enabling pprof endpoints on /debug/pprof/")
		router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		router.HandleFunc("/debug/pprof/profile", pprof.Profile)
		router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		router.HandleFunc("/debug/pprof/trace", pprof.Trace)
		router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	}
	return router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.MetricsPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.SetReady(true)

	select {
	case err := <-errCh:
		s.SetReady(false)
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.SetReady(false)
	s.logger.Info("Shutting down HTTP server due to context cancellation...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server graceful shutdown failed: %w", err)
	}
	s.logger.Info("HTTP server gracefully stopped")
	return nil
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.rd.Text(w, http.StatusOK, "OK\n")
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	if !s.ready.Load() {
		s.rd.Text(w, http.StatusServiceUnavailable, "Not Ready\n")
		return
	}
	s.rd.Text(w, http.StatusOK, "Ready\n")
}

func (s *Server) handleDiff(w http.ResponseWriter, r *http.Request) {
	req, c, left, right, ok := s.prepare(w, r)
	if !ok {
		return
	}
	res, err := c.Diff(r.Context(), left, right)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Debug("Served diff", zap.String("dialect", req.Dialect), zap.Bool("identical", res.Diff.IsEmpty()))
	s.rd.JSON(w, http.StatusOK, DiffResponse{
		Dialect:   res.Dialect,
		Identical: res.Diff.IsEmpty(),
		Counts:    res.Diff.Counts(),
		Diff:      res.Diff,
	})
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	_, c, left, right, ok := s.prepare(w, r)
	if !ok {
		return
	}
	res, err := c.Sync(r.Context(), left, right)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.rd.JSON(w, http.StatusOK, SyncResponse{
		Dialect:    res.Dialect,
		SQL:        res.SQL,
		Statements: res.Script.StatementCount(),
	})
}

// prepare decodes the body and builds the comparer and both sources. It writes
// the error response itself and reports ok=false when the request is invalid.
func (s *Server) prepare(w http.ResponseWriter, r *http.Request) (CompareRequest, *compare.Comparer, compare.Source, compare.Source, bool) {
	var req CompareRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.rd.JSON(w, http.StatusBadRequest, Response{Code: http.StatusBadRequest, Message: fmt.Sprintf("invalid request body: %v", err)})
		return req, nil, compare.Source{}, compare.Source{}, false
	}
	if req.Dialect == "" {
		req.Dialect = s.cfg.Dialect
	}
	d, err := schema.ParseDialect(req.Dialect)
	if err != nil {
		s.rd.JSON(w, http.StatusBadRequest, Response{Code: http.StatusBadRequest, Message: err.Error()})
		return req, nil, compare.Source{}, compare.Source{}, false
	}

	applyTo := s.cfg.ApplyTo
	switch config.ApplyTo(req.ApplyTo) {
	case "":
	case config.ApplyToLeft, config.ApplyToRight:
		applyTo = config.ApplyTo(req.ApplyTo)
	default:
		s.rd.JSON(w, http.StatusBadRequest, Response{Code: http.StatusBadRequest, Message: fmt.Sprintf("invalid apply_to %q, must be left or right", req.ApplyTo)})
		return req, nil, compare.Source{}, compare.Source{}, false
	}
	ci := s.cfg.CaseInsensitiveNames
	if req.CaseInsensitiveNames != nil {
		ci = *req.CaseInsensitiveNames
	}

	c := compare.New(compare.Options{
		CaseInsensitiveNames: ci,
		ApplyTo:              applyTo,
		Filter:               s.filter,
		Metrics:              s.metrics,
	}, s.logger)
	left := compare.Source{Label: "left", Dialect: d, DDL: req.LeftDDL}
	right := compare.Source{Label: "right", Dialect: d, DDL: req.RightDDL}
	return req, c, left, right, true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	var unsupported *generator.UnsupportedDialectError
	var cross *compare.CrossDialectComparisonError
	switch {
	case errors.As(err, &unsupported):
		code = http.StatusUnprocessableEntity
	case errors.As(err, &cross):
		code = http.StatusBadRequest
	default:
		s.logger.Error("Comparison failed", zap.Error(err))
	}
	s.rd.JSON(w, code, Response{Code: code, Message: err.Error()})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		s.metrics.RecordRequest(route, strconv.Itoa(rec.status))
	})
}
