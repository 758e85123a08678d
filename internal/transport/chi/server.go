// Package chi exposes the ops HTTP surface: health, metrics and
// reconciliation triggers.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/syncdex/internal/domain"
	"github.com/kailas-cloud/syncdex/internal/domain/querylog"
	"github.com/kailas-cloud/syncdex/internal/index"
	logpkg "github.com/kailas-cloud/syncdex/internal/logger"
	"github.com/kailas-cloud/syncdex/internal/metrics"
	queryuc "github.com/kailas-cloud/syncdex/internal/usecase/query"
	reconcileuc "github.com/kailas-cloud/syncdex/internal/usecase/reconcile"
)

const maxQueryBytes = 1 << 20

// Reconciler drives bulk index maintenance.
type Reconciler interface {
	Populate(ctx context.Context, idx string) (reconcileuc.Report, error)
	Prune(ctx context.Context, idx string) (reconcileuc.Report, error)
	Rebuild(ctx context.Context, idx string) (reconcileuc.Report, error)
	CreateIndex(ctx context.Context, idx string) error
	DeleteIndex(ctx context.Context, idx string) error
}

// Executor runs raw queries against the remote engine.
type Executor interface {
	Search(ctx context.Context, idx string, query json.RawMessage, opts ...queryuc.Option) (querylog.QueryLog, error)
	Count(ctx context.Context, idx string, query json.RawMessage, opts ...queryuc.Option) (querylog.QueryLog, error)
}

// IndexNames lists the configured index names for _all fan-out.
type IndexNames interface {
	Names() []string
}

// Pinger checks a dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the ops HTTP API.
type Server struct {
	reconciler Reconciler
	executor   Executor
	names      IndexNames
	engine     Pinger
	db         Pinger
	logger     *zap.Logger
}

// NewServer creates an ops HTTP server.
func NewServer(
	reconciler Reconciler, executor Executor, names IndexNames, engine Pinger, logger *zap.Logger,
) *Server {
	return &Server{reconciler: reconciler, executor: executor, names: names, engine: engine, logger: logger}
}

// WithDB adds a database health probe to /healthz.
func (s *Server) WithDB(db Pinger) *Server {
	s.db = db
	return s
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(requestLog(s.logger))
	r.Use(metrics.Middleware())

	r.Get("/healthz", s.health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/reconcile/{index}", func(r chi.Router) {
		r.Post("/populate", s.runReport("populate", s.reconciler.Populate))
		r.Post("/prune", s.runReport("prune", s.reconciler.Prune))
		r.Post("/rebuild", s.runReport("rebuild", s.reconciler.Rebuild))
		r.Post("/create", s.runAdmin("create", s.reconciler.CreateIndex))
		r.Delete("/", s.runAdmin("delete", s.reconciler.DeleteIndex))
	})

	r.Post("/search/{index}", s.runQuery(s.executor.Search))
	r.Post("/count/{index}", s.runQuery(s.executor.Count))

	return r
}

type queryResponse struct {
	ID                int64           `json:"id,omitempty"`
	Index             string          `json:"index"`
	QueryType         string          `json:"query_type"`
	Hits              []querylog.Hit  `json:"hits"`
	Aggregations      json.RawMessage `json:"aggregations,omitempty"`
	TotalHits         int64           `json:"total_hits"`
	TotalHitsRelation string          `json:"total_hits_relation"`
	DurationMs        float64         `json:"duration_ms"`
}

// runQuery builds a handler around one executor operation. The request body
// is the raw engine query; pass ?save=false to skip the query log.
func (s *Server) runQuery(
	run func(ctx context.Context, idx string, query json.RawMessage, opts ...queryuc.Option) (querylog.QueryLog, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idx := chi.URLParam(r, "index")

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxQueryBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "unreadable request body")
			return
		}

		var opts []queryuc.Option
		if r.URL.Query().Get("save") == "false" {
			opts = append(opts, queryuc.WithoutSave())
		}
		if user := r.URL.Query().Get("user"); user != "" {
			opts = append(opts, queryuc.WithUser(user))
		}
		if ref := r.URL.Query().Get("reference"); ref != "" {
			opts = append(opts, queryuc.WithReference(ref))
		}

		log, err := run(r.Context(), idx, body, opts...)
		if err != nil {
			if errors.Is(err, domain.ErrMissingQuery) {
				writeError(w, http.StatusBadRequest, "missing_query", "request body must contain a query")
				return
			}
			logpkg.FromContext(r.Context()).Error("Query execution failed",
				zap.String("index", idx), zap.Error(err))
			s.writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, queryResponse{
			ID:                log.ID,
			Index:             log.Index,
			QueryType:         string(log.QueryType),
			Hits:              log.Hits,
			Aggregations:      log.Aggregations,
			TotalHits:         log.TotalHits,
			TotalHitsRelation: string(log.TotalHitsRelation),
			DurationMs:        float64(log.Duration.Milliseconds()),
		})
	}
}

type healthResponse struct {
	Status   string `json:"status"`
	Engine   string `json:"engine"`
	Database string `json:"database,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Engine: "ok"}
	status := http.StatusOK
	if err := s.engine.Ping(ctx); err != nil {
		resp.Status = "degraded"
		resp.Engine = err.Error()
		status = http.StatusServiceUnavailable
	}
	if s.db != nil {
		resp.Database = "ok"
		if err := s.db.Ping(ctx); err != nil {
			resp.Status = "degraded"
			resp.Database = err.Error()
			status = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, status, resp)
}

type reportResponse struct {
	Index   string `json:"index"`
	Indexed int    `json:"indexed,omitempty"`
	Pruned  int    `json:"pruned,omitempty"`
	Failed  int    `json:"failed,omitempty"`
}

// runReport builds a handler for operations that return a Report. The "_all"
// sentinel fans out across every configured index here, keeping the usecase
// strictly single-index.
func (s *Server) runReport(
	op string, run func(ctx context.Context, idx string) (reconcileuc.Report, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := chi.URLParam(r, "index")

		indexes := []string{target}
		if target == domain.AllIndexes {
			indexes = s.names.Names()
		}

		out := make([]reportResponse, 0, len(indexes))
		for _, idx := range indexes {
			report, err := run(r.Context(), idx)
			if err != nil {
				logpkg.FromContext(r.Context()).Error("Reconcile operation failed",
					zap.String("operation", op),
					zap.String("index", idx),
					zap.Error(err),
				)
				s.writeDomainError(w, err)
				return
			}
			out = append(out, reportResponse{
				Index:   idx,
				Indexed: report.Indexed,
				Pruned:  report.Pruned,
				Failed:  report.Failed,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) runAdmin(op string, run func(ctx context.Context, idx string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := chi.URLParam(r, "index")

		indexes := []string{target}
		if target == domain.AllIndexes {
			indexes = s.names.Names()
		}

		for _, idx := range indexes {
			if err := run(r.Context(), idx); err != nil {
				logpkg.FromContext(r.Context()).Error("Index admin operation failed",
					zap.String("operation", op),
					zap.String("index", idx),
					zap.Error(err),
				)
				s.writeDomainError(w, err)
				return
			}
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrReservedIndex):
		writeError(w, http.StatusBadRequest, "reserved_index", err.Error())
	case errors.Is(err, domain.ErrIndexNotConfigured), errors.Is(err, domain.ErrNotRegistered):
		writeError(w, http.StatusNotFound, "not_configured", err.Error())
	case errors.Is(err, index.ErrIndexMissing):
		writeError(w, http.StatusNotFound, "index_missing", err.Error())
	case errors.Is(err, index.ErrIndexExists):
		writeError(w, http.StatusConflict, "index_exists", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "reconcile operation failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// requestLog emits a canonical log line per request and propagates
// X-Request-ID.
func requestLog(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.NewContext(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// One canonical log line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
