// Package http exposes the filing service API: upload registration,
// workbook assembly, verification runs and the dashboard views.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"camate/internal/cache"
	"camate/internal/middleware/ratelimit"
	"camate/internal/middleware/security"
	"camate/internal/middleware/trace"
	"camate/internal/storage"
	appweb "camate/web"
)

// Repository is the slice of the storage layer the handlers need.
type Repository interface {
	CreateUpload(ctx context.Context, u storage.Upload) error
	GetUpload(ctx context.Context, id string) (*storage.Upload, error)
	ListUploads(ctx context.Context) ([]storage.Upload, error)
	ReceivedUploads(ctx context.Context) ([]storage.Upload, error)
	SetUploadSheet(ctx context.Context, id, sheet string) error
	MarkUploadReceived(ctx context.Context, id string, sizeBytes int64) error
	CreateRun(ctx context.Context, run storage.Run) error
	GetRun(ctx context.Context, id string) (*storage.Run, error)
}

// BlobStore reads and writes uploaded files and run artifacts.
type BlobStore interface {
	Put(key string, data []byte) error
	Get(key string) ([]byte, error)
	Exists(key string) bool
	DownloadURL(key string) string
}

// RunPublisher queues a run for the verification worker.
type RunPublisher interface {
	PublishRun(ctx context.Context, runID, gstin, period string) error
}

type Server struct {
	http.Server
	templates *template.Template
	repo      Repository
	blobs     BlobStore
	queue     RunPublisher

	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware
	headers  *security.HeadersMiddleware
	detector *security.Detector

	// Rendered dashboards for completed runs. Completed runs never
	// change, so entries only expire, they are never invalidated.
	dashCache *cache.LRUCache[string]
	cacheMgr  *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates. queue may be
// nil; runs are then picked up by the worker's database poll alone.
func NewServer(addr string, repo Repository, blobs BlobStore, queue RunPublisher) *Server {
	mux := http.NewServeMux()

	detector := security.NewDetector()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		repo:      repo,
		blobs:     blobs,
		queue:     queue,
		limiter:   ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		tracer:    trace.NewMiddleware(detector.ExtractClientIP),
		headers:   security.NewHeadersMiddleware(security.DefaultHeadersConfig()),
		detector:  detector,
		dashCache: cache.NewLRUCache[string](100, 5*time.Minute),
		cacheMgr:  cache.NewManager(),
	}
	s.cacheMgr.Register(s.dashCache)
	s.cacheMgr.StartCleanup(10 * time.Minute)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/summary", s.handleSummary)

	mux.HandleFunc("POST /api/uploads", s.limited(s.handleCreateUpload))
	mux.HandleFunc("GET /api/uploads", s.handleListUploads)
	mux.HandleFunc("PUT /api/uploads/{id}/content", s.limited(s.handleUploadContent))
	mux.HandleFunc("PATCH /api/uploads/{id}/sheet", s.handleSetUploadSheet)

	mux.HandleFunc("POST /api/workbook", s.limited(s.handleBuildWorkbook))

	mux.HandleFunc("POST /api/runs", s.limited(s.handleCreateRun))
	mux.HandleFunc("GET /api/runs/{id}", s.handleGetRun)
	mux.HandleFunc("GET /api/runs/{id}/portal.json", s.handleRunPortal)

	mux.HandleFunc("GET /download/{key...}", s.handleDownload)

	mux.HandleFunc("GET /runs/{id}/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /{$}", s.handleIndex)

	s.Server.Handler = s.tracer.Middleware(s.headers.Middleware(s.suspicious(mux)))
	return s
}

// suspicious logs requests matching known probe patterns. They are
// logged and counted, not blocked.
func (s *Server) suspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			slog.WarnContext(r.Context(), "Suspicious request detected",
				"client_ip", s.detector.ExtractClientIP(r),
				"method", r.Method,
				"path", r.URL.Path)
		}
		next.ServeHTTP(w, r)
	})
}

// limited wraps mutating handlers with the per-client rate limiter.
func (s *Server) limited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := s.detector.ExtractClientIP(r)
		if !s.limiter.Allow(ip) {
			slog.WarnContext(r.Context(), "Rate limit exceeded",
				"client_ip", ip,
				"method", r.Method,
				"path", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

// Shutdown stops the cleanup goroutines and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheMgr.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
