// Package preview serves a generated catalog locally and regenerates it when
// the contracts change.
package preview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/contractcatalog/internal/logfields"
	"git.home.luguber.info/inful/contractcatalog/internal/metrics"
	"git.home.luguber.info/inful/contractcatalog/internal/site"
)

// Generator regenerates the site.
type Generator interface {
	Generate(ctx context.Context) (*site.Report, error)
}

// Options configures a preview Server.
type Options struct {
	ContractsDir string
	OutputDir    string
	Addr         string        // listen address, default 127.0.0.1:8080
	Interval     time.Duration // periodic rebuild, zero disables
	Registry     *prom.Registry
}

// Server serves OutputDir and rebuilds on contract changes.
type Server struct {
	opts   Options
	gen    Generator
	status *buildStatus

	mu       sync.Mutex
	listener net.Listener
}

// New creates a preview server.
func New(gen Generator, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = "127.0.0.1:8080"
	}
	if opts.Registry == nil {
		opts.Registry = prom.NewRegistry()
	}
	return &Server{opts: opts, gen: gen, status: &buildStatus{}}
}

// resolveContractsDir validates and resolves the absolute path of the contracts directory.
func resolveContractsDir(dir string) (string, error) {
	if dir == "" {
		return "", errors.New("preview requires a contracts directory")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve contracts dir: %w", err)
	}
	if st, statErr := os.Stat(abs); statErr != nil || !st.IsDir() {
		return "", fmt.Errorf("contracts dir not found or not a directory: %s", abs)
	}
	return abs, nil
}

// Handler serves the site, /metrics and a build status page while no good build exists.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(s.opts.Registry))
	files := http.FileServer(http.Dir(s.opts.OutputDir))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if hasError, err, good := s.status.getStatus(); hasError && !good {
			http.Error(w, "catalog generation failed: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		files.ServeHTTP(w, r)
	})
	return mux
}

// Addr returns the bound address once Run is listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run builds once, then serves and watches until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	root, err := resolveContractsDir(s.opts.ContractsDir)
	if err != nil {
		return err
	}

	s.rebuild(ctx)

	watcher, err := setupFileWatcher(root)
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Preview server failed", logfields.Error(err))
		}
	}()
	slog.Info("Preview server listening", logfields.URL("http://"+ln.Addr().String()))

	rebuildReq, trigger := newDebouncer(debounceDelay)
	done := s.startRebuildWorker(ctx, rebuildReq)

	if s.opts.Interval > 0 {
		sched, err := newScheduler(s.opts.Interval, trigger)
		if err != nil {
			_ = srv.Close()
			return err
		}
		sched.start()
		defer func() { _ = sched.stop() }()
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("Shutting down preview server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Warn("HTTP server shutdown error", logfields.Error(err))
			}
			<-done
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			handleFileEvent(watcher, ev, trigger)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", logfields.Error(err))
		}
	}
}

// startRebuildWorker processes rebuild requests one at a time, coalescing
// requests that arrive while a rebuild is running.
func (s *Server) startRebuildWorker(ctx context.Context, rebuildReq chan struct{}) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case <-rebuildReq:
				slog.Info("Change detected; regenerating catalog")
				s.rebuild(ctx)
			}
		}
	}()
	return done
}

func (s *Server) rebuild(ctx context.Context) {
	rep, err := s.gen.Generate(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Warn("regeneration failed", logfields.Error(err))
		s.status.setError(err)
		return
	}
	s.status.setSuccess()
	slog.Info("Catalog regenerated", logfields.RunID(rep.RunID), logfields.Count(len(rep.Pages)))
}
