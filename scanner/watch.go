package scanner

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// WatchConfig configures continuous re-scanning.
type WatchConfig struct {
	// Options are the scan options applied on every run.
	Options Options
	// DebounceDelay is how long to wait for more changes before re-scanning.
	DebounceDelay time.Duration
	// ListenAddr, when non-empty, serves /metrics and /healthz.
	ListenAddr string
	// OnReport is invoked after every completed scan.
	OnReport func(*Report)
}

// Watcher re-runs the scanner whenever documentation or source changes.
type Watcher struct {
	scanner  *Scanner
	config   WatchConfig
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	metrics  *Metrics
	registry *prometheus.Registry

	pendingMu sync.Mutex
	pending   int
}

// NewWatcher creates a Watcher over the scanner's project root. Each watcher
// carries its own metrics registry so multiple watchers can coexist in one
// process.
func NewWatcher(s *Scanner, cfg WatchConfig) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if cfg.DebounceDelay == 0 {
		cfg.DebounceDelay = 500 * time.Millisecond
	}

	registry := prometheus.NewRegistry()
	return &Watcher{
		scanner:  s,
		config:   cfg,
		watcher:  fsw,
		logger:   s.logger,
		metrics:  NewMetrics(registry),
		registry: registry,
	}, nil
}

// Run watches until the context is cancelled. An initial scan runs before
// the first filesystem event.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	if err := w.addDirectories(); err != nil {
		return err
	}

	if w.config.ListenAddr != "" {
		go w.serve(ctx)
	}

	w.scan(ctx)

	ticker := time.NewTicker(w.config.DebounceDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watch error", slog.String("error", err.Error()))

		case <-ticker.C:
			w.pendingMu.Lock()
			pending := w.pending
			w.pending = 0
			w.pendingMu.Unlock()
			if pending > 0 {
				w.logger.Debug("Re-scanning after changes", slog.Int("events", pending))
				w.scan(ctx)
			}
		}
	}
}

func (w *Watcher) scan(ctx context.Context) {
	start := time.Now()
	report, err := w.scanner.Run(ctx, w.config.Options)
	if err != nil {
		w.metrics.ScanFailures.Inc()
		w.logger.Error("Scan failed", slog.String("error", err.Error()))
		return
	}

	w.metrics.Observe(report, time.Since(start).Seconds())

	if _, err := report.Write(w.scanner.root, w.config.Options.OutputPath); err != nil {
		w.logger.Error("Report write failed", slog.String("error", err.Error()))
	}

	w.logger.Info("Scan complete",
		slog.String("mode", string(w.config.Options.Mode)),
		slog.Float64("drift_percent", report.Summary.DriftPercent),
		slog.String("level", string(report.Summary.Level)))

	if w.config.OnReport != nil {
		w.config.OnReport(report)
	}
}

// handleEvent accumulates one filesystem event. Directory creation is
// handled before the extension filter: a directory name carries no
// extension, and missing it here would leave everything later written
// inside it invisible.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.watchNewDirectory(event.Name)
			return
		}
	}

	if w.relevant(event) {
		w.pendingMu.Lock()
		w.pending++
		w.pendingMu.Unlock()
	}
}

// watchNewDirectory registers a created directory with fsnotify, honoring
// the same skips as discovery.
func (w *Watcher) watchNewDirectory(path string) {
	name := filepath.Base(path)
	if skipDirs[name] || strings.HasPrefix(name, ".") {
		return
	}

	if err := w.watcher.Add(path); err != nil {
		w.logger.Warn("Failed to watch new directory",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return
	}

	// A directory renamed into place may already hold files.
	w.pendingMu.Lock()
	w.pending++
	w.pendingMu.Unlock()
}

// addDirectories registers the project tree with fsnotify, honoring the same
// directory skips as discovery.
func (w *Watcher) addDirectories() error {
	return filepath.WalkDir(w.scanner.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil || !entry.IsDir() {
			return nil
		}
		name := entry.Name()
		if path != w.scanner.root && (skipDirs[name] || strings.HasPrefix(name, ".")) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// relevant filters events down to files the scanner cares about.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) &&
		!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return false
	}

	rel, err := filepath.Rel(w.scanner.root, event.Name)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(rel, ".agent3d-tmp/") {
		return false
	}

	ext := filepath.Ext(rel)
	return ext == ".md" || ext == ".yml" || ext == ".yaml" || w.scanner.registry.Supports(ext)
}

func (w *Watcher) serve(ctx context.Context) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(w.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok"))
	})

	server := &http.Server{Addr: w.config.ListenAddr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	w.logger.Info("Serving metrics", slog.String("addr", w.config.ListenAddr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		w.logger.Error("Metrics server failed", slog.String("error", err.Error()))
	}
}
