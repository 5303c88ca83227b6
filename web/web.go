// Package web serves the ledger analytics over a JSON HTTP API.
//
// Every request reads the current snapshot from a ledger.Cache, which
// reloads the ledger when the root file or any include changed on disk.
// With watching enabled, file changes also push a "reload" event to
// clients connected to /api/events.
//
// SECURITY WARNING: This server has no authentication and should only be
// bound to localhost (127.0.0.1). Do not expose it to untrusted networks.
package web

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/robinvdvleuten/ourfinance/forecast"
	"github.com/robinvdvleuten/ourfinance/ledger"
	"github.com/robinvdvleuten/ourfinance/metrics"
	"github.com/robinvdvleuten/ourfinance/report"
	"github.com/robinvdvleuten/ourfinance/telemetry"
)

// ForecastDefaults fill in forecast parameters a request leaves out.
type ForecastDefaults struct {
	Window      int
	Horizon     int
	Granularity report.Granularity
	Currency    string
	Scenarios   []forecast.Scenario
}

type Server struct {
	Host            string
	Port            int
	Version         string
	CommitSHA       string
	WatchEnabled    bool
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	Forecast        ForecastDefaults

	ledgerFile string
	cache      *ledger.Cache
	metrics    *metrics.Metrics
	gatherer   prometheus.Gatherer
	logger     zerolog.Logger
	now        func() time.Time

	// watched lists the files currently registered with the watcher.
	mu      sync.Mutex
	watched []string

	// SSE clients for broadcasting reload events
	sseClients map[chan string]struct{}
	sseMu      sync.Mutex
	done       chan struct{}
	closeOnce  sync.Once
}

// Option configures a Server.
type Option func(*Server)

// WithAddress sets the listen host and port.
func WithAddress(host string, port int) Option {
	return func(s *Server) {
		s.Host = host
		s.Port = port
	}
}

// WithVersion sets the version reported by /api/status.
func WithVersion(version, commitSHA string) Option {
	return func(s *Server) {
		s.Version = version
		s.CommitSHA = commitSHA
	}
}

// WithLogger sets the logger for requests, reloads and watcher errors.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithRegistry registers the server's metrics with reg and serves reg on
// /metrics.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.metrics = metrics.New(reg)
		s.gatherer = reg
	}
}

// WithWatch enables reloading on file changes.
func WithWatch(enabled bool) Option {
	return func(s *Server) { s.WatchEnabled = enabled }
}

// WithTimeouts sets the HTTP read, write and shutdown timeouts.
func WithTimeouts(read, write, shutdown time.Duration) Option {
	return func(s *Server) {
		s.ReadTimeout = read
		s.WriteTimeout = write
		s.ShutdownTimeout = shutdown
	}
}

// WithForecastDefaults sets the parameters used when a forecast request
// omits them.
func WithForecastDefaults(defaults ForecastDefaults) Option {
	return func(s *Server) { s.Forecast = defaults }
}

// WithClock replaces the clock used for default as-of dates.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a server for the ledger at ledgerFile.
func New(ledgerFile string, opts ...Option) *Server {
	s := &Server{
		Host:            "127.0.0.1",
		Port:            8080,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		Forecast: ForecastDefaults{
			Window:      12,
			Horizon:     12,
			Granularity: report.Monthly,
		},
		ledgerFile: ledgerFile,
		logger:     zerolog.Nop(),
		now:        time.Now,
		sseClients: make(map[chan string]struct{}),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		reg := prometheus.NewRegistry()
		s.metrics = metrics.New(reg)
		s.gatherer = reg
	}
	s.cache = ledger.NewCache(
		ledger.WithObserver(s.metrics),
		ledger.WithLogger(s.logger),
	)
	return s
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Start loads the ledger, starts the watcher when enabled and serves HTTP
// until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	timer := telemetry.StartTimer(ctx, fmt.Sprintf("web.start %s", s.Addr()))

	if s.ledgerFile == "" {
		timer.End()
		return fmt.Errorf("ledger file is required")
	}

	snapshot, err := s.cache.Get(ctx, s.ledgerFile)
	if err != nil {
		timer.End()
		return err
	}
	s.metrics.ObserveSnapshot(snapshot.Len(), len(snapshot.Warnings()))

	if s.WatchEnabled {
		watcher, err := s.startWatcher(snapshot.Files())
		if err != nil {
			timer.End()
			return fmt.Errorf("failed to start file watcher: %w", err)
		}
		go s.runWatcher(ctx, watcher)
	}

	server := &http.Server{
		Addr:         s.Addr(),
		Handler:      s.Handler(),
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
	}
	timer.End()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", server.Addr).Str("ledger", s.ledgerFile).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down server")
	s.closeOnce.Do(func() { close(s.done) })

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// Handler returns the API routes wrapped in recovery and request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	s.handle(mux, "GET /api/status", s.handleGetStatus)
	s.handle(mux, "GET /api/accounts", s.handleGetAccounts)
	s.handle(mux, "GET /api/balances", s.handleGetBalances)
	s.handle(mux, "GET /api/networth", s.handleGetNetWorth)
	s.handle(mux, "GET /api/income", s.handleGetIncome)
	s.handle(mux, "GET /api/journal", s.handleGetJournal)
	s.handle(mux, "POST /api/forecast", s.handlePostForecast)
	s.handle(mux, "GET /api/health", s.handleGetHealth)
	s.handle(mux, "GET /api/events", s.handleSSE)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	return Recovery(s.logger, NewLoggingMiddleware(s.logger).Wrap(mux))
}

// handle registers h under pattern, labelled in metrics by its path.
func (s *Server) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	route := pattern[strings.IndexByte(pattern, ' ')+1:]
	mux.Handle(pattern, s.metrics.Instrument(route, h))
}

// snapshot returns the current snapshot, writing an error response when
// the ledger cannot be loaded.
func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) (*ledger.Snapshot, bool) {
	snapshot, err := s.cache.Get(r.Context(), s.ledgerFile)
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return snapshot, true
}

// today is the default as-of date.
func (s *Server) today() ledger.Date {
	return ledger.DateOf(s.now())
}

// StatusResponse describes the loaded ledger.
type StatusResponse struct {
	Version      string         `json:"version"`
	CommitSHA    string         `json:"commit_sha"`
	File         string         `json:"file"`
	Files        []string       `json:"files"`
	LoadedAt     time.Time      `json:"mod_time"`
	Transactions int            `json:"transactions"`
	Skipped      int            `json:"skipped"`
	Currency     string         `json:"currency"`
	Span         *DateSpan      `json:"span,omitempty"`
	Warnings     []ErrorPayload `json:"warnings"`
}

// DateSpan is the range between the first and last transaction.
type DateSpan struct {
	From ledger.Date `json:"from"`
	To   ledger.Date `json:"to"`
}

// handleGetStatus handles GET requests to /api/status.
func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := s.snapshot(w, r)
	if !ok {
		return
	}

	response := &StatusResponse{
		Version:      s.Version,
		CommitSHA:    s.CommitSHA,
		File:         snapshot.Path(),
		Files:        snapshot.Files(),
		LoadedAt:     snapshot.ModTime(),
		Transactions: snapshot.Len(),
		Skipped:      snapshot.Skipped(),
		Currency:     snapshot.PrimaryCurrency(),
		Warnings:     errorPayloads(snapshot.Warnings()),
	}
	if span, ok := snapshot.DateSpan(); ok {
		response.Span = &DateSpan{From: span.From, To: span.To}
	}
	writeJSONResponse(w, response)
}

// startWatcher creates a watcher for the root file and all includes.
func (s *Server) startWatcher(files []string) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	s.updateWatches(watcher, files)
	return watcher, nil
}

// updateWatches swaps the watch list to files. Files that are still
// present are re-added to catch files re-created by atomic saves.
func (s *Server) updateWatches(watcher *fsnotify.Watcher, files []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := make(map[string]bool, len(files))
	for _, file := range files {
		current[file] = true
	}
	for _, file := range s.watched {
		if !current[file] {
			_ = watcher.Remove(file)
		}
	}
	for _, file := range files {
		if err := watcher.Add(file); err != nil {
			s.logger.Warn().Err(err).Str("file", file).Msg("failed to watch file")
		}
	}
	s.watched = files
}

// runWatcher processes file system events with debouncing.
func (s *Server) runWatcher(ctx context.Context, watcher *fsnotify.Watcher) {
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		_ = watcher.Close()
	}()

	// Editors often write files in multiple steps.
	const debounceDelay = 100 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			// Remove and Rename are common in atomic saves.
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			s.logger.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("ledger file changed")

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDelay, func() {
				s.handleFileChange(ctx, watcher)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Error().Err(err).Msg("file watcher error")
		}
	}
}

// handleFileChange reloads the ledger, refreshes the watch list and
// notifies SSE clients.
func (s *Server) handleFileChange(ctx context.Context, watcher *fsnotify.Watcher) {
	s.cache.Invalidate(s.ledgerFile)

	snapshot, err := s.reload(ctx)
	if err != nil {
		s.logger.Error().Err(err).Str("ledger", s.ledgerFile).Msg("failed to reload ledger")
		s.broadcast("error")
		return
	}

	s.metrics.ObserveSnapshot(snapshot.Len(), len(snapshot.Warnings()))
	s.updateWatches(watcher, snapshot.Files())
	s.logger.Info().
		Int("transactions", snapshot.Len()).
		Int("warnings", len(snapshot.Warnings())).
		Msg("ledger reloaded")

	s.broadcast("reload")
}

// reload loads the ledger, retrying while a file is missing. Atomic saves
// briefly remove the file being replaced; syntax errors are not retried.
func (s *Server) reload(ctx context.Context) (*ledger.Snapshot, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond
	b.MaxElapsedTime = 3 * time.Second

	var snapshot *ledger.Snapshot
	err := backoff.Retry(func() error {
		var err error
		snapshot, err = s.cache.Get(ctx, s.ledgerFile)
		if err == nil {
			return nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug().Err(err).Msg("ledger file missing, retrying")
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(b, ctx))

	return snapshot, err
}

// handleSSE handles Server-Sent Events connections for real-time updates.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	clientChan := make(chan string, 10)

	s.sseMu.Lock()
	s.sseClients[clientChan] = struct{}{}
	s.sseMu.Unlock()

	defer func() {
		s.sseMu.Lock()
		delete(s.sseClients, clientChan)
		s.sseMu.Unlock()
	}()

	_, _ = fmt.Fprintf(w, "data: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.done:
			return
		case event := <-clientChan:
			_, _ = fmt.Fprintf(w, "data: %s\n\n", event)
			flusher.Flush()
		}
	}
}

// broadcast sends an event to all connected SSE clients.
func (s *Server) broadcast(event string) {
	s.sseMu.Lock()
	defer s.sseMu.Unlock()

	for clientChan := range s.sseClients {
		select {
		case clientChan <- event:
		default:
			// Client buffer full, skip
		}
	}
}
