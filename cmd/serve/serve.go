// Package serve implements the serve command: a local HTTP server exposing
// the rendered dashboard and a small JSON API over the latest snapshot.
package serve

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"

	"github.com/joshsymonds/beacon/internal/config"
	"github.com/joshsymonds/beacon/internal/filter"
	"github.com/joshsymonds/beacon/internal/models"
	"github.com/joshsymonds/beacon/internal/report"
	"github.com/joshsymonds/beacon/internal/stats"
	"github.com/joshsymonds/beacon/internal/storage"
	"github.com/joshsymonds/beacon/pkg/logger"
)

var (
	configFile string
	addr       string
	dataDir    string
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the security dashboard over HTTP",
		Long: `Serve the dashboard from the latest saved snapshot.

The server reads the newest snapshot on each request, so running
'beacon fetch' while the server is up refreshes the dashboard without
a restart.

Endpoints:
  GET /              Rendered HTML dashboard
  GET /api/summary   Aggregate metrics as JSON
  GET /api/findings  Findings as JSON, filterable by query params
  GET /api/accounts  Accounts as JSON
  GET /healthz       Liveness check`,
		Example: `  # Serve on the default address
  beacon serve

  # Serve on a specific port with a config file
  beacon serve --addr :9090 --config beacon.yaml`,
		RunE: runServe,
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to config file")
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Data directory path (overrides config)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.GetGlobalLogger()

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if dataDir != "" {
		cfg.Data.Dir = dataDir
	}

	srv := &server{
		cfg:   cfg,
		store: storage.NewStorageWithLogger(cfg.Data.Dir, log),
		log:   log,
		html: report.NewHTMLGenerator(report.Options{
			Logger:     log,
			AppBaseURL: cfg.API.AppURL,
			Title:      cfg.Report.Title,
		}),
	}

	log.Info("Starting dashboard server", "addr", cfg.Server.Addr, "data_dir", cfg.Data.Dir)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return httpServer.ListenAndServe()
}

type server struct {
	cfg   *config.Config
	store *storage.Storage
	log   logger.Logger
	html  *report.HTMLGenerator
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	origins := s.cfg.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", s.handleDashboard)
	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/summary", s.handleSummary)
		r.Get("/findings", s.handleFindings)
		r.Get("/accounts", s.handleAccounts)
	})

	return r
}

// latest loads the newest snapshot. Every handler goes through here so a new
// fetch shows up on the next request.
func (s *server) latest() (*models.Snapshot, error) {
	return s.store.LoadSnapshot("latest")
}

func (s *server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	snap, err := s.latest()
	if err != nil {
		// An empty dashboard beats an error page; the header shows zero
		// accounts and findings.
		s.log.Warn("No snapshot available, serving empty dashboard", "error", err)
		snap = &models.Snapshot{FetchedAt: time.Now()}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.html.Render(w, snap); err != nil {
		s.log.Error("Rendering dashboard", "error", err)
	}
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleSummary(w http.ResponseWriter, r *http.Request) {
	snap, err := s.latest()
	if err != nil {
		s.serveError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, struct {
		Metadata models.SnapshotMetadata `json:"metadata"`
		Summary  stats.Summary           `json:"summary"`
	}{
		Metadata: snap.Metadata(),
		Summary:  stats.Compute(snap.Findings, time.Now()),
	})
}

func (s *server) handleFindings(w http.ResponseWriter, r *http.Request) {
	snap, err := s.latest()
	if err != nil {
		s.serveError(w, r, err)
		return
	}

	f, err := filterFromQuery(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	findings := f.Apply(snap.Findings)
	filter.SortByPriorityThenCreated(findings)

	s.writeJSON(w, http.StatusOK, struct {
		Count    int              `json:"count"`
		Findings []models.Finding `json:"findings"`
	}{
		Count:    len(findings),
		Findings: findings,
	})
}

func (s *server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	snap, err := s.latest()
	if err != nil {
		s.serveError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, struct {
		Count    int              `json:"count"`
		Accounts []models.Account `json:"accounts"`
	}{
		Count:    len(snap.Accounts),
		Accounts: snap.Accounts,
	})
}

// filterFromQuery builds a findings filter from request query parameters.
// Supported: org, status, type (repeatable), priority (1-5, repeatable),
// since (RFC 3339 or YYYY-MM-DD).
func filterFromQuery(r *http.Request) (filter.Filter, error) {
	var f filter.Filter
	q := r.URL.Query()

	f.Orgs = q["org"]
	f.Statuses = q["status"]
	f.Types = q["type"]

	for _, raw := range q["priority"] {
		n, err := strconv.Atoi(raw)
		if err != nil || !models.Priority(n).IsValid() {
			return f, fmt.Errorf("invalid priority %q", raw)
		}
		f.Priorities = append(f.Priorities, models.Priority(n))
	}

	if raw := q.Get("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			t, err = time.Parse("2006-01-02", raw)
		}
		if err != nil {
			return f, fmt.Errorf("invalid since %q", raw)
		}
		f.Since = t
	}

	return f, nil
}

func (s *server) serveError(w http.ResponseWriter, r *http.Request, err error) {
	s.log.Error("Request failed", "path", r.URL.Path, "error", err)
	s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
		"error": "no snapshot available; run 'beacon fetch' first",
	})
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("Encoding response", "error", err)
	}
}

// Run executes the serve command.
func Run(args []string) error {
	cmd := NewServeCommand()
	cmd.SetArgs(args)
	return cmd.Execute()
}
