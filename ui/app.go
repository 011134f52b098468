package ui

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gokw/domain/core"
	"gokw/domain/stats"
	"gokw/internal"
	"gokw/internal/report"
	"gokw/ports"
)

//go:embed templates/*.html
var embeddedFiles embed.FS

// listLimit caps the runs shown on the index page
const listLimit = 100

// App serves HTML reports of persisted comparison runs
type App struct {
	router    *chi.Mux
	config    Config
	runs      ports.RunRepository
	templates *template.Template
	logger    *internal.Logger
}

// Config holds UI application configuration
type Config struct {
	Port        string
	TopFeatures int
}

// NewApp creates the report viewer over a run repository
func NewApp(config Config, runs ports.RunRepository, logger *internal.Logger) (*App, error) {
	if runs == nil {
		return nil, fmt.Errorf("run repository is required")
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if config.TopFeatures <= 0 {
		config.TopFeatures = report.DefaultTopFeatures
	}

	funcMap := template.FuncMap{
		"short": func(id core.RunID) string {
			s := id.String()
			if len(s) > 8 {
				return s[:8]
			}
			return s
		},
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	app := &App{
		router:    chi.NewRouter(),
		config:    config,
		runs:      runs,
		templates: templates,
		logger:    logger.WithComponent("UI"),
	}

	app.setupMiddleware()
	app.setupRoutes()

	return app, nil
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/", a.handleIndex)
	a.router.Get("/runs/{id}", a.handleRun)
	a.router.Get("/runs/{id}/report.md", a.handleRunMarkdown)
}

// Handler exposes the router, mainly for tests
func (a *App) Handler() http.Handler {
	return a.router
}

// Start serves until ctx is cancelled
func (a *App) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.config.Port,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	a.logger.Info("report viewer listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type indexPage struct {
	Runs []stats.RunSummary
}

type runPage struct {
	Run    *stats.Run
	Report template.HTML
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	runs, err := a.runs.ListRuns(r.Context(), listLimit)
	if err != nil {
		a.logger.Error("list runs: %v", err)
		http.Error(w, "failed to list runs", http.StatusInternalServerError)
		return
	}
	a.renderTemplate(w, "index.html", indexPage{Runs: runs})
}

func (a *App) handleRun(w http.ResponseWriter, r *http.Request) {
	run, ok := a.lookupRun(w, r)
	if !ok {
		return
	}
	body := report.HTML(report.Markdown(run, a.config.TopFeatures))
	a.renderTemplate(w, "run.html", runPage{Run: run, Report: template.HTML(body)})
}

func (a *App) handleRunMarkdown(w http.ResponseWriter, r *http.Request) {
	run, ok := a.lookupRun(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write(report.Markdown(run, 0))
}

func (a *App) lookupRun(w http.ResponseWriter, r *http.Request) (*stats.Run, bool) {
	id, err := core.ParseRunID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	run, err := a.runs.GetRun(r.Context(), id)
	if errors.Is(err, core.ErrRunNotFound) {
		http.NotFound(w, r)
		return nil, false
	}
	if err != nil {
		a.logger.Error("get run %s: %v", id, err)
		http.Error(w, "failed to load run", http.StatusInternalServerError)
		return nil, false
	}
	return run, true
}

func (a *App) renderTemplate(w http.ResponseWriter, templateName string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := a.templates.ExecuteTemplate(w, templateName, data); err != nil {
		a.logger.Error("template %s: %v", templateName, err)
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}
