// Package server exposes the concierge over HTTP: the guest chat endpoint,
// a health check, and the operations dashboard with its JSON API.
package server

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Opts holds configuration for the HTTP handler.
type Opts struct {
	Router  Chatter
	Backend Backend

	AllowedOrigins     []string // defaults to ["*"]
	RateLimitPerMinute int      // chat requests per client per minute; 0 disables
	RateLimitBurst     int
	HotelName          string
	Currency           string
	// PollInterval is how often the dashboard event stream checks for new
	// orders and requests. Defaults to 3s.
	PollInterval time.Duration
	Logger       *zap.Logger
}

// StartOpts holds configuration for the HTTP server.
type StartOpts struct {
	Opts
	Port int
	Out  io.Writer
}

// New builds the gin engine with every route registered.
func New(opts Opts) (*gin.Engine, error) {
	if opts.Router == nil {
		return nil, fmt.Errorf("server: router is required")
	}
	if opts.Backend == nil {
		return nil, fmt.Errorf("server: backend is required")
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.Currency == "" {
		opts.Currency = "₹"
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 3 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(requestLogger(opts.Logger), gin.Recovery())
	engine.Use(cors.New(cors.Config{
		AllowOrigins:  opts.AllowedOrigins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	engine.SetHTMLTemplate(tmpl)

	registerRoutes(engine, opts)
	return engine, nil
}

// Start launches the HTTP server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	handler, err := New(opts.Opts)
	if err != nil {
		return err
	}
	if opts.Port <= 0 {
		opts.Port = 8000
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Concierge running at http://localhost:%d (dashboard: /dashboard)\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// parseTemplates loads the embedded HTML templates.
func parseTemplates() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tmpl, nil
}

var templateFuncs = template.FuncMap{
	"clock": func(t time.Time) string { return t.Format("Jan 2 15:04") },
}
