// Package server exposes the render engine over HTTP: PDF generation,
// upload auto-save, the password gate, workspace assets and, in production,
// the static front end.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	themepdf "github.com/alnah/go-themepdf"
	"github.com/alnah/go-themepdf/internal/assets"
	"github.com/alnah/go-themepdf/internal/auth"
	"github.com/alnah/go-themepdf/internal/logging"
)

// ErrNoBasicUsers rejects a production server without credentials.
var ErrNoBasicUsers = errors.New("production mode requires at least one basic-auth user")

// Defaults.
const (
	DefaultMaxBodyBytes = 50 << 20
	shutdownTimeout     = 10 * time.Second
	readHeaderTimeout   = 10 * time.Second
)

// Renderer turns a snapshot into PDF bytes.
type Renderer interface {
	Render(ctx context.Context, snap themepdf.Snapshot) ([]byte, error)
}

// Compile-time interface check.
var _ Renderer = (*themepdf.Renderer)(nil)

// Options configures a Server.
type Options struct {
	Addr         string
	Production   bool
	UploadDir    string
	StaticDir    string
	MaxBodyBytes int64
	BasicUsers   map[string]string
	Realm        string
	DateFormat   string
}

// Server routes HTTP requests to the render engine and its collaborators.
type Server struct {
	opts      Options
	renderer  Renderer
	gate      *auth.Gate
	styles    assets.AssetLoader
	previewer *themepdf.Previewer
	logger    *log.Logger
	router    chi.Router
}

// New builds the router. gate may be nil (no login). loader serves the
// workspace stylesheets and template.
func New(opts Options, renderer Renderer, gate *auth.Gate, loader assets.AssetLoader, logger *log.Logger) (*Server, error) {
	if opts.Production && len(opts.BasicUsers) == 0 {
		return nil, ErrNoBasicUsers
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.UploadDir == "" {
		opts.UploadDir = "."
	}
	if logger == nil {
		logger = logging.Discard()
	}
	if gate == nil {
		var err error
		if gate, err = auth.New("", "", 0); err != nil {
			return nil, err
		}
	}
	if loader == nil {
		loader = assets.NewEmbeddedLoader()
	}

	previewer, err := themepdf.NewPreviewer(
		themepdf.WithAssetLoader(loader),
		themepdf.WithDateFormat(opts.DateFormat),
	)
	if err != nil {
		return nil, err
	}

	s := &Server{
		opts:      opts,
		renderer:  renderer,
		gate:      gate,
		styles:    loader,
		previewer: previewer,
		logger:    logger,
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors)

	if s.opts.Production {
		realm := s.opts.Realm
		if realm == "" {
			realm = "ThemePDF"
		}
		r.Use(middleware.BasicAuth(realm, s.opts.BasicUsers))
	}

	r.Post(themepdf.PathGeneratePDF, s.handleGeneratePDF)
	r.Post(themepdf.PathSaveUpload, s.handleSaveUpload)

	r.Get("/api/check-auth", s.handleCheckAuth)
	r.Post("/api/login", s.handleLogin)
	r.Post("/api/logout", s.handleLogout)
	r.Get("/api/themes", s.handleThemes)

	r.Get(themepdf.StylesPath+"{name}.css", s.handleStyle)
	r.Get("/preview", s.handlePreview)
	r.Get("/healthz", handleHealth)

	if s.opts.Production {
		r.NotFound(s.handleStatic)
		r.MethodNotAllowed(s.handleMethodNotAllowed)
	} else {
		r.Get("/", handleDevIndex)
	}
	return r
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
// In-flight render jobs get shutdownTimeout to finish.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("PDF engine listening", "addr", s.opts.Addr, "production", s.opts.Production)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listening on %s: %w", s.opts.Addr, err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
