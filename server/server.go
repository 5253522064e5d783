package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/support-dispatch/agent/contract"
	statex "github.com/tanpawarit/support-dispatch/agent/state"
	tokensx "github.com/tanpawarit/support-dispatch/pkg/tokens"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

type Config struct {
	Addr            string        `default:":8080"`
	ReadTimeout     time.Duration `split_words:"true" default:"10s"`
	WriteTimeout    time.Duration `split_words:"true" default:"120s"`
	RequestTimeout  time.Duration `split_words:"true" default:"90s"`
	ShutdownTimeout time.Duration `split_words:"true" default:"15s"`
	MaxBodyBytes    int64         `split_words:"true" default:"65536"`
}

// Sessions is the conversation surface behind the /v1/sessions routes.
type Sessions interface {
	StartSession(ctx context.Context, domain contractx.Domain, fields map[string]string) (*statex.Session, error)
	GetSession(ctx context.Context, sessionID string) (*statex.Session, error)
	Chat(ctx context.Context, sessionID, text string) (contractx.Response, error)
	ResetSession(ctx context.Context, sessionID string) (*statex.Session, error)
	SwitchDomain(ctx context.Context, sessionID string, domain contractx.Domain, fields map[string]string) (*statex.Session, error)
	EndSession(ctx context.Context, sessionID string) error
}

type UsageReporter interface {
	Snapshot() tokensx.Snapshot
}

type Deps struct {
	Dispatcher contractx.Dispatcher
	Sessions   Sessions
	Usage      UsageReporter                   // optional
	Ready      func(ctx context.Context) error // optional
}

func (d Deps) validate() error {
	if d.Dispatcher == nil {
		return errors.New("server: dispatcher is required")
	}
	if d.Sessions == nil {
		return errors.New("server: sessions are required")
	}
	return nil
}

// NewRouter mounts every route on a fresh chi router.
func NewRouter(cfg Config, deps Deps) (chi.Router, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	h := &handlers{deps: deps, maxBody: cfg.MaxBodyBytes}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
	}
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "support-dispatch",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})

	r.Get("/healthz", h.health)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/domains", h.listDomains)
		r.Post("/route", h.route)
		r.Get("/usage", h.usage)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.startSession)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", h.getSession)
				r.Delete("/", h.endSession)
				r.Put("/domain", h.switchDomain)
				r.Post("/messages", h.chat)
				r.Delete("/messages", h.resetSession)
			})
		})
	})

	return r, nil
}

type Server struct {
	cfg  Config
	http *http.Server
}

func New(cfg Config, deps Deps) (*Server, error) {
	router, err := NewRouter(cfg, deps)
	if err != nil {
		return nil, err
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	return &Server{
		cfg: cfg,
		http: &http.Server{
			Addr:         cfg.Addr,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}, nil
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		log.Info().Str("component", "server").Str("addr", s.cfg.Addr).Msg("http server listening")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-ctx.Done()
		timeout := s.cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		log.Info().Str("component", "server").Msg("shutting down http server")
		return s.http.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
