package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/CAFxX/httpcompression"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/s0up4200/qbitdrop/internal/client"
	"github.com/s0up4200/qbitdrop/internal/config"
	"github.com/s0up4200/qbitdrop/internal/metrics"
	"github.com/s0up4200/qbitdrop/internal/web"
)

// Dependencies are built once at startup and shared read-only by every request
type Dependencies struct {
	Config     *config.Config
	Client     client.TorrentClient
	Metrics    *metrics.Manager
	WebHandler *web.Handler
}

type Server struct {
	cfg     *config.Config
	client  client.TorrentClient
	metrics *metrics.Manager
	web     *web.Handler
}

func NewServer(deps *Dependencies) *Server {
	s := &Server{
		cfg:     deps.Config,
		client:  deps.Client,
		metrics: deps.Metrics,
		web:     deps.WebHandler,
	}
	if s.metrics == nil {
		s.metrics = metrics.NewManager()
	}
	if s.web == nil {
		s.web = web.NewHandler(nil)
	}
	return s
}

// Handler builds the router. API routes are registered before the static
// fallback, and chi always prefers them over the catch-all.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(log.Logger))
	r.Use(hlog.RequestIDHandler("requestId", "X-Request-Id"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		// static asset hits are only interesting when debugging
		level := zerolog.InfoLevel
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			level = zerolog.DebugLevel
		}
		hlog.FromRequest(r).WithLevel(level).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(middleware.Recoverer)

	if compress, err := httpcompression.DefaultAdapter(); err != nil {
		log.Warn().Err(err).Msg("response compression disabled")
	} else {
		r.Use(compress)
	}

	r.Route("/api", func(r chi.Router) {
		if len(s.cfg.CORSAllowedOrigins) > 0 {
			r.Use(cors.New(cors.Options{
				AllowedOrigins: s.cfg.CORSAllowedOrigins,
				AllowedMethods: []string{http.MethodGet, http.MethodPost},
				AllowedHeaders: []string{"Content-Type"},
			}).Handler)
		}

		// unmatched /api paths still fall through to the bundle
		r.NotFound(s.web.ServeFallback)

		r.Get("/health", s.handleHealth)
		r.Route("/qbittorrent", func(r chi.Router) {
			r.Post("/add", s.handleAddTorrent)
			r.Get("/status", s.handleStatus)
		})
	})

	if s.cfg.MetricsEnabled {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	s.web.RegisterRoutes(r)

	return r
}
