package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/clipreel/clipreel/internal/analytics"
	"github.com/clipreel/clipreel/internal/catalog"
	"github.com/clipreel/clipreel/internal/engagement"
	"github.com/clipreel/clipreel/internal/httputil"
	"github.com/clipreel/clipreel/internal/ratelimit"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	Store     *catalog.Store
	Resolver  engagement.MediaResolver
	Analytics *analytics.Handler
	Pinger    Pinger

	// Mutation rate limit; zero values fall back to 2 req/s, burst 10.
	MutationRate  float64
	MutationBurst int
}

type Server struct {
	router     chi.Router
	engagement *engagement.Handler
	analytics  *analytics.Handler
	pinger     Pinger
}

func New(cfg Config) *Server {
	r := chi.NewRouter()
	r.Use(recoverEnvelope)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Stats-Password"},
	}))

	s := &Server{
		router:     r,
		engagement: engagement.NewHandler(cfg.Store, cfg.Resolver),
		analytics:  cfg.Analytics,
		pinger:     cfg.Pinger,
	}

	rate := cfg.MutationRate
	if rate <= 0 {
		rate = 2
	}
	burst := cfg.MutationBurst
	if burst <= 0 {
		burst = 10
	}
	limiter := ratelimit.New(rate, burst)
	// The limiter lives as long as the process; without the janitor the
	// per-client bucket map only ever grows.
	limiter.StartJanitor(context.Background(), time.Minute)
	s.routes(limiter)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes(limiter *ratelimit.Limiter) {
	s.router.Get("/", s.handleIndex)
	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/api/videos", s.engagement.List)

	s.router.Group(func(r chi.Router) {
		r.Use(limiter.Middleware)
		r.Post("/api/like", s.engagement.Like)
		r.Post("/api/share", s.engagement.Share)
		r.Post("/api/comment", s.engagement.Comment)
	})

	if s.analytics != nil {
		s.router.Post("/api/view", s.analytics.RecordView)
		s.router.Get("/api/stats", s.analytics.Stats)
	}
}

type indexResponse struct {
	Message   string            `json:"message"`
	Endpoints map[string]string `json:"endpoints"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, indexResponse{
		Message: "Video Carousel API",
		Endpoints: map[string]string{
			"videos":  "GET /api/videos",
			"like":    "POST /api/like",
			"share":   "POST /api/share",
			"comment": "POST /api/comment",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unhealthy","error":"database unreachable"}`))
			return
		}
	}
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
