package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"snipbin/cfg"
	"snipbin/metrics"
	"snipbin/svc/db"
	"snipbin/svc/lim"
	"snipbin/svc/svc"
	"snipbin/svc/util"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/hlog"
)

type Server struct {
	router     *chi.Mux
	engine     *svc.Service
	lim        *lim.Limiter
	cfg        *cfg.Cfg
	db         *db.SQLite
	rdb        *db.Redis
	httpServer *http.Server
}

func NewServer(c *cfg.Cfg, engine *svc.Service, l *lim.Limiter, sqlDB *db.SQLite, rdb *db.Redis, jwtSecret []byte) *Server {
	r := chi.NewRouter()
	mw := NewMw(l, c, jwtSecret)
	s := &Server{
		router: r,
		engine: engine,
		lim:    l,
		cfg:    c,
		db:     sqlDB,
		rdb:    rdb,
		httpServer: &http.Server{
			Addr:           ":" + c.Port,
			Handler:        r,
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
			IdleTimeout:    60 * time.Second,
			MaxHeaderBytes: 256 * 1024,
		},
	}
	r.Group(func(r chi.Router) {
		r.Use(mw.Recoverer)
		r.Get("/health", s.Health)
		r.Get("/ready", s.Ready)
	})
	r.Group(func(r chi.Router) {
		r.Use(mw.Recoverer)
		r.Handle("/metrics", mw.BasicAuthMetrics(promhttp.Handler()))
	})
	r.Mount("/debug", middleware.Profiler())

	r.Group(func(r chi.Router) {
		r.Use(mw.Recoverer)
		r.Use(mw.RequestID)
		r.Use(hlog.NewHandler(util.GetLogger()))
		r.Use(hlog.AccessHandler(func(req *http.Request, status, size int, dur time.Duration) {
			metrics.RequestDuration.
				WithLabelValues(req.Method, req.URL.Path, strconv.Itoa(status)).
				Observe(dur.Seconds())
			hlog.FromRequest(req).Info().
				Str("method", req.Method).
				Str("url", req.URL.String()).
				Int("status", status).
				Int("size", size).
				Dur("duration", dur).
				Str("request_id", util.GetRequestID(req.Context())).
				Msg("http request")
		}))
		if len(c.TrustedProxies) > 0 {
			r.Use(middleware.RealIP)
		}
		r.Use(mw.ContextTimeout)
		r.Use(mw.SecurityHeaders)
		r.Use(mw.CORS)
		r.Use(mw.JSONContentType)
		r.Use(mw.Authenticate)

		hdl := &Hdl{engine: engine, cfg: c}
		create := mw.RateLimit("create")
		read := mw.RateLimit("read")

		r.With(create).Post("/profiles", hdl.CreateProfile)
		r.With(read).Get("/profiles/self", hdl.GetProfile)
		r.With(create).Patch("/profiles/self", hdl.UpdateProfile)

		r.With(create).Post("/pastes", hdl.CreatePaste)
		r.With(read).Get("/pastes/recent", hdl.GetRecentPastes)
		r.With(read).Get("/pastes/{id}", hdl.GetPaste)
		r.With(create).Patch("/pastes/{id}", hdl.UpdatePaste)
		r.With(read).Get("/pastes", hdl.GetOwnedPastes)

		r.With(read).Get("/search/tags/{tag}", hdl.SearchByTag)
		r.With(read).Get("/search/names/{name}", hdl.SearchByName)
		r.With(read).Get("/search/extensions/{ext}", hdl.SearchByExtension)

		r.With(read).Get("/s/{code}", hdl.ResolveShortURL)
	})
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) Start() error {
	util.Info().Str("port", s.cfg.Port).Msg("starting server")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		util.Error().Err(err).Str("port", s.cfg.Port).Msg("server failed to start")
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
