// Package server exposes the scoreboard over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/verte-zerg/crawlboard/internal/board"
	"github.com/verte-zerg/crawlboard/internal/logger"
	"github.com/verte-zerg/crawlboard/internal/metrics"
	"github.com/verte-zerg/crawlboard/internal/model"
)

// GameStore is the read side of the game database.
type GameStore interface {
	ListPlayers(ctx context.Context) ([]string, error)
	ListGames(ctx context.Context, f model.GameFilter) ([]model.Game, error)
	GetGame(ctx context.Context, gid string) (model.Game, error)
}

// Options configures the HTTP server.
type Options struct {
	Addr        string
	URLBase     string
	TableLength int
	ShowGames   int
}

// Server serves the player list, scoreboard API, health and metrics.
type Server struct {
	store      GameStore
	board      *board.Board
	logger     *logger.Logger
	opts       Options
	router     *mux.Router
	httpServer *http.Server
}

// New builds a Server and its routes.
func New(st GameStore, b *board.Board, l *logger.Logger, opts Options) *Server {
	if l == nil {
		l = logger.NewNop()
	}
	if opts.TableLength <= 0 {
		opts.TableLength = 10
	}
	if opts.ShowGames <= 0 {
		opts.ShowGames = 100
	}
	s := &Server{
		store:  st,
		board:  b,
		logger: l,
		opts:   opts,
		router: mux.NewRouter(),
	}

	s.router.Use(s.instrument)
	s.router.HandleFunc("/static/js/players.json", s.handlePlayers).Methods(http.MethodGet)
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/players/{name}", s.handlePlayer).Methods(http.MethodGet)
	api.HandleFunc("/games/{gid}", s.handleGame).Methods(http.MethodGet)
	api.HandleFunc("/highscores", s.handleHighscores).Methods(http.MethodGet)
	api.HandleFunc("/streaks", s.handleStreaks).Methods(http.MethodGet)
	api.HandleFunc("/records", s.handleRecords).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting scoreboard server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		metrics.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPRequestLatency.WithLabelValues(route).Observe(elapsed.Seconds())
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", elapsed),
		)
	})
}
