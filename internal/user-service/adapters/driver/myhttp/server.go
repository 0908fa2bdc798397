package myhttp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"bustrack/internal/config"
	"bustrack/internal/mylogger"
	"bustrack/internal/shared/db"
	"bustrack/internal/user-service/adapters/driven/cache"
	"bustrack/internal/user-service/adapters/driven/upstream"
	"bustrack/internal/user-service/adapters/driver/myhttp/handle"
	ports "bustrack/internal/user-service/core/ports/driven"
	"bustrack/internal/user-service/core/services"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const WaitTime = 10

type Server struct {
	mux    *http.ServeMux
	cfg    *config.Config
	srv    *http.Server
	mylog  mylogger.Logger
	store  *db.Store
	cache  *cache.BusCache
	ctx    context.Context
	appCtx context.Context
	mu     sync.Mutex
}

func NewServer(ctx, appCtx context.Context, mylog mylogger.Logger, cfg *config.Config) *Server {
	return &Server{
		ctx:    ctx,
		appCtx: appCtx,
		cfg:    cfg,
		mylog:  mylog,
		mux:    http.NewServeMux(),
	}
}

// Run initializes routes and starts listening. It returns when the server stops.
func (s *Server) Run() error {
	mylog := s.mylog.Action("server_started")

	store, err := db.Open(s.ctx, s.cfg, mylog)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	s.store = store
	mylog.Info("Successful database connection", "store", s.cfg.Store.Driver)

	if s.cfg.Redis.Enabled() {
		c, err := cache.New(s.ctx, *s.cfg.Redis)
		if err != nil {
			return err
		}
		s.cache = c
		mylog.Info("Successful cache connection")
	}

	s.Configure()

	s.mu.Lock()
	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%v", s.cfg.Srv.UserServicePort),
		Handler:           s.handler(),
		ReadHeaderTimeout: WaitTime * time.Second,
	}
	s.mu.Unlock()

	mylog.WithGroup("details").With(
		"port", s.cfg.Srv.UserServicePort,
		"driver_api", s.cfg.Upstream.DriverAPIBaseURL,
	).Info("server is running")
	return s.startHTTPServer()
}

// Stop provides a programmatic shutdown. Accepts a context for timeout control.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mylog.Info("Shutting down HTTP server...")

	var errs []error
	if s.srv != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, WaitTime*time.Second)
		defer cancel()

		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.mylog.Error("Failed to shut down HTTP server gracefully", err)
			errs = append(errs, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.mylog.Error("Failed to close cache", err)
			errs = append(errs, err)
		}
	}

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.mylog.Error("Failed to close database", err)
			errs = append(errs, fmt.Errorf("db close: %w", err))
		} else {
			s.mylog.Info("Database closed")
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	s.mylog.Info("HTTP server shut down gracefully")
	return nil
}

func (s *Server) startHTTPServer() error {
	errCh := make(chan error, 1)

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		} else {
			errCh <- nil
		}
	}()

	select {
	case <-s.ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) Configure() {
	var busCache ports.IBusCache
	if s.cache != nil {
		busCache = s.cache
	}

	// services
	busService := services.NewBusService(s.store.Drivers, s.store.Routes, busCache, s.cfg.Redis.CacheTTL, s.mylog)
	liveService := services.NewLiveLocationService(upstream.NewDriverClient(*s.cfg.Upstream, s.mylog), s.mylog)

	// handlers
	userHandler := handle.NewUserHandler(busService, liveService, s.mylog)
	healthHandler := handle.NewHealthHandler(s.store)

	s.mux.Handle("GET /api/user/driver/by-bus/{busNumber}", userHandler.DriverByBus())
	s.mux.Handle("GET /api/user/driver/{driverId}/live-location", userHandler.LiveLocation())
	s.mux.Handle("GET /healthz", healthHandler.Health())
}

func (s *Server) handler() http.Handler {
	var h http.Handler = s.mux
	h = mylogger.RequestLogger(s.mylog)(h)
	h = cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Srv.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})(h)
	h = chimw.Recoverer(h)
	h = chimw.RealIP(h)
	h = chimw.RequestID(h)
	return h
}
