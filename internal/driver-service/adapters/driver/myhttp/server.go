package myhttp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"bustrack/internal/config"
	"bustrack/internal/driver-service/adapters/driven/bm"
	"bustrack/internal/driver-service/adapters/driver/mqtt"
	"bustrack/internal/driver-service/adapters/driver/myhttp/handle"
	"bustrack/internal/driver-service/adapters/driver/myhttp/middleware"
	"bustrack/internal/driver-service/adapters/driver/ws"
	ports "bustrack/internal/driver-service/core/ports/driven"
	"bustrack/internal/driver-service/core/services"
	"bustrack/internal/mylogger"
	"bustrack/internal/shared/db"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const WaitTime = 10

type Server struct {
	mux        *http.ServeMux
	cfg        *config.Config
	srv        *http.Server
	mylog      mylogger.Logger
	store      *db.Store
	mb         *bm.RabbitMQ
	subscriber *mqtt.LocationSubscriber
	registry   *ws.Registry
	ctx        context.Context
	appCtx     context.Context
	mu         sync.Mutex
}

func NewServer(ctx, appCtx context.Context, mylog mylogger.Logger, cfg *config.Config) *Server {
	return &Server{
		ctx:      ctx,
		appCtx:   appCtx,
		cfg:      cfg,
		mylog:    mylog,
		mux:      http.NewServeMux(),
		registry: ws.NewRegistry(),
	}
}

// Run connects the backing services, registers routes and listens. It
// returns when the server stops.
func (s *Server) Run() error {
	mylog := s.mylog.Action("server_started")

	store, err := db.Open(s.ctx, s.cfg, mylog)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	s.store = store
	mylog.Info("Successful database connection", "store", s.cfg.Store.Driver)

	if s.cfg.RabbitMq.Enabled() {
		mb, err := bm.New(s.appCtx, *s.cfg.RabbitMq, s.mylog)
		if err != nil {
			return fmt.Errorf("failed to connect to rabbitmq: %w", err)
		}
		s.mb = mb
		mylog.Info("Successful message broker connection")
	}

	if err := s.Configure(); err != nil {
		return err
	}

	s.mu.Lock()
	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%v", s.cfg.Srv.DriverServicePort),
		Handler:           s.handler(),
		ReadHeaderTimeout: WaitTime * time.Second,
	}
	s.mu.Unlock()

	mylog.WithGroup("details").With("port", s.cfg.Srv.DriverServicePort).Info("server is running")
	return s.startHTTPServer()
}

// Stop provides a programmatic shutdown. Accepts a context for timeout control.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mylog.Info("Shutting down HTTP server...")

	if s.subscriber != nil {
		s.subscriber.Stop()
	}

	var errs []error
	if s.srv != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, WaitTime*time.Second)
		defer cancel()

		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.mylog.Error("Failed to shut down HTTP server gracefully", err)
			errs = append(errs, fmt.Errorf("http server shutdown: %w", err))
		}
	}
	s.registry.CloseAll()

	if s.mb != nil {
		if err := s.mb.Close(); err != nil {
			s.mylog.Error("Failed to close message broker", err)
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

// Configure wires repositories, services and handlers and registers routes.
func (s *Server) Configure() error {
	// A typed nil *bm.RabbitMQ would defeat the nil check in services.
	var broker ports.IDriverBroker
	if s.mb != nil {
		broker = s.mb
	}

	// services
	authService := services.NewAuthService(s.store.Drivers, s.cfg.Auth.JwtSecret, s.cfg.Auth.TokenTTL, s.mylog)
	trackingService := services.NewTrackingService(s.store.Drivers, broker, s.mylog)
	locationService := services.NewLocationService(s.store.Drivers, s.store.Routes, s.store.Locations, broker, s.mylog)
	routeService := services.NewRouteService(s.store.Drivers, s.store.Routes, s.mylog)

	// handlers
	driverHandler := handle.NewDriverHandler(authService, trackingService, locationService, routeService, s.mylog)
	healthHandler := handle.NewHealthHandler(s.store)
	stream := ws.NewLocationStream(authService, locationService, s.registry, s.mylog)

	authMiddleware := middleware.NewAuthMiddleware(authService)

	s.mux.Handle("POST /api/driver/login", driverHandler.Login())
	s.mux.Handle("POST /api/driver/tracking/start", authMiddleware.Wrap(driverHandler.StartTracking()))
	s.mux.Handle("POST /api/driver/tracking/stop", authMiddleware.Wrap(driverHandler.StopTracking()))
	s.mux.Handle("POST /api/driver/location", authMiddleware.Wrap(driverHandler.UpdateLocation()))
	s.mux.Handle("GET /api/driver/route", authMiddleware.Wrap(driverHandler.GetRoute()))
	s.mux.Handle("GET /api/user/driver/{driverId}/latest-location", driverHandler.LatestLocation())
	s.mux.Handle("GET /healthz", healthHandler.Health())

	// websocket routes
	s.mux.Handle("GET /ws/driver/location", stream.Handle())

	if s.cfg.MQTT.Enabled() {
		client, err := mqtt.NewClient(*s.cfg.MQTT)
		if err != nil {
			return fmt.Errorf("failed to connect to mqtt broker: %w", err)
		}
		s.subscriber = mqtt.NewLocationSubscriber(client, authService, locationService, s.mylog)
		if err := s.subscriber.Start(); err != nil {
			return fmt.Errorf("failed to subscribe to driver locations: %w", err)
		}
		s.mylog.Action("mqtt_subscribed").Info("Subscribed to driver location topic")
	}
	return nil
}

func (s *Server) handler() http.Handler {
	var h http.Handler = s.mux
	h = mylogger.RequestLogger(s.mylog)(h)
	h = cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Srv.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})(h)
	h = chimw.Recoverer(h)
	h = chimw.RealIP(h)
	h = chimw.RequestID(h)
	return h
}
