// FilePath: internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/itsatony/talkingplants/api"
	"github.com/itsatony/talkingplants/api/middleware"
	"github.com/itsatony/talkingplants/api/resources"
	_ "github.com/itsatony/talkingplants/docs"
	"github.com/itsatony/talkingplants/internal/brain"
	"github.com/itsatony/talkingplants/internal/cleanup"
	"github.com/itsatony/talkingplants/internal/config"
	"github.com/itsatony/talkingplants/internal/database"
	"github.com/itsatony/talkingplants/internal/monitoring"
	"github.com/itsatony/talkingplants/internal/plantservice"
	"github.com/itsatony/talkingplants/internal/repository/cache"
	"github.com/itsatony/talkingplants/internal/repository/files"
	"github.com/itsatony/talkingplants/internal/repository/sqlrepo"
	nuts "github.com/vaudience/go-nuts"
)

const startupTimeout = 5 * time.Second

// Server represents our HTTP server
type Server struct {
	config     *config.Config
	srv        *http.Server
	db         database.DB
	svc        *plantservice.PlantService
	monitoring *monitoring.Service
	cleanup    *cleanup.CleanupService
	handler    http.Handler
	closers    []io.Closer
}

// New creates a new server instance
func New(cfg *config.Config) *Server {
	return &Server{
		config: cfg,
		srv: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}
}

// Start initializes all services, serves requests and blocks until SIGINT/SIGTERM
func (s *Server) Start() error {
	if err := s.Initialize(); err != nil {
		return err
	}
	s.srv.Handler = s.handler

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	if interval := s.config.FileStore.SweepInterval; interval > 0 {
		go s.cleanup.Run(sweepCtx, interval)
	}

	errCh := make(chan error, 1)
	go func() {
		nuts.L.Infof("[Server] Starting server on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	return s.waitForShutdown(errCh)
}

// Initialize connects storage, builds the plant service and the HTTP handler
func (s *Server) Initialize() error {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	db, err := database.Open(s.config.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db
	s.closers = append(s.closers, db)
	if err := db.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	photos, err := files.NewPhotoRepository(files.ConfigFrom(s.config.FileStore))
	if err != nil {
		return fmt.Errorf("failed to initialize photo store: %w", err)
	}

	opts := []plantservice.Option{}
	if catalog := s.initCatalogCache(ctx); catalog != nil {
		opts = append(opts, plantservice.WithCatalogCache(catalog))
	}

	s.svc = plantservice.New(db, plantservice.Repositories{
		Devices:    sqlrepo.NewDeviceRepository(),
		Caretakers: sqlrepo.NewCaretakerRepository(),
		Plants:     sqlrepo.NewPlantRepository(),
		Snapshots:  sqlrepo.NewSnapshotRepository(),
		Streaks:    sqlrepo.NewStreakRepository(),
		Messages:   sqlrepo.NewMessageRepository(),
	}, photos, brain.New(s.config.Brain), opts...)
	if err := s.svc.Validate(); err != nil {
		return err
	}

	s.monitoring = monitoring.NewService(s.initPublisher())
	s.closers = append(s.closers, s.monitoring)
	s.monitoring.Subscribe(s.svc.Events(), plantservice.AllEvents...)

	s.cleanup = cleanup.New(db, s.svc.Caretakers, photos, nil)
	s.monitoring.Subscribe(s.cleanup.Events(), cleanup.EventPhotoDeleted)

	verifier, err := middleware.NewVerifier(s.config.Auth)
	if err != nil {
		return err
	}

	res := resources.NewResources(s.svc, s.config.FileStore.MaxFileSize)
	res.SetHealthCheck(s.handleHealth())
	router := api.NewRouter(res, middleware.NewAuthMiddleware(verifier))
	router.MountStatic(photos.PublicPrefix(), photos.BasePath())

	s.handler = s.wrap(router)
	nuts.L.Infof("[Server] Initialized (db=%s, auth=%s)", s.config.Database.Driver, s.config.Auth.Mode)
	return nil
}

// Handler is the fully wrapped HTTP handler, available after Initialize
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) wrap(h http.Handler) http.Handler {
	cors := handlers.CORS(
		handlers.AllowedOrigins(s.config.Server.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)
	recovery := handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))
	return handlers.CombinedLoggingHandler(os.Stdout, recovery(cors(h)))
}

// initCatalogCache returns nil when redis is not configured or unreachable
func (s *Server) initCatalogCache(ctx context.Context) *cache.CatalogCache {
	if !s.config.Redis.Enabled() {
		return nil
	}
	c := cache.NewCatalogCache(cache.NewClient(s.config.Redis), s.config.Redis.CatalogTTL)
	if err := c.Ping(ctx); err != nil {
		nuts.L.Warnf("[Server] Redis unreachable, plant search runs uncached: %v", err)
		_ = c.Close()
		return nil
	}
	s.closers = append(s.closers, c)
	return c
}

// initPublisher returns nil when no broker is configured or it cannot be reached
func (s *Server) initPublisher() monitoring.Publisher {
	if s.config.Events.AMQPURL == "" {
		return nil
	}
	pub, err := monitoring.NewAMQPPublisher(s.config.Events.AMQPURL, s.config.Events.Exchange)
	if err != nil {
		nuts.L.Warnf("[Server] Event publishing disabled: %v", err)
		return nil
	}
	s.closers = append(s.closers, pub)
	return pub
}

// waitForShutdown waits for interrupt signal and gracefully shuts down the server
func (s *Server) waitForShutdown(errCh <-chan error) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-errCh:
		s.Close()
		return fmt.Errorf("error starting server: %w", err)
	}

	nuts.L.Infof("[Server] Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	s.Close()

	nuts.L.Infof("[Server] Server shut down successfully")
	return nil
}

// Close releases connections in reverse order of acquisition
func (s *Server) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			nuts.L.Warnf("[Server] Close failed: %v", err)
		}
	}
	s.closers = nil
}

type healthResponse struct {
	Status  string           `json:"status"`
	Version string           `json:"version"`
	Uptime  string           `json:"uptime"`
	Events  map[string]int64 `json:"events"`
}

// handleHealth reports liveness, the database state and lifecycle event counts
func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{
			Status:  "ok",
			Version: nuts.GetVersion(),
			Uptime:  s.monitoring.Uptime().Round(time.Second).String(),
			Events:  s.monitoring.EventCounts(),
		}
		code := http.StatusOK
		if err := s.svc.Ping(r.Context()); err != nil {
			nuts.L.Errorf("[Server] Health check failed: %v", err)
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
