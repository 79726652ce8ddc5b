package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"universitas/internal/common/pagination"
	pgRepo "universitas/internal/infra/adapter/persistence/postgres"
	"universitas/internal/infra/cache"
	"universitas/internal/infra/db"
	"universitas/internal/infra/detector"
	"universitas/internal/infra/queue"
	"universitas/internal/infra/storage"
	"universitas/internal/observability/logging"
	"universitas/internal/observability/tracing"
	"universitas/internal/pkg/config"
	"universitas/internal/resilience/circuitbreaker"

	contribUC "universitas/internal/usecase/contributor"
	frontpageUC "universitas/internal/usecase/frontpage"
	issueUC "universitas/internal/usecase/issue"
	photoUC "universitas/internal/usecase/photo"
	storyUC "universitas/internal/usecase/story"

	hhttp "universitas/internal/handler/http"
	hauth "universitas/internal/handler/http/auth"
	hcontrib "universitas/internal/handler/http/contributor"
	hfrontpage "universitas/internal/handler/http/frontpage"
	himage "universitas/internal/handler/http/imagefile"
	hissue "universitas/internal/handler/http/issue"
	"universitas/internal/handler/http/middleware"
	"universitas/internal/handler/http/requestid"
	hstory "universitas/internal/handler/http/story"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Warn("failed to load .env file", slog.Any("error", err))
	}
	logger := initLogger()
	validateAdminCredentials(logger)
	hauth.ValidateViewerCredentials(logger)
	validateJWTSecret(logger)

	ctx := context.Background()
	database := initDatabase(ctx, logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	shutdownTracing := tracing.NewProvider(logger, traceSampleRatio())
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("failed to stop tracer provider", slog.Any("error", err))
		}
	}()

	version := getVersion()
	components := setupServer(ctx, logger, database, version)
	defer components.Close()

	runServer(logger, components, version)
}

// initLogger initializes the JSON logger from LOG_LEVEL and LOG_FORMAT.
func initLogger() *slog.Logger {
	logger := logging.NewLogger()
	slog.SetDefault(logger)
	return logger
}

// validateAdminCredentials stops the server from starting with empty or
// weak admin credentials.
func validateAdminCredentials(logger *slog.Logger) {
	if err := hauth.ValidateAdminCredentials(); err != nil {
		logger.Error("admin credentials validation failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func validateJWTSecret(logger *slog.Logger) {
	if err := hauth.ValidateJWTSecret(); err != nil {
		logger.Error("JWT secret validation failed", slog.Any("error", err))
		os.Exit(1)
	}
}

// initDatabase opens the database, runs migrations and loads the
// publication plan.
func initDatabase(ctx context.Context, logger *slog.Logger) *sql.DB {
	database, err := db.Open(ctx)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	if err := db.MigrateUp(ctx, database); err != nil {
		logger.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}
	if err := db.SeedDefaultPublicationPlan(ctx, database); err != nil {
		logger.Warn("publication plan not seeded", slog.Any("error", err))
	}
	return database
}

func getVersion() string {
	return config.LoadEnvString("VERSION", "dev")
}

func traceSampleRatio() float64 {
	return config.LoadEnvFloat("TRACE_SAMPLE_RATIO", 0.1, func(v float64) error {
		return config.ValidateFloatRange(v, 0, 1)
	}).Value
}

// ServerComponents holds components needed for server operation and cleanup.
type ServerComponents struct {
	Handler      http.Handler
	AuthLimiter  *middleware.RateLimiter
	VisitLimiter *middleware.RateLimiter
	Redis        *redis.Client // nil without REDIS_URL
	Queue        *queue.Client // nil without REDIS_URL
}

// Close releases the Redis connections.
func (c *ServerComponents) Close() {
	if c.Queue != nil {
		if err := c.Queue.Close(); err != nil {
			slog.Warn("failed to close queue client", slog.Any("error", err))
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			slog.Warn("failed to close redis", slog.Any("error", err))
		}
	}
}

// services are the use cases served by the API.
type services struct {
	stories      *storyUC.Service
	photos       *photoUC.Service
	issues       *issueUC.Service
	frontpage    *frontpageUC.Service
	contributors *contribUC.Service
}

// setupServer wires repositories, infrastructure and use cases and returns
// the HTTP handler with all routes and middleware.
func setupServer(ctx context.Context, logger *slog.Logger, database *sql.DB, version string) *ServerComponents {
	components := &ServerComponents{}

	storageCfg, warnings := storage.ConfigFromEnv()
	for _, w := range warnings {
		logger.Warn("storage configuration fallback", slog.String("warning", w))
	}
	backend, err := storage.New(ctx, storageCfg)
	if err != nil {
		logger.Error("failed to initialize storage", slog.Any("error", err))
		os.Exit(1)
	}
	files := storage.NewBreakerStorage(backend)
	logger.Info("storage initialized", slog.String("backend", storageCfg.Backend))

	faces, salient, err := detector.Load(config.LoadEnvString("FACE_CASCADE_PATH", ""))
	if err != nil {
		logger.Error("failed to load face detector", slog.Any("error", err))
		os.Exit(1)
	}
	if faces == nil {
		logger.Warn("face detection disabled, FACE_CASCADE_PATH not set")
	}

	var enqueuer queue.Enqueuer = queue.Noop{}
	var visits storyUC.VisitTracker
	var memo frontpageUC.Cache
	if redisURL := config.LoadEnvString("REDIS_URL", ""); redisURL != "" {
		rdb, err := cache.NewRedis(ctx, redisURL)
		if err != nil {
			logger.Warn("redis unavailable, running without cache", slog.Any("error", err))
		} else {
			components.Redis = rdb
			visits = cache.NewVisitTracker(rdb)
			memo = cache.NewMemoizer(rdb, cache.DefaultTimeout)
		}
		qc, err := queue.NewClient(redisURL)
		if err != nil {
			logger.Warn("task queue unavailable, images wait for the cleanup job", slog.Any("error", err))
		} else {
			components.Queue = qc
			enqueuer = qc
		}
	} else {
		logger.Warn("REDIS_URL not set: no cache, photo tasks run from the cleanup job")
	}

	frontpageSvc := &frontpageUC.Service{Repo: pgRepo.NewFrontpageRepo(database), Cache: memo}
	svcs := services{
		stories: &storyUC.Service{
			Repo:    pgRepo.NewStoryRepo(database),
			Visits:  visits,
			Teasers: frontpageSvc,
		},
		photos: &photoUC.Service{
			Repo:    pgRepo.NewImageFileRepo(database),
			Storage: files,
			Queue:   enqueuer,
			Faces:   faces,
			Salient: salient,
		},
		issues:       &issueUC.Service{Repo: pgRepo.NewIssueRepo(database)},
		frontpage:    frontpageSvc,
		contributors: &contribUC.Service{Repo: pgRepo.NewContributorRepo(database)},
	}

	proxyConfig, err := middleware.LoadTrustedProxyConfig()
	if err != nil {
		logger.Error("failed to load trusted proxy configuration", slog.Any("error", err))
		os.Exit(1)
	}
	ipExtractor := middleware.NewIPExtractor(proxyConfig)
	if proxyConfig.Enabled {
		logger.Info("client IPs: trusted proxy mode enabled",
			slog.Int("trusted_proxies_count", len(proxyConfig.AllowedCIDRs)))
	} else {
		logger.Info("client IPs: using RemoteAddr, proxy headers ignored")
	}

	// auth: 5 requests per minute, visits: 30 per minute per client
	components.AuthLimiter = middleware.NewRateLimiter(5, time.Minute, ipExtractor)
	components.VisitLimiter = middleware.NewRateLimiter(30, time.Minute, ipExtractor)

	mux := setupRoutes(logger, database, version, svcs, components, ipExtractor, files, storageCfg)
	components.Handler = applyMiddleware(logger, mux)
	return components
}

// setupRoutes registers all HTTP routes. Each resource package guards its
// own write endpoints.
func setupRoutes(
	logger *slog.Logger,
	database *sql.DB,
	version string,
	svcs services,
	components *ServerComponents,
	ipExtractor middleware.IPExtractor,
	files *storage.BreakerStorage,
	storageCfg storage.Config,
) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("POST /auth/token", components.AuthLimiter.Middleware(hauth.TokenHandler(hauth.EnvProvider{}, 0)))

	checks := map[string]func(context.Context) error{
		"storage": func(context.Context) error {
			if files.IsOpen() {
				return errors.New("storage circuit open")
			}
			return nil
		},
	}
	if components.Redis != nil {
		rdb := components.Redis
		checks["redis"] = func(ctx context.Context) error { return cache.HealthCheck(ctx, rdb) }
	}
	mux.Handle("GET /health", &hhttp.HealthHandler{DB: database, Version: version, Checks: checks})
	mux.Handle("GET /ready", &hhttp.ReadyHandler{DB: circuitbreaker.NewDBProbe(database)})
	mux.Handle("GET /live", hhttp.LiveHandler{})
	mux.Handle("GET /metrics", hhttp.MetricsHandler())

	// local media is served by the API itself
	if storageCfg.Backend == "local" && strings.HasPrefix(storageCfg.PublicURL, "/") {
		prefix := "/" + strings.Trim(storageCfg.PublicURL, "/") + "/"
		mux.Handle("GET "+prefix, http.StripPrefix(prefix, http.FileServer(http.Dir(storageCfg.LocalRoot))))
	}

	paginationCfg := pagination.LoadFromEnv()
	hstory.Register(mux, svcs.stories, hstory.Deps{
		Pagination:   paginationCfg,
		VisitLimiter: components.VisitLimiter,
		IPExtractor:  ipExtractor,
		Logger:       logger,
	})
	himage.Register(mux, svcs.photos, himage.Deps{Pagination: paginationCfg, Logger: logger})
	hissue.Register(mux, svcs.issues)
	hfrontpage.Register(mux, svcs.frontpage, paginationCfg)
	hcontrib.Register(mux, svcs.contributors, paginationCfg)

	return mux
}

// applyMiddleware wraps the handler with the middleware chain.
// Order: CORS → Request ID → Recovery → Logging → Input validation →
// Metrics → Tracing → Timeout.
func applyMiddleware(logger *slog.Logger, handler http.Handler) http.Handler {
	corsConfig := middleware.LoadCORSConfig()
	logger.Info("CORS enabled",
		slog.Int("allowed_origins_count", len(corsConfig.AllowedOrigins)),
		slog.Any("allowed_origins", corsConfig.AllowedOrigins))

	timeout := config.LoadEnvDuration("HTTP_TIMEOUT", 30*time.Second, config.ValidatePositiveDuration).Value

	return hhttp.Chain(handler,
		middleware.CORS(corsConfig),
		requestid.Middleware,
		hhttp.Recover(logger),
		hhttp.Logging(logger),
		hhttp.InputValidation(hhttp.DefaultMaxBodyBytes),
		hhttp.MetricsMiddleware,
		tracing.Middleware,
		hhttp.Timeout(timeout, hhttp.IsUpload),
	)
}

// runServer starts the HTTP server and handles graceful shutdown.
func runServer(logger *slog.Logger, components *ServerComponents, version string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cleanupCfg := hhttp.LoadCleanupConfigFromEnv()
	go hhttp.StartRateLimitCleanup(ctx, components.AuthLimiter, cleanupCfg, "auth")
	go hhttp.StartRateLimitCleanup(ctx, components.VisitLimiter, cleanupCfg, "visit")
	logger.Info("rate limit cleanup started",
		slog.Duration("interval", cleanupCfg.Interval),
		slog.Duration("idle", cleanupCfg.Idle))

	addr := config.LoadEnvString("HTTP_ADDR", ":8080")
	srv := &http.Server{
		Addr:              addr,
		Handler:           components.Handler,
		ReadHeaderTimeout: 10 * time.Second, // Slowloris
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("server starting",
			slog.String("addr", addr),
			slog.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	cancel()
	logger.Debug("background cleanup goroutines cancelled")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	logger.Info("server stopped")
}
