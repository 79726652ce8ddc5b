package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"

	"universitas/internal/handler/http/respond"
	pgRepo "universitas/internal/infra/adapter/persistence/postgres"
	"universitas/internal/infra/cache"
	"universitas/internal/infra/db"
	"universitas/internal/infra/detector"
	"universitas/internal/infra/queue"
	"universitas/internal/infra/storage"
	workerPkg "universitas/internal/infra/worker"
	"universitas/internal/observability/logging"
	"universitas/internal/pkg/config"
	photoUC "universitas/internal/usecase/photo"
	stagingUC "universitas/internal/usecase/staging"
	storyUC "universitas/internal/usecase/story"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Warn("failed to load .env file", slog.Any("error", err))
	}
	logger := initLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	database := initDatabase(ctx, logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	// Load worker configuration (fail-open strategy)
	workerMetrics := workerPkg.NewWorkerMetrics()
	workerMetrics.MustRegister()
	workerConfig, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		logger.Error("failed to load worker configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker configuration loaded",
		slog.String("hotness_schedule", workerConfig.HotnessSchedule),
		slog.String("autocrop_cleanup_schedule", workerConfig.AutocropCleanupSchedule),
		slog.String("staging_schedule", workerConfig.StagingSchedule),
		slog.String("search_vector_schedule", workerConfig.SearchVectorSchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.Duration("job_timeout", workerConfig.JobTimeout),
		slog.Int("health_port", workerConfig.HealthPort))

	jobs := newJobTracker()
	startMetricsServer(ctx, logger, jobs)

	healthAddr := fmt.Sprintf(":%d", workerConfig.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger)
	healthServer.AddCheck("database", database.PingContext)
	go func() {
		if err := healthServer.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()
	logger.Info("health check server started", slog.String("addr", healthAddr))

	svcs := setupServices(ctx, logger, database)

	redisURL := config.LoadEnvString("REDIS_URL", "")
	taskServer := startTaskServer(logger, redisURL, svcs.photos, workerConfig, healthServer)

	c := startCronWorker(logger, svcs, workerConfig, workerMetrics, jobs)
	healthServer.SetReady(true)
	logger.Info("worker marked as ready")

	<-ctx.Done()
	logger.Info("shutting down worker...")
	healthServer.SetReady(false)
	<-c.Stop().Done()
	if taskServer != nil {
		taskServer.Shutdown()
	}
	logger.Info("worker stopped")
}

// initLogger initializes the JSON logger from LOG_LEVEL and LOG_FORMAT.
func initLogger() *slog.Logger {
	logger := logging.NewLogger()
	slog.SetDefault(logger)
	return logger
}

// initDatabase opens the database connection and waits for the API to
// finish migrations.
func initDatabase(ctx context.Context, logger *slog.Logger) *sql.DB {
	database, err := db.Open(ctx)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	if err := db.WaitForSchema(ctx, database, 10, 3*time.Second); err != nil {
		logger.Error("migrations did not complete in time", slog.Any("error", err))
		os.Exit(1)
	}
	return database
}

type workerServices struct {
	stories *storyUC.Service
	photos  *photoUC.Service
	staging *stagingUC.Service
}

// setupServices builds the use cases run by the cron jobs and the task
// server. The worker never enqueues tasks itself, it runs them.
func setupServices(ctx context.Context, logger *slog.Logger, database *sql.DB) workerServices {
	storageCfg, warnings := storage.ConfigFromEnv()
	for _, w := range warnings {
		logger.Warn("storage configuration fallback", slog.String("warning", w))
	}
	backend, err := storage.New(ctx, storageCfg)
	if err != nil {
		logger.Error("failed to initialize storage", slog.Any("error", err))
		os.Exit(1)
	}

	faces, salient, err := detector.Load(config.LoadEnvString("FACE_CASCADE_PATH", ""))
	if err != nil {
		logger.Error("failed to load face detector", slog.Any("error", err))
		os.Exit(1)
	}
	if faces == nil {
		logger.Warn("face detection disabled, FACE_CASCADE_PATH not set")
	}

	imageRepo := pgRepo.NewImageFileRepo(database)
	photos := &photoUC.Service{
		Repo:    imageRepo,
		Storage: storage.NewBreakerStorage(backend),
		Faces:   faces,
		Salient: salient,
	}
	return workerServices{
		stories: &storyUC.Service{Repo: pgRepo.NewStoryRepo(database)},
		photos:  photos,
		staging: &stagingUC.Service{Repo: imageRepo, Photos: photos},
	}
}

// startTaskServer runs the asynq server for autocrop and post-save tasks.
// Without Redis the autocrop cleanup job is the only way images get
// processed.
func startTaskServer(logger *slog.Logger, redisURL string, photos *photoUC.Service, cfg *workerPkg.WorkerConfig, health *workerPkg.HealthServer) *asynq.Server {
	if redisURL == "" {
		logger.Warn("REDIS_URL not set, photo task server disabled")
		return nil
	}
	srv, err := queue.NewServer(redisURL, cfg.TaskConcurrency, logger)
	if err != nil {
		logger.Error("failed to create task server", slog.Any("error", err))
		os.Exit(1)
	}
	if err := srv.Start(queue.NewServeMux(photos, logger)); err != nil {
		logger.Error("failed to start task server", slog.Any("error", err))
		os.Exit(1)
	}

	if rdb, err := cache.NewRedis(context.Background(), redisURL); err == nil {
		health.AddCheck("redis", func(ctx context.Context) error { return cache.HealthCheck(ctx, rdb) })
	} else {
		logger.Warn("redis health check unavailable", slog.Any("error", err))
	}

	logger.Info("photo task server started", slog.Int("concurrency", cfg.TaskConcurrency))
	return srv
}

// job is one scheduled maintenance run. It returns the number of items
// it handled.
type job struct {
	name     string
	schedule string
	run      func(ctx context.Context) (int, error)
}

// startCronWorker registers the maintenance jobs and starts the scheduler.
func startCronWorker(logger *slog.Logger, svcs workerServices, cfg *workerPkg.WorkerConfig, metrics *workerPkg.WorkerMetrics, tracker *jobTracker) *cron.Cron {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC", slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	jobs := []job{
		{"devalue_hotness", cfg.HotnessSchedule, func(ctx context.Context) (int, error) {
			n, err := svcs.stories.DevalueHotness(ctx, cfg.HotnessFactor)
			return int(n), err
		}},
		{"autocrop_cleanup", cfg.AutocropCleanupSchedule, func(ctx context.Context) (int, error) {
			return svcs.photos.CleanUpPendingAutocrop(ctx, cfg.AutocropCleanupLimit)
		}},
		{"search_vectors", cfg.SearchVectorSchedule, func(ctx context.Context) (int, error) {
			n, err := svcs.stories.UpdateSearchVectors(ctx)
			return int(n), err
		}},
	}
	if cfg.StagingDir != "" {
		jobs = append(jobs, job{"staging_import", cfg.StagingSchedule, func(ctx context.Context) (int, error) {
			imported, err := svcs.staging.Import(ctx, cfg.StagingDir, cfg.StagingMaxAge)
			return len(imported), err
		}})
	} else {
		logger.Info("staging import disabled, STAGING_DIR not set")
	}

	for _, j := range jobs {
		if _, err := c.AddFunc(j.schedule, func() { runJob(logger, j, cfg, metrics, tracker) }); err != nil {
			logger.Error("failed to add cron job", slog.String("job", j.name), slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("cron job scheduled", slog.String("job", j.name), slog.String("schedule", j.schedule))
	}
	c.Start()
	return c
}

// runJob executes a single job with timeout and error handling.
func runJob(logger *slog.Logger, j job, cfg *workerPkg.WorkerConfig, metrics *workerPkg.WorkerMetrics, tracker *jobTracker) {
	startTime := time.Now()
	metrics.RecordJobRun(j.name, "started")
	log := logger.With(slog.String("job", j.name))
	log.Debug("job started")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.JobTimeout)
	defer cancel()

	n, err := j.run(ctx)
	duration := time.Since(startTime)
	metrics.RecordJobDuration(j.name, duration.Seconds())
	tracker.record(j.name, startTime, n, err)
	if err != nil {
		log.Error("job failed", slog.Any("error", respond.SanitizeError(err)), slog.Duration("duration", duration))
		metrics.RecordJobRun(j.name, "failure")
		return
	}

	metrics.RecordJobRun(j.name, "success")
	metrics.RecordItemsProcessed(j.name, n)
	metrics.RecordLastSuccess(j.name)
	log.Info("job completed", slog.Int("items", n), slog.Duration("duration", duration))
}
