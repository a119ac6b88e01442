package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"strang/internal/adapter/repo"
	"strang/internal/domain"
	"strang/internal/http/handlers"
	httpapi "strang/internal/http/httpapi"
	"strang/internal/infra"
	"strang/internal/pipeline"
	"strang/internal/providers/screenplay"
	"strang/internal/providers/video"
	"strang/internal/ratelimit"
	"strang/internal/storage"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	store, err := storage.NewFileStore(cfg.DataDir)
	if err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.DataDir).Msg("failed to open data directory")
	}
	if err := store.Lock(); err != nil {
		if errors.Is(err, storage.ErrLocked) {
			logger.Fatal().Str("dir", cfg.DataDir).Msg("data directory is in use by another process")
		}
		logger.Fatal().Err(err).Msg("failed to lock data directory")
	}
	defer func() { _ = store.Unlock() }()

	ctx := context.Background()

	var (
		jobs     domain.JobRepository
		fileJobs *repo.FileJobRepository
	)
	switch cfg.JobStoreBackend {
	case infra.JobStorePostgres:
		dbpool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer dbpool.Close()
		pgJobs := repo.NewPGJobRepository(infra.NewSQLRunner(dbpool, logger))
		if err := pgJobs.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare job table")
		}
		jobs = pgJobs
	default:
		fileJobs = repo.NewFileJobRepository(store, &logger)
		fileJobs.Load()
		jobs = fileJobs
	}
	waitlist := repo.NewFileWaitlistRepository(store, &logger)

	synth := screenplay.NewOpenAISynthesizer(screenplay.Options{
		APIKey:           cfg.OpenAIAPIKey,
		Model:            cfg.OpenAIModel,
		BaseURL:          cfg.OpenAIBaseURL,
		Organization:     cfg.OpenAIOrg,
		Timeout:          cfg.OpenAITimeout,
		StructuredOutput: cfg.OpenAIStructuredOutput,
		Logger:           &logger,
	})
	videos := video.NewHeyGenClient(video.Options{
		APIKey:        cfg.HeyGenAPIKey,
		BaseURL:       cfg.HeyGenBaseURL,
		Orientation:   cfg.HeyGenOrientation,
		SubmitTimeout: cfg.HeyGenSubmitTimeout,
		StatusTimeout: cfg.HeyGenStatusTimeout,
		Logger:        &logger,
	})
	if !synth.Configured() {
		logger.Warn().Msg("OPENAI_API_KEY is not set; /generate will fail until it is")
	}
	if !videos.Configured() {
		logger.Warn().Msg("HEYGEN_API_KEY is not set; /generate will fail until it is")
	}

	limiter := ratelimit.New(cfg.RateLimitRequests, cfg.RateLimitWindow)
	svc := pipeline.NewService(jobs, synth, videos, limiter, &logger)

	app := handlers.NewApp(cfg, svc, jobs, waitlist, &logger)
	router := httpapi.NewRouter(app, httpapi.RouterConfig{
		APIKey:            cfg.APIKey,
		CORSOrigins:       cfg.CORSOrigins,
		TrustProxyHeaders: cfg.TrustProxyHeaders,
		Logger:            logger,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().
			Str("addr", server.Addr()).
			Str("job_store", cfg.JobStoreBackend).
			Int("rate_limit", cfg.RateLimitRequests).
			Dur("rate_window", cfg.RateLimitWindow).
			Msg("API listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	if fileJobs != nil {
		flushCtx, cancelFlush := context.WithTimeout(context.Background(), 5*time.Second)
		if err := fileJobs.Flush(flushCtx); err != nil {
			logger.Error().Err(err).Msg("failed to flush job store")
		}
		cancelFlush()
	}
	logger.Info().Msg("server stopped")
}
