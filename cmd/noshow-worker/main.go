package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinic-queue-engine/internal/clinic"
	"github.com/clinicdesk/clinic-queue-engine/internal/config"
	"github.com/clinicdesk/clinic-queue-engine/internal/db"
	redisclient "github.com/clinicdesk/clinic-queue-engine/internal/redis"
)

// The no-show worker closes out appointments left open from previous
// days: waiting patients who were never seen become NO_SHOW, scheduled
// ones who never checked in are cancelled.
func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Str("service", "noshow-worker").Logger()
	logger.Info().Msg("noshow-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config load error")
	}
	logger.Info().Str("env", cfg.Env).Dur("interval", cfg.WorkerInterval).Msg("configuration loaded")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	logger.Info().Msg("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing redis")
		}
	}()

	repo := clinic.NewPgRepository(pgPool)
	locker := redisclient.NewPartitionLocker(rdb, cfg.LockTTL)
	engine := clinic.NewService(repo, locker)

	runOnce(rootCtx, engine, logger)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			logger.Info().Msg("shutdown signal received, stopping noshow worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, engine, logger)
		}
	}
}

func runOnce(ctx context.Context, engine *clinic.Service, logger zerolog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	today := clinic.VisitDateOf(start)

	closed, err := engine.SweepNoShows(runCtx, today)
	if err != nil {
		logger.Error().Err(err).Msg("sweep run error")
		return
	}
	logger.Info().Int("closed", closed).Dur("took", time.Since(start)).Msg("sweep complete")
}
