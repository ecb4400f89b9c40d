package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/bookline/scheduling/internal/appointment"
	"github.com/bookline/scheduling/internal/config"
	"github.com/bookline/scheduling/internal/db"
	"github.com/bookline/scheduling/internal/logging"
	redisclient "github.com/bookline/scheduling/internal/redis"
)

// The sweep worker is the compensating path for overlap races: proposals are
// serialized per business by the Redis lock, but two nodes can still commit
// colliding intervals if a lock expires mid-critical-section. The sweep
// periodically scans active appointments and annulates the younger member of
// every colliding pair.
func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config load error: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logging.New(cfg.Env)
	if err != nil {
		os.Stderr.WriteString("logger init error: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("sweep-worker starting up",
		zap.Duration("interval", cfg.SweepInterval),
		zap.Duration("window", cfg.SweepWindow))

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal("postgres connection error", zap.Error(err))
	}
	defer pgPool.Close()
	log.Info("connected to Postgres")

	repo := appointment.NewPgRepository(pgPool)
	// The sweep only reads and CAS-updates; it never takes the business lock.
	svc := appointment.NewService(repo, redisclient.NopLocker{}, appointment.SystemClock{}, log)

	// Run once at startup
	runOnce(rootCtx, svc, cfg, log)

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Info("shutdown signal received, stopping sweep worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, cfg, log)
		}
	}
}

func runOnce(ctx context.Context, svc *appointment.Service, cfg config.Config, log *zap.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	now := time.Now().UTC()
	from := now.Add(-cfg.SweepWindow)
	to := now.Add(cfg.SweepWindow)

	start := time.Now()
	annulated, err := svc.SweepOverlaps(runCtx, from, to)
	if err != nil {
		log.Error("sweep run error", zap.Error(err))
		return
	}
	log.Info("sweep run complete",
		zap.Int("annulated", annulated),
		zap.Duration("took", time.Since(start)))
}
