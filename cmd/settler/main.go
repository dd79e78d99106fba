package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bonuslab/loyalty-api/internal/config"
	"github.com/bonuslab/loyalty-api/internal/domain/pending"
	"github.com/bonuslab/loyalty-api/internal/domain/settlement"
	"github.com/bonuslab/loyalty-api/internal/domain/subscriber"
	"github.com/bonuslab/loyalty-api/internal/pkg/database"
)

// Standalone settlement binary, meant to run from cron. Exits 0 when
// the cycle finished or another process held the lock, 1 on failure.
func main() {
	cfg := config.Load()
	setupLogger(cfg)

	os.Exit(run(cfg))
}

func run(cfg *config.Config) int {
	log.Info().Msg("Starting settler")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Error().Err(err).Msg("Failed to connect to PostgreSQL")
		return 1
	}
	defer database.ClosePostgres(db)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := database.Migrate(ctx, db); err != nil {
		log.Error().Err(err).Msg("Failed to run migrations")
		return 1
	}

	subscriberRepo := subscriber.NewRepository(db)
	pendingRepo := pending.NewRepository(db)
	pendingService := pending.NewService(
		pendingRepo,
		&subscriberSourceAdapter{repo: subscriberRepo},
		cfg.MaturityWindow,
		cfg.PointValue,
	)

	runner := settlement.NewRunner(
		pendingService,
		settlement.NewAdvisoryLock(db),
		time.Duration(cfg.RetentionDays)*24*time.Hour,
		cfg.StaleAfter,
		cfg.BacklogWarnThreshold,
	)

	summary, err := runner.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Settlement run failed")
		return 1
	}
	if summary.Skipped {
		return 0
	}

	log.Info().
		Int("settled", summary.SettledCount).
		Float64("amount", summary.SettledTotal).
		Int64("pruned", summary.Pruned).
		Int64("stale", summary.Stale).
		Msg("Settler finished")
	return 0
}

type subscriberSourceAdapter struct {
	repo subscriber.Repository
}

func (a *subscriberSourceAdapter) CreditByID(ctx context.Context, id int64) (float64, error) {
	return a.repo.CreditByID(ctx, id)
}

func (a *subscriberSourceAdapter) IDByMobile(ctx context.Context, mobile string) (int64, error) {
	sub, err := a.repo.GetByMobile(ctx, mobile)
	if err != nil {
		return 0, err
	}
	if sub == nil {
		return 0, pending.ErrSubscriberNotFound
	}
	return sub.ID, nil
}

func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		})
	}
}
