package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bonuslab/loyalty-api/internal/config"
	"github.com/bonuslab/loyalty-api/internal/domain/admin"
	"github.com/bonuslab/loyalty-api/internal/domain/pending"
	"github.com/bonuslab/loyalty-api/internal/domain/purchase"
	"github.com/bonuslab/loyalty-api/internal/domain/redemption"
	"github.com/bonuslab/loyalty-api/internal/domain/reversal"
	"github.com/bonuslab/loyalty-api/internal/domain/settlement"
	"github.com/bonuslab/loyalty-api/internal/domain/subscriber"
	"github.com/bonuslab/loyalty-api/internal/middleware"
	"github.com/bonuslab/loyalty-api/internal/pkg/database"
	"github.com/bonuslab/loyalty-api/internal/pkg/jwt"
	"github.com/bonuslab/loyalty-api/internal/pkg/response"
)

func main() {
	cfg := config.Load()
	setupLogger(cfg)

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting Loyalty API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	if err := database.Migrate(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	redisClient, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redisClient)

	branches, err := config.LoadBranches(cfg.BranchesFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.BranchesFile).Msg("Failed to load branch catalog")
	}

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTSessionTTL)

	// ---------- Repositories ----------
	subscriberRepo := subscriber.NewRepository(db)
	pendingRepo := pending.NewRepository(db)
	purchaseRepo := purchase.NewRepository(db)
	redemptionRepo := redemption.NewRepository(db)
	reversalRepo := reversal.NewRepository(db, cfg.EarnDivisor)
	adminRepo := admin.NewRepository(db)

	// ---------- Services ----------
	subscriberSource := &subscriberSourceAdapter{repo: subscriberRepo}
	pendingService := pending.NewService(pendingRepo, subscriberSource, cfg.MaturityWindow, cfg.PointValue)

	otpService := subscriber.NewOTPService(redisClient, subscriberRepo, subscriber.LogSMSSender{}, cfg.OTPCodeTTL)

	purchaseService := purchase.NewService(
		purchaseRepo,
		&purchaseResolverAdapter{repo: subscriberRepo},
		pendingService,
		branches,
		cfg.EarnDivisor,
	)

	settleByMobile := func(ctx context.Context, mobile string) error {
		sub, err := subscriberRepo.GetByMobile(ctx, mobile)
		if err != nil || sub == nil {
			return err
		}
		_, err = pendingService.SettleMatured(ctx, &sub.ID)
		return err
	}
	redemptionService := redemption.NewService(redemptionRepo, settleByMobile)

	auditNotifier := reversal.NewAuditLogNotifier(db)
	reversalService := reversal.NewService(reversalRepo, auditNotifier, cfg.OwnershipWindow)

	adminService := admin.NewService(adminRepo, jwtService)

	// ---------- Settlement ----------
	locker := settlement.NewAdvisoryLock(db)
	runner := settlement.NewRunner(
		pendingService,
		locker,
		time.Duration(cfg.RetentionDays)*24*time.Hour,
		cfg.StaleAfter,
		cfg.BacklogWarnThreshold,
	)
	worker := settlement.NewWorker(runner, cfg.SettleInterval)
	worker.Start()
	defer worker.Stop()

	// ---------- Handlers ----------
	subscriberHandler := subscriber.NewHandler(otpService, subscriberRepo, pendingService)
	purchaseHandler := purchase.NewHandler(purchaseService)
	redemptionHandler := redemption.NewHandler(redemptionService)
	reversalHandler := reversal.NewHandler(reversalService)
	adminHandler := admin.NewHandler(adminService)
	settlementHandler := settlement.NewHandler(runner)

	authMiddleware := middleware.Auth(jwtService)

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Public: subscriber OTP registration and admin login
		r.Route("/auth", func(r chi.Router) {
			r.Post("/subscriber/request-code", subscriberHandler.RequestCode)
			r.Post("/subscriber/verify", subscriberHandler.VerifyCode)
			r.Post("/admin/login", adminHandler.Login)
		})

		// Staff endpoints
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)

			r.Route("/subscribers/{mobile}", func(r chi.Router) {
				r.Get("/", subscriberHandler.Get)
				r.Get("/balance", subscriberHandler.Balance)
				r.Put("/name", subscriberHandler.UpdateName)
			})

			r.Route("/purchases", func(r chi.Router) {
				r.Post("/", purchaseHandler.Create)
				r.Get("/", purchaseHandler.List)
				r.Get("/{id}", purchaseHandler.Get)
			})

			r.Route("/credit-usages", func(r chi.Router) {
				r.Post("/", redemptionHandler.Spend)
				r.Get("/", redemptionHandler.List)
			})

			r.Delete("/transactions/{kind}/{id}", reversalHandler.Reverse)

			// Manager only
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePrivileged)
				r.Post("/admins", adminHandler.Create)
				r.Get("/admins", adminHandler.List)
				r.Post("/settlement/run", settlementHandler.Run)
			})
		})
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}

// subscriberSourceAdapter exposes the subscriber repository to the
// pending credit manager without an import cycle.
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

// purchaseResolverAdapter lets the purchase service check registration
// without failing on unregistered mobiles.
type purchaseResolverAdapter struct {
	repo subscriber.Repository
}

func (a *purchaseResolverAdapter) IDByMobile(ctx context.Context, mobile string) (int64, bool, error) {
	sub, err := a.repo.GetByMobile(ctx, mobile)
	if err != nil {
		return 0, false, err
	}
	if sub == nil {
		return 0, false, nil
	}
	return sub.ID, true, nil
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
