package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vbkouture/cencad-backend/api/routes"
	"github.com/vbkouture/cencad-backend/internal/accounts"
	"github.com/vbkouture/cencad-backend/internal/assignments"
	"github.com/vbkouture/cencad-backend/internal/enrollments"
	"github.com/vbkouture/cencad-backend/internal/licenses"
	"github.com/vbkouture/cencad-backend/internal/trainees"
	"github.com/vbkouture/cencad-backend/internal/users"
	stripewebhook "github.com/vbkouture/cencad-backend/internal/webhooks/stripe"
	"github.com/vbkouture/cencad-backend/pkg/config"
	"github.com/vbkouture/cencad-backend/pkg/db"
	"github.com/vbkouture/cencad-backend/pkg/logger"
	"github.com/vbkouture/cencad-backend/pkg/mailer"
	"github.com/vbkouture/cencad-backend/pkg/metrics"
	"github.com/vbkouture/cencad-backend/pkg/migrate"
	"github.com/vbkouture/cencad-backend/pkg/redis"
	"github.com/vbkouture/cencad-backend/pkg/stripe"
)

const webhookGuardTTL = 24 * time.Hour

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	promRegistry := prometheus.NewRegistry()
	seatMetrics := metrics.NewSeatMetrics(promRegistry)
	webhookMetrics := metrics.NewWebhookMetrics(promRegistry)

	var mail mailer.Mailer
	if cfg.SMTP.Host != "" {
		smtpMailer, err := mailer.NewSMTP(cfg.SMTP)
		if err != nil {
			logg.Error(context.Background(), "failed to configure smtp mailer", err)
			os.Exit(1)
		}
		mail = smtpMailer
	} else {
		logg.Warn(context.Background(), "smtp host not configured, invitations are logged only")
		mail = mailer.NewLogMailer(logg)
	}

	usersRepo := users.NewRepository(dbClient.DB())
	accountsRepo := accounts.NewRepository(dbClient.DB())
	licensesRepo := licenses.NewRepository(dbClient.DB())
	traineesRepo := trainees.NewRepository(dbClient.DB())
	assignmentsRepo := assignments.NewRepository(dbClient.DB())
	enrollmentsRepo := enrollments.NewRepository(dbClient.DB())

	accountsService, err := accounts.NewService(accountsRepo, usersRepo, licensesRepo, traineesRepo, logg, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create accounts service", err)
		os.Exit(1)
	}

	licensesService, err := licenses.NewService(licensesRepo, accountsService)
	if err != nil {
		logg.Error(context.Background(), "failed to create licenses service", err)
		os.Exit(1)
	}

	enrollmentsService, err := enrollments.NewService(enrollmentsRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create enrollments service", err)
		os.Exit(1)
	}

	assignmentsService, err := assignments.NewService(assignmentsRepo, licensesRepo, traineesRepo, enrollmentsService, accountsService, logg, seatMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create assignments service", err)
		os.Exit(1)
	}

	traineesService, err := trainees.NewService(traineesRepo, usersRepo, accountsService, assignmentsService, mail, logg, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create trainees service", err)
		os.Exit(1)
	}

	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, webhookGuardTTL, "stripe")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook guard", err)
		os.Exit(1)
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Ledger:   enrollmentsService,
		Licenses: licensesService,
		Guard:    webhookGuard,
		Logger:   logg,
		Metrics:  webhookMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			accountsService,
			licensesService,
			traineesService,
			assignmentsService,
			stripeClient,
			webhookService,
			promRegistry,
		),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-shutdownCtx.Done()
		drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(drainCtx, "graceful shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}
