package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fourmis-app/fourmis-backend/api/routes"
	"github.com/fourmis-app/fourmis-backend/internal/auth"
	"github.com/fourmis-app/fourmis-backend/internal/contacts"
	"github.com/fourmis-app/fourmis-backend/internal/identity"
	"github.com/fourmis-app/fourmis-backend/internal/invitations"
	"github.com/fourmis-app/fourmis-backend/internal/memberships"
	"github.com/fourmis-app/fourmis-backend/internal/onboarding"
	"github.com/fourmis-app/fourmis-backend/internal/profiles"
	"github.com/fourmis-app/fourmis-backend/internal/schools"
	"github.com/fourmis-app/fourmis-backend/pkg/auth/session"
	"github.com/fourmis-app/fourmis-backend/pkg/config"
	"github.com/fourmis-app/fourmis-backend/pkg/db"
	"github.com/fourmis-app/fourmis-backend/pkg/logger"
	"github.com/fourmis-app/fourmis-backend/pkg/mailer"
	"github.com/fourmis-app/fourmis-backend/pkg/metrics"
	"github.com/fourmis-app/fourmis-backend/pkg/migrate"
	"github.com/fourmis-app/fourmis-backend/pkg/redis"
)

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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	workflowMetrics := metrics.NewWorkflowMetrics(registry)

	var sender mailer.Sender
	if cfg.SMTP.Enabled() {
		smtp, err := mailer.NewSMTP(cfg.SMTP)
		if err != nil {
			logg.Error(context.Background(), "failed to configure smtp mailer", err)
			os.Exit(1)
		}
		sender = smtp
	} else {
		logg.Warn(context.Background(), "smtp not configured, invitation emails disabled")
		sender = &mailer.Noop{}
	}

	identityService, err := identity.NewService(identity.ServiceParams{DB: dbClient})
	if err != nil {
		logg.Error(context.Background(), "failed to create identity service", err)
		os.Exit(1)
	}

	profilesRepo := profiles.NewRepository(dbClient.DB())
	contactsRepo := contacts.NewRepository(dbClient.DB())
	membershipsRepo := memberships.NewRepository(dbClient.DB())
	schoolsRepo := schools.NewRepository(dbClient.DB())
	invitationsRepo := invitations.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		Identities:      identityService,
		Profiles:        profilesRepo,
		MembershipsRepo: membershipsRepo,
		SessionManager:  sessionManager,
		JWTConfig:       cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	issuer, err := invitations.NewIssuer(invitations.IssuerParams{
		Invitations: invitationsRepo,
		Memberships: membershipsRepo,
		Sender:      sender,
		Logger:      logg,
		Metrics:     workflowMetrics,
		Config:      cfg.Invitations,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create invitation issuer", err)
		os.Exit(1)
	}

	redeemer, err := invitations.NewRedeemer(invitations.RedeemerParams{
		Invitations: invitationsRepo,
		Identities:  identityService,
		Profiles:    profilesRepo,
		Contacts:    contactsRepo,
		Memberships: membershipsRepo,
		Schools:     schoolsRepo,
		Logger:      logg,
		Metrics:     workflowMetrics,
		PasswordCfg: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create invitation redeemer", err)
		os.Exit(1)
	}

	onboardingService, err := onboarding.NewService(onboarding.ServiceParams{
		Memberships: membershipsRepo,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create onboarding service", err)
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
			sessionManager,
			authService,
			issuer,
			redeemer,
			invitationsRepo,
			membershipsRepo,
			schoolsRepo,
			onboardingService,
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
