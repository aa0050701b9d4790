package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fourmis-app/fourmis-backend/api/controllers"
	"github.com/fourmis-app/fourmis-backend/api/middleware"
	"github.com/fourmis-app/fourmis-backend/internal/auth"
	"github.com/fourmis-app/fourmis-backend/internal/invitations"
	"github.com/fourmis-app/fourmis-backend/internal/memberships"
	"github.com/fourmis-app/fourmis-backend/internal/onboarding"
	"github.com/fourmis-app/fourmis-backend/internal/schools"
	"github.com/fourmis-app/fourmis-backend/pkg/auth/session"
	"github.com/fourmis-app/fourmis-backend/pkg/config"
	"github.com/fourmis-app/fourmis-backend/pkg/db"
	"github.com/fourmis-app/fourmis-backend/pkg/enums"
	"github.com/fourmis-app/fourmis-backend/pkg/logger"
	"github.com/fourmis-app/fourmis-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessionManager sessionManager,
	authService auth.Service,
	issuer invitations.Issuer,
	redeemer invitations.Redeemer,
	invitationsRepo *invitations.Repository,
	membershipsRepo *memberships.Repository,
	schoolsRepo *schools.Repository,
	onboardingService onboarding.Service,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	redeemPolicy := middleware.NewAuthRateLimitPolicy(
		"redeem",
		cfg.AuthRateLimit.RedeemWindow,
		cfg.AuthRateLimit.RedeemIPLimit,
		cfg.AuthRateLimit.RedeemTokenLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(authService, logg))
		r.Post("/logout", controllers.AuthLogout(sessionManager, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(sessionManager, cfg.JWT, logg))
	})

	// Redemption is the only public mutating surface: the emailed token is
	// the caller's sole credential.
	r.With(middleware.TokenRateLimit(redeemPolicy, redisClient, logg, "token")).
		Post("/api/v1/invitations/{token}/redeem", controllers.InvitationRedeem(redeemer, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionManager, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/onboarding/status", controllers.OnboardingStatus(onboardingService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.SchoolContext(logg))

			// Role claim is a fast-path gate; the per-handler membership
			// check against the database stays authoritative.
			schoolRole := middleware.RequireRole(string(enums.ProfileRoleSchool), logg)

			r.Route("/invitations", func(r chi.Router) {
				r.Use(schoolRole)
				r.Post("/", controllers.InvitationsIssue(issuer, logg))
				r.Get("/", controllers.InvitationsList(invitationsRepo, membershipsRepo, logg))
				r.Delete("/{invitationId}", controllers.InvitationRevoke(invitationsRepo, membershipsRepo, logg))
			})

			r.Route("/schools/me", func(r chi.Router) {
				r.Get("/", controllers.SchoolProfile(schoolsRepo, logg))
				r.With(schoolRole).Get("/members", controllers.SchoolMembers(membershipsRepo, logg))
				r.Get("/levels", controllers.SchoolLevels(schoolsRepo, logg))
				r.With(schoolRole).Post("/levels", controllers.SchoolLevelCreate(schoolsRepo, membershipsRepo, logg))
			})
		})
	})

	return r
}
