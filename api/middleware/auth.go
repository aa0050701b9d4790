package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/fourmis-app/fourmis-backend/api/responses"
	pkgAuth "github.com/fourmis-app/fourmis-backend/pkg/auth"
	"github.com/fourmis-app/fourmis-backend/pkg/auth/session"
	"github.com/fourmis-app/fourmis-backend/pkg/config"
	pkgerrors "github.com/fourmis-app/fourmis-backend/pkg/errors"
	"github.com/fourmis-app/fourmis-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the claims.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			if claims.ID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
				return
			}

			if verifier != nil {
				ok, err := verifier.HasSession(r.Context(), claims.ID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !ok {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable"))
					return
				}
			}

			ctx := context.WithValue(r.Context(), ctxProfileID, claims.ProfileID.String())
			ctx = context.WithValue(ctx, ctxRole, string(claims.Role))
			if claims.SchoolID != nil {
				ctx = context.WithValue(ctx, ctxSchoolID, claims.SchoolID.String())
			}

			if logg != nil {
				ctx = logg.WithProfileID(ctx, claims.ProfileID.String())
				ctx = logg.WithActorRole(ctx, string(claims.Role))
				if claims.SchoolID != nil {
					ctx = logg.WithSchoolID(ctx, claims.SchoolID.String())
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
