package middleware

import (
	"net/http"

	"github.com/fourmis-app/fourmis-backend/api/responses"
	pkgerrors "github.com/fourmis-app/fourmis-backend/pkg/errors"
	"github.com/fourmis-app/fourmis-backend/pkg/logger"
)

// SchoolContext rejects requests whose access token carries no active school.
// Profiles that never finished onboarding have no school to act on.
func SchoolContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if SchoolIDFromContext(r.Context()) == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "school context missing"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
