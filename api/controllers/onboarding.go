package controllers

import (
	"net/http"

	"github.com/fourmis-app/fourmis-backend/api/responses"
	"github.com/fourmis-app/fourmis-backend/internal/onboarding"
	pkgerrors "github.com/fourmis-app/fourmis-backend/pkg/errors"
	"github.com/fourmis-app/fourmis-backend/pkg/logger"
)

// OnboardingStatus tells the dashboard shell whether the caller finished
// enrollment. The check itself never fails; only a broken session does.
func OnboardingStatus(svc onboarding.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "onboarding service unavailable"))
			return
		}

		callerID, err := callerProfileID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, svc.Check(r.Context(), callerID))
	}
}
