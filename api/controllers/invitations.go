package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fourmis-app/fourmis-backend/api/middleware"
	"github.com/fourmis-app/fourmis-backend/api/responses"
	"github.com/fourmis-app/fourmis-backend/api/validators"
	"github.com/fourmis-app/fourmis-backend/internal/invitations"
	pkgerrors "github.com/fourmis-app/fourmis-backend/pkg/errors"
	"github.com/fourmis-app/fourmis-backend/pkg/logger"
)

type schoolAdminChecker interface {
	IsSchoolAdmin(ctx context.Context, schoolID, profileID uuid.UUID) (bool, error)
}

// InvitationsIssue accepts a batch of invitation entries for the caller's
// active school and reports per-entry outcomes.
func InvitationsIssue(svc invitations.Issuer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invitation issuer unavailable"))
			return
		}

		callerID, err := callerProfileID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body invitations.IssueRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Issue(r.Context(), callerID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// InvitationsList returns the pending and consumed invitations of the
// caller's active school. Restricted to school admins.
func InvitationsList(repo *invitations.Repository, admins schoolAdminChecker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil || admins == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invitation repository unavailable"))
			return
		}

		callerID, schoolID, err := callerSchoolScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := requireSchoolAdmin(r.Context(), admins, schoolID, callerID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := repo.ListBySchool(r.Context(), schoolID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list invitations"))
			return
		}

		dtos := make([]invitations.InvitationDTO, 0, len(list))
		for i := range list {
			dtos = append(dtos, *invitations.FromModel(&list[i]))
		}
		responses.WriteSuccess(w, dtos)
	}
}

// InvitationRevoke deletes an unredeemed invitation so its link stops
// working. Restricted to admins of the school that issued it.
func InvitationRevoke(repo *invitations.Repository, admins schoolAdminChecker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil || admins == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invitation repository unavailable"))
			return
		}

		callerID, schoolID, err := callerSchoolScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invitationID, err := uuid.Parse(chi.URLParam(r, "invitationId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid invitation id"))
			return
		}

		if err := requireSchoolAdmin(r.Context(), admins, schoolID, callerID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		inv, err := repo.FindByID(r.Context(), invitationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "invitation not found"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load invitation"))
			return
		}

		if inv.SchoolID != schoolID {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "invitation not found"))
			return
		}
		if inv.ConsumedAt != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeConflict, "invitation already redeemed"))
			return
		}

		if err := repo.Delete(r.Context(), invitationID); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete invitation"))
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "revoked"})
	}
}

// InvitationRedeem turns a valid invitation link into a provisioned account.
// Public: the emailed token is the only credential.
func InvitationRedeem(svc invitations.Redeemer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invitation redeemer unavailable"))
			return
		}

		token := strings.TrimSpace(chi.URLParam(r, "token"))
		if token == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInvalidToken, "invitation link is invalid or has expired"))
			return
		}

		var body invitations.RedeemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Redeem(r.Context(), token, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func callerProfileID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.ProfileIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "profile context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid profile id")
	}
	return id, nil
}

func callerSchoolScope(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	callerID, err := callerProfileID(r)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}

	raw := middleware.SchoolIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "school context missing")
	}
	schoolID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid school id")
	}
	return callerID, schoolID, nil
}

func requireSchoolAdmin(ctx context.Context, admins schoolAdminChecker, schoolID, profileID uuid.UUID) error {
	ok, err := admins.IsSchoolAdmin(ctx, schoolID, profileID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verify admin membership")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeForbidden, "school admin role required")
	}
	return nil
}
