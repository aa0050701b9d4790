package controllers

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/fourmis-app/fourmis-backend/api/responses"
	"github.com/fourmis-app/fourmis-backend/api/validators"
	"github.com/fourmis-app/fourmis-backend/internal/memberships"
	"github.com/fourmis-app/fourmis-backend/internal/schools"
	pkgerrors "github.com/fourmis-app/fourmis-backend/pkg/errors"
	"github.com/fourmis-app/fourmis-backend/pkg/logger"
)

// SchoolProfile returns the caller's active school.
func SchoolProfile(repo *schools.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "school repository unavailable"))
			return
		}

		_, schoolID, err := callerSchoolScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		school, err := repo.FindByID(r.Context(), schoolID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "school not found"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load school"))
			return
		}

		responses.WriteSuccess(w, schools.FromModel(school))
	}
}

// SchoolMembers returns the roster of the caller's active school.
// Restricted to school admins.
func SchoolMembers(repo *memberships.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "membership repository unavailable"))
			return
		}

		callerID, schoolID, err := callerSchoolScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := requireSchoolAdmin(r.Context(), repo, schoolID, callerID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := repo.ListBySchool(r.Context(), schoolID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list members"))
			return
		}

		dtos := make([]memberships.MemberDTO, 0, len(list))
		for i := range list {
			dtos = append(dtos, *memberships.MemberFromModel(&list[i]))
		}
		responses.WriteSuccess(w, dtos)
	}
}

// SchoolLevels lists the academic levels of the caller's active school,
// ordered by rank. Any member can read them.
func SchoolLevels(repo *schools.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "school repository unavailable"))
			return
		}

		_, schoolID, err := callerSchoolScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		levels, err := repo.ListLevels(r.Context(), schoolID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list levels"))
			return
		}

		dtos := make([]schools.AcademicLevelDTO, 0, len(levels))
		for i := range levels {
			dtos = append(dtos, *schools.LevelFromModel(&levels[i]))
		}
		responses.WriteSuccess(w, dtos)
	}
}

type levelCreateRequest struct {
	Name string `json:"name" validate:"required"`
	Rank int    `json:"rank" validate:"gte=0"`
}

// SchoolLevelCreate adds an academic level to the caller's active school.
// Restricted to school admins.
func SchoolLevelCreate(repo *schools.Repository, admins schoolAdminChecker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil || admins == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "school repository unavailable"))
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

		var body levelCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := repo.CreateLevel(r.Context(), schools.CreateAcademicLevelDTO{
			SchoolID: schoolID,
			Name:     strings.TrimSpace(body.Name),
			Rank:     body.Rank,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create level"))
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, schools.LevelFromModel(created))
	}
}
