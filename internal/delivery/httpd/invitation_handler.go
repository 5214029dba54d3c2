package httpd

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/campusflow/assignment-service/internal/apperr"
	"github.com/campusflow/assignment-service/internal/models"
	"github.com/campusflow/assignment-service/pkg/utils"
)

func (h *Handler) InviteStudents(w http.ResponseWriter, r *http.Request) {
	assignmentID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(assignmentID); err != nil {
		writeError(w, http.StatusBadRequest, apperr.CodeValidationError, "invalid assignment id", nil)
		return
	}

	var req models.InviteStudentsRequest
	if err := utils.ReadJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, apperr.CodeValidationError, "invalid request body", nil)
		return
	}
	req.AssignmentID = assignmentID

	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, apperr.CodeValidationError, "validation failed", validationFields(err))
		return
	}

	resp, err := h.invitationService.Invite(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "students invited", resp)
}

func (h *Handler) UninviteStudents(w http.ResponseWriter, r *http.Request) {
	assignmentID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(assignmentID); err != nil {
		writeError(w, http.StatusBadRequest, apperr.CodeValidationError, "invalid assignment id", nil)
		return
	}

	var req models.UninviteStudentsRequest
	if err := utils.ReadJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, apperr.CodeValidationError, "invalid request body", nil)
		return
	}
	req.AssignmentID = assignmentID

	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, apperr.CodeValidationError, "validation failed", validationFields(err))
		return
	}

	resp, err := h.invitationService.Uninvite(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeSuccess(w, http.StatusOK, "students uninvited", resp)
}
