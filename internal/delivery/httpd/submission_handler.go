package httpd

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/campusflow/assignment-service/internal/apperr"
	"github.com/campusflow/assignment-service/internal/models"
	"github.com/campusflow/assignment-service/pkg/utils"
)

func (h *Handler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, apperr.CodeValidationError, "invalid submission id", nil)
		return
	}

	submission, err := h.gradingService.GetSubmission(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeSuccess(w, http.StatusOK, "submission retrieved", submission)
}

func (h *Handler) GradeSubmission(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, apperr.CodeValidationError, "invalid submission id", nil)
		return
	}

	var req models.GradeSubmissionRequest
	if err := utils.ReadJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, apperr.CodeValidationError, "invalid request body", nil)
		return
	}
	req.SubmissionID = id

	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, apperr.CodeValidationError, "validation failed", validationFields(err))
		return
	}

	submission, err := h.gradingService.Grade(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeSuccess(w, http.StatusOK, "submission graded", submission)
}
