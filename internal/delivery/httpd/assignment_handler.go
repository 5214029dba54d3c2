package httpd

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/campusflow/assignment-service/internal/apperr"
	"github.com/campusflow/assignment-service/internal/models"
	"github.com/campusflow/assignment-service/pkg/utils"
)

func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAssignmentRequest
	if err := utils.ReadJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, apperr.CodeValidationError, "invalid request body", nil)
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, apperr.CodeValidationError, "validation failed", validationFields(err))
		return
	}

	assignment, err := h.assignmentService.Create(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "assignment created", assignment)
}

func (h *Handler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	supervisorID := r.URL.Query().Get("supervisor_id")
	if _, err := uuid.Parse(supervisorID); err != nil {
		writeError(w, http.StatusBadRequest, apperr.CodeValidationError, "supervisor_id query parameter is required", nil)
		return
	}

	page := getIntQueryParam(r, "page", 1)
	limit := getIntQueryParam(r, "limit", 20)

	resp, err := h.assignmentService.ListBySupervisor(r.Context(), supervisorID, page, limit)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeSuccess(w, http.StatusOK, "assignments retrieved", resp)
}

func (h *Handler) GetAssignment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, apperr.CodeValidationError, "invalid assignment id", nil)
		return
	}

	assignment, err := h.assignmentService.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeSuccess(w, http.StatusOK, "assignment retrieved", assignment)
}

func (h *Handler) UpdateAssignment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, apperr.CodeValidationError, "invalid assignment id", nil)
		return
	}

	var req models.UpdateAssignmentRequest
	if err := utils.ReadJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, apperr.CodeValidationError, "invalid request body", nil)
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, apperr.CodeValidationError, "validation failed", validationFields(err))
		return
	}

	assignment, err := h.assignmentService.Update(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeSuccess(w, http.StatusOK, "assignment updated", assignment)
}

func (h *Handler) ToggleAssignmentStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, apperr.CodeValidationError, "invalid assignment id", nil)
		return
	}

	var req models.ToggleAssignmentStatusRequest
	if err := utils.ReadJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, apperr.CodeValidationError, "invalid request body", nil)
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, apperr.CodeValidationError, "validation failed", validationFields(err))
		return
	}

	assignment, err := h.assignmentService.ToggleStatus(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeSuccess(w, http.StatusOK, "assignment status updated", assignment)
}

func (h *Handler) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, apperr.CodeValidationError, "invalid assignment id", nil)
		return
	}

	supervisorID := r.URL.Query().Get("supervisor_id")
	if _, err := uuid.Parse(supervisorID); err != nil {
		writeError(w, http.StatusBadRequest, apperr.CodeValidationError, "supervisor_id query parameter is required", nil)
		return
	}

	if err := h.assignmentService.Delete(r.Context(), id, supervisorID); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeSuccess(w, http.StatusOK, "assignment deleted", nil)
}

func (h *Handler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, apperr.CodeValidationError, "invalid assignment id", nil)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, apperr.CodeValidationError, "failed to parse form data", nil)
		return
	}

	supervisorID := r.FormValue("supervisor_id")
	if _, err := uuid.Parse(supervisorID); err != nil {
		writeError(w, http.StatusBadRequest, apperr.CodeValidationError, "supervisor_id form field is required", nil)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, apperr.CodeValidationError, "file is required", nil)
		return
	}
	defer file.Close()

	fileContent, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, apperr.CodeInternalError, "failed to read file", nil)
		return
	}

	assignment, err := h.assignmentService.AddAttachment(r.Context(), id, supervisorID, fileContent, header.Filename)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "attachment uploaded", assignment)
}
