package httpd

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/campusflow/assignment-service/internal/apperr"
	"github.com/campusflow/assignment-service/internal/models"
	"github.com/campusflow/assignment-service/pkg/utils"
)

func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req models.CreateGroupRequest
	if err := utils.ReadJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, apperr.CodeValidationError, "invalid request body", nil)
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, apperr.CodeValidationError, "validation failed", validationFields(err))
		return
	}

	group, err := h.groupService.Create(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "group created", group)
}

func (h *Handler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, apperr.CodeValidationError, "invalid group id", nil)
		return
	}

	var req models.UpdateGroupRequest
	if err := utils.ReadJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, apperr.CodeValidationError, "invalid request body", nil)
		return
	}
	req.GroupID = id

	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, apperr.CodeValidationError, "validation failed", validationFields(err))
		return
	}

	if req.Name == nil && req.MemberIDs == nil {
		writeError(w, http.StatusBadRequest, apperr.CodeValidationError, "nothing to update", nil)
		return
	}

	group, err := h.groupService.Update(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeSuccess(w, http.StatusOK, "group updated", group)
}

func (h *Handler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, apperr.CodeValidationError, "invalid group id", nil)
		return
	}

	supervisorID := r.URL.Query().Get("supervisor_id")
	if _, err := uuid.Parse(supervisorID); err != nil {
		writeError(w, http.StatusBadRequest, apperr.CodeValidationError, "supervisor_id query parameter is required", nil)
		return
	}

	if err := h.groupService.Delete(r.Context(), id, supervisorID); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeSuccess(w, http.StatusOK, "group deleted", nil)
}
