package httpd

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/campusflow/assignment-service/internal/apperr"
)

func (h *Handler) AnalyticsOverview(w http.ResponseWriter, r *http.Request) {
	supervisorID := r.URL.Query().Get("supervisor_id")
	if _, err := uuid.Parse(supervisorID); err != nil {
		writeError(w, http.StatusBadRequest, apperr.CodeValidationError, "supervisor_id query parameter is required", nil)
		return
	}

	overview, err := h.analyticsService.Overview(r.Context(), supervisorID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeSuccess(w, http.StatusOK, "analytics overview retrieved", overview)
}
