package httpd

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/campusflow/assignment-service/internal/apperr"
	"github.com/campusflow/assignment-service/pkg/utils"
)

type envelope struct {
	Message string            `json:"message"`
	Success bool              `json:"success"`
	Data    interface{}       `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
	Error   string            `json:"error,omitempty"`
}

func writeSuccess(w http.ResponseWriter, status int, message string, data interface{}) {
	utils.WriteJSON(w, status, envelope{
		Message: message,
		Success: true,
		Data:    data,
	})
}

func writeError(w http.ResponseWriter, status int, code, message string, fields map[string]string) {
	utils.WriteJSON(w, status, envelope{
		Message: message,
		Success: false,
		Error:   code,
		Errors:  fields,
	})
}

// handleServiceError maps structured service errors onto the envelope; an
// error without a kind is an internal fault and is never leaked verbatim.
func handleServiceError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	if appErr, ok := apperr.From(err); ok {
		writeError(w, apperr.HTTPStatus(appErr.Kind), appErr.Code, appErr.Message, appErr.Fields)
		return
	}

	logger.Error().Err(err).Msg("Unhandled service error")
	writeError(w, http.StatusInternalServerError, apperr.CodeInternalError, "internal server error", nil)
}

// validationFields flattens validator errors into a field:reason map.
func validationFields(err error) map[string]string {
	fields := make(map[string]string)

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		fields["request"] = err.Error()
		return fields
	}

	for _, fe := range validationErrs {
		fields[fe.Field()] = "failed validation on " + fe.Tag()
	}
	return fields
}
