package httpd

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/campusflow/assignment-service/internal/service"
)

type Handler struct {
	assignmentService service.AssignmentService
	invitationService service.InvitationService
	gradingService    service.GradingService
	groupService      service.GroupService
	analyticsService  service.AnalyticsService
	validate          *validator.Validate
	logger            zerolog.Logger
}

func NewHandler(
	assignmentService service.AssignmentService,
	invitationService service.InvitationService,
	gradingService service.GradingService,
	groupService service.GroupService,
	analyticsService service.AnalyticsService,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		assignmentService: assignmentService,
		invitationService: invitationService,
		gradingService:    gradingService,
		groupService:      groupService,
		analyticsService:  analyticsService,
		validate:          validator.New(),
		logger:            logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.HealthCheck)

	router.Route("/api/v1", func(api chi.Router) {
		api.Route("/assignments", func(r chi.Router) {
			r.Post("/", h.CreateAssignment)
			r.Get("/", h.ListAssignments)
			r.Get("/{id}", h.GetAssignment)
			r.Put("/{id}", h.UpdateAssignment)
			r.Put("/{id}/status", h.ToggleAssignmentStatus)
			r.Delete("/{id}", h.DeleteAssignment)
			r.Post("/{id}/attachments", h.UploadAttachment)
			r.Post("/{id}/invitations", h.InviteStudents)
			r.Delete("/{id}/invitations", h.UninviteStudents)
		})

		api.Route("/submissions", func(r chi.Router) {
			r.Get("/{id}", h.GetSubmission)
			r.Put("/{id}/grade", h.GradeSubmission)
		})

		api.Route("/groups", func(r chi.Router) {
			r.Post("/", h.CreateGroup)
			r.Put("/{id}", h.UpdateGroup)
			r.Delete("/{id}", h.DeleteGroup)
		})

		api.Get("/analytics/overview", h.AnalyticsOverview)
	})
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, "healthy", map[string]interface{}{
		"service":   "assignment-service",
		"timestamp": time.Now().UTC(),
	})
}

func getIntQueryParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}
