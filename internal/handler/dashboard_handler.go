package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hosteldesk/hosteldesk-api/internal/models"
	"github.com/hosteldesk/hosteldesk-api/internal/service"
	appErrors "github.com/hosteldesk/hosteldesk-api/pkg/errors"
	"github.com/hosteldesk/hosteldesk-api/pkg/response"
)

// DashboardHandler wires HTTP endpoints to the dashboard service.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler creates a new handler.
func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Student godoc
// @Summary Student dashboard
// @Description Counter summary for the authenticated student
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /dashboard/student [get]
func (h *DashboardHandler) Student(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if actor.Role != models.RoleStudent {
		response.Error(c, appErrors.ErrForbidden)
		return
	}

	summary, err := h.service.Student(c.Request.Context(), actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Warden godoc
// @Summary Warden dashboard
// @Description Workload summary for the warden's hostel
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /dashboard/warden [get]
func (h *DashboardHandler) Warden(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if actor.Role != models.RoleWarden {
		response.Error(c, appErrors.ErrForbidden)
		return
	}

	summary, err := h.service.Warden(c.Request.Context(), actor.HostelID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
