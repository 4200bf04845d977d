package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hosteldesk/hosteldesk-api/internal/dto"
	"github.com/hosteldesk/hosteldesk-api/internal/models"
	"github.com/hosteldesk/hosteldesk-api/internal/service"
	appErrors "github.com/hosteldesk/hosteldesk-api/pkg/errors"
	"github.com/hosteldesk/hosteldesk-api/pkg/response"
)

// HelpRequestHandler wires HTTP endpoints to the help request service.
type HelpRequestHandler struct {
	service *service.HelpRequestService
}

// NewHelpRequestHandler creates a new handler.
func NewHelpRequestHandler(svc *service.HelpRequestService) *HelpRequestHandler {
	return &HelpRequestHandler{service: svc}
}

// Categories godoc
// @Summary List help categories
// @Description Return the fixed set of ticket categories
// @Tags HelpRequests
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /help-requests/categories [get]
func (h *HelpRequestHandler) Categories(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Categories(), nil)
}

// Create godoc
// @Summary Create help request
// @Description Open a categorised support ticket
// @Tags HelpRequests
// @Accept json
// @Produce json
// @Param payload body dto.CreateHelpRequest true "Ticket payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /help-requests [post]
func (h *HelpRequestHandler) Create(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateHelpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid help request payload"))
		return
	}

	ticket, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, ticket)
}

// List godoc
// @Summary List help requests
// @Description List tickets visible to the caller, newest first
// @Tags HelpRequests
// @Produce json
// @Param status query string false "Filter by status"
// @Success 200 {object} response.Envelope
// @Router /help-requests [get]
func (h *HelpRequestHandler) List(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	tickets, err := h.service.List(c.Request.Context(), actor, models.RequestStatus(c.Query("status")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tickets, &response.ListMeta{Count: len(tickets)})
}

// Get godoc
// @Summary Get help request
// @Description Fetch a single ticket by id
// @Tags HelpRequests
// @Produce json
// @Param id path string true "Ticket ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /help-requests/{id} [get]
func (h *HelpRequestHandler) Get(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	ticket, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ticket, nil)
}

// Transition godoc
// @Summary Transition help request
// @Description Resolve a pending ticket
// @Tags HelpRequests
// @Accept json
// @Produce json
// @Param id path string true "Ticket ID"
// @Param payload body dto.TransitionRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /help-requests/{id}/status [patch]
func (h *HelpRequestHandler) Transition(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid transition payload"))
		return
	}

	ticket, err := h.service.Transition(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ticket, nil)
}
