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

// OutingHandler wires HTTP endpoints to the outing service.
type OutingHandler struct {
	service *service.OutingService
}

// NewOutingHandler creates a new handler.
func NewOutingHandler(svc *service.OutingService) *OutingHandler {
	return &OutingHandler{service: svc}
}

// Create godoc
// @Summary Create outing request
// @Description Ask permission to leave the hostel on a given date
// @Tags Outings
// @Accept json
// @Produce json
// @Param payload body dto.CreateOutingRequest true "Outing payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /outing-requests [post]
func (h *OutingHandler) Create(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateOutingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid outing payload"))
		return
	}

	outing, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, outing)
}

// List godoc
// @Summary List outing requests
// @Description List outing requests visible to the caller, newest first
// @Tags Outings
// @Produce json
// @Param status query string false "Filter by status"
// @Success 200 {object} response.Envelope
// @Router /outing-requests [get]
func (h *OutingHandler) List(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	outings, err := h.service.List(c.Request.Context(), actor, models.RequestStatus(c.Query("status")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, outings, &response.ListMeta{Count: len(outings)})
}

// Get godoc
// @Summary Get outing request
// @Description Fetch a single outing request by id
// @Tags Outings
// @Produce json
// @Param id path string true "Outing ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /outing-requests/{id} [get]
func (h *OutingHandler) Get(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	outing, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, outing, nil)
}

// Transition godoc
// @Summary Transition outing request
// @Description Approve or reject a pending outing request
// @Tags Outings
// @Accept json
// @Produce json
// @Param id path string true "Outing ID"
// @Param payload body dto.TransitionRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /outing-requests/{id}/status [patch]
func (h *OutingHandler) Transition(c *gin.Context) {
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

	outing, err := h.service.Transition(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, outing, nil)
}
