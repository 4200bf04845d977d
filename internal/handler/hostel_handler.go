package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hosteldesk/hosteldesk-api/internal/models"
	"github.com/hosteldesk/hosteldesk-api/internal/service"
	appErrors "github.com/hosteldesk/hosteldesk-api/pkg/errors"
	"github.com/hosteldesk/hosteldesk-api/pkg/response"
)

// HostelHandler wires HTTP endpoints to the hostel service.
type HostelHandler struct {
	service *service.HostelService
}

// NewHostelHandler creates a new handler.
func NewHostelHandler(svc *service.HostelService) *HostelHandler {
	return &HostelHandler{service: svc}
}

// List godoc
// @Summary List hostels
// @Description List all hostels with capacity and occupancy
// @Tags Hostels
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /hostels [get]
func (h *HostelHandler) List(c *gin.Context) {
	hostels, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, hostels, &response.ListMeta{Count: len(hostels)})
}

// Get godoc
// @Summary Get hostel
// @Description Fetch one hostel by id
// @Tags Hostels
// @Produce json
// @Param id path string true "Hostel ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /hostels/{id} [get]
func (h *HostelHandler) Get(c *gin.Context) {
	hostel, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, hostel, nil)
}

// Create godoc
// @Summary Create hostel
// @Description Register a new hostel
// @Tags Hostels
// @Accept json
// @Produce json
// @Param payload body models.CreateHostelRequest true "Hostel payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /hostels [post]
func (h *HostelHandler) Create(c *gin.Context) {
	var req models.CreateHostelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid hostel payload"))
		return
	}

	hostel, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, hostel)
}

// Update godoc
// @Summary Update hostel
// @Description Apply partial changes to a hostel
// @Tags Hostels
// @Accept json
// @Produce json
// @Param id path string true "Hostel ID"
// @Param payload body models.UpdateHostelRequest true "Hostel payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /hostels/{id} [put]
func (h *HostelHandler) Update(c *gin.Context) {
	var req models.UpdateHostelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid hostel payload"))
		return
	}

	hostel, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, hostel, nil)
}

// Delete godoc
// @Summary Delete hostel
// @Description Remove a hostel from the registry
// @Tags Hostels
// @Produce json
// @Param id path string true "Hostel ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /hostels/{id} [delete]
func (h *HostelHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
