package handler

import (
	"encoding/json"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hosteldesk/hosteldesk-api/internal/models"
	"github.com/hosteldesk/hosteldesk-api/internal/service"
	appErrors "github.com/hosteldesk/hosteldesk-api/pkg/errors"
	"github.com/hosteldesk/hosteldesk-api/pkg/response"
)

const heartbeatInterval = 25 * time.Second

// EventHandler exposes the change feed as a server-sent event stream.
type EventHandler struct {
	service *service.EventService
	metrics *service.MetricsService
}

// NewEventHandler creates a new handler.
func NewEventHandler(svc *service.EventService, metrics *service.MetricsService) *EventHandler {
	return &EventHandler{service: svc, metrics: metrics}
}

// Stream godoc
// @Summary Change event stream
// @Description Server-sent events with change notifications scoped to the caller
// @Tags Events
// @Produce text/event-stream
// @Success 200 {string} string "event stream"
// @Failure 401 {object} response.Envelope
// @Router /events/stream [get]
func (h *EventHandler) Stream(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	sub, err := h.service.Subscribe(c.Request.Context())
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open event stream"))
		return
	}
	defer sub.Close()

	h.metrics.SubscriberConnected(1)
	defer h.metrics.SubscriberConnected(-1)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case <-heartbeat.C:
			c.SSEvent("ping", time.Now().UTC().Format(time.RFC3339))
			return true
		case event, open := <-sub.Events:
			if !open {
				return false
			}
			if !eventVisible(actor, event) {
				return true
			}
			payload, err := json.Marshal(event)
			if err != nil {
				return true
			}
			c.SSEvent("change", string(payload))
			return true
		}
	})
}

// eventVisible applies the same scoping as list endpoints: students see
// changes to their own records, wardens changes within their hostel.
func eventVisible(actor models.UserInfo, event models.ChangeEvent) bool {
	switch actor.Role {
	case models.RoleStudent:
		return event.StudentID == actor.ID
	case models.RoleWarden:
		return actor.HostelID != "" && event.HostelID == actor.HostelID
	default:
		return false
	}
}
