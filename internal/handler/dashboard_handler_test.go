package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hosteldesk/hosteldesk-api/internal/dto"
	"github.com/hosteldesk/hosteldesk-api/internal/middleware"
	"github.com/hosteldesk/hosteldesk-api/internal/models"
	"github.com/hosteldesk/hosteldesk-api/internal/service"
	"github.com/hosteldesk/hosteldesk-api/pkg/config"
)

type fakeCounters struct{}

func (fakeCounters) CountByStudent(ctx context.Context, studentID string) (int, error) {
	return 2, nil
}

func (fakeCounters) CountPendingByStudent(ctx context.Context, studentID string) (int, error) {
	return 1, nil
}

func (fakeCounters) CountStudentsByHostel(ctx context.Context, hostelID string) (int, error) {
	return 42, nil
}

func (fakeCounters) CountPendingByHostel(ctx context.Context, hostelID string) (int, error) {
	return 3, nil
}

type fakeOutings struct{}

func (fakeOutings) CountByStudent(ctx context.Context, studentID string) (int, int, error) {
	return 5, 3, nil
}

func (fakeOutings) CountPendingByHostel(ctx context.Context, hostelID string) (int, error) {
	return 6, nil
}

func newDashboardHandler() *DashboardHandler {
	counters := fakeCounters{}
	svc := service.NewDashboardService(
		counters, counters, counters, counters, fakeOutings{}, counters,
		nil, config.DashboardConfig{}, nil,
	)
	return NewDashboardHandler(svc)
}

func TestDashboardHandlerStudentUnauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newDashboardHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/student", nil)

	handler.Student(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDashboardHandlerStudentWrongRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newDashboardHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/student", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "warden-1", Role: models.RoleWarden})

	handler.Student(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDashboardHandlerStudentSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newDashboardHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/student", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent})

	handler.Student(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data dto.StudentDashboardResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 2, envelope.Data.ActiveBookings)
	assert.Equal(t, 3, envelope.Data.PendingRequests)
	assert.Equal(t, 1, envelope.Data.HelpTickets)
	assert.Equal(t, 5, envelope.Data.Outings)
}

func TestDashboardHandlerWardenSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newDashboardHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/warden", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{
		UserID: "warden-1", Role: models.RoleWarden, HostelID: "hostel-1",
	})

	handler.Warden(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data dto.WardenDashboardResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "hostel-1", envelope.Data.HostelID)
	assert.Equal(t, 42, envelope.Data.TotalStudents)
}

func TestDashboardHandlerWardenWithoutHostel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newDashboardHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/warden", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "warden-2", Role: models.RoleWarden})

	handler.Warden(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
