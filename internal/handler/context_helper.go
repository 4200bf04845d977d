package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/hosteldesk/hosteldesk-api/internal/middleware"
	"github.com/hosteldesk/hosteldesk-api/internal/models"
)

// currentActor extracts the authenticated user from the gin context.
func currentActor(c *gin.Context) (models.UserInfo, bool) {
	claimsValue, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return models.UserInfo{}, false
	}
	claims, ok := claimsValue.(*models.JWTClaims)
	if !ok {
		return models.UserInfo{}, false
	}
	return models.UserInfo{
		ID:       claims.UserID,
		Email:    claims.Email,
		Name:     claims.Name,
		Role:     claims.Role,
		HostelID: claims.HostelID,
	}, true
}
