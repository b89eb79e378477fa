package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"

	"userportal/api/internal/models"
	"userportal/api/internal/store"
)

func (h HandlerSet) AdminDashboard(c *gin.Context) {
	stats, err := h.statsService.Dashboard(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("dashboard stats failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

type roleUpdateRequest struct {
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

func (h HandlerSet) UpdateUserRole(c *gin.Context) {
	var req roleUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if !models.ValidRole(req.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
		return
	}

	permissions := req.Permissions
	if permissions == nil {
		permissions = []string{}
	}

	user, err := h.users.UpdateByID(c.Request.Context(), c.Param("id"), bson.M{
		"$set": bson.M{
			"role":        req.Role,
			"permissions": permissions,
		},
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.log.Error().Err(err).Msg("role update failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

type logEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	User      string    `json:"user"`
	IP        string    `json:"ip"`
}

// AdminLogs serves canned entries; the training deployment has no real log
// pipeline behind it.
func (h HandlerSet) AdminLogs(c *gin.Context) {
	now := time.Now().UTC()
	logs := []logEntry{
		{Timestamp: now, Level: "INFO", Message: "User login successful", User: "jdoe", IP: "192.168.1.100"},
		{Timestamp: now.Add(-time.Minute), Level: "WARN", Message: "Failed login attempt", User: "unknown", IP: "10.0.0.1"},
		{Timestamp: now.Add(-2 * time.Minute), Level: "INFO", Message: "User profile updated", User: "msmith", IP: "192.168.1.101"},
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

func (h HandlerSet) ListFlags(c *gin.Context) {
	flags, err := h.flags.Find(c.Request.Context(), bson.M{"isActive": true})
	if err != nil {
		h.log.Error().Err(err).Msg("list flags failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"flags": flags})
}

func (h HandlerSet) GetFlag(c *gin.Context) {
	flag, err := h.flags.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "flag not found"})
			return
		}
		h.log.Error().Err(err).Msg("get flag failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"flag": flag})
}
