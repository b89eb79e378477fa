package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"

	"userportal/api/internal/middleware"
	"userportal/api/internal/models"
	"userportal/api/internal/store"
)

// ListUsers returns active users with optional search and filter params.
// Soft-deleted records never show up here; they stay reachable through
// GetUser for audit purposes.
func (h HandlerSet) ListUsers(c *gin.Context) {
	filter := bson.M{"isActive": true}

	if search := c.Query("search"); search != "" {
		pattern := bson.M{"$regex": search, "$options": "i"}
		filter["$or"] = []any{
			bson.M{"username": pattern},
			bson.M{"email": pattern},
			bson.M{"profile.firstName": pattern},
			bson.M{"profile.lastName": pattern},
		}
	}
	if department := c.Query("department"); department != "" {
		filter["profile.department"] = department
	}
	if role := c.Query("role"); role != "" {
		filter["role"] = role
	}

	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 10)
	if limit > 100 {
		limit = 100
	}

	users, err := h.users.Find(c.Request.Context(), filter, store.ListOptions{
		Skip:            int64((page - 1) * limit),
		Limit:           int64(limit),
		SortNewestFirst: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("list users failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	total, err := h.users.Count(c.Request.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("count users failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
			"pages": pages,
		},
	})
}

func (h HandlerSet) GetUser(c *gin.Context) {
	user, err := h.users.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.log.Error().Err(err).Msg("get user failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h HandlerSet) UpdateUser(c *gin.Context) {
	current, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id := c.Param("id")
	if current.ID != id && current.Role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "can only update your own profile"})
		return
	}

	var updates map[string]any
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	// sensitive fields are never writable through this endpoint
	for _, field := range []string{"password", "role", "permissions", "_id", "id", "isActive"} {
		delete(updates, field)
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no updatable fields supplied"})
		return
	}

	user, err := h.users.UpdateByID(c.Request.Context(), id, bson.M{"$set": bson.M(updates)})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.log.Error().Err(err).Msg("update user failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// DeleteUser is a soft delete: the record flips inactive and disappears
// from listings, nothing is removed.
func (h HandlerSet) DeleteUser(c *gin.Context) {
	user, err := h.users.UpdateByID(c.Request.Context(), c.Param("id"), bson.M{
		"$set": bson.M{"isActive": false},
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.log.Error().Err(err).Msg("delete user failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User deactivated successfully",
		"user":    user,
	})
}

func (h HandlerSet) UserStats(c *gin.Context) {
	stats, err := h.statsService.Overview(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("user stats failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}
