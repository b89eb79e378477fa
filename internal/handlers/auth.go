package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"userportal/api/internal/metrics"
	"userportal/api/internal/middleware"
	"userportal/api/internal/service"
)

// loginRequest keeps both fields untyped on purpose: the decoded value may
// be a string or any JSON structure, and the credential policy inside the
// auth service decides which of those are acceptable.
type loginRequest struct {
	Username any `json:"username"`
	Password any `json:"password"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.LoginAttempts.WithLabelValues(metrics.OutcomeInvalidInput).Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	allowed, err := h.loginLimiter.Allow(c.Request.Context(), "ip:"+c.ClientIP())
	if err != nil {
		h.log.Warn().Err(err).Msg("login rate limiter unavailable")
	} else if !allowed {
		metrics.LoginAttempts.WithLabelValues(metrics.OutcomeThrottled).Inc()
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many login attempts"})
		return
	}

	result, err := h.authService.Login(c.Request.Context(), service.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			metrics.LoginAttempts.WithLabelValues(metrics.OutcomeInvalidInput).Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrInvalidCredentials):
			metrics.LoginAttempts.WithLabelValues(metrics.OutcomeInvalidCredentials).Inc()
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		default:
			metrics.LoginAttempts.WithLabelValues(metrics.OutcomeError).Inc()
			h.log.Error().Err(err).Msg("login failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	metrics.LoginAttempts.WithLabelValues(metrics.OutcomeSuccess).Inc()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   result.Token,
		"user":    result.User,
	})
}

type registerRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (h HandlerSet) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrConflict):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.log.Error().Err(err).Msg("registration failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	metrics.Registrations.Inc()
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"token":   result.Token,
		"user":    result.User,
	})
}

func (h HandlerSet) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Logout only acknowledges; the token is stateless and simply gets dropped
// by the client.
func (h HandlerSet) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logged out successfully",
	})
}
