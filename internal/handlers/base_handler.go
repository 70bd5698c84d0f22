package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JaredJameson/TESTHUB/internal/models"
	"github.com/JaredJameson/TESTHUB/internal/services"
	"github.com/JaredJameson/TESTHUB/internal/utils"
	"github.com/JaredJameson/TESTHUB/internal/validator"
)

// ErrorResponse is the error body every endpoint returns.
type ErrorResponse struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// SuccessResponse wraps endpoint payloads.
type SuccessResponse struct {
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// BaseHandler carries the pieces every handler shares.
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs an incoming request with the request-scoped logger.
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.GetLogger(c, h.logger).Info(msg, args...)
}

// currentUser returns the authenticated user placed in the context by the
// auth middleware.
func (h *BaseHandler) currentUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get("user")
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

// requireUser aborts with 401 when no authenticated user is in the context.
func (h *BaseHandler) requireUser(c *gin.Context) (*models.User, bool) {
	user, ok := h.currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "user not found in context",
		})
	}
	return user, ok
}

// handleServiceError maps service-layer errors to HTTP responses.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var (
		validationErr  *services.ValidationError
		validationErrs validator.ValidationErrors
		permissionErr  *services.PermissionError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_failed",
			Message: validationErr.Error(),
		})
	case errors.As(err, &validationErrs):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_failed",
			Message: "request validation failed",
			Details: validationErrs,
		})
	case errors.As(err, &permissionErr):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "forbidden",
			Message: permissionErr.Error(),
		})
	case errors.Is(err, services.ErrSessionNotFound),
		errors.Is(err, services.ErrResultNotFound),
		errors.Is(err, services.ErrStudentNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrMaxAttemptsReached):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "max_attempts_reached",
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrTestTimeExpired):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "time_expired",
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrTestAlreadyStarted),
		errors.Is(err, services.ErrTestNotInProgress),
		errors.Is(err, services.ErrQuestionLocked):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "conflict",
			Message: err.Error(),
		})
	default:
		utils.GetLogger(c, h.logger).Error("Unhandled service error", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "an internal error occurred",
		})
	}
}
