package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hydrospark/backend/internal/domain/shared"
	"github.com/hydrospark/backend/internal/infrastructure/logger"
	"github.com/hydrospark/backend/internal/interfaces/http/dto"
	"github.com/hydrospark/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString(middleware.RequestIDKey); id != "" {
		return id
	}
	return c.GetHeader(middleware.RequestIDHeader)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response, deriving the status from the code
func (h *BaseHandler) Error(c *gin.Context, code, message string) {
	c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// ValidationError sends a 400 VALIDATION_ERROR response
func (h *BaseHandler) ValidationError(c *gin.Context, message string) {
	h.Error(c, shared.CodeValidation, message)
}

// HandleError converts errors to HTTP responses. Domain errors keep their
// code and message; anything else is logged and reported as an internal error.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		h.Error(c, domainErr.Code, domainErr.Message)
		return
	}

	_ = c.Error(err)
	logger.GetGinLogger(c).Error("Unhandled error", zap.Error(err))
	h.Error(c, dto.ErrCodeInternal, "internal error")
}

// ParseUUIDParam parses a path parameter as a UUID, answering 400 on failure
func (h *BaseHandler) ParseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.ValidationError(c, fmt.Sprintf("Invalid %s: must be a UUID", name))
		return uuid.Nil, false
	}
	return id, true
}

// BindJSON binds the request body, answering 400 on failure
func (h *BaseHandler) BindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.ValidationError(c, bindingMessage(err))
		return false
	}
	return true
}

// BindQuery binds query parameters, answering 400 on failure
func (h *BaseHandler) BindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		h.ValidationError(c, bindingMessage(err))
		return false
	}
	return true
}

// bindingMessage renders the first failed rule as "field: rule"
func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Param() != "" {
			return fmt.Sprintf("Invalid %s: failed %s=%s", fe.Field(), fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("Invalid %s: failed %s", fe.Field(), fe.Tag())
	}
	return "Invalid request: " + err.Error()
}

// parseDate parses an optional YYYY-MM-DD value, answering 400 on failure
func (h *BaseHandler) parseDate(c *gin.Context, name, value string) (*time.Time, bool) {
	t, err := dto.ParseDate(value)
	if err != nil {
		h.ValidationError(c, fmt.Sprintf("Invalid %s: expected YYYY-MM-DD", name))
		return nil, false
	}
	return t, true
}
