package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hydrospark/backend/internal/interfaces/http/dto"
)

// DefaultMaxBodyBytes bounds JSON request bodies
const DefaultMaxBodyBytes int64 = 1 << 20

// BodyLimit rejects declared oversize bodies up front and caps streamed ones
// while they are read.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRequestTooLarge,
				"Request body exceeds maximum allowed size",
				c.GetString(RequestIDKey),
			))
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
