package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oksasatya/user-management-api/pkg/helpers"
	"github.com/oksasatya/user-management-api/pkg/response"
)

const (
	HeaderCorrelationID = "X-Correlation-ID"
	HeaderRequestID     = "X-Request-ID"

	maxCorrelationIDLen = 128
)

// RequestIDMiddleware reuses the caller's correlation id (X-Correlation-ID,
// then X-Request-ID) or generates one. The id is stored in the gin context,
// the request context and echoed in the response headers.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderCorrelationID))
		if id == "" {
			id = strings.TrimSpace(c.GetHeader(HeaderRequestID))
		}
		if id == "" || len(id) > maxCorrelationIDLen {
			id = uuid.NewString()
		}

		c.Set(response.RequestIDKey, id)
		c.Request = c.Request.WithContext(helpers.WithRequestID(c.Request.Context(), id))
		c.Header(HeaderCorrelationID, id)
		c.Next()
	}
}
