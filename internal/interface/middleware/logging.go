package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/user-management-api/pkg/helpers"
)

const HeaderProcessTime = "X-Process-Time"

type timedWriter struct {
	gin.ResponseWriter
	start   time.Time
	written bool
}

func (w *timedWriter) stamp() {
	if !w.written {
		w.written = true
		w.Header().Set(HeaderProcessTime, fmt.Sprintf("%.4f", time.Since(w.start).Seconds()))
	}
}

func (w *timedWriter) WriteHeader(code int) {
	w.stamp()
	w.ResponseWriter.WriteHeader(code)
}

func (w *timedWriter) Write(b []byte) (int, error) {
	w.stamp()
	return w.ResponseWriter.Write(b)
}

func (w *timedWriter) WriteString(s string) (int, error) {
	w.stamp()
	return w.ResponseWriter.WriteString(s)
}

// ProcessTime reports the handler duration in seconds in the X-Process-Time header.
func ProcessTime() gin.HandlerFunc {
	return func(c *gin.Context) {
		tw := &timedWriter{ResponseWriter: c.Writer, start: time.Now()}
		c.Writer = tw
		c.Next()
		if !tw.Written() {
			tw.stamp()
		}
	}
}

// RequestLogger logs one line per request with the correlation id attached.
// 5xx are logged at error, 4xx at warn, everything else at info.
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		entry := helpers.Entry(c.Request.Context(), logger).WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      status,
			"duration_ms": time.Since(start).Milliseconds(),
			"client_ip":   ipFromCtx(c),
		})
		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("request completed")
		case status >= http.StatusBadRequest:
			entry.Warn("request completed")
		default:
			entry.Info("request completed")
		}
	}
}
