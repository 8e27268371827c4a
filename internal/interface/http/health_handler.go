package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// Check is one dependency probed by the readiness endpoints.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

type checkResult struct {
	Healthy   bool   `json:"healthy"`
	LatencyMs int64  `json:"latency_ms"`
	Message   string `json:"message"`
}

type AppInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Debug       bool   `json:"debug"`
}

type HealthHandler struct {
	Info    AppInfo
	Checks  []Check
	Timeout time.Duration
}

func NewHealthHandler(info AppInfo, checks ...Check) *HealthHandler {
	return &HealthHandler{Info: info, Checks: checks, Timeout: 2 * time.Second}
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// run pings every dependency concurrently under one deadline.
func (h *HealthHandler) run(ctx context.Context) (map[string]checkResult, bool) {
	ctx, cancel := context.WithTimeout(ctx, h.Timeout)
	defer cancel()

	results := make([]checkResult, len(h.Checks))
	var g errgroup.Group
	for i, chk := range h.Checks {
		i, chk := i, chk
		g.Go(func() error {
			start := time.Now()
			err := chk.Ping(ctx)
			res := checkResult{Healthy: err == nil, LatencyMs: time.Since(start).Milliseconds(), Message: "Connected"}
			if err != nil {
				res.Message = err.Error()
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]checkResult, len(h.Checks))
	all := true
	for i, chk := range h.Checks {
		out[chk.Name] = results[i]
		all = all && results[i].Healthy
	}
	return out, all
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": now()})
}

func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (h *HealthHandler) Ready(c *gin.Context) {
	checks, ok := h.run(c.Request.Context())
	status, code := "ready", http.StatusOK
	if !ok {
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status, "checks": checks, "timestamp": now()})
}

func (h *HealthHandler) Detailed(c *gin.Context) {
	checks, ok := h.run(c.Request.Context())
	status := "healthy"
	if !ok {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "application": h.Info, "checks": checks, "timestamp": now()})
}

// Root describes the service and its entry points.
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    h.Info.Name,
		"version": h.Info.Version,
		"health":  "/health",
		"api":     "/api/v1",
	})
}
