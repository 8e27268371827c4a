package router

import (
	"context"

	"github.com/gin-gonic/gin"

	appuser "github.com/oksasatya/user-management-api/internal/application"
	"github.com/oksasatya/user-management-api/internal/container"
	"github.com/oksasatya/user-management-api/internal/infrastructure/search"
	handlers "github.com/oksasatya/user-management-api/internal/interface/http"
	"github.com/oksasatya/user-management-api/internal/interface/middleware"
	"github.com/oksasatya/user-management-api/internal/router/modules"
)

type UserModuleDeps struct {
	Service *appuser.Service
	Handler *handlers.UserHandler
}

func buildUserDeps(c *container.Container) UserModuleDeps {
	var index appuser.SearchIndex
	if c.ES != nil && c.Config.ESUsersIndex != "" {
		index = search.NewUserIndex(c.ES, c.Config.ESUsersIndex)
	}

	service := appuser.NewService(c.Users, c.Tx, c.Logger, index)
	handler := handlers.NewUserHandler(
		service,
		c.Logger,
		c.Config.DefaultPageSize,
		c.Config.MaxPageSize,
		c.Config.Debug,
	)
	return UserModuleDeps{Service: service, Handler: handler}
}

func buildHealthHandler(c *container.Container) *handlers.HealthHandler {
	checks := []handlers.Check{{Name: "database", Ping: c.Users.Ping}}
	if c.Redis != nil {
		checks = append(checks, handlers.Check{Name: "redis", Ping: func(ctx context.Context) error {
			return c.Redis.Ping(ctx).Err()
		}})
	}
	if c.ES != nil {
		checks = append(checks, handlers.Check{Name: "search", Ping: search.NewUserIndex(c.ES, c.Config.ESUsersIndex).Ping})
	}
	return handlers.NewHealthHandler(handlers.AppInfo{
		Name:        c.Config.AppName,
		Version:     c.Config.AppVersion,
		Environment: c.Config.Env,
		Debug:       c.Config.Debug,
	}, checks...)
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry, c *container.Container) *appuser.Service {
	cfg := c.Config

	allow := middleware.AllowPathPrefix("/health")
	if cfg.RateLimitBypassPrivate {
		allow = middleware.AnyAllow(allow, middleware.AllowPrivateIP())
	}
	r.Use(middleware.RateLimit(c.Redis, cfg.RateLimitRequests, cfg.RateLimitPeriod, middleware.KeyByIPAndPath(), allow))

	userDeps := buildUserDeps(c)
	r.AddRoot(modules.NewHealthModule(buildHealthHandler(c)))
	r.Add(modules.NewUserModule(userDeps.Handler))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
	return userDeps.Service
}

// NewEngine builds a gin engine with the global middleware chain.
func NewEngine(c *container.Container, extra ...gin.HandlerFunc) *gin.Engine {
	e := gin.New()
	e.Use(gin.Recovery())
	e.Use(middleware.RequestIDMiddleware(), middleware.ProcessTime(), middleware.RealIP(), middleware.SecurityHeaders())
	e.Use(extra...)
	if c.Config.HTTPLogEnabled {
		e.Use(middleware.RequestLogger(c.Logger))
	}
	return e
}
