package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/user-management-api/internal/interface/http"
)

// UserModule wires the user CRUD handlers under /users.
// Static segments (statistics, search, by-username, by-email) are registered
// alongside /:id; gin resolves them before the wildcard.
type UserModule struct {
	Handler *handlers.UserHandler
}

func NewUserModule(h *handlers.UserHandler) *UserModule {
	return &UserModule{Handler: h}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	{
		users.POST("", m.Handler.Create)
		users.GET("", m.Handler.List)
		users.GET("/statistics", m.Handler.Statistics)
		users.GET("/search", m.Handler.Search)
		users.GET("/by-username/:username", m.Handler.GetByUsername)
		users.GET("/by-email/:email", m.Handler.GetByEmail)
		users.GET("/:id", m.Handler.Get)
		users.PUT("/:id", m.Handler.Update)
		users.PATCH("/:id", m.Handler.Update)
		users.DELETE("/:id", m.Handler.Delete)
		users.POST("/:id/activate", m.Handler.Activate)
		users.POST("/:id/deactivate", m.Handler.Deactivate)
	}
}
