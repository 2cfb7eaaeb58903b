package transport

import (
	"net/http"

	"github.com/ds124wfegd/icongen/internal/transport/middleware"
	"github.com/ds124wfegd/icongen/internal/web"
	"github.com/gin-gonic/gin"
)

type RouteConfig struct {
	// Supported is the result of the startup capability check. When false
	// only the landing page and health check are served.
	Supported      bool
	RequestTimeout int
}

func InitRoutes(iconHandler *IconHandler, cfg RouteConfig) *gin.Engine {

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())

	router.GET("/", func(c *gin.Context) {
		page := web.NoScriptPage
		if cfg.Supported {
			page = web.IndexPage
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", page)
	})

	// Health check
	router.GET("/health", iconHandler.Health)

	if !cfg.Supported {
		return router
	}

	// API routes
	api := router.Group("/api/v1")
	api.Use(middleware.Timeout(cfg.RequestTimeout))
	{
		api.GET("/frames", iconHandler.Frames)
		api.GET("/sizes", iconHandler.Sizes)
		api.GET("/downloads/:token", iconHandler.Download)

		sessions := api.Group("/sessions")
		{
			sessions.POST("", iconHandler.CreateSession)
			sessions.GET("/:id", iconHandler.GetSession)
			sessions.DELETE("/:id", iconHandler.DeleteSession)
			sessions.POST("/:id/file", iconHandler.UploadFile)
			sessions.PUT("/:id/frame", iconHandler.SwitchFrame)
			sessions.PUT("/:id/size", iconHandler.SetDrawSize)
			sessions.POST("/:id/render", iconHandler.Render)
			sessions.DELETE("/:id/image", iconHandler.Exit)
		}
	}

	return router
}
