package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/project-synapse/synapse/internal/server/middleware"
	"github.com/project-synapse/synapse/internal/server/routes"
)

func RegisterRoutes(e *echo.Echo, app *middleware.App) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		if err := app.Storage.Ping(c.Request().Context()); err != nil {
			return c.String(http.StatusServiceUnavailable, "graph store unavailable")
		}
		return c.String(http.StatusOK, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AppContextMiddleware(app))

	apiRoutes.POST("/upload", routes.UploadHandler)
	apiRoutes.POST("/chat", routes.ChatHandler)
	apiRoutes.GET("/graph-data", routes.GetGraphHandler)
	apiRoutes.DELETE("/graph", routes.DeleteGraphHandler)
}
