package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/project-synapse/synapse/internal/server/middleware"
	"github.com/project-synapse/synapse/pkg/logger"
)

// GetGraphHandler returns the full graph for visualization. Nodes and links
// are always arrays, never null.
func GetGraphHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App

	snapshot, err := app.Storage.Snapshot(c.Request().Context())
	if err != nil {
		logger.Error("Failed to read graph snapshot", "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{
			Detail: "Failed to read the graph",
		})
	}

	return c.JSON(http.StatusOK, snapshot)
}
