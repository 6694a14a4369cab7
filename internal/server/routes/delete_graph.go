package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/project-synapse/synapse/internal/server/middleware"
	"github.com/project-synapse/synapse/pkg/logger"
)

// DeleteGraphHandler removes all nodes and relationships. Clearing an
// already empty graph succeeds.
func DeleteGraphHandler(c echo.Context) error {
	type deleteResponse struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}

	app := c.(*middleware.AppContext).App

	if err := app.Storage.Clear(c.Request().Context()); err != nil {
		logger.Error("Failed to clear graph", "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{
			Detail: "Failed to clear the graph",
		})
	}

	return c.JSON(http.StatusOK, deleteResponse{Status: "success", Message: "Graph cleared"})
}
