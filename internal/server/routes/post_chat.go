package routes

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/project-synapse/synapse/internal/server/middleware"
	"github.com/project-synapse/synapse/pkg/ai"
	"github.com/project-synapse/synapse/pkg/logger"
)

// ChatHandler answers a question grounded in the knowledge graph. The
// response is a plain text stream of answer fragments; step events are
// logged server side and not written to the client.
func ChatHandler(c echo.Context) error {
	type chatBody struct {
		Query    string           `json:"query" validate:"required"`
		Messages []ai.ChatMessage `json:"messages"`
	}

	data := new(chatBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Detail: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Detail: "Missing query",
		})
	}

	messages := append(data.Messages, ai.ChatMessage{
		Role:    "user",
		Message: data.Query,
	})

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	stream, err := app.ChatEngine.AnswerStream(ctx, messages)
	if err != nil {
		logger.Error("Failed to start chat stream", "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{
			Detail: "Failed to answer the question",
		})
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/plain; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)

	for event := range stream {
		switch event.Type {
		case "step":
			logger.Debug("chat pipeline step", "step", event.Step)
		case "content":
			if _, err := c.Response().Write([]byte(event.Content)); err != nil {
				return nil
			}
			c.Response().Flush()
		case "error":
			fmt.Fprintf(c.Response(), "\n[error] %s", event.Content)
			c.Response().Flush()
			return nil
		}
	}

	return nil
}
