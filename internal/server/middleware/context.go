package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/project-synapse/synapse/pkg/ai"
	"github.com/project-synapse/synapse/pkg/graph"
	"github.com/project-synapse/synapse/pkg/query"
	"github.com/project-synapse/synapse/pkg/store"
)

// App bundles the long-lived dependencies handlers need.
type App struct {
	Storage       store.GraphStorage
	AiClient      ai.GraphAIClient
	GraphClient   *graph.GraphClient
	ChatEngine    *query.ChatEngine
	IngestTimeout time.Duration
}

type AppContext struct {
	echo.Context
	App *App
}

// AppContextMiddleware wraps every request context in an AppContext carrying
// the shared application dependencies.
func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return next(&AppContext{c, app})
		}
	}
}
