package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	mid "github.com/project-synapse/synapse/internal/server/middleware"
	"github.com/project-synapse/synapse/internal/util"
	"github.com/project-synapse/synapse/pkg/ai"
	oai "github.com/project-synapse/synapse/pkg/ai/ollama"
	gai "github.com/project-synapse/synapse/pkg/ai/openai"
	"github.com/project-synapse/synapse/pkg/graph"
	"github.com/project-synapse/synapse/pkg/logger"
	"github.com/project-synapse/synapse/pkg/query"
	"github.com/project-synapse/synapse/pkg/store/neo4j"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// httpErrorHandler keeps the {detail} error body for failures raised outside
// the handlers, such as the BodyLimit middleware rejecting an oversized
// upload.
func httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	detail := "Internal server error"

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		code = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok {
			detail = msg
		} else {
			detail = http.StatusText(code)
		}
	}

	if err := c.JSON(code, map[string]string{"detail": detail}); err != nil {
		logger.Error("Failed to write error response", "err", err)
	}
}

func Init() {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = httpErrorHandler
	e.Validator = &CustomValidator{validator: validator.New()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := neo4j.New(ctx, neo4j.NewGraphStoreParams{
		URI:      util.GetEnvString("NEO4J_URI", "bolt://localhost:7687"),
		Username: util.GetEnvString("NEO4J_USERNAME", "neo4j"),
		Password: util.GetEnv("NEO4J_PASSWORD"),
	})
	if err != nil {
		logger.Fatal("Failed to connect to graph store", "err", err)
	}
	defer storage.Close(ctx)

	aiClient := newAIClient()

	graphClient, err := graph.NewGraphClient(graph.NewGraphClientParams{
		TokenEncoder:       util.GetEnvString("TOKEN_ENCODER", "o200k_base"),
		MaxChunkTokens:     util.GetEnvInt("MAX_CHUNK_TOKENS", 600),
		MaxChunks:          util.GetEnvInt("MAX_CHUNKS", 15),
		ParallelAiRequests: util.GetEnvInt("AI_PARALLEL_REQ", 5),
		MaxRetries:         util.GetEnvInt("AI_MAX_RETRIES", 3),
	})
	if err != nil {
		logger.Fatal("Failed to create graph client", "err", err)
	}

	retriever := query.NewRetriever(query.NewRetrieverParams{
		Storage:  storage,
		Hops:     util.GetEnvInt("RETRIEVER_HOPS", 1),
		MaxNodes: util.GetEnvInt("RETRIEVER_MAX_NODES", 25),
	})
	chatEngine := query.NewChatEngine(query.NewChatEngineParams{
		Retriever: retriever,
		AIClient:  aiClient,
	})

	app := &mid.App{
		Storage:       storage,
		AiClient:      aiClient,
		GraphClient:   graphClient,
		ChatEngine:    chatEngine,
		IngestTimeout: time.Duration(util.GetEnvInt("INGEST_TIMEOUT_MINUTES", 10)) * time.Minute,
	}

	e.Use(middleware.CORS())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("request", "method", v.Method, "uri", v.URI, "status", v.Status)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("32M"))

	RegisterRoutes(e, app)

	go func() {
		port := util.GetEnvString("PORT", "8080")
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}

// newAIClient builds the provider selected by AI_PROVIDER. Anything other
// than "ollama" uses the OpenAI compatible client.
func newAIClient() ai.GraphAIClient {
	switch util.GetEnv("AI_PROVIDER") {
	case "ollama":
		client, err := oai.NewGraphOllamaClient(oai.NewGraphOllamaClientParams{
			ChatModel:             util.GetEnv("AI_CHAT_MODEL"),
			ExtractionModel:       util.GetEnvString("AI_EXTRACT_MODEL", util.GetEnv("AI_CHAT_MODEL")),
			BaseURL:               util.GetEnvString("AI_BASE_URL", "http://localhost:11434"),
			MaxConcurrentRequests: int64(util.GetEnvInt("AI_PARALLEL_REQ", 5)),
		})
		if err != nil {
			logger.Fatal("Failed to create Ollama client", "err", err)
		}
		return client
	default:
		return gai.NewGraphOpenAIClient(gai.NewGraphOpenAIClientParams{
			ChatModel:       util.GetEnv("AI_CHAT_MODEL"),
			ExtractionModel: util.GetEnvString("AI_EXTRACT_MODEL", util.GetEnv("AI_CHAT_MODEL")),
			BaseURL:         util.GetEnv("AI_BASE_URL"),
			APIKey:          util.GetEnv("AI_API_KEY"),
		})
	}
}
