package routes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/project-synapse/synapse/internal/server/middleware"
	"github.com/project-synapse/synapse/pkg/graph"
	"github.com/project-synapse/synapse/pkg/loader"
	"github.com/project-synapse/synapse/pkg/logger"
)

// UploadHandler ingests one document from multipart/form-data: the file is
// parsed to text, run through graph extraction and merged into the store.
func UploadHandler(c echo.Context) error {
	type uploadBody struct {
		Theme string `form:"theme"`
	}

	type uploadResponse struct {
		Status               string `json:"status"`
		Filename             string `json:"filename"`
		ChunksProcessed      int    `json:"chunks_processed"`
		NodesCreated         int    `json:"nodes_created"`
		RelationshipsCreated int    `json:"relationships_created"`
	}

	data := new(uploadBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Detail: "Invalid request body",
		})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Detail: "Missing file upload",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		logger.Error("Failed to open uploaded file", "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{
			Detail: "Internal server error",
		})
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		logger.Error("Failed to read uploaded file", "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{
			Detail: "Internal server error",
		})
	}

	text, err := loader.ExtractText(fileHeader.Filename, content)
	if err != nil {
		var unsupported loader.ErrUnsupportedType
		if errors.As(err, &unsupported) {
			return c.JSON(http.StatusBadRequest, errorResponse{
				Detail: fmt.Sprintf("Unsupported file type %q", unsupported.Extension),
			})
		}
		logger.Error("Failed to extract text", "file", fileHeader.Filename, "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{
			Detail: "Failed to extract text from document",
		})
	}

	app := c.(*middleware.AppContext).App

	ctx, cancel := context.WithTimeout(c.Request().Context(), app.IngestTimeout)
	defer cancel()

	result, err := app.GraphClient.BuildGraph(
		ctx,
		text,
		fileHeader.Filename,
		data.Theme,
		app.AiClient,
		app.Storage,
	)
	if err != nil {
		if errors.Is(err, graph.ErrEmptyDocument) {
			return c.JSON(http.StatusBadRequest, errorResponse{
				Detail: "The document contains no extractable text",
			})
		}
		logger.Error("Graph ingestion failed", "file", fileHeader.Filename, "err", err)
		if errors.Is(err, graph.ErrAllChunksFailed) {
			return c.JSON(http.StatusInternalServerError, errorResponse{
				Detail: "Entity extraction failed for the document",
			})
		}
		return c.JSON(http.StatusInternalServerError, errorResponse{
			Detail: "Failed to build graph from document",
		})
	}

	return c.JSON(http.StatusOK, uploadResponse{
		Status:               "success",
		Filename:             fileHeader.Filename,
		ChunksProcessed:      result.ChunksProcessed,
		NodesCreated:         result.NodesCreated,
		RelationshipsCreated: result.RelationshipsCreated,
	})
}
