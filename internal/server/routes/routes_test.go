package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"

	"github.com/project-synapse/synapse/internal/server/middleware"
	"github.com/project-synapse/synapse/pkg/ai"
	"github.com/project-synapse/synapse/pkg/common"
	"github.com/project-synapse/synapse/pkg/graph"
	"github.com/project-synapse/synapse/pkg/query"
	"github.com/project-synapse/synapse/pkg/store/memory"
)

const extractionJSON = `{
	"entities": [
		{"name": "Jane Doe", "type": "Person", "description": "A software engineer"},
		{"name": "ACME Corp", "type": "Organization", "description": "An employer"}
	],
	"relationships": [
		{"source": "Jane Doe", "target": "ACME Corp", "type": "WORKED_AT", "description": "since 2020"}
	]
}`

// scriptedAIClient answers extraction calls with a fixed JSON document and
// chat calls with fixed fragments.
type scriptedAIClient struct {
	fragments []string
}

func (s *scriptedAIClient) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	return strings.Join(s.fragments, ""), nil
}

func (s *scriptedAIClient) GenerateCompletionWithFormat(ctx context.Context, name, description, prompt string, out any, opts ...ai.GenerateOption) error {
	return json.Unmarshal([]byte(extractionJSON), out)
}

func (s *scriptedAIClient) GenerateChat(ctx context.Context, messages []ai.ChatMessage, opts ...ai.GenerateOption) (string, error) {
	return strings.Join(s.fragments, ""), nil
}

func (s *scriptedAIClient) GenerateChatStream(ctx context.Context, messages []ai.ChatMessage, opts ...ai.GenerateOption) (<-chan ai.StreamEvent, error) {
	out := make(chan ai.StreamEvent)
	go func() {
		defer close(out)
		for _, f := range s.fragments {
			select {
			case out <- ai.StreamEvent{Type: "content", Content: f}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (s *scriptedAIClient) ResetMetrics() {}

func (s *scriptedAIClient) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

type testValidator struct {
	validator *validator.Validate
}

func (v *testValidator) Validate(i any) error {
	return v.validator.Struct(i)
}

func newTestApp(t *testing.T) (*echo.Echo, *middleware.App, *memory.GraphStore) {
	t.Helper()

	store := memory.New()
	aiClient := &scriptedAIClient{fragments: []string{"Hel", "lo"}}

	graphClient, err := graph.NewGraphClient(graph.NewGraphClientParams{
		MaxChunkTokens:     200,
		ParallelAiRequests: 2,
	})
	if err != nil {
		t.Fatalf("NewGraphClient() error = %v", err)
	}

	retriever := query.NewRetriever(query.NewRetrieverParams{Storage: store})
	chatEngine := query.NewChatEngine(query.NewChatEngineParams{
		Retriever: retriever,
		AIClient:  aiClient,
	})

	e := echo.New()
	e.Validator = &testValidator{validator: validator.New()}

	app := &middleware.App{
		Storage:       store,
		AiClient:      aiClient,
		GraphClient:   graphClient,
		ChatEngine:    chatEngine,
		IngestTimeout: time.Minute,
	}
	return e, app, store
}

func appContext(e *echo.Echo, app *middleware.App, req *http.Request, rec *httptest.ResponseRecorder) *middleware.AppContext {
	return &middleware.AppContext{Context: e.NewContext(req, rec), App: app}
}

func multipartUpload(t *testing.T, filename, theme, content string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("writing form file: %v", err)
	}
	if theme != "" {
		if err := writer.WriteField("theme", theme); err != nil {
			t.Fatalf("writing theme field: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("closing writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	return req
}

func TestUploadHandler(t *testing.T) {
	e, app, store := newTestApp(t)

	req := multipartUpload(t, "cv.txt", "cv", "Jane Doe worked at ACME Corp.")
	rec := httptest.NewRecorder()

	if err := UploadHandler(appContext(e, app, req, rec)); err != nil {
		t.Fatalf("UploadHandler() error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var res struct {
		NodesCreated         int `json:"nodes_created"`
		RelationshipsCreated int `json:"relationships_created"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if res.NodesCreated != 2 || res.RelationshipsCreated != 1 {
		t.Errorf("created (%d, %d), want (2, 1)", res.NodesCreated, res.RelationshipsCreated)
	}

	snapshot, err := store.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if len(snapshot.Nodes) != 2 {
		t.Errorf("store holds %d nodes, want 2", len(snapshot.Nodes))
	}
}

func TestUploadHandlerRejectsUnsupportedType(t *testing.T) {
	e, app, _ := newTestApp(t)

	req := multipartUpload(t, "slides.pptx", "", "content")
	rec := httptest.NewRecorder()

	if err := UploadHandler(appContext(e, app, req, rec)); err != nil {
		t.Fatalf("UploadHandler() error = %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestUploadHandlerMissingFile(t *testing.T) {
	e, app, _ := newTestApp(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	writer.WriteField("theme", "cv")
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	rec := httptest.NewRecorder()

	if err := UploadHandler(appContext(e, app, req, rec)); err != nil {
		t.Fatalf("UploadHandler() error = %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestUploadHandlerEmptyDocument(t *testing.T) {
	e, app, _ := newTestApp(t)

	req := multipartUpload(t, "empty.txt", "", "   \n\n  ")
	rec := httptest.NewRecorder()

	if err := UploadHandler(appContext(e, app, req, rec)); err != nil {
		t.Fatalf("UploadHandler() error = %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestChatHandlerStreamsAnswer(t *testing.T) {
	e, app, store := newTestApp(t)

	nodes := []common.Node{{
		ID:         "PERSON:jane doe",
		Type:       "PERSON",
		Label:      "Jane Doe",
		Properties: map[string]string{"description": "A software engineer"},
	}}
	if _, _, err := store.MergeGraph(context.Background(), nodes, nil); err != nil {
		t.Fatalf("seeding store: %v", err)
	}

	body := strings.NewReader(`{"query": "Who is Jane Doe?"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/chat", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := ChatHandler(appContext(e, app, req, rec)); err != nil {
		t.Fatalf("ChatHandler() error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Body.String(); got != "Hello" {
		t.Errorf("streamed body = %q, want %q", got, "Hello")
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("content type = %q", ct)
	}
}

func TestChatHandlerRequiresQuery(t *testing.T) {
	e, app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := ChatHandler(appContext(e, app, req, rec)); err != nil {
		t.Fatalf("ChatHandler() error = %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGetGraphHandlerEmptyGraph(t *testing.T) {
	e, app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/graph-data", nil)
	rec := httptest.NewRecorder()

	if err := GetGraphHandler(appContext(e, app, req, rec)); err != nil {
		t.Fatalf("GetGraphHandler() error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	body := rec.Body.String()
	if strings.Contains(body, "null") {
		t.Errorf("empty graph serialized with null arrays: %s", body)
	}
}

func TestDeleteGraphHandler(t *testing.T) {
	e, app, store := newTestApp(t)

	nodes := []common.Node{{
		ID:         "PERSON:jane doe",
		Type:       "PERSON",
		Label:      "Jane Doe",
		Properties: map[string]string{},
	}}
	if _, _, err := store.MergeGraph(context.Background(), nodes, nil); err != nil {
		t.Fatalf("seeding store: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/graph", nil)
	rec := httptest.NewRecorder()

	if err := DeleteGraphHandler(appContext(e, app, req, rec)); err != nil {
		t.Fatalf("DeleteGraphHandler() error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	snapshot, err := store.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if len(snapshot.Nodes) != 0 {
		t.Error("graph not cleared")
	}
}
