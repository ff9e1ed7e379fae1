package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go"

	"github.com/hubtab/TABAgent/internal/docs"
	"github.com/hubtab/TABAgent/internal/genai"
	"github.com/hubtab/TABAgent/internal/hub"
	"github.com/hubtab/TABAgent/internal/models"
	"github.com/hubtab/TABAgent/internal/store"
	"github.com/hubtab/TABAgent/internal/workflow"
)

// scriptedClient answers every tool-bound completion with a fixed reply.
type scriptedClient struct {
	reply string
}

var _ genai.ClientInterface = (*scriptedClient)(nil)

func (c *scriptedClient) GeneratePromptWithContext(_ context.Context, _, _ string) (string, error) {
	return "", fmt.Errorf("not scripted")
}

func (c *scriptedClient) GenerateWithMessages(_ context.Context, _ []openai.ChatCompletionMessageParamUnion) (string, error) {
	return "", fmt.Errorf("not scripted")
}

func (c *scriptedClient) GenerateWithTools(_ context.Context, _ []openai.ChatCompletionMessageParamUnion, _ []openai.ChatCompletionToolParam) (*genai.ToolCallResponse, error) {
	return &genai.ToolCallResponse{Content: c.reply}, nil
}

func (c *scriptedClient) CreateThread(_ context.Context) (string, error) {
	return "thread_test", nil
}

func newTestServer(reply string) (*Server, *store.InMemoryStore) {
	client := &scriptedClient{reply: reply}
	st := store.NewInMemoryStore()
	resolver := hub.NewResolver(DefaultHubCities, client)
	engine := workflow.NewEngine(client, hub.NewMasterData(""), docs.Unavailable{})
	orchestrator := workflow.NewOrchestrator(st, client, resolver, engine)
	return NewServer(orchestrator, ""), st
}

func postMessage(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestMessagesHandler(t *testing.T) {
	server, st := newTestServer("Let's get your session ready.")
	handler := server.Handler()

	// First contact: the hub gate answers before any workflow runs.
	rec := postMessage(t, handler, `{"user_id":"u1","text":"Bengaluru","user_name":"Priya"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Status string          `json:"status"`
		Result MessageResponse `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if envelope.Status != "ok" || !strings.Contains(envelope.Result.Reply, "Bengaluru") {
		t.Errorf("envelope = %+v", envelope)
	}

	// Second message reaches the workflow.
	rec = postMessage(t, handler, `{"user_id":"u1","text":"hello","user_name":"Priya"}`)
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if envelope.Result.Reply != "Let's get your session ready." {
		t.Errorf("reply = %q", envelope.Result.Reply)
	}

	session, err := st.GetSession(context.Background(), "u1")
	if err != nil || session == nil {
		t.Fatalf("session not persisted: %v", err)
	}
	if session.Session.HubLocation != "Bengaluru" {
		t.Errorf("hub = %q", session.Session.HubLocation)
	}
}

func TestMessagesHandlerValidation(t *testing.T) {
	server, _ := newTestServer("unused")
	handler := server.Handler()

	tests := []struct {
		name string
		body string
	}{
		{"invalid JSON", `{not json`},
		{"missing user_id", `{"text":"hi"}`},
		{"missing text", `{"user_id":"u1"}`},
		{"blank text", `{"user_id":"u1","text":"   "}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postMessage(t, handler, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d; want 400", rec.Code)
			}
			var envelope models.APIResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if envelope.Status != "error" || envelope.Message == "" {
				t.Errorf("envelope = %+v", envelope)
			}
		})
	}
}

func TestHealthHandler(t *testing.T) {
	server, _ := newTestServer("unused")
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "healthy") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestMessagesHandlerRejectsGet(t *testing.T) {
	server, _ := newTestServer("unused")
	req := httptest.NewRequest(http.MethodGet, "/api/messages", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed && rec.Code != http.StatusNotFound {
		t.Errorf("status = %d; want method-not-allowed or not-found", rec.Code)
	}
}
