package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hubtab/TABAgent/internal/models"
	"github.com/hubtab/TABAgent/internal/workflow"
)

// MessageRequest is the inbound payload posted by a channel adapter.
type MessageRequest struct {
	UserID   string `json:"user_id"`
	Text     string `json:"text"`
	UserName string `json:"user_name,omitempty"`
	Channel  string `json:"channel,omitempty"`
}

// Validate checks the request's required fields.
func (r *MessageRequest) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return errMissingUserID
	}
	if strings.TrimSpace(r.Text) == "" {
		return errMissingText
	}
	return nil
}

// MessageResponse carries the agent's reply back to the channel adapter.
type MessageResponse struct {
	Reply string `json:"reply"`
}

// messagesHandler handles POST /api/messages.
func (s *Server) messagesHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("messagesHandler invoked", "method", r.Method, "path", r.URL.Path)

	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("messagesHandler invalid JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		slog.Warn("messagesHandler validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	reply := s.orchestrator.ProcessTurn(r.Context(), req.UserID, req.Text, workflow.TurnMetadata{
		UserName: req.UserName,
	})

	writeJSONResponse(w, http.StatusOK, models.Success(MessageResponse{Reply: reply}))
}

// healthHandler handles GET /health.
func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]string{"status": "healthy"}))
}
