package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestAnthropicChatUsesConfiguredModel(t *testing.T) {
	var wireReq anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&wireReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":          "msg-1",
			"model":       wireReq.Model,
			"content":     []map[string]string{{"type": "text", "text": "ok"}},
			"stop_reason": "end_turn",
		})
	}))
	defer srv.Close()

	p := NewAnthropicProvider(Config{
		ID: "claude", Endpoint: srv.URL, APIKey: "key", Model: "claude-3-5-haiku-latest",
	}, zap.NewNop())

	_, err := p.Chat(context.Background(), &ChatRequest{
		Messages: []Message{
			{Role: "system", Content: "be brief"},
			{Role: "user", Content: "hi"},
		},
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if wireReq.Model != "claude-3-5-haiku-latest" {
		t.Errorf("wire model = %q, want configured claude-3-5-haiku-latest", wireReq.Model)
	}
	if wireReq.System != "be brief" {
		t.Errorf("system = %q, want lifted system message", wireReq.System)
	}
	if len(wireReq.Messages) != 1 || wireReq.Messages[0].Role != "user" {
		t.Errorf("messages = %+v, want system message stripped", wireReq.Messages)
	}
}
