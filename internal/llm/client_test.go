package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"chat-llm/internal/domain"
)

func TestHTTPClientComplete(t *testing.T) {
	var captured chatRequest
	var capturedAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "Hello yourself"}},
			},
		})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "test-key", "gpt-4.1", "You are a helpful assistant.", 5*time.Second, zap.NewNop())

	reply, err := client.Complete(context.Background(), []domain.Message{
		{Role: domain.RoleUser, Content: "Hello"},
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if reply.Role != domain.RoleAssistant || reply.Content != "Hello yourself" {
		t.Fatalf("unexpected reply: %+v", reply)
	}

	if capturedAuth != "Bearer test-key" {
		t.Fatalf("unexpected auth header: %q", capturedAuth)
	}
	if captured.Model != "gpt-4.1" {
		t.Fatalf("unexpected model: %q", captured.Model)
	}
	if len(captured.Messages) != 2 {
		t.Fatalf("expected system preamble + user turn, got %d messages", len(captured.Messages))
	}
	if captured.Messages[0].Role != domain.RoleSystem || captured.Messages[0].Content != "You are a helpful assistant." {
		t.Fatalf("system preamble missing or misplaced: %+v", captured.Messages[0])
	}
	if captured.Messages[1].Role != domain.RoleUser || captured.Messages[1].Content != "Hello" {
		t.Fatalf("unexpected user turn: %+v", captured.Messages[1])
	}
}

func TestHTTPClientCompleteErrors(t *testing.T) {
	t.Run("http error status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		client := NewHTTPClient(server.URL, "k", "m", "", 5*time.Second, zap.NewNop())
		if _, err := client.Complete(context.Background(), nil); err == nil {
			t.Fatalf("expected error on 429")
		}
	})

	t.Run("api error body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]string{"message": "model overloaded"},
			})
		}))
		defer server.Close()

		client := NewHTTPClient(server.URL, "k", "m", "", 5*time.Second, zap.NewNop())
		if _, err := client.Complete(context.Background(), nil); err == nil {
			t.Fatalf("expected error from api error body")
		}
	})

	t.Run("empty choices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
		}))
		defer server.Close()

		client := NewHTTPClient(server.URL, "k", "m", "", 5*time.Second, zap.NewNop())
		if _, err := client.Complete(context.Background(), nil); err == nil {
			t.Fatalf("expected error on empty choices")
		}
	})

	t.Run("timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer server.Close()

		client := NewHTTPClient(server.URL, "k", "m", "", 50*time.Millisecond, zap.NewNop())
		if _, err := client.Complete(context.Background(), nil); err == nil {
			t.Fatalf("expected timeout to surface as provider failure")
		}
	})
}
