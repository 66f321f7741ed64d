package cohere

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Chat(t *testing.T) {
	var got chatPayload
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text": "Greetings, traveller.", "generation_id": "abc"}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", URL: server.URL})
	reply, err := client.Chat(context.Background(), ChatRequest{
		Message:     "hello",
		Preamble:    "You are a knight.",
		ChatHistory: []ChatMessage{{Role: "USER", Message: "hi"}, {Role: "CHATBOT", Message: "Hail!"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Greetings, traveller.", reply)

	assert.Equal(t, "Bearer test-key", auth)
	assert.Equal(t, "hello", got.Message)
	assert.Equal(t, "command", got.Model)
	assert.False(t, got.Stream)
	assert.Equal(t, "You are a knight.", got.PreambleOverride)
	assert.Len(t, got.ChatHistory, 2)
}

func TestClient_ChatProviderErrors(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"non-2xx": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"message": "invalid api token"}`, http.StatusUnauthorized)
		},
		"malformed body": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>oops</html>`))
		},
	}
	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(handler)
			defer server.Close()

			client := NewClient(Config{APIKey: "k", URL: server.URL})
			_, err := client.Chat(context.Background(), ChatRequest{Message: "hello"})
			assert.ErrorIs(t, err, ErrProviderFailure)
		})
	}
}

func TestClient_ChatTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(Config{APIKey: "k", URL: url, Timeout: time.Second})
	_, err := client.Chat(context.Background(), ChatRequest{Message: "hello"})
	assert.ErrorIs(t, err, ErrProviderFailure)
}

func TestClient_ChatExpiredContext(t *testing.T) {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	client := NewClient(Config{APIKey: "k", URL: "http://127.0.0.1:1"})
	_, err := client.Chat(ctx, ChatRequest{Message: "hello"})
	assert.ErrorIs(t, err, ErrProviderFailure)
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient(Config{})
	assert.Equal(t, DefaultURL, client.cfg.URL)
	assert.Equal(t, "command", client.cfg.Model)
	assert.Equal(t, 30*time.Second, client.cfg.Timeout)
}
