package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"aivsai/pkg/cohere"
)

// ChatClient is the remote completion API. *cohere.Client satisfies it.
type ChatClient interface {
	Chat(ctx context.Context, req cohere.ChatRequest) (string, error)
}

// ChatService relays a champion conversation to the chat provider.
type ChatService struct {
	client ChatClient
}

// NewChatService creates a new ChatService.
func NewChatService(client ChatClient) *ChatService {
	return &ChatService{
		client: client,
	}
}

// ParseChatHistory decodes the chat_history form field: a JSON array of
// {role, message} objects. Blank input means no history.
func ParseChatHistory(raw string) ([]cohere.ChatMessage, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var history []cohere.ChatMessage
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		return nil, fmt.Errorf("invalid chat history: %w", err)
	}
	return history, nil
}

// Reply forwards message with the champion's instructions as preamble.
func (s *ChatService) Reply(ctx context.Context, message, instructions string, history []cohere.ChatMessage) (string, error) {
	return s.client.Chat(ctx, cohere.ChatRequest{
		Message:     message,
		Preamble:    instructions,
		ChatHistory: history,
	})
}
