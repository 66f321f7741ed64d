package services_test

import (
	"context"
	"errors"
	"testing"

	"aivsai/internal/services"
	"aivsai/pkg/cohere"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockChatClient is a mock implementation of services.ChatClient
type MockChatClient struct {
	mock.Mock
}

func (m *MockChatClient) Chat(ctx context.Context, req cohere.ChatRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func TestParseChatHistory(t *testing.T) {
	history, err := services.ParseChatHistory("")
	assert.NoError(t, err)
	assert.Nil(t, history)

	history, err = services.ParseChatHistory(`[{"role": "USER", "message": "hello"}, {"role": "CHATBOT", "message": "hi"}]`)
	require.NoError(t, err)
	assert.Equal(t, []cohere.ChatMessage{
		{Role: "USER", Message: "hello"},
		{Role: "CHATBOT", Message: "hi"},
	}, history)

	_, err = services.ParseChatHistory(`not json`)
	assert.Error(t, err)
}

func TestChatService_Reply(t *testing.T) {
	mockClient := new(MockChatClient)
	service := services.NewChatService(mockClient)
	ctx := context.Background()
	history := []cohere.ChatMessage{{Role: "USER", Message: "hello"}}

	mockClient.On("Chat", ctx, cohere.ChatRequest{
		Message:     "who are you?",
		Preamble:    "You are Bot.",
		ChatHistory: history,
	}).Return("I am Bot.", nil).Once()

	reply, err := service.Reply(ctx, "who are you?", "You are Bot.", history)
	assert.NoError(t, err)
	assert.Equal(t, "I am Bot.", reply)

	mockClient.On("Chat", ctx, mock.Anything).Return("", errors.New("boom")).Once()
	_, err = service.Reply(ctx, "again", "", nil)
	assert.Error(t, err)
	mockClient.AssertExpectations(t)
}
