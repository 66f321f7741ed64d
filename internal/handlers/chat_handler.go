package handlers

import (
	"log"

	"aivsai/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ChatHandler relays chat messages to the provider.
type ChatHandler struct {
	chat     *services.ChatService
	validate *validator.Validate
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chat *services.ChatService) *ChatHandler {
	return &ChatHandler{
		chat:     chat,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the chat routes.
func (h *ChatHandler) RegisterRoutes(router fiber.Router, requireSession fiber.Handler) {
	router.Post("/chat_back", requireSession, h.HandleChatBack)
}

// ChatRequest is the chat form. chat_history is a JSON array of
// {role, message} objects.
type ChatRequest struct {
	Message      string `form:"message" validate:"required"`
	Instructions string `form:"instructions"`
	ChatHistory  string `form:"chat_history"`
}

// HandleChatBack answers with the provider's plain reply text.
func (h *ChatHandler) HandleChatBack(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, err)
	}
	history, err := services.ParseChatHistory(req.ChatHistory)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid chat history")
	}

	reply, err := h.chat.Reply(c.UserContext(), req.Message, req.Instructions, history)
	if err != nil {
		log.Printf("Chat relay failed: %v", err)
		return c.Status(fiber.StatusBadGateway).SendString("The chat provider could not answer right now.")
	}
	log.Printf("Chat reply of %d bytes", len(reply))
	return c.SendString(reply)
}
