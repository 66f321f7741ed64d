package handlers

import (
	"errors"
	"log"

	"aivsai/internal/middleware"
	"aivsai/internal/models"
	"aivsai/internal/repositories"
	"aivsai/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Plain-text answers kept from the original browser flow.
const (
	msgDuplicateUsername  = "Username already exists! Please choose a different username."
	msgInvalidCredentials = "Invalid username or password"
)

// AuthHandler handles signup, signin and logout.
type AuthHandler struct {
	accounts *services.AccountService
	gateway  *services.SessionGateway
	validate *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(accounts *services.AccountService, gateway *services.SessionGateway) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		gateway:  gateway,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the authentication routes.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, requireSession fiber.Handler) {
	router.Get("/", h.HandleIndex)
	router.Post("/signup", h.HandleSignup)
	router.Post("/signin", h.HandleSignin)
	router.Get("/logout", requireSession, h.HandleLogout)

	api := router.Group("/api/v1")
	api.Post("/auth/token", h.HandleToken)
	api.Get("/me", requireSession, h.HandleMe)
}

// HandleIndex greets the signed-in user, if any.
func (h *AuthHandler) HandleIndex(c *fiber.Ctx) error {
	userID, ok, err := h.gateway.CurrentUserID(c)
	if err == nil && ok {
		if user, err := h.accounts.GetUser(userID); err == nil {
			return c.SendString("AI vs AI - Ultimate Chatbot Battles. Welcome back, " + user.DisplayName + "!")
		}
	}
	return c.SendString("AI vs AI - Ultimate Chatbot Battles")
}

// HandleSignup creates an account from the signup form.
func (h *AuthHandler) HandleSignup(c *fiber.Ctx) error {
	var user models.User
	if err := c.BodyParser(&user); err != nil {
		log.Printf("Error parsing signup form: %v", err)
		return badRequest(c, err)
	}
	if err := h.validate.Struct(user); err != nil {
		return badRequest(c, err)
	}

	if err := h.accounts.Signup(&user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateUsername) {
			return c.Status(fiber.StatusConflict).SendString(msgDuplicateUsername)
		}
		if errors.Is(err, services.ErrPasswordTooLong) {
			return c.Status(fiber.StatusBadRequest).SendString("Field 'Password' failed on the 'max' tag")
		}
		log.Printf("Error registering user %s: %v", user.Username, err)
		return c.Status(fiber.StatusInternalServerError).SendString("Could not register user")
	}
	return c.Redirect("/")
}

// SigninRequest is the signin form; it also accepts JSON for API clients.
type SigninRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// HandleSignin binds the session to the user matching the credentials.
func (h *AuthHandler) HandleSignin(c *fiber.Ctx) error {
	var req SigninRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing signin form: %v", err)
		return badRequest(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, err)
	}

	if _, err := h.gateway.SignIn(c, req.Username, req.Password); err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).SendString(msgInvalidCredentials)
		}
		log.Printf("Error during signin for user %s: %v", req.Username, err)
		return c.Status(fiber.StatusInternalServerError).SendString("Could not sign in")
	}
	return c.Redirect("/")
}

// HandleLogout ends the session.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	if err := h.gateway.SignOut(c); err != nil {
		log.Printf("Error during logout: %v", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Could not sign out")
	}
	return c.Redirect("/")
}

// HandleToken issues a bearer token for API clients.
func (h *AuthHandler) HandleToken(c *fiber.Ctx) error {
	var req SigninRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}

	token, err := h.gateway.Auth().LoginUser(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": msgInvalidCredentials,
			})
		}
		log.Printf("Error issuing token for user %s: %v", req.Username, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not issue token",
		})
	}
	return c.JSON(fiber.Map{"token": token})
}

// AccountResponse is the password-free view of the current user.
type AccountResponse struct {
	ID          int               `json:"id"`
	Username    string            `json:"username"`
	DisplayName string            `json:"display_name"`
	Email       string            `json:"email"`
	Champions   []models.Champion `json:"champions"`
}

// HandleMe returns the authenticated user.
func (h *AuthHandler) HandleMe(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	user, err := h.accounts.GetUser(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User not found"})
		}
		log.Printf("Error loading user %d: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Could not load user"})
	}
	return c.JSON(AccountResponse{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		Champions:   user.Champions,
	})
}
