package handlers

import (
	"errors"
	"log"
	"net/url"

	"aivsai/internal/middleware"
	"aivsai/internal/models"
	"aivsai/internal/repositories"
	"aivsai/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ChampionHandler handles champion authoring and profile pages.
type ChampionHandler struct {
	accounts *services.AccountService
	validate *validator.Validate
}

// NewChampionHandler creates a new ChampionHandler.
func NewChampionHandler(accounts *services.AccountService) *ChampionHandler {
	return &ChampionHandler{
		accounts: accounts,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the champion routes.
func (h *ChampionHandler) RegisterRoutes(router fiber.Router, requireSession fiber.Handler) {
	router.Post("/create", requireSession, h.HandleCreate)
	router.Get("/profile/:username", h.HandleProfile)
}

// HandleCreate appends a champion to the signed-in user.
func (h *ChampionHandler) HandleCreate(c *fiber.Ctx) error {
	var champion models.Champion
	if err := c.BodyParser(&champion); err != nil {
		log.Printf("Error parsing champion form: %v", err)
		return badRequest(c, err)
	}
	if err := h.validate.Struct(champion); err != nil {
		return badRequest(c, err)
	}

	userID, _ := middleware.CurrentUserID(c)
	if err := h.accounts.CreateChampion(userID, &champion); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			// the session outlived its account
			return c.Status(fiber.StatusUnauthorized).SendString("Please sign in to access this page.")
		}
		log.Printf("Error creating champion: %v", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Could not create champion")
	}

	user, err := h.accounts.GetUser(userID)
	if err != nil {
		log.Printf("Error loading user %d after champion creation: %v", userID, err)
		return c.Redirect("/")
	}
	return c.Redirect("/profile/" + url.PathEscape(user.Username))
}

// ProfileResponse lists a user's public fields and champions.
type ProfileResponse struct {
	Username    string            `json:"username"`
	DisplayName string            `json:"display_name"`
	Champions   []models.Champion `json:"champions"`
}

// HandleProfile shows a user's champions in the order they were added.
func (h *ChampionHandler) HandleProfile(c *fiber.Ctx) error {
	username := c.Params("username")
	user, err := h.accounts.Profile(username)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).SendString("Not Found")
		}
		log.Printf("Error loading profile %s: %v", username, err)
		return c.Status(fiber.StatusInternalServerError).SendString("Could not load profile")
	}
	return c.JSON(ProfileResponse{
		Username:    user.Username,
		DisplayName: user.DisplayName,
		Champions:   user.Champions,
	})
}
