package services

import (
	"fmt"
	"log"

	"aivsai/internal/models"
	"aivsai/internal/repositories"
)

// AccountService handles signup, champion authoring and profile lookups.
type AccountService struct {
	repo   repositories.UserRepository
	events EventPublisher // optional
}

// NewAccountService creates a new AccountService. events may be nil.
func NewAccountService(repo repositories.UserRepository, events EventPublisher) *AccountService {
	return &AccountService{
		repo:   repo,
		events: events,
	}
}

// Signup stores a new account. user.Password is replaced by its hash.
func (s *AccountService) Signup(user *models.User) error {
	hashed, err := HashPassword(user.Password)
	if err != nil {
		return err
	}
	user.Password = hashed
	user.Champions = nil

	if err := s.repo.Create(user); err != nil {
		return err
	}
	log.Printf("Registered user %s (ID: %d)", user.Username, user.ID)

	s.publish(EventUserRegistered, map[string]interface{}{
		"userID":   user.ID,
		"username": user.Username,
	})
	return nil
}

// CreateChampion appends a champion to the user's list.
func (s *AccountService) CreateChampion(userID int, champion *models.Champion) error {
	if err := s.repo.AddChampion(userID, champion); err != nil {
		return fmt.Errorf("failed to create champion for user %d: %w", userID, err)
	}
	log.Printf("Created champion %s (ID: %d) for user %d", champion.Name, champion.ID, userID)

	s.publish(EventChampionCreated, map[string]interface{}{
		"userID":     userID,
		"championID": champion.ID,
		"name":       champion.Name,
	})
	return nil
}

// Profile returns the user with the given username and its champions in
// the order they were added.
func (s *AccountService) Profile(username string) (*models.User, error) {
	return s.repo.GetByUsername(username)
}

// GetUser returns the user stored under id.
func (s *AccountService) GetUser(id int) (*models.User, error) {
	return s.repo.GetByID(id)
}

func (s *AccountService) publish(eventType string, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishEvent(eventType, payload); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", eventType, err)
	}
}
