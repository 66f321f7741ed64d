package repositories

import (
	"errors"

	"aivsai/internal/models"
)

var (
	// ErrUserNotFound is returned when no user matches the lookup key.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateUsername is returned by Create when the username is taken.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrIDSpaceExhausted is returned when no free random id could be drawn.
	ErrIDSpaceExhausted = errors.New("no free id available")
)

// UserRepository defines the interface for account data access.
type UserRepository interface {
	Create(user *models.User) error
	GetByUsername(username string) (*models.User, error)
	GetByID(id int) (*models.User, error)
	AddChampion(userID int, champion *models.Champion) error
	GetAll() ([]models.User, error)
}
