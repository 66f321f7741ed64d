package repositories

import (
	"errors"
	"fmt"

	"aivsai/internal/models"

	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db    *gorm.DB
	newID IDFunc
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db:    db,
		newID: randomID,
	}
}

// Migrate creates or updates the users and champions tables.
func (r *GORMUserRepository) Migrate() error {
	if err := r.db.AutoMigrate(&models.User{}, &models.Champion{}); err != nil {
		return fmt.Errorf("failed to migrate account tables: %w", err)
	}
	return nil
}

func orderedChampions(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// Create inserts a new user under a fresh random id.
func (r *GORMUserRepository) Create(user *models.User) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", user.Username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: %s", ErrDuplicateUsername, user.Username)
		}

		var lookupErr error
		id, err := pickID(r.newID, UserIDMin, UserIDMax, func(id int) bool {
			var n int64
			if err := tx.Model(&models.User{}).Where("id = ?", id).Count(&n).Error; err != nil {
				lookupErr = err
				return false
			}
			return n > 0
		})
		if lookupErr != nil {
			return lookupErr
		}
		if err != nil {
			return err
		}
		user.ID = id
		if err := tx.Omit("Champions").Create(user).Error; err != nil {
			// a concurrent signup committed the same username after our count
			if r.isDuplicateKey(err) {
				return fmt.Errorf("%w: %s", ErrDuplicateUsername, user.Username)
			}
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateUsername) {
			return err
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	if user.Champions == nil {
		user.Champions = []models.Champion{}
	}
	return nil
}

// GetByUsername retrieves a user and its champions by username.
func (r *GORMUserRepository) GetByUsername(username string) (*models.User, error) {
	var user models.User
	if err := r.db.Preload("Champions", orderedChampions).First(&user, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: username %s", ErrUserNotFound, username)
		}
		return nil, fmt.Errorf("failed to get user by username %s: %w", username, err)
	}
	normalize(&user)
	return &user, nil
}

// GetByID retrieves a user and its champions by id.
func (r *GORMUserRepository) GetByID(id int) (*models.User, error) {
	var user models.User
	if err := r.db.Preload("Champions", orderedChampions).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrUserNotFound, id)
		}
		return nil, fmt.Errorf("failed to get user by ID %d: %w", id, err)
	}
	normalize(&user)
	return &user, nil
}

// AddChampion appends a champion at the end of the user's list.
func (r *GORMUserRepository) AddChampion(userID int, champion *models.Champion) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var owners int64
		if err := tx.Model(&models.User{}).Where("id = ?", userID).Count(&owners).Error; err != nil {
			return err
		}
		if owners == 0 {
			return fmt.Errorf("%w: id %d", ErrUserNotFound, userID)
		}

		var position int64
		if err := tx.Model(&models.Champion{}).Where("user_id = ?", userID).Count(&position).Error; err != nil {
			return err
		}

		var lookupErr error
		id, err := pickID(r.newID, ChampionIDMin, ChampionIDMax, func(id int) bool {
			var n int64
			if err := tx.Model(&models.Champion{}).Where("user_id = ? AND id = ?", userID, id).Count(&n).Error; err != nil {
				lookupErr = err
				return false
			}
			return n > 0
		})
		if lookupErr != nil {
			return lookupErr
		}
		if err != nil {
			return err
		}

		champion.ID = id
		champion.UserID = userID
		champion.Position = int(position)
		return tx.Create(champion).Error
	})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("failed to add champion: %w", err)
	}
	return nil
}

// GetAll retrieves every user ordered by id.
func (r *GORMUserRepository) GetAll() ([]models.User, error) {
	var users []models.User
	if err := r.db.Preload("Champions", orderedChampions).Order("id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to get all users: %w", err)
	}
	for i := range users {
		normalize(&users[i])
	}
	return users, nil
}

// isDuplicateKey reports a unique or primary key violation, whether or not
// the *gorm.DB was opened with TranslateError.
func (r *GORMUserRepository) isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	if translator, ok := r.db.Dialector.(gorm.ErrorTranslator); ok {
		return errors.Is(translator.Translate(err), gorm.ErrDuplicatedKey)
	}
	return false
}

func normalize(u *models.User) {
	if u.Champions == nil {
		u.Champions = []models.Champion{}
	}
}
