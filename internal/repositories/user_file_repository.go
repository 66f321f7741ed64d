package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"

	"aivsai/internal/models"

	"github.com/gofiber/fiber/v2/utils"
)

// FileUserRepository keeps every user in memory and rewrites a single JSON
// file after each mutation. Mutations are serialized by mu and only become
// visible once the file write succeeded.
type FileUserRepository struct {
	path  string
	users map[int]models.User
	mu    sync.RWMutex
	newID IDFunc
}

// NewFileUserRepository creates a file-backed repository and loads path.
func NewFileUserRepository(path string) (*FileUserRepository, error) {
	r := &FileUserRepository{
		path:  path,
		users: make(map[int]models.User),
		newID: randomID,
	}
	if err := r.Load(); err != nil {
		return nil, err
	}
	return r, nil
}

// Load replaces the in-memory collection with the contents of the file.
// A missing file leaves the store empty.
func (r *FileUserRepository) Load() error {
	users, err := readUserFile(r.path)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = users
	return nil
}

// Save writes the whole collection to the file.
func (r *FileUserRepository) Save() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return writeUserFile(r.path, r.users)
}

// Close flushes the collection one last time.
func (r *FileUserRepository) Close() error {
	return r.Save()
}

// Create stores a new user under a fresh random id.
func (r *FileUserRepository) Create(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == user.Username {
			return fmt.Errorf("%w: %s", ErrDuplicateUsername, user.Username)
		}
	}

	id, err := pickID(r.newID, UserIDMin, UserIDMax, func(id int) bool {
		_, taken := r.users[id]
		return taken
	})
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	stored := ownedUser(*user)
	stored.ID = id

	next := maps.Clone(r.users)
	next[id] = stored
	if err := writeUserFile(r.path, next); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	r.users = next

	user.ID = id
	user.Champions = stored.Clone().Champions
	return nil
}

// GetByUsername scans all users for the given username.
func (r *FileUserRepository) GetByUsername(username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Username == username {
			found := u.Clone()
			return &found, nil
		}
	}
	return nil, fmt.Errorf("%w: username %s", ErrUserNotFound, username)
}

// GetByID returns the user stored under id.
func (r *FileUserRepository) GetByID(id int) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrUserNotFound, id)
	}
	found := u.Clone()
	return &found, nil
}

// AddChampion appends champion to the user's list and persists the store.
func (r *FileUserRepository) AddChampion(userID int, champion *models.Champion) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	owner, ok := r.users[userID]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrUserNotFound, userID)
	}

	id, err := pickID(r.newID, ChampionIDMin, ChampionIDMax, owner.HasChampion)
	if err != nil {
		return fmt.Errorf("failed to add champion: %w", err)
	}
	champion.ID = id
	champion.UserID = userID
	champion.Position = len(owner.Champions)

	updated := owner.Clone()
	updated.Champions = append(updated.Champions, ownedChampion(*champion))

	next := maps.Clone(r.users)
	next[userID] = updated
	if err := writeUserFile(r.path, next); err != nil {
		return fmt.Errorf("failed to add champion: %w", err)
	}
	r.users = next
	return nil
}

// GetAll returns every user ordered by id.
func (r *FileUserRepository) GetAll() ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := slices.Sorted(maps.Keys(r.users))
	userList := make([]models.User, 0, len(ids))
	for _, id := range ids {
		userList = append(userList, r.users[id].Clone())
	}
	return userList, nil
}

// ownedUser copies every string of u. Handlers hand in values that may alias
// a request buffer reused by the next request.
func ownedUser(u models.User) models.User {
	owned := models.User{
		ID:          u.ID,
		Username:    utils.CopyString(u.Username),
		DisplayName: utils.CopyString(u.DisplayName),
		Password:    utils.CopyString(u.Password),
		Email:       utils.CopyString(u.Email),
		Champions:   make([]models.Champion, 0, len(u.Champions)),
	}
	for _, ch := range u.Champions {
		owned.Champions = append(owned.Champions, ownedChampion(ch))
	}
	return owned
}

func ownedChampion(ch models.Champion) models.Champion {
	ch.Name = utils.CopyString(ch.Name)
	ch.Description = utils.CopyString(ch.Description)
	ch.Instructions = utils.CopyString(ch.Instructions)
	ch.Greeting = utils.CopyString(ch.Greeting)
	return ch
}

// flexibleID decodes both 4821 and "4821"; older stores wrote ids as strings.
type flexibleID int

func (id *flexibleID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("invalid id %s", data)
	}
	*id = flexibleID(n)
	return nil
}

// fileUser and fileChampion are the on-disk schema read by Load.
type fileUser struct {
	ID          *flexibleID    `json:"id"`
	Username    string         `json:"username"`
	DisplayName string         `json:"display_name"`
	Password    string         `json:"password"`
	Email       string         `json:"email"`
	Champions   []fileChampion `json:"champions"`
}

type fileChampion struct {
	ID           *flexibleID `json:"id"`
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	Instructions string      `json:"instructions"`
	Greeting     string      `json:"greeting"`
}

func readUserFile(path string) (map[int]models.User, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("User store %s does not exist yet, starting empty", path)
		return make(map[int]models.User), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user store %s: %w", path, err)
	}

	var raw map[string]fileUser
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode user store %s: %w", path, err)
	}

	users := make(map[int]models.User, len(raw))
	for key, fu := range raw {
		id, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("invalid user id %q in %s: %w", key, path, err)
		}
		if fu.ID != nil && int(*fu.ID) != id {
			return nil, fmt.Errorf("user %q in %s carries mismatched id %d", key, path, *fu.ID)
		}
		u := models.User{
			ID:          id,
			Username:    fu.Username,
			DisplayName: fu.DisplayName,
			Password:    fu.Password,
			Email:       fu.Email,
			Champions:   make([]models.Champion, 0, len(fu.Champions)),
		}
		for i, fc := range fu.Champions {
			if fc.ID == nil {
				return nil, fmt.Errorf("champion %d of user %q in %s has no id", i, key, path)
			}
			u.Champions = append(u.Champions, models.Champion{
				ID:           int(*fc.ID),
				UserID:       id,
				Position:     i,
				Name:         fc.Name,
				Description:  fc.Description,
				Instructions: fc.Instructions,
				Greeting:     fc.Greeting,
			})
		}
		users[id] = u
	}
	log.Printf("Loaded %d users from %s", len(users), path)
	return users, nil
}

// writeUserFile writes to a temp file next to path and renames it into place.
func writeUserFile(path string, users map[int]models.User) error {
	data, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("failed to encode user store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write user store %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync user store %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close user store %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace user store %s: %w", path, err)
	}
	return nil
}
