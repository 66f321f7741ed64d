package services

import (
	"fmt"

	"aivsai/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

const sessionUserKey = "user_id"

// SessionGateway binds an authenticated user id to the browser session.
type SessionGateway struct {
	store *session.Store
	auth  *AuthService
}

// NewSessionGateway creates a new SessionGateway.
func NewSessionGateway(store *session.Store, auth *AuthService) *SessionGateway {
	return &SessionGateway{
		store: store,
		auth:  auth,
	}
}

// SignIn checks the credentials and binds the user to a fresh session id.
func (g *SessionGateway) SignIn(c *fiber.Ctx, username, password string) (*models.User, error) {
	user, err := g.auth.Authenticate(username, password)
	if err != nil {
		return nil, err
	}

	sess, err := g.store.Get(c)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if err := sess.Regenerate(); err != nil {
		return nil, fmt.Errorf("failed to regenerate session: %w", err)
	}
	sess.Set(sessionUserKey, user.ID)
	if err := sess.Save(); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return user, nil
}

// SignOut drops the identity bound to the session.
func (g *SessionGateway) SignOut(c *fiber.Ctx) error {
	sess, err := g.store.Get(c)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if err := sess.Destroy(); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}

// CurrentUserID returns the user id bound to the session, if any.
func (g *SessionGateway) CurrentUserID(c *fiber.Ctx) (int, bool, error) {
	sess, err := g.store.Get(c)
	if err != nil {
		return 0, false, fmt.Errorf("failed to load session: %w", err)
	}
	id, ok := sess.Get(sessionUserKey).(int)
	return id, ok, nil
}

// Auth returns the underlying AuthService.
func (g *SessionGateway) Auth() *AuthService {
	return g.auth
}
