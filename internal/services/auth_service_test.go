package services_test

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"aivsai/internal/models"
	"aivsai/internal/repositories"
	"aivsai/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByUsername(username string) (*models.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(id int) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) AddChampion(userID int, champion *models.Champion) error {
	args := m.Called(userID, champion)
	return args.Error(0)
}

func (m *MockUserRepository) GetAll() ([]models.User, error) {
	args := m.Called()
	return args.Get(0).([]models.User), args.Error(1)
}

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

const testJWTSecret = "test_jwt_secret"

func TestAuthService_Authenticate(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret)

	hashed, err := bcrypt.GenerateFromPassword([]byte("pw1"), bcrypt.MinCost)
	require.NoError(t, err)
	alice := &models.User{ID: 4821, Username: "alice", Password: string(hashed)}

	// Test successful authentication
	mockRepo.On("GetByUsername", "alice").Return(alice, nil).Once()
	user, err := authService.Authenticate("alice", "pw1")
	assert.NoError(t, err)
	assert.Equal(t, 4821, user.ID)
	mockRepo.AssertExpectations(t)

	// Test wrong password
	mockRepo.On("GetByUsername", "alice").Return(alice, nil).Once()
	_, err = authService.Authenticate("alice", "wrong")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	mockRepo.AssertExpectations(t)

	// Test unknown user: same outcome as a wrong password
	mockRepo.On("GetByUsername", "bob").Return(nil, fmt.Errorf("%w: username bob", repositories.ErrUserNotFound)).Once()
	_, err = authService.Authenticate("bob", "pw1")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	mockRepo.AssertExpectations(t)

	// Test storage failure is not leaked
	mockRepo.On("GetByUsername", "carol").Return(nil, fmt.Errorf("disk on fire")).Once()
	_, err = authService.Authenticate("carol", "pw1")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_AuthenticateLegacyPlaintext(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret)
	legacy := &models.User{ID: 1002, Username: "bob", Password: "hunter2"}

	mockRepo.On("GetByUsername", "bob").Return(legacy, nil).Twice()

	user, err := authService.Authenticate("bob", "hunter2")
	assert.NoError(t, err)
	assert.Equal(t, 1002, user.ID)

	_, err = authService.Authenticate("bob", "hunter")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_LoginUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret)
	user := &models.User{ID: 4821, Username: "alice", Password: "pw1"}

	mockRepo.On("GetByUsername", "alice").Return(user, nil).Once()
	token, err := authService.LoginUser("alice", "pw1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	assert.True(t, ok)
	assert.Equal(t, float64(4821), claims["user_id"])
	assert.Equal(t, "alice", claims["username"])

	mockRepo.On("GetByUsername", "alice").Return(user, nil).Once()
	_, err = authService.LoginUser("alice", "wrong")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_ValidateToken(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  4821,
		"username": "alice",
		"exp":      jwt.TimeFunc().Add(time.Hour).Unix(),
	})
	validTokenString, _ := token.SignedString([]byte(testJWTSecret))

	id, err := authService.UserIDFromToken(validTokenString)
	assert.NoError(t, err)
	assert.Equal(t, 4821, id)

	_, err = authService.ValidateToken("invalid.token.string")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token")

	otherSecret, _ := token.SignedString([]byte("another_secret"))
	_, err = authService.ValidateToken(otherSecret)
	assert.Error(t, err)

	expiredToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  4821,
		"username": "alice",
		"exp":      jwt.TimeFunc().Add(-time.Hour).Unix(),
	})
	expiredTokenString, _ := expiredToken.SignedString([]byte(testJWTSecret))
	_, err = authService.ValidateToken(expiredTokenString)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token")

	noID := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"username": "alice"})
	noIDString, _ := noID.SignedString([]byte(testJWTSecret))
	_, err = authService.UserIDFromToken(noIDString)
	assert.Error(t, err)
}

func TestHashPassword(t *testing.T) {
	hashed, err := services.HashPassword("pw1")
	require.NoError(t, err)
	assert.NotEqual(t, "pw1", hashed)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hashed), []byte("pw1")))
}

func TestHashPasswordTooLong(t *testing.T) {
	_, err := services.HashPassword(strings.Repeat("p", 73))
	assert.ErrorIs(t, err, services.ErrPasswordTooLong)

	_, err = services.HashPassword(strings.Repeat("p", 72))
	assert.NoError(t, err)
}
