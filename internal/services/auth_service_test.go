package services_test

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"testing"
	"time"

	"filehub/internal/models"
	"filehub/internal/repositories"
	"filehub/internal/services"
	"filehub/internal/validation"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test_jwt_secret"

// TestMain is used to setup test environment
func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	code := m.Run()
	os.Exit(code)
}

func notFound(what string) error {
	return fmt.Errorf("%s not found: %w", what, repositories.ErrNotFound)
}

func newAuthService(users *MockUserRepository, addresses *MockAddressRepository) *services.AuthService {
	return services.NewAuthService(users, addresses, testJWTSecret, 5*time.Minute, 24*time.Hour)
}

func hashedUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:       "user-123",
		Username: "testuser",
		Email:    "test@example.com",
		Password: string(hash),
	}
}

func TestAuthService_RegisterUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo, new(MockAddressRepository))

	user := &models.User{
		Username: "testuser",
		Email:    "Test@Example.com",
		Password: "password123",
	}

	mockRepo.On("GetByEmail", "test@example.com").Return(nil, notFound("user")).Once()
	mockRepo.On("GetByUsername", "testuser").Return(nil, notFound("user")).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.User")).Return(nil).Once()

	err := authService.RegisterUser(user)
	require.NoError(t, err)
	assert.Equal(t, "test@example.com", user.Email, "email is stored lowercased")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("password123")))
	mockRepo.AssertExpectations(t)
}

func TestAuthService_RegisterUserDuplicates(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo, new(MockAddressRepository))

	// Email already registered
	mockRepo.On("GetByEmail", "test@example.com").Return(&models.User{ID: "1"}, nil).Once()
	err := authService.RegisterUser(&models.User{Username: "testuser", Email: "test@example.com", Password: "password123"})
	var verr *validation.Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "A user with this email already exists.", verr.Fields["email"])

	// Username already taken
	mockRepo.On("GetByEmail", "other@example.com").Return(nil, notFound("user")).Once()
	mockRepo.On("GetByUsername", "testuser").Return(&models.User{ID: "1"}, nil).Once()
	err = authService.RegisterUser(&models.User{Username: "testuser", Email: "other@example.com", Password: "password123"})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "A user with this username already exists.", verr.Fields["username"])

	mockRepo.AssertNotCalled(t, "Create", mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_LoginUser(t *testing.T) {
	users := new(MockUserRepository)
	addresses := new(MockAddressRepository)
	authService := newAuthService(users, addresses)
	user := hashedUser(t, "password123")

	users.On("GetByEmail", "test@example.com").Return(user, nil).Once()
	addresses.On("ListByUser", user.ID).Return([]models.Address{{ID: "addr-1", IsDefault: true}}, nil).Once()

	result, err := authService.LoginUser("TEST@example.com", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Access)
	assert.NotEmpty(t, result.Refresh)
	profile, ok := result.User.(*models.User)
	require.True(t, ok)
	assert.Len(t, profile.Addresses, 1)

	parsedToken, err := jwt.Parse(result.Access, func(token *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, user.ID, claims["user_id"])
	assert.Equal(t, user.Username, claims["username"])
	assert.Equal(t, services.TokenTypeAccess, claims["token_type"])

	users.AssertExpectations(t)
	addresses.AssertExpectations(t)
}

func TestAuthService_LoginUserFailures(t *testing.T) {
	users := new(MockUserRepository)
	authService := newAuthService(users, new(MockAddressRepository))
	user := hashedUser(t, "password123")

	users.On("GetByEmail", "test@example.com").Return(user, nil).Once()
	_, err := authService.LoginUser("test@example.com", "wrongpassword")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	users.On("GetByEmail", "nobody@example.com").Return(nil, notFound("user")).Once()
	_, err = authService.LoginUser("nobody@example.com", "password123")
	assert.ErrorIs(t, err, services.ErrUserNotFound)

	users.On("GetByEmail", "broken@example.com").Return(nil, errors.New("connection reset")).Once()
	_, err = authService.LoginUser("broken@example.com", "password123")
	require.Error(t, err)
	assert.NotErrorIs(t, err, services.ErrUserNotFound)

	users.AssertExpectations(t)
}

func TestAuthService_LoginUserMinimalPayload(t *testing.T) {
	users := new(MockUserRepository)
	addresses := new(MockAddressRepository)
	authService := newAuthService(users, addresses)
	user := hashedUser(t, "password123")

	users.On("GetByEmail", "test@example.com").Return(user, nil).Once()
	addresses.On("ListByUser", user.ID).Return(nil, errors.New("address table missing")).Once()

	result, err := authService.LoginUser("test@example.com", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Access)
	assert.Equal(t, services.MinimalUser{ID: user.ID, Email: user.Email, Username: user.Username}, result.User)
}

func TestAuthService_RefreshAndAuthenticate(t *testing.T) {
	users := new(MockUserRepository)
	addresses := new(MockAddressRepository)
	authService := newAuthService(users, addresses)
	user := hashedUser(t, "password123")
	user.IsStaff = true

	users.On("GetByEmail", user.Email).Return(user, nil).Once()
	addresses.On("ListByUser", user.ID).Return([]models.Address{}, nil).Once()
	result, err := authService.LoginUser(user.Email, "password123")
	require.NoError(t, err)

	caller, err := authService.Authenticate(result.Access)
	require.NoError(t, err)
	assert.Equal(t, &services.Caller{UserID: user.ID, Username: user.Username, IsStaff: true}, caller)

	_, err = authService.Authenticate(result.Refresh)
	assert.ErrorIs(t, err, services.ErrInvalidToken, "refresh tokens are not accepted as bearer tokens")

	users.On("GetByID", user.ID).Return(user, nil).Once()
	access, err := authService.RefreshAccessToken(result.Refresh)
	require.NoError(t, err)
	_, err = authService.Authenticate(access)
	assert.NoError(t, err)

	_, err = authService.RefreshAccessToken(result.Access)
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	users.AssertExpectations(t)
}

func TestAuthService_ValidateToken(t *testing.T) {
	authService := newAuthService(new(MockUserRepository), new(MockAddressRepository))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  "user-123",
		"username": "testuser",
		"exp":      jwt.TimeFunc().Add(time.Hour).Unix(),
	})
	validTokenString, _ := token.SignedString([]byte(testJWTSecret))

	claims, err := authService.ValidateToken(validTokenString)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims["user_id"])

	_, err = authService.ValidateToken("invalid.token.string")
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	wrongSecret, _ := token.SignedString([]byte("another_secret"))
	_, err = authService.ValidateToken(wrongSecret)
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	expiredToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "user-123",
		"exp":     jwt.TimeFunc().Add(-time.Hour).Unix(),
	})
	expiredTokenString, _ := expiredToken.SignedString([]byte(testJWTSecret))
	_, err = authService.ValidateToken(expiredTokenString)
	assert.ErrorIs(t, err, services.ErrInvalidToken)
}
