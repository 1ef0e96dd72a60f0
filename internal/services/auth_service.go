package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"filehub/internal/models"
	"filehub/internal/repositories"
	"filehub/internal/validation"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Token types carried in the token_type claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// AuthService handles registration, login and token handling.
type AuthService struct {
	userRepo    repositories.UserRepository
	addressRepo repositories.AddressRepository
	jwtSecret   []byte
	accessTTL   time.Duration
	refreshTTL  time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, addressRepo repositories.AddressRepository, jwtSecret string, accessTTL, refreshTTL time.Duration) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		addressRepo: addressRepo,
		jwtSecret:   []byte(jwtSecret),
		accessTTL:   accessTTL,
		refreshTTL:  refreshTTL,
	}
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Refresh string      `json:"refresh"`
	Access  string      `json:"access"`
	User    interface{} `json:"user"`
}

// MinimalUser is the login payload used when the full profile cannot be built.
type MinimalUser struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// RegisterUser validates uniqueness, hashes the password and stores the user.
// Uniqueness failures are reported as field errors.
func (s *AuthService) RegisterUser(user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	if _, err := s.userRepo.GetByEmail(user.Email); err == nil {
		return validation.FieldError("email", "A user with this email already exists.")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if _, err := s.userRepo.GetByUsername(user.Username); err == nil {
		return validation.FieldError("username", "A user with this username already exists.")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("failed to check username: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashedPassword)
	user.IsStaff = false

	if err := s.userRepo.Create(user); err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}
	return nil
}

// LoginUser verifies the credentials and issues a refresh/access token pair.
func (s *AuthService) LoginUser(email, password string) (*LoginResult, error) {
	user, err := s.userRepo.GetByEmail(strings.ToLower(email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	refresh, err := s.issueToken(user, TokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	access, err := s.issueToken(user, TokenTypeAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}

	result := &LoginResult{Refresh: refresh, Access: access}
	addresses, err := s.addressRepo.ListByUser(user.ID)
	if err != nil {
		log.Printf("Error loading profile of user %s, returning minimal payload: %v", user.ID, err)
		result.User = MinimalUser{ID: user.ID, Email: user.Email, Username: user.Username}
		return result, nil
	}
	if addresses == nil {
		addresses = []models.Address{}
	}
	user.Addresses = addresses
	result.User = user
	return result, nil
}

// RefreshAccessToken issues a new access token from a valid refresh token.
func (s *AuthService) RefreshAccessToken(refreshToken string) (string, error) {
	claims, err := s.ValidateToken(refreshToken)
	if err != nil {
		return "", err
	}
	if claims["token_type"] != TokenTypeRefresh {
		return "", fmt.Errorf("%w: not a refresh token", ErrInvalidToken)
	}

	userID, _ := claims["user_id"].(string)
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", fmt.Errorf("%w: user no longer exists", ErrInvalidToken)
		}
		return "", fmt.Errorf("failed to look up user: %w", err)
	}
	return s.issueToken(user, TokenTypeAccess, s.accessTTL)
}

// Authenticate validates an access token and returns the caller it names.
func (s *AuthService) Authenticate(accessToken string) (*Caller, error) {
	claims, err := s.ValidateToken(accessToken)
	if err != nil {
		return nil, err
	}
	if claims["token_type"] != TokenTypeAccess {
		return nil, fmt.Errorf("%w: not an access token", ErrInvalidToken)
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, fmt.Errorf("%w: missing user_id", ErrInvalidToken)
	}
	username, _ := claims["username"].(string)
	isStaff, _ := claims["is_staff"].(bool)
	return &Caller{UserID: userID, Username: username, IsStaff: isStaff}, nil
}

func (s *AuthService) issueToken(user *models.User, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":    user.ID,
		"username":   user.Username,
		"is_staff":   user.IsStaff,
		"token_type": tokenType,
		"jti":        uuid.New().String(),
		"exp":        now.Add(ttl).Unix(),
		"iat":        now.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s token: %w", tokenType, err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}
