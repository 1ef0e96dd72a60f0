package handlers

import (
	"errors"
	"log"

	"filehub/internal/middleware"
	"filehub/internal/models"
	"filehub/internal/services"
	"filehub/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles registration, login, token refresh and the caller's
// own profile.
type AuthHandler struct {
	authService *services.AuthService
	userService *services.UserService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, userService *services.UserService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
	}
}

// RegisterRoutes registers the user routes. auth guards the profile routes.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	userRoutes := router.Group("/users")
	userRoutes.Post("/", h.HandleRegister)
	userRoutes.Post("/login", h.HandleLogin)
	userRoutes.Post("/token/refresh", h.HandleRefresh)
	userRoutes.Get("/profile", auth, h.HandleGetProfile)
	userRoutes.Patch("/profile", auth, h.HandleUpdateProfile)
	userRoutes.Delete("/profile", auth, h.HandleDeleteProfile)
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email,max=255"`
	Username    string `json:"username" validate:"required,min=3,max=150"`
	Password    string `json:"password" validate:"required,min=8"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,max=15"`
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing register request body: %v", err)
		return badRequest(c, "Invalid request body", err)
	}
	if err := validation.Struct(req); err != nil {
		return badRequest(c, invalidData, err)
	}

	user := models.User{
		Email:       req.Email,
		Username:    req.Username,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
	}
	if err := h.authService.RegisterUser(&user); err != nil {
		if isValidation(err) {
			return badRequest(c, invalidData, err)
		}
		return serverError(c, "Could not register user", err)
	}

	user.Addresses = []models.Address{}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin handles user login and issues a refresh/access token pair.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing login request body: %v", err)
		return badRequest(c, "Invalid request body", err)
	}
	if err := validation.Struct(req); err != nil {
		return badRequest(c, invalidData, err)
	}

	result, err := h.authService.LoginUser(req.Email, req.Password)
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		return notFound(c, "No account found with this email")
	case errors.Is(err, services.ErrInvalidCredentials):
		return unauthorized(c, "Invalid credentials")
	case err != nil:
		return serverError(c, "An error occurred during login", err)
	}
	return c.JSON(result)
}

// RefreshRequest represents the request body for a token refresh.
type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

// HandleRefresh issues a new access token from a refresh token.
func (h *AuthHandler) HandleRefresh(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	if err := validation.Struct(req); err != nil {
		return badRequest(c, invalidData, err)
	}

	access, err := h.authService.RefreshAccessToken(req.Refresh)
	if err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			log.Printf("Refresh rejected: %v", err)
			return unauthorized(c, "Token is invalid or expired")
		}
		return serverError(c, "Could not refresh token", err)
	}
	return c.JSON(fiber.Map{"access": access})
}

// HandleGetProfile returns the caller's profile with addresses.
func (h *AuthHandler) HandleGetProfile(c *fiber.Ctx) error {
	caller := middleware.CallerFrom(c)
	user, err := h.userService.GetProfile(*caller)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return notFound(c, "User not found")
		}
		return serverError(c, "Could not retrieve profile", err)
	}
	return c.JSON(user)
}

// HandleUpdateProfile applies a partial profile update.
func (h *AuthHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	var update services.ProfileUpdate
	if err := c.BodyParser(&update); err != nil {
		return badRequest(c, "Invalid request body", err)
	}

	caller := middleware.CallerFrom(c)
	user, err := h.userService.UpdateProfile(*caller, update)
	if err != nil {
		switch {
		case isValidation(err):
			return badRequest(c, invalidData, err)
		case errors.Is(err, services.ErrUserNotFound):
			return notFound(c, "User not found")
		}
		return serverError(c, "Could not update profile", err)
	}
	return c.JSON(user)
}

// HandleDeleteProfile removes the caller's account with everything it owns.
func (h *AuthHandler) HandleDeleteProfile(c *fiber.Ctx) error {
	caller := middleware.CallerFrom(c)
	if err := h.userService.DeleteAccount(c.UserContext(), *caller); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return notFound(c, "User not found")
		}
		return serverError(c, "Could not delete account", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
