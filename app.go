package main

import (
	"errors"
	"log"
	"time"

	"filehub/internal/config"
	"filehub/internal/handlers"
	"filehub/internal/middleware"
	"filehub/internal/repositories"
	"filehub/internal/services"
	"filehub/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

// multipartOverhead leaves room for form fields and boundaries on top of
// the largest accepted payload.
const multipartOverhead = 1 << 20

// NewApp wires repositories, services and handlers into a Fiber app.
// publisher may be nil, in which case no file events are sent.
func NewApp(cfg *config.Config, db *gorm.DB, store storage.Store, publisher services.EventPublisher) *fiber.App {
	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	addressRepo := repositories.NewGORMAddressRepository(db)
	fileRepo := repositories.NewGORMFileRepository(db)

	// --- Services ---
	authService := services.NewAuthService(userRepo, addressRepo, cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	userService := services.NewUserService(userRepo, addressRepo, fileRepo, store)
	addressService := services.NewAddressService(addressRepo)
	fileService := services.NewFileService(fileRepo, store, publisher)
	statsService := services.NewStatsService(fileRepo)

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService, userService)
	addressHandler := handlers.NewAddressHandler(addressService)
	fileHandler := handlers.NewFileHandler(fileService, statsService, cfg.MaxUploadBytes)

	app := fiber.New(fiber.Config{
		BodyLimit:    int(cfg.MaxUploadBytes) + multipartOverhead,
		ErrorHandler: errorHandler,
	})

	// --- Middleware ---
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// --- API Routes ---
	auth := middleware.AuthRequired(authService)
	optionalAuth := middleware.OptionalAuth(authService)

	api := app.Group("/api")
	authHandler.RegisterRoutes(api, auth)
	addressHandler.RegisterRoutes(api, auth)
	fileHandler.RegisterRoutes(api, auth, optionalAuth)

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
			"events": publisher != nil,
		})
	})

	return app
}

// errorHandler answers every error that escapes a handler with a JSON body.
// Fiber errors keep their status and message; anything else is a 500 whose
// detail only reaches the log.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}
	log.Printf("Unhandled error on %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
	})
}
