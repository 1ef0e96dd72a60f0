package handlers

import (
	"errors"

	"filehub/internal/middleware"
	"filehub/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AddressHandler handles HTTP requests for the caller's addresses.
type AddressHandler struct {
	service *services.AddressService
}

// NewAddressHandler creates a new AddressHandler.
func NewAddressHandler(service *services.AddressService) *AddressHandler {
	return &AddressHandler{service: service}
}

// RegisterRoutes registers the address routes. Every route requires auth.
func (h *AddressHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	addressRoutes := router.Group("/addresses", auth)
	addressRoutes.Get("/", h.HandleList)
	addressRoutes.Post("/", h.HandleCreate)
	addressRoutes.Get("/:id", h.HandleGet)
	addressRoutes.Put("/:id", h.HandleUpdate)
	addressRoutes.Patch("/:id", h.HandlePatch)
	addressRoutes.Delete("/:id", h.HandleDelete)
}

func (h *AddressHandler) failed(c *fiber.Ctx, msg string, err error) error {
	switch {
	case isValidation(err):
		return badRequest(c, invalidData, err)
	case errors.Is(err, services.ErrAddressNotFound):
		return notFound(c, "Address not found")
	}
	return serverError(c, msg, err)
}

// HandleList returns the caller's addresses.
func (h *AddressHandler) HandleList(c *fiber.Ctx) error {
	addresses, err := h.service.List(*middleware.CallerFrom(c))
	if err != nil {
		return h.failed(c, "Could not retrieve addresses", err)
	}
	return c.JSON(addresses)
}

// HandleGet returns one address.
func (h *AddressHandler) HandleGet(c *fiber.Ctx) error {
	address, err := h.service.Get(*middleware.CallerFrom(c), c.Params("id"))
	if err != nil {
		return h.failed(c, "Could not retrieve address", err)
	}
	return c.JSON(address)
}

// HandleCreate stores a new address for the caller.
func (h *AddressHandler) HandleCreate(c *fiber.Ctx) error {
	var in services.AddressInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	address, err := h.service.Create(*middleware.CallerFrom(c), in)
	if err != nil {
		return h.failed(c, "Could not create address", err)
	}
	return c.Status(fiber.StatusCreated).JSON(address)
}

// HandleUpdate replaces an address.
func (h *AddressHandler) HandleUpdate(c *fiber.Ctx) error {
	var in services.AddressInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	address, err := h.service.Update(*middleware.CallerFrom(c), c.Params("id"), in)
	if err != nil {
		return h.failed(c, "Could not update address", err)
	}
	return c.JSON(address)
}

// HandlePatch updates the given fields of an address.
func (h *AddressHandler) HandlePatch(c *fiber.Ctx) error {
	var patch services.AddressPatch
	if err := c.BodyParser(&patch); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	address, err := h.service.Patch(*middleware.CallerFrom(c), c.Params("id"), patch)
	if err != nil {
		return h.failed(c, "Could not update address", err)
	}
	return c.JSON(address)
}

// HandleDelete removes an address.
func (h *AddressHandler) HandleDelete(c *fiber.Ctx) error {
	if err := h.service.Delete(*middleware.CallerFrom(c), c.Params("id")); err != nil {
		return h.failed(c, "Could not delete address", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
