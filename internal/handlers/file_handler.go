package handlers

import (
	"errors"
	"fmt"
	"log"
	"mime"
	"path/filepath"
	"strconv"
	"strings"

	"filehub/internal/middleware"
	"filehub/internal/services"
	"filehub/internal/storage"
	"filehub/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// FileHandler handles uploads, downloads, metadata edits and the dashboard.
type FileHandler struct {
	files          *services.FileService
	stats          *services.StatsService
	maxUploadBytes int64
}

// NewFileHandler creates a new FileHandler. Uploads larger than
// maxUploadBytes are rejected.
func NewFileHandler(files *services.FileService, stats *services.StatsService, maxUploadBytes int64) *FileHandler {
	return &FileHandler{
		files:          files,
		stats:          stats,
		maxUploadBytes: maxUploadBytes,
	}
}

// RegisterRoutes registers the file routes. The dashboard is open, upload
// resolves its owner through optionalAuth and everything else requires auth.
func (h *FileHandler) RegisterRoutes(router fiber.Router, auth, optionalAuth fiber.Handler) {
	fileRoutes := router.Group("/files")
	// Must precede /:id.
	fileRoutes.Get("/dashboard-stats", h.HandleDashboardStats)
	fileRoutes.Post("/", optionalAuth, h.HandleUpload)
	fileRoutes.Get("/", auth, h.HandleList)
	fileRoutes.Get("/:id", auth, h.HandleGet)
	fileRoutes.Patch("/:id", auth, h.HandleUpdate)
	fileRoutes.Delete("/:id", auth, h.HandleDelete)
	fileRoutes.Get("/:id/download", auth, h.HandleDownload)
}

func (h *FileHandler) failed(c *fiber.Ctx, msg string, err error) error {
	switch {
	case isValidation(err):
		return badRequest(c, invalidData, err)
	case errors.Is(err, services.ErrFileNotFound):
		return notFound(c, "File not found")
	case errors.Is(err, services.ErrNoOwner):
		return unauthorized(c, "Authentication credentials were not provided.")
	}
	return serverError(c, msg, err)
}

// HandleUpload stores a multipart upload. The form carries the payload in
// "file" and optionally "filename" and "file_size".
func (h *FileHandler) HandleUpload(c *fiber.Ctx) error {
	caller := middleware.CallerFrom(c)
	if caller == nil {
		return h.failed(c, "", services.ErrNoOwner)
	}

	header, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "", validation.FieldError("file", "No file was submitted."))
	}
	if header.Size > h.maxUploadBytes {
		return badRequest(c, "", validation.FieldError("file",
			fmt.Sprintf("Ensure the file has no more than %d bytes.", h.maxUploadBytes)))
	}

	var declared int64
	if raw := strings.TrimSpace(c.FormValue("file_size")); raw != "" {
		declared, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return badRequest(c, "", validation.FieldError("file_size", "A valid integer is required."))
		}
	}

	content, err := header.Open()
	if err != nil {
		return serverError(c, "Could not read upload", err)
	}
	defer content.Close()

	file, err := h.files.Upload(c.UserContext(), caller, services.Upload{
		NativeName:   header.Filename,
		Filename:     c.FormValue("filename"),
		Size:         header.Size,
		DeclaredSize: declared,
		Content:      content,
	})
	if err != nil {
		return h.failed(c, "Could not upload file", err)
	}
	return c.Status(fiber.StatusCreated).JSON(file)
}

// HandleList returns the files visible to the caller, newest first.
func (h *FileHandler) HandleList(c *fiber.Ctx) error {
	files, err := h.files.List(*middleware.CallerFrom(c))
	if err != nil {
		return h.failed(c, "Could not retrieve files", err)
	}
	return c.JSON(files)
}

// HandleGet returns the metadata of one file.
func (h *FileHandler) HandleGet(c *fiber.Ctx) error {
	file, err := h.files.Get(*middleware.CallerFrom(c), c.Params("id"))
	if err != nil {
		return h.failed(c, "Could not retrieve file", err)
	}
	return c.JSON(file)
}

// HandleUpdate edits filename and file_type.
func (h *FileHandler) HandleUpdate(c *fiber.Ctx) error {
	var patch services.FilePatch
	if err := c.BodyParser(&patch); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	file, err := h.files.Update(*middleware.CallerFrom(c), c.Params("id"), patch)
	if err != nil {
		return h.failed(c, "Could not update file", err)
	}
	return c.JSON(file)
}

// HandleDelete removes a file record and its payload.
func (h *FileHandler) HandleDelete(c *fiber.Ctx) error {
	if err := h.files.Delete(c.UserContext(), *middleware.CallerFrom(c), c.Params("id")); err != nil {
		return h.failed(c, "Could not delete file", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleDownload streams the payload as an attachment named after the
// file's display name.
func (h *FileHandler) HandleDownload(c *fiber.Ctx) error {
	file, content, err := h.files.Open(c.UserContext(), *middleware.CallerFrom(c), c.Params("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Printf("Payload missing for file %s: %v", c.Params("id"), err)
			return notFound(c, "File content not found")
		}
		return h.failed(c, "Could not download file", err)
	}

	if ext := filepath.Ext(file.Filename); ext != "" {
		c.Type(ext)
	} else {
		c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
	}
	c.Set(fiber.HeaderContentDisposition, contentDisposition(file.Filename))
	return c.SendStream(content)
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// contentDisposition renders an attachment header carrying filename as is.
// Names outside printable ASCII use the RFC 2231 extended form.
func contentDisposition(filename string) string {
	for _, r := range filename {
		if r < 0x20 || r > 0x7e {
			if v := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); v != "" {
				return v
			}
			return "attachment"
		}
	}
	return `attachment; filename="` + quoteEscaper.Replace(filename) + `"`
}

// HandleDashboardStats returns the global upload statistics.
func (h *FileHandler) HandleDashboardStats(c *fiber.Ctx) error {
	stats, err := h.stats.DashboardStats()
	if err != nil {
		return serverError(c, "Failed to get dashboard statistics", err)
	}
	return c.JSON(stats)
}
