package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/quote-service/internal/api/dto"
	"github.com/spec-kit/quote-service/internal/service"
	apperrors "github.com/spec-kit/quote-service/pkg/util/errorutil"
)

// FilesHandler uploads, downloads and deletes quote attachments.
type FilesHandler struct {
	service *service.FileService
}

// NewFilesHandler constructs handler.
func NewFilesHandler(fileService *service.FileService) *FilesHandler {
	return &FilesHandler{service: fileService}
}

// Upload POST /quotes/:id/files/:kind (multipart field "files").
func (h *FilesHandler) Upload(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	kind, err := fileKindParam(c)
	if err != nil {
		return err
	}
	uploads, err := multipartUploads(c)
	if err != nil {
		return err
	}
	if len(uploads) == 0 {
		return apperrors.NewValidationError("no files uploaded", map[string]any{"field": filesField})
	}
	quote, err := h.service.Upload(c.UserContext(), user, c.Params("id"), kind, uploads)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewQuoteResponse(quote)})
}

// Download GET /quotes/:id/files/:kind/:index.
func (h *FilesHandler) Download(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	kind, err := fileKindParam(c)
	if err != nil {
		return err
	}
	index, err := indexParam(c)
	if err != nil {
		return err
	}
	file, rc, err := h.service.Open(c.UserContext(), user, c.Params("id"), kind, index)
	if err != nil {
		return err
	}
	c.Attachment(file.OriginalName)
	if file.MimeType != "" {
		c.Set(fiber.HeaderContentType, file.MimeType)
	}
	// fasthttp closes rc once the body is written
	return c.SendStream(rc, int(file.Size))
}

// DeleteFile DELETE /quotes/:id/files/:kind/:index.
func (h *FilesHandler) DeleteFile(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	kind, err := fileKindParam(c)
	if err != nil {
		return err
	}
	index, err := indexParam(c)
	if err != nil {
		return err
	}
	quote, err := h.service.DeleteFile(c.UserContext(), user, c.Params("id"), kind, index)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewQuoteResponse(quote)})
}

// DeleteAll DELETE /quotes/:id/files/:kind.
func (h *FilesHandler) DeleteAll(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	kind, err := fileKindParam(c)
	if err != nil {
		return err
	}
	quote, err := h.service.DeleteAll(c.UserContext(), user, c.Params("id"), kind)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewQuoteResponse(quote)})
}
