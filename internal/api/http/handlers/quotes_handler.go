package handlers

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/quote-service/internal/api/dto"
	"github.com/spec-kit/quote-service/internal/domain"
	"github.com/spec-kit/quote-service/internal/service"
	apperrors "github.com/spec-kit/quote-service/pkg/util/errorutil"
)

// filesField is the multipart field carrying attachments.
const filesField = "files"

// QuotesHandler manages quote CRUD and lifecycle endpoints.
type QuotesHandler struct {
	service *service.QuoteService
}

// NewQuotesHandler constructs handler.
func NewQuotesHandler(quoteService *service.QuoteService) *QuotesHandler {
	return &QuotesHandler{service: quoteService}
}

// CreateQuote POST /quotes (multipart: title, description, customer_groups, files).
func (h *QuotesHandler) CreateQuote(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var form dto.QuoteCreateForm
	if err := bind(c, &form); err != nil {
		return err
	}
	uploads, err := multipartUploads(c)
	if err != nil {
		return err
	}

	input := service.QuoteCreateInput{
		Title:       form.Title,
		Description: form.Description,
		Files:       uploads,
	}
	if strings.TrimSpace(form.CustomerGroups) != "" {
		input.CustomerGroups = splitList(form.CustomerGroups)
	}
	quote, err := h.service.CreateQuote(c.UserContext(), user, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewQuoteResponse(quote)})
}

// ListQuotes GET /quotes.
func (h *QuotesHandler) ListQuotes(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	filter := service.QuoteListFilter{OnlyMine: c.QueryBool("mine", false)}
	if filter.CreatedFrom, err = parseTime("created_from", c.Query("created_from")); err != nil {
		return err
	}
	if filter.CreatedTo, err = parseTime("created_to", c.Query("created_to")); err != nil {
		return err
	}
	for _, status := range splitList(c.Query("status")) {
		st := domain.QuoteStatus(status)
		if !st.Valid() {
			return apperrors.NewValidationError("unknown status", map[string]any{"status": status})
		}
		filter.Statuses = append(filter.Statuses, st)
	}
	if term := strings.TrimSpace(c.Query("q")); term != "" {
		filter.SearchTerm = &term
	}
	filter.Limit, filter.Offset = pagination(c)

	quotes, err := h.service.ListQuotes(c.UserContext(), user, filter)
	if err != nil {
		return err
	}
	items := make([]dto.QuoteResponse, 0, len(quotes))
	for i := range quotes {
		items = append(items, dto.NewQuoteResponse(&quotes[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetQuote GET /quotes/:id.
func (h *QuotesHandler) GetQuote(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	quote, err := h.service.GetQuote(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewQuoteResponse(quote)})
}

// UpdateQuote PATCH /quotes/:id.
func (h *QuotesHandler) UpdateQuote(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.QuoteUpdateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	quote, err := h.service.UpdateQuote(c.UserContext(), user, c.Params("id"), service.QuoteUpdateInput{
		Title:          req.Title,
		Description:    req.Description,
		CustomerGroups: req.CustomerGroups,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewQuoteResponse(quote)})
}

// DeleteQuote DELETE /quotes/:id.
func (h *QuotesHandler) DeleteQuote(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteQuote(c.UserContext(), user, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// CancelQuote POST /quotes/:id/cancel.
func (h *QuotesHandler) CancelQuote(c *fiber.Ctx) error {
	return h.transition(c, h.service.CancelQuote)
}

// ConfirmSupplierQuote POST /quotes/:id/supplier-confirm.
func (h *QuotesHandler) ConfirmSupplierQuote(c *fiber.Ctx) error {
	return h.transition(c, h.service.ConfirmSupplierQuote)
}

// ConfirmFinalQuote POST /quotes/:id/confirm.
func (h *QuotesHandler) ConfirmFinalQuote(c *fiber.Ctx) error {
	return h.transition(c, h.service.ConfirmFinalQuote)
}

// RejectQuote POST /quotes/:id/reject.
func (h *QuotesHandler) RejectQuote(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.RejectRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	quote, err := h.service.RejectQuote(c.UserContext(), user, c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewQuoteResponse(quote)})
}

// ListHistory GET /quotes/:id/history.
func (h *QuotesHandler) ListHistory(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	limit, offset := pagination(c)
	entries, err := h.service.ListHistory(c.UserContext(), user, c.Params("id"), limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.QuoteHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.NewQuoteHistoryResponse(entry))
	}
	return c.JSON(fiber.Map{"data": items})
}

type transitionFunc func(ctx context.Context, user *domain.User, quoteID string) (*domain.Quote, error)

func (h *QuotesHandler) transition(c *fiber.Ctx, fn transitionFunc) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	quote, err := fn(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewQuoteResponse(quote)})
}

// multipartUploads collects the files field. Non-multipart requests carry no files.
func multipartUploads(c *fiber.Ctx) ([]service.FileUpload, error) {
	if !strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperrors.NewValidationError("invalid multipart form", nil)
	}
	headers := form.File[filesField]
	uploads := make([]service.FileUpload, 0, len(headers))
	for _, fh := range headers {
		uploads = append(uploads, fileUpload(fh))
	}
	return uploads, nil
}

func fileUpload(fh *multipart.FileHeader) service.FileUpload {
	return service.FileUpload{
		Name: fh.Filename,
		Size: fh.Size,
		Open: func() (io.ReadCloser, error) { return fh.Open() },
	}
}
