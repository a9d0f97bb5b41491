package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/quote-service/internal/api/dto"
	"github.com/spec-kit/quote-service/internal/domain"
	"github.com/spec-kit/quote-service/internal/service"
)

// AssignmentHandler routes quotes to quoters, suppliers and supplier groups.
type AssignmentHandler struct {
	service *service.AssignmentService
}

// NewAssignmentHandler constructs handler.
func NewAssignmentHandler(assignmentService *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: assignmentService}
}

// AssignQuoter POST /quotes/:id/quoter. Without a quoter_id the caller
// claims the quote.
func (h *AssignmentHandler) AssignQuoter(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.AssignQuoterRequest
	if len(c.Body()) > 0 {
		if err := bind(c, &req); err != nil {
			return err
		}
	}
	var quote *domain.Quote
	if req.QuoterID == "" {
		quote, err = h.service.ClaimQuote(c.UserContext(), user, c.Params("id"))
	} else {
		quote, err = h.service.AssignQuoter(c.UserContext(), user, c.Params("id"), req.QuoterID)
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewQuoteResponse(quote)})
}

// AssignSupplier PUT /quotes/:id/supplier. A null supplier_id clears it.
func (h *AssignmentHandler) AssignSupplier(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.AssignSupplierRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	quote, err := h.service.AssignSupplier(c.UserContext(), user, c.Params("id"), req.SupplierID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewQuoteResponse(quote)})
}

// SetGroups PUT /quotes/:id/groups.
func (h *AssignmentHandler) SetGroups(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.SetGroupsRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	quote, err := h.service.SetGroups(c.UserContext(), user, c.Params("id"), req.GroupIDs)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewQuoteResponse(quote)})
}

// RemoveGroup DELETE /quotes/:id/groups/:groupId.
func (h *AssignmentHandler) RemoveGroup(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	quote, err := h.service.RemoveGroup(c.UserContext(), user, c.Params("id"), c.Params("groupId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewQuoteResponse(quote)})
}
