package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/quote-service/internal/api/dto"
	"github.com/spec-kit/quote-service/internal/service"
)

// GroupsHandler manages supplier and customer groups under /groups/:kind.
type GroupsHandler struct {
	service *service.GroupService
}

// NewGroupsHandler constructs handler.
func NewGroupsHandler(groupService *service.GroupService) *GroupsHandler {
	return &GroupsHandler{service: groupService}
}

// CreateGroup POST /groups/:kind.
func (h *GroupsHandler) CreateGroup(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	kind, err := groupKindParam(c)
	if err != nil {
		return err
	}
	var req dto.GroupCreateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	group, err := h.service.CreateGroup(c.UserContext(), user, kind, service.GroupInput{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewGroupResponse(group)})
}

// ListGroups GET /groups/:kind?include_inactive=true.
func (h *GroupsHandler) ListGroups(c *fiber.Ctx) error {
	kind, err := groupKindParam(c)
	if err != nil {
		return err
	}
	limit, offset := pagination(c)
	groups, err := h.service.ListGroups(c.UserContext(), kind, c.QueryBool("include_inactive", false), limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.GroupResponse, 0, len(groups))
	for i := range groups {
		items = append(items, dto.NewGroupResponse(&groups[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetGroup GET /groups/:kind/:id.
func (h *GroupsHandler) GetGroup(c *fiber.Ctx) error {
	kind, err := groupKindParam(c)
	if err != nil {
		return err
	}
	group, err := h.service.GetGroup(c.UserContext(), kind, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewGroupResponse(group)})
}

// UpdateGroup PATCH /groups/:kind/:id.
func (h *GroupsHandler) UpdateGroup(c *fiber.Ctx) error {
	kind, err := groupKindParam(c)
	if err != nil {
		return err
	}
	var req dto.GroupUpdateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	group, err := h.service.UpdateGroup(c.UserContext(), kind, c.Params("id"), service.GroupUpdateInput{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		IsActive:    req.IsActive,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewGroupResponse(group)})
}

// DeleteGroup DELETE /groups/:kind/:id.
func (h *GroupsHandler) DeleteGroup(c *fiber.Ctx) error {
	kind, err := groupKindParam(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteGroup(c.UserContext(), kind, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListMembers GET /groups/:kind/:id/members.
func (h *GroupsHandler) ListMembers(c *fiber.Ctx) error {
	kind, err := groupKindParam(c)
	if err != nil {
		return err
	}
	members, err := h.service.ListMembers(c.UserContext(), kind, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(members))
	for i := range members {
		items = append(items, dto.NewUserResponse(&members[i], false))
	}
	return c.JSON(fiber.Map{"data": items})
}

// AddMember POST /groups/:kind/:id/members.
func (h *GroupsHandler) AddMember(c *fiber.Ctx) error {
	kind, err := groupKindParam(c)
	if err != nil {
		return err
	}
	var req dto.GroupMemberRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	group, err := h.service.AddMember(c.UserContext(), kind, c.Params("id"), req.UserID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewGroupResponse(group)})
}

// RemoveMember DELETE /groups/:kind/:id/members/:userId.
func (h *GroupsHandler) RemoveMember(c *fiber.Ctx) error {
	kind, err := groupKindParam(c)
	if err != nil {
		return err
	}
	group, err := h.service.RemoveMember(c.UserContext(), kind, c.Params("id"), c.Params("userId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewGroupResponse(group)})
}
