package dto

import (
	"time"

	"github.com/spec-kit/quote-service/internal/domain"
)

// GroupCreateRequest payload.
type GroupCreateRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=2000"`
	Color       string `json:"color" validate:"omitempty,hexcolor"`
}

// GroupUpdateRequest carries optional changes.
type GroupUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=120"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Color       *string `json:"color" validate:"omitempty,hexcolor"`
	IsActive    *bool   `json:"is_active"`
}

// GroupMemberRequest adds a user to a group.
type GroupMemberRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

// GroupResponse describes a supplier or customer group.
type GroupResponse struct {
	ID          string           `json:"id"`
	Kind        domain.GroupKind `json:"kind"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Color       string           `json:"color"`
	IsActive    bool             `json:"is_active"`
	CreatedBy   string           `json:"created_by,omitempty"`
	Members     []string         `json:"members,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// NewGroupResponse maps a group.
func NewGroupResponse(g *domain.Group) GroupResponse {
	return GroupResponse{
		ID:          g.ID,
		Kind:        g.Kind,
		Name:        g.Name,
		Description: g.Description,
		Color:       g.Color,
		IsActive:    g.IsActive,
		CreatedBy:   g.CreatedBy,
		Members:     g.Members,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}
