package dto

import (
	"time"

	"github.com/spec-kit/quote-service/internal/domain"
)

// UserRegisterRequest payload for customer self-registration.
type UserRegisterRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// PasswordChangeRequest payload for authenticated password changes.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserCreateRequest is the admin payload for new accounts.
type UserCreateRequest struct {
	Name     string      `json:"name" validate:"required,max=200"`
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=8"`
	Role     domain.Role `json:"role" validate:"required,oneof=customer quoter supplier admin"`
}

// UserUpdateRequest carries optional admin changes.
type UserUpdateRequest struct {
	Name   *string      `json:"name" validate:"omitempty,max=200"`
	Email  *string      `json:"email" validate:"omitempty,email"`
	Role   *domain.Role `json:"role" validate:"omitempty,oneof=customer quoter supplier admin"`
	Active *bool        `json:"active"`
}

// MembershipResponse is one customer group interval.
type MembershipResponse struct {
	GroupID  string     `json:"group_id"`
	JoinedAt time.Time  `json:"joined_at"`
	LeftAt   *time.Time `json:"left_at"`
	IsActive bool       `json:"is_active"`
}

// UserResponse never carries the password hash.
type UserResponse struct {
	ID                      string               `json:"id"`
	Name                    string               `json:"name"`
	Email                   string               `json:"email"`
	Role                    domain.Role          `json:"role"`
	Active                  bool                 `json:"active"`
	SupplierGroups          []string             `json:"supplier_groups,omitempty"`
	CustomerGroups          []string             `json:"customer_groups,omitempty"`
	CustomerGroupMembership []MembershipResponse `json:"customer_group_membership,omitempty"`
	CreatedAt               time.Time            `json:"created_at"`
	UpdatedAt               time.Time            `json:"updated_at"`
}

// NewUserResponse maps a user. Membership history is included only when
// withHistory is set.
func NewUserResponse(u *domain.User, withHistory bool) UserResponse {
	resp := UserResponse{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		Role:           u.Role,
		Active:         u.Active,
		SupplierGroups: u.SupplierGroups,
		CustomerGroups: u.CustomerGroups(),
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
	if withHistory {
		for _, m := range u.CustomerGroupMembership {
			resp.CustomerGroupMembership = append(resp.CustomerGroupMembership, MembershipResponse{
				GroupID:  m.GroupID,
				JoinedAt: m.JoinedAt,
				LeftAt:   m.LeftAt,
				IsActive: m.IsActive,
			})
		}
	}
	return resp
}
