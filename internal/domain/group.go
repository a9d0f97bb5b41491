package domain

import "time"

// GroupKind separates supplier groups from customer groups.
type GroupKind string

const (
	GroupKindSupplier GroupKind = "supplier"
	GroupKindCustomer GroupKind = "customer"
)

// Valid reports whether k is a known group kind.
func (k GroupKind) Valid() bool {
	return k == GroupKindSupplier || k == GroupKindCustomer
}

// MemberRole is the user role a group of this kind accepts.
func (k GroupKind) MemberRole() Role {
	if k == GroupKindSupplier {
		return RoleSupplier
	}
	return RoleCustomer
}

// Group is a named set of suppliers or customers.
type Group struct {
	ID          string
	Kind        GroupKind
	Name        string
	Description string
	Color       string
	IsActive    bool
	CreatedBy   string
	Members     []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
