package domain

import "time"

// Role is fixed per account and only changed administratively.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleQuoter   Role = "quoter"
	RoleSupplier Role = "supplier"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleQuoter, RoleSupplier, RoleAdmin:
		return true
	}
	return false
}

// IsStaff reports whether the role belongs to internal users.
func (r Role) IsStaff() bool {
	return r == RoleQuoter || r == RoleAdmin
}

// User is any account: customer, quoter, supplier or admin.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// SupplierGroups lists the supplier groups the user currently belongs to.
	SupplierGroups []string
	// CustomerGroupMembership is the full join/leave history, oldest first.
	CustomerGroupMembership []MembershipInterval
}

// CustomerGroups is the active projection of CustomerGroupMembership.
func (u *User) CustomerGroups() []string {
	if u == nil {
		return nil
	}
	var ids []string
	seen := map[string]struct{}{}
	for _, m := range u.CustomerGroupMembership {
		if !m.Active() {
			continue
		}
		if _, ok := seen[m.GroupID]; ok {
			continue
		}
		seen[m.GroupID] = struct{}{}
		ids = append(ids, m.GroupID)
	}
	return ids
}

// ActiveCustomerInterval returns the open interval for groupID, if any.
func (u *User) ActiveCustomerInterval(groupID string) (MembershipInterval, bool) {
	if u == nil {
		return MembershipInterval{}, false
	}
	for i := len(u.CustomerGroupMembership) - 1; i >= 0; i-- {
		m := u.CustomerGroupMembership[i]
		if m.GroupID == groupID && m.Active() {
			return m, true
		}
	}
	return MembershipInterval{}, false
}

// InSupplierGroup reports current supplier group membership.
func (u *User) InSupplierGroup(groupID string) bool {
	if u == nil {
		return false
	}
	for _, id := range u.SupplierGroups {
		if id == groupID {
			return true
		}
	}
	return false
}
