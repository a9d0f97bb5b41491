package repository

import (
	"context"

	"github.com/spec-kit/quote-service/internal/domain"
)

// HydrateMemberships fills the group projections of user from the
// membership store. Only the role that uses a projection is loaded.
func HydrateMemberships(ctx context.Context, memberships MembershipRepository, user *domain.User) error {
	switch user.Role {
	case domain.RoleSupplier:
		ids, err := memberships.ListSupplierGroupIDs(ctx, user.ID)
		if err != nil {
			return err
		}
		user.SupplierGroups = ids
	case domain.RoleCustomer:
		intervals, err := memberships.ListCustomerIntervals(ctx, user.ID)
		if err != nil {
			return err
		}
		user.CustomerGroupMembership = intervals
	}
	return nil
}
