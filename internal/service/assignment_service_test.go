package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/quote-service/internal/domain"
)

func TestGroupAssignmentStatusRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.ctx
	customer := env.user(domain.RoleCustomer, "buyer@example.com")
	quoter := env.user(domain.RoleQuoter, "quoter@example.com")
	a := env.group(domain.GroupKindSupplier, "A")
	b := env.group(domain.GroupKindSupplier, "B")

	q := env.createQuote(customer)
	routed, err := env.assign.SetGroups(ctx, quoter, q.ID, []string{a.ID, b.ID, a.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteStatusInProgress, routed.Status)
	assert.Equal(t, []string{a.ID, b.ID}, routed.AssignedGroups)

	cleared, err := env.assign.SetGroups(ctx, quoter, q.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteStatusInProgress, cleared.Status)
	assert.Empty(t, cleared.AssignedGroups)

	_, err = env.assign.SetGroups(ctx, quoter, q.ID, []string{a.ID, b.ID})
	require.NoError(t, err)
	one, err := env.assign.RemoveGroup(ctx, quoter, q.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteStatusInProgress, one.Status)

	last, err := env.assign.RemoveGroup(ctx, quoter, q.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteStatusPending, last.Status)

	_, err = env.assign.RemoveGroup(ctx, quoter, q.ID, b.ID)
	assert.Equal(t, "NOT_FOUND", errorCode(err))
}

func TestLastGroupRemovalResetsEvenWithSupplier(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.ctx
	customer := env.user(domain.RoleCustomer, "buyer@example.com")
	quoter := env.user(domain.RoleQuoter, "quoter@example.com")
	supplier := env.user(domain.RoleSupplier, "supplier@example.com")
	g := env.group(domain.GroupKindSupplier, "A")

	q := env.createQuote(customer)
	_, err := env.assign.AssignSupplier(ctx, quoter, q.ID, &supplier.ID)
	require.NoError(t, err)
	_, err = env.assign.SetGroups(ctx, quoter, q.ID, []string{g.ID})
	require.NoError(t, err)

	reset, err := env.assign.RemoveGroup(ctx, quoter, q.ID, g.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteStatusPending, reset.Status)
	require.NotNil(t, reset.SupplierID)
}

func TestAssignmentValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.ctx
	customer := env.user(domain.RoleCustomer, "buyer@example.com")
	quoter := env.user(domain.RoleQuoter, "quoter@example.com")
	admin := env.user(domain.RoleAdmin, "admin@example.com")
	cg := env.group(domain.GroupKindCustomer, "Acme")
	sg := env.group(domain.GroupKindSupplier, "Dormant")
	inactive := false
	_, err := env.groups.UpdateGroup(ctx, domain.GroupKindSupplier, sg.ID, GroupUpdateInput{IsActive: &inactive})
	require.NoError(t, err)
	q := env.createQuote(customer)

	_, err = env.assign.SetGroups(ctx, quoter, q.ID, []string{sg.ID})
	assert.Equal(t, "CONFLICT", errorCode(err))
	_, err = env.assign.SetGroups(ctx, quoter, q.ID, []string{cg.ID})
	assert.Equal(t, "VALIDATION_FAILED", errorCode(err))
	_, err = env.assign.SetGroups(ctx, quoter, q.ID, []string{"missing"})
	assert.Equal(t, "NOT_FOUND", errorCode(err))

	_, err = env.assign.AssignSupplier(ctx, quoter, q.ID, &customer.ID)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(err))
	_, err = env.assign.SetGroups(ctx, customer, q.ID, nil)
	assert.Equal(t, "FORBIDDEN", errorCode(err))

	_, err = env.assign.AssignQuoter(ctx, quoter, q.ID, quoter.ID)
	assert.Equal(t, "FORBIDDEN", errorCode(err))
	assigned, err := env.assign.AssignQuoter(ctx, admin, q.ID, quoter.ID)
	require.NoError(t, err)
	require.NotNil(t, assigned.QuoterID)
	assert.Equal(t, quoter.ID, *assigned.QuoterID)

	_, err = env.assign.ClaimQuote(ctx, admin, q.ID)
	assert.Equal(t, "FORBIDDEN", errorCode(err))
}
