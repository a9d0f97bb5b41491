package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/quote-service/internal/domain"
	"github.com/spec-kit/quote-service/internal/repository"
)

func TestEnsureAdminIsIdempotent(t *testing.T) {
	env := newAuthEnv()
	ctx := context.Background()

	created, err := env.users.EnsureAdmin(ctx, "", "whatever123")
	require.NoError(t, err)
	assert.False(t, created)

	created, err = env.users.EnsureAdmin(ctx, "Root@Example.com", "bootstrap-pass")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = env.users.EnsureAdmin(ctx, "root@example.com", "other-pass-1")
	require.NoError(t, err)
	assert.False(t, created)

	session, err := env.auth.Login(ctx, "root@example.com", "bootstrap-pass")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, session.User.Role)
}

func TestCreateAndUpdateUsers(t *testing.T) {
	env := newAuthEnv()
	ctx := context.Background()

	_, err := env.users.CreateUser(ctx, UserCreateInput{Name: "X", Email: "x@example.com", Password: "password1", Role: "owner"})
	assert.Equal(t, "VALIDATION_FAILED", errorCode(err))

	supplier, err := env.users.CreateUser(ctx, UserCreateInput{Name: "Sam", Email: "sam@example.com", Password: "password1", Role: domain.RoleSupplier})
	require.NoError(t, err)
	_, err = env.users.CreateUser(ctx, UserCreateInput{Name: "Sam", Email: "SAM@example.com", Password: "password1", Role: domain.RoleQuoter})
	assert.Equal(t, "CONFLICT", errorCode(err))

	role := domain.RoleSupplier
	suppliers, err := env.users.ListUsers(ctx, repository.UserFilter{Role: &role, Limit: 10})
	require.NoError(t, err)
	require.Len(t, suppliers, 1)
	assert.Equal(t, supplier.ID, suppliers[0].ID)

	_, err = env.users.GetUser(ctx, "missing")
	assert.Equal(t, "NOT_FOUND", errorCode(err))
}

func TestRoleChangeRefusedWhileGrouped(t *testing.T) {
	env := newTestEnv(t)
	users := NewUserService(testAuthConfig, UserDependencies{UserRepo: env.users, MembershipRepo: env.memberships})
	supplier := env.user(domain.RoleSupplier, "sam@example.com")
	g := env.group(domain.GroupKindSupplier, "Machining", supplier)

	quoter := domain.RoleQuoter
	_, err := users.UpdateUser(env.ctx, supplier.ID, UserUpdateInput{Role: &quoter})
	assert.Equal(t, "CONFLICT", errorCode(err))

	_, err = env.groups.RemoveMember(env.ctx, domain.GroupKindSupplier, g.ID, supplier.ID)
	require.NoError(t, err)
	updated, err := users.UpdateUser(env.ctx, supplier.ID, UserUpdateInput{Role: &quoter})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleQuoter, updated.Role)

	bogus := domain.Role("owner")
	_, err = users.UpdateUser(env.ctx, supplier.ID, UserUpdateInput{Role: &bogus})
	assert.Equal(t, "VALIDATION_FAILED", errorCode(err))
}
