package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/quote-service/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	user := &domain.User{ID: "u1", Role: domain.RoleQuoter}

	signed, meta, err := tm.GenerateToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, meta.ID)

	parsed, err := tm.ParseToken(signed)
	require.NoError(t, err)
	assert.Equal(t, meta.ID, parsed.ID)
	assert.Equal(t, "u1", parsed.UserID)
	assert.Equal(t, domain.RoleQuoter, parsed.Role)
}

func TestTokenRejectsWrongSecretAndExpiry(t *testing.T) {
	tm := NewTokenManager("secret", time.Minute)
	signed, _, err := tm.GenerateToken(&domain.User{ID: "u1", Role: domain.RoleCustomer})
	require.NoError(t, err)

	_, err = NewTokenManager("other", time.Minute).ParseToken(signed)
	assert.Error(t, err)

	tm.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = tm.ParseToken(signed)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22", 4)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "hunter22"))
	assert.Error(t, ComparePassword(hash, "wrong"))
}
