package domain

import "time"

// Token is the metadata carried by an access token. ID is the jti used for
// revocation.
type Token struct {
	ID        string
	UserID    string
	Role      Role
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// Remaining returns how long the token stays valid after now, or zero once
// it has expired.
func (t Token) Remaining(now time.Time) time.Duration {
	if t.ExpiresAt.IsZero() || !now.Before(t.ExpiresAt) {
		return 0
	}
	return t.ExpiresAt.Sub(now)
}
