package domain

import "time"

// MembershipInterval is one continuous period of a customer's membership in a
// customer group. Rejoining a group opens a new interval.
type MembershipInterval struct {
	ID       string
	UserID   string
	GroupID  string
	JoinedAt time.Time
	LeftAt   *time.Time
	IsActive bool
}

// Active reports whether the interval is still open.
func (m MembershipInterval) Active() bool {
	return m.IsActive && m.LeftAt == nil
}

// CoversCreation reports whether the interval was open when something was
// created at t and still is. Intervals that began after t never cover it.
func (m MembershipInterval) CoversCreation(t time.Time) bool {
	return m.Active() && !m.JoinedAt.After(t)
}
