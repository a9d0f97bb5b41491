package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/quote-service/internal/domain"
	"github.com/spec-kit/quote-service/internal/repository"
)

type supplierMember struct {
	groupID string
	userID  string
}

// MembershipRepository keeps customer intervals in insertion order and the
// supplier membership as an ordered list of pairs.
type MembershipRepository struct {
	mu        sync.RWMutex
	intervals []domain.MembershipInterval
	suppliers []supplierMember
}

// NewMembershipRepository returns an empty store.
func NewMembershipRepository() *MembershipRepository {
	return &MembershipRepository{}
}

var _ repository.MembershipRepository = (*MembershipRepository)(nil)

func (r *MembershipRepository) OpenCustomerInterval(_ context.Context, userID, groupID string, at time.Time) (*domain.MembershipInterval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.intervals {
		if m.UserID == userID && m.GroupID == groupID && m.Active() {
			return nil, errDuplicate("customer_group_memberships_active_idx")
		}
	}
	interval := domain.MembershipInterval{
		ID:       uuid.NewString(),
		UserID:   userID,
		GroupID:  groupID,
		JoinedAt: at,
		IsActive: true,
	}
	r.intervals = append(r.intervals, interval)
	return &interval, nil
}

func (r *MembershipRepository) CloseCustomerInterval(_ context.Context, userID, groupID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	closed := false
	for i := range r.intervals {
		m := &r.intervals[i]
		if m.UserID == userID && m.GroupID == groupID && m.Active() {
			left := at
			m.IsActive = false
			m.LeftAt = &left
			closed = true
		}
	}
	if !closed {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *MembershipRepository) ListCustomerIntervals(_ context.Context, userID string) ([]domain.MembershipInterval, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.MembershipInterval
	for _, m := range r.intervals {
		if m.UserID == userID {
			result = append(result, m)
		}
	}
	return result, nil
}

func (r *MembershipRepository) ListActiveCustomerMembers(_ context.Context, groupID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []string
	for _, m := range r.intervals {
		if m.GroupID == groupID && m.Active() {
			ids = append(ids, m.UserID)
		}
	}
	return ids, nil
}

func (r *MembershipRepository) AddSupplierMember(_ context.Context, groupID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.suppliers {
		if m.groupID == groupID && m.userID == userID {
			return nil
		}
	}
	r.suppliers = append(r.suppliers, supplierMember{groupID: groupID, userID: userID})
	return nil
}

func (r *MembershipRepository) RemoveSupplierMember(_ context.Context, groupID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.suppliers {
		if m.groupID == groupID && m.userID == userID {
			r.suppliers = append(r.suppliers[:i], r.suppliers[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *MembershipRepository) ListSupplierGroupIDs(_ context.Context, userID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []string
	for _, m := range r.suppliers {
		if m.userID == userID {
			ids = append(ids, m.groupID)
		}
	}
	return ids, nil
}

func (r *MembershipRepository) ListSupplierMembers(_ context.Context, groupID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []string
	for _, m := range r.suppliers {
		if m.groupID == groupID {
			ids = append(ids, m.userID)
		}
	}
	return ids, nil
}
