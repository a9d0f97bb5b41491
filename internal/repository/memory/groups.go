package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/quote-service/internal/domain"
	"github.com/spec-kit/quote-service/internal/repository"
)

// GroupRepository stores groups of both kinds.
type GroupRepository struct {
	mu     sync.RWMutex
	groups map[string]domain.Group
	now    func() time.Time
}

// NewGroupRepository returns an empty store.
func NewGroupRepository() *GroupRepository {
	return &GroupRepository{groups: map[string]domain.Group{}, now: time.Now}
}

var _ repository.GroupRepository = (*GroupRepository)(nil)

func (r *GroupRepository) Create(_ context.Context, group *domain.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.nameTaken(group.Kind, group.Name, "") {
		return errDuplicate("groups_kind_name_key")
	}
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	now := r.now().UTC()
	group.CreatedAt = now
	group.UpdatedAt = now
	stored := *group
	stored.Members = nil
	r.groups[group.ID] = stored
	return nil
}

func (r *GroupRepository) Update(_ context.Context, group *domain.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.groups[group.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if r.nameTaken(existing.Kind, group.Name, group.ID) {
		return errDuplicate("groups_kind_name_key")
	}
	existing.Name = group.Name
	existing.Description = group.Description
	existing.Color = group.Color
	existing.IsActive = group.IsActive
	existing.UpdatedAt = r.now().UTC()
	r.groups[group.ID] = existing
	group.UpdatedAt = existing.UpdatedAt
	return nil
}

func (r *GroupRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.groups[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.groups, id)
	return nil
}

func (r *GroupRepository) GetByID(_ context.Context, id string) (*domain.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	group, ok := r.groups[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &group, nil
}

func (r *GroupRepository) GetByName(_ context.Context, kind domain.GroupKind, name string) (*domain.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, group := range r.groups {
		if group.Kind == kind && strings.EqualFold(group.Name, name) {
			found := group
			return &found, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *GroupRepository) List(_ context.Context, filter repository.GroupFilter) ([]domain.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Group
	for _, group := range r.groups {
		if group.Kind != filter.Kind {
			continue
		}
		if !filter.IncludeInactive && !group.IsActive {
			continue
		}
		result = append(result, group)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return paginate(result, filter.Limit, filter.Offset, 100), nil
}

func (r *GroupRepository) nameTaken(kind domain.GroupKind, name, exceptID string) bool {
	for id, group := range r.groups {
		if id != exceptID && group.Kind == kind && strings.EqualFold(group.Name, name) {
			return true
		}
	}
	return false
}
