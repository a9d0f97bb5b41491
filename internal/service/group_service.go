package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/quote-service/internal/domain"
	"github.com/spec-kit/quote-service/internal/repository"
	apperrors "github.com/spec-kit/quote-service/pkg/util/errorutil"
)

// GroupService manages supplier and customer groups and their members.
type GroupService struct {
	groups      repository.GroupRepository
	memberships repository.MembershipRepository
	users       repository.UserRepository
	quotes      repository.QuoteRepository
	logger      *zap.Logger
	now         func() time.Time
}

// GroupDependencies bundles repositories.
type GroupDependencies struct {
	GroupRepo      repository.GroupRepository
	MembershipRepo repository.MembershipRepository
	UserRepo       repository.UserRepository
	QuoteRepo      repository.QuoteRepository
	Logger         *zap.Logger
}

// GroupInput describes group creation payload.
type GroupInput struct {
	Name        string
	Description string
	Color       string
}

// GroupUpdateInput carries optional changes. IsActive=false deactivates the
// group, which keeps members but stops new assignments.
type GroupUpdateInput struct {
	Name        *string
	Description *string
	Color       *string
	IsActive    *bool
}

// NewGroupService constructs the service.
func NewGroupService(deps GroupDependencies) *GroupService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GroupService{
		groups:      deps.GroupRepo,
		memberships: deps.MembershipRepo,
		users:       deps.UserRepo,
		quotes:      deps.QuoteRepo,
		logger:      logger,
		now:         time.Now,
	}
}

// CreateGroup adds a group of kind.
func (s *GroupService) CreateGroup(ctx context.Context, actor *domain.User, kind domain.GroupKind, input GroupInput) (*domain.Group, error) {
	if !kind.Valid() {
		return nil, apperrors.NewValidationError("unknown group kind", map[string]any{"kind": kind})
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", map[string]any{"field": "name"})
	}
	if err := s.ensureNameFree(ctx, kind, name, ""); err != nil {
		return nil, err
	}

	group := &domain.Group{
		Kind:        kind,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Color:       strings.TrimSpace(input.Color),
		IsActive:    true,
		CreatedBy:   actor.ID,
	}
	if err := s.groups.Create(ctx, group); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("group name already exists", map[string]any{"name": name})
		}
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("group created", zap.String("group_id", group.ID), zap.String("kind", string(kind)))
	return group, nil
}

// ListGroups lists groups of kind ordered by name.
func (s *GroupService) ListGroups(ctx context.Context, kind domain.GroupKind, includeInactive bool, limit, offset int) ([]domain.Group, error) {
	groups, err := s.groups.List(ctx, repository.GroupFilter{
		Kind:            kind,
		IncludeInactive: includeInactive,
		Limit:           limit,
		Offset:          offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return groups, nil
}

// GetGroup returns the group with its current members.
func (s *GroupService) GetGroup(ctx context.Context, kind domain.GroupKind, groupID string) (*domain.Group, error) {
	group, err := s.load(ctx, kind, groupID)
	if err != nil {
		return nil, err
	}
	members, err := s.memberIDs(ctx, group)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	group.Members = members
	return group, nil
}

// UpdateGroup applies the given changes.
func (s *GroupService) UpdateGroup(ctx context.Context, kind domain.GroupKind, groupID string, input GroupUpdateInput) (*domain.Group, error) {
	group, err := s.load(ctx, kind, groupID)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.NewValidationError("name is required", map[string]any{"field": "name"})
		}
		if err := s.ensureNameFree(ctx, kind, name, group.ID); err != nil {
			return nil, err
		}
		group.Name = name
	}
	if input.Description != nil {
		group.Description = strings.TrimSpace(*input.Description)
	}
	if input.Color != nil {
		group.Color = strings.TrimSpace(*input.Color)
	}
	if input.IsActive != nil {
		group.IsActive = *input.IsActive
	}
	if err := s.groups.Update(ctx, group); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("group name already exists", map[string]any{"name": group.Name})
		}
		return nil, apperrors.MapError(err)
	}
	return group, nil
}

// DeleteGroup removes an empty group.
func (s *GroupService) DeleteGroup(ctx context.Context, kind domain.GroupKind, groupID string) error {
	group, err := s.load(ctx, kind, groupID)
	if err != nil {
		return err
	}
	members, err := s.memberIDs(ctx, group)
	if err != nil {
		return apperrors.MapError(err)
	}
	if len(members) > 0 {
		return apperrors.NewConflict("group still has members", map[string]any{"group_id": groupID, "members": len(members)})
	}
	if err := s.groups.Delete(ctx, group.ID); err != nil {
		return apperrors.MapError(err)
	}
	s.logger.Info("group deleted", zap.String("group_id", group.ID))
	return nil
}

// AddMember puts a user of the matching role into the group. For customer
// groups a new membership interval is opened, so a rejoin never revives
// access to quotes created while the customer was away.
func (s *GroupService) AddMember(ctx context.Context, kind domain.GroupKind, groupID, userID string) (*domain.Group, error) {
	group, err := s.load(ctx, kind, groupID)
	if err != nil {
		return nil, err
	}
	if !group.IsActive {
		return nil, apperrors.NewConflict("group inactive", map[string]any{"group_id": groupID})
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, apperrors.MapError(err)
	}
	if user.Role != kind.MemberRole() {
		return nil, apperrors.NewValidationError("user role does not match group kind",
			map[string]any{"role": user.Role, "kind": kind})
	}

	switch kind {
	case domain.GroupKindCustomer:
		if _, err := s.memberships.OpenCustomerInterval(ctx, user.ID, group.ID, s.now().UTC()); err != nil {
			if apperrors.IsUniqueViolation(err) {
				return nil, apperrors.NewConflict("already a member", map[string]any{"user_id": userID})
			}
			return nil, apperrors.MapError(err)
		}
	case domain.GroupKindSupplier:
		if err := s.memberships.AddSupplierMember(ctx, group.ID, user.ID); err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	return s.GetGroup(ctx, kind, group.ID)
}

// RemoveMember takes a user out of the group. A departing customer's own
// quotes stop being shared with the group they left.
func (s *GroupService) RemoveMember(ctx context.Context, kind domain.GroupKind, groupID, userID string) (*domain.Group, error) {
	group, err := s.load(ctx, kind, groupID)
	if err != nil {
		return nil, err
	}

	switch kind {
	case domain.GroupKindCustomer:
		if err := s.memberships.CloseCustomerInterval(ctx, userID, group.ID, s.now().UTC()); err != nil {
			if apperrors.IsNotFound(err) {
				return nil, apperrors.NewNotFound("membership", map[string]any{"user_id": userID, "group_id": groupID})
			}
			return nil, apperrors.MapError(err)
		}
		untagged, err := s.quotes.RemoveCustomerGroupFromCustomerQuotes(ctx, userID, group.ID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		s.logger.Info("customer left group",
			zap.String("group_id", group.ID),
			zap.String("user_id", userID),
			zap.Int64("quotes_unshared", untagged))
	case domain.GroupKindSupplier:
		if err := s.memberships.RemoveSupplierMember(ctx, group.ID, userID); err != nil {
			if apperrors.IsNotFound(err) {
				return nil, apperrors.NewNotFound("membership", map[string]any{"user_id": userID, "group_id": groupID})
			}
			return nil, apperrors.MapError(err)
		}
	}
	return s.GetGroup(ctx, kind, group.ID)
}

// ListMembers returns the users currently in the group.
func (s *GroupService) ListMembers(ctx context.Context, kind domain.GroupKind, groupID string) ([]domain.User, error) {
	group, err := s.GetGroup(ctx, kind, groupID)
	if err != nil {
		return nil, err
	}
	if len(group.Members) == 0 {
		return []domain.User{}, nil
	}
	users, err := s.users.List(ctx, repository.UserFilter{IDs: group.Members, Limit: len(group.Members)})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

func (s *GroupService) load(ctx context.Context, kind domain.GroupKind, groupID string) (*domain.Group, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("group", map[string]any{"group_id": groupID})
		}
		return nil, apperrors.MapError(err)
	}
	if group.Kind != kind {
		return nil, apperrors.NewNotFound("group", map[string]any{"group_id": groupID})
	}
	return group, nil
}

func (s *GroupService) memberIDs(ctx context.Context, group *domain.Group) ([]string, error) {
	if group.Kind == domain.GroupKindCustomer {
		return s.memberships.ListActiveCustomerMembers(ctx, group.ID)
	}
	return s.memberships.ListSupplierMembers(ctx, group.ID)
}

func (s *GroupService) ensureNameFree(ctx context.Context, kind domain.GroupKind, name, exceptID string) error {
	existing, err := s.groups.GetByName(ctx, kind, name)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil
		}
		return apperrors.MapError(err)
	}
	if existing.ID != exceptID {
		return apperrors.NewConflict("group name already exists", map[string]any{"name": name})
	}
	return nil
}
