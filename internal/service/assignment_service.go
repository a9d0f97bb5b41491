package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/quote-service/internal/access"
	"github.com/spec-kit/quote-service/internal/domain"
	"github.com/spec-kit/quote-service/internal/events"
	"github.com/spec-kit/quote-service/internal/repository"
	"github.com/spec-kit/quote-service/internal/storage"
	apperrors "github.com/spec-kit/quote-service/pkg/util/errorutil"
)

// AssignmentService routes quotes to quoters, suppliers and supplier groups.
type AssignmentService struct {
	quoteCore
	users  repository.UserRepository
	groups repository.GroupRepository
}

// AssignmentDependencies bundles repositories.
type AssignmentDependencies struct {
	QuoteRepo   repository.QuoteRepository
	UserRepo    repository.UserRepository
	GroupRepo   repository.GroupRepository
	HistoryRepo repository.QuoteHistoryRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	return &AssignmentService{
		quoteCore: newQuoteCore(deps.QuoteRepo, deps.HistoryRepo, nil, storage.UploadPolicy{}, deps.Dispatcher, deps.Logger),
		users:     deps.UserRepo,
		groups:    deps.GroupRepo,
	}
}

// ClaimQuote makes the calling quoter responsible for the quote.
func (s *AssignmentService) ClaimQuote(ctx context.Context, actor *domain.User, quoteID string) (*domain.Quote, error) {
	if actor.Role != domain.RoleQuoter {
		return nil, errAccessDenied()
	}
	return s.setQuoter(ctx, actor, quoteID, actor.ID)
}

// AssignQuoter hands the quote to another quoter. Admin only.
func (s *AssignmentService) AssignQuoter(ctx context.Context, actor *domain.User, quoteID, quoterID string) (*domain.Quote, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, errAccessDenied()
	}
	quoter, err := s.activeUser(ctx, quoterID, "quoter")
	if err != nil {
		return nil, err
	}
	if !quoter.Role.IsStaff() {
		return nil, apperrors.NewValidationError("user is not a quoter", map[string]any{"user_id": quoterID})
	}
	return s.setQuoter(ctx, actor, quoteID, quoter.ID)
}

func (s *AssignmentService) setQuoter(ctx context.Context, actor *domain.User, quoteID, quoterID string) (*domain.Quote, error) {
	quote, err := s.load(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if !access.CanRoute(quote, actor) {
		return nil, errAccessDenied()
	}
	if quote.QuoterID != nil && *quote.QuoterID == quoterID {
		return quote, nil
	}
	old := quote.QuoterID
	quote.QuoterID = strPtr(quoterID)
	if err := s.save(ctx, quote); err != nil {
		return nil, err
	}
	s.record(ctx, actor, quote.ID, domain.ChangeTypeQuoter,
		map[string]any{"quoter_id": derefString(old)},
		map[string]any{"quoter_id": quoterID})
	s.publish(ctx, actor, events.EventQuoteQuoterAssigned, quote, events.QuoteQuoterAssignedPayload{
		OldQuoterID: old,
		NewQuoterID: quoterID,
	})
	return quote, nil
}

// AssignSupplier sets or clears the individually assigned supplier. Assigning
// a supplier to a pending quote starts work on it.
func (s *AssignmentService) AssignSupplier(ctx context.Context, actor *domain.User, quoteID string, supplierID *string) (*domain.Quote, error) {
	quote, err := s.load(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if !access.CanRoute(quote, actor) {
		return nil, errAccessDenied()
	}
	if supplierID != nil {
		supplier, err := s.activeUser(ctx, *supplierID, "supplier")
		if err != nil {
			return nil, err
		}
		if supplier.Role != domain.RoleSupplier {
			return nil, apperrors.NewValidationError("user is not a supplier", map[string]any{"user_id": *supplierID})
		}
	}
	if equalPtr(quote.SupplierID, supplierID) {
		return quote, nil
	}

	old := quote.SupplierID
	oldStatus := quote.Status
	quote.SupplierID = supplierID
	quote.MarkAssigned()
	if err := s.save(ctx, quote); err != nil {
		return nil, err
	}
	s.record(ctx, actor, quote.ID, domain.ChangeTypeSupplier,
		map[string]any{"supplier_id": derefString(old)},
		map[string]any{"supplier_id": derefString(supplierID)})
	s.statusChanged(ctx, actor, quote, oldStatus)
	if supplierID != nil {
		s.publish(ctx, actor, events.EventQuoteAssigned, quote, events.QuoteAssignedPayload{SupplierID: supplierID})
	}
	return quote, nil
}

// SetGroups replaces the set of supplier groups. The status is never reset
// by a bulk change, even when the new set is empty.
func (s *AssignmentService) SetGroups(ctx context.Context, actor *domain.User, quoteID string, groupIDs []string) (*domain.Quote, error) {
	quote, err := s.load(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if !access.CanRoute(quote, actor) {
		return nil, errAccessDenied()
	}
	previous := append([]string(nil), quote.AssignedGroups...)
	for _, id := range groupIDs {
		if quote.HasAssignedGroup(id) {
			continue
		}
		if err := s.requireAssignableGroup(ctx, id); err != nil {
			return nil, err
		}
	}

	oldStatus := quote.Status
	quote.SetAssignedGroups(groupIDs)
	if err := s.save(ctx, quote); err != nil {
		return nil, err
	}
	s.record(ctx, actor, quote.ID, domain.ChangeTypeGroups,
		map[string]any{"assigned_groups": previous},
		map[string]any{"assigned_groups": quote.AssignedGroups})
	s.statusChanged(ctx, actor, quote, oldStatus)
	if added := difference(quote.AssignedGroups, previous); len(added) > 0 {
		s.publish(ctx, actor, events.EventQuoteAssigned, quote, events.QuoteAssignedPayload{AddedGroups: added})
	}
	return quote, nil
}

// RemoveGroup drops one supplier group; removing the last one sends the
// quote back to pending.
func (s *AssignmentService) RemoveGroup(ctx context.Context, actor *domain.User, quoteID, groupID string) (*domain.Quote, error) {
	quote, err := s.load(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if !access.CanRoute(quote, actor) {
		return nil, errAccessDenied()
	}
	previous := append([]string(nil), quote.AssignedGroups...)
	oldStatus := quote.Status
	if !quote.RemoveAssignedGroup(groupID) {
		return nil, apperrors.NewNotFound("assigned group", map[string]any{"group_id": groupID})
	}
	if err := s.save(ctx, quote); err != nil {
		return nil, err
	}
	s.record(ctx, actor, quote.ID, domain.ChangeTypeGroups,
		map[string]any{"assigned_groups": previous},
		map[string]any{"assigned_groups": quote.AssignedGroups})
	s.statusChanged(ctx, actor, quote, oldStatus)
	return quote, nil
}

func (s *AssignmentService) requireAssignableGroup(ctx context.Context, groupID string) error {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewNotFound("group", map[string]any{"group_id": groupID})
		}
		return apperrors.MapError(err)
	}
	if group.Kind != domain.GroupKindSupplier {
		return apperrors.NewValidationError("not a supplier group", map[string]any{"group_id": groupID})
	}
	if !group.IsActive {
		return apperrors.NewConflict("group inactive", map[string]any{"group_id": groupID})
	}
	return nil
}

func (s *AssignmentService) activeUser(ctx context.Context, userID, resource string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound(resource, map[string]any{"user_id": userID})
		}
		return nil, apperrors.MapError(err)
	}
	if !user.Active {
		return nil, apperrors.NewConflict(resource+" inactive", map[string]any{"user_id": userID})
	}
	return user, nil
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// difference returns the ids in a that are not in b.
func difference(a, b []string) []string {
	seen := make(map[string]struct{}, len(b))
	for _, id := range b {
		seen[id] = struct{}{}
	}
	var out []string
	for _, id := range a {
		if _, ok := seen[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
