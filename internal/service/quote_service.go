package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/quote-service/internal/access"
	"github.com/spec-kit/quote-service/internal/domain"
	"github.com/spec-kit/quote-service/internal/events"
	"github.com/spec-kit/quote-service/internal/repository"
	"github.com/spec-kit/quote-service/internal/storage"
	apperrors "github.com/spec-kit/quote-service/pkg/util/errorutil"
)

// QuoteService coordinates quote creation, reads and lifecycle transitions.
type QuoteService struct {
	quoteCore
}

// QuoteDependencies bundles collaborators for quote workflows.
type QuoteDependencies struct {
	QuoteRepo    repository.QuoteRepository
	HistoryRepo  repository.QuoteHistoryRepository
	FileStore    storage.Store
	UploadPolicy storage.UploadPolicy
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// QuoteCreateInput describes quote creation payload. A nil CustomerGroups
// shares the quote with every group the customer currently belongs to.
type QuoteCreateInput struct {
	Title          string
	Description    string
	CustomerGroups []string
	Files          []FileUpload
}

// QuoteUpdateInput carries optional field changes.
type QuoteUpdateInput struct {
	Title          *string
	Description    *string
	CustomerGroups *[]string
}

// QuoteListFilter describes listing filters available to every role.
type QuoteListFilter struct {
	Statuses    []domain.QuoteStatus
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	OnlyMine    bool
	Limit       int
	Offset      int
}

// NewQuoteService constructs the service.
func NewQuoteService(deps QuoteDependencies) *QuoteService {
	return &QuoteService{
		quoteCore: newQuoteCore(deps.QuoteRepo, deps.HistoryRepo, deps.FileStore, deps.UploadPolicy, deps.Dispatcher, deps.Logger),
	}
}

const maxNumberAttempts = 3

// CreateQuote stores a new pending quote for a customer.
func (s *QuoteService) CreateQuote(ctx context.Context, customer *domain.User, input QuoteCreateInput) (*domain.Quote, error) {
	if customer == nil || customer.Role != domain.RoleCustomer {
		return nil, errAccessDenied()
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", map[string]any{"field": "title"})
	}
	groups, err := customerGroupsFor(customer, input.CustomerGroups)
	if err != nil {
		return nil, err
	}

	files, err := s.storeUploads(ctx, customer, input.Files)
	if err != nil {
		return nil, err
	}

	quote := &domain.Quote{
		Title:          title,
		Description:    strings.TrimSpace(input.Description),
		Status:         domain.QuoteStatusPending,
		CustomerID:     customer.ID,
		CustomerGroups: groups,
		CustomerFiles:  files,
		CreatedAt:      s.now().UTC(),
	}
	for attempt := 1; ; attempt++ {
		quote.Number = generateQuoteNumber()
		err = s.quotes.Create(ctx, quote)
		if err == nil || !apperrors.IsUniqueViolation(err) || attempt == maxNumberAttempts {
			break
		}
	}
	if err != nil {
		s.discardFiles(ctx, files)
		return nil, apperrors.MapError(err)
	}

	s.record(ctx, customer, quote.ID, domain.ChangeTypeStatus, nil, map[string]any{"status": quote.Status})
	if len(files) > 0 {
		s.record(ctx, customer, quote.ID, domain.ChangeTypeFileAdded, nil, fileChange(domain.FileKindCustomer, files))
	}
	s.publish(ctx, customer, events.EventQuoteCreated, quote, events.QuoteCreatedPayload{
		Number:     quote.Number,
		Title:      quote.Title,
		CustomerID: quote.CustomerID,
	})
	s.logger.Info("quote created", zap.String("quote_id", quote.ID), zap.String("number", quote.Number))
	return access.Filter(quote, customer), nil
}

// ListQuotes returns the quotes user may see, filtered for the user's role.
func (s *QuoteService) ListQuotes(ctx context.Context, user *domain.User, filter QuoteListFilter) ([]domain.Quote, error) {
	repoFilter := repository.QuoteFilter{
		Statuses:    filter.Statuses,
		SearchTerm:  filter.SearchTerm,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}
	switch user.Role {
	case domain.RoleCustomer:
		repoFilter.CustomerID = strPtr(user.ID)
		if !filter.OnlyMine {
			repoFilter.SharedWith = customerShares(user)
		}
	case domain.RoleSupplier:
		repoFilter.SupplierID = strPtr(user.ID)
		repoFilter.SupplierGroups = user.SupplierGroups
	case domain.RoleQuoter, domain.RoleAdmin:
		if filter.OnlyMine {
			repoFilter.QuoterID = strPtr(user.ID)
		}
	default:
		return nil, errAccessDenied()
	}

	quotes, err := s.quotes.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	// the query already applies the join-time cutoff; CanView rechecks it
	visible := make([]domain.Quote, 0, len(quotes))
	for i := range quotes {
		if access.CanView(&quotes[i], user) {
			visible = append(visible, *access.Filter(&quotes[i], user))
		}
	}
	return visible, nil
}

// GetQuote fetches a quote the user may view.
func (s *QuoteService) GetQuote(ctx context.Context, user *domain.User, quoteID string) (*domain.Quote, error) {
	quote, err := s.loadVisible(ctx, user, quoteID)
	if err != nil {
		return nil, err
	}
	return access.Filter(quote, user), nil
}

// UpdateQuote changes title, description or, for the owner, customer group sharing.
func (s *QuoteService) UpdateQuote(ctx context.Context, user *domain.User, quoteID string, input QuoteUpdateInput) (*domain.Quote, error) {
	quote, err := s.loadVisible(ctx, user, quoteID)
	if err != nil {
		return nil, err
	}
	if !access.CanEdit(quote, user) {
		return nil, errAccessDenied()
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.NewValidationError("title is required", map[string]any{"field": "title"})
		}
		quote.Title = title
	}
	if input.Description != nil {
		quote.Description = strings.TrimSpace(*input.Description)
	}
	if input.CustomerGroups != nil {
		if !access.IsOwner(quote, user) {
			return nil, apperrors.NewForbidden("only the owner may change sharing")
		}
		groups, err := customerGroupsFor(user, *input.CustomerGroups)
		if err != nil {
			return nil, err
		}
		quote.CustomerGroups = groups
	}

	if err := s.save(ctx, quote); err != nil {
		return nil, err
	}
	return access.Filter(quote, user), nil
}

// DeleteQuote removes the quote and then its stored files.
func (s *QuoteService) DeleteQuote(ctx context.Context, user *domain.User, quoteID string) error {
	quote, err := s.loadVisible(ctx, user, quoteID)
	if err != nil {
		return err
	}
	if !access.CanDelete(quote, user) {
		return errAccessDenied()
	}
	if err := s.quotes.Delete(ctx, quote.ID); err != nil {
		return apperrors.MapError(err)
	}
	for _, kind := range []domain.FileKind{domain.FileKindCustomer, domain.FileKindSupplier, domain.FileKindQuoter} {
		s.discardFiles(ctx, quote.Files(kind))
	}
	s.logger.Info("quote deleted", zap.String("quote_id", quote.ID), zap.String("by", user.ID))
	return nil
}

// CancelQuote withdraws the request.
func (s *QuoteService) CancelQuote(ctx context.Context, user *domain.User, quoteID string) (*domain.Quote, error) {
	return s.transition(ctx, user, quoteID, access.CanCancel, func(q *domain.Quote) error {
		return q.Cancel()
	})
}

// ConfirmSupplierQuote marks the supplier's uploaded quote as final.
func (s *QuoteService) ConfirmSupplierQuote(ctx context.Context, user *domain.User, quoteID string) (*domain.Quote, error) {
	return s.transition(ctx, user, quoteID, access.CanSupplierConfirm, func(q *domain.Quote) error {
		return q.ConfirmSupplierQuote()
	})
}

// RejectQuote rejects the quote with a mandatory reason.
func (s *QuoteService) RejectQuote(ctx context.Context, user *domain.User, quoteID, reason string) (*domain.Quote, error) {
	return s.transition(ctx, user, quoteID, access.CanReject, func(q *domain.Quote) error {
		return q.Reject(reason)
	})
}

// ConfirmFinalQuote releases the quoter's final quote to the customer.
func (s *QuoteService) ConfirmFinalQuote(ctx context.Context, user *domain.User, quoteID string) (*domain.Quote, error) {
	return s.transition(ctx, user, quoteID, access.CanFinalize, func(q *domain.Quote) error {
		return q.ConfirmFinalQuote()
	})
}

func (s *QuoteService) transition(ctx context.Context, user *domain.User, quoteID string,
	allowed func(*domain.Quote, *domain.User) bool, apply func(*domain.Quote) error) (*domain.Quote, error) {
	quote, err := s.loadVisible(ctx, user, quoteID)
	if err != nil {
		return nil, err
	}
	if !allowed(quote, user) {
		return nil, errAccessDenied()
	}
	oldStatus := quote.Status
	if err := apply(quote); err != nil {
		return nil, mapQuoteError(err)
	}
	if err := s.save(ctx, quote); err != nil {
		return nil, err
	}
	s.statusChanged(ctx, user, quote, oldStatus)
	return access.Filter(quote, user), nil
}

// ListHistory returns the audit trail of a quote to staff.
func (s *QuoteService) ListHistory(ctx context.Context, user *domain.User, quoteID string, limit, offset int) ([]domain.QuoteHistory, error) {
	if !user.Role.IsStaff() {
		return nil, errAccessDenied()
	}
	if _, err := s.load(ctx, quoteID); err != nil {
		return nil, err
	}
	if s.history == nil {
		return []domain.QuoteHistory{}, nil
	}
	entries, err := s.history.ListByQuote(ctx, quoteID, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// customerShares lists the customer's active intervals for the list query.
func customerShares(customer *domain.User) []repository.CustomerShare {
	var shares []repository.CustomerShare
	for _, m := range customer.CustomerGroupMembership {
		if m.Active() {
			shares = append(shares, repository.CustomerShare{GroupID: m.GroupID, JoinedAt: m.JoinedAt})
		}
	}
	return shares
}

// customerGroupsFor resolves the groups a customer shares a quote with. Only
// groups the customer currently belongs to are accepted.
func customerGroupsFor(customer *domain.User, requested []string) ([]string, error) {
	active := customer.CustomerGroups()
	if requested == nil {
		return active, nil
	}
	allowed := make(map[string]struct{}, len(active))
	for _, id := range active {
		allowed[id] = struct{}{}
	}
	out := make([]string, 0, len(requested))
	seen := map[string]struct{}{}
	for _, id := range requested {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := allowed[id]; !ok {
			return nil, apperrors.NewValidationError("not a member of customer group", map[string]any{"group_id": id})
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

func fileChange(kind domain.FileKind, files []domain.QuoteFile) map[string]any {
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.OriginalName)
	}
	return map[string]any{"kind": kind, "files": names}
}
