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

// QuoteRepository stores deep copies so callers never share slices with it.
type QuoteRepository struct {
	mu     sync.RWMutex
	quotes map[string]*domain.Quote
	now    func() time.Time
}

// NewQuoteRepository returns an empty store.
func NewQuoteRepository() *QuoteRepository {
	return &QuoteRepository{quotes: map[string]*domain.Quote{}, now: time.Now}
}

var _ repository.QuoteRepository = (*QuoteRepository)(nil)

func (r *QuoteRepository) Create(_ context.Context, quote *domain.Quote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.quotes {
		if existing.Number == quote.Number {
			return errDuplicate("quotes_number_key")
		}
	}
	if quote.ID == "" {
		quote.ID = uuid.NewString()
	}
	if quote.CreatedAt.IsZero() {
		quote.CreatedAt = r.now().UTC()
	}
	quote.UpdatedAt = quote.CreatedAt
	r.quotes[quote.ID] = quote.Clone()
	return nil
}

func (r *QuoteRepository) Update(_ context.Context, quote *domain.Quote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.quotes[quote.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored := quote.Clone()
	stored.Number = existing.Number
	stored.CustomerID = existing.CustomerID
	stored.CreatedAt = existing.CreatedAt
	stored.UpdatedAt = r.now().UTC()
	r.quotes[quote.ID] = stored
	quote.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *QuoteRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.quotes[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.quotes, id)
	return nil
}

func (r *QuoteRepository) GetByID(_ context.Context, id string) (*domain.Quote, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	quote, ok := r.quotes[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return quote.Clone(), nil
}

func (r *QuoteRepository) GetByNumber(_ context.Context, number string) (*domain.Quote, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, quote := range r.quotes {
		if quote.Number == number {
			return quote.Clone(), nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *QuoteRepository) ListWithFilter(_ context.Context, filter repository.QuoteFilter) ([]domain.Quote, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Quote
	for _, quote := range r.quotes {
		if matchesQuote(quote, filter) {
			result = append(result, *quote.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return paginate(result, filter.Limit, filter.Offset, 20), nil
}

func (r *QuoteRepository) RemoveCustomerGroupFromCustomerQuotes(_ context.Context, customerID, groupID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var affected int64
	for _, quote := range r.quotes {
		if quote.CustomerID != customerID {
			continue
		}
		if quote.RemoveCustomerGroup(groupID) {
			quote.UpdatedAt = r.now().UTC()
			affected++
		}
	}
	return affected, nil
}

func matchesQuote(quote *domain.Quote, filter repository.QuoteFilter) bool {
	if filter.CustomerID != nil || len(filter.SharedWith) > 0 {
		owned := filter.CustomerID != nil && quote.CustomerID == *filter.CustomerID
		if !owned && !sharedWith(quote, filter.SharedWith) {
			return false
		}
	}
	if filter.SupplierID != nil || len(filter.SupplierGroups) > 0 {
		direct := filter.SupplierID != nil && quote.SupplierID != nil && *quote.SupplierID == *filter.SupplierID
		if !direct && !overlaps(quote.AssignedGroups, filter.SupplierGroups) {
			return false
		}
	}
	if filter.QuoterID != nil && (quote.QuoterID == nil || *quote.QuoterID != *filter.QuoterID) {
		return false
	}
	if len(filter.Statuses) > 0 {
		found := false
		for _, status := range filter.Statuses {
			if quote.Status == status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.CreatedFrom != nil && quote.CreatedAt.Before(*filter.CreatedFrom) {
		return false
	}
	if filter.CreatedTo != nil && quote.CreatedAt.After(*filter.CreatedTo) {
		return false
	}
	if filter.SearchTerm != nil {
		term := strings.ToLower(strings.TrimSpace(*filter.SearchTerm))
		if term != "" &&
			!strings.Contains(strings.ToLower(quote.Title), term) &&
			!strings.Contains(strings.ToLower(quote.Description), term) &&
			!strings.Contains(strings.ToLower(quote.Number), term) {
			return false
		}
	}
	return true
}

func overlaps(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

func sharedWith(quote *domain.Quote, shares []repository.CustomerShare) bool {
	for _, share := range shares {
		if share.JoinedAt.After(quote.CreatedAt) {
			continue
		}
		for _, groupID := range quote.CustomerGroups {
			if groupID == share.GroupID {
				return true
			}
		}
	}
	return false
}
