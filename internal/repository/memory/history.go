package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/quote-service/internal/domain"
	"github.com/spec-kit/quote-service/internal/repository"
)

// QuoteHistoryRepository appends audit entries in order.
type QuoteHistoryRepository struct {
	mu      sync.RWMutex
	entries []domain.QuoteHistory
	now     func() time.Time
}

// NewQuoteHistoryRepository returns an empty store.
func NewQuoteHistoryRepository() *QuoteHistoryRepository {
	return &QuoteHistoryRepository{now: time.Now}
}

var _ repository.QuoteHistoryRepository = (*QuoteHistoryRepository)(nil)

func (r *QuoteHistoryRepository) Create(_ context.Context, history *domain.QuoteHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	history.ID = uuid.NewString()
	history.CreatedAt = r.now().UTC()
	r.entries = append(r.entries, *history)
	return nil
}

func (r *QuoteHistoryRepository) ListByQuote(_ context.Context, quoteID string, limit, offset int) ([]domain.QuoteHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.QuoteHistory
	for _, entry := range r.entries {
		if entry.QuoteID == quoteID {
			result = append(result, entry)
		}
	}
	return paginate(result, limit, offset, 100), nil
}
