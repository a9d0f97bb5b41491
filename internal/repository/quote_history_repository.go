package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/quote-service/internal/domain"
)

// QuoteHistoryRepository stores audit entries.
type QuoteHistoryRepository interface {
	Create(ctx context.Context, history *domain.QuoteHistory) error
	ListByQuote(ctx context.Context, quoteID string, limit, offset int) ([]domain.QuoteHistory, error)
}

type quoteHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewQuoteHistoryRepository builds repository.
func NewQuoteHistoryRepository(pool *pgxpool.Pool) QuoteHistoryRepository {
	return &quoteHistoryRepository{pool: pool}
}

func (r *quoteHistoryRepository) Create(ctx context.Context, history *domain.QuoteHistory) error {
	const query = `
        INSERT INTO quote_history (quote_id, changed_by_role, changed_by_id, change_type, old_value, new_value)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		history.QuoteID,
		history.ChangedBy,
		history.ChangedByID,
		history.ChangeType,
		history.OldValue,
		history.NewValue,
	).Scan(&history.ID, &history.CreatedAt)
}

func (r *quoteHistoryRepository) ListByQuote(ctx context.Context, quoteID string, limit, offset int) ([]domain.QuoteHistory, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, quote_id, changed_by_role, changed_by_id, change_type, old_value, new_value, created_at
        FROM quote_history WHERE quote_id=$1 ORDER BY created_at ASC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, quoteID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.QuoteHistory
	for rows.Next() {
		var history domain.QuoteHistory
		if err := rows.Scan(
			&history.ID,
			&history.QuoteID,
			&history.ChangedBy,
			&history.ChangedByID,
			&history.ChangeType,
			&history.OldValue,
			&history.NewValue,
			&history.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, history)
	}
	return result, rows.Err()
}
