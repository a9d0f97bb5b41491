package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/quote-service/internal/domain"
)

// CustomerShare is one active customer group membership and the moment it
// began. Only quotes created at or after JoinedAt are shared through it.
type CustomerShare struct {
	GroupID  string
	JoinedAt time.Time
}

// QuoteFilter captures list parameters. CustomerID and SharedWith are OR-ed
// together, as are SupplierID and SupplierGroups, so a single query returns
// exactly what a customer or supplier may see and pagination stays exact.
type QuoteFilter struct {
	CustomerID           *string
	SharedWith           []CustomerShare
	SupplierID           *string
	SupplierGroups       []string
	QuoterID             *string
	Statuses             []domain.QuoteStatus
	SearchTerm           *string
	CreatedFrom          *time.Time
	CreatedTo            *time.Time
	Limit                int
	Offset               int
}

// QuoteRepository encapsulates quote persistence. Each quote is one row; the
// three file sequences are JSONB columns so every mutation is a single UPDATE.
type QuoteRepository interface {
	Create(ctx context.Context, quote *domain.Quote) error
	Update(ctx context.Context, quote *domain.Quote) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Quote, error)
	GetByNumber(ctx context.Context, number string) (*domain.Quote, error)
	ListWithFilter(ctx context.Context, filter QuoteFilter) ([]domain.Quote, error)
	RemoveCustomerGroupFromCustomerQuotes(ctx context.Context, customerID, groupID string) (int64, error)
}

type quoteRepository struct {
	pool *pgxpool.Pool
}

// NewQuoteRepository instantiates repository.
func NewQuoteRepository(pool *pgxpool.Pool) QuoteRepository {
	return &quoteRepository{pool: pool}
}

const quoteColumns = `id, number, title, description, status, customer_id, quoter_id, supplier_id,
               assigned_groups, customer_groups, customer_files, supplier_files, quoter_files,
               reject_reason, created_at, updated_at`

func (r *quoteRepository) Create(ctx context.Context, quote *domain.Quote) error {
	normalizeQuote(quote)
	const query = `
        INSERT INTO quotes (number, title, description, status, customer_id, quoter_id, supplier_id,
            assigned_groups, customer_groups, customer_files, supplier_files, quoter_files, reject_reason, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$14)
        RETURNING id, updated_at`
	return r.pool.QueryRow(ctx, query,
		quote.Number,
		quote.Title,
		quote.Description,
		quote.Status,
		quote.CustomerID,
		quote.QuoterID,
		quote.SupplierID,
		quote.AssignedGroups,
		quote.CustomerGroups,
		quote.CustomerFiles,
		quote.SupplierFiles,
		quote.QuoterFiles,
		quote.RejectReason,
		quote.CreatedAt,
	).Scan(&quote.ID, &quote.UpdatedAt)
}

func (r *quoteRepository) Update(ctx context.Context, quote *domain.Quote) error {
	normalizeQuote(quote)
	const query = `
        UPDATE quotes SET title=$1, description=$2, status=$3, quoter_id=$4, supplier_id=$5,
            assigned_groups=$6, customer_groups=$7, customer_files=$8, supplier_files=$9, quoter_files=$10,
            reject_reason=$11, updated_at=NOW()
        WHERE id=$12
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		quote.Title,
		quote.Description,
		quote.Status,
		quote.QuoterID,
		quote.SupplierID,
		quote.AssignedGroups,
		quote.CustomerGroups,
		quote.CustomerFiles,
		quote.SupplierFiles,
		quote.QuoterFiles,
		quote.RejectReason,
		quote.ID,
	).Scan(&quote.UpdatedAt)
}

func (r *quoteRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM quotes WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *quoteRepository) GetByID(ctx context.Context, id string) (*domain.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE id=$1`
	return scanQuote(r.pool.QueryRow(ctx, query, id))
}

func (r *quoteRepository) GetByNumber(ctx context.Context, number string) (*domain.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE number=$1`
	return scanQuote(r.pool.QueryRow(ctx, query, number))
}

func (r *quoteRepository) ListWithFilter(ctx context.Context, filter QuoteFilter) ([]domain.Quote, error) {
	base := `SELECT ` + quoteColumns + ` FROM quotes`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CustomerID != nil || len(filter.SharedWith) > 0 {
		var alternatives []string
		if filter.CustomerID != nil {
			args = append(args, *filter.CustomerID)
			alternatives = append(alternatives, fmt.Sprintf("customer_id=$%d", len(args)))
		}
		if len(filter.SharedWith) > 0 {
			groupIDs := make([]string, len(filter.SharedWith))
			joinedAt := make([]time.Time, len(filter.SharedWith))
			for i, share := range filter.SharedWith {
				groupIDs[i] = share.GroupID
				joinedAt[i] = share.JoinedAt
			}
			args = append(args, groupIDs, joinedAt)
			alternatives = append(alternatives, fmt.Sprintf(
				"EXISTS (SELECT 1 FROM unnest($%d::text[], $%d::timestamptz[]) AS s(group_id, joined_at) "+
					"WHERE s.group_id = ANY(customer_groups) AND s.joined_at <= created_at)",
				len(args)-1, len(args)))
		}
		clauses = append(clauses, "("+strings.Join(alternatives, " OR ")+")")
	}
	if filter.SupplierID != nil || len(filter.SupplierGroups) > 0 {
		var alternatives []string
		if filter.SupplierID != nil {
			args = append(args, *filter.SupplierID)
			alternatives = append(alternatives, fmt.Sprintf("supplier_id=$%d", len(args)))
		}
		if len(filter.SupplierGroups) > 0 {
			args = append(args, filter.SupplierGroups)
			alternatives = append(alternatives, fmt.Sprintf("assigned_groups && $%d::text[]", len(args)))
		}
		clauses = append(clauses, "("+strings.Join(alternatives, " OR ")+")")
	}
	if filter.QuoterID != nil {
		args = append(args, *filter.QuoterID)
		clauses = append(clauses, fmt.Sprintf("quoter_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s OR LOWER(number) LIKE %s)",
			placeholder, placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Quote
	for rows.Next() {
		quote, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *quote)
	}
	return result, rows.Err()
}

func (r *quoteRepository) RemoveCustomerGroupFromCustomerQuotes(ctx context.Context, customerID, groupID string) (int64, error) {
	const query = `
        UPDATE quotes SET customer_groups=array_remove(customer_groups, $1), updated_at=NOW()
        WHERE customer_id=$2 AND $1 = ANY(customer_groups)`
	cmd, err := r.pool.Exec(ctx, query, groupID, customerID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func scanQuote(row pgx.Row) (*domain.Quote, error) {
	var quote domain.Quote
	if err := row.Scan(
		&quote.ID,
		&quote.Number,
		&quote.Title,
		&quote.Description,
		&quote.Status,
		&quote.CustomerID,
		&quote.QuoterID,
		&quote.SupplierID,
		&quote.AssignedGroups,
		&quote.CustomerGroups,
		&quote.CustomerFiles,
		&quote.SupplierFiles,
		&quote.QuoterFiles,
		&quote.RejectReason,
		&quote.CreatedAt,
		&quote.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &quote, nil
}

// normalizeQuote replaces nil slices so pgx writes empty arrays instead of NULL.
func normalizeQuote(quote *domain.Quote) {
	if quote.AssignedGroups == nil {
		quote.AssignedGroups = []string{}
	}
	if quote.CustomerGroups == nil {
		quote.CustomerGroups = []string{}
	}
	if quote.CustomerFiles == nil {
		quote.CustomerFiles = []domain.QuoteFile{}
	}
	if quote.SupplierFiles == nil {
		quote.SupplierFiles = []domain.QuoteFile{}
	}
	if quote.QuoterFiles == nil {
		quote.QuoterFiles = []domain.QuoteFile{}
	}
}
