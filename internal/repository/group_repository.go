package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/quote-service/internal/domain"
)

// GroupFilter defines query params for group listing.
type GroupFilter struct {
	Kind            domain.GroupKind
	IncludeInactive bool
	Limit           int
	Offset          int
}

// GroupRepository manages persistence for supplier and customer groups.
type GroupRepository interface {
	Create(ctx context.Context, group *domain.Group) error
	Update(ctx context.Context, group *domain.Group) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Group, error)
	GetByName(ctx context.Context, kind domain.GroupKind, name string) (*domain.Group, error)
	List(ctx context.Context, filter GroupFilter) ([]domain.Group, error)
}

type groupRepository struct {
	pool *pgxpool.Pool
}

// NewGroupRepository constructs repository.
func NewGroupRepository(pool *pgxpool.Pool) GroupRepository {
	return &groupRepository{pool: pool}
}

const groupColumns = `id, kind, name, description, color, is_active, COALESCE(created_by::text, ''), created_at, updated_at`

func (r *groupRepository) Create(ctx context.Context, group *domain.Group) error {
	const query = `
        INSERT INTO groups (kind, name, description, color, is_active, created_by)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		group.Kind,
		group.Name,
		group.Description,
		group.Color,
		group.IsActive,
		group.CreatedBy,
	).Scan(&group.ID, &group.CreatedAt, &group.UpdatedAt)
}

func (r *groupRepository) Update(ctx context.Context, group *domain.Group) error {
	const query = `
        UPDATE groups SET name=$1, description=$2, color=$3, is_active=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		group.Name,
		group.Description,
		group.Color,
		group.IsActive,
		group.ID,
	).Scan(&group.UpdatedAt)
}

func (r *groupRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM groups WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *groupRepository) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM groups WHERE id=$1`
	return scanGroup(r.pool.QueryRow(ctx, query, id))
}

func (r *groupRepository) GetByName(ctx context.Context, kind domain.GroupKind, name string) (*domain.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM groups WHERE kind=$1 AND LOWER(name)=LOWER($2)`
	return scanGroup(r.pool.QueryRow(ctx, query, kind, name))
}

func (r *groupRepository) List(ctx context.Context, filter GroupFilter) ([]domain.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM groups WHERE kind=$1`
	if !filter.IncludeInactive {
		query += ` AND is_active=TRUE`
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(" ORDER BY name ASC LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, query, filter.Kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Group
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *group)
	}
	return result, rows.Err()
}

func scanGroup(row pgx.Row) (*domain.Group, error) {
	var group domain.Group
	if err := row.Scan(
		&group.ID,
		&group.Kind,
		&group.Name,
		&group.Description,
		&group.Color,
		&group.IsActive,
		&group.CreatedBy,
		&group.CreatedAt,
		&group.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &group, nil
}
