package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/quote-service/internal/domain"
)

// MembershipRepository stores supplier group membership and the customer
// group join/leave history.
type MembershipRepository interface {
	OpenCustomerInterval(ctx context.Context, userID, groupID string, at time.Time) (*domain.MembershipInterval, error)
	CloseCustomerInterval(ctx context.Context, userID, groupID string, at time.Time) error
	ListCustomerIntervals(ctx context.Context, userID string) ([]domain.MembershipInterval, error)
	ListActiveCustomerMembers(ctx context.Context, groupID string) ([]string, error)

	AddSupplierMember(ctx context.Context, groupID, userID string) error
	RemoveSupplierMember(ctx context.Context, groupID, userID string) error
	ListSupplierGroupIDs(ctx context.Context, userID string) ([]string, error)
	ListSupplierMembers(ctx context.Context, groupID string) ([]string, error)
}

type membershipRepository struct {
	pool *pgxpool.Pool
}

// NewMembershipRepository constructs repository.
func NewMembershipRepository(pool *pgxpool.Pool) MembershipRepository {
	return &membershipRepository{pool: pool}
}

func (r *membershipRepository) OpenCustomerInterval(ctx context.Context, userID, groupID string, at time.Time) (*domain.MembershipInterval, error) {
	const query = `
        INSERT INTO customer_group_memberships (user_id, group_id, joined_at, is_active)
        VALUES ($1,$2,$3,TRUE)
        RETURNING id`
	interval := &domain.MembershipInterval{UserID: userID, GroupID: groupID, JoinedAt: at, IsActive: true}
	if err := r.pool.QueryRow(ctx, query, userID, groupID, at).Scan(&interval.ID); err != nil {
		return nil, err
	}
	return interval, nil
}

func (r *membershipRepository) CloseCustomerInterval(ctx context.Context, userID, groupID string, at time.Time) error {
	const query = `
        UPDATE customer_group_memberships SET is_active=FALSE, left_at=$1
        WHERE user_id=$2 AND group_id=$3 AND is_active=TRUE`
	cmd, err := r.pool.Exec(ctx, query, at, userID, groupID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *membershipRepository) ListCustomerIntervals(ctx context.Context, userID string) ([]domain.MembershipInterval, error) {
	const query = `
        SELECT id, user_id, group_id, joined_at, left_at, is_active
        FROM customer_group_memberships WHERE user_id=$1 ORDER BY joined_at ASC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.MembershipInterval
	for rows.Next() {
		var m domain.MembershipInterval
		if err := rows.Scan(&m.ID, &m.UserID, &m.GroupID, &m.JoinedAt, &m.LeftAt, &m.IsActive); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func (r *membershipRepository) ListActiveCustomerMembers(ctx context.Context, groupID string) ([]string, error) {
	const query = `
        SELECT user_id FROM customer_group_memberships
        WHERE group_id=$1 AND is_active=TRUE ORDER BY joined_at ASC`
	return r.listIDs(ctx, query, groupID)
}

func (r *membershipRepository) AddSupplierMember(ctx context.Context, groupID, userID string) error {
	const query = `
        INSERT INTO supplier_group_members (group_id, user_id)
        VALUES ($1,$2) ON CONFLICT DO NOTHING`
	_, err := r.pool.Exec(ctx, query, groupID, userID)
	return err
}

func (r *membershipRepository) RemoveSupplierMember(ctx context.Context, groupID, userID string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM supplier_group_members WHERE group_id=$1 AND user_id=$2`, groupID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *membershipRepository) ListSupplierGroupIDs(ctx context.Context, userID string) ([]string, error) {
	const query = `SELECT group_id FROM supplier_group_members WHERE user_id=$1 ORDER BY joined_at ASC`
	return r.listIDs(ctx, query, userID)
}

func (r *membershipRepository) ListSupplierMembers(ctx context.Context, groupID string) ([]string, error) {
	const query = `SELECT user_id FROM supplier_group_members WHERE group_id=$1 ORDER BY joined_at ASC`
	return r.listIDs(ctx, query, groupID)
}

func (r *membershipRepository) listIDs(ctx context.Context, query string, arg any) ([]string, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
