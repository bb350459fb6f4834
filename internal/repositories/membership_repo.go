package repositories

import (
	"context"
	"errors"

	"boxtenant/internal/common"
	"boxtenant/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type MembershipRepository interface {
	Create(ctx context.Context, membership *models.Membership) error
	Delete(ctx context.Context, userID, tenantID uuid.UUID) error
	Get(ctx context.Context, userID, tenantID uuid.UUID) (*models.Membership, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.UserTenancy, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID, roleFilter *string, limit, offset int) ([]*models.Membership, error)
	CountByTenant(ctx context.Context, tenantID uuid.UUID) (int, error)
}

type membershipRepo struct {
	db Database
}

func NewMembershipRepo(db Database) MembershipRepository {
	return &membershipRepo{db: db}
}

// Create is conditional on the (user_id, tenant_id) pair being absent;
// a duplicate is reported as a Conflict rather than silently absorbed.
func (r *membershipRepo) Create(ctx context.Context, membership *models.Membership) error {
	query := `
		INSERT INTO memberships (user_id, tenant_id, role, email, name, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (user_id, tenant_id) DO NOTHING
	`
	tag, err := r.db.Exec(ctx, query,
		membership.UserID, membership.TenantID, membership.Role,
		membership.Email, membership.Name, membership.Status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.NewConflict("membership already exists for this user and tenant")
	}
	return nil
}

func (r *membershipRepo) Delete(ctx context.Context, userID, tenantID uuid.UUID) error {
	query := `DELETE FROM memberships WHERE user_id = $1 AND tenant_id = $2`
	tag, err := r.db.Exec(ctx, query, userID, tenantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFound("membership")
	}
	return nil
}

func (r *membershipRepo) Get(ctx context.Context, userID, tenantID uuid.UUID) (*models.Membership, error) {
	membership := &models.Membership{}
	query := `
		SELECT user_id, tenant_id, role, email, name, status, created_at, updated_at
		FROM memberships
		WHERE user_id = $1 AND tenant_id = $2
	`
	err := r.db.QueryRow(ctx, query, userID, tenantID).Scan(
		&membership.UserID, &membership.TenantID, &membership.Role,
		&membership.Email, &membership.Name, &membership.Status,
		&membership.CreatedAt, &membership.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.NewNotFound("membership")
	}
	if err != nil {
		return nil, err
	}
	return membership, nil
}

// ListByUser joins tenants so callers see the tenant status alongside
// each membership. Memberships under suspended or deleted tenants stay
// listed; the switch operation is what rejects them.
func (r *membershipRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.UserTenancy, error) {
	query := `
		SELECT m.tenant_id, t.name, t.slug, t.status, m.role, m.status, m.created_at
		FROM memberships m
		JOIN tenants t ON m.tenant_id = t.id
		WHERE m.user_id = $1
		ORDER BY m.created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenancies []*models.UserTenancy
	for rows.Next() {
		tenancy := &models.UserTenancy{}
		if err := rows.Scan(&tenancy.TenantID, &tenancy.TenantName, &tenancy.TenantSlug,
			&tenancy.TenantStatus, &tenancy.Role, &tenancy.Status, &tenancy.CreatedAt); err != nil {
			return nil, err
		}
		tenancies = append(tenancies, tenancy)
	}
	return tenancies, rows.Err()
}

func (r *membershipRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID, roleFilter *string, limit, offset int) ([]*models.Membership, error) {
	query := `
		SELECT user_id, tenant_id, role, email, name, status, created_at, updated_at
		FROM memberships
		WHERE tenant_id = $1 AND ($2::text IS NULL OR role = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, tenantID, roleFilter, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memberships []*models.Membership
	for rows.Next() {
		membership := &models.Membership{}
		if err := rows.Scan(&membership.UserID, &membership.TenantID, &membership.Role,
			&membership.Email, &membership.Name, &membership.Status,
			&membership.CreatedAt, &membership.UpdatedAt); err != nil {
			return nil, err
		}
		memberships = append(memberships, membership)
	}
	return memberships, rows.Err()
}

// CountByTenant is the authoritative membership count used by the
// user_count reconciliation job.
func (r *membershipRepo) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM memberships WHERE tenant_id = $1`
	err := r.db.QueryRow(ctx, query, tenantID).Scan(&count)
	return count, err
}
