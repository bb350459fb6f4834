package repositories

import (
	"context"
	"errors"

	"boxtenant/internal/common"
	"boxtenant/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type TenantRepository interface {
	Create(ctx context.Context, tenant *models.Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*models.Tenant, error)
	ListPublic(ctx context.Context) ([]*models.TenantSummary, error)
	List(ctx context.Context, limit, offset int) ([]*models.Tenant, error)
	Update(ctx context.Context, tenant *models.Tenant) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	AdjustUserCount(ctx context.Context, id uuid.UUID, delta int) error
	SetUserCount(ctx context.Context, id uuid.UUID, count int) error
}

type tenantRepo struct {
	db Database
}

func NewTenantRepo(db Database) TenantRepository {
	return &tenantRepo{db: db}
}

const tenantColumns = `id, name, slug, description, contact_email, contact_phone, max_users, status, user_count, settings, created_by, created_at, updated_at, deleted_at`

// Create inserts the tenant only when no non-deleted tenant owns the
// slug. Concurrent submissions race on this conditional write; the
// loser sees zero rows affected and gets a Conflict.
func (r *tenantRepo) Create(ctx context.Context, tenant *models.Tenant) error {
	query := `
		INSERT INTO tenants (id, name, slug, description, contact_email, contact_phone, max_users, status, user_count, settings, created_by, created_at, updated_at)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, 0, $9, $10, NOW(), NOW()
		WHERE NOT EXISTS (SELECT 1 FROM tenants WHERE slug = $3 AND status <> 'deleted')
	`
	tag, err := r.db.Exec(ctx, query,
		tenant.ID, tenant.Name, tenant.Slug, tenant.Description,
		tenant.ContactEmail, tenant.ContactPhone, tenant.MaxUsers,
		tenant.Status, tenant.Settings, tenant.CreatedBy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.NewConflict("a tenant with this slug already exists")
	}
	return nil
}

func (r *tenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

func (r *tenantRepo) GetBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE slug = $1 AND status <> 'deleted'`
	return r.scanOne(r.db.QueryRow(ctx, query, slug))
}

func (r *tenantRepo) ListPublic(ctx context.Context) ([]*models.TenantSummary, error) {
	query := `
		SELECT id, name, slug, settings->>'logo_url'
		FROM tenants
		WHERE status = 'active'
		ORDER BY name
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []*models.TenantSummary
	for rows.Next() {
		summary := &models.TenantSummary{}
		var logoURL *string
		if err := rows.Scan(&summary.ID, &summary.Name, &summary.Slug, &logoURL); err != nil {
			return nil, err
		}
		if logoURL != nil {
			summary.LogoURL = *logoURL
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

func (r *tenantRepo) List(ctx context.Context, limit, offset int) ([]*models.Tenant, error) {
	query := `
		SELECT ` + tenantColumns + `
		FROM tenants
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []*models.Tenant
	for rows.Next() {
		tenant, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, tenant)
	}
	return tenants, rows.Err()
}

// Update writes every mutable column; the slug is deliberately not
// part of the statement. Partial-field merging happens in the service.
func (r *tenantRepo) Update(ctx context.Context, tenant *models.Tenant) error {
	query := `
		UPDATE tenants
		SET name = $1, description = $2, contact_email = $3, contact_phone = $4, max_users = $5, status = $6, settings = $7, updated_at = NOW()
		WHERE id = $8 AND status <> 'deleted'
	`
	tag, err := r.db.Exec(ctx, query,
		tenant.Name, tenant.Description, tenant.ContactEmail, tenant.ContactPhone,
		tenant.MaxUsers, tenant.Status, tenant.Settings, tenant.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFound("tenant")
	}
	return nil
}

func (r *tenantRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE tenants
		SET status = 'deleted', deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status <> 'deleted'
	`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFound("tenant")
	}
	return nil
}

// AdjustUserCount applies delta atomically; GREATEST keeps a racing
// decrement from driving the counter negative. The counter is a
// denormalized aid and is reconciled from the membership table by a
// background job.
func (r *tenantRepo) AdjustUserCount(ctx context.Context, id uuid.UUID, delta int) error {
	query := `
		UPDATE tenants
		SET user_count = GREATEST(user_count + $2, 0), updated_at = NOW()
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, id, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFound("tenant")
	}
	return nil
}

func (r *tenantRepo) SetUserCount(ctx context.Context, id uuid.UUID, count int) error {
	query := `UPDATE tenants SET user_count = $2 WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id, count)
	return err
}

func (r *tenantRepo) scanOne(row pgx.Row) (*models.Tenant, error) {
	tenant := &models.Tenant{}
	err := row.Scan(&tenant.ID, &tenant.Name, &tenant.Slug, &tenant.Description,
		&tenant.ContactEmail, &tenant.ContactPhone, &tenant.MaxUsers, &tenant.Status,
		&tenant.UserCount, &tenant.Settings, &tenant.CreatedBy,
		&tenant.CreatedAt, &tenant.UpdatedAt, &tenant.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.NewNotFound("tenant")
	}
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

func (r *tenantRepo) scanRow(rows pgx.Rows) (*models.Tenant, error) {
	tenant := &models.Tenant{}
	err := rows.Scan(&tenant.ID, &tenant.Name, &tenant.Slug, &tenant.Description,
		&tenant.ContactEmail, &tenant.ContactPhone, &tenant.MaxUsers, &tenant.Status,
		&tenant.UserCount, &tenant.Settings, &tenant.CreatedBy,
		&tenant.CreatedAt, &tenant.UpdatedAt, &tenant.DeletedAt)
	if err != nil {
		return nil, err
	}
	return tenant, nil
}
