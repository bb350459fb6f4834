package repositories

import (
	"context"
	"errors"

	"boxtenant/internal/common"
	"boxtenant/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type TenancyRequestRepository interface {
	Create(ctx context.Context, request *models.TenancyRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.TenancyRequest, error)
	List(ctx context.Context, statusFilter *string, limit, offset int) ([]*models.TenancyRequest, error)
	ListByRequester(ctx context.Context, userID uuid.UUID) ([]*models.TenancyRequest, error)
	MarkRejected(ctx context.Context, id, reviewedBy uuid.UUID, reason string) error
	MarkApproved(ctx context.Context, id, reviewedBy, tenantID uuid.UUID) error
}

type tenancyRequestRepo struct {
	db Database
}

func NewTenancyRequestRepo(db Database) TenancyRequestRepository {
	return &tenancyRequestRepo{db: db}
}

const tenancyRequestColumns = `id, hospital_name, slug, description, contact_email, contact_phone, reason, requested_by, requester_email, requester_name, max_users, status, rejection_reason, reviewed_by, reviewed_at, tenant_id, created_at, updated_at`

// Create enforces at-most-one-pending-request-per-slug through a
// conditional insert. Two simultaneous submissions race on it; the
// loser gets a Conflict.
func (r *tenancyRequestRepo) Create(ctx context.Context, request *models.TenancyRequest) error {
	query := `
		INSERT INTO tenancy_requests (id, hospital_name, slug, description, contact_email, contact_phone, reason, requested_by, requester_email, requester_name, max_users, status, created_at, updated_at)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 'pending', NOW(), NOW()
		WHERE NOT EXISTS (SELECT 1 FROM tenancy_requests WHERE slug = $3 AND status = 'pending')
	`
	tag, err := r.db.Exec(ctx, query,
		request.ID, request.HospitalName, request.Slug, request.Description,
		request.ContactEmail, request.ContactPhone, request.Reason,
		request.RequestedBy, request.RequesterEmail, request.RequesterName,
		request.MaxUsers)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.NewConflict("a pending request for this slug already exists")
	}
	return nil
}

func (r *tenancyRequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.TenancyRequest, error) {
	query := `SELECT ` + tenancyRequestColumns + ` FROM tenancy_requests WHERE id = $1`
	request := &models.TenancyRequest{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&request.ID, &request.HospitalName, &request.Slug, &request.Description,
		&request.ContactEmail, &request.ContactPhone, &request.Reason,
		&request.RequestedBy, &request.RequesterEmail, &request.RequesterName,
		&request.MaxUsers, &request.Status, &request.RejectionReason,
		&request.ReviewedBy, &request.ReviewedAt, &request.TenantID,
		&request.CreatedAt, &request.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.NewNotFound("tenancy request")
	}
	if err != nil {
		return nil, err
	}
	return request, nil
}

func (r *tenancyRequestRepo) List(ctx context.Context, statusFilter *string, limit, offset int) ([]*models.TenancyRequest, error) {
	query := `
		SELECT ` + tenancyRequestColumns + `
		FROM tenancy_requests
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, statusFilter, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *tenancyRequestRepo) ListByRequester(ctx context.Context, userID uuid.UUID) ([]*models.TenancyRequest, error) {
	query := `
		SELECT ` + tenancyRequestColumns + `
		FROM tenancy_requests
		WHERE requested_by = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

// MarkRejected transitions pending -> rejected. The status predicate
// makes the transition single-shot: a request already reviewed leaves
// zero rows and reports InvalidState.
func (r *tenancyRequestRepo) MarkRejected(ctx context.Context, id, reviewedBy uuid.UUID, reason string) error {
	query := `
		UPDATE tenancy_requests
		SET status = 'rejected', rejection_reason = $3, reviewed_by = $2, reviewed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`
	tag, err := r.db.Exec(ctx, query, id, reviewedBy, reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.NewInvalidState("tenancy request is not pending")
	}
	return nil
}

// MarkApproved transitions pending -> approved and records the tenant
// created for it. Same single-shot semantics as MarkRejected.
func (r *tenancyRequestRepo) MarkApproved(ctx context.Context, id, reviewedBy, tenantID uuid.UUID) error {
	query := `
		UPDATE tenancy_requests
		SET status = 'approved', tenant_id = $3, reviewed_by = $2, reviewed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`
	tag, err := r.db.Exec(ctx, query, id, reviewedBy, tenantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.NewInvalidState("tenancy request is not pending")
	}
	return nil
}

func (r *tenancyRequestRepo) scanAll(rows pgx.Rows) ([]*models.TenancyRequest, error) {
	var requests []*models.TenancyRequest
	for rows.Next() {
		request := &models.TenancyRequest{}
		if err := rows.Scan(
			&request.ID, &request.HospitalName, &request.Slug, &request.Description,
			&request.ContactEmail, &request.ContactPhone, &request.Reason,
			&request.RequestedBy, &request.RequesterEmail, &request.RequesterName,
			&request.MaxUsers, &request.Status, &request.RejectionReason,
			&request.ReviewedBy, &request.ReviewedAt, &request.TenantID,
			&request.CreatedAt, &request.UpdatedAt); err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}
	return requests, rows.Err()
}
