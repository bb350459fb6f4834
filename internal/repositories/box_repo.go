package repositories

import (
	"context"
	"errors"

	"boxtenant/internal/common"
	"boxtenant/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type BoxRepository interface {
	Create(ctx context.Context, box *models.Box) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Box, error)
	Update(ctx context.Context, box *models.Box) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Box, error)
}

type boxRepo struct {
	db Database
}

func NewBoxRepo(db Database) BoxRepository {
	return &boxRepo{db: db}
}

func (r *boxRepo) Create(ctx context.Context, box *models.Box) error {
	query := `
		INSERT INTO boxes (id, tenant_id, name, location, capacity, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, box.ID, box.TenantID, box.Name, box.Location, box.Capacity, box.Active)
	return err
}

func (r *boxRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Box, error) {
	box := &models.Box{}
	query := `
		SELECT id, tenant_id, name, location, capacity, active, created_at, updated_at
		FROM boxes
		WHERE tenant_id = $1 AND id = $2
	`
	err := r.db.QueryRow(ctx, query, tenantID, id).Scan(&box.ID, &box.TenantID, &box.Name,
		&box.Location, &box.Capacity, &box.Active, &box.CreatedAt, &box.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.NewNotFound("box")
	}
	if err != nil {
		return nil, err
	}
	return box, nil
}

func (r *boxRepo) Update(ctx context.Context, box *models.Box) error {
	query := `
		UPDATE boxes
		SET name = $1, location = $2, capacity = $3, active = $4, updated_at = NOW()
		WHERE tenant_id = $5 AND id = $6
	`
	tag, err := r.db.Exec(ctx, query, box.Name, box.Location, box.Capacity, box.Active, box.TenantID, box.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFound("box")
	}
	return nil
}

func (r *boxRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `DELETE FROM boxes WHERE tenant_id = $1 AND id = $2`
	tag, err := r.db.Exec(ctx, query, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFound("box")
	}
	return nil
}

func (r *boxRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Box, error) {
	query := `
		SELECT id, tenant_id, name, location, capacity, active, created_at, updated_at
		FROM boxes
		WHERE tenant_id = $1
		ORDER BY name
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var boxes []*models.Box
	for rows.Next() {
		box := &models.Box{}
		if err := rows.Scan(&box.ID, &box.TenantID, &box.Name, &box.Location,
			&box.Capacity, &box.Active, &box.CreatedAt, &box.UpdatedAt); err != nil {
			return nil, err
		}
		boxes = append(boxes, box)
	}
	return boxes, rows.Err()
}
