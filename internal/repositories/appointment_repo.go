package repositories

import (
	"context"
	"errors"
	"time"

	"boxtenant/internal/common"
	"boxtenant/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type AppointmentRepository interface {
	Create(ctx context.Context, appointment *models.Appointment) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Appointment, error)
	Update(ctx context.Context, appointment *models.Appointment) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	ListByRange(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*models.Appointment, error)
}

type appointmentRepo struct {
	db Database
}

func NewAppointmentRepo(db Database) AppointmentRepository {
	return &appointmentRepo{db: db}
}

const appointmentColumns = `id, tenant_id, box_id, staff_id, patient_name, starts_at, ends_at, status, notes, created_at, updated_at`

func (r *appointmentRepo) Create(ctx context.Context, appointment *models.Appointment) error {
	query := `
		INSERT INTO appointments (id, tenant_id, box_id, staff_id, patient_name, starts_at, ends_at, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, appointment.ID, appointment.TenantID, appointment.BoxID,
		appointment.StaffID, appointment.PatientName, appointment.StartsAt, appointment.EndsAt,
		appointment.Status, appointment.Notes)
	return err
}

func (r *appointmentRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Appointment, error) {
	appointment := &models.Appointment{}
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE tenant_id = $1 AND id = $2`
	err := r.db.QueryRow(ctx, query, tenantID, id).Scan(
		&appointment.ID, &appointment.TenantID, &appointment.BoxID, &appointment.StaffID,
		&appointment.PatientName, &appointment.StartsAt, &appointment.EndsAt,
		&appointment.Status, &appointment.Notes, &appointment.CreatedAt, &appointment.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.NewNotFound("appointment")
	}
	if err != nil {
		return nil, err
	}
	return appointment, nil
}

func (r *appointmentRepo) Update(ctx context.Context, appointment *models.Appointment) error {
	query := `
		UPDATE appointments
		SET box_id = $1, staff_id = $2, patient_name = $3, starts_at = $4, ends_at = $5, status = $6, notes = $7, updated_at = NOW()
		WHERE tenant_id = $8 AND id = $9
	`
	tag, err := r.db.Exec(ctx, query, appointment.BoxID, appointment.StaffID,
		appointment.PatientName, appointment.StartsAt, appointment.EndsAt,
		appointment.Status, appointment.Notes, appointment.TenantID, appointment.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFound("appointment")
	}
	return nil
}

func (r *appointmentRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `DELETE FROM appointments WHERE tenant_id = $1 AND id = $2`
	tag, err := r.db.Exec(ctx, query, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFound("appointment")
	}
	return nil
}

func (r *appointmentRepo) ListByRange(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*models.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE tenant_id = $1 AND starts_at >= $2 AND starts_at < $3
		ORDER BY starts_at
	`
	rows, err := r.db.Query(ctx, query, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appointments []*models.Appointment
	for rows.Next() {
		appointment := &models.Appointment{}
		if err := rows.Scan(&appointment.ID, &appointment.TenantID, &appointment.BoxID,
			&appointment.StaffID, &appointment.PatientName, &appointment.StartsAt,
			&appointment.EndsAt, &appointment.Status, &appointment.Notes,
			&appointment.CreatedAt, &appointment.UpdatedAt); err != nil {
			return nil, err
		}
		appointments = append(appointments, appointment)
	}
	return appointments, rows.Err()
}
