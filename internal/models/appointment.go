package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	AppointmentStatusScheduled = "scheduled"
	AppointmentStatusCompleted = "completed"
	AppointmentStatusCancelled = "cancelled"
)

// Appointment books a box and a staff member for a time window within
// a tenant.
type Appointment struct {
	ID          uuid.UUID `json:"id" db:"id"`
	TenantID    uuid.UUID `json:"tenant_id" db:"tenant_id"`
	BoxID       uuid.UUID `json:"box_id" db:"box_id"`
	StaffID     uuid.UUID `json:"staff_id" db:"staff_id"`
	PatientName string    `json:"patient_name" db:"patient_name"`
	StartsAt    time.Time `json:"starts_at" db:"starts_at"`
	EndsAt      time.Time `json:"ends_at" db:"ends_at"`
	Status      string    `json:"status" db:"status"`
	Notes       string    `json:"notes" db:"notes"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
