package models

import (
	"time"

	"github.com/google/uuid"
)

// Box is a schedulable physical resource belonging to a tenant.
type Box struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TenantID  uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Name      string    `json:"name" db:"name"`
	Location  string    `json:"location" db:"location"`
	Capacity  int       `json:"capacity" db:"capacity"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
