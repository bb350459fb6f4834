package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TenantStatusActive    = "active"
	TenantStatusSuspended = "suspended"
	TenantStatusDeleted   = "deleted"
)

// TenantSettings holds per-tenant branding, stored as JSONB.
type TenantSettings struct {
	LogoURL        string `json:"logo_url,omitempty"`
	PrimaryColor   string `json:"primary_color,omitempty"`
	SecondaryColor string `json:"secondary_color,omitempty"`
}

type Tenant struct {
	ID           uuid.UUID      `json:"id" db:"id"`
	Name         string         `json:"name" db:"name"`
	Slug         string         `json:"slug" db:"slug"`
	Description  string         `json:"description" db:"description"`
	ContactEmail string         `json:"contact_email" db:"contact_email"`
	ContactPhone string         `json:"contact_phone" db:"contact_phone"`
	MaxUsers     int            `json:"max_users" db:"max_users"`
	Status       string         `json:"status" db:"status"`
	UserCount    int            `json:"user_count" db:"user_count"`
	Settings     TenantSettings `json:"settings" db:"settings"`
	CreatedBy    uuid.UUID      `json:"created_by" db:"created_by"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
	DeletedAt    *time.Time     `json:"deleted_at,omitempty" db:"deleted_at"`
}

func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

// TenantSummary is the public projection used for unauthenticated
// discovery. No contact or capacity fields are exposed.
type TenantSummary struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Slug    string    `json:"slug"`
	LogoURL string    `json:"logo_url,omitempty"`
}

func (t *Tenant) Summary() *TenantSummary {
	return &TenantSummary{
		ID:      t.ID,
		Name:    t.Name,
		Slug:    t.Slug,
		LogoURL: t.Settings.LogoURL,
	}
}
