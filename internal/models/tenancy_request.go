package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TenancyRequestStatusPending  = "pending"
	TenancyRequestStatusApproved = "approved"
	TenancyRequestStatusRejected = "rejected"
)

// TenancyRequest is an application to provision a new tenant, reviewed
// by a super admin. Requests are never deleted; approved and rejected
// are terminal states and form the audit trail of provisioning.
type TenancyRequest struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	HospitalName    string     `json:"hospital_name" db:"hospital_name"`
	Slug            string     `json:"slug" db:"slug"`
	Description     string     `json:"description" db:"description"`
	ContactEmail    string     `json:"contact_email" db:"contact_email"`
	ContactPhone    string     `json:"contact_phone" db:"contact_phone"`
	Reason          string     `json:"reason" db:"reason"`
	RequestedBy     uuid.UUID  `json:"requested_by" db:"requested_by"`
	RequesterEmail  string     `json:"requester_email" db:"requester_email"`
	RequesterName   string     `json:"requester_name" db:"requester_name"`
	MaxUsers        int        `json:"max_users" db:"max_users"`
	Status          string     `json:"status" db:"status"`
	RejectionReason *string    `json:"rejection_reason,omitempty" db:"rejection_reason"`
	ReviewedBy      *uuid.UUID `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty" db:"reviewed_at"`
	TenantID        *uuid.UUID `json:"tenant_id,omitempty" db:"tenant_id"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

func (r *TenancyRequest) IsPending() bool {
	return r.Status == TenancyRequestStatusPending
}
