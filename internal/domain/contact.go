package domain

import "time"

// Contact is a phone-number-addressable entity scoped to a tenant.
// Number is stored digits-only and is unique per (company, number).
type Contact struct {
	ID                string
	CompanyID         string
	Number            string
	Name              string
	IsGroup           bool
	LastInteractionAt *time.Time
	MessagesReceived  int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// MemberStatus enumerates CRM member lifecycle states.
type MemberStatus string

const (
	MemberStatusInactive MemberStatus = "INACTIVE"
	MemberStatusActive   MemberStatus = "ACTIVE"
)

// Member is the provisional CRM record auto-created alongside a new non-group
// contact. The messaging core only ever creates it with status INACTIVE; the
// CRM domain owns it from there.
type Member struct {
	ID        string
	CompanyID string
	ContactID string
	Status    MemberStatus
	CreatedAt time.Time
}
