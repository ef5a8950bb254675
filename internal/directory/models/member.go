package models

import (
	"strings"
	"time"

	"bazaar/pkg/domain"
	dErrors "bazaar/pkg/domain-errors"
)

// Member is the aggregate root for a community member.
//
// Invariants:
//   - Email is non-empty and unique (case-insensitive, enforced by the store)
//   - Exactly one of PasswordHash / ExternalIdentity is set: a member either
//     carries a local credential or authenticates through an external
//     identity provider, never both, never neither
//   - FirstName and LastName are non-empty (the display name stamps listings
//     and orders)
//
// Display names are denormalized onto items and orders at write time. A later
// rename does NOT retroactively update those snapshots; that is intended
// behavior, not drift to repair.
type Member struct {
	ID               domain.MemberID `json:"id"`
	FirstName        string          `json:"first_name"`
	LastName         string          `json:"last_name"`
	Email            string          `json:"email"`
	Age              int             `json:"age,omitempty"`
	ContactNumber    string          `json:"contact_number,omitempty"`
	PasswordHash     string          `json:"-"`
	ExternalIdentity bool            `json:"external_identity,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// NewMember constructs a member, validating invariants.
func NewMember(id domain.MemberID, firstName, lastName, email string, age int, contactNumber, passwordHash string, externalIdentity bool, now time.Time) (*Member, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	email = strings.TrimSpace(email)

	if firstName == "" || lastName == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "member name is required")
	}
	if email == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "member email is required")
	}
	hasCredential := passwordHash != ""
	if hasCredential == externalIdentity {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "member must have exactly one of password credential or external identity")
	}

	return &Member{
		ID:               id,
		FirstName:        firstName,
		LastName:         lastName,
		Email:            email,
		Age:              age,
		ContactNumber:    contactNumber,
		PasswordHash:     passwordHash,
		ExternalIdentity: externalIdentity,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// DisplayName is the snapshot value stamped onto listings and orders.
func (m *Member) DisplayName() string {
	return m.FirstName + " " + m.LastName
}

// RegisterRequest is the payload for member registration.
type RegisterRequest struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	Age           int    `json:"age"`
	ContactNumber string `json:"contact_number"`
	Password      string `json:"password"`
}

func (r *RegisterRequest) Normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = strings.TrimSpace(r.Email)
	r.ContactNumber = strings.TrimSpace(r.ContactNumber)
}

// LoginRequest is the payload for credential login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest carries the mutable profile fields. Nil means "leave
// unchanged".
type UpdateProfileRequest struct {
	FirstName     *string `json:"first_name"`
	LastName      *string `json:"last_name"`
	Email         *string `json:"email"`
	Age           *int    `json:"age"`
	ContactNumber *string `json:"contact_number"`
	Password      *string `json:"password"`
}
