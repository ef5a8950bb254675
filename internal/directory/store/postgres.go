package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"bazaar/internal/directory/models"
	"bazaar/pkg/domain"
	"bazaar/pkg/platform/sentinel"
)

// Postgres persists members. Email uniqueness is enforced by a unique index
// on lower(email) so the database, not the application, is the arbiter under
// concurrent registration.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Schema documents the expected table; migrations live with the deployment.
//
//	CREATE TABLE members (
//	    id UUID PRIMARY KEY,
//	    first_name TEXT NOT NULL,
//	    last_name TEXT NOT NULL,
//	    email TEXT NOT NULL,
//	    age INT NOT NULL DEFAULT 0,
//	    contact_number TEXT NOT NULL DEFAULT '',
//	    password_hash TEXT NOT NULL DEFAULT '',
//	    external_identity BOOLEAN NOT NULL DEFAULT FALSE,
//	    created_at TIMESTAMPTZ NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE UNIQUE INDEX members_email_key ON members (lower(email));

func (s *Postgres) CreateIfEmailAvailable(ctx context.Context, member *models.Member) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO members (id, first_name, last_name, email, age, contact_number, password_hash, external_identity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		member.ID.String(), member.FirstName, member.LastName, member.Email,
		member.Age, member.ContactNumber, member.PasswordHash, member.ExternalIdentity,
		member.CreatedAt, member.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create member: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.MemberID) (*models.Member, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, email, age, contact_number, password_hash, external_identity, created_at, updated_at
		FROM members WHERE id = $1`, id.String()))
}

func (s *Postgres) FindByEmail(ctx context.Context, email string) (*models.Member, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, email, age, contact_number, password_hash, external_identity, created_at, updated_at
		FROM members WHERE lower(email) = lower($1)`, email))
}

func (s *Postgres) Update(ctx context.Context, member *models.Member) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE members
		SET first_name = $2, last_name = $3, email = $4, age = $5,
		    contact_number = $6, password_hash = $7, updated_at = $8
		WHERE id = $1`,
		member.ID.String(), member.FirstName, member.LastName, member.Email,
		member.Age, member.ContactNumber, member.PasswordHash, member.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("update member: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update member: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) scanOne(row *sql.Row) (*models.Member, error) {
	var member models.Member
	var rawID string
	err := row.Scan(&rawID, &member.FirstName, &member.LastName, &member.Email,
		&member.Age, &member.ContactNumber, &member.PasswordHash, &member.ExternalIdentity,
		&member.CreatedAt, &member.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan member: %w", err)
	}
	id, err := domain.ParseMemberID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan member id: %w", err)
	}
	member.ID = id
	return &member, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
