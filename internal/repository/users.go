// Package repository provides PostgreSQL persistence for user accounts and
// their invitations.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/atinyakov/GophAuth/internal/models"
)

var (
	// ErrNotFound is returned when no row matches the lookup.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when an insert violates a unique constraint.
	ErrDuplicate = errors.New("duplicate")
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

const userColumns = `id, first_name, last_name, email, password_hash,
	invitation_digest, invitation_created_at, invitation_accepted_at, invited_by`

// PostgresUserRepository implements user persistence using a PostgreSQL database.
type PostgresUserRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository with the given database connection.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

// UserExists checks whether a user with the specified email exists.
func (r *PostgresUserRepository) UserExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`,
		email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("UserExists: %w", err)
	}
	return exists, nil
}

// CreateUser inserts u. A taken email yields ErrDuplicate.
func (r *PostgresUserRepository) CreateUser(ctx context.Context, u *models.User) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		u.ID, u.FirstName, u.LastName, u.Email, u.PasswordHash,
		nullString(u.InvitationDigest), nullTime(u.InvitationCreatedAt),
		nullTime(u.InvitationAcceptedAt), nullString(u.InvitedBy),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicate
		}
		return fmt.Errorf("CreateUser: %w", err)
	}
	return nil
}

// GetUserByID fetches a user by primary key.
func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetUserByEmail fetches a user by email.
func (r *PostgresUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// GetUserByInvitationDigest fetches the user holding the given invitation
// token digest, whether or not the invitation is still valid.
func (r *PostgresUserRepository) GetUserByInvitationDigest(ctx context.Context, digest string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE invitation_digest = $1`, digest)
}

// AcceptInvitation stores the names and password of an invited user and
// closes the invitation. It fails with ErrNotFound when the invitation is no
// longer open.
func (r *PostgresUserRepository) AcceptInvitation(ctx context.Context, u *models.User) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE users
		   SET first_name = $2,
		       last_name = $3,
		       password_hash = $4,
		       invitation_digest = NULL,
		       invitation_accepted_at = $5
		 WHERE id = $1
		   AND invitation_digest IS NOT NULL
		   AND invitation_accepted_at IS NULL
	`, u.ID, u.FirstName, u.LastName, u.PasswordHash, nullTime(u.InvitationAcceptedAt))
	if err != nil {
		return fmt.Errorf("AcceptInvitation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("AcceptInvitation: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var (
		u          models.User
		digest     sql.NullString
		invitedBy  sql.NullString
		createdAt  sql.NullTime
		acceptedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash,
		&digest, &createdAt, &acceptedAt, &invitedBy,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.InvitationDigest = digest.String
	u.InvitedBy = invitedBy.String
	if createdAt.Valid {
		t := createdAt.Time
		u.InvitationCreatedAt = &t
	}
	if acceptedAt.Valid {
		t := acceptedAt.Time
		u.InvitationAcceptedAt = &t
	}
	return &u, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
