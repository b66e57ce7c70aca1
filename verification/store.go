package verification

import (
	"context"
	"database/sql"
	"time"

	"emperror.dev/errors"
)

// ErrNotFound is returned when a member has no pending verification, this is
// a normal outcome for most members, not a failure.
var ErrNotFound = errors.Sentinel("no pending verification")

// PendingVerification is an outstanding challenge for a member. There is at
// most one per member at any time.
type PendingVerification struct {
	MemberID  string
	GuildID   string
	Code      string
	Attempts  int
	CreatedAt time.Time
}

// PendingStore is the durable table of outstanding challenges. All
// operations are safe under concurrent callers targeting the same member.
type PendingStore interface {
	// Create unconditionally replaces any existing record for the member,
	// resetting attempts and the creation time
	Create(ctx context.Context, memberID, guildID, code string) error

	// Get returns ErrNotFound when the member has no pending record
	Get(ctx context.Context, memberID string) (*PendingVerification, error)

	// IncrementAttempts atomically bumps the wrong answer counter and
	// returns the post increment value, so concurrent wrong answers each
	// observe a distinct count
	IncrementAttempts(ctx context.Context, memberID string) (newCount int, err error)

	// Delete ends a record's lifecycle, deleting an absent member is a no-op
	Delete(ctx context.Context, memberID string) error
}

// PQPendingStore is the postgres backed PendingStore used in production.
type PQPendingStore struct {
	DB *sql.DB
}

var _ PendingStore = (*PQPendingStore)(nil)

func (s *PQPendingStore) Create(ctx context.Context, memberID, guildID, code string) error {
	const q = `
INSERT INTO verification_pending_users (member_id, guild_id, code, attempts, created_at)
VALUES ($1, $2, $3, 0, $4)
ON CONFLICT (member_id) DO UPDATE SET
	guild_id = $2,
	code = $3,
	attempts = 0,
	created_at = $4
`

	_, err := s.DB.ExecContext(ctx, q, memberID, guildID, code, time.Now())
	return errors.WithStackIf(err)
}

func (s *PQPendingStore) Get(ctx context.Context, memberID string) (*PendingVerification, error) {
	const q = `SELECT member_id, guild_id, code, attempts, created_at FROM verification_pending_users WHERE member_id = $1`

	rec := &PendingVerification{}
	err := s.DB.QueryRowContext(ctx, q, memberID).Scan(&rec.MemberID, &rec.GuildID, &rec.Code, &rec.Attempts, &rec.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}

		return nil, errors.WithStackIf(err)
	}

	return rec, nil
}

func (s *PQPendingStore) IncrementAttempts(ctx context.Context, memberID string) (int, error) {
	const q = `UPDATE verification_pending_users SET attempts = attempts + 1 WHERE member_id = $1 RETURNING attempts`

	var newCount int
	err := s.DB.QueryRowContext(ctx, q, memberID).Scan(&newCount)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrNotFound
		}

		return 0, errors.WithStackIf(err)
	}

	return newCount, nil
}

func (s *PQPendingStore) Delete(ctx context.Context, memberID string) error {
	const q = `DELETE FROM verification_pending_users WHERE member_id = $1`

	_, err := s.DB.ExecContext(ctx, q, memberID)
	return errors.WithStackIf(err)
}
