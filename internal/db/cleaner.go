package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ExpireInvitations deletes invited users who never accepted and whose
// invitation was issued before cutoff. It returns the number of rows removed.
func ExpireInvitations(ctx context.Context, db *sql.DB, cutoff time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, `
        DELETE FROM users
         WHERE invitation_digest IS NOT NULL
           AND invitation_accepted_at IS NULL
           AND invitation_created_at < $1
    `, cutoff)
	if err != nil {
		return 0, fmt.Errorf("expire invitations: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expire invitations: %w", err)
	}
	return rows, nil
}

// StartInvitationCleaner removes expired invitations every interval until
// ctx is cancelled.
func StartInvitationCleaner(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
	ttl time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := ExpireInvitations(ctx, db, time.Now().Add(-ttl))
				if err != nil {
					log.Error("failed to clean expired invitations", zap.Error(err))
					continue
				}
				if removed > 0 {
					log.Info("cleaned expired invitations", zap.Int64("removed", removed))
				}
			}
		}
	}()
}
