package gradebook

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SQLStore keeps the local-to-platform mappings and sync status.
type SQLStore struct {
	DB *sql.DB
}

func (s *SQLStore) LineItemURL(ctx context.Context, assignmentID string) (string, error) {
	var u string
	err := s.DB.QueryRowContext(ctx,
		`SELECT lineitem_url FROM assignment_lineitems WHERE assignment_id=$1`, assignmentID).Scan(&u)
	if errors.Is(err, sql.ErrNoRows) {
		return "", errors.New("line item not mapped")
	}
	return u, err
}

func (s *SQLStore) PlatformUserID(ctx context.Context, localUserID string) (string, error) {
	var sub string
	err := s.DB.QueryRowContext(ctx,
		`SELECT platform_sub FROM platform_user_map WHERE local_user_id=$1`, localUserID).Scan(&sub)
	if errors.Is(err, sql.ErrNoRows) {
		return "", errors.New("user not mapped")
	}
	return sub, err
}

func (s *SQLStore) MarkSyncOK(ctx context.Context, submissionID string) error {
	return s.mark(ctx, submissionID, "ok", "", false)
}

func (s *SQLStore) MarkSyncFailed(ctx context.Context, submissionID, lastErr string) error {
	return s.mark(ctx, submissionID, "failed", lastErr, true)
}

func (s *SQLStore) mark(ctx context.Context, submissionID, status, lastErr string, bumpRetries bool) error {
	bump := 0
	if bumpRetries {
		bump = 1
	}
	_, err := s.DB.ExecContext(ctx, `INSERT INTO gradebook_sync (submission_id,status,last_error,retries,updated_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (submission_id) DO UPDATE SET status=EXCLUDED.status, last_error=EXCLUDED.last_error,
			retries=gradebook_sync.retries+$4, updated_at=EXCLUDED.updated_at`,
		submissionID, status, lastErr, bump, time.Now().Unix())
	return err
}
