// Package gradebook pushes accepted grades to an LTI AGS gradebook.
package gradebook

import (
	"context"
	"time"
)

// Score is one posted result, in AGS wire terms.
type Score struct {
	UserID           string
	ScoreGiven       float64
	ScoreMaximum     float64
	ActivityProgress string
	GradingProgress  string
	Timestamp        time.Time
}

// AGSClient posts scores to a platform line item.
type AGSClient interface {
	PostScore(ctx context.Context, lineItemURL string, s Score) error
}

// Store resolves local IDs to platform-side ones and records sync outcomes.
type Store interface {
	LineItemURL(ctx context.Context, assignmentID string) (string, error)
	PlatformUserID(ctx context.Context, localUserID string) (string, error)
	MarkSyncOK(ctx context.Context, submissionID string) error
	MarkSyncFailed(ctx context.Context, submissionID, lastErr string) error
}
