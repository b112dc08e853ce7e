package gradebook

import (
	"context"
	"fmt"
	"time"

	"github.com/open-lms-tools/gradeassist/internal/coursework"
)

type Clock func() time.Time

// Syncer publishes an accepted submission grade to the platform gradebook.
// It satisfies the batch orchestrator's Publisher contract.
type Syncer struct {
	Store Store
	AGS   AGSClient
	Now   Clock
}

func New(store Store, ags AGSClient, now Clock) *Syncer {
	if now == nil {
		now = time.Now
	}
	return &Syncer{Store: store, AGS: ags, Now: now}
}

func (s *Syncer) PublishGrade(ctx context.Context, sub coursework.Submission, grade, maxGrade float64) error {
	lineItemURL, err := s.Store.LineItemURL(ctx, sub.AssignmentID)
	if err != nil || lineItemURL == "" {
		_ = s.Store.MarkSyncFailed(ctx, sub.ID, "no line item mapping")
		return fmt.Errorf("no line item for assignment %s: %w", sub.AssignmentID, err)
	}
	platformUserID, err := s.Store.PlatformUserID(ctx, sub.UserID)
	if err != nil || platformUserID == "" {
		_ = s.Store.MarkSyncFailed(ctx, sub.ID, "no platform user mapping")
		return fmt.Errorf("no platform user mapping for %s", sub.UserID)
	}
	if err := s.AGS.PostScore(ctx, lineItemURL, Score{
		UserID: platformUserID, ScoreGiven: grade, ScoreMaximum: maxGrade,
		ActivityProgress: "Completed", GradingProgress: "FullyGraded",
		Timestamp: s.Now(),
	}); err != nil {
		_ = s.Store.MarkSyncFailed(ctx, sub.ID, err.Error())
		return err
	}
	return s.Store.MarkSyncOK(ctx, sub.ID)
}
