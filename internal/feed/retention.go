package feed

import (
	"context"
	"time"

	"go.uber.org/zap"

	"livecart/internal/repository"
)

// Retention deletes aged comments in batches, leaving live-post
// comments alone.
type Retention struct {
	Repo      repository.FeedStore
	Logger    *zap.Logger
	Days      int
	BatchSize int
}

func (r *Retention) DeleteOldComments(ctx context.Context) error {
	days := r.Days
	if days <= 0 {
		days = 30
	}
	batch := r.BatchSize
	if batch <= 0 {
		batch = 100
	}
	before := time.Now().UTC().AddDate(0, 0, -days)

	var total int64
	for {
		affected, err := r.Repo.DeleteCommentsBefore(ctx, before, batch)
		if err != nil {
			return err
		}
		total += affected
		if affected < int64(batch) {
			break
		}
	}
	if total > 0 {
		r.Logger.Info("deleted old comments",
			zap.Int64("count", total),
			zap.Time("before", before))
	}
	return nil
}
