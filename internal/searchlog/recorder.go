package searchlog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"makro.app/internal/logging"
	"makro.app/internal/planner"
)

// Recorder writes every completed search to a Repository and, when a
// Publisher is set, announces it in the background.
type Recorder struct {
	repo      Repository
	publisher Publisher
	clock     func() time.Time
	logger    *slog.Logger
	wg        sync.WaitGroup
}

// NewRecorder returns a Recorder. publisher may be nil.
func NewRecorder(repo Repository, publisher Publisher, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		repo:      repo,
		publisher: publisher,
		clock:     time.Now,
		logger:    logger.With(slog.String("component", "searchlog")),
	}
}

// Record stores the search synchronously. Publishing happens afterwards
// and its failures are only logged.
func (r *Recorder) Record(ctx context.Context, req planner.SearchRequest, results []planner.Itinerary) error {
	entry, err := r.repo.Append(ctx, NewEntry(req, results, r.clock()))
	if err != nil {
		return fmt.Errorf("append search log: %w", err)
	}

	if r.publisher == nil {
		return nil
	}

	pubCtx := context.WithoutCancel(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.publisher.Publish(pubCtx, entry); err != nil {
			logging.LogWarn(r.logger, "failed to publish search event", err,
				slog.Int64("search_log_id", entry.ID))
		}
	}()
	return nil
}

// Recent returns up to limit entries, newest first.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]Entry, error) {
	return r.repo.Recent(ctx, limit)
}

// Wait blocks until background publishes have finished.
func (r *Recorder) Wait() {
	r.wg.Wait()
}
