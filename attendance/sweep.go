package attendance

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper is the daily reconciliation job. It fires twice per school day:
// shortly after the absent cutoff it backfills records for students who never
// scanned, and at closing time it auto-closes records still missing a
// time-out. Both passes are idempotent, so a missed or doubled trigger after
// a restart is harmless.
type Sweeper struct {
	store Store
	dir   Directory
	ann   AnnouncementSource
	over  *Overrider
	sched Schedule
	log   *zap.SugaredLogger
}

func NewSweeper(store Store, dir Directory, ann AnnouncementSource, over *Overrider, sched Schedule, log *zap.SugaredLogger) *Sweeper {
	return &Sweeper{store: store, dir: dir, ann: ann, over: over, sched: sched, log: log}
}

// AutoClose closes every record of now's day that still lacks a time-out,
// stamping the configured closing time. Only rows whose time_out is NULL are
// touched, so re-running changes nothing and an in-flight scan's time-out is
// never overwritten.
func (s *Sweeper) AutoClose(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.store.AutoCloseDay(ctx, Day(now), s.sched.ClosingTimeOn(now))
	if err != nil {
		s.log.Errorw("end-of-day auto-close failed", "err", err)
		return 0, err
	}
	s.log.Infow("end-of-day auto-close done", "records", n)
	return n, nil
}

// BackfillAbsent inserts a record for every student without one for now's
// day. Normally the status is Absent; when an active Suspension or Holiday
// announcement covers the day, the override is re-applied instead, which both
// rewrites scanned records and covers unscanned students. Weekends are
// skipped entirely.
func (s *Sweeper) BackfillAbsent(ctx context.Context, now time.Time) (int, error) {
	if IsWeekend(now) {
		return 0, nil
	}
	day := Day(now)

	if s.ann != nil {
		ann, err := s.ann.ActiveOverrideFor(ctx, day)
		if err != nil {
			s.log.Warnw("override check failed, falling back to absent backfill", "err", err)
		} else if ann != nil && s.over != nil {
			if _, err := s.over.Apply(ctx, day, ann.Type); err != nil {
				return 0, err
			}
			return 0, nil
		}
	}

	ids, err := s.dir.StudentIDs(ctx)
	if err != nil {
		s.log.Errorw("absence backfill could not list students", "err", err)
		return 0, err
	}

	var inserted int
	for _, id := range ids {
		created, err := s.store.InsertStatusOnly(ctx, id, day, StatusAbsent)
		if err != nil {
			s.log.Warnw("absence backfill failed for student", "user_id", id, "err", err)
			continue
		}
		if created {
			inserted++
		}
	}
	s.log.Infow("absence backfill done", "inserted", inserted, "students", len(ids))
	return inserted, nil
}

// Start launches the sweep schedule on a background goroutine and returns.
// Fire times are recomputed from the wall clock on every iteration, so a
// process restarted mid-day simply picks up the next slot.
func (s *Sweeper) Start(ctx context.Context) {
	go func() {
		for {
			now := time.Now()
			backfillAt := nextDaily(now, s.sched.AbsentCutoffHour, s.sched.BackfillGraceMinutes)
			closeAt := nextDaily(now, s.sched.ClosingHour, 0)

			next := backfillAt
			runClose := false
			if closeAt.Before(backfillAt) {
				next = closeAt
				runClose = true
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(next.Sub(now)):
			}

			runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
			if runClose {
				_, _ = s.AutoClose(runCtx, time.Now())
			} else {
				_, _ = s.BackfillAbsent(runCtx, time.Now())
			}
			cancel()
		}
	}()
}

// nextDaily returns the next occurrence of hour:minute strictly after now.
func nextDaily(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}
