package attendance

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/campusgate/attendance-backend/models"
)

// ErrNotOverride is returned when an announcement type carries no attendance
// override.
var ErrNotOverride = errors.New("announcement type does not override attendance")

// Overrider applies announcement-driven bulk status overrides: every student
// gets a Suspended or Holiday record for the day, whether or not they scanned.
type Overrider struct {
	store Store
	dir   Directory
	log   *zap.SugaredLogger
}

func NewOverrider(store Store, dir Directory, log *zap.SugaredLogger) *Overrider {
	return &Overrider{store: store, dir: dir, log: log}
}

// OverrideStatus maps an announcement type to the status it imposes.
func OverrideStatus(announcementType string) (Status, bool) {
	switch announcementType {
	case models.AnnouncementSuspension:
		return StatusSuspended, true
	case models.AnnouncementHoliday:
		return StatusHoliday, true
	default:
		return "", false
	}
}

// Apply rewrites the day's attendance for all students to the status implied
// by the announcement type. Existing records keep their times; students
// without a record get a status-only one. Safe to re-run: a second pass finds
// every row already carrying the target status and inserts nothing.
//
// Failures are row-independent: one student's bad row never blocks the rest.
func (o *Overrider) Apply(ctx context.Context, day time.Time, announcementType string) (Status, error) {
	status, ok := OverrideStatus(announcementType)
	if !ok {
		return "", ErrNotOverride
	}

	updated, err := o.store.OverrideDay(ctx, day, status)
	if err != nil {
		// Existing rows failed wholesale; still try the backfill half so
		// unscanned students are covered.
		o.log.Errorw("bulk status override failed", "day", day.Format("2006-01-02"), "status", status, "err", err)
	}

	ids, err := o.dir.StudentIDs(ctx)
	if err != nil {
		return status, err
	}

	var inserted int
	for _, id := range ids {
		created, err := o.store.InsertStatusOnly(ctx, id, day, status)
		if err != nil {
			o.log.Warnw("override backfill failed for student", "user_id", id, "err", err)
			continue
		}
		if created {
			inserted++
		}
	}

	o.log.Infow("attendance override applied",
		"day", day.Format("2006-01-02"),
		"status", status,
		"updated", updated,
		"inserted", inserted,
	)
	return status, nil
}
