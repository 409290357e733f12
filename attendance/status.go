package attendance

import (
	"time"

	"github.com/campusgate/attendance-backend/config"
)

// Status is the classified outcome of a student's day.
type Status string

const (
	StatusPresent   Status = "Present"
	StatusLate      Status = "Late"
	StatusAbsent    Status = "Absent"
	StatusNoClass   Status = "No Class"
	StatusPending   Status = "Pending"
	StatusSuspended Status = "Suspended"
	StatusHoliday   Status = "Holiday"
)

// Schedule carries the bell-schedule boundaries the classifier judges scans
// against. Boundaries are injected from configuration so tests and schools
// with different assembly times can supply their own.
type Schedule struct {
	BellHour             int
	MondayOnTimeMinute   int
	MondayLateFromMinute int
	MondayLateToMinute   int
	RegularLateToMinute  int
	AbsentCutoffHour     int
	ClosingHour          int
	BackfillGraceMinutes int
}

// NewSchedule builds a Schedule from loaded application configuration.
func NewSchedule(cfg config.AppConfig) Schedule {
	return Schedule{
		BellHour:             cfg.BellHour,
		MondayOnTimeMinute:   cfg.MondayOnTimeMinute,
		MondayLateFromMinute: cfg.MondayLateFromMinute,
		MondayLateToMinute:   cfg.MondayLateToMinute,
		RegularLateToMinute:  cfg.RegularLateToMinute,
		AbsentCutoffHour:     cfg.AbsentCutoffHour,
		ClosingHour:          cfg.ClosingHour,
		BackfillGraceMinutes: cfg.BackfillGraceMinutes,
	}
}

// Classify maps the wall-clock moment of a time-in scan to a status. It is
// deterministic and side-effect free; every status a scan can produce comes
// from here and is fixed at time-in.
//
// Mondays start with a flag assembly, so the on-time window is wider and the
// late window starts later than on other weekdays.
func (s Schedule) Classify(at time.Time) Status {
	if IsWeekend(at) {
		return StatusNoClass
	}

	h, m := at.Hour(), at.Minute()
	if h < s.BellHour {
		return StatusPresent
	}
	if h > s.BellHour {
		return StatusAbsent
	}

	if at.Weekday() == time.Monday {
		switch {
		case m <= s.MondayOnTimeMinute:
			return StatusPresent
		case m <= s.MondayLateToMinute:
			// Minutes between the on-time window and MondayLateFromMinute
			// count as late as well; arriving after assembly is late either way.
			return StatusLate
		default:
			return StatusAbsent
		}
	}

	// Tuesday through Friday: only the bell minute itself is on time.
	switch {
	case m == 0:
		return StatusPresent
	case m <= s.RegularLateToMinute:
		return StatusLate
	default:
		return StatusAbsent
	}
}

// MissingStatus is the effective status of a student with no scan yet: still
// Pending before the daily cutoff, Absent once it has passed.
func (s Schedule) MissingStatus(now time.Time) Status {
	if IsWeekend(now) {
		return StatusNoClass
	}
	if now.Hour() < s.AbsentCutoffHour {
		return StatusPending
	}
	return StatusAbsent
}

// ScanningClosed reports whether now is at or past the daily closing time,
// after which new time-ins are not accepted.
func (s Schedule) ScanningClosed(now time.Time) bool {
	return now.Hour() >= s.ClosingHour
}

// ClosingTimeOn returns the closing wall-clock instant for the day of t.
func (s Schedule) ClosingTimeOn(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), s.ClosingHour, 0, 0, 0, t.Location())
}

// IsWeekend reports whether t falls on a Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Day truncates t to its calendar day. Records key on this value, so it is
// normalized to UTC midnight regardless of the scan's zone.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
