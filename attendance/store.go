package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/campusgate/attendance-backend/models"
)

// ErrDuplicateRecord is returned by Store.Insert when a record for the same
// (user, day) already exists. The processor treats it as losing a benign race
// and re-reads instead of failing the scan.
var ErrDuplicateRecord = errors.New("attendance record already exists for this user and day")

// Store is the durable per-user-per-day attendance record store. All
// mutations that can race with the sweep are conditional single statements so
// the database, not the caller, decides who wins.
type Store interface {
	// FindForDay returns the record for (userID, day), or nil when none exists.
	FindForDay(ctx context.Context, userID uint, day time.Time) (*models.AttendanceRecord, error)

	// Insert creates a new record. Returns ErrDuplicateRecord when the unique
	// (user, day) index rejects it.
	Insert(ctx context.Context, rec *models.AttendanceRecord) error

	// SetTimeOut records a time-out, only if the record is still open.
	// Returns false when the record was already closed.
	SetTimeOut(ctx context.Context, recordID uint, at time.Time) (bool, error)

	// SetStatus overwrites a record's status.
	SetStatus(ctx context.Context, recordID uint, status Status) error

	// CloseOpenBefore auto-closes every open record of the user from days
	// strictly before day, stamping each with its own day's closing time.
	CloseOpenBefore(ctx context.Context, userID uint, day time.Time, closingHour int) (int64, error)

	// AutoCloseDay auto-closes every open record of the given day at closeAt.
	AutoCloseDay(ctx context.Context, day time.Time, closeAt time.Time) (int64, error)

	// InsertStatusOnly inserts a record carrying only a status, without times,
	// if and only if the user has no record for the day yet. Returns whether a
	// row was created.
	InsertStatusOnly(ctx context.Context, userID uint, day time.Time, status Status) (bool, error)

	// OverrideDay rewrites the status of every existing record for the day.
	OverrideDay(ctx context.Context, day time.Time, status Status) (int64, error)
}

// Directory is the read-only view of the user roster the engine needs.
type Directory interface {
	// StudentIDs lists the ids of all enrolled students.
	StudentIDs(ctx context.Context) ([]uint, error)

	// TeacherOf returns the teacher responsible for the student, if any.
	TeacherOf(ctx context.Context, studentID uint) (uint, bool, error)
}

// AnnouncementSource exposes the one announcement, if any, that overrides
// attendance for a given day.
type AnnouncementSource interface {
	ActiveOverrideFor(ctx context.Context, day time.Time) (*models.Announcement, error)
}
