package attendance

import (
	"context"

	"gorm.io/gorm"

	"github.com/campusgate/attendance-backend/models"
)

// NotificationLateAbsent marks notifications produced by late/absent time-ins.
const NotificationLateAbsent = "late_absent"

// Notifier receives late/absent events for teachers. Implementations must be
// safe to call concurrently; callers treat every failure as non-fatal.
type Notifier interface {
	Emit(ctx context.Context, teacherID, studentID uint, kind, message string) error
}

// DBNotifier writes notifications to the notifications table, where the
// teacher dashboard polls them. Actual delivery transport lives elsewhere.
type DBNotifier struct {
	db *gorm.DB
}

func NewDBNotifier(db *gorm.DB) *DBNotifier {
	return &DBNotifier{db: db}
}

func (n *DBNotifier) Emit(ctx context.Context, teacherID, studentID uint, kind, message string) error {
	return n.db.WithContext(ctx).Create(&models.Notification{
		TeacherID: teacherID,
		StudentID: studentID,
		Kind:      kind,
		Message:   message,
	}).Error
}

// NopNotifier discards events. Used when notifications are disabled.
type NopNotifier struct{}

func (NopNotifier) Emit(ctx context.Context, teacherID, studentID uint, kind, message string) error {
	return nil
}
