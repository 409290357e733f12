package models

import "time"

// Notification is a message for a teacher about one of their students. Rows
// are written best-effort by the scan processor; delivery beyond this table
// (push, email) is someone else's job.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"notification_id"`
	TeacherID uint      `gorm:"not null;index" json:"teacher_id"`
	StudentID uint      `gorm:"not null;index" json:"student_id"`
	Kind      string    `gorm:"size:32;not null" json:"type"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	IsRead    bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt time.Time `json:"date_created"`
}
