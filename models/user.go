package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User roles. Staff accounts beyond teachers are managed elsewhere; the
// attendance engine only distinguishes students from the teachers it notifies.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

// User represents a student or teacher. Students carry the teacher they report
// to and the badge token their QR code encodes.
type User struct {
	ID         uint   `gorm:"primaryKey" json:"user_id"`
	Role       string `gorm:"size:16;not null;index" json:"role"`
	Username   string `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Name       string `gorm:"size:128;not null" json:"name"`
	Email      string `gorm:"size:255" json:"email"`
	GradeLevel string `gorm:"size:16" json:"grade_level"`
	Strand     string `gorm:"size:32" json:"strand"`
	Section    string `gorm:"size:32" json:"section"`
	TeacherID  *uint  `gorm:"index" json:"teacher_id,omitempty"`
	BadgeToken string `gorm:"size:36;uniqueIndex" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a badge token so every student can be issued a QR badge
// without a separate provisioning step.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.BadgeToken == "" {
		u.BadgeToken = uuid.NewString()
	}
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}

// IsStudent reports whether the user is tracked by the attendance engine.
func (u *User) IsStudent() bool {
	return u.Role == RoleStudent
}
