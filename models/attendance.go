package models

import "time"

// AttendanceRecord is the per-student, per-day attendance row. The composite
// unique index on (user_id, day) is the hard guarantee behind "at most one
// record per student per day"; the scan processor's per-user serialization is
// only the fast path on top of it.
type AttendanceRecord struct {
	ID         uint       `gorm:"primaryKey" json:"attendance_id"`
	UserID     uint       `gorm:"not null;uniqueIndex:uniq_user_day" json:"user_id"`
	Day        time.Time  `gorm:"type:date;not null;uniqueIndex:uniq_user_day" json:"date_scanned"`
	TimeIn     *time.Time `json:"time_in,omitempty"`
	TimeOut    *time.Time `json:"time_out,omitempty"`
	Status     string     `gorm:"size:20;not null" json:"status"`
	AutoClosed bool       `gorm:"not null;default:false" json:"auto_closed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Open reports whether the record still awaits a time-out.
func (r *AttendanceRecord) Open() bool {
	return r.TimeOut == nil
}
