package models

import "time"

// Announcement types. Suspension and Holiday announcements drive the bulk
// attendance override; General ones are display-only.
const (
	AnnouncementGeneral    = "General"
	AnnouncementSuspension = "Suspension"
	AnnouncementHoliday    = "Holiday"
)

// Announcement statuses.
const (
	AnnouncementActive   = "active"
	AnnouncementInactive = "inactive"
)

// Announcement is a school-wide notice shown on the scanner page. Suspension
// and Holiday announcements additionally override attendance for the days in
// their date range.
type Announcement struct {
	ID        uint       `gorm:"primaryKey" json:"announcement_id"`
	Message   string     `gorm:"type:text;not null" json:"message"`
	Type      string     `gorm:"size:20;not null;default:'General'" json:"type"`
	Status    string     `gorm:"size:10;not null;default:'active'" json:"status"`
	StartDate *time.Time `gorm:"type:date" json:"start_date,omitempty"`
	EndDate   *time.Time `gorm:"type:date" json:"end_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsOverride reports whether this announcement type rewrites attendance.
func (a *Announcement) IsOverride() bool {
	return a.Type == AnnouncementSuspension || a.Type == AnnouncementHoliday
}

// CoversDay reports whether the announcement's date range includes day.
// Announcements without dates cover nothing for override purposes.
func (a *Announcement) CoversDay(day time.Time) bool {
	if a.StartDate == nil || a.EndDate == nil {
		return false
	}
	return !day.Before(*a.StartDate) && !day.After(*a.EndDate)
}
