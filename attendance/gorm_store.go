package attendance

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/campusgate/attendance-backend/models"
)

// GormStore implements Store on a MySQL-backed gorm connection.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a Store over the given database handle.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) FindForDay(ctx context.Context, userID uint, day time.Time) (*models.AttendanceRecord, error) {
	var rec models.AttendanceRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND day = ?", userID, day).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (s *GormStore) Insert(ctx context.Context, rec *models.AttendanceRecord) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateRecord
		}
		return err
	}
	return nil
}

func (s *GormStore) SetTimeOut(ctx context.Context, recordID uint, at time.Time) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.AttendanceRecord{}).
		Where("id = ? AND time_out IS NULL", recordID).
		Update("time_out", at)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) SetStatus(ctx context.Context, recordID uint, status Status) error {
	return s.db.WithContext(ctx).
		Model(&models.AttendanceRecord{}).
		Where("id = ?", recordID).
		Update("status", string(status)).Error
}

func (s *GormStore) CloseOpenBefore(ctx context.Context, userID uint, day time.Time, closingHour int) (int64, error) {
	// Each straggler is stamped with its own day's closing time, not today's.
	res := s.db.WithContext(ctx).
		Model(&models.AttendanceRecord{}).
		Where("user_id = ? AND day < ? AND time_out IS NULL", userID, day).
		Updates(map[string]interface{}{
			"time_out":    gorm.Expr("TIMESTAMP(day, MAKETIME(?, 0, 0))", closingHour),
			"auto_closed": true,
		})
	return res.RowsAffected, res.Error
}

func (s *GormStore) AutoCloseDay(ctx context.Context, day time.Time, closeAt time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&models.AttendanceRecord{}).
		Where("day = ? AND time_out IS NULL", day).
		Updates(map[string]interface{}{
			"time_out":    closeAt,
			"auto_closed": true,
		})
	return res.RowsAffected, res.Error
}

func (s *GormStore) InsertStatusOnly(ctx context.Context, userID uint, day time.Time, status Status) (bool, error) {
	rec := models.AttendanceRecord{
		UserID: userID,
		Day:    day,
		Status: string(status),
	}
	// INSERT IGNORE semantics: the unique (user, day) index swallows the row
	// when a concurrent scan already created one.
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rec)
	if res.Error != nil {
		if isDuplicateKey(res.Error) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) OverrideDay(ctx context.Context, day time.Time, status Status) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&models.AttendanceRecord{}).
		Where("day = ?", day).
		Update("status", string(status))
	return res.RowsAffected, res.Error
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "Duplicate entry")
}

// GormDirectory implements Directory over the users table.
type GormDirectory struct {
	db *gorm.DB
}

func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{db: db}
}

func (d *GormDirectory) StudentIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := d.db.WithContext(ctx).
		Model(&models.User{}).
		Where("role = ?", models.RoleStudent).
		Pluck("id", &ids).Error
	return ids, err
}

func (d *GormDirectory) TeacherOf(ctx context.Context, studentID uint) (uint, bool, error) {
	var user models.User
	err := d.db.WithContext(ctx).
		Select("teacher_id").
		First(&user, studentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	if user.TeacherID == nil {
		return 0, false, nil
	}
	return *user.TeacherID, true, nil
}

// GormAnnouncements implements AnnouncementSource over the announcements table.
type GormAnnouncements struct {
	db *gorm.DB
}

func NewGormAnnouncements(db *gorm.DB) *GormAnnouncements {
	return &GormAnnouncements{db: db}
}

// ActiveOverrideFor returns the active Suspension or Holiday announcement
// covering day. Suspensions take priority when both exist.
func (a *GormAnnouncements) ActiveOverrideFor(ctx context.Context, day time.Time) (*models.Announcement, error) {
	var ann models.Announcement
	err := a.db.WithContext(ctx).
		Where("status = ?", models.AnnouncementActive).
		Where("type IN ?", []string{models.AnnouncementSuspension, models.AnnouncementHoliday}).
		Where("start_date <= ? AND end_date >= ?", day, day).
		Order("CASE WHEN type = 'Suspension' THEN 1 ELSE 2 END, updated_at DESC").
		First(&ann).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ann, nil
}
