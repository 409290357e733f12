package attendance

import (
	"context"
	"sync"
	"time"

	"github.com/campusgate/attendance-backend/models"
)

// memStore is an in-memory Store with the same uniqueness and conditional
// update semantics as the MySQL implementation.
type memStore struct {
	mu     sync.Mutex
	nextID uint
	recs   []*models.AttendanceRecord

	failFind bool // when set, FindForDay fails once then recovers
}

func newMemStore() *memStore {
	return &memStore{}
}

func (s *memStore) find(userID uint, day time.Time) *models.AttendanceRecord {
	for _, r := range s.recs {
		if r.UserID == userID && r.Day.Equal(day) {
			return r
		}
	}
	return nil
}

func (s *memStore) FindForDay(ctx context.Context, userID uint, day time.Time) (*models.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFind {
		s.failFind = false
		return nil, context.DeadlineExceeded
	}
	r := s.find(userID, day)
	if r == nil {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (s *memStore) Insert(ctx context.Context, rec *models.AttendanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.find(rec.UserID, rec.Day) != nil {
		return ErrDuplicateRecord
	}
	s.nextID++
	rec.ID = s.nextID
	cp := *rec
	s.recs = append(s.recs, &cp)
	return nil
}

func (s *memStore) SetTimeOut(ctx context.Context, recordID uint, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.recs {
		if r.ID == recordID {
			if r.TimeOut != nil {
				return false, nil
			}
			t := at
			r.TimeOut = &t
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) SetStatus(ctx context.Context, recordID uint, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.recs {
		if r.ID == recordID {
			r.Status = string(status)
		}
	}
	return nil
}

func (s *memStore) CloseOpenBefore(ctx context.Context, userID uint, day time.Time, closingHour int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, r := range s.recs {
		if r.UserID == userID && r.Day.Before(day) && r.TimeOut == nil {
			closeAt := time.Date(r.Day.Year(), r.Day.Month(), r.Day.Day(), closingHour, 0, 0, 0, r.Day.Location())
			r.TimeOut = &closeAt
			r.AutoClosed = true
			n++
		}
	}
	return n, nil
}

func (s *memStore) AutoCloseDay(ctx context.Context, day time.Time, closeAt time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, r := range s.recs {
		if r.Day.Equal(day) && r.TimeOut == nil {
			t := closeAt
			r.TimeOut = &t
			r.AutoClosed = true
			n++
		}
	}
	return n, nil
}

func (s *memStore) InsertStatusOnly(ctx context.Context, userID uint, day time.Time, status Status) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.find(userID, day) != nil {
		return false, nil
	}
	s.nextID++
	s.recs = append(s.recs, &models.AttendanceRecord{
		ID:     s.nextID,
		UserID: userID,
		Day:    day,
		Status: string(status),
	})
	return true, nil
}

func (s *memStore) OverrideDay(ctx context.Context, day time.Time, status Status) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, r := range s.recs {
		if r.Day.Equal(day) && r.Status != string(status) {
			r.Status = string(status)
			n++
		}
	}
	return n, nil
}

// snapshot returns copies of all records for assertions.
func (s *memStore) snapshot() []models.AttendanceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.AttendanceRecord, 0, len(s.recs))
	for _, r := range s.recs {
		out = append(out, *r)
	}
	return out
}

// memDirectory is a fixed student roster.
type memDirectory struct {
	students []uint
	teachers map[uint]uint
}

func (d *memDirectory) StudentIDs(ctx context.Context) ([]uint, error) {
	return d.students, nil
}

func (d *memDirectory) TeacherOf(ctx context.Context, studentID uint) (uint, bool, error) {
	t, ok := d.teachers[studentID]
	return t, ok, nil
}

// chanNotifier delivers emitted notifications to a channel so tests can wait
// for the processor's fire-and-forget goroutine deterministically.
type emitted struct {
	TeacherID uint
	StudentID uint
	Kind      string
	Message   string
}

type chanNotifier struct {
	ch chan emitted
}

func newChanNotifier() *chanNotifier {
	return &chanNotifier{ch: make(chan emitted, 8)}
}

func (n *chanNotifier) Emit(ctx context.Context, teacherID, studentID uint, kind, message string) error {
	n.ch <- emitted{TeacherID: teacherID, StudentID: studentID, Kind: kind, Message: message}
	return nil
}

// memAnnouncements returns a fixed override announcement, or none.
type memAnnouncements struct {
	ann *models.Announcement
}

func (a *memAnnouncements) ActiveOverrideFor(ctx context.Context, day time.Time) (*models.Announcement, error) {
	if a.ann != nil && a.ann.CoversDay(day) {
		return a.ann, nil
	}
	return nil, nil
}
