package attendance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/campusgate/attendance-backend/models"
)

// Scan result kinds.
const (
	KindTimeIn   = "time_in"
	KindTimeOut  = "time_out"
	KindRejected = "rejected"
	KindComplete = "complete"
)

// ErrMissingUser is returned when a scan arrives without a user id.
var ErrMissingUser = errors.New("user id is required")

// ScanResult is the outcome of one badge scan.
type ScanResult struct {
	Kind       string     `json:"kind"`
	Status     Status     `json:"status,omitempty"`
	RecordedAt *time.Time `json:"time_recorded,omitempty"`
	Message    string     `json:"message"`
}

// Processor handles inbound scans: it classifies time-ins, records time-outs,
// closes stragglers from earlier days, and emits teacher notifications for
// late or absent students.
//
// All record reads and writes for one user are serialized through a per-user
// lock; the unique (user, day) index in the store backs that up across
// processes.
type Processor struct {
	store    Store
	dir      Directory
	notifier Notifier
	sched    Schedule
	log      *zap.SugaredLogger

	locks userLocks
}

// NewProcessor wires a scan processor.
func NewProcessor(store Store, dir Directory, notifier Notifier, sched Schedule, log *zap.SugaredLogger) *Processor {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Processor{
		store:    store,
		dir:      dir,
		notifier: notifier,
		sched:    sched,
		log:      log,
	}
}

// ProcessScan runs the full scan lifecycle for one badge read at the given
// wall-clock time. Temporal rejections (weekend, after closing) come back as
// a normal result with Kind == KindRejected; only store failures return an
// error.
func (p *Processor) ProcessScan(ctx context.Context, userID uint, username string, now time.Time) (ScanResult, error) {
	if userID == 0 {
		return ScanResult{}, ErrMissingUser
	}

	if IsWeekend(now) {
		return ScanResult{
			Kind:    KindRejected,
			Status:  StatusNoClass,
			Message: fmt.Sprintf("Hi %s, attendance scanning is disabled on weekends.", username),
		}, nil
	}

	unlock := p.locks.lock(userID)
	defer unlock()

	today := Day(now)

	// A student who skipped the closing scan yesterday must not keep an open
	// record forever; close stragglers before touching today.
	if n, err := p.store.CloseOpenBefore(ctx, userID, today, p.sched.ClosingHour); err != nil {
		p.log.Warnw("failed to auto-close previous records", "user_id", userID, "err", err)
	} else if n > 0 {
		p.log.Infow("auto-closed stale records before scan", "user_id", userID, "count", n)
	}

	rec, err := p.findWithRetry(ctx, userID, today)
	if err != nil {
		return ScanResult{}, err
	}

	if rec == nil {
		if p.sched.ScanningClosed(now) {
			return ScanResult{
				Kind:    KindRejected,
				Message: fmt.Sprintf("Hi %s, attendance scanning is closed after %d:00.", username, p.sched.ClosingHour),
			}, nil
		}
		return p.recordTimeIn(ctx, userID, username, now, today)
	}

	return p.recordTimeOut(ctx, rec, username, now)
}

func (p *Processor) recordTimeIn(ctx context.Context, userID uint, username string, now time.Time, today time.Time) (ScanResult, error) {
	status := p.sched.Classify(now)
	rec := &models.AttendanceRecord{
		UserID: userID,
		Day:    today,
		TimeIn: &now,
		Status: string(status),
	}

	err := p.store.Insert(ctx, rec)
	if errors.Is(err, ErrDuplicateRecord) {
		// A concurrent scan (duplicate retry, second kiosk) created the record
		// first. Re-read and treat this scan as the time-out attempt.
		existing, ferr := p.findWithRetry(ctx, userID, today)
		if ferr != nil {
			return ScanResult{}, ferr
		}
		if existing == nil {
			return ScanResult{}, err
		}
		return p.recordTimeOut(ctx, existing, username, now)
	}
	if err != nil {
		return ScanResult{}, err
	}

	if status == StatusLate || status == StatusAbsent {
		p.notifyTeacher(userID, username, status, now)
	}

	return ScanResult{
		Kind:       KindTimeIn,
		Status:     status,
		RecordedAt: &now,
		Message:    fmt.Sprintf("Hi %s, you are marked %q at %s.", username, status, now.Format("15:04:05")),
	}, nil
}

func (p *Processor) recordTimeOut(ctx context.Context, rec *models.AttendanceRecord, username string, now time.Time) (ScanResult, error) {
	// Records the sweep closed are terminal; the sweep's time-out stands.
	if rec.AutoClosed {
		return ScanResult{
			Kind:    KindComplete,
			Status:  Status(rec.Status),
			Message: fmt.Sprintf("Hi %s, your time-out was auto-recorded at %d:00.", username, p.sched.ClosingHour),
		}, nil
	}
	if rec.TimeOut != nil {
		return ScanResult{
			Kind:    KindComplete,
			Status:  Status(rec.Status),
			Message: fmt.Sprintf("Hi %s, your attendance for today is already complete.", username),
		}, nil
	}

	ok, err := p.store.SetTimeOut(ctx, rec.ID, now)
	if err != nil {
		return ScanResult{}, err
	}
	if !ok {
		// Lost the race against the daily sweep; the record is closed now.
		return ScanResult{
			Kind:    KindComplete,
			Status:  Status(rec.Status),
			Message: fmt.Sprintf("Hi %s, your attendance for today is already complete.", username),
		}, nil
	}

	return ScanResult{
		Kind:       KindTimeOut,
		Status:     Status(rec.Status),
		RecordedAt: &now,
		Message:    fmt.Sprintf("Hi %s, your time-out has been recorded at %s.", username, now.Format("15:04:05")),
	}, nil
}

// findWithRetry reads today's record with one bounded retry, so a transient
// store hiccup does not reject a legitimate scan outright.
func (p *Processor) findWithRetry(ctx context.Context, userID uint, day time.Time) (*models.AttendanceRecord, error) {
	rec, err := p.store.FindForDay(ctx, userID, day)
	if err == nil {
		return rec, nil
	}
	select {
	case <-ctx.Done():
		return nil, err
	case <-time.After(100 * time.Millisecond):
	}
	return p.store.FindForDay(ctx, userID, day)
}

// notifyTeacher emits a late/absent event to the student's teacher.
// Fire-and-forget: runs on its own goroutine with its own deadline and never
// affects the scan outcome.
func (p *Processor) notifyTeacher(userID uint, username string, status Status, at time.Time) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		teacherID, ok, err := p.dir.TeacherOf(ctx, userID)
		if err != nil {
			p.log.Warnw("teacher lookup failed, dropping notification", "user_id", userID, "err", err)
			return
		}
		if !ok {
			return
		}

		var message string
		if status == StatusLate {
			message = fmt.Sprintf("%s has been marked late at %s.", username, at.Format("15:04:05"))
		} else {
			message = fmt.Sprintf("%s has been marked absent today.", username)
		}

		if err := p.notifier.Emit(ctx, teacherID, userID, NotificationLateAbsent, message); err != nil {
			p.log.Warnw("notification emit failed", "teacher_id", teacherID, "student_id", userID, "err", err)
		}
	}()
}

// userLocks serializes scan processing per user id. Entries are
// reference-counted and removed as soon as the last holder releases, so the
// map stays bounded by in-flight scans.
type userLocks struct {
	mu sync.Mutex
	m  map[uint]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func (l *userLocks) lock(userID uint) (unlock func()) {
	l.mu.Lock()
	if l.m == nil {
		l.m = make(map[uint]*lockEntry)
	}
	e, ok := l.m[userID]
	if !ok {
		e = &lockEntry{}
		l.m[userID] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.m, userID)
		}
		l.mu.Unlock()
	}
}
