package attendance

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestProcessor(store Store, dir Directory, notifier Notifier) *Processor {
	return NewProcessor(store, dir, notifier, testSchedule(), zap.NewNop().Sugar())
}

func TestProcessScanLifecycle(t *testing.T) {
	store := newMemStore()
	dir := &memDirectory{students: []uint{7}}
	p := newTestProcessor(store, dir, nil)
	ctx := context.Background()

	// First scan of the day opens the record.
	morning := at("2024-03-05", 6, 50)
	res, err := p.ProcessScan(ctx, 7, "Ana", morning)
	if err != nil {
		t.Fatalf("time-in: %v", err)
	}
	if res.Kind != KindTimeIn || res.Status != StatusPresent {
		t.Fatalf("time-in = %+v, want kind %q status %q", res, KindTimeIn, StatusPresent)
	}
	if !strings.Contains(res.Message, "Ana") {
		t.Errorf("message %q should address the student", res.Message)
	}

	// Second scan closes it.
	afternoon := at("2024-03-05", 15, 30)
	res, err = p.ProcessScan(ctx, 7, "Ana", afternoon)
	if err != nil {
		t.Fatalf("time-out: %v", err)
	}
	if res.Kind != KindTimeOut || res.Status != StatusPresent {
		t.Fatalf("time-out = %+v, want kind %q", res, KindTimeOut)
	}

	// Third and later scans change nothing.
	res, err = p.ProcessScan(ctx, 7, "Ana", at("2024-03-05", 15, 35))
	if err != nil {
		t.Fatalf("repeat scan: %v", err)
	}
	if res.Kind != KindComplete {
		t.Fatalf("repeat scan kind = %q, want %q", res.Kind, KindComplete)
	}

	recs := store.snapshot()
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	rec := recs[0]
	if rec.TimeIn == nil || !rec.TimeIn.Equal(morning) {
		t.Errorf("time_in = %v, want %v", rec.TimeIn, morning)
	}
	if rec.TimeOut == nil || !rec.TimeOut.Equal(afternoon) {
		t.Errorf("time_out = %v, want %v", rec.TimeOut, afternoon)
	}
	if rec.Status != string(StatusPresent) {
		t.Errorf("status = %q, want Present", rec.Status)
	}
}

func TestProcessScanRequiresUser(t *testing.T) {
	p := newTestProcessor(newMemStore(), &memDirectory{}, nil)

	if _, err := p.ProcessScan(context.Background(), 0, "", at("2024-03-05", 7, 0)); err != ErrMissingUser {
		t.Fatalf("err = %v, want ErrMissingUser", err)
	}
}

func TestProcessScanWeekendRejected(t *testing.T) {
	store := newMemStore()
	p := newTestProcessor(store, &memDirectory{}, nil)

	res, err := p.ProcessScan(context.Background(), 7, "Ana", at("2024-03-09", 7, 0))
	if err != nil {
		t.Fatalf("weekend scan: %v", err)
	}
	if res.Kind != KindRejected || res.Status != StatusNoClass {
		t.Fatalf("weekend scan = %+v, want rejected with No Class", res)
	}
	if len(store.snapshot()) != 0 {
		t.Error("weekend scan must not create a record")
	}
}

func TestProcessScanClosedWithoutRecord(t *testing.T) {
	store := newMemStore()
	p := newTestProcessor(store, &memDirectory{}, nil)

	res, err := p.ProcessScan(context.Background(), 7, "Ana", at("2024-03-05", 16, 10))
	if err != nil {
		t.Fatalf("late scan: %v", err)
	}
	if res.Kind != KindRejected {
		t.Fatalf("kind = %q, want %q", res.Kind, KindRejected)
	}
	if len(store.snapshot()) != 0 {
		t.Error("post-closing scan must not create a record")
	}
}

func TestProcessScanClosesYesterdayOpenRecord(t *testing.T) {
	store := newMemStore()
	p := newTestProcessor(store, &memDirectory{}, nil)
	ctx := context.Background()

	// Open record from Monday, never timed out.
	if _, err := p.ProcessScan(ctx, 7, "Ana", at("2024-03-04", 7, 5)); err != nil {
		t.Fatalf("monday scan: %v", err)
	}

	// Tuesday's first scan must close Monday and open Tuesday.
	res, err := p.ProcessScan(ctx, 7, "Ana", at("2024-03-05", 6, 55))
	if err != nil {
		t.Fatalf("tuesday scan: %v", err)
	}
	if res.Kind != KindTimeIn {
		t.Fatalf("tuesday kind = %q, want %q", res.Kind, KindTimeIn)
	}

	recs := store.snapshot()
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	monday := recs[0]
	if monday.TimeOut == nil {
		t.Fatal("monday record still open")
	}
	if !monday.AutoClosed {
		t.Error("monday record should be flagged auto-closed")
	}
	if got := monday.TimeOut.Hour(); got != testSchedule().ClosingHour {
		t.Errorf("monday time_out hour = %d, want %d", got, testSchedule().ClosingHour)
	}
}

func TestProcessScanAutoClosedIsTerminal(t *testing.T) {
	store := newMemStore()
	p := newTestProcessor(store, &memDirectory{}, nil)
	ctx := context.Background()

	if _, err := p.ProcessScan(ctx, 7, "Ana", at("2024-03-05", 7, 5)); err != nil {
		t.Fatalf("time-in: %v", err)
	}
	sw := NewSweeper(store, &memDirectory{}, nil, nil, testSchedule(), zap.NewNop().Sugar())
	if _, err := sw.AutoClose(ctx, at("2024-03-05", 16, 0)); err != nil {
		t.Fatalf("auto-close: %v", err)
	}

	// A scan after the sweep is acknowledged but does not rewrite the time-out.
	res, err := p.ProcessScan(ctx, 7, "Ana", at("2024-03-05", 16, 20))
	if err != nil {
		t.Fatalf("late scan: %v", err)
	}
	if res.Kind != KindComplete {
		t.Fatalf("kind = %q, want %q", res.Kind, KindComplete)
	}
	rec := store.snapshot()[0]
	if rec.TimeOut.Hour() != 16 || rec.TimeOut.Minute() != 0 {
		t.Errorf("time_out = %v, sweep's value must stand", rec.TimeOut)
	}
}

func TestProcessScanLateNotifiesTeacher(t *testing.T) {
	store := newMemStore()
	dir := &memDirectory{students: []uint{7}, teachers: map[uint]uint{7: 3}}
	notifier := newChanNotifier()
	p := newTestProcessor(store, dir, notifier)

	res, err := p.ProcessScan(context.Background(), 7, "Ana", at("2024-03-05", 7, 10))
	if err != nil {
		t.Fatalf("late time-in: %v", err)
	}
	if res.Status != StatusLate {
		t.Fatalf("status = %q, want Late", res.Status)
	}

	select {
	case n := <-notifier.ch:
		if n.TeacherID != 3 || n.StudentID != 7 {
			t.Errorf("notification routed to teacher=%d student=%d, want 3/7", n.TeacherID, n.StudentID)
		}
		if n.Kind != NotificationLateAbsent {
			t.Errorf("kind = %q, want %q", n.Kind, NotificationLateAbsent)
		}
		if !strings.Contains(n.Message, "late") {
			t.Errorf("message %q should mention lateness", n.Message)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no notification emitted for late scan")
	}
}

func TestProcessScanPresentDoesNotNotify(t *testing.T) {
	dir := &memDirectory{students: []uint{7}, teachers: map[uint]uint{7: 3}}
	notifier := newChanNotifier()
	p := newTestProcessor(newMemStore(), dir, notifier)

	if _, err := p.ProcessScan(context.Background(), 7, "Ana", at("2024-03-05", 6, 40)); err != nil {
		t.Fatalf("time-in: %v", err)
	}

	select {
	case n := <-notifier.ch:
		t.Fatalf("unexpected notification for on-time scan: %+v", n)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestProcessScanRetriesTransientReadFailure(t *testing.T) {
	store := newMemStore()
	store.failFind = true
	p := newTestProcessor(store, &memDirectory{}, nil)

	res, err := p.ProcessScan(context.Background(), 7, "Ana", at("2024-03-05", 6, 50))
	if err != nil {
		t.Fatalf("scan after transient failure: %v", err)
	}
	if res.Kind != KindTimeIn {
		t.Fatalf("kind = %q, want %q", res.Kind, KindTimeIn)
	}
}

func TestProcessScanConcurrentSameUser(t *testing.T) {
	store := newMemStore()
	p := newTestProcessor(store, &memDirectory{}, nil)
	now := at("2024-03-05", 6, 50)

	const scans = 8
	done := make(chan error, scans)
	for i := 0; i < scans; i++ {
		go func() {
			_, err := p.ProcessScan(context.Background(), 7, "Ana", now)
			done <- err
		}()
	}
	for i := 0; i < scans; i++ {
		if err := <-done; err != nil {
			t.Fatalf("concurrent scan: %v", err)
		}
	}

	recs := store.snapshot()
	if len(recs) != 1 {
		t.Fatalf("got %d records after concurrent scans, want 1", len(recs))
	}
}
