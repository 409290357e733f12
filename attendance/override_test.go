package attendance

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/campusgate/attendance-backend/models"
)

func TestOverrideStatus(t *testing.T) {
	tests := []struct {
		typ    string
		want   Status
		wantOK bool
	}{
		{models.AnnouncementSuspension, StatusSuspended, true},
		{models.AnnouncementHoliday, StatusHoliday, true},
		{models.AnnouncementGeneral, "", false},
		{"", "", false},
	}

	for _, tc := range tests {
		got, ok := OverrideStatus(tc.typ)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("OverrideStatus(%q) = (%q, %v), want (%q, %v)", tc.typ, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestOverriderApply(t *testing.T) {
	store := newMemStore()
	dir := &memDirectory{students: []uint{1, 2, 3}}
	p := newTestProcessor(store, dir, nil)
	ctx := context.Background()

	// Students 1 and 2 scanned before the suspension was declared.
	in1 := at("2024-03-05", 6, 50)
	if _, err := p.ProcessScan(ctx, 1, "Ana", in1); err != nil {
		t.Fatalf("scan 1: %v", err)
	}
	if _, err := p.ProcessScan(ctx, 2, "Ben", at("2024-03-05", 7, 10)); err != nil {
		t.Fatalf("scan 2: %v", err)
	}

	over := NewOverrider(store, dir, zap.NewNop().Sugar())
	day := Day(in1)

	status, err := over.Apply(ctx, day, models.AnnouncementSuspension)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if status != StatusSuspended {
		t.Fatalf("status = %q, want Suspended", status)
	}

	recs := store.snapshot()
	if len(recs) != 3 {
		t.Fatalf("got %d records, want one per student", len(recs))
	}
	for _, rec := range recs {
		if rec.Status != string(StatusSuspended) {
			t.Errorf("student %d status = %q, want Suspended", rec.UserID, rec.Status)
		}
	}
	// Scanned records keep their times; the backfilled one has none.
	if recs[0].TimeIn == nil || !recs[0].TimeIn.Equal(in1) {
		t.Error("override must preserve existing time_in values")
	}
	for _, rec := range recs {
		if rec.UserID == 3 && rec.TimeIn != nil {
			t.Error("backfilled record must not carry a time_in")
		}
	}

	// Re-applying changes nothing and inserts nothing.
	if _, err := over.Apply(ctx, day, models.AnnouncementSuspension); err != nil {
		t.Fatalf("re-apply: %v", err)
	}
	if got := len(store.snapshot()); got != 3 {
		t.Fatalf("re-apply grew records to %d", got)
	}
}

func TestOverriderApplyRejectsGeneral(t *testing.T) {
	over := NewOverrider(newMemStore(), &memDirectory{}, zap.NewNop().Sugar())

	if _, err := over.Apply(context.Background(), Day(at("2024-03-05", 0, 0)), models.AnnouncementGeneral); err != ErrNotOverride {
		t.Fatalf("err = %v, want ErrNotOverride", err)
	}
}
