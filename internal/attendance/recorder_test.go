package attendance

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/facepoint/internal/config"
	"github.com/your-org/facepoint/internal/models"
)

// fakeStore keeps one day's records in memory.
type fakeStore struct {
	records map[string]*models.Attendance // keyed by employeeID+date
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[string]*models.Attendance{}}
}

func key(employeeID uuid.UUID, date string) string {
	return employeeID.String() + "/" + date
}

func (f *fakeStore) GetAttendance(ctx context.Context, employeeID uuid.UUID, date string) (*models.Attendance, error) {
	if a, ok := f.records[key(employeeID, date)]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeStore) CreateAttendance(ctx context.Context, a *models.Attendance) error {
	cp := *a
	f.records[key(a.EmployeeID, a.Date)] = &cp
	return nil
}

func (f *fakeStore) SetAttendanceSlot(ctx context.Context, employeeID uuid.UUID, date, slot, value string, status models.AttendanceStatus) error {
	a := f.records[key(employeeID, date)]
	switch slot {
	case SlotMorningIn:
		a.MorningIn = value
	case SlotLunchOut:
		a.LunchOut = value
	case SlotAfternoonIn:
		a.AfternoonIn = value
	case SlotTimeOut:
		a.TimeOut = value
	}
	if status != "" {
		a.Status = status
	}
	return nil
}

func testRecorder(t *testing.T, store Store) *Recorder {
	t.Helper()
	r, err := NewRecorder(store, config.AttendanceConfig{
		MorningMinTime:         "05:00",
		MorningLateThreshold:   "08:01",
		AfternoonLateThreshold: "13:01",
	})
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	return r
}

func at(t *testing.T, clock string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02 15:04", "2026-03-02 "+clock)
	if err != nil {
		t.Fatalf("parse %q: %v", clock, err)
	}
	return ts
}

func TestClockMorningSlots(t *testing.T) {
	tests := []struct {
		name     string
		clock    string
		wantSlot string
		wantLate bool
		wantMsg  string
	}{
		{"on time", "07:30", SlotMorningIn, false, "Good morning!"},
		{"exactly at threshold start", "08:00", SlotMorningIn, false, "Good morning!"},
		{"late", "08:01", SlotMorningIn, true, "(Late)"},
		{"very late morning", "11:59", SlotMorningIn, true, "(Late)"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeStore()
			r := testRecorder(t, store)
			r.now = func() time.Time { return at(t, tc.clock) }

			id := uuid.New()
			out, err := r.Clock(context.Background(), id)
			if err != nil {
				t.Fatalf("Clock: %v", err)
			}
			if !out.Accepted || out.Slot != tc.wantSlot {
				t.Fatalf("outcome = %+v; want accepted slot %s", out, tc.wantSlot)
			}
			if out.Late != tc.wantLate {
				t.Errorf("Late = %v; want %v", out.Late, tc.wantLate)
			}
			if !strings.Contains(out.Message, tc.wantMsg) {
				t.Errorf("message = %q; want it to contain %q", out.Message, tc.wantMsg)
			}

			rec, _ := store.GetAttendance(context.Background(), id, "2026-03-02")
			if rec == nil || rec.MorningIn == "" {
				t.Fatal("morning_in not persisted")
			}
			wantStatus := models.StatusPresent
			if tc.wantLate {
				wantStatus = models.StatusLate
			}
			if rec.Status != wantStatus {
				t.Errorf("status = %s; want %s", rec.Status, wantStatus)
			}
		})
	}
}

func TestClockRejectsEarlyMorning(t *testing.T) {
	store := newFakeStore()
	r := testRecorder(t, store)
	r.now = func() time.Time { return at(t, "04:30") }

	out, err := r.Clock(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Clock: %v", err)
	}
	if out.Accepted {
		t.Fatal("4:30 AM clock-in was accepted")
	}
	if !strings.Contains(out.Message, "5:00 AM") {
		t.Errorf("message = %q; want the 5:00 AM rule mentioned", out.Message)
	}
	if len(store.records) != 0 {
		t.Error("rejected clock-in created a record")
	}
}

func TestClockFullDaySequence(t *testing.T) {
	store := newFakeStore()
	r := testRecorder(t, store)
	id := uuid.New()

	steps := []struct {
		clock    string
		wantSlot string
	}{
		{"07:45", SlotMorningIn},
		{"11:30", SlotLunchOut},
		{"12:45", SlotAfternoonIn},
		{"17:05", SlotTimeOut},
	}

	for _, step := range steps {
		r.now = func() time.Time { return at(t, step.clock) }
		out, err := r.Clock(context.Background(), id)
		if err != nil {
			t.Fatalf("Clock at %s: %v", step.clock, err)
		}
		if !out.Accepted || out.Slot != step.wantSlot {
			t.Fatalf("at %s got %+v; want slot %s", step.clock, out, step.wantSlot)
		}
		if out.Late {
			t.Errorf("at %s marked late", step.clock)
		}
	}

	// A fifth scan has nothing left to record.
	r.now = func() time.Time { return at(t, "18:00") }
	out, err := r.Clock(context.Background(), id)
	if err != nil {
		t.Fatalf("Clock: %v", err)
	}
	if out.Accepted || !out.Complete {
		t.Fatalf("fifth scan: %+v; want complete day", out)
	}

	rec, _ := store.GetAttendance(context.Background(), id, "2026-03-02")
	if rec.Status != models.StatusPresent {
		t.Errorf("final status = %s; want Present", rec.Status)
	}
}

func TestClockAfternoonLateness(t *testing.T) {
	tests := []struct {
		name          string
		morningClock  string // empty: no morning record
		afternoonClock string
		wantLateFlag  bool
		wantStatus    models.AttendanceStatus
	}{
		{"on-time afternoon, no morning", "", "12:30", false, models.StatusPresent},
		{"late afternoon, no morning", "", "14:00", true, models.StatusLate},
		{"on-time afternoon after on-time morning", "07:30", "12:30", false, models.StatusPresent},
		{"on-time afternoon after late morning", "09:00", "12:30", false, models.StatusLate},
		{"late afternoon after on-time morning", "07:30", "13:30", true, models.StatusLate},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeStore()
			r := testRecorder(t, store)
			id := uuid.New()

			if tc.morningClock != "" {
				r.now = func() time.Time { return at(t, tc.morningClock) }
				if _, err := r.Clock(context.Background(), id); err != nil {
					t.Fatalf("morning Clock: %v", err)
				}
				// lunch so the next scan lands in the afternoon slot
				r.now = func() time.Time { return at(t, "11:45") }
				if _, err := r.Clock(context.Background(), id); err != nil {
					t.Fatalf("lunch Clock: %v", err)
				}
			}

			r.now = func() time.Time { return at(t, tc.afternoonClock) }
			out, err := r.Clock(context.Background(), id)
			if err != nil {
				t.Fatalf("afternoon Clock: %v", err)
			}
			if !out.Accepted || out.Slot != SlotAfternoonIn {
				t.Fatalf("outcome = %+v; want afternoon_in", out)
			}
			if out.Late != tc.wantLateFlag {
				t.Errorf("Late = %v; want %v", out.Late, tc.wantLateFlag)
			}

			rec, _ := store.GetAttendance(context.Background(), id, "2026-03-02")
			if rec.Status != tc.wantStatus {
				t.Errorf("status = %s; want %s", rec.Status, tc.wantStatus)
			}
		})
	}
}

func TestClockFirstScanInAfternoon(t *testing.T) {
	store := newFakeStore()
	r := testRecorder(t, store)
	r.now = func() time.Time { return at(t, "12:00") }

	out, err := r.Clock(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Clock: %v", err)
	}
	// 12:00 PM is the afternoon boundary, inclusive.
	if !out.Accepted || out.Slot != SlotAfternoonIn {
		t.Fatalf("outcome = %+v; want afternoon_in at noon", out)
	}
	if out.Late {
		t.Error("noon clock-in marked late")
	}
}
