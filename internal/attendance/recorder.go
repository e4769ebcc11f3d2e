// Package attendance implements the daily time-slot bookkeeping that sits
// behind a successful face recognition. A work day has four slots filled in
// order: morning in, lunch out, afternoon in, time out. The slot chosen for
// a clock event depends on the wall clock and on which slots are already
// filled for that employee today.
package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/facepoint/internal/config"
	"github.com/your-org/facepoint/internal/models"
	"github.com/your-org/facepoint/internal/observability"
)

// Slot times are stored as 12-hour clock strings to match how they are
// displayed, e.g. "08:15 AM".
const timeLayout = "03:04 PM"

const (
	SlotMorningIn   = "morning_in"
	SlotLunchOut    = "lunch_out"
	SlotAfternoonIn = "afternoon_in"
	SlotTimeOut     = "time_out"
)

// Store is the subset of the persistence layer the recorder needs.
type Store interface {
	GetAttendance(ctx context.Context, employeeID uuid.UUID, date string) (*models.Attendance, error)
	CreateAttendance(ctx context.Context, a *models.Attendance) error
	SetAttendanceSlot(ctx context.Context, employeeID uuid.UUID, date, slot, value string, status models.AttendanceStatus) error
}

// Outcome describes what a clock event did (or why it was refused).
type Outcome struct {
	Accepted bool
	Slot     string
	Time     string
	Late     bool
	Message  string
	// Complete is set when every slot for the day is already filled.
	Complete bool
}

type Recorder struct {
	store Store
	cfg   config.AttendanceConfig

	morningMin    time.Time
	morningLate   time.Time
	afternoonLate time.Time
	noon          time.Time

	now func() time.Time
}

func NewRecorder(store Store, cfg config.AttendanceConfig) (*Recorder, error) {
	morningMin, err := time.Parse("15:04", cfg.MorningMinTime)
	if err != nil {
		return nil, fmt.Errorf("parse morning_min_time: %w", err)
	}
	morningLate, err := time.Parse("15:04", cfg.MorningLateThreshold)
	if err != nil {
		return nil, fmt.Errorf("parse morning_late_threshold: %w", err)
	}
	afternoonLate, err := time.Parse("15:04", cfg.AfternoonLateThreshold)
	if err != nil {
		return nil, fmt.Errorf("parse afternoon_late_threshold: %w", err)
	}
	noon, _ := time.Parse("15:04", "12:00")

	return &Recorder{
		store:         store,
		cfg:           cfg,
		morningMin:    morningMin,
		morningLate:   morningLate,
		afternoonLate: afternoonLate,
		noon:          noon,
		now:           time.Now,
	}, nil
}

// Clock records one attendance event for the employee at the current time,
// picking the next unfilled slot appropriate for the hour.
func (r *Recorder) Clock(ctx context.Context, employeeID uuid.UUID) (*Outcome, error) {
	now := r.now()
	date := now.Format("2006-01-02")
	clock := timeOfDay(now)
	clockStr := now.Format(timeLayout)
	afternoon := !clock.Before(r.noon)

	existing, err := r.store.GetAttendance(ctx, employeeID, date)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		return r.firstClock(ctx, employeeID, date, clock, clockStr, afternoon)
	}

	var out *Outcome
	if afternoon {
		out, err = r.afternoonSlot(ctx, existing, clock, clockStr)
	} else {
		out, err = r.morningSlot(ctx, existing, clock, clockStr)
	}
	if err != nil {
		return nil, err
	}
	if out.Accepted {
		observability.AttendanceRecorded.WithLabelValues(out.Slot).Inc()
	}
	return out, nil
}

// firstClock creates the day's record with whichever slot the clock lands in.
func (r *Recorder) firstClock(ctx context.Context, employeeID uuid.UUID, date string, clock time.Time, clockStr string, afternoon bool) (*Outcome, error) {
	rec := &models.Attendance{
		EmployeeID:         employeeID,
		Date:               date,
		VerificationMethod: models.VerificationFace,
	}

	var out *Outcome
	if afternoon {
		late := r.isLateAfternoon(clock)
		rec.AfternoonIn = clockStr
		rec.Status = statusFor(late)
		out = &Outcome{
			Accepted: true, Slot: SlotAfternoonIn, Time: clockStr, Late: late,
			Message: fmt.Sprintf("Afternoon time in recorded at %s%s", clockStr, lateSuffix(late)),
		}
	} else {
		if clock.Before(r.morningMin) {
			return &Outcome{
				Accepted: false,
				Message:  fmt.Sprintf("Morning time-in is allowed from 5:00 AM onwards. Current time: %s", clockStr),
			}, nil
		}
		late := r.isLateMorning(clock)
		rec.MorningIn = clockStr
		rec.Status = statusFor(late)
		out = &Outcome{
			Accepted: true, Slot: SlotMorningIn, Time: clockStr, Late: late,
			Message: fmt.Sprintf("Good morning! Time in recorded at %s%s", clockStr, lateSuffix(late)),
		}
	}

	if err := r.store.CreateAttendance(ctx, rec); err != nil {
		return nil, err
	}
	observability.AttendanceRecorded.WithLabelValues(out.Slot).Inc()
	return out, nil
}

func (r *Recorder) morningSlot(ctx context.Context, existing *models.Attendance, clock time.Time, clockStr string) (*Outcome, error) {
	switch {
	case existing.MorningIn == "":
		if clock.Before(r.morningMin) {
			return &Outcome{
				Accepted: false,
				Message:  fmt.Sprintf("Morning time-in is allowed from 5:00 AM onwards. Current time: %s", clockStr),
			}, nil
		}
		late := r.isLateMorning(clock)
		if err := r.setSlot(ctx, existing, SlotMorningIn, clockStr, statusFor(late)); err != nil {
			return nil, err
		}
		return &Outcome{
			Accepted: true, Slot: SlotMorningIn, Time: clockStr, Late: late,
			Message: fmt.Sprintf("Good morning! Time in recorded at %s%s", clockStr, lateSuffix(late)),
		}, nil

	case existing.LunchOut == "":
		// Lunch can be taken at any time.
		if err := r.setSlot(ctx, existing, SlotLunchOut, clockStr, ""); err != nil {
			return nil, err
		}
		return &Outcome{
			Accepted: true, Slot: SlotLunchOut, Time: clockStr,
			Message: fmt.Sprintf("Lunch break recorded at %s", clockStr),
		}, nil

	case existing.AfternoonIn == "":
		return r.recordAfternoonIn(ctx, existing, clock, clockStr)

	case existing.TimeOut == "":
		return r.recordTimeOut(ctx, existing, clockStr)

	default:
		return &Outcome{
			Accepted: false, Complete: true,
			Message: fmt.Sprintf("All attendance records for today are complete. Last update: %s", clockStr),
		}, nil
	}
}

func (r *Recorder) afternoonSlot(ctx context.Context, existing *models.Attendance, clock time.Time, clockStr string) (*Outcome, error) {
	switch {
	case existing.AfternoonIn == "":
		return r.recordAfternoonIn(ctx, existing, clock, clockStr)
	case existing.TimeOut == "":
		return r.recordTimeOut(ctx, existing, clockStr)
	default:
		return &Outcome{
			Accepted: false, Complete: true,
			Message: fmt.Sprintf("All attendance records for today are complete. Last update: %s", clockStr),
		}, nil
	}
}

// recordAfternoonIn marks the afternoon slot. The day is Late when either
// this clock-in is past the afternoon threshold or the morning already was.
func (r *Recorder) recordAfternoonIn(ctx context.Context, existing *models.Attendance, clock time.Time, clockStr string) (*Outcome, error) {
	late := r.isLateAfternoon(clock)
	dayLate := late
	if existing.MorningIn != "" {
		if morning, err := time.Parse(timeLayout, existing.MorningIn); err == nil {
			dayLate = dayLate || r.isLateMorning(morning)
		}
	}
	if err := r.setSlot(ctx, existing, SlotAfternoonIn, clockStr, statusFor(dayLate)); err != nil {
		return nil, err
	}
	return &Outcome{
		Accepted: true, Slot: SlotAfternoonIn, Time: clockStr, Late: late,
		Message: fmt.Sprintf("Afternoon time in recorded at %s%s", clockStr, lateSuffix(late)),
	}, nil
}

func (r *Recorder) recordTimeOut(ctx context.Context, existing *models.Attendance, clockStr string) (*Outcome, error) {
	if err := r.setSlot(ctx, existing, SlotTimeOut, clockStr, ""); err != nil {
		return nil, err
	}
	return &Outcome{
		Accepted: true, Slot: SlotTimeOut, Time: clockStr,
		Message: fmt.Sprintf("Time out recorded at %s. Have a great day!", clockStr),
	}, nil
}

func (r *Recorder) setSlot(ctx context.Context, existing *models.Attendance, slot, value string, status models.AttendanceStatus) error {
	return r.store.SetAttendanceSlot(ctx, existing.EmployeeID, existing.Date, slot, value, status)
}

func (r *Recorder) isLateMorning(clock time.Time) bool {
	return !clock.Before(r.morningLate)
}

func (r *Recorder) isLateAfternoon(clock time.Time) bool {
	return !clock.Before(r.afternoonLate)
}

func statusFor(late bool) models.AttendanceStatus {
	if late {
		return models.StatusLate
	}
	return models.StatusPresent
}

func lateSuffix(late bool) string {
	if late {
		return " (Late)"
	}
	return ""
}

// timeOfDay strips the date so wall-clock comparisons use the same zero
// reference as the parsed threshold times.
func timeOfDay(t time.Time) time.Time {
	parsed, _ := time.Parse("15:04", t.Format("15:04"))
	return parsed
}
