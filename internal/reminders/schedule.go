// Package reminders computes reminder due times and fires due reminders.
package reminders

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fentz26/radar/internal/models"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule parses a five-field cron expression or a descriptor such as @weekly.
func ParseSchedule(expr string) (cron.Schedule, error) {
	sched, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", expr, err)
	}
	return sched, nil
}

// Validate checks type, frequency and schedule of a reminder.
func Validate(r models.Reminder) error {
	switch r.Type {
	case models.ReminderCheck, models.ReminderMaintenance, models.ReminderReplacement:
	default:
		return fmt.Errorf("unknown reminder type %q", r.Type)
	}
	switch r.Frequency {
	case models.FrequencyDaily, models.FrequencyWeekly, models.FrequencyMonthly:
		if r.Schedule != "" {
			return fmt.Errorf("schedule is only allowed with custom frequency")
		}
	case models.FrequencyCustom:
		if r.Schedule == "" {
			return fmt.Errorf("custom frequency requires a schedule")
		}
		if _, err := ParseSchedule(r.Schedule); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown reminder frequency %q", r.Frequency)
	}
	return nil
}

// step advances t by n periods of the reminder's frequency.
func step(freq models.ReminderFrequency, t time.Time, n int) time.Time {
	switch freq {
	case models.FrequencyDaily:
		return t.AddDate(0, 0, n)
	case models.FrequencyWeekly:
		return t.AddDate(0, 0, 7*n)
	default:
		return addMonths(t, n)
	}
}

// addMonths adds n calendar months to t, clamping the day to the last day
// of the target month so Jan 31 becomes Feb 28 rather than Mar 3.
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	return first.AddDate(0, 0, min(d, last)-1)
}

// NextDue returns the first occurrence of r strictly after now, counting
// from r.NextDue. A zero NextDue counts from now.
func NextDue(r models.Reminder, now time.Time) (time.Time, error) {
	if r.Frequency == models.FrequencyCustom {
		s, err := ParseSchedule(r.Schedule)
		if err != nil {
			return time.Time{}, err
		}
		// Cron schedules are anchored to wall-clock times, not to the previous due time.
		return s.Next(now), nil
	}
	if err := Validate(r); err != nil {
		return time.Time{}, err
	}

	anchor := r.NextDue
	if anchor.IsZero() {
		anchor = now
	}
	next := anchor
	// Count periods from the anchor so clamped months do not accumulate.
	for n := 1; !next.After(now); n++ {
		next = step(r.Frequency, anchor, n)
	}
	return next, nil
}

// FirstDue returns the initial due time for a new reminder: start when it
// is set, otherwise one period from now.
func FirstDue(r models.Reminder, start, now time.Time) (time.Time, error) {
	if !start.IsZero() {
		return start, nil
	}
	r.NextDue = now
	return NextDue(r, now)
}
