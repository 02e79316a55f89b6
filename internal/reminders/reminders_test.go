package reminders

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fentz26/radar/internal/models"
)

var base = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		r       models.Reminder
		wantErr bool
	}{
		{"daily", models.Reminder{Type: models.ReminderCheck, Frequency: models.FrequencyDaily}, false},
		{"custom cron", models.Reminder{Type: models.ReminderMaintenance, Frequency: models.FrequencyCustom, Schedule: "0 8 * * 1"}, false},
		{"custom descriptor", models.Reminder{Type: models.ReminderReplacement, Frequency: models.FrequencyCustom, Schedule: "@weekly"}, false},
		{"custom without schedule", models.Reminder{Type: models.ReminderCheck, Frequency: models.FrequencyCustom}, true},
		{"bad cron", models.Reminder{Type: models.ReminderCheck, Frequency: models.FrequencyCustom, Schedule: "every day"}, true},
		{"schedule on weekly", models.Reminder{Type: models.ReminderCheck, Frequency: models.FrequencyWeekly, Schedule: "* * * * *"}, true},
		{"unknown type", models.Reminder{Type: "nag", Frequency: models.FrequencyDaily}, true},
		{"unknown frequency", models.Reminder{Type: models.ReminderCheck, Frequency: "hourly"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.r)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNextDue(t *testing.T) {
	tests := []struct {
		name string
		r    models.Reminder
		now  time.Time
		want time.Time
	}{
		{
			name: "daily one period",
			r:    models.Reminder{Type: models.ReminderCheck, Frequency: models.FrequencyDaily, NextDue: base},
			now:  base,
			want: base.AddDate(0, 0, 1),
		},
		{
			name: "weekly skips missed periods",
			r:    models.Reminder{Type: models.ReminderCheck, Frequency: models.FrequencyWeekly, NextDue: base},
			now:  base.AddDate(0, 0, 20),
			want: base.AddDate(0, 0, 21),
		},
		{
			name: "monthly",
			r:    models.Reminder{Type: models.ReminderCheck, Frequency: models.FrequencyMonthly, NextDue: base},
			now:  base.Add(time.Hour),
			want: base.AddDate(0, 1, 0),
		},
		{
			name: "monthly clamps to month end",
			r:    models.Reminder{Type: models.ReminderCheck, Frequency: models.FrequencyMonthly, NextDue: time.Date(2025, 1, 31, 9, 0, 0, 0, time.UTC)},
			now:  time.Date(2025, 1, 31, 9, 0, 0, 0, time.UTC),
			want: time.Date(2025, 2, 28, 9, 0, 0, 0, time.UTC),
		},
		{
			name: "monthly catch-up keeps anchor day",
			r:    models.Reminder{Type: models.ReminderCheck, Frequency: models.FrequencyMonthly, NextDue: time.Date(2025, 1, 31, 9, 0, 0, 0, time.UTC)},
			now:  time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			want: time.Date(2025, 3, 31, 9, 0, 0, 0, time.UTC),
		},
		{
			name: "monthly leap year",
			r:    models.Reminder{Type: models.ReminderCheck, Frequency: models.FrequencyMonthly, NextDue: time.Date(2024, 1, 30, 9, 0, 0, 0, time.UTC)},
			now:  time.Date(2024, 1, 30, 9, 0, 0, 0, time.UTC),
			want: time.Date(2024, 2, 29, 9, 0, 0, 0, time.UTC),
		},
		{
			name: "custom follows cron",
			r:    models.Reminder{Type: models.ReminderCheck, Frequency: models.FrequencyCustom, Schedule: "30 7 * * *", NextDue: base},
			now:  base,
			want: time.Date(2025, 3, 11, 7, 30, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextDue(tt.r, tt.now)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %v, got %v", tt.want, got)
		})
	}
}

func TestFirstDue(t *testing.T) {
	r := models.Reminder{Type: models.ReminderCheck, Frequency: models.FrequencyDaily}

	start := base.Add(2 * time.Hour)
	got, err := FirstDue(r, start, base)
	require.NoError(t, err)
	assert.Equal(t, start, got)

	got, err = FirstDue(r, time.Time{}, base)
	require.NoError(t, err)
	assert.Equal(t, base.AddDate(0, 0, 1), got)
}

type fakeSource struct {
	mu      sync.Mutex
	due     []models.Reminder
	fired   map[string]time.Time
	failIDs map[string]bool
	err     error
}

func (f *fakeSource) DueReminders(_ context.Context, now time.Time) ([]models.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Reminder
	for _, r := range f.due {
		if r.IsActive && !r.NextDue.After(now) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeSource) MarkReminderFired(_ context.Context, id string, _, nextDue time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failIDs[id] {
		return errors.New("write failed")
	}
	if f.fired == nil {
		f.fired = map[string]time.Time{}
	}
	f.fired[id] = nextDue
	for i := range f.due {
		if f.due[i].ID == id {
			f.due[i].NextDue = nextDue
		}
	}
	return nil
}

func newTestScheduler(src Source, fire FireFunc) *Scheduler {
	logger, _ := test.NewNullLogger()
	sch := New(src, fire, logger, time.Hour)
	sch.now = func() time.Time { return base }
	return sch
}

func TestTick(t *testing.T) {
	src := &fakeSource{due: []models.Reminder{
		{ID: "r1", Type: models.ReminderCheck, Frequency: models.FrequencyDaily, NextDue: base.Add(-time.Minute), IsActive: true},
		{ID: "r2", Type: models.ReminderCheck, Frequency: models.FrequencyDaily, NextDue: base.Add(time.Minute), IsActive: true},
		{ID: "r3", Type: models.ReminderCheck, Frequency: models.FrequencyDaily, NextDue: base.Add(-time.Hour), IsActive: false},
	}}
	var fired []string
	sch := newTestScheduler(src, func(_ context.Context, r models.Reminder) {
		fired = append(fired, r.ID)
		assert.True(t, r.NextDue.After(base))
		require.NotNil(t, r.LastFiredAt)
	})

	assert.Equal(t, 1, sch.Tick(context.Background()))
	assert.Equal(t, []string{"r1"}, fired)
	assert.Equal(t, base.Add(-time.Minute).AddDate(0, 0, 1), src.fired["r1"])

	// Already advanced, so a second tick fires nothing.
	assert.Equal(t, 0, sch.Tick(context.Background()))
}

func TestTick_Errors(t *testing.T) {
	src := &fakeSource{
		due: []models.Reminder{
			{ID: "bad", Type: models.ReminderCheck, Frequency: models.FrequencyCustom, Schedule: "nope", NextDue: base, IsActive: true},
			{ID: "fail", Type: models.ReminderCheck, Frequency: models.FrequencyDaily, NextDue: base, IsActive: true},
			{ID: "ok", Type: models.ReminderCheck, Frequency: models.FrequencyDaily, NextDue: base, IsActive: true},
		},
		failIDs: map[string]bool{"fail": true},
	}
	logger, hook := test.NewNullLogger()
	sch := New(src, nil, logger, time.Hour)
	sch.now = func() time.Time { return base }

	assert.Equal(t, 1, sch.Tick(context.Background()))
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

	src.err = errors.New("db down")
	assert.Equal(t, 0, sch.Tick(context.Background()))
}

func TestStartStop(t *testing.T) {
	src := &fakeSource{due: []models.Reminder{
		{ID: "r1", Type: models.ReminderCheck, Frequency: models.FrequencyDaily, NextDue: base, IsActive: true},
	}}
	done := make(chan struct{}, 1)
	sch := newTestScheduler(src, func(context.Context, models.Reminder) { done <- struct{}{} })

	sch.Start()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reminder did not fire on start")
	}
	sch.Stop()
}
