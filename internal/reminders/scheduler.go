package reminders

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fentz26/radar/internal/models"
)

// Source is the reminder storage the scheduler polls.
type Source interface {
	DueReminders(ctx context.Context, now time.Time) ([]models.Reminder, error)
	MarkReminderFired(ctx context.Context, id string, firedAt, nextDue time.Time) error
}

// FireFunc is called once for every reminder that comes due.
type FireFunc func(ctx context.Context, r models.Reminder)

// Scheduler polls for due reminders on a fixed interval.
type Scheduler struct {
	source   Source
	fire     FireFunc
	log      logrus.FieldLogger
	interval time.Duration
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a scheduler. interval <= 0 means one minute.
func New(src Source, fire FireFunc, log logrus.FieldLogger, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		source:   src,
		fire:     fire,
		log:      log.WithField("component", "reminders"),
		interval: interval,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins the polling loop.
func (sch *Scheduler) Start() {
	sch.wg.Add(1)
	go sch.loop()
	sch.log.WithField("interval", sch.interval).Info("reminder scheduler started")
}

// Stop stops the loop and waits for an in-flight poll to finish.
func (sch *Scheduler) Stop() {
	sch.cancel()
	sch.wg.Wait()
	sch.log.Info("reminder scheduler stopped")
}

func (sch *Scheduler) loop() {
	defer sch.wg.Done()

	ticker := time.NewTicker(sch.interval)
	defer ticker.Stop()

	sch.Tick(sch.ctx)
	for {
		select {
		case <-sch.ctx.Done():
			return
		case <-ticker.C:
			sch.Tick(sch.ctx)
		}
	}
}

// Tick fires every due reminder once and returns how many fired.
func (sch *Scheduler) Tick(ctx context.Context) int {
	now := sch.now().UTC()
	due, err := sch.source.DueReminders(ctx, now)
	if err != nil {
		sch.log.WithError(err).Warn("query due reminders")
		return 0
	}

	fired := 0
	for _, r := range due {
		next, err := NextDue(r, now)
		if err != nil {
			sch.log.WithError(err).WithField("reminder", r.ID).Warn("compute next due")
			continue
		}
		if err := sch.source.MarkReminderFired(ctx, r.ID, now, next); err != nil {
			sch.log.WithError(err).WithField("reminder", r.ID).Warn("mark reminder fired")
			continue
		}
		r.LastFiredAt = &now
		r.NextDue = next
		if sch.fire != nil {
			sch.fire(ctx, r)
		}
		fired++
	}
	return fired
}
