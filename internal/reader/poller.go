package reader

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ScanFunc applies one sweep of tags for the poller's user.
type ScanFunc func(ctx context.Context, tags []string) error

// Poller reads from a Reader on a fixed interval and applies each sweep.
type Poller struct {
	reader   Reader
	scan     ScanFunc
	interval time.Duration
	log      logrus.FieldLogger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPoller creates a poller. interval <= 0 means ten seconds.
func NewPoller(r Reader, scan ScanFunc, interval time.Duration, log logrus.FieldLogger) *Poller {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Poller{
		reader:   r,
		scan:     scan,
		interval: interval,
		log:      log.WithField("reader", r.Name()),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins polling.
func (p *Poller) Start() {
	p.wg.Add(1)
	go p.loop()
	p.log.WithField("interval", p.interval).Info("reader poller started")
}

// Stop stops polling and waits for the current sweep.
func (p *Poller) Stop() {
	p.cancel()
	p.wg.Wait()
	p.log.Info("reader poller stopped")
}

func (p *Poller) loop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.Poll(p.ctx)
		}
	}
}

// Poll performs one read-and-scan cycle.
func (p *Poller) Poll(ctx context.Context) error {
	tags, err := p.reader.Read(ctx)
	if err != nil {
		p.log.WithError(err).Warn("read tags")
		return err
	}
	if err := p.scan(ctx, tags); err != nil {
		p.log.WithError(err).Warn("apply scan")
		return err
	}
	p.log.WithField("tags", len(tags)).Debug("sweep applied")
	return nil
}
