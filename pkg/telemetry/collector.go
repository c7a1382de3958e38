package telemetry

import (
	"context"
	"time"

	"github.com/fluxorio/relay/pkg/reactor"
)

// Source is the subset of *runtime.Runtime the Collector samples. Kept
// as a plain-int interface rather than importing pkg/runtime directly, so
// telemetry (imported by pkg/admin) never needs to depend back on the
// runtime package that depends on admin's ProcessInfo type.
type Source interface {
	Stats() (live, mailboxDepth, auditQueueDepth int)
}

// Collector periodically samples a Source into a Metrics registry. It is
// driven by a pkg/reactor.Reactor used as a fixed-period gauge sampler:
// each tick is one Event submitted to the reactor's mailbox rather than
// run inline, so a slow Prometheus scrape never blocks the scheduling
// goroutine.
type Collector struct {
	metrics  *Metrics
	source   Source
	reactor  *reactor.Reactor
	interval time.Duration
	timer    *time.Timer
}

// NewCollector creates a Collector. Call Start to begin sampling.
func NewCollector(metrics *Metrics, source Source, interval time.Duration) *Collector {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Collector{
		metrics:  metrics,
		source:   source,
		reactor:  reactor.NewReactor(1),
		interval: interval,
	}
}

// Start begins periodic sampling.
func (c *Collector) Start() {
	c.reactor.Start()
	c.scheduleNext()
}

func (c *Collector) scheduleNext() {
	c.timer = c.reactor.Schedule(c.sample, c.interval)
}

func (c *Collector) sample() {
	live, depth, auditDepth := c.source.Stats()
	c.metrics.LiveProcesses.Set(float64(live))
	c.metrics.MailboxDepth.Set(float64(depth))
	c.metrics.AuditQueueDepth.Set(float64(auditDepth))
	c.metrics.ReactorQueueDepth.Set(float64(c.reactor.QueueDepth()))
	c.scheduleNext()
}

// Stop halts sampling and drains the reactor.
func (c *Collector) Stop(ctx context.Context) {
	if c.timer != nil {
		c.timer.Stop()
	}
	c.reactor.Stop(ctx)
}
