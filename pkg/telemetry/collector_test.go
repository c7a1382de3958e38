package telemetry

import (
	"context"
	"testing"
	"time"
)

type fakeSource struct {
	live, depth, auditDepth int
}

func (f *fakeSource) Stats() (int, int, int) { return f.live, f.depth, f.auditDepth }

func TestCollectorSamplesGauges(t *testing.T) {
	metrics := NewMetrics()
	source := &fakeSource{live: 3, depth: 7, auditDepth: 2}
	c := NewCollector(metrics, source, 10*time.Millisecond)
	c.Start()
	defer c.Stop(context.Background())

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if testutilGaugeValue(metrics.LiveProcesses) == 3 &&
			testutilGaugeValue(metrics.MailboxDepth) == 7 &&
			testutilGaugeValue(metrics.AuditQueueDepth) == 2 {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("gauges not sampled within timeout: live=%v depth=%v audit=%v",
		testutilGaugeValue(metrics.LiveProcesses), testutilGaugeValue(metrics.MailboxDepth),
		testutilGaugeValue(metrics.AuditQueueDepth))
}

func TestCollectorSamplesReactorQueueDepth(t *testing.T) {
	metrics := NewMetrics()
	source := &fakeSource{}
	// Start from a value no sample can produce, so reaching 0 proves a
	// sample ran.
	metrics.ReactorQueueDepth.Set(-1)
	c := NewCollector(metrics, source, 10*time.Millisecond)
	c.Start()
	defer c.Stop(context.Background())

	// scheduleNext re-arms only after a sample finishes, so the sampling
	// event has left the reactor's mailbox when it reads the depth.
	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		if testutilGaugeValue(metrics.ReactorQueueDepth) == 0 {
			return
		}
	}
	t.Fatalf("reactor queue depth gauge never settled to 0, got %v",
		testutilGaugeValue(metrics.ReactorQueueDepth))
}
