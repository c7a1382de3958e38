package worker_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fluxorio/relay/pkg/worker"
)

func TestWorkerPool_Submit(t *testing.T) {
	p := worker.NewWorkerPool(4, 10)
	p.Start()
	defer p.Stop(context.Background())

	var counter int32
	var wg sync.WaitGroup
	numJobs := 8
	wg.Add(numJobs)

	for i := 0; i < numJobs; i++ {
		p.Submit(func() {
			defer wg.Done()
			atomic.AddInt32(&counter, 1)
			time.Sleep(10 * time.Millisecond)
		})
	}

	wg.Wait()

	if atomic.LoadInt32(&counter) != int32(numJobs) {
		t.Errorf("Expected counter to be %d, but got %d", numJobs, atomic.LoadInt32(&counter))
	}
}

func TestWorkerPool_QueueFull(t *testing.T) {
	p := worker.NewWorkerPool(1, 1)
	p.Start()
	defer p.Stop(context.Background())

	// Block the worker.
	var wg sync.WaitGroup
	wg.Add(1)
	started := make(chan struct{})
	p.Submit(func() {
		close(started)
		wg.Wait()
	})
	<-started

	// The worker is busy, so one more job fills the one-slot queue.
	p.Submit(func() {})

	// The queue is now full. Submitting another job should block.
	submitted := make(chan error, 1)
	go func() { submitted <- p.Submit(func() {}) }()
	select {
	case err := <-submitted:
		wg.Done()
		t.Fatalf("Submit on a full queue should block, but returned %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	// Releasing the worker drains the queue and unblocks the Submit.
	wg.Done()
	if err := <-submitted; err != nil {
		t.Fatalf("Submit after the queue drained: %v", err)
	}
}

func TestWorkerPool_Stop(t *testing.T) {
	p := worker.NewWorkerPool(4, 10)
	p.Start()

	var counter int32
	for i := 0; i < 8; i++ {
		p.Submit(func() {
			atomic.AddInt32(&counter, 1)
			time.Sleep(10 * time.Millisecond)
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	p.Stop(ctx)

	if atomic.LoadInt32(&counter) != 8 {
		t.Errorf("Expected counter to be 8, but got %d", atomic.LoadInt32(&counter))
	}

	// Submitting to a stopped pool should return an error.
	if err := p.Submit(func() {}); err != worker.ErrWorkerPoolClosed {
		t.Errorf("Expected ErrWorkerPoolClosed, but got %v", err)
	}
}
