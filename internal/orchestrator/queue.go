package orchestrator

import (
	"context"
	"sync"

	"retailpulse/internal/event"
)

// job is one orchestration request waiting on the dispatch queue.
type job struct {
	events  []event.Event
	resultC chan Result
}

// dispatchQueue serializes orchestration runs through a single worker
// goroutine, so sub-batches are never fanned out in parallel and audit
// records are mutated by one run at a time.
type dispatchQueue struct {
	queue   chan *job
	process func(ctx context.Context, j *job)
	wg      sync.WaitGroup
}

func newDispatchQueue(ctx context.Context, depth int, fn func(ctx context.Context, j *job)) *dispatchQueue {
	q := &dispatchQueue{
		queue:   make(chan *job, depth),
		process: fn,
	}
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		q.run(ctx)
	}()
	return q
}

func (q *dispatchQueue) run(ctx context.Context) {
	for {
		select {
		case j, ok := <-q.queue:
			if !ok {
				return
			}
			q.process(ctx, j)
		case <-ctx.Done():
			return
		}
	}
}

// Submit enqueues a job without blocking; false means the queue is full.
func (q *dispatchQueue) Submit(j *job) bool {
	select {
	case q.queue <- j:
		return true
	default:
		return false
	}
}

func (q *dispatchQueue) QueueLen() int { return len(q.queue) }
func (q *dispatchQueue) QueueCap() int { return cap(q.queue) }

// Drain closes the queue and waits for the worker to finish.
func (q *dispatchQueue) Drain() {
	close(q.queue)
	q.wg.Wait()
}
