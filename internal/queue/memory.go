package queue

import (
	"context"
	"sync"

	"github.com/prohmpiriya/payment-gateway/pkg/retry"
)

type memoryEntry struct {
	job     Job
	attempt int
}

type memoryCounts struct {
	processing int
	completed  int
	failed     int
}

// MemoryQueue is an in-process Producer and Inspector. Jobs run only when
// Drain is called, which keeps tests deterministic.
type MemoryQueue struct {
	mu          sync.Mutex
	pending     map[string][]memoryEntry
	counts      map[string]*memoryCounts
	maxAttempts map[string]int
	enqueued    []Job
}

// NewMemoryQueue creates a queue whose attempt limits follow cfg
func NewMemoryQueue(cfg *ProducerConfig) *MemoryQueue {
	if cfg == nil {
		cfg = DefaultProducerConfig()
	}

	q := &MemoryQueue{
		pending:     make(map[string][]memoryEntry),
		counts:      make(map[string]*memoryCounts),
		maxAttempts: make(map[string]int),
	}
	for _, name := range Names {
		q.counts[name] = &memoryCounts{}
		q.maxAttempts[name] = cfg.MaxRetryFor(name) + 1
	}
	return q
}

// Enqueue appends job to its queue
func (q *MemoryQueue) Enqueue(ctx context.Context, job Job) error {
	if _, err := Encode(job); err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.pending[job.Queue()] = append(q.pending[job.Queue()], memoryEntry{job: job, attempt: 1})
	q.enqueued = append(q.enqueued, job)
	return nil
}

// Enqueued returns every job ever enqueued on queueName, in order
func (q *MemoryQueue) Enqueued(queueName string) []Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	var jobs []Job
	for _, j := range q.enqueued {
		if j.Queue() == queueName {
			jobs = append(jobs, j)
		}
	}
	return jobs
}

// Len returns the number of jobs waiting on queueName
func (q *MemoryQueue) Len(queueName string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending[queueName])
}

// Drain runs the jobs currently waiting on queueName once each. Retryable
// failures are put back with the next attempt number until the attempt
// limit is reached. It returns how many jobs ran.
func (q *MemoryQueue) Drain(ctx context.Context, queueName string, h Handlers) int {
	q.mu.Lock()
	batch := q.pending[queueName]
	q.pending[queueName] = nil
	q.counts[queueName].processing += len(batch)
	q.mu.Unlock()

	for _, e := range batch {
		d := Delivery{Queue: queueName, Attempt: e.attempt, MaxAttempts: q.maxAttempts[queueName]}
		err := Dispatch(ctx, h, e.job, d)

		q.mu.Lock()
		c := q.counts[queueName]
		c.processing--
		switch {
		case err == nil:
			c.completed++
		case retry.IsPermanent(err) || d.IsLast():
			c.failed++
		default:
			q.pending[queueName] = append(q.pending[queueName], memoryEntry{job: e.job, attempt: e.attempt + 1})
		}
		q.mu.Unlock()
	}
	return len(batch)
}

// Stats returns the counts of queueName
func (q *MemoryQueue) Stats(ctx context.Context, queueName string) (*Stats, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	s := &Stats{Queue: queueName, Pending: len(q.pending[queueName])}
	if c, ok := q.counts[queueName]; ok {
		s.Processing = c.processing
		s.Completed = c.completed
		s.Failed = c.failed
	}
	return s, nil
}
