package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/sirupsen/logrus"

	"github.com/carson-networks/finance-server/internal/jobs"
)

type Config struct {
	// Buffer bounds the number of ready items accepted from publishers.
	// Delayed and retried items were already admitted and do not count.
	Buffer  int
	Workers int

	MaxRetries   int
	RetryBackoff time.Duration

	ThrottleLimit  int
	ThrottlePeriod time.Duration
}

// envelope is a queued delivery. admitted is set once the item holds a
// throttle slot, so it is not throttled again when its delay expires.
type envelope struct {
	item     jobs.WorkItem
	admitted bool
}

// Queue is an in-memory implementation of the work queue. Items are delivered
// at least once: failures are retried with linear backoff and then
// dead-lettered. Deliveries are throttled per user.
type Queue struct {
	cfg      Config
	log      *logrus.Logger
	throttle *Throttle
	now      func() time.Time

	mu          sync.Mutex
	ready       []envelope
	deadLetters []jobs.DeadLetter
	timers      map[*time.Timer]struct{}
	closed      bool
	started     bool

	notify    chan struct{}
	closeChan chan struct{}
	wg        sync.WaitGroup
}

func NewQueue(cfg Config, log *logrus.Logger) *Queue {
	if cfg.Buffer < 1 {
		cfg.Buffer = 1000
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = time.Second
	}
	if cfg.ThrottleLimit < 1 {
		cfg.ThrottleLimit = 10
	}
	if cfg.ThrottlePeriod <= 0 {
		cfg.ThrottlePeriod = time.Minute
	}
	return &Queue{
		cfg:       cfg,
		log:       log,
		throttle:  NewThrottle(cfg.ThrottleLimit, cfg.ThrottlePeriod),
		now:       time.Now,
		timers:    map[*time.Timer]struct{}{},
		notify:    make(chan struct{}, 1),
		closeChan: make(chan struct{}),
	}
}

// PublishMany implements jobs.Publisher. The batch is admitted as a whole:
// when it does not fit nothing is enqueued.
func (q *Queue) PublishMany(ctx context.Context, items []jobs.WorkItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return jobs.ErrQueueClosed
	}
	if len(q.ready)+len(items) > q.cfg.Buffer {
		return fmt.Errorf("%w: %d queued, %d offered, buffer %d", jobs.ErrQueueFull, len(q.ready), len(items), q.cfg.Buffer)
	}

	now := q.now()
	for _, item := range items {
		if item.ID == "" {
			item.ID = uuid.Must(uuid.NewV4()).String()
		}
		if item.Name == "" {
			item.Name = jobs.EventRecurringProcess
		}
		if item.EnqueuedAt.IsZero() {
			item.EnqueuedAt = now
		}
		item.Attempt = 0
		q.ready = append(q.ready, envelope{item: item})
	}
	q.signal()
	return nil
}

// Start implements jobs.Consumer.
func (q *Queue) Start(ctx context.Context, handler jobs.Handler) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return jobs.ErrQueueClosed
	}
	if q.started {
		return fmt.Errorf("queue already started")
	}
	q.started = true

	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, handler)
	}
	return nil
}

func (q *Queue) worker(ctx context.Context, handler jobs.Handler) {
	defer q.wg.Done()

	for {
		env, ok := q.pop()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-q.closeChan:
				return
			case <-q.notify:
				continue
			}
		}

		if !env.admitted {
			if delay := q.throttle.Reserve(env.item.UserID, q.now()); delay > 0 {
				env.admitted = true
				q.later(delay, env)
				continue
			}
		}
		q.process(ctx, env.item, handler)
	}
}

func (q *Queue) process(ctx context.Context, item jobs.WorkItem, handler jobs.Handler) {
	item.Attempt++
	log := q.log.WithFields(logrus.Fields{
		"itemID":        item.ID,
		"transactionID": item.TransactionID,
		"userID":        item.UserID,
		"attempt":       item.Attempt,
	})

	err := handler(ctx, item)
	if err == nil {
		return
	}

	if jobs.IsPermanent(err) || item.Attempt > q.cfg.MaxRetries {
		log.WithError(err).Error("Queue.Item.DeadLetter")
		q.mu.Lock()
		q.deadLetters = append(q.deadLetters, jobs.DeadLetter{
			Item:     item,
			Error:    err.Error(),
			FailedAt: q.now(),
		})
		q.mu.Unlock()
		return
	}

	backoff := time.Duration(item.Attempt) * q.cfg.RetryBackoff
	log.WithError(err).WithField("backoff", backoff.String()).Warn("Queue.Item.Retry")
	q.later(backoff, envelope{item: item})
}

// later puts env back on the ready list after d. Pending timers are dropped
// when the queue stops.
func (q *Queue) later(d time.Duration, env envelope) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}

	var timer *time.Timer
	timer = time.AfterFunc(d, func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		delete(q.timers, timer)
		if q.closed {
			return
		}
		q.ready = append(q.ready, env)
		q.signal()
	})
	q.timers[timer] = struct{}{}
}

func (q *Queue) pop() (envelope, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed || len(q.ready) == 0 {
		return envelope{}, false
	}
	env := q.ready[0]
	q.ready[0] = envelope{}
	q.ready = q.ready[1:]
	if len(q.ready) > 0 {
		q.signal()
	}
	return env, true
}

// signal wakes one idle worker. Callers hold q.mu.
func (q *Queue) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// DeadLetters returns a copy of the dead-lettered items, oldest first.
func (q *Queue) DeadLetters() []jobs.DeadLetter {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]jobs.DeadLetter, len(q.deadLetters))
	copy(out, q.deadLetters)
	return out
}

// Pending is the number of items waiting for a worker, including delayed ones.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ready) + len(q.timers)
}

// Stop implements jobs.Consumer. It stops the queue and waits for all
// in-flight items to complete. Items still waiting are discarded; they are
// found again by the next scan because their schedule did not advance.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	for timer := range q.timers {
		timer.Stop()
	}
	dropped := len(q.ready) + len(q.timers)
	q.ready = nil
	q.timers = map[*time.Timer]struct{}{}
	close(q.closeChan)
	q.mu.Unlock()

	if dropped > 0 {
		q.log.WithField("dropped", dropped).Warn("Queue.Stop.Discarded")
	}

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements jobs.Publisher.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

var _ jobs.Publisher = (*Queue)(nil)
var _ jobs.Consumer = (*Queue)(nil)
