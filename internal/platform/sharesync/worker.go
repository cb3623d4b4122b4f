// Package sharesync runs the deferred case-share synchronization. A save or
// merge enqueues the affected case with a short delay; a single worker
// consumes the queue and pushes the share tree to connected instances.
// The triggering request never waits for or observes the outcome.
package sharesync

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Syncer performs the actual share synchronization for one case.
type Syncer interface {
	SyncShares(ctx context.Context, caseID uuid.UUID) error
}

// LogSyncer records sync requests in the log. It stands in for a real
// instance-to-instance share client in development setups.
type LogSyncer struct {
	log zerolog.Logger
}

func NewLogSyncer(log zerolog.Logger) *LogSyncer {
	return &LogSyncer{log: log}
}

func (s *LogSyncer) SyncShares(_ context.Context, caseID uuid.UUID) error {
	s.log.Info().Str("case_id", caseID.String()).Msg("share sync executed")
	return nil
}

type item struct {
	caseID uuid.UUID
	due    time.Time
}

// Queue is a fire-and-forget delayed work queue with one consumer.
type Queue struct {
	syncer Syncer
	delay  time.Duration
	log    zerolog.Logger

	items  chan item
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func NewQueue(syncer Syncer, delay time.Duration, log zerolog.Logger) *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		syncer: syncer,
		delay:  delay,
		log:    log,
		items:  make(chan item, 256),
		cancel: cancel,
	}
	q.wg.Add(1)
	go q.run(ctx)
	return q
}

// Enqueue schedules a share sync for the case. It never blocks the caller:
// when the queue is full the sync is dropped with a warning.
func (q *Queue) Enqueue(caseID uuid.UUID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	select {
	case q.items <- item{caseID: caseID, due: time.Now().Add(q.delay)}:
	default:
		q.log.Warn().Str("case_id", caseID.String()).Msg("share sync queue full, sync dropped")
	}
}

func (q *Queue) run(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case it, ok := <-q.items:
			if !ok {
				return
			}
			// Items are enqueued with a uniform delay, so channel order
			// matches due order.
			if wait := time.Until(it.due); wait > 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(wait):
				}
			}
			if err := q.syncer.SyncShares(ctx, it.caseID); err != nil {
				q.log.Warn().Err(err).Str("case_id", it.caseID.String()).Msg("share sync failed")
			}
		}
	}
}

// Close stops the worker. Pending items are discarded.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	q.cancel()
	q.wg.Wait()
}
