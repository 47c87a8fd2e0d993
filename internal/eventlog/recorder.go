// Package eventlog buffers mission events and writes them to a storage backend in batches.
package eventlog

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/aerosweep/sweep/internal/queue"
	"github.com/aerosweep/sweep/internal/storage"
	"github.com/aerosweep/sweep/pkg/core"
)

// DefaultBatchSize is used when New gets a non-positive batch size.
const DefaultBatchSize = 256

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock replaces the wall clock used to stamp events.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

// WithLogger sets the logger used to report write failures.
func WithLogger(l *slog.Logger) Option {
	return func(r *Recorder) { r.log = l }
}

// Recorder stamps events with a sequence number and wall-clock time and forwards
// them to a backend once a batch is full. Failed batches stay queued in order and
// are retried after another batch has accumulated, or on Flush.
type Recorder struct {
	backend storage.Backend
	pending *queue.Queue[core.Event]
	batch   int
	retryAt int

	seq uint
	now func() time.Time
	log *slog.Logger
}

// New creates a recorder writing to backend. StartMission must already have been called.
func New(backend storage.Backend, batchSize int, opts ...Option) *Recorder {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	r := &Recorder{
		backend: backend,
		pending: queue.New[core.Event](),
		batch:   batchSize,
		retryAt: batchSize,
		now:     time.Now,
		log:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record appends one event. Write failures are logged, never returned.
func (r *Recorder) Record(name string, data map[string]any, simTime float64) {
	r.seq++
	r.pending.Push(core.Event{
		Seq:     r.seq,
		Name:    name,
		Time:    r.now(),
		SimTime: simTime,
		Data:    data,
	})

	if r.pending.Len() < r.retryAt {
		return
	}
	if err := r.write(); err != nil {
		r.retryAt = r.pending.Len() + r.batch
		r.log.Error("Failed to write events", "error", err, "pending", r.pending.Len())
		return
	}
	r.retryAt = r.batch
}

// write sends one batch. On failure the batch goes back to the head of the queue.
func (r *Recorder) write() error {
	events := r.pending.Drain(r.batch)
	if len(events) == 0 {
		return nil
	}
	if err := r.backend.RecordEvents(events); err != nil {
		r.pending.PushFront(events...)
		return err
	}
	return nil
}

// Flush writes every pending event, then hands the summary to the backend.
func (r *Recorder) Flush(summary core.Summary) error {
	for !r.pending.Empty() {
		if err := r.write(); err != nil {
			return fmt.Errorf("failed to write %d pending events: %w", r.pending.Len(), err)
		}
	}
	if err := r.backend.EndMission(summary); err != nil {
		return fmt.Errorf("failed to end mission: %w", err)
	}
	r.log.Debug("Event log flushed", "events", r.seq)
	return nil
}

// Seq returns the sequence number of the last recorded event.
func (r *Recorder) Seq() uint {
	return r.seq
}

// Pending returns the number of events not yet written.
func (r *Recorder) Pending() int {
	return r.pending.Len()
}
