// Package audit appends immutable action records for every link mutation.
// Recording is an explicit asynchronous boundary: a buffered channel feeds a
// single worker goroutine, so a slow or failing audit write can never block
// or fail the primary operation. Failures are logged and swallowed; a full
// buffer drops the record rather than applying backpressure.
package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mesh-intelligence/twine/pkg/types"
)

// defaultBuffer is the in-flight record capacity before drops begin.
const defaultBuffer = 256

// writeTimeout bounds one audit insert so a wedged store cannot stall the
// worker forever.
const writeTimeout = 5 * time.Second

// Recorder is the fire-and-forget audit writer.
type Recorder struct {
	store types.LinkStore
	ch    chan *types.AuditRecord
	done  chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewRecorder starts the worker goroutine. Callers must Close when done to
// drain buffered records.
func NewRecorder(store types.LinkStore) *Recorder {
	r := &Recorder{
		store: store,
		ch:    make(chan *types.AuditRecord, defaultBuffer),
		done:  make(chan struct{}),
	}
	go r.run()
	return r
}

// Record enqueues one audit record. Never blocks: when the buffer is full or
// the recorder is closed the record is dropped with a log line. The accepted
// gap between a committed primary write and a lost audit record is
// documented behavior.
func (r *Recorder) Record(rec *types.AuditRecord) {
	if rec == nil {
		return
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		slog.Warn("audit recorder closed, dropping record",
			"action", rec.Action, "container_id", rec.ContainerID)
		return
	}
	select {
	case r.ch <- rec:
	default:
		slog.Warn("audit buffer full, dropping record",
			"action", rec.Action, "container_id", rec.ContainerID)
	}
}

// Close stops intake, drains buffered records, and waits for the worker.
// Idempotent.
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.ch)
	r.mu.Unlock()

	<-r.done
}

func (r *Recorder) run() {
	defer close(r.done)
	for rec := range r.ch {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := r.store.AppendAudit(ctx, rec); err != nil {
			slog.Error("audit write failed",
				"action", rec.Action, "container_id", rec.ContainerID,
				"link_id", rec.LinkID, "error", err)
		}
		cancel()
	}
}
