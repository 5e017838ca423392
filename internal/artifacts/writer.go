package artifacts

import (
	"context"
	"sync"
	"time"

	"biomarket-backend/internal/shared/metrics"
	"biomarket-backend/internal/shared/telemetry"
)

const defaultWriteTimeout = 10 * time.Second

// Writer persists artifacts in the background. Failures are logged, never
// returned to the caller.
type Writer struct {
	sink    Sink
	timeout time.Duration
	now     func() time.Time
	wg      sync.WaitGroup
}

// NewWriter returns nil when sink is nil; a nil Writer drops everything.
func NewWriter(sink Sink, timeout time.Duration) *Writer {
	if sink == nil {
		return nil
	}
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}
	return &Writer{sink: sink, timeout: timeout, now: time.Now}
}

// Persist schedules v for storage. The write outlives ctx cancellation but
// keeps its values.
func (w *Writer) Persist(ctx context.Context, kind Kind, requestID string, v any) {
	if w == nil {
		return
	}
	a, err := New(kind, requestID, v, w.now())
	if err != nil {
		w.fail(requestID, kind, err)
		return
	}
	detached := context.WithoutCancel(ctx)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ctx, cancel := context.WithTimeout(detached, w.timeout)
		defer cancel()
		if err := w.sink.Save(ctx, a); err != nil {
			w.fail(requestID, kind, err)
		}
	}()
}

// Wait blocks until scheduled writes finish.
func (w *Writer) Wait() {
	if w == nil {
		return
	}
	w.wg.Wait()
}

func (w *Writer) fail(requestID string, kind Kind, err error) {
	metrics.IncSourceFailure("artifacts")
	telemetry.Warn("artifacts.persist_failed", map[string]any{
		"request_id": requestID,
		"kind":       string(kind),
		"error":      err,
	})
}
