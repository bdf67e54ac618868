package keymap

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"diana/internal/logging"
)

// QueueSink forwards key rows onto a buffered queue drained by a single
// writer goroutine that owns the destination Sink. Close stops intake, drains
// the backlog, and only then returns, so no accepted row is lost.
type QueueSink struct {
	dst    Sink
	queue  chan Row
	done   chan struct{}
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewQueueSink starts the drain goroutine and returns the queue-forwarding
// sink. The buffer bounds how far workers may run ahead of the writer.
func NewQueueSink(dst Sink, buffer int, logger *slog.Logger) *QueueSink {
	if buffer <= 0 {
		buffer = 64
	}
	q := &QueueSink{
		dst:    dst,
		queue:  make(chan Row, buffer),
		done:   make(chan struct{}),
		logger: logging.WithComponent(logger, "keywriter"),
	}
	go q.run()
	return q
}

// Put enqueues a row for the writer. It blocks only when the buffer is full,
// and honors context cancellation while waiting. The read lock is held across
// the send so Close cannot close the queue underneath a blocked producer.
func (q *QueueSink) Put(ctx context.Context, row Row) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return errors.New("keymap: queue sink closed")
	}

	select {
	case q.queue <- row:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops intake and blocks until the backlog is fully written. The write
// lock waits out in-flight Puts before the queue is closed; the drain
// goroutine keeps consuming, so blocked producers finish rather than panic.
func (q *QueueSink) Close() {
	q.mu.Lock()
	alreadyClosed := q.closed
	q.closed = true
	q.mu.Unlock()

	if alreadyClosed {
		<-q.done
		return
	}
	close(q.queue)
	<-q.done
}

func (q *QueueSink) run() {
	defer close(q.done)
	for row := range q.queue {
		if err := q.dst.Put(context.Background(), row); err != nil {
			// Emission failure is never terminal for the item that produced
			// the row; surface it in the log stream and keep draining.
			q.logger.Warn("key row write failed",
				logging.String("key", row.ID),
				logging.Error(err),
			)
		}
	}
}
