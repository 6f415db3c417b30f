package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Evans508/JobConnectUg/internal/model"
)

// ErrQueueClosed is returned by Enqueue after Close.
var ErrQueueClosed = errors.New("ingest queue closed")

// MemoryQueue is a channel-backed ingest queue for single-process deployments
// and tests. Enqueue applies back-pressure once the buffer fills instead of
// dropping work.
type MemoryQueue struct {
	ch        chan string
	closeOnce sync.Once
	done      chan struct{}
}

var _ model.IngestQueue = (*MemoryQueue)(nil)

// NewMemoryQueue returns a queue buffering up to size pending log IDs.
func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 64
	}
	return &MemoryQueue{
		ch:   make(chan string, size),
		done: make(chan struct{}),
	}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, logID string) error {
	select {
	case <-q.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	case q.ch <- logID:
		return nil
	}
}

// Dequeue blocks up to timeout for the next log ID. Returns "" with a nil
// error when the timeout expires with nothing queued.
func (q *MemoryQueue) Dequeue(ctx context.Context, timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
		return "", nil
	case id := <-q.ch:
		return id, nil
	}
}

func (q *MemoryQueue) Close() error {
	q.closeOnce.Do(func() {
		close(q.done)
	})
	return nil
}
