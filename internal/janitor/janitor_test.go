package janitor

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Evans508/JobConnectUg/internal/model"
	"github.com/Evans508/JobConnectUg/internal/queue"
	"github.com/Evans508/JobConnectUg/internal/store"
)

func TestJanitorRequeuesStaleEntries(t *testing.T) {
	db := store.NewMemoryStore()
	q := queue.NewMemoryQueue(8)
	defer q.Close()
	ctx := context.Background()

	stale := &model.IngestLog{RawText: "old", CreatedAt: time.Now().Add(-2 * time.Hour)}
	fresh := &model.IngestLog{RawText: "new"}
	for _, e := range []*model.IngestLog{stale, fresh} {
		if err := db.CreateLog(ctx, e); err != nil {
			t.Fatalf("CreateLog: %v", err)
		}
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	j := New(db, q, time.Hour, logger)
	if err := j.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer j.Stop()

	// The startup sweep should requeue only the stale entry.
	id, err := q.Dequeue(ctx, 5*time.Second)
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if id != stale.ID {
		t.Errorf("requeued %q, want %q", id, stale.ID)
	}

	if more, _ := q.Dequeue(ctx, 50*time.Millisecond); more != "" {
		t.Errorf("unexpected extra requeue: %q", more)
	}
}
