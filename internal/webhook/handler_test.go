package webhook

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Evans508/JobConnectUg/internal/model"
	"github.com/Evans508/JobConnectUg/internal/queue"
	"github.com/Evans508/JobConnectUg/internal/store"
)

func newTestRouter(t *testing.T) (*gin.Engine, *store.MemoryStore, *queue.MemoryQueue) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := store.NewMemoryStore()
	q := queue.NewMemoryQueue(8)
	t.Cleanup(func() { q.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := gin.New()
	NewHandler("my-verify-token", db, q, logger).Register(r)
	return r, db, q
}

func TestVerify(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/webhooks/whatsapp?hub.mode=subscribe&hub.verify_token=my-verify-token&hub.challenge=12345", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "12345", w.Body.String())
}

func TestVerify_WrongToken(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/webhooks/whatsapp?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

const sampleDelivery = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "changes": [{
      "value": {
        "messages": [
          {"id": "wamid.1", "from": "grp-256", "type": "text", "text": {"body": "Driver needed at Acme, Kampala"}},
          {"id": "wamid.2", "from": "grp-256", "type": "image"}
        ]
      }
    }]
  }]
}`

func TestReceive(t *testing.T) {
	r, db, q := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader(sampleDelivery))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "EVENT_RECEIVED", w.Body.String())

	// Only the text message is ingested.
	logs, err := db.ListLogs(context.Background())
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "Driver needed at Acme, Kampala", logs[0].RawText)
	assert.Equal(t, "grp-256", logs[0].GroupID)
	assert.Equal(t, "wamid.1", logs[0].MessageID)
	assert.Equal(t, model.LogStatusPending, logs[0].Status)

	// Its ID is on the queue for the worker.
	id, err := q.Dequeue(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, logs[0].ID, id)
}

func TestReceive_MalformedPayloadStillAcked(t *testing.T) {
	r, db, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "EVENT_RECEIVED", w.Body.String())

	logs, err := db.ListLogs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestReceive_IgnoresOtherObjects(t *testing.T) {
	r, db, _ := newTestRouter(t)

	payload := `{"object": "instagram", "entry": []}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	logs, err := db.ListLogs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, logs)
}
