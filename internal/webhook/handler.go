// Package webhook receives WhatsApp Business messages from the Meta cloud
// API. The contract with Meta: answer the verification handshake, and always
// acknowledge message deliveries fast (under 3s) regardless of what happens
// downstream, or Meta re-delivers.
package webhook

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Evans508/JobConnectUg/internal/model"
)

// Handler terminates the Meta webhook: verification handshake plus message
// intake. Each inbound text message becomes a pending ingest log whose ID is
// handed to the queue; processing happens in the worker, never in-request.
type Handler struct {
	verifyToken string
	logs        model.MessageStore
	queue       model.IngestQueue
	logger      *slog.Logger
}

// NewHandler creates the webhook handler.
func NewHandler(verifyToken string, logs model.MessageStore, queue model.IngestQueue, logger *slog.Logger) *Handler {
	return &Handler{
		verifyToken: verifyToken,
		logs:        logs,
		queue:       queue,
		logger:      logger,
	}
}

// Register mounts the webhook routes on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/webhooks/whatsapp", h.Verify)
	r.POST("/webhooks/whatsapp", h.Receive)
}

// Verify answers Meta's subscription handshake: echo hub.challenge when the
// mode and token match, 403 otherwise.
func (h *Handler) Verify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token == h.verifyToken {
		h.logger.Info("webhook verified")
		c.String(http.StatusOK, challenge)
		return
	}
	c.String(http.StatusForbidden, "Forbidden")
}

// metaEnvelope is the subset of Meta's webhook payload we care about.
type metaEnvelope struct {
	Object string `json:"object"`
	Entry  []struct {
		Changes []struct {
			Value struct {
				Messages []metaMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type metaMessage struct {
	ID   string `json:"id"`
	From string `json:"from"` // for group messages this is the group ID
	Type string `json:"type"`
	Text struct {
		Body string `json:"body"`
	} `json:"text"`
}

// Receive ingests message deliveries. It always answers 200 EVENT_RECEIVED —
// even on malformed payloads or store failures — because an error status
// makes Meta retry the delivery and the retry would hit the same failure.
func (h *Handler) Receive(c *gin.Context) {
	var envelope metaEnvelope
	if err := c.ShouldBindJSON(&envelope); err != nil {
		h.logger.Warn("unparsable webhook payload", "error", err)
		c.String(http.StatusOK, "EVENT_RECEIVED")
		return
	}

	// Acknowledge before doing any work.
	c.String(http.StatusOK, "EVENT_RECEIVED")

	if envelope.Object != "whatsapp_business_account" {
		return
	}

	// The request context dies with the response; intake continues on its own.
	ctx := context.WithoutCancel(c.Request.Context())
	for _, entry := range envelope.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if msg.Type != "text" || msg.Text.Body == "" {
					continue
				}
				h.intake(ctx, msg)
			}
		}
	}
}

// intake persists one message as a pending log entry and enqueues it.
// Failures are logged only; the provider has already been acknowledged.
func (h *Handler) intake(ctx context.Context, msg metaMessage) {
	entry := &model.IngestLog{
		RawText:   msg.Text.Body,
		GroupID:   msg.From,
		MessageID: msg.ID,
		Status:    model.LogStatusPending,
	}
	if err := h.logs.CreateLog(ctx, entry); err != nil {
		h.logger.Error("failed to persist inbound message",
			"message_id", msg.ID, "error", err)
		return
	}

	if err := h.queue.Enqueue(ctx, entry.ID); err != nil {
		// The entry stays pending; the janitor or a manual re-run picks it up.
		h.logger.Error("failed to enqueue ingest log",
			"log_id", entry.ID, "error", err)
		return
	}

	h.logger.Info("message received",
		"log_id", entry.ID, "message_id", msg.ID, "group_id", msg.From)
}
