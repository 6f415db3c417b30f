// Package api is the REST surface consumed by the admin dashboard and the
// job-board frontend: ingest queue moderation, direct job moderation,
// published-job listing, and alert CRUD.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Evans508/JobConnectUg/internal/model"
	"github.com/Evans508/JobConnectUg/internal/moderation"
)

// Handler aggregates the route handlers and their dependencies.
type Handler struct {
	mod    *moderation.Service
	jobs   model.JobStore
	alerts model.AlertStore
	logger *slog.Logger
}

// NewHandler creates the API handler.
func NewHandler(mod *moderation.Service, jobs model.JobStore, alerts model.AlertStore, logger *slog.Logger) *Handler {
	return &Handler{
		mod:    mod,
		jobs:   jobs,
		alerts: alerts,
		logger: logger,
	}
}

// Register mounts all API routes on r.
func (h *Handler) Register(r gin.IRouter) {
	api := r.Group("/api")
	{
		api.GET("/jobs", h.ListPublishedJobs)

		api.POST("/alerts", h.CreateAlert)
		api.GET("/alerts", h.ListAlerts)
		api.DELETE("/alerts/:id", h.DeleteAlert)

		admin := api.Group("/admin")
		{
			admin.GET("/ingest", h.ListIngestQueue)
			admin.POST("/ingest/:id/approve", h.ApproveIngest)
			admin.POST("/ingest/:id/reject", h.RejectIngest)

			admin.GET("/jobs/pending", h.ListPendingJobs)
			admin.POST("/jobs/:id/approve", h.ApproveJob)
			admin.POST("/jobs/:id/reject", h.RejectJob)
		}
	}
}

// --- jobs ---

type jobResponse struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	CompanyName     string    `json:"companyName"`
	Location        string    `json:"location"`
	JobType         string    `json:"jobType"`
	Description     string    `json:"description"`
	Salary          string    `json:"salary,omitempty"`
	ApplicationLink string    `json:"applicationLink,omitempty"`
	SourceType      string    `json:"sourceType"`
	Status          string    `json:"status"`
	Views           int       `json:"views"`
	ApplicantsCount int       `json:"applicantsCount"`
	PostedAt        time.Time `json:"postedAt"`
}

func toJobResponse(j model.JobPosting) jobResponse {
	return jobResponse{
		ID:              j.ID,
		Title:           j.Title,
		CompanyName:     j.CompanyName,
		Location:        j.Location,
		JobType:         string(j.JobType),
		Description:     j.Description,
		Salary:          j.Salary,
		ApplicationLink: j.ApplicationLink,
		SourceType:      string(j.SourceType),
		Status:          string(j.Status),
		Views:           j.Views,
		ApplicantsCount: j.ApplicantsCount,
		PostedAt:        j.CreatedAt,
	}
}

func (h *Handler) ListPublishedJobs(c *gin.Context) {
	jobs, err := h.jobs.ListJobsByStatus(c.Request.Context(), model.JobStatusPublished)
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]jobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, toJobResponse(j))
	}
	c.JSON(http.StatusOK, gin.H{"jobs": out})
}

// --- ingest moderation ---

type ingestLogResponse struct {
	ID         string          `json:"id"`
	RawText    string          `json:"rawText"`
	Status     string          `json:"status"`
	ParsedJSON json.RawMessage `json:"parsedJson,omitempty"`
	Reason     string          `json:"reason,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

func (h *Handler) ListIngestQueue(c *gin.Context) {
	logs, err := h.mod.ListIngestQueue(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]ingestLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, ingestLogResponse{
			ID:         l.ID,
			RawText:    l.RawText,
			Status:     string(l.Status),
			ParsedJSON: l.ParsedJSON,
			Reason:     l.Reason,
			CreatedAt:  l.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"logs": out})
}

func (h *Handler) ApproveIngest(c *gin.Context) {
	if err := h.mod.ApproveIngest(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "published"})
}

func (h *Handler) RejectIngest(c *gin.Context) {
	if err := h.mod.RejectIngest(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "rejected"})
}

// --- direct job moderation ---

func (h *Handler) ListPendingJobs(c *gin.Context) {
	jobs, err := h.mod.ListPendingJobs(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]jobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, toJobResponse(j))
	}
	c.JSON(http.StatusOK, gin.H{"jobs": out})
}

func (h *Handler) ApproveJob(c *gin.Context) {
	if err := h.mod.ApproveJob(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "PUBLISHED"})
}

func (h *Handler) RejectJob(c *gin.Context) {
	if err := h.mod.RejectJob(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "REJECTED"})
}

// --- alerts ---

type createAlertRequest struct {
	UserID   string `json:"userId" binding:"required"`
	Keywords string `json:"keywords"`
	Location string `json:"location"`
	JobType  string `json:"jobType"`
}

func (h *Handler) CreateAlert(c *gin.Context) {
	var req createAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	alert := &model.JobAlert{
		UserID:   req.UserID,
		Keywords: req.Keywords,
		Location: req.Location,
		JobType:  req.JobType,
	}
	if err := h.alerts.CreateAlert(c.Request.Context(), alert); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": alert.ID})
}

func (h *Handler) ListAlerts(c *gin.Context) {
	userID := c.Query("user_id")

	var (
		alerts []model.JobAlert
		err    error
	)
	if userID != "" {
		alerts, err = h.alerts.ListAlertsByUser(c.Request.Context(), userID)
	} else {
		alerts, err = h.alerts.ListAlerts(c.Request.Context())
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

func (h *Handler) DeleteAlert(c *gin.Context) {
	if err := h.alerts.DeleteAlert(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// fail maps domain errors onto HTTP statuses.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrLogNotFound), errors.Is(err, model.ErrJobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
