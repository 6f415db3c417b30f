package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Evans508/JobConnectUg/internal/model"
)

// PostgresStore backs the store interfaces with a pgx connection pool.
// The original deployment ran on Supabase Postgres; the schema below matches
// its tables.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var (
	_ model.MessageStore = (*PostgresStore)(nil)
	_ model.JobStore     = (*PostgresStore)(nil)
	_ model.AlertStore   = (*PostgresStore)(nil)
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS ingest_logs (
	id          TEXT PRIMARY KEY,
	raw_text    TEXT NOT NULL,
	group_id    TEXT NOT NULL DEFAULT '',
	message_id  TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL,
	parsed_json JSONB,
	reason      TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS jobs (
	id                TEXT PRIMARY KEY,
	title             TEXT NOT NULL,
	company_name      TEXT NOT NULL,
	location          TEXT NOT NULL DEFAULT '',
	job_type          TEXT NOT NULL DEFAULT 'unknown',
	description       TEXT NOT NULL DEFAULT '',
	salary            TEXT NOT NULL DEFAULT '',
	application_link  TEXT NOT NULL DEFAULT '',
	source_type       TEXT NOT NULL,
	source_message_id TEXT NOT NULL DEFAULT '',
	status            TEXT NOT NULL,
	views             INTEGER NOT NULL DEFAULT 0,
	applicants_count  INTEGER NOT NULL DEFAULT 0,
	posted_by         TEXT NOT NULL DEFAULT '',
	created_at        TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_jobs_title_company ON jobs (title, company_name);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs (status);

CREATE TABLE IF NOT EXISTS job_alerts (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	keywords   TEXT NOT NULL DEFAULT '',
	location   TEXT NOT NULL DEFAULT '',
	job_type   TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
`

// NewPostgresStore connects to databaseURL, verifies connectivity, and
// ensures the schema exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// --- MessageStore ---

func (s *PostgresStore) CreateLog(ctx context.Context, log *model.IngestLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.Status == "" {
		log.Status = model.LogStatusPending
	}
	if !log.Status.Valid() {
		return errInvalidStatus(string(log.Status))
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO ingest_logs (id, raw_text, group_id, message_id, status, parsed_json, reason, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		log.ID, log.RawText, log.GroupID, log.MessageID, string(log.Status),
		log.ParsedJSON, log.Reason, log.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting ingest log: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetLog(ctx context.Context, id string) (*model.IngestLog, error) {
	var log model.IngestLog
	var status string
	err := s.pool.QueryRow(ctx,
		`SELECT id, raw_text, group_id, message_id, status, parsed_json, reason, created_at
		 FROM ingest_logs WHERE id = $1`, id).Scan(
		&log.ID, &log.RawText, &log.GroupID, &log.MessageID, &status,
		&log.ParsedJSON, &log.Reason, &log.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrLogNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting ingest log %s: %w", id, err)
	}
	log.Status = model.LogStatus(status)
	return &log, nil
}

func (s *PostgresStore) UpdateLogOutcome(ctx context.Context, id string, status model.LogStatus, reason string, parsed json.RawMessage) error {
	if !status.Valid() {
		return errInvalidStatus(string(status))
	}

	var tag pgconn.CommandTag
	var err error
	if parsed != nil {
		tag, err = s.pool.Exec(ctx,
			`UPDATE ingest_logs SET status = $1, reason = $2, parsed_json = $3 WHERE id = $4`,
			string(status), reason, parsed, id)
	} else {
		tag, err = s.pool.Exec(ctx,
			`UPDATE ingest_logs SET status = $1, reason = $2 WHERE id = $3`,
			string(status), reason, id)
	}
	if err != nil {
		return fmt.Errorf("updating ingest log %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrLogNotFound
	}
	return nil
}

func (s *PostgresStore) ListLogs(ctx context.Context) ([]model.IngestLog, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, raw_text, group_id, message_id, status, parsed_json, reason, created_at
		 FROM ingest_logs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing ingest logs: %w", err)
	}
	defer rows.Close()

	var logs []model.IngestLog
	for rows.Next() {
		var log model.IngestLog
		var status string
		if err := rows.Scan(&log.ID, &log.RawText, &log.GroupID, &log.MessageID, &status,
			&log.ParsedJSON, &log.Reason, &log.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning ingest log: %w", err)
		}
		log.Status = model.LogStatus(status)
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

func (s *PostgresStore) StalePendingIDs(ctx context.Context, olderThan time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-olderThan)
	rows, err := s.pool.Query(ctx,
		`SELECT id FROM ingest_logs WHERE status = $1 AND created_at < $2`,
		string(model.LogStatusPending), cutoff)
	if err != nil {
		return nil, fmt.Errorf("listing stale pending logs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning stale log id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// --- JobStore ---

func (s *PostgresStore) InsertIfAbsent(ctx context.Context, job *model.JobPosting) (bool, error) {
	if err := prepareJob(job); err != nil {
		return false, err
	}

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO jobs (id, title, company_name, location, job_type, description, salary,
		                   application_link, source_type, source_message_id, status, views,
		                   applicants_count, posted_by, created_at)
		 SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		 WHERE NOT EXISTS (
		     SELECT 1 FROM jobs WHERE title = $2 AND company_name = $3 AND status = $16
		 )`,
		job.ID, job.Title, job.CompanyName, job.Location, string(job.JobType), job.Description,
		job.Salary, job.ApplicationLink, string(job.SourceType), job.SourceMessageID,
		string(job.Status), job.Views, job.ApplicantsCount, job.PostedBy, job.CreatedAt,
		string(model.JobStatusPublished))
	if err != nil {
		return false, fmt.Errorf("inserting job if absent: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) InsertJob(ctx context.Context, job *model.JobPosting) error {
	if err := prepareJob(job); err != nil {
		return err
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO jobs (id, title, company_name, location, job_type, description, salary,
		                   application_link, source_type, source_message_id, status, views,
		                   applicants_count, posted_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		job.ID, job.Title, job.CompanyName, job.Location, string(job.JobType), job.Description,
		job.Salary, job.ApplicationLink, string(job.SourceType), job.SourceMessageID,
		string(job.Status), job.Views, job.ApplicantsCount, job.PostedBy, job.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting job: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetJob(ctx context.Context, id string) (*model.JobPosting, error) {
	var job model.JobPosting
	var jobType, sourceType, status string
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, company_name, location, job_type, description, salary,
		        application_link, source_type, source_message_id, status, views,
		        applicants_count, posted_by, created_at
		 FROM jobs WHERE id = $1`, id).Scan(
		&job.ID, &job.Title, &job.CompanyName, &job.Location, &jobType, &job.Description,
		&job.Salary, &job.ApplicationLink, &sourceType, &job.SourceMessageID, &status,
		&job.Views, &job.ApplicantsCount, &job.PostedBy, &job.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting job %s: %w", id, err)
	}
	job.JobType = model.JobType(jobType)
	job.SourceType = model.SourceType(sourceType)
	job.Status = model.JobStatus(status)
	return &job, nil
}

func (s *PostgresStore) TransitionJob(ctx context.Context, id string, from, to model.JobStatus) error {
	if !to.Valid() {
		return errInvalidStatus(string(to))
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET status = $1 WHERE id = $2 AND status = $3`,
		string(to), id, string(from))
	if err != nil {
		return fmt.Errorf("transitioning job %s: %w", id, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists int
	err = s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM jobs WHERE id = $1`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("transitioning job %s: %w", id, err)
	}
	if exists == 0 {
		return model.ErrJobNotFound
	}
	return model.ErrInvalidState
}

func (s *PostgresStore) ListJobsByStatus(ctx context.Context, status model.JobStatus) ([]model.JobPosting, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, company_name, location, job_type, description, salary,
		        application_link, source_type, source_message_id, status, views,
		        applicants_count, posted_by, created_at
		 FROM jobs WHERE status = $1 ORDER BY created_at DESC`, string(status))
	if err != nil {
		return nil, fmt.Errorf("listing jobs by status: %w", err)
	}
	defer rows.Close()

	var jobs []model.JobPosting
	for rows.Next() {
		var job model.JobPosting
		var jobType, sourceType, st string
		if err := rows.Scan(&job.ID, &job.Title, &job.CompanyName, &job.Location, &jobType,
			&job.Description, &job.Salary, &job.ApplicationLink, &sourceType,
			&job.SourceMessageID, &st, &job.Views, &job.ApplicantsCount,
			&job.PostedBy, &job.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning job: %w", err)
		}
		job.JobType = model.JobType(jobType)
		job.SourceType = model.SourceType(sourceType)
		job.Status = model.JobStatus(st)
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// --- AlertStore ---

func (s *PostgresStore) CreateAlert(ctx context.Context, alert *model.JobAlert) error {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO job_alerts (id, user_id, keywords, location, job_type, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		alert.ID, alert.UserID, alert.Keywords, alert.Location, alert.JobType, alert.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting alert: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteAlert(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM job_alerts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting alert %s: %w", id, err)
	}
	return nil
}

func (s *PostgresStore) ListAlerts(ctx context.Context) ([]model.JobAlert, error) {
	return s.queryAlerts(ctx,
		`SELECT id, user_id, keywords, location, job_type, created_at FROM job_alerts`)
}

func (s *PostgresStore) ListAlertsByUser(ctx context.Context, userID string) ([]model.JobAlert, error) {
	return s.queryAlerts(ctx,
		`SELECT id, user_id, keywords, location, job_type, created_at FROM job_alerts WHERE user_id = $1`,
		userID)
}

func (s *PostgresStore) queryAlerts(ctx context.Context, query string, args ...any) ([]model.JobAlert, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing alerts: %w", err)
	}
	defer rows.Close()

	var alerts []model.JobAlert
	for rows.Next() {
		var a model.JobAlert
		if err := rows.Scan(&a.ID, &a.UserID, &a.Keywords, &a.Location, &a.JobType, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}
