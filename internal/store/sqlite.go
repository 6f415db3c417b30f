package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/Evans508/JobConnectUg/internal/model"
)

// SQLiteStore backs all three store interfaces with a single SQLite database.
// It is the default backend for single-node deployments.
type SQLiteStore struct {
	db *sql.DB
}

var (
	_ model.MessageStore = (*SQLiteStore)(nil)
	_ model.JobStore     = (*SQLiteStore)(nil)
	_ model.AlertStore   = (*SQLiteStore)(nil)
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS ingest_logs (
	id          TEXT PRIMARY KEY,
	raw_text    TEXT NOT NULL,
	group_id    TEXT NOT NULL DEFAULT '',
	message_id  TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL,
	parsed_json TEXT,
	reason      TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL
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
	created_at        DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_jobs_title_company ON jobs (title, company_name);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs (status);

CREATE TABLE IF NOT EXISTS job_alerts (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	keywords   TEXT NOT NULL DEFAULT '',
	location   TEXT NOT NULL DEFAULT '',
	job_type   TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);
`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// --- MessageStore ---

func (s *SQLiteStore) CreateLog(ctx context.Context, log *model.IngestLog) error {
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

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ingest_logs (id, raw_text, group_id, message_id, status, parsed_json, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		log.ID, log.RawText, log.GroupID, log.MessageID, string(log.Status),
		nullableJSON(log.ParsedJSON), log.Reason, log.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting ingest log: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetLog(ctx context.Context, id string) (*model.IngestLog, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, raw_text, group_id, message_id, status, parsed_json, reason, created_at
		 FROM ingest_logs WHERE id = ?`, id)
	return scanLog(row)
}

func (s *SQLiteStore) UpdateLogOutcome(ctx context.Context, id string, status model.LogStatus, reason string, parsed json.RawMessage) error {
	if !status.Valid() {
		return errInvalidStatus(string(status))
	}

	var res sql.Result
	var err error
	if parsed != nil {
		res, err = s.db.ExecContext(ctx,
			`UPDATE ingest_logs SET status = ?, reason = ?, parsed_json = ? WHERE id = ?`,
			string(status), reason, string(parsed), id)
	} else {
		res, err = s.db.ExecContext(ctx,
			`UPDATE ingest_logs SET status = ?, reason = ? WHERE id = ?`,
			string(status), reason, id)
	}
	if err != nil {
		return fmt.Errorf("updating ingest log %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating ingest log %s: %w", id, err)
	}
	if n == 0 {
		return model.ErrLogNotFound
	}
	return nil
}

func (s *SQLiteStore) ListLogs(ctx context.Context) ([]model.IngestLog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, raw_text, group_id, message_id, status, parsed_json, reason, created_at
		 FROM ingest_logs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing ingest logs: %w", err)
	}
	defer rows.Close()

	var logs []model.IngestLog
	for rows.Next() {
		log, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *log)
	}
	return logs, rows.Err()
}

func (s *SQLiteStore) StalePendingIDs(ctx context.Context, olderThan time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-olderThan)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM ingest_logs WHERE status = ? AND created_at < ?`,
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

// InsertIfAbsent inserts the job unless a PUBLISHED posting with the same
// (title, company_name) already exists. Check and insert run as one guarded
// INSERT so two concurrent pipeline runs cannot both slip past the check.
func (s *SQLiteStore) InsertIfAbsent(ctx context.Context, job *model.JobPosting) (bool, error) {
	if err := prepareJob(job); err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, title, company_name, location, job_type, description, salary,
		                   application_link, source_type, source_message_id, status, views,
		                   applicants_count, posted_by, created_at)
		 SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		 WHERE NOT EXISTS (
		     SELECT 1 FROM jobs WHERE title = ? AND company_name = ? AND status = ?
		 )`,
		job.ID, job.Title, job.CompanyName, job.Location, string(job.JobType), job.Description,
		job.Salary, job.ApplicationLink, string(job.SourceType), job.SourceMessageID,
		string(job.Status), job.Views, job.ApplicantsCount, job.PostedBy, job.CreatedAt,
		job.Title, job.CompanyName, string(model.JobStatusPublished))
	if err != nil {
		return false, fmt.Errorf("inserting job if absent: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("inserting job if absent: %w", err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) InsertJob(ctx context.Context, job *model.JobPosting) error {
	if err := prepareJob(job); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, title, company_name, location, job_type, description, salary,
		                   application_link, source_type, source_message_id, status, views,
		                   applicants_count, posted_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.Title, job.CompanyName, job.Location, string(job.JobType), job.Description,
		job.Salary, job.ApplicationLink, string(job.SourceType), job.SourceMessageID,
		string(job.Status), job.Views, job.ApplicantsCount, job.PostedBy, job.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting job: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetJob(ctx context.Context, id string) (*model.JobPosting, error) {
	row := s.db.QueryRowContext(ctx, selectJobColumns+` WHERE id = ?`, id)
	job, err := scanJob(row)
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (s *SQLiteStore) TransitionJob(ctx context.Context, id string, from, to model.JobStatus) error {
	if !to.Valid() {
		return errInvalidStatus(string(to))
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ? WHERE id = ? AND status = ?`,
		string(to), id, string(from))
	if err != nil {
		return fmt.Errorf("transitioning job %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transitioning job %s: %w", id, err)
	}
	if n > 0 {
		return nil
	}

	// Distinguish "missing" from "wrong state".
	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("transitioning job %s: %w", id, err)
	}
	if exists == 0 {
		return model.ErrJobNotFound
	}
	return model.ErrInvalidState
}

func (s *SQLiteStore) ListJobsByStatus(ctx context.Context, status model.JobStatus) ([]model.JobPosting, error) {
	rows, err := s.db.QueryContext(ctx,
		selectJobColumns+` WHERE status = ? ORDER BY created_at DESC`, string(status))
	if err != nil {
		return nil, fmt.Errorf("listing jobs by status: %w", err)
	}
	defer rows.Close()

	var jobs []model.JobPosting
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// --- AlertStore ---

func (s *SQLiteStore) CreateAlert(ctx context.Context, alert *model.JobAlert) error {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO job_alerts (id, user_id, keywords, location, job_type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		alert.ID, alert.UserID, alert.Keywords, alert.Location, alert.JobType, alert.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting alert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteAlert(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM job_alerts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting alert %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) ListAlerts(ctx context.Context) ([]model.JobAlert, error) {
	return s.queryAlerts(ctx,
		`SELECT id, user_id, keywords, location, job_type, created_at FROM job_alerts`)
}

func (s *SQLiteStore) ListAlertsByUser(ctx context.Context, userID string) ([]model.JobAlert, error) {
	return s.queryAlerts(ctx,
		`SELECT id, user_id, keywords, location, job_type, created_at FROM job_alerts WHERE user_id = ?`,
		userID)
}

func (s *SQLiteStore) queryAlerts(ctx context.Context, query string, args ...any) ([]model.JobAlert, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
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

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- helpers ---

const selectJobColumns = `SELECT id, title, company_name, location, job_type, description, salary,
	application_link, source_type, source_message_id, status, views, applicants_count,
	posted_by, created_at FROM jobs`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLog(row rowScanner) (*model.IngestLog, error) {
	var log model.IngestLog
	var status string
	var parsed sql.NullString
	err := row.Scan(&log.ID, &log.RawText, &log.GroupID, &log.MessageID, &status, &parsed,
		&log.Reason, &log.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrLogNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning ingest log: %w", err)
	}
	log.Status = model.LogStatus(status)
	if parsed.Valid {
		log.ParsedJSON = json.RawMessage(parsed.String)
	}
	return &log, nil
}

func scanJob(row rowScanner) (*model.JobPosting, error) {
	var job model.JobPosting
	var jobType, sourceType, status string
	err := row.Scan(&job.ID, &job.Title, &job.CompanyName, &job.Location, &jobType,
		&job.Description, &job.Salary, &job.ApplicationLink, &sourceType,
		&job.SourceMessageID, &status, &job.Views, &job.ApplicantsCount,
		&job.PostedBy, &job.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning job: %w", err)
	}
	job.JobType = model.JobType(jobType)
	job.SourceType = model.SourceType(sourceType)
	job.Status = model.JobStatus(status)
	return &job, nil
}

func prepareJob(job *model.JobPosting) error {
	if !job.Status.Valid() {
		return errInvalidStatus(string(job.Status))
	}
	if !job.SourceType.Valid() {
		return errInvalidStatus(string(job.SourceType))
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	return nil
}

func nullableJSON(raw json.RawMessage) any {
	if raw == nil {
		return nil
	}
	return string(raw)
}
