package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/persistence"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB provides operations with postgresql
type DB struct {
	pool *pgxpool.Pool
}

// NewDB creates DB instance
func NewDB(pool *pgxpool.Pool) (*DB, error) {
	res := &DB{pool: pool}
	return res, nil
}

// InsertInterview inserts a new interview into DB
func (db *DB) InsertInterview(ctx context.Context, itv *persistence.Interview) error {
	rows, err := db.pool.Query(ctx, `INSERT INTO interviews(id, candidate_name, candidate_phone,
	job_position, job_description, notify_email, status, questions, responses, created, version)
	VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0)`,
		itv.ID, itv.CandidateName, itv.CandidatePhone, itv.JobPosition, itv.JobDescription,
		itv.NotifyEmail, itv.Status, itv.Questions, itv.Responses, itv.Created)
	if err != nil {
		return fmt.Errorf("can't insert interview: %w", err)
	}
	defer rows.Close()
	return nil
}

// LoadInterview loads one interview from DB, returns nil if not found
func (db *DB) LoadInterview(ctx context.Context, id string) (*persistence.Interview, error) {
	var res persistence.Interview
	err := db.pool.QueryRow(ctx, `SELECT id, candidate_name, candidate_phone, job_position,
	job_description, notify_email, status, questions, responses, report, created, updated, version
	FROM interviews WHERE id = $1`, id).Scan(&res.ID, &res.CandidateName, &res.CandidatePhone,
		&res.JobPosition, &res.JobDescription, &res.NotifyEmail, &res.Status, &res.Questions,
		&res.Responses, &res.Report, &res.Created, &res.Updated, &res.Version)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("can't load interview: %w", err)
	}
	return &res, nil
}

// ListInterviews loads all interviews, newest first
func (db *DB) ListInterviews(ctx context.Context) ([]*persistence.Interview, error) {
	rows, err := db.pool.Query(ctx, `SELECT id, candidate_name, candidate_phone, job_position,
	job_description, notify_email, status, questions, responses, report, created, updated, version
	FROM interviews ORDER BY created DESC`)
	if err != nil {
		return nil, fmt.Errorf("can't select interviews: %w", err)
	}
	defer rows.Close()
	res := []*persistence.Interview{}
	for rows.Next() {
		var itv persistence.Interview
		if err := rows.Scan(&itv.ID, &itv.CandidateName, &itv.CandidatePhone, &itv.JobPosition,
			&itv.JobDescription, &itv.NotifyEmail, &itv.Status, &itv.Questions, &itv.Responses,
			&itv.Report, &itv.Created, &itv.Updated, &itv.Version); err != nil {
			return nil, fmt.Errorf("can't scan interview: %w", err)
		}
		res = append(res, &itv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("can't read interviews: %w", err)
	}
	return res, nil
}

// SetQuestions stores the generated question list
func (db *DB) SetQuestions(ctx context.Context, id string, q persistence.Questions) error {
	cmd, err := db.pool.Exec(ctx, `UPDATE interviews SET questions = $2, updated = $3
	WHERE id = $1`, id, q, time.Now())
	if err != nil {
		return fmt.Errorf("can't set questions: %w", err)
	}
	if cmd.RowsAffected() != 1 {
		return fmt.Errorf("can't set questions, no record found")
	}
	return nil
}

// AppendResponse appends one recorded answer to the interview's response list
func (db *DB) AppendResponse(ctx context.Context, id string, r persistence.Response) error {
	cmd, err := db.pool.Exec(ctx, `UPDATE interviews SET
	responses = jsonb_set(responses, '{items}', (responses->'items') || $2),
	updated = $3
	WHERE id = $1`, id, r, time.Now())
	if err != nil {
		return fmt.Errorf("can't append response: %w", err)
	}
	if cmd.RowsAffected() != 1 {
		return fmt.Errorf("can't append response, no record found")
	}
	return nil
}

// UpdateStatus updates interview status guarded by the optimistic version
func (db *DB) UpdateStatus(ctx context.Context, id string, version int32, status string) error {
	cmd, err := db.pool.Exec(ctx, `UPDATE interviews SET
	status = $3,
	updated = $4,
	version = $2 + 1
	WHERE id = $1 and version = $2`, id, version, status, time.Now())
	if err != nil {
		return fmt.Errorf("can't update status: %w", err)
	}
	if cmd.RowsAffected() != 1 {
		return fmt.Errorf("can't update status, no record found")
	}
	return nil
}

// SetReport stores the report payload once
// a second call is a no-op so report workers can be retried safely
func (db *DB) SetReport(ctx context.Context, id string, rep *persistence.ReportData) error {
	_, err := db.pool.Exec(ctx, `UPDATE interviews SET report = $2, updated = $3
	WHERE id = $1 AND report IS NULL`, id, rep, time.Now())
	if err != nil {
		return fmt.Errorf("can't set report: %w", err)
	}
	return nil
}

// Live returns no error if db is reachable and initialized
func (db *DB) Live(ctx context.Context) error {
	var exists bool
	if err := db.pool.QueryRow(ctx, `SELECT EXISTS (SELECT FROM pg_tables WHERE tablename = 'gue_jobs')`).Scan(&exists); err != nil {
		return fmt.Errorf("can't check table: %w", err)
	}
	if !exists {
		return fmt.Errorf("no migration done")
	}
	return nil
}
