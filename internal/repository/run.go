package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RunStatus is the lifecycle state of a reconciliation run record.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusReset     RunStatus = "reset"
)

// Run is one reconciliation run log entry.
type Run struct {
	ID             uuid.UUID  `json:"id"`
	FusionSourceID string     `json:"fusion_source_id"`
	Status         RunStatus  `json:"status"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	Linked         int        `json:"linked"`
	Created        int        `json:"created"`
	PendingReview  int        `json:"pending_review"`
	FormsCreated   int        `json:"forms_created"`
	FormsDeleted   int        `json:"forms_deleted"`
	AccountErrors  int        `json:"account_errors"`
	Error          *string    `json:"error,omitempty"`
}

// RunRepository persists the reconciliation run log.
type RunRepository struct {
	pool *pgxpool.Pool
}

func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

// Create inserts a running run record and returns its ID.
func (r *RunRepository) Create(ctx context.Context, fusionSourceID string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO fusion_runs (id, fusion_source_id, status, started_at)
		VALUES ($1, $2, $3, now())`,
		id, fusionSourceID, RunStatusRunning)
	if err != nil {
		return uuid.Nil, fmt.Errorf("create run record: %w", err)
	}
	return id, nil
}

// RunOutcome carries the final counters written when a run finishes.
type RunOutcome struct {
	Status        RunStatus
	Linked        int
	Created       int
	PendingReview int
	FormsCreated  int
	FormsDeleted  int
	AccountErrors int
	Error         string
}

// Finish closes a run record with its outcome.
func (r *RunRepository) Finish(ctx context.Context, id uuid.UUID, outcome RunOutcome) error {
	var errText *string
	if outcome.Error != "" {
		errText = &outcome.Error
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE fusion_runs
		SET status = $2, finished_at = now(), linked = $3, created = $4,
		    pending_review = $5, forms_created = $6, forms_deleted = $7,
		    account_errors = $8, error = $9
		WHERE id = $1`,
		id, outcome.Status, outcome.Linked, outcome.Created,
		outcome.PendingReview, outcome.FormsCreated, outcome.FormsDeleted,
		outcome.AccountErrors, errText)
	if err != nil {
		return fmt.Errorf("finish run record: %w", err)
	}
	return nil
}

// Get returns one run record.
func (r *RunRepository) Get(ctx context.Context, id uuid.UUID) (*Run, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, fusion_source_id, status, started_at, finished_at,
		       linked, created, pending_review, forms_created, forms_deleted,
		       account_errors, error
		FROM fusion_runs WHERE id = $1`, id)
	return scanRun(row)
}

// Latest returns the most recent run record for a fusion source, or
// db.ErrNotFound when none exist.
func (r *RunRepository) Latest(ctx context.Context, fusionSourceID string) (*Run, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, fusion_source_id, status, started_at, finished_at,
		       linked, created, pending_review, forms_created, forms_deleted,
		       account_errors, error
		FROM fusion_runs
		WHERE fusion_source_id = $1
		ORDER BY started_at DESC
		LIMIT 1`, fusionSourceID)
	return scanRun(row)
}

// List returns run records for a fusion source, newest first.
func (r *RunRepository) List(ctx context.Context, fusionSourceID string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, fusion_source_id, status, started_at, finished_at,
		       linked, created, pending_review, forms_created, forms_deleted,
		       account_errors, error
		FROM fusion_runs
		WHERE fusion_source_id = $1
		ORDER BY started_at DESC
		LIMIT $2`, fusionSourceID, limit)
	if err != nil {
		return nil, fmt.Errorf("list run records: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list run records: %w", err)
	}
	return runs, nil
}

func scanRun(row pgx.Row) (*Run, error) {
	var (
		run        Run
		id         pgtype.UUID
		finishedAt pgtype.Timestamptz
		errText    pgtype.Text
	)
	err := row.Scan(&id, &run.FusionSourceID, &run.Status, &run.StartedAt,
		&finishedAt, &run.Linked, &run.Created, &run.PendingReview,
		&run.FormsCreated, &run.FormsDeleted, &run.AccountErrors, &errText)
	if err == pgx.ErrNoRows {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan run record: %w", err)
	}

	if id.Valid {
		run.ID = uuid.UUID(id.Bytes)
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}
	if errText.Valid {
		run.Error = &errText.String
	}
	return &run, nil
}
