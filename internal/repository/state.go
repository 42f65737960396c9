// Package repository persists the connector's durable state: the per-source
// process lock, reset flag, cumulative fetch counts, issued unique-value
// ledgers and the reconciliation run log.
package repository

import (
	"context"
	"fmt"

	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/fusion"
	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FusionStateRepository implements fusion.StateStore on Postgres.
type FusionStateRepository struct {
	pool *pgxpool.Pool
}

var _ fusion.StateStore = (*FusionStateRepository)(nil)

func NewFusionStateRepository(pool *pgxpool.Pool) *FusionStateRepository {
	return &FusionStateRepository{pool: pool}
}

// AcquireLock claims the per-source process lock. A lock already held means
// a previous run died mid-flight: the stale lock is released so the next
// invocation succeeds, and fusion.ErrLockHeld is returned. Pending review
// state is untouched; only an explicit RequestReset arms a re-baseline.
func (r *FusionStateRepository) AcquireLock(ctx context.Context, fusionSourceID string) error {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO fusion_state (fusion_source_id, locked, updated_at)
		VALUES ($1, true, now())
		ON CONFLICT (fusion_source_id)
		DO UPDATE SET locked = true, updated_at = now()
		WHERE fusion_state.locked = false`,
		fusionSourceID)
	if err != nil {
		return fmt.Errorf("acquire process lock: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Self-heal: release the stale lock so the next run starts clean.
	_, err = r.pool.Exec(ctx, `
		UPDATE fusion_state
		SET locked = false, updated_at = now()
		WHERE fusion_source_id = $1`,
		fusionSourceID)
	if err != nil {
		return fmt.Errorf("release stale lock: %w", err)
	}
	logger.Warn().
		Str("fusion_source", fusionSourceID).
		Msg("process lock was held by a previous run, released stale lock")
	return fusion.ErrLockHeld
}

// ReleaseLock releases the per-source process lock.
func (r *FusionStateRepository) ReleaseLock(ctx context.Context, fusionSourceID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE fusion_state
		SET locked = false, updated_at = now()
		WHERE fusion_source_id = $1`,
		fusionSourceID)
	if err != nil {
		return fmt.Errorf("release process lock: %w", err)
	}
	return nil
}

// KeepAlive refreshes the lock's heartbeat timestamp while a run is in
// flight.
func (r *FusionStateRepository) KeepAlive(ctx context.Context, fusionSourceID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE fusion_state
		SET updated_at = now()
		WHERE fusion_source_id = $1 AND locked`,
		fusionSourceID)
	if err != nil {
		return fmt.Errorf("refresh lock heartbeat: %w", err)
	}
	return nil
}

// ResetFlag reports whether a re-baseline was requested.
func (r *FusionStateRepository) ResetFlag(ctx context.Context, fusionSourceID string) (bool, error) {
	var reset bool
	err := r.pool.QueryRow(ctx, `
		SELECT reset_requested FROM fusion_state WHERE fusion_source_id = $1`,
		fusionSourceID).Scan(&reset)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read reset flag: %w", err)
	}
	return reset, nil
}

// ClearResetFlag disables the reset flag after a re-baseline completes.
func (r *FusionStateRepository) ClearResetFlag(ctx context.Context, fusionSourceID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE fusion_state
		SET reset_requested = false, updated_at = now()
		WHERE fusion_source_id = $1`,
		fusionSourceID)
	if err != nil {
		return fmt.Errorf("clear reset flag: %w", err)
	}
	return nil
}

// RequestReset arms the reset flag for the next run.
func (r *FusionStateRepository) RequestReset(ctx context.Context, fusionSourceID string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO fusion_state (fusion_source_id, reset_requested, updated_at)
		VALUES ($1, true, now())
		ON CONFLICT (fusion_source_id)
		DO UPDATE SET reset_requested = true, updated_at = now()`,
		fusionSourceID)
	if err != nil {
		return fmt.Errorf("request reset: %w", err)
	}
	return nil
}

// CumulativeCount returns the cumulative incremental-fetch count for one
// managed source, zero when the source has never been fetched.
func (r *FusionStateRepository) CumulativeCount(ctx context.Context, fusionSourceID, sourceID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT cumulative_count FROM fusion_counts
		WHERE fusion_source_id = $1 AND source_id = $2`,
		fusionSourceID, sourceID).Scan(&count)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read cumulative count: %w", err)
	}
	return count, nil
}

// SetCumulativeCount persists the cumulative incremental-fetch count.
func (r *FusionStateRepository) SetCumulativeCount(ctx context.Context, fusionSourceID, sourceID string, count int) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO fusion_counts (fusion_source_id, source_id, cumulative_count)
		VALUES ($1, $2, $3)
		ON CONFLICT (fusion_source_id, source_id)
		DO UPDATE SET cumulative_count = EXCLUDED.cumulative_count`,
		fusionSourceID, sourceID, count)
	if err != nil {
		return fmt.Errorf("save cumulative count: %w", err)
	}
	return nil
}

// ClearCumulativeCounts drops every cumulative count for a fusion source.
func (r *FusionStateRepository) ClearCumulativeCounts(ctx context.Context, fusionSourceID string) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM fusion_counts WHERE fusion_source_id = $1`,
		fusionSourceID)
	if err != nil {
		return fmt.Errorf("clear cumulative counts: %w", err)
	}
	return nil
}

// AttributeValues returns the issued-value ledger of one unique attribute.
func (r *FusionStateRepository) AttributeValues(ctx context.Context, fusionSourceID, attribute string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT value FROM fusion_attribute_values
		WHERE fusion_source_id = $1 AND attribute = $2`,
		fusionSourceID, attribute)
	if err != nil {
		return nil, fmt.Errorf("read attribute values: %w", err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan attribute value: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read attribute values: %w", err)
	}
	return values, nil
}

// SaveAttributeValues persists newly issued unique values. Values already in
// the ledger are kept; the ledger only grows.
func (r *FusionStateRepository) SaveAttributeValues(ctx context.Context, fusionSourceID, attribute string, values []string) error {
	if len(values) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, v := range values {
		batch.Queue(`
			INSERT INTO fusion_attribute_values (fusion_source_id, attribute, value)
			VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING`,
			fusionSourceID, attribute, v)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range values {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("save attribute values: %w", err)
		}
	}
	return nil
}
