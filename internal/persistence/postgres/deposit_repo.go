// Package postgres implements the persistence contracts on PostgreSQL via
// sqlx.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/arcticwatch/reescan/internal/deposit"
	"github.com/arcticwatch/reescan/internal/persistence"
	"github.com/arcticwatch/reescan/internal/score"
)

// Schema holds the DDL for the deposit tables. Applied idempotently at
// startup; the dataset is small enough that migrations would be overkill.
const Schema = `
CREATE TABLE IF NOT EXISTS deposits (
	name                 TEXT PRIMARY KEY,
	latitude             DOUBLE PRECISION NOT NULL DEFAULT 0,
	longitude            DOUBLE PRECISION NOT NULL DEFAULT 0,
	geological_score     DOUBLE PRECISION,
	regulatory_score     DOUBLE PRECISION,
	ownership_score      DOUBLE PRECISION,
	infrastructure_score DOUBLE PRECISION,
	geopolitical_score   DOUBLE PRECISION,
	owner                TEXT NOT NULL DEFAULT '',
	chinese_stake_pct    DOUBLE PRECISION NOT NULL DEFAULT 0,
	status               TEXT NOT NULL DEFAULT 'Unknown',
	resource_mt          DOUBLE PRECISION,
	treo_grade_pct       DOUBLE PRECISION,
	heavy_ree_pct        DOUBLE PRECISION,
	uranium_ppm          DOUBLE PRECISION,
	stale                BOOLEAN NOT NULL DEFAULT FALSE,
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS ranking_snapshots (
	batch_id     TEXT PRIMARY KEY,
	generated_at TIMESTAMPTZ NOT NULL,
	payload      JSONB NOT NULL
);
`

// depositRepo implements persistence.DepositRepo on PostgreSQL.
type depositRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewDepositRepo creates a PostgreSQL deposit repository.
func NewDepositRepo(db *sqlx.DB, timeout time.Duration) persistence.DepositRepo {
	return &depositRepo{db: db, timeout: timeout}
}

// EnsureSchema applies the DDL.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (r *depositRepo) Upsert(ctx context.Context, rec *deposit.Record) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO deposits
		(name, latitude, longitude, geological_score, regulatory_score,
		 ownership_score, infrastructure_score, geopolitical_score, owner,
		 chinese_stake_pct, status, resource_mt, treo_grade_pct,
		 heavy_ree_pct, uranium_ppm, stale, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (name) DO UPDATE SET
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			geological_score = EXCLUDED.geological_score,
			regulatory_score = EXCLUDED.regulatory_score,
			ownership_score = EXCLUDED.ownership_score,
			infrastructure_score = EXCLUDED.infrastructure_score,
			geopolitical_score = EXCLUDED.geopolitical_score,
			owner = EXCLUDED.owner,
			chinese_stake_pct = EXCLUDED.chinese_stake_pct,
			status = EXCLUDED.status,
			resource_mt = EXCLUDED.resource_mt,
			treo_grade_pct = EXCLUDED.treo_grade_pct,
			heavy_ree_pct = EXCLUDED.heavy_ree_pct,
			uranium_ppm = EXCLUDED.uranium_ppm,
			stale = EXCLUDED.stale,
			updated_at = EXCLUDED.updated_at`

	updatedAt := rec.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, query,
		rec.Name, rec.Latitude, rec.Longitude,
		rec.Geological, rec.Regulatory, rec.Ownership,
		rec.Infrastructure, rec.Geopolitical,
		rec.Owner, rec.ChineseStakePct, rec.Status,
		rec.ResourceMt, rec.TREOGradePct, rec.HeavyREEPct, rec.UraniumPPM,
		rec.Stale, updatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert deposit %s: %w", rec.Name, err)
	}
	return nil
}

func (r *depositRepo) List(ctx context.Context) ([]*deposit.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT name, latitude, longitude, geological_score, regulatory_score,
		       ownership_score, infrastructure_score, geopolitical_score,
		       owner, chinese_stake_pct, status, resource_mt, treo_grade_pct,
		       heavy_ree_pct, uranium_ppm, stale, updated_at
		FROM deposits
		ORDER BY name`

	var records []*deposit.Record
	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list deposits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rec := &deposit.Record{}
		if err := rows.StructScan(rec); err != nil {
			return nil, fmt.Errorf("failed to scan deposit row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("deposit row iteration failed: %w", err)
	}

	return records, nil
}

func (r *depositRepo) MarkStaleExcept(ctx context.Context, activeNames []string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		UPDATE deposits
		SET stale = (name <> ALL($1))`

	if _, err := r.db.ExecContext(ctx, query, pq.Array(activeNames)); err != nil {
		return fmt.Errorf("failed to mark stale deposits: %w", err)
	}
	return nil
}

// snapshotRepo implements persistence.SnapshotRepo on PostgreSQL.
type snapshotRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewSnapshotRepo creates a PostgreSQL ranking snapshot repository.
func NewSnapshotRepo(db *sqlx.DB, timeout time.Duration) persistence.SnapshotRepo {
	return &snapshotRepo{db: db, timeout: timeout}
}

func (r *snapshotRepo) Save(ctx context.Context, snap score.Snapshot) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	query := `
		INSERT INTO ranking_snapshots (batch_id, generated_at, payload)
		VALUES ($1, $2, $3)
		ON CONFLICT (batch_id) DO UPDATE SET
			generated_at = EXCLUDED.generated_at,
			payload = EXCLUDED.payload`

	if _, err := r.db.ExecContext(ctx, query, snap.BatchID, snap.GeneratedAt, payload); err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", snap.BatchID, err)
	}
	return nil
}

func (r *snapshotRepo) Latest(ctx context.Context) (score.Snapshot, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT payload
		FROM ranking_snapshots
		ORDER BY generated_at DESC
		LIMIT 1`

	var payload []byte
	err := r.db.QueryRowxContext(ctx, query).Scan(&payload)
	if err == sql.ErrNoRows {
		return score.Snapshot{}, false, nil
	}
	if err != nil {
		return score.Snapshot{}, false, fmt.Errorf("failed to load latest snapshot: %w", err)
	}

	var snap score.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return score.Snapshot{}, false, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return snap, true, nil
}
