package process

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DefaultTable is the process-tracking table the pipeline writes to.
const DefaultTable = "material_process_pipeline"

// DBProvider supplies the sql.DB handle, decoupling the store from how the
// connection is configured.
type DBProvider interface {
	DB() *sql.DB
}

// PostgresStore implements Store against a Postgres table with a unique
// constraint on the url column.
type PostgresStore struct {
	provider DBProvider
	table    string
}

// NewPostgresStore creates a store writing to the given table. An empty
// table name selects DefaultTable.
func NewPostgresStore(provider DBProvider, table string) *PostgresStore {
	if table == "" {
		table = DefaultTable
	}
	return &PostgresStore{provider: provider, table: table}
}

// Upsert inserts the snapshot, overwriting any existing row with the same
// URL. Last write wins on concurrent duplicate deliveries, which is safe
// because every write is a complete snapshot.
func (s *PostgresStore) Upsert(ctx context.Context, state State) error {
	db := s.provider.DB()
	if db == nil {
		return fmt.Errorf("postgres handle not initialized")
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (url, stage, manifest, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (url) DO UPDATE SET
			stage = EXCLUDED.stage,
			manifest = EXCLUDED.manifest,
			started_at = EXCLUDED.started_at,
			finished_at = EXCLUDED.finished_at`, s.table)

	_, err := db.ExecContext(ctx, query,
		state.URL, state.Stage, []byte(state.Manifest), state.StartedAt, nullableTime(state.FinishedAt))
	if err != nil {
		return fmt.Errorf("upsert process state for %s: %w", state.URL, err)
	}
	return nil
}

// Update overwrites the stage and finish time of the row keyed by the
// material URL.
func (s *PostgresStore) Update(ctx context.Context, state State) error {
	db := s.provider.DB()
	if db == nil {
		return fmt.Errorf("postgres handle not initialized")
	}

	query := fmt.Sprintf(`UPDATE %s SET stage = $2, finished_at = $3 WHERE url = $1`, s.table)
	_, err := db.ExecContext(ctx, query, state.URL, state.Stage, nullableTime(state.FinishedAt))
	if err != nil {
		return fmt.Errorf("update process state for %s: %w", state.URL, err)
	}
	return nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
