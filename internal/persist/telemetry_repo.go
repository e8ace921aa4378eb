package persist

import (
	"context"
	"fmt"
	"time"
)

// TransitionRow is one recorded stamina or sprint state change.
type TransitionRow struct {
	Actor      string
	EntityID   uint64
	Kind       string // actor.Transition name, e.g. "exhausted"
	Tick       uint64
	Stamina    float64
	RecordedAt time.Time
}

type TelemetryRepo struct {
	db *DB
}

func NewTelemetryRepo(db *DB) *TelemetryRepo {
	return &TelemetryRepo{db: db}
}

// WriteTransitions inserts a batch in a single transaction. Either the whole
// batch lands or none of it does.
func (r *TelemetryRepo) WriteTransitions(ctx context.Context, rows []TransitionRow) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("telemetry begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, row := range rows {
		if _, err := tx.Exec(ctx,
			`INSERT INTO stamina_transitions (actor, entity_id, kind, tick, stamina, recorded_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			row.Actor, int64(row.EntityID), row.Kind, int64(row.Tick), row.Stamina, row.RecordedAt,
		); err != nil {
			return fmt.Errorf("telemetry insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// CountByKind returns how many transitions of each kind an actor has recorded.
func (r *TelemetryRepo) CountByKind(ctx context.Context, actor string) (map[string]int, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT kind, COUNT(*) FROM stamina_transitions WHERE actor = $1 GROUP BY kind`,
		actor,
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry count: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var kind string
		var n int64
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("telemetry scan: %w", err)
		}
		counts[kind] = int(n)
	}
	return counts, rows.Err()
}
