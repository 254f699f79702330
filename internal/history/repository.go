package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/roverworks/choreod/internal/choreo"
)

// Performance represents one run of a choreography script.
type Performance struct {
	ID         string     `json:"id"`
	ScriptName string     `json:"script_name"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// ActionRecord represents one emitted action within a performance.
type ActionRecord struct {
	ID            int64          `json:"id"`
	PerformanceID string         `json:"performance_id"`
	Kind          string         `json:"kind"`
	Detail        map[string]any `json:"detail,omitempty"`
	EmittedAt     time.Time      `json:"emitted_at"`
}

// Repository provides access to the performance history tables.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a performance history repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreatePerformance inserts a new performance row. The ID is generated
// if empty.
func (r *Repository) CreatePerformance(ctx context.Context, p *Performance) error {
	if p.ID == "" {
		p.ID = "perf-" + uuid.NewString()[:8]
	}
	if p.StartedAt.IsZero() {
		p.StartedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO performances (id, script_name, started_at) VALUES (?, ?, ?)`,
		p.ID, p.ScriptName, p.StartedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting performance: %w", err)
	}
	return nil
}

// FinishPerformance stamps the finished_at column of a performance.
func (r *Repository) FinishPerformance(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE performances SET finished_at = ? WHERE id = ?`,
		at.UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("finishing performance: %w", err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("finishing performance: %s not found", id)
	}
	return nil
}

// AddAction inserts one emitted action for a performance.
func (r *Repository) AddAction(ctx context.Context, rec *ActionRecord) error {
	if rec.EmittedAt.IsZero() {
		rec.EmittedAt = time.Now().UTC()
	}

	var detailJSON *string
	if rec.Detail != nil {
		b, err := json.Marshal(rec.Detail)
		if err != nil {
			return fmt.Errorf("marshalling action detail: %w", err)
		}
		s := string(b)
		detailJSON = &s
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO performance_actions (performance_id, kind, detail, emitted_at)
		 VALUES (?, ?, ?, ?)`,
		rec.PerformanceID, rec.Kind, detailJSON,
		rec.EmittedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting performance action: %w", err)
	}
	return nil
}

// ListPerformances returns performances ordered by most recent first.
// limit is clamped to [1, 200], 50 when zero.
func (r *Repository) ListPerformances(ctx context.Context, limit, offset int) ([]Performance, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 { //nolint:mnd // max page size for history queries
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, script_name, started_at, finished_at
		 FROM performances ORDER BY started_at DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("querying performances: %w", err)
	}
	defer rows.Close()

	var performances []Performance
	for rows.Next() {
		var p Performance
		var startedAt string
		var finishedAt sql.NullString

		if err := rows.Scan(&p.ID, &p.ScriptName, &startedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("scanning performance: %w", err)
		}

		p.StartedAt, err = time.Parse(time.RFC3339, startedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing started_at %q: %w", startedAt, err)
		}
		if finishedAt.Valid && finishedAt.String != "" {
			t, err := time.Parse(time.RFC3339, finishedAt.String)
			if err != nil {
				return nil, fmt.Errorf("parsing finished_at %q: %w", finishedAt.String, err)
			}
			p.FinishedAt = &t
		}

		performances = append(performances, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating performances: %w", err)
	}

	if performances == nil {
		performances = []Performance{}
	}
	return performances, nil
}

// ListActions returns the actions of one performance in emission order.
func (r *Repository) ListActions(ctx context.Context, performanceID string) ([]ActionRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, performance_id, kind, detail, emitted_at
		 FROM performance_actions WHERE performance_id = ? ORDER BY id`,
		performanceID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying performance actions: %w", err)
	}
	defer rows.Close()

	var records []ActionRecord
	for rows.Next() {
		var rec ActionRecord
		var detailJSON sql.NullString
		var emittedAt string

		if err := rows.Scan(&rec.ID, &rec.PerformanceID, &rec.Kind, &detailJSON, &emittedAt); err != nil {
			return nil, fmt.Errorf("scanning performance action: %w", err)
		}

		if detailJSON.Valid && detailJSON.String != "" {
			var detail map[string]any
			if json.Unmarshal([]byte(detailJSON.String), &detail) == nil {
				rec.Detail = detail
			}
		}

		rec.EmittedAt, err = time.Parse(time.RFC3339, emittedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing emitted_at %q: %w", emittedAt, err)
		}

		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating performance actions: %w", err)
	}

	if records == nil {
		records = []ActionRecord{}
	}
	return records, nil
}

// describeAction maps a choreography action to its stored kind and detail.
func describeAction(action choreo.Action) (kind string, detail map[string]any) {
	switch a := action.(type) {
	case choreo.Move:
		return "move", map[string]any{
			"linear_m_s":    a.Linear,
			"angular_rad_s": a.Angular,
		}
	case choreo.SetLights:
		first := a.Colors[0]
		return "lights", map[string]any{
			"first_segment": fmt.Sprintf("(%d,%d,%d)", first.R, first.G, first.B),
		}
	case choreo.Finished:
		return "finished", nil
	default:
		return "unknown", nil
	}
}
