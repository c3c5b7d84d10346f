// Package eventlog persists counting runs and their line crossing events to
// a SQLite database.
package eventlog

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/swdee/go-footfall"
	"github.com/swdee/go-footfall/counter"
	"github.com/swdee/go-footfall/tracker"
)

// schema.sql defines the runs table, one row per program execution, and the
// crossings table holding every entry and exit event of a run
//
//go:embed schema.sql
var schemaSQL string

// connPragmas are applied by the driver to every pooled connection
const connPragmas = "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

// ErrRunNotFound is returned when a run ID does not exist
var ErrRunNotFound = errors.New("run not found")

// Log is a SQLite backed store of counting runs
type Log struct {
	*sql.DB
}

// Run describes a counting run
type Run struct {
	ID          string
	Source      string
	FrameWidth  int
	FrameHeight int
	LineY       float64
	Direction   string
	Association string
	Started     time.Time
	// Finished is zero while the run is in progress
	Finished time.Time
	// Report is set once the run is finished
	Report *footfall.Report
}

// Crossing is a persisted line crossing event
type Crossing struct {
	RunID    string
	TrackID  int
	Kind     string
	Frame    int
	Position tracker.Point
	Recorded time.Time
}

// Open opens or creates the database at path and applies the schema
func Open(ctx context.Context, path string) (*Log, error) {

	db, err := sql.Open("sqlite", path+"?"+connPragmas)

	if err != nil {
		return nil, fmt.Errorf("error opening event log: %w", err)
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("error applying event log schema: %w", err)
	}

	return &Log{db}, nil
}

// StartRun records the start of a counting run for the given video source
// and engine configuration and returns the new run ID
func (l *Log) StartRun(ctx context.Context, source string, cfg footfall.Config) (string, error) {

	id := uuid.New().String()

	query := `
		INSERT INTO runs (run_id, source, frame_width, frame_height, line_y,
			direction, association, started_unix_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := l.ExecContext(ctx, query, id, source, cfg.FrameWidth,
		cfg.FrameHeight, cfg.LineY(), cfg.Direction.String(),
		cfg.Association.String(), time.Now().UnixMilli())

	if err != nil {
		return "", fmt.Errorf("failed to start run: %w", err)
	}

	return id, nil
}

// RecordEvents stores the crossing events of a frame in a single transaction
func (l *Log) RecordEvents(ctx context.Context, runID string, events []counter.Event) error {

	if len(events) == 0 {
		return nil
	}

	tx, err := l.BeginTx(ctx, nil)

	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO crossings (run_id, track_id, kind, frame, x, y, recorded_unix_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)

	if err != nil {
		return fmt.Errorf("failed to prepare crossing insert: %w", err)
	}

	defer stmt.Close()

	now := time.Now().UnixMilli()

	for _, ev := range events {
		_, err := stmt.ExecContext(ctx, runID, ev.TrackID, ev.Kind.String(),
			ev.Frame, ev.Position.X, ev.Position.Y, now)

		if err != nil {
			return fmt.Errorf("failed to insert crossing for track %d: %w", ev.TrackID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit crossings: %w", err)
	}

	return nil
}

// FinishRun stores the final report of a run
func (l *Log) FinishRun(ctx context.Context, runID string, r footfall.Report) error {

	query := `
		UPDATE runs
		SET finished_unix_ms = ?, total_entries = ?, total_exits = ?,
			occupancy = ?, frames = ?, tracks_seen = ?
		WHERE run_id = ?
	`

	res, err := l.ExecContext(ctx, query, time.Now().UnixMilli(), r.TotalEntries,
		r.TotalExits, r.Occupancy, r.Frames, r.TracksSeen, runID)

	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	n, err := res.RowsAffected()

	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	return nil
}

// Run returns the run with the given ID
func (l *Log) Run(ctx context.Context, runID string) (Run, error) {

	query := `
		SELECT run_id, source, frame_width, frame_height, line_y, direction,
			association, started_unix_ms, finished_unix_ms, total_entries,
			total_exits, occupancy, frames, tracks_seen
		FROM runs
		WHERE run_id = ?
	`

	var (
		r        Run
		started  int64
		finished sql.NullInt64
		entries  sql.NullInt64
		exits    sql.NullInt64
		occ      sql.NullInt64
		frames   sql.NullInt64
		tracks   sql.NullInt64
	)

	err := l.QueryRowContext(ctx, query, runID).Scan(&r.ID, &r.Source,
		&r.FrameWidth, &r.FrameHeight, &r.LineY, &r.Direction, &r.Association,
		&started, &finished, &entries, &exits, &occ, &frames, &tracks)

	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	if err != nil {
		return Run{}, fmt.Errorf("failed to query run: %w", err)
	}

	r.Started = time.UnixMilli(started)

	if finished.Valid {
		r.Finished = time.UnixMilli(finished.Int64)
		r.Report = &footfall.Report{
			TotalEntries: int(entries.Int64),
			TotalExits:   int(exits.Int64),
			Occupancy:    int(occ.Int64),
			Frames:       int(frames.Int64),
			TracksSeen:   int(tracks.Int64),
		}
	}

	return r, nil
}

// Crossings returns every crossing of a run in frame order
func (l *Log) Crossings(ctx context.Context, runID string) ([]Crossing, error) {

	query := `
		SELECT run_id, track_id, kind, frame, x, y, recorded_unix_ms
		FROM crossings
		WHERE run_id = ?
		ORDER BY frame, id
	`

	rows, err := l.QueryContext(ctx, query, runID)

	if err != nil {
		return nil, fmt.Errorf("failed to query crossings: %w", err)
	}

	defer rows.Close()

	var crossings []Crossing

	for rows.Next() {
		var (
			c        Crossing
			recorded int64
		)

		err := rows.Scan(&c.RunID, &c.TrackID, &c.Kind, &c.Frame,
			&c.Position.X, &c.Position.Y, &recorded)

		if err != nil {
			return nil, fmt.Errorf("failed to scan crossing: %w", err)
		}

		c.Recorded = time.UnixMilli(recorded)
		crossings = append(crossings, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read crossings: %w", err)
	}

	return crossings, nil
}
