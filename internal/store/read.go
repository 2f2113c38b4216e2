package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/provtrack/internal/schema"
)

// ErrNotFound is returned when no event is stored under a key.
var ErrNotFound = schema.ErrNotFound

// ListOptions filters ReadEvents.
type ListOptions struct {
	// Kind restricts results to one event kind. Empty means all kinds.
	Kind schema.EventKind
	// AfterSeq skips events with seq <= AfterSeq.
	AfterSeq int64
	// Limit caps the number of results. Zero means no cap.
	Limit int
}

// Counts summarizes store contents.
type Counts struct {
	Events           int64
	DataFrames       int64
	Transformers     int64
	TransformerSpecs int64
}

// ReadEvents returns stored events ordered by seq ASC, id ASC.
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ReadEvents(ctx context.Context, opts ListOptions) ([]schema.Record, error) {
	var (
		where []string
		args  []any
	)
	where = append(where, "seq > ?")
	args = append(args, opts.AfterSeq)
	if opts.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(opts.Kind))
	}

	query := `
		SELECT id, event_key, seq, body
		FROM events
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY seq ASC, id ASC`
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	return scanRecords(rows)
}

// ReadEvent retrieves a single event by key.
// Returns ErrNotFound if the key was never synced.
func (s *Store) ReadEvent(ctx context.Context, key string) (schema.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, event_key, seq, body
		FROM events
		WHERE event_key = ?
	`, key)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return schema.Record{}, fmt.Errorf("read event %q: %w", key, ErrNotFound)
	}
	return rec, err
}

// EventsForTag returns every event that read or produced a data frame
// tagged tag, ordered by seq ASC, id ASC.
func (s *Store) EventsForTag(ctx context.Context, tag string) ([]schema.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.event_key, e.seq, e.body
		FROM events e
		WHERE e.id IN (SELECT event_id FROM dataframes WHERE tag = ?)
		ORDER BY e.seq ASC, e.id ASC
	`, tag)
	if err != nil {
		return nil, fmt.Errorf("query events for tag: %w", err)
	}
	return scanRecords(rows)
}

// Counts returns the number of stored rows per table.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM events),
			(SELECT COUNT(*) FROM dataframes),
			(SELECT COUNT(*) FROM transformers),
			(SELECT COUNT(*) FROM transformer_specs)
	`).Scan(&c.Events, &c.DataFrames, &c.Transformers, &c.TransformerSpecs)
	if err != nil {
		return Counts{}, fmt.Errorf("count rows: %w", err)
	}
	return c, nil
}

// TransformerTypes returns how many fitted transformers of each type are
// stored.
func (s *Store) TransformerTypes(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT type, COUNT(*) FROM transformers GROUP BY type ORDER BY type
	`)
	if err != nil {
		return nil, fmt.Errorf("query transformer types: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var (
			typ string
			n   int64
		)
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, fmt.Errorf("scan transformer type: %w", err)
		}
		out[typ] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transformer types: %w", err)
	}
	return out, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRecord scans one events row into a Record.
func scanRecord(row rowScanner) (schema.Record, error) {
	var (
		rec  schema.Record
		body string
	)
	if err := row.Scan(&rec.ID, &rec.Key, &rec.Seq, &body); err != nil {
		return schema.Record{}, err
	}
	ev, err := unmarshalEvent(body)
	if err != nil {
		return schema.Record{}, fmt.Errorf("event %q: %w", rec.Key, err)
	}
	rec.Event = ev
	return rec, nil
}

// scanRecords drains rows into Records and closes them.
func scanRecords(rows *sql.Rows) ([]schema.Record, error) {
	defer rows.Close()

	records := []schema.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return records, nil
}
