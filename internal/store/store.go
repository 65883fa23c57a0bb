package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MOYARU/verid/internal/report"
)

var ErrNotFound = errors.New("identification not found")

const schema = `
CREATE TABLE IF NOT EXISTS identifications (
	scan_id      uuid PRIMARY KEY,
	target       text        NOT NULL,
	collection   text        NOT NULL,
	status       text        NOT NULL,
	version      text        NOT NULL DEFAULT '',
	decision     text        NOT NULL,
	confidence   integer     NOT NULL,
	started_at   timestamptz NOT NULL,
	finished_at  timestamptz NOT NULL,
	report_json  jsonb       NOT NULL
);
CREATE INDEX IF NOT EXISTS identifications_target_idx ON identifications (target, finished_at DESC);
`

// Store persists identification reports in PostgreSQL.
type Store struct{ Pool *pgxpool.Pool }

func Open(ctx context.Context, url string) (*Store, error) {
	p, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{Pool: p}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

// Migrate creates the identifications table when missing.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, schema)
	return err
}

// Save upserts r keyed by its scan ID.
func (s *Store) Save(ctx context.Context, r *report.Report) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx, `
		INSERT INTO identifications
		    (scan_id, target, collection, status, version, decision, confidence, started_at, finished_at, report_json)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10::jsonb)
		ON CONFLICT (scan_id) DO UPDATE
		SET status=EXCLUDED.status, version=EXCLUDED.version, decision=EXCLUDED.decision,
		    confidence=EXCLUDED.confidence, finished_at=EXCLUDED.finished_at, report_json=EXCLUDED.report_json
	`, r.ScanID, r.Target, r.Collection, string(r.Status), r.Version, string(r.Decision), r.Confidence,
		r.StartTime, finishedAt(r), string(raw))
	return err
}

func finishedAt(r *report.Report) time.Time {
	if r.EndTime.IsZero() {
		return time.Now()
	}
	return r.EndTime
}

// Get loads one stored report.
func (s *Store) Get(ctx context.Context, scanID string) (*report.Report, error) {
	var raw []byte
	err := s.Pool.QueryRow(ctx, `SELECT report_json FROM identifications WHERE scan_id=$1::uuid`, scanID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var r report.Report
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decode stored report %s: %w", scanID, err)
	}
	return &r, nil
}

// Summary is one row of a target's identification history.
type Summary struct {
	ScanID     string    `json:"scan_id"`
	Collection string    `json:"collection"`
	Status     string    `json:"status"`
	Version    string    `json:"version,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}

// History lists the most recent identifications of target, newest first.
func (s *Store) History(ctx context.Context, target string, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT scan_id::text, collection, status, version, finished_at
		FROM identifications
		WHERE target=$1
		ORDER BY finished_at DESC
		LIMIT $2
	`, report.SanitizeURL(target), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sm Summary
		if err := rows.Scan(&sm.ScanID, &sm.Collection, &sm.Status, &sm.Version, &sm.FinishedAt); err != nil {
			return nil, err
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}
