package tracker

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/specfold/specfold/internal/qa"
	"github.com/specfold/specfold/internal/spec"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("tracker: record not found")

const specColumns = `id, name, description, stage, created_at, updated_at, completed_at,
	requirements, test_files, implementation_files, metadata`

// GetSpec loads one spec summary by ID. Returns ErrNotFound when the
// spec is not tracked.
func (s *Store) GetSpec(ctx context.Context, id string) (*spec.Spec, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+specColumns+` FROM specs WHERE id = ?`, id)
	sp, err := scanSpec(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("spec %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get spec %s: %w", id, err)
	}

	if err := s.attachQAReport(ctx, sp); err != nil {
		return nil, err
	}
	return sp, nil
}

// ListSpecs loads all tracked specs ordered by ID.
func (s *Store) ListSpecs(ctx context.Context) ([]*spec.Spec, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+specColumns+` FROM specs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list specs: %w", err)
	}
	defer rows.Close()

	var specs []*spec.Spec
	for rows.Next() {
		sp, err := scanSpec(rows)
		if err != nil {
			return nil, fmt.Errorf("list specs: %w", err)
		}
		specs = append(specs, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list specs: %w", err)
	}

	for _, sp := range specs {
		if err := s.attachQAReport(ctx, sp); err != nil {
			return nil, err
		}
	}
	return specs, nil
}

// GetQAReport loads the stored QA report for a spec, or ErrNotFound.
func (s *Store) GetQAReport(ctx context.Context, specID string) (*qa.Report, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT report FROM qa_reports WHERE spec_id = ?`, specID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("qa report for %s: %w", specID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get qa report for %s: %w", specID, err)
	}

	var report qa.Report
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		return nil, fmt.Errorf("decode qa report for %s: %w", specID, err)
	}
	return &report, nil
}

// Transition is one row of a spec's stage history.
type Transition struct {
	ID     string     `json:"id"`
	SpecID string     `json:"spec_id"`
	From   spec.Stage `json:"from"`
	To     spec.Stage `json:"to"`
	At     time.Time  `json:"at"`
}

// History returns a spec's transitions in insertion order (UUIDv7 IDs
// are time-sortable).
func (s *Store) History(ctx context.Context, specID string) ([]Transition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, spec_id, from_stage, to_stage, at
		FROM transitions WHERE spec_id = ? ORDER BY id
	`, specID)
	if err != nil {
		return nil, fmt.Errorf("history for %s: %w", specID, err)
	}
	defer rows.Close()

	var history []Transition
	for rows.Next() {
		var tr Transition
		var from, to, at string
		if err := rows.Scan(&tr.ID, &tr.SpecID, &from, &to, &at); err != nil {
			return nil, fmt.Errorf("history for %s: %w", specID, err)
		}
		tr.From = spec.Stage(from)
		tr.To = spec.Stage(to)
		if tr.At, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("history for %s: %w", specID, err)
		}
		history = append(history, tr)
	}
	return history, rows.Err()
}

// scanner abstracts sql.Row and sql.Rows for scanSpec.
type scanner interface {
	Scan(dest ...any) error
}

func scanSpec(row scanner) (*spec.Spec, error) {
	var sp spec.Spec
	var stage, createdAt, updatedAt string
	var completedAt sql.NullString
	var requirements, testFiles, implFiles, metadata string

	if err := row.Scan(&sp.ID, &sp.Name, &sp.Description, &stage,
		&createdAt, &updatedAt, &completedAt,
		&requirements, &testFiles, &implFiles, &metadata); err != nil {
		return nil, err
	}

	sp.Stage = spec.Stage(stage)

	var err error
	if sp.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if sp.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	if completedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, completedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse completed_at: %w", err)
		}
		sp.CompletedAt = &t
	}

	if err := json.Unmarshal([]byte(requirements), &sp.Requirements); err != nil {
		return nil, fmt.Errorf("decode requirements: %w", err)
	}
	if err := json.Unmarshal([]byte(testFiles), &sp.TestFiles); err != nil {
		return nil, fmt.Errorf("decode test_files: %w", err)
	}
	if err := json.Unmarshal([]byte(implFiles), &sp.ImplementationFiles); err != nil {
		return nil, fmt.Errorf("decode implementation_files: %w", err)
	}
	if err := json.Unmarshal([]byte(metadata), &sp.Metadata); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return &sp, nil
}

// attachQAReport hydrates the spec's QA report if one is stored.
func (s *Store) attachQAReport(ctx context.Context, sp *spec.Spec) error {
	report, err := s.GetQAReport(ctx, sp.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	sp.QAReport = report
	return nil
}
