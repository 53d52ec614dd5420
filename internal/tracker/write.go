package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/specfold/specfold/internal/qa"
	"github.com/specfold/specfold/internal/spec"
)

// SaveSpec upserts a spec summary row. Requirements, file lists, and
// metadata are stored as JSON columns; the QA report, when present,
// goes to its own table.
func (s *Store) SaveSpec(ctx context.Context, sp *spec.Spec) error {
	requirements, err := json.Marshal(sp.Requirements)
	if err != nil {
		return fmt.Errorf("save spec %s: %w", sp.ID, err)
	}
	testFiles, err := json.Marshal(sp.TestFiles)
	if err != nil {
		return fmt.Errorf("save spec %s: %w", sp.ID, err)
	}
	implFiles, err := json.Marshal(sp.ImplementationFiles)
	if err != nil {
		return fmt.Errorf("save spec %s: %w", sp.ID, err)
	}
	metadata, err := json.Marshal(sp.Metadata)
	if err != nil {
		return fmt.Errorf("save spec %s: %w", sp.ID, err)
	}

	var completedAt any
	if sp.CompletedAt != nil {
		completedAt = sp.CompletedAt.Format(time.RFC3339Nano)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO specs
		(id, name, description, stage, created_at, updated_at, completed_at,
		 requirements, test_files, implementation_files, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			stage = excluded.stage,
			updated_at = excluded.updated_at,
			completed_at = excluded.completed_at,
			requirements = excluded.requirements,
			test_files = excluded.test_files,
			implementation_files = excluded.implementation_files,
			metadata = excluded.metadata
	`,
		sp.ID,
		sp.Name,
		sp.Description,
		string(sp.Stage),
		sp.CreatedAt.Format(time.RFC3339Nano),
		sp.UpdatedAt.Format(time.RFC3339Nano),
		completedAt,
		string(requirements),
		string(testFiles),
		string(implFiles),
		string(metadata),
	)
	if err != nil {
		return fmt.Errorf("save spec %s: %w", sp.ID, err)
	}

	if sp.QAReport != nil {
		if err := s.SaveQAReport(ctx, sp.ID, sp.QAReport); err != nil {
			return err
		}
	}
	return nil
}

// RecordTransition appends a stage-transition row with a time-sortable
// UUIDv7 ID.
func (s *Store) RecordTransition(ctx context.Context, specID string, from, to spec.Stage, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transitions (id, spec_id, from_stage, to_stage, at)
		VALUES (?, ?, ?, ?, ?)
	`,
		uuid.Must(uuid.NewV7()).String(),
		specID,
		string(from),
		string(to),
		at.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record transition %s → %s for %s: %w", from, to, specID, err)
	}
	return nil
}

// SaveQAReport upserts the QA report for a spec.
func (s *Store) SaveQAReport(ctx context.Context, specID string, report *qa.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("save qa report for %s: %w", specID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO qa_reports (spec_id, report) VALUES (?, ?)
		ON CONFLICT(spec_id) DO UPDATE SET report = excluded.report
	`, specID, string(data))
	if err != nil {
		return fmt.Errorf("save qa report for %s: %w", specID, err)
	}
	return nil
}
