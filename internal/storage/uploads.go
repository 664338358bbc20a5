package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mapguri/facility-flow/internal/model"
)

// SaveUploadJob writes one ledger record. Exactly one is created per
// ingestion run; it is the single source of truth for what happened and what
// can be undone.
func (s *SQLiteStorage) SaveUploadJob(ctx context.Context, job *model.UploadJob) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateUploadJob(job); err != nil {
		return err
	}

	idsJSON, err := json.Marshal(job.FacilityIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal facility ids: %w", err)
	}
	logsJSON, err := json.Marshal(job.Logs)
	if err != nil {
		return fmt.Errorf("failed to marshal logs: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO upload_jobs (
			id, file_name, uploaded_by, uploaded_at,
			total_count, success_count, added_count, updated_count, fail_count,
			facility_ids, logs
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		job.ID,
		job.FileName,
		job.UploadedBy,
		job.UploadedAt,
		job.TotalCount,
		job.SuccessCount,
		job.AddedCount,
		job.UpdatedCount,
		job.FailCount,
		string(idsJSON),
		string(logsJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save upload job %s: %w", job.ID, err)
	}

	return nil
}

// GetUploadJob retrieves one ledger record by id.
func (s *SQLiteStorage) GetUploadJob(ctx context.Context, id string) (*model.UploadJob, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, file_name, uploaded_by, uploaded_at,
			total_count, success_count, added_count, updated_count, fail_count,
			facility_ids, logs
		FROM upload_jobs WHERE id = ?
	`, id)

	job, err := scanUploadJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUploadJobNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get upload job %s: %w", id, err)
	}

	return job, nil
}

// ListUploadJobs returns all ledger records, newest first.
func (s *SQLiteStorage) ListUploadJobs(ctx context.Context) ([]model.UploadJob, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, file_name, uploaded_by, uploaded_at,
			total_count, success_count, added_count, updated_count, fail_count,
			facility_ids, logs
		FROM upload_jobs ORDER BY uploaded_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query upload jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var jobs []model.UploadJob
	for rows.Next() {
		job, err := scanUploadJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan upload job: %w", err)
		}
		jobs = append(jobs, *job)
	}

	return jobs, rows.Err()
}

// DeleteUploadJob removes one ledger record, the final step of rollback.
func (s *SQLiteStorage) DeleteUploadJob(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM upload_jobs WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete upload job %s: %w", id, err)
	}

	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUploadJob(row scanner) (*model.UploadJob, error) {
	var job model.UploadJob
	var idsJSON, logsJSON string

	if err := row.Scan(
		&job.ID,
		&job.FileName,
		&job.UploadedBy,
		&job.UploadedAt,
		&job.TotalCount,
		&job.SuccessCount,
		&job.AddedCount,
		&job.UpdatedCount,
		&job.FailCount,
		&idsJSON,
		&logsJSON,
	); err != nil {
		return nil, err
	}

	if idsJSON != "" {
		if err := json.Unmarshal([]byte(idsJSON), &job.FacilityIDs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal facility ids: %w", err)
		}
	}
	if logsJSON != "" {
		if err := json.Unmarshal([]byte(logsJSON), &job.Logs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal logs: %w", err)
		}
	}

	return &job, nil
}
