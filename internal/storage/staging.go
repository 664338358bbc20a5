package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mapguri/facility-flow/internal/model"
)

// InsertStagingRecords writes one chunk of Review/Reject rows inside a single
// transaction.
func (s *SQLiteStorage) InsertStagingRecords(ctx context.Context, records []model.StagingRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateStagingRecords(records); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO staging_records (
			upload_id, name_raw, address_raw, lat_raw, lng_raw,
			name, address, lat, lng, floor, status, reason, logs, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now()
	for i, r := range records {
		logsJSON, marshalErr := json.Marshal(r.Logs)
		if marshalErr != nil {
			return fmt.Errorf("failed to marshal logs for record %d: %w", i, marshalErr)
		}

		createdAt := r.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}

		if _, err := stmt.ExecContext(ctx,
			r.UploadID,
			r.NameRaw,
			r.AddressRaw,
			r.LatRaw,
			r.LngRaw,
			r.Name,
			r.Address,
			r.Lat,
			r.Lng,
			r.Floor,
			string(r.Status),
			r.Reason,
			string(logsJSON),
			createdAt,
		); err != nil {
			return fmt.Errorf("failed to insert staging record %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// GetStagingRecordsByUpload retrieves the staged rows for one upload job.
func (s *SQLiteStorage) GetStagingRecordsByUpload(ctx context.Context, uploadID string) ([]model.StagingRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(uploadID, "uploadID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, upload_id, name_raw, address_raw, lat_raw, lng_raw,
			name, address, lat, lng, floor, status, reason, logs, created_at
		FROM staging_records WHERE upload_id = ? ORDER BY id
	`, uploadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query staging records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.StagingRecord
	for rows.Next() {
		var r model.StagingRecord
		var status, logsJSON string
		if err := rows.Scan(&r.ID, &r.UploadID, &r.NameRaw, &r.AddressRaw, &r.LatRaw, &r.LngRaw,
			&r.Name, &r.Address, &r.Lat, &r.Lng, &r.Floor, &status, &r.Reason, &logsJSON, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan staging record: %w", err)
		}
		r.Status = model.StagingStatus(status)
		if logsJSON != "" {
			if err := json.Unmarshal([]byte(logsJSON), &r.Logs); err != nil {
				return nil, fmt.Errorf("failed to unmarshal logs for record %d: %w", r.ID, err)
			}
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

// UpdateStagingStatus transitions one staged row. Used by the review
// workflow's backend, not by the ingestion pipeline itself.
func (s *SQLiteStorage) UpdateStagingStatus(ctx context.Context, id int64, status model.StagingStatus) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	switch status {
	case model.StagingReviewNeeded, model.StagingRejected, model.StagingDone:
	default:
		return fmt.Errorf("%w: status %q", ErrInvalidStaging, status)
	}

	result, err := s.db.ExecContext(ctx,
		"UPDATE staging_records SET status = ? WHERE id = ?", string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update staging status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check staging update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: staging record %d", ErrInvalidStaging, id)
	}

	return nil
}
