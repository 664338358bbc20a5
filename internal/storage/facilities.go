package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mapguri/facility-flow/internal/model"
)

// InsertFacilities writes one chunk of live facility records inside a single
// transaction, so a chunk is all-or-nothing while separate chunks commit
// independently.
func (s *SQLiteStorage) InsertFacilities(ctx context.Context, facilities []model.Facility) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateFacilities(facilities); err != nil {
		return err
	}
	if len(facilities) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO facilities (
			id, name, address, category, note, upload_id, lat, lng, floor, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now()
	for _, f := range facilities {
		createdAt := f.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		if _, err := stmt.ExecContext(ctx,
			f.ID,
			f.Name,
			f.Address,
			f.Category,
			f.Note,
			f.UploadID,
			f.Lat,
			f.Lng,
			f.Floor,
			createdAt,
		); err != nil {
			return fmt.Errorf("failed to insert facility %s: %w", f.ID, err)
		}
	}

	return tx.Commit()
}

// DeleteFacilities removes one chunk of live records by id. Missing ids are
// a no-op, which keeps rollback retries idempotent.
func (s *SQLiteStorage) DeleteFacilities(ctx context.Context, ids []string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := fmt.Sprintf("DELETE FROM facilities WHERE id IN (%s)", placeholders)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete facilities: %w", err)
	}

	return nil
}

// GetFacilityByID retrieves a single live facility record.
func (s *SQLiteStorage) GetFacilityByID(ctx context.Context, id string) (*model.Facility, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var f model.Facility
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, address, category, note, upload_id, lat, lng, floor, created_at
		FROM facilities WHERE id = ?
	`, id).Scan(&f.ID, &f.Name, &f.Address, &f.Category, &f.Note, &f.UploadID, &f.Lat, &f.Lng, &f.Floor, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFacilityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get facility %s: %w", id, err)
	}

	return &f, nil
}

// CountFacilities returns the number of live records.
func (s *SQLiteStorage) CountFacilities(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM facilities").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count facilities: %w", err)
	}
	return count, nil
}
