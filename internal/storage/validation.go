package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mapguri/facility-flow/internal/model"
)

// Validation errors.
var (
	ErrNilContext        = errors.New("context cannot be nil")
	ErrEmptyString       = errors.New("string parameter cannot be empty")
	ErrNilParameter      = errors.New("parameter cannot be nil")
	ErrInvalidFacility   = errors.New("invalid facility")
	ErrInvalidStaging    = errors.New("invalid staging record")
	ErrInvalidUploadJob  = errors.New("invalid upload job")
	ErrUploadJobNotFound = errors.New("upload job not found")
	ErrFacilityNotFound  = errors.New("facility not found")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateFacilities validates a slice of facilities.
func validateFacilities(facilities []model.Facility) error {
	if facilities == nil {
		return fmt.Errorf("%w: facilities", ErrNilParameter)
	}

	for i, f := range facilities {
		if err := validateFacility(&f); err != nil {
			return fmt.Errorf("facility at index %d: %w", i, err)
		}
	}
	return nil
}

// validateFacility validates a single facility.
func validateFacility(f *model.Facility) error {
	if f == nil {
		return fmt.Errorf("%w: facility", ErrNilParameter)
	}
	if f.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidFacility)
	}
	if f.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidFacility)
	}
	if f.UploadID == "" {
		return fmt.Errorf("%w: missing upload ID", ErrInvalidFacility)
	}
	return nil
}

// validateStagingRecords validates a slice of staging records.
func validateStagingRecords(records []model.StagingRecord) error {
	if records == nil {
		return fmt.Errorf("%w: records", ErrNilParameter)
	}

	for i, r := range records {
		if r.UploadID == "" {
			return fmt.Errorf("staging record at index %d: %w: missing upload ID", i, ErrInvalidStaging)
		}
		switch r.Status {
		case model.StagingReviewNeeded, model.StagingRejected, model.StagingDone:
		default:
			return fmt.Errorf("staging record at index %d: %w: status %q", i, ErrInvalidStaging, r.Status)
		}
	}
	return nil
}

// validateUploadJob validates an upload job before it enters the ledger.
func validateUploadJob(job *model.UploadJob) error {
	if job == nil {
		return fmt.Errorf("%w: job", ErrNilParameter)
	}
	if job.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidUploadJob)
	}
	if job.FileName == "" {
		return fmt.Errorf("%w: missing file name", ErrInvalidUploadJob)
	}
	if job.UploadedAt.IsZero() {
		return fmt.Errorf("%w: missing upload time", ErrInvalidUploadJob)
	}
	return nil
}
