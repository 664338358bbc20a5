package engine

import (
	"context"
	"strings"

	"github.com/mapguri/facility-flow/internal/model"
	"github.com/mapguri/facility-flow/internal/storage"
)

// fakeStorage records calls and lets tests inject failures per method. Zero
// values behave as a working empty store.
type fakeStorage struct {
	insertFacilityCalls [][]model.Facility
	insertStagingCalls  [][]model.StagingRecord
	deleteCalls         [][]string
	savedJobs           []*model.UploadJob
	deletedJobs         []string

	jobs map[string]*model.UploadJob

	insertFacilitiesErr func(call int) error
	insertStagingErr    func(call int) error
	deleteFacilitiesErr func(call int) error
	saveUploadJobErr    error
	deleteUploadJobErr  error
}

func (f *fakeStorage) InsertFacilities(_ context.Context, facilities []model.Facility) error {
	call := len(f.insertFacilityCalls)
	f.insertFacilityCalls = append(f.insertFacilityCalls, facilities)
	if f.insertFacilitiesErr != nil {
		return f.insertFacilitiesErr(call)
	}
	return nil
}

func (f *fakeStorage) DeleteFacilities(_ context.Context, ids []string) error {
	call := len(f.deleteCalls)
	f.deleteCalls = append(f.deleteCalls, ids)
	if f.deleteFacilitiesErr != nil {
		return f.deleteFacilitiesErr(call)
	}
	return nil
}

func (f *fakeStorage) GetFacilityByID(_ context.Context, _ string) (*model.Facility, error) {
	return nil, storage.ErrFacilityNotFound
}

func (f *fakeStorage) CountFacilities(_ context.Context) (int, error) {
	return 0, nil
}

func (f *fakeStorage) InsertStagingRecords(_ context.Context, records []model.StagingRecord) error {
	call := len(f.insertStagingCalls)
	f.insertStagingCalls = append(f.insertStagingCalls, records)
	if f.insertStagingErr != nil {
		return f.insertStagingErr(call)
	}
	return nil
}

func (f *fakeStorage) GetStagingRecordsByUpload(_ context.Context, _ string) ([]model.StagingRecord, error) {
	return nil, nil
}

func (f *fakeStorage) UpdateStagingStatus(_ context.Context, _ int64, _ model.StagingStatus) error {
	return nil
}

func (f *fakeStorage) SaveUploadJob(_ context.Context, job *model.UploadJob) error {
	if f.saveUploadJobErr != nil {
		return f.saveUploadJobErr
	}
	f.savedJobs = append(f.savedJobs, job)
	if f.jobs == nil {
		f.jobs = make(map[string]*model.UploadJob)
	}
	f.jobs[job.ID] = job
	return nil
}

func (f *fakeStorage) GetUploadJob(_ context.Context, id string) (*model.UploadJob, error) {
	if job, ok := f.jobs[id]; ok {
		return job, nil
	}
	return nil, storage.ErrUploadJobNotFound
}

func (f *fakeStorage) ListUploadJobs(_ context.Context) ([]model.UploadJob, error) {
	jobs := make([]model.UploadJob, 0, len(f.jobs))
	for _, j := range f.jobs {
		jobs = append(jobs, *j)
	}
	return jobs, nil
}

func (f *fakeStorage) DeleteUploadJob(_ context.Context, id string) error {
	if f.deleteUploadJobErr != nil {
		return f.deleteUploadJobErr
	}
	f.deletedJobs = append(f.deletedJobs, id)
	delete(f.jobs, id)
	return nil
}

func (f *fakeStorage) Migrate(_ context.Context) error { return nil }

func (f *fakeStorage) Close() error { return nil }

// stubGeocoder returns scripted results keyed by query substring.
type stubGeocoder struct {
	results map[string]*model.GeocodeResult
	err     error
	calls   []string
}

func (s *stubGeocoder) Geocode(_ context.Context, address string) (*model.GeocodeResult, error) {
	s.calls = append(s.calls, address)
	if s.err != nil {
		return nil, s.err
	}
	for key, result := range s.results {
		if key != "" && strings.Contains(address, key) {
			return result, nil
		}
	}
	return nil, nil
}
