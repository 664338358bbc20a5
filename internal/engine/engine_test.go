package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapguri/facility-flow/internal/common"
	"github.com/mapguri/facility-flow/internal/model"
	"github.com/mapguri/facility-flow/internal/service"
	"github.com/mapguri/facility-flow/internal/testutil"
)

func TestIngestAcceptedRow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	geocoder := &stubGeocoder{
		results: map[string]*model.GeocodeResult{
			"테헤란로": {
				MatchedAddress: "서울 강남구 테헤란로 101",
				Lat:            37.5013,
				Lng:            127.0396,
			},
		},
	}
	land := &stubLand{onLand: true}

	ing := NewIngestor(db.Storage, geocoder, land, DefaultConfig())

	input := []byte("화장실명,주소,위도,경도\n스타벅스 강남점 3층,서울 강남구 테헤란로 101,37.5012,127.0396\n")

	summary, err := ing.Run(ctx, input, Options{FileName: "toilets.csv", UploadedBy: "ops"})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.TotalCount)
	assert.Equal(t, 1, summary.SuccessCount)
	assert.Zero(t, summary.FailCount)
	assert.Zero(t, summary.SkippedCount)
	require.Len(t, summary.FacilityIDs, 1)

	fac, err := db.Storage.GetFacilityByID(ctx, model.FacilityID(summary.UploadID, 0))
	require.NoError(t, err)
	assert.Equal(t, "스타벅스 강남점", fac.Name, "floor marker stripped from name")
	assert.Equal(t, 3, fac.Floor)
	assert.Equal(t, "서울 강남구 테헤란로 101", fac.Address)
	assert.InDelta(t, 37.5013, fac.Lat, 1e-9, "geocoded coordinate wins")

	job, err := db.Storage.GetUploadJob(ctx, summary.UploadID)
	require.NoError(t, err)
	assert.Equal(t, "toilets.csv", job.FileName)
	assert.Equal(t, "ops", job.UploadedBy)
	assert.Equal(t, summary.FacilityIDs, job.FacilityIDs)
	assert.NotEmpty(t, job.Logs)
}

func TestIngestMixedOutcomes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	// No geocoder matches; classification falls back to raw coordinates.
	geocoder := &stubGeocoder{}
	land := &stubLand{onLand: true}

	ing := NewIngestor(db.Storage, geocoder, land, DefaultConfig())

	input := []byte("이름,주소,위도,경도\n" +
		"좋은 화장실,서울 강남구,37.5,127.0\n" + // raw valid, on land
		"나쁜 화장실,어딘가,0,0\n" + // invalid coordinate, no geocode
		",서울,37.5,127.0\n") // empty name

	summary, err := ing.Run(ctx, input, Options{FileName: "mixed.csv"})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalCount)
	assert.Equal(t, 1, summary.SuccessCount)
	assert.Equal(t, 1, summary.SkippedCount)
	assert.Equal(t, 1, summary.FailCount)

	records, err := db.Storage.GetStagingRecordsByUpload(ctx, summary.UploadID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.StagingRejected, records[0].Status)
	assert.Equal(t, "나쁜 화장실", records[0].NameRaw)
	assert.NotEmpty(t, records[0].Logs, "staged rows carry their decision trace")
}

func TestIngestReviewRow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	geocoder := &stubGeocoder{}
	land := &stubLand{onLand: false}

	ing := NewIngestor(db.Storage, geocoder, land, DefaultConfig())

	input := []byte("이름,주소,위도,경도\n바다 화장실,인천 앞바다,37.3,126.2\n")

	summary, err := ing.Run(ctx, input, Options{FileName: "sea.csv"})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ReviewCount)
	assert.Equal(t, 1, summary.FailCount, "review rows count as failures in the ledger")
	assert.Zero(t, summary.SuccessCount)

	records, err := db.Storage.GetStagingRecordsByUpload(ctx, summary.UploadID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.StagingReviewNeeded, records[0].Status)
}

func TestIngestEmptyFile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ing := NewIngestor(db.Storage, &stubGeocoder{}, &stubLand{}, DefaultConfig())

	tests := []struct {
		name  string
		input []byte
	}{
		{"completely empty", []byte("")},
		{"header only", []byte("이름,주소\n")},
		{"blank rows only", []byte("이름,주소\n\n , \n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ing.Run(context.Background(), tt.input, Options{FileName: "empty.csv"})
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrEmptyFile)
		})
	}
}

func TestIngestDryRun(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	land := &stubLand{onLand: true}
	ing := NewIngestor(db.Storage, &stubGeocoder{}, land, DefaultConfig())

	input := []byte("이름,주소,위도,경도\n좋은 화장실,서울,37.5,127.0\n")

	summary, err := ing.Run(ctx, input, Options{FileName: "dry.csv", DryRun: true})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.SuccessCount)
	assert.Empty(t, summary.FacilityIDs)

	count, err := db.Storage.CountFacilities(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "dry run must not touch the live store")

	jobs, err := db.Storage.ListUploadJobs(ctx)
	require.NoError(t, err)
	assert.Empty(t, jobs, "dry run writes no ledger entry")
}

func TestIngestCancellation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())

	land := &stubLand{onLand: true}
	ing := NewIngestor(db.Storage, &stubGeocoder{}, land, DefaultConfig())
	ing.SetProgress(func(percent int, _ string) {
		// Interrupt after the first row completes.
		cancel()
	})

	input := []byte("이름,주소,위도,경도\n" +
		"하나,서울,37.5,127.0\n" +
		"둘,서울,37.5,127.0\n" +
		"셋,서울,37.5,127.0\n")

	summary, err := ing.Run(ctx, input, Options{FileName: "cancel.csv"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary, "partial summary survives cancellation")
	assert.Equal(t, 1, summary.SuccessCount)

	count, countErr := db.Storage.CountFacilities(context.Background())
	require.NoError(t, countErr)
	assert.Zero(t, count, "cancellation before commit leaves the store empty")
}

func TestIngestUnterminatedQuoteWarning(t *testing.T) {
	db := testutil.SetupTestDB(t)

	land := &stubLand{onLand: true}
	ing := NewIngestor(db.Storage, &stubGeocoder{}, land, DefaultConfig())

	input := []byte("이름,주소,위도,경도\n좋은 화장실,\"서울,37.5,127.0\n")

	summary, err := ing.Run(context.Background(), input, Options{FileName: "bad.csv"})
	require.NoError(t, err)

	found := false
	for _, line := range summary.Logs {
		if strings.Contains(line, "quoted field") {
			found = true
		}
	}
	assert.True(t, found, "summary log carries the malformed-quote warning")
}

// interruptingStore cancels the run context partway through the commit
// phase, the way a user interrupt lands mid-commit.
type interruptingStore struct {
	service.Storage
	cancel context.CancelFunc
	calls  int
}

func (s *interruptingStore) InsertFacilities(ctx context.Context, facilities []model.Facility) error {
	s.calls++
	if s.calls == 2 {
		s.cancel()
		return ctx.Err()
	}
	return s.Storage.InsertFacilities(ctx, facilities)
}

func TestIngestInterruptDuringCommitKeepsLedger(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := &interruptingStore{Storage: db.Storage, cancel: cancel}

	land := &stubLand{onLand: true}
	cfg := Config{ChunkSize: 1, ToleranceM: DefaultToleranceM}
	ing := NewIngestor(store, &stubGeocoder{}, land, cfg)

	input := []byte("이름,주소,위도,경도\n" +
		"하나,서울,37.5,127.0\n" +
		"둘,서울,37.5,127.0\n")

	summary, err := ing.Run(ctx, input, Options{FileName: "interrupt.csv"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrCommitFailed)
	require.Len(t, summary.FacilityIDs, 1, "only the chunk before the interrupt landed")

	// The ledger entry must exist despite the canceled run context; it is
	// the only path from the committed row back to rollback.
	job, jobErr := db.Storage.GetUploadJob(context.Background(), summary.UploadID)
	require.NoError(t, jobErr)
	assert.Equal(t, summary.FacilityIDs, job.FacilityIDs)

	rb := NewRollback(db.Storage, DefaultChunkSize)
	require.NoError(t, rb.Run(context.Background(), summary.UploadID, nil))

	count, countErr := db.Storage.CountFacilities(context.Background())
	require.NoError(t, countErr)
	assert.Zero(t, count, "the committed row is reachable and undone via rollback")
}

func TestIngestPartialCommitStillWritesLedger(t *testing.T) {
	store := &fakeStorage{
		insertFacilitiesErr: func(call int) error {
			if call == 1 {
				return errors.New("disk full")
			}
			return nil
		},
	}

	land := &stubLand{onLand: true}
	cfg := Config{ChunkSize: 1, ToleranceM: DefaultToleranceM}
	ing := NewIngestor(store, &stubGeocoder{}, land, cfg)

	input := []byte("이름,주소,위도,경도\n" +
		"하나,서울,37.5,127.0\n" +
		"둘,서울,37.5,127.0\n")

	summary, err := ing.Run(context.Background(), input, Options{FileName: "partial.csv"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrCommitFailed)

	assert.Len(t, summary.FacilityIDs, 1, "only the landed chunk is reported")
	require.Len(t, store.savedJobs, 1, "ledger records partial commits for rollback")
	assert.Len(t, store.savedJobs[0].FacilityIDs, 1)
}
