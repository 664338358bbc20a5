package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapguri/facility-flow/internal/model"
)

func TestInsertAndGetStagingRecords(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	records := []model.StagingRecord{
		{
			UploadID:   "up1",
			NameRaw:    "바다 화장실",
			AddressRaw: "인천 앞바다",
			LatRaw:     "37.3",
			LngRaw:     "126.2",
			Name:       "바다 화장실",
			Address:    "인천 앞바다",
			Lat:        37.3,
			Lng:        126.2,
			Floor:      1,
			Status:     model.StagingReviewNeeded,
			Reason:     "raw coordinate failed land boundary check",
			Logs:       []string{"raw coordinate is not on land"},
		},
		{
			UploadID: "up1",
			NameRaw:  "이상한 행",
			Status:   model.StagingRejected,
			Reason:   "address unresolvable and coordinate structurally invalid",
		},
	}

	require.NoError(t, store.InsertStagingRecords(ctx, records))

	got, err := store.GetStagingRecordsByUpload(ctx, "up1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, model.StagingReviewNeeded, got[0].Status)
	assert.Equal(t, "바다 화장실", got[0].NameRaw)
	assert.Equal(t, []string{"raw coordinate is not on land"}, got[0].Logs)
	assert.InDelta(t, 37.3, got[0].Lat, 1e-9)
	assert.False(t, got[0].CreatedAt.IsZero())

	assert.Equal(t, model.StagingRejected, got[1].Status)
	assert.Greater(t, got[1].ID, got[0].ID, "ids assigned in insert order")
}

func TestGetStagingRecordsOtherUpload(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	records := []model.StagingRecord{{UploadID: "up1", Status: model.StagingReviewNeeded}}
	require.NoError(t, store.InsertStagingRecords(ctx, records))

	got, err := store.GetStagingRecordsByUpload(ctx, "up2")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestInsertStagingRecordsValidation(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	err := store.InsertStagingRecords(ctx, nil)
	assert.ErrorIs(t, err, ErrNilParameter)

	err = store.InsertStagingRecords(ctx, []model.StagingRecord{{Status: model.StagingReviewNeeded}})
	assert.ErrorIs(t, err, ErrInvalidStaging)

	err = store.InsertStagingRecords(ctx, []model.StagingRecord{{UploadID: "up1", Status: "bogus"}})
	assert.ErrorIs(t, err, ErrInvalidStaging)
}

func TestUpdateStagingStatus(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	records := []model.StagingRecord{{UploadID: "up1", Status: model.StagingReviewNeeded}}
	require.NoError(t, store.InsertStagingRecords(ctx, records))

	got, err := store.GetStagingRecordsByUpload(ctx, "up1")
	require.NoError(t, err)
	require.Len(t, got, 1)

	require.NoError(t, store.UpdateStagingStatus(ctx, got[0].ID, model.StagingDone))

	got, err = store.GetStagingRecordsByUpload(ctx, "up1")
	require.NoError(t, err)
	assert.Equal(t, model.StagingDone, got[0].Status)
}

func TestUpdateStagingStatusInvalid(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	err := store.UpdateStagingStatus(ctx, 1, "bogus")
	assert.ErrorIs(t, err, ErrInvalidStaging)

	err = store.UpdateStagingStatus(ctx, 9999, model.StagingDone)
	assert.ErrorIs(t, err, ErrInvalidStaging, "unknown record id")
}
