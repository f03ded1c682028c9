package core

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/thermomap/internal/models"
)

func TestListSummaries(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, Options{})
	ctx := context.Background()
	p := testPlacement()

	require.True(t, svc.SaveLoggerData(ctx, p, makeParsed(3)).Success)
	other := p
	other.QualificationObjectID = uuid.New()
	failed := models.Failed("b.vi2", models.FormatVI2, "файл пуст")
	require.True(t, svc.SaveLoggerData(ctx, other, failed).Success)

	all, err := svc.ListSummaries(ctx, p.ProjectID, uuid.Nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	one, err := svc.ListSummaries(ctx, p.ProjectID, p.QualificationObjectID)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "logger.xlsx", one[0].FileName)
	assert.Equal(t, models.StorageStored, one[0].StorageStatus)
	assert.Equal(t, 3, one[0].RecordCount)
	assert.Equal(t, p.ZoneNumber, one[0].Placement.ZoneNumber)
	require.NotNil(t, one[0].StartDate)

	_, err = svc.ListSummaries(ctx, uuid.Nil, uuid.Nil)
	assert.ErrorIs(t, err, ErrInvalidPlacement)
}

func TestListSummaries_CacheAside(t *testing.T) {
	store := newFakeStore()
	cache := newFakeCache()
	svc := NewService(store, Options{Cache: cache})
	ctx := context.Background()
	p := testPlacement()

	require.True(t, svc.SaveLoggerData(ctx, p, makeParsed(1)).Success)

	_, err := svc.ListSummaries(ctx, p.ProjectID, uuid.Nil)
	require.NoError(t, err)
	store.calls = nil
	_, err = svc.ListSummaries(ctx, p.ProjectID, uuid.Nil)
	require.NoError(t, err)

	assert.Equal(t, 1, cache.hits)
	assert.NotContains(t, store.calls, "list")

	// A new upload invalidates the project entry.
	other := makeParsed(1)
	other.FileName = "second.xlsx"
	require.True(t, svc.SaveLoggerData(ctx, p, other).Success)
	got, err := svc.ListSummaries(ctx, p.ProjectID, uuid.Nil)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestListSummaries_StoreError(t *testing.T) {
	store := newFakeStore()
	store.listErr = errors.New("connection refused")
	svc := NewService(store, Options{})

	_, err := svc.ListSummaries(context.Background(), testPlacement().ProjectID, uuid.Nil)
	require.Error(t, err)
	assert.Equal(t, "DB003", MapError(err).Code)
}

func savedSummaryID(t *testing.T, svc *Service, n int) uuid.UUID {
	t.Helper()
	res := svc.SaveLoggerData(context.Background(), testPlacement(), makeParsed(n))
	require.True(t, res.Success, res.Error)
	return uuid.MustParse(res.SummaryID)
}

func TestGetMeasurements(t *testing.T) {
	svc := NewService(newFakeStore(), Options{})
	id := savedSummaryID(t, svc, 250)
	ctx := context.Background()

	page, err := svc.GetMeasurements(ctx, id, 3, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(250), page.TotalRecords)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Records, 50)
	assert.Equal(t, makeParsed(250).Measurements[200].Timestamp, page.Records[0].Timestamp)

	page, err = svc.GetMeasurements(ctx, id, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultPageSize, page.PageSize)
	assert.Len(t, page.Records, DefaultPageSize)
}

func TestGetMeasurements_Errors(t *testing.T) {
	svc := NewService(newFakeStore(), Options{})
	id := savedSummaryID(t, svc, 5)
	ctx := context.Background()

	_, err := svc.GetMeasurements(ctx, id, 0, 10)
	assert.ErrorIs(t, err, ErrInvalidPage)

	_, err = svc.GetMeasurements(ctx, id, 1, MaxPageSize+1)
	assert.ErrorIs(t, err, ErrInvalidPage)

	_, err = svc.GetMeasurements(ctx, uuid.New(), 1, 10)
	assert.ErrorIs(t, err, ErrSummaryNotFound)
	assert.Equal(t, "DB007", MapError(err).Code)
}

func TestExportMeasurementsCSV(t *testing.T) {
	svc := NewService(newFakeStore(), Options{})
	id := savedSummaryID(t, svc, 7)

	var buf bytes.Buffer
	n, err := svc.ExportMeasurementsCSV(context.Background(), id, &buf)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 8)
	assert.Equal(t, []string{"timestamp", "temperature", "humidity", "is_valid", "validation_errors"}, rows[0])
	assert.Equal(t, "2023-01-01 00:00:00", rows[1][0])
	assert.Equal(t, "4", rows[1][1])
	assert.Equal(t, "", rows[1][2])
	assert.Equal(t, "true", rows[1][3])
}

func TestExportMeasurementsCSV_UnknownSummary(t *testing.T) {
	svc := NewService(newFakeStore(), Options{})

	var buf bytes.Buffer
	_, err := svc.ExportMeasurementsCSV(context.Background(), uuid.New(), &buf)
	assert.ErrorIs(t, err, ErrSummaryNotFound)
	assert.Zero(t, buf.Len())
}
