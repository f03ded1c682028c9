package core

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	db "github.com/JonMunkholm/thermomap/internal/database"
	"github.com/JonMunkholm/thermomap/internal/models"
)

// ----------------------------------------------------------------------------
// ToPg* Tests
// ----------------------------------------------------------------------------

func TestToPgText(t *testing.T) {
	tests := []struct {
		input     string
		wantValid bool
		want      string
	}{
		{"EClerk", true, "EClerk"},
		{"  trimmed  ", true, "trimmed"},
		{"", false, ""},
		{"   ", false, ""},
	}
	for _, tt := range tests {
		got := ToPgText(tt.input)
		assert.Equal(t, tt.wantValid, got.Valid, "input %q", tt.input)
		assert.Equal(t, tt.want, got.String, "input %q", tt.input)
	}
}

func TestToPgUUID(t *testing.T) {
	id := uuid.New()

	got := ToPgUUID(id)
	require.True(t, got.Valid)
	assert.Equal(t, id, PgUUIDToUUID(got))
	assert.Equal(t, id.String(), PgUUIDToString(got))

	assert.False(t, ToPgUUID(uuid.Nil).Valid)
	assert.Equal(t, uuid.Nil, PgUUIDToUUID(pgtype.UUID{}))
	assert.Empty(t, PgUUIDToString(pgtype.UUID{}))
}

func TestToPgTimestamp(t *testing.T) {
	moscow := time.FixedZone("MSK", 3*3600)
	ts := time.Date(2024, 3, 15, 14, 30, 0, 0, moscow)

	got := ToPgTimestamp(&ts)
	require.True(t, got.Valid)
	assert.True(t, got.Time.Equal(ts))
	assert.Equal(t, time.UTC, got.Time.Location())

	assert.False(t, ToPgTimestamp(nil).Valid)
	zero := time.Time{}
	assert.False(t, ToPgTimestamp(&zero).Valid)
}

func TestToPgFloat8(t *testing.T) {
	v := -12.5
	got := ToPgFloat8(&v)
	assert.True(t, got.Valid)
	assert.Equal(t, -12.5, got.Float64)
	assert.False(t, ToPgFloat8(nil).Valid)

	back := fromPgFloat8(got)
	require.NotNil(t, back)
	assert.Equal(t, v, *back)
	assert.Nil(t, fromPgFloat8(pgtype.Float8{}))
}

// ----------------------------------------------------------------------------
// Row conversion Tests
// ----------------------------------------------------------------------------

func TestCopyRowsAndBack(t *testing.T) {
	summaryID := ToPgUUID(uuid.New())
	temp := 21.3
	records := []models.MeasurementRecord{
		{Timestamp: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), Temperature: &temp, IsValid: true},
		{Timestamp: time.Date(2024, 1, 1, 8, 15, 0, 0, time.UTC), IsValid: false, ValidationErrors: []string{"нет значения температуры"}},
	}

	rows := copyRows(summaryID, records)
	require.Len(t, rows, 2)
	assert.Equal(t, summaryID, rows[0].SummaryID)
	assert.True(t, rows[0].Temperature.Valid)
	assert.False(t, rows[0].Humidity.Valid)
	assert.False(t, rows[1].Temperature.Valid)
	assert.Equal(t, []string{"нет значения температуры"}, rows[1].ValidationErrors)

	for i, r := range rows {
		got := recordFromRow(db.LoggerDatum{
			SummaryID:        r.SummaryID,
			Timestamp:        r.Timestamp,
			Temperature:      r.Temperature,
			Humidity:         r.Humidity,
			IsValid:          r.IsValid,
			ValidationErrors: r.ValidationErrors,
		})
		assert.Equal(t, records[i], got)
	}
}

func TestSummaryFromRow(t *testing.T) {
	project, object, id := uuid.New(), uuid.New(), uuid.New()
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	got := summaryFromRow(db.LoggerDataSummary{
		ID:                    ToPgUUID(id),
		ProjectID:             ToPgUUID(project),
		QualificationObjectID: ToPgUUID(object),
		ZoneNumber:            2,
		MeasurementLevel:      "верх",
		FileName:              "t1.vi2",
		DeviceType:            1,
		SerialNumber:          ToPgText("0412"),
		StartDate:             ToPgTimestamp(&start),
		RecordCount:           96,
		ParsingStatus:         string(models.StatusCompleted),
		StorageStatus:         string(models.StorageStored),
	})

	assert.Equal(t, id, got.ID)
	assert.Equal(t, project, got.Placement.ProjectID)
	assert.Equal(t, object, got.Placement.QualificationObjectID)
	assert.Equal(t, 2, got.Placement.ZoneNumber)
	assert.Equal(t, "верх", got.Placement.MeasurementLevel)
	assert.Empty(t, got.Placement.LoggerName)
	assert.Equal(t, "0412", got.DeviceMetadata.SerialNumber)
	require.NotNil(t, got.StartDate)
	assert.Equal(t, start, *got.StartDate)
	assert.Nil(t, got.EndDate)
	assert.Equal(t, 96, got.RecordCount)
	assert.Equal(t, models.StorageStored, got.StorageStatus)
}
