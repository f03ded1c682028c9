package core

// convert.go maps between the domain models and the pgtype values used by
// the database layer.
//
// All ToPg* functions return pgtype values with Valid=false for empty input,
// so absent values are stored as NULL.

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	db "github.com/JonMunkholm/thermomap/internal/database"
	"github.com/JonMunkholm/thermomap/internal/models"
)

// ToPgText converts a string to pgtype.Text.
// Returns invalid if the string is empty or only whitespace.
func ToPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// ToPgUUID converts a uuid to pgtype.UUID. uuid.Nil is invalid.
func ToPgUUID(id uuid.UUID) pgtype.UUID {
	if id == uuid.Nil {
		return pgtype.UUID{Valid: false}
	}
	return pgtype.UUID{Bytes: id, Valid: true}
}

// PgUUIDToUUID converts a pgtype.UUID, returning uuid.Nil when invalid.
func PgUUIDToUUID(u pgtype.UUID) uuid.UUID {
	if !u.Valid {
		return uuid.Nil
	}
	return uuid.UUID(u.Bytes)
}

// PgUUIDToString converts a pgtype.UUID to its string representation.
// Returns empty string if the UUID is invalid.
func PgUUIDToString(u pgtype.UUID) string {
	if !u.Valid {
		return ""
	}
	return uuid.UUID(u.Bytes).String()
}

// ToPgTimestamp stores a wall-clock time without zone.
func ToPgTimestamp(t *time.Time) pgtype.Timestamp {
	if t == nil || t.IsZero() {
		return pgtype.Timestamp{Valid: false}
	}
	return pgtype.Timestamp{Time: t.UTC(), Valid: true}
}

// ToPgFloat8 converts an optional float.
func ToPgFloat8(v *float64) pgtype.Float8 {
	if v == nil {
		return pgtype.Float8{Valid: false}
	}
	return pgtype.Float8{Float64: *v, Valid: true}
}

func fromPgText(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}
	return t.String
}

func fromPgTimestamp(t pgtype.Timestamp) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func fromPgFloat8(f pgtype.Float8) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}

// summaryFromRow converts a summary row to the domain model.
func summaryFromRow(r db.LoggerDataSummary) models.LoggerDataSummary {
	return models.LoggerDataSummary{
		ID: PgUUIDToUUID(r.ID),
		Placement: models.Placement{
			ProjectID:             PgUUIDToUUID(r.ProjectID),
			QualificationObjectID: PgUUIDToUUID(r.QualificationObjectID),
			ZoneNumber:            int(r.ZoneNumber),
			MeasurementLevel:      r.MeasurementLevel,
			LoggerName:            fromPgText(r.LoggerName),
		},
		FileName: r.FileName,
		DeviceMetadata: models.DeviceMetadata{
			DeviceType:      int(r.DeviceType),
			SerialNumber:    fromPgText(r.SerialNumber),
			DeviceModel:     fromPgText(r.DeviceModel),
			FirmwareVersion: fromPgText(r.FirmwareVersion),
		},
		StartDate:     fromPgTimestamp(r.StartDate),
		EndDate:       fromPgTimestamp(r.EndDate),
		RecordCount:   int(r.RecordCount),
		ParsingStatus: models.ParsingStatus(r.ParsingStatus),
		ErrorMessage:  fromPgText(r.ErrorMessage),
		StorageStatus: models.StorageStatus(r.StorageStatus),
		AttachmentKey: fromPgText(r.AttachmentKey),
		UploadedBy:    fromPgText(r.UploadedBy),
		CreatedAt:     r.CreatedAt.Time,
		UpdatedAt:     r.UpdatedAt.Time,
	}
}

// recordFromRow converts a detail row to a measurement record.
func recordFromRow(r db.LoggerDatum) models.MeasurementRecord {
	rec := models.MeasurementRecord{
		Temperature:      fromPgFloat8(r.Temperature),
		Humidity:         fromPgFloat8(r.Humidity),
		IsValid:          r.IsValid,
		ValidationErrors: r.ValidationErrors,
	}
	if r.Timestamp.Valid {
		rec.Timestamp = r.Timestamp.Time.UTC()
	}
	return rec
}

// copyRows converts records to COPY parameters for one summary.
func copyRows(summaryID pgtype.UUID, records []models.MeasurementRecord) []db.CopyLoggerDataParams {
	rows := make([]db.CopyLoggerDataParams, len(records))
	for i, r := range records {
		ts := r.Timestamp
		rows[i] = db.CopyLoggerDataParams{
			SummaryID:        summaryID,
			Timestamp:        ToPgTimestamp(&ts),
			Temperature:      ToPgFloat8(r.Temperature),
			Humidity:         ToPgFloat8(r.Humidity),
			IsValid:          r.IsValid,
			ValidationErrors: r.ValidationErrors,
		}
	}
	return rows
}
