package database

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type LoggerDataSummary struct {
	ID                    pgtype.UUID
	ProjectID             pgtype.UUID
	QualificationObjectID pgtype.UUID
	ZoneNumber            int32
	MeasurementLevel      string
	LoggerName            pgtype.Text
	FileName              string
	DeviceType            int32
	SerialNumber          pgtype.Text
	DeviceModel           pgtype.Text
	FirmwareVersion       pgtype.Text
	StartDate             pgtype.Timestamp
	EndDate               pgtype.Timestamp
	RecordCount           int32
	ParsingStatus         string
	ErrorMessage          pgtype.Text
	StorageStatus         string
	AttachmentKey         pgtype.Text
	UploadedBy            pgtype.Text
	CreatedAt             pgtype.Timestamptz
	UpdatedAt             pgtype.Timestamptz
}

type LoggerDatum struct {
	ID               int64
	SummaryID        pgtype.UUID
	Timestamp        pgtype.Timestamp
	Temperature      pgtype.Float8
	Humidity         pgtype.Float8
	IsValid          bool
	ValidationErrors []string
}
