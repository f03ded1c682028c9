// Package models holds the data shapes shared by the parsers, the
// persistence service and the HTTP layer.
package models

import (
	"time"

	"github.com/google/uuid"
)

// ParsingStatus reports whether measurements could be extracted from a file.
type ParsingStatus string

const (
	StatusCompleted ParsingStatus = "completed"
	StatusError     ParsingStatus = "error"
)

// FileFormat is the container format a file was read from.
type FileFormat string

const (
	FormatVI2  FileFormat = "vi2"
	FormatXLS  FileFormat = "xls"
	FormatXLSX FileFormat = "xlsx"
)

// Layout identifies which decoder produced the records.
type Layout string

const (
	LayoutVendor  Layout = "vendor"
	LayoutGeneric Layout = "generic"
	LayoutBinary  Layout = "binary"
	LayoutText    Layout = "text"
)

// DeviceMetadata describes the physical logger that produced a file.
type DeviceMetadata struct {
	DeviceType      int    `json:"deviceType"`
	SerialNumber    string `json:"serialNumber"`
	DeviceModel     string `json:"deviceModel"`
	FirmwareVersion string `json:"firmwareVersion,omitempty"`
}

// MeasurementRecord is one sampled reading.
// Temperature is nil when the source cell could not be read as a number;
// such records are always invalid.
type MeasurementRecord struct {
	Timestamp        time.Time `json:"timestamp"`
	Temperature      *float64  `json:"temperature"`
	Humidity         *float64  `json:"humidity,omitempty"`
	IsValid          bool      `json:"isValid"`
	ValidationErrors []string  `json:"validationErrors,omitempty"`
}

// RowIssue records a source row that could not become a measurement.
type RowIssue struct {
	Row    int    `json:"row"` // 1-based row number in the source
	Reason string `json:"reason"`
}

// ParsedFileData is the result of parsing one uploaded file.
// Values are built by Completed or Failed and are not modified afterwards.
type ParsedFileData struct {
	FileName       string              `json:"fileName"`
	Format         FileFormat          `json:"format,omitempty"`
	Layout         Layout              `json:"layout,omitempty"`
	DeviceMetadata DeviceMetadata      `json:"deviceMetadata"`
	Properties     map[string]string   `json:"properties,omitempty"`
	Measurements   []MeasurementRecord `json:"measurements"`
	StartDate      *time.Time          `json:"startDate"`
	EndDate        *time.Time          `json:"endDate"`
	RecordCount    int                 `json:"recordCount"`
	ParsingStatus  ParsingStatus       `json:"parsingStatus"`
	ErrorMessage   string              `json:"errorMessage,omitempty"`
	SkippedRows    []RowIssue          `json:"skippedRows,omitempty"`
}

// Completed builds a successful result. The record count and date range
// are derived from the measurements, whose order is preserved.
func Completed(fileName string, format FileFormat, layout Layout, meta DeviceMetadata, props map[string]string, records []MeasurementRecord, skipped []RowIssue) ParsedFileData {
	if records == nil {
		records = []MeasurementRecord{}
	}
	start, end := TimeRange(records)
	return ParsedFileData{
		FileName:       fileName,
		Format:         format,
		Layout:         layout,
		DeviceMetadata: meta,
		Properties:     props,
		Measurements:   records,
		StartDate:      start,
		EndDate:        end,
		RecordCount:    len(records),
		ParsingStatus:  StatusCompleted,
		SkippedRows:    skipped,
	}
}

// Failed builds an error result with no measurements.
func Failed(fileName string, format FileFormat, msg string) ParsedFileData {
	return ParsedFileData{
		FileName:      fileName,
		Format:        format,
		Measurements:  []MeasurementRecord{},
		ParsingStatus: StatusError,
		ErrorMessage:  msg,
	}
}

// OK reports whether the file parsed and produced at least one record.
func (p ParsedFileData) OK() bool {
	return p.ParsingStatus == StatusCompleted && p.RecordCount > 0
}

// InvalidCount returns the number of records flagged invalid.
func (p ParsedFileData) InvalidCount() int {
	n := 0
	for _, m := range p.Measurements {
		if !m.IsValid {
			n++
		}
	}
	return n
}

// TimeRange returns the earliest and latest timestamps, or nils when empty.
func TimeRange(records []MeasurementRecord) (*time.Time, *time.Time) {
	if len(records) == 0 {
		return nil, nil
	}
	start, end := records[0].Timestamp, records[0].Timestamp
	for _, r := range records[1:] {
		if r.Timestamp.Before(start) {
			start = r.Timestamp
		}
		if r.Timestamp.After(end) {
			end = r.Timestamp
		}
	}
	return &start, &end
}

// Placement locates a logger inside a qualification object.
type Placement struct {
	ProjectID             uuid.UUID `json:"projectId"`
	QualificationObjectID uuid.UUID `json:"qualificationObjectId"`
	ZoneNumber            int       `json:"zoneNumber"`
	MeasurementLevel      string    `json:"measurementLevel"`
	LoggerName            string    `json:"loggerName,omitempty"`
}

// StorageStatus tracks whether the detail records of a summary were written.
type StorageStatus string

const (
	StoragePending StorageStatus = "pending"
	StorageStored  StorageStatus = "stored"
	StorageFailed  StorageStatus = "failed"
	StorageSkipped StorageStatus = "skipped"
)

// LoggerDataSummary is the persisted index row for one uploaded file.
type LoggerDataSummary struct {
	ID             uuid.UUID      `json:"id"`
	Placement      Placement      `json:"placement"`
	FileName       string         `json:"fileName"`
	DeviceMetadata DeviceMetadata `json:"deviceMetadata"`
	StartDate      *time.Time     `json:"startDate"`
	EndDate        *time.Time     `json:"endDate"`
	RecordCount    int            `json:"recordCount"`
	ParsingStatus  ParsingStatus  `json:"parsingStatus"`
	ErrorMessage   string         `json:"errorMessage,omitempty"`
	StorageStatus  StorageStatus  `json:"storageStatus"`
	AttachmentKey  string         `json:"attachmentKey,omitempty"`
	UploadedBy     string         `json:"uploadedBy,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// SaveResult is returned by the persistence service; it never carries a Go error.
type SaveResult struct {
	Success     bool   `json:"success"`
	SummaryID   string `json:"summaryId,omitempty"`
	RecordCount int    `json:"recordCount"`
	Error       string `json:"error,omitempty"`
}

// DeleteResult reports the outcome of each deletion step.
type DeleteResult struct {
	Success        bool   `json:"success"`
	DetailsDeleted int64  `json:"detailsDeleted"`
	SummaryDeleted bool   `json:"summaryDeleted"`
	Step           string `json:"step,omitempty"` // step that failed: "details" or "summary"
	Error          string `json:"error,omitempty"`
}
