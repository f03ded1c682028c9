package core

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	db "github.com/JonMunkholm/thermomap/internal/database"
	"github.com/JonMunkholm/thermomap/internal/models"
)

// Store is the persistence surface used by Service.
// *database.Queries satisfies it.
type Store interface {
	UpsertLoggerSummary(ctx context.Context, arg db.UpsertLoggerSummaryParams) (db.LoggerDataSummary, error)
	UpdateLoggerSummaryStorage(ctx context.Context, arg db.UpdateLoggerSummaryStorageParams) error
	GetLoggerSummary(ctx context.Context, id pgtype.UUID) (db.LoggerDataSummary, error)
	ListLoggerSummaries(ctx context.Context, arg db.ListLoggerSummariesParams) ([]db.LoggerDataSummary, error)
	ListLoggerSummaryAttachments(ctx context.Context, arg db.FileKeyParams) ([]string, error)
	DeleteLoggerDataBySummary(ctx context.Context, summaryID pgtype.UUID) (int64, error)
	DeleteLoggerDataByFile(ctx context.Context, arg db.FileKeyParams) (int64, error)
	DeleteLoggerSummaryByFile(ctx context.Context, arg db.FileKeyParams) (int64, error)
	CopyLoggerData(ctx context.Context, arg []db.CopyLoggerDataParams) (int64, error)
	ListLoggerData(ctx context.Context, arg db.ListLoggerDataParams) ([]db.LoggerDatum, error)
	CountLoggerData(ctx context.Context, summaryID pgtype.UUID) (int64, error)
}

// SummaryCache caches summary listings per project.
type SummaryCache interface {
	GetSummaries(ctx context.Context, projectID, objectID uuid.UUID) ([]models.LoggerDataSummary, bool, error)
	SetSummaries(ctx context.Context, projectID, objectID uuid.UUID, summaries []models.LoggerDataSummary) error
	InvalidateProject(ctx context.Context, projectID uuid.UUID) error
}

// AttachmentStore keeps the raw uploaded files.
type AttachmentStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
}

// IngestResult is the outcome of one upload.
// Parsed is nil for attachment-only files and for files rejected before parsing.
type IngestResult struct {
	FileName      string                 `json:"fileName"`
	Kind          string                 `json:"kind"`
	Parsed        *models.ParsedFileData `json:"parsed,omitempty"`
	Save          *models.SaveResult     `json:"save,omitempty"`
	AttachmentKey string                 `json:"attachmentKey,omitempty"`
	Error         string                 `json:"error,omitempty"`
}

// OK reports whether the file was accepted, parsed and fully persisted.
func (r IngestResult) OK() bool {
	if r.Error != "" {
		return false
	}
	if r.Parsed != nil && !r.Parsed.OK() {
		return false
	}
	if r.Save != nil {
		return r.Save.Success
	}
	return r.AttachmentKey != ""
}

// MeasurementPage is one page of persisted detail records.
type MeasurementPage struct {
	SummaryID    uuid.UUID                  `json:"summaryId"`
	Page         int                        `json:"page"`
	PageSize     int                        `json:"pageSize"`
	TotalRecords int64                      `json:"totalRecords"`
	TotalPages   int                        `json:"totalPages"`
	Records      []models.MeasurementRecord `json:"records"`
}
