package core

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jszwec/csvutil"

	db "github.com/JonMunkholm/thermomap/internal/database"
	"github.com/JonMunkholm/thermomap/internal/logging"
	"github.com/JonMunkholm/thermomap/internal/models"
)

// ListSummaries returns the upload summaries of a project, optionally
// restricted to one qualification object (uuid.Nil means all objects).
// Results are served from the cache when one is configured.
func (s *Service) ListSummaries(ctx context.Context, projectID, objectID uuid.UUID) ([]models.LoggerDataSummary, error) {
	if projectID == uuid.Nil {
		return nil, fmt.Errorf("%w: project_id", ErrInvalidPlacement)
	}

	if s.cache != nil {
		cached, ok, err := s.cache.GetSummaries(ctx, projectID, objectID)
		if err != nil {
			logging.FromContext(ctx).Warn("summary cache read failed", "project_id", projectID, "error", err)
		} else if ok {
			return cached, nil
		}
	}

	rows, err := s.store.ListLoggerSummaries(ctx, db.ListLoggerSummariesParams{
		ProjectID:             ToPgUUID(projectID),
		QualificationObjectID: ToPgUUID(objectID),
	})
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}

	summaries := make([]models.LoggerDataSummary, len(rows))
	for i, r := range rows {
		summaries[i] = summaryFromRow(r)
	}

	if s.cache != nil {
		if err := s.cache.SetSummaries(ctx, projectID, objectID, summaries); err != nil {
			logging.FromContext(ctx).Warn("summary cache write failed", "project_id", projectID, "error", err)
		}
	}
	return summaries, nil
}

// GetSummary returns one summary by id.
func (s *Service) GetSummary(ctx context.Context, summaryID uuid.UUID) (models.LoggerDataSummary, error) {
	row, err := s.store.GetLoggerSummary(ctx, ToPgUUID(summaryID))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.LoggerDataSummary{}, fmt.Errorf("%w: %s", ErrSummaryNotFound, summaryID)
	}
	if err != nil {
		return models.LoggerDataSummary{}, fmt.Errorf("get summary: %w", err)
	}
	return summaryFromRow(row), nil
}

// GetMeasurements returns one page of stored records ordered by timestamp.
// Pages are 1-based; pageSize 0 selects DefaultPageSize.
func (s *Service) GetMeasurements(ctx context.Context, summaryID uuid.UUID, page, pageSize int) (MeasurementPage, error) {
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	if page < 1 || pageSize < 1 || pageSize > MaxPageSize {
		return MeasurementPage{}, fmt.Errorf("%w: page=%d page_size=%d (max %d)", ErrInvalidPage, page, pageSize, MaxPageSize)
	}

	if _, err := s.GetSummary(ctx, summaryID); err != nil {
		return MeasurementPage{}, err
	}

	id := ToPgUUID(summaryID)
	total, err := s.store.CountLoggerData(ctx, id)
	if err != nil {
		return MeasurementPage{}, fmt.Errorf("count measurements: %w", err)
	}

	rows, err := s.store.ListLoggerData(ctx, db.ListLoggerDataParams{
		SummaryID: id,
		Limit:     int32(pageSize),
		Offset:    int32((page - 1) * pageSize),
	})
	if err != nil {
		return MeasurementPage{}, fmt.Errorf("list measurements: %w", err)
	}

	records := make([]models.MeasurementRecord, len(rows))
	for i, r := range rows {
		records[i] = recordFromRow(r)
	}

	return MeasurementPage{
		SummaryID:    summaryID,
		Page:         page,
		PageSize:     pageSize,
		TotalRecords: total,
		TotalPages:   int((total + int64(pageSize) - 1) / int64(pageSize)),
		Records:      records,
	}, nil
}

// csvMeasurement is the export row shape.
type csvMeasurement struct {
	Timestamp        string   `csv:"timestamp"`
	Temperature      *float64 `csv:"temperature,omitempty"`
	Humidity         *float64 `csv:"humidity,omitempty"`
	IsValid          bool     `csv:"is_valid"`
	ValidationErrors string   `csv:"validation_errors,omitempty"`
}

// ExportMeasurementsCSV writes all stored records of a summary to w as CSV.
// Records are streamed page by page so large loggers are never fully in memory.
func (s *Service) ExportMeasurementsCSV(ctx context.Context, summaryID uuid.UUID, w io.Writer) (int, error) {
	if _, err := s.GetSummary(ctx, summaryID); err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	if err := enc.EncodeHeader(csvMeasurement{}); err != nil {
		return 0, fmt.Errorf("write csv header: %w", err)
	}

	id := ToPgUUID(summaryID)
	written := 0
	for offset := 0; ; offset += exportPageSize {
		rows, err := s.store.ListLoggerData(ctx, db.ListLoggerDataParams{
			SummaryID: id,
			Limit:     exportPageSize,
			Offset:    int32(offset),
		})
		if err != nil {
			return written, fmt.Errorf("list measurements: %w", err)
		}
		for _, r := range rows {
			rec := recordFromRow(r)
			if err := enc.Encode(csvMeasurement{
				Timestamp:        rec.Timestamp.Format(time.DateTime),
				Temperature:      rec.Temperature,
				Humidity:         rec.Humidity,
				IsValid:          rec.IsValid,
				ValidationErrors: strings.Join(rec.ValidationErrors, "; "),
			}); err != nil {
				return written, fmt.Errorf("encode csv row: %w", err)
			}
			written++
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return written, fmt.Errorf("flush csv: %w", err)
		}
		if len(rows) < exportPageSize {
			return written, nil
		}
	}
}
