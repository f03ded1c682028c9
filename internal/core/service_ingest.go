package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	db "github.com/JonMunkholm/thermomap/internal/database"
	"github.com/JonMunkholm/thermomap/internal/logging"
	"github.com/JonMunkholm/thermomap/internal/models"
	"github.com/JonMunkholm/thermomap/internal/parser"
)

// ParseFile parses data without persisting anything.
func (s *Service) ParseFile(fileName string, data []byte) (models.ParsedFileData, error) {
	if err := s.checkSize(data); err != nil {
		return models.ParsedFileData{}, err
	}
	p, kind, err := s.parsers.ParserFor(fileName)
	if err != nil {
		return models.ParsedFileData{}, err
	}
	if kind == parser.KindAttachment {
		return models.ParsedFileData{}, fmt.Errorf("%w: %s files are stored as attachments only", parser.ErrUnsupportedFormat, filepath.Ext(fileName))
	}
	return requireRecords(p.Parse(fileName, data)), nil
}

// IngestFile validates, parses and persists one uploaded file.
// Attachment-only files (.csv, .pdf) are stored in object storage and not parsed.
func (s *Service) IngestFile(ctx context.Context, placement models.Placement, fileName string, data []byte) IngestResult {
	ctx, cancel := context.WithTimeout(ctx, s.uploadTimeout)
	defer cancel()

	log := logging.WithFields(ctx, "file", fileName, "project_id", placement.ProjectID, "object_id", placement.QualificationObjectID,
		"client_ip", GetIPAddressFromContext(ctx))
	result := IngestResult{FileName: fileName}

	fail := func(err error) IngestResult {
		log.Warn("ingest rejected", "error", err)
		result.Error = FormatUserError(err)
		return result
	}

	if err := validatePlacement(placement); err != nil {
		return fail(err)
	}
	if err := s.checkSize(data); err != nil {
		return fail(err)
	}

	release, err := s.limiter.Acquire(ctx)
	if err != nil {
		return fail(err)
	}
	defer release()

	p, kind, err := s.parsers.ParserFor(fileName)
	result.Kind = kind.String()
	if err != nil {
		return fail(err)
	}

	if kind == parser.KindAttachment {
		if s.attachments == nil {
			return fail(ErrStorageDisabled)
		}
		key, err := s.putAttachment(ctx, placement, fileName, data)
		if err != nil {
			return fail(err)
		}
		result.AttachmentKey = key
		log.Info("attachment stored", "key", key, "bytes", len(data))
		return result
	}

	parsed := requireRecords(p.Parse(fileName, data))
	result.Parsed = &parsed
	log.Info("file parsed",
		"status", parsed.ParsingStatus,
		"records", parsed.RecordCount,
		"invalid", parsed.InvalidCount(),
		"skipped_rows", len(parsed.SkippedRows),
	)

	// The raw file is kept alongside the summary when storage is configured;
	// a storage failure does not block persisting the measurements.
	if s.attachments != nil {
		key, err := s.putAttachment(ctx, placement, fileName, data)
		if err != nil {
			log.Error("attachment upload failed", "error", err)
		} else {
			result.AttachmentKey = key
		}
	}

	save := s.saveLoggerData(ctx, placement, parsed, result.AttachmentKey)
	result.Save = &save
	return result
}

// SaveLoggerData persists the summary row for data and, when data holds
// measurements, its detail rows in sequential batches.
// It never returns a Go error; failures are reported in the result.
func (s *Service) SaveLoggerData(ctx context.Context, placement models.Placement, data models.ParsedFileData) models.SaveResult {
	return s.saveLoggerData(ctx, placement, data, "")
}

func (s *Service) saveLoggerData(ctx context.Context, placement models.Placement, data models.ParsedFileData, attachmentKey string) models.SaveResult {
	log := logging.WithFields(ctx, "file", data.FileName, "project_id", placement.ProjectID, "object_id", placement.QualificationObjectID)

	if err := validatePlacement(placement); err != nil {
		return models.SaveResult{Error: FormatUserError(err)}
	}

	storeDetails := data.ParsingStatus == models.StatusCompleted && data.RecordCount > 0
	status := models.StorageSkipped
	if storeDetails {
		status = models.StoragePending
	}

	summary, err := s.store.UpsertLoggerSummary(ctx, summaryParams(ctx, placement, data, status, attachmentKey))
	if err != nil {
		log.Error("summary upsert failed", "error", err)
		return models.SaveResult{Error: FormatUserError(fmt.Errorf("upsert summary: %w", err))}
	}
	s.invalidate(ctx, placement.ProjectID)

	result := models.SaveResult{SummaryID: PgUUIDToString(summary.ID)}

	// A re-upload of the same file replaces the previous detail rows, even
	// when the new version has none to store.
	if n, err := s.store.DeleteLoggerDataBySummary(ctx, summary.ID); err != nil {
		return s.failStorage(ctx, log, summary, result, fmt.Errorf("delete previous measurements: %w", err))
	} else if n > 0 {
		log.Info("previous measurements removed", "deleted", n, "replaced", storeDetails)
	}

	if !storeDetails {
		result.Success = true
		return result
	}

	inserted, err := s.insertBatches(ctx, summary, data.Measurements)
	result.RecordCount = inserted
	if err != nil {
		return s.failStorage(ctx, log, summary, result, err)
	}

	if err := s.store.UpdateLoggerSummaryStorage(ctx, db.UpdateLoggerSummaryStorageParams{
		ID:            summary.ID,
		StorageStatus: string(models.StorageStored),
	}); err != nil {
		log.Error("summary status update failed", "error", err)
		result.Error = FormatUserError(fmt.Errorf("update storage status: %w", err))
		return result
	}
	s.invalidate(ctx, placement.ProjectID)

	log.Info("measurements stored", "summary_id", result.SummaryID, "records", inserted)
	result.Success = true
	return result
}

// insertBatches sends records in batches of s.batchSize, one after another.
// The first failing batch stops the loop.
func (s *Service) insertBatches(ctx context.Context, summary db.LoggerDataSummary, records []models.MeasurementRecord) (int, error) {
	total := len(records)
	batches := (total + s.batchSize - 1) / s.batchSize
	inserted := 0

	for b := 0; b < batches; b++ {
		if err := ctx.Err(); err != nil {
			return inserted, fmt.Errorf("batch %d/%d: %w", b+1, batches, err)
		}
		start := b * s.batchSize
		end := min(start+s.batchSize, total)

		n, err := s.store.CopyLoggerData(ctx, copyRows(summary.ID, records[start:end]))
		if err != nil {
			return inserted, fmt.Errorf("batch %d/%d: %w", b+1, batches, err)
		}
		inserted += int(n)
	}
	return inserted, nil
}

func (s *Service) failStorage(ctx context.Context, log *slog.Logger, summary db.LoggerDataSummary, result models.SaveResult, err error) models.SaveResult {
	log.Error("measurement storage failed", "summary_id", result.SummaryID, "inserted", result.RecordCount, "error", err)

	msg := err.Error()
	if len(msg) > storageErrorMaxLength {
		msg = strings.ToValidUTF8(msg[:storageErrorMaxLength], "")
	}
	// Use a fresh context so a cancelled request still records the failure.
	uerr := s.store.UpdateLoggerSummaryStorage(context.WithoutCancel(ctx), db.UpdateLoggerSummaryStorageParams{
		ID:            summary.ID,
		StorageStatus: string(models.StorageFailed),
		ErrorMessage:  ToPgText(msg),
	})
	if uerr != nil {
		log.Error("summary status update failed", "error", uerr)
	}
	s.invalidate(ctx, PgUUIDToUUID(summary.ProjectID))

	result.Success = false
	result.Error = FormatUserError(err)
	return result
}

func summaryParams(ctx context.Context, p models.Placement, data models.ParsedFileData, status models.StorageStatus, attachmentKey string) db.UpsertLoggerSummaryParams {
	return db.UpsertLoggerSummaryParams{
		ProjectID:             ToPgUUID(p.ProjectID),
		QualificationObjectID: ToPgUUID(p.QualificationObjectID),
		ZoneNumber:            int32(p.ZoneNumber),
		MeasurementLevel:      strings.TrimSpace(p.MeasurementLevel),
		LoggerName:            ToPgText(p.LoggerName),
		FileName:              data.FileName,
		DeviceType:            int32(data.DeviceMetadata.DeviceType),
		SerialNumber:          ToPgText(data.DeviceMetadata.SerialNumber),
		DeviceModel:           ToPgText(data.DeviceMetadata.DeviceModel),
		FirmwareVersion:       ToPgText(data.DeviceMetadata.FirmwareVersion),
		StartDate:             ToPgTimestamp(data.StartDate),
		EndDate:               ToPgTimestamp(data.EndDate),
		RecordCount:           int32(data.RecordCount),
		ParsingStatus:         string(data.ParsingStatus),
		ErrorMessage:          ToPgText(data.ErrorMessage),
		StorageStatus:         string(status),
		AttachmentKey:         ToPgText(attachmentKey),
		UploadedBy:            ToPgText(GetUserIDFromContext(ctx)),
	}
}

// requireRecords turns a completed result without records into an error
// result; the generic spreadsheet layout leaves that check to its callers.
func requireRecords(p models.ParsedFileData) models.ParsedFileData {
	if p.ParsingStatus == models.StatusCompleted && p.RecordCount == 0 {
		return models.Failed(p.FileName, p.Format, FormatUserError(ErrNoMeasurements))
	}
	return p
}

func validatePlacement(p models.Placement) error {
	var missing []string
	if p.ProjectID == uuid.Nil {
		missing = append(missing, "project_id")
	}
	if p.QualificationObjectID == uuid.Nil {
		missing = append(missing, "qualification_object_id")
	}
	if p.ZoneNumber < 0 {
		missing = append(missing, "zone_number")
	}
	if strings.TrimSpace(p.MeasurementLevel) == "" {
		missing = append(missing, "measurement_level")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidPlacement, strings.Join(missing, ", "))
	}
	return nil
}

func (s *Service) checkSize(data []byte) error {
	if len(data) == 0 {
		return ErrEmptyFile
	}
	if int64(len(data)) > s.maxFileSize {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrFileTooLarge, len(data), s.maxFileSize)
	}
	return nil
}

func (s *Service) putAttachment(ctx context.Context, p models.Placement, fileName string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	key := path.Join(attachmentKeyPrefix,
		p.ProjectID.String(),
		p.QualificationObjectID.String(),
		s.now().UTC().Format("20060102T150405")+"-"+uuid.NewString()+ext,
	)
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := s.attachments.Put(ctx, key, data, contentType); err != nil {
		return "", fmt.Errorf("attachment upload: %w", err)
	}
	return key, nil
}

func (s *Service) invalidate(ctx context.Context, projectID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateProject(context.WithoutCancel(ctx), projectID); err != nil && !errors.Is(err, context.Canceled) {
		logging.FromContext(ctx).Warn("summary cache invalidation failed", "project_id", projectID, "error", err)
	}
}
