package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const summaryColumns = `id, project_id, qualification_object_id, zone_number, measurement_level, logger_name,
    file_name, device_type, serial_number, device_model, firmware_version,
    start_date, end_date, record_count, parsing_status, error_message,
    storage_status, attachment_key, uploaded_by, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLoggerDataSummary(row rowScanner) (LoggerDataSummary, error) {
	var i LoggerDataSummary
	err := row.Scan(
		&i.ID,
		&i.ProjectID,
		&i.QualificationObjectID,
		&i.ZoneNumber,
		&i.MeasurementLevel,
		&i.LoggerName,
		&i.FileName,
		&i.DeviceType,
		&i.SerialNumber,
		&i.DeviceModel,
		&i.FirmwareVersion,
		&i.StartDate,
		&i.EndDate,
		&i.RecordCount,
		&i.ParsingStatus,
		&i.ErrorMessage,
		&i.StorageStatus,
		&i.AttachmentKey,
		&i.UploadedBy,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const upsertLoggerSummary = `-- name: UpsertLoggerSummary :one
INSERT INTO logger_data_summary (
    project_id, qualification_object_id, zone_number, measurement_level, logger_name,
    file_name, device_type, serial_number, device_model, firmware_version,
    start_date, end_date, record_count, parsing_status, error_message,
    storage_status, attachment_key, uploaded_by
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18
)
ON CONFLICT (project_id, qualification_object_id, zone_number, measurement_level, file_name)
DO UPDATE SET
    logger_name      = EXCLUDED.logger_name,
    device_type      = EXCLUDED.device_type,
    serial_number    = EXCLUDED.serial_number,
    device_model     = EXCLUDED.device_model,
    firmware_version = EXCLUDED.firmware_version,
    start_date       = EXCLUDED.start_date,
    end_date         = EXCLUDED.end_date,
    record_count     = EXCLUDED.record_count,
    parsing_status   = EXCLUDED.parsing_status,
    error_message    = EXCLUDED.error_message,
    storage_status   = EXCLUDED.storage_status,
    attachment_key   = COALESCE(EXCLUDED.attachment_key, logger_data_summary.attachment_key),
    uploaded_by      = EXCLUDED.uploaded_by,
    updated_at       = now()
RETURNING ` + summaryColumns

type UpsertLoggerSummaryParams struct {
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
}

func (q *Queries) UpsertLoggerSummary(ctx context.Context, arg UpsertLoggerSummaryParams) (LoggerDataSummary, error) {
	row := q.db.QueryRow(ctx, upsertLoggerSummary,
		arg.ProjectID,
		arg.QualificationObjectID,
		arg.ZoneNumber,
		arg.MeasurementLevel,
		arg.LoggerName,
		arg.FileName,
		arg.DeviceType,
		arg.SerialNumber,
		arg.DeviceModel,
		arg.FirmwareVersion,
		arg.StartDate,
		arg.EndDate,
		arg.RecordCount,
		arg.ParsingStatus,
		arg.ErrorMessage,
		arg.StorageStatus,
		arg.AttachmentKey,
		arg.UploadedBy,
	)
	return scanLoggerDataSummary(row)
}

const updateLoggerSummaryStorage = `-- name: UpdateLoggerSummaryStorage :exec
UPDATE logger_data_summary
SET storage_status = $2,
    error_message  = COALESCE($3, error_message),
    updated_at     = now()
WHERE id = $1`

type UpdateLoggerSummaryStorageParams struct {
	ID            pgtype.UUID
	StorageStatus string
	ErrorMessage  pgtype.Text
}

func (q *Queries) UpdateLoggerSummaryStorage(ctx context.Context, arg UpdateLoggerSummaryStorageParams) error {
	_, err := q.db.Exec(ctx, updateLoggerSummaryStorage, arg.ID, arg.StorageStatus, arg.ErrorMessage)
	return err
}

const getLoggerSummary = `-- name: GetLoggerSummary :one
SELECT ` + summaryColumns + ` FROM logger_data_summary WHERE id = $1`

func (q *Queries) GetLoggerSummary(ctx context.Context, id pgtype.UUID) (LoggerDataSummary, error) {
	row := q.db.QueryRow(ctx, getLoggerSummary, id)
	return scanLoggerDataSummary(row)
}

const listLoggerSummaries = `-- name: ListLoggerSummaries :many
SELECT ` + summaryColumns + ` FROM logger_data_summary
WHERE project_id = $1
  AND ($2::uuid IS NULL OR qualification_object_id = $2::uuid)
ORDER BY zone_number, measurement_level, file_name`

type ListLoggerSummariesParams struct {
	ProjectID             pgtype.UUID
	QualificationObjectID pgtype.UUID
}

func (q *Queries) ListLoggerSummaries(ctx context.Context, arg ListLoggerSummariesParams) ([]LoggerDataSummary, error) {
	rows, err := q.db.Query(ctx, listLoggerSummaries, arg.ProjectID, arg.QualificationObjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LoggerDataSummary
	for rows.Next() {
		i, err := scanLoggerDataSummary(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listLoggerSummaryAttachments = `-- name: ListLoggerSummaryAttachments :many
SELECT attachment_key FROM logger_data_summary
WHERE project_id = $1 AND qualification_object_id = $2 AND file_name = $3
  AND attachment_key IS NOT NULL`

type FileKeyParams struct {
	ProjectID             pgtype.UUID
	QualificationObjectID pgtype.UUID
	FileName              string
}

func (q *Queries) ListLoggerSummaryAttachments(ctx context.Context, arg FileKeyParams) ([]string, error) {
	rows, err := q.db.Query(ctx, listLoggerSummaryAttachments, arg.ProjectID, arg.QualificationObjectID, arg.FileName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		items = append(items, key)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteLoggerDataBySummary = `-- name: DeleteLoggerDataBySummary :execrows
DELETE FROM logger_data WHERE summary_id = $1`

func (q *Queries) DeleteLoggerDataBySummary(ctx context.Context, summaryID pgtype.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, deleteLoggerDataBySummary, summaryID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const deleteLoggerDataByFile = `-- name: DeleteLoggerDataByFile :execrows
DELETE FROM logger_data
WHERE summary_id IN (
    SELECT id FROM logger_data_summary
    WHERE project_id = $1 AND qualification_object_id = $2 AND file_name = $3
)`

func (q *Queries) DeleteLoggerDataByFile(ctx context.Context, arg FileKeyParams) (int64, error) {
	result, err := q.db.Exec(ctx, deleteLoggerDataByFile, arg.ProjectID, arg.QualificationObjectID, arg.FileName)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const deleteLoggerSummaryByFile = `-- name: DeleteLoggerSummaryByFile :execrows
DELETE FROM logger_data_summary
WHERE project_id = $1 AND qualification_object_id = $2 AND file_name = $3`

func (q *Queries) DeleteLoggerSummaryByFile(ctx context.Context, arg FileKeyParams) (int64, error) {
	result, err := q.db.Exec(ctx, deleteLoggerSummaryByFile, arg.ProjectID, arg.QualificationObjectID, arg.FileName)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const listLoggerData = `-- name: ListLoggerData :many
SELECT id, summary_id, timestamp, temperature, humidity, is_valid, validation_errors
FROM logger_data
WHERE summary_id = $1
ORDER BY timestamp, id
LIMIT $2 OFFSET $3`

type ListLoggerDataParams struct {
	SummaryID pgtype.UUID
	Limit     int32
	Offset    int32
}

func (q *Queries) ListLoggerData(ctx context.Context, arg ListLoggerDataParams) ([]LoggerDatum, error) {
	rows, err := q.db.Query(ctx, listLoggerData, arg.SummaryID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LoggerDatum
	for rows.Next() {
		var i LoggerDatum
		if err := rows.Scan(
			&i.ID,
			&i.SummaryID,
			&i.Timestamp,
			&i.Temperature,
			&i.Humidity,
			&i.IsValid,
			&i.ValidationErrors,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countLoggerData = `-- name: CountLoggerData :one
SELECT COUNT(*) FROM logger_data WHERE summary_id = $1`

func (q *Queries) CountLoggerData(ctx context.Context, summaryID pgtype.UUID) (int64, error) {
	row := q.db.QueryRow(ctx, countLoggerData, summaryID)
	var count int64
	err := row.Scan(&count)
	return count, err
}
