// Package core persists parsed logger files and serves them back.
//
// It sits between the format parsers in package parser and the PostgreSQL
// queries in package database. The HTTP layer is its only caller; the
// offline CLI uses package parser directly.
//
// # Ingestion
//
// [Service.IngestFile] validates the placement and size of an upload, picks a
// parser by file extension and hands the result to [Service.SaveLoggerData]:
//
//  1. The summary row is upserted on (project, object, zone, level, file name)
//     with storage status "pending", or "skipped" when there is nothing to store.
//  2. Measurements of a previous upload of the same file are deleted.
//  3. Records are written with COPY in sequential batches of [DefaultBatchSize].
//     The first failing batch aborts the rest and the summary becomes "failed".
//  4. On success the summary becomes "stored".
//
// Files that are not logger exports (PDF reports, scans) are only kept in the
// attachment store when one is configured.
//
// At most Options.MaxConcurrentUploads ingestions run at once; the rest wait
// on an [UploadLimiter] and fail with [ErrTooManyUploads] when no slot frees
// up in time.
//
// # Deletion
//
// [Service.DeleteLoggerData] removes measurements first and the summary second.
// The steps are not transactional; the result reports which step failed.
//
// # Error Handling
//
// Service results carry user-facing messages produced by [FormatUserError]:
//
//   - FILE001-FILE004: file errors (size, format, empty)
//   - PRS001-PRS002: parse errors
//   - REQ001-REQ006: request errors
//   - DB001-DB007: database errors
//   - STO001-STO002: attachment storage errors
package core
