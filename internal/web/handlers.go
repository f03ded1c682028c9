package web

import (
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/JonMunkholm/thermomap/internal/core"
	"github.com/JonMunkholm/thermomap/internal/logging"
	"github.com/JonMunkholm/thermomap/internal/web/templates"
)

// handleHealth reports liveness and ingest slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"uploads":     s.service.UploadStatus(),
		"attachments": s.service.AttachmentsEnabled(),
	})
}

// handleParse parses an uploaded file and returns the result without
// persisting it.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	fileName, data, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	parsed, err := s.service.ParseFile(fileName, data)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	status := http.StatusOK
	if !parsed.OK() {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, parsed)
}

// handleIngest parses and stores an uploaded file for a placement.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	fileName, data, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	placement, err := parsePlacement(r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	ctx := withRequestMetadata(r.Context(), r)
	result := s.service.IngestFile(ctx, placement, fileName, data)

	if !result.OK() {
		logging.FromContext(ctx).Warn("ingest did not complete",
			"file", fileName,
			"error", result.Error,
		)
	}
	writeJSON(w, ingestStatus(result), result)
}

// handleListSummaries lists upload summaries of a project, optionally for
// one qualification object.
func (s *Server) handleListSummaries(w http.ResponseWriter, r *http.Request) {
	projectID, objectID, err := summaryFilter(r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	summaries, err := s.service.ListSummaries(r.Context(), projectID, objectID)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

// handleStatusFragment renders the upload status table for HTMX.
func (s *Server) handleStatusFragment(w http.ResponseWriter, r *http.Request) {
	projectID, objectID, err := summaryFilter(r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	summaries, err := s.service.ListSummaries(r.Context(), projectID, objectID)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.UploadStatusTable(summaries).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render status table", "error", err)
	}
}

// handleMeasurements returns one page of stored records.
func (s *Server) handleMeasurements(w http.ResponseWriter, r *http.Request) {
	summaryID, err := summaryIDParam(r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	page, err := parseIntParam(r, "page", 1)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	pageSize, err := parseIntParam(r, "page_size", core.DefaultPageSize)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	result, err := s.service.GetMeasurements(r.Context(), summaryID, page, pageSize)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleExport streams all records of a summary as CSV.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	summaryID, err := summaryIDParam(r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	summary, err := s.service.GetSummary(r.Context(), summaryID)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	base := strings.TrimSuffix(summary.FileName, path.Ext(summary.FileName))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", base+".csv"))

	n, err := s.service.ExportMeasurementsCSV(r.Context(), summaryID, w)
	if err != nil {
		// Headers are sent; the client sees a truncated file.
		logging.FromContext(r.Context()).Error("csv export failed", "summary_id", summaryID, "rows", n, "error", err)
	}
}

// handleDelete removes the measurements and summary of one file.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	projectID, err := parseUUID(q.Get("project_id"), "project_id", true)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	objectID, err := parseUUID(q.Get("qualification_object_id"), "qualification_object_id", true)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	result := s.service.DeleteLoggerData(r.Context(), projectID, objectID, q.Get("file_name"))

	status := http.StatusOK
	switch {
	case result.Success:
	case strings.Contains(result.Error, "REQ001"):
		status = http.StatusBadRequest
	default:
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, result)
}

// summaryFilter reads project_id (required) and qualification_object_id.
func summaryFilter(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	q := r.URL.Query()
	projectID, err := parseUUID(q.Get("project_id"), "project_id", true)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	objectID, err := parseUUID(q.Get("qualification_object_id"), "qualification_object_id", false)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return projectID, objectID, nil
}
