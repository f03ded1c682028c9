package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JonMunkholm/thermomap/internal/core"
	"github.com/JonMunkholm/thermomap/internal/models"
)

// multipartOverhead is allowed on top of the file size for form fields and
// boundaries, so an over-limit file is reported by the service as FILE001.
const multipartOverhead = 1 << 20

// readUpload reads the "file" part of a multipart request, bounded by the
// configured maximum file size.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return "", nil, fmt.Errorf("%w: request exceeds %d bytes", core.ErrFileTooLarge, maxBytes.Limit)
		}
		return "", nil, fmt.Errorf("%w: %v", core.ErrNoFile, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, core.ErrNoFile
	}
	defer file.Close()

	if header.Size > maxSize {
		return "", nil, fmt.Errorf("%w: %d bytes (max %d)", core.ErrFileTooLarge, header.Size, maxSize)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, fmt.Errorf("read upload: %w", err)
	}
	return header.Filename, data, nil
}

// parsePlacement reads the placement fields from a parsed form.
func parsePlacement(r *http.Request) (models.Placement, error) {
	projectID, err := parseUUID(r.FormValue("project_id"), "project_id", true)
	if err != nil {
		return models.Placement{}, err
	}
	objectID, err := parseUUID(r.FormValue("qualification_object_id"), "qualification_object_id", true)
	if err != nil {
		return models.Placement{}, err
	}
	zone, err := strconv.Atoi(strings.TrimSpace(r.FormValue("zone_number")))
	if err != nil {
		return models.Placement{}, fmt.Errorf("%w: zone_number must be an integer", core.ErrInvalidPlacement)
	}

	return models.Placement{
		ProjectID:             projectID,
		QualificationObjectID: objectID,
		ZoneNumber:            zone,
		MeasurementLevel:      strings.TrimSpace(r.FormValue("measurement_level")),
		LoggerName:            strings.TrimSpace(r.FormValue("logger_name")),
	}, nil
}

// parseUUID parses an id parameter. Empty optional values yield uuid.Nil.
func parseUUID(value, name string, required bool) (uuid.UUID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		if required {
			return uuid.Nil, fmt.Errorf("%w: %s is required", core.ErrInvalidPlacement, name)
		}
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s is not a valid uuid", core.ErrInvalidPlacement, name)
	}
	return id, nil
}

// summaryIDParam reads the {summaryID} route parameter.
func summaryIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "summaryID"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: malformed summary id", core.ErrSummaryNotFound)
	}
	return id, nil
}

// parseIntParam reads an integer query parameter with a default.
func parseIntParam(r *http.Request, name string, defaultVal int) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", core.ErrInvalidPage, name)
	}
	return v, nil
}

// ingestStatus picks the HTTP status for an ingest outcome.
func ingestStatus(res core.IngestResult) int {
	switch {
	case res.OK():
		return http.StatusOK
	case strings.Contains(res.Error, "FILE001"):
		return http.StatusRequestEntityTooLarge
	case strings.Contains(res.Error, "FILE002"):
		return http.StatusUnsupportedMediaType
	case strings.Contains(res.Error, "REQ006"):
		return http.StatusTooManyRequests
	case strings.Contains(res.Error, "STO001"):
		return http.StatusServiceUnavailable
	case strings.Contains(res.Error, "STO002"):
		return http.StatusBadGateway
	case res.Error != "":
		return http.StatusBadRequest
	case res.Parsed != nil && !res.Parsed.OK():
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
