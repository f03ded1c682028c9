package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	db "github.com/JonMunkholm/thermomap/internal/database"
	"github.com/JonMunkholm/thermomap/internal/logging"
	"github.com/JonMunkholm/thermomap/internal/models"
)

// Deletion steps reported in DeleteResult.Step.
const (
	StepDetails = "details"
	StepSummary = "summary"
)

// DeleteLoggerData removes the measurements of a file and then its summary.
// The two steps are not transactional: when the summary delete fails the
// detail rows stay deleted and the failing step is reported.
func (s *Service) DeleteLoggerData(ctx context.Context, projectID, objectID uuid.UUID, fileName string) models.DeleteResult {
	log := logging.WithFields(ctx, "file", fileName, "project_id", projectID, "object_id", objectID)

	fileName = strings.TrimSpace(fileName)
	if projectID == uuid.Nil || objectID == uuid.Nil || fileName == "" {
		return models.DeleteResult{Error: FormatUserError(fmt.Errorf("%w: project_id, qualification_object_id and file_name are required", ErrInvalidPlacement))}
	}

	key := db.FileKeyParams{
		ProjectID:             ToPgUUID(projectID),
		QualificationObjectID: ToPgUUID(objectID),
		FileName:              fileName,
	}

	// Attachment keys must be read before the summary rows disappear.
	var attachmentKeys []string
	if s.attachments != nil {
		keys, err := s.store.ListLoggerSummaryAttachments(ctx, key)
		if err != nil {
			log.Warn("list attachments failed", "error", err)
		}
		attachmentKeys = keys
	}

	var result models.DeleteResult

	details, err := s.store.DeleteLoggerDataByFile(ctx, key)
	if err != nil {
		log.Error("delete measurements failed", "error", err)
		result.Step = StepDetails
		result.Error = FormatUserError(fmt.Errorf("delete measurements: %w", err))
		return result
	}
	result.DetailsDeleted = details

	summaries, err := s.store.DeleteLoggerSummaryByFile(ctx, key)
	if err != nil {
		log.Error("delete summary failed", "details_deleted", details, "error", err)
		result.Step = StepSummary
		result.Error = FormatUserError(fmt.Errorf("delete summary: %w", err))
		s.invalidate(ctx, projectID)
		return result
	}
	result.SummaryDeleted = summaries > 0
	result.Success = true
	s.invalidate(ctx, projectID)

	for _, k := range attachmentKeys {
		if err := s.attachments.Delete(ctx, k); err != nil {
			log.Warn("delete attachment failed", "key", k, "error", err)
		}
	}

	log.Info("logger data deleted", "details_deleted", details, "summaries_deleted", summaries)
	return result
}
