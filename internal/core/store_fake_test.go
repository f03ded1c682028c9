package core

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	db "github.com/JonMunkholm/thermomap/internal/database"
	"github.com/JonMunkholm/thermomap/internal/models"
)

// fakeStore is an in-memory Store that records the calls it receives.
type fakeStore struct {
	mu sync.Mutex

	summaries map[pgtype.UUID]db.LoggerDataSummary
	details   map[pgtype.UUID][]db.CopyLoggerDataParams

	calls      []string
	copyCalls  []int // batch sizes in call order
	statusLog  []string
	failCopyAt int // 1-based COPY call that fails; 0 = never

	upsertErr        error
	copyErr          error
	deleteDetailsErr error
	deleteSummaryErr error
	listErr          error
	updateErr        error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		summaries: make(map[pgtype.UUID]db.LoggerDataSummary),
		details:   make(map[pgtype.UUID][]db.CopyLoggerDataParams),
	}
}

func (f *fakeStore) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeStore) UpsertLoggerSummary(_ context.Context, arg db.UpsertLoggerSummaryParams) (db.LoggerDataSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("upsert")
	if f.upsertErr != nil {
		return db.LoggerDataSummary{}, f.upsertErr
	}

	for id, s := range f.summaries {
		if s.ProjectID == arg.ProjectID && s.QualificationObjectID == arg.QualificationObjectID &&
			s.ZoneNumber == arg.ZoneNumber && s.MeasurementLevel == arg.MeasurementLevel && s.FileName == arg.FileName {
			updated := summaryFromParams(id, arg)
			updated.CreatedAt = s.CreatedAt
			if !arg.AttachmentKey.Valid {
				updated.AttachmentKey = s.AttachmentKey
			}
			f.summaries[id] = updated
			f.statusLog = append(f.statusLog, arg.StorageStatus)
			return updated, nil
		}
	}

	id := pgtype.UUID{Bytes: uuid.New(), Valid: true}
	s := summaryFromParams(id, arg)
	f.summaries[id] = s
	f.statusLog = append(f.statusLog, arg.StorageStatus)
	return s, nil
}

func summaryFromParams(id pgtype.UUID, arg db.UpsertLoggerSummaryParams) db.LoggerDataSummary {
	return db.LoggerDataSummary{
		ID:                    id,
		ProjectID:             arg.ProjectID,
		QualificationObjectID: arg.QualificationObjectID,
		ZoneNumber:            arg.ZoneNumber,
		MeasurementLevel:      arg.MeasurementLevel,
		LoggerName:            arg.LoggerName,
		FileName:              arg.FileName,
		DeviceType:            arg.DeviceType,
		SerialNumber:          arg.SerialNumber,
		DeviceModel:           arg.DeviceModel,
		FirmwareVersion:       arg.FirmwareVersion,
		StartDate:             arg.StartDate,
		EndDate:               arg.EndDate,
		RecordCount:           arg.RecordCount,
		ParsingStatus:         arg.ParsingStatus,
		ErrorMessage:          arg.ErrorMessage,
		StorageStatus:         arg.StorageStatus,
		AttachmentKey:         arg.AttachmentKey,
		UploadedBy:            arg.UploadedBy,
	}
}

func (f *fakeStore) UpdateLoggerSummaryStorage(_ context.Context, arg db.UpdateLoggerSummaryStorageParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("update:" + arg.StorageStatus)
	if f.updateErr != nil {
		return f.updateErr
	}
	s, ok := f.summaries[arg.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	s.StorageStatus = arg.StorageStatus
	if arg.ErrorMessage.Valid {
		s.ErrorMessage = arg.ErrorMessage
	}
	f.summaries[arg.ID] = s
	f.statusLog = append(f.statusLog, arg.StorageStatus)
	return nil
}

func (f *fakeStore) GetLoggerSummary(_ context.Context, id pgtype.UUID) (db.LoggerDataSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("get")
	s, ok := f.summaries[id]
	if !ok {
		return db.LoggerDataSummary{}, pgx.ErrNoRows
	}
	return s, nil
}

func (f *fakeStore) ListLoggerSummaries(_ context.Context, arg db.ListLoggerSummariesParams) ([]db.LoggerDataSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("list")
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []db.LoggerDataSummary
	for _, s := range f.summaries {
		if s.ProjectID != arg.ProjectID {
			continue
		}
		if arg.QualificationObjectID.Valid && s.QualificationObjectID != arg.QualificationObjectID {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FileName < out[j].FileName })
	return out, nil
}

func (f *fakeStore) matchFile(s db.LoggerDataSummary, arg db.FileKeyParams) bool {
	return s.ProjectID == arg.ProjectID && s.QualificationObjectID == arg.QualificationObjectID && s.FileName == arg.FileName
}

func (f *fakeStore) ListLoggerSummaryAttachments(_ context.Context, arg db.FileKeyParams) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for _, s := range f.summaries {
		if f.matchFile(s, arg) && s.AttachmentKey.Valid {
			keys = append(keys, s.AttachmentKey.String)
		}
	}
	return keys, nil
}

func (f *fakeStore) DeleteLoggerDataBySummary(_ context.Context, summaryID pgtype.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("delete-details-by-summary")
	n := int64(len(f.details[summaryID]))
	delete(f.details, summaryID)
	return n, nil
}

func (f *fakeStore) DeleteLoggerDataByFile(_ context.Context, arg db.FileKeyParams) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("delete-details")
	if f.deleteDetailsErr != nil {
		return 0, f.deleteDetailsErr
	}
	var n int64
	for id, s := range f.summaries {
		if f.matchFile(s, arg) {
			n += int64(len(f.details[id]))
			delete(f.details, id)
		}
	}
	return n, nil
}

func (f *fakeStore) DeleteLoggerSummaryByFile(_ context.Context, arg db.FileKeyParams) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("delete-summary")
	if f.deleteSummaryErr != nil {
		return 0, f.deleteSummaryErr
	}
	var n int64
	for id, s := range f.summaries {
		if f.matchFile(s, arg) {
			if len(f.details[id]) > 0 {
				return 0, errFK
			}
			delete(f.summaries, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) CopyLoggerData(_ context.Context, arg []db.CopyLoggerDataParams) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("copy")
	f.copyCalls = append(f.copyCalls, len(arg))
	if f.failCopyAt > 0 && len(f.copyCalls) == f.failCopyAt {
		return 0, f.copyErr
	}
	if len(arg) == 0 {
		return 0, nil
	}
	id := arg[0].SummaryID
	f.details[id] = append(f.details[id], arg...)
	return int64(len(arg)), nil
}

func (f *fakeStore) ListLoggerData(_ context.Context, arg db.ListLoggerDataParams) ([]db.LoggerDatum, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows := f.details[arg.SummaryID]
	start := int(arg.Offset)
	if start >= len(rows) {
		return nil, nil
	}
	end := min(start+int(arg.Limit), len(rows))
	out := make([]db.LoggerDatum, 0, end-start)
	for i, r := range rows[start:end] {
		out = append(out, db.LoggerDatum{
			ID:               int64(start + i + 1),
			SummaryID:        r.SummaryID,
			Timestamp:        r.Timestamp,
			Temperature:      r.Temperature,
			Humidity:         r.Humidity,
			IsValid:          r.IsValid,
			ValidationErrors: r.ValidationErrors,
		})
	}
	return out, nil
}

func (f *fakeStore) CountLoggerData(_ context.Context, summaryID pgtype.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.details[summaryID])), nil
}

func (f *fakeStore) summaryFor(fileName string) (db.LoggerDataSummary, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.summaries {
		if s.FileName == fileName {
			return s, true
		}
	}
	return db.LoggerDataSummary{}, false
}

// errFK mimics the server error for deleting a referenced summary.
var errFK = &fakePgError{"ERROR: update or delete on table \"logger_data_summary\" violates foreign key constraint"}

type fakePgError struct{ msg string }

func (e *fakePgError) Error() string { return e.msg }

// fakeCache is an in-memory SummaryCache.
type fakeCache struct {
	mu          sync.Mutex
	entries     map[string][]models.LoggerDataSummary
	hits        int
	invalidated []uuid.UUID
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]models.LoggerDataSummary)}
}

func cacheKey(projectID, objectID uuid.UUID) string {
	return projectID.String() + "/" + objectID.String()
}

func (c *fakeCache) GetSummaries(_ context.Context, projectID, objectID uuid.UUID) ([]models.LoggerDataSummary, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[cacheKey(projectID, objectID)]
	if ok {
		c.hits++
	}
	return v, ok, nil
}

func (c *fakeCache) SetSummaries(_ context.Context, projectID, objectID uuid.UUID, s []models.LoggerDataSummary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(projectID, objectID)] = s
	return nil
}

func (c *fakeCache) InvalidateProject(_ context.Context, projectID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, projectID)
	prefix := projectID.String() + "/"
	for k := range c.entries {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(c.entries, k)
		}
	}
	return nil
}

// fakeAttachments is an in-memory AttachmentStore.
type fakeAttachments struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	deleted []string
}

func newFakeAttachments() *fakeAttachments {
	return &fakeAttachments{objects: make(map[string][]byte)}
}

func (a *fakeAttachments) Put(_ context.Context, key string, data []byte, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.putErr != nil {
		return a.putErr
	}
	a.objects[key] = append([]byte(nil), data...)
	return nil
}

func (a *fakeAttachments) Delete(_ context.Context, key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.objects, key)
	a.deleted = append(a.deleted, key)
	return nil
}
