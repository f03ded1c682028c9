package core

import (
	"context"
	"errors"
	"time"

	"github.com/JonMunkholm/thermomap/internal/parser"
)

// Defaults applied by NewService for zero Options fields.
const (
	DefaultBatchSize      = 1000
	DefaultMaxFileSize    = 10 << 20
	DefaultUploadTimeout  = 5 * time.Minute
	DefaultPageSize       = 100
	MaxPageSize           = 1000
	exportPageSize        = 5000
	attachmentKeyPrefix   = "logger-data"
	storageErrorMaxLength = 500
)

var (
	ErrFileTooLarge     = errors.New("file too large")
	ErrEmptyFile        = errors.New("empty file")
	ErrNoFile           = errors.New("no file provided")
	ErrNoMeasurements   = errors.New("no measurements in file")
	ErrInvalidPlacement = errors.New("invalid placement")
	ErrInvalidPage      = errors.New("invalid page")
	ErrSummaryNotFound  = errors.New("summary not found")
	ErrStorageDisabled  = errors.New("attachment storage disabled")
)

// Options configures a Service.
type Options struct {
	// BatchSize is the number of detail rows sent per COPY.
	BatchSize int
	// MaxFileSize is the upload limit in bytes.
	MaxFileSize int64
	// UploadTimeout bounds one IngestFile call.
	UploadTimeout time.Duration
	// MaxConcurrentUploads and UploadWaitTime configure the ingest limiter.
	MaxConcurrentUploads int
	UploadWaitTime       time.Duration
	// Cache and Attachments are optional.
	Cache       SummaryCache
	Attachments AttachmentStore
	// Parsers defaults to parser.NewRegistry().
	Parsers *parser.Registry
}

// Service ingests logger files and manages the persisted measurements.
// All collaborators are injected; the service holds no global state.
type Service struct {
	store       Store
	cache       SummaryCache
	attachments AttachmentStore
	parsers     *parser.Registry
	limiter     *UploadLimiter

	batchSize     int
	maxFileSize   int64
	uploadTimeout time.Duration

	now func() time.Time
}

// NewService creates a Service backed by store.
func NewService(store Store, opts Options) *Service {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	if opts.UploadTimeout <= 0 {
		opts.UploadTimeout = DefaultUploadTimeout
	}
	if opts.Parsers == nil {
		opts.Parsers = parser.NewRegistry()
	}
	return &Service{
		store:         store,
		cache:         opts.Cache,
		attachments:   opts.Attachments,
		parsers:       opts.Parsers,
		limiter:       NewUploadLimiter(opts.MaxConcurrentUploads, opts.UploadWaitTime),
		batchSize:     opts.BatchSize,
		maxFileSize:   opts.MaxFileSize,
		uploadTimeout: opts.UploadTimeout,
		now:           time.Now,
	}
}

// BatchSize returns the configured COPY batch size.
func (s *Service) BatchSize() int { return s.batchSize }

// MaxFileSize returns the upload limit in bytes.
func (s *Service) MaxFileSize() int64 { return s.maxFileSize }

// AttachmentsEnabled reports whether raw files are kept in object storage.
func (s *Service) AttachmentsEnabled() bool { return s.attachments != nil }

// UploadStatus reports the ingest limiter counters.
func (s *Service) UploadStatus() UploadStatus { return s.limiter.Status() }

// WaitForUploads blocks until running ingestions finish or ctx ends.
func (s *Service) WaitForUploads(ctx context.Context) error { return s.limiter.Drain(ctx) }
