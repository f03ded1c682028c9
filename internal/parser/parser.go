// Package parser turns logger export files into measurement records.
//
// Two families of files are understood: proprietary .vi2 exports and
// spreadsheets (.xls/.xlsx). Every parser returns a models.ParsedFileData
// and never panics or returns a Go error to its caller; structural
// failures are reported through ParsingStatus "error" and ErrorMessage.
package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/thermomap/internal/models"
)

// ErrUnsupportedFormat is returned by Detect for extensions that are
// neither parsed nor accepted as attachments.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Kind is the routing decision made by Detect.
type Kind int

const (
	KindUnknown Kind = iota
	KindVI2
	KindSpreadsheet
	// KindAttachment files are accepted but stored as-is, never parsed.
	KindAttachment
)

func (k Kind) String() string {
	switch k {
	case KindVI2:
		return "vi2"
	case KindSpreadsheet:
		return "spreadsheet"
	case KindAttachment:
		return "attachment"
	default:
		return "unknown"
	}
}

// Parser converts the raw bytes of one file into ParsedFileData.
type Parser interface {
	// Name returns the unique name of the parser.
	Name() string
	// Extensions lists the lowercase extensions (with dot) the parser accepts.
	Extensions() []string
	// Parse never panics and never returns a partially built result.
	Parse(fileName string, data []byte) models.ParsedFileData
}

var kindByExt = map[string]Kind{
	".vi2":  KindVI2,
	".xls":  KindSpreadsheet,
	".xlsx": KindSpreadsheet,
	".csv":  KindAttachment,
	".pdf":  KindAttachment,
}

// Detect picks the parser family from the file extension.
func Detect(fileName string) (Kind, error) {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(fileName)))
	if k, ok := kindByExt[ext]; ok {
		return k, nil
	}
	if ext == "" {
		return KindUnknown, fmt.Errorf("%w: file %q has no extension (expected .vi2, .xls or .xlsx)", ErrUnsupportedFormat, fileName)
	}
	return KindUnknown, fmt.Errorf("%w: %s (expected .vi2, .xls or .xlsx)", ErrUnsupportedFormat, ext)
}

// AcceptedExtensions returns every extension the upload flow accepts,
// including attachment-only ones.
func AcceptedExtensions() []string {
	return []string{".vi2", ".csv", ".xls", ".xlsx", ".pdf"}
}

// Registry maps detected kinds to parsers.
type Registry struct {
	parsers map[Kind]Parser
}

// NewRegistry returns a registry with the built-in parsers.
func NewRegistry() *Registry {
	return &Registry{
		parsers: map[Kind]Parser{
			KindVI2:         NewVI2Parser(),
			KindSpreadsheet: NewXLSParser(),
		},
	}
}

// Register replaces the parser used for a kind.
func (r *Registry) Register(k Kind, p Parser) {
	r.parsers[k] = p
}

// ParserFor returns the parser for a file name.
// Attachment-only files yield (nil, KindAttachment, nil).
func (r *Registry) ParserFor(fileName string) (Parser, Kind, error) {
	k, err := Detect(fileName)
	if err != nil {
		return nil, k, err
	}
	if k == KindAttachment {
		return nil, k, nil
	}
	p, ok := r.parsers[k]
	if !ok {
		return nil, k, fmt.Errorf("%w: no parser registered for %s", ErrUnsupportedFormat, k)
	}
	return p, k, nil
}

// Parse detects the format and parses the file. Unsupported and
// attachment-only files produce an error result.
func (r *Registry) Parse(fileName string, data []byte) models.ParsedFileData {
	p, k, err := r.ParserFor(fileName)
	if err != nil {
		return models.Failed(fileName, "", err.Error())
	}
	if k == KindAttachment {
		return models.Failed(fileName, "", fmt.Sprintf("файл %s хранится как вложение и не содержит разбираемых измерений", filepath.Ext(fileName)))
	}
	return p.Parse(fileName, data)
}

// guard converts a panic inside a decoder into an error result so that a
// malformed file can never take the request down.
func guard(fileName string, format models.FileFormat, result *models.ParsedFileData) {
	if rec := recover(); rec != nil {
		slog.Error("parser panic", "file", fileName, "format", format, "panic", rec)
		*result = models.Failed(fileName, format, fmt.Sprintf("повреждённый файл: %v", rec))
	}
}
