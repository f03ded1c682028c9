package parser

// vi2.go parses .vi2 logger exports.
//
// Two encodings carry the .vi2 extension. The binary form starts with the
// magic "VI2\x1a" and holds a fixed little-endian header followed by
// interleaved int16 samples in tenths of a unit:
//
//	magic     [4]byte  "VI2\x1a"
//	version   uint16
//	devType   uint16
//	serial    [16]byte NUL padded
//	model     [32]byte NUL padded, ASCII or Windows-1251
//	firmware  [16]byte NUL padded
//	start     int64    Unix seconds of the first sample (wall clock)
//	interval  uint32   seconds between samples
//	channels  uint8    1 = temperature, 2 = temperature + humidity
//	reserved  [3]byte
//	count     uint32   number of samples
//	samples   count * channels * int16, 0x7FFF = no value
//
// The text form is what the vendor software writes on "export as text":
// "Key: value" header lines followed by "DD.MM.YYYY HH:MM:SS;T[;H]" rows.

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/JonMunkholm/thermomap/internal/models"
)

var vi2Magic = []byte("VI2\x1a")

// vi2MissingSample marks an absent channel value in the binary form.
const vi2MissingSample int16 = 0x7FFF

// vi2MaxSamples bounds allocation for corrupt headers.
const vi2MaxSamples = 5_000_000

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// vi2Header is the fixed binary header; its size is 92 bytes.
type vi2Header struct {
	Magic    [4]byte
	Version  uint16
	DevType  uint16
	Serial   [16]byte
	Model    [32]byte
	Firmware [16]byte
	Start    int64
	Interval uint32
	Channels uint8
	Reserved [3]byte
	Count    uint32
}

// VI2Parser parses .vi2 files.
type VI2Parser struct{}

// NewVI2Parser returns a .vi2 parser.
func NewVI2Parser() *VI2Parser {
	return &VI2Parser{}
}

func (p *VI2Parser) Name() string { return "vi2" }

func (p *VI2Parser) Extensions() []string { return []string{".vi2"} }

// Parse detects the binary or text encoding and decodes it.
func (p *VI2Parser) Parse(fileName string, data []byte) (result models.ParsedFileData) {
	defer guard(fileName, models.FormatVI2, &result)

	if len(data) == 0 {
		return models.Failed(fileName, models.FormatVI2, "файл пуст")
	}

	var err error
	if bytes.HasPrefix(data, vi2Magic) {
		result, err = decodeVI2Binary(fileName, data)
	} else {
		result, err = decodeVI2Text(fileName, data)
	}
	if err != nil {
		slog.Debug("vi2 decode failed", "file", fileName, "error", err)
		return models.Failed(fileName, models.FormatVI2, err.Error())
	}
	return result
}

func decodeVI2Binary(fileName string, data []byte) (models.ParsedFileData, error) {
	r := bytes.NewReader(data)

	var h vi2Header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return models.ParsedFileData{}, fmt.Errorf("повреждённый заголовок VI2: %w", err)
	}
	if h.Channels < 1 || h.Channels > 2 {
		return models.ParsedFileData{}, fmt.Errorf("неподдерживаемое число каналов VI2: %d", h.Channels)
	}
	if h.Interval == 0 {
		return models.ParsedFileData{}, errors.New("некорректный интервал записи VI2: 0 с")
	}
	if h.Count == 0 {
		return models.ParsedFileData{}, errors.New("файл VI2 не содержит измерений")
	}
	if h.Count > vi2MaxSamples {
		return models.ParsedFileData{}, fmt.Errorf("слишком много измерений в файле VI2: %d", h.Count)
	}

	samples := make([]int16, int(h.Count)*int(h.Channels))
	if err := binary.Read(r, binary.LittleEndian, samples); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return models.ParsedFileData{}, fmt.Errorf("файл VI2 обрезан: ожидалось %d измерений", h.Count)
		}
		return models.ParsedFileData{}, fmt.Errorf("чтение измерений VI2: %w", err)
	}

	meta := models.DeviceMetadata{
		DeviceType:      int(h.DevType),
		SerialNumber:    fixedString(h.Serial[:]),
		DeviceModel:     fixedString(h.Model[:]),
		FirmwareVersion: fixedString(h.Firmware[:]),
	}

	start := time.Unix(h.Start, 0).UTC()
	step := time.Duration(h.Interval) * time.Second
	ch := int(h.Channels)

	records := make([]models.MeasurementRecord, 0, h.Count)
	for i := 0; i < int(h.Count); i++ {
		rec := models.MeasurementRecord{
			Timestamp:   start.Add(time.Duration(i) * step),
			Temperature: tenths(samples[i*ch]),
		}
		if ch == 2 {
			rec.Humidity = tenths(samples[i*ch+1])
		}
		records = append(records, Validate(rec))
	}

	props := map[string]string{
		"version":  strconv.Itoa(int(h.Version)),
		"interval": step.String(),
	}
	return models.Completed(fileName, models.FormatVI2, models.LayoutBinary, meta, props, records, nil), nil
}

func tenths(v int16) *float64 {
	if v == vi2MissingSample {
		return nil
	}
	f := float64(v) / 10
	return &f
}

// fixedString decodes a NUL padded field, falling back to Windows-1251.
func fixedString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return strings.TrimSpace(decodeLegacy(b))
}

// decodeLegacy returns b as UTF-8, converting from Windows-1251 when b is
// not valid UTF-8 already.
func decodeLegacy(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	out, err := charmap.Windows1251.NewDecoder().Bytes(b)
	if err != nil {
		return string(bytes.ToValidUTF8(b, []byte("�")))
	}
	return string(out)
}

// vi2TextKeys maps lowercase header keys to metadata fields.
var vi2TextKeys = map[string]string{
	"type":           "type",
	"тип":            "type",
	"device type":    "type",
	"serial":         "serial",
	"serial number":  "serial",
	"серийный номер": "serial",
	"model":          "model",
	"модель":         "model",
	"firmware":       "firmware",
	"прошивка":       "firmware",
	"interval":       "interval",
	"интервал":       "interval",
}

func decodeVI2Text(fileName string, data []byte) (models.ParsedFileData, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	text := decodeLegacy(data)

	meta := models.DeviceMetadata{}
	props := make(map[string]string)
	var records []models.MeasurementRecord
	var skipped []models.RowIssue
	inData := false

	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		if strings.EqualFold(s, "[data]") || strings.EqualFold(s, "[данные]") {
			inData = true
			continue
		}
		if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
			continue
		}

		fields := splitVI2Fields(s)
		if !inData {
			if _, err := ParseDateTime(fields[0]); err != nil {
				if key, val, ok := splitKeyValue(s); ok {
					applyVI2Header(&meta, props, key, val)
				}
				continue
			}
			// First timestamped line starts the data section.
			inData = true
		}

		if len(fields) < 2 {
			skipped = append(skipped, models.RowIssue{Row: line, Reason: "строка не содержит значения температуры"})
			continue
		}
		ts, err := ParseDateTime(fields[0])
		if err != nil {
			slog.Debug("vi2 text row skipped", "file", fileName, "line", line, "error", err)
			skipped = append(skipped, models.RowIssue{Row: line, Reason: fmt.Sprintf("не удалось разобрать дату: %v", err)})
			continue
		}
		rec := models.MeasurementRecord{Timestamp: ts}
		if v, ok := ParseNumber(fields[1]); ok {
			rec.Temperature = &v
		}
		if len(fields) > 2 {
			if v, ok := ParseNumber(fields[2]); ok {
				rec.Humidity = &v
			}
		}
		records = append(records, Validate(rec))
	}
	if err := sc.Err(); err != nil {
		return models.ParsedFileData{}, fmt.Errorf("чтение файла VI2: %w", err)
	}

	if len(records) == 0 {
		return models.ParsedFileData{}, errors.New("файл VI2 не содержит измерений")
	}
	if meta.DeviceType == 0 {
		meta.DeviceType = DeviceTypeTemperature
		for _, r := range records {
			if r.Humidity != nil {
				meta.DeviceType = DeviceTypeTempAndHumidity
				break
			}
		}
	}
	return models.Completed(fileName, models.FormatVI2, models.LayoutText, meta, props, records, skipped), nil
}

// splitVI2Fields splits a data line on ';', tab, or ", " (a bare comma is
// a decimal separator).
func splitVI2Fields(s string) []string {
	var parts []string
	switch {
	case strings.Contains(s, ";"):
		parts = strings.Split(s, ";")
	case strings.Contains(s, "\t"):
		parts = strings.Split(s, "\t")
	case strings.Contains(s, ", "):
		parts = strings.Split(s, ", ")
	default:
		parts = []string{s}
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func splitKeyValue(s string) (string, string, bool) {
	i := strings.IndexAny(s, ":=")
	if i <= 0 {
		return "", "", false
	}
	return strings.ToLower(strings.TrimSpace(s[:i])), strings.TrimSpace(s[i+1:]), true
}

func applyVI2Header(meta *models.DeviceMetadata, props map[string]string, key, val string) {
	switch vi2TextKeys[key] {
	case "type":
		if n, err := strconv.Atoi(val); err == nil {
			meta.DeviceType = n
		}
	case "serial":
		meta.SerialNumber = val
	case "model":
		meta.DeviceModel = val
	case "firmware":
		meta.FirmwareVersion = val
	default:
		props[key] = val
	}
}
