package parser

// xls.go parses spreadsheet exports.
//
// Two sheet shapes exist in the wild:
//
//   - vendor layout: the logger software writes a block of device
//     metadata ("Название прибора", "Время запуска", ...) followed by a
//     header row with "id", "Дата/время" and "Температура[°C]" columns;
//   - generic layout: a plain table whose first row names the columns.
//
// The shape is resolved once per file by discoverLayout and the rows are
// then decoded by the matching sheetLayout implementation.

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/JonMunkholm/thermomap/internal/models"
)

// Device type codes derived from the channels a logger records.
const (
	DeviceTypeUnknown         = 0
	DeviceTypeTemperature     = 1
	DeviceTypeTempAndHumidity = 2
)

// XLSParser parses .xls and .xlsx files.
type XLSParser struct{}

// NewXLSParser returns a spreadsheet parser.
func NewXLSParser() *XLSParser {
	return &XLSParser{}
}

func (p *XLSParser) Name() string { return "xls" }

func (p *XLSParser) Extensions() []string { return []string{".xls", ".xlsx"} }

// Parse reads the first worksheet of data.
func (p *XLSParser) Parse(fileName string, data []byte) (result models.ParsedFileData) {
	format := formatFromName(fileName)
	defer guard(fileName, format, &result)

	rows, format, err := readWorkbook(fileName, data)
	if err != nil {
		slog.Debug("workbook read failed", "file", fileName, "error", err)
		return models.Failed(fileName, format, fmt.Sprintf("повреждённый или неподдерживаемый файл Excel: %v", err))
	}
	return ParseRows(fileName, format, rows)
}

// ParseRows parses an already loaded grid. Exposed so other tabular
// sources can share the layout detection.
func ParseRows(fileName string, format models.FileFormat, rows [][]Cell) models.ParsedFileData {
	if len(rows) == 0 || allBlank(rows) {
		return models.Failed(fileName, format, "файл не содержит данных")
	}

	layout, err := discoverLayout(rows)
	if err != nil {
		return models.Failed(fileName, format, err.Error())
	}
	return layout.decode(fileName, format, rows)
}

func allBlank(rows [][]Cell) bool {
	for _, r := range rows {
		if !isBlankRow(r) {
			return false
		}
	}
	return true
}

// sheetLayout decodes the rows of one recognised sheet shape.
type sheetLayout interface {
	decode(fileName string, format models.FileFormat, rows [][]Cell) models.ParsedFileData
}

// discoverLayout looks for the vendor header anywhere in the sheet and
// falls back to the generic layout with row 0 as header.
func discoverLayout(rows [][]Cell) (sheetLayout, error) {
	for i, row := range rows {
		if v, ok := matchVendorHeader(row); ok {
			v.headerRow = i
			return v, nil
		}
	}
	return resolveGenericColumns(rows[0])
}

// normHeader lowercases and trims a header cell for keyword matching.
func normHeader(c Cell) string {
	return strings.ToLower(strings.TrimSpace(c.String()))
}

// ---------------------------------------------------------------------------
// Vendor layout
// ---------------------------------------------------------------------------

type vendorLayout struct {
	headerRow int
	idCol     int
	timeCol   int
	tempCol   int
	humCol    int
}

func matchVendorHeader(row []Cell) (*vendorLayout, bool) {
	v := &vendorLayout{idCol: -1, timeCol: -1, tempCol: -1, humCol: -1}
	for j, c := range row {
		h := normHeader(c)
		switch {
		case h == "":
		case h == "id" && v.idCol < 0:
			v.idCol = j
		case strings.Contains(h, "дата") && strings.Contains(h, "время") && v.timeCol < 0:
			v.timeCol = j
		case strings.Contains(h, "температура") && v.tempCol < 0:
			v.tempCol = j
		case strings.Contains(h, "влажность") && v.humCol < 0:
			v.humCol = j
		}
	}
	return v, v.idCol >= 0 && v.timeCol >= 0 && v.tempCol >= 0
}

// vendorLabels maps metadata labels to property keys.
var vendorLabels = []struct {
	label string
	key   string
}{
	{"название прибора", "deviceName"},
	{"серийный номер", "serialNumber"},
	{"время запуска", "startTime"},
	{"время окончания", "endTime"},
	{"каналы измерения", "channels"},
	{"измеренные значения", "measuredValues"},
}

// serialSuffix extracts a serial number written after the device name,
// e.g. "EClerk-M-RHT № 12345".
var serialSuffix = regexp.MustCompile(`(?i)(?:^|\s)(?:№|#|s/n|sn)\s*[:.]?\s*([0-9A-Za-z-]*\d[0-9A-Za-z-]*)\s*$`)

func (v *vendorLayout) decode(fileName string, format models.FileFormat, rows [][]Cell) models.ParsedFileData {
	props := extractVendorProperties(rows[:v.headerRow])
	meta := vendorDeviceMetadata(props, v.humCol >= 0)

	var records []models.MeasurementRecord
	var skipped []models.RowIssue

	for i := v.headerRow + 1; i < len(rows); i++ {
		row := rows[i]
		if cellAt(row, v.idCol).IsEmpty() {
			continue
		}

		ts, err := cellTime(cellAt(row, v.timeCol))
		if err != nil {
			slog.Debug("vendor row skipped", "file", fileName, "row", i+1, "error", err)
			skipped = append(skipped, models.RowIssue{Row: i + 1, Reason: fmt.Sprintf("не удалось разобрать дату: %v", err)})
			continue
		}

		rec := models.MeasurementRecord{
			Timestamp:   ts,
			Temperature: cellNumber(cellAt(row, v.tempCol)),
		}
		if v.humCol >= 0 {
			rec.Humidity = cellNumber(cellAt(row, v.humCol))
		}
		records = append(records, Validate(rec))
	}

	if len(records) == 0 {
		return models.Failed(fileName, format, "не удалось извлечь измерения из файла")
	}
	return models.Completed(fileName, format, models.LayoutVendor, meta, props, records, skipped)
}

// extractVendorProperties scans the rows above the header for known
// labels; the value is the first non-empty cell to the right of the label.
func extractVendorProperties(rows [][]Cell) map[string]string {
	props := make(map[string]string)
	for _, row := range rows {
		for j, c := range row {
			h := strings.TrimRight(normHeader(c), ": ")
			if h == "" {
				continue
			}
			for _, l := range vendorLabels {
				if _, seen := props[l.key]; seen || !strings.HasPrefix(h, l.label) {
					continue
				}
				if val := firstValueAfter(row, j); val != "" {
					props[l.key] = val
				}
			}
		}
	}
	return props
}

func firstValueAfter(row []Cell, col int) string {
	for k := col + 1; k < len(row); k++ {
		if !row[k].IsEmpty() {
			return strings.TrimSpace(row[k].String())
		}
	}
	return ""
}

func vendorDeviceMetadata(props map[string]string, hasHumidity bool) models.DeviceMetadata {
	meta := models.DeviceMetadata{
		DeviceType:   DeviceTypeTemperature,
		DeviceModel:  props["deviceName"],
		SerialNumber: props["serialNumber"],
	}
	if hasHumidity || strings.Contains(strings.ToLower(props["channels"]), "влажн") {
		meta.DeviceType = DeviceTypeTempAndHumidity
	}
	if meta.SerialNumber == "" && meta.DeviceModel != "" {
		if m := serialSuffix.FindStringSubmatchIndex(meta.DeviceModel); m != nil {
			meta.SerialNumber = meta.DeviceModel[m[2]:m[3]]
			meta.DeviceModel = strings.TrimSpace(meta.DeviceModel[:m[0]])
		}
	}
	return meta
}

// ---------------------------------------------------------------------------
// Generic layout
// ---------------------------------------------------------------------------

type genericLayout struct {
	timestampCol int
	dateCol      int
	timeCol      int
	tempCol      int
	humCol       int
}

var (
	timeWords = []string{"время", "time", "timestamp"}
	dateWords = []string{"дата", "date"}
	tempWords = []string{"температура", "temp", "°c", "°с"}
	humWords  = []string{"влажность", "humidity", "rh", "%"}
)

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func resolveGenericColumns(header []Cell) (*genericLayout, error) {
	g := &genericLayout{timestampCol: -1, dateCol: -1, timeCol: -1, tempCol: -1, humCol: -1}

	for j, c := range header {
		h := normHeader(c)
		if h == "" {
			continue
		}
		hasTime := containsAny(h, timeWords)
		hasDate := containsAny(h, dateWords)
		switch {
		case hasTime && hasDate, strings.Contains(h, "timestamp"):
			if g.timestampCol < 0 {
				g.timestampCol = j
			}
		case hasTime:
			if g.timeCol < 0 {
				g.timeCol = j
			}
		case hasDate:
			if g.dateCol < 0 {
				g.dateCol = j
			}
		case containsAny(h, tempWords):
			if g.tempCol < 0 {
				g.tempCol = j
			}
		case containsAny(h, humWords):
			if g.humCol < 0 {
				g.humCol = j
			}
		}
	}

	// A lone date or time column carries the full timestamp.
	if g.timestampCol < 0 {
		switch {
		case g.dateCol >= 0 && g.timeCol < 0:
			g.timestampCol, g.dateCol = g.dateCol, -1
		case g.timeCol >= 0 && g.dateCol < 0:
			g.timestampCol, g.timeCol = g.timeCol, -1
		}
	}

	if g.timestampCol < 0 && g.dateCol < 0 {
		return nil, fmt.Errorf("не найден столбец с датой/временем (ожидается заголовок, содержащий «время», «дата», «time» или «date»)")
	}
	if g.tempCol < 0 {
		return nil, fmt.Errorf("не найден столбец «температура» (ожидается заголовок, содержащий «температура», «temp» или «°C»)")
	}
	return g, nil
}

func (g *genericLayout) timestamp(row []Cell) (models.MeasurementRecord, error) {
	if g.timestampCol >= 0 {
		ts, err := cellTime(cellAt(row, g.timestampCol))
		return models.MeasurementRecord{Timestamp: ts}, err
	}

	day, err := cellTime(cellAt(row, g.dateCol))
	if err != nil {
		return models.MeasurementRecord{}, err
	}
	day = day.Truncate(24 * time.Hour)
	tc := cellAt(row, g.timeCol)
	if tc.IsEmpty() {
		return models.MeasurementRecord{Timestamp: day}, nil
	}
	clock, err := timeOfDay(tc)
	if err != nil {
		return models.MeasurementRecord{}, err
	}
	return models.MeasurementRecord{Timestamp: day.Add(clock)}, nil
}

func (g *genericLayout) decode(fileName string, format models.FileFormat, rows [][]Cell) models.ParsedFileData {
	var records []models.MeasurementRecord
	var skipped []models.RowIssue

	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isBlankRow(row) {
			continue
		}

		rec, err := g.timestamp(row)
		if err != nil {
			slog.Debug("generic row skipped", "file", fileName, "row", i+1, "error", err)
			skipped = append(skipped, models.RowIssue{Row: i + 1, Reason: fmt.Sprintf("не удалось разобрать дату: %v", err)})
			continue
		}
		rec.Temperature = cellNumber(cellAt(row, g.tempCol))
		if g.humCol >= 0 {
			rec.Humidity = cellNumber(cellAt(row, g.humCol))
		}
		records = append(records, Validate(rec))
	}

	meta := models.DeviceMetadata{DeviceType: DeviceTypeTemperature}
	if g.humCol >= 0 {
		meta.DeviceType = DeviceTypeTempAndHumidity
	}
	return models.Completed(fileName, format, models.LayoutGeneric, meta, nil, records, skipped)
}
