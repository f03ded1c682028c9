package parser

// workbook.go reads the first worksheet of a spreadsheet into a grid of
// typed cells. The container is sniffed from the leading bytes rather than
// trusted from the extension, because exports are often renamed.

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/thermomap/internal/models"
)

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

	errNoWorksheet = errors.New("workbook has no worksheets")
)

// CellKind tags the value held by a Cell.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
	CellTime
)

// Cell is one spreadsheet value.
type Cell struct {
	Kind CellKind
	Text string // original text, trimmed
	Num  float64
	Time time.Time
}

// String returns the text form of the cell.
func (c Cell) String() string {
	switch c.Kind {
	case CellNumber:
		if c.Text != "" {
			return c.Text
		}
		return formatNumber(c.Num)
	case CellTime:
		return c.Time.Format("2006-01-02 15:04:05")
	default:
		return c.Text
	}
}

// IsEmpty reports whether the cell holds no value.
func (c Cell) IsEmpty() bool {
	return c.Kind == CellEmpty
}

// TextCell classifies a raw string. Plain dot-decimal numbers become
// CellNumber; everything else stays text for the column-specific parsers.
func TextCell(raw string) Cell {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Cell{}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Cell{Kind: CellNumber, Text: s, Num: f}
	}
	return Cell{Kind: CellText, Text: s}
}

// TimeCell wraps a native date value.
func TimeCell(t time.Time) Cell {
	return Cell{Kind: CellTime, Time: t}
}

// cellAt returns the cell at col, or an empty cell when out of range.
func cellAt(row []Cell, col int) Cell {
	if col < 0 || col >= len(row) {
		return Cell{}
	}
	return row[col]
}

func isBlankRow(row []Cell) bool {
	for _, c := range row {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

// readWorkbook returns the rows of the first worksheet and the detected format.
func readWorkbook(fileName string, data []byte) ([][]Cell, models.FileFormat, error) {
	switch {
	case bytes.HasPrefix(data, zipMagic):
		rows, err := readXLSX(data)
		return rows, models.FormatXLSX, err
	case bytes.HasPrefix(data, oleMagic):
		rows, err := readXLS(data)
		return rows, models.FormatXLS, err
	case len(data) == 0:
		return nil, formatFromName(fileName), errors.New("empty file")
	default:
		return nil, formatFromName(fileName), fmt.Errorf("not an Excel workbook")
	}
}

func formatFromName(fileName string) models.FileFormat {
	if strings.HasSuffix(strings.ToLower(fileName), ".xlsx") {
		return models.FormatXLSX
	}
	return models.FormatXLS
}

func readXLSX(data []byte) ([][]Cell, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errNoWorksheet
	}

	// Raw values keep date cells as serial numbers instead of
	// locale-formatted strings.
	raw, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	rows := make([][]Cell, len(raw))
	for i, r := range raw {
		cells := make([]Cell, len(r))
		for j, v := range r {
			cells[j] = TextCell(v)
		}
		rows[i] = cells
	}
	return rows, nil
}

// xlsMaxCols is the BIFF8 column limit.
const xlsMaxCols = 256

func readXLS(data []byte) ([][]Cell, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}
	if wb == nil {
		return nil, errors.New("open xls: no Workbook stream")
	}
	if wb.NumSheets() == 0 {
		return nil, errNoWorksheet
	}

	// Cells with a built-in date format render as "YYYY.MM" and lose the
	// day. With the general format they render as serial numbers.
	for _, xf := range wb.Xfs {
		switch x := xf.(type) {
		case *xls.Xf8:
			x.Format = 0
		case *xls.Xf5:
			x.Format = 0
		}
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, errNoWorksheet
	}

	rows := make([][]Cell, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		rows = append(rows, xlsRowCells(sheet, i))
	}
	return rows, nil
}

// xlsRowCells returns row i of sheet, or nil when the row is absent.
// WorkSheet.Row panics on rows the file never wrote.
func xlsRowCells(sheet *xls.WorkSheet, i int) (cells []Cell) {
	defer func() {
		if recover() != nil {
			cells = nil
		}
	}()

	row := sheet.Row(i)
	if row == nil {
		return nil
	}
	last := row.LastCol()
	if last <= 0 {
		// Writers that skip ROW records leave the extent at zero.
		last = xlsMaxCols
	}
	cells = make([]Cell, last)
	width := 0
	for j := 0; j < last; j++ {
		if cells[j] = TextCell(row.Col(j)); !cells[j].IsEmpty() {
			width = j + 1
		}
	}
	return cells[:width]
}
