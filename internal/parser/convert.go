package parser

// convert.go turns raw cell values into numbers and timestamps.
//
// Logger exports are produced by Russian-locale software, so numbers may
// use a decimal comma and dates are usually DD.MM.YYYY. Spreadsheets may
// also carry Excel serial dates. All timestamps are wall-clock values and
// are kept in UTC without zone conversion.

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDate is wrapped by ParseDateTime failures.
var ErrInvalidDate = errors.New("invalid date")

// ruDateTimeRegex matches DD.MM.YYYY with an optional HH:MM[:SS] part.
var ruDateTimeRegex = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{4})(?:[ T]+(\d{1,2}):(\d{2})(?::(\d{2}))?)?$`)

// fallbackLayouts are tried after the DD.MM.YYYY pattern, in order.
var fallbackLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"2006.01.02 15:04:05",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	"02.01.06 15:04:05",
	"02.01.06 15:04",
}

// excelEpoch is day zero of the 1900 date system (serial 1 = 1900-01-01).
var excelEpoch = time.Date(1899, time.December, 31, 0, 0, 0, 0, time.UTC)

// maxExcelSerial is 9999-12-31, the last date Excel can represent.
const maxExcelSerial = 2958465

// ParseNumber parses a decimal that may use a comma separator ("20,5").
// Returns false for empty or non-numeric input.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "").Replace(s)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ParseDateTime parses a timestamp string: DD.MM.YYYY[ HH:MM[:SS]] first,
// then the fallback layouts. Bare numbers are rejected; numeric cells go
// through ExcelSerialToTime instead.
func ParseDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidDate)
	}

	if m := ruDateTimeRegex.FindStringSubmatch(s); m != nil {
		return ruDateTime(m, s)
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

func ruDateTime(m []string, raw string) (time.Time, error) {
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	var hour, minute, sec int
	if m[4] != "" {
		hour, _ = strconv.Atoi(m[4])
		minute, _ = strconv.Atoi(m[5])
		if m[6] != "" {
			sec, _ = strconv.Atoi(m[6])
		}
	}
	if hour > 23 || minute > 59 || sec > 59 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}

	t := time.Date(year, time.Month(month), day, hour, minute, sec, 0, time.UTC)
	// time.Date normalises 31.02 to 03.03; reject instead.
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return t, nil
}

// ExcelSerialToTime converts an Excel 1900-system serial to a time.
// Excel treats 1900 as a leap year, so serials from 61 onwards are one day
// ahead of the real calendar; serial 60 (the phantom 29 Feb) maps to 1 Mar.
func ExcelSerialToTime(serial float64) (time.Time, error) {
	if math.IsNaN(serial) || serial <= 0 || serial >= maxExcelSerial+1 {
		return time.Time{}, fmt.Errorf("%w: serial %v out of range", ErrInvalidDate, serial)
	}
	days := math.Floor(serial)
	secs := math.Round((serial - days) * 86400)
	if days >= 61 {
		days--
	}
	return excelEpoch.AddDate(0, 0, int(days)).Add(time.Duration(secs) * time.Second), nil
}

// timeOfDay parses the clock part of a separate time column.
func timeOfDay(c Cell) (time.Duration, error) {
	switch c.Kind {
	case CellTime:
		h, m, s := c.Time.Clock()
		return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second, nil
	case CellNumber:
		frac := c.Num - math.Floor(c.Num)
		return time.Duration(math.Round(frac*86400)) * time.Second, nil
	case CellText:
		for _, layout := range []string{"15:04:05", "15:04", "3:04:05 PM"} {
			if t, err := time.Parse(layout, c.Text); err == nil {
				h, m, s := t.Clock()
				return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: time %q", ErrInvalidDate, c.String())
}

// cellTime interprets a cell as a timestamp.
func cellTime(c Cell) (time.Time, error) {
	switch c.Kind {
	case CellTime:
		return c.Time.UTC(), nil
	case CellNumber:
		return ExcelSerialToTime(c.Num)
	case CellText:
		return ParseDateTime(c.Text)
	default:
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidDate)
	}
}

// cellNumber interprets a cell as a float; nil when absent or not numeric.
func cellNumber(c Cell) *float64 {
	switch c.Kind {
	case CellNumber:
		v := c.Num
		return &v
	case CellText:
		if v, ok := ParseNumber(c.Text); ok {
			return &v
		}
	}
	return nil
}

// formatNumber renders a float without trailing zeros.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
