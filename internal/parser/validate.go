package parser

import (
	"fmt"

	"github.com/JonMunkholm/thermomap/internal/models"
)

// Accepted measurement ranges, inclusive.
const (
	MinTemperature = -50.0
	MaxTemperature = 100.0
	MinHumidity    = 0.0
	MaxHumidity    = 100.0
)

// Validate flags out-of-range or missing values. The record is returned
// with IsValid and ValidationErrors set; it is never dropped.
func Validate(rec models.MeasurementRecord) models.MeasurementRecord {
	var errs []string

	switch {
	case rec.Temperature == nil:
		errs = append(errs, "температура отсутствует или не является числом")
	case *rec.Temperature < MinTemperature || *rec.Temperature > MaxTemperature:
		errs = append(errs, fmt.Sprintf("температура %s°C вне допустимого диапазона [%s, %s]",
			formatNumber(*rec.Temperature), formatNumber(MinTemperature), formatNumber(MaxTemperature)))
	}

	if rec.Humidity != nil && (*rec.Humidity < MinHumidity || *rec.Humidity > MaxHumidity) {
		errs = append(errs, fmt.Sprintf("влажность %s%% вне допустимого диапазона [%s, %s]",
			formatNumber(*rec.Humidity), formatNumber(MinHumidity), formatNumber(MaxHumidity)))
	}

	rec.IsValid = len(errs) == 0
	rec.ValidationErrors = errs
	return rec
}
