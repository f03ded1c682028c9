// Package templates renders the HTML fragments requested by HTMX.
package templates

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/thermomap/internal/models"
)

const timeLayout = "02.01.2006 15:04"

// storageLabels are the status badges shown to operators.
var storageLabels = map[models.StorageStatus]string{
	models.StoragePending: "сохраняется",
	models.StorageStored:  "сохранён",
	models.StorageFailed:  "ошибка сохранения",
	models.StorageSkipped: "не сохранён",
}

func storageLabel(s models.StorageStatus) string {
	if l, ok := storageLabels[s]; ok {
		return l
	}
	return string(s)
}

func formatTime(t time.Time) string {
	return t.Format(timeLayout)
}

func writeEscaped(w io.Writer, s string) error {
	_, err := io.WriteString(w, templ.EscapeString(s))
	return err
}

// ErrorAlert renders an inline alert with the user message and error code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<div class="alert alert-error" role="alert"><strong>`); err != nil {
			return err
		}
		if err := writeEscaped(w, message); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `</strong>`); err != nil {
			return err
		}
		if action != "" {
			if _, err := io.WriteString(w, ` <span>`); err != nil {
				return err
			}
			if err := writeEscaped(w, action); err != nil {
				return err
			}
			if _, err := io.WriteString(w, `</span>`); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintf(w, ` <code>%s</code></div>`, templ.EscapeString(code))
		return err
	})
}

// UploadStatusTable renders one row per uploaded logger file.
func UploadStatusTable(summaries []models.LoggerDataSummary) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if len(summaries) == 0 {
			_, err := io.WriteString(w, `<p class="empty">Файлы логгеров ещё не загружены</p>`)
			return err
		}

		if _, err := io.WriteString(w, `<table class="upload-status"><thead><tr>`+
			`<th>Файл</th><th>Зона</th><th>Уровень</th><th>Логгер</th><th>Серийный номер</th>`+
			`<th>Период</th><th>Записей</th><th>Статус</th></tr></thead><tbody>`); err != nil {
			return err
		}

		for _, s := range summaries {
			period := ""
			if s.StartDate != nil && s.EndDate != nil {
				period = formatTime(*s.StartDate) + " – " + formatTime(*s.EndDate)
			}
			status := storageLabel(s.StorageStatus)
			class := "status-" + string(s.StorageStatus)
			if s.ParsingStatus == models.StatusError {
				status = s.ErrorMessage
				class = "status-error"
			}

			cells := []string{
				s.FileName,
				strconv.Itoa(s.Placement.ZoneNumber),
				s.Placement.MeasurementLevel,
				s.Placement.LoggerName,
				s.DeviceMetadata.SerialNumber,
				period,
				strconv.Itoa(s.RecordCount),
			}
			if _, err := fmt.Fprintf(w, `<tr id="summary-%s">`, s.ID); err != nil {
				return err
			}
			for _, c := range cells {
				if _, err := io.WriteString(w, "<td>"); err != nil {
					return err
				}
				if err := writeEscaped(w, c); err != nil {
					return err
				}
				if _, err := io.WriteString(w, "</td>"); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(w, `<td class="%s">`, templ.EscapeString(class)); err != nil {
				return err
			}
			if err := writeEscaped(w, status); err != nil {
				return err
			}
			if _, err := io.WriteString(w, "</td></tr>"); err != nil {
				return err
			}
		}

		_, err := io.WriteString(w, `</tbody></table>`)
		return err
	})
}
