package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type CopyLoggerDataParams struct {
	SummaryID        pgtype.UUID
	Timestamp        pgtype.Timestamp
	Temperature      pgtype.Float8
	Humidity         pgtype.Float8
	IsValid          bool
	ValidationErrors []string
}

// iteratorForCopyLoggerData implements pgx.CopyFromSource.
type iteratorForCopyLoggerData struct {
	rows                 []CopyLoggerDataParams
	skippedFirstNextCall bool
}

func (r *iteratorForCopyLoggerData) Next() bool {
	if len(r.rows) == 0 {
		return false
	}
	if !r.skippedFirstNextCall {
		r.skippedFirstNextCall = true
		return true
	}
	r.rows = r.rows[1:]
	return len(r.rows) > 0
}

func (r iteratorForCopyLoggerData) Values() ([]interface{}, error) {
	return []interface{}{
		r.rows[0].SummaryID,
		r.rows[0].Timestamp,
		r.rows[0].Temperature,
		r.rows[0].Humidity,
		r.rows[0].IsValid,
		r.rows[0].ValidationErrors,
	}, nil
}

func (r iteratorForCopyLoggerData) Err() error {
	return nil
}

// CopyLoggerData writes one batch of detail rows with the COPY protocol.
func (q *Queries) CopyLoggerData(ctx context.Context, arg []CopyLoggerDataParams) (int64, error) {
	return q.db.CopyFrom(ctx,
		pgx.Identifier{"logger_data"},
		[]string{"summary_id", "timestamp", "temperature", "humidity", "is_valid", "validation_errors"},
		&iteratorForCopyLoggerData{rows: arg},
	)
}
