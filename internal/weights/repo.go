package weights

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/miifit/backend/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrRecordNotFound = errors.New("weight record not found")

type ListParams struct {
	CustomerID string
	// Limit caps the result to the most recent N records. Zero means no cap.
	Limit int
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, record Record) (_ *Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.weights.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("customer.id", record.CustomerID))

	if record.RecordedAt.IsZero() {
		record.RecordedAt = time.Now()
	}

	rows, err := r.db.Query(
		ctx,
		`INSERT INTO weight_record (customer_id, weight_kg, recorded_at, note)
			VALUES ($1, $2, $3, $4) RETURNING id;`,
		record.CustomerID, record.WeightKg, record.RecordedAt, record.Note,
	)
	if err != nil {
		return nil, fmt.Errorf("insert weight record: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, errors.New("unexpected error, failed to insert weight record")
	}
	if err := rows.Scan(&record.ID); err != nil {
		return nil, fmt.Errorf("scan weight record id: %w", err)
	}

	return &record, nil
}

// List returns records for a customer, newest first.
func (r *Repo) List(ctx context.Context, params ListParams) (_ []Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.weights.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("customer.id", params.CustomerID),
		attribute.Int("limit", params.Limit),
	)

	query := `SELECT id, customer_id, weight_kg, recorded_at, note
		FROM weight_record WHERE customer_id = $1 ORDER BY recorded_at DESC`
	args := []any{params.CustomerID}
	if params.Limit > 0 {
		query += ` LIMIT $2`
		args = append(args, params.Limit)
	}

	rows, err := r.db.Query(ctx, query+";", args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return rows2records(rows)
}

func (r *Repo) Delete(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.weights.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(ctx, `DELETE FROM weight_record WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}

	return nil
}

func rows2records(rows pgx.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.CustomerID, &rec.WeightKg, &rec.RecordedAt, &rec.Note); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if records == nil {
		records = make([]Record, 0)
	}

	return records, nil
}
