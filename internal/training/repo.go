package training

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/miifit/backend/internal/telemetry/tracing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrSessionNotFound = errors.New("training session not found")

type ListParams struct {
	CustomerID string
	// Limit caps the result to the most recent N sessions. Zero means no cap.
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

func (r *Repo) Add(ctx context.Context, session Session) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("customer.id", session.CustomerID))

	session.ID = uuid.NewString()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	if session.Exercises == nil {
		session.Exercises = make([]Exercise, 0)
	}

	exercisesJson, err := json.Marshal(session.Exercises)
	if err != nil {
		return nil, fmt.Errorf("marshal exercises: %w", err)
	}

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO training_session
				(id, customer_id, session_date, exercises, notes, duration_minutes, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7);`,
		session.ID, session.CustomerID, session.Date, exercisesJson,
		session.Notes, session.DurationMinutes, session.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert training session: %w", err)
	}

	span.SetAttributes(attribute.String("session.id", session.ID))
	return &session, nil
}

func (r *Repo) Get(ctx context.Context, id string) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", id))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, customer_id, session_date, exercises, notes, duration_minutes, created_at
			FROM training_session WHERE id = $1;`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	sessions, err := rows2sessions(rows)
	if err != nil {
		return nil, err
	}

	if len(sessions) != 1 {
		return nil, ErrSessionNotFound
	}

	return &sessions[0], nil
}

// List returns sessions for a customer, newest session date first.
func (r *Repo) List(ctx context.Context, params ListParams) (_ []Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("customer.id", params.CustomerID),
		attribute.Int("limit", params.Limit),
	)

	query := `SELECT id, customer_id, session_date, exercises, notes, duration_minutes, created_at
		FROM training_session WHERE customer_id = $1
		ORDER BY session_date DESC, created_at DESC`
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

	return rows2sessions(rows)
}

func (r *Repo) Update(ctx context.Context, session *Session) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", session.ID))

	exercisesJson, err := json.Marshal(session.Exercises)
	if err != nil {
		return fmt.Errorf("marshal exercises: %w", err)
	}

	tag, err := r.db.Exec(
		ctx,
		`UPDATE training_session SET
				session_date = $1, exercises = $2, notes = $3, duration_minutes = $4
			WHERE id = $5;`,
		session.Date, exercisesJson, session.Notes, session.DurationMinutes, session.ID,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}

	return nil
}

func (r *Repo) Delete(ctx context.Context, id string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", id))

	tag, err := r.db.Exec(ctx, `DELETE FROM training_session WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}

	return nil
}

func (r *Repo) ListPresets(ctx context.Context) (_ []Preset, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.listPresets")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, name, muscle_group FROM exercise_preset ORDER BY muscle_group, name;`,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	var presets []Preset
	for rows.Next() {
		var p Preset
		if err := rows.Scan(&p.ID, &p.Name, &p.MuscleGroup); err != nil {
			return nil, err
		}
		presets = append(presets, p)
	}

	if presets == nil {
		presets = make([]Preset, 0)
	}

	return presets, nil
}

func rows2sessions(rows pgx.Rows) ([]Session, error) {
	var sessions []Session
	for rows.Next() {
		var s Session
		var exercisesJson []byte
		if err := rows.Scan(
			&s.ID, &s.CustomerID, &s.Date, &exercisesJson,
			&s.Notes, &s.DurationMinutes, &s.CreatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(exercisesJson, &s.Exercises); err != nil {
			return nil, fmt.Errorf("unmarshal exercises for session %s: %w", s.ID, err)
		}
		sessions = append(sessions, s)
	}

	if sessions == nil {
		sessions = make([]Session, 0)
	}

	return sessions, nil
}
