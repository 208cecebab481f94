package meals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/miifit/backend/internal/telemetry/tracing"
	"github.com/miifit/backend/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrRecordNotFound = errors.New("meal record not found")
	ErrGoalNotFound   = errors.New("nutrition goal not found")
)

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
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.meals.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("customer.id", record.CustomerID))

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	if record.Foods == nil {
		record.Foods = make([]FoodItem, 0)
	}
	record.ComputeTotals()

	foodsJson, err := json.Marshal(record.Foods)
	if err != nil {
		return nil, fmt.Errorf("marshal foods: %w", err)
	}

	rows, err := r.db.Query(
		ctx,
		`INSERT INTO meal_record
				(customer_id, meal_type, foods, total_calories, total_protein,
				 total_fat, total_carbs, notes, eaten_at, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id;`,
		record.CustomerID, record.MealType, foodsJson,
		record.TotalCalories, record.TotalProtein, record.TotalFat, record.TotalCarbs,
		record.Notes, record.EatenAt, record.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert meal record: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, errors.New("unexpected error, failed to insert meal record")
	}
	if err := rows.Scan(&record.ID); err != nil {
		return nil, fmt.Errorf("scan meal record id: %w", err)
	}

	return &record, nil
}

func (r *Repo) Get(ctx context.Context, id int) (_ *Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.meals.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, customer_id, meal_type, foods, total_calories, total_protein,
				total_fat, total_carbs, notes, eaten_at, created_at
			FROM meal_record WHERE id = $1;`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	records, err := rows2records(rows)
	if err != nil {
		return nil, err
	}

	if len(records) != 1 {
		return nil, ErrRecordNotFound
	}

	return &records[0], nil
}

// List returns meal records for a customer, newest first.
func (r *Repo) List(ctx context.Context, params ListParams) (_ []Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.meals.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("customer.id", params.CustomerID),
		attribute.Int("limit", params.Limit),
	)

	query := `SELECT id, customer_id, meal_type, foods, total_calories, total_protein,
			total_fat, total_carbs, notes, eaten_at, created_at
		FROM meal_record WHERE customer_id = $1 ORDER BY eaten_at DESC`
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

// ListForDate returns all records eaten on the given calendar date, oldest first.
func (r *Repo) ListForDate(ctx context.Context, customerID, date string) (_ []Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.meals.listForDate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("customer.id", customerID),
		attribute.String("date", date),
	)

	dayStart, err := time.Parse(pkg.DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("parse date: %w", err)
	}
	dayEnd := dayStart.Add(24 * time.Hour)

	rows, err := r.db.Query(
		ctx,
		`SELECT id, customer_id, meal_type, foods, total_calories, total_protein,
				total_fat, total_carbs, notes, eaten_at, created_at
			FROM meal_record
			WHERE customer_id = $1 AND eaten_at >= $2 AND eaten_at < $3
			ORDER BY eaten_at ASC;`,
		customerID, dayStart, dayEnd,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return rows2records(rows)
}

func (r *Repo) Update(ctx context.Context, record *Record) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.meals.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", record.ID))

	record.ComputeTotals()

	foodsJson, err := json.Marshal(record.Foods)
	if err != nil {
		return fmt.Errorf("marshal foods: %w", err)
	}

	tag, err := r.db.Exec(
		ctx,
		`UPDATE meal_record SET
				meal_type = $1, foods = $2, total_calories = $3, total_protein = $4,
				total_fat = $5, total_carbs = $6, notes = $7, eaten_at = $8
			WHERE id = $9;`,
		record.MealType, foodsJson, record.TotalCalories, record.TotalProtein,
		record.TotalFat, record.TotalCarbs, record.Notes, record.EatenAt, record.ID,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}

	return nil
}

func (r *Repo) Delete(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.meals.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(ctx, `DELETE FROM meal_record WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}

	return nil
}

func (r *Repo) GetGoal(ctx context.Context, customerID string) (_ *Goal, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.meals.getGoal")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("customer.id", customerID))

	var goal Goal
	err = r.db.QueryRow(
		ctx,
		`SELECT customer_id, target_calories, target_protein, target_fat, target_carbs
			FROM nutrition_goal WHERE customer_id = $1;`,
		customerID,
	).Scan(&goal.CustomerID, &goal.TargetCalories, &goal.TargetProtein, &goal.TargetFat, &goal.TargetCarbs)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGoalNotFound
		}
		return nil, err
	}

	return &goal, nil
}

// SetGoal creates or replaces the customer's nutrition goal.
func (r *Repo) SetGoal(ctx context.Context, goal Goal) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.meals.setGoal")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("customer.id", goal.CustomerID))

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO nutrition_goal
				(customer_id, target_calories, target_protein, target_fat, target_carbs)
				VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (customer_id) DO UPDATE SET
				target_calories = EXCLUDED.target_calories,
				target_protein = EXCLUDED.target_protein,
				target_fat = EXCLUDED.target_fat,
				target_carbs = EXCLUDED.target_carbs;`,
		goal.CustomerID, goal.TargetCalories, goal.TargetProtein, goal.TargetFat, goal.TargetCarbs,
	)
	if err != nil {
		return fmt.Errorf("upsert nutrition goal: %w", err)
	}

	return nil
}

func (r *Repo) ListFoodPresets(ctx context.Context) (_ []FoodItem, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.meals.listFoodPresets")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT name, calories, protein, fat, carbs FROM food_preset ORDER BY name;`,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	var presets []FoodItem
	for rows.Next() {
		var f FoodItem
		if err := rows.Scan(&f.Name, &f.Calories, &f.Protein, &f.Fat, &f.Carbs); err != nil {
			return nil, err
		}
		presets = append(presets, f)
	}

	if presets == nil {
		presets = make([]FoodItem, 0)
	}

	return presets, nil
}

func rows2records(rows pgx.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var rec Record
		var foodsJson []byte
		if err := rows.Scan(
			&rec.ID, &rec.CustomerID, &rec.MealType, &foodsJson,
			&rec.TotalCalories, &rec.TotalProtein, &rec.TotalFat, &rec.TotalCarbs,
			&rec.Notes, &rec.EatenAt, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(foodsJson, &rec.Foods); err != nil {
			return nil, fmt.Errorf("unmarshal foods for meal record %d: %w", rec.ID, err)
		}
		records = append(records, rec)
	}

	if records == nil {
		records = make([]Record, 0)
	}

	return records, nil
}
