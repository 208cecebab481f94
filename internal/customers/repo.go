package customers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/miifit/backend/internal/telemetry/tracing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrCustomerNotFound = errors.New("customer not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, customer Customer) (_ *Customer, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.customers.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	customer.ID = uuid.NewString()
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = time.Now()
	}

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO customer
				(id, name, age, height_cm, weight_kg, favorite_food, completion_date, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`,
		customer.ID, customer.Name, customer.Age, customer.HeightCm,
		customer.WeightKg, customer.FavoriteFood, customer.CompletionDate, customer.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert customer: %w", err)
	}

	span.SetAttributes(attribute.String("customer.id", customer.ID))
	return &customer, nil
}

func (r *Repo) Get(ctx context.Context, id string) (_ *Customer, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.customers.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", id))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, name, age, height_cm, weight_kg, favorite_food, completion_date, created_at
			FROM customer WHERE id = $1;`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	customers, err := rows2customers(rows)
	if err != nil {
		return nil, err
	}

	if len(customers) != 1 {
		return nil, ErrCustomerNotFound
	}

	return &customers[0], nil
}

func (r *Repo) List(ctx context.Context) (_ []Customer, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.customers.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, name, age, height_cm, weight_kg, favorite_food, completion_date, created_at
			FROM customer ORDER BY created_at DESC;`,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return rows2customers(rows)
}

func (r *Repo) Update(ctx context.Context, customer *Customer) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.customers.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", customer.ID))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE customer SET
				name = $1, age = $2, height_cm = $3, weight_kg = $4,
				favorite_food = $5, completion_date = $6
			WHERE id = $7;`,
		customer.Name, customer.Age, customer.HeightCm, customer.WeightKg,
		customer.FavoriteFood, customer.CompletionDate, customer.ID,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrCustomerNotFound
	}

	return nil
}

// Delete removes the customer together with all dependent records,
// in a single transaction.
func (r *Repo) Delete(ctx context.Context, id string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.customers.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", id))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	for _, table := range []string{"weight_record", "training_session", "meal_record", "nutrition_goal"} {
		if _, err = tx.Exec(
			ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE customer_id = $1;`, table),
			id,
		); err != nil {
			return fmt.Errorf("delete from %s: %w", table, err)
		}
	}

	tag, err := tx.Exec(ctx, `DELETE FROM customer WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		err = ErrCustomerNotFound
		return err
	}

	return tx.Commit(ctx)
}

func rows2customers(rows pgx.Rows) ([]Customer, error) {
	var customers []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Age, &c.HeightCm, &c.WeightKg,
			&c.FavoriteFood, &c.CompletionDate, &c.CreatedAt,
		); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}

	if customers == nil {
		customers = make([]Customer, 0)
	}

	return customers, nil
}
