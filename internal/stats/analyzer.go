package stats

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/miifit/backend/internal/meals"
	"github.com/miifit/backend/internal/telemetry/tracing"
	"github.com/miifit/backend/internal/training"
	"github.com/miifit/backend/internal/weights"
	"github.com/miifit/backend/pkg"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

type trainingRepo interface {
	List(ctx context.Context, params training.ListParams) ([]training.Session, error)
}

type weightsRepo interface {
	List(ctx context.Context, params weights.ListParams) ([]weights.Record, error)
}

type mealsRepo interface {
	List(ctx context.Context, params meals.ListParams) ([]meals.Record, error)
	GetGoal(ctx context.Context, customerID string) (*meals.Goal, error)
}

// Overview is the customer stats page in one payload.
type Overview struct {
	CustomerID             string  `json:"customerId"`
	TotalSessions          int     `json:"totalSessions"`
	ActiveDays             int     `json:"activeDays"`
	AverageWeeklyFrequency float64 `json:"averageWeeklyFrequency"`
	TotalVolume            float64 `json:"totalVolume"`
	AverageDailyCalories   int     `json:"averageDailyCalories"`
	AverageDailyProtein    int     `json:"averageDailyProtein"`
	CalorieAchievementRate int     `json:"calorieAchievementRate"`
	ProteinAchievementRate int     `json:"proteinAchievementRate"`
	CurrentWeightKg        float64 `json:"currentWeightKg"`
	WeightChangeKg         float64 `json:"weightChangeKg"`
}

// Analyzer computes customer statistics and chart series from the raw
// repos. Everything here is derived on demand, nothing is persisted.
type Analyzer struct {
	trainingRepo trainingRepo
	weightsRepo  weightsRepo
	mealsRepo    mealsRepo

	// NowFunc can be swapped in tests to pin the stats window
	NowFunc func() time.Time
}

func NewAnalyzer(trainingRepo trainingRepo, weightsRepo weightsRepo, mealsRepo mealsRepo) *Analyzer {
	return &Analyzer{
		trainingRepo: trainingRepo,
		weightsRepo:  weightsRepo,
		mealsRepo:    mealsRepo,
		NowFunc:      time.Now,
	}
}

// Overview covers the last windowDays calendar days, today included.
// Records outside that window never enter the statistics.
func (a *Analyzer) Overview(ctx context.Context, customerID string, windowDays int) (_ *Overview, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "stats.analyzer.overview")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("customer.id", customerID),
		attribute.Int("window.days", windowDays),
	)

	if windowDays <= 0 {
		return nil, &ConfigurationError{Reason: "window must be positive"}
	}

	sessions, err := a.trainingRepo.List(ctx, training.ListParams{CustomerID: customerID})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	weightRecords, err := a.weightsRepo.List(ctx, weights.ListParams{CustomerID: customerID})
	if err != nil {
		return nil, fmt.Errorf("list weight records: %w", err)
	}
	mealRecords, err := a.mealsRepo.List(ctx, meals.ListParams{CustomerID: customerID})
	if err != nil {
		return nil, fmt.Errorf("list meal records: %w", err)
	}

	windowStart := pkg.DayKey(a.NowFunc().AddDate(0, 0, -(windowDays - 1)))
	sessions, sessionsErr := sessionsInWindow(sessions, windowStart)
	warnOnValidationErr(customerID, "sessions", sessionsErr)
	weightRecords, weightsErr := weightsInWindow(weightRecords, windowStart)
	warnOnValidationErr(customerID, "weight records", weightsErr)
	mealRecords, mealsErr := mealsInWindow(mealRecords, windowStart)
	warnOnValidationErr(customerID, "meal records", mealsErr)

	overview := &Overview{
		CustomerID:    customerID,
		TotalSessions: len(sessions),
		TotalVolume:   TotalTrainingVolume(sessions),
	}

	weeklyFreq, err := AverageWeeklyFrequency(sessions, windowDays)
	if err != nil {
		return nil, err
	}
	overview.AverageWeeklyFrequency = weeklyFreq

	dailyVolume, volErr := DailyVolume(sessions)
	warnOnValidationErr(customerID, "training volume", volErr)
	overview.ActiveDays = len(dailyVolume)

	avgCalories, calErr := AverageDailyNutrient(mealRecords, NutrientCalories)
	warnOnValidationErr(customerID, "calories", calErr)
	overview.AverageDailyCalories = avgCalories

	avgProtein, protErr := AverageDailyNutrient(mealRecords, NutrientProtein)
	warnOnValidationErr(customerID, "protein", protErr)
	overview.AverageDailyProtein = avgProtein

	goal, err := a.mealsRepo.GetGoal(ctx, customerID)
	switch {
	case err == nil:
		overview.CalorieAchievementRate = AchievementRate(float64(avgCalories), goal.TargetCalories)
		overview.ProteinAchievementRate = AchievementRate(float64(avgProtein), goal.TargetProtein)
	case errors.Is(err, meals.ErrGoalNotFound):
		// no goal set, rates stay 0
		err = nil
	default:
		return nil, fmt.Errorf("get nutrition goal: %w", err)
	}

	dailyWeight, weightErr := DailyWeight(weightRecords)
	warnOnValidationErr(customerID, "weight", weightErr)
	if len(dailyWeight) > 0 {
		var first, last WeightPoint
		for date, weightKg := range SortedByDate(dailyWeight) {
			if first.Date == "" {
				first = WeightPoint{Date: date, WeightKg: weightKg}
			}
			last = WeightPoint{Date: date, WeightKg: weightKg}
		}
		overview.CurrentWeightKg = last.WeightKg
		overview.WeightChangeKg = last.WeightKg - first.WeightKg
	}

	return overview, nil
}

func (a *Analyzer) WeightSeries(ctx context.Context, customerID string) (_ []WeightPoint, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "stats.analyzer.weightSeries")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("customer.id", customerID))

	records, err := a.weightsRepo.List(ctx, weights.ListParams{CustomerID: customerID})
	if err != nil {
		return nil, fmt.Errorf("list weight records: %w", err)
	}

	series, seriesErr := WeightSeries(records)
	warnOnValidationErr(customerID, "weight series", seriesErr)
	return series, nil
}

func (a *Analyzer) NutritionSeries(ctx context.Context, customerID string) (_ []NutritionPoint, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "stats.analyzer.nutritionSeries")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("customer.id", customerID))

	records, err := a.mealsRepo.List(ctx, meals.ListParams{CustomerID: customerID})
	if err != nil {
		return nil, fmt.Errorf("list meal records: %w", err)
	}

	series, seriesErr := NutritionSeries(records)
	warnOnValidationErr(customerID, "nutrition series", seriesErr)
	return series, nil
}

func (a *Analyzer) VolumeSeries(ctx context.Context, customerID string) (_ []VolumePoint, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "stats.analyzer.volumeSeries")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("customer.id", customerID))

	sessions, err := a.trainingRepo.List(ctx, training.ListParams{CustomerID: customerID})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	series, seriesErr := VolumeSeries(sessions)
	warnOnValidationErr(customerID, "volume series", seriesErr)
	return series, nil
}

func (a *Analyzer) SessionGroups(ctx context.Context, customerID string, limit int) (_ []DayGroup, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "stats.analyzer.sessionGroups")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("customer.id", customerID))

	sessions, err := a.trainingRepo.List(ctx, training.ListParams{CustomerID: customerID, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	return GroupSessionsByDate(sessions), nil
}

func (a *Analyzer) ExerciseGroups(ctx context.Context, customerID string, limit int) (_ []ExerciseGroup, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "stats.analyzer.exerciseGroups")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("customer.id", customerID))

	sessions, err := a.trainingRepo.List(ctx, training.ListParams{CustomerID: customerID, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	return GroupExercisesByName(sessions), nil
}

// invalid records are kept out of the stats but never fail the request
func warnOnValidationErr(customerID, what string, err error) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		log.Warnf("customer %s: %s stats skipped records: %v", customerID, what, ve.RecordIDs)
	}
}

func sessionsInWindow(sessions []training.Session, fromDate string) ([]training.Session, error) {
	kept := make([]training.Session, 0, len(sessions))
	invalid := newValidationError()

	for _, session := range sessions {
		if session.Date == "" {
			invalid.add(session.ID, "missing date")
			continue
		}
		if session.Date >= fromDate {
			kept = append(kept, session)
		}
	}
	return kept, invalid.orNil()
}

func weightsInWindow(records []weights.Record, fromDate string) ([]weights.Record, error) {
	kept := make([]weights.Record, 0, len(records))
	invalid := newValidationError()

	for _, rec := range records {
		if rec.RecordedAt.IsZero() {
			invalid.add(strconv.Itoa(rec.ID), "missing record time")
			continue
		}
		if pkg.DayKey(rec.RecordedAt) >= fromDate {
			kept = append(kept, rec)
		}
	}
	return kept, invalid.orNil()
}

func mealsInWindow(records []meals.Record, fromDate string) ([]meals.Record, error) {
	kept := make([]meals.Record, 0, len(records))
	invalid := newValidationError()

	for _, rec := range records {
		if rec.EatenAt.IsZero() {
			invalid.add(strconv.Itoa(rec.ID), "missing meal time")
			continue
		}
		if pkg.DayKey(rec.EatenAt) >= fromDate {
			kept = append(kept, rec)
		}
	}
	return kept, invalid.orNil()
}
