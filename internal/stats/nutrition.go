package stats

import (
	"fmt"
	"math"
	"strconv"

	"github.com/miifit/backend/internal/meals"
	"github.com/miifit/backend/pkg"
)

// NutrientTotals is what a customer consumed over one calendar date.
type NutrientTotals struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Fat      float64 `json:"fat"`
	Carbs    float64 `json:"carbs"`
}

func (nt NutrientTotals) add(rec meals.Record) NutrientTotals {
	nt.Calories += rec.TotalCalories
	nt.Protein += rec.TotalProtein
	nt.Fat += rec.TotalFat
	nt.Carbs += rec.TotalCarbs
	return nt
}

// Nutrient selects one field of NutrientTotals.
type Nutrient string

const (
	NutrientCalories Nutrient = "calories"
	NutrientProtein  Nutrient = "protein"
	NutrientFat      Nutrient = "fat"
	NutrientCarbs    Nutrient = "carbs"
)

func (n Nutrient) IsValid() bool {
	switch n {
	case NutrientCalories, NutrientProtein, NutrientFat, NutrientCarbs:
		return true
	}
	return false
}

func (nt NutrientTotals) get(n Nutrient) float64 {
	switch n {
	case NutrientCalories:
		return nt.Calories
	case NutrientProtein:
		return nt.Protein
	case NutrientFat:
		return nt.Fat
	case NutrientCarbs:
		return nt.Carbs
	}
	return 0
}

// DailyNutrition groups meal records by calendar date, summing the
// per-record totals. Records without a date cannot be grouped; they are
// left out, and reported through a ValidationError returned together
// with the partial result.
func DailyNutrition(records []meals.Record) (map[string]NutrientTotals, error) {
	daily := make(map[string]NutrientTotals, len(records))
	invalid := newValidationError()

	for _, rec := range records {
		if rec.EatenAt.IsZero() {
			invalid.add(strconv.Itoa(rec.ID), "missing date")
			continue
		}
		day := pkg.DayKey(rec.EatenAt)
		daily[day] = daily[day].add(rec)
	}

	return daily, invalid.orNil()
}

// AverageDailyNutrient is the average consumption of one nutrient over
// the days the customer actually logged meals, rounded to the nearest
// whole unit. Days without records do not drag the average down.
func AverageDailyNutrient(records []meals.Record, nutrient Nutrient) (int, error) {
	if !nutrient.IsValid() {
		return 0, &ConfigurationError{Reason: fmt.Sprintf("unknown nutrient %q", nutrient)}
	}

	daily, err := DailyNutrition(records)
	if len(daily) == 0 {
		return 0, err
	}

	var sum float64
	for _, totals := range daily {
		sum += totals.get(nutrient)
	}

	return int(math.Round(sum / float64(len(daily)))), err
}

// AchievementRate is actual over target as a whole percentage. A zero
// target yields 0 instead of a division blowup. Values above 100 are
// not clamped, overshooting a goal is real information.
func AchievementRate(actual, target float64) int {
	if target == 0 {
		return 0
	}
	return int(math.Round(actual / target * 100))
}
