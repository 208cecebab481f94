package stats

import (
	"iter"
	"sort"

	"github.com/miifit/backend/internal/meals"
	"github.com/miifit/backend/internal/training"
	"github.com/miifit/backend/internal/weights"
)

// SortedByDate iterates a day-keyed map in chronological order.
// Day keys are ISO dates, so lexicographic order is chronological
// order. The sequence is restartable, ranging over it twice yields
// the same entries.
func SortedByDate[V any](m map[string]V) iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		dates := make([]string, 0, len(m))
		for date := range m {
			dates = append(dates, date)
		}
		sort.Strings(dates)
		for _, date := range dates {
			if !yield(date, m[date]) {
				return
			}
		}
	}
}

type WeightPoint struct {
	Date     string  `json:"date"`
	WeightKg float64 `json:"weightKg"`
}

type NutritionPoint struct {
	Date string `json:"date"`
	NutrientTotals
}

type VolumePoint struct {
	Date   string  `json:"date"`
	Volume float64 `json:"volume"`
}

// WeightSeries materializes the weight chart, one point per day with a
// measurement, oldest first. The partial series and a ValidationError
// come back together when some records had no date.
func WeightSeries(records []weights.Record) ([]WeightPoint, error) {
	daily, err := DailyWeight(records)
	series := make([]WeightPoint, 0, len(daily))
	for date, weightKg := range SortedByDate(daily) {
		series = append(series, WeightPoint{Date: date, WeightKg: weightKg})
	}
	return series, err
}

// NutritionSeries materializes the nutrition chart, oldest day first.
func NutritionSeries(records []meals.Record) ([]NutritionPoint, error) {
	daily, err := DailyNutrition(records)
	series := make([]NutritionPoint, 0, len(daily))
	for date, totals := range SortedByDate(daily) {
		series = append(series, NutritionPoint{Date: date, NutrientTotals: totals})
	}
	return series, err
}

// VolumeSeries materializes the training volume chart, oldest day first.
func VolumeSeries(sessions []training.Session) ([]VolumePoint, error) {
	daily, err := DailyVolume(sessions)
	series := make([]VolumePoint, 0, len(daily))
	for date, volume := range SortedByDate(daily) {
		series = append(series, VolumePoint{Date: date, Volume: volume})
	}
	return series, err
}
