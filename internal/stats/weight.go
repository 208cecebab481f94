package stats

import (
	"strconv"
	"time"

	"github.com/miifit/backend/internal/weights"
	"github.com/miifit/backend/pkg"
)

// DailyWeight reduces weight records to one value per calendar date.
// Weight is a point-in-time measurement, so unlike nutrition there is
// nothing to sum: the chronologically latest record of the day wins.
// Records without a timestamp are left out and reported through a
// ValidationError returned together with the partial result.
func DailyWeight(records []weights.Record) (map[string]float64, error) {
	daily := make(map[string]float64, len(records))
	latest := make(map[string]time.Time, len(records))
	invalid := newValidationError()

	for _, rec := range records {
		if rec.RecordedAt.IsZero() {
			invalid.add(strconv.Itoa(rec.ID), "missing date")
			continue
		}
		day := pkg.DayKey(rec.RecordedAt)
		if seen, ok := latest[day]; ok && !rec.RecordedAt.After(seen) {
			continue
		}
		latest[day] = rec.RecordedAt
		daily[day] = rec.WeightKg
	}

	return daily, invalid.orNil()
}
