package stats

import (
	"testing"
	"time"

	"github.com/miifit/backend/internal/weights"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weightRecord(id int, recordedAt time.Time, weightKg float64) weights.Record {
	return weights.Record{
		ID:         id,
		CustomerID: "c1",
		WeightKg:   weightKg,
		RecordedAt: recordedAt,
	}
}

func TestDailyWeight_LatestOfDayWins(t *testing.T) {
	morning := time.Date(2026, 8, 20, 7, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 8, 20, 21, 0, 0, 0, time.UTC)
	records := []weights.Record{
		// evening measurement listed first, it must still win
		weightRecord(2, evening, 71.8),
		weightRecord(1, morning, 72.4),
		weightRecord(3, morning.Add(24*time.Hour), 71.5),
	}

	daily, err := DailyWeight(records)
	require.NoError(t, err)
	require.Len(t, daily, 2)

	assert.Equal(t, 71.8, daily["2026-08-20"])
	assert.Equal(t, 71.5, daily["2026-08-21"])
}

func TestDailyWeight_Empty(t *testing.T) {
	daily, err := DailyWeight(nil)
	require.NoError(t, err)
	assert.Empty(t, daily)
}

func TestDailyWeight_MissingDate(t *testing.T) {
	records := []weights.Record{
		weightRecord(1, time.Date(2026, 8, 20, 7, 0, 0, 0, time.UTC), 72.4),
		weightRecord(7, time.Time{}, 70.0),
	}

	daily, err := DailyWeight(records)

	require.Len(t, daily, 1)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"7"}, ve.RecordIDs)
}
