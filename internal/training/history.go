package training

import "math"

// HistoryEntry is what a customer did for one exercise on one day.
type HistoryEntry struct {
	Sets      int     `json:"sets"`
	Reps      int     `json:"reps"`
	AvgWeight float64 `json:"avgWeight"`
	Volume    float64 `json:"volume"`
}

// History is the day-by-day progression of a single exercise,
// keyed by session date (YYYY-MM-DD).
type History struct {
	ExerciseID string                  `json:"exerciseId"`
	Entries    map[string]HistoryEntry `json:"entries"`
}

// BuildHistory folds the given sessions into a per-day summary of one
// exercise. Sessions not containing the exercise contribute nothing.
func BuildHistory(sessions []Session, exerciseID string) *History {
	entries := make(map[string]HistoryEntry)
	weightSums := make(map[string]float64)

	for _, session := range sessions {
		for _, ex := range session.Exercises {
			if ex.ExerciseID != exerciseID {
				continue
			}
			entry := entries[session.Date]
			for _, set := range ex.Sets {
				entry.Sets++
				entry.Reps += set.Reps
				entry.Volume += set.Volume()
				weightSums[session.Date] += set.WeightKg
			}
			entries[session.Date] = entry
		}
	}

	for date, entry := range entries {
		if entry.Sets > 0 {
			entry.AvgWeight = math.Round(weightSums[date]/float64(entry.Sets)*100) / 100
			entries[date] = entry
		}
	}

	return &History{
		ExerciseID: exerciseID,
		Entries:    entries,
	}
}
