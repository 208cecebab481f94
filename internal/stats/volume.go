package stats

import (
	"math"

	"github.com/miifit/backend/internal/training"
)

// TotalTrainingVolume sums the volume of all given sessions. Order
// of the input never matters, and an empty input is simply 0.
func TotalTrainingVolume(sessions []training.Session) float64 {
	var total float64
	for _, session := range sessions {
		total += session.Volume()
	}
	return total
}

// DailyVolume groups session volume by session date. Sessions without
// a date are left out and reported through a ValidationError returned
// together with the partial result.
func DailyVolume(sessions []training.Session) (map[string]float64, error) {
	daily := make(map[string]float64, len(sessions))
	invalid := newValidationError()

	for _, session := range sessions {
		if session.Date == "" {
			invalid.add(session.ID, "missing date")
			continue
		}
		daily[session.Date] += session.Volume()
	}

	return daily, invalid.orNil()
}

// AverageWeeklyFrequency is how many days per week the customer
// trained within the window, to one decimal. Two sessions on the same
// day count as one active day; training twice on Monday is not
// training twice a week.
func AverageWeeklyFrequency(sessions []training.Session, windowDays int) (float64, error) {
	if windowDays <= 0 {
		return 0, &ConfigurationError{Reason: "window must be positive"}
	}

	activeDays := make(map[string]struct{}, len(sessions))
	for _, session := range sessions {
		if session.Date == "" {
			continue
		}
		activeDays[session.Date] = struct{}{}
	}

	perWeek := float64(len(activeDays)) / float64(windowDays) * 7
	return math.Round(perWeek*10) / 10, nil
}
