package training

import "time"

// Set is one set of an exercise: how many reps at what weight.
type Set struct {
	Reps     int     `json:"reps"`
	WeightKg float64 `json:"weightKg"`
}

// Volume is the work done in this set, reps times weight.
func (s Set) Volume() float64 {
	return float64(s.Reps) * s.WeightKg
}

// Exercise is one exercise performed within a session, with all its sets.
type Exercise struct {
	ExerciseID   string `json:"exerciseId"`
	ExerciseName string `json:"exerciseName"`
	Sets         []Set  `json:"sets"`
	Notes        string `json:"notes,omitempty"`
}

func (e Exercise) Volume() float64 {
	var volume float64
	for _, set := range e.Sets {
		volume += set.Volume()
	}
	return volume
}

// Session is a single training session. Exercises are stored denormalized,
// as a JSONB document on the session row.
type Session struct {
	ID              string     `json:"id"`
	CustomerID      string     `json:"customerId"`
	Date            string     `json:"date"`
	Exercises       []Exercise `json:"exercises"`
	Notes           string     `json:"notes,omitempty"`
	DurationMinutes int        `json:"durationMinutes,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

func (s Session) Volume() float64 {
	var volume float64
	for _, ex := range s.Exercises {
		volume += ex.Volume()
	}
	return volume
}

// Preset is a catalogue entry the client UI offers when composing a session.
type Preset struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MuscleGroup string `json:"muscleGroup"`
}
