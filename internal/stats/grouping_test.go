package stats

import (
	"testing"

	"github.com/miifit/backend/internal/training"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupSessionsByDate(t *testing.T) {
	sessions := []training.Session{
		{ID: "s1", Date: "2026-08-10"},
		{ID: "s2", Date: "2026-08-20"},
		{ID: "s3", Date: "2026-08-10"},
	}

	groups := GroupSessionsByDate(sessions)
	require.Len(t, groups, 2)

	assert.Equal(t, "2026-08-20", groups[0].Date)
	require.Len(t, groups[0].Sessions, 1)
	assert.Equal(t, "s2", groups[0].Sessions[0].ID)

	assert.Equal(t, "2026-08-10", groups[1].Date)
	require.Len(t, groups[1].Sessions, 2)
	// input order preserved within the day
	assert.Equal(t, "s1", groups[1].Sessions[0].ID)
	assert.Equal(t, "s3", groups[1].Sessions[1].ID)
}

func TestGroupSessionsByDate_ExercisesMergedPerDay(t *testing.T) {
	benchPress := func(reps int, weightKg float64) []training.Exercise {
		return []training.Exercise{{
			ExerciseName: "Bench Press",
			Sets:         []training.Set{{Reps: reps, WeightKg: weightKg}},
		}}
	}
	sessions := []training.Session{
		{ID: "s1", Date: "2026-08-10", Exercises: benchPress(10, 20)},
		{ID: "s2", Date: "2026-08-10", Exercises: benchPress(8, 22.5)},
		{ID: "s3", Date: "2026-08-20", Exercises: benchPress(5, 25)},
	}

	groups := GroupSessionsByDate(sessions)
	require.Len(t, groups, 2)

	// 2026-08-20: the same exercise name on another day stays separate
	require.Len(t, groups[0].Exercises, 1)
	assert.Equal(t, []string{"s3"}, groups[0].Exercises[0].SourceSessionIDs)
	assert.Equal(t, []training.Set{{Reps: 5, WeightKg: 25}}, groups[0].Exercises[0].Sets)

	// 2026-08-10: both of the day's sessions merged into one row
	require.Len(t, groups[1].Exercises, 1)
	assert.Equal(t, []string{"s1", "s2"}, groups[1].Exercises[0].SourceSessionIDs)
	assert.Equal(t, []training.Set{
		{Reps: 10, WeightKg: 20},
		{Reps: 8, WeightKg: 22.5},
	}, groups[1].Exercises[0].Sets)
}

func TestGroupSessionsByDate_Idempotent(t *testing.T) {
	sessions := []training.Session{
		{ID: "s1", Date: "2026-08-10"},
		{ID: "s2", Date: "2026-08-20"},
		{ID: "s3", Date: "2026-08-10"},
	}

	groups := GroupSessionsByDate(sessions)

	var flattened []training.Session
	for _, group := range groups {
		flattened = append(flattened, group.Sessions...)
	}

	assert.Equal(t, groups, GroupSessionsByDate(flattened))
}

func TestGroupSessionsByDate_Empty(t *testing.T) {
	assert.Empty(t, GroupSessionsByDate(nil))
}

func TestGroupExercisesByName(t *testing.T) {
	sessions := []training.Session{
		{
			ID:   "s1",
			Date: "2026-08-10",
			Exercises: []training.Exercise{
				{
					ExerciseName: "Bench Press",
					Sets:         []training.Set{{Reps: 10, WeightKg: 20}},
					Notes:        "felt strong",
				},
				{
					ExerciseName: "Squat",
					Sets:         []training.Set{{Reps: 5, WeightKg: 60}},
				},
			},
		},
		{
			ID:   "s2",
			Date: "2026-08-12",
			Exercises: []training.Exercise{
				{
					ExerciseName: "Bench Press",
					Sets:         []training.Set{{Reps: 8, WeightKg: 22.5}},
				},
			},
		},
	}

	groups := GroupExercisesByName(sessions)
	require.Len(t, groups, 2)

	benchPress := groups[0]
	assert.Equal(t, "Bench Press", benchPress.ExerciseName)
	assert.Equal(t, []training.Set{
		{Reps: 10, WeightKg: 20},
		{Reps: 8, WeightKg: 22.5},
	}, benchPress.Sets)
	// empty notes dropped, non-empty kept in order
	assert.Equal(t, []string{"felt strong"}, benchPress.Notes)
	// merged from two sessions: deleting needs disambiguation
	assert.Equal(t, []string{"s1", "s2"}, benchPress.SourceSessionIDs)

	squat := groups[1]
	assert.Equal(t, "Squat", squat.ExerciseName)
	// single source: deleting can target the session directly
	assert.Equal(t, []string{"s1"}, squat.SourceSessionIDs)
}

func TestGroupExercisesByName_DedupsSessionIDs(t *testing.T) {
	// same exercise twice within one session still yields one source id
	sessions := []training.Session{
		{
			ID:   "s1",
			Date: "2026-08-10",
			Exercises: []training.Exercise{
				{ExerciseName: "Plank", Sets: []training.Set{{Reps: 1, WeightKg: 0}}},
				{ExerciseName: "Plank", Sets: []training.Set{{Reps: 1, WeightKg: 0}}},
			},
		},
	}

	groups := GroupExercisesByName(sessions)
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"s1"}, groups[0].SourceSessionIDs)
	assert.Len(t, groups[0].Sets, 2)
}

func TestGroupExercisesByName_Empty(t *testing.T) {
	assert.Empty(t, GroupExercisesByName(nil))
}
