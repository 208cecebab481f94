package stats

import (
	"slices"
	"sort"

	"github.com/miifit/backend/internal/training"
)

// DayGroup is all sessions of one calendar date, in their input order,
// with the date's exercises merged by name for display.
type DayGroup struct {
	Date      string             `json:"date"`
	Sessions  []training.Session `json:"sessions"`
	Exercises []ExerciseGroup    `json:"exercises"`
}

// GroupSessionsByDate arranges sessions for display: one group per
// date, newest date first, sessions within a group keeping their input
// order. Exercise rows are merged by name within each date separately,
// never across dates. Grouping an already grouped-and-flattened list
// gives the same result back.
func GroupSessionsByDate(sessions []training.Session) []DayGroup {
	byDate := make(map[string][]training.Session)
	dates := make([]string, 0)
	for _, session := range sessions {
		if _, ok := byDate[session.Date]; !ok {
			dates = append(dates, session.Date)
		}
		byDate[session.Date] = append(byDate[session.Date], session)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	groups := make([]DayGroup, 0, len(dates))
	for _, date := range dates {
		groups = append(groups, DayGroup{
			Date:      date,
			Sessions:  byDate[date],
			Exercises: GroupExercisesByName(byDate[date]),
		})
	}
	return groups
}

// ExerciseGroup merges every occurrence of one exercise across the
// given sessions into a single display row.
type ExerciseGroup struct {
	ExerciseName string         `json:"exerciseName"`
	Sets         []training.Set `json:"sets"`
	Notes        []string       `json:"notes"`

	// SourceSessionIDs names the sessions this row was merged from,
	// deduplicated, in first-appearance order. With a single source the
	// row can be deleted directly; with several, the caller has to ask
	// which session was meant.
	SourceSessionIDs []string `json:"sourceSessionIds"`
}

// GroupExercisesByName merges exercises with the same name across the
// given sessions. Sets and notes are concatenated in input order, empty
// notes dropped. The sessions slice order decides both group order and
// the order within each group. For the per-day display view the caller
// passes one date's sessions (GroupSessionsByDate does exactly that);
// passing a wider range merges across dates, which the advice prompts
// rely on.
func GroupExercisesByName(sessions []training.Session) []ExerciseGroup {
	byName := make(map[string]*ExerciseGroup)
	order := make([]string, 0)

	for _, session := range sessions {
		for _, ex := range session.Exercises {
			group, ok := byName[ex.ExerciseName]
			if !ok {
				group = &ExerciseGroup{
					ExerciseName: ex.ExerciseName,
					Sets:         make([]training.Set, 0),
					Notes:        make([]string, 0),
				}
				byName[ex.ExerciseName] = group
				order = append(order, ex.ExerciseName)
			}
			group.Sets = append(group.Sets, ex.Sets...)
			if ex.Notes != "" {
				group.Notes = append(group.Notes, ex.Notes)
			}
			if !slices.Contains(group.SourceSessionIDs, session.ID) {
				group.SourceSessionIDs = append(group.SourceSessionIDs, session.ID)
			}
		}
	}

	groups := make([]ExerciseGroup, 0, len(order))
	for _, name := range order {
		groups = append(groups, *byName[name])
	}
	return groups
}
