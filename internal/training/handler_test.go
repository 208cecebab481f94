package training

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/miifit/backend/internal/telemetry/metrics"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRouterSetup(handler *Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/customers/{customerId}/sessions", handler.HandleAdd).Methods("POST")
	r.HandleFunc("/customers/{customerId}/sessions", handler.HandleList).Methods("GET")
	r.HandleFunc("/sessions/presets", handler.HandlePresets).Methods("GET")
	r.HandleFunc("/sessions/{id}", handler.HandleGet).Methods("GET")
	r.HandleFunc("/sessions/{id}", handler.HandleUpdate).Methods("PUT")
	r.HandleFunc("/sessions/{id}", handler.HandleDelete).Methods("DELETE")
	r.HandleFunc(
		"/customers/{customerId}/exercises/{exerciseId}/history",
		handler.HandleExerciseHistory,
	).Methods("GET")
	return r
}

func TestHandler_Add(t *testing.T) {
	repo := newRepoMock()
	handler := NewHandler(repo, metrics.NewTestManager())
	router := testRouterSetup(handler)

	reqBody := `{
		"date": "2026-08-20",
		"durationMinutes": 55,
		"exercises": [
			{"exerciseId": "bench-press", "exerciseName": "Bench Press",
			 "sets": [{"reps": 10, "weightKg": 20}, {"reps": 8, "weightKg": 22.5}]}
		]
	}`
	req := httptest.NewRequest("POST", "/customers/c1/sessions", strings.NewReader(reqBody))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)

	var added Session
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &added))
	assert.NotEmpty(t, added.ID)
	assert.Equal(t, "c1", added.CustomerID)
	require.Len(t, added.Exercises, 1)
	assert.Equal(t, 380.0, added.Volume())
}

func TestHandler_Add_InvalidDate(t *testing.T) {
	handler := NewHandler(newRepoMock(), metrics.NewTestManager())
	router := testRouterSetup(handler)

	req := httptest.NewRequest(
		"POST", "/customers/c1/sessions",
		strings.NewReader(`{"date":"20/08/2026"}`),
	)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_List_NewestFirst(t *testing.T) {
	repo := newRepoMock()
	for _, date := range []string{"2026-08-10", "2026-08-20", "2026-08-15"} {
		_, err := repo.Add(t.Context(), Session{CustomerID: "c1", Date: date})
		require.NoError(t, err)
	}

	handler := NewHandler(repo, metrics.NewTestManager())
	router := testRouterSetup(handler)

	req := httptest.NewRequest("GET", "/customers/c1/sessions", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var sessions []Session
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &sessions))
	require.Len(t, sessions, 3)
	assert.Equal(t, "2026-08-20", sessions[0].Date)
	assert.Equal(t, "2026-08-15", sessions[1].Date)
	assert.Equal(t, "2026-08-10", sessions[2].Date)
}

func TestHandler_Update_NotFound(t *testing.T) {
	handler := NewHandler(newRepoMock(), metrics.NewTestManager())
	router := testRouterSetup(handler)

	req := httptest.NewRequest(
		"PUT", "/sessions/nope",
		strings.NewReader(`{"date":"2026-08-20"}`),
	)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandler_Presets_Cached(t *testing.T) {
	repo := newRepoMock()
	repo.presets = []Preset{
		{ID: "bench-press", Name: "Bench Press", MuscleGroup: "chest"},
		{ID: "deadlift", Name: "Deadlift", MuscleGroup: "back"},
	}
	handler := NewHandler(repo, metrics.NewTestManager())
	router := testRouterSetup(handler)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/sessions/presets", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)

		var presets []Preset
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &presets))
		assert.Len(t, presets, 2)
	}

	// first request populates the cache, the rest are served from it
	assert.Equal(t, 1, repo.presetsCalls)
}

func TestHandler_ExerciseHistory(t *testing.T) {
	repo := newRepoMock()
	benchPress := func(sets ...Set) Exercise {
		return Exercise{ExerciseID: "bench-press", ExerciseName: "Bench Press", Sets: sets}
	}
	_, err := repo.Add(t.Context(), Session{
		CustomerID: "c1", Date: "2026-08-10",
		Exercises: []Exercise{benchPress(Set{Reps: 10, WeightKg: 20}, Set{Reps: 10, WeightKg: 20})},
	})
	require.NoError(t, err)
	_, err = repo.Add(t.Context(), Session{
		CustomerID: "c1", Date: "2026-08-12",
		Exercises: []Exercise{
			benchPress(Set{Reps: 8, WeightKg: 22.5}),
			{ExerciseID: "squat", Sets: []Set{{Reps: 5, WeightKg: 60}}},
		},
	})
	require.NoError(t, err)

	handler := NewHandler(repo, metrics.NewTestManager())
	router := testRouterSetup(handler)

	req := httptest.NewRequest("GET", "/customers/c1/exercises/bench-press/history", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var history History
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &history))
	require.Len(t, history.Entries, 2)

	day1 := history.Entries["2026-08-10"]
	assert.Equal(t, 2, day1.Sets)
	assert.Equal(t, 20, day1.Reps)
	assert.Equal(t, 20.0, day1.AvgWeight)
	assert.Equal(t, 400.0, day1.Volume)

	day2 := history.Entries["2026-08-12"]
	assert.Equal(t, 1, day2.Sets)
	assert.Equal(t, 180.0, day2.Volume)
}
