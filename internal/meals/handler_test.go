package meals

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/miifit/backend/internal/telemetry/metrics"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRouterSetup(handler *Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/customers/{customerId}/meals", handler.HandleAdd).Methods("POST")
	r.HandleFunc("/customers/{customerId}/meals", handler.HandleList).Methods("GET")
	r.HandleFunc("/customers/{customerId}/meals/summary", handler.HandleDailySummary).Methods("GET")
	r.HandleFunc("/customers/{customerId}/goal", handler.HandleGetGoal).Methods("GET")
	r.HandleFunc("/customers/{customerId}/goal", handler.HandleSetGoal).Methods("PUT")
	r.HandleFunc("/meals/{id}", handler.HandleGet).Methods("GET")
	r.HandleFunc("/meals/{id}", handler.HandleUpdate).Methods("PUT")
	r.HandleFunc("/meals/{id}", handler.HandleDelete).Methods("DELETE")
	return r
}

func TestHandler_Add_ComputesTotals(t *testing.T) {
	repo := newRepoMock()
	handler := NewHandler(repo, metrics.NewTestManager())
	router := testRouterSetup(handler)

	// client-sent totals are ignored, totals come from the foods
	reqBody := `{
		"mealType": "lunch",
		"totalCalories": 99999,
		"foods": [
			{"name": "rice", "calories": 300, "protein": 6, "fat": 1, "carbs": 65},
			{"name": "chicken", "calories": 250, "protein": 40, "fat": 9, "carbs": 0}
		]
	}`
	req := httptest.NewRequest("POST", "/customers/c1/meals", strings.NewReader(reqBody))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)

	var added Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &added))
	assert.Equal(t, 550.0, added.TotalCalories)
	assert.Equal(t, 46.0, added.TotalProtein)
	assert.Equal(t, 10.0, added.TotalFat)
	assert.Equal(t, 65.0, added.TotalCarbs)
	assert.False(t, added.EatenAt.IsZero())
}

func TestHandler_Add_InvalidMealType(t *testing.T) {
	handler := NewHandler(newRepoMock(), metrics.NewTestManager())
	router := testRouterSetup(handler)

	req := httptest.NewRequest(
		"POST", "/customers/c1/meals",
		strings.NewReader(`{"mealType":"brunch"}`),
	)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_DailySummary(t *testing.T) {
	repo := newRepoMock()
	day := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	meals := []struct {
		mealType MealType
		calories float64
		protein  float64
		hour     int
	}{
		{MealTypeBreakfast, 400, 20, 8},
		{MealTypeLunch, 700, 45, 13},
		{MealTypeDinner, 600, 35, 19},
	}
	for _, m := range meals {
		_, err := repo.Add(t.Context(), Record{
			CustomerID: "c1",
			MealType:   m.mealType,
			Foods:      []FoodItem{{Name: "food", Calories: m.calories, Protein: m.protein}},
			EatenAt:    day.Add(time.Duration(m.hour) * time.Hour),
		})
		require.NoError(t, err)
	}
	// a different day, not part of the summary
	_, err := repo.Add(t.Context(), Record{
		CustomerID: "c1",
		MealType:   MealTypeSnack,
		Foods:      []FoodItem{{Name: "bar", Calories: 250}},
		EatenAt:    day.Add(30 * time.Hour),
	})
	require.NoError(t, err)

	handler := NewHandler(repo, metrics.NewTestManager())
	router := testRouterSetup(handler)

	req := httptest.NewRequest("GET", "/customers/c1/meals/summary?date=2026-08-20", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var summary DailySummary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &summary))
	assert.Equal(t, "2026-08-20", summary.Date)
	assert.Equal(t, 1700.0, summary.TotalCalories)
	assert.Equal(t, 100.0, summary.TotalProtein)
	require.Len(t, summary.Records, 3)
	// oldest first
	assert.Equal(t, MealTypeBreakfast, summary.Records[0].MealType)
}

func TestHandler_Goal_SetThenGet(t *testing.T) {
	repo := newRepoMock()
	handler := NewHandler(repo, metrics.NewTestManager())
	router := testRouterSetup(handler)

	reqBody := `{"targetCalories":2200,"targetProtein":140,"targetFat":70,"targetCarbs":250}`
	req := httptest.NewRequest("PUT", "/customers/c1/goal", strings.NewReader(reqBody))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "goal-set:c1", rr.Body.String())

	req = httptest.NewRequest("GET", "/customers/c1/goal", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var goal Goal
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &goal))
	assert.Equal(t, "c1", goal.CustomerID)
	assert.Equal(t, 2200.0, goal.TargetCalories)
}

func TestHandler_Goal_NotFound(t *testing.T) {
	handler := NewHandler(newRepoMock(), metrics.NewTestManager())
	router := testRouterSetup(handler)

	req := httptest.NewRequest("GET", "/customers/c1/goal", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandler_Goal_NegativeTarget(t *testing.T) {
	handler := NewHandler(newRepoMock(), metrics.NewTestManager())
	router := testRouterSetup(handler)

	req := httptest.NewRequest(
		"PUT", "/customers/c1/goal",
		strings.NewReader(`{"targetCalories":-100}`),
	)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
