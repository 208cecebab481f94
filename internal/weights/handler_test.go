package weights

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
	r.HandleFunc("/customers/{customerId}/weights", handler.HandleAdd).Methods("POST")
	r.HandleFunc("/customers/{customerId}/weights", handler.HandleList).Methods("GET")
	r.HandleFunc("/weights/{id}", handler.HandleDelete).Methods("DELETE")
	return r
}

func TestHandler_Add(t *testing.T) {
	repo := newRepoMock()
	handler := NewHandler(repo, metrics.NewTestManager())
	router := testRouterSetup(handler)

	req := httptest.NewRequest(
		"POST", "/customers/c1/weights",
		strings.NewReader(`{"weightKg":72.4,"note":"morning"}`),
	)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)

	var added Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &added))
	assert.Equal(t, 1, added.ID)
	assert.Equal(t, "c1", added.CustomerID)
	assert.Equal(t, 72.4, added.WeightKg)
	assert.Equal(t, "morning", added.Note)
}

func TestHandler_Add_InvalidWeight(t *testing.T) {
	handler := NewHandler(newRepoMock(), metrics.NewTestManager())
	router := testRouterSetup(handler)

	req := httptest.NewRequest(
		"POST", "/customers/c1/weights",
		strings.NewReader(`{"weightKg":-3}`),
	)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_List_LimitKeepsMostRecent(t *testing.T) {
	repo := newRepoMock()
	now := time.Now()
	for i := 0; i < 5; i++ {
		_, err := repo.Add(t.Context(), Record{
			CustomerID: "c1",
			WeightKg:   70 + float64(i),
			RecordedAt: now.Add(time.Duration(i) * 24 * time.Hour),
		})
		require.NoError(t, err)
	}

	handler := NewHandler(repo, metrics.NewTestManager())
	router := testRouterSetup(handler)

	req := httptest.NewRequest("GET", "/customers/c1/weights?limit=2", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var records []Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &records))
	require.Len(t, records, 2)
	// newest first
	assert.Equal(t, 74.0, records[0].WeightKg)
	assert.Equal(t, 73.0, records[1].WeightKg)
}

func TestHandler_List_InvalidLimit(t *testing.T) {
	handler := NewHandler(newRepoMock(), metrics.NewTestManager())
	router := testRouterSetup(handler)

	req := httptest.NewRequest("GET", "/customers/c1/weights?limit=abc", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_Delete_NotFound(t *testing.T) {
	handler := NewHandler(newRepoMock(), metrics.NewTestManager())
	router := testRouterSetup(handler)

	req := httptest.NewRequest("DELETE", "/weights/44", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
