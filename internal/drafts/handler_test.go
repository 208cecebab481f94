package drafts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeMock struct {
	drafts    map[string][]byte
	returnErr error
}

func newStoreMock() *storeMock {
	return &storeMock{drafts: map[string][]byte{}}
}

func (m *storeMock) Save(_ context.Context, key string, value []byte) error {
	if m.returnErr != nil {
		return m.returnErr
	}
	m.drafts[key] = value
	return nil
}

func (m *storeMock) Load(_ context.Context, key string) ([]byte, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	value, ok := m.drafts[key]
	if !ok {
		return nil, ErrDraftNotFound
	}
	return value, nil
}

func (m *storeMock) Clear(_ context.Context, key string) error {
	if m.returnErr != nil {
		return m.returnErr
	}
	delete(m.drafts, key)
	return nil
}

func testRouterSetup(handler *Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/drafts/{key}", handler.HandleSave).Methods("PUT")
	r.HandleFunc("/drafts/{key}", handler.HandleLoad).Methods("GET")
	r.HandleFunc("/drafts/{key}", handler.HandleClear).Methods("DELETE")
	return r
}

func TestHandler_SaveLoadClear(t *testing.T) {
	store := newStoreMock()
	router := testRouterSetup(NewHandler(store))

	draft := `{"exercises":[{"name":"Squat"}]}`
	req := httptest.NewRequest("PUT", "/drafts/c1-session", strings.NewReader(draft))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "saved:c1-session", rr.Body.String())

	req = httptest.NewRequest("GET", "/drafts/c1-session", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, draft, rr.Body.String())

	req = httptest.NewRequest("DELETE", "/drafts/c1-session", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	req = httptest.NewRequest("GET", "/drafts/c1-session", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandler_Save_Empty(t *testing.T) {
	router := testRouterSetup(NewHandler(newStoreMock()))

	req := httptest.NewRequest("PUT", "/drafts/c1-session", strings.NewReader(""))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_Save_TooLarge(t *testing.T) {
	router := testRouterSetup(NewHandler(newStoreMock()))

	huge := strings.Repeat("x", maxDraftSize+1)
	req := httptest.NewRequest("PUT", "/drafts/c1-session", strings.NewReader(huge))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}
