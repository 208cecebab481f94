package misc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/miifit/backend/internal/auth"
	"github.com/miifit/backend/internal/middleware"
	"github.com/miifit/backend/pkg"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// TestMain will run goleak after all tests have been run in the package
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type authServiceMock struct {
	token     string
	returnErr error
	loggedOut map[string]bool
}

func newAuthServiceMock(token string) *authServiceMock {
	return &authServiceMock{
		token:     token,
		loggedOut: map[string]bool{},
	}
}

func (m *authServiceMock) Login(_ context.Context, _ time.Time) (string, error) {
	if m.returnErr != nil {
		return "", m.returnErr
	}
	return m.token, nil
}

func (m *authServiceMock) Logout(_ context.Context, token string) (bool, error) {
	if m.returnErr != nil {
		return false, m.returnErr
	}
	if token != m.token {
		return false, errors.New("unknown token")
	}
	m.loggedOut[token] = true
	return true, nil
}

func testRouterSetup(handler *Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", handler.HandleRoot).Methods("GET")
	r.HandleFunc("/version", handler.HandleVersion).Methods("GET")
	r.HandleFunc("/a/login", handler.HandleLogin).Methods("POST")
	r.HandleFunc("/a/logout", handler.HandleLogout).Methods("POST")
	return r
}

func testAdmin(t *testing.T) auth.Admin {
	t.Helper()
	hash, err := pkg.HashPassword("s3cret")
	require.NoError(t, err)
	return auth.Admin{Username: "coach", PasswordHash: hash}
}

func TestHandler_Root(t *testing.T) {
	handler := NewHandler(testAdmin(t), newAuthServiceMock("tok"), "v1.2.3")
	router := testRouterSetup(handler)

	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Mii Fit backend, at your service", rr.Body.String())
}

func TestHandler_Version(t *testing.T) {
	handler := NewHandler(testAdmin(t), newAuthServiceMock("tok"), "v1.2.3")
	router := testRouterSetup(handler)

	req := httptest.NewRequest("GET", "/version", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "v1.2.3", rr.Body.String())
}

func TestHandler_Login(t *testing.T) {
	handler := NewHandler(testAdmin(t), newAuthServiceMock("fresh-token"), "dev")
	router := testRouterSetup(handler)

	req := httptest.NewRequest(
		"POST", "/a/login",
		strings.NewReader(`{"username":"coach","password":"s3cret"}`),
	)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "fresh-token", resp["token"])
}

func TestHandler_Login_WrongPassword(t *testing.T) {
	handler := NewHandler(testAdmin(t), newAuthServiceMock("tok"), "dev")
	router := testRouterSetup(handler)

	for _, body := range []string{
		`{"username":"coach","password":"wrong"}`,
		`{"username":"intruder","password":"s3cret"}`,
	} {
		req := httptest.NewRequest("POST", "/a/login", strings.NewReader(body))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	}
}

func TestHandler_Logout(t *testing.T) {
	service := newAuthServiceMock("fresh-token")
	handler := NewHandler(testAdmin(t), service, "dev")
	router := testRouterSetup(handler)

	req := httptest.NewRequest("POST", "/a/logout", nil)
	req.Header.Set(middleware.AuthTokenHeader, "fresh-token")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, service.loggedOut["fresh-token"])
}

func TestHandler_Logout_NoToken(t *testing.T) {
	handler := NewHandler(testAdmin(t), newAuthServiceMock("tok"), "dev")
	router := testRouterSetup(handler)

	req := httptest.NewRequest("POST", "/a/logout", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
