package misc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/miifit/backend/internal/auth"
	"github.com/miifit/backend/internal/middleware"
	"github.com/miifit/backend/internal/telemetry/tracing"
	"github.com/miifit/backend/pkg"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

type authService interface {
	Login(ctx context.Context, createdAt time.Time) (string, error)
	Logout(ctx context.Context, token string) (bool, error)
}

var _ authService = (*auth.Service)(nil)

type Handler struct {
	admin       auth.Admin
	authService authService
	versionInfo string
}

func NewHandler(admin auth.Admin, authService authService, versionInfo string) *Handler {
	return &Handler{
		admin:       admin,
		authService: authService,
		versionInfo: versionInfo,
	}
}

func (handler *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	pkg.WriteTextResponseOK(w, "Mii Fit backend, at your service")
}

func (handler *Handler) HandleVersion(w http.ResponseWriter, r *http.Request) {
	pkg.WriteTextResponseOK(w, handler.versionInfo)
}

type loginParams struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (handler *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.misc.login")
	defer span.End()

	userIP, err := pkg.ReadUserIP(r)
	if err != nil {
		log.Warnf("login, read user ip: %s", err)
		userIP = "unknown"
	}

	var params loginParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		log.Errorf("login, unmarshal json params: %s", err)
		http.Error(w, "login failed", http.StatusBadRequest)
		return
	}

	if params.Username != handler.admin.Username ||
		!pkg.CheckPasswordHash(params.Password, handler.admin.PasswordHash) {
		log.Warnf("failed login attempt for user [%s] from [%s]", params.Username, userIP)
		span.SetStatus(codes.Error, "invalid credentials")
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := handler.authService.Login(ctx, time.Now())
	if err != nil {
		log.Errorf("login, create session: %s", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	log.Infof("user [%s] logged in from [%s]", params.Username, userIP)
	pkg.WriteJSONResponseOK(w, fmt.Sprintf(`{"token":"%s"}`, token))
}

func (handler *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.misc.logout")
	defer span.End()

	token := r.Header.Get(middleware.AuthTokenHeader)
	if token == "" {
		http.Error(w, "error, auth token empty", http.StatusBadRequest)
		return
	}

	loggedOut, err := handler.authService.Logout(ctx, token)
	if err != nil {
		log.Errorf("logout: %s", err)
		http.Error(w, "logout failed", http.StatusInternalServerError)
		return
	}
	if !loggedOut {
		http.Error(w, "logout failed", http.StatusBadRequest)
		return
	}

	pkg.WriteJSONResponseOK(w, `{"loggedOut":true}`)
}
