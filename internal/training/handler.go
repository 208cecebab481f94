package training

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/miifit/backend/internal/telemetry/metrics"
	"github.com/miifit/backend/internal/telemetry/tracing"
	"github.com/miifit/backend/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

type repo interface {
	Add(ctx context.Context, session Session) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	List(ctx context.Context, params ListParams) ([]Session, error)
	Update(ctx context.Context, session *Session) error
	Delete(ctx context.Context, id string) error
	ListPresets(ctx context.Context) ([]Preset, error)
}

type Handler struct {
	repo    repo
	presets *presetsCache
	metrics *metrics.Manager
}

func NewHandler(repo repo, metrics *metrics.Manager) *Handler {
	return &Handler{
		repo:    repo,
		presets: newPresetsCache(),
		metrics: metrics,
	}
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.training.add")
	defer span.End()

	customerID := mux.Vars(r)["customerId"]
	if customerID == "" {
		http.Error(w, "error, customer id empty", http.StatusBadRequest)
		return
	}

	var session Session
	if err := json.NewDecoder(r.Body).Decode(&session); err != nil {
		log.Errorf("add training session, unmarshal json params: %s", err)
		http.Error(w, "add training session failed", http.StatusBadRequest)
		return
	}
	session.CustomerID = customerID

	if _, err := time.Parse(pkg.DateLayout, session.Date); err != nil {
		http.Error(w, "error, invalid session date", http.StatusBadRequest)
		return
	}

	added, err := handler.repo.Add(ctx, session)
	if err != nil {
		log.Errorf("failed to add training session: %s", err)
		if pkg.IsForeignKeyViolationError(err) {
			http.Error(w, "customer not found", http.StatusNotFound)
			return
		}
		http.Error(w, "error, failed to add training session", http.StatusInternalServerError)
		return
	}

	addedJson, err := json.Marshal(added)
	if err != nil {
		log.Errorf("marshal added training session: %s", err)
		http.Error(w, "error, failed to add training session", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterTrainingSessions.Inc()
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedJson, http.StatusCreated)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.training.list")
	defer span.End()

	customerID := mux.Vars(r)["customerId"]
	if customerID == "" {
		http.Error(w, "error, customer id empty", http.StatusBadRequest)
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			http.Error(w, "error, invalid limit", http.StatusBadRequest)
			return
		}
	}

	sessions, err := handler.repo.List(ctx, ListParams{
		CustomerID: customerID,
		Limit:      limit,
	})
	if err != nil {
		log.Errorf("list training sessions for %s: %s", customerID, err)
		http.Error(w, "failed to list training sessions", http.StatusInternalServerError)
		return
	}

	sessionsJson, err := json.Marshal(sessions)
	if err != nil {
		log.Errorf("marshal training sessions: %s", err)
		http.Error(w, "failed to list training sessions", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, sessionsJson)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.training.get")
	defer span.End()

	id := mux.Vars(r)["id"]
	session, err := handler.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			http.Error(w, "training session not found", http.StatusNotFound)
			return
		}
		log.Errorf("get training session %s: %s", id, err)
		http.Error(w, "failed to get training session", http.StatusInternalServerError)
		return
	}

	sessionJson, err := json.Marshal(session)
	if err != nil {
		log.Errorf("marshal training session: %s", err)
		http.Error(w, "failed to get training session", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, sessionJson)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.training.update")
	defer span.End()

	id := mux.Vars(r)["id"]

	var session Session
	if err := json.NewDecoder(r.Body).Decode(&session); err != nil {
		log.Errorf("update training session, unmarshal json params: %s", err)
		http.Error(w, "update training session failed", http.StatusBadRequest)
		return
	}
	session.ID = id

	if _, err := time.Parse(pkg.DateLayout, session.Date); err != nil {
		http.Error(w, "error, invalid session date", http.StatusBadRequest)
		return
	}

	if err := handler.repo.Update(ctx, &session); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			http.Error(w, "training session not found", http.StatusNotFound)
			return
		}
		log.Errorf("update training session %s: %s", id, err)
		http.Error(w, "failed to update training session", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, fmt.Sprintf("updated:%s", id))
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.training.delete")
	defer span.End()

	id := mux.Vars(r)["id"]
	if err := handler.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			http.Error(w, "training session not found", http.StatusNotFound)
			return
		}
		log.Errorf("delete training session %s: %s", id, err)
		http.Error(w, "failed to delete training session", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, fmt.Sprintf("deleted:%s", id))
}

func (handler *Handler) HandlePresets(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.training.presets")
	defer span.End()

	if presetsJson, ok := handler.presets.Get(); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, presetsJson)
		return
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	presets, err := handler.repo.ListPresets(ctx)
	if err != nil {
		log.Errorf("list exercise presets: %s", err)
		http.Error(w, "failed to list exercise presets", http.StatusInternalServerError)
		return
	}

	presetsJson, err := json.Marshal(presets)
	if err != nil {
		log.Errorf("marshal exercise presets: %s", err)
		http.Error(w, "failed to list exercise presets", http.StatusInternalServerError)
		return
	}

	handler.presets.Set(presetsJson)
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, presetsJson)
}

func (handler *Handler) HandleExerciseHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.training.exerciseHistory")
	defer span.End()

	vars := mux.Vars(r)
	customerID := vars["customerId"]
	exerciseID := vars["exerciseId"]
	if customerID == "" || exerciseID == "" {
		http.Error(w, "error, customer or exercise id empty", http.StatusBadRequest)
		return
	}
	span.SetAttributes(
		attribute.String("customer.id", customerID),
		attribute.String("exercise.id", exerciseID),
	)

	sessions, err := handler.repo.List(ctx, ListParams{CustomerID: customerID})
	if err != nil {
		log.Errorf("exercise history, list sessions for %s: %s", customerID, err)
		http.Error(w, "failed to get exercise history", http.StatusInternalServerError)
		return
	}

	history := BuildHistory(sessions, exerciseID)

	historyJson, err := json.Marshal(history)
	if err != nil {
		log.Errorf("marshal exercise history: %s", err)
		http.Error(w, "failed to get exercise history", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, historyJson)
}
