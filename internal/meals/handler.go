package meals

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
	Add(ctx context.Context, record Record) (*Record, error)
	Get(ctx context.Context, id int) (*Record, error)
	List(ctx context.Context, params ListParams) ([]Record, error)
	ListForDate(ctx context.Context, customerID, date string) ([]Record, error)
	Update(ctx context.Context, record *Record) error
	Delete(ctx context.Context, id int) error
	GetGoal(ctx context.Context, customerID string) (*Goal, error)
	SetGoal(ctx context.Context, goal Goal) error
	ListFoodPresets(ctx context.Context) ([]FoodItem, error)
}

type Handler struct {
	repo    repo
	metrics *metrics.Manager
}

func NewHandler(repo repo, metrics *metrics.Manager) *Handler {
	return &Handler{
		repo:    repo,
		metrics: metrics,
	}
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.meals.add")
	defer span.End()

	customerID := mux.Vars(r)["customerId"]
	if customerID == "" {
		http.Error(w, "error, customer id empty", http.StatusBadRequest)
		return
	}

	var record Record
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		log.Errorf("add meal record, unmarshal json params: %s", err)
		http.Error(w, "add meal record failed", http.StatusBadRequest)
		return
	}
	record.CustomerID = customerID

	if !record.MealType.IsValid() {
		http.Error(w, "error, invalid meal type", http.StatusBadRequest)
		return
	}
	if record.EatenAt.IsZero() {
		record.EatenAt = time.Now()
	}

	added, err := handler.repo.Add(ctx, record)
	if err != nil {
		log.Errorf("failed to add meal record: %s", err)
		if pkg.IsForeignKeyViolationError(err) {
			http.Error(w, "customer not found", http.StatusNotFound)
			return
		}
		http.Error(w, "error, failed to add meal record", http.StatusInternalServerError)
		return
	}

	addedJson, err := json.Marshal(added)
	if err != nil {
		log.Errorf("marshal added meal record: %s", err)
		http.Error(w, "error, failed to add meal record", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterMealRecords.Inc()
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedJson, http.StatusCreated)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.meals.list")
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

	records, err := handler.repo.List(ctx, ListParams{
		CustomerID: customerID,
		Limit:      limit,
	})
	if err != nil {
		log.Errorf("list meal records for %s: %s", customerID, err)
		http.Error(w, "failed to list meal records", http.StatusInternalServerError)
		return
	}

	recordsJson, err := json.Marshal(records)
	if err != nil {
		log.Errorf("marshal meal records: %s", err)
		http.Error(w, "failed to list meal records", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, recordsJson)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.meals.get")
	defer span.End()

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, invalid record id", http.StatusBadRequest)
		return
	}

	record, err := handler.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			http.Error(w, "meal record not found", http.StatusNotFound)
			return
		}
		log.Errorf("get meal record %d: %s", id, err)
		http.Error(w, "failed to get meal record", http.StatusInternalServerError)
		return
	}

	recordJson, err := json.Marshal(record)
	if err != nil {
		log.Errorf("marshal meal record: %s", err)
		http.Error(w, "failed to get meal record", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, recordJson)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.meals.update")
	defer span.End()

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, invalid record id", http.StatusBadRequest)
		return
	}

	var record Record
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		log.Errorf("update meal record, unmarshal json params: %s", err)
		http.Error(w, "update meal record failed", http.StatusBadRequest)
		return
	}
	record.ID = id

	if !record.MealType.IsValid() {
		http.Error(w, "error, invalid meal type", http.StatusBadRequest)
		return
	}

	if err := handler.repo.Update(ctx, &record); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			http.Error(w, "meal record not found", http.StatusNotFound)
			return
		}
		log.Errorf("update meal record %d: %s", id, err)
		http.Error(w, "failed to update meal record", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, fmt.Sprintf("updated:%d", id))
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.meals.delete")
	defer span.End()

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, invalid record id", http.StatusBadRequest)
		return
	}

	if err := handler.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			http.Error(w, "meal record not found", http.StatusNotFound)
			return
		}
		log.Errorf("delete meal record %d: %s", id, err)
		http.Error(w, "failed to delete meal record", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, fmt.Sprintf("deleted:%d", id))
}

func (handler *Handler) HandleDailySummary(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.meals.dailySummary")
	defer span.End()

	customerID := mux.Vars(r)["customerId"]
	if customerID == "" {
		http.Error(w, "error, customer id empty", http.StatusBadRequest)
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		date = pkg.DayKey(time.Now())
	}
	if _, err := time.Parse(pkg.DateLayout, date); err != nil {
		http.Error(w, "error, invalid date", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("date", date))

	records, err := handler.repo.ListForDate(ctx, customerID, date)
	if err != nil {
		log.Errorf("daily summary for %s on %s: %s", customerID, date, err)
		http.Error(w, "failed to get daily summary", http.StatusInternalServerError)
		return
	}

	summary := DailySummary{
		Date:    date,
		Records: records,
	}
	for _, rec := range records {
		summary.TotalCalories += rec.TotalCalories
		summary.TotalProtein += rec.TotalProtein
		summary.TotalFat += rec.TotalFat
		summary.TotalCarbs += rec.TotalCarbs
	}

	summaryJson, err := json.Marshal(summary)
	if err != nil {
		log.Errorf("marshal daily summary: %s", err)
		http.Error(w, "failed to get daily summary", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, summaryJson)
}

func (handler *Handler) HandleGetGoal(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.meals.getGoal")
	defer span.End()

	customerID := mux.Vars(r)["customerId"]
	goal, err := handler.repo.GetGoal(ctx, customerID)
	if err != nil {
		if errors.Is(err, ErrGoalNotFound) {
			http.Error(w, "nutrition goal not found", http.StatusNotFound)
			return
		}
		log.Errorf("get nutrition goal for %s: %s", customerID, err)
		http.Error(w, "failed to get nutrition goal", http.StatusInternalServerError)
		return
	}

	goalJson, err := json.Marshal(goal)
	if err != nil {
		log.Errorf("marshal nutrition goal: %s", err)
		http.Error(w, "failed to get nutrition goal", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, goalJson)
}

func (handler *Handler) HandleSetGoal(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.meals.setGoal")
	defer span.End()

	customerID := mux.Vars(r)["customerId"]
	if customerID == "" {
		http.Error(w, "error, customer id empty", http.StatusBadRequest)
		return
	}

	var goal Goal
	if err := json.NewDecoder(r.Body).Decode(&goal); err != nil {
		log.Errorf("set nutrition goal, unmarshal json params: %s", err)
		http.Error(w, "set nutrition goal failed", http.StatusBadRequest)
		return
	}
	goal.CustomerID = customerID

	if goal.TargetCalories < 0 || goal.TargetProtein < 0 || goal.TargetFat < 0 || goal.TargetCarbs < 0 {
		http.Error(w, "error, goal targets must not be negative", http.StatusBadRequest)
		return
	}

	if err := handler.repo.SetGoal(ctx, goal); err != nil {
		log.Errorf("set nutrition goal for %s: %s", customerID, err)
		if pkg.IsForeignKeyViolationError(err) {
			http.Error(w, "customer not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to set nutrition goal", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, fmt.Sprintf("goal-set:%s", customerID))
}

func (handler *Handler) HandleFoodPresets(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.meals.foodPresets")
	defer span.End()

	presets, err := handler.repo.ListFoodPresets(ctx)
	if err != nil {
		log.Errorf("list food presets: %s", err)
		http.Error(w, "failed to list food presets", http.StatusInternalServerError)
		return
	}

	presetsJson, err := json.Marshal(presets)
	if err != nil {
		log.Errorf("marshal food presets: %s", err)
		http.Error(w, "failed to list food presets", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, presetsJson)
}
