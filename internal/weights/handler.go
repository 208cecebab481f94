package weights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/miifit/backend/internal/telemetry/metrics"
	"github.com/miifit/backend/internal/telemetry/tracing"
	"github.com/miifit/backend/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type repo interface {
	Add(ctx context.Context, record Record) (*Record, error)
	List(ctx context.Context, params ListParams) ([]Record, error)
	Delete(ctx context.Context, id int) error
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
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.weights.add")
	defer span.End()

	customerID := mux.Vars(r)["customerId"]
	if customerID == "" {
		http.Error(w, "error, customer id empty", http.StatusBadRequest)
		return
	}

	var record Record
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		log.Errorf("add weight record, unmarshal json params: %s", err)
		http.Error(w, "add weight record failed", http.StatusBadRequest)
		return
	}
	record.CustomerID = customerID

	if record.WeightKg <= 0 {
		http.Error(w, "error, weight must be positive", http.StatusBadRequest)
		return
	}

	added, err := handler.repo.Add(ctx, record)
	if err != nil {
		log.Errorf("failed to add weight record: %s", err)
		if pkg.IsForeignKeyViolationError(err) {
			http.Error(w, "customer not found", http.StatusNotFound)
			return
		}
		http.Error(w, "error, failed to add weight record", http.StatusInternalServerError)
		return
	}

	addedJson, err := json.Marshal(added)
	if err != nil {
		log.Errorf("marshal added weight record: %s", err)
		http.Error(w, "error, failed to add weight record", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterWeightRecords.Inc()
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedJson, http.StatusCreated)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.weights.list")
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
		log.Errorf("list weight records for %s: %s", customerID, err)
		http.Error(w, "failed to list weight records", http.StatusInternalServerError)
		return
	}

	recordsJson, err := json.Marshal(records)
	if err != nil {
		log.Errorf("marshal weight records: %s", err)
		http.Error(w, "failed to list weight records", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, recordsJson)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.weights.delete")
	defer span.End()

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, invalid record id", http.StatusBadRequest)
		return
	}

	if err := handler.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			http.Error(w, "weight record not found", http.StatusNotFound)
			return
		}
		log.Errorf("delete weight record %d: %s", id, err)
		http.Error(w, "failed to delete weight record", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, fmt.Sprintf("deleted:%d", id))
}
