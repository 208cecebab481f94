package customers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/miifit/backend/internal/telemetry/metrics"
	"github.com/miifit/backend/internal/telemetry/tracing"
	"github.com/miifit/backend/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type repo interface {
	Add(ctx context.Context, customer Customer) (*Customer, error)
	Get(ctx context.Context, id string) (*Customer, error)
	List(ctx context.Context) ([]Customer, error)
	Update(ctx context.Context, customer *Customer) error
	Delete(ctx context.Context, id string) error
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

func (handler *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.customers.register")
	defer span.End()

	var customer Customer
	if err := json.NewDecoder(r.Body).Decode(&customer); err != nil {
		log.Errorf("register customer, unmarshal json params: %s", err)
		http.Error(w, "add customer failed", http.StatusBadRequest)
		return
	}

	if customer.Name == "" {
		http.Error(w, "error, customer name empty", http.StatusBadRequest)
		return
	}

	added, err := handler.repo.Add(ctx, customer)
	if err != nil {
		log.Errorf("failed to add customer: %s", err)
		http.Error(w, "error, failed to add customer", http.StatusInternalServerError)
		return
	}

	addedJson, err := json.Marshal(added)
	if err != nil {
		log.Errorf("marshal added customer: %s", err)
		http.Error(w, "error, failed to add customer", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterCustomers.Inc()
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedJson, http.StatusCreated)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.customers.list")
	defer span.End()

	customers, err := handler.repo.List(ctx)
	if err != nil {
		log.Errorf("list customers: %s", err)
		http.Error(w, "failed to list customers", http.StatusInternalServerError)
		return
	}

	customersJson, err := json.Marshal(customers)
	if err != nil {
		log.Errorf("marshal customers: %s", err)
		http.Error(w, "failed to list customers", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, customersJson)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.customers.get")
	defer span.End()

	vars := mux.Vars(r)
	id := vars["id"]
	if id == "" {
		http.Error(w, "error, customer id empty", http.StatusBadRequest)
		return
	}

	customer, err := handler.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			http.Error(w, "customer not found", http.StatusNotFound)
			return
		}
		log.Errorf("get customer %s: %s", id, err)
		http.Error(w, "failed to get customer", http.StatusInternalServerError)
		return
	}

	customerJson, err := json.Marshal(customer)
	if err != nil {
		log.Errorf("marshal customer: %s", err)
		http.Error(w, "failed to get customer", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, customerJson)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.customers.update")
	defer span.End()

	vars := mux.Vars(r)
	id := vars["id"]
	if id == "" {
		http.Error(w, "error, customer id empty", http.StatusBadRequest)
		return
	}

	var customer Customer
	if err := json.NewDecoder(r.Body).Decode(&customer); err != nil {
		log.Errorf("update customer, unmarshal json params: %s", err)
		http.Error(w, "update customer failed", http.StatusBadRequest)
		return
	}
	customer.ID = id

	if err := handler.repo.Update(ctx, &customer); err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			http.Error(w, "customer not found", http.StatusNotFound)
			return
		}
		log.Errorf("update customer %s: %s", id, err)
		http.Error(w, "failed to update customer", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, fmt.Sprintf("updated:%s", id))
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.customers.delete")
	defer span.End()

	vars := mux.Vars(r)
	id := vars["id"]
	if id == "" {
		http.Error(w, "error, customer id empty", http.StatusBadRequest)
		return
	}

	if err := handler.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			http.Error(w, "customer not found", http.StatusNotFound)
			return
		}
		log.Errorf("delete customer %s: %s", id, err)
		http.Error(w, "failed to delete customer", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, fmt.Sprintf("deleted:%s", id))
}
