package stats

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/miifit/backend/internal/telemetry/tracing"
	"github.com/miifit/backend/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// DefaultWindowDays is the stats window when the client does not ask
// for a specific one.
const DefaultWindowDays = 30

type Handler struct {
	analyzer *Analyzer
}

func NewHandler(analyzer *Analyzer) *Handler {
	return &Handler{
		analyzer: analyzer,
	}
}

func (handler *Handler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.stats.overview")
	defer span.End()

	customerID := mux.Vars(r)["customerId"]
	if customerID == "" {
		http.Error(w, "error, customer id empty", http.StatusBadRequest)
		return
	}

	windowDays := DefaultWindowDays
	if windowStr := r.URL.Query().Get("windowDays"); windowStr != "" {
		var err error
		windowDays, err = strconv.Atoi(windowStr)
		if err != nil || windowDays <= 0 {
			http.Error(w, "error, invalid window", http.StatusBadRequest)
			return
		}
	}

	overview, err := handler.analyzer.Overview(ctx, customerID, windowDays)
	if err != nil {
		log.Errorf("stats overview for %s: %s", customerID, err)
		http.Error(w, "failed to get stats overview", http.StatusInternalServerError)
		return
	}

	overviewJson, err := json.Marshal(overview)
	if err != nil {
		log.Errorf("marshal stats overview: %s", err)
		http.Error(w, "failed to get stats overview", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, overviewJson)
}

func (handler *Handler) HandleWeightSeries(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.stats.weightSeries")
	defer span.End()

	customerID := mux.Vars(r)["customerId"]
	series, err := handler.analyzer.WeightSeries(ctx, customerID)
	if err != nil {
		log.Errorf("weight series for %s: %s", customerID, err)
		http.Error(w, "failed to get weight series", http.StatusInternalServerError)
		return
	}

	handler.writeSeries(w, series)
}

func (handler *Handler) HandleNutritionSeries(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.stats.nutritionSeries")
	defer span.End()

	customerID := mux.Vars(r)["customerId"]
	series, err := handler.analyzer.NutritionSeries(ctx, customerID)
	if err != nil {
		log.Errorf("nutrition series for %s: %s", customerID, err)
		http.Error(w, "failed to get nutrition series", http.StatusInternalServerError)
		return
	}

	handler.writeSeries(w, series)
}

func (handler *Handler) HandleVolumeSeries(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.stats.volumeSeries")
	defer span.End()

	customerID := mux.Vars(r)["customerId"]
	series, err := handler.analyzer.VolumeSeries(ctx, customerID)
	if err != nil {
		log.Errorf("volume series for %s: %s", customerID, err)
		http.Error(w, "failed to get volume series", http.StatusInternalServerError)
		return
	}

	handler.writeSeries(w, series)
}

func (handler *Handler) HandleSessionGroups(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.stats.sessionGroups")
	defer span.End()

	customerID := mux.Vars(r)["customerId"]
	limit, ok := limitParam(w, r)
	if !ok {
		return
	}

	groups, err := handler.analyzer.SessionGroups(ctx, customerID, limit)
	if err != nil {
		log.Errorf("session groups for %s: %s", customerID, err)
		http.Error(w, "failed to group sessions", http.StatusInternalServerError)
		return
	}

	handler.writeSeries(w, groups)
}

func (handler *Handler) writeSeries(w http.ResponseWriter, series any) {
	seriesJson, err := json.Marshal(series)
	if err != nil {
		log.Errorf("marshal stats payload: %s", err)
		http.Error(w, "failed to marshal stats payload", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, seriesJson)
}

func limitParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 0 {
		http.Error(w, "error, invalid limit", http.StatusBadRequest)
		return 0, false
	}
	return limit, true
}
