package advice

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/miifit/backend/internal/stats"
	"github.com/miifit/backend/internal/telemetry/metrics"
	"github.com/miifit/backend/internal/telemetry/tracing"
	"github.com/miifit/backend/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	kindTraining = "training"
	kindMeals    = "meals"

	statsWindowDays = 30
	// groups fed into the prompt, enough recent context without
	// blowing up the token count
	promptSessionLimit = 20

	systemPrompt = "You are an experienced fitness and nutrition coach. " +
		"Give specific, actionable advice based on the client data provided. " +
		"Keep the answer short and practical."
)

type completionClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

type statsAnalyzer interface {
	Overview(ctx context.Context, customerID string, windowDays int) (*stats.Overview, error)
	ExerciseGroups(ctx context.Context, customerID string, limit int) ([]stats.ExerciseGroup, error)
}

type adviceCache interface {
	Get(ctx context.Context, customerID, kind string) (*Response, error)
	Set(ctx context.Context, customerID, kind string, resp *Response) error
}

var (
	_ completionClient = (*Client)(nil)
	_ adviceCache      = (*Cache)(nil)
	_ statsAnalyzer    = (*stats.Analyzer)(nil)
)

type Handler struct {
	client   completionClient
	analyzer statsAnalyzer
	cache    adviceCache
	metrics  *metrics.Manager
}

func NewHandler(
	client completionClient,
	analyzer statsAnalyzer,
	cache adviceCache,
	metrics *metrics.Manager,
) *Handler {
	return &Handler{
		client:   client,
		analyzer: analyzer,
		cache:    cache,
		metrics:  metrics,
	}
}

func (handler *Handler) HandleTrainingAdvice(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.advice.training")
	defer span.End()

	customerID := mux.Vars(r)["customerId"]
	if customerID == "" {
		http.Error(w, "error, customer id empty", http.StatusBadRequest)
		return
	}

	handler.serveAdvice(ctx, w, customerID, kindTraining, func() (string, error) {
		overview, err := handler.analyzer.Overview(ctx, customerID, statsWindowDays)
		if err != nil {
			return "", fmt.Errorf("stats overview: %w", err)
		}
		groups, err := handler.analyzer.ExerciseGroups(ctx, customerID, promptSessionLimit)
		if err != nil {
			return "", fmt.Errorf("exercise groups: %w", err)
		}
		return trainingPrompt(overview, groups), nil
	})
}

func (handler *Handler) HandleMealAdvice(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.advice.meals")
	defer span.End()

	customerID := mux.Vars(r)["customerId"]
	if customerID == "" {
		http.Error(w, "error, customer id empty", http.StatusBadRequest)
		return
	}

	handler.serveAdvice(ctx, w, customerID, kindMeals, func() (string, error) {
		overview, err := handler.analyzer.Overview(ctx, customerID, statsWindowDays)
		if err != nil {
			return "", fmt.Errorf("stats overview: %w", err)
		}
		return mealPrompt(overview), nil
	})
}

func (handler *Handler) serveAdvice(
	ctx context.Context,
	w http.ResponseWriter,
	customerID, kind string,
	buildPrompt func() (string, error),
) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.String("customer.id", customerID),
		attribute.String("advice.kind", kind),
	)

	cached, err := handler.cache.Get(ctx, customerID, kind)
	if err != nil {
		// a broken cache should not take the feature down
		log.Errorf("get cached %s advice for %s: %s", kind, customerID, err)
	}
	if cached != nil {
		handler.metrics.CounterAdviceCacheHits.Inc()
		span.SetAttributes(attribute.Bool("cache.hit", true))
		handler.writeResponse(w, cached)
		return
	}
	handler.metrics.CounterAdviceCacheMisses.Inc()
	span.SetAttributes(attribute.Bool("cache.hit", false))

	prompt, err := buildPrompt()
	if err != nil {
		log.Errorf("build %s advice prompt for %s: %s", kind, customerID, err)
		http.Error(w, "failed to get advice", http.StatusInternalServerError)
		return
	}

	start := time.Now()
	adviceText, err := handler.client.Complete(ctx, systemPrompt, prompt)
	handler.metrics.HistAdviceRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		log.Errorf("get %s advice for %s: %s", kind, customerID, err)
		http.Error(w, "failed to get advice", http.StatusBadGateway)
		return
	}

	resp := &Response{Advice: adviceText}
	if err := handler.cache.Set(ctx, customerID, kind, resp); err != nil {
		log.Errorf("cache %s advice for %s: %s", kind, customerID, err)
	}

	handler.writeResponse(w, resp)
}

type chatParams struct {
	Message string `json:"message"`
}

type chatReply struct {
	Reply string `json:"reply"`
}

// HandleChat is a direct, uncached line to the coach assistant.
func (handler *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.advice.chat")
	defer span.End()

	var params chatParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		log.Errorf("advice chat, unmarshal json params: %s", err)
		http.Error(w, "chat failed", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(params.Message) == "" {
		http.Error(w, "error, message empty", http.StatusBadRequest)
		return
	}

	start := time.Now()
	reply, err := handler.client.Complete(ctx, systemPrompt, params.Message)
	handler.metrics.HistAdviceRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		log.Errorf("advice chat: %s", err)
		http.Error(w, "chat failed", http.StatusBadGateway)
		return
	}

	replyJson, err := json.Marshal(chatReply{Reply: reply})
	if err != nil {
		log.Errorf("marshal chat reply: %s", err)
		http.Error(w, "chat failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, replyJson)
}

func (handler *Handler) writeResponse(w http.ResponseWriter, resp *Response) {
	respJson, err := json.Marshal(resp)
	if err != nil {
		log.Errorf("marshal advice response: %s", err)
		http.Error(w, "failed to get advice", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}

func trainingPrompt(overview *stats.Overview, groups []stats.ExerciseGroup) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Client training summary for the last %d days:\n", statsWindowDays)
	fmt.Fprintf(&b, "- sessions: %d over %d active days (%.1f days/week)\n",
		overview.TotalSessions, overview.ActiveDays, overview.AverageWeeklyFrequency)
	fmt.Fprintf(&b, "- total volume: %.0f kg\n", overview.TotalVolume)
	if overview.CurrentWeightKg > 0 {
		fmt.Fprintf(&b, "- body weight: %.1f kg (%+.1f kg change)\n",
			overview.CurrentWeightKg, overview.WeightChangeKg)
	}
	if len(groups) > 0 {
		b.WriteString("Recent exercises:\n")
		for _, group := range groups {
			var volume float64
			for _, set := range group.Sets {
				volume += set.Volume()
			}
			fmt.Fprintf(&b, "- %s: %d sets, %.0f kg volume\n",
				group.ExerciseName, len(group.Sets), volume)
		}
	}
	b.WriteString("What should this client focus on in training next?")
	return b.String()
}

func mealPrompt(overview *stats.Overview) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Client nutrition summary for the last %d days:\n", statsWindowDays)
	fmt.Fprintf(&b, "- average daily calories: %d\n", overview.AverageDailyCalories)
	fmt.Fprintf(&b, "- average daily protein: %d g\n", overview.AverageDailyProtein)
	if overview.CalorieAchievementRate > 0 {
		fmt.Fprintf(&b, "- calorie goal achievement: %d%%\n", overview.CalorieAchievementRate)
	}
	if overview.ProteinAchievementRate > 0 {
		fmt.Fprintf(&b, "- protein goal achievement: %d%%\n", overview.ProteinAchievementRate)
	}
	if overview.CurrentWeightKg > 0 {
		fmt.Fprintf(&b, "- body weight: %.1f kg (%+.1f kg change)\n",
			overview.CurrentWeightKg, overview.WeightChangeKg)
	}
	b.WriteString("How should this client adjust their diet?")
	return b.String()
}
