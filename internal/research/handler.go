package research

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/miifit/backend/internal/telemetry/tracing"
	"github.com/miifit/backend/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50

	// what the landing page shows when nobody searched for anything
	latestTopic = "resistance training OR sports nutrition"
)

type searchClient interface {
	Search(ctx context.Context, term string, limit int) ([]Article, error)
	Summary(ctx context.Context, pmid string) (*Article, error)
}

var _ searchClient = (*Client)(nil)

type Handler struct {
	client searchClient
}

func NewHandler(client searchClient) *Handler {
	return &Handler{
		client: client,
	}
}

func (handler *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.research.search")
	defer span.End()

	term := r.URL.Query().Get("q")
	if term == "" {
		http.Error(w, "error, search term empty", http.StatusBadRequest)
		return
	}

	limit := defaultSearchLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit <= 0 || limit > maxSearchLimit {
			http.Error(w, "error, invalid limit", http.StatusBadRequest)
			return
		}
	}

	handler.serveSearch(ctx, w, term, limit)
}

func (handler *Handler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.research.latest")
	defer span.End()

	topic := r.URL.Query().Get("topic")
	if topic == "" {
		topic = latestTopic
	}

	handler.serveSearch(ctx, w, topic, defaultSearchLimit)
}

func (handler *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.research.summary")
	defer span.End()

	pmid := mux.Vars(r)["pmid"]
	article, err := handler.client.Summary(ctx, pmid)
	if err != nil {
		if errors.Is(err, ErrArticleNotFound) {
			http.Error(w, "article not found", http.StatusNotFound)
			return
		}
		log.Errorf("article summary %s: %s", pmid, err)
		http.Error(w, "failed to get article summary", http.StatusBadGateway)
		return
	}

	articleJson, err := json.Marshal(article)
	if err != nil {
		log.Errorf("marshal article: %s", err)
		http.Error(w, "failed to get article summary", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, articleJson)
}

func (handler *Handler) serveSearch(ctx context.Context, w http.ResponseWriter, term string, limit int) {
	articles, err := handler.client.Search(ctx, term, limit)
	if err != nil {
		log.Errorf("research search %q: %s", term, err)
		http.Error(w, "research search failed", http.StatusBadGateway)
		return
	}

	articlesJson, err := json.Marshal(articles)
	if err != nil {
		log.Errorf("marshal articles: %s", err)
		http.Error(w, "research search failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, articlesJson)
}
