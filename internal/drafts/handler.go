package drafts

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/miifit/backend/internal/telemetry/tracing"
	"github.com/miifit/backend/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// drafts are small form payloads, not file uploads
const maxDraftSize = 64 * 1024

type store interface {
	Save(ctx context.Context, key string, value []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
	Clear(ctx context.Context, key string) error
}

var _ store = (*Store)(nil)

type Handler struct {
	store store
}

func NewHandler(store store) *Handler {
	return &Handler{
		store: store,
	}
}

func (handler *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.drafts.save")
	defer span.End()

	key := mux.Vars(r)["key"]
	if key == "" {
		http.Error(w, "error, draft key empty", http.StatusBadRequest)
		return
	}

	value, err := io.ReadAll(io.LimitReader(r.Body, maxDraftSize+1))
	if err != nil {
		log.Errorf("save draft %s, read body: %s", key, err)
		http.Error(w, "save draft failed", http.StatusBadRequest)
		return
	}
	if len(value) == 0 {
		http.Error(w, "error, draft empty", http.StatusBadRequest)
		return
	}
	if len(value) > maxDraftSize {
		http.Error(w, "error, draft too large", http.StatusRequestEntityTooLarge)
		return
	}

	if err := handler.store.Save(ctx, key, value); err != nil {
		log.Errorf("save draft %s: %s", key, err)
		http.Error(w, "save draft failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, "saved:"+key)
}

func (handler *Handler) HandleLoad(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.drafts.load")
	defer span.End()

	key := mux.Vars(r)["key"]
	value, err := handler.store.Load(ctx, key)
	if err != nil {
		if errors.Is(err, ErrDraftNotFound) {
			http.Error(w, "draft not found", http.StatusNotFound)
			return
		}
		log.Errorf("load draft %s: %s", key, err)
		http.Error(w, "load draft failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, value)
}

func (handler *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.drafts.clear")
	defer span.End()

	key := mux.Vars(r)["key"]
	if err := handler.store.Clear(ctx, key); err != nil {
		log.Errorf("clear draft %s: %s", key, err)
		http.Error(w, "clear draft failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, "cleared:"+key)
}
