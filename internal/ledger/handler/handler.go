// Package handler exposes the read-only audit reporting API.
package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"sirenops/internal/decision"
	"sirenops/internal/ledger"
	"sirenops/internal/resource"
	id "sirenops/pkg/domain"
	dErrors "sirenops/pkg/domain-errors"
	"sirenops/pkg/platform/httputil"
	"sirenops/pkg/requestcontext"
)

type Handler struct {
	store  ledger.Store
	logger *slog.Logger
}

func New(store ledger.Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/audit", h.listEntries)
}

func (h *Handler) listEntries(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	page, err := h.store.List(r.Context(), requestcontext.OrgID(r.Context()), filter)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, "audit query"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

func filterFromQuery(r *http.Request) (ledger.Filter, error) {
	q := r.URL.Query()
	filter := ledger.Filter{
		ResourceType: resource.Type(q.Get("resource_type")),
		ResourceID:   q.Get("resource_id"),
		Action:       resource.Action(q.Get("action")),
		Decision:     decision.Verdict(q.Get("decision")),
	}

	if raw := q.Get("actor_id"); raw != "" {
		actorID, err := id.ParseActorID(raw)
		if err != nil {
			return ledger.Filter{}, err
		}
		filter.ActorID = actorID
	}
	if raw := q.Get("cursor"); raw != "" {
		cursor, err := id.ParseEntryID(raw)
		if err != nil {
			return ledger.Filter{}, err
		}
		filter.Cursor = cursor
	}
	if raw := q.Get("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return ledger.Filter{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid since timestamp")
		}
		filter.Since = t
	}
	if raw := q.Get("until"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return ledger.Filter{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid until timestamp")
		}
		filter.Until = t
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return ledger.Filter{}, dErrors.New(dErrors.CodeInvalidInput, "limit must be a positive integer")
		}
		filter.Limit = limit
	}
	return filter, nil
}
