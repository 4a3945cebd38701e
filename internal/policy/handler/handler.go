// Package handler exposes the compliance admin API for legal holds and
// retention policies.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"sirenops/internal/policy"
	"sirenops/internal/policy/admin"
	"sirenops/internal/resource"
	id "sirenops/pkg/domain"
	dErrors "sirenops/pkg/domain-errors"
	"sirenops/pkg/platform/httputil"
	"sirenops/pkg/requestcontext"
)

type Handler struct {
	svc    *admin.Service
	logger *slog.Logger
}

func New(svc *admin.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the hold and retention routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/admin/holds", h.createHold)
	r.Post("/admin/holds/{holdID}/release", h.releaseHold)
	r.Get("/admin/holds", h.listHolds)
	r.Put("/admin/retention-policies", h.setRetentionPolicy)
	r.Get("/admin/retention-policies", h.listRetentionPolicies)
}

type createHoldRequest struct {
	ResourceType string `json:"resource_type"`
	ResourceID   string `json:"resource_id,omitempty"`
	Tag          string `json:"tag,omitempty"`
	Reason       string `json:"reason"`
}

func (h *Handler) createHold(w http.ResponseWriter, r *http.Request) {
	var req createHoldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid JSON body"))
		return
	}

	hold, err := h.svc.CreateHold(r.Context(), admin.CreateHoldInput{
		OrgID:        requestcontext.OrgID(r.Context()),
		Actor:        requestcontext.ActorID(r.Context()),
		ResourceType: resource.Type(req.ResourceType),
		ResourceID:   req.ResourceID,
		Tag:          req.Tag,
		Reason:       req.Reason,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, hold)
}

func (h *Handler) releaseHold(w http.ResponseWriter, r *http.Request) {
	holdID, err := id.ParseHoldID(chi.URLParam(r, "holdID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	hold, err := h.svc.ReleaseHold(r.Context(), holdID, requestcontext.ActorID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, hold)
}

func (h *Handler) listHolds(w http.ResponseWriter, r *http.Request) {
	holds, err := h.svc.ListHolds(r.Context(), requestcontext.OrgID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"holds": holds})
}

type retentionPolicyRequest struct {
	ResourceType string `json:"resource_type"`
	Duration     string `json:"duration"`
	PolicyType   string `json:"policy_type"`
}

func (h *Handler) setRetentionPolicy(w http.ResponseWriter, r *http.Request) {
	var req retentionPolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid JSON body"))
		return
	}
	duration, err := time.ParseDuration(req.Duration)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid duration"))
		return
	}

	p, err := h.svc.SetRetentionPolicy(r.Context(),
		requestcontext.OrgID(r.Context()),
		resource.Type(req.ResourceType),
		duration,
		policy.PolicyType(req.PolicyType),
	)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) listRetentionPolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := h.svc.ListRetentionPolicies(r.Context(), requestcontext.OrgID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"retention_policies": policies})
}
