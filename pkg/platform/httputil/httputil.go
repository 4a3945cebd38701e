// Package httputil maps domain results and errors onto HTTP responses.
package httputil

import (
	"encoding/json"
	"net/http"

	"sirenops/internal/guard"
	dErrors "sirenops/pkg/domain-errors"
)

// WriteJSON renders v as a JSON response body.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// blockedResponse renders a guard denial. Rule id and reason reach the
// caller verbatim; the UI renders them to compliance staff unchanged.
type blockedResponse struct {
	Error           string   `json:"error"`
	RuleID          string   `json:"rule_id"`
	Reason          string   `json:"reason"`
	BlockingHoldIDs []string `json:"blocking_hold_ids,omitempty"`
	Retryable       bool     `json:"retryable"`
}

type errorResponse struct {
	Error string       `json:"error"`
	Code  dErrors.Code `json:"code"`
}

// WriteError maps an error onto a response. Guard blocks render with full
// explanation (409 for policy blocks, 503 for a policy-store outage);
// coded errors map by code; anything else is a generic 500.
func WriteError(w http.ResponseWriter, err error) {
	if blocked, ok := guard.AsBlocked(err); ok {
		status := http.StatusConflict
		if blocked.Kind == guard.PolicyStoreUnavailable {
			status = http.StatusServiceUnavailable
		}
		resp := blockedResponse{
			Error:     "write blocked",
			RuleID:    blocked.RuleID,
			Reason:    blocked.Reason,
			Retryable: blocked.Retryable(),
		}
		for _, holdID := range blocked.HoldIDs {
			resp.BlockingHoldIDs = append(resp.BlockingHoldIDs, holdID.String())
		}
		WriteJSON(w, status, resp)
		return
	}

	code := dErrors.CodeOf(err)
	WriteJSON(w, statusFor(code), errorResponse{Error: err.Error(), Code: code})
}

func statusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput, dErrors.CodeInvariantViolation:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
