package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/custodia-labs/docforge/internal/core/domain"
	"github.com/custodia-labs/docforge/internal/logger"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Code       domain.Code         `json:"code"`
	Kind       domain.Kind         `json:"kind"`
	Message    string              `json:"message"`
	Fields     []domain.FieldError `json:"fields,omitempty"`
	InstanceID string              `json:"instance_id,omitempty"`
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindRenderFailure:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes the public form of err. The cause is logged, never sent.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	pub := domain.Public(err)
	status := statusFor(pub.Kind)
	if status == http.StatusInternalServerError {
		logger.Warn("http: %s %s: %v", r.Method, r.URL.Path, err)
	} else {
		logger.Debug("http: %s %s: %v", r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, errorBody{
		Code:       pub.Code,
		Kind:       pub.Kind,
		Message:    pub.Message,
		Fields:     pub.Fields,
		InstanceID: pub.InstanceID,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("http: encoding response: %v", err)
	}
}
