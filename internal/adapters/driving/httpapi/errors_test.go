package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/docforge/internal/core/domain"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind domain.Kind
		want int
	}{
		{domain.KindValidation, http.StatusBadRequest},
		{domain.KindNotFound, http.StatusNotFound},
		{domain.KindConflict, http.StatusConflict},
		{domain.KindRenderFailure, http.StatusUnprocessableEntity},
		{domain.KindStorage, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.kind))
		})
	}
}

func TestWriteError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/proxy/x", nil)

	t.Run("storage cause is not exposed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		err := fmt.Errorf("fetch: %w", domain.ErrStorageFailure.With("reading artifact", errors.New("/data/docforge.db: locked")))
		writeError(rec, req, err)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.NotContains(t, rec.Body.String(), "docforge.db")
		assert.Contains(t, rec.Body.String(), `"code":"STORAGE_FAILURE"`)
	})

	t.Run("field errors are kept", func(t *testing.T) {
		rec := httptest.NewRecorder()
		writeError(rec, req, domain.ErrInvalidFragment.WithFields([]domain.FieldError{{Field: "rows", Message: "is required"}}))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, "rows", body.Fields[0].Field)
	})
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"bearer  abc ", "abc"},
		{"Basic abc", ""},
		{"Bearer ", ""},
		{"", ""},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		assert.Equal(t, tt.want, bearerToken(req), tt.header)
	}
}

func TestGroupFrom_DefaultsToPublic(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, domain.PublicGroup, GroupFrom(req.Context()))
	assert.Equal(t, "a", GroupFrom(WithGroup(req.Context(), "a")))
}
