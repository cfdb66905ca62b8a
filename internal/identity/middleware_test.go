package identity

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ashureev/careersim/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	tokens map[string]*domain.Candidate
}

func (f fakeResolver) Resolve(_ context.Context, token string) (*domain.Candidate, error) {
	if c, ok := f.tokens[token]; ok {
		return c, nil
	}
	return nil, domain.WithReason(domain.ErrUnauthorized, "invalid token")
}

func TestTokenFromRequest(t *testing.T) {
	tests := []struct {
		name  string
		build func() *http.Request
		want  string
	}{
		{"raw authorization", func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Header.Set("Authorization", "tok1")
			return r
		}, "tok1"},
		{"bearer authorization", func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Header.Set("Authorization", "Bearer tok2")
			return r
		}, "tok2"},
		{"x-auth-token", func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Header.Set(TokenHeader, "tok3")
			return r
		}, "tok3"},
		{"query", func() *http.Request {
			return httptest.NewRequest(http.MethodGet, "/?token=tok4", nil)
		}, "tok4"},
		{"json body", func() *http.Request {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"token":"tok5","answer":"x"}`))
			r.Header.Set("Content-Type", "application/json")
			return r
		}, "tok5"},
		{"none", func() *http.Request {
			return httptest.NewRequest(http.MethodGet, "/", nil)
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TokenFromRequest(tt.build()))
		})
	}
}

func TestTokenFromRequest_RestoresBody(t *testing.T) {
	body := `{"token":"tok","answer":"hello"}`
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")

	require.Equal(t, "tok", TokenFromRequest(r))
	data, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	assert.Equal(t, body, string(data))
}

func TestRequireIdentity(t *testing.T) {
	alice := &domain.Candidate{Username: "alice"}
	mw := RequireIdentity(fakeResolver{tokens: map[string]*domain.Candidate{"good": alice}})

	var seen *domain.Candidate
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CandidateFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid token")
	})

	t.Run("valid token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "good")
		handler.ServeHTTP(rec, r)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Same(t, alice, seen)
	})
}
