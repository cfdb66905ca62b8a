package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ashureev/careersim/internal/domain"
)

// TokenHeader is the alternative header carrying the session token.
const TokenHeader = "X-Auth-Token"

// maxTokenBody bounds how much of a JSON body is inspected for a token field.
const maxTokenBody = 1 << 20

type contextKey int

const candidateKey contextKey = iota

// WithCandidate returns a context carrying the resolved candidate.
func WithCandidate(ctx context.Context, c *domain.Candidate) context.Context {
	return context.WithValue(ctx, candidateKey, c)
}

// CandidateFromContext extracts the resolved candidate from the request context.
func CandidateFromContext(ctx context.Context) *domain.Candidate {
	if c, ok := ctx.Value(candidateKey).(*domain.Candidate); ok {
		return c
	}
	return nil
}

// TokenFromRequest looks for a token in Authorization (raw or Bearer),
// X-Auth-Token, the token query parameter and finally a JSON body field.
// The body is restored so handlers can still decode it.
func TokenFromRequest(r *http.Request) string {
	if auth := strings.TrimSpace(r.Header.Get("Authorization")); auth != "" {
		if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
			return strings.TrimSpace(auth[7:])
		}
		return auth
	}
	if tok := strings.TrimSpace(r.Header.Get(TokenHeader)); tok != "" {
		return tok
	}
	if tok := strings.TrimSpace(r.URL.Query().Get("token")); tok != "" {
		return tok
	}
	return tokenFromBody(r)
}

func tokenFromBody(r *http.Request) string {
	if r.Body == nil || !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return ""
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxTokenBody))
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(data))
	if err != nil || len(data) == 0 {
		return ""
	}
	var body struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	return strings.TrimSpace(body.Token)
}

// RequireIdentity rejects requests without a valid token with 401 and
// injects the candidate into the request context otherwise.
func RequireIdentity(resolver Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			candidate, err := resolver.Resolve(r.Context(), TokenFromRequest(r))
			if err != nil {
				status := http.StatusUnauthorized
				msg := err.Error()
				if !errors.Is(err, domain.ErrUnauthorized) {
					slog.Error("Identity resolution failed", "error", err)
					status = http.StatusInternalServerError
					msg = "internal error"
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(status)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
				return
			}
			next.ServeHTTP(w, r.WithContext(WithCandidate(r.Context(), candidate)))
		})
	}
}
