// Package api provides HTTP handlers for the CareerSIM API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/ashureev/careersim/internal/career"
	"github.com/ashureev/careersim/internal/domain"
	"github.com/ashureev/careersim/internal/identity"
	"github.com/ashureev/careersim/internal/interview"
)

// maxJSONBody bounds request bodies decoded as JSON.
const maxJSONBody = 1 << 20

// Authenticator registers candidates and issues session tokens.
type Authenticator interface {
	Register(ctx context.Context, reg identity.Registration) error
	Login(ctx context.Context, username, password string) (*identity.LoginResult, error)
}

// Interviews runs interview sessions.
type Interviews interface {
	Start(ctx context.Context, c *domain.Candidate) (*interview.StartResult, error)
	Respond(ctx context.Context, c *domain.Candidate, interviewID, answer string) (*interview.RespondResult, error)
	Analyze(ctx context.Context, c *domain.Candidate, interviewID string) (*domain.Analysis, error)
	ListForDashboard(ctx context.Context, c *domain.Candidate) (*interview.Dashboard, error)
	UserStats(ctx context.Context, c *domain.Candidate) (*interview.UserStats, error)
}

// Coach answers career questions and rates CVs.
type Coach interface {
	Advice(ctx context.Context, c *domain.Candidate, message string) (string, error)
	RateCV(ctx context.Context, cvText string) (career.CVRating, error)
	Strengths(ctx context.Context, c *domain.Candidate, responses any) (career.StrengthReport, error)
}

// TextExtractor turns an uploaded document into plain text.
type TextExtractor interface {
	ExtractText(filename, contentType string, data []byte) (string, error)
}

// Pinger reports backing store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds the dependencies shared by all endpoints.
type Handler struct {
	auth           Authenticator
	interviews     Interviews
	coach          Coach
	extractor      TextExtractor
	store          Pinger
	maxUploadBytes int64
}

// NewHandler creates a Handler.
func NewHandler(auth Authenticator, interviews Interviews, coach Coach, extractor TextExtractor, store Pinger, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 5 << 20
	}
	return &Handler{
		auth:           auth,
		interviews:     interviews,
		coach:          coach,
		extractor:      extractor,
		store:          store,
		maxUploadBytes: maxUploadBytes,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

var errorStatus = []struct {
	kind   error
	status int
}{
	{domain.ErrUnauthorized, http.StatusUnauthorized},
	{domain.ErrBadRequest, http.StatusBadRequest},
	{domain.ErrUsernameTaken, http.StatusBadRequest},
	{domain.ErrInvalidCredentials, http.StatusBadRequest},
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrForbidden, http.StatusForbidden},
	{domain.ErrInterviewComplete, http.StatusConflict},
	{domain.ErrConflict, http.StatusConflict},
}

// Classify maps an error to its status code and client message. Unknown
// errors classify as 500 with a generic message.
func Classify(err error) (int, string) {
	for _, e := range errorStatus {
		if !errors.Is(err, e.kind) {
			continue
		}
		var reason *domain.ReasonError
		if errors.As(err, &reason) {
			return e.status, reason.Reason
		}
		return e.status, e.kind.Error()
	}
	return http.StatusInternalServerError, "internal error"
}

// WriteError writes err as a JSON error response. Unknown errors are logged
// and reported without detail.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := Classify(err)
	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	Error(w, status, msg)
}

// decodeJSON reads a JSON body into v. An empty body leaves v unchanged.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	Error(w, http.StatusBadRequest, "invalid JSON body")
	return false
}

func candidate(r *http.Request) *domain.Candidate {
	return identity.CandidateFromContext(r.Context())
}
