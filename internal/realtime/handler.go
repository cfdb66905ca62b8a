package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/ashureev/careersim/internal/api"
	"github.com/ashureev/careersim/internal/domain"
	"github.com/ashureev/careersim/internal/identity"
	"github.com/ashureev/careersim/internal/interview"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
)

const (
	writeTimeout  = 10 * time.Second
	maxFrameBytes = 64 << 10
)

// Frame types.
const (
	TypeStart    = "start"
	TypeAnswer   = "answer"
	TypePing     = "ping"
	TypeQuestion = "question"
	TypeFeedback = "feedback"
	TypeError    = "error"
	TypePong     = "pong"
)

// Orchestrator is the part of the interview service the channel drives.
type Orchestrator interface {
	Start(ctx context.Context, c *domain.Candidate) (*interview.StartResult, error)
	Respond(ctx context.Context, c *domain.Candidate, interviewID, answer string) (*interview.RespondResult, error)
}

// Inbound is a client frame.
type Inbound struct {
	Type        string `json:"type"`
	InterviewID string `json:"interviewId,omitempty"`
	Answer      string `json:"answer,omitempty"`
}

// Outbound is a server frame.
type Outbound struct {
	Type           string        `json:"type"`
	InterviewID    string        `json:"interviewId,omitempty"`
	Question       string        `json:"question,omitempty"`
	Feedback       string        `json:"feedback,omitempty"`
	FeedbackSource domain.Source `json:"feedbackSource,omitempty"`
	NextQuestion   *string       `json:"nextQuestion,omitempty"`
	Done           bool          `json:"done,omitempty"`
	Error          string        `json:"error,omitempty"`
}

// Handler upgrades /ws/interview requests and runs the frame loop.
type Handler struct {
	resolver       identity.Resolver
	interviews     Orchestrator
	registry       *Registry
	originPatterns []string
}

// NewHandler creates a Handler. allowedOrigins uses the same format as the
// CORS configuration.
func NewHandler(resolver identity.Resolver, interviews Orchestrator, registry *Registry, allowedOrigins []string) *Handler {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Handler{
		resolver:       resolver,
		interviews:     interviews,
		registry:       registry,
		originPatterns: originPatterns(allowedOrigins),
	}
}

// originPatterns converts origins such as "http://localhost:5173" to the
// host patterns the websocket library matches against.
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		if o == "*" {
			return []string{"*"}
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
			continue
		}
		patterns = append(patterns, o)
	}
	return patterns
}

// ServeHTTP authenticates the request, then upgrades it.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	candidate, err := h.resolver.Resolve(r.Context(), identity.TokenFromRequest(r))
	if err != nil {
		status, msg := api.Classify(err)
		api.Error(w, status, msg)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		slog.Warn("Failed to accept interview channel", "error", err, "username", candidate.Username)
		return
	}
	conn.SetReadLimit(maxFrameBytes)
	defer func() {
		if closeErr := conn.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "username", candidate.Username)
		}
	}()

	connID := uuid.NewString()
	h.registry.Register(candidate.Username, connID, conn)
	defer h.registry.Unregister(candidate.Username, connID, conn)

	slog.Info("Interview channel opened", "username", candidate.Username, "conn_id", connID)
	h.readLoop(r.Context(), conn, candidate)
	slog.Info("Interview channel closed", "username", candidate.Username, "conn_id", connID)
}

func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn, c *domain.Candidate) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
				slog.Debug("Interview channel read error", "error", err, "username", c.Username)
			}
			return
		}

		var msg Inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			if !h.write(ctx, conn, Outbound{Type: TypeError, Error: "invalid message"}) {
				return
			}
			continue
		}

		for _, out := range h.dispatch(ctx, c, msg) {
			if !h.write(ctx, conn, out) {
				return
			}
		}
	}
}

// dispatch turns one client frame into the frames to send back.
func (h *Handler) dispatch(ctx context.Context, c *domain.Candidate, msg Inbound) []Outbound {
	switch msg.Type {
	case TypeStart:
		res, err := h.interviews.Start(ctx, c)
		if err != nil {
			return []Outbound{errorFrame(err)}
		}
		return []Outbound{{Type: TypeQuestion, InterviewID: res.InterviewID, Question: res.Question}}

	case TypeAnswer:
		res, err := h.interviews.Respond(ctx, c, msg.InterviewID, msg.Answer)
		if err != nil {
			return []Outbound{errorFrame(err)}
		}
		frames := []Outbound{{
			Type:           TypeFeedback,
			InterviewID:    msg.InterviewID,
			Feedback:       res.Feedback,
			FeedbackSource: res.Source,
			NextQuestion:   res.NextQuestion,
			Done:           res.Done,
		}}
		if res.NextQuestion != nil {
			frames = append(frames, Outbound{Type: TypeQuestion, InterviewID: msg.InterviewID, Question: *res.NextQuestion})
		}
		return frames

	case TypePing:
		return []Outbound{{Type: TypePong}}
	}
	return []Outbound{{Type: TypeError, Error: "unknown message type"}}
}

func errorFrame(err error) Outbound {
	status, msg := api.Classify(err)
	if status == http.StatusInternalServerError {
		slog.Error("Interview channel request failed", "error", err)
	}
	return Outbound{Type: TypeError, Error: msg}
}

func (h *Handler) write(ctx context.Context, conn *websocket.Conn, out Outbound) bool {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := wsjson.Write(ctx, conn, out); err != nil {
		slog.Debug("Interview channel write failed", "error", err, "type", out.Type)
		return false
	}
	return true
}
