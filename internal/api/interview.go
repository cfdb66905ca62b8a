package api

import (
	"net/http"
)

// StartInterview creates an interview and returns its first question.
func (h *Handler) StartInterview(w http.ResponseWriter, r *http.Request) {
	res, err := h.interviews.Start(r.Context(), candidate(r))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, res)
}

// RespondInterview records an answer and returns feedback plus the next question.
func (h *Handler) RespondInterview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		InterviewID string `json:"interviewId"`
		Answer      string `json:"answer"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.interviews.Respond(r.Context(), candidate(r), req.InterviewID, req.Answer)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, res)
}

// AnalyzeInterview returns the scored analysis of the interview named by ?id=.
func (h *Handler) AnalyzeInterview(w http.ResponseWriter, r *http.Request) {
	res, err := h.interviews.Analyze(r.Context(), candidate(r), r.URL.Query().Get("id"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, res)
}

// Dashboard lists the candidate's interviews with summary statistics.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	res, err := h.interviews.ListForDashboard(r.Context(), candidate(r))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, res)
}

// UserStats returns aggregate statistics across the candidate's interviews.
func (h *Handler) UserStats(w http.ResponseWriter, r *http.Request) {
	res, err := h.interviews.UserStats(r.Context(), candidate(r))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, res)
}
