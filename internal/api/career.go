package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/ashureev/careersim/internal/document"
)

// CareerAdvice answers a free-form career question.
func (h *Handler) CareerAdvice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	text, err := h.coach.Advice(r.Context(), candidate(r), req.Message)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"response": text})
}

// CVRating rates CV text submitted as JSON.
func (h *Handler) CVRating(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CVText string `json:"cvText"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	rating, err := h.coach.RateCV(r.Context(), req.CVText)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, rating)
}

// CVUpload rates a CV uploaded as multipart field "cv".
func (h *Handler) CVUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+(64<<10))
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			Error(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		Error(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("cv")
	if err != nil {
		Error(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer func() { _ = file.Close() }()

	contentType := header.Header.Get("Content-Type")
	if !document.Allowed(header.Filename, contentType) {
		Error(w, http.StatusBadRequest, document.ErrUnsupportedType.Error())
		return
	}
	if header.Size > h.maxUploadBytes {
		Error(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	text, err := h.extractor.ExtractText(header.Filename, contentType, data)
	if err != nil {
		var extErr *document.ExtractionError
		if errors.As(err, &extErr) {
			slog.Warn("CV extraction failed", "filename", header.Filename, "error", extErr.Err)
			Error(w, http.StatusBadRequest, extErr.Err.Error())
			return
		}
		WriteError(w, r, err)
		return
	}

	rating, err := h.coach.RateCV(r.Context(), text)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, rating)
}

// StrengthAnalysis analyses self-assessment answers.
func (h *Handler) StrengthAnalysis(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Responses any `json:"responses"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	report, err := h.coach.Strengths(r.Context(), candidate(r), req.Responses)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, report)
}
