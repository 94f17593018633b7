package handlers

import (
	"errors"
	"io"
	"net/http"

	"family-tree-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// AIHandler handles AI proxy HTTP requests
type AIHandler struct {
	aiService  *services.AIService
	maxImageMB int64
}

// NewAIHandler creates a new AI handler
func NewAIHandler(aiService *services.AIService, maxImageMB int64) *AIHandler {
	return &AIHandler{
		aiService:  aiService,
		maxImageMB: maxImageMB,
	}
}

// respondAIError maps AI errors: missing configuration is the caller's
// deployment problem (400), an invalid key is reported distinctly, and
// anything else is an upstream failure (502).
func respondAIError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrAINotConfigured):
		respondError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrValidation):
		respondError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrAIUnauthorized):
		respondError(w, err.Error(), http.StatusBadGateway)
	default:
		respondError(w, err.Error(), http.StatusBadGateway)
	}
}

// readUpload reads the named multipart file, capped at maxMB megabytes.
func (h *AIHandler) readUpload(w http.ResponseWriter, r *http.Request, field string, maxMB int64) ([]byte, string, string, bool) {
	maxBytes := maxMB << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		respondError(w, "Upload too large or malformed", http.StatusBadRequest)
		return nil, "", "", false
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		respondError(w, "No file uploaded", http.StatusBadRequest)
		return nil, "", "", false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, "Failed to read uploaded file", http.StatusBadRequest)
		return nil, "", "", false
	}
	return data, header.Filename, header.Header.Get("Content-Type"), true
}

// AnalyzeImage handles POST /api/ai/analyze: multipart image in,
// analysis text out.
func (h *AIHandler) AnalyzeImage(w http.ResponseWriter, r *http.Request) {
	data, _, contentType, ok := h.readUpload(w, r, "image", h.maxImageMB)
	if !ok {
		return
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}

	analysis, err := h.aiService.AnalyzeImage(r.Context(), data, contentType)
	if err != nil {
		log.Error().Err(err).Msg("Image analysis failed")
		respondAIError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"analysis": analysis})
}

// GeneratePortraitRequest is the payload for portrait generation.
type GeneratePortraitRequest struct {
	MemberID    string `json:"memberId"`
	Description string `json:"description"`
}

// GeneratePortrait handles POST /api/ai/generate-portrait
func (h *AIHandler) GeneratePortrait(w http.ResponseWriter, r *http.Request) {
	var req GeneratePortraitRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	url, err := h.aiService.GeneratePortrait(r.Context(), req.MemberID, req.Description)
	if err != nil {
		log.Error().Err(err).Str("member_id", req.MemberID).Msg("Portrait generation failed")
		respondAIError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"imageUrl": url})
}

// Transcribe handles POST /api/ai/transcribe: multipart audio in, text out
func (h *AIHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	data, filename, contentType, ok := h.readUpload(w, r, "audio", h.maxImageMB)
	if !ok {
		return
	}

	text, err := h.aiService.Transcribe(r.Context(), data, filename, contentType)
	if err != nil {
		log.Error().Err(err).Msg("Transcription failed")
		respondAIError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"text": text})
}

// ChatRequest is the payload for the assistant conversation.
type ChatRequest struct {
	Messages []services.ChatMessage `json:"messages"`
}

// Chat handles POST /api/ai/chat
func (h *AIHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	reply, err := h.aiService.Chat(r.Context(), req.Messages)
	if err != nil {
		log.Error().Err(err).Msg("Chat completion failed")
		respondAIError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"reply": reply})
}
