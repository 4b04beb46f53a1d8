package api

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/novamind-ai/novamind-api/internal/apperr"
	"github.com/novamind-ai/novamind-api/internal/core"
)

type ChatRequest struct {
	Message string         `json:"message"`
	History []core.Message `json:"history"`
}

func (h *APIHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, apperr.Validation("invalid request body"))
		return
	}

	resp, err := h.chat.Respond(r.Context(), req.Message, req.History)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

type ChatStreamRequest struct {
	Message   string         `json:"message"`
	History   []core.Message `json:"history"`
	ImageData string         `json:"imageData,omitempty"`
}

// decodeImageData accepts either a raw base64 string or a browser data URL
// ("data:image/png;base64,....") and returns the bytes plus the format.
func decodeImageData(imageData string) ([]byte, string, error) {
	format := "png"
	payload := imageData
	if strings.HasPrefix(imageData, "data:image/") {
		rest := strings.TrimPrefix(imageData, "data:image/")
		semi := strings.Index(rest, ";base64,")
		if semi < 0 {
			return nil, "", fmt.Errorf("malformed image data URL")
		}
		format = rest[:semi]
		payload = rest[semi+len(";base64,"):]
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", err
	}
	return raw, format, nil
}

func (h *APIHandler) ChatStreamHandler(w http.ResponseWriter, r *http.Request) {
	var req ChatStreamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, apperr.Validation("invalid request body"))
		return
	}

	streamReq := core.StreamRequest{
		Message: req.Message,
		History: req.History,
	}
	if req.ImageData != "" {
		image, format, err := decodeImageData(req.ImageData)
		if err != nil {
			h.writeError(w, r, apperr.Validation("invalid image data"))
			return
		}
		streamReq.Image = image
		streamReq.ImageFormat = format
	}

	sse, err := newSSEWriter(w)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	// r.Context() is cancelled when the client disconnects, which aborts
	// the upstream generation stream.
	if err := h.chat.RespondStream(r.Context(), streamReq, sse.Emit); err != nil {
		h.logger.Debugw("chat stream ended with error", "error", err)
	}
}

type OCRRequest struct {
	ImageData string `json:"imageData"`
	Prompt    string `json:"prompt,omitempty"`
}

func (h *APIHandler) OCRHandler(w http.ResponseWriter, r *http.Request) {
	var req OCRRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, apperr.Validation("invalid request body"))
		return
	}
	if req.ImageData == "" {
		h.writeError(w, r, apperr.Validation("imageData is required"))
		return
	}

	image, format, err := decodeImageData(req.ImageData)
	if err != nil {
		h.writeError(w, r, apperr.Validation("invalid image data"))
		return
	}

	text, err := h.chat.ExtractTextFromImage(r.Context(), image, format, req.Prompt)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"text": text, "success": true})
}

func (h *APIHandler) ImageSearchHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	count, _ := strconv.Atoi(r.URL.Query().Get("count"))

	images, err := h.chat.SearchImages(r.Context(), query, count)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"images": images})
}
