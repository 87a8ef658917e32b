package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/ekisa-team/voxgate/internal/model"
	"github.com/ekisa-team/voxgate/internal/service"
)

// SynthesisRequest is the JSON body of POST /tts.
type SynthesisRequest struct {
	Text string `json:"text" example:"Hello world"`
}

// handleTTS synthesizes speech.
//
// @Summary     Text to speech
// @Description Synthesizes the text and returns a mono 16-bit PCM WAV file.
// @Tags        speech
// @Accept      json
// @Accept      x-www-form-urlencoded
// @Produce     audio/wav
// @Produce     json
// @Param       request  body      SynthesisRequest  false  "Text to synthesize (JSON or form field text)"
// @Success     200      {file}    binary            "WAV audio"
// @Failure     400      {object}  ErrorResponse     "Missing or too long text"
// @Failure     500      {object}  ErrorResponse     "Model unavailable or synthesis failed"
// @Router      /tts [post]
func (h *Handler) handleTTS(w http.ResponseWriter, r *http.Request) {
	text, err := readText(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	payload, err := h.tts.Synthesize(r.Context(), text)
	if err != nil {
		status, msg := h.ttsError(err)
		if status >= http.StatusInternalServerError {
			slog.Error("TTS error", "error", err)
		}
		writeError(w, status, msg)
		return
	}

	hdr := w.Header()
	hdr.Set("Content-Type", "audio/wav")
	hdr.Set("Content-Length", strconv.Itoa(payload.Len()))
	hdr.Set("Content-Disposition", "inline; filename=speech.wav")
	hdr.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	hdr.Set("Pragma", "no-cache")
	hdr.Set("Expires", "0")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(payload.Bytes()); err != nil {
		slog.Warn("Failed to write audio", "error", err)
	}
}

func (h *Handler) ttsError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrEmptyText):
		return http.StatusBadRequest, "No text provided"
	case errors.Is(err, service.ErrTextTooLong):
		return http.StatusBadRequest, fmt.Sprintf("Text too long (max %d chars)", h.tts.Limits().MaxTextLength)
	case errors.Is(err, model.ErrModelUnavailable):
		return http.StatusInternalServerError, "TTS model failed to load: " + err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

// readText extracts the text field from a JSON body or a form.
func readText(r *http.Request) (string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		return r.FormValue("text"), nil
	}

	var req SynthesisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", fmt.Errorf("decoding json body: %w", err)
	}
	return req.Text, nil
}
