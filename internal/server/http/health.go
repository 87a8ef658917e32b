package http

import (
	"net/http"
	"time"

	"github.com/ekisa-team/voxgate/internal/model"
)

// HealthResponse reports whether the models are loaded.
type HealthResponse struct {
	Status    string `json:"status"     example:"healthy"`
	TTSLoaded bool   `json:"tts_loaded"`
	ASRLoaded bool   `json:"asr_loaded"`
	Timestamp string `json:"timestamp"  example:"2025-01-01T12:00:00Z"`
}

// IndexResponse describes the API.
type IndexResponse struct {
	Message   string            `json:"message"`
	Endpoints map[string]string `json:"endpoints"`
	Models    ModelInfo         `json:"models"`
}

// ModelsResponse lists the status of each configured model.
type ModelsResponse struct {
	Models []model.ModelInstance `json:"models"`
}

// handleHealth reports liveness. It never loads a model.
//
// @Summary  Health check
// @Tags     meta
// @Produce  json
// @Success  200  {object}  HealthResponse
// @Router   /health [get]
func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		TTSLoaded: h.models.SynthesisReady(),
		ASRLoaded: h.models.RecognitionReady(),
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// handleIndex lists the endpoints and configured models.
//
// @Summary  Service index
// @Tags     meta
// @Produce  json
// @Success  200  {object}  IndexResponse
// @Router   / [get]
func (h *Handler) handleIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, IndexResponse{
		Message: "TTS + ASR Streaming API",
		Endpoints: map[string]string{
			"/tts":    "POST - Text to Speech (WAV)",
			"/asr":    "POST - Speech to Text (JSON)",
			"/health": "GET - Health check",
			"/models": "GET - Model status",
		},
		Models: h.info,
	})
}

// handleModels returns the status record of each model.
//
// @Summary  Model status
// @Tags     meta
// @Produce  json
// @Success  200  {object}  ModelsResponse
// @Router   /models [get]
func (h *Handler) handleModels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ModelsResponse{Models: h.models.Snapshot()})
}
