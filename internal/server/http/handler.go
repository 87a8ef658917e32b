// Package http exposes the speech services over a chi router.
package http

import (
	"github.com/ekisa-team/voxgate/internal/model"
	"github.com/ekisa-team/voxgate/internal/service"
)

// ModelStatus reports model readiness for the health and index routes.
type ModelStatus interface {
	SynthesisReady() bool
	RecognitionReady() bool
	Snapshot() []model.ModelInstance
}

// ModelInfo names the configured models on the index route.
type ModelInfo struct {
	TTS     string `json:"tts"`
	ASR     string `json:"asr"`
	ASRPath string `json:"asr_path,omitempty"`
}

// Handler serves the API routes.
type Handler struct {
	tts            *service.TTS
	stt            *service.STT
	models         ModelStatus
	info           ModelInfo
	maxUploadBytes int64
}

// NewHandler creates a Handler. maxUploadBytes caps the multipart body of
// /asr; zero or less disables the cap.
func NewHandler(tts *service.TTS, stt *service.STT, models ModelStatus, info ModelInfo, maxUploadBytes int64) *Handler {
	return &Handler{
		tts:            tts,
		stt:            stt,
		models:         models,
		info:           info,
		maxUploadBytes: maxUploadBytes,
	}
}
