package model

import (
	"time"

	"github.com/ekisa-team/voxgate/internal/backend"
)

// Kind is the role a model plays in the gateway.
type Kind string

const (
	// KindSynthesis is a text-to-speech model.
	KindSynthesis Kind = "tts"

	// KindRecognition is a speech-to-text model.
	KindRecognition Kind = "stt"
)

// ModelStatus is the current loading status of a model.
type ModelStatus string

const (
	// ModelStatusUnloaded indicates that the model is not loaded.
	ModelStatusUnloaded ModelStatus = "unloaded"

	// ModelStatusLoading indicates that the model is being loaded.
	ModelStatusLoading ModelStatus = "loading"

	// ModelStatusLoaded indicates that the model is loaded.
	ModelStatusLoaded ModelStatus = "loaded"

	// ModelStatusFailed indicates that the last load attempt failed.
	ModelStatusFailed ModelStatus = "failed"
)

// ModelInstance is a point-in-time status record of a model handle.
type ModelInstance struct {
	LoadedAt *time.Time       `json:"loaded_at,omitempty"`
	ID       string           `json:"id"`
	Kind     Kind             `json:"kind"`
	Provider backend.Provider `json:"provider"`
	Path     string           `json:"path,omitempty"`
	Status   ModelStatus      `json:"status"`
	Error    string           `json:"error,omitempty"`
}

// SetStatus sets the status of the model instance.
func (mi *ModelInstance) SetStatus(status ModelStatus) {
	mi.Status = status
	if status == ModelStatusLoaded {
		now := time.Now()
		mi.LoadedAt = &now
		mi.Error = ""
	}
}

// SetError records a failed load.
func (mi *ModelInstance) SetError(err error) {
	mi.Status = ModelStatusFailed
	mi.Error = err.Error()
}
