package model

import (
	"context"
	"path/filepath"

	"github.com/ekisa-team/voxgate/internal/backend"
	"github.com/ekisa-team/voxgate/internal/config"
)

// NewRegistryFromConfig creates a registry whose loaders build backends
// through backends. Relative model paths resolve against storage.models_dir.
func NewRegistryFromConfig(cfg *config.Config, backends *backend.Registry) *Registry {
	ttsSpec := resolveSpec(cfg.Models.TTS.Spec(), cfg.Storage.ModelsDir)
	sttSpec := resolveSpec(cfg.Models.STT.Spec(), cfg.Storage.ModelsDir)

	return NewRegistry(
		Definition[backend.Synthesizer]{
			ID:        ttsSpec.Name,
			Provider:  ttsSpec.Provider,
			Path:      ttsSpec.Path,
			Serialize: cfg.Models.TTS.SerializeCalls(),
			Load: func(context.Context) (backend.Synthesizer, error) {
				return backends.NewSynthesizer(ttsSpec)
			},
		},
		Definition[backend.Recognizer]{
			ID:        sttSpec.Name,
			Provider:  sttSpec.Provider,
			Path:      sttSpec.Path,
			Serialize: cfg.Models.STT.SerializeCalls(),
			Load: func(context.Context) (backend.Recognizer, error) {
				return backends.NewRecognizer(sttSpec)
			},
		},
	)
}

func resolveSpec(spec backend.Spec, modelsDir string) backend.Spec {
	if spec.Path != "" && !filepath.IsAbs(spec.Path) && modelsDir != "" {
		spec.Path = filepath.Join(modelsDir, spec.Path)
	}
	return spec
}
