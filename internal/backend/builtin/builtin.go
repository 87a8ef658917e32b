// Package builtin registers the speech backends shipped with voxgate.
package builtin

import (
	"errors"

	"github.com/ekisa-team/voxgate/internal/backend"
	"github.com/ekisa-team/voxgate/internal/backend/openai"
	"github.com/ekisa-team/voxgate/internal/backend/piper"
	"github.com/ekisa-team/voxgate/internal/backend/whisper"
	"github.com/ekisa-team/voxgate/internal/backend/wyoming"
)

// Register adds every built-in factory to reg. Managed whisper.cpp servers
// are started through sm.
func Register(reg *backend.Registry, sm *backend.ServerManager) error {
	return errors.Join(
		reg.RegisterSynthesizer(backend.ProviderPiper, func(spec backend.Spec) (backend.Synthesizer, error) {
			b, err := piper.New(spec)
			if err != nil {
				return nil, err
			}
			return b, nil
		}),
		reg.RegisterSynthesizer(backend.ProviderWyoming, func(spec backend.Spec) (backend.Synthesizer, error) {
			b, err := wyoming.New(spec)
			if err != nil {
				return nil, err
			}
			return b, nil
		}),
		reg.RegisterSynthesizer(backend.ProviderOpenAI, func(spec backend.Spec) (backend.Synthesizer, error) {
			s, err := openai.NewSynthesizer(spec)
			if err != nil {
				return nil, err
			}
			return s, nil
		}),
		reg.RegisterRecognizer(backend.ProviderWhisperCPP, whisper.Factory(sm)),
		reg.RegisterRecognizer(backend.ProviderOpenAI, func(spec backend.Spec) (backend.Recognizer, error) {
			r, err := openai.NewRecognizer(spec)
			if err != nil {
				return nil, err
			}
			return r, nil
		}),
	)
}

// NewRegistry returns a backend registry with the built-in factories.
func NewRegistry(sm *backend.ServerManager) *backend.Registry {
	reg := backend.NewRegistry()
	// Registering into a fresh registry cannot collide.
	_ = Register(reg, sm)
	return reg
}
