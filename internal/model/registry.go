package model

import (
	"context"
	"errors"
	"sync"

	"github.com/ekisa-team/voxgate/internal/backend"
)

// Definition describes one model and how to load it.
type Definition[T any] struct {
	ID       string
	Provider backend.Provider
	Path     string
	// Serialize makes calls into the loaded model mutually exclusive.
	Serialize bool
	Load      func(ctx context.Context) (T, error)
}

// Registry owns the synthesis and recognition model handles. It is created
// once per process and shared by all requests.
type Registry struct {
	synthesis   *Handle[backend.Synthesizer]
	recognition *Handle[backend.Recognizer]

	obsMu     sync.RWMutex
	observers []func(Kind, bool)
}

// NewRegistry creates a registry. Nothing is loaded until the first Ensure
// call or Preload.
func NewRegistry(tts Definition[backend.Synthesizer], stt Definition[backend.Recognizer]) *Registry {
	r := &Registry{}

	var wrapTTS func(backend.Synthesizer) backend.Synthesizer
	if tts.Serialize {
		wrapTTS = func(s backend.Synthesizer) backend.Synthesizer { return &serialSynthesizer{inner: s} }
	}
	var wrapSTT func(backend.Recognizer) backend.Recognizer
	if stt.Serialize {
		wrapSTT = func(rec backend.Recognizer) backend.Recognizer { return &serialRecognizer{inner: rec} }
	}

	r.synthesis = newHandle(
		ModelInstance{ID: tts.ID, Kind: KindSynthesis, Provider: tts.Provider, Path: tts.Path},
		Loader[backend.Synthesizer](tts.Load), wrapTTS, r.publish,
	)
	r.recognition = newHandle(
		ModelInstance{ID: stt.ID, Kind: KindRecognition, Provider: stt.Provider, Path: stt.Path},
		Loader[backend.Recognizer](stt.Load), wrapSTT, r.publish,
	)
	return r
}

// EnsureSynthesisModel returns the shared synthesizer, loading it once.
func (r *Registry) EnsureSynthesisModel(ctx context.Context) (backend.Synthesizer, error) {
	return r.synthesis.Ensure(ctx)
}

// EnsureRecognitionModel returns the shared recognizer, loading it once.
func (r *Registry) EnsureRecognitionModel(ctx context.Context) (backend.Recognizer, error) {
	return r.recognition.Ensure(ctx)
}

// SynthesisReady reports whether the synthesizer is loaded.
func (r *Registry) SynthesisReady() bool {
	return r.synthesis.Ready()
}

// RecognitionReady reports whether the recognizer is loaded.
func (r *Registry) RecognitionReady() bool {
	return r.recognition.Ready()
}

// Ready reports readiness by kind.
func (r *Registry) Ready(kind Kind) bool {
	switch kind {
	case KindSynthesis:
		return r.SynthesisReady()
	case KindRecognition:
		return r.RecognitionReady()
	}
	return false
}

// Preload loads the models of the given kinds, or both when none are given,
// and returns the joined load errors.
func (r *Registry) Preload(ctx context.Context, kinds ...Kind) error {
	if len(kinds) == 0 {
		kinds = []Kind{KindSynthesis, KindRecognition}
	}

	var errs []error
	for _, kind := range kinds {
		var err error
		switch kind {
		case KindSynthesis:
			_, err = r.EnsureSynthesisModel(ctx)
		case KindRecognition:
			_, err = r.EnsureRecognitionModel(ctx)
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Snapshot returns the status records of both handles.
func (r *Registry) Snapshot() []ModelInstance {
	return []ModelInstance{r.synthesis.Instance(), r.recognition.Instance()}
}

// OnReady registers fn to be called whenever a handle becomes ready or is
// closed. fn is also called once immediately with the current state.
func (r *Registry) OnReady(fn func(kind Kind, ready bool)) {
	r.obsMu.Lock()
	r.observers = append(r.observers, fn)
	r.obsMu.Unlock()

	fn(KindSynthesis, r.SynthesisReady())
	fn(KindRecognition, r.RecognitionReady())
}

func (r *Registry) publish(kind Kind, ready bool) {
	r.obsMu.RLock()
	observers := append([]func(Kind, bool){}, r.observers...)
	r.obsMu.RUnlock()

	for _, fn := range observers {
		fn(kind, ready)
	}
}

// Close closes loaded models and returns the joined errors.
func (r *Registry) Close() error {
	return errors.Join(r.synthesis.Close(), r.recognition.Close())
}
