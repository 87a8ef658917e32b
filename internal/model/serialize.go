package model

import (
	"context"
	"sync"

	"github.com/ekisa-team/voxgate/internal/audio"
	"github.com/ekisa-team/voxgate/internal/backend"
)

// serialSynthesizer allows one call at a time into the wrapped model.
type serialSynthesizer struct {
	mu    sync.Mutex
	inner backend.Synthesizer
}

func (s *serialSynthesizer) Provider() backend.Provider { return s.inner.Provider() }

func (s *serialSynthesizer) Synthesize(ctx context.Context, text string) (*audio.Waveform, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inner.Synthesize(ctx, text)
}

func (s *serialSynthesizer) SynthesizeToFile(ctx context.Context, text, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inner.SynthesizeToFile(ctx, text, path)
}

func (s *serialSynthesizer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inner.Close()
}

// serialRecognizer allows one call at a time into the wrapped model.
type serialRecognizer struct {
	mu    sync.Mutex
	inner backend.Recognizer
}

func (r *serialRecognizer) Provider() backend.Provider { return r.inner.Provider() }

func (r *serialRecognizer) Transcribe(ctx context.Context, path string, opts backend.TranscribeOptions) (*backend.Transcription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.inner.Transcribe(ctx, path, opts)
}

func (r *serialRecognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.inner.Close()
}
