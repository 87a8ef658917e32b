package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ekisa-team/voxgate/internal/audio"
	"github.com/ekisa-team/voxgate/internal/backend"
)

// --- Mock types ---

type MockSynthesizer struct {
	mock.Mock
}

func (m *MockSynthesizer) Provider() backend.Provider { return backend.ProviderPiper }

func (m *MockSynthesizer) Synthesize(ctx context.Context, text string) (*audio.Waveform, error) {
	args := m.Called(ctx, text)
	if w, ok := args.Get(0).(*audio.Waveform); ok {
		return w, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSynthesizer) SynthesizeToFile(ctx context.Context, text, path string) error {
	return m.Called(ctx, text, path).Error(0)
}

func (m *MockSynthesizer) Close() error { return m.Called().Error(0) }

type MockRecognizer struct {
	mock.Mock
}

func (m *MockRecognizer) Provider() backend.Provider { return backend.ProviderWhisperCPP }

func (m *MockRecognizer) Transcribe(ctx context.Context, path string, opts backend.TranscribeOptions) (*backend.Transcription, error) {
	args := m.Called(ctx, path, opts)
	if tr, ok := args.Get(0).(*backend.Transcription); ok {
		return tr, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRecognizer) Close() error { return m.Called().Error(0) }

type MockModels struct {
	mock.Mock
}

func (m *MockModels) EnsureSynthesisModel(ctx context.Context) (backend.Synthesizer, error) {
	args := m.Called(ctx)
	if s, ok := args.Get(0).(backend.Synthesizer); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockModels) EnsureRecognitionModel(ctx context.Context) (backend.Recognizer, error) {
	args := m.Called(ctx)
	if r, ok := args.Get(0).(backend.Recognizer); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}
