package model

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ekisa-team/voxgate/internal/audio"
	"github.com/ekisa-team/voxgate/internal/backend"
	"github.com/ekisa-team/voxgate/internal/config"
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

func (m *MockSynthesizer) Close() error {
	return m.Called().Error(0)
}

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

func (m *MockRecognizer) Close() error {
	return m.Called().Error(0)
}

// --- Helpers ---

type counter struct {
	calls atomic.Int32
}

func newTestRegistry(synth backend.Synthesizer, rec backend.Recognizer, ttsCount, sttCount *counter, serialize bool) *Registry {
	return NewRegistry(
		Definition[backend.Synthesizer]{
			ID: "en_US-lessac-medium", Provider: backend.ProviderPiper, Serialize: serialize,
			Load: func(context.Context) (backend.Synthesizer, error) {
				ttsCount.calls.Add(1)
				return synth, nil
			},
		},
		Definition[backend.Recognizer]{
			ID: "ggml-small.en", Provider: backend.ProviderWhisperCPP, Serialize: serialize,
			Load: func(context.Context) (backend.Recognizer, error) {
				sttCount.calls.Add(1)
				return rec, nil
			},
		},
	)
}

// --- Tests ---

func TestRegistry_EnsureIsIdempotent(t *testing.T) {
	var ttsCount, sttCount counter
	synth, rec := new(MockSynthesizer), new(MockRecognizer)
	reg := newTestRegistry(synth, rec, &ttsCount, &sttCount, false)

	assert.False(t, reg.SynthesisReady())

	first, err := reg.EnsureSynthesisModel(context.Background())
	require.NoError(t, err)
	second, err := reg.EnsureSynthesisModel(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Same(t, synth, first)
	assert.Equal(t, int32(1), ttsCount.calls.Load())
	assert.True(t, reg.SynthesisReady())
	assert.False(t, reg.RecognitionReady())
	assert.Equal(t, int32(0), sttCount.calls.Load())
}

func TestRegistry_ConcurrentFirstUse(t *testing.T) {
	var ttsCount, sttCount counter
	reg := newTestRegistry(new(MockSynthesizer), new(MockRecognizer), &ttsCount, &sttCount, true)

	const n = 50
	got := make([]backend.Recognizer, n)

	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := reg.EnsureRecognitionModel(context.Background())
			assert.NoError(t, err)
			got[i] = r
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), sttCount.calls.Load())
	for _, r := range got {
		assert.Same(t, got[0], r)
	}
}

func TestRegistry_FailureLeavesHandleUnset(t *testing.T) {
	var attempts int
	synth := new(MockSynthesizer)

	reg := NewRegistry(
		Definition[backend.Synthesizer]{
			ID: "glow-tts",
			Load: func(context.Context) (backend.Synthesizer, error) {
				attempts++
				if attempts == 1 {
					return nil, errors.New("weights missing")
				}
				return synth, nil
			},
		},
		Definition[backend.Recognizer]{},
	)

	_, err := reg.EnsureSynthesisModel(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrModelUnavailable)
	assert.ErrorContains(t, err, "weights missing")
	assert.False(t, reg.SynthesisReady())

	snap := reg.Snapshot()
	assert.Equal(t, ModelStatusFailed, snap[0].Status)
	assert.Equal(t, "weights missing", snap[0].Error)

	s, err := reg.EnsureSynthesisModel(context.Background())
	require.NoError(t, err)
	assert.Same(t, synth, s)
	assert.Equal(t, 2, attempts)

	snap = reg.Snapshot()
	assert.Equal(t, ModelStatusLoaded, snap[0].Status)
	assert.Empty(t, snap[0].Error)
	assert.NotNil(t, snap[0].LoadedAt)
}

func TestRegistry_NotConfigured(t *testing.T) {
	reg := NewRegistry(Definition[backend.Synthesizer]{}, Definition[backend.Recognizer]{})

	_, err := reg.EnsureRecognitionModel(context.Background())
	assert.ErrorIs(t, err, ErrModelUnavailable)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestRegistry_SerializedCallsAreExclusive(t *testing.T) {
	var ttsCount, sttCount counter
	synth := new(MockSynthesizer)

	var active, maxActive atomic.Int32
	synth.On("Synthesize", mock.Anything, "hi").Run(func(mock.Arguments) {
		n := active.Add(1)
		for {
			m := maxActive.Load()
			if n <= m || maxActive.CompareAndSwap(m, n) {
				break
			}
		}
		active.Add(-1)
	}).Return(&audio.Waveform{Samples: []float32{0}}, nil)

	reg := newTestRegistry(synth, new(MockRecognizer), &ttsCount, &sttCount, true)
	s, err := reg.EnsureSynthesisModel(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, synth, s)
	assert.Equal(t, backend.ProviderPiper, s.Provider())

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Synthesize(context.Background(), "hi")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxActive.Load())
	synth.AssertNumberOfCalls(t, "Synthesize", 20)
}

func TestRegistry_OnReadyAndClose(t *testing.T) {
	var ttsCount, sttCount counter
	synth, rec := new(MockSynthesizer), new(MockRecognizer)
	synth.On("Close").Return(nil).Once()
	rec.On("Close").Return(errors.New("close failed")).Once()

	reg := newTestRegistry(synth, rec, &ttsCount, &sttCount, false)

	var mu sync.Mutex
	events := map[Kind][]bool{}
	reg.OnReady(func(kind Kind, ready bool) {
		mu.Lock()
		defer mu.Unlock()
		events[kind] = append(events[kind], ready)
	})

	require.NoError(t, reg.Preload(context.Background()))
	assert.True(t, reg.Ready(KindSynthesis))
	assert.True(t, reg.Ready(KindRecognition))

	err := reg.Close()
	assert.EqualError(t, err, "close failed")
	assert.False(t, reg.SynthesisReady())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{false, true, false}, events[KindSynthesis])
	assert.Equal(t, []bool{false, true, false}, events[KindRecognition])

	synth.AssertExpectations(t)
	rec.AssertExpectations(t)
}

func TestRegistry_EnsureDuringClose(t *testing.T) {
	var ttsCount, sttCount counter
	synth := new(MockSynthesizer)
	synth.On("Close").Return(nil).Maybe()

	reg := newTestRegistry(synth, new(MockRecognizer), &ttsCount, &sttCount, false)
	require.NoError(t, reg.Preload(context.Background(), KindSynthesis))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				s, err := reg.EnsureSynthesisModel(context.Background())
				if assert.NoError(t, err) {
					assert.Same(t, synth, s)
				}
			}
		}()
	}
	for range 20 {
		assert.NoError(t, reg.Close())
	}
	wg.Wait()

	assert.GreaterOrEqual(t, ttsCount.calls.Load(), int32(1))
}

func TestNewRegistryFromConfig(t *testing.T) {
	backends := backend.NewRegistry()
	synth := new(MockSynthesizer)

	var gotPath string
	require.NoError(t, backends.RegisterSynthesizer(backend.ProviderPiper, func(spec backend.Spec) (backend.Synthesizer, error) {
		gotPath = spec.Path
		return synth, nil
	}))

	cfg := &config.Config{
		Storage: config.StorageConfig{ModelsDir: "/srv/models"},
		Models: config.ModelsConfig{
			TTS: config.ModelConfig{ID: "en_US-lessac-medium", Backend: "piper", Path: "piper/en_US-lessac-medium.onnx"},
			STT: config.ModelConfig{ID: "small.en", Backend: "whisper.cpp"},
		},
	}

	reg := NewRegistryFromConfig(cfg, backends)

	_, err := reg.EnsureSynthesisModel(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/srv/models/piper/en_US-lessac-medium.onnx", gotPath)

	_, err = reg.EnsureRecognitionModel(context.Background())
	assert.ErrorIs(t, err, ErrModelUnavailable)
	assert.ErrorIs(t, err, backend.ErrNotFound)

	snap := reg.Snapshot()
	assert.Equal(t, "small.en", snap[1].ID)
	assert.Equal(t, KindRecognition, snap[1].Kind)
}
