package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ekisa-team/voxgate/internal/audio"
	"github.com/ekisa-team/voxgate/internal/backend"
	"github.com/ekisa-team/voxgate/internal/config"
	"github.com/ekisa-team/voxgate/internal/model"
	"github.com/ekisa-team/voxgate/internal/service"
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

func (m *MockSynthesizer) Close() error { return nil }

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

func (m *MockRecognizer) Close() error { return nil }

// fakeModels hands out fixed backends and counts the lookups.
type fakeModels struct {
	synth    backend.Synthesizer
	rec      backend.Recognizer
	loadErr  error
	ttsCalls int
	asrCalls int
}

func (f *fakeModels) EnsureSynthesisModel(context.Context) (backend.Synthesizer, error) {
	f.ttsCalls++
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.synth, nil
}

func (f *fakeModels) EnsureRecognitionModel(context.Context) (backend.Recognizer, error) {
	f.asrCalls++
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.rec, nil
}

func (f *fakeModels) SynthesisReady() bool   { return f.ttsCalls > 0 && f.loadErr == nil }
func (f *fakeModels) RecognitionReady() bool { return f.asrCalls > 0 && f.loadErr == nil }

func (f *fakeModels) Snapshot() []model.ModelInstance {
	return []model.ModelInstance{
		{ID: "en_US-lessac-medium", Kind: model.KindSynthesis, Provider: backend.ProviderPiper, Status: model.ModelStatusUnloaded},
		{ID: "base.en", Kind: model.KindRecognition, Provider: backend.ProviderWhisperCPP, Status: model.ModelStatusUnloaded},
	}
}

type testEnv struct {
	router  http.Handler
	models  *fakeModels
	synth   *MockSynthesizer
	rec     *MockRecognizer
	tempDir string
	workDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		synth:   new(MockSynthesizer),
		rec:     new(MockRecognizer),
		tempDir: t.TempDir(),
		workDir: filepath.Join(t.TempDir(), "temp_audio"),
	}
	env.models = &fakeModels{synth: env.synth, rec: env.rec}

	tts := service.NewTTS(env.models, env.tempDir, service.DefaultLimits())
	stt := service.NewSTT(env.models, env.tempDir, env.workDir, service.DefaultLimits(), service.DefaultRecognitionPolicy())

	h := NewHandler(tts, stt, env.models, ModelInfo{TTS: "en_US-lessac-medium", ASR: "base.en", ASRPath: "/models/ggml-base.en.bin"}, 1<<20)
	env.router = NewRouter(h, RouterOptions{
		AllowedOrigins: config.DefaultAllowedOrigins,
		Swagger:        true,
	})
	return env
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) assertNoArtifacts(t *testing.T) {
	t.Helper()

	for _, dir := range []string{e.tempDir, e.workDir} {
		entries, err := os.ReadDir(dir)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		require.NoError(t, err)
		assert.Empty(t, entries, "leftover files in %s", dir)
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func jsonRequest(t *testing.T, path string, v any) *http.Request {
	t.Helper()

	data, err := json.Marshal(v)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func uploadRequest(t *testing.T, filename string, data []byte) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("audio", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/asr", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func testWAV() []byte {
	return audio.EncodeWAV(audio.Waveform{Samples: make([]float32, 16000), SampleRate: 16000}).Bytes()
}

func TestTTS_HelloWorld(t *testing.T) {
	env := newTestEnv(t)
	env.synth.On("Synthesize", mock.Anything, "Hello world").
		Return(&audio.Waveform{Samples: make([]float32, 2205), SampleRate: 22050}, nil).Once()

	rec := env.do(jsonRequest(t, "/tts", SynthesisRequest{Text: "Hello world"}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/wav", rec.Header().Get("Content-Type"))
	assert.Equal(t, "inline; filename=speech.wav", rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "no-cache, no-store, must-revalidate", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "no-cache", rec.Header().Get("Pragma"))
	assert.Equal(t, "0", rec.Header().Get("Expires"))
	assert.Equal(t, fmt.Sprint(rec.Body.Len()), rec.Header().Get("Content-Length"))
	assert.Greater(t, rec.Body.Len(), audio.HeaderSize)

	info, err := audio.Inspect(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 1, info.Channels)
	assert.Equal(t, 16, info.BitsPerSample)

	env.assertNoArtifacts(t)
}

func TestTTS_FormField(t *testing.T) {
	env := newTestEnv(t)
	env.synth.On("Synthesize", mock.Anything, "Hola").
		Return(&audio.Waveform{Samples: []float32{0.1, 0.2}, SampleRate: 22050}, nil).Once()

	form := url.Values{"text": {"  Hola  "}}
	req := httptest.NewRequest(http.MethodPost, "/tts", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := env.do(req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTTS_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"empty", "", "No text provided"},
		{"whitespace", "  \n\t", "No text provided"},
		{"too long", strings.Repeat("a", 1001), "Text too long (max 1000 chars)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			rec := env.do(jsonRequest(t, "/tts", SynthesisRequest{Text: tt.text}))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, decodeError(t, rec).Error)
			assert.Zero(t, env.models.ttsCalls)
			env.synth.AssertNotCalled(t, "Synthesize", mock.Anything, mock.Anything)
		})
	}
}

func TestTTS_InvalidJSON(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/tts", strings.NewReader("{text:"))
	req.Header.Set("Content-Type", "application/json")

	rec := env.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid JSON body", decodeError(t, rec).Error)
}

func TestTTS_ModelUnavailable(t *testing.T) {
	env := newTestEnv(t)
	env.models.loadErr = fmt.Errorf("%w: tts model %q: %w", model.ErrModelUnavailable, "lessac", errors.New("onnx file missing"))

	rec := env.do(jsonRequest(t, "/tts", SynthesisRequest{Text: "Hello"}))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, strings.HasPrefix(decodeError(t, rec).Error, "TTS model failed to load: "))
}

func TestTTS_BothStrategiesFail(t *testing.T) {
	env := newTestEnv(t)
	env.synth.On("Synthesize", mock.Anything, "Hello").Return(nil, errors.New("no in-memory output")).Once()
	env.synth.On("SynthesizeToFile", mock.Anything, "Hello", mock.Anything).Return(errors.New("disk full")).Once()

	rec := env.do(jsonRequest(t, "/tts", SynthesisRequest{Text: "Hello"}))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "disk full", decodeError(t, rec).Error)
	env.assertNoArtifacts(t)
}

func TestASR_ValidWAV(t *testing.T) {
	env := newTestEnv(t)
	env.rec.On("Transcribe", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.HasSuffix(p, ".wav")
	}), backend.TranscribeOptions{Language: "en", Task: "transcribe"}).
		Return(&backend.Transcription{Text: " hello there ", Language: "en"}, nil).Once()

	rec := env.do(uploadRequest(t, "clip.wav", testWAV()))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var res service.TranscriptResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "hello there", res.Text)
	assert.Equal(t, "en", res.Language)
	assert.Equal(t, service.StrategyPrimary, res.Method)

	env.assertNoArtifacts(t)
}

func TestASR_ValidationErrors(t *testing.T) {
	t.Run("too small", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.do(uploadRequest(t, "blob.webm", make([]byte, 50)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Audio file too small", decodeError(t, rec).Error)
		assert.Zero(t, env.models.asrCalls)
	})

	t.Run("no file selected", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.do(uploadRequest(t, "", make([]byte, 500)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "No audio file selected", decodeError(t, rec).Error)
	})

	t.Run("missing field", func(t *testing.T) {
		env := newTestEnv(t)

		body := &bytes.Buffer{}
		w := multipart.NewWriter(body)
		require.NoError(t, w.WriteField("note", "nothing here"))
		require.NoError(t, w.Close())
		req := httptest.NewRequest(http.MethodPost, "/asr", body)
		req.Header.Set("Content-Type", w.FormDataContentType())

		rec := env.do(req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "No audio file provided", decodeError(t, rec).Error)
	})

	t.Run("not multipart", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.do(jsonRequest(t, "/asr", map[string]string{"audio": "x"}))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "No audio file provided", decodeError(t, rec).Error)
		assert.Zero(t, env.models.asrCalls)
	})
}

func TestASR_UploadTooLarge(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(uploadRequest(t, "big.webm", make([]byte, 2<<20)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Zero(t, env.models.asrCalls)
}

func TestASR_BothStrategiesFail(t *testing.T) {
	env := newTestEnv(t)
	env.rec.On("Transcribe", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New(strings.Repeat("ffmpeg could not decode input ", 30))).Twice()

	rec := env.do(uploadRequest(t, "recording.webm", bytes.Repeat([]byte{0x1a, 0x45}, 300)))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.True(t, strings.HasPrefix(body.Error, "ASR processing failed: ffmpeg could not decode input"))
	assert.NotEmpty(t, body.Traceback)
	assert.LessOrEqual(t, utf8.RuneCountInString(body.Traceback), 500)

	env.rec.AssertNumberOfCalls(t, "Transcribe", 2)
	env.assertNoArtifacts(t)
}

func TestASR_ModelUnavailable(t *testing.T) {
	env := newTestEnv(t)
	env.models.loadErr = fmt.Errorf("%w: stt model %q: %w", model.ErrModelUnavailable, "base.en", errors.New("server did not start"))

	rec := env.do(uploadRequest(t, "clip.wav", testWAV()))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "ASR model not initialized", decodeError(t, rec).Error)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.False(t, body.TTSLoaded)
	assert.False(t, body.ASRLoaded)
	assert.NotEmpty(t, body.Timestamp)
	assert.Zero(t, env.models.ttsCalls, "health must not load models")
}

func TestIndexAndModels(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var index IndexResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &index))
	assert.Equal(t, "TTS + ASR Streaming API", index.Message)
	assert.Contains(t, index.Endpoints, "/tts")
	assert.Equal(t, "base.en", index.Models.ASR)
	assert.Equal(t, "/models/ggml-base.en.bin", index.Models.ASRPath)
	assert.Contains(t, rec.Body.String(), `"asr_path":"/models/ggml-base.en.bin"`)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/models", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var models ModelsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &models))
	assert.Len(t, models.Models, 2)
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/tts", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")

	rec := env.do(req)
	assert.Less(t, rec.Code, 300)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = env.do(req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSwagger(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"/tts"`)
}

func TestRateLimit(t *testing.T) {
	h := NewHandler(nil, nil, &fakeModels{}, ModelInfo{}, 0)
	router := NewRouter(h, RouterOptions{RequestsPerMinute: 2})

	codes := make([]int, 0, 3)
	for range 3 {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
