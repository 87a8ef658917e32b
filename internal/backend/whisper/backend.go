// Package whisper implements a recognizer backed by the whisper.cpp server.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ekisa-team/voxgate/internal/backend"
	"github.com/ekisa-team/voxgate/mapsafe"
)

const (
	DefaultPort    = 8082
	defaultTimeout = 5 * time.Minute
)

// Backend implements backend.Recognizer for whisper.cpp.
type Backend struct {
	baseURL       string
	client        *http.Client
	serverManager *backend.ServerManager
	port          int
	params        map[string]any
}

// TranscriptionRequest holds the form fields sent to /inference.
type TranscriptionRequest struct {
	Language     string
	Temperature  float64
	BeamSize     int
	BestOf       int
	Translate    bool
	NoTimestamps bool
	Prompt       string
}

// TranscriptionResponse is the verbose_json body returned by whisper-server.
type TranscriptionResponse struct {
	Task             string              `json:"task,omitempty"`
	Language         string              `json:"language,omitempty"`
	Duration         float64             `json:"duration,omitempty"`
	Text             string              `json:"text,omitempty"`
	Segments         []TranscriptSegment `json:"segments,omitempty"`
	DetectedLanguage string              `json:"detected_language,omitempty"`
}

// TranscriptSegment is a single segment of the transcription.
type TranscriptSegment struct {
	ID           int     `json:"id"`
	Text         string  `json:"text"`
	Start        float64 `json:"start"`
	End          float64 `json:"end"`
	AvgLogprob   float64 `json:"avg_logprob,omitempty"`
	NoSpeechProb float64 `json:"no_speech_prob,omitempty"`
}

// Factory returns a backend.RecognizerFactory that starts managed servers
// through sm.
func Factory(sm *backend.ServerManager) backend.RecognizerFactory {
	return func(spec backend.Spec) (backend.Recognizer, error) {
		b, err := New(context.Background(), spec, sm)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
}

// New creates a whisper.cpp recognizer. With spec.Endpoint set it talks to an
// already running server; otherwise it starts whisper-server from
// spec.BinPath with the model at spec.Path and waits until it is ready.
func New(ctx context.Context, spec backend.Spec, sm *backend.ServerManager) (*Backend, error) {
	b := &Backend{
		client: &http.Client{
			Timeout: mapsafe.Seconds(spec.Params, "timeout_seconds", defaultTimeout),
		},
		port:   mapsafe.Get(spec.Params, "port", DefaultPort),
		params: spec.Params,
	}

	if spec.Endpoint != "" {
		b.baseURL = strings.TrimSuffix(spec.Endpoint, "/")
		return b, nil
	}

	if spec.Path == "" {
		return nil, errors.New("whisper: model path or endpoint is required")
	}
	if sm == nil {
		return nil, errors.New("whisper: a server manager is required to start whisper-server")
	}

	host := mapsafe.Get(spec.Params, "host", "127.0.0.1")
	args := []string{
		"--model", spec.Path,
		"--host", host,
		"--port", strconv.Itoa(b.port),
	}
	if threads := mapsafe.Get(spec.Params, "threads", 0); threads > 0 {
		args = append(args, "--threads", strconv.Itoa(threads))
	}

	srv, err := sm.StartServer(ctx, backend.ServerConfig{
		Name:         string(backend.ProviderWhisperCPP),
		BinPath:      spec.BinPath,
		Host:         host,
		Args:         args,
		Port:         b.port,
		HealthPath:   "/", // whisper-server has no dedicated health endpoint
		ReadyTimeout: mapsafe.Seconds(spec.Params, "ready_timeout_seconds", 30*time.Second),
	})
	if err != nil {
		return nil, fmt.Errorf("whisper: failed to start server: %w", err)
	}

	b.serverManager = sm
	b.baseURL = srv.BaseURL
	return b, nil
}

// Provider returns the backend identifier.
func (b *Backend) Provider() backend.Provider {
	return backend.ProviderWhisperCPP
}

// Close stops the managed server, if any.
func (b *Backend) Close() error {
	if b.serverManager == nil {
		return nil
	}
	return b.serverManager.StopServer(string(backend.ProviderWhisperCPP), b.port)
}

// Transcribe uploads the file at path to the /inference endpoint.
func (b *Backend) Transcribe(ctx context.Context, path string, opts backend.TranscribeOptions) (*backend.Transcription, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("whisper: failed to open audio: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("whisper: failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("whisper: failed to copy audio: %w", err)
	}

	if err := addTranscriptionParams(writer, b.buildTranscriptionRequest(opts)); err != nil {
		return nil, fmt.Errorf("whisper: failed to add parameters: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("whisper: failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/inference", &body)
	if err != nil {
		return nil, fmt.Errorf("whisper: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whisper: failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("whisper: request failed with status code %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var tr TranscriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("whisper: failed to decode response: %w", err)
	}

	return toTranscription(&tr), nil
}

func toTranscription(tr *TranscriptionResponse) *backend.Transcription {
	out := &backend.Transcription{
		Text:     tr.Text,
		Language: tr.Language,
	}
	if out.Language == "" {
		out.Language = tr.DetectedLanguage
	}
	for _, s := range tr.Segments {
		out.Segments = append(out.Segments, backend.Segment{
			ID:    s.ID,
			Start: s.Start,
			End:   s.End,
			Text:  s.Text,
		})
	}
	return out
}

// buildTranscriptionRequest merges per call options over configured params.
func (b *Backend) buildTranscriptionRequest(opts backend.TranscribeOptions) *TranscriptionRequest {
	p := b.params

	req := &TranscriptionRequest{
		Language:     mapsafe.Get(p, "language", ""),
		Temperature:  mapsafe.Get(p, "temperature", 0.0),
		Translate:    mapsafe.Get(p, "translate", false),
		NoTimestamps: mapsafe.Get(p, "no_timestamps", false),
		Prompt:       mapsafe.Get(p, "prompt", ""),
		BeamSize:     mapsafe.Get(p, "beam_size", -1),
		BestOf:       mapsafe.Get(p, "best_of", 2),
	}

	if opts.Language != "" {
		req.Language = opts.Language
	}
	switch opts.Task {
	case backend.TaskTranslate:
		req.Translate = true
	case backend.TaskTranscribe:
		req.Translate = false
	}

	return req
}

// addTranscriptionParams adds transcription parameters to the multipart writer.
func addTranscriptionParams(w *multipart.Writer, req *TranscriptionRequest) error {
	params := map[string]string{
		"response_format": "verbose_json",
		"temperature":     strconv.FormatFloat(req.Temperature, 'f', 2, 64),
		"translate":       strconv.FormatBool(req.Translate),
		"no_timestamps":   strconv.FormatBool(req.NoTimestamps),
	}

	if req.Language != "" {
		params["language"] = req.Language
	}
	if req.BeamSize >= 0 {
		params["beam_size"] = strconv.Itoa(req.BeamSize)
	}
	if req.BestOf > 0 {
		params["best_of"] = strconv.Itoa(req.BestOf)
	}
	if req.Prompt != "" {
		params["prompt"] = req.Prompt
	}

	for key, value := range params {
		if err := w.WriteField(key, value); err != nil {
			return fmt.Errorf("failed to write field %s: %w", key, err)
		}
	}

	return nil
}
