// Package openai implements speech synthesis and recognition against any
// server that speaks the OpenAI audio API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ekisa-team/voxgate/internal/audio"
	"github.com/ekisa-team/voxgate/internal/backend"
	"github.com/ekisa-team/voxgate/internal/envvar"
	"github.com/ekisa-team/voxgate/mapsafe"
)

// SampleRate is the rate of the raw PCM returned by the speech endpoint.
const SampleRate = 24000

// newClient builds a go-openai client from spec. The key comes from the
// api_key param or OPENAI_API_KEY. Local compatible servers usually accept
// any key, so a missing key is only an error for the public endpoint.
func newClient(spec backend.Spec) (*openai.Client, error) {
	key := mapsafe.Get(spec.Params, "api_key", "")
	if key == "" {
		key = os.Getenv(envvar.OpenAIAPIKey)
	}
	if key == "" && spec.Endpoint == "" {
		return nil, errors.New("openai: api key is required when no endpoint is configured")
	}

	cfg := openai.DefaultConfig(key)
	if spec.Endpoint != "" {
		cfg.BaseURL = strings.TrimSuffix(spec.Endpoint, "/")
	}
	return openai.NewClientWithConfig(cfg), nil
}

// Synthesizer implements backend.Synthesizer with the speech endpoint.
type Synthesizer struct {
	client *openai.Client
	model  string
	voice  string
	speed  float64
}

// NewSynthesizer creates a synthesizer. spec.Name is the speech model.
func NewSynthesizer(spec backend.Spec) (*Synthesizer, error) {
	client, err := newClient(spec)
	if err != nil {
		return nil, err
	}

	model := spec.Name
	if model == "" {
		model = string(openai.TTSModel1)
	}

	return &Synthesizer{
		client: client,
		model:  model,
		voice:  mapsafe.Get(spec.Params, "voice", string(openai.VoiceAlloy)),
		speed:  mapsafe.Get(spec.Params, "speed", 0.0),
	}, nil
}

// Provider returns the backend identifier.
func (s *Synthesizer) Provider() backend.Provider {
	return backend.ProviderOpenAI
}

// Synthesize requests raw PCM and decodes it in memory.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) (*audio.Waveform, error) {
	pcm, err := s.speech(ctx, text, openai.SpeechResponseFormatPcm)
	if err != nil {
		return nil, err
	}
	if len(pcm) < 2 {
		return nil, errors.New("openai: no audio produced")
	}

	w := audio.PCM16ToWaveform(pcm, SampleRate)
	return &w, nil
}

// SynthesizeToFile requests a WAV container and writes it to path.
func (s *Synthesizer) SynthesizeToFile(ctx context.Context, text, path string) error {
	wav, err := s.speech(ctx, text, openai.SpeechResponseFormatWav)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, wav, 0o600); err != nil {
		return fmt.Errorf("openai: writing %s: %w", path, err)
	}
	return nil
}

func (s *Synthesizer) speech(ctx context.Context, text string, format openai.SpeechResponseFormat) ([]byte, error) {
	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.model),
		Input:          text,
		Voice:          openai.SpeechVoice(s.voice),
		ResponseFormat: format,
		Speed:          s.speed,
	})
	if err != nil {
		return nil, fmt.Errorf("openai: speech request failed: %w", err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("openai: reading speech response: %w", err)
	}
	return data, nil
}

// Close is a no-op.
func (s *Synthesizer) Close() error { return nil }

// Recognizer implements backend.Recognizer with the transcription and
// translation endpoints.
type Recognizer struct {
	client *openai.Client
	model  string
	prompt string
}

// NewRecognizer creates a recognizer. spec.Name is the transcription model.
func NewRecognizer(spec backend.Spec) (*Recognizer, error) {
	client, err := newClient(spec)
	if err != nil {
		return nil, err
	}

	model := spec.Name
	if model == "" {
		model = openai.Whisper1
	}

	return &Recognizer{
		client: client,
		model:  model,
		prompt: mapsafe.Get(spec.Params, "prompt", ""),
	}, nil
}

// Provider returns the backend identifier.
func (r *Recognizer) Provider() backend.Provider {
	return backend.ProviderOpenAI
}

// Transcribe uploads the file at path. The translate task goes to the
// translation endpoint, which ignores the language hint.
func (r *Recognizer) Transcribe(ctx context.Context, path string, opts backend.TranscribeOptions) (*backend.Transcription, error) {
	req := openai.AudioRequest{
		Model:    r.model,
		FilePath: path,
		Prompt:   r.prompt,
		Language: opts.Language,
		Format:   openai.AudioResponseFormatVerboseJSON,
	}

	var (
		resp openai.AudioResponse
		err  error
	)
	if opts.Task == backend.TaskTranslate {
		req.Language = ""
		resp, err = r.client.CreateTranslation(ctx, req)
	} else {
		resp, err = r.client.CreateTranscription(ctx, req)
	}
	if err != nil {
		return nil, fmt.Errorf("openai: transcription request failed: %w", err)
	}

	out := &backend.Transcription{
		Text:     resp.Text,
		Language: resp.Language,
	}
	for _, seg := range resp.Segments {
		out.Segments = append(out.Segments, backend.Segment{
			ID:    seg.ID,
			Start: seg.Start,
			End:   seg.End,
			Text:  seg.Text,
		})
	}
	return out, nil
}

// Close is a no-op.
func (r *Recognizer) Close() error { return nil }
