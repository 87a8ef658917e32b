// Package backend defines the contracts between the gateway and the external
// speech models, plus the process and factory plumbing the model backends
// share.
package backend

import (
	"context"

	"github.com/ekisa-team/voxgate/internal/audio"
)

// Provider is a string identifier for a backend provider.
type Provider string

const (
	ProviderPiper      Provider = "piper"
	ProviderWyoming    Provider = "wyoming"
	ProviderWhisperCPP Provider = "whisper.cpp"
	ProviderOpenAI     Provider = "openai"
)

// Task values accepted by TranscribeOptions.
const (
	TaskTranscribe = "transcribe"
	TaskTranslate  = "translate"
)

// Synthesizer converts text to speech.
type Synthesizer interface {
	// Provider returns the backend identifier.
	Provider() Provider

	// Synthesize returns the generated waveform held in memory. Backends that
	// can only write to a file return ErrUnsupported.
	Synthesize(ctx context.Context, text string) (*audio.Waveform, error)

	// SynthesizeToFile writes a WAV file at path.
	SynthesizeToFile(ctx context.Context, text, path string) error

	// Close releases resources held by the backend.
	Close() error
}

// Recognizer converts speech stored in a file to text.
type Recognizer interface {
	// Provider returns the backend identifier.
	Provider() Provider

	// Transcribe decodes the audio file at path. The file is closed and
	// complete when this is called.
	Transcribe(ctx context.Context, path string, opts TranscribeOptions) (*Transcription, error)

	// Close releases resources held by the backend.
	Close() error
}

// TranscribeOptions are decoding hints. Zero values let the model decide.
type TranscribeOptions struct {
	Language string
	Task     string
}

// Transcription is the structured output of a recognizer.
type Transcription struct {
	Text     string    `json:"text"`
	Language string    `json:"language,omitempty"`
	Segments []Segment `json:"segments,omitempty"`
}

// Segment is a timed span of a transcription, in seconds.
type Segment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Spec describes how to build one backend instance.
type Spec struct {
	Provider Provider
	// Name is the model identifier reported in status output.
	Name string
	// Path is the model file, when the backend loads one.
	Path string
	// BinPath is the executable for process based backends.
	BinPath string
	// Endpoint is the address of an already running model server.
	Endpoint string
	// Params holds provider specific settings, read with mapsafe.Get.
	Params map[string]any
}
