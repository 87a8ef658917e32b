// Package piper runs the Piper CLI as a speech synthesizer.
package piper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ekisa-team/voxgate/internal/audio"
	"github.com/ekisa-team/voxgate/internal/backend"
	"github.com/ekisa-team/voxgate/mapsafe"
)

const defaultTimeout = 60 * time.Second

// Backend implements backend.Synthesizer for Piper TTS.
type Backend struct {
	executor   *backend.Executor
	modelPath  string
	params     map[string]any
	sampleRate int
}

// New creates a Piper backend from spec. The model file must exist.
func New(spec backend.Spec) (*Backend, error) {
	if spec.Path == "" {
		return nil, errors.New("piper: model path is required")
	}
	if _, err := os.Stat(spec.Path); err != nil {
		return nil, fmt.Errorf("piper: model not found: %w", err)
	}

	timeout := mapsafe.Seconds(spec.Params, "timeout_seconds", defaultTimeout)

	executor, err := backend.NewExecutor(spec.BinPath, timeout)
	if err != nil {
		return nil, fmt.Errorf("piper: %w", err)
	}

	return NewWithExecutor(executor, spec.Path, spec.Params), nil
}

// NewWithExecutor creates a Piper backend around an existing executor.
func NewWithExecutor(executor *backend.Executor, modelPath string, params map[string]any) *Backend {
	return &Backend{
		executor:   executor,
		modelPath:  modelPath,
		params:     params,
		sampleRate: readSampleRate(modelPath + ".json"),
	}
}

// Provider returns the backend identifier.
func (b *Backend) Provider() backend.Provider {
	return backend.ProviderPiper
}

// Synthesize runs piper with --output_raw and decodes the PCM16 stream it
// writes to stdout.
func (b *Backend) Synthesize(ctx context.Context, text string) (*audio.Waveform, error) {
	args := b.buildArgs("--output_raw")

	stdout, err := b.executor.Execute(ctx, args, strings.NewReader(stdinText(text)))
	if err != nil {
		return nil, fmt.Errorf("piper: execution failed: %w", err)
	}
	if len(stdout) < 2 {
		return nil, errors.New("piper: no audio produced")
	}

	w := audio.PCM16ToWaveform(stdout, b.sampleRate)
	return &w, nil
}

// SynthesizeToFile runs piper with --output_file path.
func (b *Backend) SynthesizeToFile(ctx context.Context, text, path string) error {
	args := b.buildArgs("--output_file", path)

	if _, err := b.executor.Execute(ctx, args, strings.NewReader(stdinText(text))); err != nil {
		return fmt.Errorf("piper: execution failed: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("piper: output file missing: %w", err)
	}
	if info.Size() <= audio.HeaderSize {
		return fmt.Errorf("piper: output file %s holds no audio", path)
	}
	return nil
}

// Close cleans up resources. Piper runs one process per call so there is
// nothing to release.
func (b *Backend) Close() error {
	return nil
}

// buildArgs builds Piper command-line arguments.
func (b *Backend) buildArgs(output ...string) []string {
	args := append([]string{"--model", b.modelPath}, output...)

	p := b.params
	if p == nil {
		return args
	}

	if v := mapsafe.Get(p, "speaker_id", -1); v >= 0 {
		args = append(args, "--speaker", strconv.Itoa(v))
	}

	floats := []struct{ key, flag string }{
		{"length_scale", "--length_scale"},
		{"noise_scale", "--noise_scale"},
		{"noise_w", "--noise_w"},
		{"sentence_silence", "--sentence_silence"},
	}
	for _, f := range floats {
		if v := mapsafe.Get(p, f.key, -1.0); v >= 0 {
			args = append(args, f.flag, strconv.FormatFloat(v, 'f', 2, 64))
		}
	}

	return args
}

// stdinText joins the input into one line. Piper synthesizes each stdin line
// as a separate utterance.
func stdinText(text string) string {
	return strings.Join(strings.Fields(text), " ") + "\n"
}

type voiceConfig struct {
	Audio struct {
		SampleRate int `json:"sample_rate"`
	} `json:"audio"`
}

// readSampleRate reads audio.sample_rate from the voice config that Piper
// ships next to every model.
func readSampleRate(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Debug("Piper voice config not readable, using default sample rate", "path", path, "error", err)
		return audio.DefaultSampleRate
	}

	var cfg voiceConfig
	if err := json.Unmarshal(data, &cfg); err != nil || cfg.Audio.SampleRate <= 0 {
		slog.Warn("Invalid Piper voice config, using default sample rate", "path", path)
		return audio.DefaultSampleRate
	}
	return cfg.Audio.SampleRate
}
