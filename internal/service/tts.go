package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/ekisa-team/voxgate/internal/audio"
	"github.com/ekisa-team/voxgate/internal/backend"
	"github.com/ekisa-team/voxgate/internal/xfs"
)

// Synthesis strategy names.
const (
	StrategyInMemory = "in_memory"
	StrategyTempFile = "temp_file"
)

// SynthesisModels provides the shared synthesizer.
type SynthesisModels interface {
	EnsureSynthesisModel(ctx context.Context) (backend.Synthesizer, error)
}

// TextRequest is a validated synthesis request.
type TextRequest struct {
	Raw    string
	Text   string
	Length int
}

// TTS turns text into WAV bytes.
type TTS struct {
	models  SynthesisModels
	tempDir string

	mu     sync.RWMutex
	limits Limits
}

// NewTTS creates a TTS service. tempDir may be empty for the system temp dir.
func NewTTS(models SynthesisModels, tempDir string, limits Limits) *TTS {
	return &TTS{
		models:  models,
		tempDir: tempDir,
		limits:  limits,
	}
}

// SetLimits replaces the limits used by later requests.
func (s *TTS) SetLimits(l Limits) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.limits = l
}

// Limits returns the current limits.
func (s *TTS) Limits() Limits {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.limits
}

// Validate trims raw and checks its length in characters.
func (s *TTS) Validate(raw string) (TextRequest, error) {
	text := strings.TrimSpace(raw)
	n := utf8.RuneCountInString(text)
	limit := s.Limits().MaxTextLength

	switch {
	case n == 0:
		return TextRequest{}, ErrEmptyText
	case limit > 0 && n > limit:
		return TextRequest{}, fmt.Errorf("%w: %d characters, max %d", ErrTextTooLong, n, limit)
	}

	return TextRequest{Raw: raw, Text: text, Length: n}, nil
}

// Synthesize validates raw, then tries in-memory synthesis and falls back to
// a scoped temp file.
func (s *TTS) Synthesize(ctx context.Context, raw string) (audio.WavPayload, error) {
	req, err := s.Validate(raw)
	if err != nil {
		return audio.WavPayload{}, err
	}

	model, err := s.models.EnsureSynthesisModel(ctx)
	if err != nil {
		return audio.WavPayload{}, err
	}

	slog.Info("TTS request", "chars", req.Length, "preview", preview(req.Text, 60), "provider", model.Provider())

	payload, strategy, _, err := Cascade(ctx, "synthesis", ErrSynthesisFailed, []Strategy[audio.WavPayload]{
		{Name: StrategyInMemory, Run: func(ctx context.Context) (audio.WavPayload, error) {
			return synthesizeInMemory(ctx, model, req.Text)
		}},
		{Name: StrategyTempFile, Run: func(ctx context.Context) (audio.WavPayload, error) {
			return s.synthesizeToTempFile(ctx, model, req.Text)
		}},
	})
	if err != nil {
		return audio.WavPayload{}, err
	}

	slog.Debug("TTS done", "strategy", strategy, "size", humanize.Bytes(uint64(payload.Len())))
	return payload, nil
}

func synthesizeInMemory(ctx context.Context, model backend.Synthesizer, text string) (audio.WavPayload, error) {
	w, err := model.Synthesize(ctx, text)
	if err != nil {
		return audio.WavPayload{}, err
	}
	if w == nil || len(w.Samples) == 0 {
		return audio.WavPayload{}, errors.New("model returned an empty waveform")
	}
	return audio.EncodeWAV(*w), nil
}

func (s *TTS) synthesizeToTempFile(ctx context.Context, model backend.Synthesizer, text string) (audio.WavPayload, error) {
	var payload audio.WavPayload

	err := xfs.WithTempFile(s.tempDir, "tts-", audio.SuffixWAV, func(tf *xfs.TempFile) error {
		// The model opens the path itself.
		if err := tf.Close(); err != nil {
			return err
		}
		if err := model.SynthesizeToFile(ctx, text, tf.Path()); err != nil {
			return err
		}

		data, err := tf.ReadAll()
		if err != nil {
			return fmt.Errorf("reading synthesized file: %w", err)
		}
		if len(data) == 0 {
			return errors.New("model wrote an empty file")
		}

		logFileFormat(tf.Path(), data)
		payload = audio.NewWavPayload(data)
		return nil
	})

	return payload, err
}

// logFileFormat records what the model wrote. The bytes are returned as is
// either way.
func logFileFormat(path string, data []byte) {
	info, err := audio.Inspect(data)
	if err != nil {
		slog.Warn("Synthesized file is not PCM16 WAV", "path", path, "size", len(data), "error", err)
		return
	}
	slog.Debug("Synthesized file",
		"channels", info.Channels,
		"bits_per_sample", info.BitsPerSample,
		"sample_rate", info.SampleRate,
		"frames", info.Frames(),
	)
}

// preview returns at most n runes of s.
func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
