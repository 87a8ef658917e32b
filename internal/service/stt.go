package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/ekisa-team/voxgate/internal/audio"
	"github.com/ekisa-team/voxgate/internal/backend"
	"github.com/ekisa-team/voxgate/internal/config"
	"github.com/ekisa-team/voxgate/internal/xfs"
)

// Recognition strategy names, also reported as TranscriptResult.Method.
const (
	StrategyPrimary   = "primary"
	StrategyAlternate = "alternate"
)

// RecognitionModels provides the shared recognizer.
type RecognitionModels interface {
	EnsureRecognitionModel(ctx context.Context) (backend.Recognizer, error)
}

// AudioUpload is an uploaded audio blob.
type AudioUpload struct {
	Data        []byte
	Filename    string
	ContentType string
}

// TranscriptResult is the outcome of a recognition request.
type TranscriptResult struct {
	Text     string            `json:"text"`
	Language string            `json:"language"`
	Segments []backend.Segment `json:"segments,omitempty"`
	Method   string            `json:"method"`
}

// STT turns uploaded audio into text.
type STT struct {
	models  RecognitionModels
	tempDir string
	workDir string

	mu     sync.RWMutex
	limits Limits
	policy RecognitionPolicy
}

// NewSTT creates an STT service. tempDir may be empty for the system temp
// dir; workDir is created on demand by the alternate strategy.
func NewSTT(models RecognitionModels, tempDir, workDir string, limits Limits, policy RecognitionPolicy) *STT {
	return &STT{
		models:  models,
		tempDir: tempDir,
		workDir: workDir,
		limits:  limits,
		policy:  policy,
	}
}

// SetLimits replaces the limits used by later requests.
func (s *STT) SetLimits(l Limits) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.limits = l
}

// SetPolicy replaces the recognition policy used by later requests.
func (s *STT) SetPolicy(p RecognitionPolicy) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.policy = p
}

// Limits returns the current limits.
func (s *STT) Limits() Limits {
	l, _ := s.settings()
	return l
}

func (s *STT) settings() (Limits, RecognitionPolicy) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.limits, s.policy
}

// Validate checks the upload before any model is touched.
func (s *STT) Validate(up *AudioUpload) error {
	limits, _ := s.settings()

	switch {
	case up == nil:
		return ErrMissingAudio
	case up.Filename == "":
		return ErrNoAudioSelected
	case len(up.Data) == 0:
		return ErrMissingAudio
	case len(up.Data) < limits.MinAudioBytes:
		return fmt.Errorf("%w: %d bytes, min %d", ErrAudioTooSmall, len(up.Data), limits.MinAudioBytes)
	}
	return nil
}

// Transcribe validates up and decodes it with the primary strategy, falling
// back to the alternate work directory.
func (s *STT) Transcribe(ctx context.Context, up *AudioUpload) (*TranscriptResult, error) {
	if err := s.Validate(up); err != nil {
		return nil, err
	}

	model, err := s.models.EnsureRecognitionModel(ctx)
	if err != nil {
		return nil, err
	}

	_, policy := s.settings()
	suffix := audio.ContainerHint(up.Filename, up.ContentType)
	hints := backend.TranscribeOptions{Language: policy.Language, Task: policy.Task}

	slog.Info("ASR request",
		"filename", up.Filename,
		"content_type", up.ContentType,
		"size", humanize.Bytes(uint64(len(up.Data))),
		"container", suffix,
	)

	alternateHints := backend.TranscribeOptions{}
	if policy.AlternateHints {
		alternateHints = hints
	}

	result, _, _, err := Cascade(ctx, "recognition", ErrTranscriptionFailed, []Strategy[*TranscriptResult]{
		{Name: StrategyPrimary, Run: func(ctx context.Context) (*TranscriptResult, error) {
			return s.transcribePrimary(ctx, model, up.Data, suffix, hints)
		}},
		{Name: StrategyAlternate, Run: func(ctx context.Context) (*TranscriptResult, error) {
			return s.transcribeAlternate(ctx, model, up.Data, alternateHints)
		}},
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *STT) transcribePrimary(ctx context.Context, model backend.Recognizer, data []byte, suffix string, opts backend.TranscribeOptions) (*TranscriptResult, error) {
	var result *TranscriptResult

	err := xfs.WithTempFile(s.tempDir, "asr-", suffix, func(tf *xfs.TempFile) error {
		if _, err := tf.Write(data); err != nil {
			return fmt.Errorf("writing temp audio: %w", err)
		}
		if err := tf.Close(); err != nil {
			return fmt.Errorf("closing temp audio: %w", err)
		}

		tr, err := model.Transcribe(ctx, tf.Path(), opts)
		if err != nil {
			return err
		}

		result = toResult(tr, StrategyPrimary, true)
		return nil
	})

	return result, err
}

func (s *STT) transcribeAlternate(ctx context.Context, model backend.Recognizer, data []byte, opts backend.TranscribeOptions) (*TranscriptResult, error) {
	if err := xfs.EnsureDir(s.workDir); err != nil {
		return nil, err
	}

	path := filepath.Join(s.workDir, xfs.UniqueName("asr_", audio.SuffixContainer))
	defer xfs.RemoveQuietly(path)

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("writing work file: %w", err)
	}

	tr, err := model.Transcribe(ctx, path, opts)
	if err != nil {
		return nil, err
	}

	return toResult(tr, StrategyAlternate, false), nil
}

func toResult(tr *backend.Transcription, method string, withSegments bool) *TranscriptResult {
	if tr == nil {
		tr = &backend.Transcription{}
	}

	res := &TranscriptResult{
		Text:     strings.TrimSpace(tr.Text),
		Language: tr.Language,
		Method:   method,
	}
	if res.Language == "" {
		res.Language = config.DefaultLanguage
	}
	if withSegments {
		res.Segments = tr.Segments
	}
	return res
}
