package service

import (
	"github.com/ekisa-team/voxgate/internal/config"
)

// Limits bounds request validation and diagnostics.
type Limits struct {
	MaxTextLength  int
	MinAudioBytes  int
	TracebackLimit int
}

// RecognitionPolicy holds the decoding hints of the primary recognition
// strategy and whether the alternate strategy keeps them.
type RecognitionPolicy struct {
	Language       string
	Task           string
	AlternateHints bool
}

// DefaultLimits returns the limits used when no config is given.
func DefaultLimits() Limits {
	return Limits{
		MaxTextLength:  config.DefaultMaxTextLength,
		MinAudioBytes:  config.DefaultMinAudioBytes,
		TracebackLimit: config.DefaultTracebackLimit,
	}
}

// DefaultRecognitionPolicy returns the policy used when no config is given.
func DefaultRecognitionPolicy() RecognitionPolicy {
	return RecognitionPolicy{
		Language: config.DefaultLanguage,
		Task:     config.DefaultTask,
	}
}

// LimitsFromConfig extracts the service limits from cfg.
func LimitsFromConfig(cfg *config.Config) Limits {
	return Limits{
		MaxTextLength:  cfg.Limits.MaxTextLength,
		MinAudioBytes:  cfg.Limits.MinAudioBytes,
		TracebackLimit: cfg.Limits.TracebackLimit,
	}
}

// RecognitionPolicyFromConfig extracts the recognition policy from cfg.
func RecognitionPolicyFromConfig(cfg *config.Config) RecognitionPolicy {
	return RecognitionPolicy{
		Language:       cfg.Recognition.Language,
		Task:           cfg.Recognition.Task,
		AlternateHints: cfg.Recognition.AlternateHints,
	}
}
