package service

import (
	"errors"
	"fmt"
)

// Error definitions for the service package.
var (
	ErrEmptyText           = errors.New("no text provided")
	ErrTextTooLong         = errors.New("text too long")
	ErrMissingAudio        = errors.New("no audio provided")
	ErrNoAudioSelected     = fmt.Errorf("%w: empty filename", ErrMissingAudio)
	ErrAudioTooSmall       = errors.New("audio too small")
	ErrSynthesisFailed     = errors.New("synthesis failed")
	ErrTranscriptionFailed = errors.New("transcription failed")
)

// IsValidation reports whether err is a request validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyText) ||
		errors.Is(err, ErrTextTooLong) ||
		errors.Is(err, ErrMissingAudio) ||
		errors.Is(err, ErrAudioTooSmall)
}
