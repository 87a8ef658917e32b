package audio

import (
	"mime"
	"path/filepath"
	"strings"
)

const (
	// SuffixWAV is the temp file suffix for uploads that are already WAV.
	SuffixWAV = ".wav"

	// SuffixContainer is the temp file suffix for everything else. The
	// recognizer demuxes these itself.
	SuffixContainer = ".webm"
)

var wavContentTypes = map[string]bool{
	"audio/wav":      true,
	"audio/x-wav":    true,
	"audio/wave":     true,
	"audio/vnd.wave": true,
}

// ContainerHint returns the temp file suffix matching the declared filename
// or content type of an upload.
func ContainerHint(filename, contentType string) string {
	if strings.EqualFold(filepath.Ext(filename), SuffixWAV) {
		return SuffixWAV
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(contentType)
	}
	if wavContentTypes[strings.ToLower(mediaType)] {
		return SuffixWAV
	}

	return SuffixContainer
}
