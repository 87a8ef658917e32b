package config

import (
	"github.com/ekisa-team/voxgate/internal/backend"
)

// Config holds the main configuration for the application.
type Config struct {
	Version     string            `json:"version"               yaml:"version"`
	Environment string            `json:"environment,omitempty" yaml:"environment,omitempty"`
	Server      ServerConfig      `json:"server,omitempty"      yaml:"server,omitempty"`
	Storage     StorageConfig     `json:"storage,omitempty"     yaml:"storage,omitempty"`
	Models      ModelsConfig      `json:"models"                yaml:"models"`
	Limits      LimitsConfig      `json:"limits,omitempty"      yaml:"limits,omitempty"`
	Recognition RecognitionConfig `json:"recognition,omitempty" yaml:"recognition,omitempty"`
	Logging     LoggingConfig     `json:"logging,omitempty"     yaml:"logging,omitempty"`
}

// ServerConfig holds the network surface settings.
type ServerConfig struct {
	Host                string          `json:"host,omitempty"                  yaml:"host,omitempty"`
	HTTPPort            int             `json:"http_port,omitempty"             yaml:"http_port,omitempty"`
	GRPCPort            int             `json:"grpc_port,omitempty"             yaml:"grpc_port,omitempty"`
	ReadTimeoutSeconds  int             `json:"read_timeout_seconds,omitempty"  yaml:"read_timeout_seconds,omitempty"`
	WriteTimeoutSeconds int             `json:"write_timeout_seconds,omitempty" yaml:"write_timeout_seconds,omitempty"`
	CORS                CORSConfig      `json:"cors,omitempty"                  yaml:"cors,omitempty"`
	RateLimit           RateLimitConfig `json:"rate_limit,omitempty"            yaml:"rate_limit,omitempty"`
	Swagger             *bool           `json:"swagger,omitempty"               yaml:"swagger,omitempty"`
}

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `json:"allowed_origins,omitempty" yaml:"allowed_origins,omitempty"`
}

// RateLimitConfig enables per client IP rate limiting when positive.
type RateLimitConfig struct {
	RequestsPerMinute int `json:"requests_per_minute,omitempty" yaml:"requests_per_minute,omitempty"`
}

// StorageConfig holds filesystem locations.
type StorageConfig struct {
	ModelsDir string `json:"models_dir,omitempty" yaml:"models_dir,omitempty"`
	// TempDir holds scoped temp files. Empty means the system temp dir.
	TempDir string `json:"temp_dir,omitempty" yaml:"temp_dir,omitempty"`
	// WorkDir holds files of the alternate recognition path.
	WorkDir string `json:"work_dir,omitempty" yaml:"work_dir,omitempty"`
}

// ModelsConfig assigns one model to each role.
type ModelsConfig struct {
	TTS ModelConfig `json:"tts" yaml:"tts"`
	STT ModelConfig `json:"stt" yaml:"stt"`
}

// ModelConfig describes a model and the backend that runs it.
type ModelConfig struct {
	ID        string         `json:"id"                  yaml:"id"`
	Backend   string         `json:"backend"             yaml:"backend"`
	Path      string         `json:"path,omitempty"      yaml:"path,omitempty"`
	BinPath   string         `json:"bin_path,omitempty"  yaml:"bin_path,omitempty"`
	Endpoint  string         `json:"endpoint,omitempty"  yaml:"endpoint,omitempty"`
	Serialize *bool          `json:"serialize,omitempty" yaml:"serialize,omitempty"`
	Preload   *bool          `json:"preload,omitempty"   yaml:"preload,omitempty"`
	Params    map[string]any `json:"params,omitempty"    yaml:"params,omitempty"`
}

// LimitsConfig bounds request sizes and diagnostics.
type LimitsConfig struct {
	MaxTextLength  int   `json:"max_text_length,omitempty"  yaml:"max_text_length,omitempty"`
	MinAudioBytes  int   `json:"min_audio_bytes,omitempty"  yaml:"min_audio_bytes,omitempty"`
	MaxUploadBytes int64 `json:"max_upload_bytes,omitempty" yaml:"max_upload_bytes,omitempty"`
	TracebackLimit int   `json:"traceback_limit,omitempty"  yaml:"traceback_limit,omitempty"`
}

// RecognitionConfig holds the decoding hints of the primary path and the
// hint policy of the alternate path.
type RecognitionConfig struct {
	Language       string `json:"language,omitempty"        yaml:"language,omitempty"`
	Task           string `json:"task,omitempty"            yaml:"task,omitempty"`
	AlternateHints bool   `json:"alternate_hints,omitempty" yaml:"alternate_hints,omitempty"`
}

// LoggingConfig configures the log sinks.
type LoggingConfig struct {
	Level      string `json:"level,omitempty"        yaml:"level,omitempty"`
	File       string `json:"file,omitempty"         yaml:"file,omitempty"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty"  yaml:"max_size_mb,omitempty"`
	MaxBackups int    `json:"max_backups,omitempty"  yaml:"max_backups,omitempty"`
	MaxAgeDays int    `json:"max_age_days,omitempty" yaml:"max_age_days,omitempty"`
}

// Spec converts the model entry into a backend spec.
func (m *ModelConfig) Spec() backend.Spec {
	return backend.Spec{
		Provider: backend.Provider(m.Backend),
		Name:     m.ID,
		Path:     m.Path,
		BinPath:  m.BinPath,
		Endpoint: m.Endpoint,
		Params:   m.Params,
	}
}

// SerializeCalls reports whether calls into the model must be serialized.
func (m *ModelConfig) SerializeCalls() bool {
	return m.Serialize == nil || *m.Serialize
}

// PreloadAtStartup reports whether the model is loaded when the server starts.
func (m *ModelConfig) PreloadAtStartup() bool {
	return m.Preload == nil || *m.Preload
}

// SwaggerEnabled reports whether the OpenAPI UI is served.
func (s *ServerConfig) SwaggerEnabled() bool {
	return s.Swagger == nil || *s.Swagger
}
