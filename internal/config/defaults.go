package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Default values applied by ApplyDefaults.
const (
	DefaultHost           = "0.0.0.0"
	DefaultHTTPPort       = 5000
	DefaultReadTimeout    = 60
	DefaultWriteTimeout   = 300
	DefaultWorkDir        = "temp_audio"
	DefaultMaxTextLength  = 1000
	DefaultMinAudioBytes  = 100
	DefaultMaxUploadBytes = 32 << 20
	DefaultTracebackLimit = 500
	DefaultLanguage       = "en"
	DefaultTask           = "transcribe"
	DefaultLogLevel       = "info"
)

// DefaultAllowedOrigins are the dev server origins of the web frontend.
var DefaultAllowedOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}

// DefaultConfigPath returns the default path for the voxgate config directory.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "voxgate", "config")
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", "voxgate")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "voxgate")
	default: // Linux, BSD, etc.
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "voxgate")
		}
		return filepath.Join(home, ".config", "voxgate")
	}
}

// DefaultConfigFile returns the config file inside DefaultConfigPath.
func DefaultConfigFile() string {
	return filepath.Join(DefaultConfigPath(), "voxgate.yaml")
}

// DefaultModelsPath returns the default path for the voxgate models directory.
func DefaultModelsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "voxgate", "models")
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Local", "voxgate", "models")
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "voxgate", "models")
	default: // Linux, BSD, etc.
		if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
			return filepath.Join(xdg, "voxgate", "models")
		}
		return filepath.Join(home, ".cache", "voxgate", "models")
	}
}

// ApplyDefaults fills every unset field with its default.
func ApplyDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	s := &cfg.Server
	if s.Host == "" {
		s.Host = DefaultHost
	}
	if s.HTTPPort == 0 {
		s.HTTPPort = DefaultHTTPPort
	}
	if s.ReadTimeoutSeconds == 0 {
		s.ReadTimeoutSeconds = DefaultReadTimeout
	}
	if s.WriteTimeoutSeconds == 0 {
		s.WriteTimeoutSeconds = DefaultWriteTimeout
	}
	if len(s.CORS.AllowedOrigins) == 0 {
		s.CORS.AllowedOrigins = append([]string(nil), DefaultAllowedOrigins...)
	}

	if cfg.Storage.ModelsDir == "" {
		cfg.Storage.ModelsDir = DefaultModelsPath()
	}
	if cfg.Storage.WorkDir == "" {
		cfg.Storage.WorkDir = DefaultWorkDir
	}

	l := &cfg.Limits
	if l.MaxTextLength == 0 {
		l.MaxTextLength = DefaultMaxTextLength
	}
	if l.MinAudioBytes == 0 {
		l.MinAudioBytes = DefaultMinAudioBytes
	}
	if l.MaxUploadBytes == 0 {
		l.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if l.TracebackLimit == 0 {
		l.TracebackLimit = DefaultTracebackLimit
	}

	if cfg.Recognition.Language == "" {
		cfg.Recognition.Language = DefaultLanguage
	}
	if cfg.Recognition.Task == "" {
		cfg.Recognition.Task = DefaultTask
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
}
