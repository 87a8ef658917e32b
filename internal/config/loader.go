package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.yaml.in/yaml/v3"

	"github.com/ekisa-team/voxgate/internal/envvar"
	"github.com/ekisa-team/voxgate/internal/xfs"
)

//go:embed schema.json
var embeddedSchema []byte

const embeddedSchemaURL = "config.schema.json"

// LoadAndValidate loads a YAML config, validates it against the JSON schema
// and applies environment overrides and defaults. An empty schemaPath uses the
// embedded schema.
func LoadAndValidate(path, schemaPath string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read config: %w", err)
	}

	return Parse(data, schemaPath)
}

// Parse validates and decodes YAML config bytes.
func Parse(data []byte, schemaPath string) (*Config, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("config: invalid YAML: %w", err)
	}

	schema, err := compileSchema(schemaPath)
	if err != nil {
		return nil, err
	}

	doc, err := toJSONDocument(raw)
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal into Config struct: %w", err)
	}

	ApplyEnv(&cfg)
	ApplyDefaults(&cfg)
	cfg.Storage.ModelsDir = xfs.ExpandTilde(cfg.Storage.ModelsDir)
	cfg.Storage.TempDir = xfs.ExpandTilde(cfg.Storage.TempDir)
	cfg.Storage.WorkDir = xfs.ExpandTilde(cfg.Storage.WorkDir)

	return &cfg, nil
}

func compileSchema(schemaPath string) (*jsonschema.Schema, error) {
	if schemaPath != "" {
		schema, err := jsonschema.Compile(schemaPath)
		if err != nil {
			return nil, fmt.Errorf("config: failed to compile schema: %w", err)
		}
		return schema, nil
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(embeddedSchemaURL, bytes.NewReader(embeddedSchema)); err != nil {
		return nil, fmt.Errorf("config: failed to add embedded schema: %w", err)
	}
	schema, err := c.Compile(embeddedSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("config: failed to compile schema: %w", err)
	}
	return schema, nil
}

// toJSONDocument converts a YAML tree into the value shapes the validator
// expects (json.Number for numbers, string keyed maps).
func toJSONDocument(raw any) (any, error) {
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("config: config is not representable as JSON: %w", err)
	}
	var doc any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("config: failed to decode config document: %w", err)
	}
	return doc, nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("config: failed to load %s: %w", p, err)
		}
		slog.Debug("Loaded env file", "path", p)
	}
	return nil
}

// ApplyEnv overrides config fields from VOXGATE_* environment variables.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(envvar.VoxgateEnv); v != "" {
		cfg.Environment = v
	}
	if v, ok := envInt(envvar.VoxgateServerHTTPPort); ok {
		cfg.Server.HTTPPort = v
	}
	if v, ok := envInt(envvar.VoxgateServerGRPCPort); ok {
		cfg.Server.GRPCPort = v
	}
	if v := os.Getenv(envvar.VoxgateModelsDir); v != "" {
		cfg.Storage.ModelsDir = v
	}
	if v := os.Getenv(envvar.VoxgateTempDir); v != "" {
		cfg.Storage.TempDir = v
	}
	if v := os.Getenv(envvar.VoxgateWorkDir); v != "" {
		cfg.Storage.WorkDir = v
	}
	if v := os.Getenv(envvar.VoxgateLogFile); v != "" {
		cfg.Logging.File = v
	}
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("Ignoring invalid integer env var", "key", key, "value", v)
		return 0, false
	}
	return n, true
}
