package commands

import (
	"log/slog"

	"github.com/ekisa-team/voxgate/internal/backend"
	"github.com/ekisa-team/voxgate/internal/backend/builtin"
	"github.com/ekisa-team/voxgate/internal/config"
	"github.com/ekisa-team/voxgate/internal/model"
	"github.com/ekisa-team/voxgate/internal/service"
)

// app holds the long-lived objects shared by the commands.
type app struct {
	cfg      *config.Config
	servers  *backend.ServerManager
	registry *model.Registry
	tts      *service.TTS
	stt      *service.STT
}

func newApp(cfg *config.Config) *app {
	servers := backend.NewServerManager()
	registry := model.NewRegistryFromConfig(cfg, builtin.NewRegistry(servers))

	return &app{
		cfg:      cfg,
		servers:  servers,
		registry: registry,
		tts:      service.NewTTS(registry, cfg.Storage.TempDir, service.LimitsFromConfig(cfg)),
		stt: service.NewSTT(registry, cfg.Storage.TempDir, cfg.Storage.WorkDir,
			service.LimitsFromConfig(cfg), service.RecognitionPolicyFromConfig(cfg)),
	}
}

// applyReload pushes the hot-reloadable settings of cfg into the services.
func (a *app) applyReload(cfg *config.Config) {
	limits := service.LimitsFromConfig(cfg)
	a.tts.SetLimits(limits)
	a.stt.SetLimits(limits)
	a.stt.SetPolicy(service.RecognitionPolicyFromConfig(cfg))

	slog.Info("Applied reloaded limits",
		"max_text_length", limits.MaxTextLength,
		"min_audio_bytes", limits.MinAudioBytes,
		"language", cfg.Recognition.Language,
	)
}

func (a *app) close() {
	if err := a.registry.Close(); err != nil {
		slog.Warn("Failed to close models", "error", err)
	}
	a.servers.StopAll()
}
