package commands

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ekisa-team/voxgate/internal/config"
	"github.com/ekisa-team/voxgate/internal/model"
	grpcserver "github.com/ekisa-team/voxgate/internal/server/grpc"
	httpserver "github.com/ekisa-team/voxgate/internal/server/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API and, when server.grpc_port is set, the gRPC health server.

Changes to limits and recognition settings in the config file apply without a
restart. Model changes are logged and need a restart.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return runServe(ctx)
	},
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a := newApp(cfg)
	defer a.close()

	watcher, err := config.NewWatcher(configPath(), schemaFile, func(next *config.Config, err error) {
		if err != nil {
			return
		}
		a.applyReload(next)
	})
	if err != nil {
		return err
	}

	preload(ctx, a)

	handler := httpserver.NewHandler(a.tts, a.stt, a.registry, httpserver.ModelInfo{
		TTS:     cfg.Models.TTS.ID,
		ASR:     cfg.Models.STT.ID,
		ASRPath: asrPath(cfg),
	}, cfg.Limits.MaxUploadBytes)

	router := httpserver.NewRouter(handler, httpserver.RouterOptions{
		AllowedOrigins:    cfg.Server.CORS.AllowedOrigins,
		RequestsPerMinute: cfg.Server.RateLimit.RequestsPerMinute,
		Swagger:           cfg.Server.SwaggerEnabled(),
	})

	srv := httpserver.NewServer(router, httpserver.ServerOptions{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.HTTPPort,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	})

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return srv.ListenAndServe(ctx) })

	g.Go(func() error {
		if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			// Serving continues with the loaded config.
			slog.Error("Config watcher stopped", "error", err)
		}
		return nil
	})

	if cfg.Server.GRPCPort > 0 {
		health := grpcserver.New(cfg.Server.Host, cfg.Server.GRPCPort)
		health.Track(a.registry)
		g.Go(func() error { return health.ListenAndServe(ctx) })
	}

	slog.Info("voxgate started",
		"http", srv.Addr(),
		"grpc_port", cfg.Server.GRPCPort,
		"tts", cfg.Models.TTS.ID,
		"stt", cfg.Models.STT.ID,
		"version", version,
	)

	err = g.Wait()
	slog.Info("voxgate stopped")
	return err
}

// preload loads the models marked for startup. Failures are logged; the
// handles stay unset and are retried on first use.
func preload(ctx context.Context, a *app) {
	var kinds []model.Kind
	if a.cfg.Models.TTS.PreloadAtStartup() {
		kinds = append(kinds, model.KindSynthesis)
	}
	if a.cfg.Models.STT.PreloadAtStartup() {
		kinds = append(kinds, model.KindRecognition)
	}
	if len(kinds) == 0 {
		return
	}

	if err := a.registry.Preload(ctx, kinds...); err != nil {
		slog.Error("Failed to preload models", "error", err)
	}
	for _, mi := range a.registry.Snapshot() {
		slog.Info("Model status", "kind", mi.Kind, "id", mi.ID, "status", mi.Status)
	}
}

// asrPath returns where the recognition model lives: its file resolved
// against storage.models_dir, or its endpoint for remote backends.
func asrPath(cfg *config.Config) string {
	m := cfg.Models.STT
	switch {
	case m.Path == "":
		return m.Endpoint
	case filepath.IsAbs(m.Path) || cfg.Storage.ModelsDir == "":
		return m.Path
	default:
		return filepath.Join(cfg.Storage.ModelsDir, m.Path)
	}
}
