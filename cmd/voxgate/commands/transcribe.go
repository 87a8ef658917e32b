package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ekisa-team/voxgate/internal/audio"
	"github.com/ekisa-team/voxgate/internal/service"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe FILE",
	Short: "Transcribe an audio file",
	Long: `Transcribe an audio file with the configured recognition model and print
the result as JSON.

The same validation and fallback as POST /asr apply.

Example:
  voxgate transcribe recording.webm`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		slog.Info("Transcribing", inputAttrs(path, data)...)

		a := newApp(cfg)
		defer a.close()

		res, err := a.stt.Transcribe(cmd.Context(), &service.AudioUpload{
			Data:        data,
			Filename:    filepath.Base(path),
			ContentType: mime.TypeByExtension(filepath.Ext(path)),
		})
		if err != nil {
			return fmt.Errorf("transcription failed: %w", err)
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

// inputAttrs describes the input file for logging. WAV input also reports
// its decoded duration and sample rate.
func inputAttrs(path string, data []byte) []any {
	attrs := []any{"file", filepath.Base(path), "size", len(data)}
	if !audio.IsWAV(data) {
		return attrs
	}

	w, info, err := audio.DecodeWAV(data)
	if err != nil {
		return append(attrs, "wav_error", err.Error())
	}
	return append(attrs,
		"duration", w.Duration(),
		"sample_rate", info.SampleRate,
		"channels", info.Channels,
	)
}
