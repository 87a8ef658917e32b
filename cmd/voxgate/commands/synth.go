package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var synthOutput string

var synthCmd = &cobra.Command{
	Use:   "synth TEXT",
	Short: "Synthesize text to a WAV file",
	Long: `Synthesize text with the configured synthesis model and write a WAV file.

The same validation and fallback as POST /tts apply.

Example:
  voxgate synth "Hello world" -o hello.wav`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		a := newApp(cfg)
		defer a.close()

		payload, err := a.tts.Synthesize(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return fmt.Errorf("synthesis failed: %w", err)
		}

		if err := os.WriteFile(synthOutput, payload.Bytes(), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", synthOutput, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s)\n", synthOutput, humanize.Bytes(uint64(payload.Len())))
		return nil
	},
}

func init() {
	synthCmd.Flags().StringVarP(&synthOutput, "output", "o", "speech.wav", "output WAV file")
}
