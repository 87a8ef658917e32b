package commands

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X github.com/ekisa-team/voxgate/cmd/voxgate/commands.version=..."
var (
	version = "dev"
	commit  = ""
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		rev := commit
		if rev == "" {
			if info, ok := debug.ReadBuildInfo(); ok {
				for _, s := range info.Settings {
					if s.Key == "vcs.revision" {
						rev = s.Value
					}
				}
			}
		}
		if rev == "" {
			rev = "unknown"
		}

		fmt.Fprintf(cmd.OutOrStdout(), "voxgate %s (commit %s, %s %s/%s)\n",
			version, rev, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}
