// Package main is the voxgate speech gateway.
//
// Usage:
//
//	voxgate [flags] <command> [args]
//
// Commands:
//
//	serve       - Run the HTTP API and the gRPC health server
//	synth       - Synthesize text to a WAV file
//	transcribe  - Transcribe an audio file
//	version     - Print build information
package main

import (
	"fmt"
	"os"

	"github.com/ekisa-team/voxgate/cmd/voxgate/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
