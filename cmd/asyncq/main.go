// ============================================================================
// asyncq - Main Entry Point
// ============================================================================
//
// File: cmd/asyncq/main.go
// Purpose: Application entry point and CLI initialization
//
// Version Injection:
//   Variables injected at build time via -ldflags:
//   go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
//
// Usage:
//   ./asyncq --help                 # Show help
//   ./asyncq --version              # Show version
//   ./asyncq run                    # Run the demo pipeline until SIGINT
//   ./asyncq run -d 30s             # Run for 30 seconds, then drain
//
// ============================================================================

package main

import (
	"fmt"
	"os"

	"github.com/ChuLiYu/async-queue/internal/cli"
)

// Build-time version injection via ldflags
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "1.0.0"   // Semantic version
	commit  = "dev"     // Git commit hash
	date    = "unknown" // Build timestamp
)

func main() {
	// Global panic recovery
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Fatal error: %v\n", r)
			os.Exit(1)
		}
	}()

	rootCmd := cli.BuildCLI()
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
