// SPDX-License-Identifier: MIT

// Package cli provides the command line primary port. It runs before every
// other primary port and translates flags into application settings.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/goeda/goeda/log"
	"github.com/goeda/goeda/ports"
)

// LogConfigCLI adjusts log verbosity and run mode from command line flags.
// It recognizes -v, -vv, -q, --one-shot and --config <path>; unknown flags
// are left for the hosting command to handle.
type LogConfigCLI struct {
	// Args overrides os.Args[1:]. Used by tests and by commands that do
	// their own flag splitting.
	Args []string

	quiet bool
}

// NewLogConfigCLI returns a CLI port reading os.Args.
func NewLogConfigCLI() *LogConfigCLI {
	return &LogConfigCLI{}
}

// Priority places the CLI port ahead of every other primary port so that
// verbosity is settled before any of them logs.
func (c *LogConfigCLI) Priority() int { return -100 }

// OneShotCompatible reports that the CLI port also runs in one-shot mode.
func (c *LogConfigCLI) OneShotCompatible() bool { return true }

// Configure parses the flags and applies them to the application.
func (c *LogConfigCLI) Configure(ctx context.Context, app ports.Application) error {
	args := c.Args
	if args == nil {
		args = os.Args[1:]
	}

	level := ""
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-v", "--verbose":
			level = "debug"
		case "-vv", "--trace":
			level = "trace"
		case "-q", "--quiet":
			c.quiet = true
			level = "error"
		case "--one-shot":
			app.SetOneShot(true)
		case "--config":
			// Consumed before bootstrap by ConfigPath; skip the value.
			if i+1 < len(args) {
				i++
			}
		}
	}

	if level != "" {
		if err := log.SetLevel(level); err != nil {
			return fmt.Errorf("apply log level %q: %w", level, err)
		}
	}
	return nil
}

// Entrypoint prints the banner and returns. The CLI port has no long
// running work of its own.
func (c *LogConfigCLI) Entrypoint(ctx context.Context, app ports.Application) error {
	if !c.quiet {
		if banner := app.Banner(); banner != "" {
			fmt.Fprintln(os.Stdout, banner)
		}
	}
	return nil
}

// ConfigPath extracts the --config value from args, or "" if absent. It is
// meant to run before application bootstrap, which needs the path earlier
// than Configure is called.
func ConfigPath(args []string) string {
	for i := 0; i < len(args); i++ {
		if args[i] == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

var _ ports.PrimaryPort = (*LogConfigCLI)(nil)
