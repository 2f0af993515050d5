// Package devctl is the CLI entry point.
package devctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/racecarparts/devcontainer/internal/cmd/factory"
	"github.com/racecarparts/devcontainer/internal/cmd/root"
	"github.com/racecarparts/devcontainer/internal/cmdutil"
	"github.com/racecarparts/devcontainer/internal/logger"
)

// Build-time variables injected via ldflags
var (
	Version = "dev"
	Commit  = "none"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// Main is the entry point for the devctl CLI.
// It initializes the Factory, creates the root command, and executes it.
func Main() int {
	// Ensure logs are flushed on exit
	defer logger.CloseFileWriter()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	f := factory.New(Version, Commit)
	defer f.CloseClient()

	rootCmd := root.NewCmdRoot(f, Version, Commit)

	cmd, err := rootCmd.ExecuteContextC(ctx)
	if err == nil {
		return exitOK
	}

	var exitErr *cmdutil.ExitError
	var flagErr *cmdutil.FlagError

	switch {
	case errors.Is(err, cmdutil.SilentError):
		return exitError
	case errors.As(err, &exitErr):
		return exitErr.Code
	case errors.As(err, &flagErr):
		fmt.Fprintln(f.IOStreams.ErrOut, err)
		fmt.Fprintln(f.IOStreams.ErrOut, cmd.UsageString())
		return exitUsage
	default:
		fmt.Fprintf(f.IOStreams.ErrOut, "devctl: %v\n", err)
		return exitError
	}
}
