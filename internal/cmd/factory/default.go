// Package factory wires the real implementations behind cmdutil.Factory.
package factory

import (
	"context"
	"os"
	"sync"

	"github.com/racecarparts/devcontainer/internal/cmdutil"
	"github.com/racecarparts/devcontainer/internal/config"
	"github.com/racecarparts/devcontainer/internal/docker"
	"github.com/racecarparts/devcontainer/internal/iostreams"
	"github.com/racecarparts/devcontainer/internal/logger"
	"github.com/racecarparts/devcontainer/internal/prompter"
	"github.com/racecarparts/devcontainer/internal/remote"
)

// New creates a fully-wired Factory with lazy-initialized dependency closures.
// Called exactly once at the CLI entry point.
// Command tests construct &cmdutil.Factory{} directly instead of using this.
func New(version, commit string) *cmdutil.Factory {
	ios := iostreams.NewIOStreams()

	if !ios.IsOutputTTY() || os.Getenv("NO_COLOR") != "" {
		ios.SetColorEnabled(false)
	}

	// Respect CI environment (disable prompts)
	if os.Getenv("CI") != "" {
		ios.SetNeverPrompt(true)
	}

	workDir, err := os.Getwd()
	if err != nil {
		workDir = "."
	}

	f := &cmdutil.Factory{
		Version:   version,
		Commit:    commit,
		WorkDir:   workDir,
		IOStreams: ios,
	}

	// --- Lazy dependency closures ---

	var (
		configOnce sync.Once
		configData *config.Config
		configErr  error
	)
	f.Config = func(o config.Overrides) (*config.Config, error) {
		configOnce.Do(func() {
			configData, configErr = config.Resolve(f.WorkDir, o)
			if configErr == nil {
				initFileLogging(f.Debug, configData)
			}
		})
		return configData, configErr
	}

	var (
		clientOnce sync.Once
		client     *docker.Client
		clientErr  error
	)
	f.Client = func(ctx context.Context) (*docker.Client, error) {
		clientOnce.Do(func() {
			client, clientErr = docker.NewClient(ctx)
		})
		return client, clientErr
	}
	f.CloseClient = func() {
		if client != nil {
			client.Close()
		}
	}

	f.Remote = func(baseURL string) *remote.Client {
		return remote.NewClient(baseURL)
	}

	// One prompter for the whole invocation: its buffered reader may hold
	// type-ahead input for the next prompt.
	p := prompter.New(ios)
	f.Prompter = func() *prompter.Prompter {
		return p
	}

	return f
}

// initFileLogging upgrades the console-only logger with rotated file output
// once settings are known. Failures keep console logging and warn.
func initFileLogging(debug bool, cfg *config.Config) {
	logsDir, err := config.LogsDir()
	if err != nil {
		logger.Warn().Err(err).Msg("file logging unavailable: failed to get logs directory")
		return
	}
	if err := logger.InitWithFile(debug, logsDir, &cfg.Logging); err != nil {
		logger.Warn().Err(err).Msg("file logging unavailable: failed to initialize file writer")
	}
}
