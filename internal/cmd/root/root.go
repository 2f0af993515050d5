// Package root assembles the devctl command tree.
package root

import (
	"github.com/spf13/cobra"

	buildcmd "github.com/racecarparts/devcontainer/internal/cmd/build"
	initcmd "github.com/racecarparts/devcontainer/internal/cmd/init"
	versioncmd "github.com/racecarparts/devcontainer/internal/cmd/version"
	versionscmd "github.com/racecarparts/devcontainer/internal/cmd/versions"
	"github.com/racecarparts/devcontainer/internal/cmdutil"
	"github.com/racecarparts/devcontainer/internal/logger"
)

// NewCmdRoot creates the root command for the devctl CLI.
func NewCmdRoot(f *cmdutil.Factory, version, commit string) *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "devctl",
		Short: "Manage the project's Go + Python devcontainer images",
		Long: `Devctl sets up and builds the devcontainer images for this project.

Quick start:
  devctl init       # Fetch the version matrix and write .devcontainer/devcontainer.json
  devctl versions   # List supported (Go, Python) combinations
  devctl build      # Build images locally for the host platform
  devctl build --push   # Build and push multi-platform images`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Annotations: map[string]string{
			"versionInfo": versioncmd.Format(version, commit),
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			f.Debug = debug

			// Console-only at first; the factory upgrades to file logging
			// when the command resolves its configuration.
			logger.Init(debug)

			logger.Debug().
				Str("version", f.Version).
				Bool("debug", debug).
				Msg("devctl starting")

			return nil
		},
		Version: f.Version,
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&debug, "debug", "D", false, "Enable debug logging")

	// Version template
	cmd.SetVersionTemplate(versioncmd.Format(version, commit))

	cmd.AddCommand(initcmd.NewCmdInit(f))
	cmd.AddCommand(buildcmd.NewCmdBuild(f))
	cmd.AddCommand(versionscmd.NewCmdVersions(f))
	cmd.AddCommand(versioncmd.NewCmdVersion(f, version, commit))

	return cmd
}
