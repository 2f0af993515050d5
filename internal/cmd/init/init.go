// Package init implements the installer: fetch the version matrix and the
// devcontainer template, prompt for a combination, and write the rendered
// .devcontainer/devcontainer.json.
package init

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/racecarparts/devcontainer/internal/cmdutil"
	"github.com/racecarparts/devcontainer/internal/config"
	"github.com/racecarparts/devcontainer/internal/devcontainer"
	"github.com/racecarparts/devcontainer/internal/git"
	"github.com/racecarparts/devcontainer/internal/logger"
	"github.com/racecarparts/devcontainer/internal/prompter"
)

// InitOptions contains the options for the init command.
type InitOptions struct {
	BaseURL    string
	Registry   string
	Repository string
	Name       string
}

// NewCmdInit creates the init command.
func NewCmdInit(f *cmdutil.Factory) *cobra.Command {
	opts := &InitOptions{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Set up .devcontainer/devcontainer.json for this project",
		Long: `Fetches the supported version matrix and the devcontainer template,
prompts for a (Go, Python) combination, and writes the rendered
configuration to .devcontainer/devcontainer.json.

The project name, the resolved image reference and the git identity
(user.name / user.email) are substituted into the template. A template
missing any of the expected fields is an error.`,
		Example: `  # Interactive setup in the current project
  devctl init

  # Non-default registry and explicit project name
  devctl init --registry registry.example.com --name "My Service"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, f, opts)
		},
	}

	cmd.Flags().StringVar(&opts.BaseURL, "base-url", "", "Distribution endpoint for versions.json and the template")
	cmd.Flags().StringVar(&opts.Registry, "registry", "", "Image registry (default "+config.DefaultRegistry+")")
	cmd.Flags().StringVar(&opts.Repository, "repository", "", "Image repository (default derived from git remote)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "Project display name (default prompted, or the directory name)")

	return cmd
}

func runInit(cmd *cobra.Command, f *cmdutil.Factory, opts *InitOptions) error {
	ctx := cmd.Context()

	cfg, err := f.Config(config.Overrides{
		BaseURL:    opts.BaseURL,
		Registry:   opts.Registry,
		Repository: opts.Repository,
	})
	if err != nil {
		return err
	}

	client := f.Remote(cfg.BaseURL)

	logger.Debug().Str("base_url", cfg.BaseURL).Msg("fetching version matrix")
	f.IOStreams.StartProgressIndicator("fetching version matrix")
	m, err := client.FetchMatrix(ctx)
	f.IOStreams.StopProgressIndicator()
	if err != nil {
		return fmt.Errorf("no versions available: %w", err)
	}

	p := f.Prompter()

	entry, err := p.SelectEntry(m.Combinations)
	if err != nil {
		return err
	}

	name := opts.Name
	if name == "" {
		name, err = p.String(prompter.StringConfig{
			Message: "Project name",
			Default: defaultProjectName(f.WorkDir),
		})
		if err != nil {
			return err
		}
	}

	identity := resolveIdentity(f.WorkDir)

	logger.Debug().Str("base_url", cfg.BaseURL).Msg("fetching devcontainer template")
	template, err := client.FetchTemplate(ctx)
	if err != nil {
		return err
	}

	rendered, err := devcontainer.Render(template, devcontainer.Substitutions{
		Name:         name,
		Image:        cfg.ImageRef(entry.Tag()),
		GitUserName:  identity.Name,
		GitUserEmail: identity.Email,
	})
	if err != nil {
		return err
	}

	path, err := devcontainer.WriteFile(f.WorkDir, rendered)
	if err != nil {
		return err
	}

	f.IOStreams.Errf("Wrote %s (Go %s, Python %s)\n", path, entry.Go, entry.Python)
	return nil
}

func defaultProjectName(workDir string) string {
	abs, err := filepath.Abs(workDir)
	if err != nil {
		abs = workDir
	}
	return filepath.Base(abs)
}

// resolveIdentity reads the git identity, tolerating missing configuration.
// An absent repository or unset user.name/user.email produces empty values
// and a warning, not a failure.
func resolveIdentity(workDir string) git.Identity {
	mgr, err := git.Open(workDir)
	if err != nil {
		if !errors.Is(err, git.ErrNotRepository) {
			logger.Warn().Err(err).Msg("could not open git repository")
		}
		return git.Identity{}
	}

	identity, err := mgr.Identity()
	if err != nil {
		logger.Warn().Err(err).Msg("could not read git identity")
		return git.Identity{}
	}

	if identity.Name == "" || identity.Email == "" {
		logger.Warn().Msg("git user.name or user.email is not set; containerEnv values will be empty")
	}
	return identity
}
