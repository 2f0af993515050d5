// Package build implements the build driver: one buildx invocation per
// selected matrix entry, local --load or multi-platform --push.
package build

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/racecarparts/devcontainer/internal/buildx"
	"github.com/racecarparts/devcontainer/internal/cmdutil"
	"github.com/racecarparts/devcontainer/internal/config"
	"github.com/racecarparts/devcontainer/internal/logger"
	"github.com/racecarparts/devcontainer/internal/matrix"
	"github.com/racecarparts/devcontainer/internal/runner"
)

// BuildOptions contains the options for the build command.
type BuildOptions struct {
	Push          bool
	GoVersion     string
	PythonVersion string
	Registry      string
	Repository    string
	File          string
	ContextDir    string
	VersionsFile  string
	Parallel      int
	Latest        bool
	DryRun        bool

	// Runner overrides the buildx subprocess runner. Tests inject fakes.
	Runner buildx.Runner
}

// NewCmdBuild creates the build command.
func NewCmdBuild(f *cmdutil.Factory) *cobra.Command {
	opts := &BuildOptions{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build images for the supported version matrix",
		Long: `Builds one container image per version-matrix entry via docker buildx.

Without --push, images build for the host platform only and load into the
local image store. With --push, each entry builds for all of its listed
platforms and pushes to the registry without retaining a local copy.

--go and --python restrict the run to entries matching both filters exactly.
The first failing build aborts the remaining sequence; with --parallel the
started siblings finish and every outcome is reported.`,
		Example: `  # Build every combination locally
  devctl build

  # Push multi-platform images for one Go version
  devctl build --push --go 1.23.2

  # Preview the buildx invocations
  devctl build --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Parallel < 1 {
				return cmdutil.FlagErrorf("--parallel must be at least 1")
			}
			return runBuild(cmd.Context(), f, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Push, "push", false, "Build all listed platforms and push to the registry")
	cmd.Flags().StringVar(&opts.GoVersion, "go", "", "Only build entries with this exact Go version")
	cmd.Flags().StringVar(&opts.PythonVersion, "python", "", "Only build entries with this exact Python version")
	cmd.Flags().StringVar(&opts.Registry, "registry", "", "Image registry (default "+config.DefaultRegistry+")")
	cmd.Flags().StringVar(&opts.Repository, "repository", "", "Image repository (default derived from git remote)")
	cmd.Flags().StringVar(&opts.File, "file", "", "Build definition file (default "+config.DefaultBuildDefinition+")")
	cmd.Flags().StringVar(&opts.ContextDir, "context", "", "Build context directory (default "+config.DefaultContextDir+")")
	cmd.Flags().StringVar(&opts.VersionsFile, "versions", "", "Version matrix file (default "+config.DefaultVersionsFile+")")
	cmd.Flags().IntVar(&opts.Parallel, "parallel", 1, "Number of concurrent builds")
	cmd.Flags().BoolVar(&opts.Latest, "latest", false, "Also tag each built image as :latest")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Print the buildx invocations without executing them")

	return cmd
}

func runBuild(ctx context.Context, f *cmdutil.Factory, opts *BuildOptions) error {
	cfg, err := f.Config(config.Overrides{
		Registry:        opts.Registry,
		Repository:      opts.Repository,
		VersionsFile:    opts.VersionsFile,
		BuildDefinition: opts.File,
		ContextDir:      opts.ContextDir,
	})
	if err != nil {
		return err
	}

	m, err := loadMatrix(ctx, f, cfg)
	if err != nil {
		return err
	}

	entries := m.Filter(opts.GoVersion, opts.PythonVersion)
	if len(entries) == 0 {
		return fmt.Errorf("no matrix entries match go=%q python=%q", opts.GoVersion, opts.PythonVersion)
	}

	tasks := Tasks(cfg, entries, opts)

	if opts.DryRun {
		for _, t := range tasks {
			f.IOStreams.Printf("%s\n", t.String())
		}
		return nil
	}

	// Local mode needs a reachable daemon; fail once up front instead of
	// once per entry.
	if !opts.Push {
		if _, err := f.Client(ctx); err != nil {
			return err
		}
	}

	run := opts.Runner
	if run == nil {
		run = buildx.NewExecRunner()
	}

	exec := &runner.Executor{
		Runner:   run,
		Parallel: opts.Parallel,
		Out:      f.IOStreams.Out,
	}

	summary, execErr := exec.Execute(ctx, tasks)
	summary.Write(f.IOStreams.ErrOut)

	if execErr == nil && !opts.Push {
		if err := verifyLoaded(ctx, f, tasks, opts.Latest, cfg.LatestRef()); err != nil {
			return err
		}
	}

	if execErr != nil {
		logger.Error().
			Int("failed", summary.Failed()).
			Int("succeeded", summary.Succeeded()).
			Msg("build run failed")
		return execErr
	}

	f.IOStreams.Errf("Built %d image(s)\n", summary.Succeeded())
	return nil
}

// Tasks maps the selected matrix entries to buildx invocations.
func Tasks(cfg *config.Config, entries []matrix.Entry, opts *BuildOptions) []buildx.Task {
	tasks := make([]buildx.Task, 0, len(entries))
	for _, e := range entries {
		t := buildx.Task{
			Entry: e,
			Tags:  []string{cfg.ImageRef(e.Tag())},
			BuildArgs: map[string]string{
				buildx.ArgGoVersion:     e.Go,
				buildx.ArgPythonVersion: e.Python,
			},
			Push:       opts.Push,
			File:       cfg.BuildDefinition,
			ContextDir: cfg.ContextDir,
			ExtraArgs:  cfg.ExtraBuildArgs,
		}

		if opts.Push {
			t.Platforms = e.Platforms
		} else {
			t.Platforms = []string{buildx.HostPlatform()}
		}

		// In push mode the latest alias rides on the same invocation; in
		// local mode it is applied through the API after the build.
		if opts.Latest && opts.Push {
			t.Tags = append(t.Tags, cfg.LatestRef())
		}

		tasks = append(tasks, t)
	}
	return tasks
}

// loadMatrix reads the local versions file, falling back to the distribution
// endpoint when the file does not exist.
func loadMatrix(ctx context.Context, f *cmdutil.Factory, cfg *config.Config) (*matrix.Matrix, error) {
	m, err := matrix.Load(cfg.VersionsFile)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	logger.Debug().
		Str("versions_file", cfg.VersionsFile).
		Str("base_url", cfg.BaseURL).
		Msg("local version matrix not found, fetching from distribution endpoint")

	return f.Remote(cfg.BaseURL).FetchMatrix(ctx)
}

// verifyLoaded confirms local-mode builds actually landed in the image store
// and applies the latest alias. A missing image after a zero exit status means
// buildx loaded somewhere unexpected; surface it as a warning rather than
// failing a finished run. With multiple entries the alias ends up on the last
// one built, same as repeated --tag pushes would leave it.
func verifyLoaded(ctx context.Context, f *cmdutil.Factory, tasks []buildx.Task, latest bool, latestRef string) error {
	client, err := f.Client(ctx)
	if err != nil {
		return nil
	}

	for _, t := range tasks {
		exists, err := client.ImageExists(ctx, t.PrimaryTag())
		if err != nil {
			logger.Warn().Err(err).Str("image", t.PrimaryTag()).Msg("could not verify loaded image")
			continue
		}
		if !exists {
			logger.Warn().Str("image", t.PrimaryTag()).Msg("image not found in local store after build")
			continue
		}
		if latest {
			if err := client.TagImage(ctx, t.PrimaryTag(), latestRef); err != nil {
				return err
			}
		}
	}
	return nil
}
