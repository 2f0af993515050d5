// Package versions lists the supported version matrix.
package versions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/racecarparts/devcontainer/internal/cmdutil"
	"github.com/racecarparts/devcontainer/internal/config"
	"github.com/racecarparts/devcontainer/internal/matrix"
)

// VersionsOptions contains the options for the versions command.
type VersionsOptions struct {
	VersionsFile string
	BaseURL      string
	JSON         bool
	Sort         bool
}

// NewCmdVersions creates the versions command.
func NewCmdVersions(f *cmdutil.Factory) *cobra.Command {
	opts := &VersionsOptions{}

	cmd := &cobra.Command{
		Use:   "versions",
		Short: "List the supported version combinations",
		Long: `Prints the version matrix as the numbered list the installer shows,
in file order, without prompting. --sort orders newest first instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersions(cmd.Context(), f, opts)
		},
	}

	cmd.Flags().StringVar(&opts.VersionsFile, "versions", "", "Version matrix file (default "+config.DefaultVersionsFile+")")
	cmd.Flags().StringVar(&opts.BaseURL, "base-url", "", "Distribution endpoint used when no local matrix exists")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Print the matrix as JSON")
	cmd.Flags().BoolVar(&opts.Sort, "sort", false, "Order newest first instead of file order")

	return cmd
}

func runVersions(ctx context.Context, f *cmdutil.Factory, opts *VersionsOptions) error {
	cfg, err := f.Config(config.Overrides{
		BaseURL:      opts.BaseURL,
		VersionsFile: opts.VersionsFile,
	})
	if err != nil {
		return err
	}

	m, err := matrix.Load(cfg.VersionsFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		m, err = f.Remote(cfg.BaseURL).FetchMatrix(ctx)
		if err != nil {
			return err
		}
	}

	entries := m.Combinations
	if opts.Sort {
		entries = m.SortedBySemver()
	}

	if opts.JSON {
		enc := json.NewEncoder(f.IOStreams.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(&matrix.Matrix{Combinations: entries})
	}

	for i, e := range entries {
		fmt.Fprintf(f.IOStreams.Out, "%d) Go %s / Python %s  [%s]\n",
			i+1, e.Go, e.Python, strings.Join(e.Platforms, ", "))
	}
	return nil
}
