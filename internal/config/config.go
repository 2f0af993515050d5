// Package config resolves the process-wide configuration exactly once at
// startup. Precedence per key: explicit flag > DEVCONTAINER_* environment
// variable > settings.yaml > computed default. Nothing else in the repo
// reads flags or the environment for these values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/shlex"
	"github.com/spf13/viper"

	"github.com/racecarparts/devcontainer/internal/git"
	"github.com/racecarparts/devcontainer/internal/logger"
)

// Defaults for keys with no flag, env or settings value.
const (
	DefaultRegistry        = "ghcr.io"
	DefaultBaseURL         = "https://raw.githubusercontent.com/racecarparts/devcontainer/main"
	DefaultVersionsFile    = "versions.json"
	DefaultBuildDefinition = "Dockerfile"
	DefaultContextDir      = "."
)

// Config is the immutable resolved configuration.
type Config struct {
	// BaseURL is the distribution endpoint for versions.json and the
	// devcontainer template.
	BaseURL string

	// Registry and Repository form the image reference prefix.
	Registry   string
	Repository string

	// VersionsFile is the local version matrix path used by the build driver.
	VersionsFile string

	// BuildDefinition is the Dockerfile passed to buildx.
	BuildDefinition string

	// ContextDir is the build context directory.
	ContextDir string

	// ExtraBuildArgs are additional raw arguments appended to every buildx
	// invocation, parsed shell-style from settings.
	ExtraBuildArgs []string

	// Logging configures optional rotated file logging.
	Logging logger.LoggingConfig
}

// ImageRef builds the full image reference for a tag suffix,
// e.g. "ghcr.io/racecarparts/devcontainer:go1.23.2-py3.12.7".
func (c *Config) ImageRef(tag string) string {
	return fmt.Sprintf("%s/%s:%s", c.Registry, c.Repository, tag)
}

// LatestRef builds the ":latest" alias reference.
func (c *Config) LatestRef() string {
	return c.ImageRef("latest")
}

// Overrides carries explicit flag values into Resolve. Empty fields are
// treated as unset.
type Overrides struct {
	BaseURL         string
	Registry        string
	Repository      string
	VersionsFile    string
	BuildDefinition string
	ContextDir      string
}

// Resolve builds the Config for this invocation. workDir is used to compute
// the repository-name default (git origin remote, else directory base name).
func Resolve(workDir string, o Overrides) (*Config, error) {
	v := viper.New()

	v.SetDefault("registry", DefaultRegistry)
	v.SetDefault("base_url", DefaultBaseURL)
	v.SetDefault("versions_file", DefaultVersionsFile)
	v.SetDefault("build_definition", DefaultBuildDefinition)
	v.SetDefault("context_dir", DefaultContextDir)
	v.SetDefault("repository", "")
	v.SetDefault("extra_build_args", "")

	// Optional settings file; absence is not an error.
	if path, err := SettingsPath(); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading settings %s: %w", path, err)
			}
		}
	}

	v.SetEnvPrefix("DEVCONTAINER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicit flags win over everything.
	setIfNotEmpty(v, "base_url", o.BaseURL)
	setIfNotEmpty(v, "registry", o.Registry)
	setIfNotEmpty(v, "repository", o.Repository)
	setIfNotEmpty(v, "versions_file", o.VersionsFile)
	setIfNotEmpty(v, "build_definition", o.BuildDefinition)
	setIfNotEmpty(v, "context_dir", o.ContextDir)

	cfg := &Config{
		BaseURL:         strings.TrimSuffix(v.GetString("base_url"), "/"),
		Registry:        v.GetString("registry"),
		Repository:      v.GetString("repository"),
		VersionsFile:    v.GetString("versions_file"),
		BuildDefinition: v.GetString("build_definition"),
		ContextDir:      v.GetString("context_dir"),
		Logging: logger.LoggingConfig{
			MaxSizeMB:  v.GetInt("logging.max_size_mb"),
			MaxAgeDays: v.GetInt("logging.max_age_days"),
			MaxBackups: v.GetInt("logging.max_backups"),
		},
	}

	if v.IsSet("logging.file_enabled") {
		enabled := v.GetBool("logging.file_enabled")
		cfg.Logging.FileEnabled = &enabled
	}

	if raw := v.GetString("extra_build_args"); raw != "" {
		args, err := shlex.Split(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing extra_build_args: %w", err)
		}
		cfg.ExtraBuildArgs = args
	}

	if cfg.Repository == "" {
		cfg.Repository = defaultRepository(workDir)
	}

	return cfg, nil
}

func setIfNotEmpty(v *viper.Viper, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}

// defaultRepository derives the repository name from the origin remote of the
// enclosing git repository, falling back to the working directory base name.
func defaultRepository(workDir string) string {
	if mgr, err := git.Open(workDir); err == nil {
		if name := mgr.RemoteRepoName(); name != "" {
			return name
		}
	}

	abs, err := filepath.Abs(workDir)
	if err != nil {
		return filepath.Base(workDir)
	}
	return filepath.Base(abs)
}
