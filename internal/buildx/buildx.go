// Package buildx constructs and executes `docker buildx build` invocations.
//
// The build tool is treated as an opaque capability: arguments in, exit
// status out. Image assembly, caching and registry pushes all belong to
// buildx itself.
package buildx

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"sort"
	"strings"

	"github.com/containerd/platforms"

	"github.com/racecarparts/devcontainer/internal/matrix"
)

// Build arg names passed to the build definition.
const (
	ArgGoVersion     = "GO_VERSION"
	ArgPythonVersion = "PYTHON_VERSION"
)

// Task is one fully-resolved buildx invocation for a single matrix entry.
type Task struct {
	Entry      matrix.Entry
	Tags       []string
	BuildArgs  map[string]string
	Platforms  []string
	Push       bool // --push when true, --load otherwise
	File       string
	ContextDir string
	ExtraArgs  []string
}

// PrimaryTag returns the first tag, used for log attribution.
func (t Task) PrimaryTag() string {
	if len(t.Tags) == 0 {
		return t.Entry.Tag()
	}
	return t.Tags[0]
}

// Args returns the argument vector for the docker binary, deterministic for
// a given task (build args are emitted in sorted key order).
func (t Task) Args() []string {
	args := []string{"buildx", "build"}

	args = append(args, "--file", t.File)
	args = append(args, "--platform", strings.Join(t.Platforms, ","))

	keys := make([]string, 0, len(t.BuildArgs))
	for k := range t.BuildArgs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "--build-arg", fmt.Sprintf("%s=%s", k, t.BuildArgs[k]))
	}

	for _, tag := range t.Tags {
		args = append(args, "--tag", tag)
	}

	if t.Push {
		args = append(args, "--push")
	} else {
		args = append(args, "--load")
	}

	args = append(args, t.ExtraArgs...)
	args = append(args, t.ContextDir)

	return args
}

// String renders the full command line, for --dry-run output and logs.
func (t Task) String() string {
	return "docker " + strings.Join(t.Args(), " ")
}

// HostPlatform returns the normalized platform of the invoking host,
// e.g. "linux/arm64". Local-mode builds are restricted to this platform.
func HostPlatform() string {
	return platforms.Format(platforms.DefaultSpec())
}

// Runner executes a build task. Implementations report success or failure
// solely through the returned error.
type Runner interface {
	Run(ctx context.Context, task Task, out, errOut io.Writer) error
}

// ExecRunner runs tasks through the docker binary as a subprocess.
type ExecRunner struct {
	// Binary is the build tool executable. Defaults to "docker".
	Binary string
}

// NewExecRunner creates an ExecRunner using the docker binary on PATH.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{Binary: "docker"}
}

// Run invokes the build tool and blocks until it exits.
// Cancelling the context kills the subprocess.
func (r *ExecRunner) Run(ctx context.Context, task Task, out, errOut io.Writer) error {
	binary := r.Binary
	if binary == "" {
		binary = "docker"
	}

	cmd := exec.CommandContext(ctx, binary, task.Args()...)
	cmd.Stdout = out
	cmd.Stderr = errOut

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("buildx build for %s: %w", task.PrimaryTag(), err)
	}
	return nil
}
