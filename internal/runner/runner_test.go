package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/racecarparts/devcontainer/internal/buildx"
	"github.com/racecarparts/devcontainer/internal/logger"
	"github.com/racecarparts/devcontainer/internal/matrix"
)

func TestMain(m *testing.M) {
	logger.Init(false)
	os.Exit(m.Run())
}

// fakeRunner records run order and fails for configured tags.
type fakeRunner struct {
	mu      sync.Mutex
	ran     []string
	failFor map[string]error
	output  string
}

func (f *fakeRunner) Run(_ context.Context, task buildx.Task, out, _ io.Writer) error {
	f.mu.Lock()
	f.ran = append(f.ran, task.PrimaryTag())
	f.mu.Unlock()

	if f.output != "" {
		fmt.Fprintln(out, f.output)
	}
	if err, ok := f.failFor[task.PrimaryTag()]; ok {
		return err
	}
	return nil
}

func task(goV, pyV string) buildx.Task {
	e := matrix.Entry{Go: goV, Python: pyV, Platforms: []string{"linux/amd64"}}
	return buildx.Task{
		Entry: e,
		Tags:  []string{"ghcr.io/acme/widgets:" + e.Tag()},
	}
}

func TestExecute_SequentialSuccess(t *testing.T) {
	fake := &fakeRunner{}
	e := &Executor{Runner: fake, Parallel: 1}

	tasks := []buildx.Task{task("1.23.2", "3.12.7"), task("1.22.8", "3.11.10")}
	summary, err := e.Execute(context.Background(), tasks)
	require.NoError(t, err)
	require.Equal(t, 2, summary.Succeeded())
	require.Equal(t, 0, summary.Failed())

	// File order, one at a time
	require.Equal(t, []string{
		"ghcr.io/acme/widgets:go1.23.2-py3.12.7",
		"ghcr.io/acme/widgets:go1.22.8-py3.11.10",
	}, fake.ran)
}

func TestExecute_SequentialFailFast(t *testing.T) {
	boom := errors.New("build failed")
	fake := &fakeRunner{failFor: map[string]error{
		"ghcr.io/acme/widgets:go1.23.2-py3.12.7": boom,
	}}
	e := &Executor{Runner: fake, Parallel: 1}

	tasks := []buildx.Task{
		task("1.23.2", "3.12.7"),
		task("1.22.8", "3.11.10"),
		task("1.22.8", "3.12.7"),
	}
	summary, err := e.Execute(context.Background(), tasks)
	require.ErrorIs(t, err, boom)

	// First task failed, the rest never ran
	require.Len(t, fake.ran, 1)
	require.Equal(t, 1, summary.Failed())
	require.Equal(t, 0, summary.Succeeded())
	require.Len(t, summary.Results, 1)
}

func TestExecute_ParallelCollectsAllOutcomes(t *testing.T) {
	boom := errors.New("build failed")
	fake := &fakeRunner{failFor: map[string]error{
		"ghcr.io/acme/widgets:go1.23.2-py3.12.7": boom,
	}}
	e := &Executor{Runner: fake, Parallel: 2}

	tasks := []buildx.Task{task("1.23.2", "3.12.7"), task("1.22.8", "3.11.10")}
	summary, err := e.Execute(context.Background(), tasks)
	require.ErrorIs(t, err, boom)

	require.Len(t, summary.Results, 2)
	require.Equal(t, 1, summary.Failed())
}

func TestExecute_ParallelAllSucceed(t *testing.T) {
	fake := &fakeRunner{}
	e := &Executor{Runner: fake, Parallel: 3}

	tasks := []buildx.Task{
		task("1.23.2", "3.12.7"),
		task("1.23.2", "3.11.10"),
		task("1.22.8", "3.12.7"),
	}
	summary, err := e.Execute(context.Background(), tasks)
	require.NoError(t, err)
	require.Equal(t, 3, summary.Succeeded())
	require.Len(t, fake.ran, 3)
}

func TestExecute_OutputPrefixedPerTask(t *testing.T) {
	fake := &fakeRunner{output: "step 1/4"}
	out := &bytes.Buffer{}
	e := &Executor{Runner: fake, Parallel: 1, Out: out}

	_, err := e.Execute(context.Background(), []buildx.Task{task("1.23.2", "3.12.7")})
	require.NoError(t, err)
	require.Contains(t, out.String(), "[ghcr.io/acme/widgets:go1.23.2-py3.12.7] step 1/4")
}

func TestExecute_CancelledContextSkips(t *testing.T) {
	fake := &fakeRunner{}
	e := &Executor{Runner: fake, Parallel: 1}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := e.Execute(ctx, []buildx.Task{task("1.23.2", "3.12.7")})
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, fake.ran)
	require.Len(t, summary.Results, 1)
	require.True(t, summary.Results[0].Skipped)
}

func TestSummaryWrite(t *testing.T) {
	summary := Summary{Results: []Result{
		{Task: task("1.23.2", "3.12.7")},
		{Task: task("1.22.8", "3.11.10"), Err: errors.New("boom")},
		{Task: task("1.22.8", "3.12.7"), Err: context.Canceled, Skipped: true},
	}}

	buf := &bytes.Buffer{}
	summary.Write(buf)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	require.True(t, strings.HasPrefix(lines[0], "ok"))
	require.True(t, strings.HasPrefix(lines[1], "fail"))
	require.True(t, strings.HasPrefix(lines[2], "skip"))
}

func TestPrefixWriter_SplitsAcrossWrites(t *testing.T) {
	buf := &bytes.Buffer{}
	w := newPrefixWriter(buf, "[x] ")

	_, err := w.Write([]byte("partial"))
	require.NoError(t, err)
	require.Empty(t, buf.String())

	_, err = w.Write([]byte(" line\nsecond\n"))
	require.NoError(t, err)
	require.Equal(t, "[x] partial line\n[x] second\n", buf.String())

	_, err = w.Write([]byte("tail"))
	require.NoError(t, err)
	w.Flush()
	require.Equal(t, "[x] partial line\n[x] second\n[x] tail\n", buf.String())
}
