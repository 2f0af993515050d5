// Package runner executes a list of build tasks and collects per-task
// outcomes.
//
// The default is sequential fail-fast: the first failing task aborts the
// remaining sequence. With Parallel > 1 tasks run on a bounded worker pool;
// the first failure cancels tasks that have not started yet, in-flight builds
// run to completion, and every started task's outcome lands in the summary.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/racecarparts/devcontainer/internal/buildx"
	"github.com/racecarparts/devcontainer/internal/logger"
)

// Result is the outcome of one build task.
type Result struct {
	Task     buildx.Task
	Err      error
	Skipped  bool // true when cancelled before the task started
	Duration time.Duration
}

// Summary aggregates the outcomes of a run.
type Summary struct {
	Results []Result
}

// Failed returns the number of tasks that ran and failed.
func (s Summary) Failed() int {
	n := 0
	for _, r := range s.Results {
		if r.Err != nil && !r.Skipped {
			n++
		}
	}
	return n
}

// Succeeded returns the number of tasks that completed successfully.
func (s Summary) Succeeded() int {
	n := 0
	for _, r := range s.Results {
		if r.Err == nil && !r.Skipped {
			n++
		}
	}
	return n
}

// Write renders the per-task report.
func (s Summary) Write(w io.Writer) {
	for _, r := range s.Results {
		switch {
		case r.Skipped:
			fmt.Fprintf(w, "skip  %s\n", r.Task.PrimaryTag())
		case r.Err != nil:
			fmt.Fprintf(w, "fail  %s  (%s): %v\n", r.Task.PrimaryTag(), r.Duration.Round(time.Millisecond), r.Err)
		default:
			fmt.Fprintf(w, "ok    %s  (%s)\n", r.Task.PrimaryTag(), r.Duration.Round(time.Millisecond))
		}
	}
}

// Executor runs build tasks through a buildx.Runner.
type Executor struct {
	Runner buildx.Runner

	// Parallel is the worker pool size. Values <= 1 mean sequential
	// fail-fast execution.
	Parallel int

	// Out receives build output, prefixed per task with its primary tag.
	Out io.Writer
}

// Execute runs all tasks and returns the summary. The returned error is the
// first task failure (or context error); a non-nil error always corresponds
// to at least one failed result.
func (e *Executor) Execute(ctx context.Context, tasks []buildx.Task) (Summary, error) {
	if e.Parallel > 1 {
		return e.executeParallel(ctx, tasks)
	}
	return e.executeSequential(ctx, tasks)
}

func (e *Executor) executeSequential(ctx context.Context, tasks []buildx.Task) (Summary, error) {
	var summary Summary

	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			summary.Results = append(summary.Results, Result{Task: task, Err: err, Skipped: true})
			continue
		}

		logger.Info().
			Str("tag", task.PrimaryTag()).
			Strs("platforms", task.Platforms).
			Bool("push", task.Push).
			Msg("building image")

		start := time.Now()
		err := e.run(ctx, task)
		summary.Results = append(summary.Results, Result{
			Task:     task,
			Err:      err,
			Duration: time.Since(start),
		})

		if err != nil {
			// Fail fast: remaining entries are not attempted.
			return summary, err
		}
	}

	return summary, ctx.Err()
}

func (e *Executor) executeParallel(ctx context.Context, tasks []buildx.Task) (Summary, error) {
	results := make([]Result, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.Parallel)

	for i, task := range tasks {
		g.Go(func() error {
			// The group context is cancelled after the first failure;
			// tasks that have not started yet are recorded as skipped.
			if err := gctx.Err(); err != nil {
				results[i] = Result{Task: task, Err: err, Skipped: true}
				return nil
			}

			logger.Info().
				Str("tag", task.PrimaryTag()).
				Bool("push", task.Push).
				Msg("building image")

			start := time.Now()
			err := e.run(gctx, task)
			results[i] = Result{Task: task, Err: err, Duration: time.Since(start)}
			return err
		})
	}

	err := g.Wait()
	return Summary{Results: results}, err
}

func (e *Executor) run(ctx context.Context, task buildx.Task) error {
	out := e.Out
	if out == nil {
		out = io.Discard
	}
	w := newPrefixWriter(out, "["+task.PrimaryTag()+"] ")
	defer w.Flush()

	return e.Runner.Run(ctx, task, w, w)
}

// prefixWriter prefixes every output line with a fixed tag so interleaved
// parallel build logs stay attributable. Writes of a single line are
// serialized with a mutex shared per destination writer call.
type prefixWriter struct {
	mu     sync.Mutex
	dst    io.Writer
	prefix string
	buf    bytes.Buffer
}

func newPrefixWriter(dst io.Writer, prefix string) *prefixWriter {
	return &prefixWriter{dst: dst, prefix: prefix}
}

func (w *prefixWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// Incomplete line: keep for the next write.
			w.buf.WriteString(line)
			break
		}
		if _, err := fmt.Fprintf(w.dst, "%s%s", w.prefix, line); err != nil {
			return len(p), err
		}
	}
	return len(p), nil
}

// Flush writes any buffered partial line.
func (w *prefixWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.buf.Len() > 0 {
		fmt.Fprintf(w.dst, "%s%s\n", w.prefix, w.buf.String())
		w.buf.Reset()
	}
}
