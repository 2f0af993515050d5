// Package iostreams provides testable access to standard input/output streams.
package iostreams

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"golang.org/x/term"
)

// IOStreams provides access to standard input/output/error streams.
// It follows the GitHub CLI pattern for testable I/O.
type IOStreams struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer

	// isInputTTY caches whether stdin is a terminal.
	// -1 = unchecked, 0 = false, 1 = true
	isInputTTY int

	// isOutputTTY caches whether stdout is a terminal.
	isOutputTTY int

	// colorEnabled controls color output.
	// -1 = auto (detect from TTY), 0 = disabled, 1 = enabled
	colorEnabled int

	// Progress indicator state
	progressIndicatorEnabled bool
	progressIndicator        *spinner.Spinner
	progressIndicatorMu      sync.Mutex

	// neverPrompt disables all interactive prompts (e.g., for CI)
	neverPrompt bool
}

// NewIOStreams creates an IOStreams connected to standard streams.
func NewIOStreams() *IOStreams {
	ios := &IOStreams{
		In:           os.Stdin,
		Out:          os.Stdout,
		ErrOut:       os.Stderr,
		isInputTTY:   -1,
		isOutputTTY:  -1,
		colorEnabled: -1,
	}

	if ios.IsOutputTTY() {
		ios.progressIndicatorEnabled = true
	}

	return ios
}

// NewTestIOStreams creates an IOStreams backed by the given buffers.
// TTY detection reports false for all streams.
func NewTestIOStreams(in io.Reader, out, errOut io.Writer) *IOStreams {
	return &IOStreams{
		In:     in,
		Out:    out,
		ErrOut: errOut,
	}
}

// SetStdinTTY overrides stdin TTY detection. Intended for tests.
func (s *IOStreams) SetStdinTTY(v bool) {
	s.isInputTTY = boolToInt(v)
}

// SetStdoutTTY overrides stdout TTY detection. Intended for tests.
func (s *IOStreams) SetStdoutTTY(v bool) {
	s.isOutputTTY = boolToInt(v)
}

// IsInputTTY returns true if stdin is a terminal.
func (s *IOStreams) IsInputTTY() bool {
	if s.isInputTTY == -1 {
		if f, ok := s.In.(*os.File); ok {
			s.isInputTTY = boolToInt(term.IsTerminal(int(f.Fd())))
		} else {
			s.isInputTTY = 0
		}
	}
	return s.isInputTTY == 1
}

// IsOutputTTY returns true if stdout is a terminal.
func (s *IOStreams) IsOutputTTY() bool {
	if s.isOutputTTY == -1 {
		if f, ok := s.Out.(*os.File); ok {
			s.isOutputTTY = boolToInt(term.IsTerminal(int(f.Fd())))
		} else {
			s.isOutputTTY = 0
		}
	}
	return s.isOutputTTY == 1
}

// IsInteractive returns true if both stdin and stdout are terminals
// and prompting has not been disabled.
func (s *IOStreams) IsInteractive() bool {
	return !s.neverPrompt && s.IsInputTTY() && s.IsOutputTTY()
}

// SetNeverPrompt disables interactive prompts regardless of TTY state.
func (s *IOStreams) SetNeverPrompt(v bool) {
	s.neverPrompt = v
}

// ColorEnabled returns whether color output is enabled.
func (s *IOStreams) ColorEnabled() bool {
	if s.colorEnabled == -1 {
		s.colorEnabled = boolToInt(s.IsOutputTTY() && os.Getenv("NO_COLOR") == "")
	}
	return s.colorEnabled == 1
}

// SetColorEnabled overrides color auto-detection.
func (s *IOStreams) SetColorEnabled(v bool) {
	s.colorEnabled = boolToInt(v)
}

// StartProgressIndicator starts a spinner with the given label.
// No-op when stdout is not a TTY.
func (s *IOStreams) StartProgressIndicator(label string) {
	s.progressIndicatorMu.Lock()
	defer s.progressIndicatorMu.Unlock()

	if !s.progressIndicatorEnabled || s.progressIndicator != nil {
		return
	}

	sp := spinner.New(spinner.CharSets[11], 120*time.Millisecond,
		spinner.WithWriter(s.ErrOut))
	if label != "" {
		sp.Suffix = " " + label
	}
	sp.Start()
	s.progressIndicator = sp
}

// StopProgressIndicator stops the spinner if one is running.
func (s *IOStreams) StopProgressIndicator() {
	s.progressIndicatorMu.Lock()
	defer s.progressIndicatorMu.Unlock()

	if s.progressIndicator == nil {
		return
	}
	s.progressIndicator.Stop()
	s.progressIndicator = nil
}

// Printf writes formatted output to Out.
func (s *IOStreams) Printf(format string, args ...any) {
	fmt.Fprintf(s.Out, format, args...)
}

// Errf writes formatted output to ErrOut.
func (s *IOStreams) Errf(format string, args ...any) {
	fmt.Fprintf(s.ErrOut, format, args...)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
