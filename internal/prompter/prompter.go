// Package prompter provides the interactive prompts used by the installer.
package prompter

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/racecarparts/devcontainer/internal/iostreams"
	"github.com/racecarparts/devcontainer/internal/matrix"
)

// ErrInvalidSelection is returned for non-numeric or out-of-range input.
// Selection is one-shot: there is no retry loop, the caller exits non-zero.
var ErrInvalidSelection = errors.New("invalid selection")

// Prompter provides interactive prompting functionality.
// It uses IOStreams for testable I/O.
//
// All prompts read through one shared buffered reader: the reader's
// read-ahead may hold input past the current line (type-ahead, pasted
// answers), and a per-prompt reader would discard it.
type Prompter struct {
	ios *iostreams.IOStreams
	in  *bufio.Reader
}

// New creates a Prompter with the given IOStreams.
func New(ios *iostreams.IOStreams) *Prompter {
	return &Prompter{ios: ios, in: bufio.NewReader(ios.In)}
}

// SelectEntry presents the matrix as a numbered list (1-based, file order)
// and reads a single choice. The list goes to Out so it can be captured or
// piped; the prompt itself goes to ErrOut.
//
// In non-interactive mode selection cannot happen and an error is returned;
// the build command accepts filters instead.
func (p *Prompter) SelectEntry(entries []matrix.Entry) (matrix.Entry, error) {
	if len(entries) == 0 {
		return matrix.Entry{}, matrix.ErrNoVersions
	}

	if !p.ios.IsInteractive() {
		return matrix.Entry{}, errors.New("cannot prompt for a version in non-interactive mode")
	}

	for i, e := range entries {
		fmt.Fprintf(p.ios.Out, "%d) Go %s / Python %s  [%s]\n",
			i+1, e.Go, e.Python, strings.Join(e.Platforms, ", "))
	}
	fmt.Fprintf(p.ios.ErrOut, "Select a version combination [1-%d]: ", len(entries))

	line, err := p.readLine()
	if err != nil {
		return matrix.Entry{}, fmt.Errorf("failed to read input: %w", err)
	}

	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return matrix.Entry{}, fmt.Errorf("%w: %q is not a number", ErrInvalidSelection, strings.TrimSpace(line))
	}
	if n < 1 || n > len(entries) {
		return matrix.Entry{}, fmt.Errorf("%w: %d is out of range 1-%d", ErrInvalidSelection, n, len(entries))
	}

	return entries[n-1], nil
}

// StringConfig configures a string prompt.
type StringConfig struct {
	Message   string
	Default   string
	Required  bool
	Validator func(string) error
}

// String prompts the user for a string value.
// Returns the default if the user enters nothing.
// In non-interactive mode, returns the default without prompting.
func (p *Prompter) String(cfg StringConfig) (string, error) {
	if !p.ios.IsInteractive() {
		if cfg.Required && cfg.Default == "" {
			return "", errors.New("required input missing in non-interactive mode")
		}
		return cfg.Default, nil
	}

	prompt := cfg.Message
	if cfg.Default != "" {
		prompt = fmt.Sprintf("%s [%s]", cfg.Message, cfg.Default)
	}
	fmt.Fprintf(p.ios.ErrOut, "%s: ", prompt)

	line, err := p.readLine()
	if err != nil {
		if err == io.EOF && cfg.Default != "" {
			fmt.Fprintln(p.ios.ErrOut)
			return cfg.Default, nil
		}
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	response := strings.TrimSpace(line)
	if response == "" {
		response = cfg.Default
	}

	if cfg.Required && response == "" {
		return "", errors.New("required input missing")
	}

	if cfg.Validator != nil {
		if err := cfg.Validator(response); err != nil {
			return "", err
		}
	}

	return response, nil
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return line, nil
}
