// Package matrix models the supported (Go version, Python version, platforms)
// combinations and parses them from versions.json.
//
// Foundation-tier package: stdlib plus semver and platform parsing only,
// no internal imports.
package matrix

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/Masterminds/semver/v3"
	"github.com/containerd/platforms"
)

// ErrNoVersions is returned when the matrix parses but contains no entries.
var ErrNoVersions = errors.New("no versions available")

// EntryError describes an invalid matrix entry.
// Index is the zero-based position of the entry in file order.
type EntryError struct {
	Index int
	Field string
	Err   error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("combinations[%d].%s: %v", e.Index, e.Field, e.Err)
}

func (e *EntryError) Unwrap() error { return e.Err }

// Entry is one supported version combination and its build targets.
// Entries are immutable after parsing.
type Entry struct {
	Go        string   `json:"go"`
	Python    string   `json:"python"`
	Platforms []string `json:"platforms"`
}

// Tag returns the image tag suffix for this entry, e.g. "go1.23.2-py3.12.7".
func (e Entry) Tag() string {
	return fmt.Sprintf("go%s-py%s", e.Go, e.Python)
}

// Matrix is the parsed version matrix, in file order.
type Matrix struct {
	Combinations []Entry `json:"combinations"`
}

// Len returns the number of entries.
func (m *Matrix) Len() int { return len(m.Combinations) }

// Parse decodes and validates a versions.json document.
// The whole matrix parses or the operation fails; no partial results.
// An empty combinations list is ErrNoVersions.
func Parse(data []byte) (*Matrix, error) {
	var m Matrix
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing version matrix: %w", err)
	}

	if len(m.Combinations) == 0 {
		return nil, ErrNoVersions
	}

	for i, e := range m.Combinations {
		if err := validateEntry(i, e); err != nil {
			return nil, err
		}
	}

	return &m, nil
}

// Load reads and parses a versions.json file from disk.
func Load(path string) (*Matrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading version matrix %s: %w", path, err)
	}
	return Parse(data)
}

func validateEntry(i int, e Entry) error {
	if e.Go == "" {
		return &EntryError{Index: i, Field: "go", Err: errors.New("missing version")}
	}
	if _, err := semver.StrictNewVersion(e.Go); err != nil {
		return &EntryError{Index: i, Field: "go", Err: err}
	}

	if e.Python == "" {
		return &EntryError{Index: i, Field: "python", Err: errors.New("missing version")}
	}
	if _, err := semver.StrictNewVersion(e.Python); err != nil {
		return &EntryError{Index: i, Field: "python", Err: err}
	}

	if len(e.Platforms) == 0 {
		return &EntryError{Index: i, Field: "platforms", Err: errors.New("empty platform list")}
	}
	for _, p := range e.Platforms {
		if _, err := platforms.Parse(p); err != nil {
			return &EntryError{Index: i, Field: "platforms", Err: fmt.Errorf("%q: %w", p, err)}
		}
	}

	return nil
}

// Filter returns the entries matching the given exact-match version filters,
// in file order. An empty filter matches every value; both filters set means
// both must match (AND).
func (m *Matrix) Filter(goVersion, pythonVersion string) []Entry {
	var out []Entry
	for _, e := range m.Combinations {
		if goVersion != "" && e.Go != goVersion {
			continue
		}
		if pythonVersion != "" && e.Python != pythonVersion {
			continue
		}
		out = append(out, e)
	}
	return out
}

// SortedBySemver returns a copy of the entries ordered by Go version
// descending, then Python version descending. Display defaults to file
// order; this is for callers that want newest-first listings.
func (m *Matrix) SortedBySemver() []Entry {
	out := slices.Clone(m.Combinations)

	// Versions were validated at parse time; MustParse cannot panic here.
	slices.SortFunc(out, func(a, b Entry) int {
		if c := semver.MustParse(b.Go).Compare(semver.MustParse(a.Go)); c != 0 {
			return c
		}
		return semver.MustParse(b.Python).Compare(semver.MustParse(a.Python))
	})
	return out
}
