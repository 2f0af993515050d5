package matrix

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const validJSON = `{
  "combinations": [
    {"go": "1.23.2", "python": "3.12.7", "platforms": ["linux/amd64", "linux/arm64"]},
    {"go": "1.23.2", "python": "3.11.10", "platforms": ["linux/amd64"]},
    {"go": "1.22.8", "python": "3.12.7", "platforms": ["linux/arm64"]}
  ]
}`

func TestParse(t *testing.T) {
	m, err := Parse([]byte(validJSON))
	require.NoError(t, err)
	require.Equal(t, 3, m.Len())

	// File order is preserved
	require.Equal(t, "1.23.2", m.Combinations[0].Go)
	require.Equal(t, "3.12.7", m.Combinations[0].Python)
	require.Equal(t, []string{"linux/amd64", "linux/arm64"}, m.Combinations[0].Platforms)
	require.Equal(t, "1.22.8", m.Combinations[2].Go)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{
			name:    "empty document",
			input:   `{}`,
			wantErr: ErrNoVersions,
		},
		{
			name:    "empty combinations",
			input:   `{"combinations": []}`,
			wantErr: ErrNoVersions,
		},
		{
			name:  "not json",
			input: `go 1.23.2 python 3.12.7`,
		},
		{
			name:  "missing go version",
			input: `{"combinations": [{"python": "3.12.7", "platforms": ["linux/amd64"]}]}`,
		},
		{
			name:  "missing python version",
			input: `{"combinations": [{"go": "1.23.2", "platforms": ["linux/amd64"]}]}`,
		},
		{
			name:  "empty platforms",
			input: `{"combinations": [{"go": "1.23.2", "python": "3.12.7", "platforms": []}]}`,
		},
		{
			name:  "invalid go semver",
			input: `{"combinations": [{"go": "not-a-version", "python": "3.12.7", "platforms": ["linux/amd64"]}]}`,
		},
		{
			name:  "invalid platform",
			input: `{"combinations": [{"go": "1.23.2", "python": "3.12.7", "platforms": ["not a platform"]}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			require.Error(t, err)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestParse_EntryErrorReportsIndex(t *testing.T) {
	input := `{"combinations": [
		{"go": "1.23.2", "python": "3.12.7", "platforms": ["linux/amd64"]},
		{"go": "1.23.2", "python": "", "platforms": ["linux/amd64"]}
	]}`

	_, err := Parse([]byte(input))
	require.Error(t, err)

	var entryErr *EntryError
	require.True(t, errors.As(err, &entryErr))
	require.Equal(t, 1, entryErr.Index)
	require.Equal(t, "python", entryErr.Field)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "versions.json")
	require.NoError(t, os.WriteFile(path, []byte(validJSON), 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 3, m.Len())
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestFilter(t *testing.T) {
	m, err := Parse([]byte(validJSON))
	require.NoError(t, err)

	tests := []struct {
		name     string
		goV, pyV string
		want     int
	}{
		{"no filters selects all", "", "", 3},
		{"go filter only", "1.23.2", "", 2},
		{"python filter only", "", "3.12.7", 2},
		{"both filters AND", "1.23.2", "3.12.7", 1},
		{"no match", "1.99.0", "", 0},
		{"filters are exact match", "1.23", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Filter(tt.goV, tt.pyV)
			require.Len(t, got, tt.want)
			for _, e := range got {
				if tt.goV != "" {
					require.Equal(t, tt.goV, e.Go)
				}
				if tt.pyV != "" {
					require.Equal(t, tt.pyV, e.Python)
				}
			}
		})
	}
}

func TestEntryTag(t *testing.T) {
	e := Entry{Go: "1.23.2", Python: "3.12.7"}
	require.Equal(t, "go1.23.2-py3.12.7", e.Tag())
}

func TestSortedBySemver(t *testing.T) {
	input := `{"combinations": [
		{"go": "1.22.8", "python": "3.11.10", "platforms": ["linux/amd64"]},
		{"go": "1.23.2", "python": "3.11.10", "platforms": ["linux/amd64"]},
		{"go": "1.23.2", "python": "3.12.7", "platforms": ["linux/amd64"]}
	]}`
	m, err := Parse([]byte(input))
	require.NoError(t, err)

	sorted := m.SortedBySemver()
	require.Equal(t, "1.23.2", sorted[0].Go)
	require.Equal(t, "3.12.7", sorted[0].Python)
	require.Equal(t, "1.22.8", sorted[2].Go)

	// Original order untouched
	require.Equal(t, "1.22.8", m.Combinations[0].Go)
}
