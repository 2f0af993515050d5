package iostreams

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewTestIOStreams_NotATTY(t *testing.T) {
	ios := NewTestIOStreams(strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})

	require.False(t, ios.IsInputTTY())
	require.False(t, ios.IsOutputTTY())
	require.False(t, ios.IsInteractive())
}

func TestSetTTYOverrides(t *testing.T) {
	ios := NewTestIOStreams(strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})
	ios.SetStdinTTY(true)
	ios.SetStdoutTTY(true)

	require.True(t, ios.IsInputTTY())
	require.True(t, ios.IsOutputTTY())
	require.True(t, ios.IsInteractive())
}

func TestSetNeverPrompt(t *testing.T) {
	ios := NewTestIOStreams(strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})
	ios.SetStdinTTY(true)
	ios.SetStdoutTTY(true)
	ios.SetNeverPrompt(true)

	require.False(t, ios.IsInteractive())
}

func TestSetColorEnabled(t *testing.T) {
	ios := NewTestIOStreams(strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})
	require.False(t, ios.ColorEnabled())

	ios.SetColorEnabled(true)
	require.True(t, ios.ColorEnabled())
}

func TestPrintfAndErrf(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	ios := NewTestIOStreams(strings.NewReader(""), out, errOut)

	ios.Printf("to out %d\n", 1)
	ios.Errf("to err %d\n", 2)

	require.Equal(t, "to out 1\n", out.String())
	require.Equal(t, "to err 2\n", errOut.String())
}

func TestProgressIndicator_NoOpWithoutTTY(t *testing.T) {
	ios := NewTestIOStreams(strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})

	ios.StartProgressIndicator("working")
	ios.StopProgressIndicator()
}
