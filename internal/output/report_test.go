package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderStack(t *testing.T) {
	var buf bytes.Buffer
	splog := NewSplogWriter(&buf)

	rendered := splog.RenderStack([]StackRow{
		{Title: "bottom", PRNumber: 10, State: "unchanged"},
		{Title: "top", PRNumber: 11, State: "updated", Current: true, Detail: "pushed"},
	})

	lines := strings.Split(strings.TrimSpace(rendered), "\n")
	require.Len(t, lines, 2)

	// Top of the stack prints first.
	require.Contains(t, lines[0], "top")
	require.Contains(t, lines[0], "#11")
	require.Contains(t, lines[0], "◉")
	require.Contains(t, lines[0], "pushed")
	require.Contains(t, lines[1], "bottom")
	require.Contains(t, lines[1], "◯")
}

func TestSplogDebug(t *testing.T) {
	var out, debug bytes.Buffer
	splog := NewSplogWriter(&out)
	splog.SetDebugWriter(&debug)

	splog.Debug("hidden %d", 1)
	require.Empty(t, out.String())
	require.Equal(t, "hidden 1\n", debug.String())

	splog.SetVerbose(true)
	splog.Debug("shown")
	require.Equal(t, "shown\n", out.String())
}
