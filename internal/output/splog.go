// Package output handles user-facing terminal output: the splog logger,
// color styling and the rendering of sync and land reports.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Splog provides structured logging and output
type Splog struct {
	writer  io.Writer
	debug   io.Writer
	verbose bool
	colored bool
}

// NewSplog creates a splog writing to stdout, with colors enabled when
// stdout is a terminal
func NewSplog() *Splog {
	return &Splog{
		writer:  os.Stdout,
		colored: isatty.IsTerminal(os.Stdout.Fd()) && termenv.ColorProfile() != termenv.Ascii,
	}
}

// NewSplogWriter creates a splog writing to the given writer, without colors
func NewSplogWriter(w io.Writer) *Splog {
	return &Splog{writer: w}
}

// SetVerbose enables debug output
func (s *Splog) SetVerbose(verbose bool) {
	s.verbose = verbose
}

// SetDebugWriter mirrors debug messages to an additional writer,
// independent of the verbose flag
func (s *Splog) SetDebugWriter(w io.Writer) {
	s.debug = w
}

// Colored reports whether color output is enabled
func (s *Splog) Colored() bool {
	return s.colored
}

// Info writes an info message
func (s *Splog) Info(format string, args ...interface{}) {
	fmt.Fprintf(s.writer, format+"\n", args...)
}

// Page writes pre-formatted output
func (s *Splog) Page(content string) {
	fmt.Fprint(s.writer, content)
}

// Newline writes a newline
func (s *Splog) Newline() {
	fmt.Fprintln(s.writer)
}

// Warn writes a warning message
func (s *Splog) Warn(format string, args ...interface{}) {
	fmt.Fprintf(s.writer, "⚠️  "+format+"\n", args...)
}

// Error writes an error message
func (s *Splog) Error(format string, args ...interface{}) {
	fmt.Fprintf(s.writer, "✗ "+format+"\n", args...)
}

// Debug writes a debug message; shown in verbose mode and always mirrored
// to the debug writer when one is set
func (s *Splog) Debug(format string, args ...interface{}) {
	if s.debug != nil {
		fmt.Fprintf(s.debug, format+"\n", args...)
	}
	if s.verbose {
		fmt.Fprintf(s.writer, format+"\n", args...)
	}
}

// Tip writes a tip message
func (s *Splog) Tip(format string, args ...interface{}) {
	fmt.Fprintf(s.writer, "💡 "+format+"\n", args...)
}
