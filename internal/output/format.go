// Package output provides terminal output formatting for the fragnote CLI.
// Status lines go to stderr in color; payload goes to stdout unstyled, so
// rendered changelogs stay pipeable.
package output

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	successText = color.New(color.FgGreen).SprintFunc()
	warningText = color.New(color.FgYellow).SprintFunc()
	errorText   = color.New(color.FgRed).SprintFunc()
)

// Info prints a plain status line.
func Info(out io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(out, format+"\n", args...)
}

// Success prints a green status line.
func Success(out io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(out, successText(fmt.Sprintf(format, args...)))
}

// Warning prints a yellow status line.
func Warning(out io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(out, warningText(fmt.Sprintf(format, args...)))
}

// Error prints a red status line.
func Error(out io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(out, errorText(fmt.Sprintf(format, args...)))
}
