package progress

import (
	"os"
	"time"

	"github.com/briandowns/spinner"
)

// Spinner animates a status line on stderr while an operation runs.
// Outside a terminal every method is a no-op, keeping logs clean.
type Spinner struct {
	s *spinner.Spinner
}

// NewSpinner builds a spinner with the given label, selecting the
// character set from the detected terminal capabilities.
func NewSpinner(label string) *Spinner {
	caps := DetectTerminalCapabilities()
	if !caps.IsTTY {
		return &Spinner{}
	}

	symbols := SelectSymbols(caps)
	s := spinner.New(spinner.CharSets[symbols.SpinnerSet], 100*time.Millisecond)
	s.Writer = os.Stderr
	s.Suffix = " " + label
	return &Spinner{s: s}
}

// Start begins the animation.
func (sp *Spinner) Start() {
	if sp.s != nil {
		sp.s.Start()
	}
}

// Stop halts the animation and clears the line.
func (sp *Spinner) Stop() {
	if sp.s != nil {
		sp.s.Stop()
	}
}
