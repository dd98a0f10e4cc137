package ui

import (
	"io"
	"time"

	"github.com/briandowns/spinner"
)

// StartSpinner shows label with a spinner on w until the returned stop
// function is called.
func StartSpinner(w io.Writer, label string) (stop func()) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + label + "..."
	s.Start()
	return s.Stop
}
