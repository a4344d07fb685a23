package style

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

type Spinner interface {
	SetSuffix(suffix string)
	SetFinalMSG(finalMSG string)
	Start()
	Stop()
}

// LineSpinner is used when the output is not a terminal. Instead of redrawing
// a frame it prints every suffix change on its own line.
type LineSpinner struct {
	mu       sync.Mutex
	Writer   io.Writer
	Suffix   string
	FinalMSG string
	color    func(a ...interface{}) string
	active   bool
}

// NewLineSpinner creates a LineSpinner writing to w.
func NewLineSpinner(w io.Writer) *LineSpinner {
	return &LineSpinner{
		Writer: w,
		color:  color.New(color.FgCyan).SprintFunc(),
	}
}

func (s *LineSpinner) SetSuffix(suffix string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Suffix = suffix
	if s.active {
		fmt.Fprintf(s.Writer, "%s%s\n", s.color("…"), suffix)
	}
}

func (s *LineSpinner) SetFinalMSG(finalMSG string) {
	s.mu.Lock()
	s.FinalMSG = finalMSG
	s.mu.Unlock()
}

// Start prints the current suffix once.
func (s *LineSpinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return
	}
	s.active = true
	if s.Suffix != "" {
		fmt.Fprintf(s.Writer, "%s%s\n", s.color("…"), s.Suffix)
	}
}

// Stop prints the final message, if any.
func (s *LineSpinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return
	}
	s.active = false
	if s.FinalMSG != "" {
		fmt.Fprint(s.Writer, s.FinalMSG)
	}
}

type TerminalSpinner struct {
	spinner *spinner.Spinner
}

func NewTerminalSpinner(cs []string, d time.Duration, options ...spinner.Option) *TerminalSpinner {
	return &TerminalSpinner{
		spinner: spinner.New(cs, d, options...),
	}
}

func (s *TerminalSpinner) SetSuffix(suffix string) {
	s.spinner.Lock()
	s.spinner.Suffix = suffix
	s.spinner.Unlock()
}

func (s *TerminalSpinner) SetFinalMSG(finalMSG string) {
	s.spinner.Lock()
	s.spinner.FinalMSG = finalMSG
	s.spinner.Unlock()
}

func (s *TerminalSpinner) Start() {
	s.spinner.Start()
}

func (s *TerminalSpinner) Stop() {
	s.spinner.Stop()
}

// NewSpinner returns an animated spinner when w is a terminal and a
// LineSpinner otherwise.
func NewSpinner(w io.Writer) Spinner {
	if IsTerminal(w) {
		return NewTerminalSpinner(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(w))
	}
	return NewLineSpinner(w)
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
