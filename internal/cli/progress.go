package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/surveygraph/graph/internal/engine"
	"github.com/surveygraph/graph/internal/style"
)

// progressListener prints run progress: a spinner while the export is
// downloaded, then one line per written chart.
type progressListener struct {
	w       io.Writer
	spinner style.Spinner
	mu      sync.Mutex
}

func newProgressListener(w io.Writer) *progressListener {
	return &progressListener{w: w}
}

func (p *progressListener) StartListening(events <-chan engine.Event) {
	for e := range events {
		p.handle(e)
	}
}

func (p *progressListener) StopListening() {
	p.mu.Lock()
	defer p.mu.Unlock()

	// the fetch failed; the error itself is reported by the command
	if p.spinner != nil {
		p.spinner.Stop()
		p.spinner = nil
	}
}

func (p *progressListener) handle(e engine.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch e.Type {
	case engine.EventFetchStarted:
		suffix := fmt.Sprintf(" %s not found, downloading", e.Path)
		if e.Attempt > 1 {
			suffix = fmt.Sprintf(" Downloading %s (attempt %d)", e.Path, e.Attempt)
		}
		if p.spinner == nil {
			p.spinner = style.NewSpinner(p.w)
			p.spinner.SetSuffix(suffix)
			p.spinner.Start()
			return
		}
		p.spinner.SetSuffix(suffix)

	case engine.EventFetchRetrying:
		if p.spinner != nil {
			p.spinner.SetSuffix(fmt.Sprintf(" Download failed (%s), retrying in %s", e.Error, e.Delay))
		}

	case engine.EventFetchCompleted:
		if p.spinner != nil {
			p.spinner.SetFinalMSG(style.SuccessString("Downloaded "+e.Path) + "\n")
			p.spinner.Stop()
			p.spinner = nil
			return
		}
		style.Info(p.w, "Using cached "+e.Path)

	case engine.EventChartGenerated:
		fmt.Fprintf(p.w, "%s %s %s\n",
			style.SuccessIcon(),
			style.DurationStyle.Render(fmt.Sprintf("[%d/%d]", e.Index, e.Total)),
			style.FormatFilePath(e.Path),
		)
	}
}
