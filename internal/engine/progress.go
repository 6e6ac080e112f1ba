package engine

import (
	"fmt"
	"io"
	"sync"

	"github.com/stationctl/stationctl/internal/resource"
	"github.com/stationctl/stationctl/internal/ui"
)

// Progress receives execution events. Implementations must tolerate
// concurrent calls; the unprivileged batch applies in parallel.
type Progress interface {
	OnBatchStart(name string, size int)
	OnResourceStart(r resource.Resource)
	OnResourceComplete(r resource.Resource, outcome resource.Outcome)
	OnBatchComplete(name string)
}

// NopProgress discards all events.
type NopProgress struct{}

func (NopProgress) OnBatchStart(string, int)                                {}
func (NopProgress) OnResourceStart(resource.Resource)                       {}
func (NopProgress) OnResourceComplete(resource.Resource, resource.Outcome) {}
func (NopProgress) OnBatchComplete(string)                                 {}

// ConsoleProgress writes one styled line per completed resource.
type ConsoleProgress struct {
	Out     io.Writer
	Verbose bool

	mu sync.Mutex
}

// OnBatchStart announces a non-empty batch.
func (p *ConsoleProgress) OnBatchStart(name string, size int) {
	if size == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.Out, ui.Header(fmt.Sprintf("%s (%d)", name, size)))
}

// OnResourceStart logs the start only in verbose mode; the completion
// line is the interesting one.
func (p *ConsoleProgress) OnResourceStart(r resource.Resource) {
	if !p.Verbose {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.Out, "  %s %s\n", ui.Muted("…"), ui.ResourceLabel(r.Kind(), r.ID()))
}

// OnResourceComplete writes the outcome line.
func (p *ConsoleProgress) OnResourceComplete(r resource.Resource, outcome resource.Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.Out, "  %s %s", ui.OutcomeSymbol(outcome), ui.ResourceLabel(r.Kind(), r.ID()))
	switch outcome.Kind {
	case resource.OutcomeFailed:
		fmt.Fprintf(p.Out, " %s", ui.Failure(outcome.String()))
	case resource.OutcomeSkipped:
		fmt.Fprintf(p.Out, " %s", ui.Muted(outcome.String()))
	}
	fmt.Fprintln(p.Out)
}

// OnBatchComplete is a no-op for the console; the summary line follows.
func (p *ConsoleProgress) OnBatchComplete(string) {}

var _ Progress = (*ConsoleProgress)(nil)
var _ Progress = NopProgress{}
