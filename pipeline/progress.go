package pipeline

import (
	"fmt"
	"io"
	"time"

	"photobatch/logging"
)

// NewProgressTracker starts draining resultsChan. Progress is printed to out when it is not nil.
func NewProgressTracker(label string, total int, out io.Writer, resultsChan chan fileResult) *ProgressTracker {
	tracker := &ProgressTracker{
		label:      label,
		totalFiles: total,
		results:    make([]fileResult, total),
		ticker:     time.NewTicker(500 * time.Millisecond),
		done:       make(chan bool),
		finished:   make(chan struct{}),
		out:        out,
	}

	go tracker.displayProgress()
	go tracker.processResults(resultsChan)

	return tracker
}

// displayProgress shows the progress periodically
func (p *ProgressTracker) displayProgress() {
	for {
		select {
		case <-p.done:
			return
		case <-p.ticker.C:
			if p.out == nil {
				continue
			}
			p.mu.Lock()
			if p.errors > 0 {
				fmt.Fprintf(p.out, "\r%s: %d/%d (Errors: %d)", p.label, p.processed, p.totalFiles, p.errors)
			} else {
				fmt.Fprintf(p.out, "\r%s: %d/%d", p.label, p.processed, p.totalFiles)
			}
			p.mu.Unlock()
		}
	}
}

// processResults stores each result at its input position
func (p *ProgressTracker) processResults(resultsChan chan fileResult) {
	defer close(p.finished)
	for result := range resultsChan {
		p.mu.Lock()
		p.processed++
		if result.Index >= 0 && result.Index < len(p.results) {
			p.results[result.Index] = result
		}

		if !result.Success {
			p.errors++
			if result.Err != nil {
				logging.LogImageProcessed(result.Name, false, result.Err.Error())
			}
		} else {
			logging.LogImageProcessed(result.Name, true, "")
		}
		p.mu.Unlock()
	}
}

// Wait blocks until the results channel is closed and drained, then stops the display
func (p *ProgressTracker) Wait() []fileResult {
	<-p.finished
	p.ticker.Stop()
	p.done <- true

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.out != nil && p.totalFiles > 0 {
		fmt.Fprintf(p.out, "\r%s: %d/%d (Errors: %d)\n", p.label, p.processed, p.totalFiles, p.errors)
	}
	return p.results
}
