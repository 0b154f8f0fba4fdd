// Package progress shows a progress indicator for sync runs on interactive
// terminals and stays silent everywhere else.
package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/klauern/agentsync/internal/logging"
	"github.com/klauern/agentsync/internal/model"
	"github.com/klauern/agentsync/internal/ui"
)

// Bar wraps progressbar with agentsync's terminal and logging rules.
type Bar struct {
	bar     *progressbar.ProgressBar
	enabled bool
	desc    string
	done    int
}

// Options configures the progress bar behavior.
type Options struct {
	// Max is the total number of steps. A negative value shows a spinner.
	Max int64
	// Description is the prefix text shown before the bar.
	Description string
	// Writer is the output destination. Defaults to os.Stderr.
	Writer io.Writer
}

// New creates a progress bar. The bar is only shown if:
//   - Colors are enabled (respects NO_COLOR and --no-color)
//   - Output is a terminal
//   - Not in debug mode (to avoid interfering with logs)
func New(opts Options) *Bar {
	if opts.Writer == nil {
		opts.Writer = os.Stderr
	}

	b := &Bar{
		enabled: shouldShowProgress(opts.Writer),
		desc:    opts.Description,
	}
	if !b.enabled {
		logging.Debug(fmt.Sprintf("%s started", opts.Description))
		return b
	}

	b.bar = progressbar.NewOptions64(
		opts.Max,
		progressbar.OptionSetDescription(opts.Description),
		progressbar.OptionSetWriter(opts.Writer),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(15),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(opts.Writer, "\n")
		}),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionEnableColorCodes(ui.IsColorEnabled()),
	)
	return b
}

// Spinner returns an indeterminate indicator for work of unknown size.
func Spinner(description string) *Bar {
	return New(Options{Max: -1, Description: description})
}

// Observe advances the bar by one materialization unit. Its signature
// matches the sync progress callback.
func (b *Bar) Observe(r model.CopyResult) {
	b.done++
	if !b.enabled {
		return
	}
	if r.Destination != "" {
		b.bar.Describe(fmt.Sprintf("%s %s", b.desc, r.Destination))
	}
	_ = b.bar.Add(1)
}

// Count returns how many units were observed.
func (b *Bar) Count() int {
	return b.done
}

// Describe updates the description.
func (b *Bar) Describe(desc string) {
	b.desc = desc
	if !b.enabled {
		return
	}
	b.bar.Describe(desc)
}

// Finish completes the bar and logs completion.
func (b *Bar) Finish() error {
	if !b.enabled {
		logging.Debug(fmt.Sprintf("%s completed", b.desc), logging.Count(b.done))
		return nil
	}
	return b.bar.Finish()
}

// Clear removes the bar from the terminal.
func (b *Bar) Clear() error {
	if !b.enabled {
		return nil
	}
	return b.bar.Clear()
}

// Enabled reports whether the bar renders anything.
func (b *Bar) Enabled() bool {
	return b.enabled
}

func shouldShowProgress(w io.Writer) bool {
	if !ui.IsColorEnabled() {
		return false
	}
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return false
	}
	return !logging.Default().Enabled(context.Background(), logging.LevelDebug)
}
