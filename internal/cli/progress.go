package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/mapguri/facility-flow/internal/service"
)

// ProgressReporter renders the ingestion progress stream as a terminal bar.
type ProgressReporter struct {
	writer  io.Writer
	bar     *progressbar.ProgressBar
	verbose bool
}

// NewProgressReporter creates a reporter. When verbose is set, each row's log
// line is echoed above the bar.
func NewProgressReporter(writer io.Writer, verbose bool) *ProgressReporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &ProgressReporter{writer: writer, verbose: verbose}
}

// Func returns the service.ProgressFunc to install on the pipeline.
func (p *ProgressReporter) Func() service.ProgressFunc {
	p.bar = progressbar.NewOptions(100,
		progressbar.OptionSetWriter(p.writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Ingesting facilities...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(p.writer); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)

	return func(percent int, logLine string) {
		if p.verbose && logLine != "" {
			if _, err := fmt.Fprintln(p.writer, SubtleStyle.Render(logLine)); err != nil {
				slog.Warn("Failed to write progress log line", "error", err)
			}
		}
		if err := p.bar.Set(percent); err != nil {
			slog.Warn("Failed to update progress bar", "error", err)
		}
	}
}

// RollbackFunc returns a rollback progress callback rendering (current, total)
// counters.
func (p *ProgressReporter) RollbackFunc() service.RollbackProgressFunc {
	var bar *progressbar.ProgressBar
	return func(current, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(p.writer),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("Rolling back..."),
			)
		}
		if err := bar.Set(current); err != nil {
			slog.Warn("Failed to update rollback progress bar", "error", err)
		}
	}
}

// RenderSummary renders the terminal summary box for a completed run.
func RenderSummary(summary *service.IngestSummary, dryRun bool) string {
	title := "Ingestion complete"
	if dryRun {
		title = "Dry run complete"
	}

	content := fmt.Sprintf(
		"Upload ID:  %s\nTotal rows: %d\nAccepted:   %s\nReview:     %s\nRejected:   %s\nSkipped:    %d\nDuration:   %s",
		summary.UploadID,
		summary.TotalCount,
		SuccessStyle.Render(fmt.Sprintf("%d", summary.SuccessCount)),
		WarningStyle.Render(fmt.Sprintf("%d", summary.ReviewCount)),
		ErrorStyle.Render(fmt.Sprintf("%d", summary.FailCount-summary.ReviewCount)),
		summary.SkippedCount,
		summary.Duration.Round(10*time.Millisecond),
	)

	return RenderBox(FormatTitle(title), content)
}
