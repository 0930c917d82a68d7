// Package tui renders seisflow's terminal output: headers, pass reports
// and progress bars. Simple streaming output, no interactive screens.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"
)

// Colors
var (
	accent  = lipgloss.Color("#CC3300")
	muted   = lipgloss.Color("#666666")
	success = lipgloss.Color("#00CC66")
	white   = lipgloss.Color("#FFFFFF")
)

// Styles
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(white)
	accentStyle  = lipgloss.NewStyle().Foreground(accent).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(muted)
	successStyle = lipgloss.NewStyle().Foreground(success).Bold(true)
)

// PrintHeader prints the tool banner with a subtitle line.
func PrintHeader(version, subtitle string) {
	fmt.Println()
	fmt.Println(titleStyle.Render("  SEISFLOW") + mutedStyle.Render(" v"+version))
	fmt.Println(mutedStyle.Render("  " + subtitle))
	fmt.Println()
}

// DownloadReport summarizes a bulk download pass.
type DownloadReport struct {
	Saved    int
	Existing int
	Failed   int
	Duration time.Duration
	DestDir  string
}

// PrintDownloadReport prints the pass summary.
func PrintDownloadReport(r *DownloadReport) {
	fmt.Println()
	fmt.Println(successStyle.Render("  ✓ DOWNLOAD PASS COMPLETE"))
	fmt.Println()
	fmt.Printf("  %s %s\n", mutedStyle.Render("Saved:"), titleStyle.Render(fmt.Sprintf("%d", r.Saved)))
	if r.Existing > 0 {
		fmt.Printf("  %s %d\n", mutedStyle.Render("Already present:"), r.Existing)
	}
	if r.Failed > 0 {
		fmt.Printf("  %s %s\n", mutedStyle.Render("Failed:"), accentStyle.Render(fmt.Sprintf("%d", r.Failed)))
	}
	if r.Duration > 0 {
		fmt.Printf("  %s %s\n", mutedStyle.Render("Time:"), titleStyle.Render(formatDuration(r.Duration)))
	}
	fmt.Printf("  %s %s\n", mutedStyle.Render("Destination:"), r.DestDir)
	fmt.Println()
}

// SynthReport summarizes a synthesis pass.
type SynthReport struct {
	Collections  int
	PairsUsed    int
	PairsSkipped int
	Written      int
	SkippedRows  int
	Duration     time.Duration
	DestDir      string
}

// PrintSynthReport prints the pass summary.
func PrintSynthReport(r *SynthReport) {
	fmt.Println()
	fmt.Println(successStyle.Render("  ✓ SYNTHESIS COMPLETE"))
	fmt.Println()
	fmt.Printf("  %s %d\n", mutedStyle.Render("Channels:"), r.Collections)
	fmt.Printf("  %s %d %s\n", mutedStyle.Render("Pairs combined:"), r.PairsUsed,
		mutedStyle.Render(fmt.Sprintf("(%d skipped, sampling mismatch)", r.PairsSkipped)))
	fmt.Printf("  %s %s\n", mutedStyle.Render("Composites written:"), titleStyle.Render(fmt.Sprintf("%d", r.Written)))
	if r.SkippedRows > 0 {
		fmt.Printf("  %s %s\n", mutedStyle.Render("Waveforms discarded:"), accentStyle.Render(fmt.Sprintf("%d", r.SkippedRows)))
	}
	if r.Duration > 0 {
		fmt.Printf("  %s %s\n", mutedStyle.Render("Time:"), titleStyle.Render(formatDuration(r.Duration)))
	}
	fmt.Printf("  %s %s\n", mutedStyle.Render("Destination:"), r.DestDir)
	fmt.Println()
}

// PrintLabels prints the catalog class-label vocabulary.
func PrintLabels(labels []string, counts map[string]int) {
	fmt.Println(accentStyle.Render("  CLASS LABELS"))
	for _, l := range labels {
		fmt.Printf("  %s %s\n", titleStyle.Render(l), mutedStyle.Render(fmt.Sprintf("(%d rows)", counts[l])))
	}
	fmt.Println()
}

// ShowProgress creates the row-level progress bar for batch passes.
func ShowProgress(total int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowBytes(false),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "",
			BarEnd:        "",
		}),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

// ClearLine clears the current terminal line.
func ClearLine() {
	fmt.Print("\r\033[K")
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}
