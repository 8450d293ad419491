package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"hitstudio/internal/analysis"
	"hitstudio/internal/score"
	"hitstudio/internal/tracker"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
	ansiOrange = "\x1b[38;5;208m"
)

const (
	statusLabelWidth = 14
	statusIndent     = "  "
	progressWidth    = 30
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func tierColor(color score.Color) string {
	switch color {
	case score.ColorYellow:
		return ansiYellow
	case score.ColorGreen:
		return ansiGreen
	case score.ColorBlue:
		return ansiBlue
	case score.ColorOrange:
		return ansiOrange
	case score.ColorRed:
		return ansiRed
	default:
		return ""
	}
}

func paintTier(tier score.Tier, text string, colorize bool) string {
	if !colorize {
		return text
	}
	if color := tierColor(tier.Color); color != "" {
		return color + text + ansiReset
	}
	return text
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// renderProgress draws one line of job progress from a tracker snapshot.
func renderProgress(snap tracker.Snapshot) string {
	filled := snap.Progress * progressWidth / 100
	bar := strings.Repeat("#", filled) + strings.Repeat("-", progressWidth-filled)
	line := fmt.Sprintf("%s[%s] %3d%%", statusIndent, bar, snap.Progress)
	if msg := strings.TrimSpace(snap.Message); msg != "" {
		line += " " + msg
	}
	return line
}

// renderOutcome summarizes a finished or failed job.
func renderOutcome(snap tracker.Snapshot, colorize bool) string {
	switch snap.State {
	case tracker.StateCompleted:
		return renderStatusLine("Generation", statusOK, "track "+snap.TrackID, colorize)
	case tracker.StateFailed:
		return renderStatusLine("Generation", statusError, snap.LastError, colorize)
	case tracker.StateTracking, tracker.StateSubmitting:
		msg := "job " + snap.JobID
		if snap.EstimatedTime > 0 {
			msg += fmt.Sprintf(" (about %ds)", snap.EstimatedTime)
		}
		return renderStatusLine("Generation", statusInfo, msg, colorize)
	default:
		return renderStatusLine("Generation", statusWarn, "idle", colorize)
	}
}

// renderReport lays out a scored report: overall tier, category table, then
// the backend's insights and recommendations.
func renderReport(w io.Writer, report analysis.Report, colorize bool) {
	view := report.Describe()
	for _, line := range renderSectionHeader("Hit potential: "+report.TrackID, colorize) {
		fmt.Fprintln(w, line)
	}
	overall := fmt.Sprintf("%.1f / 100  %s", view.Overall, view.Tier.Label)
	fmt.Fprintf(w, "%s%-*s %s\n", statusIndent, statusLabelWidth, "Overall:", paintTier(view.Tier, overall, colorize))
	if view.Weighted != nil {
		fmt.Fprintf(w, "%s%-*s %.1f / 100\n", statusIndent, statusLabelWidth, "Weighted:", *view.Weighted)
	}
	fmt.Fprintf(w, "%s%-*s Top %d%% of all tracks\n", statusIndent, statusLabelWidth, "Percentile:", view.Percentile)

	if len(view.Categories) > 0 {
		rows := make([][]string, 0, len(view.Categories))
		for _, category := range view.Categories {
			rows = append(rows, []string{
				category.Label,
				fmt.Sprintf("%.1f", category.Score),
				paintTier(category.Tier, category.Tier.Label, colorize),
			})
		}
		fmt.Fprintln(w, renderTable([]string{"Category", "Score", "Tier"}, rows, []columnAlignment{alignLeft, alignRight, alignLeft}))
	}
	renderList(w, "Insights", report.Insights, colorize)
	renderList(w, "Recommendations", report.Recommendations, colorize)
}

func renderList(w io.Writer, title string, items []string, colorize bool) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintln(w)
	for _, line := range renderSectionHeader(title, colorize) {
		fmt.Fprintln(w, line)
	}
	for _, item := range items {
		fmt.Fprintf(w, "%s- %s\n", statusIndent, item)
	}
}
