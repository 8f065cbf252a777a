package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/dshills/redline/internal/analysis"
	"github.com/dshills/redline/internal/gate"
)

// TextWriter outputs a human-readable report.
type TextWriter struct {
	// Color enables ANSI colors regardless of the terminal.
	Color bool
}

type palette struct {
	header *color.Color
	warn   *color.Color
	danger *color.Color
	ok     *color.Color
	dim    *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		header: color.New(color.FgBlue, color.Bold),
		warn:   color.New(color.FgYellow),
		danger: color.New(color.FgRed, color.Bold),
		ok:     color.New(color.FgGreen),
		dim:    color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.header, p.warn, p.danger, p.ok, p.dim} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (t *TextWriter) Write(w io.Writer, doc *Document) error {
	ew := &errWriter{w: w}
	pal := newPalette(t.Color)

	title := "redline analysis"
	if doc.DryRun {
		title = "redline scan (dry run, nothing sent)"
	}
	ew.println(pal.header.Sprint(title))
	ew.println(strings.Repeat("─", 60))

	adm := doc.Admission
	ew.printf("Staged: %d files, %s\n", adm.Accepted, HumanBytes(adm.AcceptedBytes))
	if adm.Notice != "" {
		ew.println(pal.warn.Sprint("Admission: " + adm.Notice))
	}

	sum := doc.Gate.Summary
	if sum.HasMatches() {
		ew.println(pal.warn.Sprintf("Secrets: %d matches in %d files (%s)",
			sum.TotalMatches, sum.FilesWithMatches, strings.Join(sum.Patterns, ", ")))
		for _, f := range sum.Files {
			ew.println(pal.dim.Sprintf("  %s: %d", f.Path, f.Matches))
		}
	} else {
		ew.println("Secrets: none detected")
	}

	switch {
	case doc.Gate.Blocked:
		ew.println(pal.danger.Sprint("Blocked: " + blockMessage(doc.Gate)))
	case doc.Gate.Override:
		ew.println(pal.danger.Sprint("WARNING: unredacted files containing secrets were sent"))
	case doc.Gate.Redacted && sum.HasMatches():
		ew.println(pal.ok.Sprint("Secrets were replaced with [REDACTED:...] placeholders before sending"))
	}
	ew.println(strings.Repeat("─", 60))

	if doc.Report == nil {
		return ew.err
	}
	writeReport(ew, pal, doc.Report)
	return ew.err
}

func writeReport(ew *errWriter, pal palette, report *analysis.Report) {
	counts := report.Summary.Counts
	total := counts.High + counts.Medium + counts.Low
	ew.printf("Findings: %d total", total)
	if total > 0 {
		ew.printf(" (%d high, %d medium, %d low)", counts.High, counts.Medium, counts.Low)
	}
	ew.println("")

	if total == 0 {
		ew.println(pal.ok.Sprint("\nNo issues found."))
	}

	grouped := groupBySeverity(report.Findings)
	for _, sev := range []analysis.Severity{analysis.SeverityHigh, analysis.SeverityMedium, analysis.SeverityLow} {
		findings := grouped[sev]
		if len(findings) == 0 {
			continue
		}

		label := strings.ToUpper(string(sev))
		c := pal.dim
		switch sev {
		case analysis.SeverityHigh:
			c = pal.danger
		case analysis.SeverityMedium:
			c = pal.warn
		}
		ew.printf("\n%s\n", c.Sprintf("%s %s", severityIcon(sev), label))
		ew.println(strings.Repeat("─", 40))

		sort.SliceStable(findings, func(i, j int) bool {
			return filePath(findings[i]) < filePath(findings[j])
		})

		for _, f := range findings {
			loc := primaryLocation(f)
			ew.printf("\n  %s:%d-%d  %s\n", loc.Path, loc.Lines.Start, loc.Lines.End, f.Title)
			ew.printf("  Category: %s | Confidence: %.0f%%\n", f.Category, f.Confidence*100)
			for _, line := range wrapText(f.Message, 70) {
				ew.printf("    %s\n", line)
			}
			if f.Suggestion != "" {
				ew.println("  Suggestion:")
				for _, line := range wrapText(f.Suggestion, 70) {
					ew.printf("    %s\n", line)
				}
			}
		}
	}

	ew.printf("\n%s\n", strings.Repeat("─", 60))
	source := fmt.Sprintf("%s/%s", report.Provider, report.Model)
	if report.Cached {
		source += ", cached"
	}
	ew.printf("Completed in %dms (LLM: %dms, %s)\n", report.Timing.TotalMs, report.Timing.LLMMs, source)
}

func blockMessage(o gate.Outcome) string {
	msg := o.Message
	if msg == "" {
		msg = o.Reason.Message()
	}
	if o.Reason == gate.ReasonSecretsDetected {
		msg += " (--allow-unredacted)"
	}
	return msg
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

// HumanBytes formats a byte count with a binary unit, e.g. "12.0 KiB".
func HumanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGT"[exp])
}

func groupBySeverity(findings []analysis.Finding) map[analysis.Severity][]analysis.Finding {
	m := make(map[analysis.Severity][]analysis.Finding)
	for _, f := range findings {
		m[f.Severity] = append(m[f.Severity], f)
	}
	return m
}

func primaryLocation(f analysis.Finding) analysis.Location {
	if len(f.Locations) > 0 {
		return f.Locations[0]
	}
	return analysis.Location{Path: "unknown"}
}

func filePath(f analysis.Finding) string {
	if len(f.Locations) > 0 {
		return f.Locations[0].Path
	}
	return ""
}

func severityIcon(s analysis.Severity) string {
	switch s {
	case analysis.SeverityHigh:
		return "[!!]"
	case analysis.SeverityMedium:
		return "[!]"
	case analysis.SeverityLow:
		return "[-]"
	default:
		return "[?]"
	}
}

func wrapText(text string, width int) []string {
	if len(text) <= width {
		return []string{text}
	}
	var lines []string
	var current strings.Builder
	for _, word := range strings.Fields(text) {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
