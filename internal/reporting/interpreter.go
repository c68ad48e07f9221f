package reporting

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/spboyer/pwaudit/internal/audit"
	"github.com/spboyer/pwaudit/internal/checklist"
)

// Glyphs are the status markers used in text reports.
type Glyphs struct {
	Pass, Fail, Info string
}

var (
	// UnicodeGlyphs is used when writing to a terminal.
	UnicodeGlyphs = Glyphs{Pass: "✓", Fail: "✗", Info: "–"}
	// ASCIIGlyphs is used for pipes and files.
	ASCIIGlyphs = Glyphs{Pass: "[PASS]", Fail: "[FAIL]", Info: "[INFO]"}
)

// InterpretVerdict returns a plain-language summary of a verdict.
func InterpretVerdict(v *audit.Verdict) string {
	if v.Passed {
		return "Installable: browsers can prompt users to install this web app."
	}
	n := len(v.FailureMessages)
	if n == 1 {
		return "Not installable: 1 requirement is not met."
	}
	return fmt.Sprintf("Not installable: %d requirements are not met.", n)
}

// FormatSummaryReport produces a plain-language report for audit entries.
func FormatSummaryReport(entries []Entry, g Glyphs) string {
	var b strings.Builder

	width := 0
	for _, id := range checklist.IDs() {
		width = max(width, runewidth.StringWidth(string(id)))
	}

	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("=== %s ===\n\n", e.Name))

		if e.Err != nil {
			b.WriteString(fmt.Sprintf("%s Audit could not run: %v\n", g.Fail, e.Err))
			continue
		}

		for _, c := range e.Checklist.Checks {
			icon := g.Pass
			if !c.Passing {
				icon = g.Info
				if audit.IsRequired(c.ID) {
					icon = g.Fail
				}
			}
			line := fmt.Sprintf("  %s %s", icon, padRight(string(c.ID), width))
			if !c.Passing {
				line += "  " + c.FailureText
			}
			b.WriteString(strings.TrimRight(line, " ") + "\n")
		}
		if e.Checklist.IsParseFailure {
			b.WriteString(fmt.Sprintf("  %s %s\n", g.Fail, e.Checklist.ParseFailureReason))
		}

		if len(e.Checklist.Warnings) > 0 {
			b.WriteString("\nWarnings:\n")
			for _, w := range e.Checklist.Warnings {
				b.WriteString(fmt.Sprintf("  %s\n", w))
			}
		}

		b.WriteString("\n" + InterpretVerdict(e.Verdict) + "\n")
		if explanation := audit.Explanation(e.Verdict.FailureMessages); explanation != "" {
			b.WriteString(explanation + "\n")
		}
	}

	return b.String()
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}
