package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"uxscope/store"
)

// ReportRenderer pretty-prints a final analysis result as markdown in the
// terminal.
type ReportRenderer struct {
	renderer *glamour.TermRenderer
}

func NewReportRenderer() *ReportRenderer {
	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	return &ReportRenderer{renderer: renderer}
}

// Render writes the formatted report to stdout. When the glamour renderer
// could not be constructed (e.g. no TTY), the raw markdown is printed.
func (r *ReportRenderer) Render(result *store.Result) error {
	md := reportMarkdown(result)
	if r.renderer == nil {
		fmt.Println(md)
		return nil
	}
	out, err := r.renderer.Render(md)
	if err != nil {
		fmt.Println(md)
		return nil
	}
	fmt.Print(out)
	return nil
}

type finding struct {
	Aspect         string `json:"aspect"`
	Category       string `json:"category"`
	Description    string `json:"description"`
	Severity       string `json:"severity"`
	Location       string `json:"location"`
	Recommendation string `json:"recommendation"`
	Priority       string `json:"priority"`
	Rationale      string `json:"rationale"`
}

func reportMarkdown(result *store.Result) string {
	var b strings.Builder

	title := "UX Analysis"
	if result.AppName != "" {
		title = "UX Analysis: " + result.AppName
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	if result.Persona != "" {
		fmt.Fprintf(&b, "*Persona: %s*\n\n", result.Persona)
	}
	fmt.Fprintf(&b, "**UX Confidence: %.1f/10**  |  **Complexity: %.1f/10**\n\n", result.UXScore, result.ComplexityScore)

	if result.Summary != "" {
		fmt.Fprintf(&b, "%s\n\n", result.Summary)
	}

	if items := decodeFindings(result.Positive); len(items) > 0 {
		b.WriteString("## What Works Well\n\n")
		for _, f := range items {
			label := f.Aspect
			if label == "" {
				label = f.Category
			}
			fmt.Fprintf(&b, "- **%s**: %s\n", label, f.Description)
		}
		b.WriteString("\n")
	}

	if items := decodeFindings(result.Issues); len(items) > 0 {
		b.WriteString("## Issues\n\n")
		for _, f := range items {
			severity := f.Severity
			if severity == "" {
				severity = "Medium"
			}
			fmt.Fprintf(&b, "- **[%s] %s**: %s\n", severity, f.Category, f.Description)
		}
		b.WriteString("\n")
	}

	if items := decodeFindings(result.Recommendations); len(items) > 0 {
		b.WriteString("## Recommendations\n\n")
		for _, f := range items {
			priority := f.Priority
			if priority == "" {
				priority = "Medium"
			}
			fmt.Fprintf(&b, "- **[%s]** %s\n", priority, f.Recommendation)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func decodeFindings(raw json.RawMessage) []finding {
	if len(raw) == 0 {
		return nil
	}
	var items []finding
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}
