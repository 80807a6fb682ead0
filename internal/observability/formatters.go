// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/idea-prioritizer/internal/evaluation"
	"github.com/jonathan/idea-prioritizer/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
	// maxValueWidth bounds single-line values such as plans and justifications
	maxValueWidth = 40
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintConstraints outputs the resource constraints a run is evaluated against.
func (p *Printer) PrintConstraints(c types.Constraints) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Eng hours: %s\n", orDash(c.EngineeringHours)))
	sb.WriteString(fmt.Sprintf("Budget:    %s\n", orDash(c.Budget)))
	sb.WriteString(fmt.Sprintf("Teams:     %s\n", orDash(c.TeamCount)))
	sb.WriteString(fmt.Sprintf("Timeline:  %s\n", orDash(c.Timeline)))
	sb.WriteString(fmt.Sprintf("Focus:     %s", orDash(c.PriorityFocus)))

	p.printBox("CONSTRAINTS", sb.String())
}

// Observe prints one idea's evaluation as soon as it completes, so a Printer
// can be attached to a pipeline run.
func (p *Printer) Observe(_ context.Context, trace *evaluation.Trace) error {
	p.PrintTrace(trace)
	return nil
}

// PrintTrace outputs the plan, retrieval decision and parsed score for one idea.
func (p *Printer) PrintTrace(trace *evaluation.Trace) {
	if trace == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Plan:      %s\n", firstLine(trace.Plan)))

	switch {
	case trace.RetrievalErr != nil:
		sb.WriteString("Retrieval: failed, evaluated without context\n")
	case trace.Retrieved:
		sb.WriteString("Retrieval: similar ideas added\n")
	default:
		sb.WriteString("Retrieval: none\n")
	}

	sb.WriteString(fmt.Sprintf("Score:     %d/%d\n", trace.Evaluation.CompositeScore, types.MaxScore))
	sb.WriteString(fmt.Sprintf("Why:       %s\n", firstLine(trace.Evaluation.Justification)))
	sb.WriteString(fmt.Sprintf("Took:      %s", trace.Duration.Round(1e6)))

	p.printBox(fmt.Sprintf("IDEA %d", trace.Idea.ID), sb.String())
}

// PrintRanked outputs the top ranked ideas with scores.
func (p *Printer) PrintRanked(ranked []types.RankedIdea) {
	if len(ranked) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Ideas ranked: %d\n\n", len(ranked)))

	count := min(len(ranked), maxItemsToShow)
	for i := 0; i < count; i++ {
		idea := ranked[i]
		if idea.IsError() {
			sb.WriteString(fmt.Sprintf("#%d  ranking failed\n", i+1))
			sb.WriteString(fmt.Sprintf("    %s\n", firstLine(idea.Justification)))
		} else {
			sb.WriteString(fmt.Sprintf("#%d  Idea %s  (%d/%d)\n", i+1, idea.IdeaID, idea.CompositeScore, types.MaxScore))
			if idea.IdeaSummary != "" {
				sb.WriteString(fmt.Sprintf("    %s\n", firstLine(idea.IdeaSummary)))
			}
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(ranked) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more ideas", len(ranked)-maxItemsToShow))
	}

	p.printBox("TOP IDEAS", strings.TrimSuffix(sb.String(), "\n"))
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i] + " ..."
	}
	if len(s) > maxValueWidth {
		s = s[:maxValueWidth-3] + "..."
	}
	return s
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
