package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jo-room/job-scrape/internal/aggregate"
	"github.com/jo-room/job-scrape/internal/runner"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	newStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	manualStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// printSummary writes the three signals of a run to stdout.
func printSummary(sum *runner.Summary) {
	fmt.Println()
	if n := sum.NewCount(); n > 0 {
		fmt.Println(newStyle.Render(fmt.Sprintf("%d new job(s)", n)))
		fmt.Println(runner.FormatNewPostings(sum.Sources, sum.New))
	} else {
		fmt.Println(mutedStyle.Render("No new jobs"))
	}

	if len(sum.ManualCheck) > 0 {
		fmt.Println(manualStyle.Render(strings.TrimRight(runner.FormatManualCheck(sum.ManualCheck), "\n")))
	}

	if len(sum.Errors.Errors) > 0 {
		msg := sum.Errors.Message
		if msg == "" {
			msg = aggregate.FormatErrors(sum.Errors.Errors)
		}
		fmt.Println(errStyle.Render(strings.TrimRight(msg, "\n")))
	}

	if len(sum.Skipped) > 0 {
		fmt.Println(mutedStyle.Render("Skipped (inactive): " + strings.Join(sum.Skipped, ", ")))
	}
	if sum.SavedTo != "" {
		fmt.Println(headingStyle.Render("Run record written to " + sum.SavedTo))
	}
}
