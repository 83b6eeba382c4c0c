package ui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	figure "github.com/common-nighthawk/go-figure"
)

// BannerStyle colors the startup ASCII banner.
var BannerStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#5436bd")).
	Bold(true)

// HeaderStyle marks a section header (File Meta Information vs Data Set).
var HeaderStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#00A3A3")).
	Bold(true).
	MarginTop(1)

// PrintBanner prints the "dcmdump" ASCII banner to stderr so it never
// pollutes piped stdout output.
func PrintBanner() {
	banner := figure.NewFigure("dcmdump", "banner3", true)
	fmt.Fprintln(os.Stderr, BannerStyle.Render(banner.String()))
	fmt.Fprintln(os.Stderr)
}

// PrintHeader prints a styled section header to stdout.
func PrintHeader(title string) {
	fmt.Println(HeaderStyle.Render(title))
}
