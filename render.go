package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"itinera/route"
)

var (
	headerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("246")).Bold(true)
	textStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	durationStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	labelStyles = map[route.Label]lipgloss.Style{
		route.Depart:         lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		route.Correspondance: lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		route.Arrivee:        lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
)

func labelText(l route.Label) string {
	switch l {
	case route.Depart:
		return "départ"
	case route.Correspondance:
		return "via"
	case route.Arrivee:
		return "arrivée"
	}
	return strings.ToLower(string(l))
}

// renderResult is the rich per-sentence view.
func renderResult(n route.Normalized, width int) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("#%d", n.SentenceID)))
	if n.Text != "" {
		for i, line := range wrapText(n.Text, width-6) {
			if i == 0 {
				b.WriteString(" ")
			} else {
				b.WriteString("\n      ")
			}
			b.WriteString(textStyle.Render(line))
		}
	}
	b.WriteString("\n")

	if !n.Valid {
		for _, e := range n.Errors {
			b.WriteString("  " + errorStyle.Render("✗ "+e) + "\n")
		}
		return b.String()
	}

	for _, it := range n.Items {
		style, ok := labelStyles[it.Label]
		if !ok {
			style = dimStyle
		}
		b.WriteString(fmt.Sprintf("  %s %s\n", style.Render(fmt.Sprintf("%-8s", labelText(it.Label))), it.Word))
	}

	for _, e := range n.RouteErrors {
		b.WriteString("  " + warnStyle.Render("⚠ "+e) + "\n")
	}
	if n.Itinerary == nil {
		return b.String()
	}

	for _, seg := range n.Itinerary {
		if seg.Err != "" {
			b.WriteString("  " + warnStyle.Render("⚠ "+seg.Err) + "\n")
			continue
		}
		b.WriteString("  " + okStyle.Render("→") + " " + seg.Description)
		if seg.TotalTime != "" {
			b.WriteString(" " + durationStyle.Render("("+seg.TotalTime+")"))
		}
		b.WriteString("\n")
		for _, c := range seg.Connections {
			b.WriteString("      " + dimStyle.Render(c) + "\n")
		}
	}
	if len(n.Itinerary) > 1 {
		if total, err := n.TotalDuration(); err == nil && total > 0 {
			b.WriteString("  " + durationStyle.Render("total "+formatDuration(total)) + "\n")
		}
	}
	return b.String()
}

func renderResults(results []route.Normalized, width int) string {
	parts := make([]string, len(results))
	for i, n := range results {
		parts[i] = renderResult(n, width)
	}
	return strings.Join(parts, "\n")
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	return fmt.Sprintf("%02d:%02d:%02d", h, m, d/time.Second)
}

func wrapText(text string, width int) []string {
	if len(text) == 0 {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}

	var lines []string
	for _, para := range strings.Split(text, "\n") {
		runes := []rune(para)
		for len(runes) > width {
			// Find last space within width
			splitAt := width
			for i := width; i > 0; i-- {
				if runes[i] == ' ' {
					splitAt = i
					break
				}
			}
			lines = append(lines, string(runes[:splitAt]))
			runes = []rune(strings.TrimLeft(string(runes[splitAt:]), " "))
		}
		lines = append(lines, string(runes))
	}
	return lines
}
