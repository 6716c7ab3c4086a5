package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"itinera/capture"
	"itinera/log"
	"itinera/route"
	"itinera/submit"
)

type tickMsg time.Time

type transcribedMsg struct {
	text string
	err  error
}

type submittedMsg struct {
	results []route.Normalized
	err     error
}

type tuiState int

const (
	tuiStateIdle tuiState = iota
	tuiStateRecording
	tuiStateTranscribing
	tuiStateProcessing
)

func (s tuiState) String() string {
	switch s {
	case tuiStateRecording:
		return "recording"
	case tuiStateTranscribing:
		return "transcribing"
	case tuiStateProcessing:
		return "processing"
	}
	return "idle"
}

type tuiModel struct {
	app   *app
	ctx   context.Context
	state tuiState
	frame int

	levels      []float64
	recStart    time.Time
	recDuration time.Duration
	input       []rune
	results     []route.Normalized
	summaryView bool
	status      string
	statusIsErr bool
	modeLine    string
	deviceLine  string
	width       int
	height      int
}

func newTUIModel(ctx context.Context, a *app, initial string) tuiModel {
	return tuiModel{app: a, ctx: ctx, input: []rune(initial)}
}

func tuiTick() tea.Cmd {
	return tea.Tick(60*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) setStatus(s string, isErr bool) tuiModel {
	m.status = s
	m.statusIsErr = isErr
	return m
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		m.frame++
		if m.state == tuiStateRecording {
			m.levels = m.app.rec.Levels()
			m.recDuration = time.Since(m.recStart)
		}
		return m, tuiTick()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case transcribedMsg:
		m.state = tuiStateIdle
		m.levels = nil
		if msg.err != nil {
			log.Errorf("transcription error: %v", msg.err)
			return m.setStatus("Transcription failed: "+msg.err.Error(), true), nil
		}
		if strings.TrimSpace(msg.text) == "" {
			return m.setStatus("Nothing transcribed", false), nil
		}
		m.appendLine(msg.text)
		return m.setStatus("Transcribed", false), nil

	case submittedMsg:
		m.state = tuiStateIdle
		var partial *submit.PartialError
		switch {
		case errors.As(msg.err, &partial):
			m.results = msg.results
			return m.setStatus(fmt.Sprintf("Resolved %d, %s", len(msg.results), partial.Error()), true), nil
		case msg.err != nil:
			log.Errorf("submission error: %v", msg.err)
			return m.setStatus(msg.err.Error(), true), nil
		}
		m.results = msg.results
		return m.setStatus(fmt.Sprintf("Resolved %d sentence(s)", len(msg.results)), false), nil
	}
	return m, nil
}

func (m tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.app.rec.Close()
		return m, tea.Quit

	case "ctrl+r":
		return m.toggleRecording()

	case "ctrl+s":
		if m.state == tuiStateProcessing || m.app.sub.Processing() {
			return m.setStatus(submit.ErrBusy.Error(), true), nil
		}
		if m.state != tuiStateIdle {
			return m, nil
		}
		raw := string(m.input)
		if strings.TrimSpace(raw) == "" {
			return m.setStatus("Nothing to submit", true), nil
		}
		m.state = tuiStateProcessing
		m = m.setStatus("Resolving…", false)
		return m, m.submitCmd(raw)

	case "ctrl+y":
		n, err := m.app.copySummaries()
		if err != nil {
			return m.setStatus("Copy failed: "+err.Error(), true), nil
		}
		return m.setStatus(fmt.Sprintf("Copied %d summary line(s)", n), false), nil

	case "ctrl+p":
		if m.state != tuiStateIdle {
			return m, nil
		}
		text, err := m.app.readText()
		if err != nil {
			return m.setStatus("Paste failed: "+err.Error(), true), nil
		}
		m.input = append(m.input, []rune(strings.ReplaceAll(text, "\r\n", "\n"))...)
		return m, nil

	case "ctrl+l":
		if m.state == tuiStateIdle {
			m.input = nil
		}
		return m, nil

	case "tab":
		m.summaryView = !m.summaryView
		return m, nil
	}

	if m.state != tuiStateIdle {
		return m, nil
	}
	switch msg.Type {
	case tea.KeyEnter:
		m.input = append(m.input, '\n')
	case tea.KeyBackspace:
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
	case tea.KeySpace:
		m.input = append(m.input, ' ')
	case tea.KeyRunes:
		m.input = append(m.input, msg.Runes...)
	}
	return m, nil
}

func (m tuiModel) toggleRecording() (tea.Model, tea.Cmd) {
	switch m.state {
	case tuiStateIdle:
		if err := m.app.rec.Start(); err != nil {
			log.Errorf("recording error: %v", err)
			if errors.Is(err, capture.ErrDeviceUnavailable) {
				return m.setStatus("Microphone unavailable", true), nil
			}
			return m.setStatus(err.Error(), true), nil
		}
		m.state = tuiStateRecording
		m.recStart = time.Now()
		m.recDuration = 0
		return m.setStatus("", false), nil

	case tuiStateRecording:
		m.state = tuiStateTranscribing
		m.levels = nil
		return m.setStatus("Transcribing…", false), m.transcribeCmd()
	}
	return m, nil
}

func (m tuiModel) transcribeCmd() tea.Cmd {
	a, ctx := m.app, m.ctx
	return func() tea.Msg {
		text, err := a.transcribeRecording(ctx)
		return transcribedMsg{text: text, err: err}
	}
}

func (m tuiModel) submitCmd(raw string) tea.Cmd {
	a, ctx := m.app, m.ctx
	return func() tea.Msg {
		results, err := a.submit(ctx, raw)
		return submittedMsg{results: results, err: err}
	}
}

func (m *tuiModel) appendLine(text string) {
	if len(m.input) > 0 && m.input[len(m.input)-1] != '\n' {
		m.input = append(m.input, '\n')
	}
	m.input = append(m.input, []rune(strings.TrimSpace(text))...)
}

const (
	leftWidth = 46
	barRows   = 6
)

var barBlocks = []string{" ", "▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}

var (
	recStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	barStyleRec  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	barStyleIdle = lipgloss.NewStyle().Foreground(lipgloss.Color("236"))
	inputStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	helpKeyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
)

// renderBars draws one column per amplitude bin, barRows cells tall.
func renderBars(levels []float64, recording bool) string {
	style := barStyleIdle
	if recording {
		style = barStyleRec
	}
	const bins = capture.VisualBins
	steps := len(barBlocks) - 1

	var b strings.Builder
	for row := barRows - 1; row >= 0; row-- {
		for i := 0; i < bins; i++ {
			v := 0.0
			if i < len(levels) {
				v = levels[i]
			}
			// eighths of a cell filled in this row
			fill := int(v*float64(barRows*steps)+0.5) - row*steps
			if fill < 0 {
				fill = 0
			}
			if fill > steps {
				fill = steps
			}
			if !recording && row == 0 && fill == 0 {
				fill = 1
			}
			b.WriteString(style.Render(strings.Repeat(barBlocks[fill], 2)))
			if i < bins-1 {
				b.WriteString(" ")
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var left []string
	switch m.state {
	case tuiStateRecording:
		left = append(left, recStyle.Render(fmt.Sprintf("● REC %.1fs", m.recDuration.Seconds())))
	case tuiStateTranscribing:
		left = append(left, warnStyle.Render("◌ TRANSCRIBING"))
	case tuiStateProcessing:
		left = append(left, warnStyle.Render("◌ RESOLVING"))
	default:
		left = append(left, dimStyle.Render("○ READY"))
	}
	left = append(left, "")
	left = append(left, strings.Split(strings.TrimRight(renderBars(m.levels, m.state == tuiStateRecording), "\n"), "\n")...)
	left = append(left, "")

	if m.modeLine != "" {
		left = append(left, dimStyle.Render(m.modeLine))
	}
	if m.deviceLine != "" {
		left = append(left, dimStyle.Render(m.deviceLine))
	}
	left = append(left, "")

	left = append(left, headerStyle.Render("Route text"))
	text := string(m.input)
	cursor := ""
	if m.state == tuiStateIdle && m.frame/8%2 == 0 {
		cursor = "▏"
	}
	lines := wrapText(text, leftWidth-2)
	for i, line := range lines {
		if i == len(lines)-1 {
			line += cursor
		}
		left = append(left, inputStyle.Render(line))
	}
	left = append(left, "")

	if m.status != "" {
		style := okStyle
		if m.statusIsErr {
			style = errorStyle
		}
		for _, line := range wrapText(m.status, leftWidth-2) {
			left = append(left, style.Render(line))
		}
		left = append(left, "")
	}

	help := []struct{ key, desc string }{
		{"Ctrl+R", "record / stop"},
		{"Ctrl+S", "submit"},
		{"Ctrl+P", "paste"},
		{"Ctrl+Y", "copy summaries"},
		{"Ctrl+L", "clear"},
		{"Tab", "rich / summary"},
		{"Ctrl+C", "quit"},
	}
	for _, h := range help {
		left = append(left, helpKeyStyle.Render(fmt.Sprintf("%-7s", h.key))+helpStyle.Render(" "+h.desc))
	}
	left = append(left, helpStyle.Render("itinera "+version))

	rightWidth := m.width - leftWidth - 1
	if rightWidth < 20 {
		rightWidth = 20
	}

	var right strings.Builder
	switch {
	case len(m.results) == 0:
		right.WriteString(dimStyle.Render("No routes yet"))
	case m.summaryView:
		right.WriteString(headerStyle.Render("Summary") + "\n\n")
		for _, r := range m.results {
			right.WriteString(r.Summary() + "\n")
		}
	default:
		right.WriteString(renderResults(m.results, rightWidth-2))
	}

	leftPanel := lipgloss.NewStyle().
		Width(leftWidth - 1).
		Height(m.height).
		Render(strings.Join(left, "\n"))

	rightPanel := lipgloss.NewStyle().
		Width(rightWidth).
		Height(m.height).
		PaddingLeft(1).
		Render(right.String())

	return lipgloss.JoinHorizontal(lipgloss.Top, leftPanel, rightPanel)
}
