// Package tui draws a spinner and progress bar on stderr while files are hashed.
package tui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	primaryColor = lipgloss.Color("#7D56F4")
	mutedColor   = lipgloss.Color("#666666")

	spinnerStyle       = lipgloss.NewStyle().Foreground(primaryColor)
	titleStyle         = lipgloss.NewStyle().Bold(true)
	mutedStyle         = lipgloss.NewStyle().Foreground(mutedColor)
	progressFillStyle  = lipgloss.NewStyle().Foreground(primaryColor)
	progressEmptyStyle = lipgloss.NewStyle().Foreground(mutedColor)
)

const barWidth = 30

// Enabled reports whether progress should be drawn: stderr is a terminal
// and the user did not ask for quiet output.
func Enabled(quiet bool) bool {
	if quiet {
		return false
	}
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// progressMsg carries a progress update into the model.
type progressMsg struct {
	done    int
	total   int
	current string
}

// doneMsg stops the program.
type doneMsg struct{}

// Model is the bubbletea model behind Progress.
type Model struct {
	spinner   spinner.Model
	title     string
	done      int
	total     int
	current   string
	startTime time.Time
	finished  bool
}

// NewModel returns a model showing title next to a spinner.
func NewModel(title string) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle
	return Model{spinner: s, title: title, startTime: time.Now()}
}

// Init starts the spinner.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles progress, completion and spinner ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		m.done, m.total, m.current = msg.done, msg.total, msg.current
		return m, nil

	case doneMsg:
		m.finished = true
		return m, tea.Quit

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.finished = true
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders one line, or nothing once finished so the line is cleared.
func (m Model) View() string {
	if m.finished {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(titleStyle.Render(m.title))

	if m.total > 0 {
		b.WriteString(" ")
		b.WriteString(renderBar(m.done, m.total))
		b.WriteString(fmt.Sprintf(" %d/%d", m.done, m.total))
		if m.current != "" {
			b.WriteString(" ")
			b.WriteString(mutedStyle.Render(filepath.Base(m.current)))
		}
	}
	b.WriteString(mutedStyle.Render(fmt.Sprintf(" %.1fs", time.Since(m.startTime).Seconds())))
	return b.String()
}

func renderBar(done, total int) string {
	filled := 0
	if total > 0 {
		filled = min(done*barWidth/total, barWidth)
	}
	return progressFillStyle.Render(strings.Repeat("█", filled)) +
		progressEmptyStyle.Render(strings.Repeat("░", barWidth-filled))
}

// Progress runs a Model in the background. A nil *Progress is valid and
// does nothing, so callers need not check Enabled twice.
type Progress struct {
	program *tea.Program
	exited  chan struct{}
}

// Start draws the progress line on w until Stop is called.
func Start(w io.Writer, title string) *Progress {
	p := &Progress{
		program: tea.NewProgram(NewModel(title), tea.WithOutput(w), tea.WithInput(nil)),
		exited:  make(chan struct{}),
	}
	go func() {
		defer close(p.exited)
		_, _ = p.program.Run()
	}()
	return p
}

// Update reports that done of total items have finished. Safe for
// concurrent use.
func (p *Progress) Update(done, total int, current string) {
	if p == nil {
		return
	}
	p.program.Send(progressMsg{done: done, total: total, current: current})
}

// Stop clears the progress line and waits for the program to exit.
func (p *Progress) Stop() {
	if p == nil {
		return
	}
	p.program.Send(doneMsg{})
	<-p.exited
}
