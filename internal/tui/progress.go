// Package tui shows bootstrap progress while an analysis runs.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/dimerfit/internal/viz"
)

const barWidth = 40

type progressMsg struct{ done, total int }

type doneMsg struct{ err error }

type tickMsg time.Time

type model struct {
	title    string
	done     int
	total    int
	start    time.Time
	frame    int
	finished bool
	canceled bool
	err      error
}

func newModel(title string) model {
	return model{title: title, start: time.Now()}
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Init() tea.Cmd { return tick() }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.canceled = true
			return m, tea.Quit
		}
	case progressMsg:
		if msg.done > m.done {
			m.done = msg.done
		}
		m.total = msg.total
	case doneMsg:
		m.finished = true
		m.err = msg.err
		return m, tea.Quit
	case tickMsg:
		m.frame++
		return m, tick()
	}
	return m, nil
}

func (m model) percent() float64 {
	if m.total == 0 {
		return 0
	}
	return float64(m.done) / float64(m.total)
}

func (m model) eta() time.Duration {
	if m.done == 0 {
		return 0
	}
	elapsed := time.Since(m.start)
	return time.Duration(float64(elapsed) / float64(m.done) * float64(m.total-m.done)).Round(time.Second)
}

var spinner = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func (m model) View() string {
	var sb strings.Builder
	switch {
	case m.finished && m.err != nil:
		sb.WriteString(viz.Warning.Render("✗ " + m.title + ": " + m.err.Error()))
	case m.finished:
		sb.WriteString(viz.Title.Render("✓ " + m.title))
	case m.canceled:
		sb.WriteString(viz.Warning.Render("canceled"))
	default:
		sb.WriteString(viz.Title.Render(spinner[m.frame%len(spinner)] + " " + m.title))
	}
	sb.WriteString("\n")
	sb.WriteString(viz.ProgressBar(m.percent(), barWidth))
	sb.WriteString(fmt.Sprintf(" %d/%d", m.done, m.total))
	if !m.finished && m.done > 0 {
		sb.WriteString(viz.Subtle.Render(fmt.Sprintf("  eta %s", m.eta())))
	}
	sb.WriteString("\n")
	return sb.String()
}

// RunWithProgress runs work while rendering its progress to stderr. Quitting
// the view cancels the context passed to work.
func RunWithProgress(ctx context.Context, title string, work func(ctx context.Context, progress func(done, total int)) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newModel(title), tea.WithOutput(os.Stderr), tea.WithContext(ctx))
	errc := make(chan error, 1)
	go func() {
		err := work(ctx, func(done, total int) { p.Send(progressMsg{done: done, total: total}) })
		errc <- err
		p.Send(doneMsg{err: err})
	}()

	_, runErr := p.Run()
	cancel()
	workErr := <-errc
	if workErr != nil {
		return workErr
	}
	if runErr != nil && ctx.Err() == nil {
		return runErr
	}
	return nil
}
