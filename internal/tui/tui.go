package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"commentlens/internal/core"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	barFillStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	barEmptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238"))

	statusStyles = map[core.JobStatus]lipgloss.Style{
		core.JobPending:   lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		core.JobRunning:   lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		core.JobCompleted: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		core.JobFailed:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		core.JobCancelled: lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
	}

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)
)

const (
	barWidth     = 40
	pollInterval = 500 * time.Millisecond
)

// StatusFetcher supplies job snapshots; the analysis service satisfies it.
type StatusFetcher interface {
	GetStatus(jobID string) (*core.AnalysisJob, error)
}

type tickMsg time.Time

type statusMsg struct {
	job *core.AnalysisJob
	err error
}

// Model is the job progress watcher.
type Model struct {
	fetcher StatusFetcher
	jobID   string
	job     *core.AnalysisJob
	err     error
	done    bool
}

// NewModel creates a watcher for the given job.
func NewModel(fetcher StatusFetcher, jobID string) Model {
	return Model{fetcher: fetcher, jobID: jobID}
}

// Init starts the poll loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetch(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) fetch() tea.Cmd {
	return func() tea.Msg {
		job, err := m.fetcher.GetStatus(m.jobID)
		return statusMsg{job: job, err: err}
	}
}

// Update handles key presses and poll results.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}

	case tickMsg:
		if m.done {
			return m, tea.Quit
		}
		return m, tea.Batch(m.fetch(), tick())

	case statusMsg:
		if msg.err != nil {
			m.err = msg.err
			m.done = true
			return m, nil
		}
		m.job = msg.job
		if m.job.Terminal() {
			m.done = true
		}
		return m, nil
	}

	return m, nil
}

// View renders the watcher.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("commentlens analysis job"))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(fmt.Sprintf("error: %v\n", m.err))
		return b.String()
	}
	if m.job == nil {
		b.WriteString("loading...\n")
		return b.String()
	}

	style, ok := statusStyles[m.job.Status]
	if !ok {
		style = lipgloss.NewStyle()
	}

	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Job:"), m.job.ID))
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Post:"), m.job.PostID))
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Status:"), style.Render(string(m.job.Status))))
	b.WriteString(fmt.Sprintf("%s %d/%d\n", labelStyle.Render("Attempt:"), m.job.Attempts, 3))
	b.WriteString("\n")
	b.WriteString(renderBar(m.job.Progress))
	b.WriteString(fmt.Sprintf(" %d%%\n", m.job.Progress))

	if m.job.StepDescription != "" {
		b.WriteString(fmt.Sprintf("\n%s %s (step %d/%d)\n",
			labelStyle.Render("Step:"), m.job.StepDescription, m.job.CurrentStep, m.job.TotalSteps))
	}
	if m.job.Error != "" {
		b.WriteString(fmt.Sprintf("\n%s %s\n", labelStyle.Render("Error:"), m.job.Error))
	}

	b.WriteString(helpStyle.Render("q to quit"))
	b.WriteString("\n")
	return b.String()
}

func renderBar(progress int) string {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	filled := progress * barWidth / 100
	return barFillStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", barWidth-filled))
}

// Run blocks until the watcher exits.
func Run(fetcher StatusFetcher, jobID string) error {
	p := tea.NewProgram(NewModel(fetcher, jobID))
	_, err := p.Run()
	return err
}
