// Package ui provides progress display and prompts for terminal audits.
package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"

	am "github.com/dsablic/anchoraudit/internal/model"
)

// IsTTY returns true if stderr is a terminal.
func IsTTY() bool {
	return term.IsTerminal(os.Stderr.Fd())
}

var stageLabels = map[am.Stage]string{
	am.StageIdle:         "Starting...",
	am.StageResolving:    "Resolving repository URL",
	am.StageFetchingTree: "Listing repository tree",
	am.StageAggregating:  "Fetching source files",
	am.StageDispatching:  "Waiting for the audit report",
	am.StageCompleted:    "Audit complete",
	am.StageFailed:       "Audit failed",
}

var stagePercent = map[am.Stage]float64{
	am.StageResolving:    0.05,
	am.StageFetchingTree: 0.2,
	am.StageAggregating:  0.45,
	am.StageDispatching:  0.7,
	am.StageCompleted:    1,
}

// StageLabel returns the human-readable description of stage.
func StageLabel(stage am.Stage) string {
	if l, ok := stageLabels[stage]; ok {
		return l
	}
	return string(stage)
}

// --- Plain text fallback ---

// PlainProgress prints progress messages to a callback function.
// Used when stderr is not a TTY (e.g., piped output).
type PlainProgress struct {
	print func(string)
	repo  string
}

// NewPlainProgress creates a new PlainProgress with the given print callback.
func NewPlainProgress(repo string, print func(string)) *PlainProgress {
	return &PlainProgress{print: print, repo: repo}
}

// Stage prints one line per stage transition.
func (p *PlainProgress) Stage(stage am.Stage, err error) {
	switch stage {
	case am.StageFailed:
		p.print(fmt.Sprintf("Failed: %v", err))
	case am.StageCompleted:
		p.print(fmt.Sprintf("Done! Audited %s.", p.repo))
	default:
		p.print(fmt.Sprintf("[%s] %s", p.repo, StageLabel(stage)))
	}
}

// --- TUI progress ---

// StageMsg is sent to the bubbletea program on every stage transition.
type StageMsg struct {
	Stage am.Stage
	Err   error
}

// DoneMsg is sent to the bubbletea program when the audit has finished.
type DoneMsg struct{}

type model struct {
	progress progress.Model
	spinner  spinner.Model
	repo     string
	stage    am.Stage
	err      error
	done     bool
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	infoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

// NewTUIModel creates a new bubbletea model for the audit progress TUI.
func NewTUIModel(repo string) model {
	return model{
		progress: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(50),
			progress.WithoutPercentage(),
		),
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(titleStyle),
		),
		repo:  repo,
		stage: am.StageIdle,
	}
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.progress.Width = msg.Width - 10
		if m.progress.Width > 60 {
			m.progress.Width = 60
		}
	case StageMsg:
		m.stage = msg.Stage
		m.err = msg.Err
		if pct, ok := stagePercent[msg.Stage]; ok {
			return m, m.progress.SetPercent(pct)
		}
	case DoneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m model) View() string {
	if m.stage == am.StageFailed {
		return fmt.Sprintf("\n  %s\n\n", errorStyle.Render(fmt.Sprintf("Audit of %s failed: %v", m.repo, m.err)))
	}
	if m.done || m.stage == am.StageCompleted {
		return fmt.Sprintf("\n  %s\n\n", titleStyle.Render(fmt.Sprintf("Done! Audited %s.", m.repo)))
	}

	pad := strings.Repeat(" ", 2)
	return "\n" +
		pad + m.spinner.View() + " " + titleStyle.Render("Auditing "+m.repo) + "\n" +
		pad + m.progress.View() + "\n" +
		pad + infoStyle.Render(StageLabel(m.stage)) + "\n\n"
}

// RunTUI creates and returns a bubbletea program for the progress TUI.
// The program outputs to stderr so JSON output on stdout stays clean.
func RunTUI(repo string) *tea.Program {
	m := NewTUIModel(repo)
	p := tea.NewProgram(m, tea.WithOutput(os.Stderr))
	return p
}
