package java

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type scanFinishedMsg struct{}

type scannerModel struct {
	spinner  spinner.Model
	roots    int
	quitting bool
}

func newScannerModel(roots int) scannerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))

	return scannerModel{
		spinner: s,
		roots:   roots,
	}
}

func (m scannerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m scannerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case scanFinishedMsg:
		m.quitting = true
		return m, tea.Quit

	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
}

func (m scannerModel) View() string {
	if m.quitting {
		return ""
	}
	return fmt.Sprintf(" %s Scanning %d locations for JDK installations...\n", m.spinner.View(), m.roots)
}

// WithScanner runs fn while a spinner animates on out, and returns fn's error
func WithScanner(out io.Writer, roots int, fn func() error) error {
	p := tea.NewProgram(newScannerModel(roots), tea.WithOutput(out), tea.WithoutSignalHandler())

	done := make(chan error, 1)
	go func() {
		time.Sleep(50 * time.Millisecond) // Give UI time to start
		done <- fn()
		p.Send(scanFinishedMsg{})
	}()

	_, runErr := p.Run()
	if err := <-done; err != nil {
		return err
	}
	return runErr
}
