package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/wippyai/nativeboot/expr"
	"github.com/wippyai/nativeboot/loader"
	"github.com/wippyai/nativeboot/materialise"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	stateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateLoading modelState = iota
	stateReady
	stateRunning
	stateFailed
)

type transition struct {
	from, to loader.State
}

type transitionMsg transition

type initializedMsg struct {
	err error
}

type resultMsg struct {
	tree   string
	status int64
	err    error
}

type interactiveModel struct {
	err         error
	env         *env
	transitions chan transition
	history     []transition
	snapshot    loader.Snapshot
	spinner     spinner.Model
	input       textinput.Model
	tree        string
	result      string
	state       modelState
}

func newInteractiveModel() *interactiveModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = stateStyle

	ti := textinput.New()
	ti.Placeholder = "1 2 3.5"
	ti.Prompt = "values: "
	ti.Width = 40

	return &interactiveModel{
		transitions: make(chan transition, 16),
		spinner:     s,
		input:       ti,
		state:       stateLoading,
	}
}

// StateChanged forwards loader transitions to the UI
func (m *interactiveModel) StateChanged(from, to loader.State) {
	m.transitions <- transition{from: from, to: to}
}

func (m *interactiveModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForTransition, m.initialize)
}

func (m *interactiveModel) waitForTransition() tea.Msg {
	return transitionMsg(<-m.transitions)
}

func (m *interactiveModel) initialize() tea.Msg {
	return initializedMsg{err: m.env.loader.Initialize(context.Background())}
}

func (m *interactiveModel) materialise() tea.Msg {
	root, err := demoTree(strings.Fields(m.input.Value()))
	if err != nil {
		return resultMsg{err: err}
	}
	var b strings.Builder
	_ = expr.PrintTree(&b, root)

	status, err := materialise.New(m.env.loader, m.env.logger).Materialise(context.Background(), root)
	return resultMsg{tree: b.String(), status: status, err: err}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "q":
			if m.state != stateReady {
				return m, tea.Quit
			}
		case "r":
			if m.state == stateFailed {
				m.state = stateLoading
				m.err = nil
				return m, tea.Batch(m.spinner.Tick, m.initialize)
			}
		case "enter":
			if m.state == stateReady {
				m.state = stateRunning
				return m, tea.Batch(m.spinner.Tick, m.materialise)
			}
		}

	case transitionMsg:
		m.history = append(m.history, transition(msg))
		return m, m.waitForTransition

	case initializedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateFailed
			return m, nil
		}
		m.snapshot = m.env.loader.Snapshot()
		m.state = stateReady
		m.input.Focus()
		return m, textinput.Blink

	case resultMsg:
		m.state = stateReady
		m.err = msg.err
		m.tree = msg.tree
		m.result = ""
		if msg.err == nil {
			m.result = fmt.Sprintf("engine status %d", msg.status)
		}
		m.input.SetValue("")
		return m, nil

	case spinner.TickMsg:
		if m.state == stateLoading || m.state == stateRunning {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	if m.state == stateReady {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Native Bootstrap"))
	b.WriteString("\n\n")

	for _, t := range m.history {
		marker := "✓"
		if t.to == loader.Uninitialized {
			marker = "✗"
		}
		b.WriteString(fmt.Sprintf("  %s %s\n", marker, stateStyle.Render(t.to.String())))
	}

	switch m.state {
	case stateLoading:
		b.WriteString(fmt.Sprintf("\n%s initializing...\n", m.spinner.View()))

	case stateFailed:
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("r retry • q quit"))

	case stateReady, stateRunning:
		s := m.snapshot
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("platform ") + string(s.Platform) + "\n")
		b.WriteString(labelStyle.Render("mode     ") + s.Mode.String() + " (" + s.Backend + ")\n")
		b.WriteString(labelStyle.Render("tier     ") + s.Tier.String() + " (host estimate " + s.HostTier.String() + ")\n")
		b.WriteString(labelStyle.Render("loaded   ") + listOrNone(s.Activated) + "\n\n")

		if m.tree != "" {
			b.WriteString(m.tree)
		}
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
			b.WriteString("\n")
		} else if m.result != "" {
			b.WriteString(resultStyle.Render(m.result))
			b.WriteString("\n")
		}
		b.WriteString("\n")

		if m.state == stateRunning {
			b.WriteString(fmt.Sprintf("%s materialising...\n", m.spinner.View()))
		} else {
			b.WriteString(m.input.View())
			b.WriteString("\n\n")
			b.WriteString(helpStyle.Render("enter materialise (empty for the sample tree) • esc quit"))
		}
	}

	return b.String()
}

func runInteractive(opts *options) error {
	ctx := context.Background()
	m := newInteractiveModel()

	e, err := newEnv(ctx, opts, zap.NewNop(), m)
	if err != nil {
		return err
	}
	defer e.close()
	m.env = e

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
