// Package tui is the terminal front-end of the student register: a
// name/email form, two action buttons and the list of registered
// students.
//
// All form semantics live in register.Controller; this package only maps
// keys to controller calls and draws. The list is never edited here: it
// is replaced wholesale by each snapshot received from the feed.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aanand-mishra/student-register/internal/register"
	"github.com/aanand-mishra/student-register/internal/types"
)

const defaultListHeight = 10

type focus int

const (
	focusName focus = iota
	focusEmail
	focusList
	focusCount
)

// snapshotMsg carries a full list snapshot from the feed.
type snapshotMsg []types.Student

// feedClosedMsg signals that the snapshot channel was closed.
type feedClosedMsg struct{}

// waitForSnapshot blocks on the feed subscription off the event loop and
// hands the next snapshot back as a message.
func waitForSnapshot(ch <-chan []types.Student) tea.Cmd {
	return func() tea.Msg {
		students, ok := <-ch
		if !ok {
			return feedClosedMsg{}
		}
		return snapshotMsg(students)
	}
}

type Model struct {
	ctx       context.Context
	ctrl      *register.Controller
	snapshots <-chan []types.Student

	inputs     []textinput.Model // 0: name, 1: email
	focus      focus
	students   []types.Student
	cursor     int
	offset     int
	listHeight int

	status string
	err    error

	keys KeyMap
	help help.Model
}

// New builds the model. ctx is passed to every store mutation.
func New(ctx context.Context, ctrl *register.Controller, snapshots <-chan []types.Student) Model {
	m := Model{
		ctx:        ctx,
		ctrl:       ctrl,
		snapshots:  snapshots,
		inputs:     make([]textinput.Model, 2),
		listHeight: defaultListHeight,
		keys:       DefaultKeyMap,
		help:       help.New(),
	}

	for i := range m.inputs {
		t := textinput.New()
		t.Cursor.Style = focusedStyle
		t.CharLimit = 128
		t.Width = 40
		switch i {
		case 0:
			t.Prompt = "Name:  "
			t.Placeholder = "Ada Lovelace"
		case 1:
			t.Prompt = "Email: "
			t.Placeholder = "ada@example.com"
		}
		m.inputs[i] = t
	}
	m.applyFocus()

	return m
}

// Run starts the program and blocks until the user quits or ctx is done.
func Run(ctx context.Context, ctrl *register.Controller, snapshots <-chan []types.Student) error {
	p := tea.NewProgram(New(ctx, ctrl, snapshots), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForSnapshot(m.snapshots))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m.students = msg
		m.clampCursor()
		return m, waitForSnapshot(m.snapshots)

	case feedClosedMsg:
		return m, nil

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		// title, form, buttons, status, header and help take ~12 lines
		if h := msg.Height - 12; h > 0 {
			m.listHeight = h
		}
		m.clampCursor()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Primary):
			m.syncForm()
			label, _ := m.ctrl.Labels()
			m.finish(m.ctrl.Primary(m.ctx), label)
			return m, nil

		case key.Matches(msg, m.keys.Secondary):
			m.syncForm()
			_, label := m.ctrl.Labels()
			m.finish(m.ctrl.Secondary(m.ctx), label)
			return m, nil

		case key.Matches(msg, m.keys.Cancel):
			if err := m.ctrl.Cancel(); err == nil {
				m.loadForm()
				m.status, m.err = "Edit cancelled.", nil
				m.focus = focusName
				m.applyFocus()
			}
			return m, nil

		case key.Matches(msg, m.keys.Next):
			m.focus = (m.focus + 1) % focusCount
			return m, m.applyFocus()

		case key.Matches(msg, m.keys.Prev):
			m.focus = (m.focus + focusCount - 1) % focusCount
			return m, m.applyFocus()
		}

		if m.focus == focusList {
			return m.updateList(msg)
		}
	}

	// Everything else (typing, cursor blink) goes to the focused input.
	if m.focus == focusName || m.focus == focusEmail {
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.students)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Select):
		if len(m.students) == 0 {
			return m, nil
		}
		m.ctrl.Select(m.students[m.cursor])
		m.loadForm()
		m.status, m.err = "", nil
		m.focus = focusName
		return m, m.applyFocus()
	}
	m.clampCursor()
	return m, nil
}

// syncForm copies the text inputs into the controller.
func (m *Model) syncForm() {
	m.ctrl.SetName(m.inputs[0].Value())
	m.ctrl.SetEmail(m.inputs[1].Value())
}

// loadForm copies the controller's fields back into the text inputs.
func (m *Model) loadForm() {
	m.inputs[0].SetValue(m.ctrl.Name())
	m.inputs[1].SetValue(m.ctrl.Email())
}

// finish reports the outcome of the button labelled label.
func (m *Model) finish(err error, label string) {
	if err != nil {
		m.status, m.err = "", err
		return
	}
	m.loadForm()
	m.err = nil
	switch label {
	case register.LabelSave:
		m.status = "Saved."
	case register.LabelUpdate:
		m.status = "Updated."
	case register.LabelDelete:
		m.status = "Deleted."
	case register.LabelClear:
		m.status = "Cleared."
	}
}

func (m *Model) applyFocus() tea.Cmd {
	var cmd tea.Cmd
	for i := range m.inputs {
		if focus(i) == m.focus {
			cmd = m.inputs[i].Focus()
			m.inputs[i].PromptStyle = focusedStyle
			m.inputs[i].TextStyle = focusedStyle
			continue
		}
		m.inputs[i].Blur()
		m.inputs[i].PromptStyle = blurredStyle
		m.inputs[i].TextStyle = lipgloss.NewStyle()
	}
	return cmd
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.students) {
		m.cursor = len(m.students) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.listHeight {
		m.offset = m.cursor - m.listHeight + 1
	}
	if m.offset > 0 && m.offset+m.listHeight > len(m.students) {
		m.offset = max(0, len(m.students)-m.listHeight)
	}
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Student Register"))
	if sel := m.ctrl.Selected(); sel.Valid {
		b.WriteString("  " + editingStyle.Render(fmt.Sprintf("editing #%d", sel.Student.ID)))
	}
	b.WriteString("\n\n")

	for i := range m.inputs {
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
	}

	primary, secondary := m.ctrl.Labels()
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center,
		buttonStyle.Render(primary),
		" ",
		buttonStyle.Render(secondary),
	))
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
	case m.status != "":
		b.WriteString(statusStyle.Render(m.status))
	}
	b.WriteString("\n\n")

	b.WriteString(headerStyle.Render(fmt.Sprintf("Students (%d)", len(m.students))))
	b.WriteString("\n")
	if len(m.students) == 0 {
		b.WriteString(blurredStyle.Render("No students registered yet."))
		b.WriteString("\n")
	}
	end := min(len(m.students), m.offset+m.listHeight)
	for i := m.offset; i < end; i++ {
		s := m.students[i]
		row := fmt.Sprintf("%4d  %-24s %s", s.ID, s.Name, s.Email)
		switch {
		case i == m.cursor && m.focus == focusList:
			b.WriteString(selectedStyle.Render("> " + row))
		case i == m.cursor:
			b.WriteString("> " + row)
		default:
			b.WriteString("  " + row)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}
