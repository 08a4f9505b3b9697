package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Roelanb/autoremove-webui/internal/editor"
	"github.com/Roelanb/autoremove-webui/internal/observability"
)

const outputPlaceholder = "Preview or run output appears here."

// Model is the terminal front-end. All editor state lives in the wrapped
// editor; the model only keeps widgets and focus.
type Model struct {
	ed  *editor.Editor
	log observability.Logger

	keys    keyMap
	help    help.Model
	raw     textarea.Model
	form    viewport.Model
	output  viewport.Model
	spinner spinner.Model

	focus    target
	focusIdx int
	rawRev   int
	spinning bool

	width  int
	height int
}

func New(ed *editor.Editor, log observability.Logger) *Model {
	ta := textarea.New()
	ta.Placeholder = "task_name:\n  client: qbittorrent\n  ..."
	ta.ShowLineNumbers = true
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.Prompt = ""

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		ed:      ed,
		log:     log,
		keys:    keys,
		help:    help.New(),
		raw:     ta,
		form:    viewport.New(80, 16),
		output:  viewport.New(80, 6),
		spinner: sp,
	}
	m.layout()
	m.sync()
	return m
}

func (m *Model) Init() tea.Cmd {
	return m.track(m.ed.Init())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		m.sync()
		return m, nil
	case spinner.TickMsg:
		if !m.ed.Session().Busy() {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		cmd := m.handleKey(msg)
		m.sync()
		return m, cmd
	}
	if m.ed.Apply(msg) {
		m.sync()
		return m, nil
	}
	var cmd tea.Cmd
	if m.ed.Session().View() == editor.ViewRaw {
		m.raw, cmd = m.raw.Update(msg)
	}
	return m, cmd
}

// track starts the spinner alongside a request command.
func (m *Model) track(cmd tea.Cmd) tea.Cmd {
	if cmd == nil {
		return nil
	}
	if m.spinning {
		return cmd
	}
	m.spinning = true
	return tea.Batch(cmd, m.spinner.Tick)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
		return nil
	case key.Matches(msg, m.keys.FormView):
		m.ed.SetView(editor.ViewForm)
		return nil
	case key.Matches(msg, m.keys.RawView):
		m.ed.SetView(editor.ViewRaw)
		return nil
	case key.Matches(msg, m.keys.Reload):
		return m.track(m.ed.Reload())
	case key.Matches(msg, m.keys.Save):
		return m.track(m.ed.Save())
	case key.Matches(msg, m.keys.Preview):
		return m.track(m.ed.Preview())
	case key.Matches(msg, m.keys.Run):
		return m.track(m.ed.Run())
	}

	if m.ed.Session().View() == editor.ViewRaw {
		before := m.raw.Value()
		var cmd tea.Cmd
		m.raw, cmd = m.raw.Update(msg)
		// the textarea normalizes tabs and the final newline, so the session
		// text stays verbatim until the user actually edits
		if after := m.raw.Value(); after != before {
			m.ed.Session().SetText(after)
		}
		return cmd
	}
	m.handleFormKey(msg)
	return nil
}

func (m *Model) handleFormKey(msg tea.KeyMsg) {
	d := m.ed.Document()
	ts := targets(d)

	switch {
	case key.Matches(msg, m.keys.Next):
		m.moveFocus(ts, 1)
		return
	case key.Matches(msg, m.keys.Prev):
		m.moveFocus(ts, -1)
		return
	case key.Matches(msg, m.keys.AddTask):
		id := m.ed.AddTask()
		m.focus = target{card: id, kind: kindName}
		return
	case key.Matches(msg, m.keys.AddStrategy):
		if rid, ok := d.AddStrategy(m.focus.card); ok {
			m.focus = target{card: m.focus.card, row: rid, kind: kindStrategyName}
		}
		return
	case key.Matches(msg, m.keys.RemoveRow):
		if m.focus.row != 0 {
			d.RemoveStrategy(m.focus.row)
		}
		return
	case key.Matches(msg, m.keys.RemoveTask):
		d.RemoveTask(m.focus.card)
		return
	}

	if len(ts) == 0 {
		return
	}
	if !m.focus.isText() {
		if key.Matches(msg, m.keys.Toggle) {
			m.report(toggle(d, m.focus))
		}
		return
	}
	v := fieldValue(d, m.focus)
	switch msg.Type {
	case tea.KeyBackspace:
		m.report(setFieldValue(d, m.focus, trimLastRune(v)))
	case tea.KeySpace:
		m.report(setFieldValue(d, m.focus, v+" "))
	case tea.KeyRunes:
		m.report(setFieldValue(d, m.focus, v+string(msg.Runes)))
	}
}

func (m *Model) moveFocus(ts []target, delta int) {
	if len(ts) == 0 {
		return
	}
	i := m.focusIdx + delta
	i = (i%len(ts) + len(ts)) % len(ts)
	m.focusIdx = i
	m.focus = ts[i]
}

func (m *Model) report(err error) {
	if err != nil {
		m.log.Debugw("form edit rejected", "field", fieldLabels[m.focus.kind], "error", err)
	}
}

// sync pulls session and document state into the widgets.
func (m *Model) sync() {
	s := m.ed.Session()

	if s.TextRev() != m.rawRev {
		m.raw.SetValue(s.Text())
		m.rawRev = s.TextRev()
	}
	if s.View() == editor.ViewRaw {
		if !m.raw.Focused() {
			m.raw.Focus()
		}
	} else if m.raw.Focused() {
		m.raw.Blur()
	}

	ts := targets(m.ed.Document())
	found := false
	for i, t := range ts {
		if t == m.focus {
			m.focusIdx, found = i, true
			break
		}
	}
	if !found {
		if len(ts) == 0 {
			m.focus, m.focusIdx = target{}, 0
		} else {
			m.focusIdx = min(max(m.focusIdx, 0), len(ts)-1)
			m.focus = ts[m.focusIdx]
		}
	}

	content, line := m.renderForm()
	m.form.SetContent(content)
	if line < m.form.YOffset {
		m.form.SetYOffset(line)
	} else if line >= m.form.YOffset+m.form.Height {
		m.form.SetYOffset(line - m.form.Height + 1)
	}

	out, empty := s.Output()
	if empty {
		out = mutedStyle.Render(outputPlaceholder)
	}
	m.output.SetContent(out)
}

func (m *Model) layout() {
	width, height := m.width, m.height
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 30
	}
	m.help.Width = width
	helpH := lipgloss.Height(m.help.View(m.keys))
	outputH := max(height/4, 4)
	// header, banner and output title plus its border
	bodyH := max(height-helpH-outputH-4, 3)

	m.form.Width = width
	m.form.Height = bodyH
	m.raw.SetWidth(width)
	m.raw.SetHeight(bodyH)
	m.output.Width = width
	m.output.Height = outputH
}

func (m *Model) View() string {
	s := m.ed.Session()
	parts := []string{m.headerView()}
	if b := s.Banner(); b != "" {
		parts = append(parts, bannerStyle.Render(b))
	} else {
		parts = append(parts, "")
	}
	if s.View() == editor.ViewRaw {
		parts = append(parts, m.raw.View())
	} else {
		parts = append(parts, m.form.View())
	}

	title := sectionStyle.Render("Output")
	if s.InFlight(editor.ControlPreview) || s.InFlight(editor.ControlRun) {
		title += " " + m.spinner.View()
	}
	parts = append(parts, outputStyle.Width(m.output.Width).Render(title), m.output.View(), m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) headerView() string {
	s := m.ed.Session()
	form, raw := tabStyle, tabStyle
	if s.View() == editor.ViewRaw {
		raw = activeTabStyle
	} else {
		form = activeTabStyle
	}
	line := titleStyle.Render("autoremove-torrents") + "  " +
		form.Render("Form") + raw.Render("Raw YAML")

	var status []string
	if s.InFlight(editor.ControlReload) {
		status = append(status, "loading")
	}
	if s.InFlight(editor.ControlSave) {
		status = append(status, "saving")
	}
	if len(status) > 0 {
		line += "  " + m.spinner.View() + mutedStyle.Render(strings.Join(status, ", ")+"…")
	}
	return line
}

// renderForm draws the task cards and returns the line holding focus.
func (m *Model) renderForm() (string, int) {
	d := m.ed.Document()
	if d.Placeholder() {
		return mutedStyle.Render(editor.PlaceholderText), 0
	}
	var lines []string
	focusLine := 0
	for i, id := range d.Cards() {
		lines = append(lines, sectionStyle.Render(fmt.Sprintf("Task %d", i+1)))
		for _, k := range taskKinds {
			t := target{card: id, kind: k}
			if t == m.focus {
				focusLine = len(lines)
			}
			lines = append(lines, "  "+labelStyle.Render(fieldLabels[k])+m.value(d, t))
		}
		lines = append(lines, "  "+sectionStyle.Render("Strategies"))
		rows := d.Rows(id)
		if len(rows) == 0 {
			lines = append(lines, mutedStyle.Render("    none, ctrl+n adds one"))
		}
		for _, r := range rows {
			cells := make([]string, 0, len(rowKinds))
			for _, k := range rowKinds {
				t := target{card: id, row: r.ID, kind: k}
				if t == m.focus {
					focusLine = len(lines)
				}
				cells = append(cells, mutedStyle.Render(fieldLabels[k]+": ")+m.value(d, t))
			}
			lines = append(lines, "    "+strings.Join(cells, mutedStyle.Render(" │ ")))
		}
		lines = append(lines, "")
	}
	if len(lines) == 0 {
		lines = append(lines, mutedStyle.Render("No task cards. ctrl+a adds one."))
	}
	return strings.Join(lines, "\n"), focusLine
}

func (m *Model) value(d *editor.Document, t target) string {
	v := fieldValue(d, t)
	switch t.kind {
	case kindPassword:
		v = strings.Repeat("•", len([]rune(v)))
	case kindClient:
		v = "‹ " + v + " ›"
	case kindDeleteData:
		if v == "yes" {
			v = "[x]"
		} else {
			v = "[ ]"
		}
	}
	if t != m.focus {
		return v
	}
	if t.isText() {
		v += "▏"
	}
	return focusedStyle.Render(v)
}
