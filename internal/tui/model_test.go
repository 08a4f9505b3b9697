package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/Roelanb/autoremove-webui/internal/config"
	"github.com/Roelanb/autoremove-webui/internal/editor"
)

type stubBackend struct {
	snap   config.Snapshot
	saved  []config.Configuration
	raws   []string
	result editor.ActionResult
}

func (s *stubBackend) Load(context.Context) (config.Snapshot, error) { return s.snap, nil }

func (s *stubBackend) SaveTasks(_ context.Context, cfg config.Configuration) error {
	s.saved = append(s.saved, cfg)
	return nil
}

func (s *stubBackend) SaveRaw(_ context.Context, raw string) error {
	s.raws = append(s.raws, raw)
	return nil
}

func (s *stubBackend) Preview(context.Context) (editor.ActionResult, error) { return s.result, nil }
func (s *stubBackend) Run(context.Context) (editor.ActionResult, error)     { return s.result, nil }

const sample = `seedbox:
  client: transmission
  host: localhost:9091
  strategies:
    old:
      remove: seeding_time > 100
`

func newModel(t *testing.T, b *stubBackend) *Model {
	t.Helper()
	if b.snap.Raw == "" && b.snap.Parsed == nil && b.snap.Error == nil {
		b.snap = config.Parse(sample)
	}
	m := New(editor.New(b, zap.NewNop().Sugar()), zap.NewNop().Sugar())
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

// runCmd executes cmd and feeds every resulting message back into the model.
func runCmd(m *Model, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			if c == nil {
				continue
			}
			if inner := c(); inner != nil {
				if _, ok := inner.(tea.BatchMsg); !ok {
					m.Update(inner)
				}
			}
		}
	default:
		m.Update(msg)
	}
}

// sameText ignores the trailing newline the textarea may drop.
func sameText(a, b string) bool {
	return strings.TrimRight(a, "\n") == strings.TrimRight(b, "\n")
}

func press(m *Model, k tea.KeyMsg) tea.Cmd {
	_, cmd := m.Update(k)
	return cmd
}

func typeText(m *Model, s string) {
	press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func TestInitLoadsForm(t *testing.T) {
	m := newModel(t, &stubBackend{})
	runCmd(m, m.Init())

	cards := m.ed.Document().Cards()
	if len(cards) != 1 {
		t.Fatalf("cards = %d", len(cards))
	}
	view := m.View()
	for _, want := range []string{"seedbox", "transmission", "seeding_time > 100"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if m.focus.kind != kindName {
		t.Fatalf("focus should start on the task name, got %v", m.focus.kind)
	}
}

func TestTypingEditsFocusedField(t *testing.T) {
	m := newModel(t, &stubBackend{})
	runCmd(m, m.Init())
	id := m.ed.Document().Cards()[0]

	typeText(m, "_2")
	press(m, tea.KeyMsg{Type: tea.KeyBackspace})
	if c, _ := m.ed.Document().Card(id); c.Name != "seedbox_" {
		t.Fatalf("name = %q", c.Name)
	}

	press(m, tea.KeyMsg{Type: tea.KeyTab})
	press(m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if c, _ := m.ed.Document().Card(id); c.Client != config.ClientUTorrent {
		t.Fatalf("client = %q", c.Client)
	}

	// shift+tab back to the name, tab five times to delete_data
	press(m, tea.KeyMsg{Type: tea.KeyShiftTab})
	for i := 0; i < 5; i++ {
		press(m, tea.KeyMsg{Type: tea.KeyTab})
	}
	press(m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if c, _ := m.ed.Document().Card(id); !c.DeleteData {
		t.Fatal("delete_data should be toggled on")
	}
}

func TestAddAndRemove(t *testing.T) {
	m := newModel(t, &stubBackend{})
	runCmd(m, m.Init())
	d := m.ed.Document()

	press(m, tea.KeyMsg{Type: tea.KeyCtrlA})
	if len(d.Cards()) != 2 {
		t.Fatalf("cards = %d", len(d.Cards()))
	}
	added := d.Cards()[1]
	if m.focus.card != added || m.focus.kind != kindName {
		t.Fatalf("focus should move to the new card: %+v", m.focus)
	}

	press(m, tea.KeyMsg{Type: tea.KeyCtrlN})
	if n := len(d.Rows(added)); n != 2 {
		t.Fatalf("rows = %d", n)
	}
	if m.focus.row == 0 {
		t.Fatal("focus should move to the new row")
	}
	press(m, tea.KeyMsg{Type: tea.KeyCtrlD})
	if n := len(d.Rows(added)); n != 1 {
		t.Fatalf("rows after remove = %d", n)
	}

	press(m, tea.KeyMsg{Type: tea.KeyCtrlX})
	if len(d.Cards()) != 1 {
		t.Fatalf("cards after remove = %d", len(d.Cards()))
	}
	if _, ok := d.Card(m.focus.card); !ok {
		t.Fatal("focus should land on a remaining card")
	}
}

func TestRawViewEditAndSave(t *testing.T) {
	b := &stubBackend{}
	m := newModel(t, b)
	runCmd(m, m.Init())

	press(m, tea.KeyMsg{Type: tea.KeyF3})
	if m.ed.Session().View() != editor.ViewRaw {
		t.Fatal("expected raw view")
	}
	if !sameText(m.raw.Value(), sample) {
		t.Fatalf("textarea = %q", m.raw.Value())
	}
	typeText(m, "#")
	if !strings.Contains(m.ed.Session().Text(), "#") {
		t.Fatal("session text should follow the textarea")
	}

	runCmd(m, press(m, tea.KeyMsg{Type: tea.KeyCtrlS}))
	if len(b.raws) != 1 || !strings.Contains(b.raws[0], "#") {
		t.Fatalf("raw saves = %q", b.raws)
	}
	if len(b.saved) != 0 {
		t.Fatal("raw view must not save the form")
	}
	// the reload after save restores the server text
	if m.ed.Session().Text() != sample || !sameText(m.raw.Value(), sample) {
		t.Fatalf("textarea after save = %q", m.raw.Value())
	}
}

func TestRawCursorMoveKeepsBufferVerbatim(t *testing.T) {
	raw := "seedbox:\n  client: transmission\n  host: \"a\tb\"\n  strategies:\n    old:\n      remove: seeding_time > 100\n"
	b := &stubBackend{snap: config.Parse(raw)}
	m := newModel(t, b)
	runCmd(m, m.Init())

	press(m, tea.KeyMsg{Type: tea.KeyF3})
	press(m, tea.KeyMsg{Type: tea.KeyDown})
	if m.ed.Session().Text() != raw {
		t.Fatalf("session text after cursor move = %q", m.ed.Session().Text())
	}
	runCmd(m, press(m, tea.KeyMsg{Type: tea.KeyCtrlS}))
	if len(b.raws) != 1 || b.raws[0] != raw {
		t.Fatalf("raw saves = %q", b.raws)
	}
}

func TestFormSaveCollects(t *testing.T) {
	b := &stubBackend{}
	m := newModel(t, b)
	runCmd(m, m.Init())
	runCmd(m, press(m, tea.KeyMsg{Type: tea.KeyCtrlS}))

	if len(b.saved) != 1 || b.saved[0].Tasks[0].Name != "seedbox" {
		t.Fatalf("saved = %+v", b.saved)
	}
}

func TestErrorSnapshotShowsBannerInRaw(t *testing.T) {
	b := &stubBackend{snap: config.Parse("a: [")}
	m := newModel(t, b)
	runCmd(m, m.Init())

	if m.ed.Session().View() != editor.ViewRaw {
		t.Fatal("error load should force raw")
	}
	if !m.raw.Focused() {
		t.Fatal("textarea should take focus")
	}
	if !strings.Contains(m.View(), m.ed.Session().Banner()) {
		t.Fatal("banner not rendered")
	}
}

func TestPreviewOutput(t *testing.T) {
	b := &stubBackend{result: editor.ActionResult{OK: true}}
	m := newModel(t, b)
	if !strings.Contains(m.View(), outputPlaceholder) {
		t.Fatal("empty output placeholder missing")
	}
	runCmd(m, press(m, tea.KeyMsg{Type: tea.KeyF5}))
	if out, _ := m.ed.Session().Output(); out != editor.OutputDone {
		t.Fatalf("output = %q", out)
	}
	if !strings.Contains(m.View(), editor.OutputDone) {
		t.Fatal("output not rendered")
	}
}

func TestEmptyConfigShowsPlaceholder(t *testing.T) {
	b := &stubBackend{snap: config.Parse("")}
	m := newModel(t, b)
	runCmd(m, m.Init())
	if !strings.Contains(m.View(), editor.PlaceholderText) {
		t.Fatal("placeholder not rendered")
	}
	// typing with nothing focused is a no-op
	typeText(m, "x")
	press(m, tea.KeyMsg{Type: tea.KeyCtrlA})
	if len(m.ed.Document().Cards()) != 1 {
		t.Fatal("ctrl+a should add a task")
	}
}

func TestQuit(t *testing.T) {
	m := newModel(t, &stubBackend{})
	cmd := press(m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}
