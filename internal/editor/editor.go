package editor

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Roelanb/autoremove-webui/internal/config"
	"github.com/Roelanb/autoremove-webui/internal/observability"
)

// Output texts for preview/run.
const (
	OutputRunning  = "Running…"
	OutputDone     = "Done."
	OutputNoOutput = "No output."
)

// Backend is what the editor needs from the server. *Client implements it.
type Backend interface {
	Load(ctx context.Context) (config.Snapshot, error)
	SaveTasks(ctx context.Context, cfg config.Configuration) error
	SaveRaw(ctx context.Context, raw string) error
	Preview(ctx context.Context) (ActionResult, error)
	Run(ctx context.Context) (ActionResult, error)
}

// LoadedMsg carries the outcome of a load.
type LoadedMsg struct {
	Snapshot config.Snapshot
	Err      error
}

// SavedMsg carries the outcome of a save. On success Load holds the reload
// that the save command performed before returning.
type SavedMsg struct {
	Err  error
	Load *LoadedMsg
}

// ActionDoneMsg carries the outcome of a preview or run.
type ActionDoneMsg struct {
	Control Control
	Result  ActionResult
	Err     error
}

// Editor wires the session, the form document and the backend together.
// Trigger methods return the command to run; result messages must be fed
// back through Apply on the same goroutine.
type Editor struct {
	session *Session
	doc     *Document
	views   *ViewController
	backend Backend
	log     observability.Logger
}

func New(backend Backend, log observability.Logger) *Editor {
	s := NewSession()
	d := NewDocument()
	return &Editor{
		session: s,
		doc:     d,
		views:   NewViewController(s, d),
		backend: backend,
		log:     log,
	}
}

func (e *Editor) Session() *Session   { return e.session }
func (e *Editor) Document() *Document { return e.doc }

// Init starts the initial load with an empty output area.
func (e *Editor) Init() tea.Cmd {
	e.session.setOutput("", true)
	return e.Reload()
}

// SetView switches between form and raw without any request.
func (e *Editor) SetView(v View) {
	e.views.SetView(v)
}

// AddTask appends a default task card.
func (e *Editor) AddTask() CardID {
	return e.doc.AddTask()
}

// Reload fetches the current config.
func (e *Editor) Reload() tea.Cmd {
	if !e.begin(ControlReload) {
		return nil
	}
	e.session.banner = ""
	backend := e.backend
	return func() tea.Msg {
		snap, err := backend.Load(context.Background())
		return LoadedMsg{Snapshot: snap, Err: err}
	}
}

// Save submits the active view: collected tasks from the form, or the raw
// text. A successful save is followed by a load inside the same command.
func (e *Editor) Save() tea.Cmd {
	if !e.begin(ControlSave) {
		return nil
	}
	e.session.banner = ""
	backend := e.backend

	var submit func(context.Context) error
	if e.session.view == ViewForm {
		cfg := Collect(e.doc)
		submit = func(ctx context.Context) error { return backend.SaveTasks(ctx, cfg) }
	} else {
		raw := e.session.text
		submit = func(ctx context.Context) error { return backend.SaveRaw(ctx, raw) }
	}
	return func() tea.Msg {
		ctx := context.Background()
		if err := submit(ctx); err != nil {
			return SavedMsg{Err: err}
		}
		snap, err := backend.Load(ctx)
		return SavedMsg{Load: &LoadedMsg{Snapshot: snap, Err: err}}
	}
}

// Preview runs autoremove in view-only mode.
func (e *Editor) Preview() tea.Cmd {
	return e.action(ControlPreview, e.backend.Preview)
}

// Run performs the removal.
func (e *Editor) Run() tea.Cmd {
	return e.action(ControlRun, e.backend.Run)
}

func (e *Editor) action(c Control, call func(context.Context) (ActionResult, error)) tea.Cmd {
	if !e.begin(c) {
		return nil
	}
	e.session.setOutput(OutputRunning, false)
	return func() tea.Msg {
		res, err := call(context.Background())
		return ActionDoneMsg{Control: c, Result: res, Err: err}
	}
}

// begin marks c in flight; it refuses while c's own request is pending.
func (e *Editor) begin(c Control) bool {
	if e.session.inFlight[c] {
		return false
	}
	e.session.inFlight[c] = true
	return true
}

// Apply folds a result message into the session. It reports whether msg
// was an editor message.
func (e *Editor) Apply(msg tea.Msg) bool {
	switch msg := msg.(type) {
	case LoadedMsg:
		e.session.inFlight[ControlReload] = false
		e.applyLoad(msg)
	case SavedMsg:
		e.session.inFlight[ControlSave] = false
		if msg.Err != nil {
			e.session.banner = errorMessage(msg.Err)
			e.log.Warnw("save failed", "view", e.session.view.String(), "error", msg.Err)
			return true
		}
		e.session.banner = ""
		e.log.Infow("config saved", "view", e.session.view.String())
		if msg.Load != nil {
			e.applyLoad(*msg.Load)
		}
	case ActionDoneMsg:
		e.session.inFlight[msg.Control] = false
		if msg.Err != nil {
			e.session.setOutput("Error: "+errorMessage(msg.Err), false)
			e.log.Warnw("action failed", "action", string(msg.Control), "error", msg.Err)
			return true
		}
		out := msg.Result.Output
		if out == "" {
			if msg.Result.OK {
				out = OutputDone
			} else {
				out = OutputNoOutput
			}
		}
		e.session.setOutput(out, false)
	default:
		return false
	}
	return true
}

func (e *Editor) applyLoad(msg LoadedMsg) {
	if msg.Err != nil {
		e.session.banner = errorMessage(msg.Err)
		e.log.Warnw("load failed", "error", msg.Err)
		return
	}
	e.views.applySnapshot(msg.Snapshot)
	e.log.Debugw("config loaded", "bytes", len(msg.Snapshot.Raw), "error", msg.Snapshot.Err())
}

func errorMessage(err error) string {
	var ae *ActionError
	if errors.As(err, &ae) {
		return ae.Message
	}
	return err.Error()
}
