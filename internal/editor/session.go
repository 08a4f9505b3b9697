package editor

import "github.com/Roelanb/autoremove-webui/internal/config"

type View int

const (
	ViewForm View = iota
	ViewRaw
)

func (v View) String() string {
	if v == ViewRaw {
		return "raw"
	}
	return "form"
}

// Control names a trigger that can have a request in flight.
type Control string

const (
	ControlReload  Control = "reload"
	ControlSave    Control = "save"
	ControlPreview Control = "preview"
	ControlRun     Control = "run"
)

// Session holds the editor state shared between the views and the action
// results. The raw buffer and parsed snapshot only change on a successful
// load; the rest is display state.
type Session struct {
	view View

	// last raw buffer and parsed snapshot from the server
	raw    string
	parsed *config.Configuration

	// raw editing surface; textRev bumps whenever the controller replaces it
	text    string
	textRev int

	banner      string
	output      string
	outputEmpty bool

	inFlight map[Control]bool
}

func NewSession() *Session {
	return &Session{
		view:        ViewForm,
		outputEmpty: true,
		inFlight:    map[Control]bool{},
	}
}

func (s *Session) View() View                        { return s.view }
func (s *Session) Raw() string                       { return s.raw }
func (s *Session) Parsed() *config.Configuration     { return s.parsed }
func (s *Session) Text() string                      { return s.text }
func (s *Session) TextRev() int                      { return s.textRev }
func (s *Session) Banner() string                    { return s.banner }
func (s *Session) Output() (text string, empty bool) { return s.output, s.outputEmpty }
func (s *Session) InFlight(c Control) bool           { return s.inFlight[c] }

// Busy reports whether any request is in flight.
func (s *Session) Busy() bool {
	for _, on := range s.inFlight {
		if on {
			return true
		}
	}
	return false
}

// SetText records user edits to the raw surface.
func (s *Session) SetText(v string) { s.text = v }

func (s *Session) replaceText(v string) {
	s.text = v
	s.textRev++
}

func (s *Session) setOutput(text string, empty bool) {
	s.output = text
	s.outputEmpty = empty
}

// ViewController decides which representation is authoritative and
// re-projects the session into it.
type ViewController struct {
	session *Session
	doc     *Document
}

func NewViewController(s *Session, d *Document) *ViewController {
	return &ViewController{session: s, doc: d}
}

// SetView switches views. Entering the form rebuilds it from the last parsed
// snapshot if there is one; entering raw shows the raw buffer verbatim.
func (vc *ViewController) SetView(v View) {
	vc.session.view = v
	vc.project()
}

func (vc *ViewController) project() {
	s := vc.session
	switch s.view {
	case ViewForm:
		if s.parsed != nil && s.parsed.Tasks != nil {
			vc.doc.Render(s.parsed.Tasks)
		}
	case ViewRaw:
		s.replaceText(s.raw)
	}
}

// applySnapshot installs a loaded snapshot. A snapshot carrying an error
// forces the raw view and shows the message.
func (vc *ViewController) applySnapshot(snap config.Snapshot) {
	s := vc.session
	s.raw = snap.Raw
	s.parsed = snap.Parsed
	if msg := snap.Err(); msg != "" {
		s.banner = msg
		vc.SetView(ViewRaw)
		return
	}
	vc.project()
}
