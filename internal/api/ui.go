package api

import (
	"bytes"
	"html/template"
	"net/http"
	"sync"

	"github.com/yuin/goldmark"

	"github.com/Roelanb/autoremove-webui/internal/editor"
	"github.com/Roelanb/autoremove-webui/internal/history"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

var baseTpl = template.Must(template.New("base").Parse(`
<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>autoremove-torrents</title>
<style>
body { font-family: system-ui, -apple-system, Segoe UI, Roboto, Ubuntu, Cantarell, Noto Sans, Arial, sans-serif; margin: 0; background: #0b0f14; color: #e6edf3; }
header, footer { padding: 12px 16px; background: #111827; border-bottom: 1px solid #1f2937; }
footer { border-top: 1px solid #1f2937; border-bottom: none; color: #9ca3af; }
.container { padding: 16px; max-width: 1024px; margin: 0 auto; }
h1, h2, h3 { margin: 0 0 12px 0; }
.card, .task-card { background: #111827; border: 1px solid #1f2937; border-radius: 8px; padding: 12px; margin-bottom: 16px; }
table { width: 100%; border-collapse: collapse; font-size: 14px; }
th, td { border-bottom: 1px solid #1f2937; padding: 8px; text-align: left; vertical-align: top; }
th { color: #9ca3af; font-weight: 600; }
code, pre { background: #0b1220; border: 1px solid #1f2937; border-radius: 6px; padding: 8px; display: block; overflow-x: auto; }
input[type="text"], input[type="password"], select { width: 100%; background: #0b1220; border: 1px solid #1f2937; color: #e6edf3; border-radius: 6px; padding: 8px; box-sizing: border-box; }
.form-grid { display: grid; grid-template-columns: 1fr 1fr; gap: 8px; }
.field-label { color: #9ca3af; font-size: 12px; display: block; }
.btn { display: none; }
.banner { background: #7f1d1d; color: #fee2e2; padding: 8px 12px; border-radius: 6px; margin-bottom: 16px; }
.badge { display: inline-block; padding: 2px 8px; border-radius: 999px; font-size: 12px; }
.badge.yes { background: #065f46; color: #d1fae5; }
.badge.no { background: #7f1d1d; color: #fee2e2; }
</style>
</head>
<body>
<header>
  <div class="container">
    <h1>autoremove-torrents</h1>
  </div>
</header>
<main class="container">
  {{ template "content" . }}
</main>
<footer>
  <div class="container">
    autoremove-webui {{.Version}}
  </div>
</footer>
</body>
</html>
`))

var overviewTpl = template.Must(template.Must(baseTpl.Clone()).New("content").Parse(`
<div class="card">{{.Help}}</div>
{{if .Error}}<div class="banner">{{.Error}}</div>{{end}}
<div class="card">
  <h2>Tasks</h2>
  <fieldset disabled style="border:0;padding:0;margin:0">{{.Form}}</fieldset>
</div>
<div class="card">
  <h2>Raw YAML</h2>
  <pre>{{.Raw}}</pre>
</div>
<div class="card">
  <h2>Recent runs</h2>
  <table>
    <thead><tr><th>Started</th><th>Mode</th><th>Result</th><th>Code</th></tr></thead>
    <tbody>
      {{range .Runs}}
      <tr>
        <td><code>{{.StartedAt.Format "2006-01-02 15:04:05"}}</code></td>
        <td>{{.Mode}}</td>
        <td>{{if .OK}}<span class="badge yes">ok</span>{{else}}<span class="badge no">failed</span>{{end}}</td>
        <td>{{.Code}}</td>
      </tr>
      {{else}}
      <tr><td colspan="4">No runs yet</td></tr>
      {{end}}
    </tbody>
  </table>
</div>
`))

const helpMarkdown = `## Editing the configuration

The configuration is edited from a terminal with ` + "`autoremove-webui edit`" + `, which talks
to this server. Each **task** names a torrent client connection; each **strategy**
inside it names a ` + "`remove`" + ` condition such as ` + "`seeding_time > 388800`" + `.

- Strategies without a name or a remove condition are dropped on save.
- **Preview** runs autoremove-torrents with ` + "`--view`" + ` and removes nothing.
- **Run** performs the removal.
`

var (
	helpOnce sync.Once
	helpHTML template.HTML
)

// renderHelp converts the help text once; a conversion error leaves the
// panel empty.
func renderHelp() template.HTML {
	helpOnce.Do(func() {
		var buf bytes.Buffer
		if err := goldmark.Convert([]byte(helpMarkdown), &buf); err == nil {
			helpHTML = template.HTML(buf.String())
		}
	})
	return helpHTML
}

type overviewData struct {
	Help    template.HTML
	Form    template.HTML
	Raw     string
	Error   string
	Runs    []history.RunRecord
	Version string
}

// mountUI registers the read-only overview page at /.
func (s *Server) mountUI() {
	s.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			writeError(w, http.StatusMethodNotAllowed, "GET only")
			return
		}
		snap := s.ctrl.Config()
		doc := editor.NewDocument()
		if snap.Parsed != nil {
			doc.Render(snap.Parsed.Tasks)
		}
		// Document.HTML escapes every value it emits
		form := template.HTML(doc.HTML())
		data := overviewData{
			Help:    renderHelp(),
			Form:    form,
			Raw:     snap.Raw,
			Error:   snap.Err(),
			Version: Version,
		}
		if _, runs, err := s.ctrl.History(10); err == nil {
			data.Runs = runs
		} else {
			s.log.Warnw("overview history unavailable", "error", err)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := overviewTpl.ExecuteTemplate(w, "base", data); err != nil {
			s.log.Errorw("render overview failed", "error", err)
		}
	})
}
